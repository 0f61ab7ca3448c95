package pipeline_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"emaildomains/internal/config"
	"emaildomains/internal/pipeline"
	"emaildomains/pkg/domain"
	"emaildomains/pkg/filter"
	"emaildomains/pkg/serrors"

	"github.com/stretchr/testify/require"
)

// newTestServer serves fixed list bodies per path; paths mapped to a nil body
// respond with HTTP 500.
func newTestServer(t *testing.T, bodies map[string]string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv
}

type testEnv struct {
	cfg *config.Config
}

// newTestEnv lays out a sources dir, registry and allowlist in temp
// directories and returns a ready config.
func newTestEnv(t *testing.T, registryJSON, allowlist string, localFiles map[string]string) testEnv {
	t.Helper()

	base := t.TempDir()
	sourcesDir := filepath.Join(base, "sources")
	require.NoError(t, os.MkdirAll(sourcesDir, 0o750))

	registryPath := filepath.Join(sourcesDir, "sources.json")
	require.NoError(t, os.WriteFile(registryPath, []byte(registryJSON), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(sourcesDir, "allowlist.txt"), []byte(allowlist), 0o600))
	for name, content := range localFiles {
		require.NoError(t, os.WriteFile(filepath.Join(sourcesDir, name), []byte(content), 0o600))
	}

	cfg := &config.Config{}
	cfg.Environment = "development"
	cfg.Sources.Registry = registryPath
	cfg.Sources.Dir = sourcesDir
	cfg.Sources.Allowlist = "allowlist.txt"
	cfg.Fetch.Timeout = 5 * time.Second
	cfg.Fetch.Concurrency = 2
	cfg.Fetch.ScratchDir = filepath.Join(base, "temp")
	cfg.Output.Dir = filepath.Join(base, "output")

	return testEnv{cfg: cfg}
}

func TestRun_EndToEnd(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/disposable": "# comment\ntemp.com\nx.com\n",
		"/free":       "x.com\ngmail.com\nyahoo.com\n",
	})

	env := newTestEnv(t, `{
		"sources": [
			{"id": "blocklist", "category": "disposable", "url": "`+srv.URL+`/disposable"},
			{"id": "providers", "category": "free", "url": "`+srv.URL+`/free"},
			{"id": "paid-personal", "category": "paid_personal", "path": "paid_personal.txt"}
		]
	}`, "", map[string]string{
		"paid_personal.txt": "hey.com\n",
	})

	summary, err := pipeline.New(env.cfg, srv.Client(), nil).Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, summary.FailedSources)
	require.Equal(t, 5, summary.Metadata.TotalDomains)

	f, err := filter.Load(filepath.Join(env.cfg.Output.Dir, "email_domains.json"))
	require.NoError(t, err)
	require.Equal(t, domain.CategoryDisposable, f.Categorize("x.com"), "disposable wins the conflict")
	require.Equal(t, domain.CategoryDisposable, f.Categorize("temp.com"))
	require.Equal(t, domain.CategoryFree, f.Categorize("gmail.com"))
	require.Equal(t, domain.CategoryPaidPersonal, f.Categorize("hey.com"))
	require.Equal(t, domain.CategoryBusiness, f.Categorize("example.com"))
}

func TestRun_DeadSourceIsNotFatal(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/free": "gmail.com\n",
		// /disposable is not mapped and returns 500
	})

	env := newTestEnv(t, `{
		"sources": [
			{"id": "blocklist", "category": "disposable", "url": "`+srv.URL+`/disposable"},
			{"id": "providers", "category": "free", "url": "`+srv.URL+`/free"}
		]
	}`, "", nil)

	summary, err := pipeline.New(env.cfg, srv.Client(), nil).Run(context.Background())
	require.NoError(t, err, "one dead source must not abort the run")
	require.Equal(t, []string{"blocklist"}, summary.FailedSources)

	f, err := filter.Load(filepath.Join(env.cfg.Output.Dir, "email_domains.json"))
	require.NoError(t, err)
	require.Equal(t, domain.CategoryFree, f.Categorize("gmail.com"), "surviving sources stay categorized")

	// the dead source still appears in stats with an empty contribution
	var found bool
	for _, s := range summary.Stats {
		if s.SourceID == "blocklist" {
			found = true
			require.Zero(t, s.Raw)
		}
	}
	require.True(t, found)
}

func TestRun_AllowlistSuppression(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/disposable": "temp.com\nshared.com\n",
		"/free":       "shared.com\ngmail.com\n",
	})

	env := newTestEnv(t, `{
		"sources": [
			{"id": "blocklist", "category": "disposable", "url": "`+srv.URL+`/disposable"},
			{"id": "providers", "category": "free", "url": "`+srv.URL+`/free"}
		]
	}`, "temp.com\nshared.com\n", nil)

	_, err := pipeline.New(env.cfg, srv.Client(), nil).Run(context.Background())
	require.NoError(t, err)

	f, err := filter.Load(filepath.Join(env.cfg.Output.Dir, "email_domains.json"))
	require.NoError(t, err)
	require.Equal(t, domain.CategoryBusiness, f.Categorize("temp.com"),
		"allowlisted domain with only disposable claims is dropped entirely")
	require.Equal(t, domain.CategoryFree, f.Categorize("shared.com"),
		"allowlisted domain falls through to free when a free source lists it")
}

func TestRun_BadRegistryAbortsBeforeOutput(t *testing.T) {
	env := newTestEnv(t, `{
		"sources": [
			{"id": "dup", "category": "free", "url": "https://example.com/1"},
			{"id": "dup", "category": "free", "url": "https://example.com/2"}
		]
	}`, "", nil)

	_, err := pipeline.New(env.cfg, http.DefaultClient, nil).Run(context.Background())
	require.ErrorIs(t, err, serrors.ErrConfig)

	_, statErr := os.Stat(env.cfg.Output.Dir)
	require.True(t, os.IsNotExist(statErr), "no outputs may be written on a fatal config error")
}

func TestRun_ScratchCacheKept(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/disposable": "temp.com\n",
	})

	env := newTestEnv(t, `{
		"sources": [{"id": "blocklist", "category": "disposable", "url": "`+srv.URL+`/disposable"}]
	}`, "", nil)
	env.cfg.Fetch.KeepScratch = true

	summary, err := pipeline.New(env.cfg, srv.Client(), nil).Run(context.Background())
	require.NoError(t, err)

	cached, err := os.ReadFile(filepath.Join(
		env.cfg.Fetch.ScratchDir, summary.Metadata.RunID.String(), "blocklist.txt"))
	require.NoError(t, err)
	require.Equal(t, "temp.com\n", string(cached))
}

func TestRun_ScratchCleanedByDefault(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/disposable": "temp.com\n",
	})

	env := newTestEnv(t, `{
		"sources": [{"id": "blocklist", "category": "disposable", "url": "`+srv.URL+`/disposable"}]
	}`, "", nil)

	summary, err := pipeline.New(env.cfg, srv.Client(), nil).Run(context.Background())
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(env.cfg.Fetch.ScratchDir, summary.Metadata.RunID.String()))
	require.True(t, os.IsNotExist(statErr), "scratch dir must be removed after the run")
}

func TestRun_Idempotent(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/disposable": "temp.com\nx.com\n",
		"/free":       "x.com\ngmail.com\n",
	})

	env := newTestEnv(t, `{
		"sources": [
			{"id": "blocklist", "category": "disposable", "url": "`+srv.URL+`/disposable"},
			{"id": "providers", "category": "free", "url": "`+srv.URL+`/free"}
		]
	}`, "", nil)

	p := pipeline.New(env.cfg, srv.Client(), nil)
	first, err := p.Run(context.Background())
	require.NoError(t, err)
	firstJSON, err := os.ReadFile(filepath.Join(env.cfg.Output.Dir, "email_domains.json"))
	require.NoError(t, err)

	second, err := p.Run(context.Background())
	require.NoError(t, err)
	secondJSON, err := os.ReadFile(filepath.Join(env.cfg.Output.Dir, "email_domains.json"))
	require.NoError(t, err)

	require.Equal(t, first.Stats, second.Stats)
	require.True(t, second.Metadata.GeneratedAt.Equal(first.Metadata.GeneratedAt),
		"unchanged content preserves the generation timestamp")

	// run_id differs between runs; everything else must be byte-identical
	require.JSONEq(t, replaceRunID(t, string(firstJSON), second.Metadata.RunID),
		string(secondJSON))
}

func TestRun_TimestampSurvivesSerialization(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/disposable": "temp.com\n",
	})

	env := newTestEnv(t, `{
		"sources": [{"id": "blocklist", "category": "disposable", "url": "`+srv.URL+`/disposable"}]
	}`, "", nil)

	summary, err := pipeline.New(env.cfg, srv.Client(), nil).Run(context.Background())
	require.NoError(t, err)

	// the combined file carries the timestamp at second precision; the
	// in-memory metadata must already be at that precision or it could never
	// match the round-tripped value on the next run
	require.Zero(t, summary.Metadata.GeneratedAt.Nanosecond())

	b, err := os.ReadFile(filepath.Join(env.cfg.Output.Dir, "email_domains.json"))
	require.NoError(t, err)
	var combined struct {
		Metadata struct {
			Generated time.Time `json:"generated"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(b, &combined))
	require.True(t, combined.Metadata.Generated.Equal(summary.Metadata.GeneratedAt))

	b, err = os.ReadFile(filepath.Join(env.cfg.Output.Dir, "source_stats.json"))
	require.NoError(t, err)
	var stats struct {
		Generated time.Time `json:"generated"`
	}
	require.NoError(t, json.Unmarshal(b, &stats))
	require.True(t, stats.Generated.Equal(summary.Metadata.GeneratedAt),
		"stats file and combined file must agree on the generation timestamp")
}

func replaceRunID(t *testing.T, doc string, id domain.RunID) string {
	t.Helper()

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &m))
	meta, ok := m["metadata"].(map[string]any)
	require.True(t, ok)
	meta["run_id"] = id.String()
	b, err := json.Marshal(m)
	require.NoError(t, err)

	return string(b)
}
