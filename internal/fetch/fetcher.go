// Package fetch retrieves raw list content for a single source, either over
// HTTP or from a local file. Failures are reported per source and are never
// fatal to a run; the caller substitutes an empty contribution.
package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"emaildomains/pkg/domain"
	"emaildomains/pkg/logger"
	"emaildomains/pkg/serrors"

	"go.uber.org/zap"
)

// Options configure how sources are retrieved.
type Options struct {
	// Timeout bounds each remote request. Expiry is treated as a failed fetch,
	// not retried.
	Timeout time.Duration
	// SourcesDir is the directory local source paths are resolved against.
	SourcesDir string
	// ScratchDir, when non-empty, receives a copy of each fetched remote body
	// as <ScratchDir>/<sourceID>.txt for inspection. The copy is never read
	// back as input.
	ScratchDir string
}

// Fetcher retrieves raw line content for sources. It is safe for concurrent
// use; each Fetch call touches only its own source.
type Fetcher struct {
	httpClient *http.Client
	options    Options
}

// New constructs a Fetcher that uses the provided http.Client for remote
// origins.
func New(httpClient *http.Client, options Options) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		options:    options,
	}
}

// Fetch returns the raw lines of one source. Remote failures and missing
// local files are returned as serrors.ErrFetch, expired request deadlines as
// serrors.ErrTimeout; either way callers can recover per source.
func (f *Fetcher) Fetch(ctx context.Context, source domain.Source) ([]string, error) {
	if source.Remote() {
		return f.fetchRemote(ctx, source)
	}

	return f.readLocal(ctx, source)
}

func (f *Fetcher) fetchRemote(ctx context.Context, source domain.Source) ([]string, error) {
	reqCtx := ctx
	if f.options.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, f.options.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrFetch, err, "could not create request for source %q", source.ID)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, serrors.Wrap(serrors.ErrTimeout, err, "source %q timed out", source.ID)
		}

		return nil, serrors.Wrap(serrors.ErrFetch, err, "could not fetch source %q", source.ID)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, serrors.With(serrors.ErrFetch, "source %q returned status %d", source.ID, resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrFetch, err, "could not read body of source %q", source.ID)
	}

	f.cache(ctx, source, b)

	return splitLines(string(b)), nil
}

// readLocal reads a source file relative to the sources directory. A missing
// file is an ordinary recovered failure since local sources are optional
// contributions.
func (f *Fetcher) readLocal(ctx context.Context, source domain.Source) ([]string, error) {
	path := filepath.Join(f.options.SourcesDir, source.Path)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrFetch, err, "could not read local source %q", source.ID)
	}

	logger.Debug(ctx, "read local source",
		zap.String("source", source.ID),
		zap.String("path", path))

	return splitLines(string(b)), nil
}

// cache writes a fetched remote body to the scratch directory. Cache failures
// only warn; the fetched content is already in memory.
func (f *Fetcher) cache(ctx context.Context, source domain.Source, body []byte) {
	if f.options.ScratchDir == "" {
		return
	}

	path := filepath.Join(f.options.ScratchDir, source.ID+".txt")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		logger.Warn(ctx, "could not cache fetched source",
			zap.String("source", source.ID),
			zap.Error(err))

		return
	}

	logger.Debug(ctx, "cached fetched source",
		zap.String("source", source.ID),
		zap.String("path", path))
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}

	return strings.Split(s, "\n")
}

// ReadListFile loads a standalone newline-delimited list file (such as the
// allowlist) without going through a source descriptor. A missing file yields
// serrors.ErrFetch like any other failed local read.
func ReadListFile(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrFetch, err, "could not read list file %q", path)
	}

	return splitLines(string(b)), nil
}
