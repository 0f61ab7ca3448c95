// Package pipeline wires a full aggregation run: registry loading, bounded
// concurrent fetching, normalization, aggregation, report writing and
// history recording. A run either completes with a full consistent output set
// or aborts on a configuration error before writing anything.
package pipeline

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"emaildomains/internal/aggregate"
	"emaildomains/internal/config"
	"emaildomains/internal/fetch"
	"emaildomains/internal/normalize"
	"emaildomains/internal/registry"
	"emaildomains/internal/report"
	"emaildomains/pkg/domain"
	"emaildomains/pkg/logger"
	"emaildomains/pkg/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pipeline executes aggregation runs. Construct it once per process with New.
type Pipeline struct {
	cfg        *config.Config
	httpClient *http.Client
	// history records finished runs; nil disables recording.
	history storage.Storage
}

// New assembles a Pipeline. history may be nil when no run-history database
// is configured.
func New(cfg *config.Config, httpClient *http.Client, history storage.Storage) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		httpClient: httpClient,
		history:    history,
	}
}

// Summary reports the outcome of one run.
type Summary struct {
	Metadata domain.Metadata
	Stats    []domain.SourceStats
	// FailedSources lists sources that contributed nothing because their
	// fetch failed. The run still completes; dead sources are never fatal.
	FailedSources []string
}

// Run executes one aggregation end to end. Only configuration problems and
// output write failures abort a run; individual source failures are logged
// and the source contributes an empty set.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	reg, err := registry.Load(p.cfg.Sources.Registry)
	if err != nil {
		return nil, err
	}
	sources := reg.Enabled()

	runID := domain.NewRunID()
	ctx = logger.WithFields(ctx, zap.String("run", runID.String()))
	logger.Info(ctx, "starting aggregation run", zap.Int("sources", len(sources)))

	scratchDir := p.setupScratch(ctx, runID)
	if scratchDir != "" && !p.cfg.Fetch.KeepScratch {
		defer func() {
			if err := os.RemoveAll(scratchDir); err != nil {
				logger.Warn(ctx, "could not clean scratch dir", zap.Error(err))
			}
		}()
	}

	fetcher := fetch.New(p.httpClient, fetch.Options{
		Timeout:    p.cfg.Fetch.Timeout,
		SourcesDir: p.cfg.Sources.Dir,
		ScratchDir: scratchDir,
	})

	allowlist := p.loadAllowlist(ctx)

	sets, failed := p.fetchAll(ctx, fetcher, sources)

	res, err := aggregate.Aggregate(aggregate.Input{Sources: sets, Allowlist: allowlist})
	if err != nil {
		return nil, err
	}

	meta := domain.Metadata{
		RunID: runID,
		// whole seconds only: the timestamp round-trips through the RFC3339
		// field of the combined output file, and sub-second precision would
		// not survive the comparison against the previous snapshot
		GeneratedAt:  time.Now().UTC().Truncate(time.Second),
		TotalDomains: res.Dataset.Total(),
		Disposable:   len(res.Dataset.Disposable),
		Free:         len(res.Dataset.Free),
		PaidPersonal: len(res.Dataset.PaidPersonal),
	}

	meta, err = report.NewWriter(p.cfg.Output.Dir).Write(ctx, res, meta)
	if err != nil {
		return nil, err
	}

	p.record(ctx, meta, res.Stats)

	logger.Info(ctx, "aggregation run complete",
		zap.Int("total", meta.TotalDomains),
		zap.Int("disposable", meta.Disposable),
		zap.Int("free", meta.Free),
		zap.Int("paid_personal", meta.PaidPersonal),
		zap.Strings("failed_sources", failed))

	return &Summary{
		Metadata:      meta,
		Stats:         res.Stats,
		FailedSources: failed,
	}, nil
}

// fetchAll retrieves every source concurrently, bounded by the configured
// concurrency limit. Each goroutine writes only its own slot, so no locking is
// needed; the slice is read only after Wait returns. Fetch failures leave a
// nil slot and are reported in the failed list.
func (p *Pipeline) fetchAll(ctx context.Context,
	fetcher *fetch.Fetcher,
	sources []domain.Source) ([]aggregate.SourceSet, []string) {
	raw := make([][]string, len(sources))
	failedSlots := make([]bool, len(sources))

	g := &errgroup.Group{}
	limit := p.cfg.Fetch.Concurrency
	if limit <= 0 {
		limit = len(sources)
	}
	g.SetLimit(limit)

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			lines, err := fetcher.Fetch(ctx, src)
			if err != nil {
				logger.Warn(ctx, "source fetch failed, contributing empty set",
					zap.String("source", src.ID),
					zap.Error(err))
				failedSlots[i] = true

				return nil
			}
			raw[i] = lines

			return nil
		})
	}
	// goroutines never return errors; Wait only synchronizes
	_ = g.Wait()

	sets := make([]aggregate.SourceSet, 0, len(sources))
	var failed []string
	for i, src := range sources {
		set, invalid := normalize.Lines(raw[i])
		logger.Info(ctx, "normalized source",
			zap.String("source", src.ID),
			zap.String("category", string(src.Category)),
			zap.Int("domains", len(set)),
			zap.Int("invalid", invalid))
		sets = append(sets, aggregate.SourceSet{Source: src, Set: set, Invalid: invalid})
		if failedSlots[i] {
			failed = append(failed, src.ID)
		}
	}

	return sets, failed
}

// setupScratch creates the per-run scratch directory. Failure to create it
// only disables caching; the run proceeds.
func (p *Pipeline) setupScratch(ctx context.Context, runID domain.RunID) string {
	if p.cfg.Fetch.ScratchDir == "" {
		return ""
	}

	dir := filepath.Join(p.cfg.Fetch.ScratchDir, runID.String())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		logger.Warn(ctx, "could not create scratch dir, caching disabled", zap.Error(err))

		return ""
	}

	return dir
}

// loadAllowlist reads the allowlist file. A missing allowlist is an empty
// allowlist, not an error.
func (p *Pipeline) loadAllowlist(ctx context.Context) domain.DomainSet {
	path := filepath.Join(p.cfg.Sources.Dir, p.cfg.Sources.Allowlist)
	lines, err := fetch.ReadListFile(path)
	if err != nil {
		logger.Warn(ctx, "could not read allowlist, continuing without it",
			zap.String("path", path),
			zap.Error(err))

		return domain.DomainSet{}
	}

	set, invalid := normalize.Lines(lines)
	logger.Info(ctx, "loaded allowlist",
		zap.Int("domains", len(set)),
		zap.Int("invalid", invalid))

	return set
}

// record stores the finished run in the history database. Recording is
// best-effort: the outputs are already on disk, so a history failure only
// warns.
func (p *Pipeline) record(ctx context.Context, meta domain.Metadata, stats []domain.SourceStats) {
	if p.history == nil {
		return
	}

	run := domain.Run{
		ID:           meta.RunID,
		GeneratedAt:  meta.GeneratedAt,
		TotalDomains: meta.TotalDomains,
		Disposable:   meta.Disposable,
		Free:         meta.Free,
		PaidPersonal: meta.PaidPersonal,
		Sources:      stats,
	}
	err := p.history.WithTx(ctx, func(tx storage.AllStorage) error {
		return tx.StoreRun(ctx, run)
	})
	if err != nil {
		logger.Warn(ctx, "could not record run in history", zap.Error(err))

		return
	}

	logger.Info(ctx, "recorded run in history")
}
