package sqlite

import (
	"context"
	"fmt"

	"emaildomains/pkg/domain"

	"github.com/doug-martin/goqu/v9"
)

const (
	runsTable       = "runs"
	runSourcesTable = "run_sources"
)

// StoreRun records a finished run and its per-source statistics.
func (s *SQLite) StoreRun(ctx context.Context, run domain.Run) error {
	var row SqRun
	row.FromDomain(run)

	if _, err := s.Builder.Insert(runsTable).
		Rows(row).
		Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("could not store run: %w", err)
	}

	sources := runSourcesFromDomain(run.ID, run.Sources)
	if len(sources) == 0 {
		return nil
	}
	if _, err := s.Builder.Insert(runSourcesTable).
		Rows(sources).
		Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("could not store run sources: %w", err)
	}

	return nil
}

// RecentRuns returns up to limit recorded runs, newest first. Per-source
// statistics are not populated; use RunStats for those.
func (s *SQLite) RecentRuns(ctx context.Context, limit uint) ([]domain.Run, error) {
	var rows []SqRun
	if err := s.Builder.From(runsTable).
		Order(goqu.I("generated_at").Desc(), goqu.I("id").Desc()).
		Limit(limit).
		Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("could not query runs: %w", err)
	}

	out := make([]domain.Run, 0, len(rows))
	for i := range rows {
		run, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}

	return out, nil
}

// RunStats returns the per-source statistics table of one run, sorted by
// source ID.
func (s *SQLite) RunStats(ctx context.Context, id domain.RunID) ([]domain.SourceStats, error) {
	var rows []SqRunSource
	if err := s.Builder.From(runSourcesTable).
		Where(goqu.I("run_id").Eq(id.String())).
		Order(goqu.I("source_id").Asc()).
		Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("could not query run sources: %w", err)
	}

	out := make([]domain.SourceStats, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}

	return out, nil
}
