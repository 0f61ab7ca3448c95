package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	root "emaildomains"
	"emaildomains/pkg/domain"
	"emaildomains/pkg/storage"
	"emaildomains/pkg/storage/sqlite"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *sqlite.SQLite {
	t.Helper()

	strg, err := sqlite.New(sqlite.Options{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, strg.Close())
	})

	goose.SetBaseFS(root.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.Up(strg.DB.(*sql.DB), "migrations"))

	return strg
}

func testRun(generatedAt time.Time) domain.Run {
	id := domain.NewRunID()

	return domain.Run{
		ID:           id,
		GeneratedAt:  generatedAt,
		TotalDomains: 4,
		Disposable:   2,
		Free:         1,
		PaidPersonal: 1,
		Sources: []domain.SourceStats{
			{SourceID: "blocklist", Category: domain.CategoryDisposable, Raw: 2, Unique: 2},
			{SourceID: "providers", Category: domain.CategoryFree, Raw: 2, Unique: 1, Overlap: 1},
		},
	}
}

func TestStoreRunAndRecentRuns(t *testing.T) {
	strg := newTestStorage(t)
	ctx := context.Background()

	older := testRun(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := testRun(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, strg.StoreRun(ctx, older))
	require.NoError(t, strg.StoreRun(ctx, newer))

	runs, err := strg.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, newer.ID, runs[0].ID, "newest run must come first")
	require.Equal(t, older.ID, runs[1].ID)
	require.Equal(t, 4, runs[0].TotalDomains)
	require.Equal(t, 2, runs[0].Disposable)
}

func TestRecentRunsLimit(t *testing.T) {
	strg := newTestStorage(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run := testRun(time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC))
		require.NoError(t, strg.StoreRun(ctx, run))
	}

	runs, err := strg.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
}

func TestRunStats(t *testing.T) {
	strg := newTestStorage(t)
	ctx := context.Background()

	run := testRun(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, strg.StoreRun(ctx, run))

	stats, err := strg.RunStats(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	require.Equal(t, "blocklist", stats[0].SourceID, "stats must be sorted by source id")
	require.Equal(t, domain.CategoryDisposable, stats[0].Category)
	require.Equal(t, 2, stats[0].Raw)

	unknown, err := strg.RunStats(ctx, domain.NewRunID())
	require.NoError(t, err)
	require.Empty(t, unknown)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	strg := newTestStorage(t)
	ctx := context.Background()

	run := testRun(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	err := strg.WithTx(ctx, func(tx storage.AllStorage) error {
		require.NoError(t, tx.StoreRun(ctx, run))

		return context.Canceled
	})
	require.ErrorIs(t, err, context.Canceled)

	runs, err := strg.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, runs, "rolled back run must not be visible")
}

func TestWithTxCommits(t *testing.T) {
	strg := newTestStorage(t)
	ctx := context.Background()

	run := testRun(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, strg.WithTx(ctx, func(tx storage.AllStorage) error {
		return tx.StoreRun(ctx, run)
	}))

	runs, err := strg.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
}

func TestTxGuards(t *testing.T) {
	strg := newTestStorage(t)

	require.ErrorIs(t, strg.Commit(), storage.ErrNotInTx)
	require.ErrorIs(t, strg.Rollback(), storage.ErrNotInTx)

	tx, err := strg.Begin(context.Background())
	require.NoError(t, err)
	_, err = tx.(storage.Storage).Begin(context.Background())
	require.ErrorIs(t, err, storage.ErrAlreadyInTx)
	require.NoError(t, tx.Rollback())
}
