package imports

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/helvia-io/ledgerlink/internal/database"
)

func setupHistoryRepo(t *testing.T) *HistoryRepository {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(database.Schema)
	require.NoError(t, err)

	return NewHistoryRepository(db, zerolog.Nop())
}

func TestHistoryLifecycle(t *testing.T) {
	repo := setupHistoryRepo(t)

	id, err := repo.Start("stripe", "stripe main", TriggeredByCron)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	running, err := repo.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, running)
	assert.Equal(t, StatusRunning, running.Status)
	assert.Nil(t, running.CompletedAt)

	err = repo.Complete(id, StatusPartial, 5, 2, 1, []string{"insert failed"})
	require.NoError(t, err)

	done, err := repo.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, done.Status)
	assert.Equal(t, 5, done.RowsImported)
	assert.Equal(t, 2, done.RowsSkipped)
	assert.Equal(t, 1, done.RowsErrored)
	assert.Equal(t, []string{"insert failed"}, done.ErrorDetails)
	assert.NotNil(t, done.CompletedAt)
}

func TestHistoryCompleteUnknownRow(t *testing.T) {
	repo := setupHistoryRepo(t)
	assert.Error(t, repo.Complete("missing", StatusCompleted, 0, 0, 0, nil))
}

func TestHistoryRecentOrderAndLimit(t *testing.T) {
	repo := setupHistoryRepo(t)

	for i := 0; i < 5; i++ {
		_, err := repo.Start("stripe", "stripe main", TriggeredByCron)
		require.NoError(t, err)
	}

	runs, err := repo.Recent(3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestHistoryGetByIDNotFound(t *testing.T) {
	repo := setupHistoryRepo(t)

	run, err := repo.GetByID("missing")
	require.NoError(t, err)
	assert.Nil(t, run)
}
