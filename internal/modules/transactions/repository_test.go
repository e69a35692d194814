package transactions

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/helvia-io/ledgerlink/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(database.Schema)
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO projects (id, name, created_at) VALUES ('proj-1', 'Test Project', 0)")
	require.NoError(t, err)

	return db
}

func strPtr(s string) *string { return &s }

func TestCreateAndGetByID(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	created, err := repo.Create(&Transaction{
		ProjectID:   "proj-1",
		Date:        "2024-01-13",
		Description: "Stripe payout",
		Amount:      89.00,
		Type:        "income",
		SourceTag:   strPtr("stripe:ch_123"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2024-01-13", got.Date)
	assert.Equal(t, 89.00, got.Amount)
	assert.Equal(t, "stripe:ch_123", *got.SourceTag)
}

func TestCreateRejectsBadDate(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	_, err := repo.Create(&Transaction{
		ProjectID:   "proj-1",
		Date:        "13/01/2024",
		Description: "bad date",
		Amount:      1,
		Type:        "income",
	})
	assert.Error(t, err)
}

func TestGetByIDNotFound(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	got, err := repo.GetByID("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExistsBySourceTag(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	_, err := repo.Create(&Transaction{
		ProjectID:   "proj-1",
		Date:        "2024-01-13",
		Description: "Stripe payout",
		Amount:      89.00,
		Type:        "income",
		SourceTag:   strPtr("stripe:ch_123"),
	})
	require.NoError(t, err)

	exists, err := repo.ExistsBySourceTag("proj-1", "stripe:ch_123")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsBySourceTag("proj-1", "stripe:ch_999")
	require.NoError(t, err)
	assert.False(t, exists)

	// Scoped to the project
	exists, err = repo.ExistsBySourceTag("proj-2", "stripe:ch_123")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExistsByNaturalKey(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	_, err := repo.Create(&Transaction{
		ProjectID:   "proj-1",
		Date:        "2024-01-13",
		Description: "  Office   SUPPLIES ",
		Amount:      -12.50,
		Type:        "expense",
	})
	require.NoError(t, err)

	// Stored description normalizes to the same key
	exists, err := repo.ExistsByNaturalKey("proj-1", "office supplies", "2024-01-13")
	require.NoError(t, err)
	assert.True(t, exists)

	// Different date misses
	exists, err = repo.ExistsByNaturalKey("proj-1", "office supplies", "2024-01-14")
	require.NoError(t, err)
	assert.False(t, exists)

	// Different description misses
	exists, err = repo.ExistsByNaturalKey("proj-1", "office chairs", "2024-01-13")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetByProjectOrdersByDate(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	for _, d := range []string{"2024-01-15", "2024-01-13", "2024-01-14"} {
		_, err := repo.Create(&Transaction{
			ProjectID:   "proj-1",
			Date:        d,
			Description: "tx " + d,
			Amount:      1,
			Type:        "income",
		})
		require.NoError(t, err)
	}

	txns, err := repo.GetByProject("proj-1")
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, "2024-01-13", txns[0].Date)
	assert.Equal(t, "2024-01-14", txns[1].Date)
	assert.Equal(t, "2024-01-15", txns[2].Date)
}

func TestUpdateCategory(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	created, err := repo.Create(&Transaction{
		ProjectID:   "proj-1",
		Date:        "2024-01-13",
		Description: "Stripe payout",
		Amount:      89.00,
		Type:        "income",
	})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateCategory(created.ID, "revenue"))

	got, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Category)
	assert.Equal(t, "revenue", *got.Category)

	assert.Error(t, repo.UpdateCategory("missing", "revenue"))
}

func TestSourceGroup(t *testing.T) {
	tests := []struct {
		tag  *string
		want string
	}{
		{strPtr("stripe:ch_123"), "stripe"},
		{strPtr("shopify:450789469"), "shopify"},
		{strPtr("sourceFile:bank"), "sourceFile"},
		{strPtr("untagged"), "untagged"},
		{strPtr(""), "manual"},
		{nil, "manual"},
	}

	for _, tt := range tests {
		tx := Transaction{SourceTag: tt.tag}
		assert.Equal(t, tt.want, tx.SourceGroup())
	}
}
