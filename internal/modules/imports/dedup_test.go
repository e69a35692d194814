package imports

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helvia-io/ledgerlink/internal/domain"
)

type fakeExistenceStore struct {
	sourceTags  map[string]bool
	naturalKeys map[string]bool
}

func (f *fakeExistenceStore) ExistsBySourceTag(_, sourceTag string) (bool, error) {
	return f.sourceTags[sourceTag], nil
}

func (f *fakeExistenceStore) ExistsByNaturalKey(_, normalizedDescription, date string) (bool, error) {
	return f.naturalKeys[normalizedDescription+"|"+date], nil
}

func TestIsDuplicatePrefersSourceTag(t *testing.T) {
	store := &fakeExistenceStore{
		sourceTags:  map[string]bool{"stripe:ch_1": true},
		naturalKeys: map[string]bool{},
	}
	dedup := NewDedupIndex(store, zerolog.Nop())

	// Same external id is a duplicate even with a different description
	dup, err := dedup.IsDuplicate("proj-1", domain.RawRecord{
		ExternalID:  "ch_1",
		SourceType:  domain.SourceStripe,
		Date:        "2024-01-13",
		Description: "completely different text",
	})
	require.NoError(t, err)
	assert.True(t, dup)

	// Different external id is not, even if a same-day row with the same
	// description existed
	store.naturalKeys["completely different text|2024-01-13"] = true
	dup, err = dedup.IsDuplicate("proj-1", domain.RawRecord{
		ExternalID:  "ch_2",
		SourceType:  domain.SourceStripe,
		Date:        "2024-01-13",
		Description: "completely different text",
	})
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestIsDuplicateNaturalKeyFallback(t *testing.T) {
	store := &fakeExistenceStore{
		sourceTags:  map[string]bool{},
		naturalKeys: map[string]bool{"office supplies|2024-01-13": true},
	}
	dedup := NewDedupIndex(store, zerolog.Nop())

	// No external id: normalized description + date decide
	dup, err := dedup.IsDuplicate("proj-1", domain.RawRecord{
		SourceType:  domain.SourceBank,
		Date:        "2024-01-13",
		Description: "  Office   SUPPLIES ",
	})
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = dedup.IsDuplicate("proj-1", domain.RawRecord{
		SourceType:  domain.SourceBank,
		Date:        "2024-01-14",
		Description: "office supplies",
	})
	require.NoError(t, err)
	assert.False(t, dup)
}
