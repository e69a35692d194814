package imports

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/domain"
	"github.com/helvia-io/ledgerlink/internal/utils"
)

// transactionExistenceStore is the slice of the transaction repository the
// dedup index needs.
type transactionExistenceStore interface {
	ExistsBySourceTag(projectID, sourceTag string) (bool, error)
	ExistsByNaturalKey(projectID, normalizedDescription, date string) (bool, error)
}

// DedupIndex decides whether an incoming raw record already exists in storage.
// It is a pure predicate over current store state, queried per candidate -
// import volumes are hundreds of rows, so per-candidate round-trips are fine
// and bulk-scale ingestion is explicitly out of scope.
type DedupIndex struct {
	store transactionExistenceStore
	log   zerolog.Logger
}

// NewDedupIndex creates a new dedup index over the transaction store
func NewDedupIndex(store transactionExistenceStore, log zerolog.Logger) *DedupIndex {
	return &DedupIndex{
		store: store,
		log:   log.With().Str("component", "dedup").Logger(),
	}
}

// IsDuplicate reports whether the candidate already exists in the project.
//
// When the candidate carries a stable external id, the source tag is matched
// exactly. Otherwise it falls back to the natural key (project, normalized
// description, date) - deliberately coarser: a genuinely distinct same-day,
// same-description event is indistinguishable from a duplicate.
func (d *DedupIndex) IsDuplicate(projectID string, candidate domain.RawRecord) (bool, error) {
	if candidate.ExternalID != "" {
		tag := SourceTag(candidate)
		dup, err := d.store.ExistsBySourceTag(projectID, tag)
		if err != nil {
			return false, fmt.Errorf("source tag dedup check failed: %w", err)
		}
		return dup, nil
	}

	normalized := utils.NormalizeDescription(candidate.Description)
	dup, err := d.store.ExistsByNaturalKey(projectID, normalized, candidate.Date)
	if err != nil {
		return false, fmt.Errorf("natural key dedup check failed: %w", err)
	}
	return dup, nil
}

// SourceTag builds the stored origin tag for a raw record: "<provider>:<id>"
// when a stable external id exists, "sourceFile:<description source>" for
// file-based sources without one.
func SourceTag(rec domain.RawRecord) string {
	if rec.ExternalID != "" {
		return fmt.Sprintf("%s:%s", rec.SourceType, rec.ExternalID)
	}
	return fmt.Sprintf("sourceFile:%s", rec.SourceType)
}
