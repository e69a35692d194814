// Package imports contains the ingestion engine: source adapters that
// normalize provider payloads, the dedup index, the import runner, and the
// import history audit trail.
package imports

import (
	"context"

	"github.com/helvia-io/ledgerlink/internal/domain"
	"github.com/helvia-io/ledgerlink/internal/modules/integrations"
)

// SourceAdapter normalizes one provider's payloads into canonical raw records.
// Fetch must be side-effect-free on the store: it only reads from the external
// provider. A transport/auth failure surfaces as *domain.ProviderError; missing
// credentials surface as *domain.ConfigurationError before any network call.
type SourceAdapter interface {
	Provider() domain.SourceType
	Fetch(ctx context.Context, integration integrations.Integration, window domain.Window) ([]domain.RawRecord, error)
}

// MetricsAdapter is the parallel contract for ad-platform spend rows, which
// are not transactions but share the import/history discipline.
type MetricsAdapter interface {
	Provider() domain.SourceType
	FetchMetrics(ctx context.Context, integration integrations.Integration, window domain.Window) ([]domain.AdMetricRecord, error)
}
