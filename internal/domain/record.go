package domain

// SourceType identifies the external system a record came from.
type SourceType string

const (
	SourceStripe     SourceType = "stripe"
	SourcePayPal     SourceType = "paypal"
	SourceShopify    SourceType = "shopify"
	SourceBank       SourceType = "bank"
	SourceAdPlatform SourceType = "ad_platform"
	SourceSheets     SourceType = "google_sheets"
	SourceManual     SourceType = "manual"
)

// Direction classifies a record's economic direction.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// RawRecord is the provider-neutral shape emitted by a source adapter.
// It is immutable once produced; only the adapter that created it may
// interpret RawPayload.
type RawRecord struct {
	ExternalID  string // Stable provider id, empty for sources without one (bank CSV rows)
	SourceType  SourceType
	Amount      float64 // Whole currency units, always positive; Direction carries the sign
	Currency    string
	Date        string // YYYY-MM-DD
	Description string
	Direction   Direction
	RawPayload  []byte // Provider response fragment, kept for audit only
}

// AdMetricRecord is the parallel normalized shape for ad-platform spend rows.
// These are not transactions; they share the upsert discipline keyed by
// (campaign id, date).
type AdMetricRecord struct {
	CampaignID   string
	CampaignName string
	Date         string // YYYY-MM-DD
	Spend        float64
	Impressions  int64
	Clicks       int64
	Currency     string
}

// Window bounds an adapter fetch. Both ends are inclusive calendar dates.
type Window struct {
	From string // YYYY-MM-DD
	To   string // YYYY-MM-DD
}
