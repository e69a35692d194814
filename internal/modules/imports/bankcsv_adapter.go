package imports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/clients/bankdrop"
	"github.com/helvia-io/ledgerlink/internal/domain"
	"github.com/helvia-io/ledgerlink/internal/modules/integrations"
)

// exportSource is the slice of the drop-bucket client the adapter needs.
type exportSource interface {
	ListExports(ctx context.Context, from, to time.Time) ([]bankdrop.Object, error)
	Download(ctx context.Context, key string) ([]byte, error)
}

// BankCSVAdapter normalizes bank CSV exports (date, description, amount with
// sign) into raw records. Bank rows carry no stable external id, so dedup for
// this source falls back to the natural key.
type BankCSVAdapter struct {
	source exportSource
	bucket string
	log    zerolog.Logger
}

// NewBankCSVAdapter creates a bank CSV source adapter
func NewBankCSVAdapter(source exportSource, bucket string, log zerolog.Logger) *BankCSVAdapter {
	return &BankCSVAdapter{
		source: source,
		bucket: bucket,
		log:    log.With().Str("adapter", "bankcsv").Logger(),
	}
}

// Provider returns the source type
func (a *BankCSVAdapter) Provider() domain.SourceType {
	return domain.SourceBank
}

// Fetch downloads every export modified within the window and parses its rows.
// Malformed rows are passed through with their raw values so the runner counts
// them as row-level validation errors instead of dropping them silently.
func (a *BankCSVAdapter) Fetch(ctx context.Context, integration integrations.Integration, window domain.Window) ([]domain.RawRecord, error) {
	if a.source == nil || a.bucket == "" {
		return nil, &domain.ConfigurationError{Provider: "bank", Missing: "BANK_DROP_BUCKET"}
	}

	from, to, err := windowBounds(window)
	if err != nil {
		return nil, err
	}

	objects, err := a.source.ListExports(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var records []domain.RawRecord
	for _, obj := range objects {
		data, err := a.source.Download(ctx, obj.Key)
		if err != nil {
			return nil, err
		}
		records = append(records, a.parseExport(obj.Key, data)...)
	}

	return records, nil
}

// parseExport reads one CSV export. Expected columns: date, description,
// amount (signed, negative = expense). A header row is detected and skipped.
func (a *BankCSVAdapter) parseExport(key string, data []byte) []domain.RawRecord {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records []domain.RawRecord
	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			a.log.Warn().Str("key", key).Int("line", line).Err(err).Msg("Unreadable CSV line")
			records = append(records, domain.RawRecord{
				SourceType:  domain.SourceBank,
				Date:        "invalid",
				Description: fmt.Sprintf("%s line %d: unreadable", key, line),
			})
			continue
		}
		if line == 1 && isHeaderRow(row) {
			continue
		}
		if len(row) < 3 {
			records = append(records, domain.RawRecord{
				SourceType:  domain.SourceBank,
				Date:        "invalid",
				Description: fmt.Sprintf("%s line %d: expected 3 columns, got %d", key, line, len(row)),
			})
			continue
		}

		date := normalizeBankDate(strings.TrimSpace(row[0]))
		description := strings.TrimSpace(row[1])

		amountStr := strings.TrimSpace(row[2])
		amount, err := strconv.ParseFloat(amountStr, 64)
		if err != nil {
			// Unparseable amount: emit with a negative amount so the runner's
			// validation records the row as errored with context.
			records = append(records, domain.RawRecord{
				SourceType:  domain.SourceBank,
				Date:        date,
				Description: description,
				Amount:      -1,
				Direction:   domain.DirectionExpense,
			})
			continue
		}

		direction := domain.DirectionIncome
		if amount < 0 {
			direction = domain.DirectionExpense
			amount = -amount
		}

		records = append(records, domain.RawRecord{
			SourceType:  domain.SourceBank,
			Date:        date,
			Description: description,
			Amount:      amount,
			Currency:    "EUR",
			Direction:   direction,
			RawPayload:  []byte(strings.Join(row, ",")),
		})
	}

	a.log.Debug().Str("key", key).Int("rows", len(records)).Msg("Parsed bank CSV export")
	return records
}

// isHeaderRow heuristically detects a header line.
func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	return first == "date" || first == "datum" || first == "booking date"
}

// normalizeBankDate accepts the bank formats seen in exports (ISO and common
// European day-first). Unrecognized values are returned as-is so validation
// downstream can report them.
func normalizeBankDate(s string) string {
	for _, layout := range []string{"2006-01-02", "02/01/2006", "02.01.2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}
