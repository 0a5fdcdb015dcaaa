package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/txbridge/internal/feed"
	"github.com/dvloznov/txbridge/internal/metrics"
)

// Ingestor coordinates one ingestion call: feed parsing, per-record
// categorization and merchant resolution, and the atomic batch commit.
// Construct one at process start and share it between callers; it holds no
// per-call state.
type Ingestor struct {
	categorizer Categorizer
	resolver    MerchantResolver
	store       TransactionStore
	log         zerolog.Logger
}

// NewIngestor wires the pipeline collaborators together.
func NewIngestor(categorizer Categorizer, resolver MerchantResolver, store TransactionStore, log zerolog.Logger) *Ingestor {
	return &Ingestor{
		categorizer: categorizer,
		resolver:    resolver,
		store:       store,
		log:         log,
	}
}

// Ingest runs the full pipeline over one feed document. It never returns an
// error: every outcome, including fatal ones, is reported through the Result.
func (ing *Ingestor) Ingest(ctx context.Context, xmlText string) *Result {
	// 1. Parse the whole document. Structural failure aborts the batch with a
	// single top-level error and nothing persisted.
	raws, err := feed.Parse(xmlText)
	if err != nil {
		ing.log.Error().Err(err).Msg("Feed parsing failed")
		metrics.ObserveIngestion(metrics.OutcomeFailed, 0, 0, 0)
		return &Result{
			Errors:       []string{err.Error()},
			Transactions: []*Transaction{},
			fatal:        true,
		}
	}

	// 2. Process records one by one. A failing record is recorded and skipped;
	// the loop never aborts.
	candidates := make([]*Transaction, 0, len(raws))
	errs := []string{}
	for _, raw := range raws {
		tx, recErr := ing.processRecord(ctx, raw)
		if recErr != nil {
			txnID := strings.TrimSpace(raw.TxnID)
			ing.log.Warn().Err(recErr).Str("txn_id", txnID).Msg("Skipping record")
			errs = append(errs, fmt.Sprintf("error processing transaction %s: %v", txnID, recErr))
			continue
		}
		candidates = append(candidates, tx)
	}

	// 3. Persist the surviving records as one atomic unit. A commit failure
	// fails the whole call and supersedes any per-record errors.
	saved := []*Transaction{}
	if len(candidates) > 0 {
		saved, err = ing.store.UpsertBatch(ctx, candidates)
		if err != nil {
			ing.log.Error().Err(err).Int("records", len(candidates)).Msg("Batch persistence failed")
			metrics.ObserveIngestion(metrics.OutcomeFailed, len(raws), 0, 0)
			return &Result{
				TotalProcessed: len(raws),
				Errors:         []string{fmt.Sprintf("saving transactions: %v", err)},
				Transactions:   []*Transaction{},
				fatal:          true,
			}
		}
	}

	// 4. Assemble the result. An empty feed is trivially successful.
	result := &Result{
		Success:        len(errs) == 0,
		TotalProcessed: len(raws),
		TotalSaved:     len(saved),
		Errors:         errs,
		Transactions:   saved,
	}

	outcome := metrics.OutcomeCompleted
	if !result.Success {
		outcome = metrics.OutcomeFailed
	}
	metrics.ObserveIngestion(outcome, result.TotalProcessed, result.TotalSaved, len(errs))

	ing.log.Info().
		Int("processed", result.TotalProcessed).
		Int("saved", result.TotalSaved).
		Int("errors", len(errs)).
		Msg("Ingestion finished")

	return result
}

// processRecord takes one raw record through sanitization, categorization and
// merchant resolution. Any failure drops just this record.
func (ing *Ingestor) processRecord(ctx context.Context, raw feed.RawRecord) (*Transaction, error) {
	rec, err := feed.Sanitize(raw)
	if err != nil {
		return nil, err
	}

	category := ing.categorizer.Categorize(rec.Description)

	m, err := ing.resolver.ResolveOrCreate(ctx, merchantHint(rec.Description))
	if err != nil {
		return nil, err
	}

	return &Transaction{
		TxnID:          rec.TxnID,
		Description:    rec.Description,
		RawDescription: rec.RawDescription,
		Amount:         rec.Amount,
		Currency:       rec.Currency,
		Date:           rec.Date,
		Category:       category,
		MerchantID:     m.ID,
	}, nil
}

var hintSplitRe = regexp.MustCompile(`[\s*#]+`)

// merchantHint extracts the leading merchant token from a sanitized
// description, e.g. "PAYPAL *EBAY" -> "PAYPAL".
func merchantHint(description string) string {
	parts := hintSplitRe.Split(description, -1)
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return description
}
