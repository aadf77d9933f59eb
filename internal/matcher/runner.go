package matcher

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"telecom-recon/internal/domain"
	"telecom-recon/pkg/logger"
)

// DefaultChunkSize is how many records are classified between cancellation
// checks and progress reports.
const DefaultChunkSize = 500

// Loader supplies the snapshot loads a reconciliation run needs. All three
// loads happen once, up front; a failure aborts the run before any
// classification.
type Loader interface {
	OperatorRecords(ctx context.Context, batchLabel string) ([]*domain.OperatorRecord, error)
	EligibleSales(ctx context.Context) ([]*domain.SaleRecord, error)
	ReconciledLinks(ctx context.Context) (map[int64]*domain.ReconciliationLink, error)
}

// ProgressFunc is called after every chunk with the records processed so
// far and the batch total.
type ProgressFunc func(processed, total int)

// Runner drives the classifier over an entire batch label in fixed-size
// chunks. Classification itself is pure; chunking only bounds the interval
// between cancellation checks and progress reports.
type Runner struct {
	loader    Loader
	chunkSize int
	progress  ProgressFunc
}

func NewRunner(loader Loader, chunkSize int) *Runner {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Runner{loader: loader, chunkSize: chunkSize}
}

// WithProgress registers a progress callback and returns the runner.
func (r *Runner) WithProgress(fn ProgressFunc) *Runner {
	r.progress = fn
	return r
}

// Run executes one reconciliation pass for the batch label and returns an
// immutable result snapshot. Cancellation is observed between chunks; a
// cancelled run discards partial results rather than returning a truncated
// snapshot.
func (r *Runner) Run(ctx context.Context, batchLabel string) (*domain.ReconciliationResult, error) {
	records, err := r.loader.OperatorRecords(ctx, batchLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to load operator records for batch %q: %w", batchLabel, err)
	}

	sales, err := r.loader.EligibleSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load eligible sales: %w", err)
	}

	reconciled, err := r.loader.ReconciledLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reconciled links: %w", err)
	}

	index := NewIndex(sales)

	salesByID := make(map[int64]*domain.SaleRecord, len(sales))
	for _, sale := range sales {
		salesByID[sale.ID] = sale
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"batch_label":    batchLabel,
		"records":        len(records),
		"eligible_sales": index.EligibleCount(),
		"reconciled":     len(reconciled),
	}).Info("Starting reconciliation run")

	classifier := NewClassifier(index, reconciled, salesByID)

	result := &domain.ReconciliationResult{
		RunID:      uuid.New().String(),
		BatchLabel: batchLabel,
	}

	for start := 0; start < len(records); start += r.chunkSize {
		if err := ctx.Err(); err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"batch_label": batchLabel,
				"processed":   start,
			}).Warn("Reconciliation run cancelled")
			return nil, err
		}

		end := start + r.chunkSize
		if end > len(records) {
			end = len(records)
		}

		for i := start; i < end; i++ {
			r.accumulate(result, classifier.Classify(records[i], i))
		}

		if r.progress != nil {
			r.progress(end, len(records))
		}
	}

	result.Summary = domain.ResultSummary{
		Total:              len(records),
		Found:              len(result.Found),
		Ambiguous:          len(result.Ambiguous),
		NotFound:           len(result.NotFound),
		Invalid:            len(result.Invalid),
		Duplicates:         len(result.Duplicates),
		AlreadyConciliated: len(result.AlreadyConciliated),
	}
	result.GeneratedAt = time.Now()

	logger.GetLogger().WithFields(map[string]interface{}{
		"batch_label":         batchLabel,
		"run_id":              result.RunID,
		"found":               result.Summary.Found,
		"ambiguous":           result.Summary.Ambiguous,
		"not_found":           result.Summary.NotFound,
		"invalid":             result.Summary.Invalid,
		"duplicates":          result.Summary.Duplicates,
		"already_conciliated": result.Summary.AlreadyConciliated,
	}).Info("Reconciliation run completed")

	return result, nil
}

func (r *Runner) accumulate(result *domain.ReconciliationResult, cl domain.Classification) {
	switch cl.Outcome {
	case domain.OutcomeFound:
		result.Found = append(result.Found, cl)
	case domain.OutcomeAmbiguous:
		result.Ambiguous = append(result.Ambiguous, cl)
	case domain.OutcomeNotFound:
		result.NotFound = append(result.NotFound, cl)
	case domain.OutcomeInvalid:
		result.Invalid = append(result.Invalid, cl)
	case domain.OutcomeDuplicate:
		result.Duplicates = append(result.Duplicates, cl)
	case domain.OutcomeAlreadyConciliated:
		result.AlreadyConciliated = append(result.AlreadyConciliated, cl)
	}
}
