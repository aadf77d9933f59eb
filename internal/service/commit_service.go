package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"telecom-recon/internal/cache"
	"telecom-recon/internal/domain"
	"telecom-recon/internal/repository"
	"telecom-recon/pkg/logger"
)

// DefaultCommitBatchSize bounds how many links are inserted per
// transaction and how many sale updates run in flight at once.
const DefaultCommitBatchSize = 50

type CommitService interface {
	// CommitFound persists the found bucket of a result as reconciled
	// links. Failures are isolated per commit batch and counted, never
	// retried; there is deliberately no cross-batch rollback, since the
	// manual correction workflow depends on re-running classification and
	// committing only the leftovers.
	CommitFound(ctx context.Context, result *domain.ReconciliationResult, actingUser string) (*domain.CommitSummary, error)

	// CommitManual links one operator record to one human-chosen sale,
	// bypassing key classification entirely. Atomic: either the link, the
	// sale confirmation and the audit entry all land, or none do.
	CommitManual(ctx context.Context, operatorRecordID, saleID int64, note, actingUser string) (*domain.ReconciliationLink, error)
}

type commitService struct {
	recordRepo repository.OperatorRecordRepository
	saleRepo   repository.SaleRepository
	linkRepo   repository.LinkRepository
	auditRepo  repository.AuditRepository
	store      *cache.ResultStore
	batchSize  int
}

func NewCommitService(
	recordRepo repository.OperatorRecordRepository,
	saleRepo repository.SaleRepository,
	linkRepo repository.LinkRepository,
	auditRepo repository.AuditRepository,
	store *cache.ResultStore,
	batchSize int,
) CommitService {
	if batchSize <= 0 {
		batchSize = DefaultCommitBatchSize
	}
	return &commitService{
		recordRepo: recordRepo,
		saleRepo:   saleRepo,
		linkRepo:   linkRepo,
		auditRepo:  auditRepo,
		store:      store,
		batchSize:  batchSize,
	}
}

func (s *commitService) CommitFound(ctx context.Context, result *domain.ReconciliationResult, actingUser string) (*domain.CommitSummary, error) {
	summary := &domain.CommitSummary{
		BatchLabel: result.BatchLabel,
		Attempted:  len(result.Found),
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"batch_label": result.BatchLabel,
		"matches":     len(result.Found),
		"user":        actingUser,
	}).Info("Starting automatic commit")

	for start := 0; start < len(result.Found); start += s.batchSize {
		end := start + s.batchSize
		if end > len(result.Found) {
			end = len(result.Found)
		}
		batch := result.Found[start:end]

		links := make([]domain.ReconciliationLink, len(batch))
		now := time.Now()
		for i, cl := range batch {
			links[i] = domain.ReconciliationLink{
				ID:               uuid.New().String(),
				SaleID:           cl.Match.Sale.ID,
				OperatorRecordID: cl.Record.ID,
				MatchType:        cl.Match.MatchType,
				Score:            cl.Match.Score,
				Status:           domain.LinkReconciled,
				ValidatedBy:      actingUser,
				ValidatedAt:      now,
			}
		}

		if err := s.linkRepo.BulkCreate(ctx, links); err != nil {
			// The whole batch is counted failed; its sale updates and
			// audit entries are skipped and processing continues.
			summary.FailedBatches++
			logger.GetLogger().WithError(err).WithFields(map[string]interface{}{
				"batch_label": result.BatchLabel,
				"batch_start": start,
				"batch_size":  len(batch),
			}).Error("Link batch insert failed")
			continue
		}

		summary.Succeeded += len(batch) - s.applyMatches(ctx, batch, actingUser)
	}

	summary.Failed = summary.Attempted - summary.Succeeded

	s.store.Invalidate(result.BatchLabel)

	logger.GetLogger().WithFields(map[string]interface{}{
		"batch_label":    summary.BatchLabel,
		"attempted":      summary.Attempted,
		"succeeded":      summary.Succeeded,
		"failed":         summary.Failed,
		"failed_batches": summary.FailedBatches,
	}).Info("Automatic commit completed")

	return summary, nil
}

// applyMatches runs the sale updates and audit writes of one committed
// batch concurrently, awaiting all of them before returning the number of
// matches whose sale update failed. Concurrency is bounded by the batch
// size; one failing write does not block its siblings.
func (s *commitService) applyMatches(ctx context.Context, batch []domain.Classification, actingUser string) int {
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0

	for _, cl := range batch {
		wg.Add(1)
		go func(cl domain.Classification) {
			defer wg.Done()
			if err := s.applyMatch(ctx, cl, actingUser); err != nil {
				logger.GetLogger().WithError(err).WithFields(map[string]interface{}{
					"operator_record_id": cl.Record.ID,
					"sale_id":            cl.Match.Sale.ID,
				}).Error("Failed to apply committed match")
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(cl)
	}

	wg.Wait()
	return failed
}

func (s *commitService) applyMatch(ctx context.Context, cl domain.Classification, actingUser string) error {
	sale := cl.Match.Sale
	record := cl.Record

	oldStatus := sale.Status
	oldValue := sale.Value

	if err := s.saleRepo.UpdateStatusAndValue(ctx, sale.ID, domain.SaleConfirmed, record.AdjustedValue); err != nil {
		return fmt.Errorf("failed to confirm sale %d: %w", sale.ID, err)
	}

	statusEntry := &domain.AuditEntry{
		ID:       uuid.New().String(),
		SaleID:   sale.ID,
		Action:   domain.AuditStatusChange,
		Field:    "status",
		OldValue: string(oldStatus),
		NewValue: string(domain.SaleConfirmed),
		Metadata: map[string]string{
			"operator_record_id": strconv.FormatInt(record.ID, 10),
			"match_type":         string(cl.Match.MatchType),
			"score":              strconv.Itoa(cl.Match.Score),
		},
		PerformedBy: actingUser,
	}
	if err := s.auditRepo.Create(ctx, statusEntry); err != nil {
		logger.GetLogger().WithError(err).WithField("sale_id", sale.ID).Error("Failed to write status audit entry")
	}

	if record.AdjustedValue != nil && !record.AdjustedValue.Equal(oldValue) {
		valueEntry := &domain.AuditEntry{
			ID:       uuid.New().String(),
			SaleID:   sale.ID,
			Action:   domain.AuditValueChange,
			Field:    "value",
			OldValue: oldValue.String(),
			NewValue: record.AdjustedValue.String(),
			Metadata: map[string]string{
				"operator_record_id": strconv.FormatInt(record.ID, 10),
			},
			PerformedBy: actingUser,
		}
		if err := s.auditRepo.Create(ctx, valueEntry); err != nil {
			logger.GetLogger().WithError(err).WithField("sale_id", sale.ID).Error("Failed to write value audit entry")
		}
	}

	return nil
}

func (s *commitService) CommitManual(ctx context.Context, operatorRecordID, saleID int64, note, actingUser string) (*domain.ReconciliationLink, error) {
	record, err := s.recordRepo.GetByID(ctx, operatorRecordID)
	if err != nil {
		return nil, err
	}

	sale, err := s.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}

	link := &domain.ReconciliationLink{
		ID:               uuid.New().String(),
		SaleID:           sale.ID,
		OperatorRecordID: record.ID,
		MatchType:        domain.MatchManual,
		Score:            domain.ScoreManual,
		Status:           domain.LinkReconciled,
		ValidatedBy:      actingUser,
		ValidatedAt:      time.Now(),
		Note:             note,
	}

	audit := &domain.AuditEntry{
		ID:       uuid.New().String(),
		SaleID:   sale.ID,
		Action:   domain.AuditStatusChange,
		Field:    "status",
		OldValue: string(sale.Status),
		NewValue: string(domain.SaleConfirmed),
		Metadata: map[string]string{
			"operator_record_id": strconv.FormatInt(record.ID, 10),
			"match_type":         string(domain.MatchManual),
			"note":               note,
		},
		PerformedBy: actingUser,
	}

	if err := s.linkRepo.CreateManualCommit(ctx, link, audit); err != nil {
		return nil, fmt.Errorf("manual commit failed: %w", err)
	}

	s.store.Invalidate(record.BatchLabel)

	logger.GetLogger().WithFields(map[string]interface{}{
		"operator_record_id": record.ID,
		"sale_id":            sale.ID,
		"user":               actingUser,
	}).Info("Manual link committed")

	return link, nil
}
