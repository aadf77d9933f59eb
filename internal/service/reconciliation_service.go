package service

import (
	"context"

	"telecom-recon/internal/cache"
	"telecom-recon/internal/domain"
	"telecom-recon/internal/matcher"
	"telecom-recon/internal/repository"
	"telecom-recon/pkg/logger"
)

type ReconciliationService interface {
	// Reconcile returns the classification snapshot for the batch label,
	// serving the cached result when one exists.
	Reconcile(ctx context.Context, batchLabel string) (*domain.ReconciliationResult, error)
	// Reprocess drops any cached result and runs a fresh pass.
	Reprocess(ctx context.Context, batchLabel string) (*domain.ReconciliationResult, error)
	Divergences(ctx context.Context, batchLabel string) ([]domain.Divergence, error)
	Gaps(ctx context.Context, batchLabel string) ([]domain.Gap, error)
	ListBatchLabels(ctx context.Context) ([]string, error)
}

type reconciliationService struct {
	recordRepo repository.OperatorRecordRepository
	saleRepo   repository.SaleRepository
	linkRepo   repository.LinkRepository
	store      *cache.ResultStore
	chunkSize  int
	scanner    *matcher.Scanner
}

func NewReconciliationService(
	recordRepo repository.OperatorRecordRepository,
	saleRepo repository.SaleRepository,
	linkRepo repository.LinkRepository,
	store *cache.ResultStore,
	chunkSize int,
) ReconciliationService {
	return &reconciliationService{
		recordRepo: recordRepo,
		saleRepo:   saleRepo,
		linkRepo:   linkRepo,
		store:      store,
		chunkSize:  chunkSize,
		scanner:    matcher.NewScanner(chunkSize),
	}
}

// repoLoader adapts the repositories to the runner's snapshot loads.
type repoLoader struct {
	recordRepo repository.OperatorRecordRepository
	saleRepo   repository.SaleRepository
	linkRepo   repository.LinkRepository
}

func (l *repoLoader) OperatorRecords(ctx context.Context, batchLabel string) ([]*domain.OperatorRecord, error) {
	return l.recordRepo.GetByBatchLabel(ctx, batchLabel)
}

func (l *repoLoader) EligibleSales(ctx context.Context) ([]*domain.SaleRecord, error) {
	return l.saleRepo.GetEligible(ctx)
}

func (l *repoLoader) ReconciledLinks(ctx context.Context) (map[int64]*domain.ReconciliationLink, error) {
	return l.linkRepo.ReconciledLinks(ctx)
}

func (s *reconciliationService) Reconcile(ctx context.Context, batchLabel string) (*domain.ReconciliationResult, error) {
	if result, ok := s.store.Get(batchLabel); ok {
		logger.GetLogger().WithFields(map[string]interface{}{
			"batch_label": batchLabel,
			"run_id":      result.RunID,
		}).Debug("Serving cached reconciliation result")
		return result, nil
	}

	return s.run(ctx, batchLabel)
}

func (s *reconciliationService) Reprocess(ctx context.Context, batchLabel string) (*domain.ReconciliationResult, error) {
	s.store.Invalidate(batchLabel)
	return s.run(ctx, batchLabel)
}

func (s *reconciliationService) run(ctx context.Context, batchLabel string) (*domain.ReconciliationResult, error) {
	runner := matcher.NewRunner(s.loader(), s.chunkSize)

	result, err := runner.Run(ctx, batchLabel)
	if err != nil {
		return nil, err
	}

	s.store.Put(result)
	return result, nil
}

func (s *reconciliationService) Divergences(ctx context.Context, batchLabel string) ([]domain.Divergence, error) {
	records, err := s.recordRepo.GetByBatchLabel(ctx, batchLabel)
	if err != nil {
		return nil, err
	}

	reconciled, err := s.linkRepo.ReconciledLinks(ctx)
	if err != nil {
		return nil, err
	}

	sales, err := s.saleRepo.GetEligible(ctx)
	if err != nil {
		return nil, err
	}

	salesByID := make(map[int64]*domain.SaleRecord, len(sales))
	for _, sale := range sales {
		salesByID[sale.ID] = sale
	}

	return s.scanner.Divergences(ctx, records, reconciled, salesByID)
}

func (s *reconciliationService) Gaps(ctx context.Context, batchLabel string) ([]domain.Gap, error) {
	sales, err := s.saleRepo.GetEligible(ctx)
	if err != nil {
		return nil, err
	}

	reconciled, err := s.linkRepo.ReconciledLinks(ctx)
	if err != nil {
		return nil, err
	}

	return s.scanner.Gaps(ctx, sales, reconciled)
}

func (s *reconciliationService) ListBatchLabels(ctx context.Context) ([]string, error) {
	return s.recordRepo.ListBatchLabels(ctx)
}

func (s *reconciliationService) loader() matcher.Loader {
	return &repoLoader{
		recordRepo: s.recordRepo,
		saleRepo:   s.saleRepo,
		linkRepo:   s.linkRepo,
	}
}
