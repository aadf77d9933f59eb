package service

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"telecom-recon/internal/domain"
)

// In-memory repository fakes shared by the service tests.

type fakeRecordRepo struct {
	records map[int64]*domain.OperatorRecord
	labels  []string
	loads   int
	err     error
}

func (f *fakeRecordRepo) GetByBatchLabel(ctx context.Context, batchLabel string) ([]*domain.OperatorRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.loads++
	var out []*domain.OperatorRecord
	for _, r := range f.records {
		if r.BatchLabel == batchLabel {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) GetByID(ctx context.Context, id int64) (*domain.OperatorRecord, error) {
	record, ok := f.records[id]
	if !ok {
		return nil, errors.New("operator record not found")
	}
	return record, nil
}

func (f *fakeRecordRepo) ListBatchLabels(ctx context.Context) ([]string, error) {
	return f.labels, f.err
}

type fakeSaleRepo struct {
	mu        sync.Mutex
	sales     map[int64]*domain.SaleRecord
	updateErr map[int64]error
}

func (f *fakeSaleRepo) GetEligible(ctx context.Context) ([]*domain.SaleRecord, error) {
	var out []*domain.SaleRecord
	for _, s := range f.sales {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSaleRepo) GetByID(ctx context.Context, id int64) (*domain.SaleRecord, error) {
	sale, ok := f.sales[id]
	if !ok {
		return nil, errors.New("sale record not found")
	}
	return sale, nil
}

func (f *fakeSaleRepo) UpdateStatusAndValue(ctx context.Context, id int64, status domain.SaleStatus, value *decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErr[id]; err != nil {
		return err
	}
	sale, ok := f.sales[id]
	if !ok {
		return errors.New("sale record not found")
	}
	sale.Status = status
	if value != nil {
		sale.Value = *value
	}
	return nil
}

type fakeLinkRepo struct {
	mu          sync.Mutex
	links       []domain.ReconciliationLink
	bulkCalls   int
	failOnCall  int // 1-based call number to fail, 0 = never
	manualErr   error
	applySale   *fakeSaleRepo
	applyAudits *fakeAuditRepo
}

func (f *fakeLinkRepo) BulkCreate(ctx context.Context, links []domain.ReconciliationLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkCalls++
	if f.failOnCall != 0 && f.bulkCalls == f.failOnCall {
		return errors.New("link batch insert failed")
	}
	f.links = append(f.links, links...)
	return nil
}

func (f *fakeLinkRepo) ReconciledLinks(ctx context.Context) (map[int64]*domain.ReconciliationLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]*domain.ReconciliationLink)
	for i := range f.links {
		link := &f.links[i]
		if link.Status == domain.LinkReconciled {
			out[link.OperatorRecordID] = link
		}
	}
	return out, nil
}

func (f *fakeLinkRepo) CreateManualCommit(ctx context.Context, link *domain.ReconciliationLink, audit *domain.AuditEntry) error {
	if f.manualErr != nil {
		// Atomic: a failed manual commit leaves no partial state behind.
		return f.manualErr
	}
	f.mu.Lock()
	f.links = append(f.links, *link)
	f.mu.Unlock()
	if f.applySale != nil {
		if sale, ok := f.applySale.sales[link.SaleID]; ok {
			sale.Status = domain.SaleConfirmed
		}
	}
	if f.applyAudits != nil {
		f.applyAudits.entries = append(f.applyAudits.entries, *audit)
	}
	return nil
}

func (f *fakeLinkRepo) GetByBatchLabel(ctx context.Context, batchLabel string) ([]domain.ReconciliationLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ReconciliationLink(nil), f.links...), nil
}

func (f *fakeLinkRepo) linkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.links)
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	err     error
}

func (f *fakeAuditRepo) Create(ctx context.Context, entry *domain.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) GetBySaleID(ctx context.Context, saleID int64) ([]domain.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AuditEntry
	for _, e := range f.entries {
		if e.SaleID == saleID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditRepo) bySale(saleID int64) []domain.AuditEntry {
	entries, _ := f.GetBySaleID(context.Background(), saleID)
	return entries
}

func strPtr(s string) *string                   { return &s }
func decPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func installedSale(id int64, protocol string, value int64) *domain.SaleRecord {
	return &domain.SaleRecord{
		ID:               id,
		InternalProtocol: protocol,
		Status:           domain.SaleInstalled,
		Value:            decimal.NewFromInt(value),
		ExternalStatus:   "Installed",
	}
}

func batchRecord(id int64, batchLabel, protocol string, value int64, adjusted *decimal.Decimal) *domain.OperatorRecord {
	record := &domain.OperatorRecord{
		ID:            id,
		BatchLabel:    batchLabel,
		Value:         decimal.NewFromInt(value),
		AdjustedValue: adjusted,
	}
	if protocol != "" {
		record.Protocol = strPtr(protocol)
	}
	return record
}
