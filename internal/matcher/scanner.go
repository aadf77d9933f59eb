package matcher

import (
	"context"

	"telecom-recon/internal/domain"
)

// Scanner runs the companion divergence and gap detection passes. Both
// scans are read-only and chunked the same way as the runner so that long
// passes stay cancellable.
type Scanner struct {
	chunkSize int
}

func NewScanner(chunkSize int) *Scanner {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Scanner{chunkSize: chunkSize}
}

// Divergences compares each reconciled pair of the batch: the operator's
// adjusted value (falling back to the reported value) against the current
// sale value. A non-zero delta is a finding. Cancellation discards
// partial findings.
func (s *Scanner) Divergences(
	ctx context.Context,
	records []*domain.OperatorRecord,
	reconciled map[int64]*domain.ReconciliationLink,
	salesByID map[int64]*domain.SaleRecord,
) ([]domain.Divergence, error) {

	var findings []domain.Divergence

	for start := 0; start < len(records); start += s.chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + s.chunkSize
		if end > len(records) {
			end = len(records)
		}

		for _, record := range records[start:end] {
			link, ok := reconciled[record.ID]
			if !ok {
				continue
			}
			sale, ok := salesByID[link.SaleID]
			if !ok {
				continue
			}

			operatorValue := record.Value
			if record.AdjustedValue != nil {
				operatorValue = *record.AdjustedValue
			}

			delta := operatorValue.Sub(sale.Value)
			if delta.IsZero() {
				continue
			}

			findings = append(findings, domain.Divergence{
				Link:          link,
				Record:        record,
				Sale:          sale,
				OperatorValue: operatorValue,
				SaleValue:     sale.Value,
				Delta:         delta,
			})
		}
	}

	return findings, nil
}

// Gaps lists eligible sales that no reconciled link references, i.e.
// sales the operator never reported. Cancellation discards partial
// findings.
func (s *Scanner) Gaps(
	ctx context.Context,
	sales []*domain.SaleRecord,
	reconciled map[int64]*domain.ReconciliationLink,
) ([]domain.Gap, error) {

	linkedSales := make(map[int64]bool, len(reconciled))
	for _, link := range reconciled {
		linkedSales[link.SaleID] = true
	}

	var findings []domain.Gap

	for start := 0; start < len(sales); start += s.chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + s.chunkSize
		if end > len(sales) {
			end = len(sales)
		}

		for _, sale := range sales[start:end] {
			if !Eligible(sale) || linkedSales[sale.ID] {
				continue
			}
			findings = append(findings, domain.Gap{
				Sale:   sale,
				Reason: "no operator record reports this sale",
			})
		}
	}

	return findings, nil
}
