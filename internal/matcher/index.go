package matcher

import (
	"strings"

	"telecom-recon/internal/domain"
	"telecom-recon/internal/normalizer"
)

// Eligible reports whether a sale is a legal match target. The single
// eligibility gate: the externally reported status must indicate the line
// was installed (case-insensitive prefix match).
func Eligible(sale *domain.SaleRecord) bool {
	return strings.HasPrefix(strings.ToLower(sale.ExternalStatus), "installed")
}

// Index holds the candidate lookup maps built once per reconciliation run
// from the eligible sale pool. A sale may appear under all three maps;
// within each key the insertion order of the loader is preserved (sale
// recency, ties broken by position).
type Index struct {
	byProtocol map[string][]*domain.SaleRecord
	byDocument map[string][]*domain.SaleRecord
	byPhone    map[string][]*domain.SaleRecord
	eligible   int
}

// NewIndex builds the three lookup maps in one O(n) pass. Ineligible sales
// are skipped here so callers may hand over an unfiltered pool.
func NewIndex(sales []*domain.SaleRecord) *Index {
	idx := &Index{
		byProtocol: make(map[string][]*domain.SaleRecord),
		byDocument: make(map[string][]*domain.SaleRecord),
		byPhone:    make(map[string][]*domain.SaleRecord),
	}

	for _, sale := range sales {
		if !Eligible(sale) {
			continue
		}
		idx.eligible++

		if sale.InternalProtocol != "" {
			idx.byProtocol[sale.InternalProtocol] = append(idx.byProtocol[sale.InternalProtocol], sale)
		}
		if doc := normalizer.Document(sale.Document); doc != "" {
			idx.byDocument[doc] = append(idx.byDocument[doc], sale)
		}
		if phone := normalizer.Phone(sale.Phone); phone != "" {
			idx.byPhone[phone] = append(idx.byPhone[phone], sale)
		}
	}

	return idx
}

// ByProtocol returns sales whose internal protocol equals the raw protocol.
func (idx *Index) ByProtocol(protocol string) []*domain.SaleRecord {
	if protocol == "" {
		return nil
	}
	return idx.byProtocol[protocol]
}

// ByDocument returns sales matching the normalized document.
func (idx *Index) ByDocument(document string) []*domain.SaleRecord {
	key := normalizer.Document(document)
	if key == "" {
		return nil
	}
	return idx.byDocument[key]
}

// ByPhone returns sales matching the normalized phone.
func (idx *Index) ByPhone(phone string) []*domain.SaleRecord {
	key := normalizer.Phone(phone)
	if key == "" {
		return nil
	}
	return idx.byPhone[key]
}

// EligibleCount returns how many sales passed the eligibility gate.
func (idx *Index) EligibleCount() int {
	return idx.eligible
}
