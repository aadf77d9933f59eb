package matcher

import (
	"fmt"

	"telecom-recon/internal/domain"
	"telecom-recon/internal/normalizer"
)

// Classifier determines the outcome for each operator record of a batch
// pass. It is stateful across one pass only: the seen-key map implements
// in-batch duplicate detection, so a Classifier must not be shared between
// runs.
type Classifier struct {
	index      *Index
	reconciled map[int64]*domain.ReconciliationLink
	salesByID  map[int64]*domain.SaleRecord
	seen       map[string]int
}

// NewClassifier creates a classifier for one batch pass. reconciled maps
// operator record ids to their existing reconciled link; salesByID
// resolves linked sales for already-conciliated reporting.
func NewClassifier(index *Index, reconciled map[int64]*domain.ReconciliationLink, salesByID map[int64]*domain.SaleRecord) *Classifier {
	return &Classifier{
		index:      index,
		reconciled: reconciled,
		salesByID:  salesByID,
		seen:       make(map[string]int),
	}
}

// Classify resolves a single operator record. row is the record's position
// within the batch pass and is referenced by duplicate outcomes.
func (c *Classifier) Classify(record *domain.OperatorRecord, row int) domain.Classification {
	// Records already carrying a reconciled link are informational only
	// and are never re-offered for commit.
	if link, ok := c.reconciled[record.ID]; ok {
		return domain.Classification{
			Record:       record,
			Outcome:      domain.OutcomeAlreadyConciliated,
			ExistingLink: link,
			LinkedSale:   c.salesByID[link.SaleID],
		}
	}

	protocol := deref(record.Protocol)
	document := normalizer.Document(deref(record.Document))
	phone := normalizer.Phone(deref(record.RawPhone))

	if protocol == "" && document == "" && phone == "" {
		return domain.Classification{
			Record:  record,
			Outcome: domain.OutcomeInvalid,
			Reason:  "no matching key available",
		}
	}

	dedupeKey := protocol
	if dedupeKey == "" {
		dedupeKey = document
	}
	if dedupeKey == "" {
		dedupeKey = phone
	}
	if earlier, ok := c.seen[dedupeKey]; ok {
		return domain.Classification{
			Record:      record,
			Outcome:     domain.OutcomeDuplicate,
			DuplicateOf: earlier,
			Reason:      fmt.Sprintf("same key already seen at row %d", earlier),
		}
	}
	c.seen[dedupeKey] = row

	// Tiered candidate search in trust order; the first non-empty tier
	// wins and lower tiers are never cross-validated.
	var attempted []domain.MatchType
	var candidates []domain.Candidate

	for _, tier := range []struct {
		key       string
		matchType domain.MatchType
		lookup    func(string) []*domain.SaleRecord
	}{
		{protocol, domain.MatchProtocol, c.index.ByProtocol},
		{document, domain.MatchDocument, c.index.ByDocument},
		{phone, domain.MatchPhone, c.index.ByPhone},
	} {
		if tier.key == "" {
			continue
		}
		attempted = append(attempted, tier.matchType)

		sales := dedupeByID(tier.lookup(tier.key))
		if len(sales) == 0 {
			continue
		}
		for _, sale := range sales {
			candidates = append(candidates, domain.Candidate{
				Sale:      sale,
				MatchType: tier.matchType,
				Score:     domain.ScoreFor(tier.matchType),
			})
		}
		break
	}

	switch len(candidates) {
	case 0:
		return domain.Classification{
			Record:         record,
			Outcome:        domain.OutcomeNotFound,
			AttemptedTiers: attempted,
			Reason:         "no eligible sale matched any key",
		}
	case 1:
		return domain.Classification{
			Record:  record,
			Outcome: domain.OutcomeFound,
			Match:   &candidates[0],
		}
	default:
		return domain.Classification{
			Record:     record,
			Outcome:    domain.OutcomeAmbiguous,
			Candidates: candidates,
			Reason:     fmt.Sprintf("%d equally ranked candidates", len(candidates)),
		}
	}
}

func dedupeByID(sales []*domain.SaleRecord) []*domain.SaleRecord {
	if len(sales) < 2 {
		return sales
	}
	seen := make(map[int64]bool, len(sales))
	out := make([]*domain.SaleRecord, 0, len(sales))
	for _, sale := range sales {
		if seen[sale.ID] {
			continue
		}
		seen[sale.ID] = true
		out = append(out, sale)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
