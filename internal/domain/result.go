package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outcome classifies one operator record within a reconciliation run
type Outcome string

const (
	OutcomeFound              Outcome = "found"
	OutcomeAmbiguous          Outcome = "ambiguous"
	OutcomeNotFound           Outcome = "not_found"
	OutcomeInvalid            Outcome = "invalid"
	OutcomeDuplicate          Outcome = "duplicate"
	OutcomeAlreadyConciliated Outcome = "already_conciliated"
)

// Candidate is one sale offered as a possible match for an operator
// record, tagged with the key tier that produced it.
type Candidate struct {
	Sale      *SaleRecord `json:"sale"`
	MatchType MatchType   `json:"match_type"`
	Score     int         `json:"score"`
}

// Classification is the outcome of classifying a single operator record.
// Exactly one of Match, Candidates, ExistingLink is populated depending on
// the outcome; Reason carries operator-facing context for the rest.
type Classification struct {
	Record  *OperatorRecord `json:"record"`
	Outcome Outcome         `json:"outcome"`

	// Match is set when Outcome is found.
	Match *Candidate `json:"match,omitempty"`

	// Candidates is set when Outcome is ambiguous.
	Candidates []Candidate `json:"candidates,omitempty"`

	// AttemptedTiers lists the key tiers tried when Outcome is not_found.
	AttemptedTiers []MatchType `json:"attempted_tiers,omitempty"`

	// DuplicateOf is the row index of the earlier record sharing the same
	// dedupe key when Outcome is duplicate.
	DuplicateOf int `json:"duplicate_of,omitempty"`

	// ExistingLink and LinkedSale are set when Outcome is
	// already_conciliated.
	ExistingLink *ReconciliationLink `json:"existing_link,omitempty"`
	LinkedSale   *SaleRecord         `json:"linked_sale,omitempty"`

	Reason string `json:"reason,omitempty"`
}

// ResultSummary holds the per-bucket counts of a reconciliation run
type ResultSummary struct {
	Total              int `json:"total"`
	Found              int `json:"found"`
	Ambiguous          int `json:"ambiguous"`
	NotFound           int `json:"not_found"`
	Invalid            int `json:"invalid"`
	Duplicates         int `json:"duplicates"`
	AlreadyConciliated int `json:"already_conciliated"`
}

// ReconciliationResult is the immutable snapshot produced by one
// reconciliation run over a batch label.
type ReconciliationResult struct {
	RunID              string           `json:"run_id"`
	BatchLabel         string           `json:"batch_label"`
	Found              []Classification `json:"found"`
	Ambiguous          []Classification `json:"ambiguous"`
	NotFound           []Classification `json:"not_found"`
	Invalid            []Classification `json:"invalid"`
	Duplicates         []Classification `json:"duplicates"`
	AlreadyConciliated []Classification `json:"already_conciliated"`
	Summary            ResultSummary    `json:"summary"`
	GeneratedAt        time.Time        `json:"generated_at"`
}

// CommitSummary reports the end-of-run counts of an automatic commit.
// Succeeded counts matches whose link insert and sale update both landed;
// Failed counts matches lost to a failed link batch or a failed update.
// The split keeps "classified as found" visibly distinct from
// "successfully committed".
type CommitSummary struct {
	BatchLabel    string `json:"batch_label"`
	Attempted     int    `json:"attempted"`
	Succeeded     int    `json:"succeeded"`
	Failed        int    `json:"failed"`
	FailedBatches int    `json:"failed_batches"`
}

// Divergence flags a reconciled pair whose operator-reported value no
// longer matches the sale value.
type Divergence struct {
	Link          *ReconciliationLink `json:"link"`
	Record        *OperatorRecord     `json:"record"`
	Sale          *SaleRecord         `json:"sale"`
	OperatorValue decimal.Decimal     `json:"operator_value"`
	SaleValue     decimal.Decimal     `json:"sale_value"`
	Delta         decimal.Decimal     `json:"delta"`
}

// Gap is an eligible sale that no operator record in the batch covers,
// i.e. a sale the operator never reported.
type Gap struct {
	Sale   *SaleRecord `json:"sale"`
	Reason string      `json:"reason"`
}
