package domain

import "time"

// MatchType identifies which key produced a candidate match
type MatchType string

const (
	MatchProtocol MatchType = "protocol"
	MatchDocument MatchType = "document"
	MatchPhone    MatchType = "phone"
	MatchManual   MatchType = "manual"
)

// Match scores reflect the trust ordering of the keys: protocol numbers
// are operator-assigned and least likely to collide, documents can be
// shared across a household or company, phone numbers are reused and
// reassigned the most.
const (
	ScoreProtocol = 100
	ScoreDocument = 90
	ScorePhone    = 70
	ScoreManual   = 100
)

// ScoreFor returns the match score for a match type.
func ScoreFor(mt MatchType) int {
	switch mt {
	case MatchProtocol:
		return ScoreProtocol
	case MatchDocument:
		return ScoreDocument
	case MatchPhone:
		return ScorePhone
	case MatchManual:
		return ScoreManual
	}
	return 0
}

// LinkStatus is the final status of a reconciliation link
type LinkStatus string

const (
	LinkReconciled LinkStatus = "reconciled"
	LinkDivergent  LinkStatus = "divergent"
	LinkNotFound   LinkStatus = "not_found"
)

// ReconciliationLink asserts that one operator record and one sale record
// denote the same transaction. Links are never updated in place;
// corrections are new links plus status changes on the referenced sale.
// At most one link with status reconciled may reference a given operator
// record (enforced by a partial unique index).
type ReconciliationLink struct {
	ID               string     `json:"id" db:"id"`
	SaleID           int64      `json:"sale_id" db:"sale_id"`
	OperatorRecordID int64      `json:"operator_record_id" db:"operator_record_id"`
	MatchType        MatchType  `json:"match_type" db:"match_type"`
	Score            int        `json:"score" db:"score"`
	Status           LinkStatus `json:"status" db:"status"`
	ValidatedBy      string     `json:"validated_by" db:"validated_by"`
	ValidatedAt      time.Time  `json:"validated_at" db:"validated_at"`
	Note             string     `json:"note,omitempty" db:"note"`
}

// AuditAction identifies the kind of change recorded by an audit entry
type AuditAction string

const (
	AuditStatusChange AuditAction = "status_change"
	AuditValueChange  AuditAction = "value_change"
)

// AuditEntry is an append-only record of who changed what on a sale and
// why. Written synchronously alongside every mutation the commit engine
// performs.
type AuditEntry struct {
	ID          string            `json:"id" db:"id"`
	SaleID      int64             `json:"sale_id" db:"sale_id"`
	Action      AuditAction       `json:"action" db:"action"`
	Field       string            `json:"field" db:"field"`
	OldValue    string            `json:"old_value" db:"old_value"`
	NewValue    string            `json:"new_value" db:"new_value"`
	Metadata    map[string]string `json:"metadata,omitempty" db:"metadata"`
	PerformedBy string            `json:"performed_by" db:"performed_by"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
}
