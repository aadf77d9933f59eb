package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus represents the internal lifecycle status of a sale
type SaleStatus string

const (
	SalePending   SaleStatus = "PENDING"
	SaleInstalled SaleStatus = "INSTALLED"
	SaleConfirmed SaleStatus = "CONFIRMED"
	SaleCancelled SaleStatus = "CANCELLED"
	SaleContested SaleStatus = "CONTESTED"
)

// OperatorRecord is one settlement line reported by a telecom operator for
// a billing batch. Records are immutable to the engine; only the import
// stage creates them and only explicit batch deletion removes them.
type OperatorRecord struct {
	ID            int64            `json:"id" db:"id"`
	Operator      string           `json:"operator" db:"operator"`
	Protocol      *string          `json:"protocol,omitempty" db:"protocol"`
	Document      *string          `json:"document,omitempty" db:"document"`
	RawPhone      *string          `json:"raw_phone,omitempty" db:"raw_phone"`
	ClientName    string           `json:"client_name" db:"client_name"`
	Plan          string           `json:"plan" db:"plan"`
	Value         decimal.Decimal  `json:"value" db:"value"`
	AdjustedValue *decimal.Decimal `json:"adjusted_value,omitempty" db:"adjusted_value"`
	Status        string           `json:"status" db:"status"`
	StatusDate    *time.Time       `json:"status_date,omitempty" db:"status_date"`
	BatchLabel    string           `json:"batch_label" db:"batch_label"`
	SourceFile    string           `json:"source_file" db:"source_file"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}

// SaleRecord is one sale created and tracked by the selling organization.
// The engine reads sales as match candidates and, on commit, transitions
// status to CONFIRMED and may overwrite the value with the operator's
// adjusted value.
type SaleRecord struct {
	ID               int64           `json:"id" db:"id"`
	ClientName       string          `json:"client_name" db:"client_name"`
	Document         string          `json:"document" db:"document"`
	Phone            string          `json:"phone" db:"phone"`
	InternalProtocol string          `json:"internal_protocol" db:"internal_protocol"`
	OperatorRef      string          `json:"operator_ref" db:"operator_ref"`
	Value            decimal.Decimal `json:"value" db:"value"`
	Status           SaleStatus      `json:"status" db:"status"`
	SellerRef        string          `json:"seller_ref" db:"seller_ref"`
	SaleDate         time.Time       `json:"sale_date" db:"sale_date"`
	InstallationDate *time.Time      `json:"installation_date,omitempty" db:"installation_date"`
	ExternalStatus   string          `json:"external_status" db:"external_status"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}
