package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"telecom-recon/internal/domain"
	"telecom-recon/pkg/logger"
)

type SaleRepository interface {
	// GetEligible returns the match candidate pool: sales whose externally
	// reported status prefix-matches "installed", newest sale first.
	GetEligible(ctx context.Context) ([]*domain.SaleRecord, error)
	GetByID(ctx context.Context, id int64) (*domain.SaleRecord, error)
	// UpdateStatusAndValue transitions the sale status and, when value is
	// non-nil, overwrites the sale value.
	UpdateStatusAndValue(ctx context.Context, id int64, status domain.SaleStatus, value *decimal.Decimal) error
}

type saleRepository struct {
	db *sql.DB
}

func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

const saleColumns = `
	id, client_name, document, phone, internal_protocol, operator_ref,
	value, status, seller_ref, sale_date, installation_date, external_status,
	created_at, updated_at
`

func (r *saleRepository) GetEligible(ctx context.Context) ([]*domain.SaleRecord, error) {
	query := `
		SELECT ` + saleColumns + `
		FROM sale_records
		WHERE LOWER(external_status) LIKE 'installed%'
		ORDER BY sale_date DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query eligible sales")
		return nil, err
	}
	defer rows.Close()

	var sales []*domain.SaleRecord
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan sale record")
			continue
		}
		sales = append(sales, sale)
	}

	return sales, rows.Err()
}

func (r *saleRepository) GetByID(ctx context.Context, id int64) (*domain.SaleRecord, error) {
	query := `
		SELECT ` + saleColumns + `
		FROM sale_records
		WHERE id = $1
	`

	sale, err := scanSale(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sale record %d not found", id)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get sale record")
		return nil, err
	}

	return sale, nil
}

func (r *saleRepository) UpdateStatusAndValue(ctx context.Context, id int64, status domain.SaleStatus, value *decimal.Decimal) error {
	query := `
		UPDATE sale_records
		SET status = $1, value = COALESCE($2, value), updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, status, value, id)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("sale_id", id).Error("Failed to update sale record")
		return err
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("sale record %d not found", id)
	}

	return nil
}

func scanSale(row rowScanner) (*domain.SaleRecord, error) {
	var sale domain.SaleRecord
	err := row.Scan(
		&sale.ID,
		&sale.ClientName,
		&sale.Document,
		&sale.Phone,
		&sale.InternalProtocol,
		&sale.OperatorRef,
		&sale.Value,
		&sale.Status,
		&sale.SellerRef,
		&sale.SaleDate,
		&sale.InstallationDate,
		&sale.ExternalStatus,
		&sale.CreatedAt,
		&sale.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}
