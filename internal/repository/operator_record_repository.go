package repository

import (
	"context"
	"database/sql"
	"fmt"

	"telecom-recon/internal/domain"
	"telecom-recon/pkg/logger"
)

type OperatorRecordRepository interface {
	GetByBatchLabel(ctx context.Context, batchLabel string) ([]*domain.OperatorRecord, error)
	GetByID(ctx context.Context, id int64) (*domain.OperatorRecord, error)
	ListBatchLabels(ctx context.Context) ([]string, error)
}

type operatorRecordRepository struct {
	db *sql.DB
}

func NewOperatorRecordRepository(db *sql.DB) OperatorRecordRepository {
	return &operatorRecordRepository{db: db}
}

const operatorRecordColumns = `
	id, operator, protocol, document, raw_phone, client_name, plan,
	value, adjusted_value, status, status_date, batch_label, source_file, created_at
`

func (r *operatorRecordRepository) GetByBatchLabel(ctx context.Context, batchLabel string) ([]*domain.OperatorRecord, error) {
	query := `
		SELECT ` + operatorRecordColumns + `
		FROM operator_records
		WHERE batch_label = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, batchLabel)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query operator records")
		return nil, err
	}
	defer rows.Close()

	var records []*domain.OperatorRecord
	for rows.Next() {
		record, err := scanOperatorRecord(rows)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan operator record")
			continue
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func (r *operatorRecordRepository) GetByID(ctx context.Context, id int64) (*domain.OperatorRecord, error) {
	query := `
		SELECT ` + operatorRecordColumns + `
		FROM operator_records
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)
	record, err := scanOperatorRecord(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("operator record %d not found", id)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get operator record")
		return nil, err
	}

	return record, nil
}

func (r *operatorRecordRepository) ListBatchLabels(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT batch_label
		FROM operator_records
		ORDER BY batch_label
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query batch labels")
		return nil, err
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan batch label")
			continue
		}
		labels = append(labels, label)
	}

	return labels, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOperatorRecord(row rowScanner) (*domain.OperatorRecord, error) {
	var record domain.OperatorRecord
	err := row.Scan(
		&record.ID,
		&record.Operator,
		&record.Protocol,
		&record.Document,
		&record.RawPhone,
		&record.ClientName,
		&record.Plan,
		&record.Value,
		&record.AdjustedValue,
		&record.Status,
		&record.StatusDate,
		&record.BatchLabel,
		&record.SourceFile,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
