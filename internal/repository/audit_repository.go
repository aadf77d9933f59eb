package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"telecom-recon/internal/domain"
	"telecom-recon/pkg/logger"
)

type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	GetBySaleID(ctx context.Context, saleID int64) ([]domain.AuditEntry, error)
}

type auditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{db: db}
}

const insertAuditQuery = `
	INSERT INTO audit_entries (
		id, sale_id, action, field, old_value, new_value, metadata, performed_by
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	metadata, err := encodeMetadata(entry.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, insertAuditQuery,
		entry.ID,
		entry.SaleID,
		entry.Action,
		entry.Field,
		entry.OldValue,
		entry.NewValue,
		metadata,
		entry.PerformedBy,
	)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("sale_id", entry.SaleID).Error("Failed to create audit entry")
		return err
	}

	return nil
}

func (r *auditRepository) GetBySaleID(ctx context.Context, saleID int64) ([]domain.AuditEntry, error) {
	query := `
		SELECT id, sale_id, action, field, old_value, new_value, metadata,
			   performed_by, created_at
		FROM audit_entries
		WHERE sale_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, saleID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query audit entries")
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		var metadata []byte
		err := rows.Scan(
			&entry.ID,
			&entry.SaleID,
			&entry.Action,
			&entry.Field,
			&entry.OldValue,
			&entry.NewValue,
			&metadata,
			&entry.PerformedBy,
			&entry.CreatedAt,
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan audit entry")
			continue
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				logger.GetLogger().WithError(err).Warn("Failed to decode audit metadata")
			}
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func encodeMetadata(metadata map[string]string) ([]byte, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	return json.Marshal(metadata)
}
