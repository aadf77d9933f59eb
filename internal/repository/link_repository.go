package repository

import (
	"context"
	"database/sql"

	"telecom-recon/internal/domain"
	"telecom-recon/pkg/logger"
)

type LinkRepository interface {
	// BulkCreate inserts one commit batch of links in a single
	// transaction. All-or-nothing: any insert failure rolls the whole
	// batch back so the caller can count it as failed and move on.
	BulkCreate(ctx context.Context, links []domain.ReconciliationLink) error

	// ReconciledLinks returns every link with status reconciled, keyed by
	// operator record id. The partial unique index on
	// (operator_record_id) WHERE status = 'reconciled' guarantees one
	// entry per record.
	ReconciledLinks(ctx context.Context) (map[int64]*domain.ReconciliationLink, error)

	// CreateManualCommit persists a manual link, the sale confirmation and
	// its audit entry in one transaction: either all land or none do.
	CreateManualCommit(ctx context.Context, link *domain.ReconciliationLink, audit *domain.AuditEntry) error

	GetByBatchLabel(ctx context.Context, batchLabel string) ([]domain.ReconciliationLink, error)
}

type linkRepository struct {
	db *sql.DB
}

func NewLinkRepository(db *sql.DB) LinkRepository {
	return &linkRepository{db: db}
}

const insertLinkQuery = `
	INSERT INTO reconciliation_links (
		id, sale_id, operator_record_id, match_type, score, status,
		validated_by, validated_at, note
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

func (r *linkRepository) BulkCreate(ctx context.Context, links []domain.ReconciliationLink) error {
	if len(links) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to begin transaction")
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertLinkQuery)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to prepare link insert")
		return err
	}
	defer stmt.Close()

	for _, link := range links {
		_, err = stmt.ExecContext(ctx,
			link.ID,
			link.SaleID,
			link.OperatorRecordID,
			link.MatchType,
			link.Score,
			link.Status,
			link.ValidatedBy,
			link.ValidatedAt,
			link.Note,
		)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("operator_record_id", link.OperatorRecordID).Error("Failed to insert reconciliation link")
			return err
		}
	}

	return tx.Commit()
}

func (r *linkRepository) ReconciledLinks(ctx context.Context) (map[int64]*domain.ReconciliationLink, error) {
	query := `
		SELECT id, sale_id, operator_record_id, match_type, score, status,
			   validated_by, validated_at, note
		FROM reconciliation_links
		WHERE status = 'reconciled'
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query reconciled links")
		return nil, err
	}
	defer rows.Close()

	links := make(map[int64]*domain.ReconciliationLink)
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan reconciliation link")
			continue
		}
		links[link.OperatorRecordID] = link
	}

	return links, rows.Err()
}

func (r *linkRepository) CreateManualCommit(ctx context.Context, link *domain.ReconciliationLink, audit *domain.AuditEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to begin transaction")
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, insertLinkQuery,
		link.ID,
		link.SaleID,
		link.OperatorRecordID,
		link.MatchType,
		link.Score,
		link.Status,
		link.ValidatedBy,
		link.ValidatedAt,
		link.Note,
	)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to insert manual link")
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE sale_records SET status = $1, updated_at = NOW() WHERE id = $2
	`, domain.SaleConfirmed, link.SaleID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to confirm sale for manual link")
		return err
	}

	metadata, err := encodeMetadata(audit.Metadata)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, insertAuditQuery,
		audit.ID,
		audit.SaleID,
		audit.Action,
		audit.Field,
		audit.OldValue,
		audit.NewValue,
		metadata,
		audit.PerformedBy,
	)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to insert audit entry for manual link")
		return err
	}

	return tx.Commit()
}

func (r *linkRepository) GetByBatchLabel(ctx context.Context, batchLabel string) ([]domain.ReconciliationLink, error) {
	query := `
		SELECT l.id, l.sale_id, l.operator_record_id, l.match_type, l.score,
			   l.status, l.validated_by, l.validated_at, l.note
		FROM reconciliation_links l
		JOIN operator_records o ON o.id = l.operator_record_id
		WHERE o.batch_label = $1
		ORDER BY l.validated_at
	`

	rows, err := r.db.QueryContext(ctx, query, batchLabel)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query links by batch label")
		return nil, err
	}
	defer rows.Close()

	var links []domain.ReconciliationLink
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan reconciliation link")
			continue
		}
		links = append(links, *link)
	}

	return links, rows.Err()
}

func scanLink(row rowScanner) (*domain.ReconciliationLink, error) {
	var link domain.ReconciliationLink
	err := row.Scan(
		&link.ID,
		&link.SaleID,
		&link.OperatorRecordID,
		&link.MatchType,
		&link.Score,
		&link.Status,
		&link.ValidatedBy,
		&link.ValidatedAt,
		&link.Note,
	)
	if err != nil {
		return nil, err
	}
	return &link, nil
}
