package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"restaurantai/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var leadColumns = []string{
	"id", "client_id", "phone", "spend", "category", "score", "reason", "suggested_action", "promotion", "status", "created_at", "updated_at",
}

type LeadRepository struct {
	db     *sql.DB
	sb     squirrel.StatementBuilderType
	logger *zap.Logger
}

func NewLeadRepository(db *sql.DB, dialect Dialect, logger *zap.Logger) *LeadRepository {
	return &LeadRepository{
		db:     db,
		sb:     dialect.builder(),
		logger: logger,
	}
}

// ReplacePending drops leads still awaiting approval and stores the new batch.
// Approved leads are never touched.
func (r *LeadRepository) ReplacePending(ctx context.Context, leads []*models.Lead) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := r.sb.Delete("leads").Where(squirrel.Eq{"status": string(models.LeadPendingApproval)}).ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear pending leads: %w", err)
	}

	if len(leads) > 0 {
		insert := r.sb.Insert("leads").Columns(leadColumns...)
		for _, l := range leads {
			insert = insert.Values(
				l.ID.String(), l.ClientID, l.Phone, l.Spend, string(l.Category), l.Score,
				l.Reason, l.SuggestedAction, l.Promotion, string(l.Status), formatTime(l.CreatedAt), formatTime(l.UpdatedAt),
			)
		}
		query, args, err = insert.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert leads: %w", err)
		}
	}

	return tx.Commit()
}

// List returns leads ordered by score. An empty status returns every lead.
func (r *LeadRepository) List(ctx context.Context, status models.LeadStatus) ([]*models.Lead, error) {
	q := r.sb.Select(leadColumns...).From("leads").OrderBy("score DESC", "spend DESC", "id")
	if status != "" {
		q = q.Where(squirrel.Eq{"status": string(status)})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	query, args, err := r.sb.Select(leadColumns...).From("leads").Where(squirrel.Eq{"id": id.String()}).ToSql()
	if err != nil {
		return nil, err
	}
	l, err := scanLead(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

func (r *LeadRepository) Update(ctx context.Context, l *models.Lead) error {
	query, args, err := r.sb.Update("leads").
		Set("promotion", l.Promotion).
		Set("status", string(l.Status)).
		Set("updated_at", formatTime(l.UpdatedAt)).
		Where(squirrel.Eq{"id": l.ID.String()}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(s rowScanner) (*models.Lead, error) {
	var (
		l                    models.Lead
		id, category, status string
		createdAt, updatedAt string
	)
	if err := s.Scan(&id, &l.ClientID, &l.Phone, &l.Spend, &category, &l.Score, &l.Reason, &l.SuggestedAction, &l.Promotion, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	l.ID, _ = uuid.Parse(id)
	l.Category = models.LeadCategory(category)
	l.Status = models.LeadStatus(status)
	l.CreatedAt = parseTime(createdAt)
	l.UpdatedAt = parseTime(updatedAt)
	return &l, nil
}
