package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/transfer-service/internal/domain"
	"github.com/spec-kit/transfer-service/internal/persistence"
)

// HandoverRepository persists handover items.
type HandoverRepository interface {
	Create(ctx context.Context, item *domain.HandoverItem) error
	GetByID(ctx context.Context, transferID, itemID string) (*domain.HandoverItem, error)
	ListByTransfer(ctx context.Context, transferID string) ([]domain.HandoverItem, error)
	// MarkCompleted flips an open item to completed. It returns ErrAlreadyCompleted
	// when the item was completed before and ErrNotFound when it does not exist.
	MarkCompleted(ctx context.Context, transferID, itemID, actor string, at time.Time) (*domain.HandoverItem, error)
}

type handoverRepository struct {
	pool persistence.Queryer
}

// NewHandoverRepository builds the postgres repository.
func NewHandoverRepository(pool persistence.Queryer) HandoverRepository {
	return &handoverRepository{pool: pool}
}

const handoverColumns = `id, transfer_id, category, title, description, is_completed, completed_at, completed_by, created_at`

func (r *handoverRepository) Create(ctx context.Context, item *domain.HandoverItem) error {
	const query = `
        INSERT INTO handover_items (id, transfer_id, category, title, description, is_completed, completed_at, completed_by, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	exec := persistence.QueryerFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, query,
		item.ID,
		item.TransferID,
		item.Category,
		item.Title,
		item.Description,
		item.IsCompleted,
		item.CompletedAt,
		item.CompletedBy,
		item.CreatedAt,
	)
	return translatePgError(err)
}

func (r *handoverRepository) GetByID(ctx context.Context, transferID, itemID string) (*domain.HandoverItem, error) {
	query := `SELECT ` + handoverColumns + ` FROM handover_items WHERE transfer_id=$1 AND id=$2`
	exec := persistence.QueryerFromContext(ctx, r.pool)
	return scanHandoverItem(exec.QueryRow(ctx, query, transferID, itemID))
}

func (r *handoverRepository) ListByTransfer(ctx context.Context, transferID string) ([]domain.HandoverItem, error) {
	query := `SELECT ` + handoverColumns + ` FROM handover_items WHERE transfer_id=$1 ORDER BY created_at, id`
	exec := persistence.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, transferID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.HandoverItem{}
	for rows.Next() {
		item, err := scanHandoverItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *handoverRepository) MarkCompleted(ctx context.Context, transferID, itemID, actor string, at time.Time) (*domain.HandoverItem, error) {
	query := `
        UPDATE handover_items SET is_completed=TRUE, completed_at=$1, completed_by=$2
        WHERE transfer_id=$3 AND id=$4 AND is_completed=FALSE
        RETURNING ` + handoverColumns
	exec := persistence.QueryerFromContext(ctx, r.pool)
	item, err := scanHandoverItem(exec.QueryRow(ctx, query, at, actor, transferID, itemID))
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// Nothing updated: either the item is missing or someone completed it first.
	if _, lookupErr := r.GetByID(ctx, transferID, itemID); lookupErr != nil {
		return nil, lookupErr
	}
	return nil, ErrAlreadyCompleted
}

func scanHandoverItem(row pgx.Row) (*domain.HandoverItem, error) {
	var item domain.HandoverItem
	if err := row.Scan(
		&item.ID,
		&item.TransferID,
		&item.Category,
		&item.Title,
		&item.Description,
		&item.IsCompleted,
		&item.CompletedAt,
		&item.CompletedBy,
		&item.CreatedAt,
	); err != nil {
		return nil, translatePgError(err)
	}
	return &item, nil
}
