// AngelaMos | 2026
// repository.go

package audit

import (
	"context"
	"fmt"

	"github.com/cit-submit/go-backend/internal/core"
)

// Repository exposes append and read operations only. Immutability of the
// trail is enforced by the absence of any update or delete method.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	List(ctx context.Context, params ListParams) ([]Entry, int, error)
	ListForTarget(
		ctx context.Context,
		targetUserID string,
		params ListParams,
	) ([]Entry, int, error)
	WithTx(db core.DBTX) Repository
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// WithTx binds the repository to an open transaction so the audit append
// commits or rolls back together with the mutation it documents.
func (r *repository) WithTx(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Append(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO audit_logs (
			id, admin_id, target_user_id, action, description, changed_fields
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &entry.CreatedAt, query,
		entry.ID,
		entry.AdminID,
		entry.TargetUserID,
		entry.Action,
		entry.Description,
		entry.ChangedFields,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Entry, int, error) {
	params.Normalize()

	countQuery := `SELECT COUNT(*) FROM audit_logs`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	query := `
		SELECT id, admin_id, target_user_id, action, description,
		       changed_fields, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	var entries []Entry
	err := r.db.SelectContext(
		ctx,
		&entries,
		query,
		params.PageSize,
		params.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}

	return entries, total, nil
}

func (r *repository) ListForTarget(
	ctx context.Context,
	targetUserID string,
	params ListParams,
) ([]Entry, int, error) {
	params.Normalize()

	countQuery := `SELECT COUNT(*) FROM audit_logs WHERE target_user_id = $1`
	var total int
	err := r.db.GetContext(ctx, &total, countQuery, targetUserID)
	if err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	query := `
		SELECT id, admin_id, target_user_id, action, description,
		       changed_fields, created_at
		FROM audit_logs
		WHERE target_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var entries []Entry
	err = r.db.SelectContext(
		ctx,
		&entries,
		query,
		targetUserID,
		params.PageSize,
		params.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}

	return entries, total, nil
}
