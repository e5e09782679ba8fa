// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/cit-submit/go-backend/internal/core"
)

// Store persists refresh tokens. Replace is the only write path that creates
// tokens, which is how the one-live-token-per-user invariant is enforced.
type Store interface {
	Replace(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Store {
	return &repository{db: db}
}

// Replace deletes any existing token for the user and inserts the new one in
// a single transaction. Two concurrent issuers can still race past each
// other's delete; the unique index on user_id turns that into a duplicate-key
// error, and one retry resolves it (last writer wins).
func (r *repository) Replace(
	ctx context.Context,
	token *RefreshToken,
) error {
	err := r.replaceOnce(ctx, token)
	if errors.Is(err, core.ErrDuplicateKey) {
		err = r.replaceOnce(ctx, token)
	}
	if err != nil {
		return fmt.Errorf("replace refresh token: %w", err)
	}
	return nil
}

func (r *repository) replaceOnce(
	ctx context.Context,
	token *RefreshToken,
) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		deleteQuery := `DELETE FROM refresh_tokens WHERE user_id = $1`
		if _, err := tx.ExecContext(ctx, deleteQuery, token.UserID); err != nil {
			return fmt.Errorf("delete existing token: %w", err)
		}

		insertQuery := `
			INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at`

		err := tx.GetContext(ctx, &token.CreatedAt, insertQuery,
			token.ID,
			token.UserID,
			token.TokenHash,
			token.ExpiresAt,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return core.ErrDuplicateKey
			}
			return fmt.Errorf("insert token: %w", err)
		}

		return nil
	})
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM refresh_tokens
		WHERE token_hash = $1`

	var token RefreshToken
	err := r.db.GetContext(ctx, &token, query, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	return &token, nil
}

func (r *repository) DeleteByID(ctx context.Context, id string) error {
	query := `DELETE FROM refresh_tokens WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	return nil
}

func (r *repository) DeleteByUser(
	ctx context.Context,
	userID string,
) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete user tokens: %w", err)
	}

	return rows, nil
}

func (r *repository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at <= NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	return rows, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
