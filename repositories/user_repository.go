package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/nftbrawl/arena-bot/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserConflict = errors.New("user already exists")
)

// UserRepository is the persistent store for per-user battle accounting:
// token balance, hosting cooldown and linked wallet.
type UserRepository interface {
	Get(ctx context.Context, id string) (*models.User, error)
	GetOrCreate(ctx context.Context, id string, initialTokens int) (*models.User, error)
	Patch(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	ResetDailyTokens(ctx context.Context, tokens int) (int64, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, tokens, cooldown_until, wallet_address, created_at, updated_at
		FROM users
		WHERE id = $1`

	var u models.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Tokens, &u.CooldownUntil, &u.WalletAddress, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("query user %s: %w", id, err)
	}
	return &u, nil
}

func (r *postgresUserRepository) GetOrCreate(ctx context.Context, id string, initialTokens int) (*models.User, error) {
	query := `
		INSERT INTO users (id, tokens)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET id = users.id
		RETURNING id, tokens, cooldown_until, wallet_address, created_at, updated_at`

	var u models.User
	err := r.db.QueryRowContext(ctx, query, id, initialTokens).Scan(
		&u.ID, &u.Tokens, &u.CooldownUntil, &u.WalletAddress, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrUserConflict
		}
		return nil, fmt.Errorf("upsert user %s: %w", id, err)
	}
	return &u, nil
}

func (r *postgresUserRepository) Patch(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	query := `
		UPDATE users
		SET tokens         = COALESCE($2, tokens),
		    cooldown_until = COALESCE($3, cooldown_until),
		    wallet_address = COALESCE($4, wallet_address),
		    updated_at     = NOW()
		WHERE id = $1
		RETURNING id, tokens, cooldown_until, wallet_address, created_at, updated_at`

	var u models.User
	err := r.db.QueryRowContext(ctx, query, id, patch.Tokens, patch.CooldownUntil, patch.WalletAddress).Scan(
		&u.ID, &u.Tokens, &u.CooldownUntil, &u.WalletAddress, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("patch user %s: %w", id, err)
	}
	return &u, nil
}

// ResetDailyTokens restores every balance below the daily grant back to it.
func (r *postgresUserRepository) ResetDailyTokens(ctx context.Context, tokens int) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET tokens = $1, updated_at = NOW() WHERE tokens < $1`, tokens)
	if err != nil {
		return 0, fmt.Errorf("reset daily tokens: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset daily tokens: rows affected: %w", err)
	}
	return affected, nil
}
