package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo manages the refresh-token columns of the users row. A user holds
// at most one refresh token; storing a new one replaces the previous.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh overwrites the user's refresh token hash and expiry.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	return mustAffect(r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=?, refresh_token_expires_at=?, updated_at=? WHERE id=?",
		tokenHash, exp.UTC(), timestamp(), userID))
}

// ClearRefresh removes the stored refresh token and replaces the rotation
// identifier.
func (r *TokenRepo) ClearRefresh(ctx context.Context, userID uint64, jti string) error {
	return mustAffect(r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=NULL, refresh_token_expires_at=NULL, jti=?, updated_at=? WHERE id=?",
		jti, timestamp(), userID))
}
