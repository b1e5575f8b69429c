package store

import (
	"context"
	"fmt"
	"time"

	"github.com/erazemk/compendium/internal/db"
)

// RevokeToken records that the admin session jti has logged out. The entry
// is kept until expiresAt, after which the token is rejected anyway.
func RevokeToken(ctx context.Context, d *db.DB, jti string, expiresAt time.Time) error {
	_, err := d.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?) ON CONFLICT (jti) DO NOTHING`,
		jti, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("revoking session %s: %w", jti, err)
	}
	return nil
}

// PurgeRevokedTokens deletes revocations whose session expired before now
// and returns how many were removed.
func PurgeRevokedTokens(ctx context.Context, d *db.DB, now time.Time) (int64, error) {
	res, err := d.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purging revoked sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purging revoked sessions: %w", err)
	}
	return n, nil
}

// IsTokenRevoked reports whether the session jti has logged out.
func IsTokenRevoked(ctx context.Context, d *db.DB, jti string) (bool, error) {
	var revoked bool
	err := d.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("checking session %s: %w", jti, err)
	}
	return revoked, nil
}
