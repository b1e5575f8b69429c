package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/erazemk/compendium/internal/db"
)

// SettingSessionKey holds the HMAC key that signs admin sessions.
const SettingSessionKey = "session_signing_key"

// GetSetting returns the stored value for key. ok is false when unset.
func GetSetting(ctx context.Context, d *db.DB, key string) (value string, ok bool, err error) {
	err = d.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, true, nil
}

// EnsureSetting stores candidate under key unless a value is already
// present, and returns whichever value won. Concurrent callers all see the
// same value.
func EnsureSetting(ctx context.Context, d *db.DB, key, candidate string) (string, error) {
	_, err := d.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`,
		key, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing setting %s: %w", key, err)
	}

	value, ok, err := GetSetting(ctx, d, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("setting %s vanished after insert", key)
	}
	return value, nil
}

// SessionSigningKey returns the admin session key, generating a random
// one on first start.
func SessionSigningKey(ctx context.Context, d *db.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session key: %w", err)
	}
	return EnsureSetting(ctx, d, SettingSessionKey, hex.EncodeToString(buf))
}
