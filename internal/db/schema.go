package db

import (
	"fmt"
	"strings"
)

// sqliteSchema is the full SQLite schema.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS analyses (
    id               INTEGER PRIMARY KEY,
    name             TEXT NOT NULL CHECK (name <> ''),
    laboratory       TEXT NOT NULL CHECK (laboratory <> ''),
    sector           TEXT,
    form             TEXT,
    sample_type      TEXT,
    device           TEXT,
    frequency        TEXT,
    tat              TEXT,
    units            TEXT,
    reference_values TEXT,
    stability        TEXT,
    inami_code       TEXT,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_analyses_name ON analyses(name);

CREATE TABLE IF NOT EXISTS suggestions (
    id           INTEGER PRIMARY KEY,
    type         TEXT NOT NULL CHECK (type IN ('add', 'edit')),
    analysis     TEXT NOT NULL,
    author_name  TEXT NOT NULL,
    author_lab   TEXT NOT NULL,
    author_email TEXT NOT NULL,
    status       TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_suggestions_created_at ON suggestions(created_at);

CREATE TABLE IF NOT EXISTS contacts (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL,
    message    TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// postgresSchema mirrors sqliteSchema for Postgres.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS analyses (
    id               BIGSERIAL PRIMARY KEY,
    name             TEXT NOT NULL CHECK (name <> ''),
    laboratory       TEXT NOT NULL CHECK (laboratory <> ''),
    sector           TEXT,
    form             TEXT,
    sample_type      TEXT,
    device           TEXT,
    frequency        TEXT,
    tat              TEXT,
    units            TEXT,
    reference_values TEXT,
    stability        TEXT,
    inami_code       TEXT,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_analyses_name ON analyses(name);

CREATE TABLE IF NOT EXISTS suggestions (
    id           BIGSERIAL PRIMARY KEY,
    type         TEXT NOT NULL CHECK (type IN ('add', 'edit')),
    analysis     TEXT NOT NULL,
    author_name  TEXT NOT NULL,
    author_lab   TEXT NOT NULL,
    author_email TEXT NOT NULL,
    status       TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    created_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_suggestions_created_at ON suggestions(created_at);

CREATE TABLE IF NOT EXISTS contacts (
    id         BIGSERIAL PRIMARY KEY,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL,
    message    TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *DB) error {
	schema := sqliteSchema
	if db.Driver == DriverPostgres {
		schema = postgresSchema
	}

	// pgx rejects multiple statements in one prepared call, so run them one by one.
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.DB.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
