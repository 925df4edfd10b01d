package db

import (
	"context"
	"database/sql"
)

// password_hash and each provider id are nullable; unique indexes ignore NULLs.
const usersMigration = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS users (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    email text NOT NULL,
    password_hash text,
    google_id text,
    apple_id text,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_unique
ON users (LOWER(email));

CREATE UNIQUE INDEX IF NOT EXISTS users_google_id_unique
ON users (google_id);

CREATE UNIQUE INDEX IF NOT EXISTS users_apple_id_unique
ON users (apple_id);
`

// Migrate creates the users schema if it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, usersMigration)
	return err
}
