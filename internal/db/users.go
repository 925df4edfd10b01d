package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/user"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const userColumns = `id, email, password_hash, google_id, apple_id, created_at, updated_at`

// UserStore is the postgres implementation of user.Store.
type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

var _ user.Store = (*UserStore)(nil)

// providerColumn whitelists the column name used for a provider.
func providerColumn(p user.Provider) (string, error) {
	switch p {
	case user.ProviderGoogle:
		return "google_id", nil
	case user.ProviderApple:
		return "apple_id", nil
	}
	return "", fmt.Errorf("db: unknown provider %q", p)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)

	return scanUser(row)
}

func (s *UserStore) FindByProviderID(ctx context.Context, provider user.Provider, subject string) (*user.User, error) {
	col, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE `+col+` = $1
	`, subject)

	return scanUser(row)
}

func (s *UserStore) Create(ctx context.Context, nu user.NewUser) (*user.User, error) {
	var googleID, appleID sql.NullString

	if nu.ProviderID != "" {
		switch nu.Provider {
		case user.ProviderGoogle:
			googleID = sql.NullString{String: nu.ProviderID, Valid: true}
		case user.ProviderApple:
			appleID = sql.NullString{String: nu.ProviderID, Valid: true}
		default:
			return nil, fmt.Errorf("db: unknown provider %q", nu.Provider)
		}
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, google_id, apple_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		strings.ToLower(nu.Email),
		sql.NullString{String: nu.PasswordHash, Valid: nu.PasswordHash != ""},
		googleID,
		appleID,
	)

	u, err := scanUser(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return u, nil
}

func (s *UserStore) LinkProviderID(ctx context.Context, userID string, provider user.Provider, subject string) (*user.User, error) {
	col, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}

	// only fills an empty slot; never replaces a different subject
	row := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET `+col+` = $2, updated_at = NOW()
		WHERE id = $1
		  AND (`+col+` IS NULL OR `+col+` = $2)
		RETURNING `+userColumns,
		userID,
		subject,
	)

	u, err := scanUser(row)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, mapWriteError(err)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)
	`, userID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("db: link %s: %w", provider, err)
	}
	if !exists {
		return nil, user.ErrNotFound
	}
	return nil, user.ErrAlreadyLinked
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*user.User, error) {
	var (
		u                 user.User
		passwordHash      sql.NullString
		googleID, appleID sql.NullString
	)

	err := row.Scan(
		&u.ID,
		&u.Email,
		&passwordHash,
		&googleID,
		&appleID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	u.PasswordHash = passwordHash.String
	u.ProviderIDs = map[user.Provider]string{}
	if googleID.Valid {
		u.ProviderIDs[user.ProviderGoogle] = googleID.String
	}
	if appleID.Valid {
		u.ProviderIDs[user.ProviderApple] = appleID.String
	}

	return &u, nil
}

func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return user.ErrConflict
	}
	return fmt.Errorf("db: write user: %w", err)
}
