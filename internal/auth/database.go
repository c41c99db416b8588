package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"feedmark/internal/core"
)

// Common errors
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateEmail = errors.New("duplicate email")
)

// UserModel handles database operations for users
type UserModel struct {
	db *core.Database
}

// NewUserModel creates a new user model
func NewUserModel(db *core.Database) *UserModel {
	return &UserModel{db: db}
}

// Insert creates a new user
func (m *UserModel) Insert(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (name, email, password_hash, activated, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`

	ctx, cancel := m.db.WithTimeout(ctx)
	defer cancel()

	createdAt := time.Now().UTC()
	err := m.db.QueryRowContext(ctx, query, user.Name, user.Email, user.Password.hash, user.Activated, createdAt).
		Scan(&user.ID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return ErrDuplicateEmail
		}
		return err
	}

	user.CreatedAt = createdAt
	return nil
}

// GetByEmail retrieves a user by email
func (m *UserModel) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, created_at, name, email, password_hash, activated
		FROM users
		WHERE email = ?
	`

	ctx, cancel := m.db.WithTimeout(ctx)
	defer cancel()

	return scanUser(m.db.QueryRowContext(ctx, query, email))
}

// GetForToken retrieves the owner of an unexpired token
func (m *UserModel) GetForToken(ctx context.Context, tokenScope, tokenPlaintext string) (*User, error) {
	query := `
		SELECT users.id, users.created_at, users.name, users.email, users.password_hash, users.activated
		FROM users
		INNER JOIN tokens ON users.id = tokens.user_id
		WHERE tokens.hash = ? AND tokens.scope = ? AND tokens.expiry > ?
	`

	ctx, cancel := m.db.WithTimeout(ctx)
	defer cancel()

	return scanUser(m.db.QueryRowContext(ctx, query, hashToken(tokenPlaintext), tokenScope, time.Now().UTC()))
}

func scanUser(row *sql.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.CreatedAt,
		&user.Name,
		&user.Email,
		&user.Password.hash,
		&user.Activated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// TokenModel handles database operations for tokens
type TokenModel struct {
	db *core.Database
}

// NewTokenModel creates a new token model
func NewTokenModel(db *core.Database) *TokenModel {
	return &TokenModel{db: db}
}

// New creates and stores a new token
func (m *TokenModel) New(ctx context.Context, userID int, ttl time.Duration, scope string) (*Token, error) {
	token, err := generateToken(userID, ttl, scope)
	if err != nil {
		return nil, err
	}

	_, err = m.db.ExecWithTimeout(ctx,
		`INSERT INTO tokens (hash, user_id, expiry, scope) VALUES (?, ?, ?, ?)`,
		token.Hash, token.UserID, token.Expiry, token.Scope)
	return token, err
}

// DeleteAllForUser deletes all tokens for a user and scope
func (m *TokenModel) DeleteAllForUser(ctx context.Context, scope string, userID int) error {
	_, err := m.db.ExecWithTimeout(ctx, `DELETE FROM tokens WHERE scope = ? AND user_id = ?`, scope, userID)
	return err
}

// Migrations owns the identity tables. Reader tables reference users(id).
var Migrations = []core.Migration{
	{
		Version:     1,
		Name:        "create_auth_tables",
		Description: "Create users and tokens tables",
		UpSQL: `
			CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				email TEXT UNIQUE NOT NULL,
				password_hash BLOB NOT NULL,
				activated BOOLEAN NOT NULL DEFAULT 1,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);

			CREATE TABLE IF NOT EXISTS tokens (
				hash BLOB PRIMARY KEY,
				user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				expiry DATETIME NOT NULL,
				scope TEXT NOT NULL
			);
		`,
		DownSQL: `
			DROP TABLE IF EXISTS tokens;
			DROP TABLE IF EXISTS users;
		`,
	},
}
