package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Users wraps the users table. New accounts get bcrypt hashes; rows imported
// from the legacy store carry hex SHA-256 hashes and still verify.
type Users struct {
	db *sql.DB
}

func NewUsers(db *sql.DB) *Users { return &Users{db: db} }

func (u *Users) Create(ctx context.Context, username, password string) error {
	var exists int
	err := u.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username=$1`, username).Scan(&exists)
	if err == nil {
		return ErrUserExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}
	_, err = u.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES ($1,$2,$3)`,
		username, string(hash), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (u *Users) Verify(ctx context.Context, username, password string) error {
	var stored string
	err := u.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE username=$1`, username).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if strings.HasPrefix(stored, "$2") {
		if bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) != nil {
			return ErrInvalidCredentials
		}
		return nil
	}
	// legacy row: hex SHA-256
	sum := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(stored)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}
