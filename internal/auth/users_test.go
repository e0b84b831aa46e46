package auth_test

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"testing"

	_ "modernc.org/sqlite" // driver for "sqlite"

	"github.com/medqbank/qbank/internal/auth"
	"github.com/medqbank/qbank/internal/db"
)

func openTestDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	dbh, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	if err := db.EnsureSchema(context.Background(), dbh); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return dbh
}

func TestUsers_CreateAndVerify(t *testing.T) {
	users := auth.NewUsers(openTestDB(t, "users_create.db"))
	ctx := context.Background()

	if err := users.Create(ctx, "alice", "hunter2"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := users.Create(ctx, "alice", "other"); !errors.Is(err, auth.ErrUserExists) {
		t.Errorf("duplicate Create err = %v, want ErrUserExists", err)
	}
	if err := users.Verify(ctx, "alice", "hunter2"); err != nil {
		t.Errorf("Verify: %v", err)
	}
	if err := users.Verify(ctx, "alice", "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("bad password err = %v, want ErrInvalidCredentials", err)
	}
	if err := users.Verify(ctx, "nobody", "x"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v, want ErrInvalidCredentials", err)
	}
}

func TestUsers_VerifyLegacySHA256Row(t *testing.T) {
	dbh := openTestDB(t, "users_legacy.db")
	users := auth.NewUsers(dbh)
	ctx := context.Background()

	sum := sha256.Sum256([]byte("hunter2"))
	if _, err := dbh.Exec(
		`INSERT INTO users (username, password_hash, created_at) VALUES ('bob', $1, '2023-05-01')`,
		hex.EncodeToString(sum[:])); err != nil {
		t.Fatalf("seed legacy row: %v", err)
	}
	if err := users.Verify(ctx, "bob", "hunter2"); err != nil {
		t.Errorf("legacy hash should verify: %v", err)
	}
	if err := users.Verify(ctx, "bob", "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("legacy wrong password err = %v, want ErrInvalidCredentials", err)
	}
}

func TestJWT_IssueParse(t *testing.T) {
	svc := auth.NewAuthService("test-secret")
	tok, err := svc.IssueJWT("alice")
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}
	c, err := svc.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Sub != "alice" {
		t.Errorf("sub = %q, want alice", c.Sub)
	}
	if _, err := auth.NewAuthService("other-secret").Parse(tok); err == nil {
		t.Error("token must not verify under a different secret")
	}
}
