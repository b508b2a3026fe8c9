package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/rankchat-server/internal/store/sqlite"
)

func newTestAuthService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return NewService(st, jwtConfig)
}

func TestCreateUser_Validation(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, " a ", "hash", 1); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, "alice", "", 1); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, " alice ", "hash", 1); err != nil {
		t.Fatalf("expected user creation, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, "alice", "hash", 2); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestResolveRank(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, "bob", "d1e8a7", 5); err != nil {
		t.Fatalf("create user: %v", err)
	}

	rank, ok, err := svc.ResolveRank(ctx, "bob", "d1e8a7")
	if err != nil || !ok || rank != 5 {
		t.Fatalf("expected rank 5, got rank=%d ok=%v err=%v", rank, ok, err)
	}

	if _, ok, err := svc.ResolveRank(ctx, "bob", "wrong"); ok || err != nil {
		t.Fatalf("expected unresolved rank, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := svc.ResolveRank(ctx, "ghost", "d1e8a7"); ok || err != nil {
		t.Fatalf("expected unresolved rank for unknown user, got ok=%v err=%v", ok, err)
	}
}

func TestSaluteIssuesTokenWithRank(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, "carol", "c0ffee", 7); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, _, err := svc.Salute(ctx, "carol", "tea"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	id, token, err := svc.Salute(ctx, "carol", "c0ffee")
	if err != nil {
		t.Fatalf("salute: %v", err)
	}
	if id.Rank != 7 || RankName(id.Rank) != "General" {
		t.Fatalf("unexpected identity: %+v", id)
	}

	got, err := svc.Authenticate(token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got != id {
		t.Fatalf("expected %+v, got %+v", id, got)
	}

	if _, err := svc.Authenticate("garbage"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRankName(t *testing.T) {
	if RankName(0) != "Private" || RankName(MaxRank) != "General" {
		t.Fatalf("unexpected rank ladder")
	}
	if RankName(42) != "Rank 42" || RankName(-1) != "Rank -1" {
		t.Fatalf("unexpected fallback names")
	}
}
