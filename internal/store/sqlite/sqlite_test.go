package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/rankchat-server/internal/core"
	"github.com/vovakirdan/rankchat-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "alice", "hash", 3)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.ID == 0 || created.Name != "alice" || created.Rank != 3 {
		t.Fatalf("unexpected user: %+v", created)
	}

	if _, err := s.CreateUser(ctx, "alice", "other", 1); err == nil {
		t.Fatalf("expected duplicate name to fail")
	}

	if err := s.UpdateUserRank(ctx, "alice", 7); err != nil {
		t.Fatalf("update rank: %v", err)
	}
	got, err := s.GetUserByName(ctx, "alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Rank != 7 || got.CredentialHash != "hash" {
		t.Fatalf("unexpected user after update: %+v", got)
	}

	if _, err := s.GetUserByName(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateUserRank(ctx, "nobody", 1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveMessageAssignsIncreasingIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &store.Message{Room: "general", Author: "bob", AuthorRank: 5, Body: "one", Secret: true, CreatedAt: time.Now().UTC()}
	second := &store.Message{Room: "general", Author: "alice", AuthorRank: 1, Body: "two", CreatedAt: time.Now().UTC()}
	other := &store.Message{Room: "random", Author: "alice", AuthorRank: 1, Body: "three", CreatedAt: time.Now().UTC()}

	for _, m := range []*store.Message{first, second, other} {
		if err := s.SaveMessage(ctx, m); err != nil {
			t.Fatalf("save message: %v", err)
		}
	}

	if !(first.ID < second.ID && second.ID < other.ID) {
		t.Fatalf("ids not increasing: %d %d %d", first.ID, second.ID, other.ID)
	}
	if first.RoomID != second.RoomID || first.RoomID == other.RoomID {
		t.Fatalf("unexpected room ids: %d %d %d", first.RoomID, second.RoomID, other.RoomID)
	}

	got, err := s.GetMessage(ctx, first.ID)
	if err != nil {
		t.Fatalf("get message: %v", err)
	}
	if got.Room != "general" || got.Author != "bob" || got.AuthorRank != 5 || !got.Secret || got.Body != "one" {
		t.Fatalf("unexpected message: %+v", got)
	}

	counts, err := s.CountMessages(ctx)
	if err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if counts["general"] != 2 || counts["random"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestPersisterFeedsHub(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	hub := core.NewHub(store.NewPersister(s), func(m core.Message) ([]byte, error) {
		return []byte(m.Text), nil
	}, nil)

	bob := core.User{Name: "bob", Rank: 5}
	msg, err := hub.Report(ctx, bob, "general", "at ease", true, nil)
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	stored, err := s.GetMessage(ctx, msg.ID)
	if err != nil {
		t.Fatalf("get message: %v", err)
	}
	if stored.Body != "at ease" || !stored.Secret || stored.AuthorRank != 5 {
		t.Fatalf("unexpected stored message: %+v", stored)
	}

	counts, err := s.CountMessages(ctx)
	if err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if counts["general"] != hub.RoomMessageCounts()["general"] {
		t.Fatalf("store and ledger disagree: %v vs %v", counts, hub.RoomMessageCounts())
	}
}
