package store

import (
	"context"
	"fmt"

	"github.com/vovakirdan/rankchat-server/internal/core"
)

// Persister adapts a MessageStore to the core message store contract.
type Persister struct {
	messages MessageStore
}

// NewPersister wraps ms so the hub can persist drafts through it.
func NewPersister(ms MessageStore) *Persister {
	return &Persister{messages: ms}
}

// PersistMessage stores draft and returns the message with its assigned ID.
func (p *Persister) PersistMessage(ctx context.Context, draft core.Draft) (core.Message, error) {
	rec := &Message{
		Room:       draft.Room,
		Author:     draft.Author.Name,
		AuthorRank: draft.Author.Rank,
		Body:       draft.Text,
		Secret:     draft.Secret,
		CreatedAt:  draft.CreatedAt.UTC(),
	}
	if err := p.messages.SaveMessage(ctx, rec); err != nil {
		return core.Message{}, fmt.Errorf("save message: %w", err)
	}
	if rec.ID == 0 {
		return core.Message{}, fmt.Errorf("save message: no id assigned")
	}

	return core.Message{
		ID:        rec.ID,
		Room:      rec.Room,
		Author:    draft.Author,
		Text:      rec.Body,
		Secret:    rec.Secret,
		CreatedAt: rec.CreatedAt,
	}, nil
}
