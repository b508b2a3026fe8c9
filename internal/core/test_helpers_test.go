package core

import (
	"context"
	"errors"
	"sync"
	"testing"
)

var errStoreDown = errors.New("store down")

type memStore struct {
	mu     sync.Mutex
	nextID int64
	fail   bool
	saved  []Message
}

func (s *memStore) PersistMessage(_ context.Context, draft Draft) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail {
		return Message{}, errStoreDown
	}
	s.nextID++
	msg := Message{
		ID:        s.nextID,
		Room:      draft.Room,
		Author:    draft.Author,
		Text:      draft.Text,
		Secret:    draft.Secret,
		CreatedAt: draft.CreatedAt,
	}
	s.saved = append(s.saved, msg)
	return msg, nil
}

func (s *memStore) setFail(fail bool) {
	s.mu.Lock()
	s.fail = fail
	s.mu.Unlock()
}

type fakeSession struct {
	mu     sync.Mutex
	closed bool
	err    error
	frames []string
}

func (s *fakeSession) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *fakeSession) Send(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, string(frame))
	return nil
}

func (s *fakeSession) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.frames))
	copy(out, s.frames)
	return out
}

type fakeSessions map[string]*fakeSession

func (f fakeSessions) Lookup(name string) (Session, bool) {
	s, ok := f[name]
	if !ok {
		return nil, false
	}
	return s, true
}

func textEncoder(msg Message) ([]byte, error) {
	return []byte(msg.Text), nil
}

func newTestHub(t *testing.T) (*Hub, *memStore) {
	t.Helper()

	st := &memStore{}
	return NewHub(st, textEncoder, nil), st
}

func names(users []User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Name)
	}
	return out
}
