package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryBindLookupUnbind(t *testing.T) {
	req := require.New(t)
	r := NewRegistry(4)

	s := r.Bind("alice")
	got, ok := r.Lookup("alice")
	req.True(ok)
	req.True(got.IsOpen())
	req.Equal(1, r.Len())

	r.Unbind(s)
	_, ok = r.Lookup("alice")
	req.False(ok)
	req.False(s.IsOpen())
	req.Zero(r.Len())
}

func TestRegistryNewestSessionWins(t *testing.T) {
	req := require.New(t)
	r := NewRegistry(4)

	first := r.Bind("alice")
	second := r.Bind("alice")
	req.False(first.IsOpen())

	r.Unbind(first)
	got, ok := r.Lookup("alice")
	req.True(ok)
	req.Same(second, got)
}

func TestSessionSend(t *testing.T) {
	req := require.New(t)
	s := New("bob", 1)

	req.NoError(s.Send([]byte("one")))
	req.ErrorIs(s.Send([]byte("two")), ErrSlowConsumer)
	req.Equal([]byte("one"), <-s.Out())

	s.Close()
	s.Close()
	req.ErrorIs(s.Send([]byte("three")), ErrSessionClosed)

	_, open := <-s.Out()
	req.False(open)
}
