package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBroadcasterReport(t *testing.T) {
	req := require.New(t)
	b := NewBroadcaster(textEncoder, nil)

	sessions := fakeSessions{
		"alice": {},
		"bob":   {err: errors.New("slow consumer")},
		"carol": {closed: true},
	}
	dave := User{Name: "dave"}
	msg := Message{ID: 1, Room: "general", Author: alice, Text: "ping"}

	report := b.Deliver(context.Background(), msg, []User{alice, bob, carol, dave}, sessions)

	req.Equal([]string{"alice"}, report.Delivered)
	req.Equal([]string{"bob"}, report.Failed)
	req.Equal([]string{"carol", "dave"}, report.Offline)
	req.Equal([]string{"ping"}, sessions["alice"].received())
}

func TestBroadcasterEncodeFailureIsIsolated(t *testing.T) {
	req := require.New(t)
	b := NewBroadcaster(func(Message) ([]byte, error) {
		return nil, errors.New("cannot encode")
	}, nil)

	sessions := fakeSessions{"alice": {}, "bob": {}}
	msg := Message{ID: 1, Room: "general", Author: alice}

	report := b.Deliver(context.Background(), msg, []User{alice, bob}, sessions)
	req.Equal([]string{"alice", "bob"}, report.Failed)
	req.Empty(report.Delivered)
}

func TestBroadcasterWithoutSessions(t *testing.T) {
	req := require.New(t)
	b := NewBroadcaster(textEncoder, nil)

	report := b.Deliver(context.Background(), Message{ID: 1}, []User{alice}, nil)
	req.Equal([]string{"alice"}, report.Offline)
}
