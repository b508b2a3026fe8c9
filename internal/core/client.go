package core

import "context"

// Session is a live delivery channel owned by the transport layer.
type Session interface {
	IsOpen() bool
	Send(frame []byte) error
}

// SessionLookup resolves a user name to its live session, if any.
type SessionLookup interface {
	Lookup(name string) (Session, bool)
}

// MessageStore persists a draft and assigns it a unique ID.
type MessageStore interface {
	PersistMessage(ctx context.Context, draft Draft) (Message, error)
}

// Encoder serializes a message into a wire frame.
type Encoder func(Message) ([]byte, error)
