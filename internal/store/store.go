package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a ranked user in the system.
type User struct {
	ID             int64
	Name           string
	CredentialHash string
	Rank           int
	CreatedAt      time.Time
}

// Room represents a chat room. Rooms are created on first use.
type Room struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Message represents a persisted chat message.
type Message struct {
	ID         int64
	RoomID     int64
	Room       string
	Author     string
	AuthorRank int
	Body       string
	Secret     bool
	CreatedAt  time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with a hashed credential and a rank.
	CreateUser(ctx context.Context, name, credentialHash string, rank int) (*User, error)

	// GetUserByName retrieves a user by name.
	GetUserByName(ctx context.Context, name string) (*User, error)

	// UpdateUserRank changes the rank of an existing user.
	UpdateUserRank(ctx context.Context, name string, rank int) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and sets its ID and RoomID.
	SaveMessage(ctx context.Context, msg *Message) error

	// GetMessage retrieves a message by ID.
	GetMessage(ctx context.Context, id int64) (*Message, error)

	// CountMessages returns the number of stored messages per room name.
	CountMessages(ctx context.Context) (map[string]int, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
