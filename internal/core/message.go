package core

import "time"

// User is an authenticated chat participant. Rank is resolved outside the core.
type User struct {
	Name string
	Rank int
}

// Draft is a message that has not been persisted yet.
type Draft struct {
	Room      string
	Author    User
	Text      string
	Secret    bool
	CreatedAt time.Time
}

// Message is the domain model for a persisted chat message.
type Message struct {
	ID        int64
	Room      string
	Author    User
	Text      string
	Secret    bool
	CreatedAt time.Time
}

// Receipt pairs a message with the receivers it was computed for.
type Receipt struct {
	Message   Message
	Receivers []User
}

// Visible reports whether user may receive msg.
// Secret messages only reach users ranked at or above the author.
func Visible(msg Message, user User) bool {
	if !msg.Secret {
		return true
	}
	return user.Rank >= msg.Author.Rank
}

func joinText(user User, room string) string {
	return "User " + user.Name + " subscribed to the room " + room
}
