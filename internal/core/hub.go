package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/rankchat-server/internal/metrics"
)

// Hub is the single entry point into the room, ledger and broadcast engine.
//
// All state changes for one room run under that room's lock: membership check,
// membership change, persistence, recording and receiver computation. Delivery
// happens after the lock is released.
type Hub struct {
	store       MessageStore
	directory   *Directory
	ledger      *Ledger
	broadcaster *Broadcaster
	log         *zerolog.Logger
	now         func() time.Time

	locksMu   sync.Mutex
	roomLocks map[string]*sync.Mutex
}

// NewHub creates a new chat hub instance.
func NewHub(st MessageStore, encode Encoder, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		store:       st,
		directory:   NewDirectory(),
		ledger:      NewLedger(),
		broadcaster: NewBroadcaster(encode, logger),
		log:         logger,
		now:         time.Now,
		roomLocks:   make(map[string]*sync.Mutex),
	}
}

// Subscribe adds user to room. The first subscription posts a join message
// to the room; repeated subscriptions do nothing.
func (h *Hub) Subscribe(ctx context.Context, room string, user User, sessions SessionLookup) error {
	room = normalizeRoom(room)
	if err := validate(room, user); err != nil {
		return err
	}

	lock := h.roomLock(room)
	lock.Lock()
	msg, receivers, joined, err := h.subscribeLocked(ctx, room, user)
	lock.Unlock()
	if err != nil || !joined {
		return err
	}

	h.deliver(ctx, msg, receivers, sessions)
	return nil
}

// Report subscribes user to room if needed, then persists, records and
// broadcasts the message. Delivery gaps never turn into an error.
func (h *Hub) Report(ctx context.Context, user User, room, text string, secret bool, sessions SessionLookup) (Message, error) {
	room = normalizeRoom(room)
	if err := validate(room, user); err != nil {
		return Message{}, err
	}

	lock := h.roomLock(room)
	lock.Lock()

	joinMsg, joinReceivers, joined, err := h.subscribeLocked(ctx, room, user)
	if err != nil {
		lock.Unlock()
		return Message{}, err
	}

	msg, receivers, err := h.persistAndRecord(ctx, Draft{
		Room:      room,
		Author:    user,
		Text:      text,
		Secret:    secret,
		CreatedAt: h.now(),
	}, "post")
	lock.Unlock()

	if joined {
		h.deliver(ctx, joinMsg, joinReceivers, sessions)
	}
	if err != nil {
		return Message{}, err
	}

	h.deliver(ctx, msg, receivers, sessions)
	return msg, nil
}

// Receivers exports every recorded message with its receiver snapshot.
func (h *Hub) Receivers() []Receipt {
	return h.ledger.Receipts()
}

// ReceiversOf returns the receiver snapshot of one message.
func (h *Hub) ReceiversOf(id int64) ([]User, bool) {
	return h.ledger.ReceiversOf(id)
}

// RoomMessageCounts returns how many messages each room has recorded.
func (h *Hub) RoomMessageCounts() map[string]int {
	return h.ledger.CountsByRoom()
}

// Members returns the current membership of room.
func (h *Hub) Members(room string) []User {
	return h.directory.MembersOf(normalizeRoom(room))
}

// IsMember reports whether name is subscribed to room.
func (h *Hub) IsMember(room, name string) bool {
	return h.directory.IsMember(normalizeRoom(room), name)
}

// Rooms lists every room referenced so far.
func (h *Hub) Rooms() []string {
	return h.directory.Rooms()
}

// subscribeLocked must be called with the room lock held. An existing member
// only gets its rank refreshed.
func (h *Hub) subscribeLocked(ctx context.Context, room string, user User) (Message, []User, bool, error) {
	if h.directory.EnsureSubscribed(room, user) {
		return Message{}, nil, false, nil
	}

	msg, receivers, err := h.persistAndRecord(ctx, Draft{
		Room:      room,
		Author:    user,
		Text:      joinText(user, room),
		CreatedAt: h.now(),
	}, "join")
	if err != nil {
		// Without its join message the membership would never produce one.
		h.directory.remove(room, user.Name)
		return Message{}, nil, false, err
	}

	h.log.Debug().Str("room", room).Str("user", user.Name).Msg("user subscribed")
	return msg, receivers, true, nil
}

// persistAndRecord must be called with the room lock held.
func (h *Hub) persistAndRecord(ctx context.Context, draft Draft, kind string) (Message, []User, error) {
	msg, err := h.store.PersistMessage(ctx, draft)
	if err != nil {
		metrics.PersistenceFailures.Inc()
		h.log.Error().Err(err).Str("room", draft.Room).Str("user", draft.Author.Name).Str("kind", kind).Msg("persist message")
		return Message{}, nil, persistenceError(err)
	}

	receivers, err := h.ledger.Record(msg, h.directory.MembersOf(draft.Room))
	if err != nil {
		h.log.Error().Err(err).Int64("message_id", msg.ID).Msg("record message")
		return Message{}, nil, err
	}

	metrics.MessagesRecorded.WithLabelValues(kind).Inc()
	h.log.Debug().
		Int64("message_id", msg.ID).
		Str("room", msg.Room).
		Str("user", msg.Author.Name).
		Bool("secret", msg.Secret).
		Int("receivers", len(receivers)).
		Msg("message recorded")
	return msg, receivers, nil
}

func (h *Hub) deliver(ctx context.Context, msg Message, receivers []User, sessions SessionLookup) {
	// The caller going away must not cut delivery to everyone else.
	report := h.broadcaster.Deliver(context.WithoutCancel(ctx), msg, receivers, sessions)
	if len(report.Failed) > 0 {
		h.log.Warn().
			Int64("message_id", msg.ID).
			Strs("failed", report.Failed).
			Int("delivered", len(report.Delivered)).
			Msg("broadcast incomplete")
	}
}

func (h *Hub) roomLock(room string) *sync.Mutex {
	h.locksMu.Lock()
	defer h.locksMu.Unlock()

	l, ok := h.roomLocks[room]
	if !ok {
		l = &sync.Mutex{}
		h.roomLocks[room] = l
	}
	return l
}

// normalizeRoom maps every spelling of a room name that differs only in
// surrounding whitespace to the same room.
func normalizeRoom(room string) string {
	return strings.TrimSpace(room)
}

func validate(room string, user User) error {
	if room == "" {
		return fmt.Errorf("%w: room is required", ErrBadRequest)
	}
	if strings.TrimSpace(user.Name) == "" {
		return fmt.Errorf("%w: user is required", ErrBadRequest)
	}
	return nil
}
