package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/rankchat-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteStore)(nil)

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		return Migrate(context.Background(), db)
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema without migrations.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ==== UserStore implementation ====

// CreateUser creates a new user with a hashed credential and a rank.
func (s *SQLiteStore) CreateUser(ctx context.Context, name, credentialHash string, rank int) (*store.User, error) {
	query := `
		INSERT INTO users (name, credential_hash, rank)
		VALUES (?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, name, credentialHash, rank); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return s.GetUserByName(ctx, name)
}

// GetUserByName retrieves a user by name.
func (s *SQLiteStore) GetUserByName(ctx context.Context, name string) (*store.User, error) {
	query := `
		SELECT id, name, credential_hash, rank, created_at
		FROM users
		WHERE name = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&user.ID,
		&user.Name,
		&user.CredentialHash,
		&user.Rank,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// UpdateUserRank changes the rank of an existing user.
func (s *SQLiteStore) UpdateUserRank(ctx context.Context, name string, rank int) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET rank = ? WHERE name = ?`, rank, name)
	if err != nil {
		return fmt.Errorf("update rank: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %q: %w", name, store.ErrNotFound)
	}
	return nil
}

// ==== Rooms ====

// ensureRoom returns the room row for name, inserting it on first use.
func ensureRoom(ctx context.Context, q querier, name string) (*store.Room, error) {
	if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO rooms (name) VALUES (?)`, name); err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	var room store.Room
	err := q.QueryRowContext(ctx, `SELECT id, name, created_at FROM rooms WHERE name = ?`, name).Scan(
		&room.ID,
		&room.Name,
		&room.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("query room: %w", err)
	}
	return &room, nil
}

// ==== MessageStore implementation ====

// SaveMessage persists a message and sets its ID and RoomID.
// The room is created in the same transaction if it does not exist yet.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	room, err := ensureRoom(ctx, tx, msg.Room)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO messages (room_id, author, author_rank, text, secret, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query, room.ID, msg.Author, msg.AuthorRank, msg.Body, msg.Secret, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	msg.ID = id
	msg.RoomID = room.ID
	return nil
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id int64) (*store.Message, error) {
	query := `
		SELECT m.id, m.room_id, r.name, m.author, m.author_rank, m.text, m.secret, m.created_at
		FROM messages m
		JOIN rooms r ON r.id = m.room_id
		WHERE m.id = ?
	`
	var msg store.Message
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID,
		&msg.RoomID,
		&msg.Room,
		&msg.Author,
		&msg.AuthorRank,
		&msg.Body,
		&msg.Secret,
		&msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}

	return &msg, nil
}

// CountMessages returns the number of stored messages per room name.
func (s *SQLiteStore) CountMessages(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT r.name, COUNT(m.id)
		FROM rooms r
		LEFT JOIN messages m ON m.room_id = r.id
		GROUP BY r.name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}

	return counts, nil
}
