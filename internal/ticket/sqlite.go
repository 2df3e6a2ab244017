package ticket

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ticketd-io/ticketd/pkg/protocol"
)

// SQLiteStore implements Store using SQLite, for deployments that want
// tickets to survive a restart.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ticket store: open: %w", err)
	}

	// Enable WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ticket store: wal: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tickets (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'OPEN',
			resolution  TEXT,
			created_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
	`)
	if err != nil {
		return fmt.Errorf("ticket store: migrate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Create(data protocol.TicketCreate) (*protocol.Ticket, error) {
	t := &protocol.Ticket{
		ID:          uuid.NewString(),
		Title:       data.Title,
		Description: data.Description,
		Created:     time.Now().UTC(),
		Status:      protocol.TicketOpen,
	}
	_, err := s.db.Exec(
		`INSERT INTO tickets (id, title, description, status, resolution, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, string(t.Status), nil, t.Created.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("ticket store: create: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) Get(id string) (*protocol.Ticket, error) {
	row := s.db.QueryRow(
		`SELECT id, title, description, status, resolution, created_at FROM tickets WHERE id = ?`, id)
	t, err := scanTicket(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ticket store: get: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) List(status *protocol.TicketStatus) ([]*protocol.Ticket, error) {
	query := `SELECT id, title, description, status, resolution, created_at FROM tickets`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ticket store: list: %w", err)
	}
	defer rows.Close()

	tickets := []*protocol.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("ticket store: list scan: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (s *SQLiteStore) Update(id string, upd protocol.TicketUpdate) (*protocol.Ticket, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("ticket store: update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(
		`SELECT id, title, description, status, resolution, created_at FROM tickets WHERE id = ?`, id)
	existing, err := scanTicket(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ticket store: update: %w", err)
	}
	if err := checkResolution(existing, upd); err != nil {
		return nil, err
	}

	t := applyUpdate(existing, upd)
	var resolution any
	if t.Resolution != nil {
		resolution = *t.Resolution
	}
	_, err = tx.Exec(
		`UPDATE tickets SET title = ?, description = ?, status = ?, resolution = ? WHERE id = ?`,
		t.Title, t.Description, string(t.Status), resolution, id,
	)
	if err != nil {
		return nil, fmt.Errorf("ticket store: update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ticket store: update commit: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM tickets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("ticket store: delete: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DB returns the underlying database connection (for testing or direct access).
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTicket(row scannable) (*protocol.Ticket, error) {
	var t protocol.Ticket
	var status, createdAt string
	var resolution sql.NullString

	if err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &resolution, &createdAt); err != nil {
		return nil, err
	}

	t.Status = protocol.TicketStatus(status)
	if resolution.Valid {
		t.Resolution = &resolution.String
	}
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	t.Created = created
	return &t, nil
}
