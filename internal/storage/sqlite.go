package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	_ "modernc.org/sqlite"

	"github.com/5kresetlol-glitch/messenger-server/internal/model/chat"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	sender    TEXT NOT NULL,
	text      TEXT NOT NULL,
	timestamp TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
`

// Config configures the sqlite-backed store. URL is a path or DSN accepted
// by the sqlite driver.
type Config struct {
	URL         string
	BusyTimeout time.Duration // 0 means driver default
}

type sqliteStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open connects to the database and applies the schema idempotently.
// A missing URL is a configuration error; callers treat it as fatal.
func Open(cfg Config, log zerolog.Logger) (MessageStore, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrURLRequired
	}

	db, err := sql.Open("sqlite", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Debug().Msg("message store ready")
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *sqliteStore) Append(ctx context.Context, sender, text string) (chat.Message, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages(sender, text, timestamp) VALUES(?,?,?)`,
		sender, text, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return chat.Message{}, fmt.Errorf("append message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return chat.Message{}, fmt.Errorf("append message id: %w", err)
	}
	return chat.Message{ID: id, Sender: sender, Text: text, CreatedAt: now}, nil
}

// RecentHistory fetches the newest rows first, then reverses so callers see
// chronological ascending order.
func (s *sqliteStore) RecentHistory(ctx context.Context, limit int) ([]chat.Message, error) {
	if limit <= 0 {
		return []chat.Message{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sender, text, timestamp FROM messages ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	messages := make([]chat.Message, 0, limit)
	for rows.Next() {
		var (
			m  chat.Message
			ts string
		)
		if err := rows.Scan(&m.ID, &m.Sender, &m.Text, &ts); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		m.CreatedAt, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse history timestamp: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return lo.Reverse(messages), nil
}

func (s *sqliteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

