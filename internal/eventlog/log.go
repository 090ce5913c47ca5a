package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
)

// Publisher forwards events to an external broker. Optional.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Log is the durable event log. Appends are written to SQLite, forwarded to
// the publisher when one is configured, and fanned out to live subscribers.
type Log struct {
	db        *sql.DB
	publisher Publisher

	mu sync.RWMutex // guards db

	subMu  sync.Mutex
	subs   map[uint64]chan Event
	nextID uint64
}

// NewLog opens (or creates) the event database at dbPath. Use ":memory:" in
// tests. publisher may be nil.
func NewLog(dbPath string, publisher Publisher) (*Log, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "open event database")
	}

	l := &Log{
		db:        db,
		publisher: publisher,
		subs:      make(map[uint64]chan Event),
	}
	if err := l.initialize(); err != nil {
		_ = db.Close()
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "initialize event schema")
	}
	return l, nil
}

func (l *Log) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		user TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		payload BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_events_user ON events(user);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Append records an event. The payload is marshaled to JSON. Publisher and
// subscriber delivery are best effort: a slow SSE client or unreachable
// broker never fails the append.
func (l *Log) Append(ctx context.Context, eventType, user string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "marshal event payload")
	}

	ev := Event{
		Type:      eventType,
		User:      user,
		Timestamp: time.Now(),
		Payload:   data,
	}

	l.mu.Lock()
	res, err := l.db.ExecContext(ctx,
		"INSERT INTO events (event_type, user, timestamp, payload) VALUES (?, ?, ?, ?)",
		ev.Type, ev.User, ev.Timestamp.Unix(), []byte(ev.Payload),
	)
	if err != nil {
		l.mu.Unlock()
		return apperrors.WrapError(err, apperrors.CategoryStorage, "insert event")
	}
	ev.ID, _ = res.LastInsertId()
	l.mu.Unlock()

	if l.publisher != nil {
		if err := l.publisher.Publish(ctx, ev); err != nil {
			slog.Warn("event publish failed", "type", ev.Type, "error", err)
		}
	}

	l.subMu.Lock()
	for _, ch := range l.subs {
		select {
		case ch <- ev:
		default: // subscriber buffer full, drop
		}
	}
	l.subMu.Unlock()

	return nil
}

// Recent returns the newest events for a user, newest first.
func (l *Log) Recent(ctx context.Context, user string, limit int) ([]Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows, err := l.db.QueryContext(ctx,
		"SELECT id, event_type, user, timestamp, payload FROM events WHERE user = ? ORDER BY id DESC LIMIT ?",
		user, limit,
	)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "query events")
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var ts int64
		var payload []byte
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.User, &ts, &payload); err != nil {
			return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "scan event")
		}
		ev.Timestamp = time.Unix(ts, 0)
		ev.Payload = payload
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "iterate events")
	}
	return events, nil
}

// Subscribe registers a live event channel with the given buffer. The
// returned func unsubscribes and closes the channel.
func (l *Log) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	l.subMu.Lock()
	l.nextID++
	id := l.nextID
	l.subs[id] = ch
	l.subMu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			l.subMu.Lock()
			delete(l.subs, id)
			l.subMu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}

// Close closes the publisher, all subscriber channels and the database.
func (l *Log) Close() error {
	if l.publisher != nil {
		_ = l.publisher.Close()
	}

	l.subMu.Lock()
	for id, ch := range l.subs {
		delete(l.subs, id)
		close(ch)
	}
	l.subMu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.Close()
}
