// Package store persists subscribers and their message log in SQLite.
// A subscriber row is written at most once per identity; the message log
// is append-only.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	query "github.com/jcarloshn/difubot/internal/db"
	_ "github.com/mattn/go-sqlite3"
)

// Error kinds reported by the store. Callers classify with errors.Is.
var (
	ErrInit  = errors.New("store init failed")
	ErrWrite = errors.New("store write failed")
	ErrRead  = errors.New("store read failed")
)

// Subscriber is one row of the subscribers table. FirstMessage keeps the
// text of the very first inbound message and is never overwritten.
type Subscriber struct {
	Identity     string    `json:"identity"`
	Phone        string    `json:"phone"`
	FirstMessage string    `json:"first_message"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

// MessageEntry is one row of the message log.
type MessageEntry struct {
	Identity   string    `json:"identity"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the backing SQLite file. Init must be called
// before any other operation.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrInit, dsn, err)
	}
	return &Store{db: db}, nil
}

// Init creates both tables if they do not exist yet.
func (s *Store) Init() error {
	if _, err := s.db.Exec(query.CreateSubscribersTable); err != nil {
		return fmt.Errorf("%w: create subscribers table: %v", ErrInit, err)
	}
	if _, err := s.db.Exec(query.CreateMessagesTable); err != nil {
		return fmt.Errorf("%w: create messages table: %v", ErrInit, err)
	}
	return nil
}

// AddSubscriberIfAbsent inserts a subscriber row only when the identity is
// new. Re-inserting an existing identity is a no-op, so the first message
// and subscription timestamp keep their original values.
func (s *Store) AddSubscriberIfAbsent(identity, phone, firstMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(query.InsertSubscriberIfAbsent,
		identity, phone, firstMessage, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("%w: insert subscriber %s: %v", ErrWrite, identity, err)
	}
	return nil
}

// LogMessage appends one entry to the message log unconditionally.
func (s *Store) LogMessage(identity, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(query.InsertMessage, identity, text, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("%w: log message for %s: %v", ErrWrite, identity, err)
	}
	return nil
}

// ListSubscribers returns every subscriber in insertion order.
func (s *Store) ListSubscribers() ([]Subscriber, error) {
	rows, err := s.db.Query(query.SelectAllSubscribers)
	if err != nil {
		return nil, fmt.Errorf("%w: query subscribers: %v", ErrRead, err)
	}
	defer rows.Close()

	var subs []Subscriber
	for rows.Next() {
		var sub Subscriber
		var ts int64
		if err := rows.Scan(&sub.Identity, &sub.Phone, &sub.FirstMessage, &ts); err != nil {
			return nil, fmt.Errorf("%w: scan subscriber row: %v", ErrRead, err)
		}
		sub.SubscribedAt = time.Unix(ts, 0)
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration: %v", ErrRead, err)
	}
	return subs, nil
}

// Messages returns the logged messages of one subscriber, oldest first.
func (s *Store) Messages(identity string) ([]MessageEntry, error) {
	rows, err := s.db.Query(query.SelectMessagesBySubscriber, identity)
	if err != nil {
		return nil, fmt.Errorf("%w: query messages for %s: %v", ErrRead, identity, err)
	}
	defer rows.Close()

	var entries []MessageEntry
	for rows.Next() {
		var e MessageEntry
		var ts int64
		if err := rows.Scan(&e.Identity, &e.Text, &ts); err != nil {
			return nil, fmt.Errorf("%w: scan message row: %v", ErrRead, err)
		}
		e.ReceivedAt = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration: %v", ErrRead, err)
	}
	return entries, nil
}

// Counts returns the subscriber and message totals.
func (s *Store) Counts() (subscribers, messages int64, err error) {
	if err := s.db.QueryRow(query.CountSubscribers).Scan(&subscribers); err != nil {
		return 0, 0, fmt.Errorf("%w: count subscribers: %v", ErrRead, err)
	}
	if err := s.db.QueryRow(query.CountMessages).Scan(&messages); err != nil {
		return 0, 0, fmt.Errorf("%w: count messages: %v", ErrRead, err)
	}
	return subscribers, messages, nil
}

// Close releases the underlying connection. Safe to call on a nil or
// never-opened store, and safe to call more than once.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
