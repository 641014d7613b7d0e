// Package feedback records Good/Neutral/Bad ratings of assistant answers in
// a local SQLite database.
package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Rating is the user's verdict on an answer.
type Rating string

const (
	RatingGood    Rating = "Good"
	RatingNeutral Rating = "Neutral"
	RatingBad     Rating = "Bad"
)

// Ratings lists the accepted ratings in display order.
var Ratings = []Rating{RatingGood, RatingNeutral, RatingBad}

// ErrInvalidRating is returned for anything other than Good, Neutral or Bad.
var ErrInvalidRating = errors.New("invalid rating")

// ParseRating accepts a rating name in any case.
func ParseRating(s string) (Rating, error) {
	for _, r := range Ratings {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w %q: want one of Good, Neutral, Bad", ErrInvalidRating, s)
}

// Acknowledgement is the text shown after a rating is recorded.
func Acknowledgement(r Rating) string {
	return "Thank you for your feedback! You rated it as: " + string(r)
}

// Entry is one stored rating.
type Entry struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Rating    Rating    `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Counts tallies ratings.
type Counts map[Rating]int

const schema = `
CREATE TABLE IF NOT EXISTS feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL DEFAULT '',
	rating TEXT NOT NULL,
	comment TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at);
`

// Store persists feedback entries.
type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the feedback database at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create feedback dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open feedback db: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil && path != ":memory:" {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create feedback schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Submit records a rating and returns the stored entry.
func (s *Store) Submit(ctx context.Context, sessionID string, rating Rating, comment string) (Entry, error) {
	if _, err := ParseRating(string(rating)); err != nil {
		return Entry{}, err
	}

	e := Entry{
		SessionID: sessionID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (session_id, rating, comment, created_at) VALUES (?, ?, ?, ?)`,
		e.SessionID, string(e.Rating), e.Comment, e.CreatedAt.UnixNano())
	if err != nil {
		return Entry{}, fmt.Errorf("insert feedback: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return Entry{}, fmt.Errorf("feedback id: %w", err)
	}
	return e, nil
}

// List returns the newest entries first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, rating, comment, created_at FROM feedback ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e      Entry
			rating string
			nanos  int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &rating, &e.Comment, &nanos); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		e.Rating = Rating(rating)
		e.CreatedAt = time.Unix(0, nanos).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Counts tallies all entries by rating. Every rating is present.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT rating, COUNT(*) FROM feedback GROUP BY rating`)
	if err != nil {
		return nil, fmt.Errorf("count feedback: %w", err)
	}
	defer rows.Close()

	counts := Counts{}
	for _, r := range Ratings {
		counts[r] = 0
	}
	for rows.Next() {
		var (
			rating string
			n      int
		)
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[Rating(rating)] = n
	}
	return counts, rows.Err()
}
