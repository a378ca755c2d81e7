// Package reviewlog keeps an append-only history of applied ratings in a
// SQLite database. Losing a log row never affects scheduling; the phrase
// store remains the source of truth for the schedule itself.
package reviewlog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the sqlite driver

	"github.com/fennar/vokab/internal/domain"
)

// Log wraps the SQLite connection holding the review history.
type Log struct {
	conn *sql.DB
}

// Entry is a single recorded review event.
type Entry struct {
	ID         string
	PhraseID   string
	Rating     domain.Rating
	ReviewedAt time.Time
}

// Open creates the database connection and ensures the schema exists.
func Open(dsn string) (*Log, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open review log: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to review log: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply review log schema: %w", err)
	}

	return &Log{conn: db}, nil
}

// Close closes the database connection.
func (l *Log) Close() error {
	return l.conn.Close()
}

// Append records one applied rating.
func (l *Log) Append(phraseID string, rating domain.Rating, reviewedAt time.Time) error {
	_, err := l.conn.Exec(`
		INSERT INTO review_logs (id, phrase_id, rating, reviewed_at)
		VALUES (?, ?, ?, ?)
	`,
		uuid.NewString(),
		phraseID,
		int(rating),
		reviewedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append review for phrase %s: %w", phraseID, err)
	}
	return nil
}

// TotalReviews returns the number of recorded review events.
func (l *Log) TotalReviews() (int, error) {
	var count int
	if err := l.conn.QueryRow(`SELECT COUNT(*) FROM review_logs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

// CountByPhrase returns the number of recorded reviews for one phrase.
func (l *Log) CountByPhrase(phraseID string) (int, error) {
	var count int
	err := l.conn.QueryRow(`
		SELECT COUNT(*) FROM review_logs WHERE phrase_id = ?
	`, phraseID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews for phrase %s: %w", phraseID, err)
	}
	return count, nil
}

// History returns the recorded reviews for a phrase, oldest first.
func (l *Log) History(phraseID string) ([]Entry, error) {
	rows, err := l.conn.Query(`
		SELECT id, phrase_id, rating, reviewed_at
		FROM review_logs WHERE phrase_id = ?
		ORDER BY reviewed_at ASC
	`, phraseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for phrase %s: %w", phraseID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var rating int
		if err := rows.Scan(&e.ID, &e.PhraseID, &rating, &e.ReviewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		e.Rating = domain.Rating(rating)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read review rows: %w", err)
	}
	return entries, nil
}
