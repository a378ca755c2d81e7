// Package phrasestore persists the phrase collection in a single JSON
// file. Every mutation is a full read-modify-write: the file is re-read
// under a cross-process file lock, changed in memory, written to a
// temporary file and atomically renamed over the old one. A crash
// mid-write leaves the previous valid file intact.
package phrasestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/fennar/vokab/internal/domain"
)

// Store is the durable phrase collection. Safe for concurrent use within
// one process; concurrent processes sharing the file are serialized by
// the file lock, last completed replace wins.
type Store struct {
	path   string
	flk    *flock.Flock
	logger *slog.Logger

	mu      sync.RWMutex
	phrases map[string]domain.Phrase
}

// document is the on-disk layout of the store file.
type document struct {
	Phrases []domain.Phrase `json:"phrases"`
}

// Open loads the store file at path, creating parent directories as
// needed. A missing file is an empty store; an unparseable file returns
// ErrCorruptStore rather than silently starting over.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	s := &Store{
		path:   path,
		flk:    flock.New(path + ".lock"),
		logger: logger,
	}

	if err := s.flk.Lock(); err != nil {
		return nil, fmt.Errorf("lock store file: %w", err)
	}
	defer s.flk.Unlock()

	phrases, err := readFile(path)
	if err != nil {
		return nil, err
	}
	s.phrases = phrases
	logger.Info("phrase store opened", "path", path, "phrases", len(phrases))
	return s, nil
}

// Insert creates a new phrase with a fresh schedule (due immediately),
// persists it and returns it. The text is stored trimmed with inner
// whitespace collapsed; case and diacritics are preserved.
func (s *Store) Insert(text string, now time.Time) (domain.Phrase, error) {
	phrase := domain.Phrase{
		ID:        uuid.NewString(),
		Text:      strings.Join(strings.Fields(text), " "),
		CreatedAt: now,
		Schedule:  domain.NewSchedule(now),
	}

	err := s.mutate(func(phrases map[string]domain.Phrase) error {
		phrases[phrase.ID] = phrase
		return nil
	})
	if err != nil {
		return domain.Phrase{}, err
	}

	s.logger.Debug("phrase inserted", "id", phrase.ID, "text", phrase.Text)
	return phrase, nil
}

// Get returns the phrase with the given id or ErrNotFound.
func (s *Store) Get(id string) (domain.Phrase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	phrase, ok := s.phrases[id]
	if !ok {
		return domain.Phrase{}, fmt.Errorf("get %s: %w", id, domain.ErrNotFound)
	}
	return phrase, nil
}

// UpdateSchedule replaces the schedule state of a phrase. Returns
// ErrNotFound when the id is absent; a stale id from a cached review
// batch must surface, not vanish.
func (s *Store) UpdateSchedule(id string, schedule domain.ScheduleState) error {
	err := s.mutate(func(phrases map[string]domain.Phrase) error {
		phrase, ok := phrases[id]
		if !ok {
			return fmt.Errorf("update schedule %s: %w", id, domain.ErrNotFound)
		}
		phrase.Schedule = schedule
		phrases[id] = phrase
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("schedule updated", "id", id, "due_at", schedule.DueAt)
	return nil
}

// ListDue returns up to limit phrases with due_at <= now, oldest-overdue
// first, ties broken by id. An empty result is normal, not an error.
func (s *Store) ListDue(now time.Time, limit int) []domain.Phrase {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []domain.Phrase
	for _, p := range s.phrases {
		if p.Schedule.Due(now) {
			due = append(due, p)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].Schedule.DueAt.Equal(due[j].Schedule.DueAt) {
			return due[i].Schedule.DueAt.Before(due[j].Schedule.DueAt)
		}
		return due[i].ID < due[j].ID
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due
}

// All returns every phrase, ordered by creation time (ties by id).
func (s *Store) All() []domain.Phrase {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Phrase, 0, len(s.phrases))
	for _, p := range s.phrases {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return all
}

// mutate runs one read-modify-write cycle: re-read the file under the
// file lock, apply fn, write atomically, refresh the in-memory snapshot.
func (s *Store) mutate(fn func(map[string]domain.Phrase) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("lock store file: %w", err)
	}
	defer s.flk.Unlock()

	phrases, err := readFile(s.path)
	if err != nil {
		return err
	}
	if err := fn(phrases); err != nil {
		return err
	}
	if err := writeFile(s.path, phrases); err != nil {
		return err
	}
	s.phrases = phrases
	return nil
}

func readFile(path string) (map[string]domain.Phrase, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]domain.Phrase), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptStore, path, err)
	}

	phrases := make(map[string]domain.Phrase, len(doc.Phrases))
	for _, p := range doc.Phrases {
		phrases[p.ID] = p
	}
	return phrases, nil
}

// writeFile writes the collection to a temp file in the same directory
// and renames it over the store file, so readers only ever see a
// complete document.
func writeFile(path string, phrases map[string]domain.Phrase) error {
	doc := document{Phrases: make([]domain.Phrase, 0, len(phrases))}
	for _, p := range phrases {
		doc.Phrases = append(doc.Phrases, p)
	}
	sort.Slice(doc.Phrases, func(i, j int) bool { return doc.Phrases[i].ID < doc.Phrases[j].ID })

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}
