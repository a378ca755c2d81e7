// Package review coordinates the phrase store and the scheduler across a
// multi-turn review interaction, and exposes the engine's operations to
// the caller (the agent or transport layer).
package review

import (
	"fmt"
	"time"

	"github.com/fennar/vokab/internal/domain"
	"github.com/fennar/vokab/internal/sm2"
)

// State labels the session's position in the review protocol.
type State int

const (
	// StateIdle means no active batch.
	StateIdle State = iota
	// StateBatchLoaded means a batch is cached but no card is shown.
	StateBatchLoaded
	// StateCardShown means exactly one phrase awaits a rating.
	StateCardShown
	// StateExhausted is the transient moment when both the cached batch
	// and a fresh fetch came back empty. It resolves to StateIdle before
	// any call returns; Outcome.Done reports it to the caller.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBatchLoaded:
		return "batch_loaded"
	case StateCardShown:
		return "card_shown"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome is the result of a review step: a phrase to present, or Done
// when nothing is due.
type Outcome struct {
	Phrase *domain.Phrase `json:"phrase,omitempty"`
	Done   bool           `json:"done"`
}

// PhraseStore is the slice of the store the session needs.
type PhraseStore interface {
	Get(id string) (domain.Phrase, error)
	UpdateSchedule(id string, schedule domain.ScheduleState) error
	ListDue(now time.Time, limit int) []domain.Phrase
}

// Session is the per-conversation review state machine. It holds only
// phrase ids and a cursor; it is not persisted, so an interrupted review
// loses nothing but its place; committed schedule updates survive in
// the store. Not safe for concurrent use; the owning Service serializes
// access.
type Session struct {
	store  PhraseStore
	params sm2.Params

	state  State
	batch  []string
	cursor int
}

// NewSession returns an idle session over the given store.
func NewSession(store PhraseStore, params sm2.Params) *Session {
	return &Session{store: store, params: params, state: StateIdle}
}

// State returns the current protocol state.
func (s *Session) State() State { return s.state }

// StartOrContinue advances the session to the next phrase to present.
// From idle it fetches a fresh batch of due phrases; with a card already
// shown it re-presents that card, so a retried call is idempotent.
// Returns Outcome.Done when nothing is due.
func (s *Session) StartOrContinue(now time.Time, limit int) (Outcome, error) {
	switch s.state {
	case StateCardShown:
		return s.present()
	case StateBatchLoaded:
		s.state = StateCardShown
		return s.present()
	default:
		return s.loadBatch(now, limit)
	}
}

// SubmitRating applies the rating to the currently shown phrase: the
// scheduler computes the new schedule, the store persists it, and the
// session advances to the next card, refetching a fresh batch once the
// cached one is exhausted. An invalid rating or a rating without a shown
// card changes nothing.
func (s *Session) SubmitRating(rating domain.Rating, now time.Time, limit int) (Outcome, error) {
	if !rating.Valid() {
		return Outcome{}, fmt.Errorf("submit rating %d: %w", int(rating), domain.ErrInvalidRating)
	}
	if s.state != StateCardShown {
		return Outcome{}, domain.ErrNoActiveReview
	}

	id := s.batch[s.cursor]
	phrase, err := s.store.Get(id)
	if err != nil {
		return Outcome{}, err
	}

	next, err := s.params.Apply(phrase.Schedule, rating, now)
	if err != nil {
		return Outcome{}, err
	}
	if err := s.store.UpdateSchedule(id, next); err != nil {
		return Outcome{}, err
	}

	s.cursor++
	if s.cursor < len(s.batch) {
		s.state = StateCardShown
		return s.present()
	}
	return s.loadBatch(now, limit)
}

// Interrupt unconditionally clears the cached batch and returns the
// session to idle. The currently shown, not-yet-rated phrase keeps its
// schedule untouched and stays due.
func (s *Session) Interrupt() {
	s.state = StateIdle
	s.batch = nil
	s.cursor = 0
}

// Current returns the id of the phrase awaiting a rating, or ok=false.
func (s *Session) Current() (id string, ok bool) {
	if s.state != StateCardShown {
		return "", false
	}
	return s.batch[s.cursor], true
}

func (s *Session) loadBatch(now time.Time, limit int) (Outcome, error) {
	due := s.store.ListDue(now, limit)
	if len(due) == 0 {
		// Exhausted: both the cache and a fresh fetch are empty.
		s.state = StateExhausted
		s.Interrupt()
		return Outcome{Done: true}, nil
	}

	s.batch = make([]string, len(due))
	for i, p := range due {
		s.batch[i] = p.ID
	}
	s.cursor = 0
	s.state = StateCardShown
	return s.present()
}

// present fetches the phrase at the cursor for the caller to render.
func (s *Session) present() (Outcome, error) {
	phrase, err := s.store.Get(s.batch[s.cursor])
	if err != nil {
		// A stale id means the cache and the store diverged; surface it.
		return Outcome{}, err
	}
	return Outcome{Phrase: &phrase}, nil
}
