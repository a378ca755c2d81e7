package review

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fennar/vokab/internal/clock"
	"github.com/fennar/vokab/internal/domain"
	"github.com/fennar/vokab/internal/similarity"
	"github.com/fennar/vokab/internal/sm2"
)

// ErrEmptyPhrase is returned when intake receives blank text.
var ErrEmptyPhrase = errors.New("phrase text is empty")

// DefaultBatchLimit is the number of due phrases fetched per batch when
// the caller does not say otherwise.
const DefaultBatchLimit = 30

// MaxBatchLimit caps a caller-supplied batch size.
const MaxBatchLimit = 100

// MaxVocabularyLimit caps a vocabulary listing.
const MaxVocabularyLimit = 2000

// Store is the full store surface the service needs: the session's slice
// plus intake and listing.
type Store interface {
	PhraseStore
	Insert(text string, now time.Time) (domain.Phrase, error)
	All() []domain.Phrase
}

// History records applied ratings. May be nil to disable history.
type History interface {
	Append(phraseID string, rating domain.Rating, reviewedAt time.Time) error
}

// Service is the engine façade: intake with duplicate detection, the
// review protocol, statistics and vocabulary listings. One Service holds
// one review session (one conversation); it is safe for concurrent use.
type Service struct {
	store   Store
	history History
	gate    similarity.Gate
	clk     clock.Clock
	logger  *slog.Logger

	batchLimit int

	mu      sync.Mutex
	session *Session
}

// Options tune a Service. Zero values fall back to defaults.
type Options struct {
	BatchLimit          int
	SimilarityThreshold float64
	SchedulerParams     *sm2.Params
}

// NewService wires the engine together. history may be nil.
func NewService(store Store, history History, clk clock.Clock, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.System{}
	}
	limit := opts.BatchLimit
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	if limit > MaxBatchLimit {
		limit = MaxBatchLimit
	}
	params := sm2.DefaultParams()
	if opts.SchedulerParams != nil {
		params = *opts.SchedulerParams
	}

	return &Service{
		store:      store,
		history:    history,
		gate:       similarity.New(opts.SimilarityThreshold),
		clk:        clk,
		logger:     logger,
		batchLimit: limit,
		session:    NewSession(store, params),
	}
}

// IntakePhrase resolves the text against the existing collection and
// either returns the matched phrase or inserts a new one. created
// reports which of the two happened.
func (s *Service) IntakePhrase(text string) (phrase domain.Phrase, created bool, err error) {
	cleaned := similarity.CleanText(text)
	if cleaned == "" {
		return domain.Phrase{}, false, ErrEmptyPhrase
	}

	if id, ok := s.gate.Resolve(cleaned, s.store.All()); ok {
		existing, err := s.store.Get(id)
		if err != nil {
			return domain.Phrase{}, false, err
		}
		s.logger.Debug("phrase matched existing entry", "text", cleaned, "id", id)
		return existing, false, nil
	}

	inserted, err := s.store.Insert(cleaned, s.clk.Now())
	if err != nil {
		return domain.Phrase{}, false, err
	}
	s.logger.Info("phrase saved", "id", inserted.ID, "text", inserted.Text)
	return inserted, true, nil
}

// IntakeBatch runs IntakePhrase per item, preserving input order. The
// gate sees each earlier item's result, so duplicates inside the batch
// collapse too.
func (s *Service) IntakeBatch(texts []string) ([]domain.Phrase, error) {
	phrases := make([]domain.Phrase, 0, len(texts))
	for _, text := range texts {
		phrase, _, err := s.IntakePhrase(text)
		if err != nil {
			return nil, fmt.Errorf("intake %q: %w", text, err)
		}
		phrases = append(phrases, phrase)
	}
	return phrases, nil
}

// StartOrContinueReview hands out the next due phrase, fetching a fresh
// batch when none is cached. Outcome.Done means nothing is due.
func (s *Service) StartOrContinueReview() (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.StartOrContinue(s.clk.Now(), s.batchLimit)
}

// SubmitRating applies the rating to the shown phrase, records it in the
// history log, and returns the next card (or Done). A history append
// failure is logged but does not undo the committed schedule update.
func (s *Service) SubmitRating(rating domain.Rating) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, shown := s.session.Current()
	now := s.clk.Now()

	outcome, err := s.session.SubmitRating(rating, now, s.batchLimit)
	if err != nil {
		return Outcome{}, err
	}

	if s.history != nil && shown {
		if err := s.history.Append(id, rating, now); err != nil {
			s.logger.Warn("failed to record review history", "phrase_id", id, "error", err)
		}
	}
	s.logger.Debug("rating applied", "phrase_id", id, "rating", rating.String())
	return outcome, nil
}

// InterruptReview clears the session unconditionally. The shown card's
// schedule is untouched and the phrase stays due.
func (s *Service) InterruptReview() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Interrupt()
	s.logger.Debug("review interrupted")
}

// SessionState exposes the protocol state for diagnostics and tests.
func (s *Service) SessionState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.State()
}

// Stats summarizes the collection.
type Stats struct {
	TotalPhrases int `json:"total_phrases"`
	DueNow       int `json:"due_now"`
	TotalReviews int `json:"total_reviews"`
}

// TotalCounter is the read side of the history log used by Stats.
type TotalCounter interface {
	TotalReviews() (int, error)
}

// Stats reports collection totals. Review totals require the history to
// implement TotalCounter; otherwise they read as zero.
func (s *Service) Stats() (Stats, error) {
	now := s.clk.Now()
	stats := Stats{
		TotalPhrases: len(s.store.All()),
		DueNow:       len(s.store.ListDue(now, 0)),
	}
	if counter, ok := s.history.(TotalCounter); ok {
		total, err := counter.TotalReviews()
		if err != nil {
			return Stats{}, fmt.Errorf("count reviews: %w", err)
		}
		stats.TotalReviews = total
	}
	return stats, nil
}

// Vocabulary sort orders.
const (
	SortCreated      = "created"
	SortAlphabetical = "alphabetical"
	SortMastery      = "mastery"
)

// Vocabulary lists phrases for analysis: by insertion order, text, or
// mastery (ease factor times interval). limit <= 0 or > MaxVocabularyLimit
// is clamped to the maximum.
func (s *Service) Vocabulary(sortBy string, ascending bool, limit int) ([]domain.Phrase, error) {
	phrases := s.store.All()

	switch sortBy {
	case SortCreated, "":
		// All() already orders by creation time.
	case SortAlphabetical:
		sort.SliceStable(phrases, func(i, j int) bool {
			return strings.ToLower(phrases[i].Text) < strings.ToLower(phrases[j].Text)
		})
	case SortMastery:
		sort.SliceStable(phrases, func(i, j int) bool {
			return phrases[i].Schedule.Mastery() < phrases[j].Schedule.Mastery()
		})
	default:
		return nil, fmt.Errorf("unknown vocabulary sort %q", sortBy)
	}

	if !ascending {
		for i, j := 0, len(phrases)-1; i < j; i, j = i+1, j-1 {
			phrases[i], phrases[j] = phrases[j], phrases[i]
		}
	}

	if limit <= 0 || limit > MaxVocabularyLimit {
		limit = MaxVocabularyLimit
	}
	if len(phrases) > limit {
		phrases = phrases[:limit]
	}
	return phrases, nil
}
