package domain

import "time"

// Phrase is a single vocabulary entry owned by the phrase store.
type Phrase struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"created_at"`
	Schedule  ScheduleState `json:"schedule"`
}

// ScheduleState is the SM-2 memory state embedded in a Phrase.
// It is produced by the scheduler and must not be edited field by field.
type ScheduleState struct {
	EaseFactor     float64    `json:"ease_factor"`
	IntervalDays   int        `json:"interval_days"`
	Repetitions    int        `json:"repetitions"`
	DueAt          time.Time  `json:"due_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
}

// DefaultEaseFactor is the ease factor assigned to a freshly saved phrase.
const DefaultEaseFactor = 2.5

// MinEaseFactor is the floor the ease factor can never fall below.
const MinEaseFactor = 1.3

// NewSchedule returns the schedule state for a phrase that has never been
// reviewed: due immediately, no repetitions.
func NewSchedule(now time.Time) ScheduleState {
	return ScheduleState{
		EaseFactor:   DefaultEaseFactor,
		IntervalDays: 0,
		Repetitions:  0,
		DueAt:        now,
	}
}

// Due reports whether the phrase is eligible for review at the given time.
func (s ScheduleState) Due(now time.Time) bool {
	return !s.DueAt.After(now)
}

// Mastery is ease_factor * interval_days, used for sorting vocabulary
// listings from best-known to least-known.
func (s ScheduleState) Mastery() float64 {
	return s.EaseFactor * float64(s.IntervalDays)
}
