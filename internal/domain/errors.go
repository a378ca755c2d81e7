package domain

import "errors"

// Sentinel errors shared across the engine. Check with errors.Is.
var (
	// ErrNotFound is returned when a phrase id is not in the store. A stale
	// id from a cached batch means the cache and the store have diverged,
	// so it is always surfaced, never swallowed.
	ErrNotFound = errors.New("phrase not found")

	// ErrCorruptStore is returned when the persisted phrase file cannot be
	// parsed. Fatal at startup: starting with an empty store instead would
	// silently discard the user's vocabulary.
	ErrCorruptStore = errors.New("phrase store file is corrupt")

	// ErrInvalidRating is returned for a rating outside Again..Easy.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrNoActiveReview is returned when a rating arrives while no card is
	// being shown.
	ErrNoActiveReview = errors.New("no review card is awaiting a rating")
)
