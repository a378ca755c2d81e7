// Package sm2 implements the SM-2 memory model used to schedule phrase
// reviews. Apply is a pure function: it takes the current schedule state,
// a recall rating and the current time, and returns the next state. No
// I/O, no hidden clock.
package sm2

import (
	"math"
	"time"

	"github.com/fennar/vokab/internal/domain"
)

// Params holds the tunable constants of the scheduler. The defaults are
// the classical SM-2 values; they are knobs, not part of the contract.
type Params struct {
	FirstInterval  int     // days after the first successful repetition
	SecondInterval int     // days after the second successful repetition
	LapsePenalty   float64 // ease factor reduction applied on a lapse
}

// DefaultParams returns the standard SM-2 constants: bootstrap intervals
// of 1 and 6 days, lapse penalty of 0.2.
func DefaultParams() Params {
	return Params{
		FirstInterval:  1,
		SecondInterval: 6,
		LapsePenalty:   0.2,
	}
}

// quality maps the four-button rating onto the classical 0-5 SM-2 quality
// scale. Again is the only lapse; Hard/Good/Easy are successful recalls of
// increasing quality (3/4/5), giving ease adjustments of -0.14 / 0.00 /
// +0.10 through the standard correction term.
func quality(r domain.Rating) float64 {
	switch r {
	case domain.Hard:
		return 3
	case domain.Good:
		return 4
	default:
		return 5
	}
}

// Apply returns the schedule state after rating a phrase at the given
// time. The input state is not mutated. Returns ErrInvalidRating for a
// rating outside the four-button set.
func (p Params) Apply(s domain.ScheduleState, r domain.Rating, now time.Time) (domain.ScheduleState, error) {
	if !r.Valid() {
		return domain.ScheduleState{}, domain.ErrInvalidRating
	}

	next := s

	if r == domain.Again {
		// Lapse: restart the repetition ladder and shorten the interval
		// to one day. The ease factor takes a fixed penalty, floored.
		next.Repetitions = 0
		next.IntervalDays = 1
		next.EaseFactor = math.Max(domain.MinEaseFactor, s.EaseFactor-p.LapsePenalty)
	} else {
		q := quality(r)
		next.Repetitions = s.Repetitions + 1
		next.EaseFactor = math.Max(domain.MinEaseFactor,
			s.EaseFactor+(0.1-(5-q)*(0.08+(5-q)*0.02)))

		switch next.Repetitions {
		case 1:
			next.IntervalDays = p.FirstInterval
		case 2:
			next.IntervalDays = p.SecondInterval
		default:
			next.IntervalDays = int(float64(s.IntervalDays) * next.EaseFactor)
		}
	}

	next.DueAt = now.AddDate(0, 0, next.IntervalDays)
	reviewed := now
	next.LastReviewedAt = &reviewed

	return next, nil
}
