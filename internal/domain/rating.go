package domain

import "fmt"

// Rating is the user's recall outcome for a reviewed phrase.
// The values match the four-button review control.
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

// Valid reports whether r is one of the four defined ratings.
func (r Rating) Valid() bool {
	return r >= Again && r <= Easy
}

func (r Rating) String() string {
	switch r {
	case Again:
		return "again"
	case Hard:
		return "hard"
	case Good:
		return "good"
	case Easy:
		return "easy"
	default:
		return fmt.Sprintf("rating(%d)", int(r))
	}
}

// ParseRating converts the wire form ("again", "hard", "good", "easy")
// back into a Rating. Returns ErrInvalidRating for anything else.
func ParseRating(s string) (Rating, error) {
	switch s {
	case "again":
		return Again, nil
	case "hard":
		return Hard, nil
	case "good":
		return Good, nil
	case "easy":
		return Easy, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
}
