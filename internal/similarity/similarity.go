// Package similarity decides whether a candidate phrase is a near
// duplicate of one already in the store, so a vocabulary item never
// accumulates several independent schedules under slightly different
// spellings.
package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/fennar/vokab/internal/domain"
)

// DefaultThreshold is the trigram similarity above which a candidate is
// treated as a duplicate. Tuned so "der Hund"/"die Hund"/"Hund" collapse
// while "Hund"/"Mund" and "Hund"/"Hand" stay distinct.
const DefaultThreshold = 0.6

// Leading articles stripped before comparison, so saving a noun with and
// without its article does not create two entries.
var articles = map[string]bool{
	"der": true, "die": true, "das": true,
	"den": true, "dem": true, "des": true,
	"ein": true, "eine": true, "einen": true,
	"einem": true, "einer": true, "eines": true,
}

// stripMarks removes combining diacritical marks after NFD decomposition,
// so "über" and its decomposed form (and "uber") all fold the same way.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Gate matches candidate text against existing phrases.
type Gate struct {
	threshold float64
}

// New returns a Gate with the given similarity threshold. A threshold
// outside (0, 1] falls back to DefaultThreshold.
func New(threshold float64) Gate {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return Gate{threshold: threshold}
}

// CleanText normalizes a phrase for storage: trimmed, inner whitespace
// collapsed, case and diacritics preserved for display.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold produces the matching form of a phrase: lowercased, whitespace
// collapsed, diacritics removed, leading article dropped.
func Fold(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	fields := strings.Fields(folded)
	if len(fields) > 1 && articles[fields[0]] {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

// Resolve returns the id of the existing phrase the candidate duplicates,
// or ok=false when the candidate is new. Read-only; the caller decides
// whether to reuse or insert. An empty store always yields ok=false.
func (g Gate) Resolve(candidate string, existing []domain.Phrase) (id string, ok bool) {
	folded := Fold(candidate)
	if folded == "" {
		return "", false
	}

	best := 0.0
	for _, p := range existing {
		score := trigramSimilarity(folded, Fold(p.Text))
		if score > best {
			best = score
			id = p.ID
		}
	}
	if best >= g.threshold {
		return id, true
	}
	return "", false
}

// trigramSimilarity is the Dice coefficient over padded character
// trigrams. Identical strings score 1.
func trigramSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for t := range ta {
		if tb[t] {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(ta)+len(tb))
}

// trigrams returns the set of trigrams of s padded with two leading and
// one trailing space, the pg_trgm convention.
func trigrams(s string) map[string]bool {
	if s == "" {
		return nil
	}
	padded := []rune("  " + s + " ")
	set := make(map[string]bool, len(padded))
	for i := 0; i+3 <= len(padded); i++ {
		set[string(padded[i:i+3])] = true
	}
	return set
}
