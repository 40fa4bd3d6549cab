// Package textmatch provides the low-level text comparison primitives used by
// resident identification: accent-insensitive normalization, token-overlap
// name comparison and a positional character similarity.
//
// The comparison functions are intentionally forgiving of partial tokens
// (nicknames, abbreviated middle names) at the cost of occasional false
// positives on short common tokens. That trade-off is deliberate: payer names
// on bank transfers rarely match the registered resident name exactly.
package textmatch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ContainmentFloor is the minimum similarity granted by RawSimilarity when
// one normalized string fully contains the other.
const ContainmentFloor = 0.7

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName lowercases, strips diacritics via NFD decomposition and
// combining-mark removal, and trims surrounding whitespace. It is total:
// it never fails and maps the empty string to the empty string.
func NormalizeName(s string) string {
	lowered := strings.ToLower(s)

	stripped, _, err := transform.String(stripAccents, lowered)
	if err != nil {
		// Malformed input falls back to the lowered original.
		return strings.TrimSpace(lowered)
	}

	return strings.TrimSpace(stripped)
}

// CompareNames returns a similarity score in [0,1] between two free-text
// names. Equal normalized strings score 1. Otherwise each token of a is
// matched against the tokens of b (equality or substring containment in
// either direction counts), and the score is the match count over the larger
// token count. The comparison is order-insensitive.
func CompareNames(a, b string) float64 {
	na := NormalizeName(a)
	nb := NormalizeName(b)

	if na == nb {
		return 1.0
	}

	tokensA := strings.Fields(na)
	tokensB := strings.Fields(nb)

	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	matches := 0
	for _, ta := range tokensA {
		for _, tb := range tokensB {
			if ta == tb || strings.Contains(tb, ta) || strings.Contains(ta, tb) {
				matches++
				break
			}
		}
	}

	maxTokens := len(tokensA)
	if len(tokensB) > maxTokens {
		maxTokens = len(tokensB)
	}

	return float64(matches) / float64(maxTokens)
}

// RawSimilarity returns a position-wise character overlap score in [0,1]
// between the normalized forms of a and b. When one string contains the
// other the score is floored at ContainmentFloor, so prefix matches such as
// "juan" vs "juan carlos" keep a usable signal.
func RawSimilarity(a, b string) float64 {
	na := NormalizeName(a)
	nb := NormalizeName(b)

	if na == nb {
		return 1.0
	}

	ra := []rune(na)
	rb := []rune(nb)

	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}

	minLen := len(ra)
	if len(rb) < minLen {
		minLen = len(rb)
	}

	same := 0
	for i := 0; i < minLen; i++ {
		if ra[i] == rb[i] {
			same++
		}
	}

	score := float64(same) / float64(maxLen)

	if na != "" && nb != "" && (strings.Contains(na, nb) || strings.Contains(nb, na)) {
		if score < ContainmentFloor {
			score = ContainmentFloor
		}
	}

	return score
}

// NormalizePhone strips every non-digit character from a phone number so
// that formatting and country-code prefixes do not defeat comparison.
func NormalizePhone(s string) string {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}

// PhonesMatch reports whether two phone numbers refer to the same line:
// their digit-only forms are equal, or one is a suffix of the other (which
// absorbs country-code prefix differences). Empty numbers never match.
func PhonesMatch(a, b string) bool {
	da := NormalizePhone(a)
	db := NormalizePhone(b)

	if da == "" || db == "" {
		return false
	}

	return da == db || strings.HasSuffix(da, db) || strings.HasSuffix(db, da)
}
