package similarity

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/width"
)

// Similarity calculates the similarity between two titles using Levenshtein
// distance over normalized forms. Returns 0.0 (completely different) to 1.0
// (identical).
//
// Titles from Chinese sources frequently mix fullwidth punctuation and CJK
// with Latin script, so normalization folds fullwidth forms to their narrow
// equivalents. When exactly one of the two titles contains CJK script a
// transliterated comparison is tried as well and the better score wins, so
// "进击的巨人" still scores against "Jin Ji De Ju Ren".
func Similarity(s1, s2 string) float64 {
	n1 := normalize(s1)
	n2 := normalize(s2)

	score := scoreNormalized(n1, n2)

	if hasCJK(n1) != hasCJK(n2) {
		t1 := normalize(unidecode.Unidecode(n1))
		t2 := normalize(unidecode.Unidecode(n2))
		if ts := scoreNormalized(t1, t2); ts > score {
			score = ts
		}
	}

	return score
}

func scoreNormalized(s1, s2 string) float64 {
	if s1 == s2 {
		if len(s1) == 0 {
			return 0.0
		}
		return 1.0
	}
	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}

	// One title being a suffix of the other usually means a possessive or
	// branding prefix ("Disney's X" vs "X"); treat a substantial suffix as a
	// near-match.
	if score := suffixContainmentScore(s1, s2); score > 0 {
		return score
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	distance := levenshteinDistance(r1, r2)
	maxLen := len(r1)
	if len(r2) > maxLen {
		maxLen = len(r2)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

// suffixContainmentScore returns a high similarity score if one string is a
// suffix of the other at a word boundary and covers a substantial portion
// (>=60%) of the longer string. Returns 0 otherwise.
func suffixContainmentScore(s1, s2 string) float64 {
	longer, shorter := s1, s2
	if len(s1) < len(s2) {
		longer, shorter = s2, s1
	}

	if strings.HasSuffix(longer, shorter) {
		prefixLen := len(longer) - len(shorter)
		if prefixLen == 0 || longer[prefixLen-1] == ' ' {
			ratio := float64(len(shorter)) / float64(len(longer))
			if ratio >= 0.6 {
				return 0.90 + (ratio * 0.10)
			}
		}
	}

	return 0
}

// normalize lowercases, folds fullwidth characters to narrow, converts "&"
// to "and", and strips everything but letters, digits and single spaces.
func normalize(s string) string {
	s = width.Narrow.String(s)
	s = strings.ReplaceAll(s, "&", " and ")

	var result strings.Builder
	result.Grow(len(s))

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		} else if unicode.IsSpace(r) || r == '.' || r == '-' || r == '_' || r == '·' {
			result.WriteRune(' ')
		}
	}

	return strings.TrimSpace(strings.Join(strings.Fields(result.String()), " "))
}

func hasCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}

// levenshteinDistance calculates the edit distance between two rune slices.
func levenshteinDistance(r1, r2 []rune) int {
	len1 := len(r1)
	len2 := len(r2)

	prev := make([]int, len2+1)
	curr := make([]int, len2+1)
	for j := 0; j <= len2; j++ {
		prev[j] = j
	}

	for i := 1; i <= len1; i++ {
		curr[0] = i
		for j := 1; j <= len2; j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = minInt(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len2]
}

func minInt(values ...int) int {
	if len(values) == 0 {
		return 0
	}
	minVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
	}
	return minVal
}
