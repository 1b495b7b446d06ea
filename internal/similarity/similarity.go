// Package similarity implements the string similarity primitive shared by
// the auto-match engine, the duplicate detector and fuzzy categorization.
package similarity

import (
	"strings"
	"unicode"
)

// Distance computes the Levenshtein edit distance (insert, delete,
// substitute at unit cost) between two strings using the two-row dynamic
// programming formulation: O(min(m,n)) space, O(m*n) time.
func Distance(s1, s2 string) int {
	a := []byte(s1)
	b := []byte(s2)

	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// The DP rows track the inner string, so keep the shorter one there.
	if len(a) < len(b) {
		a, b = b, a
	}
	m, n := len(a), len(b)

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// Score returns the normalized similarity between two strings in [0, 1]:
// 1 - distance/max(len). Two empty strings are defined as identical (1.0).
func Score(s1, s2 string) float64 {
	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(Distance(s1, s2))/float64(maxLen)
}

// NormalizeDescription lowercases a description, splits it on
// non-alphanumeric boundaries and rejoins the words with single spaces,
// collapsing punctuation and spacing differences between bank exports.
func NormalizeDescription(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, " ")
}

// DescriptionScore computes the similarity of two descriptions after
// normalization.
func DescriptionScore(s1, s2 string) float64 {
	a := NormalizeDescription(s1)
	b := NormalizeDescription(s2)

	if a == b {
		return 1.0
	}

	return Score(a, b)
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
