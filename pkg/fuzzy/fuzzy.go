// Package fuzzy implements typo-tolerant matching for people search.
package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// LevenshteinDistance returns the number of single-rune edits between two
// normalized strings.
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(normalize(s1))
	r2 := []rune(normalize(s2))
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

// Threshold is the edit distance tolerated for a query of this length.
func Threshold(query string) int {
	switch n := len([]rune(query)); {
	case n <= 3:
		return 0
	case n < 8:
		return 1
	default:
		return 2
	}
}

// Score rates how well query matches a username and e-mail address.
// Zero means no match.
func Score(query, username, email string) float64 {
	q := normalize(query)
	if q == "" {
		return 1
	}
	name := normalize(username)
	local := normalize(email)
	if at := strings.IndexByte(local, '@'); at > 0 {
		local = local[:at]
	}

	switch {
	case name == q:
		return 100
	case strings.HasPrefix(name, q):
		return 80
	case strings.Contains(name, q):
		return 60
	case strings.HasPrefix(local, q):
		return 50
	case strings.Contains(local, q):
		return 30
	}

	if d := LevenshteinDistance(q, name); d <= Threshold(q) {
		return 40 - float64(d)*10
	}
	return 0
}

// normalize lowercases, folds accents and collapses whitespace.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(strings.ToLower(s)) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
