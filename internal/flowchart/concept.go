package flowchart

import "strings"

// Candidate is one node text a rubric concept may match against. Candidates
// keep graph order; ties in score resolve to the first candidate seen.
type Candidate struct {
	ID   string
	Text string
}

// SynonymScore is awarded when two texts land in the same synonym class.
const SynonymScore = 0.95

var synonymClasses = [][]string{
	{"start", "begin", "init", "initiate"},
	{"stop", "end", "finish", "terminate", "exit", "halt"},
	{"print", "output", "display", "show", "write"},
	{"read", "input", "get", "scan", "enter"},
	{"true", "yes", "y"},
	{"false", "no", "n"},
	{"inc", "increment", "add"},
	{"dec", "decrement", "sub", "subtract"},
}

// MatchConcept scores expected against every candidate and returns the best
// candidate id with its score. Scoring: exact normalized equality 1.0, shared
// synonym class 0.95, else a longest-common-subsequence ratio in [0,1].
func MatchConcept(expected string, candidates []Candidate) (string, float64) {
	ne := normalizeConcept(expected)
	bestID := ""
	bestScore := 0.0
	for _, c := range candidates {
		s := scorePair(ne, normalizeConcept(c.Text))
		if s > bestScore {
			bestScore = s
			bestID = c.ID
		}
	}
	return bestID, bestScore
}

func scorePair(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if sameSynonymClass(a, b) {
		return SynonymScore
	}
	return lcsRatio(a, b)
}

// normalizeConcept lowercases and strips whitespace and underscores, so
// "Read_Input" and "read input" compare equal.
func normalizeConcept(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '\n', '\r', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sameSynonymClass reports whether both strings contain a word from the same
// class. Membership is substring based: "begincounting" hits "begin".
func sameSynonymClass(a, b string) bool {
	for _, class := range synonymClasses {
		aHit, bHit := false, false
		for _, w := range class {
			if !aHit && strings.Contains(a, w) {
				aHit = true
			}
			if !bHit && strings.Contains(b, w) {
				bHit = true
			}
			if aHit && bHit {
				return true
			}
		}
	}
	return false
}

// lcsRatio is 2*LCS(a,b) / (len(a)+len(b)), the similarity ratio used as the
// fallback when neither equality nor a synonym class applies.
func lcsRatio(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	n, m := len(ar), len(br)
	if n == 0 || m == 0 {
		return 0
	}
	prev := make([]int, m+1)
	cur := make([]int, m+1)
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if ar[i-1] == br[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	lcs := prev[m]
	return 2 * float64(lcs) / float64(n+m)
}
