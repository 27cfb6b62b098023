package match

import (
	"github.com/agnivade/levenshtein"
)

// Similarity scores two normalized keys in [0,1]. Identical keys are 1.0
// and an empty key on either side is 0.0. In between, two cheap upper
// bounds run before the quadratic edit distance: a length bound in O(1)
// and a rune-multiset bound in O(min(len)). Each bound is mathematically
// >= the exact ratio, so when a bound already falls below cutoff the
// exact ratio would too, and the bound is returned as the score. The
// function is symmetric in a and b.
func Similarity(a, b string, cutoff float64) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)

	if bound := lengthBound(la, lb); bound < cutoff {
		return bound
	}
	if bound := multisetBound(ra, rb, la, lb); bound < cutoff {
		return bound
	}

	dist := levenshtein.ComputeDistance(a, b)
	longer := la
	if lb > longer {
		longer = lb
	}
	return 1 - float64(dist)/float64(longer)
}

// lengthBound is the best ratio two strings of these lengths can reach:
// the edit distance is at least the length difference, so the ratio is
// at most min/max, which 2*min/(min+max) dominates.
func lengthBound(la, lb int) float64 {
	shorter := la
	if lb < shorter {
		shorter = lb
	}
	return 2 * float64(shorter) / float64(la+lb)
}

// multisetBound counts runes the two keys share regardless of position.
// The edit distance is at least max(len)-common, so the ratio is at most
// 2*common/(la+lb).
func multisetBound(ra, rb []rune, la, lb int) float64 {
	counts := make(map[rune]int, la)
	for _, r := range ra {
		counts[r]++
	}
	common := 0
	for _, r := range rb {
		if counts[r] > 0 {
			counts[r]--
			common++
		}
	}
	return 2 * float64(common) / float64(la+lb)
}
