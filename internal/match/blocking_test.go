package match

import (
	"fmt"
	"testing"
)

func collectPairs(ix *BlockIndex) map[[2]int]int {
	pairs := make(map[[2]int]int)
	ix.Pairs(func(i, j int) {
		pairs[[2]int{i, j}]++
	})
	return pairs
}

func TestBuildIndex_PartitionsByPrefix(t *testing.T) {
	keys := []string{"acme", "acme corp", "acma", "zeta", "ab", ""}
	ix := BuildIndex(keys)

	if ix.Len() != 3 {
		t.Fatalf("Expected 3 blocks, got %d", ix.Len())
	}
	// Blocks come back in lexicographic prefix order; short keys block
	// on the full key
	wantPrefixes := []string{"ab", "acm", "zet"}
	for i, want := range wantPrefixes {
		if got := ix.Block(i).Prefix; got != want {
			t.Errorf("Block %d: expected prefix %q, got %q", i, want, got)
		}
	}
	if got := len(ix.Block(1).Members); got != 3 {
		t.Errorf("Expected 3 members in acm block, got %d", got)
	}
}

func TestBuildIndex_SkipsEmptyKeys(t *testing.T) {
	ix := BuildIndex([]string{"", "", ""})
	if ix.Len() != 0 {
		t.Errorf("Expected no blocks for empty keys, got %d", ix.Len())
	}
	pairs := collectPairs(ix)
	if len(pairs) != 0 {
		t.Errorf("Expected no pairs, got %d", len(pairs))
	}
}

func TestBlockIndex_Pairs_WithinAndAcrossBlocks(t *testing.T) {
	keys := []string{"acme", "acme corp", "acma", "zeta", "ab", ""}
	ix := BuildIndex(keys)
	pairs := collectPairs(ix)

	// Within acm: (0,1) (0,2) (1,2); ab->acm window: (4,0) (4,1) (4,2);
	// acm->zet window: (0,3) (1,3) (2,3)
	want := [][2]int{
		{0, 1}, {0, 2}, {1, 2},
		{4, 0}, {4, 1}, {4, 2},
		{0, 3}, {1, 3}, {2, 3},
	}
	if len(pairs) != len(want) {
		t.Errorf("Expected %d pairs, got %d: %v", len(want), len(pairs), pairs)
	}
	for _, p := range want {
		if pairs[p] != 1 {
			t.Errorf("Expected pair %v exactly once, got %d times", p, pairs[p])
		}
	}
	// The empty-key record takes part in nothing
	for p := range pairs {
		if p[0] == 5 || p[1] == 5 {
			t.Errorf("Record with empty key appeared in pair %v", p)
		}
	}
}

func TestBlockIndex_Pairs_CrossWindowBounded(t *testing.T) {
	// Seven members in the aaa block, one in the aab block: only the
	// first CrossWindow aaa members cross-compare
	keys := make([]string, 0, 8)
	for i := 0; i < 7; i++ {
		keys = append(keys, fmt.Sprintf("aaax%d", i))
	}
	keys = append(keys, "aab")

	ix := BuildIndex(keys)
	pairs := collectPairs(ix)

	cross := 0
	for p := range pairs {
		if p[1] == 7 {
			cross++
			if p[0] >= CrossWindow {
				t.Errorf("Pair %v crosses outside the first %d members", p, CrossWindow)
			}
		}
	}
	if cross != CrossWindow {
		t.Errorf("Expected %d cross-block pairs, got %d", CrossWindow, cross)
	}
	// 7 choose 2 within-block pairs plus the window
	if want := 21 + CrossWindow; len(pairs) != want {
		t.Errorf("Expected %d total pairs, got %d", want, len(pairs))
	}
}

func TestBlockIndex_PairsFor_OwnsEachPairOnce(t *testing.T) {
	keys := []string{"alpha", "alphb", "alphc", "beta", "betb", "gamma"}
	ix := BuildIndex(keys)

	seen := make(map[[2]int]int)
	for b := 0; b < ix.Len(); b++ {
		ix.PairsFor(b, func(i, j int) {
			seen[[2]int{i, j}]++
		})
	}
	for p, n := range seen {
		if n != 1 {
			t.Errorf("Pair %v emitted %d times across blocks", p, n)
		}
	}
}
