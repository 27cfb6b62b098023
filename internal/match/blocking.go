package match

import "sort"

// Blocking tunables. Review together: cheaper blocks mean more missed
// boundary cases and vice versa.
const (
	// PrefixLen is the block key length in runes (full key if shorter).
	PrefixLen = 3

	// CrossWindow is how many leading members of each of two adjacent
	// blocks take part in cross-block comparison.
	CrossWindow = 5

	// NeighborRadius is how many lexicographically following blocks a
	// block is cross-compared with.
	NeighborRadius = 1
)

// Block is one prefix partition of record indices, in load order.
type Block struct {
	Prefix  string
	Members []int
}

// BlockIndex partitions records by normalized-key prefix so that the
// quadratic comparison runs per block, not over the whole input. Records
// whose keys differ in the first PrefixLen runes are only compared when
// the adjacent-block window catches them; a true duplicate outside both
// windows stays unmatched. That is the accepted tradeoff, not a bug.
type BlockIndex struct {
	blocks []Block
}

// BuildIndex blocks the given keys, indexed by dense record index.
// Records with empty keys are unmatchable and get no block.
func BuildIndex(keys []string) *BlockIndex {
	byPrefix := make(map[string][]int)
	for i, key := range keys {
		if key == "" {
			continue
		}
		p := prefix(key)
		byPrefix[p] = append(byPrefix[p], i)
	}

	prefixes := make([]string, 0, len(byPrefix))
	for p := range byPrefix {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	blocks := make([]Block, len(prefixes))
	for i, p := range prefixes {
		blocks[i] = Block{Prefix: p, Members: byPrefix[p]}
	}
	return &BlockIndex{blocks: blocks}
}

func prefix(key string) string {
	runes := []rune(key)
	if len(runes) <= PrefixLen {
		return key
	}
	return string(runes[:PrefixLen])
}

// Len returns the number of blocks.
func (ix *BlockIndex) Len() int { return len(ix.blocks) }

// Block returns block b.
func (ix *BlockIndex) Block(b int) Block { return ix.blocks[b] }

// PairsFor emits the candidate pairs owned by block b, in a fixed order:
// every pair within the block, then the bounded window against each of
// the next NeighborRadius blocks. Each candidate pair of the whole index
// is emitted by exactly one block, so callers can shard work by block.
func (ix *BlockIndex) PairsFor(b int, fn func(i, j int)) {
	members := ix.blocks[b].Members
	for x := 0; x < len(members); x++ {
		for y := x + 1; y < len(members); y++ {
			fn(members[x], members[y])
		}
	}

	for n := 1; n <= NeighborRadius; n++ {
		if b+n >= len(ix.blocks) {
			break
		}
		left := window(members)
		right := window(ix.blocks[b+n].Members)
		for _, i := range left {
			for _, j := range right {
				fn(i, j)
			}
		}
	}
}

func window(members []int) []int {
	if len(members) > CrossWindow {
		return members[:CrossWindow]
	}
	return members
}

// Pairs emits every candidate pair in the index, block by block.
func (ix *BlockIndex) Pairs(fn func(i, j int)) {
	for b := range ix.blocks {
		ix.PairsFor(b, fn)
	}
}
