package match

import "sort"

// UnionFind is a disjoint-set forest over dense record indices, with
// path compression and union by rank. One instance belongs to one run;
// it is built, unioned, read out and discarded.
type UnionFind struct {
	parent []int
	rank   []int
}

// NewUnionFind creates n singleton sets for indices 0..n-1.
func NewUnionFind(n int) *UnionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]int, n),
	}
}

// Find returns the root of i, compressing the path on the way.
func (u *UnionFind) Find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

// Union merges the sets containing i and j.
func (u *UnionFind) Union(i, j int) {
	ri, rj := u.Find(i), u.Find(j)
	if ri == rj {
		return
	}
	switch {
	case u.rank[ri] < u.rank[rj]:
		u.parent[ri] = rj
	case u.rank[ri] > u.rank[rj]:
		u.parent[rj] = ri
	default:
		u.parent[rj] = ri
		u.rank[ri]++
	}
}

// Same reports whether i and j share a set.
func (u *UnionFind) Same(i, j int) bool {
	return u.Find(i) == u.Find(j)
}

// Clusters groups indices by root. Members of each cluster come back
// ascending, and clusters are ordered by their smallest member, so the
// output depends only on which unions happened, never on their order.
func (u *UnionFind) Clusters() [][]int {
	byRoot := make(map[int][]int)
	for i := range u.parent {
		root := u.Find(i)
		byRoot[root] = append(byRoot[root], i)
	}

	clusters := make([][]int, 0, len(byRoot))
	for _, members := range byRoot {
		sort.Ints(members)
		clusters = append(clusters, members)
	}
	sort.Slice(clusters, func(a, b int) bool {
		return clusters[a][0] < clusters[b][0]
	})
	return clusters
}
