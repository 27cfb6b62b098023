package match

import (
	"reflect"
	"testing"
)

func TestUnionFind_Singletons(t *testing.T) {
	u := NewUnionFind(3)
	want := [][]int{{0}, {1}, {2}}
	if got := u.Clusters(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestUnionFind_OrderIndependent(t *testing.T) {
	a := NewUnionFind(5)
	a.Union(0, 1)
	a.Union(1, 2)

	b := NewUnionFind(5)
	b.Union(1, 2)
	b.Union(0, 1)

	ca, cb := a.Clusters(), b.Clusters()
	if !reflect.DeepEqual(ca, cb) {
		t.Errorf("Union order changed clusters: %v vs %v", ca, cb)
	}
	want := [][]int{{0, 1, 2}, {3}, {4}}
	if !reflect.DeepEqual(ca, want) {
		t.Errorf("Expected %v, got %v", want, ca)
	}
}

func TestUnionFind_Transitive(t *testing.T) {
	u := NewUnionFind(6)
	u.Union(0, 3)
	u.Union(3, 5)

	if !u.Same(0, 5) {
		t.Errorf("Expected 0 and 5 to share a cluster through 3")
	}
	if u.Same(0, 1) {
		t.Errorf("Expected 0 and 1 to stay apart")
	}
}

func TestUnionFind_Clusters_DeterministicOrder(t *testing.T) {
	u := NewUnionFind(6)
	u.Union(4, 5)
	u.Union(0, 2)

	want := [][]int{{0, 2}, {1}, {3}, {4, 5}}
	if got := u.Clusters(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestUnionFind_RedundantUnions(t *testing.T) {
	u := NewUnionFind(4)
	u.Union(0, 1)
	u.Union(1, 0)
	u.Union(0, 1)

	want := [][]int{{0, 1}, {2}, {3}}
	if got := u.Clusters(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
