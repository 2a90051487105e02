package dyn2d

import (
	"math/rand"
	"sort"
	"testing"
)

func randomAABB(rng *rand.Rand) AABB {
	lower := MakeVec2(rng.Float64()*100-50, rng.Float64()*100-50)
	size := MakeVec2(0.1+rng.Float64()*3, 0.1+rng.Float64()*3)
	return MakeAABB(lower, lower.Add(size))
}

func TestDynamicTreeStaysValid(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tree := NewDynamicTree(0.1)

	proxies := map[int]AABB{}
	for i := 0; i < 200; i++ {
		aabb := randomAABB(rng)
		proxies[tree.CreateProxy(aabb, i)] = aabb
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("after insert: %v", err)
	}

	ids := make([]int, 0, len(proxies))
	for id := range proxies {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for i, id := range ids {
		switch {
		case i%3 == 0:
			tree.DestroyProxy(id)
			delete(proxies, id)
		case i%3 == 1:
			old := proxies[id]
			d := MakeVec2(rng.Float64()*4-2, rng.Float64()*4-2)
			aabb := MakeAABB(old.LowerBound.Add(d), old.UpperBound.Add(d))
			tree.MoveProxy(id, aabb, d)
			proxies[id] = aabb
		}
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("after move and destroy: %v", err)
	}

	// every proxy contains its tight AABB and is found by a query on it
	for id, aabb := range proxies {
		if !tree.FatAABB(id).Contains(aabb) {
			t.Fatalf("proxy %d: fat AABB %v does not contain %v", id, tree.FatAABB(id), aabb)
		}

		found := false
		tree.Query(func(proxyID int) bool {
			if proxyID == id {
				found = true
				return false
			}
			return true
		}, aabb)
		if !found {
			t.Fatalf("proxy %d not found by its own AABB", id)
		}
	}
}

func TestDynamicTreeRayCast(t *testing.T) {
	tree := NewDynamicTree(0.1)
	near := tree.CreateProxy(MakeAABB(MakeVec2(2, -1), MakeVec2(3, 1)), "near")
	tree.CreateProxy(MakeAABB(MakeVec2(6, -1), MakeVec2(7, 1)), "far")
	tree.CreateProxy(MakeAABB(MakeVec2(2, 5), MakeVec2(3, 6)), "off")

	var hits []interface{}
	tree.RayCast(func(input RayCastInput, proxyID int) float64 {
		hits = append(hits, tree.UserData(proxyID))
		if proxyID == near {
			// clip the ray at the near box
			return 0.25
		}
		return input.MaxFraction
	}, RayCastInput{P1: MakeVec2(0, 0), P2: MakeVec2(10, 0), MaxFraction: 1})

	for _, h := range hits {
		if h == "off" {
			t.Fatal("ray hit a proxy off its path")
		}
	}
	if len(hits) == 0 || len(hits) > 2 {
		t.Fatalf("hits = %v", hits)
	}
}
