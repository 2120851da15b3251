package community

import "testing"

func TestCoOccurrenceEdgesSparsifiesSingletons(t *testing.T) {
	// entity 1 and 2 co-occur in two chunks -> strength 2, kept.
	// entity 1 and 3 co-occur in only one chunk -> strength 1, dropped.
	links := map[int64][]int64{
		100: {1, 2},
		101: {1, 2},
		102: {1, 3},
	}

	rels := coOccurrenceEdges(links, 2)
	if len(rels) != 1 {
		t.Fatalf("expected exactly one surviving relationship, got %d: %+v", len(rels), rels)
	}
	r := rels[0]
	if r.Strength != 2 {
		t.Fatalf("expected strength 2, got %d", r.Strength)
	}
	if !(r.EntityAID == 1 && r.EntityBID == 2) && !(r.EntityAID == 2 && r.EntityBID == 1) {
		t.Fatalf("unexpected pair: %+v", r)
	}
}

func TestCoOccurrenceEdgesIgnoreSelfPairs(t *testing.T) {
	links := map[int64][]int64{
		200: {5, 5},
	}
	if rels := coOccurrenceEdges(links, 2); len(rels) != 0 {
		t.Fatalf("expected no self-pair relationships, got %+v", rels)
	}
}
