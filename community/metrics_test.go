package community

import (
	"testing"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/brunobiangulo/graphrag/store"
)

func triangleGraph() *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, 0)
	for _, id := range []int64{1, 2, 3, 4} {
		g.AddNode(simple.Node(id))
	}
	// 1-2-3 form a triangle (one community); 4 bridges to 1 only.
	g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(1), T: simple.Node(2), W: 2})
	g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(2), T: simple.Node(3), W: 2})
	g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(1), T: simple.Node(3), W: 2})
	g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(1), T: simple.Node(4), W: 2})
	return g
}

func TestDegreeCentralityWithinCommunity(t *testing.T) {
	g := triangleGraph()
	d := degreeCentrality(g, []int64{1, 2, 3})
	if d[1] != 1.0 || d[2] != 1.0 || d[3] != 1.0 {
		t.Fatalf("expected every node in the triangle fully connected, got %+v", d)
	}
}

func TestBridgeMetricsDetectsCrossCommunityNeighbor(t *testing.T) {
	g := triangleGraph()
	entityCommunity := map[int64]int64{1: 0, 2: 0, 3: 0, 4: 1}

	isBridge, connected := bridgeMetrics(g, entityCommunity)
	if !isBridge[1] {
		t.Fatalf("expected entity 1 (neighbor of both communities) to be a bridge")
	}
	if connected[1] != 2 {
		t.Fatalf("expected entity 1 to connect to 2 distinct communities, got %d", connected[1])
	}
	if isBridge[4] {
		t.Fatalf("expected entity 4 (single neighbor) not to be a bridge")
	}
}

func TestApplyMetricsAssignsCommunityIDs(t *testing.T) {
	g := triangleGraph()
	entities := []*store.Entity{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	partitions := [][]int64{{1, 2, 3}, {4}}
	communityIDs := []int64{10, 11}

	applyMetrics(entities, partitions, communityIDs, g)

	for _, e := range entities[:3] {
		if e.CommunityID == nil || *e.CommunityID != 10 {
			t.Fatalf("expected entity %d in community 10, got %+v", e.ID, e.CommunityID)
		}
	}
	if entities[3].CommunityID == nil || *entities[3].CommunityID != 11 {
		t.Fatalf("expected entity 4 in community 11, got %+v", entities[3].CommunityID)
	}
}
