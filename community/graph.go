package community

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/brunobiangulo/graphrag/store"
)

// buildWeightedGraph turns the entity/relationship edge set into a gonum
// weighted undirected graph keyed by entity id.
func buildWeightedGraph(entities []*store.Entity, rels []*store.Relationship) *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, 0)
	for _, e := range entities {
		g.AddNode(simple.Node(e.ID))
	}
	for _, r := range rels {
		if g.Node(r.EntityAID) == nil || g.Node(r.EntityBID) == nil {
			continue
		}
		g.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(r.EntityAID),
			T: simple.Node(r.EntityBID),
			W: float64(r.Strength),
		})
	}
	return g
}

// neighborsOf returns the ids of nodes adjacent to id in g.
func neighborsOf(g graph.Undirected, id int64) []int64 {
	it := g.From(id)
	var out []int64
	for it.Next() {
		out = append(out, it.Node().ID())
	}
	return out
}
