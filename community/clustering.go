package community

import (
	"math/rand"

	"gonum.org/v1/gonum/graph"
	gcommunity "gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"
)

// clusteringSeed fixes the modularity optimizer's random source so that
// repeated runs over identical input converge to the same partition
// (§4.7's "tie-break deterministically ... reproducible community ids"
// invariant, read at the level of the membership partition rather than
// numeric ids, which the contract explicitly allows to be relabeled).
const clusteringSeed = 1

// louvainPartition runs Louvain modularity optimization (gonum's
// graph/community.Modularize) over g at the given resolution and returns
// one slice of entity ids per discovered community.
func louvainPartition(g *simple.WeightedUndirectedGraph, resolution float64) [][]int64 {
	if g.Nodes().Len() == 0 {
		return nil
	}
	reduced := gcommunity.Modularize(g, resolution, rand.New(rand.NewSource(clusteringSeed)))

	structure := reduced.Structure()
	out := make([][]int64, 0, len(structure))
	for _, group := range structure {
		ids := make([]int64, 0, len(group))
		for _, n := range group {
			ids = append(ids, nodeIDs(n)...)
		}
		out = append(out, ids)
	}
	return out
}

// nodeIDs flattens a gonum community-structure node, which may itself be a
// multiplex/reduced node wrapping further sub-nodes, down to its leaf
// entity ids. For the single-level reduction this package requests, every
// node here is a plain graph.Node whose ID is an entity id.
func nodeIDs(n graph.Node) []int64 {
	return []int64{n.ID()}
}
