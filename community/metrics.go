package community

import (
	"sort"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/brunobiangulo/graphrag/store"
)

// betweennessSampleThreshold is the |V| above which betweenness centrality
// is computed over a degree-ranked subset rather than the full graph
// (§4.7 Step 3: "approximate betweenness ... computed via sampling if
// |V|>5000"). gonum's Betweenness is exact on whatever graph it is given;
// sampling here means restricting the input graph, not the algorithm.
const betweennessSampleThreshold = 5000

// betweennessSampleSize is how many highest-degree nodes are kept when
// sampling engages.
const betweennessSampleSize = 5000

// computeBetweenness returns entity id -> betweenness centrality. Above the
// threshold, only the highest-degree nodes are scored; all others default
// to zero.
func computeBetweenness(g *simple.WeightedUndirectedGraph) map[int64]float64 {
	if g.Nodes().Len() <= betweennessSampleThreshold {
		return network.Betweenness(g)
	}

	type degreeNode struct {
		id     int64
		degree int
	}
	it := g.Nodes()
	var ranked []degreeNode
	for it.Next() {
		id := it.Node().ID()
		ranked = append(ranked, degreeNode{id: id, degree: g.From(id).Len()})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].degree > ranked[j].degree })
	if len(ranked) > betweennessSampleSize {
		ranked = ranked[:betweennessSampleSize]
	}

	sub := simple.NewWeightedUndirectedGraph(0, 0)
	keep := make(map[int64]bool, len(ranked))
	for _, r := range ranked {
		keep[r.id] = true
		sub.AddNode(simple.Node(r.id))
	}
	edges := g.Edges()
	for edges.Next() {
		e := edges.Edge()
		a, b := e.From().ID(), e.To().ID()
		if keep[a] && keep[b] {
			we := g.WeightedEdge(a, b)
			sub.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(a), T: simple.Node(b), W: we.Weight()})
		}
	}
	return network.Betweenness(sub)
}

// degreeCentrality returns, for every entity in a community, its degree
// within that community normalized by the largest possible degree
// (community size - 1).
func degreeCentrality(g *simple.WeightedUndirectedGraph, members []int64) map[int64]float64 {
	out := make(map[int64]float64, len(members))
	inCommunity := make(map[int64]bool, len(members))
	for _, id := range members {
		inCommunity[id] = true
	}
	denom := float64(len(members) - 1)
	for _, id := range members {
		if denom <= 0 {
			out[id] = 0
			continue
		}
		degree := 0
		for _, n := range neighborsOf(g, id) {
			if inCommunity[n] {
				degree++
			}
		}
		out[id] = float64(degree) / denom
	}
	return out
}

// bridgeMetrics computes is_bridge and connected_communities for every
// entity: a bridge is an entity whose neighbors span >= 2 distinct
// communities.
func bridgeMetrics(g *simple.WeightedUndirectedGraph, entityCommunity map[int64]int64) (isBridge map[int64]bool, connected map[int64]int) {
	isBridge = make(map[int64]bool)
	connected = make(map[int64]int)

	it := g.Nodes()
	for it.Next() {
		id := it.Node().ID()
		seen := make(map[int64]bool)
		for _, n := range neighborsOf(g, id) {
			if cid, ok := entityCommunity[n]; ok {
				seen[cid] = true
			}
		}
		connected[id] = len(seen)
		isBridge[id] = len(seen) >= 2
	}
	return isBridge, connected
}

// applyMetrics writes community_id, degree_centrality, betweenness_centrality,
// is_bridge, and connected_communities onto each entity in place.
func applyMetrics(entities []*store.Entity, partitions [][]int64, communityIDs []int64, g *simple.WeightedUndirectedGraph) {
	entityCommunity := make(map[int64]int64)
	degree := make(map[int64]float64)
	for i, members := range partitions {
		communityID := communityIDs[i]
		d := degreeCentrality(g, members)
		for _, id := range members {
			entityCommunity[id] = communityID
			degree[id] = d[id]
		}
	}

	betweenness := computeBetweenness(g)
	isBridge, connected := bridgeMetrics(g, entityCommunity)

	for _, e := range entities {
		cid := entityCommunity[e.ID]
		e.CommunityID = &cid
		e.DegreeCentrality = degree[e.ID]
		e.BetweennessCentrality = betweenness[e.ID]
		e.IsBridge = isBridge[e.ID]
		e.ConnectedCommunities = connected[e.ID]
	}
}
