// Package community implements the community builder (C7): co-occurrence
// edge construction, Louvain-style modularity clustering, and per-entity
// centrality/bridge metrics (§4.7).
package community

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brunobiangulo/graphrag/store"
)

// Config controls the rebuild.
type Config struct {
	// Resolution is Louvain's resolution parameter rho, in [0.5, 2.0].
	Resolution float64
	// MinCooccurrenceStrength is the minimum shared-chunk count for a
	// RELATED_TO edge to survive sparsification (§4.7 Step 1).
	MinCooccurrenceStrength int
}

// DefaultConfig returns rho=1.0 and minimum co-occurrence strength 2, the
// §4.7 defaults.
func DefaultConfig() Config {
	return Config{Resolution: 1.0, MinCooccurrenceStrength: 2}
}

// Builder rebuilds the community partition and entity metrics over the
// full entity graph.
type Builder struct {
	store *store.Store
	cfg   Config
}

// New returns a Builder. Zero-value Resolution falls back to the default;
// any other value is clamped to [0.5, 2.0].
func New(s *store.Store, cfg Config) *Builder {
	if cfg.Resolution == 0 {
		cfg.Resolution = DefaultConfig().Resolution
	}
	if cfg.Resolution < 0.5 {
		cfg.Resolution = 0.5
	}
	if cfg.Resolution > 2.0 {
		cfg.Resolution = 2.0
	}
	if cfg.MinCooccurrenceStrength == 0 {
		cfg.MinCooccurrenceStrength = DefaultConfig().MinCooccurrenceStrength
	}
	return &Builder{store: s, cfg: cfg}
}

// Rebuild runs the full Step1->Step2->Step3 pipeline and writes the result
// back to the store: relationships are replaced, communities are cleared
// and reinserted, and every entity's metrics columns are updated.
func (b *Builder) Rebuild(ctx context.Context) error {
	entities, err := b.store.AllEntities(ctx)
	if err != nil {
		return fmt.Errorf("community: loading entities: %w", err)
	}
	if len(entities) == 0 {
		slog.Info("community: no entities, skipping rebuild")
		return nil
	}

	links, err := b.store.AllEntityChunkLinks(ctx)
	if err != nil {
		return fmt.Errorf("community: loading entity-chunk links: %w", err)
	}

	rels := coOccurrenceEdges(links, b.cfg.MinCooccurrenceStrength)
	if err := b.store.ReplaceRelationships(ctx, rels); err != nil {
		return fmt.Errorf("community: replacing relationships: %w", err)
	}
	slog.Info("community: co-occurrence edges computed", "entities", len(entities), "edges", len(rels))

	g := buildWeightedGraph(entities, rels)
	partitions := louvainPartition(g, b.cfg.Resolution)
	if len(partitions) == 0 {
		// No edges survived sparsification: every entity is its own
		// singleton community.
		for _, e := range entities {
			partitions = append(partitions, []int64{e.ID})
		}
	}

	if err := b.store.ClearCommunities(ctx); err != nil {
		return fmt.Errorf("community: clearing communities: %w", err)
	}
	communityIDs := make([]int64, len(partitions))
	for i, members := range partitions {
		id, err := b.store.InsertCommunity(ctx, len(members))
		if err != nil {
			return fmt.Errorf("community: inserting community: %w", err)
		}
		communityIDs[i] = id
	}
	slog.Info("community: partitioned", "communities", len(partitions))

	applyMetrics(entities, partitions, communityIDs, g)
	for _, e := range entities {
		if err := b.store.UpdateEntityMetrics(ctx, e); err != nil {
			return fmt.Errorf("community: updating metrics for entity %d: %w", e.ID, err)
		}
	}

	slog.Info("community: rebuild complete", "entities", len(entities))
	return nil
}
