// Package query implements the query planner (C8): deterministic query
// classification, class-aware keyword extraction, and the retriever
// budgets that downstream retrieval and reranking consume (§4.8).
package query

// Options are the caller-supplied knobs a plan is built from.
type Options struct {
	TopK           int
	UseVector      bool
	UseRerank      bool
	DivisionFilter string
	CategoryFilter string
	ProductFilter  string
}

// DefaultOptions returns top_k=10 with vector search and reranking on.
func DefaultOptions() Options {
	return Options{TopK: 10, UseVector: true, UseRerank: true}
}

// Retriever names a C9 retriever strategy.
type Retriever string

const (
	RetrieverKeyword   Retriever = "keyword"
	RetrieverVector    Retriever = "vector"
	RetrieverEntity    Retriever = "entity"
	RetrieverCommunity Retriever = "community"
	RetrieverHybrid    Retriever = "hybrid"
)

// Plan names which retrievers to run, their budgets, and the
// classification used to bias reranking.
type Plan struct {
	Query          string
	Class          Class
	Keywords       []string
	TopK           int
	Retrievers     []Retriever
	Budget         int // candidates requested per retriever before fusion
	UseRerank      bool
	DivisionFilter string
	CategoryFilter string
	ProductFilter  string
}

// Build classifies the query, extracts keywords, and assembles the
// retriever fan-out. strategyHint, when non-empty, pins the retriever list
// to a single named strategy instead of the default hybrid fan-out.
func Build(q string, strategyHint string, opts Options) *Plan {
	if opts.TopK <= 0 {
		opts.TopK = DefaultOptions().TopK
	}

	class, pattern := classify(q)
	keywords := extractKeywords(q, pattern)

	p := &Plan{
		Query:          q,
		Class:          class,
		Keywords:       keywords,
		TopK:           opts.TopK,
		UseRerank:      opts.UseRerank,
		DivisionFilter: opts.DivisionFilter,
		CategoryFilter: opts.CategoryFilter,
		ProductFilter:  opts.ProductFilter,
		Budget:         2 * opts.TopK,
	}

	switch Retriever(strategyHint) {
	case RetrieverKeyword, RetrieverVector, RetrieverEntity, RetrieverCommunity:
		p.Retrievers = []Retriever{Retriever(strategyHint)}
	default:
		p.Retrievers = []Retriever{RetrieverKeyword, RetrieverEntity}
		if opts.UseVector {
			p.Retrievers = append(p.Retrievers, RetrieverVector)
		}
		p.Retrievers = append(p.Retrievers, RetrieverCommunity)
	}

	return p
}
