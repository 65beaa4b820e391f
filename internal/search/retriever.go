package search

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/carrivo/assistant/config"
	"github.com/carrivo/assistant/internal/lang"
)

// Embedder is the inference collaborator. Unavailability is a state,
// not an error, so the retriever can branch to fuzzy matching without
// treating it as a failure.
type Embedder interface {
	Available() bool
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DocumentSource is the store-side collaborator for both corpora.
type DocumentSource interface {
	// SimilaritySearch runs a server-side vector query, returning rows
	// ranked by cosine similarity above the threshold.
	SimilaritySearch(ctx context.Context, corpus Corpus, embedding []float32, limit int, threshold float64) ([]ScoredDocument, error)
	// Documents fetches the active/published candidate set for
	// client-side scoring.
	Documents(ctx context.Context, corpus Corpus) ([]Document, error)
}

// Retriever implements the tiered search cascade shared by the FAQ and
// roadmap corpora: server-side vector search, then client-side cosine
// scoring, then synonym-expanded fuzzy matching. Every tier swallows
// collaborator errors and falls through to the next; the cascade as a
// whole never fails, at worst it returns nothing.
type Retriever struct {
	source   DocumentSource
	embedder Embedder
	cfg      config.SearchConfig
	logger   *log.Logger
}

func NewRetriever(source DocumentSource, embedder Embedder, cfg config.SearchConfig, logger *log.Logger) *Retriever {
	return &Retriever{source: source, embedder: embedder, cfg: cfg, logger: logger}
}

// Search returns up to limit documents ranked by relevance, along with
// the tier that produced them.
func (r *Retriever) Search(ctx context.Context, query string, corpus Corpus, language lang.Language, limit int, useSemantic bool) ([]ScoredDocument, Tier) {
	var queryVec []float32

	if useSemantic && r.embedder.Available() {
		vec, err := r.embedder.Embed(ctx, query)
		if err != nil {
			r.logger.Printf("query embedding failed, falling back to fuzzy: %v", err)
		} else {
			queryVec = vec
		}
	}

	if queryVec != nil {
		if results, ok := r.serverVectorSearch(ctx, corpus, queryVec, limit); ok {
			return results, TierServerVector
		}
		if results := r.clientVectorSearch(ctx, corpus, queryVec, limit); len(results) > 0 {
			return results, TierClientVector
		}
	}

	if results := r.fuzzySearch(ctx, query, corpus, language, limit); len(results) > 0 {
		return results, TierFuzzy
	}
	return nil, TierNone
}

// serverVectorSearch is the preferred pre-ranked path. Results are
// accepted only when the top similarity clears the high-confidence
// threshold, otherwise the caller cascades to client-side scoring.
func (r *Retriever) serverVectorSearch(ctx context.Context, corpus Corpus, queryVec []float32, limit int) ([]ScoredDocument, bool) {
	results, err := r.source.SimilaritySearch(ctx, corpus, queryVec, limit, r.cfg.MatchThreshold)
	if err != nil {
		r.logger.Printf("server-side vector search failed for %s: %v", corpus, err)
		return nil, false
	}
	if len(results) == 0 {
		return nil, false
	}
	if results[0].Similarity > r.cfg.HighConfidence {
		return results, true
	}
	r.logger.Printf("server-side vector search low confidence for %s (top %.2f)", corpus, results[0].Similarity)
	return nil, false
}

// clientVectorSearch scores every fetched candidate that carries an
// embedding of the same dimensionality as the query vector. Dimension
// mismatches are skipped, never errors.
func (r *Retriever) clientVectorSearch(ctx context.Context, corpus Corpus, queryVec []float32, limit int) []ScoredDocument {
	docs, err := r.source.Documents(ctx, corpus)
	if err != nil {
		r.logger.Printf("fetching %s candidates failed: %v", corpus, err)
		return nil
	}

	scored := make([]ScoredDocument, 0, len(docs))
	for _, doc := range docs {
		vec := doc.Vector()
		if len(vec) == 0 || len(vec) != len(queryVec) {
			continue
		}
		scored = append(scored, ScoredDocument{Document: doc, Similarity: Cosine(queryVec, vec)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// fuzzySearch is the last tier: expand the query through the synonym
// map, then score each candidate by substring containment or by the
// best character-level ratio across its text fields.
func (r *Retriever) fuzzySearch(ctx context.Context, query string, corpus Corpus, language lang.Language, limit int) []ScoredDocument {
	docs, err := r.source.Documents(ctx, corpus)
	if err != nil {
		r.logger.Printf("fetching %s candidates failed: %v", corpus, err)
		return nil
	}

	variants := ExpandQuery(query)

	scored := make([]ScoredDocument, 0, len(docs))
	for _, doc := range docs {
		title, description, category := doc.SearchText(language)
		titleClean := normalizeSearchText(title)
		descClean := normalizeSearchText(description)
		catClean := normalizeCategory(category)
		searchable := titleClean + " " + descClean + " " + catClean

		var best float64
		for _, variant := range variants {
			variantClean := normalizeSearchText(variant)
			if strings.Contains(searchable, variantClean) {
				best = 1.0
				break
			}
			for _, field := range []string{titleClean, descClean, catClean} {
				if s := sequenceRatio(variantClean, field); s > best {
					best = s
				}
			}
		}

		if best > r.cfg.FuzzyMinRelevance {
			scored = append(scored, ScoredDocument{Document: doc, Similarity: best})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
