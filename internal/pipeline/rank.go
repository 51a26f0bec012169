package pipeline

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/SFDC-Veteran/planai-AI/internal/embedding"
)

type OptimizationMode string

const (
	ModeSpeed    OptimizationMode = "speed"
	ModeBalanced OptimizationMode = "balanced"
	ModeQuality  OptimizationMode = "quality"
)

// maxRankedPassages caps the context handed to the answer generator.
const maxRankedPassages = 15

// rank orders and filters candidate passages. Summarization requests
// keep source order, speed mode skips embedding entirely, and the
// remaining modes score passages by cosine similarity against the
// query embedding with a stable descending sort.
func (p *Pipeline) rank(ctx context.Context, profile Profile, mode OptimizationMode, query string, passages []Passage) ([]Passage, error) {
	if len(passages) == 0 {
		return passages, nil
	}
	if strings.EqualFold(query, summarizeSentinel) {
		return passages, nil
	}

	withContent := make([]Passage, 0, len(passages))
	for _, passage := range passages {
		if passage.Content != "" {
			withContent = append(withContent, passage)
		}
	}

	if mode == ModeSpeed || !profile.UsesReranking {
		return head(withContent, maxRankedPassages), nil
	}

	contents := make([]string, len(withContent))
	for i, passage := range withContent {
		contents[i] = passage.Content
	}

	var docVectors [][]float64
	var queryVector []float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vectors, err := p.embed.EmbedDocuments(gctx, contents)
		docVectors = vectors
		return err
	})
	g.Go(func() error {
		vector, err := p.embed.EmbedQuery(gctx, query)
		queryVector = vector
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	type scored struct {
		index      int
		similarity float64
	}
	ranked := make([]scored, 0, len(withContent))
	for i := range withContent {
		similarity := embedding.Cosine(queryVector, docVectors[i])
		if profile.SimilarityThreshold > 0 && similarity <= profile.SimilarityThreshold {
			continue
		}
		ranked = append(ranked, scored{index: i, similarity: similarity})
	}

	// Stable: equal similarities keep input order.
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].similarity > ranked[b].similarity
	})

	out := make([]Passage, 0, maxRankedPassages)
	for _, entry := range ranked {
		if len(out) == maxRankedPassages {
			break
		}
		out = append(out, withContent[entry.index])
	}
	return out, nil
}

func head(passages []Passage, n int) []Passage {
	if len(passages) > n {
		return passages[:n]
	}
	return passages
}
