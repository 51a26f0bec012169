package pipeline

import (
	"context"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/SFDC-Veteran/planai-AI/internal/llm"
	"github.com/SFDC-Veteran/planai-AI/internal/weblink"
)

// maxChunksPerLink bounds how many fetched chunks are merged into one
// URL group before summarization, which in turn bounds the prompt size
// per source. Chunks past the cap for the same URL are dropped.
const maxChunksPerLink = 10

type linkGroup struct {
	title   string
	url     string
	content string
	chunks  int
}

// aggregate dereferences explicit links, groups the fetched chunks by
// URL and produces one summarized Passage per URL through a secondary
// model call. Groups are summarized concurrently; a failing group is
// dropped so its siblings still contribute to the answer.
func (p *Pipeline) aggregate(ctx context.Context, question string, links []string) ([]Passage, error) {
	docs, err := p.links.FetchDocuments(ctx, links)
	if err != nil {
		return nil, err
	}

	groups := groupByURL(docs)
	results := make([]*Passage, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			summary, err := p.summarizeGroup(gctx, question, group)
			if err != nil {
				log.Printf("dropping link group %s: summarization failed: %v", group.url, err)
				return nil
			}
			results[i] = &Passage{
				Content: summary,
				Metadata: PassageMetadata{
					Title:       group.title,
					URL:         group.url,
					TotalChunks: group.chunks,
				},
			}
			return nil
		})
	}
	_ = g.Wait()

	passages := make([]Passage, 0, len(results))
	for _, result := range results {
		if result != nil {
			passages = append(passages, *result)
		}
	}
	return passages, nil
}

// groupByURL merges chunks sharing an URL into a single group,
// concatenating content with a blank-line separator up to
// maxChunksPerLink chunks. Group order follows first appearance.
func groupByURL(docs []weblink.Document) []linkGroup {
	index := map[string]int{}
	var groups []linkGroup
	for _, doc := range docs {
		i, ok := index[doc.URL]
		if !ok {
			index[doc.URL] = len(groups)
			groups = append(groups, linkGroup{
				title:   doc.Title,
				url:     doc.URL,
				content: doc.Content,
				chunks:  1,
			})
			continue
		}
		if groups[i].chunks >= maxChunksPerLink {
			continue
		}
		groups[i].content += "\n\n" + doc.Content
		groups[i].chunks++
	}
	return groups
}

func (p *Pipeline) summarizeGroup(ctx context.Context, question string, group linkGroup) (string, error) {
	prompt := strings.NewReplacer(
		"{query}", question,
		"{text}", group.content,
	).Replace(linkSummarizationPrompt)

	return p.llm.Generate(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.Temperature(0))
}
