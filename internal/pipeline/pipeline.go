// Package pipeline implements the shared retrieval-rerank-generate
// pipeline behind every focus mode: reformulate the query, fetch
// candidate passages, rank them, and stream a cited answer as a
// sequence of typed events.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/SFDC-Veteran/planai-AI/internal/embedding"
	"github.com/SFDC-Veteran/planai-AI/internal/llm"
	"github.com/SFDC-Veteran/planai-AI/internal/search"
	"github.com/SFDC-Veteran/planai-AI/internal/weblink"
)

type Searcher interface {
	Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error)
}

type LinkFetcher interface {
	FetchDocuments(ctx context.Context, links []string) ([]weblink.Document, error)
}

type Pipeline struct {
	llm    llm.Provider
	embed  embedding.Embedder
	search Searcher
	links  LinkFetcher
	now    func() time.Time
}

func New(provider llm.Provider, embedder embedding.Embedder, searcher Searcher, links LinkFetcher) *Pipeline {
	return &Pipeline{
		llm:    provider,
		embed:  embedder,
		search: searcher,
		links:  links,
		now:    time.Now,
	}
}

// Run executes the pipeline for one invocation and returns its event
// channel immediately. The channel is single-subscriber and closed
// after the terminal event; the emitted sequence is always one
// sources event, then response deltas, then exactly one end or error.
// Failures anywhere become a single error event with a generic
// message; the real error is logged and never exposed.
func (p *Pipeline) Run(ctx context.Context, profile Profile, query string, history []Turn, mode OptimizationMode) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		if err := p.run(ctx, profile, query, history, mode, events); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("pipeline %s failed: %v", profile.Name, err)
			emit(ctx, events, Event{Type: EventError, Message: genericFailureMessage})
		}
	}()
	return events
}

// emit delivers an event unless the invocation's context is done. A
// consumer that stops reading must not wedge the pipeline goroutine
// on a blocked send.
func emit(ctx context.Context, out chan<- Event, event Event) bool {
	select {
	case out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Pipeline) run(ctx context.Context, profile Profile, query string, history []Turn, mode OptimizationMode, out chan<- Event) error {
	var passages []Passage
	if profile.RetrieverPrompt != "" {
		request, err := p.reformulate(ctx, profile, history, query)
		if err != nil {
			return fmt.Errorf("reformulate: %w", err)
		}
		if request.notNeeded {
			if !emit(ctx, out, Event{Type: EventSources, Sources: []Passage{}}) {
				return ctx.Err()
			}
			emit(ctx, out, Event{Type: EventEnd})
			return nil
		}

		if len(request.links) > 0 {
			passages, err = p.aggregate(ctx, request.query, request.links)
			if err != nil {
				return fmt.Errorf("aggregate links: %w", err)
			}
		} else {
			passages, err = p.fetch(ctx, profile, request.query)
			if err != nil {
				return fmt.Errorf("fetch sources: %w", err)
			}
		}

		passages, err = p.rank(ctx, profile, mode, request.query, passages)
		if err != nil {
			return fmt.Errorf("rank sources: %w", err)
		}
	}

	sources := passages
	if sources == nil {
		sources = []Passage{}
	}
	if !emit(ctx, out, Event{Type: EventSources, Sources: sources}) {
		return ctx.Err()
	}

	deltas, err := p.llm.Stream(ctx, p.answerMessages(profile, history, query, assemble(passages)), llm.Options{})
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	for delta := range deltas {
		if delta.Err != nil {
			return fmt.Errorf("generate stream: %w", delta.Err)
		}
		if !emit(ctx, out, Event{Type: EventResponse, Delta: delta.Content}) {
			return ctx.Err()
		}
	}

	emit(ctx, out, Event{Type: EventEnd})
	return nil
}

// fetch queries the search index restricted to the profile's engine
// set and language hint, mapping each result to a Passage.
func (p *Pipeline) fetch(ctx context.Context, profile Profile, query string) ([]Passage, error) {
	results, err := p.search.Search(ctx, query, search.Options{
		Language: profile.Language,
		Engines:  profile.Engines,
	})
	if err != nil {
		return nil, err
	}

	passages := make([]Passage, 0, len(results))
	for _, result := range results {
		passages = append(passages, Passage{
			Content: result.Content,
			Metadata: PassageMetadata{
				Title:  result.Title,
				URL:    result.URL,
				ImgSrc: result.ImgSrc,
			},
		})
	}
	return passages, nil
}
