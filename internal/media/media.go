// Package media finds images and videos related to a conversation by
// rephrasing the follow-up into a standalone query and hitting the
// media engines of the metasearch service.
package media

import (
	"context"
	"strings"

	"github.com/SFDC-Veteran/planai-AI/internal/llm"
	"github.com/SFDC-Veteran/planai-AI/internal/pipeline"
	"github.com/SFDC-Veteran/planai-AI/internal/search"
)

const maxResults = 10

const imageQueryPrompt = `You will be given a conversation below and a follow up question. You need to rephrase the follow-up question so it is a standalone question that can be used by the LLM to search the web for images.
You need to make sure the rephrased question agrees with the conversation and is relevant to the conversation.

Example:
1. Follow up question: What is a cat?
Rephrased: A cat

2. Follow up question: What is a car? How does it work?
Rephrased: Car working

3. Follow up question: How does an AC work?
Rephrased: AC working

Conversation:
{chat_history}

Follow up question: {query}
Rephrased question:`

const videoQueryPrompt = `You will be given a conversation below and a follow up question. You need to rephrase the follow-up question so it is a standalone question that can be used by the LLM to search Youtube for videos.
You need to make sure the rephrased question agrees with the conversation and is relevant to the conversation.

Example:
1. Follow up question: How does a car work?
Rephrased: How does a car work?

2. Follow up question: What is the theory of relativity?
Rephrased: Theory of relativity

3. Follow up question: How does an AC work?
Rephrased: AC working

Conversation:
{chat_history}

Follow up question: {query}
Rephrased question:`

// Image is one image search hit with everything the UI needs to
// render a tile.
type Image struct {
	Img   string `json:"img_src"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Video is one video search hit. Iframe is the embeddable player URL.
type Video struct {
	Thumbnail string `json:"img_src"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Iframe    string `json:"iframe_src"`
}

// Searcher issues one metasearch query. Satisfied by
// search.Client.
type Searcher interface {
	Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error)
}

type Finder struct {
	llm    llm.Provider
	search Searcher
}

func New(provider llm.Provider, searcher Searcher) *Finder {
	return &Finder{llm: provider, search: searcher}
}

// Images returns up to 10 image hits for the conversation's follow-up
// question. Hits missing any of source image, URL or title are
// dropped.
func (f *Finder) Images(ctx context.Context, history []pipeline.Turn, query string) ([]Image, error) {
	standalone, err := f.rephrase(ctx, imageQueryPrompt, history, query)
	if err != nil {
		return nil, err
	}
	results, err := f.search.Search(ctx, standalone, search.Options{
		Engines: []string{"bing images", "google images"},
	})
	if err != nil {
		return nil, err
	}

	images := make([]Image, 0, maxResults)
	for _, result := range results {
		if result.ImgSrc == "" || result.URL == "" || result.Title == "" {
			continue
		}
		images = append(images, Image{Img: result.ImgSrc, URL: result.URL, Title: result.Title})
		if len(images) == maxResults {
			break
		}
	}
	return images, nil
}

// Videos returns up to 10 youtube hits. Hits missing a thumbnail,
// URL, title or embeddable player are dropped.
func (f *Finder) Videos(ctx context.Context, history []pipeline.Turn, query string) ([]Video, error) {
	standalone, err := f.rephrase(ctx, videoQueryPrompt, history, query)
	if err != nil {
		return nil, err
	}
	results, err := f.search.Search(ctx, standalone, search.Options{
		Engines: []string{"youtube"},
	})
	if err != nil {
		return nil, err
	}

	videos := make([]Video, 0, maxResults)
	for _, result := range results {
		if result.Thumbnail == "" || result.URL == "" || result.Title == "" || result.IframeSrc == "" {
			continue
		}
		videos = append(videos, Video{
			Thumbnail: result.Thumbnail,
			URL:       result.URL,
			Title:     result.Title,
			Iframe:    result.IframeSrc,
		})
		if len(videos) == maxResults {
			break
		}
	}
	return videos, nil
}

func (f *Finder) rephrase(ctx context.Context, prompt string, history []pipeline.Turn, query string) (string, error) {
	filled := strings.NewReplacer(
		"{chat_history}", pipeline.FormatHistory(history),
		"{query}", query,
	).Replace(prompt)

	out, err := f.llm.Generate(ctx, []llm.Message{{Role: "user", Content: filled}}, llm.Temperature(0))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
