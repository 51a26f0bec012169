// Package weblink dereferences external links into text chunks the
// pipeline can summarize and cite.
package weblink

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// Document is one text chunk extracted from a fetched page.
type Document struct {
	Content string
	Title   string
	URL     string
}

type Fetcher struct {
	client     *http.Client
	chunkChars int
	parallel   int
}

const maxBodyBytes = 2 << 20

func NewFetcher(chunkChars, parallel int) *Fetcher {
	if chunkChars <= 0 {
		chunkChars = 1500
	}
	if parallel <= 0 {
		parallel = 4
	}
	return &Fetcher{
		client:     &http.Client{Timeout: 20 * time.Second},
		chunkChars: chunkChars,
		parallel:   parallel,
	}
}

// FetchDocuments dereferences each link and returns one Document per
// extracted chunk. A link that cannot be fetched contributes a single
// error document instead of failing the batch, so one dead link does
// not sink the rest.
func (f *Fetcher) FetchDocuments(ctx context.Context, links []string) ([]Document, error) {
	perLink := make([][]Document, len(links))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.parallel)
	for i, link := range links {
		i, link := i, link
		g.Go(func() error {
			docs, err := f.fetchOne(ctx, link)
			if err != nil {
				docs = []Document{{
					Content: fmt.Sprintf("Failed to retrieve content from the link: %v", err),
					Title:   link,
					URL:     link,
				}}
			}
			perLink[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Document
	for _, docs := range perLink {
		out = append(out, docs...)
	}
	return out, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, link string) ([]Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	title, text := extract(string(body))
	if title == "" {
		title = link
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no textual content")
	}

	var docs []Document
	for _, chunk := range splitChunks(text, f.chunkChars) {
		docs = append(docs, Document{Content: chunk, Title: title, URL: link})
	}
	return docs, nil
}

// extract parses HTML and returns the page title and the visible text.
// Non-HTML input falls through as plain text.
func extract(raw string) (string, string) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return "", raw
	}

	var title string
	var text strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		if n.Type == html.TextNode {
			trimmed := strings.TrimSpace(n.Data)
			if trimmed != "" {
				text.WriteString(trimmed)
				text.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title, strings.Join(strings.Fields(text.String()), " ")
}

// splitChunks splits text into chunks of at most limit characters,
// breaking on word boundaries where possible.
func splitChunks(text string, limit int) []string {
	words := strings.Fields(text)
	var chunks []string
	var current strings.Builder
	for _, word := range words {
		if current.Len() > 0 && current.Len()+1+len(word) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
