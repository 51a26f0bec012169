package pipeline

import (
	"context"
	"strings"

	"github.com/SFDC-Veteran/planai-AI/internal/llm"
)

// summarizeSentinel is the reserved query meaning "no specific
// question, produce a general summary of the linked content".
const summarizeSentinel = "summarize"

// retrievalRequest is the outcome of query reformulation: either
// retrieval is not needed at all, or a standalone query with optional
// explicit links.
type retrievalRequest struct {
	query     string
	links     []string
	notNeeded bool
}

// reformulate rewrites a context-dependent follow-up into a standalone
// retrieval query. The model call runs at temperature 0 so rewriting
// stays deterministic.
func (p *Pipeline) reformulate(ctx context.Context, profile Profile, history []Turn, query string) (retrievalRequest, error) {
	prompt := strings.NewReplacer(
		"{chat_history}", FormatHistory(history),
		"{query}", query,
	).Replace(profile.RetrieverPrompt)

	out, err := p.llm.Generate(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.Temperature(0))
	if err != nil {
		return retrievalRequest{}, err
	}

	links := parseTagLines(out, "links")
	question, found := parseTag(out, "question")
	if !found {
		question = strings.TrimSpace(out)
	}

	if question == "not_needed" {
		return retrievalRequest{notNeeded: true}, nil
	}
	if len(links) > 0 && question == "" {
		question = summarizeSentinel
	}
	return retrievalRequest{query: question, links: links}, nil
}

// parseTag extracts the trimmed body of the first <key>...</key> block.
func parseTag(input, key string) (string, bool) {
	open := "<" + key + ">"
	closing := "</" + key + ">"
	start := strings.Index(input, open)
	if start < 0 {
		return "", false
	}
	rest := input[start+len(open):]
	end := strings.Index(rest, closing)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// parseTagLines extracts the body of a <key>...</key> block as trimmed,
// non-empty lines.
func parseTagLines(input, key string) []string {
	body, found := parseTag(input, key)
	if !found || body == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
