// Package suggest generates follow-up question suggestions from a
// conversation, used by the UI to offer next steps after an answer.
package suggest

import (
	"context"
	"strings"

	"github.com/SFDC-Veteran/planai-AI/internal/llm"
	"github.com/SFDC-Veteran/planai-AI/internal/pipeline"
)

const suggestionPrompt = `You are an AI suggestion generator for an AI powered search engine. You will be given a conversation below. You need to generate 4-5 suggestions based on the conversation. The suggestion should be relevant to the conversation that can be used by the user to ask the chat model for more information.
You need to make sure the suggestions are relevant to the conversation and are helpful to the user. Keep a note that the user might use these suggestions to ask a chat model for more information.
Make sure the suggestions are medium in length and are informative and relevant to the conversation.

Provide these suggestions separated by newlines between the XML tags <suggestions> and </suggestions>. For example:

<suggestions>
Tell me more about SpaceX and their recent projects
What is the latest news on SpaceX?
Who is the CEO of SpaceX?
</suggestions>

Conversation:
{chat_history}`

// Generator produces follow-up suggestions with a single model call.
type Generator struct {
	llm llm.Provider
}

func New(provider llm.Provider) *Generator {
	return &Generator{llm: provider}
}

// Suggestions returns one suggestion per line of the model's
// <suggestions> block. The call runs at temperature 0.
func (g *Generator) Suggestions(ctx context.Context, history []pipeline.Turn) ([]string, error) {
	prompt := strings.Replace(suggestionPrompt, "{chat_history}", pipeline.FormatHistory(history), 1)

	out, err := g.llm.Generate(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.Temperature(0))
	if err != nil {
		return nil, err
	}
	return parseSuggestions(out), nil
}

func parseSuggestions(out string) []string {
	start := strings.Index(out, "<suggestions>")
	end := strings.Index(out, "</suggestions>")
	if start < 0 || end < 0 || end < start {
		return nil
	}
	body := out[start+len("<suggestions>") : end]

	var suggestions []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			suggestions = append(suggestions, line)
		}
	}
	return suggestions
}
