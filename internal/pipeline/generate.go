package pipeline

import (
	"strings"
	"time"

	"github.com/SFDC-Veteran/planai-AI/internal/llm"
)

// answerMessages builds the chat messages for the final streaming
// call: the profile's response prompt with context and date injected,
// the conversation so far, then the user's literal query.
func (p *Pipeline) answerMessages(profile Profile, history []Turn, query, contextBlock string) []llm.Message {
	system := strings.NewReplacer(
		"{context}", contextBlock,
		"{date}", p.now().UTC().Format(time.RFC3339),
	).Replace(profile.ResponsePrompt)

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: system})
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return append(messages, llm.Message{Role: "user", Content: query})
}
