package pipeline

// Turn is one conversation message. Role is "user" or "assistant".
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FormatHistory renders a conversation as flat "role: text" lines for
// prompt interpolation.
func FormatHistory(history []Turn) string {
	out := ""
	for _, turn := range history {
		out += turn.Role + ": " + turn.Content + "\n"
	}
	return out
}
