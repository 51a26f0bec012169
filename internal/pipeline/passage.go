package pipeline

// Passage is a retrieved or derived unit of text with source metadata,
// the atomic unit ranked and cited. Owned by a single pipeline
// invocation; never shared across requests.
type Passage struct {
	Content  string          `json:"pageContent"`
	Metadata PassageMetadata `json:"metadata"`
}

type PassageMetadata struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	ImgSrc      string `json:"img_src,omitempty"`
	TotalChunks int    `json:"totalChunks,omitempty"`
}
