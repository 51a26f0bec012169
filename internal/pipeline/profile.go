package pipeline

// Profile describes one retrieval variant (focus mode). Variants are
// data: the pipeline code is shared and a Profile tells it which
// engines to query, which prompts to use and how to rank.
type Profile struct {
	Name     string
	Engines  []string
	Language string
	// RetrieverPrompt drives query reformulation. Empty means the
	// variant performs no retrieval at all and answers from the
	// conversation alone.
	RetrieverPrompt string
	ResponsePrompt  string
	// UsesReranking disables embedding-based reranking entirely when
	// false; such variants always keep source order.
	UsesReranking bool
	// SimilarityThreshold discards passages scoring at or below this
	// value before sorting. Zero keeps everything.
	SimilarityThreshold float64
}

var profiles = map[string]Profile{
	"webSearch": {
		Name:                "webSearch",
		Language:            "en",
		RetrieverPrompt:     webSearchRetrieverPrompt,
		ResponsePrompt:      webSearchResponsePrompt,
		UsesReranking:       true,
		SimilarityThreshold: 0.3,
	},
	"academicSearch": {
		Name:            "academicSearch",
		Engines:         []string{"arxiv", "google scholar", "pubmed"},
		Language:        "en",
		RetrieverPrompt: academicSearchRetrieverPrompt,
		ResponsePrompt:  academicSearchResponsePrompt,
		UsesReranking:   true,
	},
	"redditSearch": {
		Name:                "redditSearch",
		Engines:             []string{"reddit"},
		Language:            "en",
		RetrieverPrompt:     redditSearchRetrieverPrompt,
		ResponsePrompt:      redditSearchResponsePrompt,
		UsesReranking:       true,
		SimilarityThreshold: 0.3,
	},
	"youtubeSearch": {
		Name:                "youtubeSearch",
		Engines:             []string{"youtube"},
		Language:            "en",
		RetrieverPrompt:     youtubeSearchRetrieverPrompt,
		ResponsePrompt:      youtubeSearchResponsePrompt,
		UsesReranking:       true,
		SimilarityThreshold: 0.3,
	},
	"wolframAlphaSearch": {
		Name:            "wolframAlphaSearch",
		Engines:         []string{"wolframalpha"},
		Language:        "en",
		RetrieverPrompt: wolframAlphaRetrieverPrompt,
		ResponsePrompt:  wolframAlphaResponsePrompt,
		UsesReranking:   false,
	},
	"writingAssistant": {
		Name:           "writingAssistant",
		ResponsePrompt: writingAssistantPrompt,
	},
}

// ProfileByName resolves a focus mode name to its Profile.
func ProfileByName(name string) (Profile, bool) {
	profile, ok := profiles[name]
	return profile, ok
}

// ProfileNames lists the available focus modes.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	return names
}
