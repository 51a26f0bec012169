package pipeline

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SFDC-Veteran/planai-AI/internal/llm"
	"github.com/SFDC-Veteran/planai-AI/internal/search"
	"github.com/SFDC-Veteran/planai-AI/internal/weblink"
)

type generateCall struct {
	prompt string
	opts   llm.Options
}

type fakeProvider struct {
	mu            sync.Mutex
	generateFunc  func(prompt string) (string, error)
	generateCalls []generateCall
	streamChunks  []string
	streamErr     error
	streamMidErr  error
	streamCalls   int
}

func (f *fakeProvider) Generate(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	prompt := messages[len(messages)-1].Content
	f.mu.Lock()
	f.generateCalls = append(f.generateCalls, generateCall{prompt: prompt, opts: opts})
	f.mu.Unlock()
	return f.generateFunc(prompt)
}

func (f *fakeProvider) Stream(ctx context.Context, messages []llm.Message, opts llm.Options) (<-chan llm.StreamDelta, error) {
	f.mu.Lock()
	f.streamCalls++
	f.mu.Unlock()
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	ch := make(chan llm.StreamDelta)
	go func() {
		defer close(ch)
		for _, chunk := range f.streamChunks {
			select {
			case ch <- llm.StreamDelta{Content: chunk}:
			case <-ctx.Done():
				return
			}
		}
		if f.streamMidErr != nil {
			select {
			case ch <- llm.StreamDelta{Err: f.streamMidErr}:
			case <-ctx.Done():
			}
		}
	}()
	return ch, nil
}

func (f *fakeProvider) calls() []generateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]generateCall(nil), f.generateCalls...)
}

type fakeSearcher struct {
	results []search.Result
	err     error
	calls   int
	queries []string
	opts    []search.Options
}

func (f *fakeSearcher) Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error) {
	f.calls++
	f.queries = append(f.queries, query)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeEmbedder struct {
	queryCalls int
	docCalls   int
	queryVec   []float64
	docVecs    map[string][]float64
	err        error
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	f.queryCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.queryVec, nil
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	f.docCalls++
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = f.docVecs[text]
	}
	return vectors, nil
}

type fakeLinkFetcher struct {
	docs  []weblink.Document
	err   error
	calls int
}

func (f *fakeLinkFetcher) FetchDocuments(ctx context.Context, links []string) ([]weblink.Document, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

func reformulatorOutput(question string, links ...string) string {
	out := "<question>\n" + question + "\n</question>\n"
	if len(links) > 0 {
		out += "<links>\n" + strings.Join(links, "\n") + "\n</links>\n"
	}
	return out
}

func newTestPipeline(provider *fakeProvider, embedder *fakeEmbedder, searcher *fakeSearcher, links *fakeLinkFetcher) *Pipeline {
	p := New(provider, embedder, searcher, links)
	p.now = func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func collectEvents(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, event)
		case <-timeout:
			t.Fatalf("timed out waiting for events, got %d so far", len(events))
		}
	}
}

func mustProfile(t *testing.T, name string) Profile {
	t.Helper()
	profile, ok := ProfileByName(name)
	if !ok {
		t.Fatalf("unknown profile %s", name)
	}
	return profile
}

// assertEventShape checks the sequence matches: sources, response*,
// exactly one terminal end or error.
func assertEventShape(t *testing.T, events []Event) {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("no events emitted")
	}
	terminal := events[len(events)-1]
	if terminal.Type != EventEnd && terminal.Type != EventError {
		t.Fatalf("last event is %s, want terminal", terminal.Type)
	}
	for i, event := range events[:len(events)-1] {
		switch event.Type {
		case EventEnd, EventError:
			t.Fatalf("terminal event %s at position %d before the end", event.Type, i)
		case EventSources:
			if i != 0 {
				t.Fatalf("sources event at position %d, want 0", i)
			}
		}
	}
	if events[0].Type != EventSources && events[0].Type != EventError {
		t.Fatalf("first event is %s, want sources or error", events[0].Type)
	}
}

func TestRun_NotNeededSkipsRetrieval(t *testing.T) {
	provider := &fakeProvider{
		generateFunc: func(string) (string, error) { return "not_needed", nil },
		streamChunks: []string{"should", "not", "stream"},
	}
	searcher := &fakeSearcher{}
	embedder := &fakeEmbedder{}
	p := newTestPipeline(provider, embedder, searcher, &fakeLinkFetcher{})

	events := collectEvents(t, p.Run(context.Background(), mustProfile(t, "webSearch"), "hello there", nil, ModeBalanced))

	if len(events) != 2 {
		t.Fatalf("expected exactly sources+end, got %d events", len(events))
	}
	if events[0].Type != EventSources || len(events[0].Sources) != 0 {
		t.Errorf("expected empty sources event, got %+v", events[0])
	}
	if events[1].Type != EventEnd {
		t.Errorf("expected end event, got %s", events[1].Type)
	}
	if searcher.calls != 0 {
		t.Errorf("search service called %d times, want 0", searcher.calls)
	}
	if provider.streamCalls != 0 {
		t.Errorf("generator called %d times, want 0", provider.streamCalls)
	}
}

func TestRun_SpeedEndToEnd(t *testing.T) {
	provider := &fakeProvider{
		generateFunc: func(string) (string, error) {
			return reformulatorOutput("What is Docker?"), nil
		},
		streamChunks: []string{"Docker is", " a container platform", " [1]"},
	}
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "Docker overview", URL: "https://docs.docker.com", Content: "Docker is a platform"},
		{Title: "Docker wiki", URL: "https://en.wikipedia.org/wiki/Docker", Content: "Docker is software"},
		{Title: "Docker hub", URL: "https://hub.docker.com", Content: "Registry for images"},
	}}
	embedder := &fakeEmbedder{}
	p := newTestPipeline(provider, embedder, searcher, &fakeLinkFetcher{})

	events := collectEvents(t, p.Run(context.Background(), mustProfile(t, "webSearch"), "What is Docker?", nil, ModeSpeed))
	assertEventShape(t, events)

	if len(events[0].Sources) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(events[0].Sources))
	}
	// Speed mode keeps the search order.
	if events[0].Sources[0].Metadata.Title != "Docker overview" ||
		events[0].Sources[2].Metadata.Title != "Docker hub" {
		t.Errorf("sources reordered in speed mode: %+v", events[0].Sources)
	}
	var deltas int
	var answer string
	for _, event := range events {
		if event.Type == EventResponse {
			deltas++
			answer += event.Delta
		}
	}
	if deltas == 0 {
		t.Fatal("expected response deltas")
	}
	if answer != "Docker is a container platform [1]" {
		t.Errorf("unexpected assembled answer: %q", answer)
	}
	if events[len(events)-1].Type != EventEnd {
		t.Errorf("expected end, got %s", events[len(events)-1].Type)
	}
	if embedder.queryCalls != 0 || embedder.docCalls != 0 {
		t.Errorf("speed mode invoked embeddings: query=%d docs=%d", embedder.queryCalls, embedder.docCalls)
	}
	if searcher.opts[0].Language != "en" {
		t.Errorf("expected language hint en, got %q", searcher.opts[0].Language)
	}
}

func TestRun_BalancedEmbedsExactlyOnce(t *testing.T) {
	provider := &fakeProvider{
		generateFunc: func(string) (string, error) {
			return reformulatorOutput("docker networking"), nil
		},
		streamChunks: []string{"answer"},
	}
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "weak", URL: "u1", Content: "weak match"},
		{Title: "strong", URL: "u2", Content: "strong match"},
		{Title: "medium", URL: "u3", Content: "medium match"},
	}}
	embedder := &fakeEmbedder{
		queryVec: []float64{1, 0},
		docVecs: map[string][]float64{
			"weak match":   {0.2, 0.98},  // below threshold
			"strong match": {0.99, 0.1},  // high
			"medium match": {0.75, 0.66}, // above threshold, lower
		},
	}
	p := newTestPipeline(provider, embedder, searcher, &fakeLinkFetcher{})

	events := collectEvents(t, p.Run(context.Background(), mustProfile(t, "webSearch"), "how does docker networking work", nil, ModeBalanced))
	assertEventShape(t, events)

	if embedder.queryCalls != 1 {
		t.Errorf("EmbedQuery called %d times, want 1", embedder.queryCalls)
	}
	if embedder.docCalls != 1 {
		t.Errorf("EmbedDocuments called %d times, want 1", embedder.docCalls)
	}
	sources := events[0].Sources
	if len(sources) != 2 {
		t.Fatalf("expected threshold to drop one passage, got %d", len(sources))
	}
	if sources[0].Metadata.Title != "strong" || sources[1].Metadata.Title != "medium" {
		t.Errorf("expected descending similarity order, got %+v", sources)
	}
}

func TestRun_QualityBehavesLikeBalanced(t *testing.T) {
	provider := &fakeProvider{
		generateFunc: func(string) (string, error) {
			return reformulatorOutput("docker networking"), nil
		},
		streamChunks: []string{"answer"},
	}
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "a", URL: "u1", Content: "first"},
		{Title: "b", URL: "u2", Content: "second"},
	}}
	embedder := &fakeEmbedder{
		queryVec: []float64{1, 0},
		docVecs: map[string][]float64{
			"first":  {0.9, 0.1},
			"second": {0.95, 0.05},
		},
	}
	p := newTestPipeline(provider, embedder, searcher, &fakeLinkFetcher{})

	events := collectEvents(t, p.Run(context.Background(), mustProfile(t, "webSearch"), "q", nil, ModeQuality))
	assertEventShape(t, events)
	if embedder.queryCalls != 1 || embedder.docCalls != 1 {
		t.Errorf("quality mode embeddings: query=%d docs=%d, want 1/1", embedder.queryCalls, embedder.docCalls)
	}
}

func TestRun_SummarizeLinksSkipsRanking(t *testing.T) {
	docs := make([]weblink.Document, 12)
	for i := range docs {
		docs[i] = weblink.Document{
			Content: "chunk-" + string(rune('A'+i)),
			Title:   "Example",
			URL:     "https://example.com",
		}
	}
	var summaryPrompt string
	provider := &fakeProvider{
		streamChunks: []string{"summary answer"},
	}
	provider.generateFunc = func(prompt string) (string, error) {
		if strings.Contains(prompt, "Follow up question") {
			return reformulatorOutput("summarize", "https://example.com"), nil
		}
		summaryPrompt = prompt
		return "merged summary", nil
	}
	embedder := &fakeEmbedder{}
	p := newTestPipeline(provider, embedder, &fakeSearcher{}, &fakeLinkFetcher{docs: docs})

	events := collectEvents(t, p.Run(context.Background(), mustProfile(t, "webSearch"), "Summarize https://example.com", nil, ModeBalanced))
	assertEventShape(t, events)

	sources := events[0].Sources
	if len(sources) != 1 {
		t.Fatalf("expected one summarized passage, got %d", len(sources))
	}
	if sources[0].Content != "merged summary" {
		t.Errorf("unexpected passage content %q", sources[0].Content)
	}
	if sources[0].Metadata.URL != "https://example.com" || sources[0].Metadata.Title != "Example" {
		t.Errorf("summary passage lost source metadata: %+v", sources[0].Metadata)
	}
	if sources[0].Metadata.TotalChunks != maxChunksPerLink {
		t.Errorf("TotalChunks = %d, want %d", sources[0].Metadata.TotalChunks, maxChunksPerLink)
	}
	// The summarize guard keeps the aggregator output order and never
	// touches the embedding provider.
	if embedder.queryCalls != 0 || embedder.docCalls != 0 {
		t.Errorf("summarize request invoked embeddings: query=%d docs=%d", embedder.queryCalls, embedder.docCalls)
	}
	// First 10 chunks merged, 11th and 12th dropped.
	for _, want := range []string{"chunk-A", "chunk-J"} {
		if !strings.Contains(summaryPrompt, want) {
			t.Errorf("summary prompt missing %s", want)
		}
	}
	for _, dropped := range []string{"chunk-K", "chunk-L"} {
		if strings.Contains(summaryPrompt, dropped) {
			t.Errorf("summary prompt includes dropped chunk %s", dropped)
		}
	}
}

func TestRun_SearchFailureEmitsSingleError(t *testing.T) {
	provider := &fakeProvider{
		generateFunc: func(string) (string, error) {
			return reformulatorOutput("docker"), nil
		},
	}
	searcher := &fakeSearcher{err: errors.New("searxng unreachable")}
	p := newTestPipeline(provider, &fakeEmbedder{}, searcher, &fakeLinkFetcher{})

	events := collectEvents(t, p.Run(context.Background(), mustProfile(t, "webSearch"), "docker", nil, ModeSpeed))

	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	if events[0].Type != EventError {
		t.Fatalf("expected error event, got %s", events[0].Type)
	}
	if events[0].Message != genericFailureMessage {
		t.Errorf("error message leaked internals: %q", events[0].Message)
	}
}

func TestRun_MidStreamFailureTerminatesWithError(t *testing.T) {
	provider := &fakeProvider{
		generateFunc: func(string) (string, error) {
			return reformulatorOutput("docker"), nil
		},
		streamChunks: []string{"partial "},
		streamMidErr: errors.New("connection reset"),
	}
	searcher := &fakeSearcher{results: []search.Result{{Title: "t", URL: "u", Content: "c"}}}
	p := newTestPipeline(provider, &fakeEmbedder{}, searcher, &fakeLinkFetcher{})

	events := collectEvents(t, p.Run(context.Background(), mustProfile(t, "webSearch"), "docker", nil, ModeSpeed))
	assertEventShape(t, events)

	terminal := events[len(events)-1]
	if terminal.Type != EventError {
		t.Fatalf("expected error terminal, got %s", terminal.Type)
	}
	if strings.Contains(terminal.Message, "connection reset") {
		t.Errorf("raw error exposed to consumer: %q", terminal.Message)
	}
	var terminals int
	for _, event := range events {
		if event.Type == EventEnd || event.Type == EventError {
			terminals++
		}
	}
	if terminals != 1 {
		t.Errorf("expected exactly one terminal event, got %d", terminals)
	}
}

func TestRun_WritingAssistantSkipsRetrievalEntirely(t *testing.T) {
	provider := &fakeProvider{
		generateFunc: func(string) (string, error) {
			t.Error("writing assistant must not call Generate")
			return "", nil
		},
		streamChunks: []string{"Here is", " my analysis"},
	}
	searcher := &fakeSearcher{}
	p := newTestPipeline(provider, &fakeEmbedder{}, searcher, &fakeLinkFetcher{})

	history := []Turn{{Role: "user", Content: "I want to build a note app"}}
	events := collectEvents(t, p.Run(context.Background(), mustProfile(t, "writingAssistant"), "analyze the risks", history, ModeBalanced))
	assertEventShape(t, events)

	if len(events[0].Sources) != 0 {
		t.Errorf("expected empty sources, got %d", len(events[0].Sources))
	}
	if searcher.calls != 0 {
		t.Errorf("search called %d times, want 0", searcher.calls)
	}
	if events[len(events)-1].Type != EventEnd {
		t.Errorf("expected end terminal, got %s", events[len(events)-1].Type)
	}
}

func TestRun_WolframNeverEmbeds(t *testing.T) {
	provider := &fakeProvider{
		generateFunc: func(string) (string, error) {
			return reformulatorOutput("integral of x^2"), nil
		},
		streamChunks: []string{"x^3/3 + C"},
	}
	searcher := &fakeSearcher{results: []search.Result{{Title: "wa", URL: "u", Content: "x^3/3"}}}
	embedder := &fakeEmbedder{}
	p := newTestPipeline(provider, embedder, searcher, &fakeLinkFetcher{})

	events := collectEvents(t, p.Run(context.Background(), mustProfile(t, "wolframAlphaSearch"), "integrate x squared", nil, ModeQuality))
	assertEventShape(t, events)

	if embedder.queryCalls != 0 || embedder.docCalls != 0 {
		t.Errorf("reranking-disabled profile invoked embeddings: query=%d docs=%d", embedder.queryCalls, embedder.docCalls)
	}
	if searcher.opts[0].Engines[0] != "wolframalpha" {
		t.Errorf("expected wolframalpha engine, got %v", searcher.opts[0].Engines)
	}
}

func TestRun_AbandonedConsumerReleasesGoroutine(t *testing.T) {
	const invocations = 20
	before := runtime.NumGoroutine()

	for i := 0; i < invocations; i++ {
		provider := &fakeProvider{
			generateFunc: func(string) (string, error) {
				return reformulatorOutput("docker"), nil
			},
			streamChunks: []string{"a", "b", "c", "d"},
		}
		searcher := &fakeSearcher{results: []search.Result{{Title: "t", URL: "u", Content: "c"}}}
		p := newTestPipeline(provider, &fakeEmbedder{}, searcher, &fakeLinkFetcher{})

		ctx, cancel := context.WithCancel(context.Background())
		events := p.Run(ctx, mustProfile(t, "webSearch"), "docker", nil, ModeSpeed)
		// Read one event, then walk away like a dropped client.
		<-events
		cancel()
	}

	deadline := time.After(2 * time.Second)
	for runtime.NumGoroutine() > before+2 {
		select {
		case <-deadline:
			t.Fatalf("goroutines before=%d after=%d, pipeline goroutines not released", before, runtime.NumGoroutine())
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestRun_ReformulationUsesTemperatureZero(t *testing.T) {
	provider := &fakeProvider{
		generateFunc: func(string) (string, error) {
			return reformulatorOutput("docker"), nil
		},
		streamChunks: []string{"ok"},
	}
	searcher := &fakeSearcher{results: []search.Result{{Title: "t", URL: "u", Content: "c"}}}
	p := newTestPipeline(provider, &fakeEmbedder{}, searcher, &fakeLinkFetcher{})

	collectEvents(t, p.Run(context.Background(), mustProfile(t, "webSearch"), "docker", nil, ModeSpeed))

	calls := provider.calls()
	if len(calls) != 1 {
		t.Fatalf("expected one Generate call, got %d", len(calls))
	}
	if calls[0].opts.Temperature == nil || *calls[0].opts.Temperature != 0 {
		t.Error("reformulation call must run at temperature 0")
	}
}
