package suggest

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/SFDC-Veteran/planai-AI/internal/llm"
	"github.com/SFDC-Veteran/planai-AI/internal/pipeline"
)

type fakeProvider struct {
	output string
	err    error
	prompt string
	opts   llm.Options
}

func (f *fakeProvider) Generate(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	f.prompt = messages[len(messages)-1].Content
	f.opts = opts
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func (f *fakeProvider) Stream(ctx context.Context, messages []llm.Message, opts llm.Options) (<-chan llm.StreamDelta, error) {
	return nil, errors.New("not implemented")
}

func TestSuggestions(t *testing.T) {
	provider := &fakeProvider{output: `Here are some ideas:
<suggestions>
Tell me more about Docker networking
 How do Docker volumes work?

What is the difference between Docker and Podman?
</suggestions>`}
	g := New(provider)

	history := []pipeline.Turn{
		{Role: "user", Content: "what is docker"},
		{Role: "assistant", Content: "Docker is a container platform."},
	}
	got, err := g.Suggestions(context.Background(), history)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"Tell me more about Docker networking",
		"How do Docker volumes work?",
		"What is the difference between Docker and Podman?",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("suggestions = %v, want %v", got, want)
	}
	if !strings.Contains(provider.prompt, "user: what is docker") {
		t.Error("conversation not interpolated into prompt")
	}
	if provider.opts.Temperature == nil || *provider.opts.Temperature != 0 {
		t.Error("suggestions must run at temperature 0")
	}
}

func TestSuggestions_MissingBlock(t *testing.T) {
	g := New(&fakeProvider{output: "no tags here"})
	got, err := g.Suggestions(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil suggestions, got %v", got)
	}
}

func TestSuggestions_ProviderError(t *testing.T) {
	g := New(&fakeProvider{err: errors.New("model down")})
	if _, err := g.Suggestions(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}
