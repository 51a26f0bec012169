package api

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/SFDC-Veteran/planai-AI/internal/config"
	"github.com/SFDC-Veteran/planai-AI/internal/media"
	"github.com/SFDC-Veteran/planai-AI/internal/pipeline"
	"github.com/SFDC-Veteran/planai-AI/internal/store"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateChat(ctx context.Context, chat store.Chat) error {
	args := m.Called(ctx, chat)
	return args.Error(0)
}

func (m *MockStore) ListChats(ctx context.Context) ([]store.ChatSummary, error) {
	args := m.Called(ctx)
	var result []store.ChatSummary
	if value := args.Get(0); value != nil {
		result = value.([]store.ChatSummary)
	}
	return result, args.Error(1)
}

func (m *MockStore) GetChat(ctx context.Context, chatID string) (*store.Chat, error) {
	args := m.Called(ctx, chatID)
	if value := args.Get(0); value != nil {
		return value.(*store.Chat), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) DeleteChat(ctx context.Context, chatID string) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *MockStore) AddMessage(ctx context.Context, msg store.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockStore) ListMessages(ctx context.Context, chatID string) ([]store.Message, error) {
	args := m.Called(ctx, chatID)
	var result []store.Message
	if value := args.Get(0); value != nil {
		result = value.([]store.Message)
	}
	return result, args.Error(1)
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) Run(ctx context.Context, profile pipeline.Profile, query string, history []pipeline.Turn, mode pipeline.OptimizationMode) <-chan pipeline.Event {
	args := m.Called(ctx, profile, query, history, mode)
	return args.Get(0).(<-chan pipeline.Event)
}

type MockSuggester struct {
	mock.Mock
}

func (m *MockSuggester) Suggestions(ctx context.Context, history []pipeline.Turn) ([]string, error) {
	args := m.Called(ctx, history)
	var result []string
	if value := args.Get(0); value != nil {
		result = value.([]string)
	}
	return result, args.Error(1)
}

type MockMedia struct {
	mock.Mock
}

func (m *MockMedia) Images(ctx context.Context, history []pipeline.Turn, query string) ([]media.Image, error) {
	args := m.Called(ctx, history, query)
	var result []media.Image
	if value := args.Get(0); value != nil {
		result = value.([]media.Image)
	}
	return result, args.Error(1)
}

func (m *MockMedia) Videos(ctx context.Context, history []pipeline.Turn, query string) ([]media.Video, error) {
	args := m.Called(ctx, history, query)
	var result []media.Video
	if value := args.Get(0); value != nil {
		result = value.([]media.Video)
	}
	return result, args.Error(1)
}

// eventChannel wraps a prepared event slice in the receive-only
// channel the pipeline service returns.
func eventChannel(events ...pipeline.Event) <-chan pipeline.Event {
	ch := make(chan pipeline.Event, len(events))
	for _, event := range events {
		ch <- event
	}
	close(ch)
	return ch
}

func newTestServer(t *testing.T, storeMock store.Store, pipe PipelineService, suggester SuggestionService, mediaSvc MediaService, cfg config.Config) *httptest.Server {
	t.Helper()
	server := NewServer(storeMock, pipe, suggester, mediaSvc, cfg)
	return httptest.NewServer(server.Router())
}
