package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/SFDC-Veteran/planai-AI/internal/config"
	"github.com/SFDC-Veteran/planai-AI/internal/media"
	"github.com/SFDC-Veteran/planai-AI/internal/pipeline"
	"github.com/SFDC-Veteran/planai-AI/internal/store"
)

type Server struct {
	store      store.Store
	pipeline   PipelineService
	suggester  SuggestionService
	media      MediaService
	cfg        config.Config
	httpClient *http.Client
}

type PipelineService interface {
	Run(ctx context.Context, profile pipeline.Profile, query string, history []pipeline.Turn, mode pipeline.OptimizationMode) <-chan pipeline.Event
}

type SuggestionService interface {
	Suggestions(ctx context.Context, history []pipeline.Turn) ([]string, error)
}

type MediaService interface {
	Images(ctx context.Context, history []pipeline.Turn, query string) ([]media.Image, error)
	Videos(ctx context.Context, history []pipeline.Turn, query string) ([]media.Video, error)
}

// NewServer wires the HTTP surface. store may be nil when chat
// persistence is not configured; chat routes then report 503.
func NewServer(store store.Store, pipe PipelineService, suggester SuggestionService, media MediaService, cfg config.Config) *Server {
	return &Server{
		store:      store,
		pipeline:   pipe,
		suggester:  suggester,
		media:      media,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Post("/api/search", s.search)
	r.Post("/api/images", s.images)
	r.Post("/api/videos", s.videos)
	r.Post("/api/suggestions", s.suggestions)
	r.Get("/api/profiles", s.listProfiles)
	r.Get("/api/chats", s.listChats)
	r.Get("/api/chats/{id}", s.getChat)
	r.Delete("/api/chats/{id}", s.deleteChat)
	r.Get("/health", s.health)
	r.Get("/ready", s.ready)

	return r
}

type searchRequest struct {
	Query            string          `json:"query"`
	History          []pipeline.Turn `json:"history"`
	FocusMode        string          `json:"focusMode"`
	OptimizationMode string          `json:"optimizationMode"`
	ChatID           string          `json:"chatId"`
}

// search runs the answer pipeline and streams its events over SSE.
// When a chat id is supplied and a store is configured, the exchange
// is persisted once the stream completes.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}
	focus := req.FocusMode
	if focus == "" {
		focus = "webSearch"
	}
	profile, ok := pipeline.ProfileByName(focus)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown focus mode %q", focus), http.StatusBadRequest)
		return
	}
	mode, err := parseOptimizationMode(req.OptimizationMode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	events := s.pipeline.Run(ctx, profile, req.Query, req.History, mode)
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	var answer strings.Builder
	var sources []pipeline.Passage
	completed := false
	for events != nil {
		select {
		case event, ok := <-events:
			if !ok {
				events = nil
				break
			}
			sendSSE(w, event)
			flusher.Flush()
			switch event.Type {
			case pipeline.EventSources:
				sources = event.Sources
			case pipeline.EventResponse:
				answer.WriteString(event.Delta)
			case pipeline.EventEnd:
				completed = true
			}
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}

	if completed && s.store != nil && strings.TrimSpace(req.ChatID) != "" {
		s.persistExchange(req, profile.Name, answer.String(), sources)
	}
}

// persistExchange saves the user question and the assistant answer.
// Runs after the stream already finished, so persistence errors cannot
// reach the client and are dropped.
func (s *Server) persistExchange(req searchRequest, profileName, answer string, sources []pipeline.Passage) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	chat, err := s.store.GetChat(ctx, req.ChatID)
	if err != nil {
		return
	}
	if chat == nil {
		title := req.Query
		if runes := []rune(title); len(runes) > 120 {
			title = string(runes[:120])
		}
		if err := s.store.CreateChat(ctx, store.Chat{
			ID:        req.ChatID,
			Title:     title,
			Profile:   profileName,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return
		}
	}
	_ = s.store.AddMessage(ctx, store.Message{
		ID:        uuid.NewString(),
		ChatID:    req.ChatID,
		Role:      "user",
		Content:   req.Query,
		CreatedAt: now,
		Metadata:  map[string]any{},
	})
	sourcesJSON, _ := json.Marshal(sources)
	var sourcesMeta any
	_ = json.Unmarshal(sourcesJSON, &sourcesMeta)
	_ = s.store.AddMessage(ctx, store.Message{
		ID:        uuid.NewString(),
		ChatID:    req.ChatID,
		Role:      "assistant",
		Content:   answer,
		CreatedAt: now,
		Metadata:  map[string]any{"sources": sourcesMeta},
	})
}

func sendSSE(w http.ResponseWriter, event pipeline.Event) {
	payload, _ := json.Marshal(event)
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

func parseOptimizationMode(raw string) (pipeline.OptimizationMode, error) {
	switch raw {
	case "", string(pipeline.ModeBalanced):
		return pipeline.ModeBalanced, nil
	case string(pipeline.ModeSpeed):
		return pipeline.ModeSpeed, nil
	case string(pipeline.ModeQuality):
		return pipeline.ModeQuality, nil
	default:
		return "", fmt.Errorf("unknown optimization mode %q", raw)
	}
}

type mediaRequest struct {
	Query   string          `json:"query"`
	History []pipeline.Turn `json:"history"`
}

func (s *Server) images(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMediaRequest(w, r)
	if !ok {
		return
	}
	images, err := s.media.Images(r.Context(), req.History, req.Query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"images": images})
}

func (s *Server) videos(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMediaRequest(w, r)
	if !ok {
		return
	}
	videos, err := s.media.Videos(r.Context(), req.History, req.Query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"videos": videos})
}

func decodeMediaRequest(w http.ResponseWriter, r *http.Request) (mediaRequest, bool) {
	var req mediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return req, false
	}
	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

type suggestionsRequest struct {
	History []pipeline.Turn `json:"history"`
}

func (s *Server) suggestions(w http.ResponseWriter, r *http.Request) {
	req := suggestionsRequest{}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
	}
	suggestions, err := s.suggester.Suggestions(r.Context(), req.History)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	writeJSON(w, map[string]any{"suggestions": suggestions})
}

func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"profiles": pipeline.ProfileNames()})
}

func (s *Server) listChats(w http.ResponseWriter, r *http.Request) {
	if !s.ensureStore(w) {
		return
	}
	chats, err := s.store.ListChats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"chats": toChatPayloads(chats)})
}

func (s *Server) getChat(w http.ResponseWriter, r *http.Request) {
	if !s.ensureStore(w) {
		return
	}
	chatID := chi.URLParam(r, "id")
	chat, err := s.store.GetChat(r.Context(), chatID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if chat == nil {
		http.Error(w, "chat not found", http.StatusNotFound)
		return
	}
	messages, err := s.store.ListMessages(r.Context(), chatID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"chat":     toChatPayload(*chat),
		"messages": toMessagePayloads(messages),
	})
}

func (s *Server) deleteChat(w http.ResponseWriter, r *http.Request) {
	if !s.ensureStore(w) {
		return
	}
	if err := s.store.DeleteChat(r.Context(), chi.URLParam(r, "id")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ensureStore(w http.ResponseWriter) bool {
	if s.store == nil {
		http.Error(w, "chat persistence not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type subsystemStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status     string                     `json:"status"`
	Subsystems map[string]subsystemStatus `json:"subsystems"`
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	subsystems := map[string]subsystemStatus{}
	overall := http.StatusOK

	if s.store == nil {
		subsystems["store"] = subsystemStatus{Status: "skipped"}
	} else if err := s.store.Ping(ctx); err != nil {
		subsystems["store"] = subsystemStatus{Status: "error", Error: err.Error()}
		overall = http.StatusServiceUnavailable
	} else {
		subsystems["store"] = subsystemStatus{Status: "ok"}
	}

	searxngURL := strings.TrimSpace(s.cfg.SearxngURL)
	if searxngURL == "" {
		subsystems["searxng"] = subsystemStatus{Status: "skipped"}
	} else {
		resp, err := s.probeHTTP(ctx, strings.TrimRight(searxngURL, "/"))
		if err != nil {
			subsystems["searxng"] = subsystemStatus{Status: "error", Error: err.Error()}
			overall = http.StatusServiceUnavailable
		} else if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			subsystems["searxng"] = subsystemStatus{Status: "error", Error: fmt.Sprintf("health status %d", resp.StatusCode)}
			overall = http.StatusServiceUnavailable
		} else {
			subsystems["searxng"] = subsystemStatus{Status: "ok"}
		}
	}

	status := "ok"
	if overall != http.StatusOK {
		status = "degraded"
	}
	writeJSONStatus(w, readinessResponse{Status: status, Subsystems: subsystems}, overall)
}

func (s *Server) probeHTTP(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	return resp, resp.Body.Close()
}

type chatPayload struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Profile      string `json:"profile"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
	MessageCount int64  `json:"messageCount,omitempty"`
}

type messagePayload struct {
	ID        string         `json:"id"`
	ChatID    string         `json:"chatId"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	CreatedAt string         `json:"createdAt"`
	Metadata  map[string]any `json:"metadata"`
}

func toChatPayload(chat store.Chat) chatPayload {
	return chatPayload{
		ID:        chat.ID,
		Title:     chat.Title,
		Profile:   chat.Profile,
		CreatedAt: chat.CreatedAt,
		UpdatedAt: chat.UpdatedAt,
	}
}

func toChatPayloads(chats []store.ChatSummary) []chatPayload {
	payloads := make([]chatPayload, len(chats))
	for i, chat := range chats {
		payloads[i] = chatPayload{
			ID:           chat.ID,
			Title:        chat.Title,
			Profile:      chat.Profile,
			CreatedAt:    chat.CreatedAt,
			UpdatedAt:    chat.UpdatedAt,
			MessageCount: chat.MessageCount,
		}
	}
	return payloads
}

func toMessagePayloads(messages []store.Message) []messagePayload {
	payloads := make([]messagePayload, len(messages))
	for i, msg := range messages {
		payloads[i] = messagePayload{
			ID:        msg.ID,
			ChatID:    msg.ChatID,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
			Metadata:  msg.Metadata,
		}
	}
	return payloads
}

func writeJSON(w http.ResponseWriter, value any) {
	writeJSONStatus(w, value, http.StatusOK)
}

func writeJSONStatus(w http.ResponseWriter, value any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()
	return server.ListenAndServe()
}
