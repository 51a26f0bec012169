package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type OllamaConfig struct {
	Model   string
	BaseURL string
}

type OllamaProvider struct {
	model   string
	baseURL string
	client  *http.Client
}

func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaProvider{
		model:   cfg.Model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 300 * time.Second},
	}
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

func (p *OllamaProvider) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	resp, err := p.post(ctx, ollamaChatRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   false,
		Options:  ollamaOptions(opts),
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	content := strings.TrimSpace(parsed.Message.Content)
	if content == "" {
		return "", errors.New("LLM response was empty")
	}
	return content, nil
}

func (p *OllamaProvider) Stream(ctx context.Context, messages []Message, opts Options) (<-chan StreamDelta, error) {
	resp, err := p.post(ctx, ollamaChatRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   true,
		Options:  ollamaOptions(opts),
	})
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamDelta)
	go func() {
		defer resp.Body.Close()
		defer close(ch)

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadBytes('\n')
			if err != nil {
				if err == io.EOF {
					return
				}
				ch <- StreamDelta{Err: err}
				return
			}
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			var parsed ollamaChatResponse
			if err := json.Unmarshal(line, &parsed); err != nil {
				continue
			}
			if parsed.Message.Content != "" {
				select {
				case ch <- StreamDelta{Content: parsed.Message.Content}:
				case <-ctx.Done():
					return
				}
			}
			if parsed.Done {
				return
			}
		}
	}()
	return ch, nil
}

func (p *OllamaProvider) post(ctx context.Context, payload ollamaChatRequest) (*http.Response, error) {
	if p.model == "" {
		return nil, errors.New("missing model for ollama provider")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Ollama: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}
	return resp, nil
}

func ollamaOptions(opts Options) map[string]any {
	if opts.Temperature == nil {
		return nil
	}
	return map[string]any{"temperature": *opts.Temperature}
}
