// Package search wraps the SearxNG JSON API.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Options struct {
	Language string
	Engines  []string
}

type Result struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Content   string `json:"content"`
	ImgSrc    string `json:"img_src,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	IframeSrc string `json:"iframe_src,omitempty"`
}

type Response struct {
	Results     []Result `json:"results"`
	Suggestions []string `json:"suggestions"`
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	if opts.Language != "" {
		params.Set("language", opts.Language)
	}
	if len(opts.Engines) > 0 {
		params.Set("engines", strings.Join(opts.Engines, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searxng request failed: %s", resp.Status)
	}

	var parsed Response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return parsed.Results, nil
}
