package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch_QueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "docker networking" {
			t.Errorf("unexpected query %q", q.Get("q"))
		}
		if q.Get("format") != "json" {
			t.Errorf("expected json format, got %q", q.Get("format"))
		}
		if q.Get("language") != "en" {
			t.Errorf("expected language en, got %q", q.Get("language"))
		}
		if q.Get("engines") != "arxiv,google scholar,pubmed" {
			t.Errorf("unexpected engines %q", q.Get("engines"))
		}
		_ = json.NewEncoder(w).Encode(Response{Results: []Result{
			{Title: "Docker docs", URL: "https://docs.docker.com", Content: "networking guide"},
		}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	results, err := client.Search(context.Background(), "docker networking", Options{
		Language: "en",
		Engines:  []string{"arxiv", "google scholar", "pubmed"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Docker docs" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestSearch_OptionalParamsOmitted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Has("language") || q.Has("engines") {
			t.Error("expected language and engines to be omitted")
		}
		_ = json.NewEncoder(w).Encode(Response{})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Search(context.Background(), "hi", Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearch_MediaFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{
					"title":      "cats video",
					"url":        "https://youtube.com/watch?v=1",
					"thumbnail":  "https://img.example.com/t.jpg",
					"iframe_src": "https://youtube.com/embed/1",
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	results, err := client.Search(context.Background(), "cats", Options{Engines: []string{"youtube"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Thumbnail == "" || results[0].IframeSrc == "" {
		t.Errorf("expected media fields to be decoded: %+v", results[0])
	}
}

func TestSearch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Search(context.Background(), "hi", Options{}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
