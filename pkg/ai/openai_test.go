package ai

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"codecanvas_backend/internal/model"
)

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient("test-key", "gpt-4o-mini")
	c.BaseURL = srv.URL
	return c
}

func TestGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Fatalf("expected system+user messages, got %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  I build reliable backends.  "}}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv).GenerateContent(model.AIGenerationBio, "10 years of Go")
	if err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}
	if got != "I build reliable backends." {
		t.Fatalf("expected trimmed completion, got %q", got)
	}
}

func TestGenerateContentUnknownKind(t *testing.T) {
	c := NewClient("k", "")
	if _, err := c.GenerateContent("haiku", "x"); err == nil {
		t.Fatal("expected error for unknown generation kind")
	}
}

func TestGeneratePortfolioContentParsesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"About\":\"hi\",\"Projects\":\"stuff\"}"}}]}`))
	}))
	defer srv.Close()

	sections, err := newTestClient(srv).GeneratePortfolioContent("My Site", []string{"About", "Projects"}, "material")
	if err != nil {
		t.Fatalf("GeneratePortfolioContent() error = %v", err)
	}
	if sections["About"] != "hi" || sections["Projects"] != "stuff" {
		t.Fatalf("unexpected sections %+v", sections)
	}
}

func TestProviderErrorsSurfaceAsExternalService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).GenerateContent(model.AIGenerationBio, "x")
	if !errors.Is(err, ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}
