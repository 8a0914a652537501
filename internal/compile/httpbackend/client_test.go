package httpbackend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kpumuk/treescope/internal/compile"
)

func TestCompileRoundTrip(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/compile" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Source string `json:"source"`
			Stage  string `json:"stage"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Source != "let x = 1" || req.Stage != "all" {
			t.Errorf("request = %+v", req)
		}
		_, _ = w.Write([]byte(`{"success": true, "tokens": [{"kind": "KwLet", "span": {"start": 0, "end": 3}}]}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	out, err := c.Compile(context.Background(), "let x = 1", compile.StageAll)
	if err != nil {
		t.Fatalf("Compile error = %v", err)
	}
	if !out.Success || len(out.Tokens) != 1 {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestCompileNonOKStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "backend exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	_, err = c.Compile(context.Background(), "x", compile.StageParse)
	if err == nil {
		t.Fatal("Compile = nil error for 502")
	}
	if !strings.Contains(err.Error(), "backend exploded") {
		t.Fatalf("error %q lacks diagnostic body", err)
	}
}

func TestCompileCorruptBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": tr`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	_, err = c.Compile(context.Background(), "x", compile.StageParse)
	if err == nil {
		t.Fatal("Compile = nil error for corrupt JSON body")
	}
	if !strings.Contains(err.Error(), "decode compiler output") {
		t.Fatalf("error %q is not a decode diagnostic", err)
	}
}

func TestCompileInvalidStage(t *testing.T) {
	t.Parallel()

	c, err := New("http://localhost:1", nil)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	if _, err := c.Compile(context.Background(), "x", "optimize"); err == nil {
		t.Fatal("Compile = nil error for invalid stage")
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	if _, err := New("  ", nil); err == nil {
		t.Fatal("New(blank) = nil error")
	}
	c, err := New("http://example.test/", nil)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	if c.baseURL != "http://example.test" {
		t.Fatalf("baseURL = %q, trailing slash not trimmed", c.baseURL)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health error = %v", err)
	}
}

func TestHealthBadStatusValue(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "degraded"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	if err := c.Health(context.Background()); err == nil {
		t.Fatal("Health = nil error for degraded status")
	}
}
