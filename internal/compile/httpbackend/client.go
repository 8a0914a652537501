// Package httpbackend binds the compile contract to a remote HTTP service.
package httpbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pkt.systems/pslog"

	"github.com/kpumuk/treescope/internal/compile"
)

const (
	compilePath    = "/api/compile"
	healthPath     = "/api/health"
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 8 << 20
	errExcerptLen  = 200
)

// Client talks to a compiler service exposing POST /api/compile.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     pslog.Logger
}

// New constructs a client for the service at baseURL.
func New(baseURL string, logger pslog.Logger) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend URL is required")
	}
	if logger != nil {
		logger = logger.With("backend", "http")
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: defaultTimeout},
		log:     logger,
	}, nil
}

type compileRequest struct {
	Source string        `json:"source"`
	Stage  compile.Stage `json:"stage"`
}

// Compile implements compile.Client over HTTP. A non-2xx response or an
// unparsable body is a transport failure; a compiler-reported source error
// arrives as a decoded Outcome with Success=false.
func (c *Client) Compile(ctx context.Context, source string, stage compile.Stage) (compile.Outcome, error) {
	if c == nil {
		return compile.Outcome{}, errors.New("nil http backend")
	}
	if !stage.Valid() {
		return compile.Outcome{}, fmt.Errorf("invalid stage %q", stage)
	}

	body, err := json.Marshal(compileRequest{Source: source, Stage: stage})
	if err != nil {
		return compile.Outcome{}, fmt.Errorf("encode compile request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+compilePath, bytes.NewReader(body))
	if err != nil {
		return compile.Outcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return compile.Outcome{}, fmt.Errorf("compile request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return compile.Outcome{}, fmt.Errorf("read compile response: %w", err)
	}
	if c.log != nil {
		c.log.Debug("compile round-trip", "stage", stage, "status", resp.StatusCode, "bytes", len(raw), "dur", time.Since(start))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return compile.Outcome{}, fmt.Errorf("compile service returned %s: %s", resp.Status, boundedText(raw, errExcerptLen))
	}
	return compile.DecodeOutcome(raw)
}

// Health checks the service GET /api/health endpoint.
func (c *Client) Health(ctx context.Context) error {
	if c == nil {
		return errors.New("nil http backend")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned %s: %s", resp.Status, boundedText(raw, errExcerptLen))
	}
	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &status); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if status.Status != "ok" {
		return fmt.Errorf("health status %q", status.Status)
	}
	return nil
}

func boundedText(raw []byte, limit int) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	if s == "" {
		return "(empty body)"
	}
	return s
}
