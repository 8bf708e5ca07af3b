package modal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/san-kum/modalstream/internal/stream"
)

const DefaultPath = "/shear-building/modal"

// ErrBadResponse marks responses that are not a usable modal analysis.
var ErrBadResponse = errors.New("modal: bad response from analysis service")

type Client struct {
	BaseURL string
	Path    string
	HTTP    *http.Client
	Logger  *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Path:    DefaultPath,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Logger:  logger,
	}
}

// Analyze requests the modal properties of the given building model.
func (c *Client) Analyze(ctx context.Context, req stream.ModelRequest) (*Analysis, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("modal: encode request: %w", err)
	}

	url := c.BaseURL + c.Path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("modal: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("modal: post %s: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("modal: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrBadResponse, resp.StatusCode, detail(data))
	}

	var a Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(a.Frequencies) == 0 {
		return nil, fmt.Errorf("%w: no frequencies", ErrBadResponse)
	}

	c.Logger.Debug("modal analysis", "modes", len(a.Frequencies), "elapsed", time.Since(start))
	return &a, nil
}

// detail extracts FastAPI's {"detail": ...} message when present.
func detail(data []byte) string {
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != nil {
		return fmt.Sprint(body.Detail)
	}
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
