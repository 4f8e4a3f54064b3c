// Package client is a typed HTTP client for the flashcards API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vytor/tenxcards/internal/logger"
	"github.com/vytor/tenxcards/internal/models"
)

// Per-call timeouts.
const (
	GenerateTimeout = 30 * time.Second
	SaveTimeout     = 10 * time.Second
	DefaultTimeout  = 30 * time.Second
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	GenerateTimeout time.Duration
	SaveTimeout     time.Duration
	DefaultTimeout  time.Duration
}

// New creates a client for the API at baseURL authenticating with the given
// bearer token. An empty token sends no Authorization header.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:         strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:           strings.TrimSpace(token),
		httpClient:      &http.Client{},
		GenerateTimeout: GenerateTimeout,
		SaveTimeout:     SaveTimeout,
		DefaultTimeout:  DefaultTimeout,
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) Generate(ctx context.Context, cmd models.CreateGenerationCommand) (*models.GenerationResponse, error) {
	var out models.GenerationResponse
	if err := c.do(ctx, c.GenerateTimeout, http.MethodPost, "/api/generations", cmd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SaveBatch(ctx context.Context, cmd models.BatchCreateFlashcardsCommand) (*models.BatchCreateFlashcardsResponse, error) {
	var out models.BatchCreateFlashcardsResponse
	if err := c.do(ctx, c.SaveTimeout, http.MethodPost, "/api/flashcards/batch", cmd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateFlashcard(ctx context.Context, cmd models.CreateFlashcardCommand) (*models.Flashcard, error) {
	var out models.Flashcard
	if err := c.do(ctx, c.SaveTimeout, http.MethodPost, "/api/flashcards", cmd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListParams filters ListFlashcards. Zero values are omitted.
type ListParams struct {
	Limit        int
	Cursor       int64
	Source       string
	GenerationID int64
}

func (c *Client) ListFlashcards(ctx context.Context, p ListParams) (*models.FlashcardList, error) {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Cursor > 0 {
		q.Set("cursor", strconv.FormatInt(p.Cursor, 10))
	}
	if p.Source != "" {
		q.Set("source", p.Source)
	}
	if p.GenerationID > 0 {
		q.Set("generation_id", strconv.FormatInt(p.GenerationID, 10))
	}
	path := "/api/flashcards"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out models.FlashcardList
	if err := c.do(ctx, c.DefaultTimeout, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type apiErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, timeout time.Duration, method, path string, in, out any) error {
	log := logger.FromContext(ctx).WithPrefix("api_client")

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &Failure{Kind: KindUnknown, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Failure{Kind: KindUnknown, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		f := transportFailure(err)
		log.Warn("%s %s failed after %s: %v", method, path, time.Since(start), f)
		return f
	}
	defer resp.Body.Close()
	log.Debug("%s %s -> %d in %s", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 400 {
		return responseFailure(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return transportFailure(ctx.Err())
		}
		return &Failure{Kind: KindUnknown, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func responseFailure(resp *http.Response) *Failure {
	f := &Failure{Status: resp.StatusCode}

	var body apiErrorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err == nil {
		f.Code = body.Error.Code
		f.Message = body.Error.Message
	}
	if k, ok := kindForCode(f.Code); ok {
		f.Kind = k
	} else {
		f.Kind = kindForStatus(resp.StatusCode)
	}

	if f.Kind == KindRateLimit {
		if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
			if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
				f.ResetAt = time.Unix(secs, 0)
			}
		}
	}
	return f
}
