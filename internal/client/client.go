// Package client is a typed HTTP client for the novel API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/metcalfc/storyreader/internal/novel"
)

// APIError is returned for non-2xx responses.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type errorBody struct {
	Error string `json:"error"`
}

type novelBody struct {
	Novel *novel.Novel `json:"novel"`
}

// Client talks to the novel API at a base URL.
type Client struct {
	http *resty.Client
}

// New creates a client for baseURL with a per-request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetLogger(disableLogger{})
	return &Client{http: c}
}

// ListNovels fetches every novel.
func (c *Client) ListNovels(ctx context.Context) ([]novel.Novel, error) {
	var novels []novel.Novel
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&novels).
		SetError(&errorBody{}).
		Get("/api/get-novels")
	if err := check(resp, err, "list novels"); err != nil {
		return nil, err
	}
	return novels, nil
}

// GetNovel fetches one novel with its chapters.
func (c *Client) GetNovel(ctx context.Context, id string) (*novel.Novel, error) {
	var body novelBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&body).
		SetError(&errorBody{}).
		Get("/api/get-novel/{id}")
	if err := check(resp, err, "get novel"); err != nil {
		return nil, err
	}
	if body.Novel == nil {
		return nil, fmt.Errorf("get novel %s: empty response", id)
	}
	return body.Novel, nil
}

// SearchNovels runs a title/code search.
func (c *Client) SearchNovels(ctx context.Context, query string) ([]novel.Novel, error) {
	var novels []novel.Novel
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("query", query).
		SetResult(&novels).
		SetError(&errorBody{}).
		Get("/api/search-novel")
	if err := check(resp, err, "search novels"); err != nil {
		return nil, err
	}
	return novels, nil
}

func check(resp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() || resp.StatusCode() >= 300 {
		apiErr := &APIError{Status: resp.StatusCode()}
		if body, ok := resp.Error().(*errorBody); ok && body != nil {
			apiErr.Message = body.Error
		}
		return fmt.Errorf("%s: %w", op, apiErr)
	}
	return nil
}

type disableLogger struct{}

func (disableLogger) Errorf(string, ...interface{}) {}
func (disableLogger) Warnf(string, ...interface{})  {}
func (disableLogger) Debugf(string, ...interface{}) {}
