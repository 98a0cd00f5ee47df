// Package client provides the HTTP client for the vehicle search backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"carsearch_frontend/internal/search/transport"
	"carsearch_frontend/platform/config"
	"carsearch_frontend/platform/logger"

	"golang.org/x/sync/semaphore"
)

// maxErrorBody caps how much of a failed response body is kept for logs.
const maxErrorBody = 512

// ErrUnexpectedStatus is wrapped by errors for non-2xx backend answers.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client is the HTTP client for the search backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	slots      *semaphore.Weighted
	log        *logger.Logger
}

// New creates a new search backend client.
func New(cfg config.SearchBackendConfig, log *logger.Logger) *Client {
	return NewWithHTTPClient(cfg, &http.Client{Timeout: cfg.GetSearchBackendTimeout()}, log)
}

// NewWithHTTPClient creates a client around an existing http.Client.
func NewWithHTTPClient(cfg config.SearchBackendConfig, httpClient *http.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.GetSearchBackendURL(), "/"),
		slots:      semaphore.NewWeighted(cfg.GetSearchMaxConcurrent()),
		log:        log,
	}
}

// Do sends a search request and decodes the response envelope.
func (c *Client) Do(ctx context.Context, sr transport.Request) (*transport.SearchEnvelope, error) {
	if err := c.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for backend slot: %w", err)
	}
	defer c.slots.Release(1)

	reqURL := c.endpointURL(sr.Endpoint)
	req, err := http.NewRequestWithContext(ctx, sr.Method, reqURL, bytes.NewReader(sr.Body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, value := range sr.Header {
		req.Header.Set(key, value)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("search backend request failed", "error", err, "url", reqURL)
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Error("search backend upstream error", "status", resp.StatusCode, "url", reqURL, "body", string(snippet))
		return nil, fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, resp.StatusCode, sr.Endpoint)
	}

	var env transport.SearchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.log.Error("search backend decode failed", "error", err, "url", reqURL)
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &env, nil
}

// Ping checks that the backend answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("ping failed: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) endpointURL(endpoint string) string {
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}
