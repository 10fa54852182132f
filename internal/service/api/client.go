package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource yields the bearer token of the current session, if any.
type TokenSource interface {
	Token() (string, bool)
}

// Client is the single choke point for every call to the carbon backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// NewClient creates a client for baseURL. A zero timeout leaves the
// transport's own behaviour in place.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		tokens: tokens,
	}
}

// Execute sends one request and classifies the outcome. The bearer token is
// attached whenever the session holds one, whatever the endpoint. A nil
// body sends no payload. On success the raw JSON body is returned unchanged.
func (c *Client) Execute(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[api] %s %s request_id=%s transport error: %v", method, endpoint, requestID, err)
		return nil, &NetworkError{Endpoint: endpoint, OriginalError: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[api] %s %s request_id=%s read error: %v", method, endpoint, requestID, err)
		return nil, &NetworkError{Endpoint: endpoint, OriginalError: err}
	}

	log.Printf("[api] %s %s request_id=%s status=%d (%s)", method, endpoint, requestID, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
		}
	}

	if !json.Valid(raw) {
		return nil, &APIError{
			Endpoint:      endpoint,
			StatusCode:    resp.StatusCode,
			Message:       GenericErrorMessage,
			OriginalError: fmt.Errorf("invalid JSON response from %s", endpoint),
		}
	}

	return json.RawMessage(raw), nil
}

// errorMessage extracts the backend's error field, falling back to the
// generic message.
func errorMessage(raw []byte) string {
	var body struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return GenericErrorMessage
	}
	msg, ok := body.Error.(string)
	if !ok || strings.TrimSpace(msg) == "" {
		return GenericErrorMessage
	}
	return msg
}

// decode unmarshals a successful body into out, reporting shape mismatches
// as an APIError so the caller surfaces them like any other failure.
func decode(endpoint string, raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{
			Endpoint:      endpoint,
			StatusCode:    http.StatusOK,
			Message:       GenericErrorMessage,
			OriginalError: err,
		}
	}
	return nil
}
