// Package rest implements the bearer-authenticated JSON client for the
// marketplace API and the websocket URL mapping for its realtime endpoints.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ugcmarket/realtime-go/internal/apierr"
	"github.com/ugcmarket/realtime-go/internal/dto"
)

const maxResponseBytes = 4 << 20

// Client performs JSON round-trips against the configured API origin.
type Client struct {
	baseURL string
	http    *http.Client
	codec   dto.Codec
	logger  zerolog.Logger
}

// New builds a client for the given API origin. The origin must be an http(s)
// URL without a trailing slash; config.Load guarantees that shape.
func New(baseURL string, timeout time.Duration, codec dto.Codec, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		codec:   codec,
		logger:  logger.With().Str("component", "rest_client").Logger(),
	}
}

// Do performs a JSON request. A non-2xx response is returned as a RemoteError
// with the server-provided detail extracted when present. When out is non-nil
// the response body is decoded into it.
func (c *Client) Do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		remote := &apierr.RemoteError{Status: resp.StatusCode, Detail: extractDetail(data)}
		c.logger.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("request rejected")
		return remote
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}

	return nil
}

// extractDetail pulls the server error message out of a response body,
// preferring the detail field over message.
func extractDetail(data []byte) string {
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	return payload.Message
}

// WebsocketURL maps the API origin onto its websocket counterpart for the
// given path, embedding the bearer token as a query parameter.
func (c *Client) WebsocketURL(path, token string) string {
	scheme := "ws"
	if strings.HasPrefix(c.baseURL, "https") {
		scheme = "wss"
	}

	host := strings.TrimPrefix(strings.TrimPrefix(c.baseURL, "https://"), "http://")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return fmt.Sprintf("%s://%s%s?token=%s", scheme, host, path, url.QueryEscape(token))
}
