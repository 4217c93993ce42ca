// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package cdp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/mapgrab/mapgrab/lib/netutil"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// Endpoint is the browser's DevTools HTTP endpoint (e.g.,
	// "http://localhost:9222"). A bare "host:port" is accepted and
	// treated as http.
	Endpoint string
	// HTTPClient is used for discovery requests. If nil,
	// http.DefaultClient is used.
	HTTPClient *http.Client
	// Dialer is used for WebSocket connections. If nil,
	// websocket.DefaultDialer is used.
	Dialer *websocket.Dialer
	// Logger is used for structured logging. If nil, logging is
	// discarded.
	Logger *slog.Logger
}

// Client talks to a browser's DevTools HTTP endpoint. It holds the
// endpoint URL and transports, shared across page sessions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
	logger     *slog.Logger
}

// NewClient creates a DevTools discovery client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("cdp: Endpoint is required")
	}

	endpoint := config.Endpoint
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("cdp: invalid Endpoint %q: %w", config.Endpoint, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	dialer := config.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL:    strings.TrimRight(endpoint, "/"),
		httpClient: httpClient,
		dialer:     dialer,
		logger:     logger,
	}, nil
}

// Version returns the browser's identity and protocol version. Useful
// as a reachability check before attaching to a target.
func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	var info VersionInfo
	if err := c.getJSON(ctx, "/json/version", &info); err != nil {
		return nil, fmt.Errorf("cdp: version request failed: %w", err)
	}
	return &info, nil
}

// Targets returns all debuggable targets the browser currently
// exposes, pages and otherwise.
func (c *Client) Targets(ctx context.Context) ([]Target, error) {
	var targets []Target
	if err := c.getJSON(ctx, "/json/list", &targets); err != nil {
		return nil, fmt.Errorf("cdp: target list request failed: %w", err)
	}
	return targets, nil
}

// Pages returns only the page-type targets, in the order the browser
// reported them.
func (c *Client) Pages(ctx context.Context) ([]Target, error) {
	targets, err := c.Targets(ctx)
	if err != nil {
		return nil, err
	}
	pages := targets[:0:0]
	for _, target := range targets {
		if target.Type == "page" {
			pages = append(pages, target)
		}
	}
	return pages, nil
}

// Attach opens a DevTools session on the target's WebSocket debugger
// URL. The caller owns the returned session and must Close it.
func (c *Client) Attach(ctx context.Context, target Target) (*Session, error) {
	if target.WebSocketDebuggerURL == "" {
		return nil, fmt.Errorf("cdp: target %q has no WebSocket debugger URL", target.ID)
	}

	conn, response, err := c.dialer.DialContext(ctx, target.WebSocketDebuggerURL, nil)
	if err != nil {
		if response != nil {
			defer response.Body.Close()
			return nil, fmt.Errorf("cdp: dialing %s: %w: %s",
				target.WebSocketDebuggerURL, err, netutil.ErrorBody(response.Body))
		}
		return nil, fmt.Errorf("cdp: dialing %s: %w", target.WebSocketDebuggerURL, err)
	}

	c.logger.Info("attached to devtools target",
		"target_id", target.ID,
		"target_url", target.URL,
	)

	session := newSession(conn, c.logger)
	go session.readLoop()
	return session, nil
}

// getJSON performs a discovery GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("unexpected %d response from %s: %s",
			response.StatusCode, path, netutil.ErrorBody(response.Body))
	}
	return netutil.DecodeResponse(response.Body, v)
}
