// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"context"
	"net/http"
	"time"

	"github.com/mapgrab/mapgrab/lib/netutil"
)

// DefaultFetchTimeout bounds a single source-map fetch when the
// caller does not configure one. The collector core imposes no
// timeouts of its own — this lives here, in the capability, which is
// where the drain phase's liveness is decided.
const DefaultFetchTimeout = 30 * time.Second

// HTTPResourceFetcher is the standard ResourceFetcher implementation
// over net/http. Each FetchResource call is a single GET with no
// retries; response bodies are bounded reads (netutil.MaxResponseSize)
// so a pathological server cannot exhaust memory.
type HTTPResourceFetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPResourceFetcher creates a fetcher over client. A nil client
// uses http.DefaultClient. A non-positive timeout uses
// DefaultFetchTimeout; the timeout caps each individual fetch, which
// keeps the collector's drain phase from hanging on a dead server.
func NewHTTPResourceFetcher(client *http.Client, timeout time.Duration) *HTTPResourceFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTTPResourceFetcher{client: client, timeout: timeout}
}

// FetchResource performs one bounded GET of url. Transport failures
// are returned as errors; any completed exchange — success or not —
// is returned as a ResourceResponse with its status code, leaving the
// status-to-error mapping to the Fetcher.
func (f *HTTPResourceFetcher) FetchResource(ctx context.Context, url string) (ResourceResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ResourceResponse{}, err
	}

	response, err := f.client.Do(request)
	if err != nil {
		return ResourceResponse{}, err
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return ResourceResponse{}, err
	}

	return ResourceResponse{
		Status:  response.StatusCode,
		Content: string(body),
	}, nil
}
