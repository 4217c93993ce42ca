// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPResourceFetcher(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bundle.js.map":
			w.Write([]byte(`{"version":3}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := NewHTTPResourceFetcher(server.Client(), 0)

	t.Run("success carries body and status", func(t *testing.T) {
		response, err := fetcher.FetchResource(context.Background(), server.URL+"/bundle.js.map")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if response.Status != 200 {
			t.Errorf("status: got %d, want 200", response.Status)
		}
		if response.Content != `{"version":3}` {
			t.Errorf("content: got %q, want %q", response.Content, `{"version":3}`)
		}
	})

	t.Run("non-2xx is a response, not an error", func(t *testing.T) {
		response, err := fetcher.FetchResource(context.Background(), server.URL+"/missing.map")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if response.Status != 404 {
			t.Errorf("status: got %d, want 404", response.Status)
		}
	})

	t.Run("unreachable server is a transport error", func(t *testing.T) {
		short := NewHTTPResourceFetcher(nil, 500*time.Millisecond)
		_, err := short.FetchResource(context.Background(), "http://127.0.0.1:1/bundle.js.map")
		if err == nil {
			t.Fatal("expected transport error for unreachable server")
		}
	})
}
