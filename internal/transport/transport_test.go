package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storesync/internal/transport"
	"github.com/agentstation/storesync/pkg/errors"
)

func TestAuthenticators(t *testing.T) {
	tests := []struct {
		name   string
		auth   transport.Authenticator
		header string
		want   string
		method string
	}{
		{"none", &transport.NoAuth{}, "Authorization", "", "none"},
		{"bearer", &transport.BearerAuth{}, "Authorization", "Bearer secret", "bearer"},
		{"header", &transport.HeaderAuth{Header: "X-Shopify-Access-Token"}, "X-Shopify-Access-Token", "secret", "header X-Shopify-Access-Token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{Header: make(http.Header)}
			tt.auth.Apply(req, "secret")
			assert.Equal(t, tt.want, req.Header.Get(tt.header))
			assert.Equal(t, tt.method, transport.Method(tt.auth))
		})
	}
}

func TestClientJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token", r.Header.Get("X-Token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "/api/items", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))

		w.Header().Set("Link", `<https://shop.example/next?page_info=abc>; rel="next"`)
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["name"]})
	}))
	defer srv.Close()

	c := transport.New("test", srv.URL+"/api/", &transport.HeaderAuth{Header: "X-Token"}, transport.WithAPIKey("token"))

	var out map[string]string
	header, err := c.JSON(context.Background(), http.MethodPost, "items", url.Values{"limit": {"5"}},
		map[string]string{"name": "mug"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "mug", out["echo"])
	assert.Equal(t, "https://shop.example/next?page_info=abc", transport.NextLink(header))
	assert.Equal(t, "test", c.Service())
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/limited":
			w.Header().Set("Retry-After", "2.0")
			w.WriteHeader(http.StatusTooManyRequests)
		case "/denied":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"errors":"Invalid API key"}`))
		case "/broken":
			w.WriteHeader(http.StatusBadGateway)
		case "/garbage":
			_, _ = w.Write([]byte("not json"))
		}
	}))
	defer srv.Close()

	c := transport.New("test", srv.URL, nil)
	ctx := context.Background()
	var out map[string]any

	_, err := c.JSON(ctx, http.MethodGet, "/limited", nil, nil, &out)
	assert.True(t, errors.IsRateLimited(err))
	assert.Equal(t, 2*time.Second, errors.RetryAfter(err))

	_, err = c.JSON(ctx, http.MethodGet, "/denied", nil, nil, &out)
	assert.True(t, errors.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "Invalid API key")

	_, err = c.JSON(ctx, http.MethodGet, "/broken", nil, nil, &out)
	assert.True(t, errors.IsTransient(err))
	assert.Contains(t, err.Error(), "Bad Gateway")

	_, err = c.JSON(ctx, http.MethodGet, "/garbage", nil, nil, &out)
	var parseErr *errors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestClientNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := transport.New("test", srv.URL, nil)
	_, err := c.JSON(context.Background(), http.MethodGet, "/", nil, nil, nil)
	assert.True(t, errors.IsTransient(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.JSON(ctx, http.MethodGet, "/", nil, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Duration(0), transport.ParseRetryAfter("", now))
	assert.Equal(t, 3*time.Second, transport.ParseRetryAfter("3", now))
	assert.Equal(t, 1500*time.Millisecond, transport.ParseRetryAfter("1.5", now))
	assert.Equal(t, time.Duration(0), transport.ParseRetryAfter("-1", now))
	assert.Equal(t, 30*time.Second, transport.ParseRetryAfter(now.Add(30*time.Second).Format(http.TimeFormat), now))
	assert.Equal(t, time.Duration(0), transport.ParseRetryAfter("soon", now))
}

func TestNextLink(t *testing.T) {
	h := http.Header{}
	assert.Empty(t, transport.NextLink(h))

	h.Set("Link", `<https://a/prev>; rel="previous", <https://a/next>; rel="next"`)
	assert.Equal(t, "https://a/next", transport.NextLink(h))
}
