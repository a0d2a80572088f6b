package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON_HeadersAndDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/things", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"name":"pancho"}`))
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL+"/api/v1/", 0)
	require.NoError(t, err)
	c.Headers = map[string]string{"Authorization": "Bearer tok"}

	var out struct {
		Name string `json:"name"`
	}
	err = c.DoJSON(context.Background(), http.MethodPost, "things", map[string]string{"X-Request-ID": "req-1"}, map[string]any{"a": 1}, &out)
	require.NoError(t, err)
	assert.Equal(t, "pancho", out.Name)
}

func TestDoJSON_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"validation failed","fields":{"species":"unknown"}}`))
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL, 0)
	require.NoError(t, err)

	err = c.DoJSON(context.Background(), http.MethodGet, "/pets", nil, nil, nil)
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "validation failed", he.Message)
	assert.Equal(t, map[string]string{"species": "unknown"}, he.Fields)

	status, ok := StatusOf(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestNewWithBaseURL_Invalid(t *testing.T) {
	_, err := NewWithBaseURL("localhost:8080", 0)
	assert.Error(t, err)

	c := New(0)
	err = c.DoJSON(context.Background(), http.MethodGet, "/relative", nil, nil, nil)
	assert.ErrorContains(t, err, "requires BaseURL")
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestNewWithTransport_AbsoluteURL(t *testing.T) {
	var seen string
	c := NewWithTransport(0, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = r.URL.String()
		return &http.Response{
			StatusCode: http.StatusNoContent,
			Body:       http.NoBody,
			Header:     http.Header{},
		}, nil
	}))

	require.NoError(t, c.DoJSON(context.Background(), http.MethodDelete, "https://payments.example/v1/charges/1", nil, nil, nil))
	assert.Equal(t, "https://payments.example/v1/charges/1", seen)
}
