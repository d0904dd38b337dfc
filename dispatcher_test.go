package dothttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_Dispatch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bearer-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	defer server.Close()

	parsed, err := url.Parse(server.URL + "/orders")
	require.NoError(t, err)

	req := &Request{
		Method: http.MethodPost,
		URL:    parsed,
		Headers: []NameValue{
			{Name: "Authorization", Value: "bearer-token"},
		},
		Body: []byte(`{"qty":1}`),
	}

	dispatcher := NewDispatcher(false, 5*time.Second)
	resp, err := dispatcher.Dispatch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, `{"id":"1"}`, string(resp.BodyBytes))
	assert.Equal(t, map[string]any{"id": "1"}, resp.Body())
}

func TestDispatcher_Dispatch_ConnectionRefused(t *testing.T) {
	parsed, err := url.Parse("http://127.0.0.1:1")
	require.NoError(t, err)

	dispatcher := NewDispatcher(false, time.Second)
	_, err = dispatcher.Dispatch(context.Background(), &Request{Method: http.MethodGet, URL: parsed})
	require.Error(t, err)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestDispatcher_NoRedirect(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	defer redirector.Close()

	parsed, err := url.Parse(redirector.URL)
	require.NoError(t, err)

	dispatcher := NewDispatcher(false, 5*time.Second)
	resp, err := dispatcher.Dispatch(context.Background(), &Request{Method: http.MethodGet, URL: parsed, NoRedirect: true})
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.Status)
}
