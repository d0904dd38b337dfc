package dothttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_HandlerPropagationAcrossRequests(t *testing.T) {
	var secondAuthHeader, secondBody string
	callCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.Header().Set("Content-Type", "application/json")
		if callCount == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"json":{"token":"k","id":"9"}}`))
			return
		}
		secondAuthHeader = r.Header.Get("X-Auth-Token")
		body, _ := io.ReadAll(r.Body)
		secondBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	src := fmt.Sprintf(`### first
GET %s/first

> {%%
  client.global.set("t", response.body.json.token);
  client.global.set("i", response.body.json.id);
%%}

### second
PUT %s/put
X-Auth-Token: {{t}}

{"id": "{{i}}"}
`, server.URL, server.URL)

	file, err := ParseBytes("inline.http", []byte(src))
	require.NoError(t, err)
	require.Len(t, file.Scripts, 2)

	scopes := NewScopes()
	dispatcher := NewDispatcher(false, 5*time.Second)
	executor := NewExecutor(scopes, dispatcher)

	var outcomes []RequestOutcome
	executor.OnOutcome = func(o RequestOutcome) { outcomes = append(outcomes, o) }

	err = executor.Run(context.Background(), file)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, "k", secondAuthHeader)
	// The body runs to EOF, so the source's final line break is part of it.
	assert.Equal(t, `{"id": "9"}` + "\n", secondBody)
}

func TestExecutor_AssertionFailureReportedButBatchContinues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	src := fmt.Sprintf(`### check
GET %s/health

> {%%
  client.test("ok", () => client.assert(response.status === 200));
%%}

### after
GET %s/health
`, server.URL, server.URL)

	file, err := ParseBytes("inline.http", []byte(src))
	require.NoError(t, err)

	scopes := NewScopes()
	dispatcher := NewDispatcher(false, 5*time.Second)
	executor := NewExecutor(scopes, dispatcher)

	var outcomes []RequestOutcome
	executor.OnOutcome = func(o RequestOutcome) { outcomes = append(outcomes, o) }

	_ = executor.Run(context.Background(), file)
	require.Len(t, outcomes, 2, "a failed test must not abort the batch")

	require.Len(t, outcomes[0].Tests, 1)
	assert.Equal(t, TestFailed, outcomes[0].Tests[0].Status)
	assert.NoError(t, outcomes[1].Err)
}

func TestExecutor_NoRedirectDirectiveHonoredFromSource(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	defer redirector.Close()

	src := fmt.Sprintf(`### unredirected
# @no-redirect
GET %s
`, redirector.URL)

	file, err := ParseBytes("inline.http", []byte(src))
	require.NoError(t, err)
	require.True(t, file.Scripts[0].NoRedirect, "parser must set NoRedirect from the comment directive")

	scopes := NewScopes()
	dispatcher := NewDispatcher(false, 5*time.Second)
	executor := NewExecutor(scopes, dispatcher)

	var outcomes []RequestOutcome
	executor.OnOutcome = func(o RequestOutcome) { outcomes = append(outcomes, o) }

	err = executor.Run(context.Background(), file)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)
	assert.Equal(t, http.StatusFound, outcomes[0].Response.Status, "the redirect must not be followed")
}

func TestExecutor_TransportErrorMarksRequestFailed(t *testing.T) {
	src := `### unreachable
GET http://127.0.0.1:1/nope
`
	file, err := ParseBytes("inline.http", []byte(src))
	require.NoError(t, err)

	scopes := NewScopes()
	dispatcher := NewDispatcher(false, time.Second)
	executor := NewExecutor(scopes, dispatcher)

	var outcomes []RequestOutcome
	executor.OnOutcome = func(o RequestOutcome) { outcomes = append(outcomes, o) }

	err = executor.Run(context.Background(), file)
	require.Error(t, err)
	require.Len(t, outcomes, 1)
	assert.Error(t, outcomes[0].Err)
}
