package taskcluster

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tvtaskgraph/internal/ctxlog"
	"github.com/vk/tvtaskgraph/internal/taskdef"
)

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func TestCreateTaskAndReadBack(t *testing.T) {
	stored := map[string][]byte{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/queue/v1/task/")
		switch r.Method {
		case http.MethodPut:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			stored[id] = body
			w.Write([]byte(`{"status":{"taskId":"` + id + `"}}`))
		case http.MethodGet:
			w.Write(stored[id])
		}
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	ctx := testContext()

	def := taskdef.Task{ProvisionerID: "built-in", WorkerType: "succeed", Scopes: []string{}}
	require.NoError(t, c.CreateTask(ctx, "abc", def))

	raw, err := c.Task(ctx, "abc")
	require.NoError(t, err)

	var got taskdef.Task
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, def, got)
}

func TestCreateTask_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code":"InsufficientScopes"}`))
	}))
	defer srv.Close()

	err := New(srv.URL).CreateTask(testContext(), "abc", taskdef.Task{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, http.MethodPut, apiErr.Method)
	assert.Contains(t, err.Error(), "InsufficientScopes")
}

func TestTask_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Task(testContext(), "abc")
	assert.ErrorContains(t, err, "invalid JSON")
}

func TestSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/secrets/v1/secret/project/mobile/firefox-tv/tokens", r.URL.Path)
		w.Write([]byte(`{"secret":{"api_key":"k","cloud_url":"https://cloud"},"expires":"2030-01-01T00:00:00.000Z"}`))
	}))
	defer srv.Close()

	secret, err := New(srv.URL).Secret(testContext(), "project/mobile/firefox-tv/tokens")
	require.NoError(t, err)
	assert.JSONEq(t, `{"api_key":"k","cloud_url":"https://cloud"}`, string(secret))
}

func TestSecret_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"expires":"2030-01-01T00:00:00.000Z"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Secret(testContext(), "x")
	assert.ErrorContains(t, err, "no content")
}

func TestSlugID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := SlugID()
		assert.Len(t, id, 22)
		assert.NotEqual(t, byte('-'), id[0])
		assert.False(t, seen[id])
		seen[id] = true
	}
}
