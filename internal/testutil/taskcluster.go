package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/vk/tvtaskgraph/internal/taskdef"
)

// FakeTaskcluster is an in-memory stand-in for the queue and secrets
// services behind the taskcluster proxy.
type FakeTaskcluster struct {
	Server *httptest.Server

	mu        sync.Mutex
	order     []string
	tasks     map[string]json.RawMessage
	secrets   map[string]json.RawMessage
	failAfter int
	failCode  int
}

// NewFakeTaskcluster starts a fake and stops it when the test ends.
func NewFakeTaskcluster(t *testing.T) *FakeTaskcluster {
	t.Helper()
	f := &FakeTaskcluster{
		tasks:     make(map[string]json.RawMessage),
		secrets:   make(map[string]json.RawMessage),
		failAfter: -1,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/queue/v1/task/", f.handleTask)
	mux.HandleFunc("/secrets/v1/secret/", f.handleSecret)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the proxy base URL to configure clients with.
func (f *FakeTaskcluster) URL() string {
	return f.Server.URL
}

// SetSecret stores value under name.
func (f *FakeTaskcluster) SetSecret(t *testing.T, name string, value any) {
	t.Helper()
	raw, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("failed to encode secret: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secrets[name] = raw
}

// FailCreateAfter makes every createTask call after the first n fail with
// status code.
func (f *FakeTaskcluster) FailCreateAfter(n, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAfter = n
	f.failCode = code
}

// Created returns the ids of created tasks in creation order.
func (f *FakeTaskcluster) Created() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

// Task decodes the stored definition of id.
func (f *FakeTaskcluster) Task(t *testing.T, id string) taskdef.Task {
	t.Helper()
	f.mu.Lock()
	raw, ok := f.tasks[id]
	f.mu.Unlock()
	if !ok {
		t.Fatalf("task %s was not created", id)
	}
	var def taskdef.Task
	if err := json.Unmarshal(raw, &def); err != nil {
		t.Fatalf("failed to decode task %s: %v", id, err)
	}
	return def
}

func (f *FakeTaskcluster) handleTask(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/queue/v1/task/")

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		if f.failAfter >= 0 && len(f.order) >= f.failAfter {
			http.Error(w, `{"code":"InsufficientScopes"}`, f.failCode)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil || !json.Valid(body) {
			http.Error(w, `{"code":"InputValidationError"}`, http.StatusBadRequest)
			return
		}
		if _, exists := f.tasks[id]; !exists {
			f.order = append(f.order, id)
		}
		f.tasks[id] = body
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":{"taskId":"` + id + `","state":"unscheduled"}}`))
	case http.MethodGet:
		raw, ok := f.tasks[id]
		if !ok {
			http.Error(w, `{"code":"ResourceNotFound"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(raw)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (f *FakeTaskcluster) handleSecret(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/secrets/v1/secret/")

	f.mu.Lock()
	raw, ok := f.secrets[name]
	f.mu.Unlock()

	if !ok {
		http.Error(w, `{"code":"ResourceNotFound"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"secret":` + string(raw) + `,"expires":"3000-01-01T00:00:00.000Z"}`))
}
