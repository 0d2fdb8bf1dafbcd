// Package testutil provides testing utilities.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Request is a request recorded by FakeBackend.
type Request struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

// FakeBackend is an in-memory task backend serving GET /todo and POST /add.
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	tasks    []map[string]any
	requests []Request

	// Error injection for testing.
	listStatus int
	addStatus  int
	listBody   string
	addBody    string
	gate       chan struct{}
}

// NewFakeBackend starts a fake backend and closes it when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	f := &FakeBackend{}

	r := chi.NewRouter()
	r.Use(f.record)
	r.Get("/todo", f.list)
	r.Post("/add", f.add)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// FailList makes GET /todo answer with status and an error body.
func (f *FakeBackend) FailList(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listStatus = status
}

// FailAdd makes POST /add answer with status and an error body.
func (f *FakeBackend) FailAdd(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addStatus = status
}

// ServeList makes GET /todo answer 200 with body verbatim.
func (f *FakeBackend) ServeList(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listBody = body
}

// ServeAdd makes POST /add answer 200 with body verbatim.
func (f *FakeBackend) ServeAdd(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addBody = body
}

// HoldAdd blocks POST /add until the returned release func is called.
func (f *FakeBackend) HoldAdd() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// URL returns the base URL of the fake backend.
func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// Seed adds tasks as if they had been created earlier.
func (f *FakeBackend) Seed(tasks ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range tasks {
		if _, ok := t["id"]; !ok {
			t["id"] = uuid.NewString()
		}
		f.tasks = append(f.tasks, t)
	}
}

// Requests returns a copy of every request received so far.
func (f *FakeBackend) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// RequestsTo returns the recorded requests for one method and path.
func (f *FakeBackend) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// TaskCount returns how many tasks the backend holds.
func (f *FakeBackend) TaskCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

func (f *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		f.mu.Lock()
		f.requests = append(f.requests, Request{
			Method:      r.Method,
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		f.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (f *FakeBackend) list(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	status, body := f.listStatus, f.listBody
	tasks := make([]map[string]any, len(f.tasks))
	copy(tasks, f.tasks)
	f.mu.Unlock()

	if status != 0 {
		writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
		return
	}
	if body != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (f *FakeBackend) add(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	f.mu.Lock()
	status, body := f.addStatus, f.addBody
	f.mu.Unlock()

	if status != 0 {
		writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
		return
	}
	if body != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
		return
	}

	var created map[string]any
	if err := json.NewDecoder(r.Body).Decode(&created); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json"})
		return
	}
	created["id"] = uuid.NewString()

	f.mu.Lock()
	f.tasks = append(f.tasks, created)
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, created)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
