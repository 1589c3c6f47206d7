package testsupport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Envelope mirrors the service response wrapper for fake handlers.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// FakeService is an httptest server answering service routes with envelopes.
type FakeService struct {
	t      testing.TB
	server *httptest.Server
	mux    *http.ServeMux

	mu     sync.Mutex
	hits   map[string]int
	last   map[string]*http.Request
	bodies map[string][]byte
}

// NewFakeService starts a fake service; BaseURL includes the /api prefix.
func NewFakeService(t testing.TB) *FakeService {
	t.Helper()
	f := &FakeService{
		t:      t,
		mux:    http.NewServeMux(),
		hits:   map[string]int{},
		last:   map[string]*http.Request{},
		bodies: map[string][]byte{},
	}
	f.server = httptest.NewServer(f.mux)
	t.Cleanup(f.server.Close)
	return f
}

// BaseURL returns the API root of the fake service.
func (f *FakeService) BaseURL() string {
	return f.server.URL + "/api"
}

// Handle registers fn for pattern ("METHOD /path", without the /api prefix).
func (f *FakeService) Handle(method, path string, fn func(r *http.Request, body []byte) Envelope) {
	key := method + " " + path
	f.mux.HandleFunc(method+" /api"+path, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			f.t.Errorf("read request body: %v", err)
		}
		f.mu.Lock()
		f.hits[key]++
		f.last[key] = r
		f.bodies[key] = body
		f.mu.Unlock()

		env := fn(r, body)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(env); err != nil {
			f.t.Errorf("encode envelope: %v", err)
		}
	})
}

// OK registers a route that always succeeds with data.
func (f *FakeService) OK(method, path string, data any) {
	f.Handle(method, path, func(*http.Request, []byte) Envelope {
		return Envelope{Status: "ok", Data: data}
	})
}

// Fail registers a route that always answers with an error envelope.
func (f *FakeService) Fail(method, path, message string) {
	f.Handle(method, path, func(*http.Request, []byte) Envelope {
		return Envelope{Status: "error", Message: message}
	})
}

// Hits returns how many times a route was called.
func (f *FakeService) Hits(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[method+" "+path]
}

// LastRequest returns the most recent request and body for a route.
func (f *FakeService) LastRequest(method, path string) (*http.Request, []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := method + " " + path
	return f.last[key], f.bodies[key]
}
