package elasticsearch_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goto/salt/log"
	"github.com/stretchr/testify/require"

	store "github.com/goto/vfsearch/internal/store/elasticsearch"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// fakeES answers the subset of the REST API used by the store, including
// the product check made by the client before its first request.
type fakeES struct {
	mu       sync.Mutex
	version  string
	handlers map[string]func(w http.ResponseWriter, body string)
	requests []recordedRequest
}

func newFakeES(t *testing.T) (*fakeES, *store.Client) {
	t.Helper()
	fake := &fakeES{
		version:  "7.16.0",
		handlers: map[string]func(w http.ResponseWriter, body string){},
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cli, err := store.NewClient(log.NewNoop(), store.Config{Brokers: srv.URL})
	require.NoError(t, err)
	return fake, cli
}

func (f *fakeES) handle(route string, h func(w http.ResponseWriter, body string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[route] = h
}

func (f *fakeES) respond(route string, status int, body string) {
	f.handle(route, func(w http.ResponseWriter, _ string) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (f *fakeES) recorded(method, path string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	body, _ := io.ReadAll(r.Body)
	if r.Method == http.MethodGet && r.URL.Path == "/" {
		_, _ = io.WriteString(w, `{
			"name": "node-1",
			"cluster_name": "vfsearch-test",
			"version": {"number": "`+f.version+`", "build_flavor": "default"},
			"tagline": "You Know, for Search"
		}`)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})
	h, ok := f.handlers[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"type":"resource_not_found_exception","reason":"no route"},"status":404}`)
		return
	}
	h(w, string(body))
}
