package client

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// routeFunc serves one endpoint; token is the bearer token of the request.
type routeFunc func(w http.ResponseWriter, r *http.Request, token string)

// fakeVMS is a minimal stand-in for the VMS REST surface.
type fakeVMS struct {
	*httptest.Server

	mu        sync.Mutex
	logins    int
	loginBody []string
	logouts   []string
	hits      map[string]int
	headers   []http.Header

	login  func(w http.ResponseWriter, n int)
	routes map[string]routeFunc
}

func newFakeVMS(t *testing.T) *fakeVMS {
	t.Helper()
	f := &fakeVMS{
		hits:   map[string]int{},
		routes: map[string]routeFunc{},
	}
	f.login = func(w http.ResponseWriter, n int) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"token":"token-%d"}`, n)
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeVMS) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path

	f.mu.Lock()
	f.headers = append(f.headers, r.Header.Clone())
	if key == "POST "+APIPrefix+"/login/sessions" {
		f.logins++
		n := f.logins
		f.loginBody = append(f.loginBody, string(body))
		login := f.login
		f.mu.Unlock()
		login(w, n)
		return
	}
	if r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, APIPrefix+"/login/sessions/") {
		f.logouts = append(f.logouts, strings.TrimPrefix(r.URL.Path, APIPrefix+"/login/sessions/"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
		return
	}
	f.hits[key]++
	route, ok := f.routes[key]
	f.mu.Unlock()

	if !ok {
		http.Error(w, "no route "+key, http.StatusNotFound)
		return
	}
	r.Body = io.NopCloser(strings.NewReader(string(body)))
	route(w, r, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
}

func (f *fakeVMS) handle(method, path string, fn routeFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = fn
}

func (f *fakeVMS) json(method, path, body string) {
	f.handle(method, path, func(w http.ResponseWriter, r *http.Request, _ string) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	})
}

func (f *fakeVMS) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

func (f *fakeVMS) hitCount(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[method+" "+path]
}

func (f *fakeVMS) config(t *testing.T) ClientConfig {
	t.Helper()
	u, err := url.Parse(f.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return ClientConfig{
		Host:     u.Hostname(),
		Port:     port,
		Username: "admin",
		Password: "secret",
		ClientID: "dws-test",
	}
}

func (f *fakeVMS) client(t *testing.T) *SpectrumClient {
	t.Helper()
	return New(f.config(t))
}

func (f *fakeVMS) loginBodies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.loginBody...)
}

func (f *fakeVMS) logoutTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.logouts...)
}

func (f *fakeVMS) firstHeader() http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.headers) == 0 {
		return http.Header{}
	}
	return f.headers[0]
}
