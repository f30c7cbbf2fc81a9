package scmtest

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/server/services/scm"
)

const originalURLHeader = "X-Scmtest-Original-Url"

// Request is a request received by a FakeSCM, recorded with the URL the client asked for.
type Request struct {
	URL           string
	Authorization string
}

// Responder produces a status and body for a request, given its Authorization header.
type Responder func(authorization string) (int, string)

// FakeSCM is an httptest server that stands in for any number of SCM hosts. Clients
// returned by Client have every request rewritten to the fake, so tests can use real
// provider URLs. URLs with no registered response return 404.
type FakeSCM struct {
	server     *httptest.Server
	mu         sync.Mutex
	responders map[string]Responder
	requests   []Request
}

func NewFakeSCM(t *testing.T) *FakeSCM {
	f := &FakeSCM{responders: make(map[string]Responder)}
	f.server = httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	t.Cleanup(f.server.Close)
	return f
}

// Serve registers a fixed response for a URL.
func (f *FakeSCM) Serve(url string, status int, body string) {
	f.ServeFunc(url, func(string) (int, string) { return status, body })
}

// ServeFunc registers a responder for a URL.
func (f *FakeSCM) ServeFunc(url string, responder Responder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responders[url] = responder
}

// Requests returns every request received so far, in order.
func (f *FakeSCM) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

// RequestedURLs returns the URL of every request received so far, in order.
func (f *FakeSCM) RequestedURLs() []string {
	var urls []string
	for _, r := range f.Requests() {
		urls = append(urls, r.URL)
	}
	return urls
}

// Client returns an HTTP client that sends every request to the fake.
func (f *FakeSCM) Client() *http.Client {
	target, _ := url.Parse(f.server.URL)
	return &http.Client{Transport: &rewriteTransport{target: target}}
}

// Fetcher returns a Fetcher whose both transports talk to the fake.
func (f *FakeSCM) Fetcher() *scm.Fetcher {
	return scm.NewFetcherWithTransports(f.Client(), f.Client(), logger.NoOpLogFactory)
}

func (f *FakeSCM) serveHTTP(w http.ResponseWriter, r *http.Request) {
	original := r.Header.Get(originalURLHeader)
	auth := r.Header.Get("Authorization")
	f.mu.Lock()
	f.requests = append(f.requests, Request{URL: original, Authorization: auth})
	responder, ok := f.responders[original]
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	status, body := responder(auth)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

type rewriteTransport struct {
	target *url.URL
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set(originalURLHeader, req.URL.String())
	clone.URL.Scheme = t.target.Scheme
	clone.URL.Host = t.target.Host
	clone.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(clone)
}

// FailingClient returns an HTTP client whose every request fails at the transport level.
func FailingClient() *http.Client {
	return &http.Client{Transport: failingTransport{}}
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("x509: certificate signed by unknown authority")
}
