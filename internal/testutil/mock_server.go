// Package testutil provides testing utilities for the timeline sync core.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Route paths served by MockServer. Locator templates for tests are
// URL() + one of these.
const (
	DetailsPath       = "/users/{user}"
	ContributionsPath = "/{user}.contribs"
	AvatarPath        = "/avatar/{user}.png"
)

// MockServer is a configurable HTTP test server standing in for the three
// remote profile resources.
type MockServer struct {
	Server *httptest.Server

	// Configuration
	Resources        map[string][]byte // Body by request path
	Latency          time.Duration     // Artificial latency per request
	FailOnNthRequest int               // Fail on Nth request (0 = don't fail)
	FailAfterBytes   int64             // Truncate bodies after this many bytes (0 = no fail)

	// Tracking
	RequestCount   atomic.Int64
	BytesServed    atomic.Int64
	FailedRequests atomic.Int64
	mu             sync.Mutex
	internalReqNum int
	perPath        map[string]int

	CustomHandler http.HandlerFunc
}

// MockServerOption is a function that configures a MockServer.
type MockServerOption func(*MockServer)

// WithHandler sets a custom request handler.
func WithHandler(h http.HandlerFunc) MockServerOption {
	return func(m *MockServer) {
		m.CustomHandler = h
	}
}

// WithResource serves body at path.
func WithResource(path string, body []byte) MockServerOption {
	return func(m *MockServer) {
		m.Resources[path] = body
	}
}

// WithProfile serves details, contributions and a PNG avatar for handle.
func WithProfile(handle string, details, contributions string) MockServerOption {
	return func(m *MockServer) {
		m.Resources[expand(DetailsPath, handle)] = []byte(details)
		m.Resources[expand(ContributionsPath, handle)] = []byte(contributions)
		m.Resources[expand(AvatarPath, handle)] = PNG(4, 4)
	}
}

// WithLatency adds artificial latency per request.
func WithLatency(d time.Duration) MockServerOption {
	return func(m *MockServer) {
		m.Latency = d
	}
}

// WithFailOnNthRequest causes the Nth request to fail with a 500.
func WithFailOnNthRequest(n int) MockServerOption {
	return func(m *MockServer) {
		m.FailOnNthRequest = n
	}
}

// WithFailAfterBytes aborts the connection after serving N bytes of a body.
func WithFailAfterBytes(n int64) MockServerOption {
	return func(m *MockServer) {
		m.FailAfterBytes = n
	}
}

// NewMockServerT creates a new mock HTTP server and skips the test if binding fails.
func NewMockServerT(t *testing.T, opts ...MockServerOption) *MockServer {
	t.Helper()
	m := &MockServer{
		Resources: make(map[string][]byte),
		perPath:   make(map[string]int),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.Server = NewHTTPServerT(t, http.HandlerFunc(m.handleRequest))
	t.Cleanup(m.Close)
	return m
}

// URL returns the server's URL.
func (m *MockServer) URL() string {
	return m.Server.URL
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	if m.Server != nil {
		m.Server.Close()
	}
}

// Requests returns how many requests hit path.
func (m *MockServer) Requests(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.perPath[path]
}

// Reset clears all tracking counters.
func (m *MockServer) Reset() {
	m.RequestCount.Store(0)
	m.BytesServed.Store(0)
	m.FailedRequests.Store(0)
	m.mu.Lock()
	m.internalReqNum = 0
	m.perPath = make(map[string]int)
	m.mu.Unlock()
}

func (m *MockServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	m.RequestCount.Add(1)

	m.mu.Lock()
	m.internalReqNum++
	reqNum := m.internalReqNum
	m.perPath[r.URL.Path]++
	m.mu.Unlock()

	if m.CustomHandler != nil {
		m.CustomHandler(w, r)
		return
	}

	if m.FailOnNthRequest > 0 && reqNum == m.FailOnNthRequest {
		m.FailedRequests.Add(1)
		http.Error(w, "Simulated failure", http.StatusInternalServerError)
		return
	}

	if m.Latency > 0 {
		time.Sleep(m.Latency)
	}

	body, ok := m.Resources[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}

	if m.FailAfterBytes > 0 && int64(len(body)) > m.FailAfterBytes {
		// Promise the full length, then hang up early
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		n, _ := w.Write(body[:m.FailAfterBytes])
		m.BytesServed.Add(int64(n))
		m.FailedRequests.Add(1)
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				_ = conn.Close()
			}
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	n, _ := w.Write(body)
	m.BytesServed.Add(int64(n))
}

func expand(path, handle string) string {
	return strings.ReplaceAll(path, "{user}", handle)
}

// PNG encodes a small solid image.
func PNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 46, G: 160, B: 67, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
