package testutil

import (
	"bytes"
	"image/png"
	"io"
	"net/http"
	"testing"
)

func TestMockServer_ServesProfile(t *testing.T) {
	server := NewMockServerT(t, WithProfile("octocat", `{"name":"Octo"}`, `{"total_contributions":1}`))

	resp, err := http.Get(server.URL() + "/users/octocat")
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	if string(data) != `{"name":"Octo"}` {
		t.Errorf("unexpected body %q", data)
	}

	if got := server.Requests("/users/octocat"); got != 1 {
		t.Errorf("Expected 1 request, got %d", got)
	}
}

func TestMockServer_NotFound(t *testing.T) {
	server := NewMockServerT(t)

	resp, err := http.Get(server.URL() + "/missing")
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestMockServer_FailOnNthRequest(t *testing.T) {
	server := NewMockServerT(t, WithResource("/a", []byte("ok")), WithFailOnNthRequest(1))

	resp, err := http.Get(server.URL() + "/a")
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("first request should fail, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL() + "/a")
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("second request should succeed, got %d", resp.StatusCode)
	}
	if server.FailedRequests.Load() != 1 {
		t.Errorf("Expected 1 failed request, got %d", server.FailedRequests.Load())
	}
}

func TestPNG_Decodes(t *testing.T) {
	img, err := png.Decode(bytes.NewReader(PNG(3, 2)))
	if err != nil {
		t.Fatalf("PNG should decode: %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
}
