package httpclient

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIsGitHubURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"github.com URL", "https://github.com/owner/repo", true},
		{"api.github.com URL", "https://api.github.com/repos/owner/repo", true},
		{"raw.githubusercontent.com URL", "https://raw.githubusercontent.com/owner/repo/main/file", true},
		{"non-GitHub URL", "https://example.com/file", false},
		{"http github.com URL", "http://github.com/owner/repo", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isGitHubURL(tt.url); got != tt.want {
				t.Errorf("isGitHubURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	client := New("test-token")
	if client == nil {
		t.Fatal("New() returned nil")
	}
	transport, ok := client.Transport.(*gitHubTransport)
	if !ok {
		t.Fatal("New() did not set gitHubTransport")
	}
	if transport.Base != http.DefaultTransport {
		t.Error("gitHubTransport.Base is not http.DefaultTransport")
	}
	if transport.Token != "test-token" {
		t.Errorf("transport.Token = %q, want %q", transport.Token, "test-token")
	}
}

func TestGitHubTransportInjectsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			w.Write([]byte(auth))
		} else {
			w.Write([]byte("no auth"))
		}
	}))
	defer server.Close()

	githubURL := "https://github.com/owner/repo"
	req, err := http.NewRequest(http.MethodGet, githubURL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	transport := &gitHubTransport{Base: &redirectTransport{target: server.URL}, Token: "test-token"}
	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	defer resp.Body.Close()

	body := make([]byte, 1024)
	n, _ := resp.Body.Read(body)
	if got := string(body[:n]); got != "Bearer test-token" {
		t.Errorf("response = %q, want %q", got, "Bearer test-token")
	}
}

func TestGitHubTransportIgnoresNonGitHubHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			w.Write([]byte(auth))
		} else {
			w.Write([]byte("no auth"))
		}
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	transport := &gitHubTransport{Base: http.DefaultTransport, Token: "test-token"}
	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	defer resp.Body.Close()

	body := make([]byte, 1024)
	n, _ := resp.Body.Read(body)
	if got := string(body[:n]); got != "no auth" {
		t.Errorf("response = %q, want %q", got, "no auth")
	}
}

func TestGitHubTransportOmitsHeaderWhenTokenEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			w.Write([]byte(auth))
		} else {
			w.Write([]byte("no auth"))
		}
	}))
	defer server.Close()

	githubURL := "https://github.com/owner/repo"
	req, err := http.NewRequest(http.MethodGet, githubURL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	transport := &gitHubTransport{Base: &redirectTransport{target: server.URL}}
	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	defer resp.Body.Close()

	body := make([]byte, 1024)
	n, _ := resp.Body.Read(body)
	if got := string(body[:n]); got != "no auth" {
		t.Errorf("response = %q, want %q", got, "no auth")
	}
}

// redirectTransport rewrites the request's host/scheme to point at a local
// test server while keeping the original URL (e.g. github.com) for the
// gitHubTransport's own host check.
type redirectTransport struct {
	target string
}

func (t *redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	newReq := req.Clone(req.Context())
	newReq.URL.Host = strings.TrimPrefix(t.target, "http://")
	newReq.URL.Scheme = "http"
	return http.DefaultTransport.RoundTrip(newReq)
}
