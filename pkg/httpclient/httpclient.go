// Package httpclient builds the http.Client Fetchy uses for every outbound
// request: release listing via the GitHub API and raw asset downloads.
package httpclient

import (
	"net/http"
	"net/url"
	"strings"
)

// New returns an http.Client whose RoundTripper injects token as a GitHub
// bearer token on requests aimed at
// github.com/api.github.com/githubusercontent.com, and leaves every other
// request untouched. token is read once at startup into config.Config and
// threaded down here (spec.md §9) rather than read from the environment on
// every request; an empty token disables the Authorization header entirely.
func New(token string) *http.Client {
	return &http.Client{
		Transport: &gitHubTransport{Base: http.DefaultTransport, Token: token},
	}
}

// gitHubTransport is a custom RoundTripper that adds GitHub authentication.
type gitHubTransport struct {
	Base  http.RoundTripper
	Token string
}

func (t *gitHubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req2 := req.Clone(req.Context())
	if t.Token != "" && isGitHubURL(req2.URL.String()) {
		req2.Header.Set("Authorization", "Bearer "+t.Token)
	}
	return t.Base.RoundTrip(req2)
}

func isGitHubURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "github.com" || strings.HasSuffix(host, ".github.com") ||
		host == "githubusercontent.com" || strings.HasSuffix(host, ".githubusercontent.com")
}
