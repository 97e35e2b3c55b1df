// Package fetch resolves a package's version against its GitHub releases (or
// its Direct literal), selects the matching asset, and downloads it to a
// local cache location (spec.md §4.5).
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/go-github/v72/github"
	"github.com/pkg/errors"

	"github.com/fetchy-pm/fetchy/pkg/repository"
)

// Fetcher resolves versions and downloads assets for both GitHub and Direct
// sources.
type Fetcher struct {
	HTTP   *http.Client
	GitHub *github.Client
}

// New builds a Fetcher on top of the given http.Client (normally one built by
// pkg/httpclient, which injects FETCHY_GITHUB_TOKEN).
func New(client *http.Client) *Fetcher {
	return &Fetcher{
		HTTP:   client,
		GitHub: github.NewClient(client),
	}
}

// Resolved carries the outcome of resolving a package's version: the
// concrete release (nil for Direct sources) and the resolved_version string
// recorded on the installed package.
type Resolved struct {
	Release         *github.RepositoryRelease
	ResolvedVersion string
}

// ResolveVersion implements spec.md §4.5's release-selection policy: the
// most recent release by publish time, tie-broken by the highest lexical
// tag name, filtered by allow_prerelease. Direct sources skip all of this
// and resolve to their literal version.
func (f *Fetcher) ResolveVersion(ctx context.Context, decl repository.PackageDecl) (Resolved, error) {
	if !decl.Source.IsGitHub {
		return Resolved{ResolvedVersion: decl.LiteralVersion}, nil
	}

	owner, repo := decl.Source.Owner, decl.Source.Repo
	var all []*github.RepositoryRelease
	opts := &github.ListOptions{PerPage: 100}
	for {
		releases, resp, err := f.GitHub.Repositories.ListReleases(ctx, owner, repo, opts)
		if err != nil {
			return Resolved{}, translateGitHubError(err, resp)
		}
		all = append(all, releases...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	eligible := all[:0]
	for _, r := range all {
		if r.GetPrerelease() && !decl.AllowPrerelease {
			continue
		}
		if r.GetDraft() {
			continue
		}
		eligible = append(eligible, r)
	}
	if len(eligible) == 0 {
		return Resolved{}, &NoReleaseFound{Repo: decl.Source.GitHubRepo(), AllowPrerelease: decl.AllowPrerelease}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		ti, tj := eligible[i].GetPublishedAt().Time, eligible[j].GetPublishedAt().Time
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return eligible[i].GetTagName() > eligible[j].GetTagName()
	})
	best := eligible[0]

	var version string
	switch decl.VersionFrom {
	case repository.VersionFromReleaseTitle:
		version = best.GetName()
	default:
		version = best.GetTagName()
	}

	return Resolved{Release: best, ResolvedVersion: version}, nil
}

// SelectAsset picks the single release asset whose name matches spec's
// pattern. For Direct sources there is no release to search: the pattern is
// itself the download URL.
func (f *Fetcher) SelectAsset(decl repository.PackageDecl, spec repository.AssetSpec, resolved Resolved) (string, error) {
	if !decl.Source.IsGitHub {
		return spec.Pattern, nil
	}

	var matches []*github.ReleaseAsset
	for _, a := range resolved.Release.Assets {
		if spec.CompiledPattern.MatchString(a.GetName()) {
			matches = append(matches, a)
		}
	}
	switch len(matches) {
	case 0:
		return "", &AssetNotFound{Repo: decl.Source.GitHubRepo(), Tag: resolved.Release.GetTagName(), Pattern: spec.Pattern}
	case 1:
		return matches[0].GetBrowserDownloadURL(), nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.GetName()
		}
		return "", &AmbiguousAsset{Repo: decl.Source.GitHubRepo(), Tag: resolved.Release.GetTagName(), Pattern: spec.Pattern, Candidates: names}
	}
}

// Download streams url to a new temporary file under destDir and returns its
// path on success. The caller owns renaming it into place; on any error the
// partial file is removed.
func (f *Fetcher) Download(ctx context.Context, url, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating download directory")
	}

	tmp, err := os.CreateTemp(destDir, ".fetchy-download-*")
	if err != nil {
		return "", errors.Wrap(err, "creating temporary file")
	}
	tmpPath := tmp.Name()
	defer tmp.Close()

	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tmpPath)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(err, "building download request")
	}

	resp, err := f.HTTP.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "performing download request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		return "", &RateLimited{ResetAt: parseRateLimitReset(resp.Header.Get("X-RateLimit-Reset"))}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &NetworkError{URL: url, Status: resp.StatusCode}
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return "", errors.Wrap(err, "streaming download body")
	}

	succeeded = true
	return tmpPath, nil
}

func parseRateLimitReset(header string) time.Time {
	var epoch int64
	if _, err := fmt.Sscanf(header, "%d", &epoch); err != nil {
		return time.Time{}
	}
	return time.Unix(epoch, 0)
}

func translateGitHubError(err error, resp *github.Response) error {
	if resp != nil && resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		return &RateLimited{ResetAt: parseRateLimitReset(resp.Header.Get("X-RateLimit-Reset"))}
	}
	if resp != nil {
		return &NetworkError{URL: resp.Request.URL.String(), Status: resp.StatusCode}
	}
	return errors.Wrap(err, "listing releases")
}

// CacheDestination computes the filesystem path a downloaded asset should be
// moved to once it passes any configured checksum verification.
func CacheDestination(cacheDir, repoName, pkgName, version, filename string) string {
	return filepath.Join(cacheDir, repoName, pkgName, version, filename)
}
