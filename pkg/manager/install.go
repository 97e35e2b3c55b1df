package manager

import (
	"context"
	"net/url"
	"os"
	"path"
	"sort"
	"time"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/fetchy-pm/fetchy/pkg/archive"
	"github.com/fetchy-pm/fetchy/pkg/asset"
	"github.com/fetchy-pm/fetchy/pkg/checksum"
	"github.com/fetchy-pm/fetchy/pkg/depgraph"
	"github.com/fetchy-pm/fetchy/pkg/fetch"
	"github.com/fetchy-pm/fetchy/pkg/platform"
	"github.com/fetchy-pm/fetchy/pkg/repository"
	"github.com/fetchy-pm/fetchy/pkg/store"
)

// installedByName maps a package name to the repository it is currently
// installed from, implementing depgraph.InstalledIndex.
type installedByName map[string]string

func (idx installedByName) RepoOf(packageName string) (string, bool) {
	repoName, ok := idx[packageName]
	return repoName, ok
}

func (m *Manager) installedIndex() (installedByName, error) {
	rows, err := m.Store.List()
	if err != nil {
		return nil, err
	}
	idx := make(installedByName, len(rows))
	for _, r := range rows {
		idx[r.PackageName] = r.RepoName
	}
	return idx, nil
}

// Install computes pkgName's install closure within repoName and installs
// every node not already satisfied, dependencies before the requested
// package (spec.md §4.8). It is idempotent: a node already present in the
// store is not fetched again, except that the requested package itself is
// promoted to Explicit if it was Dependency-marked.
func (m *Manager) Install(ctx context.Context, repoName, pkgName string) error {
	repo, err := m.LoadRepo(repoName)
	if err != nil {
		return err
	}
	if _, ok := repo.Packages[pkgName]; !ok {
		return &PackageNotDeclared{RepoName: repoName, PackageName: pkgName}
	}

	idx, err := m.installedIndex()
	if err != nil {
		return err
	}
	closure, err := depgraph.InstallClosure(repo, repoName, pkgName, idx)
	if err != nil {
		return err
	}

	host, err := platform.Detect()
	if err != nil {
		return err
	}

	log.Infof("install closure for %s/%s: %d package(s)", repoName, pkgName, len(closure))
	for _, ref := range closure {
		explicit := ref.PackageName == pkgName
		if err := m.installOne(ctx, repo, ref, host, explicit); err != nil {
			return errors.Wrapf(err, "installing %s", ref)
		}
	}
	return nil
}

func (m *Manager) installOne(ctx context.Context, repo *repository.Repository, ref depgraph.Ref, host platform.Platform, explicit bool) error {
	if existing, err := m.Store.Get(ref.RepoName, ref.PackageName); err == nil {
		// A package already pulled in as a Dependency gets promoted when the
		// user explicitly installs it directly (spec.md §4.8), so a later
		// orphan sweep never removes something they asked for by name.
		if explicit && existing.InstalledAs != store.Explicit {
			if err := m.Store.MarkAs(ref.RepoName, ref.PackageName, store.Explicit); err != nil {
				return err
			}
			log.Infof("%s already installed as a dependency, marking explicit", ref)
			return nil
		}
		log.Debugf("%s already installed, skipping", ref)
		return nil
	}

	decl := repo.Packages[ref.PackageName]
	log.Infof("installing %s", ref)

	record, err := m.fetchAndPlace(ctx, ref, decl, host)
	if err != nil {
		return err
	}
	if explicit {
		record.InstalledAs = store.Explicit
	} else {
		record.InstalledAs = store.Dependency
	}

	if err := m.Store.Insert(record); err != nil {
		return err
	}
	log.Infof("%s installed at %s", ref, record.ResolvedVersion)
	return nil
}

// fetchAndPlace runs the Pending -> Fetching -> Extracting -> Installed
// state machine for a single package (spec.md §4.8), returning a fresh
// InstalledPackage record (InstalledAs left at its zero value for the
// caller to set).
func (m *Manager) fetchAndPlace(ctx context.Context, ref depgraph.Ref, decl repository.PackageDecl, host platform.Platform) (store.InstalledPackage, error) {
	state := depgraph.Pending
	log.Debugf("%s: %s", ref, state)

	spec, err := asset.Select(ref.PackageName, decl, host)
	if err != nil {
		return store.InstalledPackage{}, err
	}

	state = depgraph.Fetching
	log.Debugf("%s: %s", ref, state)

	resolved, err := m.Fetcher.ResolveVersion(ctx, decl)
	if err != nil {
		return store.InstalledPackage{}, err
	}

	assetURL, err := m.Fetcher.SelectAsset(decl, spec, resolved)
	if err != nil {
		return store.InstalledPackage{}, err
	}
	assetFilename, err := filenameFromURL(assetURL)
	if err != nil {
		return store.InstalledPackage{}, err
	}

	scratchDir, err := os.MkdirTemp(m.Config.CacheDir(), ".fetchy-fetch-*")
	if err != nil {
		return store.InstalledPackage{}, errors.Wrap(err, "creating scratch directory")
	}
	defer os.RemoveAll(scratchDir)

	downloadedPath, err := m.Fetcher.Download(ctx, assetURL, scratchDir)
	if err != nil {
		return store.InstalledPackage{}, err
	}

	if spec.Checksum != nil {
		if err := m.verifyChecksum(ctx, decl, spec, resolved, downloadedPath, assetFilename, scratchDir); err != nil {
			state = depgraph.Failed
			log.Debugf("%s: %s", ref, state)
			return store.InstalledPackage{}, err
		}
	}

	state = depgraph.Extracting
	log.Debugf("%s: %s", ref, state)

	var binaries map[string]string
	if spec.IsArchive {
		binaries, err = archive.Extract(downloadedPath, spec.ArchiveKind, spec.Binaries, m.Config.BinDir(), host)
	} else {
		var placed string
		placed, err = archive.PlaceSingleFile(downloadedPath, m.Config.BinDir(), spec.InstallName)
		if err == nil {
			binaries = map[string]string{spec.InstallName: placed}
		}
	}
	if err != nil {
		state = depgraph.Failed
		log.Debugf("%s: %s", ref, state)
		return store.InstalledPackage{}, err
	}

	state = depgraph.Installed
	log.Debugf("%s: %s", ref, state)

	installedBinaries := make([]string, 0, len(binaries))
	for _, p := range binaries {
		installedBinaries = append(installedBinaries, p)
	}
	sort.Strings(installedBinaries)

	return store.NewRecord(ref.RepoName, ref.PackageName, resolved.ResolvedVersion, host,
		installedBinaries, decl.Requires, store.Dependency, time.Now()), nil
}

// verifyChecksum downloads the checksum listing named by spec.Checksum and
// verifies the already-downloaded asset against it (SPEC_FULL.md §3.1).
func (m *Manager) verifyChecksum(ctx context.Context, decl repository.PackageDecl, spec repository.AssetSpec, resolved fetch.Resolved, downloadedPath, assetFilename, scratchDir string) error {
	cs := spec.Checksum

	var listingURL string
	if decl.Source.IsGitHub {
		names := make([]string, len(resolved.Release.Assets))
		for i, a := range resolved.Release.Assets {
			names[i] = a.GetName()
		}
		name, err := checksum.SelectListingAssetName(names, cs)
		if err != nil {
			return err
		}
		for _, a := range resolved.Release.Assets {
			if a.GetName() == name {
				listingURL = a.GetBrowserDownloadURL()
				break
			}
		}
	} else {
		resolvedURL, err := checksum.ResolveDirectURL(cs.Pattern, decl.Name, resolved.ResolvedVersion)
		if err != nil {
			return err
		}
		listingURL = resolvedURL
	}

	listingPath, err := m.Fetcher.Download(ctx, listingURL, scratchDir)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(listingPath)
	if err != nil {
		return errors.Wrap(err, "reading checksum listing")
	}

	listing := checksum.ParseListing(content)
	return checksum.Verify(listing, assetFilename, downloadedPath, cs.Algorithm)
}

func filenameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(err, "parsing asset URL %q", rawURL)
	}
	return path.Base(u.Path), nil
}
