package manager

import (
	"context"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/fetchy-pm/fetchy/pkg/depgraph"
	"github.com/fetchy-pm/fetchy/pkg/platform"
	"github.com/fetchy-pm/fetchy/pkg/store"
)

// Update re-resolves each ref's remote version and, if it changed, replaces
// its binaries (spec.md §4.8). An empty refs means "update everything
// currently installed" (the CLI's `update` with no arguments).
func (m *Manager) Update(ctx context.Context, refs []depgraph.Ref) error {
	if len(refs) == 0 {
		rows, err := m.Store.List()
		if err != nil {
			return err
		}
		for _, r := range rows {
			refs = append(refs, depgraph.Ref{RepoName: r.RepoName, PackageName: r.PackageName})
		}
	}

	host, err := platform.Detect()
	if err != nil {
		return err
	}

	for _, ref := range refs {
		if err := m.updateOne(ctx, ref, host); err != nil {
			return errors.Wrapf(err, "updating %s", ref)
		}
	}
	return nil
}

func (m *Manager) updateOne(ctx context.Context, ref depgraph.Ref, host platform.Platform) error {
	row, err := m.Store.Get(ref.RepoName, ref.PackageName)
	if err != nil {
		return err
	}

	repo, err := m.LoadRepo(ref.RepoName)
	if err != nil {
		return err
	}
	decl, ok := repo.Packages[ref.PackageName]
	if !ok {
		return &PackageNotDeclared{RepoName: ref.RepoName, PackageName: ref.PackageName}
	}

	resolved, err := m.Fetcher.ResolveVersion(ctx, decl)
	if err != nil {
		return err
	}
	if resolved.ResolvedVersion == row.ResolvedVersion {
		log.Debugf("%s already at %s, nothing to do", ref, row.ResolvedVersion)
		return nil
	}

	log.Infof("updating %s: %s -> %s", ref, row.ResolvedVersion, resolved.ResolvedVersion)
	fresh, err := m.fetchAndPlace(ctx, ref, decl, host)
	if err != nil {
		return err
	}
	fresh.InstalledAs = row.InstalledAs

	if err := m.Store.Update(ref.RepoName, ref.PackageName, func(r *store.InstalledPackage) {
		*r = fresh
	}); err != nil {
		return err
	}
	log.Infof("%s updated to %s", ref, fresh.ResolvedVersion)
	return nil
}
