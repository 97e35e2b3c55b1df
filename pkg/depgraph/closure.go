package depgraph

import (
	"github.com/pkg/errors"

	"github.com/fetchy-pm/fetchy/pkg/repository"
)

// InstalledIndex answers "is this package name currently installed, and
// under which repository" — the only fact InstallClosure needs from the
// install store to detect a CrossRepoConflict. Built fresh by the caller
// from a store.Store snapshot before each closure computation.
type InstalledIndex interface {
	RepoOf(packageName string) (repoName string, ok bool)
}

// InstallClosure walks the catalog graph (PackageDecl.Requires, immutable
// per repo) rooted at pkgName and returns the packages that must be
// installed, in topological order — dependencies before dependents, with
// pkgName itself last. A dependency already installed under repoName is
// omitted (nothing to do); one already installed under a different
// repository is a CrossRepoConflict. pkgName itself is always included,
// even if already installed, so the caller can decide to update-or-no-op.
func InstallClosure(repo *repository.Repository, repoName, pkgName string, idx InstalledIndex) ([]Ref, error) {
	visited := make(map[string]bool, len(repo.Packages))
	var order []Ref

	var visit func(name string, isRoot bool) error
	visit = func(name string, isRoot bool) error {
		if visited[name] {
			return nil
		}
		visited[name] = true

		decl, ok := repo.Packages[name]
		if !ok {
			return errors.Errorf("repository %q has no package %q", repoName, name)
		}
		for _, dep := range decl.Requires {
			if err := visit(dep, false); err != nil {
				return err
			}
		}

		if installedRepo, already := idx.RepoOf(name); already {
			if installedRepo != repoName {
				return &CrossRepoConflict{PackageName: name, InstalledRepo: installedRepo, RequestedRepo: repoName}
			}
			if !isRoot {
				return nil
			}
		}

		order = append(order, Ref{RepoName: repoName, PackageName: name})
		return nil
	}

	if err := visit(pkgName, true); err != nil {
		return nil, err
	}
	return order, nil
}
