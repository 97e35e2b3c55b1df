package manager

import (
	"os"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/fetchy-pm/fetchy/pkg/depgraph"
	"github.com/fetchy-pm/fetchy/pkg/store"
)

// Uninstall removes the given package, refusing when another explicitly
// installed package transitively depends on it (spec.md §4.8), then sweeps
// any Dependency-marked package left orphaned by the removal.
func (m *Manager) Uninstall(repoName, pkgName string) error {
	target := depgraph.Ref{RepoName: repoName, PackageName: pkgName}

	rows, err := m.Store.List()
	if err != nil {
		return err
	}
	if _, ok := rowFor(rows, target); !ok {
		return &store.NotFound{RepoName: repoName, PackageName: pkgName}
	}

	nodes := installGraphNodes(rows)
	if dependents := depgraph.Dependents(nodes, target); depgraph.HasExplicit(nodes, dependents) {
		return &depgraph.WouldBreakDependents{Target: target, Dependents: dependents}
	}

	if err := m.removePackage(rows, target); err != nil {
		return err
	}
	log.Infof("uninstalled %s", target)

	for _, orphan := range depgraph.OrphanSweep(nodes, target) {
		if err := m.removePackage(rows, orphan); err != nil {
			log.WithError(err).Errorf("orphan sweep: failed to remove %s", orphan)
			continue
		}
		log.Infof("removed orphaned dependency %s", orphan)
	}
	return nil
}

func (m *Manager) removePackage(rows []store.InstalledPackage, ref depgraph.Ref) error {
	row, ok := rowFor(rows, ref)
	if !ok {
		return nil
	}
	for _, p := range row.InstalledBinaries {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "removing binary %s", p)
		}
	}
	return m.Store.Remove(ref.RepoName, ref.PackageName)
}

func rowFor(rows []store.InstalledPackage, ref depgraph.Ref) (store.InstalledPackage, bool) {
	for _, r := range rows {
		if r.RepoName == ref.RepoName && r.PackageName == ref.PackageName {
			return r, true
		}
	}
	return store.InstalledPackage{}, false
}

// installGraphNodes adapts the install store's flat InstalledPackage rows
// into depgraph.Node values. A row's Dependencies names are always resolved
// within its own repository, since the catalog graph's Requires edges never
// cross repositories (pkg/repository's validateRequires enforces this at
// load time).
func installGraphNodes(rows []store.InstalledPackage) []depgraph.Node {
	nodes := make([]depgraph.Node, 0, len(rows))
	for _, r := range rows {
		n := depgraph.Node{
			Ref:      depgraph.Ref{RepoName: r.RepoName, PackageName: r.PackageName},
			Explicit: r.InstalledAs == store.Explicit,
		}
		for _, dep := range r.Dependencies {
			n.Dependencies = append(n.Dependencies, depgraph.Ref{RepoName: r.RepoName, PackageName: dep})
		}
		nodes = append(nodes, n)
	}
	return nodes
}
