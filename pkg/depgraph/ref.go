// Package depgraph implements the catalog and install graph operations of
// spec.md §4.8: install closures, cross-repo conflict detection, the
// breakage check that guards uninstall, and the orphan sweep that follows
// it. It holds no state of its own — callers (pkg/manager) feed it the
// current repository and install-store snapshot and act on what it returns.
package depgraph

// Ref identifies one installed or installable package by the repository
// that declares it and its name within that repository.
type Ref struct {
	RepoName    string
	PackageName string
}

func (r Ref) String() string {
	return r.RepoName + "/" + r.PackageName
}
