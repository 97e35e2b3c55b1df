package depgraph

import "fmt"

// CrossRepoConflict is returned when a package name resolves to an
// already-installed package declared by a different repository
// (spec.md §8 scenario 6).
type CrossRepoConflict struct {
	PackageName   string
	InstalledRepo string
	RequestedRepo string
}

func (e *CrossRepoConflict) Error() string {
	return fmt.Sprintf("package %q is already installed from repository %q, cannot also install it from %q",
		e.PackageName, e.InstalledRepo, e.RequestedRepo)
}

// WouldBreakDependents is returned by an uninstall attempt when an
// explicitly-installed package transitively depends on the target.
// Dependents lists every transitive dependent, explicit or not, so the
// user can see the whole chain the uninstall would have broken.
type WouldBreakDependents struct {
	Target     Ref
	Dependents []Ref
}

func (e *WouldBreakDependents) Error() string {
	msg := fmt.Sprintf("cannot uninstall %s: depended on by", e.Target)
	for i, d := range e.Dependents {
		if i > 0 {
			msg += ","
		}
		msg += " " + d.String()
	}
	return msg
}
