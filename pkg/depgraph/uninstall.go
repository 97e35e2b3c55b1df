package depgraph

import "sort"

// Node is one installed package's position in the install graph: its
// dependency edges (InstalledPackage.Dependencies, resolved to Refs by the
// caller) and whether it is Explicit or Dependency-marked.
type Node struct {
	Ref          Ref
	Dependencies []Ref
	Explicit     bool
}

// Dependents returns every package (other than target) that transitively
// depends on target, via the reverse install graph — the full payload for
// a would-break-uninstall report (spec.md §8 scenario 3: uninstalling a
// package two levels deep in a chain reports every ancestor, not just the
// explicitly-installed ones). Callers gate the uninstall itself on whether
// any of these is Explicit; an empty result, or a result containing only
// Dependency-marked packages, means target may be removed.
func Dependents(nodes []Node, target Ref) []Ref {
	reverse := make(map[Ref][]Ref, len(nodes))
	for _, n := range nodes {
		for _, dep := range n.Dependencies {
			reverse[dep] = append(reverse[dep], n.Ref)
		}
	}

	visited := map[Ref]bool{target: true}
	queue := append([]Ref{}, reverse[target]...)
	var found []Ref
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		if visited[r] {
			continue
		}
		visited[r] = true
		found = append(found, r)
		queue = append(queue, reverse[r]...)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].String() < found[j].String() })
	return found
}

// HasExplicit reports whether any of dependents is an Explicit node —
// the trigger condition for blocking an uninstall, applied to the full
// Dependents list.
func HasExplicit(nodes []Node, dependents []Ref) bool {
	explicit := make(map[Ref]bool, len(nodes))
	for _, n := range nodes {
		explicit[n.Ref] = n.Explicit
	}
	for _, r := range dependents {
		if explicit[r] {
			return true
		}
	}
	return false
}

// OrphanSweep computes, after removed has been taken out of the install
// graph, every Dependency-marked node left with no remaining reverse edge —
// iterated to a fixed point, since removing one orphan can orphan another.
// The returned order is safe to uninstall in sequence (each node's
// dependents, if any, are removed no later than the node itself... in fact
// strictly earlier, since a node is only orphaned once nothing depends on
// it any more).
func OrphanSweep(nodes []Node, removed Ref) []Ref {
	remaining := make(map[Ref]Node, len(nodes))
	for _, n := range nodes {
		if n.Ref == removed {
			continue
		}
		remaining[n.Ref] = n
	}

	var order []Ref
	for {
		required := make(map[Ref]bool, len(remaining))
		for _, n := range remaining {
			for _, dep := range n.Dependencies {
				required[dep] = true
			}
		}

		var batch []Ref
		for ref, n := range remaining {
			if n.Explicit || required[ref] {
				continue
			}
			batch = append(batch, ref)
		}
		if len(batch) == 0 {
			break
		}
		sort.Slice(batch, func(i, j int) bool { return batch[i].String() < batch[j].String() })
		for _, ref := range batch {
			delete(remaining, ref)
			order = append(order, ref)
		}
	}
	return order
}
