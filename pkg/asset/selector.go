// Package asset implements the Asset Selector: a pure lookup from a
// package's declared variants to the one matching the host platform.
package asset

import (
	"fmt"

	"github.com/fetchy-pm/fetchy/pkg/platform"
	"github.com/fetchy-pm/fetchy/pkg/repository"
)

// NoAssetForPlatform is returned when a package declares no variant for the
// given platform (spec.md §4.4).
type NoAssetForPlatform struct {
	PackageName string
	Platform    platform.Platform
}

func (e *NoAssetForPlatform) Error() string {
	return fmt.Sprintf("package %q has no variant for platform %s", e.PackageName, e.Platform)
}

// Select returns the AssetSpec whose platform matches p exactly.
func Select(pkgName string, decl repository.PackageDecl, p platform.Platform) (repository.AssetSpec, error) {
	spec, ok := decl.Variants[p]
	if !ok {
		return repository.AssetSpec{}, &NoAssetForPlatform{PackageName: pkgName, Platform: p}
	}
	return spec, nil
}
