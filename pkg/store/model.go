// Package store implements the Install Store (spec.md §4.7): a single
// JSON document of installed packages, mutated atomically and serialized
// across processes by an advisory lockfile.
package store

import (
	"time"

	"github.com/fetchy-pm/fetchy/pkg/platform"
)

// InstalledAs distinguishes a package the user asked for from one pulled in
// only to satisfy a dependency.
type InstalledAs string

const (
	Explicit   InstalledAs = "explicit"
	Dependency InstalledAs = "dependency"
)

// InstalledPackage is one persisted row; (RepoName, PackageName) is the
// primary key.
type InstalledPackage struct {
	RepoName         string            `json:"repo_name"`
	PackageName      string            `json:"package_name"`
	ResolvedVersion  string            `json:"resolved_version"`
	Platform         platform.Platform `json:"platform"`
	InstalledBinaries []string         `json:"installed_binaries"`
	Dependencies     []string          `json:"dependencies"`
	InstalledAs      InstalledAs       `json:"installed_as"`
	InstalledAt      time.Time         `json:"installed_at"`
}

// key identifies a row by its primary key.
func key(repoName, packageName string) string {
	return repoName + "/" + packageName
}

// document is the on-disk shape of installed.json.
type document struct {
	Packages map[string]InstalledPackage `json:"packages"`
}
