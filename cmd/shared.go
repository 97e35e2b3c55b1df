package cmd

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/fetchy-pm/fetchy/pkg/config"
	"github.com/fetchy-pm/fetchy/pkg/manager"
)

// newManager loads the process config and constructs a Manager, the one
// piece of shared setup every subcommand needs before it can do anything.
func newManager() (*manager.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading configuration")
	}
	return manager.New(cfg)
}

// parseRef splits a CLI package argument of the form "repo/package" into its
// two parts, the same "repoName/packageName" shape depgraph.Ref.String()
// produces.
func parseRef(s string) (repoName, pkgName string, err error) {
	repoName, pkgName, ok := strings.Cut(s, "/")
	if !ok {
		return "", "", errors.Errorf("package reference %q must be of the form <repo>/<package>", s)
	}
	return repoName, pkgName, nil
}
