// Package manager is Fetchy's orchestrator (spec.md §2): it wires
// pkg/repository, pkg/asset, pkg/fetch, pkg/archive, pkg/checksum,
// pkg/store and pkg/depgraph into the add-repo/remove-repo/list-repos/
// install/uninstall/update/list operations the CLI exposes.
package manager

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/fetchy-pm/fetchy/pkg/config"
	"github.com/fetchy-pm/fetchy/pkg/fetch"
	"github.com/fetchy-pm/fetchy/pkg/httpclient"
	"github.com/fetchy-pm/fetchy/pkg/store"
)

// Manager holds the process-wide configuration and the components it
// orchestrates. It is constructed once per CLI invocation (spec.md §9:
// no mutable global state).
type Manager struct {
	Config  *config.Config
	Fetcher *fetch.Fetcher
	Store   *store.Store
}

// New builds a Manager from a resolved Config, creating the data directory
// layout if it doesn't exist yet.
func New(cfg *config.Config) (*Manager, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, errors.Wrap(err, "preparing fetchy home directory")
	}
	return &Manager{
		Config:  cfg,
		Fetcher: fetch.New(httpclient.New(cfg.GitHubToken)),
		Store:   store.New(cfg.InstalledPath(), cfg.LockPath()),
	}, nil
}

// atomicWriteFile writes data to path via a sibling temp file, fsync, then
// rename — the same pattern pkg/store uses for the install document.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating directory")
	}

	tmp, err := os.CreateTemp(dir, ".fetchy-write-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpPath := tmp.Name()

	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "fsyncing file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "renaming file into place")
	}

	succeeded = true
	return nil
}
