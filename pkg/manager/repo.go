package manager

import (
	"bytes"
	"os"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/fetchy-pm/fetchy/pkg/repository"
	"github.com/fetchy-pm/fetchy/pkg/syntax"
)

// AddRepo parses the repository file at path (DSL or JSON front-end,
// distinguished the way the front-end files themselves are: JSON starts
// with '{'), validates it, and persists its canonical form to
// repos/<name>.json. Returned warnings are the loader's non-fatal
// diagnostics (spec.md §9).
func (m *Manager) AddRepo(path string) (*repository.Repository, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading repository file %s", path)
	}

	var f *syntax.File
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		f, err = syntax.ParseJSON(data)
	} else {
		f, err = syntax.Parse(string(data))
	}
	if err != nil {
		return nil, nil, err
	}

	repo, warnings, err := repository.Load(f)
	if err != nil {
		return nil, nil, err
	}

	encoded, err := repository.EncodeJSON(repo)
	if err != nil {
		return nil, nil, err
	}
	if err := atomicWriteFile(m.Config.RepoPath(repo.Name), encoded); err != nil {
		return nil, nil, err
	}

	log.Infof("added repository %q (%d packages)", repo.Name, len(repo.Packages))
	for _, w := range warnings {
		log.Warn(w)
	}
	return repo, warnings, nil
}

// RemoveRepo deletes a repository's persisted catalog, refusing when any
// installed package still references it.
func (m *Manager) RemoveRepo(name string) error {
	rows, err := m.Store.List()
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.RepoName == name {
			return &RepoInUse{RepoName: name, PackageName: r.PackageName}
		}
	}

	if err := os.Remove(m.Config.RepoPath(name)); err != nil {
		if os.IsNotExist(err) {
			return &RepoNotFound{RepoName: name}
		}
		return errors.Wrapf(err, "removing repository %s", name)
	}
	log.Infof("removed repository %q", name)
	return nil
}

// ListRepos returns every added repository's name, sorted.
func (m *Manager) ListRepos() ([]string, error) {
	entries, err := os.ReadDir(m.Config.ReposDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "listing repositories")
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// LoadRepo reads and decodes a previously-added repository's canonical JSON.
func (m *Manager) LoadRepo(name string) (*repository.Repository, error) {
	data, err := os.ReadFile(m.Config.RepoPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &RepoNotFound{RepoName: name}
		}
		return nil, errors.Wrapf(err, "reading repository %s", name)
	}
	return repository.DecodeJSON(data)
}
