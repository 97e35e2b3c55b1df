package store

import (
	"time"

	"github.com/fetchy-pm/fetchy/pkg/platform"
)

// Store is the Install Store: a single JSON document at Path, with mutating
// access serialized across processes by an advisory lock at LockPath.
type Store struct {
	Path     string
	LockPath string
}

// New builds a Store over the given install document and lockfile paths
// (normally config.Config.InstalledPath() / config.Config.LockPath()).
func New(path, lockPath string) *Store {
	return &Store{Path: path, LockPath: lockPath}
}

// withLock acquires the advisory lock, runs fn against the loaded document,
// and persists it if fn returns no error.
func (s *Store) withLock(fn func(doc *document) error) error {
	lock, err := acquireLock(s.LockPath)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	doc, err := load(s.Path)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return save(s.Path, doc)
}

// Get returns the installed record for (repoName, packageName).
func (s *Store) Get(repoName, packageName string) (InstalledPackage, error) {
	doc, err := load(s.Path)
	if err != nil {
		return InstalledPackage{}, err
	}
	row, ok := doc.Packages[key(repoName, packageName)]
	if !ok {
		return InstalledPackage{}, &NotFound{RepoName: repoName, PackageName: packageName}
	}
	return row, nil
}

// List returns every installed record, in no particular order.
func (s *Store) List() ([]InstalledPackage, error) {
	doc, err := load(s.Path)
	if err != nil {
		return nil, err
	}
	rows := make([]InstalledPackage, 0, len(doc.Packages))
	for _, row := range doc.Packages {
		rows = append(rows, row)
	}
	return rows, nil
}

// Insert adds a new record. InstalledAt is stamped by the caller (Date/time
// primitives are threaded in rather than read here, keeping Store pure and
// reproducible in tests).
func (s *Store) Insert(row InstalledPackage) error {
	return s.withLock(func(doc *document) error {
		k := key(row.RepoName, row.PackageName)
		if _, exists := doc.Packages[k]; exists {
			return &AlreadyInstalled{RepoName: row.RepoName, PackageName: row.PackageName}
		}
		doc.Packages[k] = row
		return nil
	})
}

// Update applies patch to the existing record for (repoName, packageName).
func (s *Store) Update(repoName, packageName string, patch func(*InstalledPackage)) error {
	return s.withLock(func(doc *document) error {
		k := key(repoName, packageName)
		row, ok := doc.Packages[k]
		if !ok {
			return &NotFound{RepoName: repoName, PackageName: packageName}
		}
		patch(&row)
		doc.Packages[k] = row
		return nil
	})
}

// Remove deletes the record for (repoName, packageName).
func (s *Store) Remove(repoName, packageName string) error {
	return s.withLock(func(doc *document) error {
		k := key(repoName, packageName)
		if _, ok := doc.Packages[k]; !ok {
			return &NotFound{RepoName: repoName, PackageName: packageName}
		}
		delete(doc.Packages, k)
		return nil
	})
}

// MarkAs updates a record's InstalledAs classification, e.g. promoting a
// Dependency to Explicit when the user installs it directly.
func (s *Store) MarkAs(repoName, packageName string, as InstalledAs) error {
	return s.Update(repoName, packageName, func(row *InstalledPackage) {
		row.InstalledAs = as
	})
}

// NewRecord is a convenience constructor stamping InstalledAt with the
// caller-supplied time (see the Insert doc comment on reproducibility).
func NewRecord(repoName, packageName, resolvedVersion string, plat platform.Platform, installedBinaries, dependencies []string, as InstalledAs, now time.Time) InstalledPackage {
	return InstalledPackage{
		RepoName:          repoName,
		PackageName:       packageName,
		ResolvedVersion:   resolvedVersion,
		Platform:          plat,
		InstalledBinaries: installedBinaries,
		Dependencies:      dependencies,
		InstalledAs:       as,
		InstalledAt:       now,
	}
}
