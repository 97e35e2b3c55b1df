package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// load reads the install store document, returning an empty one if the file
// doesn't exist yet.
func load(path string) (*document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &document{Packages: make(map[string]InstalledPackage)}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading install store")
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing install store")
	}
	if doc.Packages == nil {
		doc.Packages = make(map[string]InstalledPackage)
	}
	return &doc, nil
}

// save writes doc to path atomically: serialize to a sibling temp file,
// fsync, then rename over the destination (spec.md §4.7), the same pattern
// the teacher uses for binary installation in pkg/install/install.go.
func save(path string, doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding install store")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating install store directory")
	}

	tmp, err := os.CreateTemp(dir, ".installed-*.json")
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
		return errors.Wrap(err, "writing install store")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "fsyncing install store")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "renaming install store into place")
	}

	succeeded = true
	return nil
}
