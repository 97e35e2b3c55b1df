// Package archive opens a downloaded release asset according to its
// declared ArchiveKind and places the selected binaries on disk
// (spec.md §4.6). Formats are decoded via a single streaming pass: archive
// entries are never buffered into memory, only the handful that match a
// BinarySelector are copied to disk.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"

	"github.com/fetchy-pm/fetchy/pkg/platform"
	"github.com/fetchy-pm/fetchy/pkg/repository"
)

// Extract opens archivePath per kind and, for every selector, extracts the
// single archive entry it matches into destDir. It returns the absolute
// installed path of each selector's binary, keyed by the selector's
// PathPattern.
func Extract(archivePath string, kind repository.ArchiveKind, selectors []repository.BinarySelector, destDir string, host platform.Platform) (map[string]string, error) {
	if len(selectors) == 0 {
		return nil, errors.New("at least one binary selector is required")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating destination directory")
	}

	matchedFiles := make([][]string, len(selectors)) // selector index -> temp files extracted for it
	matchedEntries := make([][]string, len(selectors))

	visit := func(name string, mode fs.FileMode, isDir bool, r io.Reader) error {
		if isDir {
			return nil
		}
		normalized := normalizePath(name)
		for i, sel := range selectors {
			if !sel.CompiledPattern.MatchString(normalized) {
				continue
			}
			tmp, err := os.CreateTemp(destDir, ".fetchy-extract-*")
			if err != nil {
				return errors.Wrap(err, "creating temp file for extracted entry")
			}
			if _, err := io.Copy(tmp, r); err != nil {
				tmp.Close()
				os.Remove(tmp.Name())
				return errors.Wrapf(err, "extracting %q", name)
			}
			if err := tmp.Chmod(executableMode(mode)); err != nil {
				tmp.Close()
				os.Remove(tmp.Name())
				return errors.Wrapf(err, "setting executable bit on %q", name)
			}
			tmp.Close()
			matchedFiles[i] = append(matchedFiles[i], tmp.Name())
			matchedEntries[i] = append(matchedEntries[i], normalized)
		}
		return nil
	}

	if err := walkArchive(archivePath, kind, visit); err != nil {
		cleanup(matchedFiles)
		return nil, err
	}

	result := make(map[string]string, len(selectors))
	for i, sel := range selectors {
		switch len(matchedFiles[i]) {
		case 0:
			cleanup(matchedFiles)
			return nil, &BinaryNotFound{Pattern: sel.PathPattern}
		case 1:
			finalName := finalBinaryName(matchedEntries[i][0], sel.InstallName, host.OS)
			finalPath := filepath.Join(destDir, finalName)
			if err := os.Rename(matchedFiles[i][0], finalPath); err != nil {
				cleanup(matchedFiles)
				return nil, errors.Wrapf(err, "placing binary %q", finalName)
			}
			result[sel.PathPattern] = finalPath
		default:
			cleanup(matchedFiles)
			return nil, &AmbiguousBinary{Pattern: sel.PathPattern, Candidates: matchedEntries[i]}
		}
	}
	return result, nil
}

// PlaceSingleFile implements the SingleFile bypass: the downloaded file is
// moved directly to install_name with the executable bit set, no archive
// involved.
func PlaceSingleFile(downloadedPath, destDir, installName string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating destination directory")
	}
	finalPath := filepath.Join(destDir, installName)
	if err := os.Rename(downloadedPath, finalPath); err != nil {
		return "", errors.Wrap(err, "placing single-file binary")
	}
	if err := os.Chmod(finalPath, 0o755); err != nil {
		return "", errors.Wrap(err, "setting executable bit")
	}
	return finalPath, nil
}

func cleanup(matchedFiles [][]string) {
	for _, files := range matchedFiles {
		for _, f := range files {
			os.Remove(f)
		}
	}
}

func executableMode(entryMode fs.FileMode) fs.FileMode {
	if entryMode&0o111 != 0 {
		return 0o755
	}
	return 0o644
}

func normalizePath(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}

// finalBinaryName derives the installed filename: installName when given,
// otherwise the entry's base name. On windows hosts, the .exe suffix is
// corrected to match whatever the archive entry itself had, per spec.md
// §4.6 ("ensure the filename ends with .exe exactly when the entry did").
func finalBinaryName(entryName, installName string, hostOS platform.OS) string {
	name := installName
	if name == "" {
		name = filepath.Base(normalizePath(entryName))
	}
	if hostOS != platform.Windows {
		return name
	}
	entryHasExe := strings.HasSuffix(strings.ToLower(entryName), ".exe")
	nameHasExe := strings.HasSuffix(strings.ToLower(name), ".exe")
	switch {
	case entryHasExe && !nameHasExe:
		return name + ".exe"
	case !entryHasExe && nameHasExe:
		return strings.TrimSuffix(name, name[len(name)-4:])
	default:
		return name
	}
}

// walkArchive opens archivePath according to kind and invokes visit once per
// entry (file or directory), in archive order.
func walkArchive(archivePath string, kind repository.ArchiveKind, visit func(name string, mode fs.FileMode, isDir bool, r io.Reader) error) error {
	switch kind {
	case repository.TarGz:
		return walkTar(archivePath, func(f *os.File) (io.Reader, func() error, error) {
			gz, err := gzip.NewReader(f)
			if err != nil {
				return nil, nil, errors.Wrap(err, "opening gzip stream")
			}
			return gz, gz.Close, nil
		}, visit)
	case repository.TarXz:
		return walkTar(archivePath, func(f *os.File) (io.Reader, func() error, error) {
			xzr, err := xz.NewReader(f)
			if err != nil {
				return nil, nil, errors.Wrap(err, "opening xz stream")
			}
			return xzr, func() error { return nil }, nil
		}, visit)
	case repository.TarBz2:
		return walkTar(archivePath, func(f *os.File) (io.Reader, func() error, error) {
			return bzip2.NewReader(f), func() error { return nil }, nil
		}, visit)
	case repository.Zip:
		return walkZip(archivePath, visit)
	default:
		return errors.Errorf("unsupported archive kind %v", kind)
	}
}

func walkTar(archivePath string, openCompressed func(*os.File) (io.Reader, func() error, error), visit func(string, fs.FileMode, bool, io.Reader) error) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrap(err, "opening archive")
	}
	defer f.Close()

	r, closeCompressed, err := openCompressed(f)
	if err != nil {
		return err
	}
	defer closeCompressed()

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading tar entry")
		}
		isDir := hdr.Typeflag == tar.TypeDir
		if hdr.Typeflag != tar.TypeReg && !isDir {
			continue
		}
		if err := visit(hdr.Name, hdr.FileInfo().Mode(), isDir, tr); err != nil {
			return err
		}
	}
}

func walkZip(archivePath string, visit func(string, fs.FileMode, bool, io.Reader) error) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrap(err, "opening zip archive")
	}
	defer zr.Close()

	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			if err := visit(zf.Name, zf.Mode(), true, nil); err != nil {
				return err
			}
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return errors.Wrapf(err, "opening zip entry %q", zf.Name)
		}
		err = visit(zf.Name, zf.Mode(), false, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
