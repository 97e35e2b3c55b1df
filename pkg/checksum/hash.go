package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/fetchy-pm/fetchy/pkg/repository"
)

// ComputeHash streams path through the digest algorithm and returns its hex
// encoding.
func ComputeHash(path string, algorithm repository.ChecksumAlgorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "opening file to hash")
	}
	defer f.Close()

	var h hash.Hash
	switch algorithm {
	case repository.SHA256:
		h = sha256.New()
	case repository.SHA512:
		h = sha512.New()
	case repository.SHA1:
		h = sha1.New()
	case repository.MD5:
		h = md5.New()
	default:
		return "", errors.Errorf("unsupported checksum algorithm %v", algorithm)
	}

	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "reading file to hash")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify compares path's computed digest against the listing entry for
// filename.
func Verify(listing map[string]string, filename, path string, algorithm repository.ChecksumAlgorithm) error {
	expected, ok := listing[filename]
	if !ok {
		return &ChecksumNotFound{Filename: filename}
	}
	actual, err := ComputeHash(path, algorithm)
	if err != nil {
		return err
	}
	if !equalFold(expected, actual) {
		return &ChecksumMismatch{Filename: filename, Expected: expected, Actual: actual}
	}
	return nil
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
