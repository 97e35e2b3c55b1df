// Package checksum implements Fetchy's optional checksum verification step
// (SPEC_FULL.md §3.1): parsing a downloaded `checksums.txt`-style listing,
// computing a downloaded asset's digest, and comparing the two.
package checksum

import (
	"strings"

	"github.com/fetchy-pm/fetchy/pkg/repository"
)

// ParseListing parses the contents of a typical release checksum file:
// one "<hex-digest>  <filename>" entry per line, blank lines and "#"
// comments ignored, an optional leading "*" on the filename (binary-mode
// marker from sha256sum/shasum) stripped.
func ParseListing(content []byte) map[string]string {
	checksums := make(map[string]string)
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		hash := fields[0]
		filename := strings.TrimPrefix(fields[1], "*")
		checksums[filename] = hash
	}
	return checksums
}

// SelectListingAssetName picks the single GitHub release asset name whose
// name matches a ChecksumSpec's pattern, mirroring the Asset Selector's own
// single-match policy.
func SelectListingAssetName(names []string, spec *repository.ChecksumSpec) (string, error) {
	var matches []string
	for _, n := range names {
		if spec.CompiledPattern.MatchString(n) {
			matches = append(matches, n)
		}
	}
	switch len(matches) {
	case 0:
		return "", &ChecksumNotFound{Filename: spec.Pattern}
	case 1:
		return matches[0], nil
	default:
		return "", &ChecksumNotFound{Filename: strings.Join(matches, ", ")}
	}
}
