package checksum

import (
	"github.com/buildkite/interpolate"
)

// ResolveDirectURL expands a Direct-source ChecksumSpec pattern's
// ${NAME}/${VERSION} placeholders (SPEC_FULL.md §3.1), the same
// interpolation style the teacher uses for checksum filename templates.
func ResolveDirectURL(pattern, name, version string) (string, error) {
	env := interpolate.NewMapEnv(map[string]string{
		"NAME":    name,
		"VERSION": version,
	})
	return interpolate.Interpolate(env, pattern)
}
