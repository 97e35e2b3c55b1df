// Package repository holds Fetchy's canonical repository model and the
// Repository Loader that normalizes a parsed DSL/JSON AST into it.
package repository

import (
	"regexp"

	"github.com/fetchy-pm/fetchy/pkg/platform"
)

// Repository is a named, described collection of package declarations,
// compiled from a repository source file (spec.md §3).
type Repository struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Packages    map[string]PackageDecl `json:"packages"`
}

// VersionFrom selects how a package's resolved_version is derived from a
// GitHub release.
type VersionFrom int

const (
	// VersionFromTagName uses the release's tag name.
	VersionFromTagName VersionFrom = iota
	// VersionFromReleaseTitle uses the release's title.
	VersionFromReleaseTitle
	// VersionFromLiteral uses a fixed version string (the only form Direct
	// sources allow).
	VersionFromLiteral
)

// PackageDecl is one package entry within a Repository.
type PackageDecl struct {
	Name           string
	Requires       []string
	Source         Source
	VersionFrom    VersionFrom
	LiteralVersion string // set iff VersionFrom == VersionFromLiteral
	AllowPrerelease bool
	Variants       map[platform.Platform]AssetSpec
}

// Source is the tagged union of where a package's assets come from.
type Source struct {
	IsGitHub bool
	Owner    string // set iff IsGitHub
	Repo     string // set iff IsGitHub
}

// GitHubRepo returns "owner/repo" for a GitHub source.
func (s Source) GitHubRepo() string {
	return s.Owner + "/" + s.Repo
}

// AssetSpec describes how to obtain and place the binaries for one
// (package, platform) pair. Exactly one of Archive or SingleFile is set,
// indicated by IsArchive.
type AssetSpec struct {
	IsArchive bool

	// Pattern matches a release asset's name (GitHub sources) or is an
	// absolute URL (Direct sources). Compiled by the Loader at load time and
	// cached here for GitHub sources; Direct sources never need a regex.
	Pattern      string
	CompiledPattern *regexp.Regexp // nil for Direct sources

	// set iff IsArchive
	ArchiveKind ArchiveKind
	Binaries    []BinarySelector

	// set iff !IsArchive
	InstallName string

	// Checksum is an optional, additive verification step — see
	// SPEC_FULL.md §3.1. Nil means "no checksum verification configured."
	Checksum *ChecksumSpec
}

// ArchiveKind enumerates the archive formats the Extractor understands.
type ArchiveKind int

const (
	TarGz ArchiveKind = iota
	TarXz
	TarBz2
	Zip
)

func (k ArchiveKind) String() string {
	switch k {
	case TarGz:
		return "TarGz"
	case TarXz:
		return "TarXz"
	case TarBz2:
		return "TarBz2"
	case Zip:
		return "Zip"
	default:
		return "unknown"
	}
}

// BinarySelector identifies one file to extract from an archive.
type BinarySelector struct {
	PathPattern     string
	CompiledPattern *regexp.Regexp
	InstallName     string // empty means "use the matched entry's base name"
}

// ChecksumSpec is the domain addition described in SPEC_FULL.md §3.1.
type ChecksumSpec struct {
	Pattern         string
	CompiledPattern *regexp.Regexp // nil for Direct sources (Pattern is a URL)
	Algorithm       ChecksumAlgorithm
}

// ChecksumAlgorithm enumerates the supported digest algorithms.
type ChecksumAlgorithm int

const (
	SHA256 ChecksumAlgorithm = iota
	SHA512
	SHA1
	MD5
)
