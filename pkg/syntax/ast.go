package syntax

// File is the root AST node: the parsed form of a repository source file,
// carrying source locations but no semantic validation (that is the
// Repository Loader's job — see pkg/repository).
type File struct {
	Pos         Pos
	Name        StringLit
	Description StringLit
	Packages    []Pkg
}

// StringLit is a parsed string literal: its decoded value plus the span of
// the literal in source, used for diagnostics that point at a specific
// field (e.g. an invalid regex in a variant pattern).
type StringLit struct {
	Value string
	Pos   Pos
}

// Pkg is one package declaration inside the "packages" block.
type Pkg struct {
	Pos      Pos
	Name     StringLit
	Requires []StringLit
	Source   Source
	Version  Version
	Prelease bool
	Variants []Variant
}

// Source is the parsed Source variant: either GitHub (with an owner/repo
// literal) or Direct.
type Source struct {
	Pos       Pos
	IsGitHub  bool
	GitHubRef StringLit // only set when IsGitHub
}

// VersionKind distinguishes the three version_from forms the grammar allows.
type VersionKind int

const (
	VersionTagName VersionKind = iota
	VersionReleaseTitle
	VersionLiteral
)

// Version is the parsed version(...) clause.
type Version struct {
	Pos     Pos
	Kind    VersionKind
	Literal StringLit // only set when Kind == VersionLiteral
}

// Variant is one `OS[ARCH] "pattern" ...` entry inside a package's variant
// block.
type Variant struct {
	Pos      Pos
	OS       StringLit
	Arch     StringLit
	Pattern  StringLit
	IsArchive bool

	// set when IsArchive
	ArchiveKind StringLit
	Binaries    []Bin

	// set when !IsArchive (the "as"/"bin" single-file short form)
	InstallName StringLit

	// Checksum is the optional trailing `checksum(algorithm) "pattern"`
	// clause (SPEC_FULL.md §3.1); nil means the variant declares none.
	Checksum *Checksum
}

// Bin is one `bin "pattern" [as "name"]` entry inside an archive block.
type Bin struct {
	Pos         Pos
	Pattern     StringLit
	InstallName *StringLit // nil when "as" is omitted
}

// Checksum is a `checksum(algorithm) "pattern"` clause on a variant: an
// optional, additive digest-verification step for the variant's asset.
type Checksum struct {
	Pos       Pos
	Algorithm StringLit
	Pattern   StringLit
}
