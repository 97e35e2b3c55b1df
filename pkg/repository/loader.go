package repository

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/fetchy-pm/fetchy/pkg/platform"
	"github.com/fetchy-pm/fetchy/pkg/syntax"
)

var archiveKindByName = map[string]ArchiveKind{
	"TarGz":  TarGz,
	"TarXz":  TarXz,
	"TarBz2": TarBz2,
	"Zip":    Zip,
}

var osByName = map[string]platform.OS{
	"linux":   platform.Linux,
	"windows": platform.Windows,
	"macos":   platform.MacOS,
}

var archByName = map[string]platform.Arch{
	"x86_64":  platform.X86_64,
	"aarch64": platform.AArch64,
}

var checksumAlgorithmByName = map[string]ChecksumAlgorithm{
	"sha256": SHA256,
	"sha512": SHA512,
	"sha1":   SHA1,
	"md5":    MD5,
}

// Load normalizes a parsed DSL/JSON AST into a canonical Repository,
// performing every semantic validation in spec.md §4.3. It never mutates
// state on failure: a RepositoryError means the file is simply rejected.
//
// The returned warnings are non-fatal diagnostics for the two cases
// spec.md §9 flags as "don't guess intent, but it's worth a diagnostic":
// an archive kind that disagrees with the pattern's apparent extension,
// and a single-file install_name whose .exe suffix disagrees with its
// platform's os.
func Load(f *syntax.File) (*Repository, []string, error) {
	if f.Name.Value == "" {
		return nil, nil, newRepositoryError(f.Pos, "repository name must not be empty")
	}

	repo := &Repository{
		Name:        f.Name.Value,
		Description: f.Description.Value,
		Packages:    make(map[string]PackageDecl, len(f.Packages)),
	}
	var warnings []string

	for _, astPkg := range f.Packages {
		if astPkg.Name.Value == "" {
			return nil, nil, newRepositoryError(astPkg.Pos, "package name must not be empty")
		}
		if _, exists := repo.Packages[astPkg.Name.Value]; exists {
			return nil, nil, newRepositoryError(astPkg.Name.Pos, "duplicate package name %q", astPkg.Name.Value)
		}

		decl, pkgWarnings, err := loadPackage(astPkg)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, pkgWarnings...)
		repo.Packages[astPkg.Name.Value] = decl
	}

	if err := validateRequires(repo); err != nil {
		return nil, nil, err
	}

	return repo, warnings, nil
}

func loadPackage(astPkg syntax.Pkg) (PackageDecl, []string, error) {
	decl := PackageDecl{
		Name:            astPkg.Name.Value,
		AllowPrerelease: astPkg.Prelease,
		Variants:        make(map[platform.Platform]AssetSpec, len(astPkg.Variants)),
	}

	var warnings []string

	for _, r := range astPkg.Requires {
		decl.Requires = append(decl.Requires, r.Value)
	}

	if astPkg.Source.IsGitHub {
		owner, repoName, err := splitOwnerRepo(astPkg.Source.GitHubRef)
		if err != nil {
			return PackageDecl{}, nil, err
		}
		decl.Source = Source{IsGitHub: true, Owner: owner, Repo: repoName}
	} else {
		decl.Source = Source{IsGitHub: false}
	}

	switch astPkg.Version.Kind {
	case syntax.VersionTagName:
		if !decl.Source.IsGitHub {
			return PackageDecl{}, nil, newRepositoryError(astPkg.Version.Pos, "package %q: version(TagName) requires a GitHub source", decl.Name)
		}
		decl.VersionFrom = VersionFromTagName
	case syntax.VersionReleaseTitle:
		if !decl.Source.IsGitHub {
			return PackageDecl{}, nil, newRepositoryError(astPkg.Version.Pos, "package %q: version(ReleaseTitle) requires a GitHub source", decl.Name)
		}
		decl.VersionFrom = VersionFromReleaseTitle
	case syntax.VersionLiteral:
		decl.VersionFrom = VersionFromLiteral
		decl.LiteralVersion = astPkg.Version.Literal.Value
	}
	if !decl.Source.IsGitHub && decl.VersionFrom != VersionFromLiteral {
		return PackageDecl{}, nil, newRepositoryError(astPkg.Version.Pos, "package %q: Direct source requires a literal version", decl.Name)
	}

	if len(astPkg.Variants) == 0 {
		return PackageDecl{}, nil, newRepositoryError(astPkg.Pos, "package %q: at least one variant is required", decl.Name)
	}

	for _, astVariant := range astPkg.Variants {
		plat, err := loadPlatform(astVariant)
		if err != nil {
			return PackageDecl{}, nil, err
		}
		if _, exists := decl.Variants[plat]; exists {
			return PackageDecl{}, nil, newRepositoryError(astVariant.Pos, "package %q: duplicate variant for platform %s", decl.Name, plat)
		}

		asset, variantWarnings, err := loadAssetSpec(decl.Name, decl.Source, plat, astVariant)
		if err != nil {
			return PackageDecl{}, nil, err
		}
		warnings = append(warnings, variantWarnings...)
		decl.Variants[plat] = asset
	}

	return decl, warnings, nil
}

func loadPlatform(v syntax.Variant) (platform.Platform, error) {
	osVal, ok := osByName[v.OS.Value]
	if !ok {
		return platform.Platform{}, newRepositoryError(v.OS.Pos, "unknown os %q", v.OS.Value)
	}
	archVal, ok := archByName[v.Arch.Value]
	if !ok {
		return platform.Platform{}, newRepositoryError(v.Arch.Pos, "unknown arch %q", v.Arch.Value)
	}
	return platform.Platform{OS: osVal, Arch: archVal}, nil
}

func loadAssetSpec(pkgName string, src Source, plat platform.Platform, v syntax.Variant) (AssetSpec, []string, error) {
	spec := AssetSpec{Pattern: v.Pattern.Value}
	var warnings []string

	if src.IsGitHub {
		re, err := regexp.Compile(v.Pattern.Value)
		if err != nil {
			return AssetSpec{}, nil, newRepositoryError(v.Pattern.Pos, "package %q: invalid pattern regex %q: %s", pkgName, v.Pattern.Value, err)
		}
		spec.CompiledPattern = re
	} else {
		if !isAbsoluteHTTPURL(v.Pattern.Value) {
			return AssetSpec{}, nil, newRepositoryError(v.Pattern.Pos, "package %q: Direct source variant must be an absolute http(s) URL, got %q", pkgName, v.Pattern.Value)
		}
	}

	if v.IsArchive {
		kind, ok := archiveKindByName[v.ArchiveKind.Value]
		if !ok {
			return AssetSpec{}, nil, newRepositoryError(v.ArchiveKind.Pos, "unknown archive kind %q", v.ArchiveKind.Value)
		}
		// spec.md §9: a declared archive kind that disagrees with the URL's
		// apparent extension is accepted as ground truth, never inferred —
		// but it is worth a diagnostic, since it is usually a source bug.
		if !archiveExtensionMatches(kind, v.Pattern.Value) {
			warnings = append(warnings, fmt.Sprintf(
				"%s: package %q variant %s declares archive(%s) but pattern %q suggests a different format",
				v.ArchiveKind.Pos, pkgName, plat, kind, v.Pattern.Value))
		}
		if len(v.Binaries) == 0 {
			return AssetSpec{}, nil, newRepositoryError(v.Pos, "package %q: archive variant requires at least one binary selector", pkgName)
		}
		spec.IsArchive = true
		spec.ArchiveKind = kind
		for _, b := range v.Binaries {
			re, err := regexp.Compile(b.Pattern.Value)
			if err != nil {
				return AssetSpec{}, nil, newRepositoryError(b.Pattern.Pos, "invalid binary selector regex %q: %s", b.Pattern.Value, err)
			}
			sel := BinarySelector{PathPattern: b.Pattern.Value, CompiledPattern: re}
			if b.InstallName != nil {
				sel.InstallName = b.InstallName.Value
			}
			spec.Binaries = append(spec.Binaries, sel)
		}
	} else {
		spec.IsArchive = false
		spec.InstallName = v.InstallName.Value
		// spec.md §9: a declared install_name whose .exe suffix disagrees
		// with the platform is kept verbatim (the "xplr.exe" on linux/aarch64
		// case) — never silently corrected, only flagged.
		endsExe := len(spec.InstallName) >= 4 && equalFold(spec.InstallName[len(spec.InstallName)-4:], ".exe")
		if endsExe != (plat.OS == platform.Windows) {
			warnings = append(warnings, fmt.Sprintf(
				"%s: package %q variant %s install_name %q has a suspicious .exe suffix for its platform",
				v.InstallName.Pos, pkgName, plat, spec.InstallName))
		}
	}

	if v.Checksum != nil {
		cksum, err := loadChecksumSpec(pkgName, src, v.Checksum)
		if err != nil {
			return AssetSpec{}, nil, err
		}
		spec.Checksum = cksum
	}

	return spec, warnings, nil
}

// loadChecksumSpec compiles a variant's optional checksum clause into a
// ChecksumSpec (SPEC_FULL.md §3.1): Pattern is a regex over release asset
// names for GitHub sources, or a literal URL template for Direct sources,
// exactly like AssetSpec.Pattern above.
func loadChecksumSpec(pkgName string, src Source, c *syntax.Checksum) (*ChecksumSpec, error) {
	algo, ok := checksumAlgorithmByName[c.Algorithm.Value]
	if !ok {
		return nil, newRepositoryError(c.Algorithm.Pos, "package %q: unknown checksum algorithm %q", pkgName, c.Algorithm.Value)
	}

	cksum := &ChecksumSpec{Pattern: c.Pattern.Value, Algorithm: algo}
	if src.IsGitHub {
		re, err := regexp.Compile(c.Pattern.Value)
		if err != nil {
			return nil, newRepositoryError(c.Pattern.Pos, "package %q: invalid checksum pattern regex %q: %s", pkgName, c.Pattern.Value, err)
		}
		cksum.CompiledPattern = re
	} else if !isAbsoluteHTTPURL(c.Pattern.Value) {
		return nil, newRepositoryError(c.Pattern.Pos, "package %q: Direct source checksum pattern must be an absolute http(s) URL, got %q", pkgName, c.Pattern.Value)
	}
	return cksum, nil
}

func splitOwnerRepo(ref syntax.StringLit) (owner, repo string, err error) {
	for i := 0; i < len(ref.Value); i++ {
		if ref.Value[i] == '/' {
			owner, repo = ref.Value[:i], ref.Value[i+1:]
			if owner == "" || repo == "" {
				break
			}
			return owner, repo, nil
		}
	}
	return "", "", newRepositoryError(ref.Pos, "invalid GitHub repository reference %q, expected \"owner/repo\"", ref.Value)
}

func isAbsoluteHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

var archiveExtensionHints = map[ArchiveKind][]string{
	TarGz:  {".tar.gz", ".tgz"},
	TarXz:  {".tar.xz", ".txz"},
	TarBz2: {".tar.bz2", ".tbz2"},
	Zip:    {".zip"},
}

func archiveExtensionMatches(kind ArchiveKind, pattern string) bool {
	for _, hint := range archiveExtensionHints[kind] {
		if hasSuffixFold(pattern, hint) || containsLiteral(pattern, hint) {
			return true
		}
	}
	// Patterns against GitHub asset names are regexes, not filenames — if
	// none of the known suffixes appear literally we can't tell either way,
	// so we don't flag it as a mismatch.
	for _, hints := range archiveExtensionHints {
		for _, h := range hints {
			if containsLiteral(pattern, h) {
				return false
			}
		}
	}
	return true
}

func hasSuffixFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	return equalFold(s[len(s)-len(suffix):], suffix)
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

func containsLiteral(s, sub string) bool {
	if len(sub) == 0 || len(s) < len(sub) {
		return false
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if equalFold(s[i:i+len(sub)], sub) {
			return true
		}
	}
	return false
}

// validateRequires checks that every requires edge resolves within the same
// repository and that the induced intra-repository dependency relation is
// acyclic (spec.md §4.3, last bullet).
func validateRequires(repo *Repository) error {
	for name, decl := range repo.Packages {
		for _, dep := range decl.Requires {
			if _, ok := repo.Packages[dep]; !ok {
				return newRepositoryError(syntax.Pos{}, "package %q requires undeclared package %q", name, dep)
			}
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(repo.Packages))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		color[name] = gray
		stack = append(stack, name)
		for _, dep := range repo.Packages[name].Requires {
			switch color[dep] {
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			case gray:
				return newRepositoryError(syntax.Pos{}, "dependency cycle detected: %s", describeCycle(stack, dep))
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		return nil
	}

	for name := range repo.Packages {
		if color[name] == white {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

func describeCycle(stack []string, closingAt string) string {
	start := 0
	for i, n := range stack {
		if n == closingAt {
			start = i
			break
		}
	}
	s := ""
	for _, n := range stack[start:] {
		s += n + " -> "
	}
	return s + closingAt
}
