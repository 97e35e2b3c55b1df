package repository

import (
	"testing"

	"github.com/fetchy-pm/fetchy/pkg/platform"
	"github.com/fetchy-pm/fetchy/pkg/syntax"
)

func parseOrFatal(t *testing.T, src string) *syntax.File {
	t.Helper()
	f, err := syntax.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f
}

func TestLoadSuccess(t *testing.T) {
	src := `
name "tools" description "assorted CLIs"
packages {
	"ripgrep": GitHub "BurntSushi/ripgrep" version(TagName) {
		linux[x86_64] ".*-x86_64-unknown-linux-musl\.tar\.gz$" archive(TarGz) {
			bin "rg$" as "rg"
		},
		macos[aarch64] ".*-aarch64-apple-darwin\.tar\.gz$" archive(TarGz) {
			bin "rg$" as "rg"
		}
	}
	"jq": Direct version("1.7") {
		linux[x86_64] "https://example.com/jq-linux-x86_64" bin "jq"
	}
}
`
	f := parseOrFatal(t, src)
	repo, warnings, err := Load(f)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if repo.Name != "tools" || repo.Description != "assorted CLIs" {
		t.Fatalf("unexpected repo header: %+v", repo)
	}
	if len(repo.Packages) != 2 {
		t.Fatalf("expected 2 packages, got %d", len(repo.Packages))
	}

	rg, ok := repo.Packages["ripgrep"]
	if !ok {
		t.Fatal("missing ripgrep package")
	}
	if !rg.Source.IsGitHub || rg.Source.GitHubRepo() != "BurntSushi/ripgrep" {
		t.Errorf("unexpected source: %+v", rg.Source)
	}
	if rg.VersionFrom != VersionFromTagName {
		t.Errorf("version_from = %v, want VersionFromTagName", rg.VersionFrom)
	}
	linuxVariant, ok := rg.Variants[platform.Platform{OS: platform.Linux, Arch: platform.X86_64}]
	if !ok {
		t.Fatal("missing linux/x86_64 variant")
	}
	if !linuxVariant.IsArchive || linuxVariant.ArchiveKind != TarGz {
		t.Errorf("unexpected asset spec: %+v", linuxVariant)
	}
	if linuxVariant.CompiledPattern == nil {
		t.Error("expected compiled pattern for GitHub source")
	}
	if len(linuxVariant.Binaries) != 1 || linuxVariant.Binaries[0].InstallName != "rg" {
		t.Errorf("unexpected binaries: %+v", linuxVariant.Binaries)
	}

	jq, ok := repo.Packages["jq"]
	if !ok {
		t.Fatal("missing jq package")
	}
	if jq.Source.IsGitHub {
		t.Error("expected Direct source")
	}
	if jq.VersionFrom != VersionFromLiteral || jq.LiteralVersion != "1.7" {
		t.Errorf("unexpected version: %+v", jq)
	}
	jqVariant := jq.Variants[platform.Platform{OS: platform.Linux, Arch: platform.X86_64}]
	if jqVariant.IsArchive {
		t.Error("expected single-file asset")
	}
	if jqVariant.InstallName != "jq" {
		t.Errorf("install name = %q, want %q", jqVariant.InstallName, "jq")
	}
	if jqVariant.CompiledPattern != nil {
		t.Error("Direct source should not compile a pattern regex")
	}
}

func TestLoadChecksumClauseCompilesPatternForGitHubSource(t *testing.T) {
	src := `
name "r" description "d" packages {
	"a": GitHub "o/a" version(TagName) {
		linux[x86_64] "a-linux\.tar\.gz$" archive(TarGz) {
			bin "a$" as "a"
		} checksum(sha256) "checksums\.txt$"
	}
}
`
	f := parseOrFatal(t, src)
	repo, _, err := Load(f)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	v := repo.Packages["a"].Variants[platform.Platform{OS: platform.Linux, Arch: platform.X86_64}]
	if v.Checksum == nil {
		t.Fatal("expected Checksum to be populated")
	}
	if v.Checksum.Algorithm != SHA256 {
		t.Errorf("algorithm = %v, want SHA256", v.Checksum.Algorithm)
	}
	if v.Checksum.CompiledPattern == nil {
		t.Error("expected compiled checksum pattern for GitHub source")
	}
}

func TestLoadChecksumClauseDirectSourceRequiresAbsoluteURL(t *testing.T) {
	src := `
name "r" description "d" packages {
	"a": Direct version("1") {
		linux[x86_64] "https://example.com/a" bin "a" checksum(sha256) "not-a-url"
	}
}
`
	f := parseOrFatal(t, src)
	_, _, err := Load(f)
	if err == nil {
		t.Fatal("expected absolute URL error for Direct source checksum pattern")
	}
}

func TestLoadVariantWithoutChecksumLeavesItNil(t *testing.T) {
	src := `
name "r" description "d" packages {
	"a": Direct version("1") {
		linux[x86_64] "https://example.com/a" bin "a"
	}
}
`
	f := parseOrFatal(t, src)
	repo, _, err := Load(f)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	v := repo.Packages["a"].Variants[platform.Platform{OS: platform.Linux, Arch: platform.X86_64}]
	if v.Checksum != nil {
		t.Errorf("expected nil Checksum, got %+v", v.Checksum)
	}
}

func TestLoadDuplicatePackageName(t *testing.T) {
	src := `
name "r" description "d" packages {
	"a": Direct version("1") {
		linux[x86_64] "https://x" bin "a"
	}
	"a": Direct version("1") {
		macos[aarch64] "https://y" bin "a"
	}
}
`
	f := parseOrFatal(t, src)
	_, _, err := Load(f)
	if err == nil {
		t.Fatal("expected duplicate package name error")
	}
}

func TestLoadDuplicateVariantPlatform(t *testing.T) {
	src := `
name "r" description "d" packages {
	"a": Direct version("1") {
		linux[x86_64] "https://x" bin "a",
		linux[x86_64] "https://y" bin "a"
	}
}
`
	f := parseOrFatal(t, src)
	_, _, err := Load(f)
	if err == nil {
		t.Fatal("expected duplicate variant error")
	}
}

func TestLoadInvalidPatternRegex(t *testing.T) {
	src := `
name "r" description "d" packages {
	"a": GitHub "o/a" version(TagName) {
		linux[x86_64] "(unterminated" archive(TarGz) {
			bin "a$" as "a"
		}
	}
}
`
	f := parseOrFatal(t, src)
	_, _, err := Load(f)
	if err == nil {
		t.Fatal("expected invalid regex error")
	}
}

func TestLoadDirectSourceRequiresAbsoluteURL(t *testing.T) {
	src := `
name "r" description "d" packages {
	"a": Direct version("1") {
		linux[x86_64] "not-a-url" bin "a"
	}
}
`
	f := parseOrFatal(t, src)
	_, _, err := Load(f)
	if err == nil {
		t.Fatal("expected absolute URL error")
	}
}

func TestLoadDirectSourceRejectsTagNameVersion(t *testing.T) {
	// The grammar parses the version clause independently of the source, so
	// Direct+version(TagName) parses and it is the loader that rejects it.
	src := `
name "r" description "d" packages {
	"a": Direct version(TagName) {
		linux[x86_64] "https://example.com/a" bin "a"
	}
}
`
	f := parseOrFatal(t, src)
	_, _, err := Load(f)
	if err == nil {
		t.Fatal("expected error for a Direct source with version(TagName)")
	}
}

func TestLoadUndeclaredRequires(t *testing.T) {
	src := `
name "r" description "d" packages {
	"a" (requires "b"): Direct version("1") {
		linux[x86_64] "https://x" bin "a"
	}
}
`
	f := parseOrFatal(t, src)
	_, _, err := Load(f)
	if err == nil {
		t.Fatal("expected undeclared requires error")
	}
}

func TestLoadRequiresCycle(t *testing.T) {
	src := `
name "r" description "d" packages {
	"a" (requires "b"): Direct version("1") {
		linux[x86_64] "https://x" bin "a"
	}
	"b" (requires "c"): Direct version("1") {
		linux[x86_64] "https://x" bin "b"
	}
	"c" (requires "a"): Direct version("1") {
		linux[x86_64] "https://x" bin "c"
	}
}
`
	f := parseOrFatal(t, src)
	_, _, err := Load(f)
	if err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestLoadArchiveKindExtensionMismatchWarns(t *testing.T) {
	src := `
name "r" description "d" packages {
	"a": GitHub "o/a" version(TagName) {
		linux[x86_64] "a-linux-x86_64\.zip$" archive(TarGz) {
			bin "a$" as "a"
		}
	}
}
`
	f := parseOrFatal(t, src)
	_, warnings, err := Load(f)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(warnings), warnings)
	}
}

func TestLoadExeSuffixMismatchWarns(t *testing.T) {
	src := `
name "r" description "d" packages {
	"a": Direct version("1") {
		linux[aarch64] "https://example.com/a" bin "a.exe"
	}
}
`
	f := parseOrFatal(t, src)
	_, warnings, err := Load(f)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(warnings), warnings)
	}
}

func TestLoadMissingVariants(t *testing.T) {
	src := `
name "r" description "d" packages {
	"a": Direct version("1") {
	}
}
`
	// The grammar already rejects an empty variant block, so the loader-level
	// guard is unreachable through Parse.
	_, err := syntax.Parse(src)
	if err == nil {
		t.Fatal("expected the grammar to reject an empty variant block")
	}
}
