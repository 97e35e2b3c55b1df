package repository

import (
	"encoding/json"
	"regexp"

	"github.com/pkg/errors"

	"github.com/fetchy-pm/fetchy/pkg/platform"
)

// EncodeJSON serializes repo to its canonical on-disk form (spec.md §6:
// repos/<name>.json). Compiled regexes are dropped — only their source
// patterns are written — and rebuilt by DecodeJSON.
func EncodeJSON(repo *Repository) ([]byte, error) {
	doc, err := toDocument(repo)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encoding repository")
	}
	return data, nil
}

// DecodeJSON parses a repository previously written by EncodeJSON,
// recompiling every pattern it contains.
func DecodeJSON(data []byte) (*Repository, error) {
	var doc jsonRepository
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing repository")
	}
	return fromDocument(&doc)
}

type jsonRepository struct {
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Packages    map[string]jsonPackageDecl `json:"packages"`
}

type jsonPackageDecl struct {
	Requires        []string                      `json:"requires,omitempty"`
	GitHubRepo      string                        `json:"github_repo,omitempty"`
	VersionFrom     string                        `json:"version_from"`
	LiteralVersion  string                        `json:"literal_version,omitempty"`
	AllowPrerelease bool                          `json:"allow_prerelease,omitempty"`
	Variants        map[string]jsonAssetSpec      `json:"variants"`
}

type jsonAssetSpec struct {
	IsArchive   bool                   `json:"is_archive"`
	Pattern     string                 `json:"pattern"`
	ArchiveKind string                 `json:"archive_kind,omitempty"`
	Binaries    []jsonBinarySelector   `json:"binaries,omitempty"`
	InstallName string                 `json:"install_name,omitempty"`
	Checksum    *jsonChecksumSpec      `json:"checksum,omitempty"`
}

type jsonBinarySelector struct {
	PathPattern string `json:"path_pattern"`
	InstallName string `json:"install_name,omitempty"`
}

type jsonChecksumSpec struct {
	Pattern   string `json:"pattern"`
	Algorithm string `json:"algorithm"`
}

var versionFromNames = map[VersionFrom]string{
	VersionFromTagName:      "tag_name",
	VersionFromReleaseTitle: "release_title",
	VersionFromLiteral:      "literal",
}

var versionFromValues = invertStringMap(versionFromNames)

var archiveKindNames = map[ArchiveKind]string{
	TarGz:  "TarGz",
	TarXz:  "TarXz",
	TarBz2: "TarBz2",
	Zip:    "Zip",
}

var archiveKindValues = invertStringMap(archiveKindNames)

var checksumAlgorithmNames = map[ChecksumAlgorithm]string{
	SHA256: "sha256",
	SHA512: "sha512",
	SHA1:   "sha1",
	MD5:    "md5",
}

var checksumAlgorithmValues = invertStringMap(checksumAlgorithmNames)

func invertStringMap[K comparable](m map[K]string) map[string]K {
	out := make(map[string]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

func toDocument(repo *Repository) (*jsonRepository, error) {
	doc := &jsonRepository{
		Name:        repo.Name,
		Description: repo.Description,
		Packages:    make(map[string]jsonPackageDecl, len(repo.Packages)),
	}
	for name, decl := range repo.Packages {
		jd := jsonPackageDecl{
			Requires:        decl.Requires,
			VersionFrom:     versionFromNames[decl.VersionFrom],
			LiteralVersion:  decl.LiteralVersion,
			AllowPrerelease: decl.AllowPrerelease,
			Variants:        make(map[string]jsonAssetSpec, len(decl.Variants)),
		}
		if decl.Source.IsGitHub {
			jd.GitHubRepo = decl.Source.GitHubRepo()
		}
		for plat, asset := range decl.Variants {
			ja := jsonAssetSpec{
				IsArchive:   asset.IsArchive,
				Pattern:     asset.Pattern,
				InstallName: asset.InstallName,
			}
			if asset.IsArchive {
				kind, ok := archiveKindNames[asset.ArchiveKind]
				if !ok {
					return nil, errors.Errorf("package %q: unknown archive kind %d", name, asset.ArchiveKind)
				}
				ja.ArchiveKind = kind
				for _, b := range asset.Binaries {
					ja.Binaries = append(ja.Binaries, jsonBinarySelector{
						PathPattern: b.PathPattern,
						InstallName: b.InstallName,
					})
				}
			}
			if asset.Checksum != nil {
				algo, ok := checksumAlgorithmNames[asset.Checksum.Algorithm]
				if !ok {
					return nil, errors.Errorf("package %q: unknown checksum algorithm %d", name, asset.Checksum.Algorithm)
				}
				ja.Checksum = &jsonChecksumSpec{Pattern: asset.Checksum.Pattern, Algorithm: algo}
			}
			jd.Variants[platformKey(plat)] = ja
		}
		doc.Packages[name] = jd
	}
	return doc, nil
}

func fromDocument(doc *jsonRepository) (*Repository, error) {
	repo := &Repository{
		Name:        doc.Name,
		Description: doc.Description,
		Packages:    make(map[string]PackageDecl, len(doc.Packages)),
	}
	for name, jd := range doc.Packages {
		decl := PackageDecl{
			Name:            name,
			Requires:        jd.Requires,
			LiteralVersion:  jd.LiteralVersion,
			AllowPrerelease: jd.AllowPrerelease,
			Variants:        make(map[platform.Platform]AssetSpec, len(jd.Variants)),
		}
		versionFrom, ok := versionFromValues[jd.VersionFrom]
		if !ok {
			return nil, errors.Errorf("package %q: unknown version_from %q", name, jd.VersionFrom)
		}
		decl.VersionFrom = versionFrom

		if jd.GitHubRepo != "" {
			owner, repoName, err := splitRepoRef(jd.GitHubRepo)
			if err != nil {
				return nil, errors.Wrapf(err, "package %q", name)
			}
			decl.Source = Source{IsGitHub: true, Owner: owner, Repo: repoName}
		}

		for key, ja := range jd.Variants {
			plat, err := parsePlatformKey(key)
			if err != nil {
				return nil, errors.Wrapf(err, "package %q", name)
			}
			asset := AssetSpec{
				IsArchive:   ja.IsArchive,
				Pattern:     ja.Pattern,
				InstallName: ja.InstallName,
			}
			if decl.Source.IsGitHub {
				re, err := regexp.Compile(ja.Pattern)
				if err != nil {
					return nil, errors.Wrapf(err, "package %q variant %s: invalid pattern", name, plat)
				}
				asset.CompiledPattern = re
			}
			if ja.IsArchive {
				kind, ok := archiveKindValues[ja.ArchiveKind]
				if !ok {
					return nil, errors.Errorf("package %q variant %s: unknown archive_kind %q", name, plat, ja.ArchiveKind)
				}
				asset.ArchiveKind = kind
				for _, jb := range ja.Binaries {
					re, err := regexp.Compile(jb.PathPattern)
					if err != nil {
						return nil, errors.Wrapf(err, "package %q variant %s: invalid binary selector", name, plat)
					}
					asset.Binaries = append(asset.Binaries, BinarySelector{
						PathPattern:     jb.PathPattern,
						CompiledPattern: re,
						InstallName:     jb.InstallName,
					})
				}
			}
			if ja.Checksum != nil {
				algo, ok := checksumAlgorithmValues[ja.Checksum.Algorithm]
				if !ok {
					return nil, errors.Errorf("package %q variant %s: unknown checksum algorithm %q", name, plat, ja.Checksum.Algorithm)
				}
				cs := &ChecksumSpec{Pattern: ja.Checksum.Pattern, Algorithm: algo}
				if decl.Source.IsGitHub {
					re, err := regexp.Compile(cs.Pattern)
					if err != nil {
						return nil, errors.Wrapf(err, "package %q variant %s: invalid checksum pattern", name, plat)
					}
					cs.CompiledPattern = re
				}
				asset.Checksum = cs
			}
			decl.Variants[plat] = asset
		}
		repo.Packages[name] = decl
	}
	return repo, nil
}

func platformKey(p platform.Platform) string {
	return p.String()
}

var validOS = map[platform.OS]bool{platform.Linux: true, platform.Windows: true, platform.MacOS: true}
var validArch = map[platform.Arch]bool{platform.X86_64: true, platform.AArch64: true}

func parsePlatformKey(key string) (platform.Platform, error) {
	idx := -1
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return platform.Platform{}, errors.Errorf("malformed platform key %q", key)
	}
	p := platform.Platform{OS: platform.OS(key[:idx]), Arch: platform.Arch(key[idx+1:])}
	if !validOS[p.OS] || !validArch[p.Arch] {
		return platform.Platform{}, errors.Errorf("unknown platform key %q", key)
	}
	return p, nil
}

// splitRepoRef splits "owner/repo" the same way the loader's splitOwnerRepo
// does, but over a plain string rather than a syntax.StringLit — the
// persisted-JSON round trip has no source position to report.
func splitRepoRef(s string) (owner, repoName string, err error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			owner, repoName = s[:i], s[i+1:]
			if owner == "" || repoName == "" {
				break
			}
			return owner, repoName, nil
		}
	}
	return "", "", errors.Errorf("invalid GitHub repository reference %q, expected \"owner/repo\"", s)
}
