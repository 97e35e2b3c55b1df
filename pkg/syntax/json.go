package syntax

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// The JSON front-end is an equivalent serialization of the same AST the
// custom-syntax parser produces (spec.md §4.2, second paragraph). It is
// decoded with goccy/go-yaml rather than encoding/json: YAML is a strict
// superset of JSON, so the same decoder that the teacher already uses for
// structured third-party documents (pkg/datasource/aqua_registry.go) parses
// this front-end's JSON documents without reaching for a second dependency.
//
// JSON documents carry no token positions, so diagnostics produced against
// JSON-sourced ASTs report a zero Pos; callers that need precise spans
// should author the custom syntax instead.

type jsonFile struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Packages    map[string]jsonPkg   `yaml:"packages"`
}

type jsonPkg struct {
	Requires    []string             `yaml:"requires"`
	Source      jsonSource           `yaml:"source"`
	VersionFrom jsonVersion          `yaml:"version_from"`
	Prerelease  bool                 `yaml:"prerelease"`
	Variants    map[string]map[string]jsonVariant `yaml:"variants"` // os -> arch -> variant
}

type jsonSource struct {
	GitHub *string `yaml:"github"`
	Direct bool    `yaml:"direct"`
}

// UnmarshalYAML lets "source" be either the bare string "direct" or an
// object {"github": "owner/repo"}.
func (s *jsonSource) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var asString string
	if err := unmarshal(&asString); err == nil {
		if asString != "direct" {
			return fmt.Errorf("invalid source string %q, expected \"direct\"", asString)
		}
		s.Direct = true
		return nil
	}
	var asObj struct {
		GitHub string `yaml:"github"`
	}
	if err := unmarshal(&asObj); err != nil {
		return err
	}
	s.GitHub = &asObj.GitHub
	return nil
}

type jsonVersion struct {
	Kind    VersionKind
	Literal string
}

func (v *jsonVersion) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var asString string
	if err := unmarshal(&asString); err == nil {
		switch asString {
		case "tag_name":
			v.Kind = VersionTagName
		case "release_title":
			v.Kind = VersionReleaseTitle
		default:
			return fmt.Errorf("invalid version_from string %q", asString)
		}
		return nil
	}
	var asObj struct {
		Literal string `yaml:"literal"`
	}
	if err := unmarshal(&asObj); err != nil {
		return err
	}
	v.Kind = VersionLiteral
	v.Literal = asObj.Literal
	return nil
}

type jsonVariant struct {
	Pattern     string            `yaml:"pattern"`
	Archive     *jsonArchive      `yaml:"archive"`
	InstallName string            `yaml:"install_name"`
	Checksum    *jsonChecksum     `yaml:"checksum"`
}

type jsonChecksum struct {
	Algorithm string `yaml:"algorithm"`
	Pattern   string `yaml:"pattern"`
}

type jsonArchive struct {
	Kind     string      `yaml:"kind"`
	Binaries []jsonBin   `yaml:"binaries"`
}

type jsonBin struct {
	Pattern     string `yaml:"pattern"`
	InstallName string `yaml:"install_name"`
}

var jsonArchiveKind = map[string]string{
	"tar_gz":  "TarGz",
	"tar_xz":  "TarXz",
	"tar_bz2": "TarBz2",
	"zip":     "Zip",
}

// ParseJSON compiles the JSON front-end document into the same File AST
// that Parse produces from custom-syntax source.
func ParseJSON(data []byte) (*File, error) {
	var jf jsonFile
	if err := yaml.UnmarshalWithOptions(data, &jf, yaml.Strict()); err != nil {
		return nil, newSyntaxError(Pos{}, "invalid JSON repository document: %s", err)
	}

	f := &File{
		Name:        StringLit{Value: jf.Name},
		Description: StringLit{Value: jf.Description},
	}

	for name, jp := range jf.Packages {
		pkg := Pkg{
			Name:     StringLit{Value: name},
			Prelease: jp.Prerelease,
		}
		for _, r := range jp.Requires {
			pkg.Requires = append(pkg.Requires, StringLit{Value: r})
		}
		if jp.Source.Direct {
			pkg.Source = Source{IsGitHub: false}
		} else if jp.Source.GitHub != nil {
			pkg.Source = Source{IsGitHub: true, GitHubRef: StringLit{Value: *jp.Source.GitHub}}
		} else {
			return nil, newSyntaxError(Pos{}, "package %q: missing source", name)
		}
		pkg.Version = Version{Kind: jp.VersionFrom.Kind, Literal: StringLit{Value: jp.VersionFrom.Literal}}

		for osName, archMap := range jp.Variants {
			for archName, jv := range archMap {
				variant := Variant{
					OS:      StringLit{Value: osName},
					Arch:    StringLit{Value: archName},
					Pattern: StringLit{Value: jv.Pattern},
				}
				if jv.Archive != nil {
					kind, ok := jsonArchiveKind[jv.Archive.Kind]
					if !ok {
						return nil, newSyntaxError(Pos{}, "package %q: unknown archive kind %q", name, jv.Archive.Kind)
					}
					variant.IsArchive = true
					variant.ArchiveKind = StringLit{Value: kind}
					for _, jb := range jv.Archive.Binaries {
						bin := Bin{Pattern: StringLit{Value: jb.Pattern}}
						if jb.InstallName != "" {
							name := StringLit{Value: jb.InstallName}
							bin.InstallName = &name
						}
						variant.Binaries = append(variant.Binaries, bin)
					}
				} else {
					variant.IsArchive = false
					variant.InstallName = StringLit{Value: jv.InstallName}
				}
				if jv.Checksum != nil {
					variant.Checksum = &Checksum{
						Algorithm: StringLit{Value: jv.Checksum.Algorithm},
						Pattern:   StringLit{Value: jv.Checksum.Pattern},
					}
				}
				pkg.Variants = append(pkg.Variants, variant)
			}
		}

		f.Packages = append(f.Packages, pkg)
	}

	return f, nil
}
