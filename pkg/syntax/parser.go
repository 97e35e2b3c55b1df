package syntax

// parser is a recursive-descent parser over the token stream produced by
// the lexer. It performs no semantic validation — only the syntactic shape
// from the grammar in spec.md §4.2; see pkg/repository for validation.
type parser struct {
	toks []Token
	pos  int
}

// Parse compiles repository DSL source text into a File AST, or returns the
// first SyntaxError encountered.
func Parse(src string) (*File, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseFile()
}

func (p *parser) cur() Token {
	return p.toks[p.pos]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expectKind(k Kind) (Token, error) {
	t := p.cur()
	if t.Kind != k {
		return t, newSyntaxError(t.Pos, "expected %s, found %s", k, describe(t))
	}
	return p.next(), nil
}

// expectIdent consumes an Ident token whose Value matches one of the given
// keywords (case-sensitive, per the grammar's literal keyword tokens).
func (p *parser) expectIdent(keywords ...string) (Token, error) {
	t := p.cur()
	if t.Kind != Ident {
		return t, newSyntaxError(t.Pos, "expected keyword, found %s", describe(t))
	}
	for _, kw := range keywords {
		if t.Value == kw {
			return p.next(), nil
		}
	}
	return t, newSyntaxError(t.Pos, "expected one of %v, found %q", keywords, t.Value)
}

func (p *parser) atIdent(keyword string) bool {
	t := p.cur()
	return t.Kind == Ident && t.Value == keyword
}

func describe(t Token) string {
	if t.Kind == Ident || t.Kind == String {
		return t.Kind.String() + " " + quote(t.Value)
	}
	return t.Kind.String()
}

func quote(s string) string {
	return "\"" + s + "\""
}

func (p *parser) parseString() (StringLit, error) {
	t, err := p.expectKind(String)
	if err != nil {
		return StringLit{}, err
	}
	return StringLit{Value: t.Value, Pos: t.Pos}, nil
}

func (p *parser) parseFile() (*File, error) {
	start := p.cur().Pos
	if _, err := p.expectIdent("name"); err != nil {
		return nil, err
	}
	name, err := p.parseString()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectIdent("description"); err != nil {
		return nil, err
	}
	desc, err := p.parseString()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectIdent("packages"); err != nil {
		return nil, err
	}
	if _, err := p.expectKind(LBrace); err != nil {
		return nil, err
	}

	var pkgs []Pkg
	for p.cur().Kind != RBrace {
		pkg, err := p.parsePkg()
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}
	if _, err := p.expectKind(RBrace); err != nil {
		return nil, err
	}
	if _, err := p.expectKind(EOF); err != nil {
		return nil, err
	}

	return &File{Pos: start, Name: name, Description: desc, Packages: pkgs}, nil
}

func (p *parser) parsePkg() (Pkg, error) {
	start := p.cur().Pos
	name, err := p.parseString()
	if err != nil {
		return Pkg{}, err
	}

	var requires []StringLit
	if p.cur().Kind == LParen {
		requires, err = p.parseRequires()
		if err != nil {
			return Pkg{}, err
		}
	}

	if _, err := p.expectKind(Colon); err != nil {
		return Pkg{}, err
	}

	src, err := p.parseSource()
	if err != nil {
		return Pkg{}, err
	}

	version, err := p.parseVersion()
	if err != nil {
		return Pkg{}, err
	}

	prelease := false
	if p.cur().Kind == LBrack {
		prelease, err = p.parseFlags()
		if err != nil {
			return Pkg{}, err
		}
	}

	if _, err := p.expectKind(LBrace); err != nil {
		return Pkg{}, err
	}
	var variants []Variant
	for {
		v, err := p.parseVariant()
		if err != nil {
			return Pkg{}, err
		}
		variants = append(variants, v)
		if p.cur().Kind == Comma {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expectKind(RBrace); err != nil {
		return Pkg{}, err
	}

	return Pkg{
		Pos:      start,
		Name:     name,
		Requires: requires,
		Source:   src,
		Version:  version,
		Prelease: prelease,
		Variants: variants,
	}, nil
}

func (p *parser) parseRequires() ([]StringLit, error) {
	if _, err := p.expectKind(LParen); err != nil {
		return nil, err
	}
	if _, err := p.expectIdent("requires"); err != nil {
		return nil, err
	}
	var out []StringLit
	for {
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		if p.cur().Kind == Comma {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expectKind(RParen); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) parseSource() (Source, error) {
	start := p.cur().Pos
	if p.atIdent("GitHub") {
		p.next()
		ref, err := p.parseString()
		if err != nil {
			return Source{}, err
		}
		return Source{Pos: start, IsGitHub: true, GitHubRef: ref}, nil
	}
	if _, err := p.expectIdent("Direct"); err != nil {
		return Source{}, newSyntaxError(start, "expected \"GitHub\" or \"Direct\", found %s", describe(p.cur()))
	}
	return Source{Pos: start, IsGitHub: false}, nil
}

func (p *parser) parseVersion() (Version, error) {
	start := p.cur().Pos
	if _, err := p.expectIdent("version"); err != nil {
		return Version{}, err
	}
	if _, err := p.expectKind(LParen); err != nil {
		return Version{}, err
	}

	var v Version
	v.Pos = start
	switch {
	case p.atIdent("TagName"):
		p.next()
		v.Kind = VersionTagName
	case p.atIdent("ReleaseTitle"):
		p.next()
		v.Kind = VersionReleaseTitle
	case p.cur().Kind == String:
		lit, err := p.parseString()
		if err != nil {
			return Version{}, err
		}
		v.Kind = VersionLiteral
		v.Literal = lit
	default:
		return Version{}, newSyntaxError(p.cur().Pos, "expected TagName, ReleaseTitle, or a literal version string, found %s", describe(p.cur()))
	}

	if _, err := p.expectKind(RParen); err != nil {
		return Version{}, err
	}
	return v, nil
}

func (p *parser) parseFlags() (bool, error) {
	if _, err := p.expectKind(LBrack); err != nil {
		return false, err
	}
	prelease := false
	if p.atIdent("prelease") {
		p.next()
		prelease = true
	}
	if _, err := p.expectKind(RBrack); err != nil {
		return false, err
	}
	return prelease, nil
}

func (p *parser) parseVariant() (Variant, error) {
	start := p.cur().Pos
	osTok, err := p.expectIdent("linux", "windows", "macos")
	if err != nil {
		return Variant{}, err
	}
	osLit := StringLit{Value: osTok.Value, Pos: osTok.Pos}

	if _, err := p.expectKind(LBrack); err != nil {
		return Variant{}, err
	}
	archTok, err := p.expectIdent("x86_64", "aarch64")
	if err != nil {
		return Variant{}, err
	}
	archLit := StringLit{Value: archTok.Value, Pos: archTok.Pos}
	if _, err := p.expectKind(RBrack); err != nil {
		return Variant{}, err
	}

	pattern, err := p.parseString()
	if err != nil {
		return Variant{}, err
	}

	v := Variant{Pos: start, OS: osLit, Arch: archLit, Pattern: pattern}

	switch {
	case p.atIdent("archive"):
		p.next()
		if _, err := p.expectKind(LParen); err != nil {
			return Variant{}, err
		}
		kindTok, err := p.expectIdent("TarGz", "TarXz", "TarBz2", "Zip")
		if err != nil {
			return Variant{}, err
		}
		if _, err := p.expectKind(RParen); err != nil {
			return Variant{}, err
		}
		if _, err := p.expectKind(LBrace); err != nil {
			return Variant{}, err
		}
		var bins []Bin
		for {
			b, err := p.parseBin()
			if err != nil {
				return Variant{}, err
			}
			bins = append(bins, b)
			if p.cur().Kind == Comma {
				p.next()
				continue
			}
			break
		}
		if _, err := p.expectKind(RBrace); err != nil {
			return Variant{}, err
		}
		v.IsArchive = true
		v.ArchiveKind = StringLit{Value: kindTok.Value, Pos: kindTok.Pos}
		v.Binaries = bins
	case p.atIdent("as"), p.atIdent("bin"):
		p.next()
		name, err := p.parseString()
		if err != nil {
			return Variant{}, err
		}
		v.IsArchive = false
		v.InstallName = name
	default:
		return Variant{}, newSyntaxError(p.cur().Pos, "expected \"archive\", \"as\", or \"bin\", found %s", describe(p.cur()))
	}

	if p.atIdent("checksum") {
		cksum, err := p.parseChecksum()
		if err != nil {
			return Variant{}, err
		}
		v.Checksum = &cksum
	}

	return v, nil
}

// parseChecksum parses the optional trailing `checksum(algorithm) "pattern"`
// clause on a variant (SPEC_FULL.md §3.1).
func (p *parser) parseChecksum() (Checksum, error) {
	start := p.cur().Pos
	if _, err := p.expectIdent("checksum"); err != nil {
		return Checksum{}, err
	}
	if _, err := p.expectKind(LParen); err != nil {
		return Checksum{}, err
	}
	algoTok, err := p.expectIdent("sha256", "sha512", "sha1", "md5")
	if err != nil {
		return Checksum{}, err
	}
	if _, err := p.expectKind(RParen); err != nil {
		return Checksum{}, err
	}
	pattern, err := p.parseString()
	if err != nil {
		return Checksum{}, err
	}
	return Checksum{
		Pos:       start,
		Algorithm: StringLit{Value: algoTok.Value, Pos: algoTok.Pos},
		Pattern:   pattern,
	}, nil
}

func (p *parser) parseBin() (Bin, error) {
	start := p.cur().Pos
	if _, err := p.expectIdent("bin"); err != nil {
		return Bin{}, err
	}
	pattern, err := p.parseString()
	if err != nil {
		return Bin{}, err
	}
	b := Bin{Pos: start, Pattern: pattern}
	if p.atIdent("as") {
		p.next()
		name, err := p.parseString()
		if err != nil {
			return Bin{}, err
		}
		b.InstallName = &name
	}
	return b, nil
}
