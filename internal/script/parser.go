package script

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/frederic-klein/yadi/internal/deps"
	"go.trai.ch/zerr"
)

var (
	// ErrParseFailed is returned when the input is not valid bash.
	ErrParseFailed = zerr.New("failed to parse install script")

	// ErrNoDependencies is returned when the script assigns no dependency variables.
	ErrNoDependencies = zerr.New("script defines no dependency lists")
)

// Parser reads generated install scripts back into manifests.
type Parser struct {
	r io.Reader
}

// NewParser creates a new script parser.
func NewParser(r io.Reader) *Parser {
	return &Parser{r: r}
}

// Parse extracts the dependency lists, the copr repository and the
// prerequisite packages. Variable assignments that are not literal
// strings are ignored.
func (p *Parser) Parse() (*deps.Manifest, error) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(p.r, "install.sh")
	if err != nil {
		return nil, zerr.WithStack(fmt.Errorf("%w: %w", ErrParseFailed, err))
	}

	byVariable := make(map[string]deps.Category, len(deps.All))
	for _, c := range deps.All {
		byVariable[c.Variable()] = c
	}

	lists := make(map[deps.Category][]string)
	var repository string
	var prerequisites []string

	syntax.Walk(file, func(node syntax.Node) bool {
		switch n := node.(type) {
		case *syntax.Assign:
			c, ok := byVariable[n.Name.Value]
			if !ok || n.Value == nil {
				return true
			}
			if value, ok := literal(n.Value); ok {
				lists[c] = strings.Fields(value)
			}
		case *syntax.CallExpr:
			args, ok := literals(n.Args)
			if !ok {
				return true
			}
			if repo, ok := coprRepository(args); ok {
				repository = repo
			} else if repository == "" {
				// Literal installs ahead of the copr step set up the package manager.
				prerequisites = append(prerequisites, installedPackages(args)...)
			}
		}
		return true
	})

	if len(lists) == 0 {
		return nil, ErrNoDependencies
	}

	m := deps.NewManifest(repository, prerequisites)
	for c, pkgs := range lists {
		m.Set(c, pkgs)
	}
	return m, nil
}

// coprRepository returns the repository of a "... copr [flags] enable <repo>" call.
func coprRepository(args []string) (string, bool) {
	i := slices.Index(args, "copr")
	if i < 0 {
		return "", false
	}
	rest := args[i+1:]
	j := slices.Index(rest, "enable")
	if j < 0 {
		return "", false
	}
	for _, arg := range rest[j+1:] {
		if !strings.HasPrefix(arg, "-") {
			return arg, true
		}
	}
	return "", false
}

// installedPackages returns the package operands of a "... install [flags] pkgs" call.
func installedPackages(args []string) []string {
	i := slices.Index(args, "install")
	if i < 0 {
		return nil
	}
	var pkgs []string
	for _, arg := range args[i+1:] {
		if !strings.HasPrefix(arg, "-") {
			pkgs = append(pkgs, arg)
		}
	}
	return pkgs
}

func literals(words []*syntax.Word) ([]string, bool) {
	out := make([]string, 0, len(words))
	for _, w := range words {
		s, ok := literal(w)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// literal returns the text of a word made only of plain, single- or
// double-quoted literal parts.
func literal(w *syntax.Word) (string, bool) {
	var b strings.Builder
	for _, part := range w.Parts {
		switch x := part.(type) {
		case *syntax.Lit:
			b.WriteString(x.Value)
		case *syntax.SglQuoted:
			b.WriteString(x.Value)
		case *syntax.DblQuoted:
			for _, inner := range x.Parts {
				lit, ok := inner.(*syntax.Lit)
				if !ok {
					return "", false
				}
				b.WriteString(lit.Value)
			}
		default:
			return "", false
		}
	}
	return b.String(), true
}
