package script

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/frederic-klein/yadi/internal/deps"
	"go.trai.ch/zerr"
)

// ErrInvalidScript is returned for a manifest that fails validation or
// generated text that does not parse as bash.
var ErrInvalidScript = zerr.New("generated script is not valid bash")

var comments = map[deps.Category]string{
	deps.Runtime: "# Dependencies for running the toolkit, alphabetized, one per line.\n" +
		"# This should not include packages only required for testing or development.\n",
	deps.Test:        "# Additional dependencies for running tests, alphabetized, one per line.\n",
	deps.Development: "# Additional dependencies for development, alphabetized, one per line.\n",
	deps.Debug:       "# Additional dependencies for debugging, alphabetized, one per line.\n",
}

// Emitter writes the bash install script for a manifest.
type Emitter struct {
	w       io.Writer
	wrapper string
	binary  string
}

// NewEmitter creates an emitter that prefixes package-manager calls with
// wrapper (usually "sudo") and invokes binary (usually "dnf").
func NewEmitter(w io.Writer, wrapper, binary string) *Emitter {
	if binary == "" {
		binary = "dnf"
	}
	return &Emitter{w: w, wrapper: strings.TrimSpace(wrapper), binary: binary}
}

// Emit writes the script. The manifest is validated and the text is parsed
// and reprinted before writing, so invalid shell is never emitted.
func (e *Emitter) Emit(m *deps.Manifest) error {
	if err := m.Validate(); err != nil {
		return zerr.WithStack(fmt.Errorf("%w: %w", ErrInvalidScript, err))
	}

	var src bytes.Buffer
	e.render(&src, m)

	parser := syntax.NewParser(syntax.KeepComments(true), syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(&src, "install.sh")
	if err != nil {
		return zerr.WithStack(fmt.Errorf("%w: %w", ErrInvalidScript, err))
	}

	if err := syntax.NewPrinter().Print(e.w, file); err != nil {
		return zerr.Wrap(err, "writing script")
	}
	return nil
}

func (e *Emitter) render(b *bytes.Buffer, m *deps.Manifest) {
	b.WriteString("#!/usr/bin/env bash\n")
	b.WriteString("#\n")
	b.WriteString("# Script to install the dependencies on Fedora from the GIFT copr.\n")
	b.WriteString("# Generated by yadi, edit the manifest instead.\n\n")
	b.WriteString("set -e\n\n")

	for _, c := range []deps.Category{deps.Runtime, deps.Test, deps.Development, deps.Debug} {
		b.WriteString(comments[c])
		writeList(b, c.Variable(), m.Packages(c))
		b.WriteString("\n")
	}

	if len(m.Prerequisites) > 0 {
		fmt.Fprintf(b, "%s install -y %s\n", e.prefix(), strings.Join(m.Prerequisites, " "))
	}
	fmt.Fprintf(b, "%s copr -y enable %s\n", e.prefix(), m.Repository)
	fmt.Fprintf(b, "%s install -y ${%s}\n", e.prefix(), deps.Runtime.Variable())

	for _, c := range deps.Optional {
		if m.Count(c) == 0 {
			continue
		}
		fmt.Fprintf(b, "\nif [[ \"$*\" =~ \"%s\" ]]; then\n", c.Flag())
		fmt.Fprintf(b, "\t%s install -y ${%s}\n", e.prefix(), c.Variable())
		b.WriteString("fi\n")
	}
}

func (e *Emitter) prefix() string {
	if e.wrapper == "" {
		return e.binary
	}
	return e.wrapper + " " + e.binary
}

// writeList writes NAME="a
// <pad>b"; with continuation lines aligned under the first package.
func writeList(b *bytes.Buffer, name string, pkgs []string) {
	pad := strings.Repeat(" ", len(name)+2)
	fmt.Fprintf(b, "%s=\"", name)
	for i, pkg := range pkgs {
		if i > 0 {
			b.WriteString("\n" + pad)
		}
		b.WriteString(pkg)
	}
	b.WriteString("\";\n")
}
