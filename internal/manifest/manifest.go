package manifest

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/frederic-klein/yadi/internal/deps"
	"go.trai.ch/zerr"
)

//go:embed fedora.yaml
var fedoraManifest []byte

var (
	// ErrReadFailed is returned when a manifest file cannot be opened.
	ErrReadFailed = zerr.New("failed to read manifest")

	// ErrDecodeFailed is returned when a manifest is not valid YAML or has unknown keys.
	ErrDecodeFailed = zerr.New("failed to decode manifest")

	// ErrInvalid is returned when a decoded manifest breaks a list invariant.
	ErrInvalid = zerr.New("invalid manifest")
)

// document is the on-disk YAML layout.
type document struct {
	Copr          string   `yaml:"copr"`
	Prerequisites []string `yaml:"prerequisites,omitempty"`
	Runtime       []string `yaml:"runtime"`
	Test          []string `yaml:"test,omitempty"`
	Development   []string `yaml:"development,omitempty"`
	Debug         []string `yaml:"debug,omitempty"`
}

func (d *document) lists() map[deps.Category]*[]string {
	return map[deps.Category]*[]string{
		deps.Runtime:     &d.Runtime,
		deps.Test:        &d.Test,
		deps.Development: &d.Development,
		deps.Debug:       &d.Debug,
	}
}

// Parser loads package manifests.
type Parser struct{}

// NewParser creates a new manifest parser.
func NewParser() *Parser {
	return &Parser{}
}

// Default returns the embedded Fedora manifest.
func (p *Parser) Default() (*deps.Manifest, error) {
	return p.ParseReader(bytes.NewReader(fedoraManifest))
}

// Parse reads a manifest from path. An empty path selects the embedded default.
func (p *Parser) Parse(path string) (*deps.Manifest, error) {
	if path == "" {
		return p.Default()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, zerr.With(fmt.Errorf("%w: %w", ErrReadFailed, err), "path", path)
	}
	defer file.Close()

	m, err := p.ParseReader(file)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return m, nil
}

// ParseReader decodes and validates a manifest.
func (p *Parser) ParseReader(r io.Reader) (*deps.Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, zerr.WithStack(fmt.Errorf("%w: %w", ErrDecodeFailed, err))
	}

	m := deps.NewManifest(doc.Copr, doc.Prerequisites)
	for c, list := range doc.lists() {
		m.Set(c, *list)
	}

	if err := m.Validate(); err != nil {
		return nil, zerr.WithStack(fmt.Errorf("%w: %w", ErrInvalid, err))
	}
	return m, nil
}

// Write encodes a manifest as YAML.
func Write(w io.Writer, m *deps.Manifest) error {
	doc := document{
		Copr:          m.Repository,
		Prerequisites: m.Prerequisites,
	}
	for c, list := range doc.lists() {
		*list = m.Packages(c)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return zerr.Wrap(err, "encoding manifest")
	}
	return enc.Close()
}
