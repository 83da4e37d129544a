package deps

import (
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Category is a named group of packages installed together.
type Category string

const (
	Runtime     Category = "runtime"
	Test        Category = "test"
	Development Category = "development"
	Debug       Category = "debug"
)

// All lists every category in install order. Runtime always comes first.
var All = []Category{Runtime, Debug, Development, Test}

// Optional lists the gated categories in the order they are installed.
var Optional = []Category{Debug, Development, Test}

var (
	// ErrUnknownCategory is returned when a category name is not one of the four fixed ones.
	ErrUnknownCategory = zerr.New("unknown category")

	// ErrEmptyRuntime is returned when a manifest has no runtime packages.
	ErrEmptyRuntime = zerr.New("runtime package list is empty")

	// ErrDuplicatePackage is returned when a package appears twice in one list.
	ErrDuplicatePackage = zerr.New("duplicate package")

	// ErrUnsortedPackages is returned when a list is not in lexical order.
	ErrUnsortedPackages = zerr.New("package list is not sorted")

	// ErrInvalidPackageName is returned for names outside the RPM package-name character set.
	ErrInvalidPackageName = zerr.New("invalid package name")

	// ErrMissingRepository is returned when a manifest does not name a copr repository.
	ErrMissingRepository = zerr.New("copr repository is not set")

	// ErrInvalidRepository is returned when the copr repository is not of the form [@]owner/project.
	ErrInvalidRepository = zerr.New("invalid copr repository")
)

var (
	packageName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._+-]*$`)
	repoName    = regexp.MustCompile(`^@?[A-Za-z0-9][A-Za-z0-9._+-]*(/[A-Za-z0-9][A-Za-z0-9._+-]*)?$`)
)

// Flag returns the trigger word that enables the category, e.g. "include-debug".
// Runtime is always installed and has no trigger.
func (c Category) Flag() string {
	if c == Runtime {
		return ""
	}
	return "include-" + string(c)
}

// Variable returns the shell variable name the install script uses for the category.
func (c Category) Variable() string {
	if c == Runtime {
		return "PYTHON3_DEPENDENCIES"
	}
	return strings.ToUpper(string(c)) + "_DEPENDENCIES"
}

// ParseCategory converts a name into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(All, c) {
		return "", zerr.With(zerr.Wrap(ErrUnknownCategory, ""), "category", s)
	}
	return c, nil
}

// Manifest holds the package lists and the repository they come from.
type Manifest struct {
	Repository    string
	Prerequisites []string
	lists         map[Category][]string
}

// NewManifest creates a manifest for the given copr repository.
func NewManifest(repository string, prerequisites []string) *Manifest {
	return &Manifest{
		Repository:    repository,
		Prerequisites: slices.Clone(prerequisites),
		lists:         make(map[Category][]string),
	}
}

// Set replaces the package list of a category. An empty list clears it.
func (m *Manifest) Set(c Category, pkgs []string) {
	if len(pkgs) == 0 {
		delete(m.lists, c)
		return
	}
	m.lists[c] = slices.Clone(pkgs)
}

// Packages returns a copy of the category's package list.
func (m *Manifest) Packages(c Category) []string {
	return slices.Clone(m.lists[c])
}

// Count returns the number of packages in a category.
func (m *Manifest) Count(c Category) int {
	return len(m.lists[c])
}

// Validate checks that the repository is set, runtime is non-empty and
// every list is sorted, unique and made of well-formed names.
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.Repository) == "" {
		return ErrMissingRepository
	}
	if !repoName.MatchString(m.Repository) {
		return zerr.With(zerr.Wrap(ErrInvalidRepository, ""), "repository", m.Repository)
	}
	if len(m.lists[Runtime]) == 0 {
		return ErrEmptyRuntime
	}
	for _, name := range m.Prerequisites {
		if !validName(name) {
			return packageError(ErrInvalidPackageName, "prerequisites", name)
		}
	}
	for _, c := range All {
		if err := validateList(c, m.lists[c]); err != nil {
			return err
		}
	}
	return nil
}

func validateList(c Category, pkgs []string) error {
	seen := make(map[string]bool, len(pkgs))
	for i, name := range pkgs {
		if !validName(name) {
			return packageError(ErrInvalidPackageName, string(c), name)
		}
		if seen[name] {
			return packageError(ErrDuplicatePackage, string(c), name)
		}
		seen[name] = true
		if i > 0 && pkgs[i-1] > name {
			return packageError(ErrUnsortedPackages, string(c), name)
		}
	}
	return nil
}

// packageError keeps sentinel in the chain so callers can match it with errors.Is.
func packageError(sentinel error, category, name string) error {
	return zerr.With(zerr.With(zerr.Wrap(sentinel, ""), "category", category), "package", name)
}

// validName reports whether name is an RPM package name that neither dnf nor
// a shell would read as anything else.
func validName(name string) bool {
	return packageName.MatchString(name)
}
