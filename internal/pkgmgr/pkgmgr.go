// Package pkgmgr turns package lists into package-manager commands.
package pkgmgr

import (
	"slices"

	"github.com/frederic-klein/yadi/internal/runner"
	"go.trai.ch/zerr"
)

// ErrUnsupported is returned for a package manager yadi cannot drive.
var ErrUnsupported = zerr.New("unsupported package manager")

// Manager builds commands for a system package manager. It never executes them.
type Manager interface {
	Name() string
	// Install returns the command that installs pkgs.
	Install(pkgs []string) runner.Command
	// EnableRepository returns the command that enables a copr repository.
	EnableRepository(repo string) runner.Command
	// Query returns a command that exits zero when pkg is installed.
	Query(pkg string) runner.Command
}

// DNF drives dnf and rpm.
type DNF struct {
	Binary    string // dnf executable, "dnf" when empty
	AssumeYes bool
}

// NewDNF returns a DNF manager that answers yes to every prompt.
func NewDNF() *DNF {
	return &DNF{Binary: "dnf", AssumeYes: true}
}

// New returns the manager for name. Only the dnf family is supported.
func New(name string, assumeYes bool) (Manager, error) {
	switch name {
	case "", "dnf", "dnf5", "yum":
		binary := name
		if binary == "" {
			binary = "dnf"
		}
		return &DNF{Binary: binary, AssumeYes: assumeYes}, nil
	default:
		return nil, zerr.With(zerr.Wrap(ErrUnsupported, ""), "package_manager", name)
	}
}

// Name implements Manager.
func (d *DNF) Name() string {
	return d.binary()
}

// Install implements Manager.
func (d *DNF) Install(pkgs []string) runner.Command {
	args := []string{"install"}
	if d.AssumeYes {
		args = append(args, "-y")
	}
	return runner.Command{
		Name:       d.binary(),
		Args:       append(args, slices.Clone(pkgs)...),
		Privileged: true,
	}
}

// EnableRepository implements Manager.
func (d *DNF) EnableRepository(repo string) runner.Command {
	args := []string{"copr"}
	if d.AssumeYes {
		args = append(args, "-y")
	}
	return runner.Command{
		Name:       d.binary(),
		Args:       append(args, "enable", repo),
		Privileged: true,
	}
}

// Query implements Manager.
func (d *DNF) Query(pkg string) runner.Command {
	return runner.Command{Name: "rpm", Args: []string{"-q", "--quiet", pkg}}
}

func (d *DNF) binary() string {
	if d.Binary == "" {
		return "dnf"
	}
	return d.Binary
}
