package installer

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/frederic-klein/yadi/internal/deps"
	"github.com/frederic-klein/yadi/internal/pkgmgr"
	"github.com/frederic-klein/yadi/internal/runner"
	"github.com/frederic-klein/yadi/internal/selector"
	"go.trai.ch/zerr"
)

// ErrStepFailed is returned when a step of the install sequence fails.
var ErrStepFailed = zerr.New("install step failed")

// StepKind says what a step does.
type StepKind string

const (
	StepPrerequisites StepKind = "prerequisites"
	StepRepository    StepKind = "repository"
	StepInstall       StepKind = "install"
)

// Step is one package-manager invocation of the install sequence.
type Step struct {
	Kind     StepKind
	Category deps.Category // set for StepInstall
	Command  runner.Command
}

// Name describes the step for logs and errors.
func (s Step) Name() string {
	if s.Kind == StepInstall {
		return fmt.Sprintf("install %s", s.Category)
	}
	return string(s.Kind)
}

// Plan builds the ordered install sequence: prerequisites, repository
// enable, runtime, then the selected optional categories. Categories
// with an empty list are skipped.
func Plan(m *deps.Manifest, mgr pkgmgr.Manager, sel selector.Selection) []Step {
	var steps []Step

	if len(m.Prerequisites) > 0 {
		steps = append(steps, Step{
			Kind:    StepPrerequisites,
			Command: mgr.Install(m.Prerequisites),
		})
	}

	steps = append(steps, Step{
		Kind:    StepRepository,
		Command: mgr.EnableRepository(m.Repository),
	})

	categories := append([]deps.Category{deps.Runtime}, sel.Categories()...)
	for _, c := range categories {
		pkgs := m.Packages(c)
		if len(pkgs) == 0 {
			continue
		}
		steps = append(steps, Step{
			Kind:     StepInstall,
			Category: c,
			Command:  mgr.Install(pkgs),
		})
	}

	return steps
}

// Installer runs the install sequence for a manifest.
type Installer struct {
	manifest *deps.Manifest
	manager  pkgmgr.Manager
	runner   runner.Runner
	logger   *log.Logger
}

// New creates an installer.
func New(m *deps.Manifest, mgr pkgmgr.Manager, r runner.Runner, logger *log.Logger) *Installer {
	return &Installer{
		manifest: m,
		manager:  mgr,
		runner:   r,
		logger:   logger,
	}
}

// Plan returns the steps Run would execute for sel.
func (i *Installer) Plan(sel selector.Selection) []Step {
	return Plan(i.manifest, i.manager, sel)
}

// Run executes the plan in order and stops at the first failure.
// Nothing is retried or rolled back.
func (i *Installer) Run(ctx context.Context, sel selector.Selection) error {
	steps := i.Plan(sel)
	i.logger.Info("installing", "categories", sel.String(), "steps", len(steps), "manager", i.manager.Name())

	for n, step := range steps {
		if err := ctx.Err(); err != nil {
			return zerr.Wrap(err, "install interrupted")
		}

		i.logger.Info("running step", "step", step.Name(), "n", n+1, "of", len(steps))
		i.logger.Debug("command", "argv", step.Command.String())

		if err := i.runner.Run(ctx, step.Command); err != nil {
			err = zerr.With(fmt.Errorf("%w: %w", ErrStepFailed, err), "step", step.Name())
			if step.Category != "" {
				err = zerr.With(err, "category", string(step.Category))
			}
			return err
		}
	}

	i.logger.Info("done", "categories", sel.String())
	return nil
}
