package script

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/frederic-klein/yadi/internal/deps"
	"github.com/frederic-klein/yadi/internal/installer"
	"github.com/frederic-klein/yadi/internal/manifest"
	"github.com/frederic-klein/yadi/internal/pkgmgr"
	"github.com/frederic-klein/yadi/internal/selector"
)

func defaultManifest(t *testing.T) *deps.Manifest {
	t.Helper()
	m, err := manifest.NewParser().Default()
	require.NoError(t, err)
	return m
}

func requireSameManifest(t *testing.T, want, got *deps.Manifest) {
	t.Helper()
	assert.Equal(t, want.Repository, got.Repository)
	assert.Equal(t, want.Prerequisites, got.Prerequisites)
	for _, c := range deps.All {
		assert.Equal(t, want.Packages(c), got.Packages(c), "category %s", c)
	}
}

func TestParser_Parse_UpstreamScript(t *testing.T) {
	f, err := os.Open("testdata/gift_copr_install.sh")
	require.NoError(t, err)
	defer f.Close()

	got, err := NewParser(f).Parse()
	require.NoError(t, err)
	require.NoError(t, got.Validate())

	requireSameManifest(t, defaultManifest(t), got)
}

func TestEmitter_RoundTrip(t *testing.T) {
	want := defaultManifest(t)

	var buf bytes.Buffer
	require.NoError(t, NewEmitter(&buf, "sudo", "dnf").Emit(want))

	got, err := NewParser(&buf).Parse()
	require.NoError(t, err)
	requireSameManifest(t, want, got)
}

func TestEmitter_Emit_Layout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEmitter(&buf, "sudo", "dnf").Emit(defaultManifest(t)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "#!/usr/bin/env bash\n"))
	assert.Contains(t, out, "set -e")
	assert.Contains(t, out, "sudo dnf install -y dnf-plugins-core")
	assert.Contains(t, out, "sudo dnf copr -y enable @gift/dev")

	order := []string{
		"sudo dnf install -y dnf-plugins-core",
		"sudo dnf copr -y enable @gift/dev",
		"${PYTHON3_DEPENDENCIES}",
		`"include-debug"`,
		"${DEBUG_DEPENDENCIES}",
		`"include-development"`,
		"${DEVELOPMENT_DEPENDENCIES}",
		`"include-test"`,
		"${TEST_DEPENDENCIES}",
	}
	last := -1
	for _, s := range order {
		at := strings.LastIndex(out, s)
		require.Greater(t, at, last, "%q is out of order", s)
		last = at
	}
}

func TestEmitter_Emit_NoWrapper(t *testing.T) {
	m := deps.NewManifest("@gift/stable", nil)
	m.Set(deps.Runtime, []string{"python3-dfvfs"})

	var buf bytes.Buffer
	require.NoError(t, NewEmitter(&buf, "", "dnf5").Emit(m))

	assert.Contains(t, buf.String(), "\ndnf5 copr -y enable @gift/stable\n")
	assert.NotContains(t, buf.String(), "sudo")
}

func TestParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{
			name:    "not bash",
			src:     "if then fi (",
			wantErr: ErrParseFailed,
		},
		{
			name:    "no lists",
			src:     "set -e\nsudo dnf install -y foo\n",
			wantErr: ErrNoDependencies,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(strings.NewReader(tt.src)).Parse()
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEmitter_Emit_RejectsInvalidManifest(t *testing.T) {
	tests := []struct {
		name    string
		repo    string
		runtime []string
		wantErr error
	}{
		{
			name:    "command substitution",
			repo:    "@gift/dev",
			runtime: []string{"$(id)"},
			wantErr: deps.ErrInvalidPackageName,
		},
		{
			name:    "dnf option",
			repo:    "@gift/dev",
			runtime: []string{"--setopt=x"},
			wantErr: deps.ErrInvalidPackageName,
		},
		{
			name:    "shell text in repository",
			repo:    "x;id",
			runtime: []string{"a"},
			wantErr: deps.ErrInvalidRepository,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := deps.NewManifest(tt.repo, nil)
			m.Set(deps.Runtime, tt.runtime)

			var buf bytes.Buffer
			err := NewEmitter(&buf, "sudo", "dnf").Emit(m)
			require.ErrorIs(t, err, ErrInvalidScript)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, buf.String())
		})
	}
}

func TestEmitter_Emit_SkipsEmptyCategories(t *testing.T) {
	m := deps.NewManifest("@gift/dev", nil)
	m.Set(deps.Runtime, []string{"a"})
	m.Set(deps.Debug, []string{"b"})

	var buf bytes.Buffer
	require.NoError(t, NewEmitter(&buf, "", "dnf").Emit(m))
	out := buf.String()

	assert.Contains(t, out, `"include-debug"`)
	assert.NotContains(t, out, `"include-development"`)
	assert.NotContains(t, out, `"include-test"`)

	got, err := NewParser(strings.NewReader(out)).Parse()
	require.NoError(t, err)
	requireSameManifest(t, m, got)
}

func TestParser_Parse_IgnoresNonLiteralAssignments(t *testing.T) {
	src := `PYTHON3_DEPENDENCIES="a b"
DEBUG_DEPENDENCIES="${EXTRA} c"
sudo dnf copr enable @gift/dev
`
	m, err := NewParser(strings.NewReader(src)).Parse()
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, m.Packages(deps.Runtime))
	assert.Empty(t, m.Packages(deps.Debug))
	assert.Equal(t, "@gift/dev", m.Repository)
	assert.Empty(t, m.Prerequisites)
}

// runScript interprets src with args as positional parameters and returns
// the argv of every external command, failing the ones for which fail
// returns true.
func runScript(t *testing.T, src string, args []string, fail func([]string) bool) ([][]string, error) {
	t.Helper()

	file, err := syntax.NewParser().Parse(strings.NewReader(src), "install.sh")
	require.NoError(t, err)

	var calls [][]string
	record := func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, argv []string) error {
			calls = append(calls, argv)
			if fail != nil && fail(argv) {
				return interp.ExitStatus(1)
			}
			return nil
		}
	}

	r, err := interp.New(
		interp.Params(append([]string{"--"}, args...)...),
		interp.ExecHandlers(record),
		interp.StdIO(nil, &bytes.Buffer{}, &bytes.Buffer{}),
	)
	require.NoError(t, err)

	return calls, r.Run(context.Background(), file)
}

// The emitted script and the installer must issue the same commands.
func TestEmitter_MatchesInstallerPlan(t *testing.T) {
	sparse := deps.NewManifest("x", nil)
	sparse.Set(deps.Runtime, []string{"a"})
	sparse.Set(deps.Development, []string{"d"})

	manifests := map[string]*deps.Manifest{
		"default": defaultManifest(t),
		"sparse":  sparse,
	}

	argSets := [][]string{
		nil,
		{"include-debug"},
		{"include-test"},
		{"include-test", "--include-development"},
		{"include-debug", "include-development", "include-test"},
		{"no-include-test"},
	}

	for name, m := range manifests {
		var buf bytes.Buffer
		require.NoError(t, NewEmitter(&buf, "", "dnf").Emit(m))

		for _, args := range argSets {
			t.Run(name+"/"+strings.Join(args, "_"), func(t *testing.T) {
				calls, err := runScript(t, buf.String(), args, nil)
				require.NoError(t, err)

				var want [][]string
				for _, step := range installer.Plan(m, pkgmgr.NewDNF(), selector.FromArgs(args)) {
					want = append(want, step.Command.Argv())
				}
				assert.Equal(t, want, calls)
			})
		}
	}
}

func TestEmitter_FailingRuntimeInstallStopsScript(t *testing.T) {
	m := defaultManifest(t)

	var buf bytes.Buffer
	require.NoError(t, NewEmitter(&buf, "", "dnf").Emit(m))

	runtimeFirst := m.Packages(deps.Runtime)[0]
	calls, err := runScript(t, buf.String(), []string{"include-debug"}, func(argv []string) bool {
		return len(argv) > 3 && argv[3] == runtimeFirst
	})
	require.Error(t, err)

	require.Len(t, calls, 3)
	assert.Equal(t, runtimeFirst, calls[2][3])
}
