package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/frederic-klein/yadi/internal/deps"
)

func TestFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []deps.Category
	}{
		{
			name: "no arguments",
			args: nil,
			want: nil,
		},
		{
			name: "unrelated arguments",
			args: []string{"--verbose", "debug", "test"},
			want: nil,
		},
		{
			name: "debug only",
			args: []string{"include-debug"},
			want: []deps.Category{deps.Debug},
		},
		{
			name: "all three in any order",
			args: []string{"include-test", "include-development", "include-debug"},
			want: []deps.Category{deps.Debug, deps.Development, deps.Test},
		},
		{
			name: "flag style",
			args: []string{"--include-development"},
			want: []deps.Category{deps.Development},
		},
		{
			name: "substring inside another word",
			args: []string{"no-include-test"},
			want: []deps.Category{deps.Test},
		},
		{
			name: "trigger split across arguments does not match",
			args: []string{"include-", "debug"},
			want: nil,
		},
		{
			name: "one argument with several triggers",
			args: []string{"include-debug,include-test"},
			want: []deps.Category{deps.Debug, deps.Test},
		},
		{
			name: "repeated trigger",
			args: []string{"include-debug", "include-debug"},
			want: []deps.Category{deps.Debug},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromArgs(tt.args).Categories())
		})
	}
}

func TestSelection_WithIgnoresRuntime(t *testing.T) {
	s := New(deps.Runtime)
	assert.Empty(t, s.Categories())
	assert.True(t, s.Has(deps.Runtime))
}

func TestSelection_WithDoesNotMutate(t *testing.T) {
	base := New(deps.Debug)
	_ = base.With(deps.Test)

	assert.Equal(t, []deps.Category{deps.Debug}, base.Categories())
}

func TestSelection_Merge(t *testing.T) {
	s := FromArgs([]string{"include-test"}).Merge(New(deps.Debug))

	assert.Equal(t, []deps.Category{deps.Debug, deps.Test}, s.Categories())
	assert.Equal(t, "runtime+debug+test", s.String())
}

func TestSelection_ZeroValue(t *testing.T) {
	var s Selection
	assert.Empty(t, s.Categories())
	assert.False(t, s.Has(deps.Debug))
	assert.Equal(t, []deps.Category{deps.Test}, s.With(deps.Test).Categories())
}
