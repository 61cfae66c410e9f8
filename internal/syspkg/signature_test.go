package syspkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignatureTable_Classify(t *testing.T) {
	t.Parallel()

	table := XBPSSignatures()

	tests := []struct {
		name string
		text string
		want Category
	}{
		{"clean", "1 downloaded, 1 installed", CategoryNone},
		{"tooling", "The 'xbps' package must be updated, please run `xbps-install -u xbps`", ToolingOutdated},
		{"shlib", "libfoo-1.0_1: broken, unresolvable shlib `libbar.so.2'", BrokenDependencyGraph},
		{"not found", "Package 'bledner' not found in repository pool.", NotFound},
		{"not installed", "Package 'vim' is not currently installed.", NotInstalled},
		{"first match wins", "broken, unresolvable shlib\nThe 'xbps' package must be updated", ToolingOutdated},
		{"phrase needs trailing dot", "not found in repository pool", CategoryNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, table.Classify(tt.text))
		})
	}
}

func TestSignatureTable_Watch(t *testing.T) {
	t.Parallel()

	table := XBPSSignatures()

	t.Run("stops on watched category", func(t *testing.T) {
		var out Outcome
		var seen []string
		handle := table.Watch(&out, func(line string) { seen = append(seen, line) }, BrokenDependencyGraph)

		assert.True(t, handle("resolving dependencies"))
		assert.False(t, handle("foo: broken, unresolvable shlib `x.so'"))
		assert.Equal(t, BrokenDependencyGraph, out.Category)
		assert.Contains(t, out.Line, "shlib")
		assert.Len(t, seen, 2)
		assert.True(t, out.Failed())
	})

	t.Run("ignores unwatched category", func(t *testing.T) {
		var out Outcome
		handle := table.Watch(&out, nil, ToolingOutdated)

		assert.True(t, handle("Package 'x' not found in repository pool."))
		assert.Equal(t, CategoryNone, out.Category)
		assert.False(t, out.Failed())
	})
}

func TestCategory_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", CategoryNone.String())
	assert.Equal(t, "not-found", NotFound.String())
	assert.Equal(t, "tooling-outdated", ToolingOutdated.String())
	assert.Equal(t, "broken-dependency-graph", BrokenDependencyGraph.String())
	assert.Equal(t, "not-installed", NotInstalled.String())
}
