package docs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderIncludesEveryTool(t *testing.T) {
	out, err := Render(Tools)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# Contact Center MCP tools"))
	for _, tool := range Tools {
		assert.Contains(t, out, "## `"+tool.Name+"`")
		for _, p := range tool.ExamplePrompts {
			assert.Contains(t, out, `- "`+p+`"`)
		}
	}
}

func TestLookup(t *testing.T) {
	tool, ok := Lookup("cc_end_task")
	require.True(t, ok)
	assert.Len(t, tool.ExamplePrompts, 3)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}
