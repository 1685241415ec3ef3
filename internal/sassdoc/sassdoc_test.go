package sassdoc_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wkillerud/some-sass-sub003/internal/sassdoc"
)

const source = `// unrelated
/// Adds two numbers.
/// Second line.
/// @param {Number} $a - First operand
/// @param {Number} $b [0] - Second operand
/// @return {Number} the sum
/// @deprecated Use math.add instead
/// @example scss
///   add(1, 2);
@function add($a, $b: 0) {
	@return $a + $b;
}
`

func TestBlockAndParse(t *testing.T) {
	block, ok := sassdoc.Block(source, strings.Index(source, "@function"))
	require.True(t, ok)

	c, err := sassdoc.Parse(block)
	require.NoError(t, err)

	assert.Equal(t, "Adds two numbers.\nSecond line.", c.Description)
	require.Len(t, c.Parameters, 2)
	assert.Equal(t, sassdoc.Parameter{Name: "$a", Type: "Number", Description: "First operand"}, c.Parameters[0])
	assert.Equal(t, "0", c.Parameters[1].Default)
	require.NotNil(t, c.Return)
	assert.Equal(t, "Number", c.Return.Type)
	assert.True(t, c.IsDeprecated())
	assert.Equal(t, "Use math.add instead", *c.Deprecated)
	require.Len(t, c.Examples, 1)
	assert.Contains(t, c.Examples[0], "add(1, 2);")

	p, ok := c.Parameter("b")
	assert.True(t, ok)
	assert.Equal(t, "$b", p.Name)

	md := c.Markdown()
	assert.True(t, strings.HasPrefix(md, "**Deprecated**: Use math.add instead"))
	assert.Contains(t, md, "```scss")
}

func TestBlockMissing(t *testing.T) {
	src := "$a: 1;\n\n$b: 2;"
	_, ok := sassdoc.Block(src, strings.Index(src, "$b"))
	assert.False(t, ok)

	_, ok = sassdoc.Block(src, 0)
	assert.False(t, ok)
}

func TestParseMalformed(t *testing.T) {
	c, err := sassdoc.Parse("Description\n@param {Number}\n@type Color")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sassdoc.ErrMalformed))
	// The rest of the block is still usable.
	assert.Equal(t, "Description", c.Description)
	assert.Equal(t, []string{"Color"}, c.Types)
}
