package aotvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrictModeEarlyErrors(t *testing.T) {
	sources := []string{
		`"use strict"; with ({}) {}`,
		`"use strict"; var eval = 1;`,
		`"use strict"; var arguments;`,
		`"use strict"; function f(a, a) {}`,
		`"use strict"; function eval() {}`,
		`"use strict"; var x; delete x;`,
		`"use strict"; arguments = 1;`,
		`"use strict"; eval++;`,
		`"use strict"; try {} catch (eval) {}`,
		`"use strict"; var interface;`,
		`function f() { "use strict"; var static; }`,
		`"use strict"; if (true) function f() {}`,
	}
	for _, src := range sources {
		_, err := Parse("strict.js", src)
		require.Error(t, err, src)
		assert.ErrorIs(t, err, ErrSyntax, src)
	}
}

func TestSloppyModeAccepts(t *testing.T) {
	sources := []string{
		`with ({}) {}`,
		`var eval = 1;`,
		`function f(a, a) {}`,
		`var x; delete x;`,
		`function f() { 1; } "use strict"; with ({}) {}`,
		``,
	}
	for _, src := range sources {
		_, err := Parse("sloppy.js", src)
		assert.NoError(t, err, src)
	}
}

func TestLoopBodyFunctionDeclaration(t *testing.T) {
	_, err := Parse("loop.js", `while (false) function f() {}`)
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestParserErrorIsSyntaxError(t *testing.T) {
	_, err := Parse("bad.js", `var = ;`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSyntax)

	vm := NewVM()
	_, err = vm.RunScriptString("bad.js", `function (`)
	assert.ErrorIs(t, err, ErrSyntax)
	_, isThrow := AsThrow(err)
	assert.False(t, isThrow)
}

func TestProgramStrictness(t *testing.T) {
	p, err := Parse("a.js", `"use strict"; 1;`)
	require.NoError(t, err)
	assert.True(t, p.Strict)

	p, err = Parse("b.js", `1; "use strict";`)
	require.NoError(t, err)
	assert.False(t, p.Strict)
}
