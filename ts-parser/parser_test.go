package tsparser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValid(t *testing.T) {
	sources := []string{
		`var x = 1;`,
		`let y = async () => { await null; };`,
		`class A extends B { static #p = 1; get q() { return this.#p; } }`,
		`function* g() { yield* [1, 2]; }`,
		``,
	}
	for _, src := range sources {
		assert.NoError(t, ParseBytes("ok.js", []byte(src)), src)
	}
}

func TestParseErrorPosition(t *testing.T) {
	err := ParseBytes("bad.js", []byte("var a = 1;\nvar = ;\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.True(t, strings.HasPrefix(err.Error(), "bad.js:2:"), err.Error())
}

func TestParseReader(t *testing.T) {
	assert.NoError(t, ParseReader("r.js", strings.NewReader("1 + 2")))
	assert.ErrorIs(t, ParseReader("r.js", strings.NewReader("(")), ErrParse)
}
