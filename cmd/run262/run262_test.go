package main

import (
	"errors"
	"testing"

	"com.github.sebastianobarrera.modeledjs/aotvm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const negativeCase = `// Copyright header
/*---
description: sample
flags: [onlyStrict, raw]
includes: [propertyHelper.js]
negative:
  phase: parse
  type: SyntaxError
---*/
with ({}) {}
`

func TestParseMetadata(t *testing.T) {
	mt, err := parseMetadata([]byte(negativeCase))
	require.NoError(t, err)
	assert.True(t, mt.OnlyStrict)
	assert.True(t, mt.Raw)
	assert.False(t, mt.NoStrict)
	assert.Equal(t, []string{"propertyHelper.js"}, mt.Includes)
	assert.Equal(t, "parse", mt.NegativePhase)
	assert.Equal(t, "SyntaxError", mt.NegativeType)

	mt, err = parseMetadata([]byte("1;"))
	require.NoError(t, err)
	assert.Equal(t, Metadata{}, mt)

	_, err = parseMetadata([]byte("/*--- flags: [raw]"))
	assert.Error(t, err)
}

func TestCheckOutcome(t *testing.T) {
	parseNegative := Metadata{NegativePhase: "parse", NegativeType: "SyntaxError"}
	_, syntaxErr := aotvm.Parse("x.js", `"use strict"; with ({}) {}`)
	require.Error(t, syntaxErr)

	assert.NoError(t, checkOutcome(parseNegative, syntaxErr))
	assert.Error(t, checkOutcome(parseNegative, nil))

	vm := aotvm.NewVM()
	_, thrown := vm.RunScriptString("y.js", `throw new TypeError("t")`)
	runtimeNegative := Metadata{NegativePhase: "runtime", NegativeType: "TypeError"}
	assert.NoError(t, checkOutcome(runtimeNegative, thrown))
	assert.Error(t, checkOutcome(Metadata{NegativePhase: "runtime", NegativeType: "RangeError"}, thrown))

	plain := errors.New("boom")
	assert.Equal(t, plain, checkOutcome(Metadata{}, plain))
	assert.NoError(t, checkOutcome(Metadata{}, nil))
}
