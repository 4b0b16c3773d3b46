package aotvm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberToString(t *testing.T) {
	cases := []struct {
		in   float64
		want JSString
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{123, "123"},
		{-1.5, "-1.5"},
		{0.1, "0.1"},
		{0.000001, "0.000001"},
		{1.5e-7, "1.5e-7"},
		{1e21, "1e+21"},
		{123456789012345680000, "123456789012345680000"},
		{1.2345e25, "1.2345e+25"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NumberToString(tc.in), "%v", tc.in)
	}
}

func TestStringToNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"  42\n", 42},
		{"0x1F", 31},
		{"0b101", 5},
		{"0o17", 15},
		{"1e3", 1000},
		{".5", 0.5},
		{"-Infinity", math.Inf(-1)},
		{"+12", 12},
	}
	for _, tc := range cases {
		assert.Equal(t, JSNumber(tc.want), StringToNumber(tc.in), tc.in)
	}

	for _, bad := range []string{"abc", "0x", "1e", "0xG", "12px", "infinity"} {
		assert.True(t, math.IsNaN(float64(StringToNumber(bad))), bad)
	}
}

func TestToPrimitiveUsesValueOf(t *testing.T) {
	v := runScript(t, `
		var o = {valueOf: function () { return 5; }, toString: function () { return "s"; }};
		[o + 1, String(o)].join(",")`)
	assert.Equal(t, JSString("6,s"), v)

	tc := runThrowing(t, `
		var o = {valueOf: function () { return {}; }, toString: function () { return {}; }};
		o + 1;`)
	assert.Equal(t, "TypeError", tc.ErrorName())
}

func TestIntegerConversions(t *testing.T) {
	vm := NewVM()
	withContext(t, vm)

	u, err := vm.ToUint32(JSNumber(-1))
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), u)

	i, err := vm.ToInt32(JSNumber(math.MaxUint32))
	require.NoError(t, err)
	assert.Equal(t, int32(-1), i)

	n, err := vm.ToLength(JSNumber(-5))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	f, err := vm.ToIntegerOrInfinity(JSNumber(-3.7))
	require.NoError(t, err)
	assert.Equal(t, float64(-3), f)
}

func TestLooseEquality(t *testing.T) {
	cases := []struct {
		src  string
		want bool
	}{
		{`null == undefined`, true},
		{`"1" == 1`, true},
		{`true == 1`, true},
		{`NaN == NaN`, false},
		{`({}) == "[object Object]"`, true},
		{`null == 0`, false},
		{`0 === -0`, true},
	}
	for _, tc := range cases {
		assert.Equal(t, JSBoolean(tc.want), runScript(t, tc.src), tc.src)
	}
}

func TestToBoolean(t *testing.T) {
	vm := NewVM()
	cases := []struct {
		in   JSValue
		want JSBoolean
	}{
		{JSNumber(0), false},
		{JSNumber(math.Copysign(0, -1)), false},
		{JSNumber(math.NaN()), false},
		{JSNumber(-2), true},
		{JSString(""), false},
		{JSString("0"), true},
		{JSUndefined{}, false},
		{JSNull{}, false},
		{vm.GlobalObject(), true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, vm.ToBoolean(tc.in), "%#v", tc.in)
	}
}

func TestStringToNumberWhitespace(t *testing.T) {
	for _, ws := range []string{"\u00A0", "\uFEFF", "\u2028", "\u2029", "\u3000", "\t\v\f"} {
		assert.Equal(t, JSNumber(7), StringToNumber(ws+"7"+ws), "%q", ws)
	}
}
