package money

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSeparators(t *testing.T) {
	require.Equal(t, 1234.56, Parse("1.234,56"))
	require.Equal(t, 1234.56, Parse("1,234.56"))
	require.Equal(t, 1234.56, Parse("₡1.234,56"))
	require.Equal(t, 0.5, Parse("0,5"))
	require.Equal(t, -42.0, Parse("-42"))
}

func TestParseMalformed(t *testing.T) {
	require.Equal(t, 0.0, Parse("abc"))
	require.Equal(t, 0.0, Parse(""))
	require.Equal(t, 0.0, Parse("-"))
	require.Equal(t, 0.0, Parse(nil))
	require.NotPanics(t, func() { Parse("-0") })
}

func TestParseNumericTypes(t *testing.T) {
	require.Equal(t, 7.0, Parse(7))
	require.Equal(t, 7.5, Parse(7.5))
	require.Equal(t, 7.0, Parse(int64(7)))
}

func TestParseIdempotent(t *testing.T) {
	for _, raw := range []string{"1.234,56", "1,234.56", "99", "0,01", "abc"} {
		once := Parse(raw)
		again := Parse(strconv.FormatFloat(once, 'f', -1, 64))
		require.Equal(t, once, again, "raw %q", raw)
	}
}

func TestSettled(t *testing.T) {
	require.True(t, Settled(0))
	require.True(t, Settled(0.009))
	require.True(t, Settled(-1))
	require.False(t, Settled(0.02))
}

func TestRound2(t *testing.T) {
	require.Equal(t, 10.56, Round2(10.556))
	require.Equal(t, 10.0, Round2(10.0000001))
}
