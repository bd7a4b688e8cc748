package filter

import (
	"testing"

	"github.com/brojonat/polywatch/service/polymarket"
	"github.com/itchyny/gojq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testActivity() polymarket.Activity {
	return polymarket.Activity{
		ID:          "0xhash",
		Wallet:      "0xwallet",
		Timestamp:   1723772500,
		Type:        "TRADE",
		ConditionID: "0xCondA",
		Title:       "Will it rain?",
		Outcome:     "Yes",
		Side:        "BUY",
		Size:        decimal.RequireFromString("200"),
		Price:       decimal.RequireFromString("0.6"),
		USDCSize:    decimal.RequireFromString("120"),
	}
}

func TestNilAndEmptyFilterMatchEverything(t *testing.T) {
	var nilFilter *Filter
	assert.True(t, nilFilter.Empty())
	assert.True(t, nilFilter.Match(testActivity()))

	f, err := New(nil, nil)
	require.NoError(t, err)
	assert.True(t, f.Empty())
	assert.True(t, f.Match(testActivity()))
}

func TestConditionIDFilter(t *testing.T) {
	f, err := New([]string{"0xconda", "0xcondb"}, nil)
	require.NoError(t, err)
	assert.False(t, f.Empty())

	// Case-insensitive match
	assert.True(t, f.Match(testActivity()))

	other := testActivity()
	other.ConditionID = "0xcondc"
	assert.False(t, f.Match(other))
}

func TestJQFilter(t *testing.T) {
	tests := []struct {
		name        string
		exprs       []string
		expectMatch bool
	}{
		{
			name:        "side match",
			exprs:       []string{`.side == "BUY"`},
			expectMatch: true,
		},
		{
			name:        "side mismatch",
			exprs:       []string{`.side == "SELL"`},
			expectMatch: false,
		},
		{
			name:        "decimal amount compared as number",
			exprs:       []string{`.usdcSize > 100`},
			expectMatch: true,
		},
		{
			name:        "derived value exposed",
			exprs:       []string{`.value >= 120`},
			expectMatch: true,
		},
		{
			name:        "all must match",
			exprs:       []string{`.side == "BUY"`, `.price < 0.5`},
			expectMatch: false,
		},
		{
			name:        "null result is false",
			exprs:       []string{`.missing`},
			expectMatch: false,
		},
		{
			name:        "empty result is false",
			exprs:       []string{`empty`},
			expectMatch: false,
		},
		{
			name:        "runtime error is false",
			exprs:       []string{`.title | tonumber`},
			expectMatch: false,
		},
		{
			name:        "title contains",
			exprs:       []string{`.title | test("rain")`},
			expectMatch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(nil, tt.exprs)
			require.NoError(t, err)
			assert.Equal(t, tt.expectMatch, f.Match(testActivity()))
		})
	}
}

func TestNew_InvalidExpression(t *testing.T) {
	_, err := New(nil, []string{`.side ==`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse jq filter")
}

func TestEval(t *testing.T) {
	query, err := gojq.Parse(`.amount > 50`)
	require.NoError(t, err)
	code, err := gojq.Compile(query)
	require.NoError(t, err)

	ok, err := Eval(code, map[string]any{"amount": 100.0})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Eval(code, map[string]any{"amount": 25.0})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsTruthy(t *testing.T) {
	assert.False(t, IsTruthy(nil))
	assert.False(t, IsTruthy(false))
	assert.True(t, IsTruthy(true))
	assert.True(t, IsTruthy(0.0))
	assert.True(t, IsTruthy(""))
	assert.True(t, IsTruthy([]any{}))
}
