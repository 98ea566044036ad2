package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeDecimals_Widen(t *testing.T) {
	got, err := ChangeDecimals(50000, 5, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000000), got)
}

func TestChangeDecimals_WidenQuoteValue(t *testing.T) {
	got, err := ChangeDecimals(62500, 4, 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(6250000), got)
}

func TestChangeDecimals_RoundTrip(t *testing.T) {
	// Widening then narrowing back by the same amount recovers q exactly,
	// whenever b >= a and the outer result fits in u64.
	q := uint64(1234)
	widened, err := ChangeDecimals(q, 2, 5)
	require.NoError(t, err)
	back, err := ChangeDecimals(widened, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, q, back)
}

func TestChangeDecimals_NarrowTruncates(t *testing.T) {
	got, err := ChangeDecimals(105, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got)
}

func TestChangeDecimals_Overflow(t *testing.T) {
	_, err := ChangeDecimals(math.MaxUint64, 0, 5)
	assert.Error(t, err)
}

func TestCalculateValue_Example1(t *testing.T) {
	got, err := CalculateValue(150, 200, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3000), got)
}

func TestCalculateValue_Example2(t *testing.T) {
	got, err := CalculateValue(50000, 125000, 5, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(62500), got)
}

func TestCalculateValue_BTCUSDT(t *testing.T) {
	// BTC/USDT-shaped market: base_decimals=5, quote_decimals=2
	got, err := CalculateValue(60000, 1000000, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(600000), got)
}

func TestCalculateValue_Overflow(t *testing.T) {
	_, err := CalculateValue(math.MaxUint64, math.MaxUint64, 0, 0)
	assert.Error(t, err)
}
