package btcunit

import (
	"math"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

// TestCalcSatPerVByte checks the fee rate of a fee paid for a given size.
func TestCalcSatPerVByte(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		fee      btcutil.Amount
		size     VByte
		expected string
	}{
		{
			name:     "1 sat/vb",
			fee:      141,
			size:     NewVByte(141),
			expected: "1.000 sat/vb",
		},
		{
			name:     "fractional rate",
			fee:      11,
			size:     NewVByte(100),
			expected: "0.110 sat/vb",
		},
		{
			name:     "zero size",
			fee:      1000,
			size:     NewVByte(0),
			expected: "0.000 sat/vb",
		},
		{
			name:     "negative fee",
			fee:      -200,
			size:     NewVByte(100),
			expected: "-2.000 sat/vb",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rate := CalcSatPerVByte(tc.fee, tc.size)
			require.Equal(t, tc.expected, rate.String())
		})
	}
}

// TestFeeRateComparisons tests the comparison methods of SatPerVByte.
func TestFeeRateComparisons(t *testing.T) {
	t.Parallel()

	low := NewSatPerVByte(1)
	high := NewSatPerVByte(2)
	same := CalcSatPerVByte(200, NewVByte(100))

	require.True(t, low.LessThan(high))
	require.False(t, high.LessThan(low))
	require.False(t, high.LessThan(same))
	require.True(t, high.Equal(same))
	require.False(t, low.Equal(high))

	// A rate just under 1 sat/vb is below the 1 sat/vb floor.
	require.True(t, CalcSatPerVByte(99, NewVByte(100)).LessThan(low))

	// The zero value behaves as a zero rate.
	require.True(t, SatPerVByte{}.Equal(NewSatPerVByte(0)))
	require.True(t, SatPerVByte{}.LessThan(low))
}

// TestSafeUint64ToInt64Overflow checks that values beyond int64 are capped.
func TestSafeUint64ToInt64Overflow(t *testing.T) {
	t.Parallel()

	require.Equal(t, int64(math.MaxInt64), safeUint64ToInt64(math.MaxUint64))
	require.Equal(t, int64(42), safeUint64ToInt64(42))
}
