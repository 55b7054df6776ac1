package btcunit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestVByteRounding checks that a weight that isn't a multiple of four is
// rounded up to the next vbyte.
func TestVByteRounding(t *testing.T) {
	t.Parallel()

	require.Equal(t, uint64(250), NewVByte(250).VBytes())
	require.Equal(t, uint64(251), VByte{wu: 1001}.VBytes())
	require.Equal(t, uint64(1), VByte{wu: 3}.VBytes())
	require.Zero(t, NewVByte(0).VBytes())
}

// TestTxSizeStringer tests the stringer of the tx size type.
func TestTxSizeStringer(t *testing.T) {
	t.Parallel()

	require.Equal(t, "250 vb", NewVByte(250).String())
	require.Equal(t, "1 vb", VByte{wu: 3}.String())
}
