// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package btcunit

import (
	"fmt"

	"github.com/btcsuite/btcd/blockchain"
)

// VByte is the size of a transaction in virtual bytes, a quarter of its
// weight rounded up. It is stored in weight units, computed as
// `base size * 3 + total size` per BIP141, so that fee rates stay exact.
type VByte struct {
	wu uint64
}

// NewVByte creates a new VByte from a uint64 value.
func NewVByte(val uint64) VByte {
	return VByte{wu: val * blockchain.WitnessScaleFactor}
}

// VBytes returns the virtual size, rounded up to a whole vbyte.
func (v VByte) VBytes() uint64 {
	return (v.wu + blockchain.WitnessScaleFactor - 1) /
		blockchain.WitnessScaleFactor
}

// String returns the string representation of the virtual byte.
func (v VByte) String() string {
	return fmt.Sprintf("%d vb", v.VBytes())
}
