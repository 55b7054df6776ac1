// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package btcunit provides the size and fee rate units used to present a
// transaction's fee to the user.
package btcunit

import (
	"log/slog"
	"math"
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
)

const (
	// kilo is a generic multiplier for kilo units.
	kilo = 1000

	// floatStringPrecision is the number of decimal places to use when
	// converting a fee rate to a string, so that rates below 1 sat/vb
	// aren't shown as zero.
	floatStringPrecision = 3
)

// SatPerVByte is a fee rate in sat/vbyte. It is stored as an exact rational
// number of satoshis per kilo-weight-unit so that it can be compared and
// applied without rounding. A malformed transaction may yield a negative
// rate, which is kept as is.
type SatPerVByte struct {
	satsPerKWU *big.Rat
}

// NewSatPerVByte creates a new fee rate in sat/vb.
func NewSatPerVByte(rate btcutil.Amount) SatPerVByte {
	return CalcSatPerVByte(rate, NewVByte(1))
}

// CalcSatPerVByte calculates the fee rate of paying fee for a transaction of
// size vb. A zero size yields a zero rate.
func CalcSatPerVByte(fee btcutil.Amount, vb VByte) SatPerVByte {
	if vb.wu == 0 {
		return SatPerVByte{satsPerKWU: big.NewRat(0, 1)}
	}

	// The canonical sat/kwu rate is (fee * 1000) / size_in_wu.
	return SatPerVByte{satsPerKWU: big.NewRat(
		int64(fee*kilo), safeUint64ToInt64(vb.wu),
	)}
}

// rat returns the canonical rate, treating the zero value as zero.
func (s SatPerVByte) rat() *big.Rat {
	if s.satsPerKWU == nil {
		return big.NewRat(0, 1)
	}

	return s.satsPerKWU
}

// Equal returns true if the fee rate is equal to the other fee rate.
func (s SatPerVByte) Equal(other SatPerVByte) bool {
	return s.rat().Cmp(other.rat()) == 0
}

// LessThan returns true if the fee rate is less than the other fee rate.
func (s SatPerVByte) LessThan(other SatPerVByte) bool {
	return s.rat().Cmp(other.rat()) < 0
}

// String returns a human-readable string of the fee rate.
func (s SatPerVByte) String() string {
	// The WitnessScaleFactor converts weight units to vbytes and kilo
	// undoes the kilo-weight-unit scaling.
	perVByte := new(big.Rat).Mul(
		s.rat(), big.NewRat(blockchain.WitnessScaleFactor, kilo),
	)

	return perVByte.FloatString(floatStringPrecision) + " sat/vb"
}

// safeUint64ToInt64 converts a uint64 to an int64, capping at
// math.MaxInt64.
func safeUint64ToInt64(u uint64) int64 {
	if u > math.MaxInt64 {
		slog.Warn("Capping uint64 value to math.MaxInt64",
			slog.Uint64("old", u), slog.Int64("new", math.MaxInt64))

		return math.MaxInt64
	}

	return int64(u)
}
