// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package guard

import (
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
)

// DerivationKind tells which kind of key metadata an input or output
// carries.
type DerivationKind uint8

const (
	// DerivationNone means no key metadata is attached.
	DerivationNone DerivationKind = iota

	// DerivationLegacy means BIP32 derivations (PSBT_IN_BIP32_DERIVATION
	// and PSBT_OUT_BIP32_DERIVATION).
	DerivationLegacy

	// DerivationTaproot means BIP371 taproot derivations.
	DerivationTaproot
)

// String returns the name of the kind.
func (k DerivationKind) String() string {
	switch k {
	case DerivationLegacy:
		return "legacy"
	case DerivationTaproot:
		return "taproot"
	default:
		return "none"
	}
}

// Derivation is the key metadata of an input or output. Only the slice
// matching Kind is populated.
type Derivation struct {
	Kind    DerivationKind
	Legacy  []*psbt.Bip32Derivation
	Taproot []*psbt.TaprootBip32Derivation
}

// Paths returns the derivation paths of the populated kind.
func (d Derivation) Paths() [][]uint32 {
	switch d.Kind {
	case DerivationLegacy:
		paths := make([][]uint32, 0, len(d.Legacy))
		for _, deriv := range d.Legacy {
			paths = append(paths, deriv.Bip32Path)
		}

		return paths

	case DerivationTaproot:
		paths := make([][]uint32, 0, len(d.Taproot))
		for _, deriv := range d.Taproot {
			paths = append(paths, deriv.Bip32Path)
		}

		return paths

	default:
		return nil
	}
}

// isTaprootInput reports whether any BIP371 field is present or the spent
// output is a p2tr output.
func isTaprootInput(in *psbt.PInput) bool {
	switch {
	case len(in.TaprootInternalKey) > 0,
		len(in.TaprootMerkleRoot) > 0,
		len(in.TaprootLeafScript) > 0,
		len(in.TaprootBip32Derivation) > 0:

		return true

	case in.WitnessUtxo != nil:
		return txscript.IsPayToTaproot(in.WitnessUtxo.PkScript)

	default:
		return false
	}
}

// inputDerivation picks the derivation kind of an input. A taproot input
// only counts its taproot derivations, even when the wallet also attached
// plain BIP32 ones for older signers.
func inputDerivation(in *psbt.PInput, taproot bool) Derivation {
	switch {
	case taproot:
		return Derivation{
			Kind:    DerivationTaproot,
			Taproot: in.TaprootBip32Derivation,
		}

	case len(in.Bip32Derivation) > 0:
		return Derivation{
			Kind:   DerivationLegacy,
			Legacy: in.Bip32Derivation,
		}

	default:
		return Derivation{Kind: DerivationNone}
	}
}

// outputDerivation picks the derivation kind of an output. Taproot wins
// when both are present.
func outputDerivation(out *psbt.POutput) Derivation {
	switch {
	case len(out.TaprootBip32Derivation) > 0:
		return Derivation{
			Kind:    DerivationTaproot,
			Taproot: out.TaprootBip32Derivation,
		}

	case len(out.Bip32Derivation) > 0:
		return Derivation{
			Kind:   DerivationLegacy,
			Legacy: out.Bip32Derivation,
		}

	default:
		return Derivation{Kind: DerivationNone}
	}
}
