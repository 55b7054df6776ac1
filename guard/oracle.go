// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package guard

import "github.com/btcsuite/btcd/btcutil/psbt"

// AccountOwnershipOracle answers whether a derivation resolves to a key of
// the currently active account. Implementations are queried only, they must
// not change wallet state as a side effect.
type AccountOwnershipOracle interface {
	// OwnsLegacyDerivation reports whether the master fingerprint, path
	// and compressed public key of a BIP32 derivation belong to the
	// active account.
	OwnsLegacyDerivation(derivation *psbt.Bip32Derivation) bool

	// OwnsTaprootDerivation reports whether the master fingerprint, path
	// and x-only public key of a BIP371 derivation belong to the active
	// account.
	OwnsTaprootDerivation(derivation *psbt.TaprootBip32Derivation) bool
}

// ownsAny reports whether at least one derivation of d is owned. A
// Derivation of kind DerivationNone, or one with no entries, is never
// owned.
func ownsAny(oracle AccountOwnershipOracle, d Derivation) bool {
	switch d.Kind {
	case DerivationLegacy:
		for _, deriv := range d.Legacy {
			if oracle.OwnsLegacyDerivation(deriv) {
				return true
			}
		}

	case DerivationTaproot:
		for _, deriv := range d.Taproot {
			if oracle.OwnsTaprootDerivation(deriv) {
				return true
			}
		}
	}

	return false
}
