// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package guard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// keyPathDepth is the number of elements of a BIP44 style path.
const keyPathDepth = 5

// ErrInvalidKeyPath is returned when a derivation path isn't a
// purpose/coin/account/change/index path.
var ErrInvalidKeyPath = errors.New("invalid key path")

// KeyPath is a BIP44 style HD path m/purpose'/coin'/account'/change/index.
// Every field holds the raw child number, hardened bit included.
type KeyPath struct {
	Purpose  uint32
	CoinType uint32
	Account  uint32
	Change   uint32
	Index    uint32
}

// ParseKeyPath turns the path of a PSBT derivation into a KeyPath.
func ParseKeyPath(path []uint32) (KeyPath, error) {
	if len(path) != keyPathDepth {
		return KeyPath{}, fmt.Errorf("%w: expected %d elements, got %d",
			ErrInvalidKeyPath, keyPathDepth, len(path))
	}

	return KeyPath{
		Purpose:  path[0],
		CoinType: path[1],
		Account:  path[2],
		Change:   path[3],
		Index:    path[4],
	}, nil
}

// Coin returns the coin type with the hardened bit stripped.
func (k KeyPath) Coin() uint32 {
	return k.CoinType &^ hdkeychain.HardenedKeyStart
}

// Elements returns the path as it is stored in a PSBT.
func (k KeyPath) Elements() []uint32 {
	return []uint32{k.Purpose, k.CoinType, k.Account, k.Change, k.Index}
}

// AccountPath returns the first three elements, which identify the account.
func (k KeyPath) AccountPath() [3]uint32 {
	return [3]uint32{k.Purpose, k.CoinType, k.Account}
}

// String returns the path in the m/84'/0'/0'/0/1 notation.
func (k KeyPath) String() string {
	return FormatPath(k.Elements())
}

// FormatPath renders any derivation path in the m/84'/0'/0'/0/1 notation.
func FormatPath(path []uint32) string {
	var b strings.Builder
	b.WriteString("m")

	for _, elem := range path {
		if elem >= hdkeychain.HardenedKeyStart {
			fmt.Fprintf(&b, "/%d'", elem-hdkeychain.HardenedKeyStart)
			continue
		}

		fmt.Fprintf(&b, "/%d", elem)
	}

	return b.String()
}

// coinTypeMatches reports whether path is a well formed key path whose coin
// type is the one of net.
func coinTypeMatches(path []uint32, net Network) bool {
	keyPath, err := ParseKeyPath(path)
	if err != nil {
		log.Debugf("Rejecting derivation path %v: %v",
			FormatPath(path), err)

		return false
	}

	return keyPath.Coin() == net.CoinType()
}
