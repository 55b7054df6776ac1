// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package guard

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

const (
	// MainNetCoinType is the BIP44 coin type of bitcoin mainnet.
	MainNetCoinType uint32 = 0

	// TestNetCoinType is the BIP44 coin type shared by all test networks.
	TestNetCoinType uint32 = 1
)

// Network selects the chain a PSBT is expected to belong to.
type Network uint8

const (
	// MainNet is bitcoin mainnet.
	MainNet Network = iota

	// TestNet covers testnet and the other test chains that share coin
	// type 1.
	TestNet
)

var (
	// mainNetAddrPrefixes are the leading characters of every standard
	// mainnet address: p2pkh, p2sh and segwit.
	mainNetAddrPrefixes = []string{"1", "3", "bc1"}

	// testNetAddrPrefixes are the leading characters of every standard
	// testnet address.
	testNetAddrPrefixes = []string{"m", "n", "2", "tb1"}
)

// ParseNetwork maps a user supplied network name to a Network.
func ParseNetwork(name string) (Network, error) {
	switch strings.ToLower(name) {
	case "main", "mainnet", "bitcoin":
		return MainNet, nil

	case "test", "testnet", "testnet3":
		return TestNet, nil

	default:
		return 0, fmt.Errorf("unknown network %q", name)
	}
}

// String returns the name of the network.
func (n Network) String() string {
	if n == MainNet {
		return "main"
	}

	return "test"
}

// CoinType returns the BIP44 coin type every derivation path is expected to
// carry on this network.
func (n Network) CoinType() uint32 {
	if n == MainNet {
		return MainNetCoinType
	}

	return TestNetCoinType
}

// Params returns the chain parameters used to encode addresses.
func (n Network) Params() *chaincfg.Params {
	if n == MainNet {
		return &chaincfg.MainNetParams
	}

	return &chaincfg.TestNet3Params
}

// MatchesAddress reports whether the encoded address starts with one of the
// prefixes of this network.
func (n Network) MatchesAddress(addr string) bool {
	prefixes := testNetAddrPrefixes
	if n == MainNet {
		prefixes = mainNetAddrPrefixes
	}

	for _, prefix := range prefixes {
		if strings.HasPrefix(addr, prefix) {
			return true
		}
	}

	return false
}
