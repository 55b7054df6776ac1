// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package guard

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

// TestParseNetwork checks the accepted network names.
func TestParseNetwork(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"main", "mainnet", "Bitcoin"} {
		net, err := ParseNetwork(name)
		require.NoError(t, err, name)
		require.Equal(t, MainNet, net, name)
	}

	for _, name := range []string{"test", "TESTNET", "testnet3"} {
		net, err := ParseNetwork(name)
		require.NoError(t, err, name)
		require.Equal(t, TestNet, net, name)
	}

	_, err := ParseNetwork("regtest")
	require.Error(t, err)
}

// TestNetworkParams checks the per network constants.
func TestNetworkParams(t *testing.T) {
	t.Parallel()

	require.Equal(t, "main", MainNet.String())
	require.Equal(t, "test", TestNet.String())

	require.Equal(t, MainNetCoinType, MainNet.CoinType())
	require.Equal(t, TestNetCoinType, TestNet.CoinType())

	require.Equal(t, &chaincfg.MainNetParams, MainNet.Params())
	require.Equal(t, &chaincfg.TestNet3Params, TestNet.Params())
}

// TestMatchesAddress checks the address prefix rules of both networks.
func TestMatchesAddress(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		addr    string
		mainnet bool
		testnet bool
	}{
		{addr: "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2", mainnet: true},
		{addr: "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy", mainnet: true},
		{
			addr:    "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
			mainnet: true,
		},
		{addr: "mipcBbFg9gMiCh81Kj8tqqdgoZub1ZJRfn", testnet: true},
		{addr: "n3GNqMveyvaPvUbH469vDRadqpJMPc84JA", testnet: true},
		{addr: "2MzQwSSnBHWHqSAqtTVQ6v47XtaisrJa1Vc", testnet: true},
		{
			addr:    "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx",
			testnet: true,
		},
		{addr: "bcrt1qw508d6qejxtdg4y5r3zarvary0c5xw7kygt080"},
		{addr: ""},
		{addr: "Unknown"},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.mainnet, MainNet.MatchesAddress(tc.addr),
			"mainnet %q", tc.addr)
		require.Equal(t, tc.testnet, TestNet.MatchesAddress(tc.addr),
			"testnet %q", tc.addr)
	}
}
