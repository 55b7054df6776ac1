// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package guard

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/psbtguard/internal/psbttest"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	// fundingValue is the value of the output spent by spendFixture.
	fundingValue = 100_000

	// paymentValue is what spendFixture pays to a third party.
	paymentValue = 60_000

	// changeValue is what spendFixture pays back to the wallet.
	changeValue = 39_000

	// fixtureFee is the fee of spendFixture.
	fixtureFee = fundingValue - paymentValue - changeValue
)

var (
	// ourKey controls the spent output.
	ourKey = psbttest.PrivKey(1).PubKey()

	// theirKey receives the payment.
	theirKey = psbttest.PrivKey(2).PubKey()

	// changeKey receives the change.
	changeKey = psbttest.PrivKey(3).PubKey()
)

// mockOracle is a mock implementation of AccountOwnershipOracle.
type mockOracle struct {
	mock.Mock
}

// A compile-time assertion to ensure mockOracle implements the interface.
var _ AccountOwnershipOracle = (*mockOracle)(nil)

// OwnsLegacyDerivation implements AccountOwnershipOracle.
func (m *mockOracle) OwnsLegacyDerivation(d *psbt.Bip32Derivation) bool {
	args := m.Called(d)
	if f, ok := args.Get(0).(func(*psbt.Bip32Derivation) bool); ok {
		return f(d)
	}

	return args.Bool(0)
}

// OwnsTaprootDerivation implements AccountOwnershipOracle.
func (m *mockOracle) OwnsTaprootDerivation(
	d *psbt.TaprootBip32Derivation) bool {

	args := m.Called(d)
	if f, ok := args.Get(0).(func(*psbt.TaprootBip32Derivation) bool); ok {
		return f(d)
	}

	return args.Bool(0)
}

// oracleOwning returns a mock oracle that owns exactly the given keys, for
// both derivation kinds.
func oracleOwning(keys ...*btcec.PublicKey) *mockOracle {
	owned := func(serialized []byte, serialize func(
		*btcec.PublicKey) []byte) bool {

		for _, key := range keys {
			if bytes.Equal(serialize(key), serialized) {
				return true
			}
		}

		return false
	}

	m := &mockOracle{}
	m.On("OwnsLegacyDerivation", mock.Anything).Return(
		func(d *psbt.Bip32Derivation) bool {
			return owned(d.PubKey, (*btcec.PublicKey).SerializeCompressed)
		},
	).Maybe()
	m.On("OwnsTaprootDerivation", mock.Anything).Return(
		func(d *psbt.TaprootBip32Derivation) bool {
			return owned(d.XOnlyPubKey, schnorr.SerializePubKey)
		},
	).Maybe()

	return m
}

// spendFixture returns a p2wpkh spend of fundingValue that pays
// paymentValue to theirKey and changeValue back to changeKey, with every
// derivation using the given coin type.
func spendFixture(t *testing.T, coin uint32) ([]psbttest.Input,
	[]psbttest.Output) {

	t.Helper()

	ins := []psbttest.Input{{
		Value:       fundingValue,
		PkScript:    psbttest.P2WPKH(t, ourKey),
		WitnessUtxo: true,
		Bip32: []*psbt.Bip32Derivation{psbttest.Bip32(
			ourKey, psbttest.Fingerprint,
			psbttest.Path(84, coin, 0, 0, 0)...,
		)},
	}}

	outs := []psbttest.Output{
		{
			Value:    paymentValue,
			PkScript: psbttest.P2WPKH(t, theirKey),
		},
		{
			Value:    changeValue,
			PkScript: psbttest.P2WPKH(t, changeKey),
			Bip32: []*psbt.Bip32Derivation{psbttest.Bip32(
				changeKey, psbttest.Fingerprint,
				psbttest.Path(84, coin, 0, 1, 0)...,
			)},
		},
	}

	return ins, outs
}

// newTestTx builds a Transaction for net from the fixture description.
func newTestTx(t *testing.T, net Network, ins []psbttest.Input,
	outs []psbttest.Output) *Transaction {

	t.Helper()

	tx, err := NewTransaction(psbttest.Packet(t, ins, outs), net)
	require.NoError(t, err)

	return tx
}

// requireKind asserts that err is a ValidationError of the given kind.
func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()

	require.Error(t, err)

	got, ok := KindOf(err)
	require.True(t, ok, "not a validation error: %v", err)
	require.Equal(t, kind, got, "unexpected error: %v", err)
}
