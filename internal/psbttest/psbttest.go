// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package psbttest builds PSBT fixtures for tests.
package psbttest

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

const (
	// Hardened is the offset of hardened child numbers.
	Hardened = hdkeychain.HardenedKeyStart

	// Fingerprint is the master key fingerprint used by fixtures that
	// don't derive real keys.
	Fingerprint uint32 = 0xdeadbeef
)

// PrivKey returns a deterministic private key for seed.
func PrivKey(seed byte) *btcec.PrivateKey {
	key, _ := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{seed}, 32))
	return key
}

// P2WPKH returns the p2wpkh script paying to pub.
func P2WPKH(t *testing.T, pub *btcec.PublicKey) []byte {
	t.Helper()

	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		btcutil.Hash160(pub.SerializeCompressed()),
		&chaincfg.MainNetParams,
	)
	require.NoError(t, err)

	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	return pkScript
}

// P2PKH returns the p2pkh script paying to pub.
func P2PKH(t *testing.T, pub *btcec.PublicKey) []byte {
	t.Helper()

	addr, err := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(pub.SerializeCompressed()),
		&chaincfg.MainNetParams,
	)
	require.NoError(t, err)

	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	return pkScript
}

// P2TR returns the p2tr script whose output key is pub.
func P2TR(t *testing.T, pub *btcec.PublicKey) []byte {
	t.Helper()

	pkScript, err := txscript.PayToTaprootScript(pub)
	require.NoError(t, err)

	return pkScript
}

// OpReturn returns OP_RETURN followed by a single push of data.
func OpReturn(t *testing.T, data []byte) []byte {
	t.Helper()

	pkScript, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData(data).
		Script()
	require.NoError(t, err)

	return pkScript
}

// Bip32 returns a legacy derivation of pub at path.
func Bip32(pub *btcec.PublicKey, fingerprint uint32,
	path ...uint32) *psbt.Bip32Derivation {

	return &psbt.Bip32Derivation{
		PubKey:               pub.SerializeCompressed(),
		MasterKeyFingerprint: fingerprint,
		Bip32Path:            path,
	}
}

// Taproot returns a taproot derivation of pub at path.
func Taproot(pub *btcec.PublicKey, fingerprint uint32,
	path ...uint32) *psbt.TaprootBip32Derivation {

	return &psbt.TaprootBip32Derivation{
		XOnlyPubKey:          schnorr.SerializePubKey(pub),
		MasterKeyFingerprint: fingerprint,
		Bip32Path:            path,
	}
}

// Path returns m/purpose'/coin'/account'/change/index.
func Path(purpose, coin, account, change, index uint32) []uint32 {
	return []uint32{
		purpose + Hardened, coin + Hardened, account + Hardened,
		change, index,
	}
}

// Input describes one input of a fixture packet.
type Input struct {
	// Value and PkScript describe the spent output.
	Value    int64
	PkScript []byte

	// NoPrevTx leaves out the full previous transaction.
	NoPrevTx bool

	// WitnessUtxo adds the spent output as witness utxo.
	WitnessUtxo bool

	// WitnessValue, if non-zero, is declared in the witness utxo instead
	// of Value.
	WitnessValue int64

	// WitnessPkScript, if non-nil, is declared in the witness utxo instead
	// of PkScript.
	WitnessPkScript []byte

	RedeemScript []byte
	Bip32        []*psbt.Bip32Derivation
	Taproot      []*psbt.TaprootBip32Derivation
}

// Output describes one output of a fixture packet.
type Output struct {
	Value    int64
	PkScript []byte
	Bip32    []*psbt.Bip32Derivation
	Taproot  []*psbt.TaprootBip32Derivation
}

// PrevTx returns a transaction whose output vout pays value to pkScript.
// nonce makes the transaction hash unique.
func PrevTx(nonce uint32, vout uint32, value int64,
	pkScript []byte) *wire.MsgTx {

	tx := wire.NewMsgTx(2)

	var hash chainhash.Hash
	binary.LittleEndian.PutUint32(hash[:], nonce)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&hash, 0), nil, nil))

	for i := uint32(0); i < vout; i++ {
		tx.AddTxOut(wire.NewTxOut(1000, pkScript))
	}
	tx.AddTxOut(wire.NewTxOut(value, pkScript))

	return tx
}

// Packet builds a PSBT spending ins and paying outs. Every input spends
// output 1 of its own previous transaction.
func Packet(t *testing.T, ins []Input, outs []Output) *psbt.Packet {
	t.Helper()

	const vout = 1

	prevTxs := make([]*wire.MsgTx, len(ins))
	outPoints := make([]*wire.OutPoint, len(ins))
	for i, in := range ins {
		prevTxs[i] = PrevTx(uint32(i+1), vout, in.Value, in.PkScript)

		hash := prevTxs[i].TxHash()
		outPoints[i] = wire.NewOutPoint(&hash, vout)
	}

	txOuts := make([]*wire.TxOut, len(outs))
	for i, out := range outs {
		txOuts[i] = wire.NewTxOut(out.Value, out.PkScript)
	}

	sequences := make([]uint32, len(ins))
	for i := range sequences {
		sequences[i] = wire.MaxTxInSequenceNum
	}

	packet, err := psbt.New(outPoints, txOuts, 2, 0, sequences)
	require.NoError(t, err)

	for i, in := range ins {
		pIn := &packet.Inputs[i]

		if !in.NoPrevTx {
			pIn.NonWitnessUtxo = prevTxs[i]
		}

		if in.WitnessUtxo {
			value := in.Value
			if in.WitnessValue != 0 {
				value = in.WitnessValue
			}

			pkScript := in.PkScript
			if in.WitnessPkScript != nil {
				pkScript = in.WitnessPkScript
			}

			pIn.WitnessUtxo = wire.NewTxOut(value, pkScript)
		}

		pIn.RedeemScript = in.RedeemScript
		pIn.Bip32Derivation = in.Bip32
		pIn.TaprootBip32Derivation = in.Taproot
	}

	for i, out := range outs {
		packet.Outputs[i].Bip32Derivation = out.Bip32
		packet.Outputs[i].TaprootBip32Derivation = out.Taproot
	}

	return packet
}
