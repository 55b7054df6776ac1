// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package guard

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"
)

// Input is the read-only view of a PSBT input.
type Input struct {
	// PrevOutPoint is the output being spent.
	PrevOutPoint wire.OutPoint

	// PrevTx is the full previous transaction, if the PSBT carries it.
	PrevTx *wire.MsgTx

	// WitnessUtxo is the spent output as declared for segwit signing, if
	// the PSBT carries it.
	WitnessUtxo *wire.TxOut

	// RedeemScript and WitnessScript are copied from the PSBT input.
	RedeemScript  []byte
	WitnessScript []byte

	// Taproot is set when the input is spent through a taproot output.
	Taproot bool

	// Derivation is the key metadata of the input.
	Derivation Derivation
}

// Output is the read-only view of a PSBT output.
type Output struct {
	// Value is the amount paid to the output.
	Value btcutil.Amount

	// PkScript is the raw output script.
	PkScript []byte

	// Script is the classification of PkScript on the transaction's
	// network.
	Script ScriptClass

	// Derivation is the key metadata of the output. Its presence marks
	// the output as change.
	Derivation Derivation
}

// IsChange reports whether the output claims to pay back to the wallet.
func (o *Output) IsChange() bool {
	return o.Derivation.Kind != DerivationNone
}

// TxOut returns the output in wire format.
func (o *Output) TxOut() *wire.TxOut {
	return wire.NewTxOut(int64(o.Value), o.PkScript)
}

// Transaction is an immutable snapshot of a PSBT that is about to be signed,
// decoded for a single network. It is built once per signing request and
// is safe for concurrent readers.
type Transaction struct {
	// Net is the network addresses are decoded for and derivations are
	// checked against.
	Net Network

	// Inputs are index aligned with the unsigned transaction inputs.
	Inputs []Input

	// Outputs are index aligned with the unsigned transaction outputs.
	Outputs []Output
}

// DecodeTransaction reads a PSBT, base64 encoded if b64 is set, and turns it
// into a Transaction for net.
func DecodeTransaction(r io.Reader, b64 bool,
	net Network) (*Transaction, error) {

	packet, err := psbt.NewFromRawBytes(r, b64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTransaction, err)
	}

	return NewTransaction(packet, net)
}

// NewTransaction builds a Transaction from an already decoded packet. The
// packet is not modified and may be discarded afterwards, though the
// Transaction shares its scripts and derivations.
func NewTransaction(packet *psbt.Packet, net Network) (*Transaction, error) {
	if packet == nil || packet.UnsignedTx == nil {
		return nil, fmt.Errorf("%w: missing unsigned tx",
			ErrMalformedTransaction)
	}

	tx := packet.UnsignedTx
	switch {
	case len(tx.TxIn) == 0:
		return nil, fmt.Errorf("%w: no inputs", ErrMalformedTransaction)

	case len(tx.TxOut) == 0:
		return nil, fmt.Errorf("%w: no outputs", ErrMalformedTransaction)

	case len(packet.Inputs) != len(tx.TxIn):
		return nil, fmt.Errorf("%w: %d input records for %d inputs",
			ErrMalformedTransaction, len(packet.Inputs),
			len(tx.TxIn))

	case len(packet.Outputs) != len(tx.TxOut):
		return nil, fmt.Errorf("%w: %d output records for %d outputs",
			ErrMalformedTransaction, len(packet.Outputs),
			len(tx.TxOut))
	}

	params := net.Params()

	inputs := make([]Input, len(tx.TxIn))
	for i, txIn := range tx.TxIn {
		pIn := &packet.Inputs[i]
		taproot := isTaprootInput(pIn)

		inputs[i] = Input{
			PrevOutPoint:  txIn.PreviousOutPoint,
			PrevTx:        pIn.NonWitnessUtxo,
			WitnessUtxo:   pIn.WitnessUtxo,
			RedeemScript:  pIn.RedeemScript,
			WitnessScript: pIn.WitnessScript,
			Taproot:       taproot,
			Derivation:    inputDerivation(pIn, taproot),
		}
	}

	outputs := make([]Output, len(tx.TxOut))
	for i, txOut := range tx.TxOut {
		outputs[i] = Output{
			Value:      btcutil.Amount(txOut.Value),
			PkScript:   txOut.PkScript,
			Script:     ClassifyScript(txOut.PkScript, params),
			Derivation: outputDerivation(&packet.Outputs[i]),
		}
	}

	log.Tracef("Decoded psbt with %d inputs and %d outputs for %v",
		len(inputs), len(outputs), net)

	return &Transaction{
		Net:     net,
		Inputs:  inputs,
		Outputs: outputs,
	}, nil
}
