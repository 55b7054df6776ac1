// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package guard

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txrules"
	"github.com/btcsuite/btcwallet/wallet/txsizes"
	"github.com/btcsuite/psbtguard/pkg/btcunit"
)

// Summary derives the economic facts of a Transaction: what it spends, what
// it pays, to whom and at what fee. It never modifies the transaction, so a
// confirmation dialog and the validator can share one instance.
type Summary struct {
	tx *Transaction
}

// NewSummary returns the summary of tx.
func NewSummary(tx *Transaction) *Summary {
	return &Summary{tx: tx}
}

// spentOutput resolves the output spent by input idx. The full previous
// transaction is authoritative and must hash to the outpoint, the witness
// UTXO is only used when it is absent. The spent value must be within the
// money supply.
func (s *Summary) spentOutput(idx int) (*wire.TxOut, error) {
	in := &s.tx.Inputs[idx]
	prevOut := in.PrevOutPoint

	var txOut *wire.TxOut
	switch {
	case in.PrevTx != nil:
		prevHash := in.PrevTx.TxHash()
		if !prevHash.IsEqual(&prevOut.Hash) {
			return nil, inputError(MissingInputData, idx,
				"previous tx %v does not match outpoint %v",
				prevHash, prevOut)
		}

		if int(prevOut.Index) >= len(in.PrevTx.TxOut) {
			return nil, inputError(MissingInputData, idx,
				"outpoint %v out of range, previous tx has "+
					"%d outputs", prevOut,
				len(in.PrevTx.TxOut))
		}

		txOut = in.PrevTx.TxOut[prevOut.Index]

	case in.WitnessUtxo != nil:
		txOut = in.WitnessUtxo

	default:
		return nil, inputError(MissingInputData, idx,
			"neither previous tx nor witness utxo present")
	}

	value := btcutil.Amount(txOut.Value)
	if value < 0 || value > btcutil.MaxSatoshi {
		return nil, inputError(MissingInputData, idx,
			"spent value %d out of range", txOut.Value)
	}

	return txOut, nil
}

// InputAmount returns the total value spent by the transaction. It fails
// with MissingInputData rather than counting an unresolvable input as zero.
func (s *Summary) InputAmount() (btcutil.Amount, error) {
	var total btcutil.Amount
	for idx := range s.tx.Inputs {
		txOut, err := s.spentOutput(idx)
		if err != nil {
			return 0, err
		}

		total += btcutil.Amount(txOut.Value)
	}

	return total, nil
}

// OutputAmount returns the total value of all outputs.
func (s *Summary) OutputAmount() btcutil.Amount {
	var total btcutil.Amount
	for _, out := range s.tx.Outputs {
		total += out.Value
	}

	return total
}

// Fee returns the input amount minus the output amount. A negative fee
// means the transaction is malformed.
func (s *Summary) Fee() (btcutil.Amount, error) {
	inputAmount, err := s.InputAmount()
	if err != nil {
		return 0, err
	}

	return inputAmount - s.OutputAmount(), nil
}

// ChangeAddresses returns, in output order, the addresses of the outputs
// that carry a derivation path. Outputs without an address are skipped.
func (s *Summary) ChangeAddresses() []string {
	var addrs []string
	for i := range s.tx.Outputs {
		out := &s.tx.Outputs[i]
		if !out.IsChange() {
			continue
		}

		if addr := out.Script.EncodedAddress(); addr != "" {
			addrs = append(addrs, addr)
		}
	}

	return addrs
}

// changeSet returns ChangeAddresses as a set.
func (s *Summary) changeSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, addr := range s.ChangeAddresses() {
		set[addr] = struct{}{}
	}

	return set
}

// SendAmount returns the value of every output not paying to one of the
// change addresses, i.e. what leaves the account.
func (s *Summary) SendAmount() btcutil.Amount {
	change := s.changeSet()

	var total btcutil.Amount
	for _, out := range s.tx.Outputs {
		if _, ok := change[out.Script.EncodedAddress()]; ok {
			continue
		}

		total += out.Value
	}

	return total
}

// FromAddresses returns the address of every spent output, in input order.
func (s *Summary) FromAddresses() ([]string, error) {
	params := s.tx.Net.Params()

	addrs := make([]string, len(s.tx.Inputs))
	for idx := range s.tx.Inputs {
		txOut, err := s.spentOutput(idx)
		if err != nil {
			return nil, err
		}

		addrs[idx] = ClassifyScript(txOut.PkScript, params).String()
	}

	return addrs, nil
}

// ToAddresses returns how every non-change output is rendered to the user:
// its address, "OP_RETURN 0x<hex>" or "Unknown".
func (s *Summary) ToAddresses() []string {
	change := s.changeSet()

	var addrs []string
	for _, out := range s.tx.Outputs {
		rendered := out.Script.String()
		if _, ok := change[rendered]; ok {
			continue
		}

		addrs = append(addrs, rendered)
	}

	return addrs
}

// EstimatedVSize estimates the size of the signed transaction. Inputs whose
// spent output can't be resolved, or whose type isn't known, are counted as
// p2pkh, the largest single-key input.
func (s *Summary) EstimatedVSize() btcunit.VByte {
	var p2pkh, p2tr, p2wpkh, nested int
	for idx := range s.tx.Inputs {
		txOut, err := s.spentOutput(idx)
		if err != nil {
			p2pkh++
			continue
		}

		pkScript := txOut.PkScript
		switch {
		case txscript.IsPayToTaproot(pkScript):
			p2tr++

		case txscript.IsPayToWitnessPubKeyHash(pkScript):
			p2wpkh++

		case txscript.IsPayToScriptHash(pkScript) &&
			txscript.IsPayToWitnessPubKeyHash(
				s.tx.Inputs[idx].RedeemScript,
			):

			nested++

		default:
			p2pkh++
		}
	}

	txOuts := make([]*wire.TxOut, len(s.tx.Outputs))
	for i := range s.tx.Outputs {
		txOuts[i] = s.tx.Outputs[i].TxOut()
	}

	vsize := txsizes.EstimateVirtualSize(
		p2pkh, p2tr, p2wpkh, nested, txOuts, 0,
	)

	return btcunit.NewVByte(uint64(vsize))
}

// FeeRate returns the fee divided by the estimated size.
func (s *Summary) FeeRate() (btcunit.SatPerVByte, error) {
	fee, err := s.Fee()
	if err != nil {
		return btcunit.SatPerVByte{}, err
	}

	return btcunit.CalcSatPerVByte(fee, s.EstimatedVSize()), nil
}

// minRelayFeeRate is the default relay fee floor expressed per vbyte.
var minRelayFeeRate = btcunit.NewSatPerVByte(
	txrules.DefaultRelayFeePerKb / 1000,
)

// BelowRelayFloor reports whether the fee rate is under the default minimum
// relay fee, in which case nodes won't relay the transaction. It is
// informational only.
func (s *Summary) BelowRelayFloor() (bool, error) {
	feeRate, err := s.FeeRate()
	if err != nil {
		return false, err
	}

	return feeRate.LessThan(minRelayFeeRate), nil
}

// DustOutputs returns the indices of the outputs that default relay policy
// considers dust. It is informational only.
func (s *Summary) DustOutputs() []int {
	var dust []int
	for i := range s.tx.Outputs {
		txOut := s.tx.Outputs[i].TxOut()
		if txrules.IsDustOutput(txOut, txrules.DefaultRelayFeePerKb) {
			dust = append(dust, i)
		}
	}

	return dust
}
