// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package guard

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// DefaultFeeThreshold is the absolute fee, in satoshis, at or above which a
// transaction is refused.
const DefaultFeeThreshold btcutil.Amount = 10_000_000

// CheckEnv is everything a check may look at. Checks only read from it.
type CheckEnv struct {
	Tx           *Transaction
	Summary      *Summary
	Oracle       AccountOwnershipOracle
	FeeThreshold btcutil.Amount
}

// CheckFunc is a single validation rule. It returns fn.Ok on success and a
// *ValidationError otherwise.
type CheckFunc func(env *CheckEnv) fn.Result[fn.Unit]

// Check is a named validation rule.
type Check struct {
	Name string
	Run  CheckFunc
}

// Checks returns the validation rules in evaluation order. Later rules may
// assume that earlier ones passed.
func Checks() []Check {
	return []Check{
		{Name: "inputs-have-prev-tx", Run: CheckInputsHavePrevTx},
		{Name: "inputs-match-network", Run: CheckInputsMatchNetwork},
		{Name: "outputs-match-network", Run: CheckOutputsMatchNetwork},
		{Name: "inputs-spendable", Run: CheckInputsSpendable},
		{Name: "change-owned", Run: CheckChangeOwned},
		{Name: "fee-under-threshold", Run: CheckFeeUnderThreshold},
		{Name: "witness-amounts-match", Run: CheckWitnessAmounts},
	}
}

// pass is the result of a check that didn't find anything wrong.
func pass() fn.Result[fn.Unit] {
	return fn.Ok(fn.Unit{})
}

// fail wraps a validation error into a failed check result.
func fail(err *ValidationError) fn.Result[fn.Unit] {
	return fn.Err[fn.Unit](err)
}

// CheckInputsHavePrevTx requires every input to carry its full previous
// transaction. Without it the spent amounts can't be verified.
func CheckInputsHavePrevTx(env *CheckEnv) fn.Result[fn.Unit] {
	for idx, in := range env.Tx.Inputs {
		if in.PrevTx == nil {
			return fail(inputError(InsufficientInputData, idx,
				"missing previous tx for %v", in.PrevOutPoint))
		}
	}

	return pass()
}

// CheckInputsMatchNetwork requires every derivation of every input to use
// the coin type of the active network.
func CheckInputsMatchNetwork(env *CheckEnv) fn.Result[fn.Unit] {
	net := env.Tx.Net
	for idx, in := range env.Tx.Inputs {
		for _, path := range in.Derivation.Paths() {
			if !coinTypeMatches(path, net) {
				return fail(inputError(InputNetworkMismatch, idx,
					"%s derivation %s is not on %v",
					in.Derivation.Kind, FormatPath(path),
					net))
			}
		}
	}

	return pass()
}

// CheckOutputsMatchNetwork requires change outputs to use the coin type of
// the active network and every other output to pay an address of that
// network. A single OP_RETURN push is allowed if it stays within
// MaxOpReturnPayload.
func CheckOutputsMatchNetwork(env *CheckEnv) fn.Result[fn.Unit] {
	net := env.Tx.Net
	for idx := range env.Tx.Outputs {
		out := &env.Tx.Outputs[idx]

		if out.IsChange() {
			for _, path := range out.Derivation.Paths() {
				if coinTypeMatches(path, net) {
					continue
				}

				return fail(outputError(OutputNetworkMismatch,
					idx, "%s derivation %s is not on %v",
					out.Derivation.Kind, FormatPath(path),
					net))
			}

			continue
		}

		switch out.Script.Kind {
		case ScriptOpReturn:
			if len(out.Script.Data) > MaxOpReturnPayload {
				return fail(outputError(InvalidOpReturn, idx,
					"%d bytes pushed, at most %d allowed",
					len(out.Script.Data),
					MaxOpReturnPayload))
			}

		case ScriptAddress:
			addr := out.Script.EncodedAddress()
			if !net.MatchesAddress(addr) {
				return fail(outputError(OutputNetworkMismatch,
					idx, "address %s is not on %v", addr,
					net))
			}

		default:
			return fail(outputError(OutputNetworkMismatch, idx,
				"non-standard script %x", out.PkScript))
		}
	}

	return pass()
}

// CheckInputsSpendable requires every input to resolve to a key of the
// active account. Inputs without derivations can't be proven ours.
func CheckInputsSpendable(env *CheckEnv) fn.Result[fn.Unit] {
	for idx, in := range env.Tx.Inputs {
		if !ownsAny(env.Oracle, in.Derivation) {
			return fail(inputError(InputNotSpendable, idx,
				"no %s derivation owned by the account",
				in.Derivation.Kind))
		}
	}

	return pass()
}

// CheckChangeOwned requires every output carrying a derivation to actually
// resolve to a key of the active account. An output that only claims to be
// change would otherwise hide part of the send amount.
func CheckChangeOwned(env *CheckEnv) fn.Result[fn.Unit] {
	for idx := range env.Tx.Outputs {
		out := &env.Tx.Outputs[idx]
		if !out.IsChange() {
			continue
		}

		if !ownsAny(env.Oracle, out.Derivation) {
			return fail(outputError(ChangeAddressInvalid, idx,
				"%s derivation not owned by the account",
				out.Derivation.Kind))
		}
	}

	return pass()
}

// CheckFeeUnderThreshold requires the fee to be non-negative and strictly
// below the threshold.
func CheckFeeUnderThreshold(env *CheckEnv) fn.Result[fn.Unit] {
	fee, err := env.Summary.Fee()
	if err != nil {
		return fn.Err[fn.Unit](err)
	}

	switch {
	case fee < 0:
		return fail(txError(FeeExceedsThreshold,
			"negative fee %v, outputs exceed inputs", fee))

	case fee >= env.FeeThreshold:
		return fail(txError(FeeExceedsThreshold,
			"fee %v, threshold %v", fee, env.FeeThreshold))
	}

	return pass()
}

// CheckWitnessAmounts compares the witness UTXO values with the values of
// the full previous transactions. It only applies when at least one input
// spends a native p2wpkh output.
func CheckWitnessAmounts(env *CheckEnv) fn.Result[fn.Unit] {
	if !hasP2WPKHInput(env.Tx) {
		return pass()
	}

	var witnessAmount btcutil.Amount
	for idx, in := range env.Tx.Inputs {
		if in.WitnessUtxo == nil {
			return fail(inputError(WitnessAmountMismatch, idx,
				"missing witness utxo"))
		}

		witnessAmount += btcutil.Amount(in.WitnessUtxo.Value)
	}

	inputAmount, err := env.Summary.InputAmount()
	if err != nil {
		return fn.Err[fn.Unit](err)
	}

	if witnessAmount != inputAmount {
		return fail(txError(WitnessAmountMismatch,
			"witness utxos declare %v, previous txs %v",
			witnessAmount, inputAmount))
	}

	return pass()
}

// hasP2WPKHInput reports whether any input spends a native p2wpkh output.
// Nested, script-hash and taproot inputs don't count. The spent script is
// taken from the previous tx, the witness utxo only stands in when it is
// absent.
func hasP2WPKHInput(tx *Transaction) bool {
	for _, in := range tx.Inputs {
		if len(in.RedeemScript) > 0 || len(in.WitnessScript) > 0 {
			continue
		}

		var pkScript []byte
		switch {
		case in.PrevTx != nil:
			idx := int(in.PrevOutPoint.Index)
			if idx < len(in.PrevTx.TxOut) {
				pkScript = in.PrevTx.TxOut[idx].PkScript
			}

		case in.WitnessUtxo != nil:
			pkScript = in.WitnessUtxo.PkScript
		}

		if txscript.IsPayToWitnessPubKeyHash(pkScript) {
			return true
		}
	}

	return false
}
