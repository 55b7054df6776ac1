// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package guard

import (
	"errors"
	"fmt"
)

// ErrorKind identifies which rule rejected a transaction.
type ErrorKind uint8

const (
	// InsufficientInputData means at least one input lacks the full
	// previous transaction.
	InsufficientInputData ErrorKind = iota + 1

	// InputNetworkMismatch means an input derivation path uses a coin
	// type that doesn't belong to the active network.
	InputNetworkMismatch

	// OutputNetworkMismatch means an output either carries a derivation
	// for another network or pays to an address of another network.
	OutputNetworkMismatch

	// InvalidOpReturn means an OP_RETURN output pushes more data than
	// relay policy permits.
	InvalidOpReturn

	// InputNotSpendable means an input can't be proven to belong to the
	// active account.
	InputNotSpendable

	// ChangeAddressInvalid means an output claims to be change but its
	// key isn't owned by the active account.
	ChangeAddressInvalid

	// FeeExceedsThreshold means the absolute fee is at or above the
	// configured ceiling, or negative.
	FeeExceedsThreshold

	// WitnessAmountMismatch means the witness UTXO values disagree with
	// the values of the full previous transactions.
	WitnessAmountMismatch

	// MissingInputData means the value spent by an input can't be
	// determined.
	MissingInputData
)

var (
	// ErrInsufficientInputData is the sentinel for InsufficientInputData.
	ErrInsufficientInputData = errors.New("psbt inputs lack full " +
		"previous transactions")

	// ErrInputNetworkMismatch is the sentinel for InputNetworkMismatch.
	ErrInputNetworkMismatch = errors.New("psbt input does not match " +
		"network")

	// ErrOutputNetworkMismatch is the sentinel for OutputNetworkMismatch.
	ErrOutputNetworkMismatch = errors.New("psbt output does not match " +
		"network")

	// ErrInvalidOpReturn is the sentinel for InvalidOpReturn.
	ErrInvalidOpReturn = errors.New("op_return payload exceeds limit")

	// ErrInputNotSpendable is the sentinel for InputNotSpendable.
	ErrInputNotSpendable = errors.New("psbt input is not spendable by " +
		"the active account")

	// ErrChangeAddressInvalid is the sentinel for ChangeAddressInvalid.
	ErrChangeAddressInvalid = errors.New("change output does not belong " +
		"to the active account")

	// ErrFeeExceedsThreshold is the sentinel for FeeExceedsThreshold.
	ErrFeeExceedsThreshold = errors.New("fee exceeds threshold")

	// ErrWitnessAmountMismatch is the sentinel for WitnessAmountMismatch.
	ErrWitnessAmountMismatch = errors.New("witness utxo amounts do not " +
		"match previous transactions")

	// ErrMissingInputData is the sentinel for MissingInputData.
	ErrMissingInputData = errors.New("input amount cannot be determined")

	// ErrMalformedTransaction is returned when a packet can't be turned
	// into a Transaction at all.
	ErrMalformedTransaction = errors.New("malformed psbt")
)

// sentinels maps each kind to the error callers match with errors.Is.
var sentinels = map[ErrorKind]error{
	InsufficientInputData: ErrInsufficientInputData,
	InputNetworkMismatch:  ErrInputNetworkMismatch,
	OutputNetworkMismatch: ErrOutputNetworkMismatch,
	InvalidOpReturn:       ErrInvalidOpReturn,
	InputNotSpendable:     ErrInputNotSpendable,
	ChangeAddressInvalid:  ErrChangeAddressInvalid,
	FeeExceedsThreshold:   ErrFeeExceedsThreshold,
	WitnessAmountMismatch: ErrWitnessAmountMismatch,
	MissingInputData:      ErrMissingInputData,
}

// String returns the name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case InsufficientInputData:
		return "InsufficientInputData"
	case InputNetworkMismatch:
		return "InputNetworkMismatch"
	case OutputNetworkMismatch:
		return "OutputNetworkMismatch"
	case InvalidOpReturn:
		return "InvalidOpReturn"
	case InputNotSpendable:
		return "InputNotSpendable"
	case ChangeAddressInvalid:
		return "ChangeAddressInvalid"
	case FeeExceedsThreshold:
		return "FeeExceedsThreshold"
	case WitnessAmountMismatch:
		return "WitnessAmountMismatch"
	case MissingInputData:
		return "MissingInputData"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// Scope tells whether a ValidationError refers to an input, an output or
// the transaction as a whole.
type Scope uint8

const (
	// ScopeTransaction marks an error about the whole transaction.
	ScopeTransaction Scope = iota

	// ScopeInput marks an error about a single input.
	ScopeInput

	// ScopeOutput marks an error about a single output.
	ScopeOutput
)

// ValidationError is the terminal error produced when a transaction is
// rejected. It unwraps to the sentinel error of its kind.
type ValidationError struct {
	// Kind is the rule that failed.
	Kind ErrorKind

	// Scope says what Index refers to.
	Scope Scope

	// Index is the offending input or output. It is meaningless for
	// ScopeTransaction.
	Index int

	// Detail is a human readable explanation.
	Detail string
}

// A compile-time assertion to ensure ValidationError implements error.
var _ error = (*ValidationError)(nil)

// Error returns the error message, including the offending index. Unknown
// kinds are rendered by name.
func (e *ValidationError) Error() string {
	msg := e.Kind.String()
	if sentinel, ok := sentinels[e.Kind]; ok {
		msg = sentinel.Error()
	}

	switch e.Scope {
	case ScopeInput:
		msg = fmt.Sprintf("%s: input %d", msg, e.Index)
	case ScopeOutput:
		msg = fmt.Sprintf("%s: output %d", msg, e.Index)
	}

	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}

	return msg
}

// Unwrap returns the sentinel error of the kind.
func (e *ValidationError) Unwrap() error {
	return sentinels[e.Kind]
}

// txError returns a ValidationError about the whole transaction.
func txError(kind ErrorKind, format string,
	args ...any) *ValidationError {

	return &ValidationError{
		Kind:   kind,
		Scope:  ScopeTransaction,
		Detail: fmt.Sprintf(format, args...),
	}
}

// inputError returns a ValidationError about the input at index idx.
func inputError(kind ErrorKind, idx int, format string,
	args ...any) *ValidationError {

	return &ValidationError{
		Kind:   kind,
		Scope:  ScopeInput,
		Index:  idx,
		Detail: fmt.Sprintf(format, args...),
	}
}

// outputError returns a ValidationError about the output at index idx.
func outputError(kind ErrorKind, idx int, format string,
	args ...any) *ValidationError {

	return &ValidationError{
		Kind:   kind,
		Scope:  ScopeOutput,
		Index:  idx,
		Detail: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the kind of a ValidationError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		return 0, false
	}

	return vErr.Kind, true
}
