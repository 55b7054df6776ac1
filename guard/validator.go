// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package guard

import (
	"github.com/btcsuite/btcd/btcutil"
)

// Validator decides whether a Transaction may be signed by the active
// account. It evaluates Checks in order and stops at the first failure, so
// at most one error is ever reported per call.
//
// A Validator holds no mutable state: Validate may be called any number of
// times, from any number of goroutines, and gives the same answer for the
// same oracle.
type Validator struct {
	tx           *Transaction
	summary      *Summary
	feeThreshold btcutil.Amount
	checks       []Check
}

// ValidatorOption customizes a Validator.
type ValidatorOption func(*Validator)

// WithFeeThreshold overrides DefaultFeeThreshold.
func WithFeeThreshold(threshold btcutil.Amount) ValidatorOption {
	return func(v *Validator) {
		v.feeThreshold = threshold
	}
}

// NewValidator returns a Validator for tx.
func NewValidator(tx *Transaction, opts ...ValidatorOption) *Validator {
	v := &Validator{
		tx:           tx,
		summary:      NewSummary(tx),
		feeThreshold: DefaultFeeThreshold,
		checks:       Checks(),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Summary returns the summary the fee checks are based on, so callers can
// show the user the exact numbers that were validated.
func (v *Validator) Summary() *Summary {
	return v.summary
}

// Validate runs every check against oracle and returns nil if the
// transaction may be signed. Otherwise it returns the first failure, which
// is a *ValidationError.
func (v *Validator) Validate(oracle AccountOwnershipOracle) error {
	env := &CheckEnv{
		Tx:           v.tx,
		Summary:      v.summary,
		Oracle:       oracle,
		FeeThreshold: v.feeThreshold,
	}

	for _, check := range v.checks {
		_, err := check.Run(env).Unpack()
		if err != nil {
			log.Infof("PSBT rejected by %s: %v", check.Name, err)

			return err
		}

		log.Tracef("PSBT passed %s", check.Name)
	}

	log.Debugf("PSBT with %d inputs and %d outputs passed all %d checks",
		len(v.tx.Inputs), len(v.tx.Outputs), len(v.checks))

	return nil
}
