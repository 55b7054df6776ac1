// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package guard

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

const (
	// MaxOpReturnPayload is the largest OP_RETURN push, in bytes, that
	// default relay policy accepts.
	MaxOpReturnPayload = 80

	// unknownScript is how a script with no address and no data payload
	// is rendered.
	unknownScript = "Unknown"
)

// ScriptKind is the closed set of output script shapes the guard knows
// about.
type ScriptKind uint8

const (
	// ScriptNonStandard is any script that is neither an address nor a
	// single OP_RETURN push.
	ScriptNonStandard ScriptKind = iota

	// ScriptAddress is a script that encodes to a standard address.
	ScriptAddress

	// ScriptOpReturn is exactly OP_RETURN followed by one data push.
	ScriptOpReturn
)

// addressClasses are the script classes that have a standard address
// encoding. Bare pubkey and multisig scripts don't.
var addressClasses = map[txscript.ScriptClass]struct{}{
	txscript.PubKeyHashTy:          {},
	txscript.ScriptHashTy:          {},
	txscript.WitnessV0PubKeyHashTy: {},
	txscript.WitnessV0ScriptHashTy: {},
	txscript.WitnessV1TaprootTy:    {},
}

// ScriptClass is the classification of a single output script. Address is
// set for ScriptAddress and Data for ScriptOpReturn.
type ScriptClass struct {
	Kind    ScriptKind
	Address btcutil.Address
	Data    []byte
}

// ClassifyScript classifies pkScript, encoding addresses for params.
func ClassifyScript(pkScript []byte, params *chaincfg.Params) ScriptClass {
	class, addrs, _, err := txscript.ExtractPkScriptAddrs(pkScript, params)
	if err == nil && len(addrs) == 1 {
		if _, ok := addressClasses[class]; ok {
			return ScriptClass{Kind: ScriptAddress, Address: addrs[0]}
		}
	}

	if data, ok := opReturnPayload(pkScript); ok {
		return ScriptClass{Kind: ScriptOpReturn, Data: data}
	}

	return ScriptClass{Kind: ScriptNonStandard}
}

// EncodedAddress returns the encoded address, or the empty string when the
// script has none.
func (s ScriptClass) EncodedAddress() string {
	if s.Kind != ScriptAddress {
		return ""
	}

	return s.Address.EncodeAddress()
}

// String renders the script the way a confirmation dialog shows it.
func (s ScriptClass) String() string {
	switch s.Kind {
	case ScriptAddress:
		return s.Address.EncodeAddress()

	case ScriptOpReturn:
		return "OP_RETURN 0x" + hex.EncodeToString(s.Data)

	default:
		return unknownScript
	}
}

// opReturnPayload returns the pushed data if pkScript is exactly
// OP_RETURN <data>. Pushes that have a dedicated small-integer opcode
// (empty, 1..16 and -1) aren't treated as data.
func opReturnPayload(pkScript []byte) ([]byte, bool) {
	tokenizer := txscript.MakeScriptTokenizer(0, pkScript)
	if !tokenizer.Next() || tokenizer.Opcode() != txscript.OP_RETURN {
		return nil, false
	}

	if !tokenizer.Next() {
		return nil, false
	}

	op := tokenizer.Opcode()
	if op < txscript.OP_DATA_1 || op > txscript.OP_PUSHDATA4 {
		return nil, false
	}

	data := tokenizer.Data()
	if isSmallIntPush(data) {
		return nil, false
	}

	// Anything after the push, including a parse error, makes it a
	// different script.
	if tokenizer.Next() || tokenizer.Err() != nil {
		return nil, false
	}

	payload := make([]byte, len(data))
	copy(payload, data)

	return payload, true
}

// isSmallIntPush reports whether data has a minimal opcode encoding.
func isSmallIntPush(data []byte) bool {
	switch {
	case len(data) == 0:
		return true

	case len(data) != 1:
		return false

	case data[0] >= 1 && data[0] <= 16:
		return true

	default:
		return data[0] == 0x81
	}
}
