// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package keyring answers whether PSBT derivations belong to an account,
// using nothing but the account extended public keys and the master key
// fingerprint.
package keyring

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/psbtguard/guard"
)

const (
	hks = hdkeychain.HardenedKeyStart

	// accountDepth is the depth of an account key, m/purpose'/coin'/account'.
	accountDepth = 3
)

var (
	// ErrNoAccounts is returned when a key ring is created without any
	// account.
	ErrNoAccounts = errors.New("key ring needs at least one account")

	// ErrInvalidAccountPath is returned for account paths that aren't
	// three hardened elements.
	ErrInvalidAccountPath = errors.New("invalid account path")

	// ErrInvalidFingerprint is returned for fingerprints that aren't four
	// hex encoded bytes.
	ErrInvalidFingerprint = errors.New("invalid master key fingerprint")

	// ErrWrongNetwork is returned when an extended key doesn't belong to
	// the expected network.
	ErrWrongNetwork = errors.New("extended key is for another network")

	// ErrDuplicateAccount is returned when two accounts share a path.
	ErrDuplicateAccount = errors.New("duplicate account")
)

// AccountPath is m/purpose'/coin'/account', hardened bits included.
type AccountPath [accountDepth]uint32

// NewAccountPath returns the hardened account path of the given indexes.
func NewAccountPath(purpose, coin, account uint32) AccountPath {
	return AccountPath{purpose + hks, coin + hks, account + hks}
}

// ParseAccountPath parses "m/84'/1'/0'" or "84h/1h/0h". Every element must
// be hardened.
func ParseAccountPath(s string) (AccountPath, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "m/")

	parts := strings.Split(s, "/")
	if len(parts) != accountDepth {
		return AccountPath{}, fmt.Errorf("%w: %q", ErrInvalidAccountPath,
			s)
	}

	var path AccountPath
	for i, part := range parts {
		trimmed := strings.TrimRight(part, "'h")
		if trimmed == part {
			return AccountPath{}, fmt.Errorf("%w: element %q is "+
				"not hardened", ErrInvalidAccountPath, part)
		}

		idx, err := strconv.ParseUint(trimmed, 10, 31)
		if err != nil {
			return AccountPath{}, fmt.Errorf("%w: %v",
				ErrInvalidAccountPath, err)
		}

		path[i] = uint32(idx) + hks
	}

	return path, nil
}

// Name returns the display name of the account, e.g. account-0.
func (p AccountPath) Name() string {
	return fmt.Sprintf("account-%d", p[2]-hks)
}

// String returns the path in the m/84'/1'/0' notation.
func (p AccountPath) String() string {
	return guard.FormatPath(p[:])
}

// Account is an account extended public key and the path it was derived at.
type Account struct {
	Path AccountPath
	XPub *hdkeychain.ExtendedKey
}

// ParseAccount parses an account path and a serialized extended key for
// params. A private key is accepted but only its public half is kept.
func ParseAccount(path, xpub string, params *chaincfg.Params) (*Account,
	error) {

	accountPath, err := ParseAccountPath(path)
	if err != nil {
		return nil, err
	}

	key, err := hdkeychain.NewKeyFromString(xpub)
	if err != nil {
		return nil, fmt.Errorf("unable to parse extended key: %w", err)
	}

	if !key.IsForNet(params) {
		return nil, fmt.Errorf("%w: expected %s", ErrWrongNetwork,
			params.Name)
	}

	pub, err := key.Neuter()
	if err != nil {
		return nil, err
	}

	return &Account{Path: accountPath, XPub: pub}, nil
}

// ParseFingerprint parses a master key fingerprint in its usual hex form,
// e.g. "d34db33f", into the little-endian value PSBT derivations carry.
func ParseFingerprint(s string) (uint32, error) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFingerprint, s)
	}

	return binary.LittleEndian.Uint32(raw), nil
}

// FormatFingerprint is the inverse of ParseFingerprint.
func FormatFingerprint(fingerprint uint32) string {
	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], fingerprint)

	return hex.EncodeToString(raw[:])
}

// MasterFingerprint returns the fingerprint of a master key as stored in
// PSBT derivations.
func MasterFingerprint(master *hdkeychain.ExtendedKey) (uint32, error) {
	pub, err := master.ECPubKey()
	if err != nil {
		return 0, err
	}

	hash := btcutil.Hash160(pub.SerializeCompressed())

	return binary.LittleEndian.Uint32(hash[:4]), nil
}

// AccountKeyRing is an AccountOwnershipOracle for a single wallet, holding
// the public keys of one or more of its accounts. It never sees private
// key material. All methods are safe for concurrent use.
type AccountKeyRing struct {
	fingerprint uint32
	accounts    map[AccountPath]*hdkeychain.ExtendedKey
}

// A compile-time assertion to ensure AccountKeyRing implements the oracle
// interface.
var _ guard.AccountOwnershipOracle = (*AccountKeyRing)(nil)

// New returns a key ring for the wallet with the given master fingerprint.
func New(fingerprint uint32, accounts ...*Account) (*AccountKeyRing,
	error) {

	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}

	k := &AccountKeyRing{
		fingerprint: fingerprint,
		accounts:    make(map[AccountPath]*hdkeychain.ExtendedKey),
	}

	for _, acct := range accounts {
		if _, ok := k.accounts[acct.Path]; ok {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateAccount,
				acct.Path)
		}

		k.accounts[acct.Path] = acct.XPub

		log.Debugf("Added %v at %v for master key %s", acct.Path.Name(),
			acct.Path, FormatFingerprint(fingerprint))
	}

	return k, nil
}

// NewFromSeed derives the master key from seed and returns a key ring
// holding the public keys of the given accounts.
func NewFromSeed(seed []byte, params *chaincfg.Params,
	paths ...AccountPath) (*AccountKeyRing, error) {

	master, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, err
	}

	fingerprint, err := MasterFingerprint(master)
	if err != nil {
		return nil, err
	}

	accounts := make([]*Account, 0, len(paths))
	for _, path := range paths {
		key := master
		for _, child := range path {
			key, err = key.Derive(child)
			if err != nil {
				return nil, fmt.Errorf("unable to derive %v: %w",
					path, err)
			}
		}

		pub, err := key.Neuter()
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, &Account{Path: path, XPub: pub})
	}

	return New(fingerprint, accounts...)
}

// Fingerprint returns the master key fingerprint of the key ring.
func (k *AccountKeyRing) Fingerprint() uint32 {
	return k.fingerprint
}

// Accounts returns the paths of the accounts in the key ring.
func (k *AccountKeyRing) Accounts() []AccountPath {
	paths := make([]AccountPath, 0, len(k.accounts))
	for path := range k.accounts {
		paths = append(paths, path)
	}

	return paths
}

// PubKey derives the public key at a full five element path. It fails if
// the path isn't below one of the accounts.
func (k *AccountKeyRing) PubKey(path []uint32) (*btcec.PublicKey, error) {
	keyPath, err := guard.ParseKeyPath(path)
	if err != nil {
		return nil, err
	}

	xpub, ok := k.accounts[AccountPath(keyPath.AccountPath())]
	if !ok {
		return nil, fmt.Errorf("no account for path %v", keyPath)
	}

	// Derive refuses hardened children of a public key, which is what we
	// want for the change and index levels.
	branch, err := xpub.Derive(keyPath.Change)
	if err != nil {
		return nil, err
	}

	child, err := branch.Derive(keyPath.Index)
	if err != nil {
		return nil, err
	}

	return child.ECPubKey()
}

// derive returns the key at path if fingerprint is ours.
func (k *AccountKeyRing) derive(fingerprint uint32,
	path []uint32) (*btcec.PublicKey, bool) {

	if fingerprint != k.fingerprint {
		log.Tracef("Fingerprint %s is not ours",
			FormatFingerprint(fingerprint))

		return nil, false
	}

	pub, err := k.PubKey(path)
	if err != nil {
		log.Debugf("Unable to derive %v: %v", guard.FormatPath(path),
			err)

		return nil, false
	}

	return pub, true
}

// OwnsLegacyDerivation reports whether the derivation's compressed public
// key is the one the account derives at its path.
//
// NOTE: This is part of the guard.AccountOwnershipOracle interface.
func (k *AccountKeyRing) OwnsLegacyDerivation(
	derivation *psbt.Bip32Derivation) bool {

	pub, ok := k.derive(
		derivation.MasterKeyFingerprint, derivation.Bip32Path,
	)
	if !ok {
		return false
	}

	return bytes.Equal(pub.SerializeCompressed(), derivation.PubKey)
}

// OwnsTaprootDerivation reports whether the derivation's x-only public key
// is the one the account derives at its path.
//
// NOTE: This is part of the guard.AccountOwnershipOracle interface.
func (k *AccountKeyRing) OwnsTaprootDerivation(
	derivation *psbt.TaprootBip32Derivation) bool {

	pub, ok := k.derive(
		derivation.MasterKeyFingerprint, derivation.Bip32Path,
	)
	if !ok {
		return false
	}

	return bytes.Equal(schnorr.SerializePubKey(pub), derivation.XOnlyPubKey)
}
