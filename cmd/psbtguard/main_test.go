// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/psbtguard/guard"
	"github.com/btcsuite/psbtguard/internal/psbttest"
	"github.com/btcsuite/psbtguard/keyring"
	"github.com/stretchr/testify/require"
)

// testWallet is a testnet wallet with a single BIP84 account.
type testWallet struct {
	master      *hdkeychain.ExtendedKey
	fingerprint string
	xpubFlag    string
}

// newTestWallet derives the test wallet from a fixed seed.
func newTestWallet(t *testing.T) *testWallet {
	t.Helper()

	seed := bytes.Repeat([]byte{0x11}, hdkeychain.RecommendedSeedLen)
	master, err := hdkeychain.NewMaster(seed, &chaincfg.TestNet3Params)
	require.NoError(t, err)

	fp, err := keyring.MasterFingerprint(master)
	require.NoError(t, err)

	acct := master
	for _, child := range keyring.NewAccountPath(84, 1, 0) {
		acct, err = acct.Derive(child)
		require.NoError(t, err)
	}

	xpub, err := acct.Neuter()
	require.NoError(t, err)

	return &testWallet{
		master:      master,
		fingerprint: keyring.FormatFingerprint(fp),
		xpubFlag:    "84'/1'/0':" + xpub.String(),
	}
}

// key derives the public key at m/84'/1'/0'/change/index.
func (w *testWallet) key(t *testing.T, change,
	index uint32) (*btcec.PublicKey, []uint32) {

	t.Helper()

	path := psbttest.Path(84, 1, 0, change, index)

	key := w.master
	for _, child := range path {
		var err error
		key, err = key.Derive(child)
		require.NoError(t, err)
	}

	pub, err := key.ECPubKey()
	require.NoError(t, err)

	return pub, path
}

// args returns the flags selecting the test wallet.
func (w *testWallet) args(extra ...string) []string {
	return append([]string{
		"--network=test",
		"--fingerprint=" + w.fingerprint,
		"--xpub=" + w.xpubFlag,
		"--debuglevel=critical",
	}, extra...)
}

// spend returns a PSBT spending a wallet output. The change output is
// derived by the wallet unless foreignChange is set.
func (w *testWallet) spend(t *testing.T, foreignChange bool) *psbt.Packet {
	t.Helper()

	fp, err := keyring.ParseFingerprint(w.fingerprint)
	require.NoError(t, err)

	inKey, inPath := w.key(t, 0, 0)
	changeKey, changePath := w.key(t, 1, 0)
	if foreignChange {
		changeKey = psbttest.PrivKey(9).PubKey()
	}

	ins := []psbttest.Input{{
		Value:       50_000,
		PkScript:    psbttest.P2WPKH(t, inKey),
		WitnessUtxo: true,
		Bip32: []*psbt.Bip32Derivation{
			psbttest.Bip32(inKey, fp, inPath...),
		},
	}}
	outs := []psbttest.Output{
		{
			Value:    30_000,
			PkScript: psbttest.P2WPKH(t, psbttest.PrivKey(8).PubKey()),
		},
		{
			Value:    19_000,
			PkScript: psbttest.P2WPKH(t, changeKey),
			Bip32: []*psbt.Bip32Derivation{
				psbttest.Bip32(changeKey, fp, changePath...),
			},
		},
	}

	return psbttest.Packet(t, ins, outs)
}

// encode returns the base64 encoding of packet.
func encode(t *testing.T, packet *psbt.Packet) string {
	t.Helper()

	b64, err := packet.B64Encode()
	require.NoError(t, err)

	return b64
}

// TestRunAccepted checks that a wallet spend passed on the command line is
// accepted and reported.
func TestRunAccepted(t *testing.T) {
	// Arrange: A spend of the test wallet.
	w := newTestWallet(t)
	packet := w.spend(t, false)

	var out bytes.Buffer

	// Act: Run with the PSBT as flag.
	err := run(
		w.args("--psbt="+encode(t, packet)), strings.NewReader(""),
		&out,
	)

	// Assert: It is accepted and the report shows the fee.
	require.NoError(t, err)
	require.Contains(t, out.String(), verdictAccepted)
	require.Contains(t, out.String(), btcutil.Amount(1_000).String())
}

// TestRunRejected checks that a spend with foreign change is refused.
func TestRunRejected(t *testing.T) {
	w := newTestWallet(t)
	packet := w.spend(t, true)

	var out bytes.Buffer
	err := run(
		w.args("--psbt="+encode(t, packet)), strings.NewReader(""),
		&out,
	)

	require.ErrorIs(t, err, errRejected)
	require.Contains(t, out.String(), verdictRejected)
	require.Contains(t, out.String(),
		guard.ErrChangeAddressInvalid.Error())
}

// TestRunFilesAndStdin checks the other input sources: binary and base64
// files, and base64 on stdin.
func TestRunFilesAndStdin(t *testing.T) {
	w := newTestWallet(t)
	good := w.spend(t, false)
	bad := w.spend(t, true)

	// Arrange: The good spend in binary and the bad one in base64.
	dir := t.TempDir()

	var raw bytes.Buffer
	require.NoError(t, good.Serialize(&raw))

	goodFile := filepath.Join(dir, "good.psbt")
	require.NoError(t, os.WriteFile(goodFile, raw.Bytes(), 0600))

	badFile := filepath.Join(dir, "bad.psbt")
	require.NoError(t, os.WriteFile(
		badFile, []byte(encode(t, bad)+"\n"), 0600,
	))

	// Act: Validate both files, then the good spend from stdin.
	var out bytes.Buffer
	filesErr := run(
		w.args("--psbtfile="+goodFile, "--psbtfile="+badFile),
		strings.NewReader(""), &out,
	)
	stdinErr := run(
		w.args(), strings.NewReader(encode(t, good)+"\n"),
		&bytes.Buffer{},
	)

	// Assert: One of the files is rejected, stdin is accepted.
	require.ErrorIs(t, filesErr, errRejected)
	require.Contains(t, filesErr.Error(), "1 of 2")
	require.Contains(t, out.String(), goodFile)
	require.Contains(t, out.String(), badFile)
	require.NoError(t, stdinErr)
}

// TestRunMalformed checks that garbage is rejected rather than crashing.
func TestRunMalformed(t *testing.T) {
	w := newTestWallet(t)

	var out bytes.Buffer
	err := run(w.args("--psbt=garbage"), strings.NewReader(""), &out)

	require.ErrorIs(t, err, errRejected)
	require.Contains(t, out.String(), guard.ErrMalformedTransaction.Error())
}

// TestRunWrongNetwork checks that a testnet account key is refused on
// mainnet before any PSBT is read.
func TestRunWrongNetwork(t *testing.T) {
	w := newTestWallet(t)

	args := w.args("--network=main", "--psbt=unused")
	err := run(args, strings.NewReader(""), &bytes.Buffer{})

	require.ErrorIs(t, err, keyring.ErrWrongNetwork)
}

// TestParseXPubFlag checks the splitting of --xpub values.
func TestParseXPubFlag(t *testing.T) {
	path, key, err := parseXPubFlag("84'/0'/0':xpubABC")
	require.NoError(t, err)
	require.Equal(t, "84'/0'/0'", path)
	require.Equal(t, "xpubABC", key)

	for _, bad := range []string{"", "xpubABC", ":xpubABC", "84'/0'/0':"} {
		_, _, err := parseXPubFlag(bad)
		require.ErrorIs(t, err, errInvalidXPubFlag, bad)
	}
}

// TestLoadConfig checks flag validation.
func TestLoadConfig(t *testing.T) {
	w := newTestWallet(t)

	cfg, err := loadConfig(w.args())
	require.NoError(t, err)
	require.Equal(t, guard.TestNet, cfg.net)
	require.Equal(t, guard.DefaultFeeThreshold, cfg.feeThreshold())
	require.Empty(t, cfg.logFile())

	_, err = loadConfig(w.args("--network=regtest"))
	require.Error(t, err)

	_, err = loadConfig(w.args("--maxfee=0"))
	require.Error(t, err)

	_, err = loadConfig(w.args("--psbt=a", "--psbtfile=b"))
	require.Error(t, err)

	_, err = loadConfig([]string{"--fingerprint=" + w.fingerprint})
	require.ErrorIs(t, err, errNoAccounts)
}

// TestSetLogLevels checks the --debuglevel syntax.
func TestSetLogLevels(t *testing.T) {
	require.NoError(t, setLogLevels("debug"))
	require.NoError(t, setLogLevels("GRDV=trace,KRNG=info"))
	require.Error(t, setLogLevels("loud"))
	require.Error(t, setLogLevels("NOPE=debug"))
	require.Error(t, setLogLevels("GRDV=loud"))
	require.Error(t, setLogLevels("GRDV"))

	require.NoError(t, setLogLevels("critical"))
}
