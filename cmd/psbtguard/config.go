// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/psbtguard/guard"
	"github.com/btcsuite/psbtguard/keyring"
	"github.com/jessevdk/go-flags"
)

const (
	defaultNetwork        = "main"
	defaultLogLevel       = "info"
	defaultLogFilename    = "psbtguard.log"
	defaultMaxLogFileSize = 10
	defaultMaxLogFiles    = 3
)

var (
	// errNoAccounts is returned when no --xpub is given.
	errNoAccounts = errors.New("at least one --xpub is required")

	// errInvalidXPubFlag is returned for --xpub values that aren't
	// path:key pairs.
	errInvalidXPubFlag = errors.New("--xpub must be path:key, e.g. " +
		"84'/0'/0':xpub...")
)

// config defines the configuration options for psbtguard.
type config struct {
	Network     string   `long:"network" description:"Network the PSBTs are expected to belong to {main, test}"`
	PSBT        string   `long:"psbt" description:"Base64 encoded PSBT to validate; read from stdin when neither --psbt nor --psbtfile is given"`
	PSBTFiles   []string `long:"psbtfile" description:"File holding a base64 or binary PSBT, may be repeated"`
	Fingerprint string   `long:"fingerprint" description:"Master key fingerprint of the signing wallet, hex encoded" required:"true"`
	XPubs       []string `long:"xpub" description:"Account extended public key as path:key, e.g. 84'/0'/0':xpub..., may be repeated"`
	MaxFee      int64    `long:"maxfee" description:"Fee in satoshis at or above which a PSBT is refused"`

	LogDir         string `long:"logdir" description:"Directory to log output; file logging is off when empty"`
	MaxLogFileSize int    `long:"maxlogfilesize" description:"Maximum log file size in MB before it is rotated"`
	MaxLogFiles    int    `long:"maxlogfiles" description:"Maximum number of rotated log files to keep"`
	DebugLevel     string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`

	// net is the parsed Network.
	net guard.Network
}

// defaultConfig returns the configuration before any flag is applied.
func defaultConfig() *config {
	return &config{
		Network:        defaultNetwork,
		MaxFee:         int64(guard.DefaultFeeThreshold),
		MaxLogFileSize: defaultMaxLogFileSize,
		MaxLogFiles:    defaultMaxLogFiles,
		DebugLevel:     defaultLogLevel,
	}
}

// loadConfig parses args on top of the defaults and validates the result.
func loadConfig(args []string) (*config, error) {
	cfg := defaultConfig()

	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	net, err := guard.ParseNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}
	cfg.net = net

	if cfg.MaxFee <= 0 {
		return nil, fmt.Errorf("--maxfee must be positive, got %d",
			cfg.MaxFee)
	}

	if len(cfg.XPubs) == 0 {
		return nil, errNoAccounts
	}

	if cfg.PSBT != "" && len(cfg.PSBTFiles) > 0 {
		return nil, errors.New("--psbt and --psbtfile are mutually " +
			"exclusive")
	}

	return cfg, nil
}

// feeThreshold returns --maxfee as an amount.
func (c *config) feeThreshold() btcutil.Amount {
	return btcutil.Amount(c.MaxFee)
}

// logFile returns the path of the log file, or "" when file logging is
// off.
func (c *config) logFile() string {
	if c.LogDir == "" {
		return ""
	}

	return filepath.Join(c.LogDir, defaultLogFilename)
}

// parseXPubFlag splits a --xpub value into the account path and the
// serialized key. Neither half contains a colon.
func parseXPubFlag(value string) (string, string, error) {
	path, key, ok := strings.Cut(value, ":")
	if !ok || path == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q", errInvalidXPubFlag, value)
	}

	return path, key, nil
}

// buildKeyRing returns the ownership oracle described by --fingerprint and
// --xpub.
func (c *config) buildKeyRing() (*keyring.AccountKeyRing, error) {
	fingerprint, err := keyring.ParseFingerprint(c.Fingerprint)
	if err != nil {
		return nil, err
	}

	accounts := make([]*keyring.Account, 0, len(c.XPubs))
	for _, value := range c.XPubs {
		path, key, err := parseXPubFlag(value)
		if err != nil {
			return nil, err
		}

		acct, err := keyring.ParseAccount(path, key, c.net.Params())
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", path, err)
		}

		accounts = append(accounts, acct)
	}

	return keyring.New(fingerprint, accounts...)
}
