// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// psbtguard inspects PSBTs before they are signed and refuses those the
// signing account shouldn't sign.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/btcsuite/psbtguard/guard"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// psbtMagic is the prefix of every binary PSBT.
var psbtMagic = []byte{0x70, 0x73, 0x62, 0x74, 0xff}

// errRejected is returned when at least one PSBT failed validation.
var errRejected = errors.New("psbt rejected")

// source is a PSBT as read from the command line, stdin or a file.
type source struct {
	name string
	raw  []byte
}

// result is the outcome of validating one source.
type result struct {
	name string

	// summary is nil when the source couldn't be decoded.
	summary *guard.Summary

	// err is the decoding or validation error, nil if the PSBT may be
	// signed.
	err error
}

func main() {
	err := run(os.Args[1:], os.Stdin, os.Stdout)
	if err == nil {
		return
	}

	var flagsErr *flags.Error
	if errors.As(err, &flagsErr) {
		// go-flags already printed the error or the help text.
		if flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}

		os.Exit(1)
	}

	if !errors.Is(err, errRejected) {
		_, _ = fmt.Fprintln(os.Stderr, err)
	}

	os.Exit(1)
}

// run is the real main. It returns errRejected if any PSBT may not be
// signed.
func run(args []string, stdin io.Reader, stdout io.Writer) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	if err := setLogLevels(cfg.DebugLevel); err != nil {
		return err
	}

	if logFile := cfg.logFile(); logFile != "" {
		err := initLogRotator(
			logFile, cfg.MaxLogFileSize, cfg.MaxLogFiles,
		)
		if err != nil {
			return err
		}
		defer closeLogRotator()
	}

	ring, err := cfg.buildKeyRing()
	if err != nil {
		return err
	}

	log.Debugf("Loaded %d account(s) for master key %s on %v",
		len(ring.Accounts()), cfg.Fingerprint, cfg.net)

	sources, err := readSources(cfg, stdin)
	if err != nil {
		return err
	}

	results := validateAll(sources, cfg, ring)
	if err := renderReport(stdout, results); err != nil {
		return err
	}

	var rejected int
	for _, res := range results {
		if res.err != nil {
			rejected++
		}
	}

	if rejected > 0 {
		log.Infof("%d of %d PSBT(s) rejected", rejected, len(results))
		return fmt.Errorf("%w: %d of %d", errRejected, rejected,
			len(results))
	}

	return nil
}

// stdinIsPiped reports whether stdin carries data rather than being an
// interactive terminal.
func stdinIsPiped(stdin io.Reader) bool {
	f, ok := stdin.(*os.File)
	if !ok {
		return true
	}

	return !term.IsTerminal(int(f.Fd()))
}

// readSources collects the PSBTs to validate from --psbt, --psbtfile or
// stdin, in that order of preference.
func readSources(cfg *config, stdin io.Reader) ([]source, error) {
	switch {
	case cfg.PSBT != "":
		return []source{{name: "psbt", raw: []byte(cfg.PSBT)}}, nil

	case len(cfg.PSBTFiles) > 0:
		sources := make([]source, 0, len(cfg.PSBTFiles))
		for _, path := range cfg.PSBTFiles {
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("unable to read %s: %w",
					path, err)
			}

			sources = append(sources, source{name: path, raw: raw})
		}

		return sources, nil

	case stdinIsPiped(stdin):
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("unable to read stdin: %w", err)
		}

		return []source{{name: "stdin", raw: raw}}, nil

	default:
		return nil, errors.New("no PSBT given, use --psbt, " +
			"--psbtfile or pipe one to stdin")
	}
}

// decodeSource decodes a binary or base64 PSBT for net.
func decodeSource(src source, net guard.Network) (*guard.Transaction,
	error) {

	raw := src.raw
	b64 := !bytes.HasPrefix(raw, psbtMagic)
	if b64 {
		raw = bytes.TrimSpace(raw)
	}

	return guard.DecodeTransaction(bytes.NewReader(raw), b64, net)
}

// validateAll decodes and validates every source concurrently. Results are
// in source order.
func validateAll(sources []source, cfg *config,
	oracle guard.AccountOwnershipOracle) []*result {

	results := make([]*result, len(sources))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for i, src := range sources {
		g.Go(func() error {
			res := &result{name: src.name}
			results[i] = res

			tx, err := decodeSource(src, cfg.net)
			if err != nil {
				log.Warnf("Unable to decode %s: %v", src.name, err)
				res.err = err

				return nil
			}

			validator := guard.NewValidator(
				tx, guard.WithFeeThreshold(cfg.feeThreshold()),
			)
			res.summary = validator.Summary()
			res.err = validator.Validate(oracle)

			return nil
		})
	}

	// Failures are recorded per result, so the group never errors.
	_ = g.Wait()

	return results
}
