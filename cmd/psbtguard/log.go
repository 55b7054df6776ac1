// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/btcsuite/btclog"
	"github.com/btcsuite/psbtguard/guard"
	"github.com/btcsuite/psbtguard/keyring"
	"github.com/jrick/logrotate/rotator"
)

// logWriter implements an io.Writer that outputs to both stderr and the
// write-end pipe of an initialized log rotator. Stdout is reserved for the
// report.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stderr.Write(p)
	if logPipe != nil {
		logPipe.Write(p)
	}

	return len(p), nil
}

var (
	// backendLog is the logging backend used to create all subsystem
	// loggers. It must not be used before the log rotator has been
	// initialized, or data races and/or nil pointer dereferences will
	// occur.
	backendLog = btclog.NewBackend(logWriter{})

	// logRotator is one of the logging outputs. It should be closed on
	// application shutdown.
	logRotator *rotator.Rotator

	// logPipe is the write end of the pipe feeding logRotator.
	logPipe *io.PipeWriter

	log      = backendLog.Logger("PGRD")
	guardLog = backendLog.Logger("GRDV")
	krngLog  = backendLog.Logger("KRNG")
)

// Initialize package-global logger variables.
func init() {
	guard.UseLogger(guardLog)
	keyring.UseLogger(krngLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]btclog.Logger{
	"PGRD": log,
	"GRDV": guardLog,
	"KRNG": krngLog,
}

// initLogRotator initializes the logging rotator to write logs to logFile and
// create roll files in the same directory. It must be called before the
// package-global log rotator variables are used.
func initLogRotator(logFile string, maxSizeMB, maxFiles int) error {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	r, err := rotator.New(logFile, int64(maxSizeMB*1024), false, maxFiles)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}

	pr, pw := io.Pipe()
	go func() {
		if err := r.Run(pr); err != nil {
			_, _ = fmt.Fprintf(os.Stderr,
				"failed to run file rotator: %v\n", err)
		}
	}()

	logRotator = r
	logPipe = pw

	return nil
}

// closeLogRotator flushes and closes the log file, if any.
func closeLogRotator() {
	if logPipe != nil {
		_ = logPipe.Close()
	}

	if logRotator != nil {
		_ = logRotator.Close()
	}
}

// supportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func supportedSubsystems() []string {
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}

	sort.Strings(subsystems)

	return subsystems
}

// setLogLevels parses a --debuglevel value and applies it. The value is
// either a single level for every subsystem or a comma separated list of
// subsystem=level pairs.
func setLogLevels(debugLevel string) error {
	if !strings.Contains(debugLevel, "=") {
		level, ok := btclog.LevelFromString(debugLevel)
		if !ok {
			return fmt.Errorf("invalid debug level %q", debugLevel)
		}

		for _, logger := range subsystemLoggers {
			logger.SetLevel(level)
		}

		return nil
	}

	for _, pair := range strings.Split(debugLevel, ",") {
		subsysID, levelStr, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid subsystem level pair %q",
				pair)
		}

		logger, ok := subsystemLoggers[subsysID]
		if !ok {
			return fmt.Errorf("unknown subsystem %q, supported "+
				"subsystems: %v", subsysID,
				supportedSubsystems())
		}

		level, ok := btclog.LevelFromString(levelStr)
		if !ok {
			return fmt.Errorf("invalid debug level %q for %s",
				levelStr, subsysID)
		}

		logger.SetLevel(level)
	}

	return nil
}
