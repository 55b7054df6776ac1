// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"testing"

	"github.com/btcsuite/psbtguard/guard"
	"github.com/btcsuite/psbtguard/internal/psbttest"
	"github.com/stretchr/testify/require"
)

// TestRenderReportRelayFloor checks that a fee rate under the default relay
// minimum is flagged in the report.
func TestRenderReportRelayFloor(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		fee      int64
		expected bool
	}{
		{
			name:     "relayable fee",
			fee:      5_000,
			expected: false,
		},
		{
			name:     "fee below relay minimum",
			fee:      10,
			expected: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Arrange: A single output spend paying tc.fee.
			pkScript := psbttest.P2WPKH(t, psbttest.PrivKey(8).PubKey())
			packet := psbttest.Packet(t, []psbttest.Input{{
				Value:    40_000 + tc.fee,
				PkScript: pkScript,
			}}, []psbttest.Output{{
				Value:    40_000,
				PkScript: pkScript,
			}})

			tx, err := guard.NewTransaction(packet, guard.TestNet)
			require.NoError(t, err)

			res := &result{
				name:    "psbt",
				summary: guard.NewSummary(tx),
			}

			// Act: Render the report.
			var out bytes.Buffer
			err = renderReport(&out, []*result{res})

			// Assert: Only the low fee rate carries the note.
			require.NoError(t, err)
			if tc.expected {
				require.Contains(t, out.String(), belowRelayNote)
			} else {
				require.NotContains(t, out.String(), belowRelayNote)
			}
		})
	}
}
