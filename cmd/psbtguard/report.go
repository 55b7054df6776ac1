// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

const (
	verdictAccepted = "accepted"
	verdictRejected = "REJECTED"

	// belowRelayNote flags a fee rate nodes won't relay.
	belowRelayNote = "(below relay minimum)"
)

// renderReport writes one table per result: what the PSBT spends, where it
// pays and whether it may be signed.
func renderReport(w io.Writer, results []*result) error {
	for _, res := range results {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.SetTitle(res.name)

		t.AppendRows(summaryRows(res))
		t.AppendSeparator()
		t.AppendRow(table.Row{"Verdict", verdict(res)})

		t.Render()

		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	return nil
}

// verdict renders the outcome of a result.
func verdict(res *result) string {
	if res.err == nil {
		return verdictAccepted
	}

	return fmt.Sprintf("%s: %v", verdictRejected, res.err)
}

// summaryRows renders the economic summary of a result. Values that can't
// be computed are shown as the error that prevented it.
func summaryRows(res *result) []table.Row {
	s := res.summary
	if s == nil {
		return nil
	}

	orErr := func(v any, err error) any {
		if err != nil {
			return fmt.Sprintf("unknown (%v)", err)
		}

		return v
	}

	inputAmount, inputErr := s.InputAmount()
	fee, feeErr := s.Fee()
	feeRate, feeRateErr := s.FeeRate()
	from, fromErr := s.FromAddresses()

	feeRateCell := orErr(feeRate, feeRateErr)
	if below, err := s.BelowRelayFloor(); err == nil && below {
		feeRateCell = fmt.Sprintf("%v %s", feeRate, belowRelayNote)
	}

	rows := []table.Row{
		{"Input amount", orErr(inputAmount, inputErr)},
		{"Output amount", s.OutputAmount()},
		{"Send amount", s.SendAmount()},
		{"Fee", orErr(fee, feeErr)},
		{"Estimated size", s.EstimatedVSize()},
		{"Fee rate", feeRateCell},
		{"From", orErr(strings.Join(from, "\n"), fromErr)},
		{"To", strings.Join(s.ToAddresses(), "\n")},
		{"Change", strings.Join(s.ChangeAddresses(), "\n")},
	}

	if dust := s.DustOutputs(); len(dust) > 0 {
		rows = append(rows, table.Row{
			"Dust outputs", fmt.Sprint(dust),
		})
	}

	return rows
}
