// Package report renders scan results as aligned text for the console.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"screener-systemv1/internal/model"
	"screener-systemv1/internal/scanner"
)

// Write renders every confirmed signal as one aligned row, grouped by
// detector family so the column sets stay uniform, symbols ascending.
func Write(w io.Writer, results map[string][]model.Signal) error {
	symbols := scanner.Symbols(results)
	if len(symbols) == 0 {
		_, err := fmt.Fprintln(w, "no signals")
		return err
	}

	var tails, divergences []model.Signal
	for _, symbol := range symbols {
		for _, s := range results[symbol] {
			if s.Kind.Tail() {
				tails = append(tails, s)
			} else {
				divergences = append(divergences, s)
			}
		}
	}

	if err := writeGroup(w, tails); err != nil {
		return err
	}
	return writeGroup(w, divergences)
}

func writeGroup(w io.Writer, signals []model.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, f := range signals[0].Fields() {
		fmt.Fprintf(tw, "%s\t", f.Name)
	}
	fmt.Fprintln(tw)

	for _, s := range signals {
		for _, f := range s.Fields() {
			fmt.Fprintf(tw, "%s\t", f.Value)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
