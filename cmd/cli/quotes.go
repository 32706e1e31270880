package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/format"
	"github.com/spf13/cobra"
)

var quotesJSON bool

var quotesCmd = &cobra.Command{
	Use:   "quotes",
	Short: "Fetch and print the current quotes",
	RunE:  runQuotes,
}

func init() {
	rootCmd.AddCommand(quotesCmd)
	quotesCmd.Flags().BoolVar(&quotesJSON, "json", false, "print JSON")
}

func runQuotes(cmd *cobra.Command, args []string) error {
	qs, closeCache, err := newQuoteService(cfg, nil)
	if err != nil {
		return err
	}
	defer closeCache()

	result, err := qs.Refresh(cmd.Context())
	if err != nil {
		return err
	}

	if quotesJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	out := cmd.OutOrStdout()
	if result.Fallback {
		fmt.Fprintln(out, "no provider answered, showing fallback prices")
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tNAME\tSECTOR\tPRICE")
	for _, q := range result.Quotes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", q.Symbol, q.Name, q.Sector, format.MAD(q.Price))
	}
	return w.Flush()
}
