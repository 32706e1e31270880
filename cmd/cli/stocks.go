package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/catalog"
	"github.com/spf13/cobra"
)

var stocksCmd = &cobra.Command{
	Use:   "stocks",
	Short: "List the stocks of the catalogue",
	RunE:  runStocks,
}

func init() {
	rootCmd.AddCommand(stocksCmd)
}

func runStocks(cmd *cobra.Command, args []string) error {
	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		var err error
		if cat, err = catalog.Load(cfg.CatalogFile); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tNAME\tSECTOR")
	for _, s := range cat.Stocks() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Symbol, s.Name, s.SectorOrDefault())
	}
	return w.Flush()
}
