package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/analytics"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/database"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/report"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/repository"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/services"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	analyzeFile    string
	analyzeRaw     bool
	analyzeJSON    bool
	analyzeHistory bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse the positions of a YAML portfolio file",
	Long: `Analyse a portfolio at the current quotes and print the report.

The file lists the positions:

  positions:
    - symbol: ATW
      quantity: 10
      buy_price: 450.5

Examples:
  cseport analyze -f portfolio.yaml
  cseport analyze -f portfolio.yaml --raw
  cseport analyze -f portfolio.yaml --history`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "portfolio.yaml", "portfolio file")
	analyzeCmd.Flags().BoolVar(&analyzeRaw, "raw", false, "print the markdown without rendering it")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the metrics as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeHistory, "history", false, "measure the ratios from the prices stored in DATABASE_URL")
}

type portfolioFile struct {
	Positions []models.Position `yaml:"positions"`
}

func readPortfolioFile(path string) ([]models.Position, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f portfolioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f.Positions, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	positions, err := readPortfolioFile(analyzeFile)
	if err != nil {
		return err
	}

	var store services.QuoteStore
	if analyzeHistory {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		store = repository.NewQuoteSnapshotRepository(db)
	}

	qs, closeCache, err := newQuoteService(cfg, store)
	if err != nil {
		return err
	}
	defer closeCache()

	quotes, err := qs.QuoteMap(cmd.Context())
	if err != nil {
		return err
	}
	history, err := qs.History(365)
	if err != nil {
		return err
	}

	m, err := analytics.Analyze(positions, quotes, history, analytics.Options{
		RiskFreeRate: cfg.RiskFreeRate,
		MaxPositions: qs.Catalog().Len(),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}

	markdown := report.Markdown(m)
	if analyzeRaw {
		_, err := fmt.Fprint(out, markdown)
		return err
	}

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return err
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}
