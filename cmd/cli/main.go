// Command cseport lista las cotizaciones de la Bolsa de Casablanca y analiza un
// portafolio desde la terminal.
package main

import (
	"os"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/config"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/logging"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	envFile  string
	logLevel string
	cfg      *config.Config
)

// newQuoteService se reemplaza en los tests.
var newQuoteService = func(cfg *config.Config, store services.QuoteStore) (*services.QuoteService, func() error, error) {
	return services.NewQuoteServiceFromConfig(cfg, store, nil, nil)
}

var rootCmd = &cobra.Command{
	Use:           "cseport",
	Short:         "Casablanca Stock Exchange portfolio tools",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		var err error
		if cfg, err = config.Load(files...); err != nil {
			return err
		}
		logging.SetupWriter(cmd.ErrOrStderr(), logLevel, "console")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "dotenv file to load (default .env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("cseport failed")
		os.Exit(1)
	}
}
