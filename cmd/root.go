// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lanescope/lanescope/internal/config"
	"github.com/lanescope/lanescope/internal/log"
)

var configFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lanescope",
	Short: "Lanescope - PCIe link capture decoder",
	Long: `Lanescope decodes physical-layer PCIe link captures: capture record
envelopes, TLP/DLLP/ordered-set frames, link and end-to-end CRCs, and
request/completion transactions. NetTLP captures tunneled over UDP are
decoded the same way.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path")
}

// loadConfig loads the config file, or defaults when no file was given,
// and initializes logging.
func loadConfig() (*config.GlobalConfig, error) {
	var (
		cfg *config.GlobalConfig
		err error
	)
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}
	if err := log.Init(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
