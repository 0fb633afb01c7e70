package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lanescope/lanescope/internal/session"
)

var statsCmd = &cobra.Command{
	Use:   "stats <file.pcap>",
	Short: "Summarize a capture file",
	Long: `Decode a capture file without reporting individual records and print
frame counts (TLPs, DLLPs, ordered sets, decode errors, warnings) and
completion latency over matched request/completion pairs.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			exitWithError("failed to load config", err)
		}

		opts := session.Options{Track: cfg.Decode.Track, Meta: false}
		runner := session.NewRunner(opts, false, nil)
		if err := runner.Run(cmd.Context(), args[0]); err != nil {
			exitWithError("decode failed", err)
		}

		out, err := json.MarshalIndent(runner.Stats(), "", "  ")
		if err != nil {
			exitWithError("failed to format result", err)
		}
		fmt.Println(string(out))
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
