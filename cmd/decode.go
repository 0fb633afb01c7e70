package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lanescope/lanescope/internal/config"
	"github.com/lanescope/lanescope/internal/core"
	"github.com/lanescope/lanescope/internal/session"
	"github.com/lanescope/lanescope/pkg/plugin"
)

var replay bool

var decodeCmd = &cobra.Command{
	Use:   "decode <file.pcap>",
	Short: "Decode a capture file",
	Long: `
Decode every record in a capture file and print the results through the
configured reporters.

Examples:
  lanescope decode capture.pcap              # Decode with the console reporter
  lanescope decode capture.pcap --replay     # Two passes, so requests link to later completions
  lanescope decode -c config.yml nettlp.pcap # Decode with reporters from config.yml
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			exitWithError("failed to load config", err)
		}
		if replay {
			cfg.Decode.Replay = true
		}

		reporters, err := buildReporters(cfg.Reporters)
		if err != nil {
			exitWithError("failed to build reporters", err)
		}

		opts := session.Options{Track: cfg.Decode.Track, Meta: cfg.Decode.Meta}
		runner := session.NewRunner(opts, cfg.Decode.Replay, reporters)
		if err := runner.Run(cmd.Context(), args[0]); err != nil {
			exitWithError("decode failed", err)
		}
	},
}

func buildReporters(cfgs []config.ReporterConfig) ([]plugin.Reporter, error) {
	reporters := make([]plugin.Reporter, 0, len(cfgs))
	for _, rc := range cfgs {
		factory, err := plugin.GetReporterFactory(rc.Type)
		if err != nil {
			return nil, err
		}
		rep := factory()
		if err := rep.Init(rc.Options); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", core.ErrPluginInitFailed, rc.Type, err)
		}
		reporters = append(reporters, rep)
	}
	return reporters, nil
}

func init() {
	decodeCmd.Flags().BoolVar(&replay, "replay", false, "read the file twice so request records link to their completions")
	rootCmd.AddCommand(decodeCmd)
}
