// Package plugins registers all built-in plugins.
package plugins

import (
	"github.com/lanescope/lanescope/pkg/plugin"
	"github.com/lanescope/lanescope/plugins/reporter/console"
	"github.com/lanescope/lanescope/plugins/reporter/jsonl"
)

func init() {
	// Register reporter plugins
	plugin.RegisterReporter("console", console.NewConsoleReporter)
	plugin.RegisterReporter("jsonl", jsonl.NewJSONLReporter)
}
