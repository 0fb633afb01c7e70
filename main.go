// Package main is the entry point for the lanescope capture decoder.
package main

import (
	"fmt"
	"os"

	"github.com/lanescope/lanescope/cmd"
	_ "github.com/lanescope/lanescope/plugins"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
