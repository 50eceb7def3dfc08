// Package main is the chronodb CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCommand is the base CLI command every subcommand in this package
// registers itself against via init().
var rootCommand = &cobra.Command{
	Use:   "chronodb",
	Short: "chronodb compaction and query planning tools",
	Long:  "chronodb manages a time-series catalog and plans compaction and query work over it.",
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
