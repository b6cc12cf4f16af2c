package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Cadence is a reactive expression engine for musical parameters",
	Long: `Cadence keeps a tree of musical entities whose variables are arithmetic
expressions over other entities, and keeps every derived value consistent
as the tree is edited.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("file", "f", "cadence.yaml", "Document to operate on")
}
