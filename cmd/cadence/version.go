package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/cadence"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of cadence",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cadence version %s\n", strings.TrimSpace(cadence.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
