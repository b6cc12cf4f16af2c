package main

import (
	"fmt"
	"os"

	"github.com/aretw0/cadence"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a document for consistency",
	Long: `Loads the document, compiles every expression and verifies that all
references resolve and the dependency graph is acyclic.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Document is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	_, err := loadEngine(cmd, args)
	return err
}

// loadEngine resolves the document path from the positional argument or the
// --file flag and builds an engine from it.
func loadEngine(cmd *cobra.Command, args []string) (*cadence.Engine, error) {
	path, _ := cmd.Flags().GetString("file")
	if len(args) > 0 {
		path = args[0]
	}
	eng, err := cadence.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return eng, nil
}
