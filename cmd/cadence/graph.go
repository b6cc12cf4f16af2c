package main

import (
	"fmt"
	"os"

	"github.com/aretw0/cadence/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [file]",
	Short: "Export the dependency graph visualization",
	Long:  `Loads the document and outputs a Mermaid diagram (graph TD) of its dependency structure.`,
	Run: func(cmd *cobra.Command, args []string) {
		eng, err := loadEngine(cmd, args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		deps := make(map[int][]int)
		for _, id := range eng.IDs() {
			targets, err := eng.DirectDependencies(id)
			if err != nil {
				fmt.Printf("Error inspecting graph: %v\n", err)
				os.Exit(1)
			}
			deps[id] = targets
		}

		fmt.Print(graph.GenerateMermaid(eng.Snapshot(), deps, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
