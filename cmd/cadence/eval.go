package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/aretw0/cadence/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval [file]",
	Short: "Evaluate every variable of every entity",
	Long:  `Loads the document and prints the evaluated value of every variable, entity by entity.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runEval(cmd, args); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().Bool("plain", false, "Skip terminal styling")
}

func runEval(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine(cmd, args)
	if err != nil {
		return err
	}
	values, err := eng.EvaluateAll()
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("| Entity | Variable | Value |\n|---|---|---|\n")
	ids := eng.IDs()
	for _, id := range ids {
		entityValues := values[id]
		names := make([]string, 0, len(entityValues))
		for name := range entityValues {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			value := entityValues[name]
			rendered := value.Text
			if value.IsNumber() {
				rendered = value.Number.String()
			}
			sb.WriteString(fmt.Sprintf("| e%d | %s | %s |\n", id, name, rendered))
		}
	}

	plain, _ := cmd.Flags().GetBool("plain")
	if plain {
		fmt.Print(sb.String())
		return nil
	}

	render := tui.NewRenderer()
	out, err := render(sb.String())
	if err != nil {
		fmt.Print(sb.String())
		return nil
	}
	fmt.Print(out)
	return nil
}
