package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

var rebaseCmd = &cobra.Command{
	Use:   "rebase [file] [entity]",
	Short: "Rewrite expressions to be root-relative",
	Long: `Loads the document and rewrites expression variables so they read only
from the root entity, preserving every evaluated value. With an entity id,
only that entity is rebased; otherwise the whole module is. The result is
written back in place unless --dry-run is set.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRebase(cmd, args); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(rebaseCmd)
	rebaseCmd.Flags().Bool("dry-run", false, "Report the outcome without writing the document back")
}

func runRebase(cmd *cobra.Command, args []string) error {
	var entityArgs []string
	target := -1
	for _, arg := range args {
		if id, err := strconv.Atoi(arg); err == nil {
			target = id
		} else {
			entityArgs = append(entityArgs, arg)
		}
	}

	eng, err := loadEngine(cmd, entityArgs)
	if err != nil {
		return err
	}

	exact, fallback := 0, 0
	if target >= 0 {
		counts, err := eng.RebaseToRoot(target)
		if err != nil {
			return err
		}
		exact, fallback = counts.Exact, counts.Fallback
	} else {
		report, err := eng.RebaseModule()
		if err != nil {
			return err
		}
		exact, fallback = report.Exact, report.Fallback

		ids := make([]int, 0, len(report.PerEntity))
		for id := range report.PerEntity {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			counts := report.PerEntity[id]
			if counts.Exact+counts.Fallback > 0 {
				fmt.Printf("e%d: %d rewritten, %d snapshotted\n", id, counts.Exact, counts.Fallback)
			}
		}
	}
	fmt.Printf("rebase: %d rewritten, %d snapshotted\n", exact, fallback)

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		return nil
	}

	path, _ := cmd.Flags().GetString("file")
	if len(entityArgs) > 0 {
		path = entityArgs[0]
	}
	data, err := eng.Snapshot().Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
