package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/cadence/internal/adapters/redis"
	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Push, pull and list documents in a Redis store",
}

var storePushCmd = &cobra.Command{
	Use:   "push <name> [file]",
	Short: "Validate a document and store it under a name",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eng, err := loadEngine(cmd, args[1:])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		store := storeFromFlags(cmd)
		defer store.Close()
		if err := store.Save(context.Background(), args[0], eng.Snapshot()); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Pushed %q\n", args[0])
	},
}

var storePullCmd = &cobra.Command{
	Use:   "pull <name>",
	Short: "Fetch a stored document and write it to --file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := storeFromFlags(cmd)
		defer store.Close()
		doc, err := store.Load(context.Background(), args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		data, err := doc.Marshal()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		path, _ := cmd.Flags().GetString("file")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Pulled %q into %s\n", args[0], path)
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	Run: func(cmd *cobra.Command, args []string) {
		store := storeFromFlags(cmd)
		defer store.Close()
		names, err := store.List(context.Background())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		for _, name := range names {
			fmt.Println(name)
		}
	},
}

func storeFromFlags(cmd *cobra.Command) *redis.DocumentStore {
	addr, _ := cmd.Flags().GetString("redis")
	password, _ := cmd.Flags().GetString("redis-password")
	db, _ := cmd.Flags().GetInt("redis-db")
	return redis.New(addr, password, db)
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storePushCmd, storePullCmd, storeListCmd)
	storeCmd.PersistentFlags().String("redis", "localhost:6379", "Redis address")
	storeCmd.PersistentFlags().String("redis-password", "", "Redis password")
	storeCmd.PersistentFlags().Int("redis-db", 0, "Redis database number")
}
