package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maheshrc27/igscheduler/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the scheduler tables",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	if err := repository.EnsureSchema(cmd.Context(), db); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
	return nil
}
