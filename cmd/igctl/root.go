package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	config "github.com/maheshrc27/igscheduler/configs"
)

var globalConfig *config.Config
var globalDB *sql.DB

var rootCmd = &cobra.Command{
	Use:   "igctl",
	Short: "Administer the Instagram scheduler",
	Long:  "Apply the schema, connect Instagram accounts and mint session tokens.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}
		_ = godotenv.Load()

		globalConfig = config.LoadConfig()
		if globalConfig.SecretKey == "" {
			return errors.New("SECRET_KEY is required")
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if globalDB != nil {
			_ = globalDB.Close()
			globalDB = nil
		}
		return nil
	},
	SilenceUsage: true,
}

// openDB connects to POSTGRES_URI for commands that need the database.
func openDB() (*sql.DB, error) {
	if globalDB != nil {
		return globalDB, nil
	}
	if globalConfig.PostgresURI == "" {
		return nil, errors.New("POSTGRES_URI is required")
	}

	db, err := sql.Open("postgres", globalConfig.PostgresURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database is unreachable: %w", err)
	}
	globalDB = db
	return db, nil
}
