// Command placementctl runs database migrations and account maintenance
// against the placement portal database.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var dbURL string

var rootCmd = &cobra.Command{
	Use:          "placementctl",
	Short:        "Placement portal maintenance tool",
	Long:         "placementctl applies schema migrations and manages administrator accounts for the placement portal.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "Database URL (defaults to DATABASE_URL)")
}

func databaseURL() (string, error) {
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		return "", fmt.Errorf("DATABASE_URL not set (set DATABASE_URL environment variable or use --db-url flag)")
	}
	return dbURL, nil
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
