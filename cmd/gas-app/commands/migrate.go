package commands

import (
	"fmt"
	"log/slog"

	repo "github.com/iyhunko/gas-app/internal/repository/sql"
	"github.com/spf13/cobra"
)

var migrationsSource string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := repo.Connect(cmd.Context(), conf.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := repo.RunMigrations(db, migrationsSource); err != nil {
			return fmt.Errorf("error while running migrations: %w", err)
		}
		slog.Info("DB migration done", slog.String("source", migrationsSource))
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsSource, "source", repo.MigrationsSource, "Migration source URL")
	rootCmd.AddCommand(migrateCmd)
}
