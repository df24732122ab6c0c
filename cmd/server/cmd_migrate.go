package main

import (
	"irportal/internal/model"

	"github.com/spf13/cobra"
)

// migrateCmd applies schema migrations and exits
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// InitRepository 会执行迁移
	repo, err := model.InitRepository(cmd.Context(), &cfg)
	if err != nil {
		logger.WithError(err).Error("migration failed")
		return err
	}
	defer repo.Close()

	logger.WithField("db_type", cfg.DBType).Info("migrations applied")
	return nil
}
