package main

import (
	"fmt"
	"strings"
	"time"

	"irportal/internal/auth"
	"irportal/internal/model"
	"irportal/internal/notify"
	"irportal/internal/service"

	"github.com/spf13/cobra"
)

var (
	adminEmail    string
	adminPassword string
)

// createAdminCmd creates or promotes an admin account from the console
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create or promote an admin account",
	Long: `Create an admin account, or promote an existing account to admin.

When --password is given it replaces the stored password.`,
	RunE: runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email address")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "password (at least 8 characters)")
	_ = createAdminCmd.MarkFlagRequired("email")
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, err := model.InitRepository(cmd.Context(), &cfg)
	if err != nil {
		logger.WithError(err).Error("failed to initialise repository")
		return err
	}
	defer repo.Close()

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(notify.NewLogNotifier(logger), time.Second, logger)
	defer dispatcher.Wait()

	authSvc := service.NewAuthService(cfg, repo, tokens, dispatcher)
	user, err := authSvc.EnsureAdmin(cmd.Context(), strings.TrimSpace(adminEmail), adminPassword)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "admin ready: %s (id %d)\n", user.Email, user.ID)
	return nil
}
