package main

import (
	"os"

	"irportal/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootCmd is the irportal entry point
var rootCmd = &cobra.Command{
	Use:   "irportal",
	Short: "Investor relations portal server",
	Long: `irportal serves the investor relations site and its API.

Available subcommands:
  serve        - Run the HTTP server
  migrate      - Apply database migrations and exit
  create-admin - Create or promote an admin account`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger 初始化logger，同时设置全局 logrus
func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)
	return logger
}

// loadConfig 解析配置，失败时拒绝启动
func loadConfig() (config.Config, error) {
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		return config.Config{}, err
	}
	return cfg, nil
}
