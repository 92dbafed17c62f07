/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/jabbar-dev/bnb-aimtech/internal/api"
	"github.com/jabbar-dev/bnb-aimtech/internal/assignment"
	"github.com/jabbar-dev/bnb-aimtech/internal/config"
	"github.com/jabbar-dev/bnb-aimtech/internal/database"
	"github.com/jabbar-dev/bnb-aimtech/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// assignmentsCmd represents the assignments command
var assignmentsCmd = &cobra.Command{
	Use:   "assignments",
	Short: "Manage warden assignment configs",
}

// importCmd 把 YAML 文件导入指定的分配配置表
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a warden assignment config from a YAML file",
	Long: `Import a warden assignment config from a YAML file.

The file names the source table and the approver ids per category:

  source: primary        # primary, alt or warden
  hostler: [w1, w2]
  non_hostler: [w3]

The record is appended; older records are kept and the newest one wins.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		doc, err := assignment.ParseImport(raw)
		if err != nil {
			return err
		}

		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err := api.NewLoggerFromConfig(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return err
		}
		defer database.Close(db)
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		record, err := service.NewAssignmentService(db, logger).Import(cmd.Context(), doc)
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"table":     doc.Table(),
			"config_id": record.ID,
		}).Info("assignment config imported")
		return nil
	},
}

func init() {
	assignmentsCmd.AddCommand(importCmd)
	rootCmd.AddCommand(assignmentsCmd)
}
