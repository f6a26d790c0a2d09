package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kanri/internal/app"
	"kanri/internal/config"
	"kanri/internal/model"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize kanri in the current directory",
	Long:  "Creates a .kanri/ directory with default config, database and a starter workspace.",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(kanriDirName); err == nil {
		return fmt.Errorf("kanri already initialized in this directory (.kanri/ exists)")
	}
	if err := os.MkdirAll(kanriDirName, 0755); err != nil {
		return fmt.Errorf("create %s: %w", kanriDirName, err)
	}

	cfg := config.DefaultConfig(kanriDirName)
	if err := config.Save(kanriPath("config.yaml"), cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	// Opening the session runs the database migration; seed one workspace
	// so the first task has somewhere to live.
	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	defer a.Close()

	ctx := context.Background()
	ws, err := a.Projects.CreateWorkspace(ctx, "Personal", "")
	if err != nil {
		return fmt.Errorf("seed workspace: %w", err)
	}
	if _, err := a.Projects.CreateProject(ctx, ws.ID, "Inbox", model.ProjectGeneral); err != nil {
		return fmt.Errorf("seed project: %w", err)
	}

	fmt.Println("Initialized kanri in .kanri/")
	fmt.Println("")
	fmt.Println("Next steps:")
	fmt.Println("  1. kanri task add \"your first task #Inbox\"")
	fmt.Println("  2. kanri board")
	fmt.Println("  3. kanri today")

	return nil
}
