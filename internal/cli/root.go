package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kanri",
	Short: "Personal project and job-hunt tracker",
	Long:  "kanri is a kanban-style tracker for projects, tasks and the job hunt,\nwith boards, releases, recurring tasks and a daily triage view.",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(workspaceCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(changelogCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
