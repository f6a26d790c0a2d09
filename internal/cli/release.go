package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kanri/internal/model"
	"kanri/internal/remote"
	"kanri/internal/view"
)

var releaseTitle string

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Manage project releases",
}

var releaseAddCmd = &cobra.Command{
	Use:   "add [project] [version]",
	Short: "Create a draft release",
	Args:  cobra.ExactArgs(2),
	RunE:  runReleaseAdd,
}

var releaseListCmd = &cobra.Command{
	Use:   "list [project]",
	Short: "List a project's releases",
	Args:  cobra.ExactArgs(1),
	RunE:  runReleaseList,
}

var releaseShipCmd = &cobra.Command{
	Use:   "ship [project] [version]",
	Short: "Mark a release as shipped and freeze its changelog",
	Args:  cobra.ExactArgs(2),
	RunE:  runReleaseShip,
}

var releaseDeleteCmd = &cobra.Command{
	Use:   "delete [project] [version]",
	Short: "Delete a release, detaching its tasks",
	Args:  cobra.ExactArgs(2),
	RunE:  runReleaseDelete,
}

func init() {
	releaseAddCmd.Flags().StringVarP(&releaseTitle, "title", "t", "", "Release title")

	releaseCmd.AddCommand(releaseAddCmd)
	releaseCmd.AddCommand(releaseListCmd)
	releaseCmd.AddCommand(releaseShipCmd)
	releaseCmd.AddCommand(releaseDeleteCmd)
}

func runReleaseAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	project, err := resolveProject(a, args[0])
	if err != nil {
		return err
	}
	var title *string
	if releaseTitle != "" {
		title = &releaseTitle
	}
	r, err := a.Projects.CreateRelease(ctx, project.ID, args[1], title)
	if err != nil {
		return err
	}
	fmt.Printf("Created release %s on %s\n", r.Version, project.Name)
	return nil
}

func runReleaseList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	project, err := resolveProject(a, args[0])
	if err != nil {
		return err
	}
	releases := a.Projects.Releases(project.ID)
	if len(releases) == 0 {
		fmt.Printf("No releases on %s. Create one: kanri release add %s v0.1.0\n", project.Name, project.Name)
		return nil
	}
	for _, r := range releases {
		line := fmt.Sprintf("%s  %-12s %s", shortID(r.ID), r.Version, r.Status)
		if r.Title != nil {
			line += "  " + *r.Title
		}
		if r.ReleasedDate != nil {
			line += fmt.Sprintf("  %s(shipped %s)%s", colorDim, *r.ReleasedDate, colorReset)
		}
		fmt.Println(line)
	}
	return nil
}

func runReleaseShip(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	project, err := resolveProject(a, args[0])
	if err != nil {
		return err
	}
	release, err := findRelease(a.Projects.Releases(project.ID), args[1], project.Name)
	if err != nil {
		return err
	}

	changelog := view.Changelog(release, a.Tasks.ProjectTasks(project.ID), a.Projects.Statuses(project.ID))
	today := time.Now().Format("2006-01-02")
	err = a.Projects.UpdateRelease(ctx, release.ID, remote.Row{
		"status":        string(model.ReleaseReleased),
		"released_date": today,
		"changelog_md":  changelog,
	})
	if err != nil {
		return err
	}
	fmt.Printf("%sShipped %s %s%s\n\n", colorGreen, project.Name, release.Version, colorReset)
	fmt.Println(changelog)
	return nil
}

func runReleaseDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	project, err := resolveProject(a, args[0])
	if err != nil {
		return err
	}
	release, err := findRelease(a.Projects.Releases(project.ID), args[1], project.Name)
	if err != nil {
		return err
	}
	if err := a.Projects.DeleteRelease(ctx, release.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted release %s from %s\n", release.Version, project.Name)
	return nil
}

func findRelease(releases []model.Release, version, projectName string) (model.Release, error) {
	for _, r := range releases {
		if r.Version == version {
			return r, nil
		}
	}
	return model.Release{}, fmt.Errorf("no release %q in project %q", version, projectName)
}
