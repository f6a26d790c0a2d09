package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"kanri/internal/view"
)

var changelogCmd = &cobra.Command{
	Use:   "changelog <project> [version]",
	Short: "Render a markdown changelog for a release",
	Long: `Render a markdown changelog from the done tasks attached to a release.
Without a version the latest release of the project is used.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runChangelog,
}

func runChangelog(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("project %q has no releases", project.Name)
	}

	release := releases[len(releases)-1]
	if len(args) > 1 {
		release, err = findRelease(releases, args[1], project.Name)
		if err != nil {
			return err
		}
	}

	out := view.Changelog(release, a.Tasks.ProjectTasks(project.ID), a.Projects.Statuses(project.ID))
	fmt.Println(out)
	return nil
}
