package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kanri/internal/model"
	"kanri/internal/remote"
	"kanri/internal/view"
)

var (
	jobsInterest string
	jobsPosition string
	jobsURL      string
	jobsNote     string
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Track the job hunt",
	Long:  "Manage studio applications through the hiring funnel:\n  studios -> applied -> interviewing -> offer -> closed",
}

var jobsAddCmd = &cobra.Command{
	Use:   "add [studio]",
	Short: "Add a studio to the funnel",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runJobsAdd,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the funnel grouped by stage",
	RunE:  runJobsList,
}

var jobsMoveCmd = &cobra.Command{
	Use:   "move [studio] [stage]",
	Short: "Move an application to another stage",
	Args:  cobra.ExactArgs(2),
	RunE:  runJobsMove,
}

var jobsPinCmd = &cobra.Command{
	Use:   "pin [studio]",
	Short: "Toggle an application's pin",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsPin,
}

var jobsTimelineCmd = &cobra.Command{
	Use:   "timeline [studio]",
	Short: "Show an application's stage history",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsTimeline,
}

var jobsArchiveCmd = &cobra.Command{
	Use:   "archive [studio]",
	Short: "Archive an application (soft delete)",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsArchive,
}

var jobsUpdateCmd = &cobra.Command{
	Use:   "update [studio]",
	Short: "Update application fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsUpdate,
}

var (
	jobsNewInterest string
	jobsNewPosition string
	jobsNewURL      string
	jobsContact     string
	jobsNextAction  string
)

func init() {
	jobsAddCmd.Flags().StringVarP(&jobsInterest, "interest", "i", "medium", "Interest: high, medium, low")
	jobsAddCmd.Flags().StringVar(&jobsPosition, "position", "", "Position applied for")
	jobsAddCmd.Flags().StringVar(&jobsURL, "url", "", "Job posting URL")
	jobsMoveCmd.Flags().StringVarP(&jobsNote, "note", "n", "", "Note for the timeline entry")

	jobsUpdateCmd.Flags().StringVarP(&jobsNewInterest, "interest", "i", "", "Interest: high, medium, low")
	jobsUpdateCmd.Flags().StringVar(&jobsNewPosition, "position", "", "Position applied for")
	jobsUpdateCmd.Flags().StringVar(&jobsNewURL, "url", "", "Job posting URL")
	jobsUpdateCmd.Flags().StringVar(&jobsContact, "contact", "", "Contact person")
	jobsUpdateCmd.Flags().StringVar(&jobsNextAction, "next", "", "Next action date YYYY-MM-DD, or 'none' to clear")

	jobsCmd.AddCommand(jobsAddCmd)
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsMoveCmd)
	jobsCmd.AddCommand(jobsPinCmd)
	jobsCmd.AddCommand(jobsTimelineCmd)
	jobsCmd.AddCommand(jobsArchiveCmd)
	jobsCmd.AddCommand(jobsUpdateCmd)
}

func runJobsAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	app := model.JobApplication{
		StudioName: strings.Join(args, " "),
		Interest:   model.InterestLevel(jobsInterest),
	}
	if jobsPosition != "" {
		app.Position = &jobsPosition
	}
	if jobsURL != "" {
		app.JobURL = &jobsURL
	}

	created, err := a.Jobs.Create(ctx, app)
	if err != nil {
		printToasts(a)
		return err
	}
	fmt.Printf("Added %s to the funnel [%s]\n", created.StudioName, created.Stage)
	printToasts(a)
	return nil
}

func runJobsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	stages := view.ApplicationsByStage(a.Jobs.Applications())
	empty := true
	for _, stage := range model.JobStages {
		apps := stages[stage]
		if len(apps) == 0 {
			continue
		}
		empty = false
		fmt.Printf("%s%s%s (%d)\n", colorBold, strings.ToUpper(string(stage)), colorReset, len(apps))
		for _, app := range apps {
			pin := "  "
			if app.Pinned {
				pin = "* "
			}
			pos := ""
			if app.Position != nil {
				pos = " - " + *app.Position
			}
			fmt.Printf("  %s%s [%s]%s\n", pin, app.StudioName, app.Interest, pos)
		}
	}
	if empty {
		fmt.Println("Funnel is empty. Add a studio: kanri jobs add \"name\"")
	}
	return nil
}

func runJobsMove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	application, err := resolveApplication(a, args[0])
	if err != nil {
		return err
	}
	stage := model.JobStage(strings.ToLower(args[1]))
	valid := false
	for _, s := range model.JobStages {
		if s == stage {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("stage must be one of: studios, applied, interviewing, offer, closed")
	}

	var note *string
	if jobsNote != "" {
		note = &jobsNote
	}
	a.Jobs.MoveToStage(application.ID, stage, note)
	a.Jobs.Wait()
	fmt.Printf("%s -> %s\n", application.StudioName, stage)
	printToasts(a)
	return nil
}

func runJobsPin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	application, err := resolveApplication(a, args[0])
	if err != nil {
		return err
	}
	a.Jobs.TogglePin(application.ID)
	a.Jobs.Wait()
	updated, _ := a.Jobs.Application(application.ID)
	if updated.Pinned {
		fmt.Printf("Pinned %s\n", updated.StudioName)
	} else {
		fmt.Printf("Unpinned %s\n", updated.StudioName)
	}
	return nil
}

func runJobsTimeline(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	application, err := resolveApplication(a, args[0])
	if err != nil {
		return err
	}
	entries := a.Jobs.Timeline(application.ID)
	if len(entries) == 0 {
		fmt.Println("No timeline yet.")
		return nil
	}
	fmt.Printf("%s%s%s\n", colorBold, application.StudioName, colorReset)
	for _, e := range entries {
		from := "(created)"
		if e.FromStage != nil {
			from = *e.FromStage + " ->"
		}
		note := ""
		if e.Note != nil {
			note = "  " + *e.Note
		}
		fmt.Printf("  %s  %s %s%s\n", e.CreatedAt, from, e.ToStage, note)
	}
	return nil
}

func runJobsArchive(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	application, err := resolveApplication(a, args[0])
	if err != nil {
		return err
	}
	a.Jobs.Archive(application.ID)
	fmt.Printf("Archived %s\n", application.StudioName)
	return nil
}

func runJobsUpdate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	application, err := resolveApplication(a, args[0])
	if err != nil {
		return err
	}

	changes := remote.Row{}
	if jobsNewInterest != "" {
		switch jobsNewInterest {
		case "high", "medium", "low":
		default:
			return fmt.Errorf("interest must be high, medium or low")
		}
		changes["interest"] = jobsNewInterest
	}
	if jobsNewPosition != "" {
		changes["position"] = jobsNewPosition
	}
	if jobsNewURL != "" {
		changes["job_url"] = jobsNewURL
	}
	if jobsContact != "" {
		changes["contact_person"] = jobsContact
	}
	switch jobsNextAction {
	case "":
	case "none":
		changes["next_action_date"] = nil
	default:
		changes["next_action_date"] = jobsNextAction
	}
	if len(changes) == 0 {
		return fmt.Errorf("nothing to update; see kanri jobs update --help")
	}

	a.Jobs.Update(application.ID, changes)
	a.Jobs.Wait()
	fmt.Printf("Updated %s\n", application.StudioName)
	printToasts(a)
	return nil
}
