package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kanri/internal/model"
	"kanri/internal/remote"
)

var (
	projectWorkspace string
	projectType      string
)

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"ws"},
	Short:   "Manage workspaces",
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces and their projects",
	RunE:  runWorkspaceList,
}

var workspaceAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Create a workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspaceAdd,
}

var workspaceDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a workspace and everything in it",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspaceDelete,
}

var workspaceRenameCmd = &cobra.Command{
	Use:   "rename [name] [new name]",
	Short: "Rename a workspace",
	Args:  cobra.ExactArgs(2),
	RunE:  runWorkspaceRename,
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Create a project with starter board columns",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectAdd,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a project, its columns and its tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDelete,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Manage board columns",
}

var statusAddCmd = &cobra.Command{
	Use:   "add [project] [name]",
	Short: "Add a column to a project board",
	Args:  cobra.ExactArgs(2),
	RunE:  runStatusAdd,
}

var statusDeleteCmd = &cobra.Command{
	Use:   "delete [project] [name]",
	Short: "Delete a column, moving its tasks to the default column",
	Args:  cobra.ExactArgs(2),
	RunE:  runStatusDelete,
}

var statusReorderCmd = &cobra.Command{
	Use:   "reorder [project] [name...]",
	Short: "Reorder a project's columns left to right",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runStatusReorder,
}

var statusRenameCmd = &cobra.Command{
	Use:   "rename [project] [name] [new name]",
	Short: "Rename a board column",
	Args:  cobra.ExactArgs(3),
	RunE:  runStatusRename,
}

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage tags",
}

var tagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags and how many tasks carry each",
	RunE:  runTagList,
}

var tagDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a tag everywhere",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagDelete,
}

var statusCategory string

func init() {
	workspaceCmd.AddCommand(workspaceListCmd)
	workspaceCmd.AddCommand(workspaceAddCmd)
	workspaceCmd.AddCommand(workspaceDeleteCmd)
	workspaceCmd.AddCommand(workspaceRenameCmd)

	projectAddCmd.Flags().StringVarP(&projectWorkspace, "workspace", "w", "", "Workspace name (defaults to the first)")
	projectAddCmd.Flags().StringVarP(&projectType, "type", "t", "general", "Project type: art, dev, job, life, general")
	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectDeleteCmd)

	statusAddCmd.Flags().StringVarP(&statusCategory, "category", "c", "backlog", "Category: backlog, active, done")
	statusCmd.AddCommand(statusAddCmd)
	statusCmd.AddCommand(statusDeleteCmd)
	statusCmd.AddCommand(statusReorderCmd)
	statusCmd.AddCommand(statusRenameCmd)

	tagCmd.AddCommand(tagListCmd)
	tagCmd.AddCommand(tagDeleteCmd)
}

func runWorkspaceList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	workspaces := a.Projects.Workspaces()
	if len(workspaces) == 0 {
		fmt.Println("No workspaces. Create one: kanri workspace add \"name\"")
		return nil
	}
	for _, ws := range workspaces {
		fmt.Printf("%s%s%s\n", colorBold, ws.Name, colorReset)
		for _, p := range a.Projects.Projects(ws.ID) {
			count := len(a.Tasks.ProjectTasks(p.ID))
			fmt.Printf("  %-20s %-8s %d tasks\n", p.Name, p.Type, count)
		}
	}
	return nil
}

func runWorkspaceAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ws, err := a.Projects.CreateWorkspace(ctx, args[0], "")
	if err != nil {
		return err
	}
	fmt.Printf("Created workspace %s\n", ws.Name)
	return nil
}

func runWorkspaceDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, ws := range a.Projects.Workspaces() {
		if ws.Name == args[0] {
			if err := a.Projects.DeleteWorkspace(ctx, ws.ID); err != nil {
				return err
			}
			fmt.Printf("Deleted workspace %s and all its projects\n", ws.Name)
			return nil
		}
	}
	return fmt.Errorf("no workspace named %q", args[0])
}

func runProjectAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	workspaces := a.Projects.Workspaces()
	if len(workspaces) == 0 {
		return fmt.Errorf("no workspaces; run kanri workspace add first")
	}
	target := workspaces[0]
	if projectWorkspace != "" {
		found := false
		for _, ws := range workspaces {
			if ws.Name == projectWorkspace {
				target = ws
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("no workspace named %q", projectWorkspace)
		}
	}

	project, err := a.Projects.CreateProject(ctx, target.ID, args[0], model.ProjectType(projectType))
	if err != nil {
		return err
	}
	columns := a.Projects.Statuses(project.ID)
	names := make([]string, len(columns))
	for i, st := range columns {
		names[i] = st.Name
	}
	fmt.Printf("Created project %s in %s with columns: %v\n", project.Name, target.Name, names)
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
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
	if err := a.Projects.DeleteProject(ctx, project.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted project %s\n", project.Name)
	return nil
}

func runStatusAdd(cmd *cobra.Command, args []string) error {
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
	cat := model.StatusCategory(statusCategory)
	switch cat {
	case model.CategoryBacklog, model.CategoryActive, model.CategoryDone:
	default:
		return fmt.Errorf("category must be backlog, active or done")
	}

	status, err := a.Projects.CreateStatus(ctx, project.ID, args[1], "", cat)
	if err != nil {
		return err
	}
	fmt.Printf("Added column %s (%s) to %s\n", status.Name, status.Category, project.Name)
	return nil
}

func runStatusDelete(cmd *cobra.Command, args []string) error {
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
	columns := a.Projects.Statuses(project.ID)
	if len(columns) <= 1 {
		return fmt.Errorf("cannot delete the last column of a board")
	}
	for _, st := range columns {
		if st.Name == args[1] {
			if err := a.Projects.DeleteStatus(ctx, st.ID); err != nil {
				return err
			}
			fmt.Printf("Deleted column %s; its tasks moved to the default column\n", st.Name)
			return nil
		}
	}
	return fmt.Errorf("no column named %q on %s", args[1], project.Name)
}

func runStatusReorder(cmd *cobra.Command, args []string) error {
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
	columns := a.Projects.Statuses(project.ID)
	if len(args)-1 != len(columns) {
		return fmt.Errorf("board has %d columns, got %d names", len(columns), len(args)-1)
	}

	byName := make(map[string]string, len(columns))
	for _, st := range columns {
		byName[strings.ToLower(st.Name)] = st.ID
	}
	ordered := make([]string, 0, len(columns))
	for _, name := range args[1:] {
		id, ok := byName[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("no column named %q on %s", name, project.Name)
		}
		ordered = append(ordered, id)
	}

	if err := a.Projects.ReorderStatuses(ctx, project.ID, ordered); err != nil {
		return err
	}
	fmt.Printf("Reordered %s: %s\n", project.Name, strings.Join(args[1:], " > "))
	return nil
}

func runWorkspaceRename(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, ws := range a.Projects.Workspaces() {
		if ws.Name == args[0] {
			if err := a.Projects.UpdateWorkspace(ctx, ws.ID, remote.Row{"name": args[1]}); err != nil {
				return err
			}
			fmt.Printf("Renamed workspace %s to %s\n", args[0], args[1])
			return nil
		}
	}
	return fmt.Errorf("no workspace named %q", args[0])
}

func runStatusRename(cmd *cobra.Command, args []string) error {
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
	for _, st := range a.Projects.Statuses(project.ID) {
		if strings.EqualFold(st.Name, args[1]) {
			if err := a.Projects.UpdateStatus(ctx, st.ID, remote.Row{"name": args[2]}); err != nil {
				return err
			}
			fmt.Printf("Renamed column %s to %s on %s\n", st.Name, args[2], project.Name)
			return nil
		}
	}
	return fmt.Errorf("no column named %q on %s", args[1], project.Name)
}

func runTagList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tags := a.Projects.Tags()
	if len(tags) == 0 {
		fmt.Println("No tags yet. Tag a task: kanri task tag <id> <name>")
		return nil
	}
	counts := map[string]int{}
	for _, tt := range a.Tasks.TaskTags() {
		counts[tt.TagID]++
	}
	for _, tg := range tags {
		fmt.Printf("@%-20s %d tasks\n", tg.Name, counts[tg.ID])
	}
	return nil
}

func runTagDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tag, ok := a.Projects.TagByName(args[0])
	if !ok {
		return fmt.Errorf("no tag named %q", args[0])
	}
	if err := a.Projects.DeleteTag(ctx, tag.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted tag @%s\n", tag.Name)
	return nil
}
