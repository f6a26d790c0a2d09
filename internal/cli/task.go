package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kanri/internal/capture"
	"kanri/internal/model"
	"kanri/internal/remote"
	"kanri/internal/view"
)

var (
	taskType  string
	taskRecur string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Create or manage tasks",
	Long:  "Create a new task or manage existing ones on the board.",
}

var taskAddCmd = &cobra.Command{
	Use:   "add [capture line]",
	Short: "Add a task using quick-capture syntax",
	Long: "Adds a task. The line supports quick-capture markers:\n" +
		"  #project  @tag  !1..4 (priority)  ~discipline  due:today|tomorrow|friday|YYYY-MM-DD\n" +
		"Example: kanri task add \"fix door collider #Engine @physics !2 ~code due:friday\"",
	Args: cobra.MinimumNArgs(1),
	RunE: runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list [project]",
	Short: "List tasks, optionally scoped to a project",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show task details, checklist, notes and history",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update task fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskUpdate,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done [id]",
	Short: "Move a task to its project's done column",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDone,
}

var taskArchiveCmd = &cobra.Command{
	Use:   "archive [id]",
	Short: "Archive a task (soft delete)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskArchive,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a task permanently",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

var taskNoteCmd = &cobra.Command{
	Use:   "note [id] [text...]",
	Short: "Add a note to a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTaskNote,
}

var taskCheckCmd = &cobra.Command{
	Use:   "check [id] [text...]",
	Short: "Add a checklist item to a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTaskCheck,
}

var taskTickCmd = &cobra.Command{
	Use:   "tick [id] [item number]",
	Short: "Toggle a checklist item by its position",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskTick,
}

var taskTagCmd = &cobra.Command{
	Use:   "tag [id] [tag]",
	Short: "Attach a tag to a task, creating it if needed",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskTag,
}

var taskUntagCmd = &cobra.Command{
	Use:   "untag [id] [tag]",
	Short: "Detach a tag from a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskUntag,
}

var taskDepCmd = &cobra.Command{
	Use:   "dep [id] [depends-on-id]",
	Short: "Mark a task as blocked by another",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskDep,
}

var taskUndepCmd = &cobra.Command{
	Use:   "undep [id] [depends-on-id]",
	Short: "Remove a dependency between two tasks",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskUndep,
}

var taskAttachCmd = &cobra.Command{
	Use:   "attach [id] [file]",
	Short: "Attach a file to a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskAttach,
}

var taskDetachCmd = &cobra.Command{
	Use:   "detach [id] [attachment number]",
	Short: "Remove an attachment, by its number in task show",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskDetach,
}

var (
	updateTitle    string
	updatePriority int
	updateDue      string
	updateStatus   string
	updateRelease  string
	archiveWait    bool
	listInbox      bool
)

func init() {
	taskAddCmd.Flags().StringVarP(&taskType, "type", "t", "task", "Type: task, bug, feature")

	taskUpdateCmd.Flags().StringVar(&updateTitle, "title", "", "New title")
	taskUpdateCmd.Flags().IntVarP(&updatePriority, "priority", "p", 0, "Priority 1 (urgent) to 4 (low)")
	taskUpdateCmd.Flags().StringVar(&updateDue, "due", "", "Due date YYYY-MM-DD, or 'none' to clear")
	taskUpdateCmd.Flags().StringVarP(&updateStatus, "status", "s", "", "Status column name")
	taskUpdateCmd.Flags().StringVar(&taskRecur, "recur", "", "Recurrence: daily, weekdays, weekly, biweekly, monthly, yearly, or 'none'")
	taskUpdateCmd.Flags().StringVarP(&updateRelease, "release", "r", "", "Release version on the task's project, or 'none' to detach")

	taskListCmd.Flags().BoolVar(&listInbox, "inbox", false, "Only tasks captured without a project")

	taskArchiveCmd.Flags().BoolVar(&archiveWait, "undo-wait", false, "Hold the undo window open; ctrl+c during it keeps the task")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskArchiveCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskNoteCmd)
	taskCmd.AddCommand(taskCheckCmd)
	taskCmd.AddCommand(taskTickCmd)
	taskCmd.AddCommand(taskTagCmd)
	taskCmd.AddCommand(taskUntagCmd)
	taskCmd.AddCommand(taskDepCmd)
	taskCmd.AddCommand(taskUndepCmd)
	taskCmd.AddCommand(taskAttachCmd)
	taskCmd.AddCommand(taskDetachCmd)
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	parsed := capture.Parse(strings.Join(args, " "))
	if parsed.Title == "" {
		return fmt.Errorf("task needs a title")
	}

	task := model.Task{Title: parsed.Title, Type: model.TaskType(taskType)}
	if parsed.Priority != 0 {
		task.Priority = parsed.Priority
	}
	if parsed.DueDate != "" {
		task.DueDate = &parsed.DueDate
	}
	if parsed.Discipline != "" {
		task.Discipline = model.Ptr(parsed.Discipline)
	}

	if parsed.ProjectName != "" {
		project, err := resolveProject(a, parsed.ProjectName)
		if err != nil {
			return err
		}
		task.ProjectID = &project.ID
		if def, ok := a.Projects.DefaultStatus(project.ID); ok {
			task.StatusID = &def.ID
		}
	}

	created, err := a.Tasks.Create(ctx, task)
	if err != nil {
		printToasts(a)
		return err
	}

	for _, tagName := range parsed.TagNames {
		tag, ok := a.Projects.TagByName(tagName)
		if !ok {
			t, err := a.Projects.CreateTag(ctx, tagName, "")
			if err != nil {
				return err
			}
			tag = *t
		}
		if err := a.Tasks.AddTag(ctx, created.ID, tag.ID); err != nil {
			return err
		}
	}

	fmt.Printf("Created task %s: %s [%s]\n", shortID(created.ID), created.Title, priorityLabel(created.Priority))
	printToasts(a)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var tasks []model.Task
	statusName := map[string]string{}
	if listInbox {
		tasks = a.Tasks.InboxTasks()
	} else if len(args) > 0 {
		project, err := resolveProject(a, args[0])
		if err != nil {
			return err
		}
		tasks = a.Tasks.ProjectTasks(project.ID)
		for _, st := range a.Projects.Statuses(project.ID) {
			statusName[st.ID] = st.Name
		}
	} else {
		tasks = a.Tasks.Tasks()
		for _, p := range a.Projects.AllProjects() {
			for _, st := range a.Projects.Statuses(p.ID) {
				statusName[st.ID] = st.Name
			}
		}
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}

	blocked := view.BlockedIDs(a.Tasks.AllDependencies(), a.Tasks.Tasks(), allStatuses(a))
	for _, t := range tasks {
		status := ""
		if t.StatusID != nil {
			status = statusName[*t.StatusID]
		}
		mark := ""
		if blocked[t.ID] {
			mark = fmt.Sprintf(" %sBLOCKED%s", colorRed, colorReset)
		}
		due := ""
		if t.DueDate != nil {
			due = " due " + *t.DueDate
		}
		fmt.Printf("%s  %-14s %-7s %s%s%s\n", shortID(t.ID), status, priorityLabel(t.Priority), t.Title, due, mark)
	}
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := resolveTask(a, args[0])
	if err != nil {
		return err
	}
	if err := a.Tasks.FetchTaskDetails(ctx, task.ID); err != nil {
		return err
	}
	if err := a.Tasks.FetchActivity(ctx, task.ID); err != nil {
		return err
	}

	fmt.Printf("Task %s\n", shortID(task.ID))
	fmt.Printf("  Title:    %s\n", task.Title)
	fmt.Printf("  Type:     %s\n", task.Type)
	fmt.Printf("  Priority: %s\n", priorityLabel(task.Priority))
	if task.ProjectID != nil {
		if p, ok := a.Projects.Project(*task.ProjectID); ok {
			fmt.Printf("  Project:  %s\n", p.Name)
		}
	}
	if task.StatusID != nil {
		if st, ok := a.Projects.StatusByID(*task.StatusID); ok {
			fmt.Printf("  Status:   %s\n", st.Name)
		}
	}
	if task.DueDate != nil {
		fmt.Printf("  Due:      %s\n", *task.DueDate)
	}
	if task.RecurrenceRule != nil {
		fmt.Printf("  Repeats:  %s\n", *task.RecurrenceRule)
	}
	if task.Discipline != nil {
		fmt.Printf("  Field:    %s\n", *task.Discipline)
	}
	if task.Description != nil && *task.Description != "" {
		fmt.Printf("  Desc:     %s\n", *task.Description)
	}
	if view.IsBlocked(task.ID, a.Tasks.AllDependencies(), a.Tasks.Tasks(), allStatuses(a)) {
		fmt.Printf("  %sBlocked by unfinished dependencies%s\n", colorRed, colorReset)
	}
	if edges := a.Tasks.Blocking(task.ID); len(edges) > 0 {
		names := make([]string, 0, len(edges))
		for _, e := range edges {
			if dep, ok := a.Tasks.Task(e.TaskID); ok {
				names = append(names, dep.Title)
			}
		}
		if len(names) > 0 {
			fmt.Printf("  Blocks:   %s\n", strings.Join(names, ", "))
		}
	}

	if items := a.Tasks.Checklist(task.ID); len(items) > 0 {
		fmt.Println("\n  Checklist:")
		for _, item := range items {
			box := "[ ]"
			if item.Checked {
				box = "[x]"
			}
			fmt.Printf("    %s %s\n", box, item.Title)
		}
	}
	if attached := a.Tasks.Attachments(task.ID); len(attached) > 0 {
		fmt.Println("\n  Attachments:")
		for i, at := range attached {
			fmt.Printf("    %d. %s (%s, %d bytes)\n", i+1, at.FileName, at.FileType, at.FileSize)
		}
	}
	if notes := a.Tasks.Notes(task.ID); len(notes) > 0 {
		fmt.Println("\n  Notes:")
		for _, n := range notes {
			fmt.Printf("    %s %s\n", n.CreatedAt, n.Content)
		}
	}
	if activity := a.Tasks.Activity(task.ID); len(activity) > 0 {
		fmt.Println("\n  History:")
		for _, e := range activity {
			switch {
			case e.Field != nil:
				oldV, newV := "", ""
				if e.OldValue != nil {
					oldV = *e.OldValue
				}
				if e.NewValue != nil {
					newV = *e.NewValue
				}
				fmt.Printf("    %s %s %s: %q -> %q\n", e.CreatedAt, e.Action, *e.Field, oldV, newV)
			default:
				fmt.Printf("    %s %s\n", e.CreatedAt, e.Action)
			}
		}
	}
	return nil
}

func runTaskUpdate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := resolveTask(a, args[0])
	if err != nil {
		return err
	}

	changes := remote.Row{}
	if updateTitle != "" {
		changes["title"] = updateTitle
	}
	if updatePriority != 0 {
		if updatePriority < 1 || updatePriority > 4 {
			return fmt.Errorf("priority must be 1..4")
		}
		changes["priority"] = updatePriority
	}
	switch updateDue {
	case "":
	case "none":
		changes["due_date"] = nil
	default:
		changes["due_date"] = updateDue
	}
	switch taskRecur {
	case "":
	case "none":
		changes["recurrence_rule"] = nil
	default:
		changes["recurrence_rule"] = taskRecur
	}
	if updateStatus != "" {
		st, err := statusByName(a, task, updateStatus)
		if err != nil {
			return err
		}
		changes["status_id"] = st.ID
	}
	switch updateRelease {
	case "":
	case "none":
		changes["release_id"] = nil
	default:
		if task.ProjectID == nil {
			return fmt.Errorf("task %s has no project, so no releases", shortID(task.ID))
		}
		found := false
		for _, r := range a.Projects.Releases(*task.ProjectID) {
			if r.Version == updateRelease {
				changes["release_id"] = r.ID
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("no release %q on this project", updateRelease)
		}
	}
	if len(changes) == 0 {
		return fmt.Errorf("nothing to update; see kanri task update --help")
	}

	a.Tasks.Update(task.ID, changes)
	a.Tasks.Wait()
	fmt.Printf("Updated task %s\n", shortID(task.ID))
	printToasts(a)
	return nil
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := resolveTask(a, args[0])
	if err != nil {
		return err
	}
	if task.ProjectID == nil {
		return fmt.Errorf("task %s has no project board", shortID(task.ID))
	}

	var done *model.Status
	for _, st := range a.Projects.Statuses(*task.ProjectID) {
		if st.Category == model.CategoryDone {
			s := st
			done = &s
			break
		}
	}
	if done == nil {
		return fmt.Errorf("project has no done column")
	}

	a.Tasks.Update(task.ID, remote.Row{"status_id": done.ID})
	a.Tasks.Wait()
	fmt.Printf("Task %s marked as done\n", shortID(task.ID))
	printToasts(a)
	return nil
}

func runTaskArchive(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := resolveTask(a, args[0])
	if err != nil {
		return err
	}
	a.Tasks.Archive(task.ID)
	fmt.Printf("Archived task %s: %s\n", shortID(task.ID), task.Title)

	// With --undo-wait the grace window stays open in the terminal; killing
	// the process before it elapses leaves the task untouched remotely.
	if archiveWait {
		window := a.Config.Undo.Grace() + a.Config.Undo.Buffer()
		fmt.Printf("%sUndo window open for %s (ctrl+c keeps the task)%s\n",
			colorDim, window.Round(time.Second), colorReset)
		time.Sleep(window)
	}
	return nil
}

func runTaskNote(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := resolveTask(a, args[0])
	if err != nil {
		return err
	}
	if err := a.Tasks.AddNote(ctx, task.ID, strings.Join(args[1:], " ")); err != nil {
		return err
	}
	fmt.Printf("Noted on task %s\n", shortID(task.ID))
	return nil
}

func runTaskCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := resolveTask(a, args[0])
	if err != nil {
		return err
	}
	title := strings.Join(args[1:], " ")
	if err := a.Tasks.AddChecklistItem(ctx, task.ID, title); err != nil {
		return err
	}
	fmt.Printf("Added checklist item to task %s: %s\n", shortID(task.ID), title)
	return nil
}

func runTaskTick(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := resolveTask(a, args[0])
	if err != nil {
		return err
	}
	if err := a.Tasks.FetchTaskDetails(ctx, task.ID); err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("item number must be an integer")
	}
	items := a.Tasks.Checklist(task.ID)
	if n < 1 || n > len(items) {
		return fmt.Errorf("task has %d checklist items", len(items))
	}
	item := items[n-1]
	a.Tasks.ToggleChecklistItem(item.ID)
	state := "done"
	if item.Checked {
		state = "open"
	}
	fmt.Printf("Checklist item %d marked %s\n", n, state)
	return nil
}

func runTaskTag(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := resolveTask(a, args[0])
	if err != nil {
		return err
	}
	tag, ok := a.Projects.TagByName(args[1])
	if !ok {
		t, err := a.Projects.CreateTag(ctx, args[1], "")
		if err != nil {
			return err
		}
		tag = *t
	}
	if err := a.Tasks.AddTag(ctx, task.ID, tag.ID); err != nil {
		return err
	}
	fmt.Printf("Tagged task %s with @%s\n", shortID(task.ID), tag.Name)
	return nil
}

func runTaskUntag(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := resolveTask(a, args[0])
	if err != nil {
		return err
	}
	tag, ok := a.Projects.TagByName(args[1])
	if !ok {
		return fmt.Errorf("no tag named %q", args[1])
	}
	if err := a.Tasks.RemoveTag(ctx, task.ID, tag.ID); err != nil {
		return err
	}
	fmt.Printf("Removed @%s from task %s\n", tag.Name, shortID(task.ID))
	return nil
}

func runTaskDep(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := resolveTask(a, args[0])
	if err != nil {
		return err
	}
	on, err := resolveTask(a, args[1])
	if err != nil {
		return err
	}
	if task.ID == on.ID {
		return fmt.Errorf("a task cannot depend on itself")
	}
	if err := a.Tasks.AddDependency(ctx, task.ID, on.ID); err != nil {
		return err
	}
	fmt.Printf("Task %s now blocked by %s\n", shortID(task.ID), shortID(on.ID))
	return nil
}

func runTaskUndep(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := resolveTask(a, args[0])
	if err != nil {
		return err
	}
	on, err := resolveTask(a, args[1])
	if err != nil {
		return err
	}
	for _, d := range a.Tasks.Dependencies(task.ID) {
		if d.DependsOnTaskID == on.ID {
			if err := a.Tasks.RemoveDependency(ctx, d.ID); err != nil {
				return err
			}
			fmt.Printf("Task %s no longer blocked by %s\n", shortID(task.ID), shortID(on.ID))
			return nil
		}
	}
	return fmt.Errorf("task %s does not depend on %s", shortID(task.ID), shortID(on.ID))
}

func runTaskAttach(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Blobs == nil {
		return fmt.Errorf("attachments are disabled (no attachments dir in config)")
	}
	task, err := resolveTask(a, args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	name := filepath.Base(args[1])
	fileType := mime.TypeByExtension(filepath.Ext(name))
	if fileType == "" {
		fileType = "application/octet-stream"
	}
	if err := a.Tasks.UploadAttachment(ctx, a.Blobs, task.ID, name, fileType, data); err != nil {
		return err
	}
	fmt.Printf("Attached %s to task %s (%d bytes)\n", name, shortID(task.ID), len(data))
	return nil
}

func runTaskDetach(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Blobs == nil {
		return fmt.Errorf("attachments are disabled (no attachments dir in config)")
	}
	task, err := resolveTask(a, args[0])
	if err != nil {
		return err
	}
	if err := a.Tasks.FetchTaskDetails(ctx, task.ID); err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("attachment number must be an integer")
	}
	attached := a.Tasks.Attachments(task.ID)
	if n < 1 || n > len(attached) {
		return fmt.Errorf("task has %d attachments", len(attached))
	}
	at := attached[n-1]
	path := ""
	if at.FilePath != nil {
		path = *at.FilePath
	}
	if err := a.Tasks.DeleteAttachment(ctx, a.Blobs, at.ID, path); err != nil {
		return err
	}
	fmt.Printf("Removed %s from task %s\n", at.FileName, shortID(task.ID))
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := resolveTask(a, args[0])
	if err != nil {
		return err
	}
	if err := a.Tasks.Delete(ctx, task.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted task %s: %s\n", shortID(task.ID), task.Title)
	return nil
}
