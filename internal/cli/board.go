package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kanri/internal/view"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

var boardCmd = &cobra.Command{
	Use:   "board [project]",
	Short: "Show a project's kanban board",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBoard,
}

func runBoard(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ref := a.Config.Board.DefaultProject
	if len(args) > 0 {
		ref = args[0]
	}
	if ref == "" {
		projects := a.Projects.AllProjects()
		if len(projects) == 0 {
			return fmt.Errorf("no projects; run kanri project add first")
		}
		ref = projects[0].Name
	}
	project, err := resolveProject(a, ref)
	if err != nil {
		return err
	}

	statuses := a.Projects.Statuses(project.ID)
	tasks := a.Tasks.ProjectTasks(project.ID)
	columns := view.TasksByStatus(tasks, statuses)
	blocked := view.BlockedIDs(a.Tasks.AllDependencies(), a.Tasks.Tasks(), statuses)

	if len(tasks) == 0 {
		fmt.Printf("%sBoard is empty.%s Add a task: %skanri task add \"title #%s\"%s\n",
			colorDim, colorReset, colorCyan, project.Name, colorReset)
		return nil
	}

	colWidth := 26
	headerLine := ""
	sepLine := ""
	for _, st := range statuses {
		count := len(columns[st.ID])
		header := fmt.Sprintf(" %s%s%s (%d)", colorBold, strings.ToUpper(st.Name), colorReset, count)
		visibleLen := len(fmt.Sprintf(" %s (%d)", strings.ToUpper(st.Name), count))
		padding := colWidth - visibleLen
		if padding < 0 {
			padding = 0
		}
		headerLine += header + strings.Repeat(" ", padding)
		sepLine += strings.Repeat("─", colWidth)
	}
	fmt.Println(headerLine)
	fmt.Println(colorDim + sepLine + colorReset)

	maxRows := 0
	for _, st := range statuses {
		if len(columns[st.ID]) > maxRows {
			maxRows = len(columns[st.ID])
		}
	}

	for i := 0; i < maxRows; i++ {
		line := ""
		for _, st := range statuses {
			col := columns[st.ID]
			if i < len(col) {
				t := col[i]
				idStr := shortID(t.ID)
				mark := ""
				visibleMark := ""
				if blocked[t.ID] {
					mark = colorRed + "!" + colorReset
					visibleMark = "!"
				}
				titleStr := truncate(t.Title, colWidth-len(idStr)-len(visibleMark)-3)
				card := fmt.Sprintf(" %s%s%s %s%s", priorityColor(t.Priority), idStr, colorReset, titleStr, mark)
				visibleLen := len(fmt.Sprintf(" %s %s%s", idStr, titleStr, visibleMark))
				padding := colWidth - visibleLen
				if padding < 0 {
					padding = 0
				}
				line += card + strings.Repeat(" ", padding)
			} else {
				line += strings.Repeat(" ", colWidth)
			}
		}
		fmt.Println(line)
	}

	fmt.Println()
	fmt.Printf("%s%d tasks%s", colorBold, len(tasks), colorReset)
	nBlocked := 0
	for _, t := range tasks {
		if blocked[t.ID] {
			nBlocked++
		}
	}
	if nBlocked > 0 {
		fmt.Printf("  %s! %d blocked%s", colorRed, nBlocked, colorReset)
	}
	fmt.Println()
	return nil
}
