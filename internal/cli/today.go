package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kanri/internal/model"
	"kanri/internal/view"
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show what deserves attention today",
	Args:  cobra.NoArgs,
	RunE:  runToday,
}

func runToday(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	today := time.Now().Format("2006-01-02")
	tv := view.Today(today, a.Tasks.Tasks(), allStatuses(a), a.Tasks.TaskTags(), a.Projects.Tags())

	if tv.Empty() {
		fmt.Printf("%sNothing urgent today. Capture something: kanri task add \"...\"%s\n", colorDim, colorReset)
		return nil
	}

	printSection := func(label, color string, tasks []model.Task) {
		if len(tasks) == 0 {
			return
		}
		fmt.Printf("%s%s%s%s\n", colorBold, color, label, colorReset)
		for _, t := range tasks {
			line := fmt.Sprintf("  %s%s%s %s", colorDim, shortID(t.ID), colorReset, t.Title)
			if t.ProjectID != nil {
				if p, ok := a.Projects.Project(*t.ProjectID); ok {
					line += fmt.Sprintf(" %s#%s%s", colorCyan, p.Name, colorReset)
				}
			}
			if t.DueDate != nil {
				line += fmt.Sprintf(" %sdue %s%s", colorYellow, *t.DueDate, colorReset)
			}
			fmt.Println(line)
		}
		fmt.Println()
	}

	printSection("OVERDUE", colorRed, tv.Overdue)
	printSection("DUE TODAY", colorYellow, tv.DueToday)
	printSection("HIGH PRIORITY", colorRed, tv.HighPriority)
	printSection("IN PROGRESS", colorGreen, tv.InProgress)
	printSection("QUICK WINS", colorCyan, tv.QuickWins)
	return nil
}
