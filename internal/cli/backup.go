package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kanri/internal/backup"
)

var (
	exportFormat string
	exportOut    string
	importMode   string
	importYes    bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all data as JSON or CSV",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a JSON backup",
	Long: `Import a backup produced by kanri export.

Merge mode upserts the backup rows over the live data and never deletes
anything. Replace mode wipes every table first and needs --yes.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "export format (json|csv)")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "write to file instead of stdout")
	importCmd.Flags().StringVarP(&importMode, "mode", "m", "merge", "import mode (merge|replace)")
	importCmd.Flags().BoolVar(&importYes, "yes", false, "confirm a replace import")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var out []byte
	switch exportFormat {
	case "json":
		env, err := backup.Export(ctx, a.Remote)
		if err != nil {
			return err
		}
		out, err = backup.Marshal(env)
		if err != nil {
			return err
		}
	case "csv":
		out, err = backup.ExportCSV(a.Tasks.Tasks(), a.Projects.AllProjects(), allStatuses(a), allReleases(a))
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (want json or csv)", exportFormat)
	}

	if exportOut == "" {
		fmt.Print(string(out))
		return nil
	}
	if err := os.WriteFile(exportOut, out, 0644); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	fmt.Printf("%sExported to %s%s\n", colorGreen, exportOut, colorReset)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	var mode backup.Mode
	switch importMode {
	case "merge":
		mode = backup.ModeMerge
	case "replace":
		mode = backup.ModeReplace
	default:
		return fmt.Errorf("unknown mode %q (want merge or replace)", importMode)
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	env, err := backup.Parse(raw)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := mustApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	preview, err := backup.Preview(ctx, a.Remote, env)
	if err != nil {
		return err
	}
	fmt.Printf("%s%-20s %8s %8s%s\n", colorBold, "TABLE", "BACKUP", "EXISTING", colorReset)
	for _, tc := range preview {
		if tc.Backup == 0 && tc.Existing == 0 {
			continue
		}
		fmt.Printf("%-20s %8d %8d\n", tc.Table, tc.Backup, tc.Existing)
	}

	if mode == backup.ModeReplace && !importYes {
		return fmt.Errorf("replace wipes all existing data; re-run with --yes to confirm")
	}

	if err := backup.Import(ctx, a.Remote, env, mode); err != nil {
		return err
	}
	fmt.Printf("%sImport complete (%s).%s\n", colorGreen, importMode, colorReset)
	return nil
}
