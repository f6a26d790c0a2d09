package backup

import (
	"context"
	"strings"
	"testing"

	"kanri/internal/model"
	"kanri/internal/remote"
)

func seedClient(t *testing.T) remote.Client {
	t.Helper()
	ctx := context.Background()
	client := remote.NewMemory()

	ws, err := client.Insert(ctx, "workspaces", remote.Row{"name": "Game", "sort_order": 0})
	if err != nil {
		t.Fatalf("seed workspace: %v", err)
	}
	project, err := client.Insert(ctx, "projects", remote.Row{
		"workspace_id": ws["id"], "name": "Engine", "type": "dev", "sort_order": 0,
	})
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
	status, err := client.Insert(ctx, "statuses", remote.Row{
		"project_id": project["id"], "name": "Todo", "category": "backlog", "sort_order": 0, "is_default": true,
	})
	if err != nil {
		t.Fatalf("seed status: %v", err)
	}
	task, err := client.Insert(ctx, "tasks", remote.Row{
		"project_id": project["id"], "status_id": status["id"],
		"title": "First task", "type": "task", "priority": 3, "sort_order": 0, "archived": false,
	})
	if err != nil {
		t.Fatalf("seed task: %v", err)
	}
	tag, err := client.Insert(ctx, "tags", remote.Row{"name": "quick-win"})
	if err != nil {
		t.Fatalf("seed tag: %v", err)
	}
	if _, err := client.Insert(ctx, "task_tags", remote.Row{"task_id": task["id"], "tag_id": tag["id"]}); err != nil {
		t.Fatalf("seed task_tag: %v", err)
	}
	return client
}

func counts(t *testing.T, client remote.Client) map[string]int {
	t.Helper()
	out := map[string]int{}
	for _, table := range remote.Tables {
		n, err := client.Count(context.Background(), table)
		if err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		out[table] = n
	}
	return out
}

func TestExportRoundTrip(t *testing.T) {
	client := seedClient(t)

	env, err := Export(context.Background(), client)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if env.Version != VersionCurrent {
		t.Errorf("version = %s", env.Version)
	}
	raw, err := Marshal(env)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed.Data["tasks"]) != 1 {
		t.Errorf("tasks in round-tripped envelope = %d", len(parsed.Data["tasks"]))
	}
	if len(parsed.Data["task_tags"]) != 1 {
		t.Errorf("task_tags in round-tripped envelope = %d", len(parsed.Data["task_tags"]))
	}
}

func TestParse_RejectsUnknownVersion(t *testing.T) {
	if _, err := Parse([]byte(`{"version":"2.0","data":{}}`)); err == nil {
		t.Fatal("expected version error")
	}
}

func TestParse_LegacyVersionMissingTables(t *testing.T) {
	env, err := Parse([]byte(`{"version":"1.0","exported_at":"2026-01-01T00:00:00Z","data":{"workspaces":[]}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// Tables absent from a 1.0 backup read as empty.
	if got := env.Data["task_dependencies"]; len(got) != 0 {
		t.Errorf("missing table should be empty, got %v", got)
	}
	if err := Import(context.Background(), remote.NewMemory(), env, ModeMerge); err != nil {
		t.Fatalf("Import of legacy envelope: %v", err)
	}
}

func TestImportMerge_Idempotent(t *testing.T) {
	client := seedClient(t)
	env, err := Export(context.Background(), client)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	before := counts(t, client)

	for i := 0; i < 2; i++ {
		if err := Import(context.Background(), client, env, ModeMerge); err != nil {
			t.Fatalf("Import pass %d: %v", i+1, err)
		}
	}
	after := counts(t, client)
	for table, n := range before {
		if after[table] != n {
			t.Errorf("%s: %d rows before, %d after merges", table, n, after[table])
		}
	}
}

func TestImportMerge_NeverDeletes(t *testing.T) {
	client := seedClient(t)
	env, err := Export(context.Background(), client)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	// A row created after the backup must survive a merge.
	if _, err := client.Insert(context.Background(), "tags", remote.Row{"name": "post-backup"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := Import(context.Background(), client, env, ModeMerge); err != nil {
		t.Fatalf("Import: %v", err)
	}
	n, err := client.Count(context.Background(), "tags")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("merge deleted rows: %d tags", n)
	}
}

func TestImportReplace_RestoresExactCounts(t *testing.T) {
	client := seedClient(t)
	env, err := Export(context.Background(), client)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	original := counts(t, client)

	// Drift the dataset, then replace with the backup.
	if _, err := client.Insert(context.Background(), "tags", remote.Row{"name": "drift"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := Import(context.Background(), client, env, ModeReplace); err != nil {
		t.Fatalf("Import: %v", err)
	}

	restored := counts(t, client)
	for table, n := range original {
		if restored[table] != n {
			t.Errorf("%s: want %d rows, got %d", table, n, restored[table])
		}
	}
}

func TestPreview(t *testing.T) {
	client := seedClient(t)
	env, err := Export(context.Background(), client)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	preview, err := Preview(context.Background(), remote.NewMemory(), env)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	byTable := map[string]TableCount{}
	for _, tc := range preview {
		byTable[tc.Table] = tc
	}
	if got := byTable["tasks"]; got.Backup != 1 || got.Existing != 0 {
		t.Errorf("tasks preview = %+v", got)
	}
}

func TestExportCSV(t *testing.T) {
	projects := []model.Project{{ID: "p1", Name: "Engine"}}
	statuses := []model.Status{{ID: "s1", Name: "Todo"}}
	releases := []model.Release{{ID: "r1", Version: "v0.1.0"}}
	tasks := []model.Task{
		{
			ID: "t1", Title: "=HYPERLINK injection", ProjectID: model.Ptr("p1"),
			StatusID: model.Ptr("s1"), ReleaseID: model.Ptr("r1"),
			Priority: 2, Type: model.TypeBug, DueDate: model.Ptr("2026-07-01"),
			CreatedAt: "2026-06-01T00:00:00Z",
		},
		{ID: "t2", Title: "plain", Priority: 4, Type: model.TypeTask},
	}

	out, err := ExportCSV(tasks, projects, statuses, releases)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != strings.Join(csvHeader, ",") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], `'=HYPERLINK injection`) {
		t.Errorf("formula not defused: %q", lines[1])
	}
	if !strings.Contains(lines[1], "Engine") || !strings.Contains(lines[1], "v0.1.0") {
		t.Errorf("joins not resolved: %q", lines[1])
	}
	// Unreferenced joins render empty, not as an error.
	if !strings.Contains(lines[2], "t2,plain,,,4,task,,,") {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestDefuse(t *testing.T) {
	cases := map[string]string{
		"=1+1":   "'=1+1",
		"+призы": "'+призы",
		"-rm":    "'-rm",
		"@cmd":   "'@cmd",
		"safe":   "safe",
		"":       "",
	}
	for in, want := range cases {
		if got := defuse(in); got != want {
			t.Errorf("defuse(%q) = %q, want %q", in, got, want)
		}
	}
}
