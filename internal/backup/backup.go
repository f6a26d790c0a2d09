// Package backup implements full-dataset export and import against the
// persistence client: a versioned JSON envelope for round-trips and a flat
// CSV for spreadsheets.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kanri/internal/remote"
)

// Envelope versions. 1.0 is the original format; 1.1 added the dependency
// and attachment tables. Readers accept both and treat missing tables as
// empty.
const (
	VersionCurrent = "1.1"
	versionLegacy  = "1.0"
)

// Envelope is the on-disk backup format.
type Envelope struct {
	Version    string                  `json:"version"`
	ExportedAt string                  `json:"exported_at"`
	Data       map[string][]remote.Row `json:"data"`
}

// Mode selects how an import treats existing data.
type Mode string

const (
	// ModeMerge upserts backup rows over existing ones and never deletes.
	ModeMerge Mode = "merge"
	// ModeReplace wipes every table first, then inserts the backup.
	ModeReplace Mode = "replace"
)

// conflictKey returns the upsert identity for a table.
func conflictKey(table string) string {
	if table == "task_tags" {
		return "task_id,tag_id"
	}
	return "id"
}

// Export reads every table and wraps it in a current-version envelope.
func Export(ctx context.Context, client remote.Client) (*Envelope, error) {
	data := make(map[string][]remote.Row, len(remote.Tables))
	for _, table := range remote.Tables {
		rows, err := client.SelectAll(ctx, table, nil, "")
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", table, err)
		}
		if rows == nil {
			rows = []remote.Row{}
		}
		data[table] = rows
	}
	return &Envelope{
		Version:    VersionCurrent,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Data:       data,
	}, nil
}

// Marshal renders an envelope as indented JSON.
func Marshal(e *Envelope) ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// Parse validates and decodes an envelope.
func Parse(raw []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("parse backup: %w", err)
	}
	if e.Version != VersionCurrent && e.Version != versionLegacy {
		return nil, fmt.Errorf("unsupported backup version %q", e.Version)
	}
	if e.Data == nil {
		e.Data = map[string][]remote.Row{}
	}
	return &e, nil
}

// TableCount holds one row of an import preview.
type TableCount struct {
	Table    string
	Backup   int
	Existing int
}

// Preview compares the envelope against the live dataset, per table in
// dependency order.
func Preview(ctx context.Context, client remote.Client, e *Envelope) ([]TableCount, error) {
	out := make([]TableCount, 0, len(remote.Tables))
	for _, table := range remote.Tables {
		existing, err := client.Count(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		out = append(out, TableCount{Table: table, Backup: len(e.Data[table]), Existing: existing})
	}
	return out, nil
}

// Import applies an envelope. Merge upserts table by table in dependency
// order. Replace clears the tables in reverse dependency order first so no
// child row ever outlives its parent, then inserts parents before children.
func Import(ctx context.Context, client remote.Client, e *Envelope, mode Mode) error {
	switch mode {
	case ModeMerge:
		for _, table := range remote.Tables {
			rows := e.Data[table]
			if len(rows) == 0 {
				continue
			}
			if err := client.Upsert(ctx, table, rows, conflictKey(table)); err != nil {
				return fmt.Errorf("merge %s: %w", table, err)
			}
		}
		return nil

	case ModeReplace:
		for i := len(remote.Tables) - 1; i >= 0; i-- {
			if err := client.DeleteAll(ctx, remote.Tables[i]); err != nil {
				return fmt.Errorf("clear %s: %w", remote.Tables[i], err)
			}
		}
		for _, table := range remote.Tables {
			rows := e.Data[table]
			if len(rows) == 0 {
				continue
			}
			if _, err := client.InsertMany(ctx, table, rows); err != nil {
				return fmt.Errorf("restore %s: %w", table, err)
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown import mode %q", mode)
	}
}
