// Package remote is the bridge to the persistence service backing the entity
// stores. The service is table-scoped and row-oriented: equality filters,
// single-column ascending sort, server-assigned ids and timestamps, and
// upsert-by-conflict-key for bulk import.
//
// Rows travel as loosely-typed maps; Encode/Decode convert between them and
// the typed entities in internal/model via their JSON tags. An absent key in
// an insert row means "use the column default"; an explicit nil value in an
// update row means "clear the field".
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Row is one table row keyed by column name.
type Row map[string]any

// Filter is a set of column equality constraints, ANDed together.
type Filter map[string]any

// Table names, in dependency order (parents before children). Replace-mode
// import deletes in reverse and inserts in this order.
var Tables = []string{
	"workspaces",
	"projects",
	"statuses",
	"tags",
	"releases",
	"tasks",
	"task_tags",
	"checklist_items",
	"task_notes",
	"task_activity",
	"task_dependencies",
	"task_attachments",
	"job_applications",
	"job_application_timeline",
}

// keyless tables have no id column; they are addressed by filters only.
var keyless = map[string]bool{
	"task_tags": true,
}

// Errors returned by clients.
var (
	ErrNotFound     = errors.New("remote: row not found")
	ErrUnknownTable = errors.New("remote: unknown table")
)

// Client is the persistence collaborator the stores talk to. Every call is
// synchronous request/response; callers that want fire-and-forget semantics
// run it in a goroutine.
type Client interface {
	// SelectAll returns rows matching the filter (nil for all), ordered
	// ascending by orderBy when non-empty.
	SelectAll(ctx context.Context, table string, filter Filter, orderBy string) ([]Row, error)

	// Insert stores a row, assigning id and created_at/updated_at when
	// absent, and returns the authoritative stored row.
	Insert(ctx context.Context, table string, row Row) (Row, error)

	// InsertMany inserts rows in order, returning the stored rows.
	InsertMany(ctx context.Context, table string, rows []Row) ([]Row, error)

	// Update merges changes into the row with the given id. A nil value
	// clears the column. Returns ErrNotFound for a missing id.
	Update(ctx context.Context, table, id string, changes Row) error

	// UpdateWhere merges changes into every row matching the filter.
	UpdateWhere(ctx context.Context, table string, filter Filter, changes Row) error

	// Delete removes the row with the given id.
	Delete(ctx context.Context, table, id string) error

	// DeleteWhere removes every row matching the filter.
	DeleteWhere(ctx context.Context, table string, filter Filter) error

	// DeleteAll clears the table.
	DeleteAll(ctx context.Context, table string) error

	// Upsert inserts rows, replacing any existing row with the same values
	// for the comma-separated conflictKey columns.
	Upsert(ctx context.Context, table string, rows []Row, conflictKey string) error

	// Count returns the number of rows in the table.
	Count(ctx context.Context, table string) (int, error)
}

// validTable reports whether table is one of the known tables.
func validTable(table string) bool {
	for _, t := range Tables {
		if t == table {
			return true
		}
	}
	return false
}

// Encode converts a typed entity into a Row via its JSON tags. Optional
// fields tagged omitempty disappear when nil, which is what creation wants.
func Encode(v any) (Row, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	var row Row
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	return row, nil
}

// Decode converts rows into typed entities.
func Decode[T any](rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := DecodeOne[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeOne converts a single row into a typed entity.
func DecodeOne[T any](row Row) (T, error) {
	var v T
	data, err := json.Marshal(row)
	if err != nil {
		return v, fmt.Errorf("decode row: %w", err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode row: %w", err)
	}
	return v, nil
}

// Apply merges an update row into a typed entity and returns the result.
// Nil values clear the corresponding optional field. This is the same merge
// the persistence service performs, run locally for optimistic updates.
func Apply[T any](v T, changes Row) (T, error) {
	row, err := Encode(v)
	if err != nil {
		var zero T
		return zero, err
	}
	merged := mergeRow(row, changes)
	return DecodeOne[T](merged)
}

// mergeRow applies changes to base, treating nil as "clear".
func mergeRow(base, changes Row) Row {
	out := make(Row, len(base)+len(changes))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range changes {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// normalize round-trips a value through JSON so that filter values compare
// cleanly against stored rows regardless of the caller's Go types.
func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
