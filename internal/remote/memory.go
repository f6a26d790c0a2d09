package remote

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryClient is an in-memory Client with the same semantics as the SQLite
// client. It backs tests and throwaway sessions.
type MemoryClient struct {
	mu     sync.Mutex
	tables map[string][]Row
}

// NewMemory creates an empty in-memory client.
func NewMemory() *MemoryClient {
	tables := make(map[string][]Row, len(Tables))
	for _, t := range Tables {
		tables[t] = nil
	}
	return &MemoryClient{tables: tables}
}

// SelectAll implements Client.
func (c *MemoryClient) SelectAll(ctx context.Context, table string, filter Filter, orderBy string) ([]Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, ok := c.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	var out []Row
	for _, r := range rows {
		if matches(r, filter) {
			out = append(out, copyRow(r))
		}
	}
	if orderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			return less(out[i][orderBy], out[j][orderBy])
		})
	}
	return out, nil
}

// Insert implements Client.
func (c *MemoryClient) Insert(ctx context.Context, table string, row Row) (Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insertLocked(table, row)
}

// InsertMany implements Client.
func (c *MemoryClient) InsertMany(ctx context.Context, table string, rows []Row) ([]Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		stored, err := c.insertLocked(table, row)
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
	}
	return out, nil
}

func (c *MemoryClient) insertLocked(table string, row Row) (Row, error) {
	if _, ok := c.tables[table]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	stored := normalizeRow(memoryDefaults(table, row))
	c.tables[table] = append(c.tables[table], stored)
	return copyRow(stored), nil
}

// Update implements Client.
func (c *MemoryClient) Update(ctx context.Context, table, id string, changes Row) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, ok := c.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	for i, r := range rows {
		if r["id"] == id {
			rows[i] = bumpUpdated(normalizeRow(mergeRow(r, changes)))
			return nil
		}
	}
	return fmt.Errorf("%w: %s/%s", ErrNotFound, table, id)
}

// UpdateWhere implements Client.
func (c *MemoryClient) UpdateWhere(ctx context.Context, table string, filter Filter, changes Row) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, ok := c.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	for i, r := range rows {
		if matches(r, filter) {
			rows[i] = bumpUpdated(normalizeRow(mergeRow(r, changes)))
		}
	}
	return nil
}

// Delete implements Client.
func (c *MemoryClient) Delete(ctx context.Context, table, id string) error {
	return c.DeleteWhere(ctx, table, Filter{"id": id})
}

// DeleteWhere implements Client.
func (c *MemoryClient) DeleteWhere(ctx context.Context, table string, filter Filter) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, ok := c.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	var kept []Row
	for _, r := range rows {
		if !matches(r, filter) {
			kept = append(kept, r)
		}
	}
	c.tables[table] = kept
	return nil
}

// DeleteAll implements Client.
func (c *MemoryClient) DeleteAll(ctx context.Context, table string) error {
	return c.DeleteWhere(ctx, table, nil)
}

// Upsert implements Client.
func (c *MemoryClient) Upsert(ctx context.Context, table string, rows []Row, conflictKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tables[table]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	cols := strings.Split(conflictKey, ",")
	for _, row := range rows {
		filter := Filter{}
		for _, col := range cols {
			filter[col] = row[col]
		}
		var kept []Row
		for _, r := range c.tables[table] {
			if !matches(r, filter) {
				kept = append(kept, r)
			}
		}
		c.tables[table] = append(kept, normalizeRow(memoryDefaults(table, row)))
	}
	return nil
}

// Count implements Client.
func (c *MemoryClient) Count(ctx context.Context, table string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, ok := c.tables[table]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return len(rows), nil
}

func memoryDefaults(table string, row Row) Row {
	out := make(Row, len(row)+3)
	for k, v := range row {
		out[k] = v
	}
	if !keyless[table] {
		if _, ok := out["id"]; !ok {
			out["id"] = uuid.NewString()
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, ok := out["created_at"]; !ok {
		out["created_at"] = now
	}
	if _, ok := out["updated_at"]; !ok {
		out["updated_at"] = now
	}
	return out
}

func bumpUpdated(r Row) Row {
	r["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	return r
}

// normalizeRow JSON-round-trips every value so stored rows compare cleanly
// against filters regardless of the caller's Go types.
func normalizeRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = normalize(v)
	}
	return out
}

func copyRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func matches(r Row, filter Filter) bool {
	for k, want := range filter {
		if !reflect.DeepEqual(r[k], normalize(want)) {
			return false
		}
	}
	return true
}

// less orders JSON scalar values: numbers numerically, everything else by
// string rendering. Missing values sort first.
func less(a, b any) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return af < bf
	}
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
