package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteClient is a Client backed by a local SQLite file. Each table is a
// single relation of JSON documents; filters and ordering go through
// json_extract so the client stays generic over the schema.
type SQLiteClient struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at the given path.
func OpenSQLite(path string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	c := &SQLiteClient{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return c, nil
}

// Close closes the database connection.
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

func (c *SQLiteClient) migrate() error {
	for _, table := range Tables {
		stmt := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %q (
				id   TEXT,
				data TEXT NOT NULL
			)`, table)
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
		if !keyless[table] {
			idx := fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_id ON %q (id)`, table, table)
			if _, err := c.db.Exec(idx); err != nil {
				return fmt.Errorf("index table %s: %w", table, err)
			}
		}
	}
	return nil
}

// SelectAll implements Client.
func (c *SQLiteClient) SelectAll(ctx context.Context, table string, filter Filter, orderBy string) ([]Row, error) {
	if !validTable(table) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	query := fmt.Sprintf(`SELECT data FROM %q`, table)
	where, args, err := buildWhere(filter)
	if err != nil {
		return nil, err
	}
	query += where
	if orderBy != "" {
		if err := checkColumn(orderBy); err != nil {
			return nil, err
		}
		query += fmt.Sprintf(` ORDER BY json_extract(data, '$.%s') ASC`, orderBy)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		var r Row
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal %s row: %w", table, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Insert implements Client.
func (c *SQLiteClient) Insert(ctx context.Context, table string, row Row) (Row, error) {
	if !validTable(table) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	stored := withDefaults(table, row)
	if err := c.insertRow(ctx, c.db, table, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// InsertMany implements Client.
func (c *SQLiteClient) InsertMany(ctx context.Context, table string, rows []Row) ([]Row, error) {
	if !validTable(table) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert %s: %w", table, err)
	}
	defer tx.Rollback()

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		stored := withDefaults(table, row)
		if err := c.insertRow(ctx, tx, table, stored); err != nil {
			return nil, err
		}
		out = append(out, stored)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert %s: %w", table, err)
	}
	return out, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (c *SQLiteClient) insertRow(ctx context.Context, ex execer, table string, row Row) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal %s row: %w", table, err)
	}
	var id any
	if v, ok := row["id"]; ok {
		id = v
	}
	if _, err := ex.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %q (id, data) VALUES (?, ?)`, table),
		id, string(data),
	); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// Update implements Client.
func (c *SQLiteClient) Update(ctx context.Context, table, id string, changes Row) error {
	if !validTable(table) {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	row := c.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT data FROM %q WHERE id = ?`, table), id)
	var data string
	if err := row.Scan(&data); err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, table, id)
	} else if err != nil {
		return fmt.Errorf("load %s/%s: %w", table, id, err)
	}

	merged, err := mergeStored(data, changes)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", table, id, err)
	}
	if _, err := c.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %q SET data = ? WHERE id = ?`, table),
		merged, id,
	); err != nil {
		return fmt.Errorf("update %s/%s: %w", table, id, err)
	}
	return nil
}

// UpdateWhere implements Client.
func (c *SQLiteClient) UpdateWhere(ctx context.Context, table string, filter Filter, changes Row) error {
	if !validTable(table) {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	where, args, err := buildWhere(filter)
	if err != nil {
		return err
	}

	rows, err := c.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT rowid, data FROM %q`, table)+where, args...)
	if err != nil {
		return fmt.Errorf("select %s: %w", table, err)
	}
	type pending struct {
		rowid int64
		data  string
	}
	var updates []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.rowid, &p.data); err != nil {
			rows.Close()
			return fmt.Errorf("scan %s: %w", table, err)
		}
		updates = append(updates, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range updates {
		merged, err := mergeStored(p.data, changes)
		if err != nil {
			return fmt.Errorf("update %s: %w", table, err)
		}
		if _, err := c.db.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %q SET data = ? WHERE rowid = ?`, table),
			merged, p.rowid,
		); err != nil {
			return fmt.Errorf("update %s: %w", table, err)
		}
	}
	return nil
}

// Delete implements Client.
func (c *SQLiteClient) Delete(ctx context.Context, table, id string) error {
	if !validTable(table) {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	if _, err := c.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %q WHERE id = ?`, table), id,
	); err != nil {
		return fmt.Errorf("delete %s/%s: %w", table, id, err)
	}
	return nil
}

// DeleteWhere implements Client.
func (c *SQLiteClient) DeleteWhere(ctx context.Context, table string, filter Filter) error {
	if !validTable(table) {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	where, args, err := buildWhere(filter)
	if err != nil {
		return err
	}
	if _, err := c.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %q`, table)+where, args...,
	); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

// DeleteAll implements Client.
func (c *SQLiteClient) DeleteAll(ctx context.Context, table string) error {
	return c.DeleteWhere(ctx, table, nil)
}

// Upsert implements Client.
func (c *SQLiteClient) Upsert(ctx context.Context, table string, rows []Row, conflictKey string) error {
	if !validTable(table) {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	cols := strings.Split(conflictKey, ",")
	for _, col := range cols {
		if err := checkColumn(col); err != nil {
			return err
		}
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert %s: %w", table, err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		filter := Filter{}
		for _, col := range cols {
			filter[col] = row[col]
		}
		where, args, err := buildWhere(filter)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %q`, table)+where, args...,
		); err != nil {
			return fmt.Errorf("upsert %s: %w", table, err)
		}
		if err := c.insertRow(ctx, tx, table, withDefaults(table, row)); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert %s: %w", table, err)
	}
	return nil
}

// Count implements Client.
func (c *SQLiteClient) Count(ctx context.Context, table string) (int, error) {
	if !validTable(table) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	row := c.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, table))
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// withDefaults fills in the server-assigned columns: id for keyed tables,
// created_at/updated_at when absent.
func withDefaults(table string, row Row) Row {
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

// mergeStored merges an update row into a stored JSON document and bumps
// updated_at. Nil change values clear the column.
func mergeStored(stored string, changes Row) (string, error) {
	var base Row
	if err := json.Unmarshal([]byte(stored), &base); err != nil {
		return "", err
	}
	merged := mergeRow(base, changes)
	merged["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(merged)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// buildWhere renders a filter as a WHERE clause over json_extract. Keys are
// emitted in sorted order so queries are deterministic.
func buildWhere(filter Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	var args []any
	for _, k := range keys {
		if err := checkColumn(k); err != nil {
			return "", nil, err
		}
		parts = append(parts, fmt.Sprintf(`json_extract(data, '$.%s') = ?`, k))
		args = append(args, bindValue(filter[k]))
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

// bindValue converts filter values to what json_extract yields: booleans
// become 0/1 integers.
func bindValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

// checkColumn rejects column names that could escape the json path literal.
func checkColumn(col string) error {
	if col == "" {
		return fmt.Errorf("remote: empty column name")
	}
	for _, r := range col {
		if (r < 'a' || r > 'z') && r != '_' {
			return fmt.Errorf("remote: invalid column name %q", col)
		}
	}
	return nil
}
