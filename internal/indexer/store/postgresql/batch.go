package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

var (
	ErrColumnCountMismatch  = errors.New("number of values does not match number of columns")
	ErrUnsupportedValueType = errors.New("unsupported value type for column")
)

type columnType string

const (
	typeText      columnType = "TEXT"
	typeBytea     columnType = "BYTEA"
	typeBigint    columnType = "BIGINT"
	typeInteger   columnType = "INTEGER"
	typeBoolean   columnType = "BOOLEAN"
	typeTimestamp columnType = "TIMESTAMPTZ"
)

type column struct {
	name string
	typ  columnType
	// cast is applied to the unnested value before insertion, e.g. JSONB
	cast string
}

func col(name string, typ columnType) column {
	return column{name: name, typ: typ}
}

func colCast(name string, typ columnType, cast string) column {
	return column{name: name, typ: typ, cast: cast}
}

type conflictKind int

const (
	conflictAppend conflictKind = iota
	conflictDoNothing
	conflictOverwrite
	conflictMerge
)

type conflictPolicy struct {
	kind        conflictKind
	target      []string
	columns     []string
	assignments []string
}

// appendOnly inserts every row without any conflict clause.
func appendOnly() conflictPolicy {
	return conflictPolicy{kind: conflictAppend}
}

// doNothing ignores rows conflicting on target, or on any constraint if target is empty.
func doNothing(target ...string) conflictPolicy {
	return conflictPolicy{kind: conflictDoNothing, target: target}
}

// overwrite replaces the given columns of the existing row with the incoming values.
func overwrite(target []string, columns ...string) conflictPolicy {
	return conflictPolicy{kind: conflictOverwrite, target: target, columns: columns}
}

// merge applies raw assignments to the existing row. The existing row is addressed by the
// table name and the incoming row by EXCLUDED.
func merge(target []string, assignments ...string) conflictPolicy {
	return conflictPolicy{kind: conflictMerge, target: target, assignments: assignments}
}

func (c conflictPolicy) clause() string {
	if c.kind == conflictAppend {
		return ""
	}

	target := ""
	if len(c.target) > 0 {
		target = " (" + strings.Join(c.target, ", ") + ")"
	}

	switch c.kind {
	case conflictOverwrite:
		sets := make([]string, len(c.columns))
		for i, name := range c.columns {
			sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", name, name)
		}
		return "ON CONFLICT" + target + " DO UPDATE SET " + strings.Join(sets, ", ")
	case conflictMerge:
		return "ON CONFLICT" + target + " DO UPDATE SET " + strings.Join(c.assignments, ", ")
	default:
		return "ON CONFLICT" + target + " DO NOTHING"
	}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// batchInsert collects rows for one table and writes them with a single UNNEST based
// statement per chunk.
type batchInsert struct {
	table   string
	columns []column
	policy  conflictPolicy
	rows    [][]any
}

func newBatchInsert(table string, policy conflictPolicy, columns ...column) *batchInsert {
	return &batchInsert{
		table:   table,
		columns: columns,
		policy:  policy,
	}
}

func (b *batchInsert) add(values ...any) {
	b.rows = append(b.rows, values)
}

func (b *batchInsert) len() int {
	return len(b.rows)
}

func (b *batchInsert) query() string {
	names := make([]string, len(b.columns))
	selects := make([]string, len(b.columns))
	params := make([]string, len(b.columns))

	for i, c := range b.columns {
		names[i] = c.name
		selects[i] = "u." + c.name
		if c.cast != "" {
			selects[i] += "::" + c.cast
		}
		params[i] = fmt.Sprintf("$%d::%s[]", i+1, c.typ)
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM UNNEST(%s) AS u(%s)",
		b.table,
		strings.Join(names, ", "),
		strings.Join(selects, ", "),
		strings.Join(params, ", "),
		strings.Join(names, ", "),
	)

	if clause := b.policy.clause(); clause != "" {
		q += " " + clause
	}

	return q
}

// args transposes rows[from:to] into one typed array per column.
func (b *batchInsert) args(from, to int) ([]any, error) {
	rows := b.rows[from:to]
	args := make([]any, len(b.columns))

	for i, c := range b.columns {
		var err error
		switch c.typ {
		case typeText:
			values := make([]sql.NullString, len(rows))
			for r, row := range rows {
				values[r], err = toNullString(row[i])
				if err != nil {
					break
				}
			}
			args[i] = pq.Array(values)
		case typeBytea:
			values := make(pq.ByteaArray, len(rows))
			for r, row := range rows {
				v, ok := row[i].([]byte)
				if !ok && row[i] != nil {
					err = fmt.Errorf("%T", row[i])
					break
				}
				values[r] = v
			}
			args[i] = values
		case typeBigint:
			values := make([]sql.NullInt64, len(rows))
			for r, row := range rows {
				values[r], err = toNullInt64(row[i])
				if err != nil {
					break
				}
			}
			args[i] = pq.Array(values)
		case typeInteger:
			values := make([]sql.NullInt32, len(rows))
			for r, row := range rows {
				values[r], err = toNullInt32(row[i])
				if err != nil {
					break
				}
			}
			args[i] = pq.Array(values)
		case typeBoolean:
			values := make(pq.BoolArray, len(rows))
			for r, row := range rows {
				v, ok := row[i].(bool)
				if !ok {
					err = fmt.Errorf("%T", row[i])
					break
				}
				values[r] = v
			}
			args[i] = values
		case typeTimestamp:
			values := make([]time.Time, len(rows))
			for r, row := range rows {
				v, ok := row[i].(time.Time)
				if !ok {
					err = fmt.Errorf("%T", row[i])
					break
				}
				values[r] = v.UTC()
			}
			args[i] = pq.Array(values)
		}

		if err != nil {
			return nil, errors.Join(ErrUnsupportedValueType, fmt.Errorf("table: %s, column: %s", b.table, c.name), err)
		}
	}

	return args, nil
}

func (b *batchInsert) exec(ctx context.Context, db execer, chunkSize int) error {
	if len(b.rows) == 0 {
		return nil
	}

	for _, row := range b.rows {
		if len(row) != len(b.columns) {
			return errors.Join(ErrColumnCountMismatch, fmt.Errorf("table: %s, expected: %d, got: %d", b.table, len(b.columns), len(row)))
		}
	}

	q := b.query()

	for from := 0; from < len(b.rows); from += chunkSize {
		to := min(from+chunkSize, len(b.rows))

		args, err := b.args(from, to)
		if err != nil {
			return err
		}

		_, err = db.ExecContext(ctx, q, args...)
		if err != nil {
			return errors.Join(fmt.Errorf("table: %s", b.table), err)
		}
	}

	return nil
}

func toNullString(v any) (sql.NullString, error) {
	switch value := v.(type) {
	case nil:
		return sql.NullString{}, nil
	case string:
		return sql.NullString{String: value, Valid: true}, nil
	case *string:
		if value == nil {
			return sql.NullString{}, nil
		}
		return sql.NullString{String: *value, Valid: true}, nil
	}

	return sql.NullString{}, fmt.Errorf("%T", v)
}

func toNullInt64(v any) (sql.NullInt64, error) {
	switch value := v.(type) {
	case nil:
		return sql.NullInt64{}, nil
	case int64:
		return sql.NullInt64{Int64: value, Valid: true}, nil
	case *int64:
		if value == nil {
			return sql.NullInt64{}, nil
		}
		return sql.NullInt64{Int64: *value, Valid: true}, nil
	}

	return sql.NullInt64{}, fmt.Errorf("%T", v)
}

func toNullInt32(v any) (sql.NullInt32, error) {
	switch value := v.(type) {
	case nil:
		return sql.NullInt32{}, nil
	case int32:
		return sql.NullInt32{Int32: value, Valid: true}, nil
	case *int32:
		if value == nil {
			return sql.NullInt32{}, nil
		}
		return sql.NullInt32{Int32: *value, Valid: true}, nil
	}

	return sql.NullInt32{}, fmt.Errorf("%T", v)
}
