package schema_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/anvil/pkg/schema"
)

// fakeQuerier serves rows of the columns query per "schema/table".
type fakeQuerier struct {
	tables map[string][][]any
	err    error
	calls  atomic.Int32
}

func (q *fakeQuerier) Query(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
	q.calls.Add(1)
	if q.err != nil {
		return nil, q.err
	}
	key := fmt.Sprintf("%s/%s", args[0], args[1])
	return &fakeRows{rows: q.tables[key], pos: -1}, nil
}

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Values() ([]any, error) { return r.rows[r.pos], nil }

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos]
	if len(dest) != len(row) {
		return errors.New("fake: column count mismatch")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *bool:
			*p = row[i].(bool)
		case **string:
			if row[i] != nil {
				s := row[i].(string)
				*p = &s
			}
		case **int32:
			if row[i] != nil {
				n := int32(row[i].(int))
				*p = &n
			}
		default:
			return fmt.Errorf("fake: unsupported dest %T", d)
		}
	}
	return nil
}

// col builds a row in query order: name, type, nullable, default, length, precision, scale.
func col(name, dataType string, nullable bool, def any, length, precision, scale any) []any {
	return []any{name, dataType, nullable, def, length, precision, scale}
}

func usersTable() map[string][][]any {
	return map[string][][]any{
		"public/users": {
			col("id", "bigint", false, "nextval('users_id_seq'::regclass)", nil, 64, 0),
			col("email", "character varying", false, nil, 64, nil, nil),
			col("age", "smallint", true, nil, nil, 16, 0),
			col("balance", "numeric", false, "0", nil, 6, 2),
			col("rating", "real", true, nil, nil, 24, nil),
			col("active", "boolean", false, "true", nil, nil, nil),
			col("birthday", "date", true, nil, nil, nil, nil),
			col("wake_at", "time without time zone", true, nil, nil, nil, nil),
			col("created_at", "timestamp with time zone", false, "now()", nil, nil, nil),
			col("settings", "jsonb", true, nil, nil, nil, nil),
		},
	}
}

var _ schema.Querier = (*fakeQuerier)(nil)
