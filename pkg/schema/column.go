package schema

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// columnsQuery is the one query the package runs.
const columnsQuery = `
SELECT column_name,
       data_type,
       is_nullable = 'YES',
       column_default,
       character_maximum_length,
       numeric_precision,
       numeric_scale
  FROM information_schema.columns
 WHERE table_schema = $1
   AND table_name = $2
 ORDER BY ordinal_position`

// Querier runs a query. *pgxpool.Pool, *pgx.Conn and pgx.Tx satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Column is one row of the introspection query.
type Column struct {
	Name      string  `json:"name"`
	DataType  string  `json:"data_type"`
	Nullable  bool    `json:"nullable"`
	Default   *string `json:"default,omitempty"`
	MaxLength *int32  `json:"max_length,omitempty"`
	Precision *int32  `json:"precision,omitempty"`
	Scale     *int32  `json:"scale,omitempty"`
}

func queryColumns(ctx context.Context, q Querier, schemaName, table string) ([]Column, error) {
	rows, err := q.Query(ctx, columnsQuery, schemaName, table)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.Default, &c.MaxLength, &c.Precision, &c.Scale); err != nil {
			return nil, errors.Join(ErrQuery, err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	return cols, nil
}
