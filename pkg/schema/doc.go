// Package schema introspects PostgreSQL tables and validates values against
// their columns.
//
// Columns come from a single information_schema query. Each column type maps
// to one of eight field kinds that bound the values the column accepts:
//
//	Integer    smallint, integer, bigint (and serial forms)
//	Decimal    numeric(p, s)
//	Float      real, double precision
//	String     character varying(n), character(n), text and any unrecognised type
//	Boolean    boolean
//	Date       date
//	Time       time with or without time zone
//	Timestamp  timestamp with or without time zone
//
// Usage:
//
//	in := schema.New(pool)
//	users, err := in.Table(ctx, "public", "users")
//	if errs := users.Validate(map[string]any{"email": "a@b.c", "age": 300}); errs != nil {
//	    return errs.Err()
//	}
//
// Table definitions are cached; call Invalidate after migrations.
package schema
