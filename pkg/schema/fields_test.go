package schema_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/pkg/schema"
)

func ptr[T any](v T) *T { return &v }

func TestNewField_Kinds(t *testing.T) {
	t.Parallel()

	tests := map[string]schema.Kind{
		"smallint":                    schema.KindInteger,
		"integer":                     schema.KindInteger,
		"bigint":                      schema.KindInteger,
		"numeric":                     schema.KindDecimal,
		"real":                        schema.KindFloat,
		"double precision":            schema.KindFloat,
		"character varying":           schema.KindString,
		"character":                   schema.KindString,
		"text":                        schema.KindString,
		"boolean":                     schema.KindBoolean,
		"date":                        schema.KindDate,
		"time with time zone":         schema.KindTime,
		"timestamp without time zone": schema.KindTimestamp,
		"uuid":                        schema.KindString,
		"USER-DEFINED":                schema.KindString,
	}
	for dataType, want := range tests {
		f := schema.NewField(schema.Column{Name: "c", DataType: dataType})
		assert.Equal(t, want, f.Kind(), dataType)
	}

	assert.Equal(t, "timestamp", schema.KindTimestamp.String())
	assert.Equal(t, "unknown", schema.Kind(99).String())
}

func TestNewField_Metadata(t *testing.T) {
	t.Parallel()

	f := schema.NewField(schema.Column{Name: "email", DataType: "character varying", Nullable: true, Default: ptr("''"), MaxLength: ptr(int32(5))})
	assert.Equal(t, "email", f.Name())
	assert.True(t, f.Nullable())
	assert.True(t, f.HasDefault())

	sf, ok := f.(schema.StringField)
	require.True(t, ok)
	assert.Equal(t, 5, sf.MaxLength)
}

func TestIntegerField(t *testing.T) {
	t.Parallel()

	small := schema.NewField(schema.Column{Name: "n", DataType: "smallint"})
	big := schema.NewField(schema.Column{Name: "n", DataType: "bigint"})

	for _, v := range []any{0, int8(-5), int64(32767), uint16(100), float64(12), "  -32768 ", json.Number("7")} {
		assert.NoError(t, small.Validate(v), "%v", v)
	}
	assert.ErrorIs(t, small.Validate(32768), schema.ErrRange)
	assert.ErrorIs(t, small.Validate("-40000"), schema.ErrRange)
	assert.ErrorIs(t, small.Validate(1.5), schema.ErrFormat)
	assert.ErrorIs(t, small.Validate("abc"), schema.ErrFormat)
	assert.ErrorIs(t, small.Validate(true), schema.ErrType)

	assert.NoError(t, big.Validate(int64(-1<<63)))
	assert.ErrorIs(t, big.Validate(uint64(1<<63)), schema.ErrRange)
	assert.ErrorIs(t, big.Validate("99999999999999999999"), schema.ErrRange)
}

func TestDecimalField(t *testing.T) {
	t.Parallel()

	f := schema.NewField(schema.Column{Name: "d", DataType: "numeric", Precision: ptr(int32(5)), Scale: ptr(int32(2))})

	for _, v := range []any{"999.99", "-0.5", ".75", "000123.4", 999, 12.345, json.Number("1.5")} {
		assert.NoError(t, f.Validate(v), "%v", v)
	}
	assert.ErrorIs(t, f.Validate("1000"), schema.ErrRange)
	assert.ErrorIs(t, f.Validate(1234.5), schema.ErrRange)
	assert.ErrorIs(t, f.Validate("1e3"), schema.ErrFormat)
	assert.ErrorIs(t, f.Validate("12.3.4"), schema.ErrFormat)
	assert.ErrorIs(t, f.Validate([]int{1}), schema.ErrType)

	unbounded := schema.NewField(schema.Column{Name: "d", DataType: "numeric"})
	assert.NoError(t, unbounded.Validate("123456789012345678901234567890.123"))
}

func TestFloatField(t *testing.T) {
	t.Parallel()

	single := schema.NewField(schema.Column{Name: "f", DataType: "real"})
	double := schema.NewField(schema.Column{Name: "f", DataType: "double precision"})

	for _, v := range []any{1.5, float32(2), 3, "4.25", json.Number("5e3")} {
		assert.NoError(t, single.Validate(v), "%v", v)
	}
	assert.ErrorIs(t, single.Validate(1e39), schema.ErrRange)
	assert.NoError(t, double.Validate(1e39))
	assert.ErrorIs(t, double.Validate("fast"), schema.ErrFormat)
	assert.ErrorIs(t, double.Validate(false), schema.ErrType)
}

func TestStringField(t *testing.T) {
	t.Parallel()

	f := schema.NewField(schema.Column{Name: "s", DataType: "character varying", MaxLength: ptr(int32(3))})

	assert.NoError(t, f.Validate("abc"))
	assert.NoError(t, f.Validate("日本語"), "length counts characters, not bytes")
	assert.NoError(t, f.Validate([]byte("ab")))
	assert.NoError(t, f.Validate(time.Second), "Stringer")
	assert.ErrorIs(t, f.Validate("abcd"), schema.ErrLength)
	assert.ErrorIs(t, f.Validate(42), schema.ErrType)

	text := schema.NewField(schema.Column{Name: "s", DataType: "text"})
	assert.NoError(t, text.Validate(string(make([]byte, 1<<16))))

	unknown := schema.NewField(schema.Column{Name: "s", DataType: "jsonb"})
	assert.NoError(t, unknown.Validate(map[string]any{"a": 1}))
}

func TestBooleanField(t *testing.T) {
	t.Parallel()

	f := schema.NewField(schema.Column{Name: "b", DataType: "boolean"})

	for _, v := range []any{true, false, "t", "FALSE", " yes ", "off", "1"} {
		assert.NoError(t, f.Validate(v), "%v", v)
	}
	assert.ErrorIs(t, f.Validate("maybe"), schema.ErrFormat)
	assert.ErrorIs(t, f.Validate(1), schema.ErrType)
}

func TestTemporalFields(t *testing.T) {
	t.Parallel()

	date := schema.NewField(schema.Column{Name: "d", DataType: "date"})
	tod := schema.NewField(schema.Column{Name: "t", DataType: "time without time zone"})
	ts := schema.NewField(schema.Column{Name: "ts", DataType: "timestamp with time zone"})

	assert.NoError(t, date.Validate("2024-02-29"))
	assert.NoError(t, date.Validate(time.Now()))
	assert.ErrorIs(t, date.Validate("2023-02-29"), schema.ErrFormat)
	assert.ErrorIs(t, date.Validate(20240229), schema.ErrType)

	for _, v := range []string{"07:30", "07:30:15", "07:30:15.123456", "07:30:15+02:00", "07:30:15-05"} {
		assert.NoError(t, tod.Validate(v), v)
	}
	assert.ErrorIs(t, tod.Validate("25:00"), schema.ErrFormat)

	for _, v := range []string{"2024-01-02T03:04:05Z", "2024-01-02 03:04:05", "2024-01-02 03:04:05.5+02", "2024-01-02"} {
		assert.NoError(t, ts.Validate(v), v)
	}
	assert.ErrorIs(t, ts.Validate("yesterday"), schema.ErrFormat)
}
