package schema

import (
	"strings"
)

// Kind identifies one of the eight field types.
type Kind uint8

const (
	KindString Kind = iota
	KindInteger
	KindDecimal
	KindFloat
	KindBoolean
	KindDate
	KindTime
	KindTimestamp
)

var kindNames = [...]string{
	KindString:    "string",
	KindInteger:   "integer",
	KindDecimal:   "decimal",
	KindFloat:     "float",
	KindBoolean:   "boolean",
	KindDate:      "date",
	KindTime:      "time",
	KindTimestamp: "timestamp",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Field bounds the values a column accepts.
type Field interface {
	Name() string
	Kind() Kind
	Nullable() bool
	HasDefault() bool
	// Validate checks a non-nil value. Nil is handled by the table.
	Validate(v any) error
}

type base struct {
	name       string
	nullable   bool
	hasDefault bool
}

func (b base) Name() string     { return b.name }
func (b base) Nullable() bool   { return b.nullable }
func (b base) HasDefault() bool { return b.hasDefault }

// NewField maps a column to its field type.
func NewField(c Column) Field {
	b := base{name: c.Name, nullable: c.Nullable, hasDefault: c.Default != nil}

	switch strings.ToLower(strings.TrimSpace(c.DataType)) {
	case "smallint":
		return IntegerField{base: b, Min: -1 << 15, Max: 1<<15 - 1}
	case "integer":
		return IntegerField{base: b, Min: -1 << 31, Max: 1<<31 - 1}
	case "bigint":
		return IntegerField{base: b, Min: -1 << 63, Max: 1<<63 - 1}
	case "numeric", "decimal":
		return DecimalField{base: b, Precision: int(deref(c.Precision)), Scale: int(deref(c.Scale))}
	case "real":
		return FloatField{base: b, Single: true}
	case "double precision":
		return FloatField{base: b}
	case "character varying", "character", "varchar", "char":
		return StringField{base: b, MaxLength: int(deref(c.MaxLength))}
	case "text":
		return StringField{base: b}
	case "boolean":
		return BooleanField{base: b}
	case "date":
		return DateField{base: b}
	case "time without time zone", "time with time zone":
		return TimeField{base: b}
	case "timestamp without time zone", "timestamp with time zone":
		return TimestampField{base: b}
	default:
		return StringField{base: b, Unchecked: true}
	}
}

func deref(p *int32) int32 {
	if p == nil {
		return 0
	}
	return *p
}
