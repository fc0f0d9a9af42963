package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// IntegerField accepts whole numbers within [Min, Max].
type IntegerField struct {
	base
	Min, Max int64
}

func (IntegerField) Kind() Kind { return KindInteger }

func (f IntegerField) Validate(v any) error {
	n, err := toInt64(v)
	if err != nil {
		return err
	}
	if n < f.Min || n > f.Max {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrRange, n, f.Min, f.Max)
	}
	return nil
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return uintToInt64(uint64(x))
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return uintToInt64(x)
	case float32:
		return floatToInt64(float64(x))
	case float64:
		return floatToInt64(x)
	case json.Number:
		return parseInt(x.String())
	case string:
		return parseInt(x)
	default:
		return 0, fmt.Errorf("%w: %T for integer", ErrType, v)
	}
}

func uintToInt64(u uint64) (int64, error) {
	if u > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d overflows bigint", ErrRange, u)
	}
	return int64(u), nil
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %v is not a whole number", ErrFormat, f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v overflows bigint", ErrRange, f)
	}
	return int64(f), nil
}

func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, fmt.Errorf("%w: %q overflows bigint", ErrRange, s)
		}
		return 0, fmt.Errorf("%w: %q is not an integer", ErrFormat, s)
	}
	return n, nil
}

// DecimalField accepts exact numbers with at most Precision-Scale integer digits.
// Zero Precision means unconstrained numeric. Extra fractional digits are
// accepted; PostgreSQL rounds them to Scale.
type DecimalField struct {
	base
	Precision, Scale int
}

func (DecimalField) Kind() Kind { return KindDecimal }

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)

func (f DecimalField) Validate(v any) error {
	var s string
	switch x := v.(type) {
	case string:
		s = strings.TrimSpace(x)
	case json.Number:
		s = x.String()
	case float32:
		s = strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %v", ErrRange, x)
		}
		s = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		s = strconv.FormatInt(n, 10)
	}
	if !decimalPattern.MatchString(s) {
		return fmt.Errorf("%w: %q is not a decimal", ErrFormat, s)
	}
	if f.Precision == 0 {
		return nil
	}

	intPart, _, _ := strings.Cut(strings.TrimLeft(s, "+-"), ".")
	digits := len(strings.TrimLeft(intPart, "0"))
	if limit := f.Precision - f.Scale; digits > limit {
		return fmt.Errorf("%w: %s exceeds numeric(%d,%d)", ErrRange, s, f.Precision, f.Scale)
	}
	return nil
}

// FloatField accepts floating point numbers. Single marks real columns.
type FloatField struct {
	base
	Single bool
}

func (FloatField) Kind() Kind { return KindFloat }

func (f FloatField) Validate(v any) error {
	var x float64
	switch n := v.(type) {
	case float32:
		x = float64(n)
	case float64:
		x = n
	case json.Number:
		return f.Validate(n.String())
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", ErrFormat, n)
		}
		x = p
	default:
		i, err := toInt64(v)
		if err != nil {
			return err
		}
		x = float64(i)
	}
	if f.Single && !math.IsInf(x, 0) && math.Abs(x) > math.MaxFloat32 {
		return fmt.Errorf("%w: %v overflows real", ErrRange, x)
	}
	return nil
}

// StringField accepts text of at most MaxLength characters; zero means unbounded.
// Unchecked fields back types the package does not recognise and accept any value.
type StringField struct {
	base
	MaxLength int
	Unchecked bool
}

func (StringField) Kind() Kind { return KindString }

func (f StringField) Validate(v any) error {
	if f.Unchecked {
		return nil
	}

	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	case fmt.Stringer:
		s = x.String()
	default:
		return fmt.Errorf("%w: %T for text", ErrType, v)
	}
	if f.MaxLength > 0 && utf8.RuneCountInString(s) > f.MaxLength {
		return fmt.Errorf("%w: %d characters, max %d", ErrLength, utf8.RuneCountInString(s), f.MaxLength)
	}
	return nil
}

// BooleanField accepts bool and the boolean literals PostgreSQL parses.
type BooleanField struct {
	base
}

func (BooleanField) Kind() Kind { return KindBoolean }

var boolLiterals = map[string]bool{
	"t": true, "true": true, "y": true, "yes": true, "on": true, "1": true,
	"f": true, "false": true, "n": true, "no": true, "off": true, "0": true,
}

func (BooleanField) Validate(v any) error {
	switch x := v.(type) {
	case bool:
		return nil
	case string:
		if boolLiterals[strings.ToLower(strings.TrimSpace(x))] {
			return nil
		}
		return fmt.Errorf("%w: %q is not a boolean", ErrFormat, x)
	default:
		return fmt.Errorf("%w: %T for boolean", ErrType, v)
	}
}

// DateField accepts time.Time or "YYYY-MM-DD".
type DateField struct {
	base
}

func (DateField) Kind() Kind { return KindDate }

func (DateField) Validate(v any) error {
	return validateTime(v, "date", time.DateOnly)
}

// TimeField accepts time.Time or a time of day with optional fraction and offset.
type TimeField struct {
	base
}

func (TimeField) Kind() Kind { return KindTime }

func (TimeField) Validate(v any) error {
	return validateTime(v, "time",
		"15:04", "15:04:05", "15:04:05.999999999",
		"15:04:05Z07:00", "15:04:05.999999999Z07:00", "15:04:05-07",
	)
}

// TimestampField accepts time.Time, RFC 3339 or PostgreSQL's "YYYY-MM-DD hh:mm:ss" forms.
type TimestampField struct {
	base
}

func (TimestampField) Kind() Kind { return KindTimestamp }

func (TimestampField) Validate(v any) error {
	return validateTime(v, "timestamp",
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999-07",
		time.DateOnly,
	)
}

func validateTime(v any, kind string, layouts ...string) error {
	switch x := v.(type) {
	case time.Time:
		return nil
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range layouts {
			if _, err := time.Parse(layout, s); err == nil {
				return nil
			}
		}
		return fmt.Errorf("%w: %q is not a %s", ErrFormat, x, kind)
	default:
		return fmt.Errorf("%w: %T for %s", ErrType, v, kind)
	}
}
