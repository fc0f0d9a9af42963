package schema

import "errors"

var (
	ErrTableNotFound = errors.New("schema: table not found")
	ErrQuery         = errors.New("schema: introspection query failed")

	ErrNull          = errors.New("schema: value must not be null")
	ErrRequired      = errors.New("schema: value is required")
	ErrUnknownColumn = errors.New("schema: unknown column")
	ErrType          = errors.New("schema: unsupported value type")
	ErrRange         = errors.New("schema: value out of range")
	ErrLength        = errors.New("schema: value too long")
	ErrFormat        = errors.New("schema: malformed value")
)
