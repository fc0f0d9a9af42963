package catalog

import "errors"

var (
	ErrInvalidRoute   = errors.New("catalog: invalid route")
	ErrInvalidModule  = errors.New("catalog: invalid module")
	ErrUnknownSection = errors.New("catalog: unknown section")
	ErrUnknownKey     = errors.New("catalog: unknown key")
	ErrUnknownModule  = errors.New("catalog: unknown module")
	ErrPathConflict   = errors.New("catalog: path conflict")
	ErrLoad           = errors.New("catalog: failed to load")
)
