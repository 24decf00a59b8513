package lookup

import (
	"errors"
	"fmt"
)

// Kind classifies a lookup failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNetwork    Kind = "network"
	KindParse      Kind = "parse"
	KindNotFound   Kind = "not_found"
)

// Sentinels for errors.Is. Every *Error matches exactly one of them.
var (
	ErrValidation = errors.New("invalid dish name")
	ErrNetwork    = errors.New("network error")
	ErrParse      = errors.New("malformed recipe api response")
	ErrNotFound   = errors.New("no recipe found")
)

// Stage names the remote call a failure belongs to.
type Stage string

const (
	StageSearch Stage = "search"
	StageGet    Stage = "get"
)

// Error is the terminal failure of one lookup.
type Error struct {
	Kind  Kind
	Stage Stage  // empty for validation failures
	Field string // offending field path, parse failures only
	Dish  string
	Err   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("lookup %q: %s", e.Dish, e.sentinel())
	if e.Stage != "" {
		msg += " during " + string(e.Stage)
	}
	if e.Field != "" {
		msg += " at " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindValidation:
		return ErrValidation
	case KindNetwork:
		return ErrNetwork
	case KindParse:
		return ErrParse
	case KindNotFound:
		return ErrNotFound
	}
	return errors.New(string(e.Kind))
}

// KindOf returns the Kind of err, or "" when err is not a lookup failure.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}
