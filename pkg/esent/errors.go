package esent

import (
	"errors"
	"fmt"
)

//Error kinds. Use errors.Is against these.
var (
	ErrIo           = errors.New("io")
	ErrCorrupt      = errors.New("corrupt")
	ErrNotFound     = errors.New("not found")
	ErrEncoding     = errors.New("invalid encoding")
	ErrTypeMismatch = errors.New("type mismatch")
	//ErrOutOfRange is returned for ordinals past the end, it also matches ErrNotFound
	ErrOutOfRange = errors.New("ordinal out of range")
)

//Error carries the operation and page an engine failure happened on
type Error struct {
	Kind error
	Op   string
	//Page is the page number involved, 0 when the failure isn't tied to a page
	Page uint32
	Err  error
}

func (e *Error) Error() string {
	s := "esent: " + e.Op
	if e.Page != 0 {
		s += fmt.Sprintf(" page %d", e.Page)
	}
	s += ": " + e.Kind.Error()
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	if target == e.Kind {
		return true
	}
	return e.Kind == ErrOutOfRange && target == ErrNotFound
}

func corruptf(op string, page uint32, format string, args ...interface{}) error {
	return &Error{Kind: ErrCorrupt, Op: op, Page: page, Err: fmt.Errorf(format, args...)}
}

func ioError(op string, page uint32, err error) error {
	return &Error{Kind: ErrIo, Op: op, Page: page, Err: err}
}

func notFound(op string, what string) error {
	return &Error{Kind: ErrNotFound, Op: op, Err: errors.New(what)}
}

func outOfRange(op string, i, n int) error {
	return &Error{Kind: ErrOutOfRange, Op: op, Err: fmt.Errorf("%d not in [0,%d)", i, n)}
}

func typeMismatch(want string, got ColumnType) error {
	return &Error{Kind: ErrTypeMismatch, Op: "value " + want, Err: fmt.Errorf("value is %s", got)}
}
