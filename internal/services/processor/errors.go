package processor

import (
	"errors"
	"fmt"
)

var (
	ErrDecode = errors.New("decode error")
	ErrEncode = errors.New("encode error")
)

// Error carries the failing stage of a transform. errors.Is matches it
// against ErrDecode or ErrEncode.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func decodeError(err error) error {
	return &Error{Kind: ErrDecode, Err: err}
}

func encodeError(err error) error {
	return &Error{Kind: ErrEncode, Err: err}
}
