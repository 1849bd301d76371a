package studio

import (
	"errors"
	"strings"
)

var (
	ErrNoScenes          = errors.New("no scenes provided")
	ErrMissingField      = errors.New("required field is empty")
	ErrIllegalTransition = errors.New("illegal view transition")
)

// GenerationError is the one user facing failure shape: a few message lines
// for display plus the underlying cause for logs and errors.Is.
type GenerationError struct {
	Lines []string
	Cause error
}

func (e *GenerationError) Error() string {
	msg := strings.Join(e.Lines, " ")
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

var genericLines = []string{"Something went wrong.", "Please try again."}

// Messages returns the display lines for err.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) && len(genErr.Lines) > 0 {
		return append([]string(nil), genErr.Lines...)
	}
	return append([]string(nil), genericLines...)
}

// IsUserError reports whether err was rejected before any service call.
func IsUserError(err error) bool {
	return errors.Is(err, ErrNoScenes) || errors.Is(err, ErrMissingField)
}

func missing(line, field string) error {
	return &GenerationError{
		Lines: []string{line},
		Cause: &fieldError{field: field},
	}
}

type fieldError struct {
	field string
}

func (e *fieldError) Error() string { return ErrMissingField.Error() + ": " + e.field }

func (e *fieldError) Unwrap() error { return ErrMissingField }
