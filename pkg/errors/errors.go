// Package errors defines the error taxonomy shared by every wordbot
// component. Callers classify failures with errors.Is against the sentinels
// below; AppError attaches a human-readable message and the offending word.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrPersistence   = errors.New("persistence error")
	ErrExhausted     = errors.New("word corpus exhausted")
	ErrPublish       = errors.New("publish error")
	ErrCycleBusy     = errors.New("cycle already in progress")
)

// AppError wraps one of the sentinels with context.
type AppError struct {
	Err     error
	Message string
	Word    string
}

func (e *AppError) Error() string {
	if e.Word != "" {
		return fmt.Sprintf("%s: %s (word %q)", e.Err.Error(), e.Message, e.Word)
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// ForWord wraps cause under sentinel and records the word it concerns. The
// cause stays reachable through errors.Is/As via the message chain.
func ForWord(sentinel error, word string, cause error) error {
	return &causeError{
		AppError: AppError{Err: sentinel, Message: cause.Error(), Word: word},
		cause:    cause,
	}
}

// Wrapf wraps cause under sentinel with a formatted message. Both the
// sentinel and the cause stay reachable through errors.Is/As.
func Wrapf(sentinel, cause error, format string, args ...any) error {
	return &causeError{
		AppError: AppError{Err: sentinel, Message: fmt.Sprintf(format, args...) + ": " + cause.Error()},
		cause:    cause,
	}
}

type causeError struct {
	AppError
	cause error
}

func (e *causeError) Unwrap() []error {
	return []error{e.Err, e.cause}
}

func (e *causeError) As(target any) bool {
	if t, ok := target.(**AppError); ok {
		*t = &e.AppError
		return true
	}
	return false
}

// IsFatal reports whether err must terminate the process. Only configuration
// errors qualify; every per-cycle failure is logged and survived.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// Kind returns a short label for err suitable for metric labels and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrExhausted):
		return "exhausted"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrPublish):
		return "publish"
	case errors.Is(err, ErrCycleBusy):
		return "busy"
	default:
		return "internal"
	}
}
