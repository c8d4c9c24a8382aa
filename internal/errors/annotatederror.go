package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// annotatedError includes more context than a plain error that is useful for troubleshooting.
type annotatedError struct {
	// msg is the error message.
	msg string
	// pc is the program counter for the location of the error provided by runtime.Callers.
	pc uintptr
	// attrs are slog attributes that are added to the log event to provide more context for the error.
	attrs []slog.Attr
	// wrapped is the underlying error, nil for errors created with New.
	wrapped error
}

func newAnnotatedError(err error, msg string, attrs []slog.Attr) *annotatedError {
	var pcs [1]uintptr
	// Skip runtime.Callers, this function and the exported constructor.
	runtime.Callers(3, pcs[:]) //nolint:mnd // see above
	return &annotatedError{
		msg:     msg,
		pc:      pcs[0],
		attrs:   attrs,
		wrapped: err,
	}
}

// New creates a new error with the given message and attributes. The source location is captured for logging.
func New(msg string, attrs ...slog.Attr) error {
	return newAnnotatedError(nil, msg, attrs)
}

// Wrap adds context to err. The message is prefixed to the wrapped error message like with fmt.Errorf("%s: %w").
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return newAnnotatedError(err, msg, attrs)
}

// NewSentinel creates a plain error without other context that can be used as sentinel error that can be detected
// with errors.Is.
func NewSentinel(msg string) error {
	return errors.New(msg) //nolint:goerr113 // this is the sentinel constructor.
}

// Error implements error interface.
func (err *annotatedError) Error() string {
	if err.wrapped == nil {
		return err.msg
	}
	return fmt.Sprintf("%s: %s", err.msg, err.wrapped.Error())
}

// Unwrap makes errors.Is and errors.As work through the annotation.
func (err *annotatedError) Unwrap() error {
	return err.wrapped
}

func (err *annotatedError) source() string {
	frames := runtime.CallersFrames([]uintptr{err.pc})
	frame, _ := frames.Next()
	return fmt.Sprintf("%s:%d", frame.File, frame.Line)
}

// SlogError formats the error for useful logging.
//
// The attributes of every annotation in the chain are collected so that context added at any level ends up in the
// log event. The source points to the innermost annotation which is usually closest to the root cause.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	var (
		attrs  []slog.Attr
		source string
	)
	walk(err, func(e error) {
		if annotated, ok := e.(*annotatedError); ok { //nolint:errorlint // we walk the chain manually.
			attrs = append(attrs, annotated.attrs...)
			source = annotated.source()
		}
	})
	groupAttrs := []any{slog.String("message", err.Error())}
	if source != "" {
		groupAttrs = append(groupAttrs, slog.String("source", source))
	}
	for _, attr := range attrs {
		groupAttrs = append(groupAttrs, attr)
	}
	return slog.Group("error", groupAttrs...)
}

// walk visits every error in the chain including the branches of joined errors.
func walk(err error, visit func(error)) {
	for err != nil {
		visit(err)
		switch e := err.(type) { //nolint:errorlint // we walk the chain manually.
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				walk(inner, visit)
			}
			return
		case interface{ Unwrap() error }:
			err = e.Unwrap()
		default:
			return
		}
	}
}

// As exposes stdlib errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is exposes stdlib errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Unwrap exposes stdlib errors.Unwrap.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join exposes stdlib errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
