// Package errors wraps the standard library errors with annotations that survive into structured logs.
//
// Wrap records the call site and optional [slog.Attr] so that a single log line at the top of the call stack
// tells where the error happened and with which inputs.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

type annotatedError struct {
	err   error
	msg   string
	attrs []slog.Attr
	pc    uintptr
}

func (e *annotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

// NewSentinel creates an error meant to be declared as a package level variable and compared with [Is].
func NewSentinel(msg string) error {
	return stderrors.New(msg) //nolint:err113 // this is the sentinel constructor.
}

// New creates a new annotated error with the caller location.
func New(msg string, attrs ...slog.Attr) error {
	return &annotatedError{
		err:   nil,
		msg:   msg,
		attrs: attrs,
		pc:    callerPC(),
	}
}

// Wrap annotates err with msg, the caller location, and attrs that end up in the log line produced by [SlogError].
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return &annotatedError{
		err:   err,
		msg:   msg,
		attrs: attrs,
		pc:    callerPC(),
	}
}

// DecoratePanic converts a recovered value to an error pointing at the panic site.
//
// Returns nil if nothing was recovered.
func DecoratePanic(recovered any) error {
	if recovered == nil {
		return nil
	}
	return &annotatedError{
		err:   nil,
		msg:   fmt.Sprintf("panic: %v", recovered),
		attrs: nil,
		pc:    panicPC(),
	}
}

// SlogError builds a structured log attribute from err including the source location and all the annotations
// collected along the wrap chain.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}

	var (
		annotations []any
		source      string
	)
	walk(err, func(ae *annotatedError) {
		for _, attr := range ae.attrs {
			annotations = append(annotations, attr)
		}
		// The innermost annotation is the closest to the root cause.
		if ae.pc != 0 {
			source = formatPC(ae.pc)
		}
	})

	attrs := []any{slog.String("message", err.Error())}
	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", annotations...))
	}
	return slog.Group("error", attrs...)
}

// walk visits every annotated error in the tree rooted at err, outermost first.
func walk(err error, visit func(*annotatedError)) {
	if err == nil {
		return
	}
	if ae, ok := err.(*annotatedError); ok { //nolint:errorlint // we walk the chain ourselves.
		visit(ae)
	}
	switch x := err.(type) { //nolint:errorlint // we walk the chain ourselves.
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			walk(inner, visit)
		}
	case interface{ Unwrap() error }:
		walk(x.Unwrap(), visit)
	}
}

func callerPC() uintptr {
	pcs := make([]uintptr, 1)
	// Skip runtime.Callers, callerPC, and the exported constructor.
	if runtime.Callers(3, pcs) == 0 { //nolint:mnd // see above.
		return 0
	}
	return pcs[0]
}

// panicPC finds the first frame after runtime.gopanic which is where the panic was raised.
func panicPC() uintptr {
	const depth = 32
	pcs := make([]uintptr, depth)
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	sawPanic := false
	for {
		frame, more := frames.Next()
		if sawPanic {
			return frame.PC
		}
		if strings.HasPrefix(frame.Function, "runtime.gopanic") {
			sawPanic = true
		}
		if !more {
			return 0
		}
	}
}

func formatPC(pc uintptr) string {
	frames := runtime.CallersFrames([]uintptr{pc})
	frame, _ := frames.Next()
	if frame.File == "" {
		return ""
	}
	file := frame.File
	if i := strings.LastIndex(file, "/"); i >= 0 {
		file = file[i+1:]
	}
	return fmt.Sprintf("%s:%d", file, frame.Line)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Unwrap returns the result of calling the Unwrap method on err.
func Unwrap(err error) error { return stderrors.Unwrap(err) }

// Join returns an error that wraps the given errors.
func Join(errs ...error) error { return stderrors.Join(errs...) }
