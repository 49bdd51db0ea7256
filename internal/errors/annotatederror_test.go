package errors_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"testing"

	"github.com/myrjola/liftcoach/internal/errors"
	"github.com/myrjola/liftcoach/internal/testhelpers"
)

var errNoHistory = errors.NewSentinel("no strength history")

// here returns "annotatederror_test.go:<line>" for the line it is called from.
func here() string {
	_, file, line, _ := runtime.Caller(1)
	return fmt.Sprintf("%s:%d", file[strings.LastIndex(file, "/")+1:], line)
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "sentinel",
			err:  errNoHistory,
			want: "no strength history",
		},
		{
			name: "new",
			err:  errors.New("catalog is empty", slog.Int("exercises", 0)),
			want: "catalog is empty",
		},
		{
			name: "wrapped twice",
			err:  errors.Wrap(errors.Wrap(errNoHistory, "suggest next weight"), "serve stdio"),
			want: "serve stdio: suggest next weight: no strength history",
		},
		{
			name: "wrapped nil",
			err:  errors.Wrap(nil, "open db"),
			want: "open db",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

type parseError struct {
	line int
}

func (e *parseError) Error() string { return fmt.Sprintf("line %d", e.line) }

func TestError_Chain(t *testing.T) {
	root := &parseError{line: 12}
	err := errors.Wrap(fmt.Errorf("decode catalog: %w", root), "load catalog")

	var target *parseError
	if !errors.As(err, &target) || target.line != 12 {
		t.Errorf("As() target = %v, want line 12", target)
	}
	if errors.Is(err, errNoHistory) {
		t.Error("Is() matched an unrelated sentinel")
	}
	if !errors.Is(errors.Wrap(errNoHistory, "progress"), errNoHistory) {
		t.Error("Is() missed the wrapped sentinel")
	}
	if got := errors.Unwrap(errors.Unwrap(err)); got != root {
		t.Errorf("Unwrap() = %v, want the parse error", got)
	}
}

func TestSlogError(t *testing.T) {
	inner, innerSource := errors.Wrap(errNoHistory, "list strength", slog.String("user_id", "alice")), here()
	err := errors.Wrap(inner, "log session", slog.String("exercise_id", "push-up"))

	var buf bytes.Buffer
	testhelpers.NewLogger(&buf).Info("tool call failed", errors.SlogError(err))
	logLine := buf.String()

	for _, want := range []string{
		"error.message=\"log session: list strength: no strength history\"",
		"error.annotations.user_id=alice",
		"error.annotations.exercise_id=push-up",
		"error.source=" + innerSource,
	} {
		if !strings.Contains(logLine, want) {
			t.Errorf("log line %s does not contain %s", logLine, want)
		}
	}
	if strings.Contains(logLine, "annotatederror.go") {
		t.Errorf("log line %s points into the errors package", logLine)
	}

	for _, odd := range []error{
		nil,
		errors.Join(nil, nil),
		errors.Join(errNoHistory, errors.New("second")),
		fmt.Errorf("plain: %w", errNoHistory),
		errors.Wrap(errors.Join(nil, nil), "empty join"),
	} {
		if attr := errors.SlogError(odd); attr.Key != "error" {
			t.Errorf("SlogError(%v).Key = %q, want error", odd, attr.Key)
		}
	}
}

func TestDecoratePanic(t *testing.T) {
	if errors.DecoratePanic(nil) != nil {
		t.Error("DecoratePanic(nil) returned an error")
	}

	var panicSource string
	defer func() {
		err := errors.DecoratePanic(recover())
		if err == nil {
			t.Fatal("expected error")
		}
		if got, want := err.Error(), "panic: readiness out of range"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
		if got := errors.SlogError(err).String(); !strings.Contains(got, panicSource) {
			t.Errorf("SlogError() = %s, want it to contain %s", got, panicSource)
		}
	}()
	panic(atLine(&panicSource, "readiness out of range"))
}

// atLine stores the caller's file and line in source and returns msg.
func atLine(source *string, msg string) string {
	_, file, line, _ := runtime.Caller(1)
	*source = fmt.Sprintf("%s:%d", file[strings.LastIndex(file, "/")+1:], line)
	return msg
}
