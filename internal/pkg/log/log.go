package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

var (
	mu      sync.Mutex
	out     io.Writer = os.Stdout
	verbose bool
)

// SetOutput redirects every level. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetVerbose enables Debug output. The server turns it on in development.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// WithRequestID adds request ID to context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request ID stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func write(prefix string, requestID string, format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	if requestID != "" {
		msg = fmt.Sprintf("[req_id=%s] %s", requestID, msg)
	}
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "%s %s\n", prefix, msg)
}

var (
	infoTag  = color.New(color.FgWhite, color.BgGreen).SprintFunc()
	warnTag  = color.New(color.FgWhite, color.BgYellow).SprintFunc()
	errorTag = color.New(color.FgRed).SprintFunc()
	debugTag = color.New(color.FgCyan).SprintFunc()
)

// Info log information
func Info(format string, a ...interface{}) {
	write(infoTag("[INFO] "), "", format, a...)
}

// InfoWithContext logs information with the request ID when available
func InfoWithContext(ctx context.Context, format string, a ...interface{}) {
	write(infoTag("[INFO] "), RequestID(ctx), format, a...)
}

// Warn log warning
func Warn(format string, a ...interface{}) {
	write(warnTag("[WARN] "), "", format, a...)
}

func WarnWithContext(ctx context.Context, format string, a ...interface{}) {
	write(warnTag("[WARN] "), RequestID(ctx), format, a...)
}

// Error log error
func Error(format string, a ...interface{}) {
	write(errorTag("[Error]"), "", format, a...)
}

func ErrorWithContext(ctx context.Context, format string, a ...interface{}) {
	write(errorTag("[Error]"), RequestID(ctx), format, a...)
}

// Debug is silent unless SetVerbose(true) was called.
func Debug(format string, a ...interface{}) {
	mu.Lock()
	on := verbose
	mu.Unlock()
	if !on {
		return
	}
	write(debugTag("[DEBUG]"), "", format, a...)
}

// Dump returns a deep, human readable rendering of the values.
func Dump(a ...interface{}) string {
	return spew.Sdump(a...)
}
