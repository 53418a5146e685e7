package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	color.NoColor = true
	buf := &bytes.Buffer{}
	SetOutput(buf)
	return buf
}

func TestLevels(t *testing.T) {
	buf := capture(t)

	Info("listening on %d", 5000)
	assert.Contains(t, buf.String(), "[INFO]")
	assert.Contains(t, buf.String(), "listening on 5000")

	buf.Reset()
	Error("boom")
	assert.Contains(t, buf.String(), "[Error] boom")
}

func TestWithContext(t *testing.T) {
	buf := capture(t)
	ctx := WithRequestID(context.Background(), "abc-123")

	assert.Equal(t, "abc-123", RequestID(ctx))
	WarnWithContext(ctx, "slow query")
	assert.Contains(t, buf.String(), "[req_id=abc-123] slow query")
}

func TestDebugGatedByVerbose(t *testing.T) {
	buf := capture(t)

	SetVerbose(false)
	Debug("hidden")
	assert.Empty(t, buf.String())

	SetVerbose(true)
	defer SetVerbose(false)
	Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestDump(t *testing.T) {
	out := Dump(struct{ Name string }{"tour"})
	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "tour")
}
