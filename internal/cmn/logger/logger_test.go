package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("ConsoleAndWriter", func(t *testing.T) {
		var console, file bytes.Buffer
		l := NewLogger(WithConsole(&console), WithWriter(&file))

		l.Info("pass finished", "k", 21)

		require.Contains(t, console.String(), "pass finished")
		require.Contains(t, file.String(), "k=21")
	})

	t.Run("QuietSuppressesConsole", func(t *testing.T) {
		var console, file bytes.Buffer
		l := NewLogger(WithConsole(&console), WithWriter(&file), WithQuiet())

		l.Warn("seed contigs missing")

		require.Empty(t, console.String())
		require.Contains(t, file.String(), "seed contigs missing")
	})

	t.Run("DebugLevel", func(t *testing.T) {
		var console bytes.Buffer
		NewLogger(WithConsole(&console)).Debug("hidden")
		require.Empty(t, console.String())

		NewLogger(WithConsole(&console), WithDebug()).Debug("shown")
		require.Contains(t, console.String(), "shown")
		require.Contains(t, console.String(), "logger_test.go:")
	})

	t.Run("JSONFormat", func(t *testing.T) {
		var console bytes.Buffer
		NewLogger(WithConsole(&console), WithFormat("json")).Infof("estimate %d", 150)
		require.True(t, strings.HasPrefix(console.String(), "{"))
		require.Contains(t, console.String(), `"msg":"estimate 150"`)
	})
}

func TestContextLogger(t *testing.T) {
	var console bytes.Buffer
	ctx := WithLogger(context.Background(), NewLogger(WithConsole(&console)))
	ctx = WithValues(ctx, "run-id", "abc")

	Info(ctx, "starting")

	require.Contains(t, console.String(), "run-id=abc")
	require.Contains(t, console.String(), "starting")
}

func TestContextLogger_SourceIsCaller(t *testing.T) {
	var console bytes.Buffer
	ctx := WithLogger(context.Background(), NewLogger(WithConsole(&console), WithDebug()))

	Info(ctx, "from helper")
	Warnf(ctx, "formatted %d", 1)

	for _, line := range strings.Split(strings.TrimSpace(console.String()), "\n") {
		require.Contains(t, line, "logger_test.go:")
		require.NotContains(t, line, "context.go:")
	}
}
