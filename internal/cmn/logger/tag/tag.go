// Package tag provides standardized tag functions for structured logging.
//
// All tag keys use kebab-case naming convention for consistency.
// Use these functions instead of raw strings to ensure consistent
// and type-safe log output across the codebase.
package tag

import (
	"fmt"
	"log/slog"
	"time"
)

func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Error creates a tag for error objects.
func Error(err any) slog.Attr {
	return slog.Any("err", err)
}

// RunID creates a tag for pipeline run IDs.
func RunID(id string) slog.Attr {
	return slog.String("run-id", id)
}

// Pipeline k-mer tags

// K creates a tag for the k-mer value of a pass.
func K(k int) slog.Attr {
	return slog.Int("k", k)
}

// PrevK creates a tag for the k-mer value of the pass seeding this one.
func PrevK(k int) slog.Attr {
	return slog.Int("prev-k", k)
}

// ExcludedK creates a tag for a k-mer value dropped from the schedule.
func ExcludedK(k int) slog.Attr {
	return slog.Int("excluded-k", k)
}

// Schedule creates a tag for a k-mer schedule.
func Schedule(ks []int) slog.Attr {
	return slog.String("schedule", fmt.Sprint(ks))
}

// Stage creates a tag for the engine entry stage.
func Stage(name string) slog.Attr {
	return slog.String("stage", name)
}

// State creates a tag for the resume state of a pass.
func State(state string) slog.Attr {
	return slog.String("state", state)
}

// Terminal creates a tag marking the terminal pass.
func Terminal(v bool) slog.Attr {
	return slog.Bool("terminal", v)
}

// ReadLength creates a tag for the estimated read length.
func ReadLength(n int) slog.Attr {
	return slog.Int("read-length", n)
}

// Preset creates a tag for an auto-selected k-mer preset name.
func Preset(name string) slog.Attr {
	return slog.String("preset", name)
}

// Path and file tags

// File creates a tag for file paths.
func File(path string) slog.Attr {
	return slog.String("file", path)
}

// Dir creates a tag for directory paths.
func Dir(path string) slog.Attr {
	return slog.String("dir", path)
}

// Src creates a tag for the source of a copy.
func Src(path string) slog.Attr {
	return slog.String("src", path)
}

// Dst creates a tag for the destination of a copy.
func Dst(path string) slog.Attr {
	return slog.String("dst", path)
}

// Key creates a tag for a config key.
func Key(key string) slog.Attr {
	return slog.String("key", key)
}

// Execution tags

// Command creates a tag for an executed command line.
func Command(cmd string) slog.Attr {
	return slog.String("command", cmd)
}

// ExitCode creates a tag for process exit codes.
func ExitCode(code int) slog.Attr {
	return slog.Int("exit-code", code)
}

// PID creates a tag for a process ID.
func PID(pid int) slog.Attr {
	return slog.Int("pid", pid)
}

// Duration creates a tag for elapsed time.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Count creates a tag for a count.
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

// Length creates a tag for a total sequence length.
func Length(n int64) slog.Attr {
	return slog.Int64("length", n)
}

// N50 creates a tag for an assembly N50 value.
func N50(n int) slog.Attr {
	return slog.Int("n50", n)
}
