package kmer

import (
	"context"
	"strconv"

	"github.com/asmkit/multik/internal/cmn/logger"
	"github.com/asmkit/multik/internal/cmn/logger/tag"
)

// Preset schedules chosen from the estimated read length.
var (
	Medium = Schedule{21, 33, 55, 77}
	Large  = Schedule{21, 33, 55, 77, 99, 127}
)

// Read length thresholds at which a preset replaces the requested schedule.
const (
	MediumReadLength = 150
	LargeReadLength  = 250
)

// AutoOptions controls AutoSelect.
type AutoOptions struct {
	// Enabled is true when the user left k-mer selection to the pipeline.
	Enabled bool
	// Silent suppresses the warning; used while probing during restart planning.
	Silent bool
}

// Preset returns the preset for readLen, if any.
func Preset(readLen int) (string, Schedule, bool) {
	switch {
	case readLen >= LargeReadLength:
		return "large", Large, true
	case readLen >= MediumReadLength:
		return "medium", Medium, true
	default:
		return "", nil, false
	}
}

// AutoSelect returns the schedule to use given the read length estimate.
// It never modifies cur.
func AutoSelect(ctx context.Context, cur Schedule, readLen int, opts AutoOptions) Schedule {
	if !opts.Enabled {
		return cur.Clone()
	}
	name, preset, ok := Preset(readLen)
	if !ok {
		return cur.Clone()
	}
	if !opts.Silent {
		threshold := MediumReadLength
		if name == "large" {
			threshold = LargeReadLength
		}
		logger.Warn(ctx, "Default k-mer sizes replaced by preset",
			tag.Preset(name),
			tag.Schedule(preset),
			tag.ReadLength(readLen),
			tag.String("reason", "estimated read length is equal to or greater than "+strconv.Itoa(threshold)),
		)
	}
	return preset.Clone()
}
