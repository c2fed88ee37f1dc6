// Package kmer schedules the k-mer values of a multi-pass assembly: it
// normalizes the requested values, swaps in presets for long reads and
// works out which previously completed passes conflict with a new schedule.
package kmer

import (
	"errors"
	"fmt"
	"slices"
)

// Bounds of a k-mer value. Values are odd and lie in [MinK, MaxK).
const (
	MinK = 1
	MaxK = 128
)

var ErrInvalidSchedule = errors.New("invalid k-mer schedule")

// Schedule is a strictly increasing sequence of odd k-mer values, one per pass.
type Schedule []int

// Default is used when no k-mer values are configured.
var Default = Schedule{21, 33, 55}

// Normalize sorts and deduplicates values into a schedule.
func Normalize(values ...int) Schedule {
	s := slices.Clone(values)
	slices.Sort(s)
	return Schedule(slices.Compact(s))
}

// Validate checks that s is a usable schedule.
func Validate(s Schedule) error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no k-mer values", ErrInvalidSchedule)
	}
	for i, k := range s {
		if k < MinK || k >= MaxK {
			return fmt.Errorf("%w: k=%d outside [%d, %d)", ErrInvalidSchedule, k, MinK, MaxK)
		}
		if k%2 == 0 {
			return fmt.Errorf("%w: k=%d is even", ErrInvalidSchedule, k)
		}
		if i > 0 && s[i-1] >= k {
			return fmt.Errorf("%w: %v is not strictly increasing", ErrInvalidSchedule, []int(s))
		}
	}
	return nil
}

// Clone returns a copy of s.
func (s Schedule) Clone() Schedule {
	return slices.Clone(s)
}

// Below returns the values strictly less than limit.
func (s Schedule) Below(limit int) Schedule {
	var out Schedule
	for _, k := range s {
		if k < limit {
			out = append(out, k)
		}
	}
	return out
}

// Last returns the final value of s.
func (s Schedule) Last() int {
	return s[len(s)-1]
}
