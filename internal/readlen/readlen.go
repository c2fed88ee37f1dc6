// Package readlen estimates the usable read length from the metadata the
// engine writes after a pass.
package readlen

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/asmkit/multik/internal/infocfg"
	"github.com/asmkit/multik/internal/layout"
)

var ErrMetadataMissing = errors.New("read length metadata not found")

const (
	keyLibCount         = "lib_count"
	keyReadLengthPrefix = "read_length_"
)

// Estimate returns the maximum read length over the libraries of pass k,
// skipping library indexes listed in excluded.
func Estimate(outputDir string, k int, excluded []int) (int, error) {
	path := layout.EstParams(layout.PassDir(outputDir, k))
	f, err := infocfg.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrMetadataMissing, path)
		}
		return 0, fmt.Errorf("failed to load %s: %w", path, err)
	}

	libCount, err := intValue(f, keyLibCount)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	maxLen := 0
	for i := range libCount {
		if slices.Contains(excluded, i) {
			continue
		}
		n, err := intValue(f, keyReadLengthPrefix+strconv.Itoa(i))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		maxLen = max(maxLen, n)
	}
	return maxLen, nil
}

func intValue(f *infocfg.File, key string) (int, error) {
	raw, ok := f.Get(key)
	if !ok {
		return 0, fmt.Errorf("missing key %q", key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %q: %w", key, err)
	}
	return n, nil
}
