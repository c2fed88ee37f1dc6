package collect

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/shenwei356/bio/seqio/fastx"
)

// Stats summarizes a FASTA file.
type Stats struct {
	Count       int
	TotalLength int64
	Longest     int
	N50         int
}

// Summarize reads the sequences at path.
func Summarize(path string) (*Stats, error) {
	reader, err := fastx.NewReader(nil, path, "")
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer reader.Close()

	var lengths []int
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read record %d of %s: %w", len(lengths)+1, path, err)
		}
		lengths = append(lengths, len(record.Seq.Seq))
	}
	return summarizeLengths(lengths), nil
}

func summarizeLengths(lengths []int) *Stats {
	stats := &Stats{Count: len(lengths)}
	for _, l := range lengths {
		stats.TotalLength += int64(l)
	}
	if len(lengths) == 0 {
		return stats
	}

	sorted := slices.Clone(lengths)
	slices.SortFunc(sorted, func(a, b int) int { return b - a })
	stats.Longest = sorted[0]

	var acc int64
	for _, l := range sorted {
		acc += int64(l)
		if 2*acc >= stats.TotalLength {
			stats.N50 = l
			break
		}
	}
	return stats
}
