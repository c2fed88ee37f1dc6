// Package dataset loads the YAML dataset descriptor handed to the assembly
// engine. The pipeline only needs library types and their positions; read
// paths are carried through untouched.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/goccy/go-yaml"
)

// Library types known to the engine.
const (
	TypePairedEnd        = "paired-end"
	TypeSingle           = "single"
	TypeMatePairs        = "mate-pairs"
	TypeHQMatePairs      = "hq-mate-pairs"
	TypePacBio           = "pacbio"
	TypeNanopore         = "nanopore"
	TypeSanger           = "sanger"
	TypeTrustedContigs   = "trusted-contigs"
	TypeUntrustedContigs = "untrusted-contigs"
)

// NotUsedInConstruction lists library types the engine excludes from
// graph construction. Their read lengths never drive k-mer selection.
var NotUsedInConstruction = []string{
	TypePacBio,
	TypeNanopore,
	TypeSanger,
	TypeTrustedContigs,
	TypeUntrustedContigs,
}

var ErrEmptyDataset = errors.New("dataset has no libraries")

// Library is one entry of the dataset descriptor.
type Library struct {
	Type            string   `yaml:"type"`
	Orientation     string   `yaml:"orientation,omitempty"`
	LeftReads       []string `yaml:"left reads,omitempty"`
	RightReads      []string `yaml:"right reads,omitempty"`
	InterlacedReads []string `yaml:"interlaced reads,omitempty"`
	SingleReads     []string `yaml:"single reads,omitempty"`
}

// Dataset is the ordered library list; a library's index is its position.
type Dataset struct {
	Path      string
	Libraries []Library
}

// Load reads and decodes the descriptor at path.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}
	var libs []Library
	if err := yaml.Unmarshal(data, &libs); err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}
	if len(libs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDataset, path)
	}
	for i, lib := range libs {
		if lib.Type == "" {
			return nil, fmt.Errorf("dataset %s: library %d has no type", path, i)
		}
	}
	return &Dataset{Path: path, Libraries: libs}, nil
}

// LibIDsByType returns the indexes of libraries whose type is in types.
func (d *Dataset) LibIDsByType(types ...string) []int {
	var ids []int
	for i, lib := range d.Libraries {
		if slices.Contains(types, lib.Type) {
			ids = append(ids, i)
		}
	}
	return ids
}

// ExcludedFromConstruction returns the library indexes skipped by graph
// construction. A nil dataset excludes nothing.
func (d *Dataset) ExcludedFromConstruction() []int {
	if d == nil {
		return nil
	}
	return d.LibIDsByType(NotUsedInConstruction...)
}
