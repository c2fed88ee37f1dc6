package kmer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidRestart = errors.New("invalid restart token")

// Directive selects the pass (and optionally the engine stage) a resumed
// run restarts from. It is parsed from "k<value>" or "k<value>:<stage>".
type Directive struct {
	K     int
	Stage string
}

// ParseRestart parses a restart token. An empty token yields nil.
func ParseRestart(token string) (*Directive, error) {
	if token == "" {
		return nil, nil
	}
	rest, ok := strings.CutPrefix(token, "k")
	if !ok {
		return nil, fmt.Errorf("%w: %q does not start with 'k'", ErrInvalidRestart, token)
	}
	value, stage, compound := strings.Cut(rest, ":")
	k, err := strconv.Atoi(value)
	if err != nil || k <= 0 {
		return nil, fmt.Errorf("%w: %q has no k-mer value", ErrInvalidRestart, token)
	}
	if compound && stage == "" {
		return nil, fmt.Errorf("%w: %q has an empty stage", ErrInvalidRestart, token)
	}
	return &Directive{K: k, Stage: stage}, nil
}

// Targets reports whether the directive names the pass for k.
func (d *Directive) Targets(k int) bool {
	return d != nil && d.K == k
}

// Compound reports whether the directive names an engine stage.
func (d *Directive) Compound() bool {
	return d != nil && d.Stage != ""
}

func (d *Directive) String() string {
	if d == nil {
		return ""
	}
	if d.Stage != "" {
		return fmt.Sprintf("k%d:%s", d.K, d.Stage)
	}
	return fmt.Sprintf("k%d", d.K)
}
