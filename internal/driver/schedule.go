package driver

import (
	"github.com/asmkit/multik/internal/kmer"
	"github.com/asmkit/multik/internal/pass"
)

// tail is what follows the first pass once the read length is known.
type tail struct {
	Iterations []pass.Iteration
	// Rerun is set when the first pass is repeated as the terminal pass.
	Rerun bool
	// Excluded is the first k left out because of the read length, or 0.
	Excluded int
}

// planTail decides the passes after the first one. first is the k of the
// pass that already ran; sched is the schedule after auto-selection.
func planTail(first int, sched kmer.Schedule, readLen int, rrEnable bool) tail {
	if exceeds(sched[1], readLen) {
		t := tail{Excluded: sched[1]}
		if rrEnable {
			t.Rerun = true
			t.Iterations = []pass.Iteration{{K: first, Terminal: true}}
		}
		return t
	}

	var t tail
	rest := sched[1:]
	prev := first
	for i, k := range rest {
		terminal := i+1 == len(rest) || exceeds(rest[i+1], readLen)
		t.Iterations = append(t.Iterations, pass.Iteration{K: k, PrevK: prev, Terminal: terminal})
		prev = k
		if terminal {
			if i+1 < len(rest) {
				t.Excluded = rest[i+1]
			}
			break
		}
	}
	return t
}

// exceeds reports whether k is too long for reads of readLen.
func exceeds(k, readLen int) bool {
	return k+1 > readLen
}
