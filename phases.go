package tapesort

import (
	"cmp"

	"github.com/lanrat/tapesort/queue"
)

// distribute reads the source tapes in order and deals their natural runs
// round-robin onto targets. A run ends where a record is strictly less than the
// one before it, so equal neighbours always stay in the same run.
// It returns the number of runs written and the number of records moved.
func (s *Sorter[E]) distribute(sources, targets []*Tape[E]) (runs, records int, err error) {
	var (
		last     E
		haveLast bool
		i, n     int
	)
	for si, src := range sources {
		for !src.IsEmpty() {
			rec, err := src.Next()
			if err != nil {
				return runs, records, sourceError(si, err)
			}
			if haveLast && s.codec.Compare(rec, last) < 0 {
				targets[i].runLen = append(targets[i].runLen, n)
				runs++
				i = (i + 1) % len(targets)
				n = 0
			}
			if err = targets[i].Push(rec); err != nil {
				return runs, records, targetError(i, err)
			}
			n++
			records++
			last, haveLast = rec, true
		}
	}
	if n > 0 {
		targets[i].runLen = append(targets[i].runLen, n)
		runs++
	}
	for ti, t := range targets {
		if err = t.Flush(); err != nil {
			return runs, records, targetError(ti, err)
		}
	}
	return runs, records, nil
}

// mergeHead is the next unconsumed record of one source run
type mergeHead[E any] struct {
	rec      E
	source   int
	consumed int
}

// merge combines the r-th run of every source into a single run on target
// r mod len(targets). The smallest head is taken first; on ties the source with
// the lowest index wins.
func (s *Sorter[E]) merge(sources, targets []*Tape[E]) error {
	maxRuns := 0
	for _, src := range sources {
		maxRuns = max(maxRuns, len(src.runLen))
	}

	pq := queue.NewPriorityQueue(func(a, b *mergeHead[E]) int {
		if c := s.codec.Compare(a.rec, b.rec); c != 0 {
			return c
		}
		return cmp.Compare(a.source, b.source)
	})

	ti := 0
	for r := 0; r < maxRuns; r++ {
		target := targets[ti]
		for si, src := range sources {
			if r >= len(src.runLen) || src.runLen[r] == 0 {
				continue
			}
			rec, err := src.View()
			if err != nil {
				return sourceError(si, err)
			}
			pq.Push(&mergeHead[E]{rec: rec, source: si})
		}

		merged := 0
		for pq.Len() > 0 {
			head := pq.Peek()
			src := sources[head.source]
			rec, err := src.Next()
			if err != nil {
				return sourceError(head.source, err)
			}
			if err = target.Push(rec); err != nil {
				return targetError(ti, err)
			}
			merged++
			head.consumed++
			if head.consumed == src.runLen[r] {
				pq.Pop()
				continue
			}
			if head.rec, err = src.View(); err != nil {
				return sourceError(head.source, err)
			}
			pq.PeekUpdate()
		}

		if merged > 0 {
			target.runLen = append(target.runLen, merged)
		}
		ti = (ti + 1) % len(targets)
	}

	for i, t := range targets {
		if err := t.Flush(); err != nil {
			return targetError(i, err)
		}
	}
	return nil
}
