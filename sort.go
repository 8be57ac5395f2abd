// Package tapesort implements an external natural merge sort of fixed-width records
// over simulated tapes: scratch files that are only accessed sequentially, one page
// of records at a time.
//
// A sort alternates two phases until the data forms a single run. Distribute scans
// the input for natural runs and deals them round-robin onto FanIn work tapes. Merge
// combines the r-th run of every work tape into one run on the input tape. Every
// physical page read and write is counted, and the count is reported next to the
// textbook cost of the same sort.
//
// tapesort is single threaded and is NOT a stable sort across runs: equal records
// coming from different work tapes are emitted lowest tape first.
package tapesort

import (
	"errors"
	"fmt"
	"math/bits"
)

// SortInfo reports what a sort did and what it should have cost
type SortInfo struct {
	// Phases is the number of distribute/merge rounds executed
	Phases int
	// DiskOps is the number of physical page reads and writes over all tapes
	DiskOps int
	// TheoreticalPhases is ceil(log2(Runs))
	TheoreticalPhases int
	// TheoreticalDiskOps is ceil(4 * Records * TheoreticalPhases / PageRecords):
	// every phase reads and writes the data once to distribute and once to merge
	TheoreticalDiskOps int

	// Runs is the number of natural runs found in the input
	Runs int
	// Records is the number of records sorted
	Records     int
	FanIn       int
	PageRecords int
	// PhaseStats holds one entry per executed phase
	PhaseStats []PhaseStats
}

// PhaseStats describes one distribute/merge round
type PhaseStats struct {
	Phase int
	// InputRuns is the number of runs the distribute found
	InputRuns int
	// LongestInputRun is the longest run the distribute wrote
	LongestInputRun int
	// Runs is the number of runs left after the merge
	Runs int
	// LongestRun is the longest run the merge wrote
	LongestRun int
	// DiskOps is the number of physical operations of this round
	DiskOps int
}

// TheoreticalPhases returns ceil(log2(runs)), the phase count of a balanced two-way merge
func TheoreticalPhases(runs int) int {
	if runs <= 1 {
		return 0
	}
	return bits.Len(uint(runs - 1))
}

// TheoreticalDiskOps returns ceil(4 * records * phases / pageRecords)
func TheoreticalDiskOps(records, phases, pageRecords int) int {
	if pageRecords < 1 {
		return 0
	}
	return (4*records*phases + pageRecords - 1) / pageRecords
}

// PhaseBound returns ceil(log_fanIn(runs)), the most phases a sort of runs natural runs
// can take: each phase merges fanIn runs into one and distribute never adds runs.
func PhaseBound(runs, fanIn int) int {
	if fanIn < 2 {
		return 0
	}
	phases := 0
	for runs > 1 {
		runs = (runs + fanIn - 1) / fanIn
		phases++
	}
	return phases
}

// Sort sorts the records of input in place. When Sort returns successfully input
// holds one run, is rewound and ready to be read. A tape that is already known to
// form a single run is returned at once with zero phases.
//
// Sort creates FanIn work tapes for the duration of the call and removes them on
// every return path. A failure during a merge leaves input holding only part of
// its records; it is then marked damaged and returns ErrDamaged until cleared.
func (s *Sorter[E]) Sort(input *Tape[E]) (info SortInfo, err error) {
	info = SortInfo{FanIn: s.config.FanIn, PageRecords: s.config.PageRecords}
	if s.closed || input == nil {
		return info, ErrClosed
	}
	if err = input.usable(); err != nil {
		return info, err
	}
	if input.h.Size() == 0 {
		return info, ErrEmptyInput
	}
	if rem := int(input.h.Size() % int64(s.codec.Size)); rem != 0 {
		return info, NewDeserializationError(ErrShortRecord, rem, "sort input")
	}
	if err = input.Flush(); err != nil {
		return info, err
	}
	// writes done before the sort are not part of its cost
	input.takeOps()

	info.Records = input.Records()
	if input.sorted() && input.runLen[0] == info.Records {
		info.Runs = 1
		s.log.Debug("input already sorted", "records", info.Records)
		return info, nil
	}
	input.runLen = nil

	work := make([]*Tape[E], 0, s.config.FanIn)
	defer func() {
		for _, t := range work {
			if cerr := t.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
		}
	}()
	for i := 0; i < s.config.FanIn; i++ {
		t, err := s.NewTape()
		if err != nil {
			return info, err
		}
		work = append(work, t)
	}

	targets := []*Tape[E]{input}
	for phase := 1; ; phase++ {
		stats := PhaseStats{Phase: phase}

		runs, records, err := s.distribute(targets, work)
		if err != nil {
			return info, inPhase(err, "distribute", phase)
		}
		stats.DiskOps += collectOps(targets) + collectOps(work)
		stats.InputRuns, stats.LongestInputRun = runs, longestRun(work)
		if phase == 1 {
			info.Runs = runs
		}
		s.log.Debug("distributed", "phase", phase, "runs", runs, "records", records, "disk_ops", stats.DiskOps)
		if err = s.trace("distribute", phase, work); err != nil {
			return info, inPhase(err, "distribute", phase)
		}

		if runs <= 1 {
			// the data on the input is already in order, keep it where it is
			input.runLen = []int{records}
			info.DiskOps += stats.DiskOps
			if err = clearTapes(work, "work"); err != nil {
				return info, inPhase(err, "distribute", phase)
			}
			if err = input.Flush(); err != nil {
				return info, inPhase(targetError(0, err), "distribute", phase)
			}
			break
		}

		// once the input is erased its records exist only on the work tapes until
		// the merge completes
		if err = clearTapes(targets, "input"); err != nil {
			input.damaged = true
			return info, inPhase(err, "merge", phase)
		}
		if err = s.merge(work, targets); err != nil {
			input.damaged = true
			return info, inPhase(err, "merge", phase)
		}
		stats.DiskOps += collectOps(work) + collectOps(targets)
		stats.Runs, stats.LongestRun = totalRuns(targets), longestRun(targets)
		info.Phases++
		info.DiskOps += stats.DiskOps
		info.PhaseStats = append(info.PhaseStats, stats)
		s.log.Debug("merged", "phase", phase, "runs", stats.Runs, "longest_run", stats.LongestRun, "disk_ops", stats.DiskOps)
		if err = s.trace("merge", phase, targets); err != nil {
			return info, inPhase(err, "merge", phase)
		}

		if err = clearTapes(work, "work"); err != nil {
			return info, inPhase(err, "merge", phase)
		}
		if isSorted(targets) {
			break
		}
	}

	info.TheoreticalPhases = TheoreticalPhases(info.Runs)
	info.TheoreticalDiskOps = TheoreticalDiskOps(info.Records, info.TheoreticalPhases, info.PageRecords)
	s.log.Info("sort complete",
		"records", info.Records,
		"runs", info.Runs,
		"phases", info.Phases,
		"disk_ops", info.DiskOps,
		"theoretical_phases", info.TheoreticalPhases,
		"theoretical_disk_ops", info.TheoreticalDiskOps)
	return info, nil
}

// SortFile loads a binary record file into a new tape and sorts it.
// The caller owns the returned tape and must Close it.
func (s *Sorter[E]) SortFile(path string) (*Tape[E], SortInfo, error) {
	t, err := s.LoadFile(path)
	if err != nil {
		return nil, SortInfo{FanIn: s.config.FanIn, PageRecords: s.config.PageRecords}, err
	}
	info, err := s.Sort(t)
	if err != nil {
		return nil, info, errors.Join(err, t.Close())
	}
	return t, info, nil
}

// isSorted reports whether every tape in the set holds exactly one run
func isSorted[E any](tapes []*Tape[E]) bool {
	for _, t := range tapes {
		if !t.sorted() {
			return false
		}
	}
	return true
}

func clearTapes[E any](tapes []*Tape[E], role string) error {
	for i, t := range tapes {
		if err := t.Clear(); err != nil {
			return &PhaseError{Role: role, Tape: i, Err: err}
		}
	}
	return nil
}

// collectOps sums the disk operations made by tapes since they were last collected
func collectOps[E any](tapes []*Tape[E]) int {
	ops := 0
	for _, t := range tapes {
		ops += t.takeOps()
	}
	return ops
}

func totalRuns[E any](tapes []*Tape[E]) int {
	n := 0
	for _, t := range tapes {
		n += len(t.runLen)
	}
	return n
}

func longestRun[E any](tapes []*Tape[E]) int {
	longest := 0
	for _, t := range tapes {
		for _, r := range t.runLen {
			longest = max(longest, r)
		}
	}
	return longest
}

func (s *Sorter[E]) trace(kind string, phase int, tapes []*Tape[E]) error {
	w := s.config.Trace
	if w == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "== %s phase %d ==\n", kind, phase); err != nil {
		return err
	}
	for i, t := range tapes {
		if _, err := fmt.Fprintf(w, "t%d\n", t.ID()); err != nil {
			return err
		}
		if err := t.Print(w); err != nil {
			return &PhaseError{Role: "trace", Tape: i, Err: err}
		}
	}
	return nil
}
