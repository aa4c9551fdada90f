package service

import (
	"sync/atomic"
	"time"
)

// State tracks the progress of the current backtest run for the admin endpoints.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	runID    atomic.Value // string
	total    atomic.Int64
	done     atomic.Int64
	halted   atomic.Int64
	lastDone atomic.Int64 // unix seconds
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	s.runID.Store("")
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

// BeginRun resets the counters for a run over total instruments.
func (s *State) BeginRun(runID string, total int) {
	s.runID.Store(runID)
	s.total.Store(int64(total))
	s.done.Store(0)
	s.halted.Store(0)
	s.lastDone.Store(0)
}

// InstrumentDone is safe to call from worker goroutines.
func (s *State) InstrumentDone(halted bool, t time.Time) {
	s.done.Add(1)
	if halted {
		s.halted.Add(1)
	}
	s.lastDone.Store(t.Unix())
}

func (s *State) RunID() string { return s.runID.Load().(string) }

// Progress returns finished, halted and total instrument counts.
func (s *State) Progress() (done, halted, total int64) {
	return s.done.Load(), s.halted.Load(), s.total.Load()
}

func (s *State) LastDone() time.Time {
	u := s.lastDone.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
