package inventory

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// Op is the kind of operation
type Op string

const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpDisplay Op = "display"
	OpCount   Op = "count"
	OpExists  Op = "exists"
	OpSearch  Op = "search"
	OpSort    Op = "sort"
	OpClear   Op = "clear"
	OpSave    Op = "save"
	OpLoad    Op = "load"
)

// Outcome of an operation
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeNotFound Outcome = "not_found"
	OutcomeError    Outcome = "error"
)

// Level is a severity hint for sinks that log events
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

// Event is emitted once for every completed operation
type Event struct {
	// 1-based, increases in the order operations took effect on the store
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Op      Op        `json:"op"`
	Input   string    `json:"input,omitempty"`
	Outcome Outcome   `json:"outcome"`
	// display contents or search matches
	Items []string `json:"items,omitempty"`
	// count result, length of the inventory after the operation
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

// Level returns how important the event is. Failures and removals of
// missing items are warnings, display listings are debug.
func (e *Event) Level() Level {
	switch {
	case e.Outcome == OutcomeError:
		return LevelWarn
	case e.Op == OpRemove && e.Outcome == OutcomeNotFound:
		return LevelWarn
	case e.Op == OpDisplay:
		return LevelDebug
	}
	return LevelInfo
}

// EventSink receives events. Emit is called outside of the store's lock,
// from the goroutine that ran the operation, so it must be safe for
// concurrent use.
type EventSink interface {
	Emit(ev Event)
}

type discardSink struct{}

func (discardSink) Emit(Event) {}

// MultiSink sends each event to all sinks, in order
type MultiSink []EventSink

func (m MultiSink) Emit(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ev)
		}
	}
}

// Recorder is an EventSink that remembers all events
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns recorded events sorted by Seq
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	res := append([]Event{}, r.events...)
	r.mu.Unlock()
	sortEventsBySeq(res)
	return res
}

// Filter returns recorded events for a given op, sorted by Seq
func (r *Recorder) Filter(op Op) []Event {
	var res []Event
	for _, ev := range r.Events() {
		if ev.Op == op {
			res = append(res, ev)
		}
	}
	return res
}

// Reset forgets recorded events
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

func sortEventsBySeq(events []Event) {
	slices.SortFunc(events, func(a, b Event) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
}
