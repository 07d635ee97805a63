package inventory

import (
	"strconv"
	"strings"

	"github.com/kjk/inventory/log"
)

// LogSink renders events as log lines and records them as structured
// log events
type LogSink struct {
	Log *log.Logger
}

// NewLogSink creates a sink logging to l. nil l means log.Default()
func NewLogSink(l *log.Logger) *LogSink {
	if l == nil {
		l = log.Default()
	}
	return &LogSink{Log: l}
}

func (s *LogSink) Emit(ev Event) {
	l := s.Log
	msg := Describe(ev)
	switch ev.Level() {
	case LevelWarn:
		l.Warnf("%s", msg)
	case LevelDebug:
		// the header is informational, the listing is debug
		l.Infof("%s", msg)
		for _, item := range ev.Items {
			l.Debugf("%s", item)
		}
	default:
		l.Infof("%s", msg)
	}

	vals := []any{"seq", ev.Seq, "outcome", string(ev.Outcome), "count", ev.Count}
	if ev.Input != "" {
		vals = append(vals, "input", ev.Input)
	}
	if len(ev.Items) > 0 {
		vals = append(vals, "items", ev.Items)
	}
	if ev.Error != "" {
		vals = append(vals, "error", ev.Error)
	}
	l.IfErrf(l.Event(string(ev.Op), vals...))
}

// Describe returns a human readable one-line description of an event
func Describe(ev Event) string {
	switch ev.Op {
	case OpAdd:
		return "added item: " + ev.Input
	case OpRemove:
		if ev.Outcome == OutcomeNotFound {
			return "tried to remove missing item: " + ev.Input
		}
		return "removed item: " + ev.Input
	case OpDisplay:
		return "inventory:"
	case OpCount:
		return "total number of items: " + strconv.Itoa(ev.Count)
	case OpExists:
		if ev.Outcome == OutcomeNotFound {
			return "item '" + ev.Input + "' is not in the inventory"
		}
		return "item '" + ev.Input + "' is in the inventory"
	case OpSearch:
		if ev.Outcome == OutcomeNotFound {
			return "no items matching '" + ev.Input + "'"
		}
		return "found items matching '" + ev.Input + "': " + strings.Join(ev.Items, ", ")
	case OpSort:
		return "inventory sorted"
	case OpClear:
		return "inventory cleared"
	case OpSave:
		if ev.Outcome == OutcomeError {
			return "failed to save inventory: " + ev.Error
		}
		return "saved inventory to file: " + ev.Input
	case OpLoad:
		if ev.Outcome == OutcomeError {
			return "failed to load inventory: " + ev.Error
		}
		return "loaded inventory from file: " + ev.Input
	}
	return string(ev.Op) + " " + ev.Input + " " + string(ev.Outcome)
}
