package inventory

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert"

	"github.com/kjk/inventory/log"
	"github.com/kjk/inventory/siser"
)

func TestLogSink(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	l, err := log.New(&log.Config{Dir: dir, Stdout: &buf, Verbose: true})
	assert.NoError(t, err)

	s := New(&Config{Sink: NewLogSink(l)})
	s.Add("Книга")
	s.Add("Обувь")
	s.Display()
	s.Remove("Яблоко")
	s.SearchByName("кни")
	_ = s.LoadFromFile(filepath.Join(dir, "missing.csv"))
	assert.NoError(t, l.Close())

	out := buf.String()
	for _, exp := range []string{
		" - INFO - added item: Книга\n",
		" - INFO - inventory:\n",
		" - DEBUG - Обувь\n",
		" - WARNING - tried to remove missing item: Яблоко\n",
		" - INFO - found items matching 'кни': Книга\n",
		" - WARNING - failed to load inventory: ",
	} {
		assert.True(t, strings.Contains(out, exp), exp)
	}

	path := filepath.Join(dir, "events", time.Now().Format("2006-01-02")+".txt")
	f, err := os.Open(path)
	assert.NoError(t, err)
	defer f.Close()
	r := siser.NewReader(f)
	var names []string
	for r.ReadNext() {
		names = append(names, r.Name)
	}
	assert.NoError(t, r.Err())
	assert.Equal(t, []string{"add", "add", "display", "remove", "search", "load"}, names)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		ev  Event
		exp string
	}{
		{Event{Op: OpAdd, Input: "Вода", Outcome: OutcomeOK}, "added item: Вода"},
		{Event{Op: OpRemove, Input: "Вода", Outcome: OutcomeOK}, "removed item: Вода"},
		{Event{Op: OpCount, Outcome: OutcomeOK, Count: 8}, "total number of items: 8"},
		{Event{Op: OpExists, Input: "Вода", Outcome: OutcomeOK}, "item 'Вода' is in the inventory"},
		{Event{Op: OpExists, Input: "Вода", Outcome: OutcomeNotFound}, "item 'Вода' is not in the inventory"},
		{Event{Op: OpSearch, Input: "ноутбук", Outcome: OutcomeNotFound}, "no items matching 'ноутбук'"},
		{Event{Op: OpSort, Outcome: OutcomeOK}, "inventory sorted"},
		{Event{Op: OpClear, Outcome: OutcomeOK}, "inventory cleared"},
		{Event{Op: OpSave, Input: "inventory.csv", Outcome: OutcomeOK}, "saved inventory to file: inventory.csv"},
		{Event{Op: OpSave, Outcome: OutcomeError, Error: "boom"}, "failed to save inventory: boom"},
		{Event{Op: OpLoad, Input: "inventory.csv", Outcome: OutcomeOK}, "loaded inventory from file: inventory.csv"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.exp, Describe(tc.ev))
	}
}
