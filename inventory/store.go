package inventory

import (
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kjk/inventory/atomicfile"
	"github.com/kjk/inventory/csvcodec"
	"github.com/kjk/inventory/u"
)

type Config struct {
	// artificial latency of every operation. It's slept before the
	// operation takes the lock, never while holding it
	Delay time.Duration
	// receives an event for every operation, can be nil
	Sink EventSink
	// for tests, default is time.Sleep
	Sleep func(time.Duration)
	// for tests, default is time.Now
	Now func() time.Time
}

// Store is an ordered list of items, safe for concurrent use.
// Every operation is atomic: it takes effect at a single point between
// other operations and nobody sees it half-done.
type Store struct {
	delay time.Duration
	sink  EventSink
	sleep func(time.Duration)
	now   func() time.Time

	mu    sync.Mutex
	items []string
	seq   uint64
}

// New creates an empty store. config can be nil.
func New(config *Config) *Store {
	s := &Store{
		sink:  discardSink{},
		sleep: time.Sleep,
		now:   time.Now,
	}
	if config == nil {
		return s
	}
	s.delay = config.Delay
	if config.Sink != nil {
		s.sink = config.Sink
	}
	if config.Sleep != nil {
		s.sleep = config.Sleep
	}
	if config.Now != nil {
		s.now = config.Now
	}
	return s
}

func (s *Store) wait() {
	if s.delay > 0 {
		s.sleep(s.delay)
	}
}

// must be called with s.mu held
func (s *Store) newEvent(op Op, input string, outcome Outcome) Event {
	s.seq++
	return Event{
		Seq:     s.seq,
		Time:    s.now(),
		Op:      op,
		Input:   input,
		Outcome: outcome,
		Count:   len(s.items),
	}
}

// Add appends item at the end
func (s *Store) Add(item string) {
	s.wait()
	s.mu.Lock()
	s.items = append(s.items, item)
	ev := s.newEvent(OpAdd, item, OutcomeOK)
	s.mu.Unlock()

	s.sink.Emit(ev)
}

// Remove removes the first occurrence of item. Returns false if
// there was no such item, which is not an error.
func (s *Store) Remove(item string) bool {
	s.wait()
	s.mu.Lock()
	idx := slices.Index(s.items, item)
	outcome := OutcomeNotFound
	if idx >= 0 {
		s.items = slices.Delete(s.items, idx, idx+1)
		outcome = OutcomeOK
	}
	ev := s.newEvent(OpRemove, item, outcome)
	s.mu.Unlock()

	s.sink.Emit(ev)
	return idx >= 0
}

func (s *Store) snapshot() []string {
	return append([]string{}, s.items...)
}

// Display returns a copy of all items, in order
func (s *Store) Display() []string {
	s.wait()
	s.mu.Lock()
	res := s.snapshot()
	ev := s.newEvent(OpDisplay, "", OutcomeOK)
	s.mu.Unlock()

	ev.Items = slices.Clone(res)
	s.sink.Emit(ev)
	return res
}

// Count returns number of items
func (s *Store) Count() int {
	s.wait()
	s.mu.Lock()
	ev := s.newEvent(OpCount, "", OutcomeOK)
	s.mu.Unlock()

	s.sink.Emit(ev)
	return ev.Count
}

// Exists returns true if item is in the inventory at least once
func (s *Store) Exists(item string) bool {
	s.wait()
	s.mu.Lock()
	exists := slices.Contains(s.items, item)
	outcome := OutcomeNotFound
	if exists {
		outcome = OutcomeOK
	}
	ev := s.newEvent(OpExists, item, outcome)
	s.mu.Unlock()

	s.sink.Emit(ev)
	return exists
}

// SearchByName returns items that contain partialName, ignoring case.
// Order of items is preserved. Empty partialName matches all items.
// Returns empty slice (not nil) if nothing matches.
func (s *Store) SearchByName(partialName string) []string {
	s.wait()
	s.mu.Lock()
	items := s.snapshot()
	ev := s.newEvent(OpSearch, partialName, OutcomeOK)
	s.mu.Unlock()

	// items is our copy, no need to hold the lock while matching
	res := []string{}
	needle := strings.ToLower(partialName)
	for _, item := range items {
		if strings.Contains(strings.ToLower(item), needle) {
			res = append(res, item)
		}
	}
	if len(res) == 0 {
		ev.Outcome = OutcomeNotFound
	}
	ev.Items = slices.Clone(res)
	s.sink.Emit(ev)
	return res
}

// Sort sorts items in ascending byte-wise order, which for UTF-8 is
// the order of code points. Equal items keep their relative order.
func (s *Store) Sort() {
	s.wait()
	s.mu.Lock()
	slices.SortStableFunc(s.items, strings.Compare)
	ev := s.newEvent(OpSort, "", OutcomeOK)
	s.mu.Unlock()

	s.sink.Emit(ev)
}

// Clear removes all items
func (s *Store) Clear() {
	s.wait()
	s.mu.Lock()
	s.items = nil
	ev := s.newEvent(OpClear, "", OutcomeOK)
	s.mu.Unlock()

	s.sink.Emit(ev)
}

// SaveToFile writes all items to path as a CSV table. The file is
// compressed if path ends with .gz, .zst, .zstd or .br. The file is
// replaced atomically. Returns *PersistenceError of KindWrite on failure.
func (s *Store) SaveToFile(path string) error {
	s.wait()
	s.mu.Lock()
	err := s.save(path)
	ev := s.newEvent(OpSave, path, OutcomeOK)
	s.mu.Unlock()

	if err != nil {
		ev.Outcome = OutcomeError
		ev.Error = err.Error()
	}
	s.sink.Emit(ev)
	return err
}

// must be called with s.mu held
func (s *Store) save(path string) error {
	writeErr := func(err error) error {
		return &PersistenceError{Kind: KindWrite, Op: OpSave, Path: path, Err: err}
	}
	d, err := csvcodec.Encode(s.items)
	if err != nil {
		return writeErr(err)
	}
	d, err = u.CompressData(u.CompressionForPath(path), d)
	if err != nil {
		return writeErr(err)
	}
	if err = atomicfile.WriteFile(path, d); err != nil {
		return writeErr(err)
	}
	return nil
}

// LoadFromFile replaces all items with items read from path, written
// by SaveToFile. Items are not merged. On failure the inventory is
// unchanged and *PersistenceError is returned: KindRead if the file
// can't be read, KindDecode if it's not a valid table.
func (s *Store) LoadFromFile(path string) error {
	s.wait()
	s.mu.Lock()
	items, err := load(path)
	if err == nil {
		s.items = items
	}
	ev := s.newEvent(OpLoad, path, OutcomeOK)
	s.mu.Unlock()

	if err != nil {
		ev.Outcome = OutcomeError
		ev.Error = err.Error()
	}
	s.sink.Emit(ev)
	return err
}

func load(path string) ([]string, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, &PersistenceError{Kind: KindRead, Op: OpLoad, Path: path, Err: err}
	}
	d, err = u.DecompressData(u.CompressionForPath(path), d)
	if err == nil {
		var items []string
		items, err = csvcodec.Decode(d)
		if err == nil {
			return items, nil
		}
	}
	return nil, &PersistenceError{Kind: KindDecode, Op: OpLoad, Path: path, Err: err}
}
