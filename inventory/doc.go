// Package inventory is an in-memory, ordered list of items (plain strings)
// that many goroutines can add to, remove from, search, sort and persist
// at the same time.
//
// # Basic Usage
//
//	rec := &inventory.Recorder{}
//	s := inventory.New(&inventory.Config{Sink: rec})
//	s.Add("Книга")
//	s.Add("Вода")
//	found := s.SearchByName("КНИ") // ["Книга"]
//	s.Sort()
//	err := s.SaveToFile("inventory.csv")
//
// Items are compared by exact value and duplicates are allowed.
// Remove() removes the first occurrence only.
//
// # Thread Safety
//
// Every operation takes a single mutex for the duration of its effect, so
// each one is atomic. The order in which concurrently started operations
// take effect is not defined. Callers that need an order (e.g. remove only
// after all adds) must wait for the first group of operations to finish
// before starting the next one.
//
// Config.Delay simulates slow operations. It's applied before the lock is
// taken so it never blocks other operations.
//
// # Events
//
// Every operation emits exactly one Event to Config.Sink, after releasing
// the lock. Event.Seq reflects the order in which operations took effect.
// LogSink writes events with package log, Recorder keeps them in memory.
//
// # Persistence
//
// SaveToFile and LoadFromFile use a single-column CSV table (package
// csvcodec). Reading and writing the file happens while holding the lock.
// LoadFromFile replaces the content, it doesn't merge. Failures are
// reported as *PersistenceError and leave the inventory unchanged.
package inventory
