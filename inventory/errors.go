package inventory

// Kind tells why SaveToFile or LoadFromFile failed.
// Kind values can be used as targets of errors.Is:
//
//	if errors.Is(err, inventory.KindRead) { ... }
type Kind string

const (
	// destination can't be written, including a missing directory
	KindWrite Kind = "write-failure"
	// source doesn't exist or can't be read
	KindRead Kind = "read-failure"
	// source is not a valid inventory table
	KindDecode Kind = "decode-failure"
)

func (k Kind) Error() string {
	return string(k)
}

// PersistenceError is returned by SaveToFile and LoadFromFile.
// The inventory is not modified when it's returned.
type PersistenceError struct {
	Kind Kind
	Op   Op
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return "inventory: " + string(e.Op) + " '" + e.Path + "': " + string(e.Kind) + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}
