package log

import "sync/atomic"

var std atomic.Pointer[Logger]

func init() {
	l, _ := New(nil)
	std.Store(l)
}

// Init replaces the default logger used by package-level functions.
// The previous one is closed.
func Init(config *Config) error {
	l, err := New(config)
	if err != nil {
		return err
	}
	prev := std.Swap(l)
	return prev.Close()
}

// Default returns the logger used by package-level functions
func Default() *Logger {
	return std.Load()
}

func Close() error {
	return Default().Close()
}

func Logf(s string, args ...any) {
	Default().Logf(s, args...)
}

func Infof(s string, args ...any) {
	Default().Infof(s, args...)
}

func Warnf(s string, args ...any) {
	Default().Warnf(s, args...)
}

func Verbosef(s string, args ...any) {
	Default().Verbosef(s, args...)
}

func Errorf(s string, args ...any) {
	Default().Errorf(s, args...)
}

func IfErrf(err error, a ...any) bool {
	return Default().IfErrf(err, a...)
}

func Event(name string, vals ...any) error {
	return Default().Event(name, vals...)
}
