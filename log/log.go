package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kjk/inventory/filerotate"
	"github.com/kjk/inventory/siser"

	"github.com/toon-format/toon-go"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARNING"
	case LevelError:
		return "ERROR"
	}
	return "LEVEL(" + strconv.Itoa(int(l)) + ")"
}

type Config struct {
	// directory where log files are stored, in log/ and events/
	// subdirectories. If empty, nothing is written to files
	Dir string
	// log lines are echoed here, os.Stdout if nil
	Stdout io.Writer
	// if true, Verbosef() logs messages
	Verbose bool
	// called for every logged line
	// allows sending logs to other places
	OnLog func(s string)
}

// Logger writes leveled text lines and structured events.
// All methods are safe to call on nil receiver (they do nothing).
type Logger struct {
	Verbose bool

	stdout     io.Writer
	onLog      func(s string)
	logFile    *filerotate.File
	eventsFile *filerotate.File
	events     *siser.Writer
	mu         sync.Mutex
}

// New creates a logger. Log files are created only when config.Dir is set.
func New(config *Config) (*Logger, error) {
	if config == nil {
		config = &Config{}
	}
	l := &Logger{
		Verbose: config.Verbose,
		stdout:  config.Stdout,
		onLog:   config.OnLog,
	}
	if l.stdout == nil {
		l.stdout = os.Stdout
	}
	if config.Dir == "" {
		return l, nil
	}
	var err error
	l.logFile, err = filerotate.NewDaily(filepath.Join(config.Dir, "log"), "", nil)
	if err != nil {
		return nil, err
	}
	l.eventsFile, err = filerotate.NewDaily(filepath.Join(config.Dir, "events"), "", nil)
	if err != nil {
		_ = l.logFile.Close()
		return nil, err
	}
	l.events = siser.NewWriter(l.eventsFile)
	return l, nil
}

// Close flushes and closes log files
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	var errs []error
	for _, f := range []*filerotate.File{l.logFile, l.eventsFile} {
		if f == nil {
			continue
		}
		_ = f.Sync()
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (l *Logger) write(level Level, s string, args ...any) {
	if l == nil {
		return
	}
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	line := ts + " - " + level.String() + " - " + s

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.stdout, line)
	if l.logFile != nil {
		_, _ = l.logFile.Write([]byte(line))
	}
	if l.onLog != nil {
		l.onLog(line)
	}
}

func (l *Logger) Logf(s string, args ...any) {
	l.write(LevelInfo, s, args...)
}

func (l *Logger) Infof(s string, args ...any) {
	l.write(LevelInfo, s, args...)
}

func (l *Logger) Warnf(s string, args ...any) {
	l.write(LevelWarn, s, args...)
}

// Debugf is Verbosef logged at DEBUG level
func (l *Logger) Debugf(s string, args ...any) {
	if l == nil || !l.Verbose {
		return
	}
	l.write(LevelDebug, s, args...)
}

func (l *Logger) Verbosef(s string, args ...any) {
	l.Debugf(s, args...)
}

// Errorf logs an error message along with the callstack
func (l *Logger) Errorf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	cs := GetCallstack(2)
	l.write(LevelError, "%s\n%s\n", s, cs)
}

// IfErrf logs err if not nil and returns true
func (l *Logger) IfErrf(err error, a ...any) bool {
	if err == nil {
		return false
	}
	if len(a) == 0 {
		l.Errorf("%s", err.Error())
		return true
	}
	s, ok := a[0].(string)
	if !ok {
		s = fmt.Sprintf("%v", a[0])
	}
	if len(a) > 1 {
		s = fmt.Sprintf(s, a[1:]...)
	}
	l.Errorf("%s", s)
	return true
}

// simpleTypeToStr converts simple types to string
// panics if v is of complex type
func simpleTypeToStr(v any) string {
	rt := reflect.TypeOf(v)
	kind := rt.Kind()
	switch kind {
	case reflect.Array, reflect.Slice, reflect.Struct, reflect.Map, reflect.Chan, reflect.Interface, reflect.Pointer:
		panic(fmt.Sprintf("toStr: value is of kind %v", kind))
	case reflect.String:
		return v.(string)
	}
	return fmt.Sprintf("%v", v)
}

// Event logs a named event with key/value pairs, encoded as toon
// and framed as a siser record. Keys must be simple values.
func (l *Logger) Event(name string, vals ...any) error {
	if l == nil || l.events == nil {
		return nil
	}
	n := len(vals)
	if n%2 != 0 {
		panic(fmt.Sprintf("Event: odd number of vals (%d)", n))
	}
	var d []byte
	if n > 0 {
		m := map[string]any{}
		for i := 0; i < n; i += 2 {
			k := simpleTypeToStr(vals[i])
			m[k] = vals[i+1]
		}
		var err error
		d, err = toon.Marshal(m)
		if err != nil {
			return err
		}
	}
	_, err := l.events.Write(d, time.Now().UTC(), name)
	return err
}

func GetCallstackFrames(skip int) []string {
	var callers [32]uintptr
	n := runtime.Callers(skip+1, callers[:])
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(callers[:n])
	var cs []string
	for {
		frame, more := frames.Next()
		cs = append(cs, frame.File+":"+strconv.Itoa(frame.Line))
		if !more {
			break
		}
	}
	return cs
}

func GetCallstack(skip int) string {
	frames := GetCallstackFrames(skip + 1)
	return strings.Join(frames, "\n")
}
