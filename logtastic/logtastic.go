// Package logtastic sends inventory events to a remote log server.
// Events are queued and POSTed as JSON by a single background worker
// so Emit never blocks the caller.
package logtastic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/carlmjohnson/requests"

	"github.com/kjk/inventory/inventory"
)

const (
	// how long to wait before we resume sending events to the server
	// after a failure
	ThrottleTimeout = time.Second * 15

	defaultQueueSize = 1000
	defaultTimeout   = time.Second * 10

	mimeJSON = "application/json"
)

type Config struct {
	// host[:port] of the server, required
	Server string
	// sent as X-Api-Key header if not empty
	ApiKey string
	// max number of queued events, 1000 if 0
	QueueSize int
	// timeout for a single POST, 10 seconds if 0
	Timeout time.Duration
	// where to log failures, fmt.Printf-like. Silent if nil
	Logf func(s string, args ...any)
}

type op struct {
	uri  string
	d    []byte
	stop bool
}

// Sink is an inventory.EventSink
type Sink struct {
	uri     string
	apiKey  string
	timeout time.Duration
	logf    func(s string, args ...any)

	ch   chan op
	done chan struct{}

	mu            sync.Mutex
	throttleUntil time.Time
	closed        bool

	// for tests
	now func() time.Time
}

var _ inventory.EventSink = &Sink{}

// New creates a sink and starts its worker. Call Close() to stop it.
func New(config *Config) (*Sink, error) {
	if config == nil || config.Server == "" {
		return nil, errors.New("must provide config.Server")
	}
	s := &Sink{
		uri:     "http://" + config.Server + "/api/v1/event",
		apiKey:  config.ApiKey,
		timeout: config.Timeout,
		logf:    config.Logf,
		done:    make(chan struct{}),
		now:     time.Now,
	}
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	if s.logf == nil {
		s.logf = func(string, ...any) {}
	}
	s.ch = make(chan op, queueSize)
	go s.worker()
	return s, nil
}

func (s *Sink) worker() {
	defer close(s.done)
	for op := range s.ch {
		if op.stop {
			return
		}
		if s.throttled() {
			continue
		}
		r := requests.
			URL(op.uri).
			BodyBytes(op.d).
			ContentType(mimeJSON)
		if s.apiKey != "" {
			r = r.Header("X-Api-Key", s.apiKey)
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := r.Fetch(ctx)
		cancel()
		if err != nil {
			s.logf("logtastic: POST %s failed: %v, will throttle for %s\n", op.uri, err, ThrottleTimeout)
			s.mu.Lock()
			s.throttleUntil = s.now().Add(ThrottleTimeout)
			s.mu.Unlock()
		}
	}
}

func (s *Sink) throttled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Before(s.throttleUntil)
}

// Emit queues ev for sending. Events are dropped when the queue is full,
// while throttled after a failure or after Close().
func (s *Sink) Emit(ev inventory.Event) {
	d, err := json.Marshal(ev)
	if err != nil {
		s.logf("logtastic: json.Marshal() failed with '%s'\n", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- op{uri: s.uri, d: d}:
	default:
		s.logf("logtastic: dropping event %d, queue full\n", ev.Seq)
	}
}

// Close sends all queued events and stops the worker
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	// the queue might be full, this waits for the worker to make room
	s.ch <- op{stop: true}
	<-s.done
	return nil
}

func (s *Sink) String() string {
	return fmt.Sprintf("logtastic.Sink{%s}", s.uri)
}
