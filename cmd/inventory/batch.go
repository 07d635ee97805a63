package main

import (
	"fmt"
	"sync"

	"github.com/kjk/inventory/log"
)

type task struct {
	name string
	fn   func() error
}

// runBatch runs tasks concurrently and waits for all of them to finish.
// An error or a panic in one task is logged and doesn't stop the others.
// Returns the number of failed tasks.
func runBatch(l *log.Logger, name string, tasks ...task) int {
	var wg sync.WaitGroup
	var mu sync.Mutex
	nFailed := 0
	for _, t := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := runTask(t)
			if err == nil {
				return
			}
			l.Warnf("batch '%s': task '%s' failed: %s", name, t.name, err)
			mu.Lock()
			nFailed++
			mu.Unlock()
		}()
	}
	wg.Wait()
	l.Verbosef("batch '%s': %d tasks finished, %d failed", name, len(tasks), nFailed)
	return nFailed
}

func runTask(t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.fn()
}
