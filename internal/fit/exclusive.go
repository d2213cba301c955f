package fit

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/cwbudde/evoshapes/internal/gene"
)

// ErrExecutorClosed is returned by Exclusive after Close.
var ErrExecutorClosed = errors.New("exclusive evaluator closed")

// Exclusive serializes every evaluation onto one dedicated goroutine.
// Use it when the wrapped Evaluator touches a resource that must only be
// driven from a single thread (a graphics context, a GPU queue). Callers
// block until the worker publishes the result.
type Exclusive struct {
	next     Evaluator
	requests chan func()
	done     chan struct{}
	once     sync.Once
}

// NewExclusive starts the worker goroutine. Close must be called to stop it.
func NewExclusive(next Evaluator) *Exclusive {
	e := &Exclusive{
		next:     next,
		requests: make(chan func()),
		done:     make(chan struct{}),
	}
	go e.loop()
	return e
}

func (e *Exclusive) loop() {
	slog.Debug("Exclusive evaluator started")
	for {
		select {
		case fn := <-e.requests:
			fn()
		case <-e.done:
			slog.Debug("Exclusive evaluator stopped")
			return
		}
	}
}

// Do runs fn on the worker goroutine and waits for it to return.
func (e *Exclusive) Do(fn func()) error {
	finished := make(chan struct{})
	select {
	case e.requests <- func() { fn(); close(finished) }:
	case <-e.done:
		return ErrExecutorClosed
	}
	<-finished
	return nil
}

// Fitness implements Evaluator on the worker goroutine.
func (e *Exclusive) Fitness(genes []*gene.Shape, width, height int) (float64, error) {
	var f float64
	var err error
	if doErr := e.Do(func() { f, err = e.next.Fitness(genes, width, height) }); doErr != nil {
		return 0, doErr
	}
	return f, err
}

// Close stops the worker. It is safe to call more than once.
func (e *Exclusive) Close() error {
	e.once.Do(func() { close(e.done) })
	return nil
}
