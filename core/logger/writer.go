package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

var errWriterClosed = errors.New("logger: writer closed")

// asyncWriter moves sink I/O off the logging goroutines. Lines are buffered
// and flushed whenever the queue runs empty, so bursts cost one write per sink.
type asyncWriter struct {
	lines   chan []byte
	barrier chan chan error
	done    chan struct{}

	mu     sync.RWMutex
	closed bool

	out *bufio.Writer
	err atomic.Pointer[error]
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	var sinks []io.Writer
	for _, w := range writers {
		if w != nil {
			sinks = append(sinks, w)
		}
	}
	w := &asyncWriter{
		lines:   make(chan []byte, 256),
		barrier: make(chan chan error),
		done:    make(chan struct{}),
		out:     bufio.NewWriterSize(io.MultiWriter(sinks...), bufSize),
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.record(w.out.Flush())
				return
			}
			_, err := w.out.Write(line)
			w.record(err)
			if len(w.lines) == 0 {
				w.record(w.out.Flush())
			}
		case ack := <-w.barrier:
			for len(w.lines) > 0 {
				_, err := w.out.Write(<-w.lines)
				w.record(err)
			}
			ack <- w.out.Flush()
		}
	}
}

// Write queues a copy of p. It blocks while the queue is full; lines are never dropped.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.failure(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.lines <- append([]byte(nil), p...)
	return nil
}

// Flush returns once every line queued before the call has been written out.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.barrier <- ack:
		return <-ack
	case <-w.done:
		return w.failure()
	}
}

// Close drains the queue and returns the first write error, if any.
func (w *asyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	w.mu.Unlock()
	<-w.done
	return w.failure()
}

func (w *asyncWriter) record(err error) {
	if err != nil {
		w.err.CompareAndSwap(nil, &err)
	}
}

func (w *asyncWriter) failure() error {
	if p := w.err.Load(); p != nil {
		return *p
	}
	return nil
}
