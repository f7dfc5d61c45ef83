package linmo

import (
	"fmt"
	"sync/atomic"
)

// logRecord is a fully-formatted deferred log line; formatting happens on
// the producer's goroutine so the drain loop never allocates more than a
// string copy.
type logRecord struct {
	level Level
	text  string
}

// asyncLogger is the deferred sink (spec §4.7: ordinary task-context
// logging must never block on I/O). Producers push a formatted record
// into a ringBuffer and return immediately; a single background goroutine
// drains it to stdout. A full ring drops the record rather than blocking
// the caller, and counts the drop so a test or operator can notice.
type asyncLogger struct {
	ring    *ringBuffer[logRecord]
	dropped atomic.Uint64
	done    chan struct{}
}

func newAsyncLogger(capacity int) *asyncLogger {
	l := &asyncLogger{
		ring: newRingBuffer[logRecord](capacity),
		done: make(chan struct{}),
	}
	go l.drain()
	return l
}

func (l *asyncLogger) drain() {
	for {
		rec := l.ring.Pop()
		if rec.text == stopSentinel {
			close(l.done)
			return
		}
		fmt.Println("[" + rec.level.String() + "] " + rec.text)
	}
}

const stopSentinel = "\x00linmo-logger-stop\x00"

// Log formats and enqueues a record (spec §4.7's deferred path). Dropped
// silently (with a counter bump) under sustained overload rather than
// risk stalling the calling task.
func (l *asyncLogger) Log(level Level, format string, args ...any) {
	rec := logRecord{level: level, text: fmt.Sprintf(format, args...)}
	if !l.ring.Push(rec) {
		l.dropped.Add(1)
	}
}

// Dropped reports how many deferred records were discarded for lack of
// ring capacity.
func (l *asyncLogger) Dropped() uint64 {
	return l.dropped.Load()
}

// Stop asks the drain goroutine to exit once it has flushed everything
// queued ahead of the stop marker, and waits for it to do so.
func (l *asyncLogger) Stop() {
	l.ring.Push(logRecord{text: stopSentinel})
	<-l.done
}
