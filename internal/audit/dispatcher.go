package audit

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// dropLogEvery controls how often a warning is logged while events are
// being dropped. The first drop is always logged.
const dropLogEvery = 1024

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull makes Emit discard the event instead of waiting when the
	// buffer is full.
	DropIfFull bool
	Logger     *zap.Logger
}

// Dispatcher relays events to a Sink from a single background goroutine.
//
// Emit holds the read lock while it enqueues, so Close (which takes the
// write lock before closing the queue) never races a send.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool
	logger     *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan Event

	stopped chan struct{}
	dropped atomic.Uint64
}

// NewDispatcher returns nil when cfg.Enabled is false; a nil Dispatcher
// ignores every call.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	size := cfg.BufferSize
	if size < 1 {
		size = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		logger:     logger,
		queue:      make(chan Event, size),
		stopped:    make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer close(d.stopped)
	for ev := range d.queue {
		d.deliver(ev)
	}
}

// deliver keeps a panicking sink from taking the worker down.
func (d *Dispatcher) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("audit sink panicked",
				zap.String("event_type", ev.EventType),
				zap.Any("panic", r),
			)
		}
	}()
	d.sink.Emit(context.Background(), ev)
}

// Emit redacts event metadata and enqueues it. Events emitted after Close
// are discarded silently.
func (d *Dispatcher) Emit(ctx context.Context, ev Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ev.Metadata = RedactMetadata(ev.Metadata)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if !d.dropIfFull {
		select {
		case d.queue <- ev:
		case <-ctx.Done():
		}
		return
	}

	select {
	case d.queue <- ev:
	default:
		if n := d.dropped.Add(1); n == 1 || n%dropLogEvery == 0 {
			d.logger.Warn("audit buffer full, dropping events",
				zap.Uint64("dropped_total", n),
				zap.String("event_type", ev.EventType),
			)
		}
	}
}

// Close stops accepting events, delivers whatever is buffered and waits
// for the worker to exit. It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.stopped
}

// Dropped reports how many events were discarded because the buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
