package metrics

import (
	"sync"
	"sync/atomic"
)

// AsyncObserver decouples recording from the sink. Events that arrive
// while the buffer is full, or after Close, are counted as dropped and
// never blocked on. The event channel itself is never closed; shutdown
// is signalled on quit, so a RecordEvent racing Close cannot send on a
// closed channel.
type AsyncObserver struct {
	inner   Observer
	ch      chan Event
	quit    chan struct{}
	done    chan struct{}
	dropped int64
	once    sync.Once
}

func NewAsyncObserver(inner Observer, buffer int) *AsyncObserver {
	if buffer <= 0 {
		buffer = 256
	}
	a := &AsyncObserver{
		inner: inner,
		ch:    make(chan Event, buffer),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *AsyncObserver) RecordEvent(ev Event) {
	if a == nil {
		return
	}
	select {
	case <-a.quit:
		atomic.AddInt64(&a.dropped, 1)
		return
	default:
	}
	select {
	case a.ch <- ev:
	case <-a.quit:
		atomic.AddInt64(&a.dropped, 1)
	default:
		atomic.AddInt64(&a.dropped, 1)
	}
}

// Dropped counts events lost to a full buffer or a closed observer.
func (a *AsyncObserver) Dropped() int64 {
	return atomic.LoadInt64(&a.dropped)
}

// Close stops intake and waits for buffered events to drain.
func (a *AsyncObserver) Close() {
	if a == nil {
		return
	}
	a.once.Do(func() {
		close(a.quit)
		<-a.done
	})
}

func (a *AsyncObserver) loop() {
	defer close(a.done)
	for {
		select {
		case ev := <-a.ch:
			a.inner.RecordEvent(ev)
		case <-a.quit:
			for {
				select {
				case ev := <-a.ch:
					a.inner.RecordEvent(ev)
				default:
					return
				}
			}
		}
	}
}
