// Package signal is an in-process event bus with ordered, asynchronous delivery.
//
// Producers call Trigger, which only enqueues. One worker goroutine dequeues events
// in FIFO order and hands each one to every subscriber, in subscription order,
// before moving on to the next event.
package signal

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var ErrClosed = errors.New("signal: closed")

type Event struct {
	Text      string
	Timestamp time.Time
}

type Subscriber func(Event)

type Signal struct {
	logger *slog.Logger

	mu          sync.Mutex
	cond        *sync.Cond
	queue       eventQueue
	subscribers []Subscriber
	closed      bool

	done      chan struct{}
	closeOnce sync.Once
}

type eventQueue struct {
	events []Event
}

func (q *eventQueue) push(ev Event) {
	q.events = append(q.events, ev)
}

func (q *eventQueue) pop() (Event, bool) {
	if len(q.events) == 0 {
		return Event{}, false
	}
	ev := q.events[0]
	q.events[0] = Event{}
	q.events = q.events[1:]
	return ev, true
}

func (q *eventQueue) len() int {
	return len(q.events)
}

func New(logger *slog.Logger) *Signal {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Signal{
		logger: logger,
		done:   make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

func (s *Signal) Subscribe(fn Subscriber) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// Trigger queues ev for delivery and returns without waiting for subscribers.
func (s *Signal) Trigger(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.queue.push(ev)
	s.cond.Signal()
	return nil
}

func (s *Signal) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.len()
}

// Close stops accepting events, delivers what is already queued and waits for
// the worker to exit.
func (s *Signal) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	<-s.done
}

func (s *Signal) run() {
	defer close(s.done)
	for {
		ev, subscribers, ok := s.next()
		if !ok {
			return
		}
		for i, fn := range subscribers {
			s.deliver(i, fn, ev)
		}
	}
}

func (s *Signal) next() (Event, []Subscriber, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.queue.len() == 0 && !s.closed {
		s.cond.Wait()
	}
	ev, ok := s.queue.pop()
	if !ok {
		return Event{}, nil, false
	}
	subscribers := make([]Subscriber, len(s.subscribers))
	copy(subscribers, s.subscribers)
	return ev, subscribers, true
}

func (s *Signal) deliver(index int, fn Subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("signal subscriber panicked", "subscriber", index, "error", fmt.Sprint(r))
		}
	}()
	fn(ev)
}
