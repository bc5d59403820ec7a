package notifier

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Subscription is the handle returned by Hub.Subscribe. Its goroutine
// delivers coalesced events to the handler one at a time.
type Subscription struct {
	ID    uuid.UUID
	Topic string

	hub     *Hub
	handler Handler
	window  time.Duration
	logger  *zap.Logger

	// signal has capacity 1: any number of offers between two deliveries
	// collapse into a single wake-up.
	signal chan struct{}
	done   chan struct{}
	once   sync.Once

	mu      sync.Mutex
	pending Event
	count   int
}

// Unsubscribe stops delivery. No event published after it returns reaches
// the handler. It may be called more than once and from inside the
// handler; it does not wait for a handler call already in progress.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		s.hub.remove(s)
		s.logger.Debug("unsubscribed", zap.String("topic", s.Topic), zap.String("subscriptionId", s.ID.String()))
	})
}

// Done is closed once the subscription has been released.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) offer(ev Event) {
	select {
	case <-s.done:
		return
	default:
	}

	s.mu.Lock()
	s.pending = ev
	s.count++
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Subscription) take() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == 0 {
		return Event{}, false
	}
	ev := s.pending
	ev.Coalesced = s.count
	s.pending = Event{}
	s.count = 0
	return ev, true
}

func (s *Subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.signal:
		}

		if s.window > 0 {
			timer := time.NewTimer(s.window)
			select {
			case <-s.done:
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		ev, ok := s.take()
		if !ok {
			continue
		}

		select {
		case <-s.done:
			return
		default:
		}

		s.deliver(ev)
	}
}

func (s *Subscription) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("subscription handler panicked",
				zap.String("topic", s.Topic),
				zap.String("subscriptionId", s.ID.String()),
				zap.Any("panic", r),
			)
		}
	}()
	s.handler(ev)
}
