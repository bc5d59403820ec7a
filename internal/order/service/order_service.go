package service

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"shiptrack/internal/domain"
	apperrors "shiptrack/internal/errors"
	"shiptrack/internal/notifier"
	"shiptrack/internal/schema"
	"shiptrack/internal/storage"
)

type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) (int64, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Order, error)
}

type Notifier interface {
	Subscribe(topic string, handler notifier.Handler) (*notifier.Subscription, error)
	Publish(ev notifier.Event)
}

// Snapshot is one update of a watched order list. Exactly one of the
// fields is meaningful: Degraded means live updates stopped and the last
// list may go stale; Err reports a failed re-list.
type Snapshot struct {
	Orders   []domain.Order
	Degraded bool
	Err      error
}

type Options struct {
	// PublishLocally makes CreateOrder announce inserts on the notifier.
	// Backends with a server-side change feed announce them instead.
	PublishLocally bool
	// MaxInsertAttempts bounds retries of inserts that hit a lock
	// conflict.
	MaxInsertAttempts int
}

type OrderService struct {
	repo     OrderRepository
	notifier Notifier
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
	sleep    func(time.Duration)
}

func NewOrderService(repo OrderRepository, n Notifier, opts Options, logger *zap.Logger) *OrderService {
	if opts.MaxInsertAttempts <= 0 {
		opts.MaxInsertAttempts = 3
	}
	return &OrderService{
		repo:     repo,
		notifier: n,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// CreateOrder stores draft as an order of ownerID and returns its id.
// Nothing is written when the draft is invalid.
func (s *OrderService) CreateOrder(ctx context.Context, draft domain.OrderDraft, ownerID int64) (int64, error) {
	if ownerID <= 0 {
		return 0, apperrors.NewUnauthorizedError("no authenticated user")
	}
	if err := schema.ValidateOrder(draft); err != nil {
		return 0, err
	}

	order := domain.NewOrder(draft, ownerID, s.now().UTC())

	id, err := s.insertWithRetry(ctx, order)
	if err != nil {
		s.logger.Error("failed to create order", zap.Int64("userId", ownerID), zap.Error(err))
		return 0, err
	}

	s.logger.Info("order created",
		zap.Int64("orderId", id),
		zap.Int64("userId", ownerID),
		zap.String("piNumber", order.PINumber),
	)

	if s.opts.PublishLocally && s.notifier != nil {
		s.notifier.Publish(notifier.Event{Topic: domain.OrdersTopic, Kind: notifier.KindInsert})
	}

	return id, nil
}

func (s *OrderService) insertWithRetry(ctx context.Context, order domain.Order) (int64, error) {
	// 100ms before the second attempt, 200ms before any later one, ±20%.
	backoffs := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}

	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxInsertAttempts; attempt++ {
		id, err := s.repo.Insert(ctx, order)
		if err == nil {
			return id, nil
		}
		if !storage.IsRetryable(err) || ctx.Err() != nil {
			return 0, err
		}

		lastErr = err
		if attempt < s.opts.MaxInsertAttempts {
			base := backoffs[min(attempt-1, len(backoffs)-1)]
			s.logger.Warn("lock conflict on insert, retrying",
				zap.Int("attempt", attempt),
				zap.Int("maxAttempts", s.opts.MaxInsertAttempts),
			)
			s.sleep(time.Duration(float64(base) * (0.8 + rand.Float64()*0.4)))
		}
	}

	return 0, lastErr
}

// ListOrders returns the owner's orders, newest first, and an empty
// non-nil slice when there are none.
func (s *OrderService) ListOrders(ctx context.Context, ownerID int64) ([]domain.Order, error) {
	if ownerID <= 0 {
		return nil, apperrors.NewUnauthorizedError("no authenticated user")
	}

	orders, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// Watch calls fn with the owner's current orders, then again after every
// change notification, until ctx ends or the notifier shuts down. The
// subscription is released on every exit path.
func (s *OrderService) Watch(ctx context.Context, ownerID int64, fn func(Snapshot)) error {
	if ownerID <= 0 {
		return apperrors.NewUnauthorizedError("no authenticated user")
	}

	// stop releases a handler blocked on events once Watch has returned,
	// whichever way it returned.
	stop := make(chan struct{})
	defer close(stop)

	events := make(chan notifier.Event)
	sub, err := s.notifier.Subscribe(domain.OrdersTopic, func(ev notifier.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		case <-stop:
		}
	})
	if err != nil {
		s.logger.Error("failed to subscribe to order changes", zap.Error(err))
		return err
	}
	defer sub.Unsubscribe()

	orders, err := s.ListOrders(ctx, ownerID)
	if err != nil {
		return err
	}
	fn(Snapshot{Orders: orders})

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done():
			return nil
		case ev := <-events:
			if ev.Kind == notifier.KindDegraded {
				fn(Snapshot{Degraded: true})
				continue
			}

			orders, err := s.ListOrders(ctx, ownerID)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Warn("failed to refresh watched orders", zap.Int64("userId", ownerID), zap.Error(err))
				fn(Snapshot{Err: err})
				continue
			}
			fn(Snapshot{Orders: orders})
		}
	}
}
