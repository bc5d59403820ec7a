package notifier

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ChangeChannel is the PostgreSQL NOTIFY channel written by the
// notify_table_change trigger.
const ChangeChannel = "table_changes"

const maxBackoffMultiplier = 32

// Publisher is the part of Hub the listener feeds.
type Publisher interface {
	Publish(Event)
	Broadcast(EventKind)
}

// notificationConn is satisfied by *pgx.Conn.
type notificationConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

type ListenerOptions struct {
	// MaxReconnectAttempts consecutive failures flip the listener into the
	// degraded state.
	MaxReconnectAttempts int
	// ReconnectBackoff is the base delay, doubled per failure.
	ReconnectBackoff time.Duration
}

// PGListener turns PostgreSQL notifications into hub events. It owns one
// connection outside the pool, since LISTEN is bound to a session.
type PGListener struct {
	connConfig  *pgx.ConnConfig
	publisher   Publisher
	maxAttempts int
	backoff     time.Duration
	logger      *zap.Logger

	connect func(ctx context.Context, cfg *pgx.ConnConfig) (notificationConn, error)
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewPGListener(connConfig *pgx.ConnConfig, publisher Publisher, opts ListenerOptions, logger *zap.Logger) *PGListener {
	if opts.MaxReconnectAttempts <= 0 {
		opts.MaxReconnectAttempts = 5
	}
	if opts.ReconnectBackoff <= 0 {
		opts.ReconnectBackoff = 500 * time.Millisecond
	}
	return &PGListener{
		connConfig:  connConfig,
		publisher:   publisher,
		maxAttempts: opts.MaxReconnectAttempts,
		backoff:     opts.ReconnectBackoff,
		logger:      logger,
		connect:     connectPGX,
		sleep:       sleepContext,
	}
}

func connectPGX(ctx context.Context, cfg *pgx.ConnConfig) (notificationConn, error) {
	return pgx.ConnectConfig(ctx, cfg)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run listens until ctx is cancelled, reconnecting as needed. It returns
// nil on cancellation.
func (l *PGListener) Run(ctx context.Context) error {
	var (
		failures  int
		connected bool
		degraded  bool
	)

	for {
		err := l.listen(ctx, func() {
			if connected || degraded {
				l.logger.Info("change feed restored, requesting resync")
				l.publisher.Broadcast(KindResync)
			}
			connected = true
			degraded = false
			failures = 0
		})
		if ctx.Err() != nil {
			return nil
		}

		failures++
		l.logger.Warn("change feed interrupted",
			zap.Error(err),
			zap.Int("attempt", failures),
		)

		if failures >= l.maxAttempts && !degraded {
			degraded = true
			l.logger.Error("change feed degraded, live updates paused",
				zap.Int("attempts", failures),
			)
			l.publisher.Broadcast(KindDegraded)
		}

		if err := l.sleep(ctx, l.delay(failures)); err != nil {
			return nil
		}
	}
}

func (l *PGListener) listen(ctx context.Context, onReady func()) error {
	conn, err := l.connect(ctx, l.connConfig)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ChangeChannel}.Sanitize()); err != nil {
		return fmt.Errorf("listening on %s: %w", ChangeChannel, err)
	}
	onReady()

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("waiting for notification: %w", err)
		}

		ev, ok := ParsePayload(n.Payload)
		if !ok {
			l.logger.Warn("ignoring malformed change payload", zap.String("payload", n.Payload))
			continue
		}
		l.publisher.Publish(ev)
	}
}

// delay grows exponentially up to a cap, with ±20% jitter.
func (l *PGListener) delay(failures int) time.Duration {
	multiplier := 1
	for i := 1; i < failures && multiplier < maxBackoffMultiplier; i++ {
		multiplier *= 2
	}
	base := l.backoff * time.Duration(multiplier)
	jitter := 0.8 + rand.Float64()*0.4
	return time.Duration(float64(base) * jitter)
}

// ParsePayload decodes a "<table>:<op>" notification.
func ParsePayload(payload string) (Event, bool) {
	table, op, ok := strings.Cut(payload, ":")
	if !ok || table == "" {
		return Event{}, false
	}

	var kind EventKind
	switch strings.ToLower(op) {
	case "insert":
		kind = KindInsert
	case "update":
		kind = KindUpdate
	case "delete", "truncate":
		kind = KindDelete
	default:
		return Event{}, false
	}

	return Event{Topic: table, Kind: kind, At: time.Now().UTC()}, true
}
