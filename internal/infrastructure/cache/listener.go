// Package cache keeps hot catalog data in memory and drops it when
// PostgreSQL announces a change with NOTIFY.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"factura/pkg/logger"
)

// Channel is the NOTIFY channel written by the catalog triggers.
// The payload is the name of the changed table.
const Channel = "catalog_changed"

// InvalidationListener is called for each received notification.
type InvalidationListener func(channel, payload string)

// Listener holds one pooled connection in LISTEN mode and fans
// notifications out to the registered invalidation callbacks.
type Listener struct {
	pool *pgxpool.Pool

	listenersMu sync.RWMutex
	listeners   []InvalidationListener

	lifecycleMu sync.Mutex
	started     bool
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewListener(pool *pgxpool.Pool) *Listener {
	return &Listener{pool: pool}
}

// OnInvalidation registers a callback for catalog change events.
func (l *Listener) OnInvalidation(listener InvalidationListener) {
	l.listenersMu.Lock()
	l.listeners = append(l.listeners, listener)
	l.listenersMu.Unlock()
}

// Start begins listening in the background. Calling it twice is a no-op.
func (l *Listener) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	l.lifecycleMu.Lock()
	if l.started {
		l.lifecycleMu.Unlock()
		return
	}
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.started = true
	l.lifecycleMu.Unlock()

	l.wg.Add(1)
	go l.listenLoop()
	logger.Info(l.ctx, "catalog cache listener started", "channel", Channel)
}

// Stop cancels the listener and waits for the loop to exit.
func (l *Listener) Stop() {
	l.lifecycleMu.Lock()
	if !l.started {
		l.lifecycleMu.Unlock()
		return
	}
	cancel := l.cancel
	l.started = false
	l.cancel = nil
	l.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.wg.Wait()
	logger.Info(context.Background(), "catalog cache listener stopped")
}

func (l *Listener) listenLoop() {
	defer l.wg.Done()

	for {
		select {
		case <-l.ctx.Done():
			return
		default:
		}

		conn, err := l.pool.Acquire(l.ctx)
		if err != nil {
			if l.ctx.Err() != nil {
				return
			}
			logger.Error(l.ctx, "failed to acquire connection for LISTEN", "error", err)
			time.Sleep(time.Second)
			continue
		}

		if _, err = conn.Exec(l.ctx, "LISTEN "+Channel); err != nil {
			logger.Error(l.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			time.Sleep(time.Second)
			continue
		}

		// Anything may have changed while the connection was down.
		l.dispatch(Channel, "")

		l.waitForNotifications(conn)
		conn.Release()
	}
}

func (l *Listener) waitForNotifications(conn *pgxpool.Conn) {
	for {
		select {
		case <-l.ctx.Done():
			return
		default:
		}

		ctx, cancel := context.WithTimeout(l.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if l.ctx.Err() != nil {
				return
			}
			if ctx.Err() != nil {
				continue
			}
			// Broken connection, reacquire.
			logger.Warn(l.ctx, "LISTEN connection lost", "error", err)
			return
		}

		logger.Debug(l.ctx, "received notification",
			"channel", notification.Channel,
			"payload", notification.Payload)

		l.dispatch(notification.Channel, notification.Payload)
	}
}

// dispatch runs every callback in turn, recovering from panics so one
// bad listener cannot stop the loop.
func (l *Listener) dispatch(channel, payload string) {
	payload = strings.TrimSpace(payload)

	l.listenersMu.RLock()
	defer l.listenersMu.RUnlock()
	for _, listener := range l.listeners {
		func(fn InvalidationListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(context.Background(), "listener panic recovered", "channel", channel, "panic", r)
				}
			}()
			fn(channel, payload)
		}(listener)
	}
}
