// Package broadcast fans out values to any number of subscribers.
package broadcast

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/simresults-indexer/log"
)

type Server[T any] interface {
	Publish(T)
	Subscribe() <-chan T
	CancelSubscription(<-chan T)
	Close()
}

type (
	Option[T any] func(*server[T])
	server[T any] struct {
		name           string
		source         chan T
		listeners      []chan T
		addListener    chan chan T
		removeListener chan (<-chan T)
		ctx            context.Context
		cancel         context.CancelFunc
		closeOnce      sync.Once
		sendTimeout    time.Duration
		l              *log.Logger

		mu      sync.Mutex // guards the counters
		numRcv  int64
		numSnd  int64
		numSkip int64
	}
)

// WithSendTimeout sets how long a slow listener may block a message
func WithSendTimeout[T any](d time.Duration) Option[T] {
	return func(b *server[T]) {
		b.sendTimeout = d
	}
}

func WithLogger[T any](l *log.Logger) Option[T] {
	return func(b *server[T]) {
		b.l = l
	}
}

func New[T any](name string, opts ...Option[T]) Server[T] {
	ctx, cancel := context.WithCancel(context.Background())
	b := &server[T]{
		name:           name,
		source:         make(chan T, 16),
		addListener:    make(chan chan T),
		removeListener: make(chan (<-chan T)),
		ctx:            ctx,
		cancel:         cancel,
		sendTimeout:    50 * time.Millisecond,
		l:              log.Default().Named("broadcast"),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.setupMetrics()
	go b.serve()
	return b
}

// Publish hands msg to all current listeners. It is a no-op after Close.
func (b *server[T]) Publish(msg T) {
	select {
	case b.source <- msg:
	case <-b.ctx.Done():
	}
}

// Subscribe returns a channel which is closed when the server is closed
func (b *server[T]) Subscribe() <-chan T {
	ch := make(chan T, 1)
	select {
	case b.addListener <- ch:
	case <-b.ctx.Done():
		close(ch)
	}
	return ch
}

func (b *server[T]) CancelSubscription(ch <-chan T) {
	select {
	case b.removeListener <- ch:
	case <-b.ctx.Done():
	}
}

func (b *server[T]) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.l.Info("closing broadcast server",
			log.String("name", b.name),
			log.Int64("rcv", b.numRcv),
			log.Int64("snd", b.numSnd),
			log.Int64("skip", b.numSkip))
		b.mu.Unlock()
		b.cancel()
	})
}

func (b *server[T]) counter(v *int64) func() int64 {
	return func() int64 {
		b.mu.Lock()
		defer b.mu.Unlock()
		return *v
	}
}

func (b *server[T]) setupMetrics() {
	meter := otel.GetMeterProvider().Meter("sri.broadcast")
	register := func(metricName, desc string, valueProvider func() int64) {
		if _, err := meter.Int64ObservableGauge(
			metricName,
			metric.WithDescription(desc),
			metric.WithUnit("{count}"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(valueProvider(),
					metric.WithAttributes(attribute.String("name", b.name)))
				return nil
			})); err != nil {
			b.l.Error("failed to register metric",
				log.String("metric", metricName), log.ErrorField(err))
		}
	}
	register("sri.broadcast.rcv", "Number of received messages", b.counter(&b.numRcv))
	register("sri.broadcast.snd", "Number of sent messages", b.counter(&b.numSnd))
	register("sri.broadcast.skip", "Number of skipped messages", b.counter(&b.numSkip))
}

func (b *server[T]) serve() {
	defer func() {
		for _, listener := range b.listeners {
			close(listener)
		}
		b.listeners = nil
	}()
	for {
		select {
		case <-b.ctx.Done():
			return
		case ch := <-b.addListener:
			b.listeners = append(b.listeners, ch)
		case ch := <-b.removeListener:
			for i, listener := range b.listeners {
				if listener == ch {
					b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
					close(listener)
					break
				}
			}
		case msg := <-b.source:
			snd, skip := b.deliver(msg)
			b.mu.Lock()
			b.numRcv++
			b.numSnd += snd
			b.numSkip += skip
			b.mu.Unlock()
		}
	}
}

// deliver sends msg to every listener, skipping listeners which do not
// accept it within the send timeout.
func (b *server[T]) deliver(msg T) (snd, skip int64) {
	for _, listener := range b.listeners {
		timer := time.NewTimer(b.sendTimeout)
		select {
		case listener <- msg:
			snd++
		case <-timer.C:
			skip++
			b.l.Debug("skipping slow listener", log.String("name", b.name))
		}
		timer.Stop()
	}
	return snd, skip
}
