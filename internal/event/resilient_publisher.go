package event

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/disblox/disblox/internal/logger"
)

type retryEntry struct {
	event    Event
	attempts int
	lastErr  error
}

// ResilientPublisher wraps an Event Bus with a bounded retry queue and a
// dead-letter file. Gateway events must never be lost to a transient
// handler failure, so failed publishes are retried with exponential
// backoff before being dead-lettered.
type ResilientPublisher struct {
	bus        Bus
	retryQueue chan retryEntry
	maxRetries int
	retryDelay time.Duration
	deadLetter *DeadLetterWriter
	shutdown   chan struct{}
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// NewResilientPublisher creates a ResilientPublisher and starts its retry worker
func NewResilientPublisher(bus Bus, maxRetries int, retryDelay time.Duration, deadLetterPath string) (*ResilientPublisher, error) {
	dl, err := NewDeadLetterWriter(deadLetterPath)
	if err != nil {
		return nil, err
	}

	rp := &ResilientPublisher{
		bus:        bus,
		retryQueue: make(chan retryEntry, RetryQueueSize),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		deadLetter: dl,
		shutdown:   make(chan struct{}),
	}

	rp.wg.Add(1)
	go rp.retryWorker()

	return rp, nil
}

// PublishWithRetry attempts a synchronous publish and queues the event for
// background retry on failure. It never returns an error to the caller;
// events that exhaust retries or overflow the queue are dead-lettered.
func (p *ResilientPublisher) PublishWithRetry(ctx context.Context, event Event) {
	err := p.bus.Publish(ctx, event)
	if err == nil {
		return
	}

	logger.FromContext(ctx).Warn(LogMsgPublishFailed,
		"event_type", event.Type,
		"error", err,
		"retries", p.maxRetries)

	p.enqueue(retryEntry{event: event, attempts: 1, lastErr: err})
}

// Publish satisfies the Bus interface by delegating to PublishWithRetry
func (p *ResilientPublisher) Publish(ctx context.Context, event Event) error {
	p.PublishWithRetry(ctx, event)
	return nil
}

// Subscribe delegates to the inner bus
func (p *ResilientPublisher) Subscribe(eventType Type, handler Handler) {
	p.bus.Subscribe(eventType, handler)
}

// Shutdown stops the retry worker after draining the queue, or returns the
// context error if draining takes too long
func (p *ResilientPublisher) Shutdown(ctx context.Context) error {
	p.closeOnce.Do(func() {
		close(p.shutdown)
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if closeErr := p.deadLetter.Close(); err == nil {
		err = closeErr
	}
	return err
}

func (p *ResilientPublisher) enqueue(entry retryEntry) {
	select {
	case p.retryQueue <- entry:
	default:
		// Queue full: dead-letter immediately rather than block the gateway
		if err := p.deadLetter.Write(entry.event, entry.attempts, errors.New(ErrMsgRetryQueueFull)); err != nil {
			logger.FromContext(context.Background()).Error(LogMsgDeadLetterWriteErr, "error", err)
		}
	}
}

func (p *ResilientPublisher) retryWorker() {
	defer p.wg.Done()

	// Detached context: the original request context may be cancelled
	ctx := context.Background()
	log := logger.FromContext(ctx)

	for {
		select {
		case entry := <-p.retryQueue:
			p.processRetry(ctx, log, entry)
		case <-p.shutdown:
			// Drain remaining entries before exiting
			for {
				select {
				case entry := <-p.retryQueue:
					p.processRetry(ctx, log, entry)
				default:
					return
				}
			}
		}
	}
}

func (p *ResilientPublisher) processRetry(ctx context.Context, log *slog.Logger, entry retryEntry) {
	for entry.attempts <= p.maxRetries {
		// Exponential backoff: delay doubles with each attempt
		delay := p.retryDelay * time.Duration(1<<(entry.attempts-1))
		select {
		case <-time.After(delay):
		case <-p.shutdown:
			// Shutting down: one last immediate attempt below
		}

		err := p.bus.Publish(ctx, entry.event)
		if err == nil {
			log.Info(LogMsgRetrySucceeded, "event_type", entry.event.Type, "attempt", entry.attempts)
			return
		}

		log.Warn(LogMsgRetryFailed, "event_type", entry.event.Type, "attempt", entry.attempts, "error", err)
		entry.lastErr = err
		entry.attempts++
	}

	if err := p.deadLetter.Write(entry.event, entry.attempts-1, entry.lastErr); err != nil {
		log.Error(LogMsgDeadLetterWriteErr, "error", err)
	}
}
