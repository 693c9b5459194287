// Package announce serializes spoken feedback. An Announcer owns a FIFO of
// messages and a single consumer loop; each message is delivered through a
// Pipeline of providers (remote synthesis, local synthesis, live-region text).
package announce

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Chain delivers one utterance. *Pipeline implements it.
type Chain interface {
	Speak(ctx context.Context, text string) Result
}

// Option configures an Announcer.
type Option func(*Announcer)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Announcer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithResultHook registers fn to observe every delivered or failed message.
// fn runs on the consumer loop and must not block.
func WithResultHook(fn func(text string, result Result)) Option {
	return func(a *Announcer) {
		a.onResult = fn
	}
}

// Announcer plays at most one message at a time. Announce and Interrupt
// never block; Run is the only goroutine that calls the chain.
type Announcer struct {
	chain    Chain
	logger   *zap.Logger
	onResult func(string, Result)

	mu      sync.Mutex
	queue   []string
	playing bool
	cancel  context.CancelFunc
	last    string
	wake    chan struct{}
	changed chan struct{}
}

// New creates an announcer delivering through chain.
func New(chain Chain, opts ...Option) *Announcer {
	a := &Announcer{
		chain:   chain,
		logger:  zap.NewNop(),
		wake:    make(chan struct{}, 1),
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Announce queues msg behind anything already playing or queued.
func (a *Announcer) Announce(msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	a.mu.Lock()
	a.queue = append(a.queue, msg)
	a.last = msg
	a.mu.Unlock()
	a.signal()
}

// Interrupt cancels the message in flight, drops the queue and plays msg next.
func (a *Announcer) Interrupt(msg string) {
	msg = strings.TrimSpace(msg)
	a.mu.Lock()
	a.queue = a.queue[:0]
	if msg != "" {
		a.queue = append(a.queue, msg)
		a.last = msg
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.notifyLocked()
	a.mu.Unlock()
	a.signal()
}

// Stop cancels the message in flight and clears the queue.
func (a *Announcer) Stop() {
	a.Interrupt("")
}

// IsPlaying reports whether a message is being delivered, network request
// included.
func (a *Announcer) IsPlaying() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.playing
}

// Pending returns the number of queued messages not yet started.
func (a *Announcer) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

// LastMessage returns the most recently announced message.
func (a *Announcer) LastMessage() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// WaitIdle blocks until nothing is playing or queued, or ctx is done.
func (a *Announcer) WaitIdle(ctx context.Context) error {
	for {
		a.mu.Lock()
		if !a.playing && len(a.queue) == 0 {
			a.mu.Unlock()
			return nil
		}
		changed := a.changed
		a.mu.Unlock()
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Run consumes the queue until ctx is done. Call it once.
func (a *Announcer) Run(ctx context.Context) error {
	for {
		msg, playCtx, ok := a.next(ctx)
		if !ok {
			select {
			case <-a.wake:
				continue
			case <-ctx.Done():
				a.Stop()
				return nil
			}
		}

		result := a.chain.Speak(playCtx, msg)
		a.finish()

		if result.Err != nil {
			a.logger.Debug("announcement not delivered", zap.String("text", msg), zap.Error(result.Err))
		} else {
			a.logger.Debug("announcement delivered",
				zap.String("provider", result.Provider),
				zap.Int("chars", len(msg)),
			)
		}
		if a.onResult != nil {
			a.onResult(msg, result)
		}
		if ctx.Err() != nil {
			a.Stop()
			return nil
		}
	}
}

func (a *Announcer) next(ctx context.Context) (string, context.Context, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.queue) == 0 || ctx.Err() != nil {
		return "", nil, false
	}
	msg := a.queue[0]
	a.queue = a.queue[1:]
	playCtx, cancel := context.WithCancel(ctx)
	a.playing = true
	a.cancel = cancel
	return msg, playCtx, true
}

func (a *Announcer) finish() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.playing = false
	a.notifyLocked()
}

// notifyLocked wakes WaitIdle callers. a.mu must be held.
func (a *Announcer) notifyLocked() {
	close(a.changed)
	a.changed = make(chan struct{})
}

func (a *Announcer) signal() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}
