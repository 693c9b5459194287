package announce

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrUnavailable marks a provider whose capability is absent. The
	// pipeline treats it like any other failure and moves on.
	ErrUnavailable = errors.New("announce: provider unavailable")
	// ErrNoProvider is returned when the pipeline has nothing to try.
	ErrNoProvider = errors.New("announce: no provider configured")
)

// Provider produces one utterance and returns once it has finished playing.
type Provider interface {
	Name() string
	Speak(ctx context.Context, text string) error
}

// Result reports how an utterance was delivered.
type Result struct {
	// Provider is the name of the provider that succeeded; empty on failure.
	Provider string
	// Err is set when every provider failed or ctx was cancelled.
	Err error
}

// OK reports whether a provider delivered the utterance.
func (r Result) OK() bool {
	return r.Provider != "" && r.Err == nil
}

// Pipeline tries providers in order until one succeeds.
type Pipeline struct {
	providers []Provider
	logger    *zap.Logger
}

// NewPipeline builds a pipeline over providers. Nil providers are skipped.
func NewPipeline(logger *zap.Logger, providers ...Provider) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	list := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			list = append(list, p)
		}
	}
	return &Pipeline{providers: list, logger: logger}
}

// Providers returns the provider names in evaluation order.
func (p *Pipeline) Providers() []string {
	names := make([]string, 0, len(p.providers))
	for _, prov := range p.providers {
		names = append(names, prov.Name())
	}
	return names
}

// Speak delivers text through the first provider that succeeds. Failures
// fall through to the next provider; cancellation of ctx ends the chain.
// Speak never panics.
func (p *Pipeline) Speak(ctx context.Context, text string) Result {
	if len(p.providers) == 0 {
		return Result{Err: ErrNoProvider}
	}
	var errs []error
	for _, prov := range p.providers {
		if err := ctx.Err(); err != nil {
			return Result{Err: err}
		}
		err := speakSafely(ctx, prov, text)
		if err == nil {
			return Result{Provider: prov.Name()}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{Err: ctxErr}
		}
		p.logger.Debug("speech provider failed",
			zap.String("provider", prov.Name()),
			zap.Error(err),
		)
		errs = append(errs, fmt.Errorf("%s: %w", prov.Name(), err))
	}
	return Result{Err: errors.Join(errs...)}
}

func speakSafely(ctx context.Context, prov Provider, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	return prov.Speak(ctx, text)
}
