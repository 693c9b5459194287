package announce

import (
	"context"
	"fmt"
	"time"
)

// Clip is synthesized 16-bit little-endian mono PCM.
type Clip struct {
	PCM        []byte
	SampleRate int
}

// Duration returns the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	samples := len(c.PCM) / 2
	return time.Duration(samples) * time.Second / time.Duration(c.SampleRate)
}

// Synthesizer turns text into audio on a remote service.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (Clip, error)
}

// AudioPlayer plays a clip and returns when playback completes.
type AudioPlayer interface {
	Play(ctx context.Context, clip Clip) error
}

// LocalSpeaker is the platform speech synthesizer on the client.
type LocalSpeaker interface {
	LocalSpeechAvailable() bool
	SpeakLocal(ctx context.Context, text string) error
}

// TextSurface is the visually hidden live region read by assistive tech.
type TextSurface interface {
	ShowLiveRegion(text string)
	ClearLiveRegion()
}

// RemoteProvider synthesizes remotely and plays the result.
type RemoteProvider struct {
	Synthesizer Synthesizer
	Player      AudioPlayer
}

// Name implements Provider.
func (p *RemoteProvider) Name() string { return "remote" }

// Speak implements Provider.
func (p *RemoteProvider) Speak(ctx context.Context, text string) error {
	if p.Synthesizer == nil || p.Player == nil {
		return ErrUnavailable
	}
	clip, err := p.Synthesizer.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	if len(clip.PCM) == 0 {
		return fmt.Errorf("synthesize: empty audio")
	}
	if err := p.Player.Play(ctx, clip); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	return nil
}

// LocalProvider speaks through the client's own synthesizer.
type LocalProvider struct {
	Speaker LocalSpeaker
}

// Name implements Provider.
func (p *LocalProvider) Name() string { return "local" }

// Speak implements Provider.
func (p *LocalProvider) Speak(ctx context.Context, text string) error {
	if p.Speaker == nil || !p.Speaker.LocalSpeechAvailable() {
		return ErrUnavailable
	}
	return p.Speaker.SpeakLocal(ctx, text)
}

// TextProvider shows the message in the live region for Dwell. It is the
// last resort and does not fail.
type TextProvider struct {
	Surface TextSurface
	Dwell   time.Duration
}

// DefaultDwell is used when TextProvider.Dwell is zero.
const DefaultDwell = 3 * time.Second

// Name implements Provider.
func (p *TextProvider) Name() string { return "text" }

// Speak implements Provider.
func (p *TextProvider) Speak(ctx context.Context, text string) error {
	if p.Surface != nil {
		p.Surface.ShowLiveRegion(text)
		defer p.Surface.ClearLiveRegion()
	}
	dwell := p.Dwell
	if dwell <= 0 {
		dwell = DefaultDwell
	}
	timer := time.NewTimer(dwell)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	return nil
}
