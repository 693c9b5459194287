package announce

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordingProvider records every utterance and tracks overlap.
type recordingProvider struct {
	name    string
	delay   time.Duration
	block   chan struct{}
	started chan string
	err     error

	mu      sync.Mutex
	spoken  []string
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (p *recordingProvider) Name() string { return p.name }

func (p *recordingProvider) Speak(ctx context.Context, text string) error {
	n := p.active.Add(1)
	defer p.active.Add(-1)
	for {
		seen := p.maxSeen.Load()
		if n <= seen || p.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	p.mu.Lock()
	p.spoken = append(p.spoken, text)
	p.mu.Unlock()
	if p.started != nil {
		p.started <- text
	}
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.err
}

func (p *recordingProvider) Spoken() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.spoken))
	copy(out, p.spoken)
	return out
}

func startAnnouncer(t *testing.T, chain Chain, opts ...Option) (*Announcer, func()) {
	t.Helper()
	a := New(chain, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.Run(ctx)
	}()
	return a, func() {
		cancel()
		<-done
	}
}

func waitIdle(t *testing.T, a *Announcer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
}

func TestAnnouncerFIFOWithoutOverlap(t *testing.T) {
	prov := &recordingProvider{name: "fake", delay: 5 * time.Millisecond}
	a, stop := startAnnouncer(t, NewPipeline(nil, prov))
	defer stop()

	want := []string{"one", "two", "three", "four", "five"}
	for _, msg := range want {
		a.Announce(msg)
	}
	waitIdle(t, a)

	got := prov.Spoken()
	if len(got) != len(want) {
		t.Fatalf("spoken=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("spoken[%d]=%q, want %q", i, got[i], want[i])
		}
	}
	if peak := prov.maxSeen.Load(); peak != 1 {
		t.Fatalf("max concurrent playbacks=%d, want 1", peak)
	}
	if a.IsPlaying() {
		t.Fatalf("IsPlaying()=true after queue drained")
	}
}

func TestAnnouncerQueuesWhilePlaying(t *testing.T) {
	prov := &recordingProvider{name: "fake", block: make(chan struct{}), started: make(chan string, 4)}
	a, stop := startAnnouncer(t, NewPipeline(nil, prov))
	defer stop()

	a.Announce("first")
	if got := <-prov.started; got != "first" {
		t.Fatalf("started=%q, want first", got)
	}
	if !a.IsPlaying() {
		t.Fatalf("IsPlaying()=false during playback")
	}
	a.Announce("second")
	a.Announce("third")
	if n := a.Pending(); n != 2 {
		t.Fatalf("Pending()=%d, want 2", n)
	}
	select {
	case msg := <-prov.started:
		t.Fatalf("second playback %q started while first in flight", msg)
	case <-time.After(20 * time.Millisecond):
	}

	close(prov.block)
	waitIdle(t, a)
	if got := prov.Spoken(); len(got) != 3 || got[1] != "second" || got[2] != "third" {
		t.Fatalf("spoken=%v, want [first second third]", got)
	}
}

func TestAnnouncerInterrupt(t *testing.T) {
	prov := &recordingProvider{name: "fake", block: make(chan struct{}), started: make(chan string, 4)}
	a, stop := startAnnouncer(t, NewPipeline(nil, prov))
	defer stop()

	a.Announce("long story")
	<-prov.started
	a.Announce("stale")
	a.Interrupt("urgent")

	if got := <-prov.started; got != "urgent" {
		t.Fatalf("after interrupt started=%q, want urgent", got)
	}
	close(prov.block)
	waitIdle(t, a)

	got := prov.Spoken()
	if len(got) != 2 || got[0] != "long story" || got[1] != "urgent" {
		t.Fatalf("spoken=%v, want [long story urgent]", got)
	}
	if a.LastMessage() != "urgent" {
		t.Fatalf("LastMessage()=%q, want urgent", a.LastMessage())
	}
}

func TestAnnouncerStopClearsQueue(t *testing.T) {
	prov := &recordingProvider{name: "fake", block: make(chan struct{}), started: make(chan string, 4)}
	a, stop := startAnnouncer(t, NewPipeline(nil, prov))
	defer stop()

	a.Announce("a")
	<-prov.started
	a.Announce("b")
	a.Stop()
	waitIdle(t, a)
	if got := prov.Spoken(); len(got) != 1 {
		t.Fatalf("spoken=%v, want only the cancelled first message", got)
	}
}

func TestAnnouncerLivenessWhenEveryProviderFails(t *testing.T) {
	failing := &recordingProvider{name: "broken", err: errors.New("boom")}
	var mu sync.Mutex
	var results []Result
	a, stop := startAnnouncer(t, NewPipeline(nil, failing), WithResultHook(func(_ string, r Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}))
	defer stop()

	a.Announce("x")
	a.Announce("y")
	waitIdle(t, a)

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 2 {
		t.Fatalf("results=%d, want 2", len(results))
	}
	for _, r := range results {
		if r.OK() || r.Err == nil {
			t.Fatalf("result=%+v, want failure", r)
		}
	}
}

type fakeSynth struct {
	clip Clip
	err  error
}

func (s fakeSynth) Synthesize(context.Context, string) (Clip, error) { return s.clip, s.err }

type fakePlayer struct{ played []Clip }

func (p *fakePlayer) Play(_ context.Context, clip Clip) error {
	p.played = append(p.played, clip)
	return nil
}

type fakeLocal struct {
	available bool
	spoken    []string
}

func (l *fakeLocal) LocalSpeechAvailable() bool { return l.available }

func (l *fakeLocal) SpeakLocal(_ context.Context, text string) error {
	l.spoken = append(l.spoken, text)
	return nil
}

type fakeSurface struct {
	shown   []string
	cleared int
}

func (s *fakeSurface) ShowLiveRegion(text string) { s.shown = append(s.shown, text) }
func (s *fakeSurface) ClearLiveRegion()           { s.cleared++ }

func TestPipelineFallbackOrder(t *testing.T) {
	player := &fakePlayer{}
	local := &fakeLocal{}
	surface := &fakeSurface{}
	build := func(synth Synthesizer) *Pipeline {
		return NewPipeline(nil,
			&RemoteProvider{Synthesizer: synth, Player: player},
			&LocalProvider{Speaker: local},
			&TextProvider{Surface: surface, Dwell: time.Millisecond},
		)
	}

	ok := build(fakeSynth{clip: Clip{PCM: make([]byte, 4410), SampleRate: 22050}})
	if got := strings.Join(ok.Providers(), ","); got != "remote,local,text" {
		t.Fatalf("providers=%s, want remote,local,text", got)
	}
	if r := ok.Speak(context.Background(), "hi"); r.Provider != "remote" {
		t.Fatalf("provider=%q, want remote", r.Provider)
	}

	missingKey := build(fakeSynth{err: errors.New("missing credential")})
	if r := missingKey.Speak(context.Background(), "hi"); r.Provider != "text" {
		t.Fatalf("provider=%q, want text when local is unavailable", r.Provider)
	}
	if len(surface.shown) != 1 || surface.cleared != 1 {
		t.Fatalf("live region shown=%v cleared=%d, want one show and one clear", surface.shown, surface.cleared)
	}

	local.available = true
	if r := missingKey.Speak(context.Background(), "hello"); r.Provider != "local" {
		t.Fatalf("provider=%q, want local", r.Provider)
	}
	if len(local.spoken) != 1 || local.spoken[0] != "hello" {
		t.Fatalf("local spoken=%v, want [hello]", local.spoken)
	}

	if r := build(nil).Speak(context.Background(), "x"); r.Provider != "local" {
		t.Fatalf("provider=%q, want local without synthesizer", r.Provider)
	}
}

type panicProvider struct{}

func (panicProvider) Name() string                          { return "panicky" }
func (panicProvider) Speak(context.Context, string) error { panic("kaboom") }

func TestPipelineRecoversPanics(t *testing.T) {
	surface := &fakeSurface{}
	p := NewPipeline(nil, panicProvider{}, &TextProvider{Surface: surface, Dwell: time.Millisecond})
	if r := p.Speak(context.Background(), "hi"); r.Provider != "text" {
		t.Fatalf("provider=%q, want text after panic", r.Provider)
	}
}

func TestPipelineStopsOnCancel(t *testing.T) {
	first := &recordingProvider{name: "first", err: errors.New("down")}
	second := &recordingProvider{name: "second"}
	p := NewPipeline(nil, first, second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := p.Speak(ctx, "hi")
	if !errors.Is(r.Err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", r.Err)
	}
	if len(first.Spoken())+len(second.Spoken()) != 0 {
		t.Fatalf("providers called after cancellation")
	}

	if r := NewPipeline(nil).Speak(context.Background(), "hi"); !errors.Is(r.Err, ErrNoProvider) {
		t.Fatalf("err=%v, want ErrNoProvider", r.Err)
	}
}

func TestClipDuration(t *testing.T) {
	clip := Clip{PCM: make([]byte, 2*24000), SampleRate: 24000}
	if got := clip.Duration(); got != time.Second {
		t.Fatalf("Duration()=%s, want 1s", got)
	}
}
