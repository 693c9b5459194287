// Package recognition owns the lifecycle of a continuous speech capture
// session: start, debounced restart after the session ends, duplicate
// suppression and error classification.
package recognition

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/veenjenga/Hands-and-Hope-sub001/internal/textnorm"
)

// Capture is the speech-to-text capability on the client.
type Capture interface {
	Supported() bool
	Start(ctx context.Context) error
	Stop() error
}

// State is the capture session state.
type State string

const (
	StateStopped   State = "stopped"
	StateStarting  State = "starting"
	StateListening State = "listening"
	StateEnded     State = "ended"
)

// Config holds the restart policy and user-facing messages.
type Config struct {
	RestartDelay      time.Duration
	DuplicateWindow   time.Duration
	StartMessage      string
	NetworkMessage    string
	MicrophoneMessage string
	UnsupportedNotice string
}

// DefaultConfig returns the default restart policy and messages.
func DefaultConfig() Config {
	return Config{
		RestartDelay:      300 * time.Millisecond,
		DuplicateWindow:   2 * time.Second,
		StartMessage:      "Voice assistant is listening. Say help to hear what you can say.",
		NetworkMessage:    "I'm having trouble reaching the speech service. Please check your connection.",
		MicrophoneMessage: "I can't access the microphone. Please check your microphone permissions.",
		UnsupportedNotice: "Voice commands are not supported in this browser. You can keep using the form directly.",
	}
}

// Callbacks receive the manager's output. Nil callbacks are skipped.
type Callbacks struct {
	OnTranscript func(text string)
	OnAnnounce   func(msg string)
	OnNotice     func(msg string)
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Manager drives one capture session.
//
// States move stopped -> starting -> listening -> ended and, while enabled,
// ended -> starting once RestartDelay has elapsed. Several end events inside
// the delay schedule a single restart.
type Manager struct {
	capture   Capture
	cfg       Config
	callbacks Callbacks
	clock     Clock
	logger    *zap.Logger
	guard     *DuplicateGuard

	mu                  sync.Mutex
	ctx                 context.Context
	enabled             bool
	state               State
	announced           bool
	unsupportedNotified bool
	restart             Timer
	restartSeq          uint64
}

// NewManager creates a stopped manager around capture.
func NewManager(capture Capture, cfg Config, callbacks Callbacks, opts ...Option) *Manager {
	def := DefaultConfig()
	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = def.RestartDelay
	}
	if cfg.DuplicateWindow <= 0 {
		cfg.DuplicateWindow = def.DuplicateWindow
	}
	if cfg.StartMessage == "" {
		cfg.StartMessage = def.StartMessage
	}
	if cfg.NetworkMessage == "" {
		cfg.NetworkMessage = def.NetworkMessage
	}
	if cfg.MicrophoneMessage == "" {
		cfg.MicrophoneMessage = def.MicrophoneMessage
	}
	if cfg.UnsupportedNotice == "" {
		cfg.UnsupportedNotice = def.UnsupportedNotice
	}
	m := &Manager{
		capture:   capture,
		cfg:       cfg,
		callbacks: callbacks,
		clock:     RealClock(),
		logger:    zap.NewNop(),
		guard:     &DuplicateGuard{Window: cfg.DuplicateWindow},
		state:     StateStopped,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Enabled reports whether capture is switched on.
func (m *Manager) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// Enable switches capture on and starts a session. When capture is not
// supported it shows the unsupported notice once and returns ErrUnsupported.
func (m *Manager) Enable(ctx context.Context) error {
	m.mu.Lock()
	if m.capture == nil || !m.capture.Supported() {
		notify := !m.unsupportedNotified
		m.unsupportedNotified = true
		m.mu.Unlock()
		if notify {
			m.logger.Info("speech capture unsupported")
			m.notice(m.cfg.UnsupportedNotice)
		}
		return ErrUnsupported
	}
	if m.enabled {
		m.mu.Unlock()
		return nil
	}
	m.enabled = true
	m.ctx = ctx
	m.mu.Unlock()

	m.start()
	return nil
}

// Disable stops capture, cancels any pending restart and clears the
// session markers so the next Enable announces itself again.
func (m *Manager) Disable() {
	m.mu.Lock()
	wasEnabled := m.enabled
	m.enabled = false
	m.announced = false
	m.cancelRestartLocked()
	m.setStateLocked(StateStopped)
	m.mu.Unlock()

	m.guard.Reset()
	if !wasEnabled {
		return
	}
	if err := m.capture.Stop(); err != nil {
		m.logger.Debug("capture stop failed", zap.Error(err))
	}
}

// OnSessionEnd handles the capture session ending on its own.
func (m *Manager) OnSessionEnd() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled {
		return
	}
	m.setStateLocked(StateEnded)
	m.scheduleRestartLocked()
}

// OnError classifies a raw capture error and reacts to it.
func (m *Manager) OnError(raw string) ErrorKind {
	kind := ClassifyError(raw)
	if !m.Enabled() {
		return kind
	}
	switch kind {
	case ErrorNetwork:
		m.logger.Warn("capture network error", zap.String("error", raw))
		m.announce(m.cfg.NetworkMessage)
	case ErrorMicrophone:
		m.logger.Warn("capture microphone error", zap.String("error", raw))
		m.announce(m.cfg.MicrophoneMessage)
		m.Disable()
	case ErrorBenign:
		m.logger.Debug("capture benign error", zap.String("error", raw))
	default:
		m.logger.Warn("unclassified capture error", zap.String("error", raw))
	}
	return kind
}

// OnTranscript normalizes text, applies the duplicate guard and forwards
// it. It reports whether the transcript was forwarded.
func (m *Manager) OnTranscript(text string) bool {
	if !m.Enabled() {
		return false
	}
	t := textnorm.Transcript(text)
	if t == "" {
		return false
	}
	if !m.guard.Allow(t, m.clock.Now()) {
		m.logger.Debug("duplicate transcript dropped", zap.String("text", t))
		return false
	}
	if m.callbacks.OnTranscript != nil {
		m.callbacks.OnTranscript(t)
	}
	return true
}

func (m *Manager) start() {
	m.mu.Lock()
	if !m.enabled || m.state == StateStarting || m.state == StateListening {
		m.mu.Unlock()
		return
	}
	m.setStateLocked(StateStarting)
	ctx := m.ctx
	m.mu.Unlock()

	err := m.capture.Start(ctx)

	m.mu.Lock()
	if !m.enabled {
		m.mu.Unlock()
		return
	}
	if err != nil {
		m.setStateLocked(StateEnded)
		m.scheduleRestartLocked()
		m.mu.Unlock()
		m.logger.Warn("capture start failed", zap.Error(err))
		return
	}
	m.setStateLocked(StateListening)
	first := !m.announced
	m.announced = true
	m.mu.Unlock()

	if first {
		m.announce(m.cfg.StartMessage)
	}
}

func (m *Manager) scheduleRestartLocked() {
	if m.restart != nil {
		return
	}
	m.restartSeq++
	seq := m.restartSeq
	m.restart = m.clock.AfterFunc(m.cfg.RestartDelay, func() {
		m.fireRestart(seq)
	})
}

func (m *Manager) fireRestart(seq uint64) {
	m.mu.Lock()
	if seq != m.restartSeq {
		m.mu.Unlock()
		return
	}
	m.restart = nil
	ready := m.enabled && m.state == StateEnded
	m.mu.Unlock()
	if ready {
		m.start()
	}
}

func (m *Manager) cancelRestartLocked() {
	if m.restart != nil {
		m.restart.Stop()
		m.restart = nil
	}
	m.restartSeq++
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.logger.Debug("capture state", zap.String("from", string(m.state)), zap.String("to", string(s)))
	m.state = s
}

func (m *Manager) announce(msg string) {
	if m.callbacks.OnAnnounce != nil && msg != "" {
		m.callbacks.OnAnnounce(msg)
	}
}

func (m *Manager) notice(msg string) {
	if m.callbacks.OnNotice != nil && msg != "" {
		m.callbacks.OnNotice(msg)
	}
}
