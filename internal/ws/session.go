package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/veenjenga/Hands-and-Hope-sub001/internal/announce"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/conversation"
	applogger "github.com/veenjenga/Hands-and-Hope-sub001/internal/logger"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/protocol"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/recognition"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/session/fsm"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/slots"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/storage"
)

type session struct {
	id      string
	conn    *websocket.Conn
	sendMu  sync.Mutex
	logger  *zap.Logger
	handler *Handler
	cancel  context.CancelFunc

	capsMu sync.Mutex
	caps   protocol.Capabilities

	announcer  *announce.Announcer
	recognizer *recognition.Manager
	controller *conversation.Controller
	journal    *storage.Journal

	waitMu  sync.Mutex
	waiters map[string]chan ack
}

func (h *Handler) newSession(cancel context.CancelFunc, id string, conn *websocket.Conn) *session {
	s := &session{
		id:      id,
		conn:    conn,
		logger:  applogger.WithSession(h.logger, id),
		handler: h,
		cancel:  cancel,
		waiters: make(map[string]chan ack),
	}
	voice := h.config.Voice

	if h.config.Journal.Enabled {
		j, err := storage.OpenJournal(h.config.Journal.Dir, id)
		if err != nil {
			s.logger.Warn("journal unavailable", zap.Error(err))
		} else {
			s.journal = j
		}
	}

	pipeline := announce.NewPipeline(s.logger,
		&announce.RemoteProvider{Synthesizer: s, Player: s},
		&announce.LocalProvider{Speaker: s},
		&announce.TextProvider{Surface: s, Dwell: voice.TextDwell},
	)
	announcerOpts := []announce.Option{announce.WithLogger(s.logger)}
	if s.journal != nil {
		announcerOpts = append(announcerOpts, announce.WithResultHook(s.recordAnnouncement))
	}
	s.announcer = announce.New(pipeline, announcerOpts...)
	s.logger.Debug("speech providers", zap.Strings("order", pipeline.Providers()))

	controllerOpts := []conversation.Option{conversation.WithLogger(s.logger)}
	if s.journal != nil {
		controllerOpts = append(controllerOpts, conversation.WithRecorder(s))
	}
	s.controller = conversation.New(h.classifier, h.extractor, s, s.announcer, conversation.Config{
		TourSteps:       voice.TourSteps,
		AddProductRoute: voice.AddProductRoute,
	}, controllerOpts...)

	recCfg := recognition.DefaultConfig()
	recCfg.RestartDelay = voice.RestartDelay
	recCfg.DuplicateWindow = voice.DuplicateWindow
	s.recognizer = recognition.NewManager(s, recCfg, recognition.Callbacks{
		OnTranscript: s.controller.HandleTranscript,
		OnAnnounce:   s.announcer.Announce,
		OnNotice:     s.notice,
	}, recognition.WithLogger(s.logger))

	return s
}

func (s *session) close() {
	s.recognizer.Disable()
	s.announcer.Stop()
	s.failWaiters()
}

func (s *session) capabilities() protocol.Capabilities {
	s.capsMu.Lock()
	defer s.capsMu.Unlock()
	return s.caps
}

func (s *session) setCapabilities(caps protocol.Capabilities) {
	s.capsMu.Lock()
	s.caps = caps
	s.capsMu.Unlock()
}

func (s *session) sendState() {
	state := s.controller.Snapshot()
	s.sendJSON(protocol.ServerMessage{
		Type:  protocol.TypeState,
		Mode:  string(state.Mode),
		Step:  protocol.Ptr(state.TourStep),
		Draft: &state.Draft,
	})
}

func (s *session) notice(msg string) {
	s.sendJSON(protocol.ServerMessage{Type: protocol.TypeNotice, Message: msg})
}

// Supported implements recognition.Capture.
func (s *session) Supported() bool {
	return s.capabilities().SpeechRecognition
}

// Start implements recognition.Capture.
func (s *session) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.sendJSON(protocol.ServerMessage{Type: protocol.TypeCaptureStart})
	return nil
}

// Stop implements recognition.Capture.
func (s *session) Stop() error {
	s.sendJSON(protocol.ServerMessage{Type: protocol.TypeCaptureStop})
	return nil
}

// UpdateField implements conversation.Effects.
func (s *session) UpdateField(field slots.Field, value string) {
	s.sendJSON(protocol.ServerMessage{Type: protocol.TypeFieldUpdate, Field: string(field), Value: protocol.Ptr(value)})
}

// Navigate implements conversation.Effects.
func (s *session) Navigate(route string) {
	s.sendJSON(protocol.ServerMessage{Type: protocol.TypeNavigate, Route: route})
}

// OpenCamera implements conversation.Effects.
func (s *session) OpenCamera() {
	s.sendJSON(protocol.ServerMessage{Type: protocol.TypeCameraOpen})
}

// CloseCamera implements conversation.Effects.
func (s *session) CloseCamera() {
	s.sendJSON(protocol.ServerMessage{Type: protocol.TypeCameraClose})
}

// SubmitDraft implements conversation.Effects.
func (s *session) SubmitDraft(draft slots.Draft) {
	s.logger.Info("listing submitted", zap.String("name", draft.Name), zap.String("category", draft.Category))
	s.sendJSON(protocol.ServerMessage{Type: protocol.TypeFormSubmit, Draft: &draft})
}

// ToggleSetting implements conversation.Effects.
func (s *session) ToggleSetting(name string, on bool) {
	s.sendJSON(protocol.ServerMessage{Type: protocol.TypeSetting, Setting: name, On: protocol.Ptr(on)})
}

// ModeChanged implements conversation.Effects.
func (s *session) ModeChanged(mode fsm.Mode, step int) {
	s.sendJSON(protocol.ServerMessage{Type: protocol.TypeMode, Mode: string(mode), Step: protocol.Ptr(step)})
}

// RecordTurn implements conversation.Recorder.
func (s *session) RecordTurn(turn conversation.Turn) {
	s.appendJournal(storage.Entry{
		Kind:       storage.KindTurn,
		Timestamp:  turn.At.Format(time.RFC3339),
		Transcript: turn.Transcript,
		Action:     string(turn.Action),
		ModeBefore: string(turn.ModeBefore),
		ModeAfter:  string(turn.ModeAfter),
	})
}

func (s *session) recordAnnouncement(text string, result announce.Result) {
	entry := storage.Entry{Kind: storage.KindAnnouncement, Text: text, Provider: result.Provider}
	if result.Err != nil {
		entry.Error = result.Err.Error()
	}
	s.appendJournal(entry)
}

func (s *session) appendJournal(entry storage.Entry) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Append(entry); err != nil {
		s.logger.Warn("journal append failed", zap.Error(err))
	}
}
