// Package ws serves the voice WebSocket. Each connection gets its own
// session: a conversation controller, a recognition manager and an
// announcer, wired to the browser through JSON messages.
package ws

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/veenjenga/Hands-and-Hope-sub001/internal/announce"
	appconfig "github.com/veenjenga/Hands-and-Hope-sub001/internal/config"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/intent"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/protocol"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/slots"
	"github.com/veenjenga/Hands-and-Hope-sub001/pkg/audio"
)

const (
	maxMessageBytes        = 12 << 20
	defaultPlaybackTimeout = 5 * time.Second
	defaultAddProductRoute = "/seller/add-product"
)

// Handler accepts voice WebSocket connections.
type Handler struct {
	logger     *zap.Logger
	upgrader   websocket.Upgrader
	config     appconfig.Config
	synth      announce.Synthesizer
	packetizer audio.Packetizer
	classifier *intent.Classifier
	extractor  *slots.Extractor
	validator  *protocol.Validator

	mu       sync.Mutex
	sessions map[string]*session
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithSynthesizer enables remote speech for every session. The synthesizer
// is shared, so any rate limit it applies is global.
func WithSynthesizer(s announce.Synthesizer) HandlerOption {
	return func(h *Handler) { h.synth = s }
}

// NewHandler creates a handler for cfg.
func NewHandler(logger *zap.Logger, cfg appconfig.Config, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Voice.PlaybackTimeout <= 0 {
		cfg.Voice.PlaybackTimeout = defaultPlaybackTimeout
	}
	if cfg.Voice.AddProductRoute == "" {
		cfg.Voice.AddProductRoute = defaultAddProductRoute
	}
	h := &Handler{
		logger: logger,
		config: cfg,
		packetizer: audio.Packetizer{
			OutputRate: positiveOr(cfg.Audio.SampleRate, audio.DefaultOutputRate),
			FrameMs:    positiveOr(cfg.Audio.FrameDuration, audio.DefaultFrameMs),
			Options:    cfg.Audio.Opus,
			Logger:     logger,
		},
		classifier: intent.New(
			intent.WithRoutes(routesOrDefault(cfg.Voice.Routes)),
			intent.WithAddProductRoute(cfg.Voice.AddProductRoute),
		),
		extractor: slots.NewExtractor(cfg.Voice.Categories),
		validator: protocol.NewValidator(),
		sessions:  make(map[string]*session),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	for _, opt := range opts {
		opt(h)
	}
	logger.Info("voice handler configured",
		zap.Strings("categories", h.extractor.Categories()),
		zap.String("add_product_route", cfg.Voice.AddProductRoute),
		zap.Bool("remote_synthesis", h.synth != nil),
	)
	return h
}

// Handle upgrades the request and runs the session until the connection
// closes or CloseAll is called.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := h.newSession(cancel, uuid.NewString(), conn)
	sess.logger.Info("ws session opened",
		zap.String("remote_addr", r.RemoteAddr),
		zap.Bool("remote_speech", h.synth != nil),
	)
	h.registerSession(sess)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sess.announcer.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return sess.readLoop(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		_ = conn.Close()
		return nil
	})
	if err := g.Wait(); err != nil {
		sess.logger.Debug("ws connection closed", zap.Error(err))
	}

	sess.close()
	h.unregisterSession(sess.id)
	sess.logger.Info("ws session closed")
}

// CloseAll ends every open session.
func (h *Handler) CloseAll() {
	h.mu.Lock()
	sessions := make([]*session, 0, len(h.sessions))
	for _, sess := range h.sessions {
		sessions = append(sessions, sess)
	}
	h.mu.Unlock()
	for _, sess := range sessions {
		sess.cancel()
	}
}

// SessionCount returns the number of open sessions.
func (h *Handler) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimSpace(allowed), origin) {
			return true
		}
	}
	h.logger.Warn("ws origin rejected", zap.String("origin", origin))
	return false
}

func (h *Handler) registerSession(sess *session) {
	h.mu.Lock()
	h.sessions[sess.id] = sess
	h.mu.Unlock()
}

func (h *Handler) unregisterSession(id string) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
}

func (s *session) readLoop(ctx context.Context) error {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		var msg protocol.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError("invalid json")
			continue
		}
		if err := s.handler.validator.Validate(msg); err != nil {
			s.sendError(err.Error())
			continue
		}
		if msg.Type != protocol.TypeHeartbeat {
			s.logger.Debug("ws incoming message", zap.String("type", msg.Type))
		}
		s.dispatchIncoming(ctx, msg)
	}
}

func (s *session) sendJSON(payload protocol.ServerMessage) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := s.conn.WriteJSON(payload); err != nil {
		s.logger.Debug("ws send failed", zap.String("type", payload.Type), zap.Error(err))
	}
}

func (s *session) sendError(message string) {
	s.sendJSON(protocol.ServerMessage{Type: protocol.TypeError, Message: message})
}

func decodeCaptureImage(data string) ([]byte, error) {
	if data == "" {
		return nil, errors.New("empty capture image")
	}
	if strings.HasPrefix(data, "data:") {
		parts := strings.SplitN(data, ",", 2)
		if len(parts) != 2 {
			return nil, errors.New("invalid data url")
		}
		return base64.StdEncoding.DecodeString(parts[1])
	}
	return base64.StdEncoding.DecodeString(data)
}

func routesOrDefault(routes map[string]string) map[string]string {
	if len(routes) == 0 {
		return intent.DefaultRoutes()
	}
	return routes
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
