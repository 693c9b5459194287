package ws

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/veenjenga/Hands-and-Hope-sub001/internal/protocol"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/recognition"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/slots"
)

type incomingHandler func(context.Context, protocol.ClientMessage)

func (s *session) dispatchIncoming(ctx context.Context, msg protocol.ClientMessage) {
	handlers := map[string]incomingHandler{
		protocol.TypeHello:            s.onHello,
		protocol.TypeVoiceToggle:      s.onVoiceToggle,
		protocol.TypeTranscript:       s.onTranscript,
		protocol.TypeCaptureError:     s.onCaptureError,
		protocol.TypeCaptureEnd:       s.onCaptureEnd,
		protocol.TypeStartTour:        s.onStartTour,
		protocol.TypeStartListing:     s.onStartListing,
		protocol.TypeCameraCapture:    s.onCameraCapture,
		protocol.TypeCameraCancel:     s.onCameraCancel,
		protocol.TypeFormFieldChanged: s.onFormFieldChanged,
		protocol.TypePlaybackComplete: s.onPlaybackComplete,
		protocol.TypeStateRequest:     s.onStateRequest,
		protocol.TypeHeartbeat:        s.onNoop,
	}

	if handler, ok := handlers[msg.Type]; ok {
		handler(ctx, msg)
		return
	}
	s.logger.Debug("ws unknown message type", zap.String("type", msg.Type))
}

func (s *session) onHello(_ context.Context, msg protocol.ClientMessage) {
	caps := *msg.Capabilities
	s.setCapabilities(caps)
	s.logger.Info("client capabilities",
		zap.Bool("speech_recognition", caps.SpeechRecognition),
		zap.Bool("speech_synthesis", caps.SpeechSynthesis),
		zap.Bool("audio_playback", caps.AudioPlayback),
	)
	s.sendState()
}

func (s *session) onVoiceToggle(ctx context.Context, msg protocol.ClientMessage) {
	if !*msg.Enabled {
		s.recognizer.Disable()
		s.announcer.Stop()
		return
	}
	if err := s.recognizer.Enable(ctx); err != nil && !errors.Is(err, recognition.ErrUnsupported) {
		s.sendError(err.Error())
	}
}

func (s *session) onTranscript(_ context.Context, msg protocol.ClientMessage) {
	s.recognizer.OnTranscript(msg.Text)
}

func (s *session) onCaptureError(_ context.Context, msg protocol.ClientMessage) {
	kind := s.recognizer.OnError(msg.Error)
	s.logger.Debug("capture error", zap.String("error", msg.Error), zap.String("kind", string(kind)))
}

func (s *session) onCaptureEnd(_ context.Context, _ protocol.ClientMessage) {
	s.recognizer.OnSessionEnd()
}

func (s *session) onStartTour(_ context.Context, _ protocol.ClientMessage) {
	s.controller.StartTour()
}

func (s *session) onStartListing(_ context.Context, _ protocol.ClientMessage) {
	s.controller.StartListing()
}

func (s *session) onCameraCapture(_ context.Context, msg protocol.ClientMessage) {
	if _, err := decodeCaptureImage(msg.Image); err != nil {
		s.sendError("invalid capture image: " + err.Error())
		return
	}
	s.controller.OnCapture(msg.Image)
}

func (s *session) onCameraCancel(_ context.Context, _ protocol.ClientMessage) {
	s.controller.OnCaptureCancel()
}

func (s *session) onFormFieldChanged(_ context.Context, msg protocol.ClientMessage) {
	field, ok := slots.ParseField(msg.Field)
	if !ok {
		s.sendError("unknown field " + msg.Field)
		return
	}
	s.controller.OnFormEdit(field, msg.Value)
}

func (s *session) onPlaybackComplete(_ context.Context, msg protocol.ClientMessage) {
	s.resolve(msg.RequestID, ack{Success: *msg.Success, Message: msg.Message})
}

func (s *session) onStateRequest(_ context.Context, _ protocol.ClientMessage) {
	s.sendState()
}

func (s *session) onNoop(_ context.Context, _ protocol.ClientMessage) {}
