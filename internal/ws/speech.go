package ws

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/veenjenga/Hands-and-Hope-sub001/internal/announce"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/protocol"
)

const (
	audioFormat  = "opus"
	wordDuration = 400 * time.Millisecond
)

var (
	errAckTimeout    = errors.New("client acknowledgement timeout")
	errSessionClosed = errors.New("session closed")
)

type ack struct {
	Success bool
	Message string
}

// Synthesize implements announce.Synthesizer. Remote audio is only produced
// for clients that can play it.
func (s *session) Synthesize(ctx context.Context, text string) (announce.Clip, error) {
	if s.handler.synth == nil || !s.capabilities().AudioPlayback {
		return announce.Clip{}, announce.ErrUnavailable
	}
	return s.handler.synth.Synthesize(ctx, text)
}

// Play implements announce.AudioPlayer: the clip is streamed as Opus frames
// and Play returns once the client reports playback complete.
func (s *session) Play(ctx context.Context, clip announce.Clip) error {
	if !s.capabilities().AudioPlayback {
		return announce.ErrUnavailable
	}
	p := s.handler.packetizer
	frames, err := p.Packetize(clip.PCM, clip.SampleRate)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return errors.New("no audio frames")
	}

	id := newRequestID()
	wait := s.expect(id)
	defer s.forget(id)

	s.sendJSON(protocol.ServerMessage{
		Type:            protocol.TypeAudioStart,
		RequestID:       id,
		Format:          audioFormat,
		SampleRate:      p.OutputRate,
		FrameDurationMs: p.FrameMs,
	})
	for i, frame := range frames {
		if ctx.Err() != nil {
			s.sendJSON(protocol.ServerMessage{Type: protocol.TypeAudioStop, RequestID: id})
			return ctx.Err()
		}
		s.sendJSON(protocol.ServerMessage{
			Type:      protocol.TypeAudioChunk,
			RequestID: id,
			Seq:       protocol.Ptr(i),
			Audio:     base64.StdEncoding.EncodeToString(frame),
		})
	}
	s.sendJSON(protocol.ServerMessage{Type: protocol.TypeAudioEnd, RequestID: id})

	timeout := time.Duration(len(frames))*p.FrameDuration() + s.handler.config.Voice.PlaybackTimeout
	res, err := s.await(ctx, wait, timeout)
	if err != nil {
		if ctx.Err() != nil {
			s.sendJSON(protocol.ServerMessage{Type: protocol.TypeAudioStop, RequestID: id})
		}
		return err
	}
	if !res.Success {
		return fmt.Errorf("client playback failed: %s", res.Message)
	}
	return nil
}

// LocalSpeechAvailable implements announce.LocalSpeaker.
func (s *session) LocalSpeechAvailable() bool {
	return s.capabilities().SpeechSynthesis
}

// SpeakLocal implements announce.LocalSpeaker.
func (s *session) SpeakLocal(ctx context.Context, text string) error {
	id := newRequestID()
	wait := s.expect(id)
	defer s.forget(id)

	s.sendJSON(protocol.ServerMessage{Type: protocol.TypeSpeakLocal, RequestID: id, Text: protocol.Ptr(text)})

	timeout := time.Duration(len(strings.Fields(text)))*wordDuration + s.handler.config.Voice.PlaybackTimeout
	res, err := s.await(ctx, wait, timeout)
	if err != nil {
		if ctx.Err() != nil {
			s.sendJSON(protocol.ServerMessage{Type: protocol.TypeSpeakCancel, RequestID: id})
		}
		return err
	}
	if !res.Success {
		return fmt.Errorf("client speech failed: %s", res.Message)
	}
	return nil
}

// ShowLiveRegion implements announce.TextSurface.
func (s *session) ShowLiveRegion(text string) {
	s.sendJSON(protocol.ServerMessage{Type: protocol.TypeLiveRegion, Text: protocol.Ptr(text)})
}

// ClearLiveRegion implements announce.TextSurface.
func (s *session) ClearLiveRegion() {
	s.sendJSON(protocol.ServerMessage{Type: protocol.TypeLiveRegion, Text: protocol.Ptr("")})
}

func (s *session) expect(id string) <-chan ack {
	ch := make(chan ack, 1)
	s.waitMu.Lock()
	s.waiters[id] = ch
	s.waitMu.Unlock()
	return ch
}

func (s *session) forget(id string) {
	s.waitMu.Lock()
	delete(s.waiters, id)
	s.waitMu.Unlock()
}

// resolve delivers an acknowledgement; unknown or late ids are dropped.
func (s *session) resolve(id string, a ack) {
	s.waitMu.Lock()
	ch, ok := s.waiters[id]
	delete(s.waiters, id)
	s.waitMu.Unlock()
	if !ok {
		s.logger.Debug("unexpected acknowledgement", zap.String("request_id", id))
		return
	}
	ch <- a
}

func (s *session) failWaiters() {
	s.waitMu.Lock()
	defer s.waitMu.Unlock()
	for id, ch := range s.waiters {
		ch <- ack{Message: errSessionClosed.Error()}
		delete(s.waiters, id)
	}
}

func (s *session) await(ctx context.Context, ch <-chan ack, timeout time.Duration) (ack, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case a := <-ch:
		return a, nil
	case <-timer.C:
		return ack{}, errAckTimeout
	case <-ctx.Done():
		return ack{}, ctx.Err()
	}
}

func newRequestID() string {
	return ulid.Make().String()
}
