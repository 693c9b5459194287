// Package protocol defines the JSON messages exchanged with the browser over
// the voice WebSocket.
package protocol

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/veenjenga/Hands-and-Hope-sub001/internal/slots"
)

// Client to server message types.
const (
	TypeHello            = "hello"
	TypeVoiceToggle      = "voice-toggle"
	TypeTranscript       = "transcript"
	TypeCaptureError     = "capture-error"
	TypeCaptureEnd       = "capture-end"
	TypeStartTour        = "start-tour"
	TypeStartListing     = "start-listing"
	TypeCameraCapture    = "camera-capture"
	TypeCameraCancel     = "camera-cancel"
	TypeFormFieldChanged = "form-field-changed"
	TypePlaybackComplete = "playback-complete"
	TypeStateRequest     = "state-request"
	TypeHeartbeat        = "heartbeat"
)

// Server to client message types.
const (
	TypeCaptureStart = "capture-start"
	TypeCaptureStop  = "capture-stop"
	TypeNotice       = "notice"
	TypeNavigate     = "navigate"
	TypeFieldUpdate  = "field-update"
	TypeCameraOpen   = "camera-open"
	TypeCameraClose  = "camera-close"
	TypeFormSubmit   = "form-submit"
	TypeSetting      = "setting-toggle"
	TypeMode         = "mode"
	TypeState        = "state"
	TypeAudioStart   = "audio-start"
	TypeAudioChunk   = "audio-chunk"
	TypeAudioEnd     = "audio-end"
	TypeAudioStop    = "audio-stop"
	TypeSpeakLocal   = "speak-local"
	TypeSpeakCancel  = "speak-cancel"
	TypeLiveRegion   = "live-region"
	TypeError        = "error"
)

// Capabilities describes what the browser can do.
type Capabilities struct {
	SpeechRecognition bool `json:"speech_recognition"`
	SpeechSynthesis   bool `json:"speech_synthesis"`
	AudioPlayback     bool `json:"audio_playback"`
}

// ClientMessage is any message sent by the browser. Which fields are
// required depends on Type.
type ClientMessage struct {
	Type         string        `json:"type" validate:"required"`
	Text         string        `json:"text,omitempty" validate:"required,max=2000"`
	Enabled      *bool         `json:"enabled,omitempty" validate:"required"`
	Error        string        `json:"error,omitempty" validate:"required,max=200"`
	Image        string        `json:"image,omitempty" validate:"required"`
	MimeType     string        `json:"mime_type,omitempty"`
	Field        string        `json:"field,omitempty" validate:"required,oneof=name title price category description image photo"`
	Value        string        `json:"value,omitempty"`
	RequestID    string        `json:"request_id,omitempty" validate:"required"`
	Success      *bool         `json:"success,omitempty" validate:"required"`
	Message      string        `json:"message,omitempty"`
	Capabilities *Capabilities `json:"capabilities,omitempty" validate:"required"`
}

// requiredFields lists the fields checked for each message type; types
// not listed carry no payload.
var requiredFields = map[string][]string{
	TypeHello:            {"Capabilities"},
	TypeVoiceToggle:      {"Enabled"},
	TypeTranscript:       {"Text"},
	TypeCaptureError:     {"Error"},
	TypeCameraCapture:    {"Image"},
	TypeFormFieldChanged: {"Field"},
	TypePlaybackComplete: {"RequestID", "Success"},
}

var knownTypes = map[string]struct{}{
	TypeCaptureEnd:   {},
	TypeStartTour:    {},
	TypeStartListing: {},
	TypeCameraCancel: {},
	TypeStateRequest: {},
	TypeHeartbeat:    {},
}

// Validator checks client messages against their type.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate returns an error when msg has an unknown type or lacks a field
// its type requires.
func (v *Validator) Validate(msg ClientMessage) error {
	fields, ok := requiredFields[msg.Type]
	if !ok {
		if _, known := knownTypes[msg.Type]; !known {
			return fmt.Errorf("unknown message type %q", msg.Type)
		}
		return nil
	}
	if err := v.v.StructPartial(msg, fields...); err != nil {
		return fmt.Errorf("invalid %s message: %w", msg.Type, err)
	}
	return nil
}

// ServerMessage is any message sent to the browser.
type ServerMessage struct {
	Type            string       `json:"type"`
	Text            *string      `json:"text,omitempty"`
	Message         string       `json:"message,omitempty"`
	Route           string       `json:"route,omitempty"`
	Field           string       `json:"field,omitempty"`
	Value           *string      `json:"value,omitempty"`
	Setting         string       `json:"setting,omitempty"`
	On              *bool        `json:"on,omitempty"`
	Mode            string       `json:"mode,omitempty"`
	Step            *int         `json:"step,omitempty"`
	Draft           *slots.Draft `json:"draft,omitempty"`
	RequestID       string       `json:"request_id,omitempty"`
	Seq             *int         `json:"seq,omitempty"`
	Audio           string       `json:"audio,omitempty"`
	Format          string       `json:"format,omitempty"`
	SampleRate      int          `json:"sample_rate,omitempty"`
	FrameDurationMs int          `json:"frame_duration_ms,omitempty"`
}

// Ptr returns a pointer to v for optional message fields.
func Ptr[T any](v T) *T {
	return &v
}
