package recognition

import (
	"errors"
	"strings"
)

// ErrorKind groups raw capture error codes by how they are handled.
type ErrorKind string

const (
	// ErrorNetwork is announced; the session keeps restarting.
	ErrorNetwork ErrorKind = "network"
	// ErrorMicrophone is announced and stops capture.
	ErrorMicrophone ErrorKind = "microphone"
	// ErrorBenign is absorbed silently.
	ErrorBenign ErrorKind = "benign"
	// ErrorOther is logged only.
	ErrorOther ErrorKind = "other"
)

// ErrUnsupported is returned by Enable when the client cannot capture speech.
var ErrUnsupported = errors.New("recognition: speech capture unsupported")

// ClassifyError maps a raw capture error code to its kind.
func ClassifyError(raw string) ErrorKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "network":
		return ErrorNetwork
	case "audio-capture", "not-allowed", "service-not-allowed":
		return ErrorMicrophone
	case "no-speech", "aborted":
		return ErrorBenign
	}
	return ErrorOther
}
