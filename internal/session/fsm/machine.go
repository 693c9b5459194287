package fsm

import (
	"errors"
	"fmt"
	"sync"
)

// Mode describes the current phase of a voice conversation.
type Mode string

const (
	ModeIdle          Mode = "idle"
	ModeWelcomeTour   Mode = "welcome_tour"
	ModeListingFlow   Mode = "listing_flow"
	ModeInteractiveQA Mode = "interactive_qa"
	ModeCameraCapture Mode = "camera_capture"
)

// ErrInvalidTransition is returned when a transition is not allowed from
// the current mode.
var ErrInvalidTransition = errors.New("fsm: invalid transition")

// Machine is a lightweight deterministic conversation mode machine. Exactly
// one mode is active; WelcomeTour also carries the tour step.
type Machine struct {
	mu           sync.RWMutex
	mode         Mode
	step         int
	cameraReturn Mode
}

// New creates a machine in idle mode.
func New() *Machine {
	return &Machine{mode: ModeIdle}
}

// Mode returns the current mode.
func (m *Machine) Mode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// Step returns the tour step; it is zero outside the tour.
func (m *Machine) Step() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.step
}

// CameraReturn returns the mode CloseCamera will resume.
func (m *Machine) CameraReturn() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cameraReturn
}

// StartTour enters the welcome tour at step 0.
func (m *Machine) StartTour() error {
	return m.transition(ModeWelcomeTour, ModeIdle, ModeWelcomeTour)
}

// AdvanceTour moves to the next of total steps. When the last step has been
// passed the machine returns to idle and done is true.
func (m *Machine) AdvanceTour(total int) (step int, done bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != ModeWelcomeTour {
		return 0, false, m.invalidLocked(ModeWelcomeTour)
	}
	m.step++
	if m.step >= total {
		m.mode = ModeIdle
		m.step = 0
		return 0, true, nil
	}
	return m.step, false, nil
}

// StartListing enters the listing flow. An active tour is abandoned.
func (m *Machine) StartListing() error {
	return m.transition(ModeListingFlow, ModeIdle, ModeWelcomeTour, ModeListingFlow)
}

// BeginQuestions enters interactive question answering.
func (m *Machine) BeginQuestions() error {
	return m.transition(ModeInteractiveQA, ModeListingFlow, ModeInteractiveQA)
}

// Complete leaves question answering for the listing flow.
func (m *Machine) Complete() error {
	return m.transition(ModeListingFlow, ModeInteractiveQA, ModeListingFlow)
}

// OpenCamera enters camera capture and remembers the mode to resume.
func (m *Machine) OpenCamera() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.mode {
	case ModeIdle, ModeListingFlow, ModeInteractiveQA:
	default:
		return m.invalidLocked(ModeCameraCapture)
	}
	m.cameraReturn = m.mode
	if m.cameraReturn == ModeIdle {
		m.cameraReturn = ModeListingFlow
	}
	m.mode = ModeCameraCapture
	m.step = 0
	return nil
}

// CloseCamera resumes the mode active before OpenCamera and returns it.
func (m *Machine) CloseCamera() (Mode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != ModeCameraCapture {
		return m.mode, m.invalidLocked(m.cameraReturn)
	}
	m.mode = m.cameraReturn
	if m.mode == "" {
		m.mode = ModeListingFlow
	}
	m.cameraReturn = ""
	return m.mode, nil
}

// Reset returns to idle from any mode.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.mode = ModeIdle
	m.step = 0
	m.cameraReturn = ""
	m.mu.Unlock()
}

func (m *Machine) transition(to Mode, from ...Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range from {
		if m.mode == f {
			if m.mode != to || to == ModeWelcomeTour {
				m.step = 0
			}
			m.mode = to
			return nil
		}
	}
	return m.invalidLocked(to)
}

func (m *Machine) invalidLocked(to Mode) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.mode, to)
}
