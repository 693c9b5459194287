package fsm

import (
	"errors"
	"testing"
)

func TestMachineDefault(t *testing.T) {
	m := New()
	if got := m.Mode(); got != ModeIdle {
		t.Fatalf("mode=%s, want %s", got, ModeIdle)
	}
	if got := m.Step(); got != 0 {
		t.Fatalf("step=%d, want 0", got)
	}
}

func TestMachineTourLifecycle(t *testing.T) {
	m := New()
	if err := m.StartTour(); err != nil {
		t.Fatalf("StartTour: %v", err)
	}
	for want := 1; want < 3; want++ {
		step, done, err := m.AdvanceTour(3)
		if err != nil || done || step != want {
			t.Fatalf("AdvanceTour=%d,%v,%v, want %d,false,nil", step, done, err, want)
		}
	}
	if _, done, _ := m.AdvanceTour(3); !done {
		t.Fatal("AdvanceTour past last step: done=false, want true")
	}
	if got := m.Mode(); got != ModeIdle {
		t.Fatalf("mode=%s, want %s", got, ModeIdle)
	}
	if _, _, err := m.AdvanceTour(3); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("AdvanceTour in idle err=%v, want ErrInvalidTransition", err)
	}
}

func TestMachineListingLifecycle(t *testing.T) {
	m := New()
	if err := m.BeginQuestions(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("BeginQuestions from idle err=%v, want ErrInvalidTransition", err)
	}
	steps := []func() error{m.StartListing, m.BeginQuestions, m.OpenCamera}
	for _, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("transition: %v", err)
		}
	}
	if got := m.Mode(); got != ModeCameraCapture {
		t.Fatalf("mode=%s, want %s", got, ModeCameraCapture)
	}
	back, err := m.CloseCamera()
	if err != nil || back != ModeInteractiveQA {
		t.Fatalf("CloseCamera=%s,%v, want %s", back, err, ModeInteractiveQA)
	}
	if err := m.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got := m.Mode(); got != ModeListingFlow {
		t.Fatalf("mode=%s, want %s", got, ModeListingFlow)
	}
}

func TestMachineCameraFromIdleReturnsToListing(t *testing.T) {
	m := New()
	if err := m.OpenCamera(); err != nil {
		t.Fatalf("OpenCamera: %v", err)
	}
	if back, _ := m.CloseCamera(); back != ModeListingFlow {
		t.Fatalf("CloseCamera=%s, want %s", back, ModeListingFlow)
	}
	if _, err := m.CloseCamera(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second CloseCamera err=%v, want ErrInvalidTransition", err)
	}
}

func TestMachineReset(t *testing.T) {
	m := New()
	_ = m.StartTour()
	_, _, _ = m.AdvanceTour(7)
	m.Reset()
	if m.Mode() != ModeIdle || m.Step() != 0 {
		t.Fatalf("after Reset mode=%s step=%d, want idle 0", m.Mode(), m.Step())
	}
}
