package conversation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veenjenga/Hands-and-Hope-sub001/internal/session/fsm"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/slots"
)

type effectsLog struct {
	fields    map[slots.Field]string
	routes    []string
	cameraOn  int
	cameraOff int
	submitted []slots.Draft
	toggles   map[string]bool
	modes     []fsm.Mode
}

func newEffectsLog() *effectsLog {
	return &effectsLog{fields: map[slots.Field]string{}, toggles: map[string]bool{}}
}

func (e *effectsLog) UpdateField(f slots.Field, v string) { e.fields[f] = v }
func (e *effectsLog) Navigate(route string)               { e.routes = append(e.routes, route) }
func (e *effectsLog) OpenCamera()                         { e.cameraOn++ }
func (e *effectsLog) CloseCamera()                        { e.cameraOff++ }
func (e *effectsLog) SubmitDraft(d slots.Draft)           { e.submitted = append(e.submitted, d) }
func (e *effectsLog) ToggleSetting(name string, on bool)  { e.toggles[name] = on }
func (e *effectsLog) ModeChanged(m fsm.Mode, _ int)       { e.modes = append(e.modes, m) }

type speechLog struct {
	said        []string
	interrupted []string
}

func (s *speechLog) Announce(msg string)  { s.said = append(s.said, msg) }
func (s *speechLog) Interrupt(msg string) { s.interrupted = append(s.interrupted, msg) }

func (s *speechLog) last() string {
	if len(s.said) == 0 {
		return ""
	}
	return s.said[len(s.said)-1]
}

func newTestController() (*Controller, *effectsLog, *speechLog) {
	fx := newEffectsLog()
	sp := &speechLog{}
	return New(nil, nil, fx, sp, Config{}), fx, sp
}

func TestListingConversation(t *testing.T) {
	c, fx, sp := newTestController()
	c.StartListing()
	require.Equal(t, fsm.ModeListingFlow, c.Snapshot().Mode)

	c.HandleTranscript("I want to sell a blue wireless headphone")
	st := c.Snapshot()
	require.Equal(t, fsm.ModeInteractiveQA, st.Mode)
	require.Equal(t, "blue wireless headphone", st.Draft.Name)
	require.Len(t, st.Queue, 3)
	assert.Equal(t, slots.FieldPrice, st.Queue[0].Field)
	assert.Equal(t, "blue wireless headphone", fx.fields[slots.FieldName])
	assert.Contains(t, sp.last(), "price")

	c.HandleTranscript("it costs 25 dollars")
	assert.Equal(t, "25", c.Snapshot().Draft.Price)
	assert.Equal(t, "25", fx.fields[slots.FieldPrice])
	assert.Contains(t, sp.last(), "Electronics")

	c.HandleTranscript("electronics")
	assert.Equal(t, "Electronics", c.Snapshot().Draft.Category)
	assert.Contains(t, sp.last(), "describe")

	c.HandleTranscript("skip")
	st = c.Snapshot()
	assert.Empty(t, st.Draft.Description)
	assert.Equal(t, fsm.ModeInteractiveQA, st.Mode)
	assert.Contains(t, sp.last(), "photo")

	c.HandleTranscript("take a photo")
	require.Equal(t, fsm.ModeCameraCapture, c.Snapshot().Mode)
	assert.Equal(t, 1, fx.cameraOn)

	c.OnCapture("data:image/jpeg;base64,AAAA")
	st = c.Snapshot()
	require.Equal(t, fsm.ModeListingFlow, st.Mode)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", st.Draft.Image)
	assert.Equal(t, 1, fx.cameraOff)
	assert.Equal(t, msgReady, sp.last())

	c.HandleTranscript("save")
	require.Len(t, fx.submitted, 1)
	assert.Equal(t, "blue wireless headphone", fx.submitted[0].Name)
	st = c.Snapshot()
	assert.Equal(t, fsm.ModeIdle, st.Mode)
	assert.True(t, st.Draft.Empty())
}

func TestTourStopsOnRequest(t *testing.T) {
	c, _, sp := newTestController()
	steps := DefaultTourSteps()

	c.StartTour()
	c.HandleTranscript("next")
	c.HandleTranscript("next")
	st := c.Snapshot()
	require.Equal(t, fsm.ModeWelcomeTour, st.Mode)
	require.Equal(t, 2, st.TourStep)
	require.Equal(t, steps[2], sp.last())

	c.HandleTranscript("stop")
	require.Equal(t, fsm.ModeIdle, c.Snapshot().Mode)
	assert.Equal(t, msgTourExit, sp.last())

	c.HandleTranscript("next")
	assert.Equal(t, msgNotUnderstood, sp.last())
	for _, msg := range sp.said[4:] {
		for _, step := range steps {
			assert.NotEqual(t, step, msg)
		}
	}
}

func TestTourEndsAfterFinalStep(t *testing.T) {
	c, _, sp := newTestController()
	steps := DefaultTourSteps()

	c.StartTour()
	for i := 1; i < len(steps); i++ {
		c.HandleTranscript("next")
	}
	assert.Equal(t, steps[len(steps)-1], sp.last())
	assert.Equal(t, fsm.ModeIdle, c.Snapshot().Mode)
}

func TestTourNotStartedDuringListing(t *testing.T) {
	c, _, sp := newTestController()
	c.StartListing()
	c.StartTour()
	assert.Equal(t, fsm.ModeListingFlow, c.Snapshot().Mode)
	assert.Equal(t, msgTourBusy, sp.last())
}

func TestCancelClearsDraftFromAnyMode(t *testing.T) {
	c, fx, sp := newTestController()
	c.HandleTranscript("i'm selling a red bicycle")
	require.Equal(t, fsm.ModeInteractiveQA, c.Snapshot().Mode)
	assert.Contains(t, fx.routes, "/seller/add-product")

	c.HandleTranscript("open the camera")
	require.Equal(t, fsm.ModeCameraCapture, c.Snapshot().Mode)

	c.HandleTranscript("cancel")
	st := c.Snapshot()
	assert.Equal(t, fsm.ModeIdle, st.Mode)
	assert.True(t, st.Draft.Empty())
	assert.Equal(t, 1, fx.cameraOff)
	assert.Equal(t, msgCancelled, sp.last())
}

func TestInvalidAnswerRepeatsQuestion(t *testing.T) {
	c, _, sp := newTestController()
	c.HandleTranscript("i'm selling a red bicycle")
	c.HandleTranscript("i have no idea")
	st := c.Snapshot()
	assert.Equal(t, 0, st.Cursor)
	assert.True(t, strings.HasPrefix(sp.last(), msgNotCaught))
	assert.Contains(t, sp.last(), "price")

	c.HandleTranscript("skip")
	assert.Equal(t, 0, c.Snapshot().Cursor)
}

func TestRepeatAndHelpInterrupt(t *testing.T) {
	c, _, sp := newTestController()
	c.HandleTranscript("repeat")
	require.Equal(t, []string{msgNothingToRepeat}, sp.interrupted)

	c.HandleTranscript("go to products")
	c.HandleTranscript("say that again")
	assert.Equal(t, "Opening products.", sp.interrupted[1])

	c.HandleTranscript("help")
	assert.Equal(t, helpGeneral, sp.interrupted[2])
}

func TestCommandsOutsideListing(t *testing.T) {
	c, fx, sp := newTestController()

	c.HandleTranscript("turn off dark mode")
	assert.Equal(t, map[string]bool{"dark mode": false}, fx.toggles)
	assert.Equal(t, "Dark mode turned off.", sp.last())

	c.HandleTranscript("save")
	assert.Equal(t, msgNothingToSave, sp.last())
	assert.Empty(t, fx.submitted)

	c.HandleTranscript("set the price to $20")
	st := c.Snapshot()
	assert.Equal(t, fsm.ModeListingFlow, st.Mode)
	assert.Equal(t, "20", st.Draft.Price)
	assert.Equal(t, "Price set to $20.", sp.last())

	c.HandleTranscript("save")
	st = c.Snapshot()
	assert.Equal(t, fsm.ModeInteractiveQA, st.Mode)
	assert.Equal(t, slots.FieldName, st.Queue[0].Field)
}

func TestNavigateAwayEndsListing(t *testing.T) {
	c, fx, _ := newTestController()
	c.HandleTranscript("i'm selling a red bicycle")
	c.HandleTranscript("cancel")
	c.HandleTranscript("set the name to lamp")
	require.Equal(t, fsm.ModeListingFlow, c.Snapshot().Mode)

	c.HandleTranscript("go to my orders")
	st := c.Snapshot()
	assert.Equal(t, fsm.ModeIdle, st.Mode)
	assert.True(t, st.Draft.Empty())
	assert.Equal(t, "/orders", fx.routes[len(fx.routes)-1])
}

func TestFormEditAnswersPendingQuestion(t *testing.T) {
	c, _, sp := newTestController()
	c.HandleTranscript("i'm selling a red bicycle")
	require.Equal(t, slots.FieldPrice, c.Snapshot().Queue[0].Field)

	c.OnFormEdit(slots.FieldPrice, "40")
	st := c.Snapshot()
	assert.Equal(t, 1, st.Cursor)
	assert.Equal(t, "40", st.Draft.Price)
	assert.Contains(t, sp.last(), "category")
}

func TestCaptureCancelDeclinesPhoto(t *testing.T) {
	c, fx, sp := newTestController()
	c.HandleTranscript("i'm selling a red bicycle for 40 dollars in the sports category, description is barely used")
	require.Equal(t, fsm.ModeListingFlow, c.Snapshot().Mode)
	assert.Equal(t, msgReady, sp.last())

	c.HandleTranscript("take a picture")
	require.Equal(t, fsm.ModeCameraCapture, c.Snapshot().Mode)
	c.OnCaptureCancel()
	assert.Equal(t, fsm.ModeListingFlow, c.Snapshot().Mode)
	assert.Equal(t, msgCameraClosed, sp.last())
	assert.Equal(t, 1, fx.cameraOff)
}

func TestAnswersContainingCommandWords(t *testing.T) {
	c, fx, sp := newTestController()
	c.HandleTranscript("i'm selling a red bicycle for 40 dollars in the sports category")
	st := c.Snapshot()
	require.Equal(t, fsm.ModeInteractiveQA, st.Mode)
	require.Equal(t, slots.FieldDescription, st.Queue[st.Cursor].Field)

	c.HandleTranscript("it will help you get to work faster")
	st = c.Snapshot()
	assert.Equal(t, "it will help you get to work faster", st.Draft.Description)
	assert.Empty(t, sp.interrupted)
	assert.Contains(t, sp.last(), "photo")

	c.HandleTranscript("Help.")
	assert.Equal(t, []string{helpQA}, sp.interrupted)

	c2, fx2, _ := newTestController()
	c2.HandleTranscript("set the price to $20")
	c2.HandleTranscript("save")
	require.Equal(t, slots.FieldName, c2.Snapshot().Queue[0].Field)

	c2.HandleTranscript("instant camera to take a picture anywhere")
	st = c2.Snapshot()
	assert.Equal(t, fsm.ModeInteractiveQA, st.Mode)
	assert.Equal(t, "instant camera to take a picture anywhere", st.Draft.Name)
	assert.Zero(t, fx2.cameraOn)
	assert.Zero(t, fx.cameraOn)
}

func TestOversizedPriceIsAskedAgain(t *testing.T) {
	c, fx, sp := newTestController()
	c.HandleTranscript("set the price to $99999999999999999999")
	assert.Empty(t, c.Snapshot().Draft.Price)
	assert.NotContains(t, fx.fields, slots.FieldPrice)
	assert.True(t, strings.HasPrefix(sp.last(), msgNotCaught))

	c.HandleTranscript("i'm selling a red bicycle")
	require.Equal(t, slots.FieldPrice, c.Snapshot().Queue[0].Field)
	c.HandleTranscript("it costs 99999999999999999999 dollars")
	st := c.Snapshot()
	assert.Empty(t, st.Draft.Price)
	assert.Equal(t, 0, st.Cursor)
	assert.Contains(t, sp.last(), "price")
}

func TestAnnouncementsCapitalizeFirstRune(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{toggleMessage("日本語 mode", true), "日本語 mode turned on."},
		{toggleMessage("ünicode captions", false), "Ünicode captions turned off."},
		{toggleMessage("dark mode", false), "Dark mode turned off."},
		{fieldSetMessage(slots.FieldCategory, "Toys"), "Category set to Toys."},
		{toggleMessage("", true), " turned on."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.got)
	}
}
