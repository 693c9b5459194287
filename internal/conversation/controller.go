// Package conversation runs the voice conversation for one user: it routes
// transcripts through the mode machine, the intent classifier and the slot
// extractor, and turns the result into announcements and UI effects.
package conversation

import (
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/veenjenga/Hands-and-Hope-sub001/internal/intent"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/session/fsm"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/slots"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/textnorm"
)

// Effects is the UI the controller drives. Calls happen synchronously while
// the controller holds its lock, so implementations must not call back into
// the controller.
type Effects interface {
	UpdateField(field slots.Field, value string)
	Navigate(route string)
	OpenCamera()
	CloseCamera()
	SubmitDraft(draft slots.Draft)
	ToggleSetting(name string, on bool)
	ModeChanged(mode fsm.Mode, step int)
}

// Speaker queues spoken feedback.
type Speaker interface {
	Announce(msg string)
	Interrupt(msg string)
}

// Turn is one handled transcript.
type Turn struct {
	At         time.Time
	Transcript string
	Action     intent.Kind
	ModeBefore fsm.Mode
	ModeAfter  fsm.Mode
}

// Recorder receives every handled turn.
type Recorder interface {
	RecordTurn(turn Turn)
}

// State is a snapshot of the conversation.
type State struct {
	Mode         fsm.Mode         `json:"mode"`
	TourStep     int              `json:"tour_step"`
	Draft        slots.Draft      `json:"draft"`
	Queue        []slots.Question `json:"queue,omitempty"`
	Cursor       int              `json:"cursor"`
	CameraReturn fsm.Mode         `json:"camera_return,omitempty"`
	LastPrompt   string           `json:"last_prompt,omitempty"`
}

// Config holds the conversation script.
type Config struct {
	TourSteps       []string
	AddProductRoute string
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder journals every handled transcript.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

var (
	tourNextPattern    = regexp.MustCompile(`^(?:next(?: step| please)?|continue|go on|keep going|okay|ok|yes|sure|got it)$`)
	closeCameraPattern = regexp.MustCompile(`^(?:close|exit|cancel)(?: the)? camera$`)

	// While a question is pending only whole-utterance commands count;
	// anything else is the answer.
	answerHelpPattern   = regexp.MustCompile(`^(?:help|help me|what can i say|what do i say)$`)
	answerCameraPattern = regexp.MustCompile(`^(?:(?:take|snap)(?: a| the)? (?:photo|picture|snap)|upload(?: an?| the)? (?:image|photo)|open(?: the)? camera)$`)
)

// Controller owns the conversation state of one session.
type Controller struct {
	classifier *intent.Classifier
	extractor  *slots.Extractor
	effects    Effects
	speaker    Speaker
	recorder   Recorder
	logger     *zap.Logger
	cfg        Config

	mu            sync.Mutex
	machine       *fsm.Machine
	draft         slots.Draft
	queue         []slots.Question
	cursor        int
	imageAsked    bool
	awaitingImage bool
	lastPrompt    string
}

// New creates an idle controller.
func New(classifier *intent.Classifier, extractor *slots.Extractor, effects Effects, speaker Speaker, cfg Config, opts ...Option) *Controller {
	if len(cfg.TourSteps) == 0 {
		cfg.TourSteps = DefaultTourSteps()
	}
	if cfg.AddProductRoute == "" {
		cfg.AddProductRoute = "/seller/add-product"
	}
	if classifier == nil {
		classifier = intent.New(intent.WithAddProductRoute(cfg.AddProductRoute))
	}
	if extractor == nil {
		extractor = slots.NewExtractor(nil)
	}
	c := &Controller{
		classifier: classifier,
		extractor:  extractor,
		effects:    effects,
		speaker:    speaker,
		logger:     zap.NewNop(),
		cfg:        cfg,
		machine:    fsm.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the conversation state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Mode:         c.machine.Mode(),
		TourStep:     c.machine.Step(),
		Draft:        c.draft,
		Queue:        append([]slots.Question(nil), c.queue...),
		Cursor:       c.cursor,
		CameraReturn: c.machine.CameraReturn(),
		LastPrompt:   c.lastPrompt,
	}
}

// StartTour begins the welcome tour. It is ignored while a listing is in
// progress.
func (c *Controller) StartTour() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTourLocked()
}

// StartListing enters the listing flow with an empty draft. It is a no-op
// while a listing is already active.
func (c *Controller) StartListing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listingActiveLocked() {
		return
	}
	c.beginListingLocked()
	c.say(msgListingStart)
}

// HandleTranscript processes one final transcript.
func (c *Controller) HandleTranscript(text string) {
	t := textnorm.Transcript(text)
	if t == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.machine.Mode()
	var kind intent.Kind
	switch before {
	case fsm.ModeInteractiveQA:
		kind = c.handleAnswerLocked(t)
	case fsm.ModeWelcomeTour:
		kind = c.handleTourLocked(t)
	case fsm.ModeCameraCapture:
		kind = c.handleCameraLocked(t)
	default:
		kind = c.handleCommandLocked(t)
	}

	after := c.machine.Mode()
	c.logger.Debug("transcript handled",
		zap.String("text", t),
		zap.String("action", string(kind)),
		zap.String("mode_before", string(before)),
		zap.String("mode_after", string(after)),
	)
	if c.recorder != nil {
		c.recorder.RecordTurn(Turn{At: time.Now(), Transcript: t, Action: kind, ModeBefore: before, ModeAfter: after})
	}
}

// OnCapture stores a captured photo and resumes the mode that opened the
// camera.
func (c *Controller) OnCapture(image string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.machine.Mode() != fsm.ModeCameraCapture {
		c.logger.Debug("capture ignored outside camera mode")
		return
	}
	back, err := c.machine.CloseCamera()
	if err != nil {
		c.logger.Warn("close camera failed", zap.Error(err))
		return
	}
	c.effects.CloseCamera()
	c.setFieldLocked(slots.FieldImage, image)
	c.emitModeLocked()

	if back == fsm.ModeInteractiveQA {
		c.awaitingImage = false
		c.imageAsked = true
		c.askNextLocked()
		return
	}
	c.say(msgPhotoAdded)
	if c.submittableLocked() {
		c.say(msgReady)
	}
}

// OnCaptureCancel closes the camera without a photo.
func (c *Controller) OnCaptureCancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCameraLocked()
}

// OnFormEdit records a value typed directly into the form. When it answers
// the pending question the conversation moves on.
func (c *Controller) OnFormEdit(field slots.Field, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.listingActiveLocked() {
		return
	}
	c.draft.Set(field, value)
	if c.machine.Mode() != fsm.ModeInteractiveQA || value == "" {
		return
	}
	if c.awaitingImage && field == slots.FieldImage {
		c.awaitingImage = false
		c.askNextLocked()
		return
	}
	if q, ok := c.currentQuestionLocked(); ok && q.Field == field {
		c.cursor++
		c.askNextLocked()
	}
}

func (c *Controller) handleCommandLocked(t string) intent.Kind {
	action := c.classifier.Classify(t)
	switch action.Kind {
	case intent.KindCancel:
		c.cancelLocked()
	case intent.KindRepeat:
		c.repeatLocked()
	case intent.KindHelp:
		c.helpLocked()
	case intent.KindStartTour:
		c.startTourLocked()
	case intent.KindNavigate:
		c.navigateLocked(action)
	case intent.KindSetField:
		c.setFromCommandLocked(action)
	case intent.KindSave:
		c.saveLocked()
	case intent.KindOpenCamera:
		c.openCameraLocked()
	case intent.KindToggleSetting:
		on := action.Value == "on"
		c.effects.ToggleSetting(action.Field, on)
		c.say(toggleMessage(action.Field, on))
	default:
		if !c.reinterpretLocked(t) {
			c.say(msgNotUnderstood)
		}
	}
	return action.Kind
}

func (c *Controller) handleTourLocked(t string) intent.Kind {
	if tourNextPattern.MatchString(t) {
		c.advanceTourLocked()
		return intent.KindStartTour
	}
	action := c.classifier.Classify(t)
	switch action.Kind {
	case intent.KindCancel:
		c.machine.Reset()
		c.emitModeLocked()
		c.say(msgTourExit)
	case intent.KindRepeat:
		c.repeatLocked()
	case intent.KindHelp:
		c.helpLocked()
	case intent.KindStartTour:
		c.advanceTourLocked()
	default:
		c.say(msgTourHint)
	}
	return action.Kind
}

func (c *Controller) handleAnswerLocked(t string) intent.Kind {
	command := textnorm.TrimPunct(t)
	switch {
	case answerHelpPattern.MatchString(command):
		c.helpLocked()
		return intent.KindHelp
	case answerCameraPattern.MatchString(command):
		c.openCameraLocked()
		return intent.KindOpenCamera
	}
	switch action := c.classifier.Classify(t); action.Kind {
	case intent.KindCancel:
		c.cancelLocked()
		return action.Kind
	case intent.KindRepeat:
		c.repeatLocked()
		return action.Kind
	}

	if c.awaitingImage {
		if slots.IsDecline(t) {
			c.awaitingImage = false
			c.askNextLocked()
		} else {
			c.say(msgNotCaught + " " + c.extractor.ImageQuestion().Prompt)
		}
		return intent.KindUnknown
	}

	q, ok := c.currentQuestionLocked()
	if !ok {
		c.askNextLocked()
		return intent.KindUnknown
	}
	answer := c.extractor.ParseAnswer(q.Field, t)
	if !answer.OK {
		c.say(msgNotCaught + " " + q.Prompt)
		return intent.KindUnknown
	}
	if !answer.Skipped {
		c.setFieldLocked(q.Field, answer.Value)
	}
	c.cursor++
	c.askNextLocked()
	return intent.KindSetField
}

func (c *Controller) handleCameraLocked(t string) intent.Kind {
	if closeCameraPattern.MatchString(t) || slots.IsDecline(t) {
		c.closeCameraLocked()
		return intent.KindCancel
	}
	action := c.classifier.Classify(t)
	switch action.Kind {
	case intent.KindCancel:
		c.cancelLocked()
	case intent.KindRepeat:
		c.repeatLocked()
	case intent.KindHelp:
		c.helpLocked()
	default:
		c.say(msgCameraHint)
	}
	return action.Kind
}

func (c *Controller) startTourLocked() {
	if err := c.machine.StartTour(); err != nil {
		c.logger.Debug("tour not started", zap.Error(err))
		c.say(msgTourBusy)
		return
	}
	c.emitModeLocked()
	c.sayTourStepLocked(0)
}

func (c *Controller) advanceTourLocked() {
	step, done, err := c.machine.AdvanceTour(len(c.cfg.TourSteps))
	if err != nil {
		c.logger.Debug("tour advance rejected", zap.Error(err))
		return
	}
	c.emitModeLocked()
	if done {
		c.say(msgTourExit)
		return
	}
	c.sayTourStepLocked(step)
}

// sayTourStepLocked announces a step; the final step ends the tour.
func (c *Controller) sayTourStepLocked(step int) {
	c.say(c.cfg.TourSteps[step])
	if step == len(c.cfg.TourSteps)-1 {
		c.machine.Reset()
		c.emitModeLocked()
	}
}

func (c *Controller) navigateLocked(action intent.Action) {
	if action.Value == c.cfg.AddProductRoute {
		if !c.listingActiveLocked() {
			c.beginListingLocked()
		}
		c.effects.Navigate(action.Value)
		d := c.extractor.ExtractAnchored(action.Original)
		if d.Empty() {
			c.say(msgListingStart)
			return
		}
		c.absorbLocked(d)
		return
	}
	if c.listingActiveLocked() {
		c.resetListingLocked()
		c.machine.Reset()
		c.emitModeLocked()
	}
	c.effects.Navigate(action.Value)
	c.say("Opening " + spokenRoute(action.Value) + ".")
}

func (c *Controller) setFromCommandLocked(action intent.Action) {
	field, ok := slots.ParseField(action.Field)
	if !ok {
		c.say(msgNotUnderstood)
		return
	}
	value := action.Value
	switch field {
	case slots.FieldPrice:
		price, ok := slots.FormatPrice(value)
		if !ok {
			c.say(msgNotCaught + " " + msgPriceHint)
			return
		}
		value = price
	case slots.FieldCategory:
		if canonical, ok := c.extractor.MatchCategory(value); ok {
			value = canonical
		}
	}
	if !c.listingActiveLocked() {
		c.beginListingLocked()
		c.effects.Navigate(c.cfg.AddProductRoute)
	}
	c.setFieldLocked(field, value)
	c.say(fieldSetMessage(field, value))
}

// reinterpretLocked treats an unclassified utterance as a product
// description. It reports whether any field was found.
func (c *Controller) reinterpretLocked(t string) bool {
	var d slots.Draft
	if c.machine.Mode() == fsm.ModeListingFlow && c.draft.Name == "" {
		d = c.extractor.Extract(t)
	} else {
		d = c.extractor.ExtractAnchored(t)
	}
	if d.Empty() {
		return false
	}
	if !c.listingActiveLocked() {
		c.beginListingLocked()
		c.effects.Navigate(c.cfg.AddProductRoute)
	}
	c.absorbLocked(d)
	return true
}

// absorbLocked merges extracted fields and asks for whatever is missing.
func (c *Controller) absorbLocked(d slots.Draft) {
	for _, f := range d.Filled() {
		c.setFieldLocked(f, d.Get(f))
	}
	if c.draft.Complete() {
		c.say(msgReady)
		return
	}
	c.startQuestionsLocked()
}

func (c *Controller) saveLocked() {
	if c.draft.Empty() {
		c.say(msgNothingToSave)
		return
	}
	if !c.submittableLocked() {
		c.startQuestionsLocked()
		return
	}
	c.effects.SubmitDraft(c.draft)
	c.resetListingLocked()
	c.machine.Reset()
	c.emitModeLocked()
	c.say(msgSaved)
}

func (c *Controller) cancelLocked() {
	if c.machine.Mode() == fsm.ModeCameraCapture {
		c.effects.CloseCamera()
	}
	c.resetListingLocked()
	c.machine.Reset()
	c.emitModeLocked()
	c.say(msgCancelled)
}

func (c *Controller) repeatLocked() {
	if c.lastPrompt == "" {
		c.speaker.Interrupt(msgNothingToRepeat)
		return
	}
	c.speaker.Interrupt(c.lastPrompt)
}

func (c *Controller) helpLocked() {
	c.speaker.Interrupt(helpFor(c.machine.Mode()))
}

func (c *Controller) openCameraLocked() {
	if err := c.machine.OpenCamera(); err != nil {
		c.logger.Debug("camera not opened", zap.Error(err))
		c.say(msgNotUnderstood)
		return
	}
	c.effects.OpenCamera()
	c.emitModeLocked()
	c.say(msgCameraOpen)
}

func (c *Controller) closeCameraLocked() {
	if c.machine.Mode() != fsm.ModeCameraCapture {
		return
	}
	back, err := c.machine.CloseCamera()
	if err != nil {
		c.logger.Warn("close camera failed", zap.Error(err))
		return
	}
	c.effects.CloseCamera()
	c.emitModeLocked()
	if back == fsm.ModeInteractiveQA {
		c.awaitingImage = false
		c.askNextLocked()
		return
	}
	c.say(msgCameraClosed)
}

func (c *Controller) startQuestionsLocked() {
	c.queue = c.extractor.QuestionsFor(c.draft)
	c.cursor = 0
	c.awaitingImage = false
	if err := c.machine.BeginQuestions(); err != nil {
		c.logger.Warn("begin questions failed", zap.Error(err))
		return
	}
	c.emitModeLocked()
	c.askNextLocked()
}

// askNextLocked announces the next unanswered question. Fields filled in
// the meantime are skipped; after the last one the photo is offered once.
func (c *Controller) askNextLocked() {
	for c.cursor < len(c.queue) && c.draft.Get(c.queue[c.cursor].Field) != "" {
		c.cursor++
	}
	if q, ok := c.currentQuestionLocked(); ok {
		c.say(q.Prompt)
		return
	}
	if c.draft.Image == "" && !c.imageAsked {
		c.imageAsked = true
		c.awaitingImage = true
		c.say(c.extractor.ImageQuestion().Prompt)
		return
	}
	c.finishQuestionsLocked()
}

func (c *Controller) finishQuestionsLocked() {
	c.queue = nil
	c.cursor = 0
	c.awaitingImage = false
	if err := c.machine.Complete(); err != nil {
		c.logger.Warn("complete questions failed", zap.Error(err))
	}
	c.emitModeLocked()
	if c.submittableLocked() {
		c.say(msgReady)
		return
	}
	c.say("The listing still needs a " + string(c.draft.Missing()[0]) + ". Say save when you're ready and I'll ask again.")
}

func (c *Controller) currentQuestionLocked() (slots.Question, bool) {
	if c.cursor < 0 || c.cursor >= len(c.queue) {
		return slots.Question{}, false
	}
	return c.queue[c.cursor], true
}

// submittableLocked reports whether the draft can be saved. A skipped
// description does not block saving.
func (c *Controller) submittableLocked() bool {
	for _, f := range c.draft.Missing() {
		if f != slots.FieldDescription {
			return false
		}
	}
	return true
}

func (c *Controller) listingActiveLocked() bool {
	switch c.machine.Mode() {
	case fsm.ModeListingFlow, fsm.ModeInteractiveQA, fsm.ModeCameraCapture:
		return true
	}
	return false
}

func (c *Controller) beginListingLocked() {
	if err := c.machine.StartListing(); err != nil {
		c.logger.Warn("start listing failed", zap.Error(err))
		return
	}
	c.resetListingLocked()
	c.emitModeLocked()
}

func (c *Controller) resetListingLocked() {
	c.draft = slots.Draft{}
	c.queue = nil
	c.cursor = 0
	c.imageAsked = false
	c.awaitingImage = false
}

func (c *Controller) setFieldLocked(f slots.Field, value string) {
	if !c.draft.Set(f, value) {
		return
	}
	c.effects.UpdateField(f, value)
}

func (c *Controller) emitModeLocked() {
	c.effects.ModeChanged(c.machine.Mode(), c.machine.Step())
}

func (c *Controller) say(msg string) {
	if msg == "" {
		return
	}
	c.lastPrompt = msg
	c.speaker.Announce(msg)
}
