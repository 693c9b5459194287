package conversation

import (
	"fmt"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/veenjenga/Hands-and-Hope-sub001/internal/session/fsm"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/slots"
)

const (
	msgTourExit        = "Tour ended. Say help any time to hear what you can do."
	msgTourHint        = "Say next to continue the tour, or stop to exit."
	msgListingStart    = "Let's list a new product. Tell me about it, for example: I'm selling a blue lamp for 20 dollars."
	msgReady           = "Your product is ready. Say save to publish it, or change any field first."
	msgSaved           = "Saving your product now."
	msgNothingToSave   = "There's no product to save yet. Say I want to sell, followed by the product, to start a listing."
	msgCancelled       = "Cancelled. The listing has been cleared."
	msgNotUnderstood   = "Sorry, I didn't understand that. Say help to hear what you can say."
	msgNotCaught       = "Sorry, I didn't catch that."
	msgNothingToRepeat = "There is nothing to repeat yet."
	msgCameraOpen      = "Opening the camera. Take the photo when you're ready, or say skip."
	msgCameraHint      = "The camera is open. Take the photo, or say skip to continue without one."
	msgCameraClosed    = "Camera closed."
	msgPhotoAdded      = "Photo added."
	msgTourBusy        = "Finish or cancel the current listing before starting the tour."
	msgPriceHint       = "Say the price, for example set the price to 20 dollars."
)

const (
	helpGeneral = "You can say: go to products, I want to sell followed by the product, set the price to 20 dollars, take a photo, save, repeat, or cancel."
	helpTour    = "You're in the welcome tour. Say next to continue, repeat to hear this step again, or stop to exit."
	helpQA      = "Answer the question out loud. Say repeat to hear it again, take a photo to add a picture, or cancel to stop this listing."
	helpCamera  = "The camera is open. Take the photo, say skip to continue without one, or cancel to stop this listing."
)

// DefaultTourSteps is the welcome tour script.
func DefaultTourSteps() []string {
	return []string{
		"Welcome to the marketplace! I'm your voice assistant. Say next to continue the tour, or stop to exit at any time.",
		"You can move around by voice. Try saying go to products, open my orders, or take me to the dashboard.",
		"To sell something, say I want to sell, followed by the product name, and I'll help you create the listing.",
		"While listing, I'll ask for anything that's missing: the name, the price, the category and a description. Just answer out loud.",
		"You can add a photo by saying take a photo. Say skip to leave out the description or the photo.",
		"Say repeat to hear the last message again, help for a list of commands, or cancel to start over.",
		"That's the end of the tour. Say I want to sell to list your first product. Happy selling!",
	}
}

func helpFor(mode fsm.Mode) string {
	switch mode {
	case fsm.ModeWelcomeTour:
		return helpTour
	case fsm.ModeInteractiveQA:
		return helpQA
	case fsm.ModeCameraCapture:
		return helpCamera
	}
	return helpGeneral
}

func fieldSetMessage(f slots.Field, value string) string {
	if f == slots.FieldPrice {
		return fmt.Sprintf("Price set to $%s.", value)
	}
	label := string(f)
	return fmt.Sprintf("%s set to %s.", capitalize(label), value)
}

func toggleMessage(name string, on bool) string {
	state := "off"
	if on {
		state = "on"
	}
	return fmt.Sprintf("%s turned %s.", capitalize(name), state)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// spokenRoute turns "/seller/add-product" into "add product".
func spokenRoute(route string) string {
	base := path.Base(strings.TrimRight(route, "/"))
	if base == "." || base == "/" || base == "" {
		return "home"
	}
	return strings.ReplaceAll(base, "-", " ")
}
