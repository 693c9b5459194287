package intent

import (
	"regexp"
	"strings"
)

// Rule priorities. Higher wins.
const (
	PriorityCancel        = 100
	PriorityRepeat        = 95
	PriorityHelp          = 90
	PriorityStartTour     = 85
	PrioritySave          = 80
	PriorityOpenCamera    = 75
	PrioritySetField      = 70
	PrioritySetFieldLoose = 65
	PriorityToggle        = 60
	PriorityAddProduct    = 50
	PriorityNavigate      = 40
	PrioritySelling       = 10
)

func defaultRules(o options) []Rule {
	addProduct := func(a *Action, _ []string) bool {
		a.Value = o.addProductRoute
		return a.Value != ""
	}
	navigate := func(a *Action, m []string) bool {
		route, ok := lookupRoute(o.routes, m[1])
		if !ok {
			return false
		}
		a.Value = route
		return true
	}

	return []Rule{
		{
			Name:     "cancel",
			Kind:     KindCancel,
			Priority: PriorityCancel,
			Pattern:  regexp.MustCompile(`^(?:please )?(?:cancel|stop|exit|quit|abort|never ?mind|forget it)(?: (?:it|that|this|listing|the listing|everything))?(?: please)?$`),
		},
		{
			Name:     "repeat",
			Kind:     KindRepeat,
			Priority: PriorityRepeat,
			Pattern:  regexp.MustCompile(`^(?:repeat(?: that| it| please| the question)?|say (?:that|it) again|what did you say|pardon(?: me)?|come again)$`),
		},
		{
			Name:     "help",
			Kind:     KindHelp,
			Priority: PriorityHelp,
			Pattern:  regexp.MustCompile(`(?:^|\s)help(?:$|\s)|what can (?:i|you) (?:say|do)|(?:^|\s)(?:voice )?commands$|how does this work`),
		},
		{
			Name:     "start_tour",
			Kind:     KindStartTour,
			Priority: PriorityStartTour,
			Pattern:  regexp.MustCompile(`(?:start|take|begin|continue|resume|give me)(?: the| a)? (?:welcome )?tour|show me around`),
		},
		{
			Name:     "save",
			Kind:     KindSave,
			Priority: PrioritySave,
			Pattern:  regexp.MustCompile(`^(?:please )?(?:(?:save|submit|publish|post|upload)(?: (?:it|this|that|the product|product|the listing|listing|my product))?(?: now| please)?|(?:i'?m |i am )?(?:done|finish|finished)|list it)$`),
		},
		{
			Name:     "open_camera",
			Kind:     KindOpenCamera,
			Priority: PriorityOpenCamera,
			Pattern:  regexp.MustCompile(`(?:take|snap|capture)(?: a| the| an)? (?:photo|picture|pic|snap|snapshot|image)|open(?: the)? camera|upload(?: an| a| the)? (?:image|photo|picture)|add(?: a| an)? (?:photo|picture|image)`),
		},
		{
			Name:     "set_price",
			Kind:     KindSetField,
			Priority: PrioritySetField,
			Field:    "price",
			Group:    1,
			Pattern:  regexp.MustCompile(`(?:set|change|update|make)(?: the)?(?: product)? price(?: to| as| at|:)? ?\$? ?(\d+(?:[.,]\d{1,2})?)`),
			Resolve: func(a *Action, _ []string) bool {
				a.Value = strings.ReplaceAll(a.Value, ",", ".")
				return true
			},
		},
		{
			Name:     "set_name",
			Kind:     KindSetField,
			Priority: PrioritySetField,
			Field:    "name",
			Group:    1,
			Pattern:  regexp.MustCompile(`(?:set|change|update|rename)(?: the)?(?: product)? (?:name|title)(?: to| as|:) (.+)$`),
			Resolve:  trimValue,
		},
		{
			Name:     "set_category",
			Kind:     KindSetField,
			Priority: PrioritySetField,
			Field:    "category",
			Group:    1,
			Pattern:  regexp.MustCompile(`(?:set|change|update)(?: the)?(?: product)? category(?: to| as|:)? (.+)$`),
			Resolve:  trimValue,
		},
		{
			Name:     "set_description",
			Kind:     KindSetField,
			Priority: PrioritySetField,
			Field:    "description",
			Group:    1,
			Pattern:  regexp.MustCompile(`(?:set|change|update)(?: the)?(?: product)? description(?: to| as|:) (.+)$`),
			Resolve:  trimValue,
		},
		{
			Name:     "put_in_category",
			Kind:     KindSetField,
			Priority: PrioritySetFieldLoose,
			Field:    "category",
			Group:    1,
			Pattern:  regexp.MustCompile(`(?:put|move|file)(?: it| this)? (?:in|into|under)(?: the)? (.+?) category$`),
			Resolve:  trimValue,
		},
		{
			Name:     "toggle_on_off_first",
			Kind:     KindToggleSetting,
			Priority: PriorityToggle,
			Pattern:  regexp.MustCompile(`^(?:please )?(?:turn|switch) (on|off)(?: the)? (.+)$`),
			Resolve: func(a *Action, m []string) bool {
				a.Field, a.Value = strings.TrimSpace(m[2]), m[1]
				return a.Field != ""
			},
		},
		{
			Name:     "toggle_on_off_last",
			Kind:     KindToggleSetting,
			Priority: PriorityToggle,
			Pattern:  regexp.MustCompile(`^(?:please )?(?:turn|switch)(?: the)? (.+) (on|off)$`),
			Resolve: func(a *Action, m []string) bool {
				a.Field, a.Value = strings.TrimSpace(m[1]), m[2]
				return a.Field != ""
			},
		},
		{
			Name:     "toggle_verb",
			Kind:     KindToggleSetting,
			Priority: PriorityToggle,
			Pattern:  regexp.MustCompile(`^(?:please )?(enable|disable|mute|unmute)(?: the)?(?: (.+))?$`),
			Resolve: func(a *Action, m []string) bool {
				a.Field = strings.TrimSpace(m[2])
				switch m[1] {
				case "enable", "unmute":
					a.Value = "on"
				default:
					a.Value = "off"
				}
				if a.Field == "" {
					if m[1] == "mute" || m[1] == "unmute" {
						a.Field = "voice"
						return true
					}
					return false
				}
				return true
			},
		},
		{
			Name:     "add_product",
			Kind:     KindNavigate,
			Priority: PriorityAddProduct,
			Pattern:  regexp.MustCompile(`(?:add|create|list|post|start)(?: a| an| my)?(?: new)? (?:product|item|listing)`),
			Resolve:  addProduct,
		},
		{
			Name:     "navigate",
			Kind:     KindNavigate,
			Priority: PriorityNavigate,
			Pattern:  regexp.MustCompile(`^(?:please )?(?:go to|go back to|open|show me|show|take me to|navigate to|visit|view)(?: the)? (.+?)(?: page| section| tab| screen)?(?: please)?$`),
			Resolve:  navigate,
		},
		{
			Name:     "selling",
			Kind:     KindNavigate,
			Priority: PrioritySelling,
			Pattern:  regexp.MustCompile(`(?:^|\s)(?:sell|selling|list|listing)\s`),
			Resolve:  addProduct,
		},
	}
}

func trimValue(a *Action, _ []string) bool {
	a.Value = strings.TrimSpace(strings.Trim(a.Value, ".,!? "))
	return a.Value != ""
}

func lookupRoute(routes map[string]string, destination string) (string, bool) {
	destination = strings.TrimSpace(strings.Trim(destination, ".,!? "))
	if route, ok := routes[destination]; ok {
		return route, true
	}
	for _, prefix := range []string{"my ", "the "} {
		if trimmed, ok := strings.CutPrefix(destination, prefix); ok {
			if route, ok := routes[trimmed]; ok {
				return route, true
			}
		}
	}
	for _, suffix := range []string{" page", "s"} {
		if route, ok := routes[destination+suffix]; ok {
			return route, true
		}
	}
	return "", false
}
