// Package intent maps a normalized transcript to one structured command.
//
// Rules carry an explicit integer priority. Classify evaluates them from the
// highest priority down and returns the first match, so a specific phrasing
// such as "set product price to $20" always beats the free-form
// "I'm selling ..." catch-all regardless of declaration order.
package intent

import (
	"regexp"
	"sort"
	"strings"
)

// Kind names a structured command.
type Kind string

const (
	KindNavigate      Kind = "navigate"
	KindSetField      Kind = "set_field"
	KindSave          Kind = "save"
	KindOpenCamera    Kind = "open_camera"
	KindToggleSetting Kind = "toggle_setting"
	KindHelp          Kind = "help"
	KindCancel        Kind = "cancel"
	KindRepeat        Kind = "repeat"
	KindStartTour     Kind = "start_tour"
	KindUnknown       Kind = "unknown"
)

// Action is the classifier's interpretation of one transcript.
type Action struct {
	Kind Kind `json:"kind"`
	// Field is the draft slot for set_field and the setting name for toggle_setting.
	Field string `json:"field,omitempty"`
	// Value is the captured value: a route, a field value, or on/off.
	Value    string `json:"value,omitempty"`
	Original string `json:"original"`
}

// Rule matches a transcript to a Kind.
type Rule struct {
	Name     string
	Kind     Kind
	Priority int
	Pattern  *regexp.Regexp
	// Field is copied onto the Action verbatim.
	Field string
	// Group selects the capture group copied into Action.Value; 0 means none.
	Group int
	// Resolve post-processes a match; returning false rejects the rule.
	Resolve func(a *Action, match []string) bool
}

// Classifier holds rules sorted by descending priority.
type Classifier struct {
	rules []Rule
}

// Option configures a Classifier.
type Option func(*options)

type options struct {
	routes          map[string]string
	addProductRoute string
}

// WithRoutes sets the spoken destination to route table used by navigate rules.
func WithRoutes(routes map[string]string) Option {
	return func(o *options) {
		o.routes = make(map[string]string, len(routes))
		for k, v := range routes {
			o.routes[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}
}

// WithAddProductRoute sets the route that selling phrases navigate to.
func WithAddProductRoute(route string) Option {
	return func(o *options) {
		o.addProductRoute = route
	}
}

// DefaultRoutes is the navigation table used when none is configured.
func DefaultRoutes() map[string]string {
	return map[string]string{
		"home":        "/",
		"products":    "/products",
		"shop":        "/products",
		"store":       "/products",
		"cart":        "/cart",
		"checkout":    "/checkout",
		"orders":      "/seller/orders",
		"my orders":   "/orders",
		"dashboard":   "/seller/dashboard",
		"my products": "/seller/products",
		"add product": "/seller/add-product",
		"new product": "/seller/add-product",
		"profile":     "/profile",
		"settings":    "/settings",
	}
}

// New builds a classifier with the default rule set.
func New(opts ...Option) *Classifier {
	o := options{
		routes:          DefaultRoutes(),
		addProductRoute: "/seller/add-product",
	}
	for _, opt := range opts {
		opt(&o)
	}
	return NewWithRules(defaultRules(o))
}

// NewWithRules builds a classifier from an explicit rule set.
func NewWithRules(rules []Rule) *Classifier {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].Name < sorted[j].Name
	})
	return &Classifier{rules: sorted}
}

// Rules returns the rules in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify returns the action for the highest priority matching rule, or
// an unknown action when nothing matches. It never panics.
func (c *Classifier) Classify(transcript string) Action {
	unknown := Action{Kind: KindUnknown, Original: transcript}
	if c == nil || strings.TrimSpace(transcript) == "" {
		return unknown
	}
	for _, rule := range c.rules {
		if rule.Pattern == nil {
			continue
		}
		match := rule.Pattern.FindStringSubmatch(transcript)
		if match == nil {
			continue
		}
		action := Action{Kind: rule.Kind, Field: rule.Field, Original: transcript}
		if rule.Group > 0 && rule.Group < len(match) {
			action.Value = strings.TrimSpace(match[rule.Group])
		}
		if rule.Resolve != nil && !rule.Resolve(&action, match) {
			continue
		}
		return action
	}
	return unknown
}
