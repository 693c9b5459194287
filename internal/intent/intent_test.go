package intent

import (
	"regexp"
	"testing"
)

func TestClassifyCommands(t *testing.T) {
	c := New()
	tests := []struct {
		in    string
		kind  Kind
		field string
		value string
	}{
		{in: "go to products", kind: KindNavigate, value: "/products"},
		{in: "open my orders", kind: KindNavigate, value: "/orders"},
		{in: "take me to the dashboard page", kind: KindNavigate, value: "/seller/dashboard"},
		{in: "add a new product", kind: KindNavigate, value: "/seller/add-product"},
		{in: "i want to sell a blue wireless headphone", kind: KindNavigate, value: "/seller/add-product"},
		{in: "set product price to $20", kind: KindSetField, field: "price", value: "20"},
		{in: "change the price to 19,99", kind: KindSetField, field: "price", value: "19.99"},
		{in: "set the name to desk lamp", kind: KindSetField, field: "name", value: "desk lamp"},
		{in: "set category to home and garden", kind: KindSetField, field: "category", value: "home and garden"},
		{in: "put it in the toys category", kind: KindSetField, field: "category", value: "toys"},
		{in: "update description to barely used.", kind: KindSetField, field: "description", value: "barely used"},
		{in: "save", kind: KindSave},
		{in: "submit the product", kind: KindSave},
		{in: "i'm done", kind: KindSave},
		{in: "take a photo", kind: KindOpenCamera},
		{in: "open the camera", kind: KindOpenCamera},
		{in: "upload image", kind: KindOpenCamera},
		{in: "turn off dark mode", kind: KindToggleSetting, field: "dark mode", value: "off"},
		{in: "switch notifications on", kind: KindToggleSetting, field: "notifications", value: "on"},
		{in: "mute", kind: KindToggleSetting, field: "voice", value: "off"},
		{in: "enable voice feedback", kind: KindToggleSetting, field: "voice feedback", value: "on"},
		{in: "help", kind: KindHelp},
		{in: "what can i say", kind: KindHelp},
		{in: "cancel", kind: KindCancel},
		{in: "never mind", kind: KindCancel},
		{in: "repeat that", kind: KindRepeat},
		{in: "say it again", kind: KindRepeat},
		{in: "start the tour", kind: KindStartTour},
		{in: "continue tour", kind: KindStartTour},
	}
	for _, tt := range tests {
		got := c.Classify(tt.in)
		if got.Kind != tt.kind {
			t.Fatalf("Classify(%q).Kind=%s, want %s", tt.in, got.Kind, tt.kind)
		}
		if got.Field != tt.field {
			t.Fatalf("Classify(%q).Field=%q, want %q", tt.in, got.Field, tt.field)
		}
		if got.Value != tt.value {
			t.Fatalf("Classify(%q).Value=%q, want %q", tt.in, got.Value, tt.value)
		}
		if got.Original != tt.in {
			t.Fatalf("Classify(%q).Original=%q, want input", tt.in, got.Original)
		}
	}
}

func TestClassifyUnknown(t *testing.T) {
	c := New()
	for _, in := range []string{
		"next",
		"the weather is nice",
		"go to the moon",
		"purple monkey dishwasher",
		"12345",
		"",
		"   ",
	} {
		got := c.Classify(in)
		if got.Kind != KindUnknown {
			t.Fatalf("Classify(%q).Kind=%s, want %s", in, got.Kind, KindUnknown)
		}
		if got.Original != in {
			t.Fatalf("Classify(%q).Original=%q, want input", in, got.Original)
		}
	}
}

func TestSpecificRuleBeatsSellingCatchAll(t *testing.T) {
	c := New()
	got := c.Classify("i'm selling it so set product price to $45")
	if got.Kind != KindSetField || got.Field != "price" || got.Value != "45" {
		t.Fatalf("Classify=%+v, want set_field price 45", got)
	}
}

func TestPriorityIsIndependentOfDeclarationOrder(t *testing.T) {
	low := Rule{Name: "catch_all", Kind: KindNavigate, Priority: 1, Pattern: regexp.MustCompile(`.`)}
	high := Rule{Name: "specific", Kind: KindSave, Priority: 9, Pattern: regexp.MustCompile(`^save$`)}

	for _, rules := range [][]Rule{{low, high}, {high, low}} {
		c := NewWithRules(rules)
		if got := c.Classify("save").Kind; got != KindSave {
			t.Fatalf("Classify(save).Kind=%s, want %s", got, KindSave)
		}
		if got := c.Classify("other").Kind; got != KindNavigate {
			t.Fatalf("Classify(other).Kind=%s, want %s", got, KindNavigate)
		}
	}
}

func TestRulesSortedByPriority(t *testing.T) {
	rules := New().Rules()
	for i := 1; i < len(rules); i++ {
		if rules[i-1].Priority < rules[i].Priority {
			t.Fatalf("rule %s (priority %d) evaluated before %s (priority %d)",
				rules[i-1].Name, rules[i-1].Priority, rules[i].Name, rules[i].Priority)
		}
	}
}

func TestCustomRoutes(t *testing.T) {
	c := New(WithRoutes(map[string]string{"Wishlist": "/wishlist"}), WithAddProductRoute("/sell"))
	if got := c.Classify("open wishlist"); got.Kind != KindNavigate || got.Value != "/wishlist" {
		t.Fatalf("Classify(open wishlist)=%+v, want navigate /wishlist", got)
	}
	if got := c.Classify("go to products"); got.Kind != KindUnknown {
		t.Fatalf("Classify(go to products).Kind=%s, want unknown with custom routes", got.Kind)
	}
	if got := c.Classify("i'm selling a chair"); got.Value != "/sell" {
		t.Fatalf("Classify(selling).Value=%q, want /sell", got.Value)
	}
}

func TestNilClassifier(t *testing.T) {
	var c *Classifier
	if got := c.Classify("save"); got.Kind != KindUnknown {
		t.Fatalf("nil Classify.Kind=%s, want unknown", got.Kind)
	}
}
