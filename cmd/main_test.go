package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	appconfig "github.com/veenjenga/Hands-and-Hope-sub001/internal/config"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/intent"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/slots"
)

func testConfig() appconfig.Config {
	var cfg appconfig.Config
	cfg.Voice.AddProductRoute = "/seller/add-product"
	cfg.TTS.APIKey = "secret-key"
	return cfg
}

func TestRunClassify(t *testing.T) {
	var out bytes.Buffer
	if err := runClassify(&out, testConfig(), "Take me to the cart"); err != nil {
		t.Fatalf("runClassify: %v", err)
	}
	var action intent.Action
	if err := json.Unmarshal(out.Bytes(), &action); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if action.Kind != intent.KindNavigate || action.Value != "/cart" {
		t.Fatalf("action=%+v, want navigate /cart", action)
	}
}

func TestRunExtract(t *testing.T) {
	var out bytes.Buffer
	if err := runExtract(&out, testConfig(), "I'm selling a blue lamp for 20 dollars"); err != nil {
		t.Fatalf("runExtract: %v", err)
	}
	var draft slots.Draft
	if err := json.Unmarshal(out.Bytes(), &draft); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if draft.Price != "20" {
		t.Fatalf("price=%q, want 20", draft.Price)
	}
}

func TestRunConfigRedactsSecrets(t *testing.T) {
	var out bytes.Buffer
	if err := runConfig(&out, testConfig()); err != nil {
		t.Fatalf("runConfig: %v", err)
	}
	if strings.Contains(out.String(), "secret-key") {
		t.Fatalf("config output leaked api key:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "add_product_route: /seller/add-product") {
		t.Fatalf("config output missing voice settings:\n%s", out.String())
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	want := map[string]bool{"serve": false, "classify": false, "extract": false, "config": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("command %q not registered", name)
		}
	}
}
