package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ELEVENLABS_API_KEY", "")
	t.Setenv("ELEVENLABS_VOICE_ID", "")
	t.Setenv(rootDirEnv, "")
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.yaml")
	writeFile(t, path, "system_config:\n  port: 9000\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != "0.0.0.0:9000" {
		t.Fatalf("HTTPAddr=%q, want 0.0.0.0:9000", cfg.HTTPAddr)
	}
	if cfg.Voice.DuplicateWindow != 2*time.Second || cfg.Voice.RestartDelay != 300*time.Millisecond {
		t.Fatalf("voice timings=%s/%s, want 2s/300ms", cfg.Voice.DuplicateWindow, cfg.Voice.RestartDelay)
	}
	if cfg.Voice.AddProductRoute != "/seller/add-product" {
		t.Fatalf("AddProductRoute=%q", cfg.Voice.AddProductRoute)
	}
	if cfg.Audio.SampleRate != 24000 || cfg.Audio.FrameDuration != 20 {
		t.Fatalf("audio=%+v, want 24000/20", cfg.Audio)
	}
	if cfg.TTS.Enabled() {
		t.Fatal("TTS.Enabled()=true without credentials, want false")
	}
	if want := filepath.Join(dir, "data", "journal"); cfg.Journal.Dir != want {
		t.Fatalf("Journal.Dir=%q, want %q", cfg.Journal.Dir, want)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.yaml")
	writeFile(t, path, "tts:\n  voice_id: from-file\n")
	t.Setenv("VOICELIST_TTS_VOICE_ID", "from-env")
	t.Setenv("ELEVENLABS_API_KEY", "secret")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.TTS.VoiceID != "from-env" {
		t.Fatalf("VoiceID=%q, want from-env", cfg.TTS.VoiceID)
	}
	if cfg.TTS.APIKey != "secret" || !cfg.TTS.Enabled() {
		t.Fatalf("tts=%+v, want key from ELEVENLABS_API_KEY", cfg.TTS)
	}
	if got := cfg.Redacted().TTS.APIKey; got == "secret" {
		t.Fatal("Redacted kept the api key")
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.yaml")
	writeFile(t, path, "log:\n  level: debug\n")
	writeFile(t, filepath.Join(dir, ".env"), "VOICELIST_JOURNAL_ENABLED=true\n")
	t.Cleanup(func() { os.Unsetenv("VOICELIST_JOURNAL_ENABLED") })

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Journal.Enabled {
		t.Fatal("Journal.Enabled=false, want true from .env")
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("Log.Level=%q, want debug", cfg.Log.Level)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	clearEnv(t)
	tests := map[string]string{
		"frame duration": "audio:\n  frame_duration: 15\n",
		"route":          "voice:\n  add_product_route: seller\n",
		"provider":       "tts:\n  provider: polly\n",
		"tls":            "tls_required: true\ntls_disable: true\n",
	}
	for name, body := range tests {
		dir := t.TempDir()
		path := filepath.Join(dir, "conf.yaml")
		writeFile(t, path, body)
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("%s: LoadConfig err=nil, want validation error", name)
		}
	}
}

func TestTourFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tour.yaml"), "steps:\n  - Welcome.\n  - \"  \"\n  - Goodbye.\n")
	path := filepath.Join(dir, "conf.yaml")
	writeFile(t, path, "voice:\n  tour_file: tour.yaml\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if strings.Join(cfg.Voice.TourSteps, "|") != "Welcome.|Goodbye." {
		t.Fatalf("TourSteps=%q", cfg.Voice.TourSteps)
	}
}

func TestLoadTourScriptList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tour.yaml")
	writeFile(t, path, "- One.\n- Two.\n")
	steps, err := LoadTourScript(path)
	if err != nil {
		t.Fatalf("LoadTourScript: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("steps=%d, want 2", len(steps))
	}

	writeFile(t, path, "steps: []\n")
	if _, err := LoadTourScript(path); err == nil {
		t.Fatal("empty tour err=nil, want error")
	}
}

func TestResolvePath(t *testing.T) {
	if got := resolvePath("/srv", "", "data"); got != filepath.Join("/srv", "data") {
		t.Fatalf("resolvePath fallback=%q", got)
	}
	if got := resolvePath("/srv", "/abs/x", "data"); got != "/abs/x" {
		t.Fatalf("resolvePath absolute=%q", got)
	}
}
