package protocol

import (
	"encoding/json"
	"testing"
)

func TestValidate(t *testing.T) {
	v := NewValidator()
	yes := true
	tests := []struct {
		name    string
		msg     ClientMessage
		wantErr bool
	}{
		{name: "transcript", msg: ClientMessage{Type: TypeTranscript, Text: "go to products"}},
		{name: "empty transcript", msg: ClientMessage{Type: TypeTranscript}, wantErr: true},
		{name: "toggle", msg: ClientMessage{Type: TypeVoiceToggle, Enabled: &yes}},
		{name: "toggle without flag", msg: ClientMessage{Type: TypeVoiceToggle}, wantErr: true},
		{name: "form edit", msg: ClientMessage{Type: TypeFormFieldChanged, Field: "price", Value: ""}},
		{name: "form edit unknown field", msg: ClientMessage{Type: TypeFormFieldChanged, Field: "color"}, wantErr: true},
		{name: "playback ack", msg: ClientMessage{Type: TypePlaybackComplete, RequestID: "01J", Success: &yes}},
		{name: "playback ack without id", msg: ClientMessage{Type: TypePlaybackComplete, Success: &yes}, wantErr: true},
		{name: "hello", msg: ClientMessage{Type: TypeHello, Capabilities: &Capabilities{}}},
		{name: "heartbeat", msg: ClientMessage{Type: TypeHeartbeat}},
		{name: "unknown", msg: ClientMessage{Type: "mic-audio-data"}, wantErr: true},
	}
	for _, tt := range tests {
		err := v.Validate(tt.msg)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%s: Validate err=%v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestServerMessageOmitsUnset(t *testing.T) {
	data, err := json.Marshal(ServerMessage{Type: TypeLiveRegion, Text: Ptr("")})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got, want := string(data), `{"type":"live-region","text":""}`; got != want {
		t.Fatalf("json=%s, want %s", got, want)
	}
}
