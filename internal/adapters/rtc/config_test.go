package rtc

import (
	"testing"

	"github.com/pion/webrtc/v4"
)

func TestICEConfiguration(t *testing.T) {
	cfg := ICEConfiguration([]string{
		"stun:stun.l.google.com:19302",
		"  ",
		"turn:alice:s3cret@turn.example.org:3478",
		"turn:turn.example.org:3478",
	})
	if len(cfg.ICEServers) != 3 {
		t.Fatalf("expected 3 servers, got %d", len(cfg.ICEServers))
	}
	if got := cfg.ICEServers[0].URLs[0]; got != "stun:stun.l.google.com:19302" {
		t.Fatalf("unexpected stun url %q", got)
	}
	turn := cfg.ICEServers[1]
	if turn.URLs[0] != "turn:turn.example.org:3478" || turn.Username != "alice" || turn.Credential != "s3cret" {
		t.Fatalf("unexpected turn server %+v", turn)
	}
	if turn.CredentialType != webrtc.ICECredentialTypePassword {
		t.Fatalf("expected password credentials")
	}
	if anon := cfg.ICEServers[2]; anon.Username != "" || anon.URLs[0] != "turn:turn.example.org:3478" {
		t.Fatalf("unexpected anonymous turn server %+v", anon)
	}
}
