// Package rtc describes the WebRTC settings browsers need. Media never
// passes through the server; peers connect directly.
package rtc

import (
	"strings"

	"github.com/pion/webrtc/v4"
)

// ICEConfiguration builds the configuration handed to browsers. Entries
// are "stun:host:port" or "turn:user:pass@host:port".
func ICEConfiguration(urls []string) webrtc.Configuration {
	servers := make([]webrtc.ICEServer, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		servers = append(servers, parseServer(u))
	}
	return webrtc.Configuration{ICEServers: servers}
}

func parseServer(u string) webrtc.ICEServer {
	scheme, rest, ok := strings.Cut(u, ":")
	if !ok || (scheme != "turn" && scheme != "turns") {
		return webrtc.ICEServer{URLs: []string{u}}
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return webrtc.ICEServer{URLs: []string{u}}
	}
	user, pass, _ := strings.Cut(creds, ":")
	return webrtc.ICEServer{
		URLs:           []string{scheme + ":" + host},
		Username:       user,
		Credential:     pass,
		CredentialType: webrtc.ICECredentialTypePassword,
	}
}
