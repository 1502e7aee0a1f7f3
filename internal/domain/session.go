// Package domain contains entities without logic, just meta-data
package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxDisplayNameLen = 36
	DefaultName       = "guest"
)

type SessionID string

type Role string

const (
	RoleUnassigned Role = "unassigned"
	RolePerformer  Role = "performer"
	RoleAudience   Role = "audience"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUnassigned, RolePerformer, RoleAudience:
		return r, nil
	}
	return "", ErrInvalidRole
}

// Profile is what other clients see of a session.
// Avatar is opaque: a URL or a base64 data URI.
type Profile struct {
	Name   string `json:"name"`
	Avatar string `json:"imageUrl,omitempty"`
}

// NewProfile trims and clips the display name; an empty name becomes DefaultName.
func NewProfile(name, avatar string) Profile {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLen {
		name = string([]rune(name)[:MaxDisplayNameLen])
	}
	return Profile{Name: name, Avatar: avatar}
}

type Session struct {
	ID          SessionID `json:"id"`
	Role        Role      `json:"role"`
	Profile     Profile   `json:"profile"`
	Seat        SeatID    `json:"seat,omitempty"`
	ConnectedAt time.Time `json:"connectedAt"`
}

func (s Session) Seated() bool { return s.Seat != "" }
