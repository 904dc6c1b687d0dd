package model

import "strings"

type Role string

const (
	RoleProvider Role = "provider"
	RoleClient   Role = "client"
)

// ParseRole accepts "consultant" as an alias for provider.
func ParseRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "provider", "consultant":
		return RoleProvider, true
	case "client":
		return RoleClient, true
	default:
		return "", false
	}
}

// Identity is the authenticated requester.
type Identity struct {
	ID   string
	Role Role
}
