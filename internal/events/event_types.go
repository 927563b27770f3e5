package events

import (
	"time"

	"github.com/spec-kit/learning-platform/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered   EventType = "user_registered"
	EventUserLoggedIn     EventType = "user_logged_in"
	EventOAuthUserCreated EventType = "oauth_user_created"
	EventRoleFinalized    EventType = "role_finalized"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// LoginPayload describes how a session was established.
type LoginPayload struct {
	Method string `json:"method"`
}

// RoleFinalizedPayload payload.
type RoleFinalizedPayload struct {
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`
}
