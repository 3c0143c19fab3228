package plugin

import "time"

// Actions reported on successful dispatch results.
const (
	ActionSent      = "sent"
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionLogged    = "logged"
	ActionUnhandled = "unhandled"
)

// Result is the tagged outcome of a plugin action. Exactly one of the two
// shapes applies: Success true with an Action, or Success false with a
// human-readable Error. Details is diagnostic only and must not drive caller
// retry decisions.
type Result struct {
	Success   bool      `json:"success"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action,omitempty"`
	Contact   string    `json:"contact,omitempty"`
	Error     string    `json:"error,omitempty"`
	Details   any       `json:"details,omitempty"`
}

func succeeded(event, action string) Result {
	return Result{
		Success:   true,
		Event:     event,
		Timestamp: time.Now().UTC(),
		Action:    action,
	}
}

// Sent reports a payload delivered to the provider.
func Sent(event string) Result {
	return succeeded(event, ActionSent)
}

// Created reports a provider-side resource created (e.g. a new list member).
func Created(event string) Result {
	return succeeded(event, ActionCreated)
}

// Updated reports a provider-side resource updated.
func Updated(event string) Result {
	return succeeded(event, ActionUpdated)
}

// Logged reports an event acknowledged without any provider call.
func Logged(event string) Result {
	return succeeded(event, ActionLogged)
}

// Unhandled reports an event the plugin has no mapping for. The caller
// decides whether to log or ignore it.
func Unhandled(event string) Result {
	return succeeded(event, ActionUnhandled)
}

// Failed reports a dispatch failure with a human-readable message.
func Failed(event, errMsg string, details any) Result {
	return Result{
		Success:   false,
		Event:     event,
		Timestamp: time.Now().UTC(),
		Error:     errMsg,
		Details:   details,
	}
}
