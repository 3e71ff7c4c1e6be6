// Package queue contains the message payloads exchanged over the
// broker and the background consumer that turns them into email.
package queue

// Lifecycle event kinds published to the user.lifecycle queue.
const (
	EventSignedUp       = "user.signed_up"
	EventActivated      = "user.activated"
	EventDeleted        = "user.deleted"
	EventResetRequested = "user.reset_requested"
)

// LifecycleEvent is published whenever a user account changes state in
// a way that warrants a notification. It carries everything the
// consumer needs so no database access happens on the notification
// path; in particular the deletion event still holds the recipient
// address after the user row is gone.
type LifecycleEvent struct {
	Kind          string `json:"kind"`
	UserID        uint64 `json:"user_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	ActivationURL string `json:"activation_url,omitempty"`
	ResetURL      string `json:"reset_url,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
