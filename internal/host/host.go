// Package host models the application host the service runs inside, such as
// a Telegram mini app, which can show alerts and ask the user to confirm.
package host

import (
	"context"
	"log"
	"sync"
)

// Host is the collaborator that talks to the user.
type Host interface {
	// Alert shows a message to the user.
	Alert(ctx context.Context, userID, message string) error
	// Confirm asks the user a yes/no question.
	Confirm(ctx context.Context, userID, message string) (bool, error)
}

// LogHost writes alerts to the log and answers confirmations with a fixed
// answer. It backs headless deployments where no interactive host exists.
type LogHost struct {
	// ConfirmAnswer is returned by Confirm.
	ConfirmAnswer bool
}

// NewLogHost creates a LogHost.
func NewLogHost(confirm bool) *LogHost {
	return &LogHost{ConfirmAnswer: confirm}
}

// Alert logs the message.
func (h *LogHost) Alert(ctx context.Context, userID, message string) error {
	log.Printf("host alert for user %q: %s", userID, message)
	return nil
}

// Confirm logs the question and returns ConfirmAnswer.
func (h *LogHost) Confirm(ctx context.Context, userID, message string) (bool, error) {
	log.Printf("host confirm for user %q: %s (answer %t)", userID, message, h.ConfirmAnswer)
	return h.ConfirmAnswer, nil
}

// Recorder is a Host that remembers every interaction. Tests and the CLI
// preview commands use it.
type Recorder struct {
	mu       sync.Mutex
	Answer   bool
	Alerts   []string
	Confirms []string
}

// Alert records the message.
func (r *Recorder) Alert(ctx context.Context, userID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Alerts = append(r.Alerts, message)
	return nil
}

// Confirm records the question and returns Answer.
func (r *Recorder) Confirm(ctx context.Context, userID, message string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Confirms = append(r.Confirms, message)
	return r.Answer, nil
}

// AlertCount returns the number of recorded alerts.
func (r *Recorder) AlertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Alerts)
}

// ConfirmCount returns the number of recorded confirmations.
func (r *Recorder) ConfirmCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Confirms)
}

type userKey struct{}

// WithUser returns a context carrying the acting user's id.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFromContext returns the acting user's id, or "" when none is set.
func UserFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userKey{}).(string); ok {
		return id
	}
	return ""
}
