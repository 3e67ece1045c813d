package dashboard

import (
	"fmt"
	"strings"
	"time"
)

// Escalation targets.
const (
	EscalateToRMG = "rmg"
	EscalateToTAG = "tag"
)

var escalationTeams = map[string]string{
	EscalateToRMG: "Resource Management Group",
	EscalateToTAG: "Talent Acquisition",
}

// EscalationRequest asks a team to act on a resource request.
type EscalationRequest struct {
	RequestID string `json:"request_id"`
	Target    string `json:"target"`
	Note      string `json:"note,omitempty"`
}

// Acknowledgment confirms an escalation. Escalations are notifications only;
// the request itself is never modified.
type Acknowledgment struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	Target    string    `json:"target"`
	Team      string    `json:"team"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

func (r EscalationRequest) normalize() (EscalationRequest, error) {
	r.RequestID = strings.TrimSpace(r.RequestID)
	r.Target = strings.ToLower(strings.TrimSpace(r.Target))
	r.Note = strings.TrimSpace(r.Note)
	if r.RequestID == "" {
		return r, fmt.Errorf("%w: request id is required", ErrRecordNotFound)
	}
	if _, ok := escalationTeams[r.Target]; !ok {
		return r, fmt.Errorf("%w %q (allowed: %s, %s)", ErrInvalidEscalationTarget, r.Target, EscalateToRMG, EscalateToTAG)
	}
	return r, nil
}
