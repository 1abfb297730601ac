package domain

import "time"

// Fixed identifiers stamped onto every outcome notification.
const (
	WorkflowName = "Validation_Workflow"

	// MessageGroup keys all notifications of this workflow onto one ordered
	// group so related messages are not interleaved by the channel.
	MessageGroup = "ValidationGroup"

	ContinueURL = "https://example.com/continue"
	AbortURL    = "https://example.com/abort"
)

// Categories are the fixed routing labels carried by every notification.
var Categories = []string{"CD-TECH", "AM-DEVS"}

// ValidationMessage is the JSON body sent to the success or failure channel.
// ContinueURL and AbortURL are only populated on the failure branch.
type ValidationMessage struct {
	Workflow    string   `json:"workflow"`
	ExcID       string   `json:"exc_id"`
	Categories  []string `json:"categories"`
	Message     string   `json:"message"`
	ContinueURL *string  `json:"continue_url"`
	AbortURL    *string  `json:"abort_url"`
}

// SuccessMessage builds the message for a valid object. Continuation hints
// stay empty: there is nothing for an operator to decide.
func SuccessMessage(excID, message string) ValidationMessage {
	return ValidationMessage{
		Workflow:   WorkflowName,
		ExcID:      excID,
		Categories: Categories,
		Message:    message,
	}
}

// FailureMessage builds the message for a quarantined object, carrying the
// fixed continuation and abort hints.
func FailureMessage(excID, message string) ValidationMessage {
	continueURL := ContinueURL
	abortURL := AbortURL
	return ValidationMessage{
		Workflow:    WorkflowName,
		ExcID:       excID,
		Categories:  Categories,
		Message:     message,
		ContinueURL: &continueURL,
		AbortURL:    &abortURL,
	}
}

// Response is returned to the caller once an event finishes, on both the
// valid and the quarantine branch.
type Response struct {
	ReqID   string `json:"req_id"`
	Message string `json:"message"`
}

// ValidationRun is the audit record persisted for each processed event.
type ValidationRun struct {
	ID         int64     `db:"id"`
	RequestID  string    `db:"request_id"`
	Bucket     string    `db:"bucket"`
	ObjectKey  string    `db:"object_key"`
	VersionID  string    `db:"version_id"`
	Valid      bool      `db:"valid"`
	Message    string    `db:"message"`
	DurationMS int64     `db:"duration_ms"`
	CreatedAt  time.Time `db:"created_at"`
}
