package common

// StatusReason is a machine readable explanation for a request outcome.
type StatusReason string

const (
	StatusSuccess = "Success"
	StatusFailure = "Failure"

	StatusReasonBadRequest  StatusReason = "BadRequest"
	StatusReasonNotFound    StatusReason = "NotFound"
	StatusReasonInvalid     StatusReason = "Invalid"
	StatusReasonUnavailable StatusReason = "Unavailable"
	StatusReasonUnknown     StatusReason = "Unknown"
)

// Status is the response body returned for all non-2xx outcomes.
// swagger:model Status
type Status struct {
	// Status of the operation, "Success" or "Failure"
	Status string `json:"status,omitempty"`
	// Message is a human-readable description of the outcome
	Message string `json:"message,omitempty"`
	// Reason is a machine-readable explanation
	Reason StatusReason `json:"reason,omitempty"`
	// Code is the suggested HTTP return code
	Code int `json:"code,omitempty"`
}
