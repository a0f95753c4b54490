package dto

// Envelope wraps every successful response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorEnvelope wraps every failed response.
type ErrorEnvelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Error   string         `json:"error,omitempty"`
	Stack   string         `json:"stack,omitempty"`
}

// OK builds a success envelope.
func OK(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}
