// Package types holds the JSON envelopes shared by every ledger endpoint.
package types

// SuccessEnvelope nests every successful payload under "data" so clients can
// branch on the top-level key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire form of a ledger error: a stable machine-readable code
// alongside the human-readable message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope mirrors SuccessEnvelope for the failure path.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
