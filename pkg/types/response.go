package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorBody is the error payload: the message under "error", the machine code alongside.
type ErrorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
