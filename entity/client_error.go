package entity

import "fmt"

// ClientError is the error document returned to API clients.
type ClientError struct {
	Http     int         `json:"http"`
	Code     string      `json:"code"`
	Message  string      `json:"message"`
	RawError interface{} `json:"rawError,omitempty"`
}

func (e *ClientError) Error() string {
	if e.RawError != nil {
		return fmt.Sprintf("%d %s: %s; %v", e.Http, e.Code, e.Message, e.RawError)
	}
	return fmt.Sprintf("%d %s: %s", e.Http, e.Code, e.Message)
}

// WithRaw returns a copy of the error carrying diagnostic detail. The receiver is left untouched.
func (e ClientError) WithRaw(raw interface{}) *ClientError {
	e.RawError = raw
	return &e
}
