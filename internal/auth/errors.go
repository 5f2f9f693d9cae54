package auth

// Reason is the machine-readable cause of an authentication failure.
type Reason string

const (
	ReasonMissingToken Reason = "missing_token"
	ReasonInvalidToken Reason = "invalid_token"
	ReasonExpiredToken Reason = "expired_token"
	ReasonUnknownUser  Reason = "unknown_user"
)

// Error is an authentication failure. Every *Error maps to HTTP 401; any
// other error coming out of this package is an internal fault.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrMissingToken = &Error{Reason: ReasonMissingToken, Message: "No token provided. Access denied."}
	ErrInvalidToken = &Error{Reason: ReasonInvalidToken, Message: "Invalid token."}
	ErrExpiredToken = &Error{Reason: ReasonExpiredToken, Message: "Token expired."}
	ErrUnknownUser  = &Error{Reason: ReasonUnknownUser, Message: "User not found. Token invalid."}
)
