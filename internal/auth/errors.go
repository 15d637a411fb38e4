package auth

// Kind classifies the expected failures of the auth flows.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindDuplicateUsername
	KindDuplicateEmail
	KindUserNotFound
	KindInvalidCredentials
	KindUserInactive
	KindNoActiveSession
)

// Error is an expected, caller-recoverable auth failure. Message is safe to
// show to clients as is.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so validation errors with
// different messages all match ErrValidation.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation         = &Error{Kind: KindValidation, Message: "invalid request"}
	ErrDuplicateUsername  = &Error{Kind: KindDuplicateUsername, Message: "username is already taken"}
	ErrDuplicateEmail     = &Error{Kind: KindDuplicateEmail, Message: "email is already registered"}
	ErrUserNotFound       = &Error{Kind: KindUserNotFound, Message: "user not found"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "invalid credentials"}
	ErrUserInactive       = &Error{Kind: KindUserInactive, Message: "user is inactive"}
	ErrNoActiveSession    = &Error{Kind: KindNoActiveSession, Message: "no active session"}
)

// NewValidationError wraps a request validation failure.
func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}
