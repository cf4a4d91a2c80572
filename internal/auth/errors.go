package auth

import "errors"

// ErrUnavailable means the identity provider could not be reached during
// initialization. Nothing is retried automatically.
var ErrUnavailable = errors.New("authentication service is currently unavailable")

type ErrorKind string

const (
	KindInvalidCredentials ErrorKind = "invalid-credentials"
	KindEmailInUse         ErrorKind = "email-in-use"
	KindWeakPassword       ErrorKind = "weak-password"
	KindRateLimited        ErrorKind = "rate-limited"
	KindInvalidEmail       ErrorKind = "invalid-email"
	KindNetwork            ErrorKind = "network"
	KindUnknown            ErrorKind = "unknown"
)

// Error carries the provider code plus the message shown to the user. The
// mapping happens here at the boundary; callers never see raw codes.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// mapProviderError translates identity-toolkit error codes into the
// human-readable messages the storefront shows.
func mapProviderError(code string) *Error {
	switch code {
	case "EMAIL_NOT_FOUND":
		return &Error{Kind: KindInvalidCredentials, Code: code, Message: "User account not found. Please register first."}
	case "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return &Error{Kind: KindInvalidCredentials, Code: code, Message: "Incorrect password. Please try again."}
	case "EMAIL_EXISTS":
		return &Error{Kind: KindEmailInUse, Code: code, Message: "Email already in use. Please login instead."}
	case "WEAK_PASSWORD":
		return &Error{Kind: KindWeakPassword, Code: code, Message: "Password is too weak. Use at least 6 characters."}
	case "INVALID_EMAIL":
		return &Error{Kind: KindInvalidEmail, Code: code, Message: "Invalid email address."}
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return &Error{Kind: KindRateLimited, Code: code, Message: "Too many login attempts. Please try again later."}
	case "OPERATION_NOT_ALLOWED":
		return &Error{Kind: KindUnknown, Code: code, Message: "Email/Password authentication is not enabled."}
	default:
		return &Error{Kind: KindUnknown, Code: code, Message: "Authentication failed. Please try again."}
	}
}

func networkError(err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Code:    "NETWORK",
		Message: "Network error. Please check your connection.",
	}
}
