package domain

import "errors"

// ErrorKind classifies a failure for the HTTP boundary.
type ErrorKind int

const (
	KindServer ErrorKind = iota
	KindValidation
	KindDuplicate
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindTransaction
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindTransaction:
		return "transaction"
	default:
		return "server"
	}
}

// Error is a failure tagged with its kind. Message is safe to show to clients
// for every kind except KindServer and KindTransaction.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two *Error values of the same kind and message, so wrapped copies
// of a sentinel still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Wrap returns a copy of e carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: err}
}

func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation builds a KindValidation error.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Server builds a KindServer error around err.
func Server(message string, err error) *Error {
	return &Error{Kind: KindServer, Message: message, Err: err}
}

// Transaction builds a KindTransaction error around err.
func Transaction(message string, err error) *Error {
	return &Error{Kind: KindTransaction, Message: message, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain, or KindServer.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}

var (
	ErrMissingToken = &Error{Kind: KindAuthentication, Message: "no token, authentication denied"}
	ErrInvalidToken = &Error{Kind: KindAuthentication, Message: "invalid token"}
	ErrExpiredToken = &Error{Kind: KindAuthentication, Message: "token expired"}

	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = &Error{Kind: KindAuthentication, Message: "invalid credentials"}

	// ErrNotOwner is returned when the requestor does not own the resource.
	ErrNotOwner = &Error{Kind: KindAuthorization, Message: "unauthorized"}

	ErrUserNotFound  = &Error{Kind: KindNotFound, Message: "user not found"}
	ErrPlaceNotFound = &Error{Kind: KindNotFound, Message: "place not found"}
	ErrEmailNotFound = &Error{Kind: KindNotFound, Message: "email not found"}

	ErrEmailTaken = &Error{Kind: KindDuplicate, Message: "email already exists"}

	ErrInvalidID = &Error{Kind: KindValidation, Message: "invalid identifier"}
)
