package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by repositories.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Kind classifies an application error. The set is closed; transports map
// each kind to a response.
type Kind uint8

const (
	KindInternal Kind = iota
	KindStorage
	KindHashing
	KindUpload
	KindParse
	KindDuplicateUsername
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindStorage:
		return "storage"
	case KindHashing:
		return "hashing"
	case KindUpload:
		return "upload"
	case KindParse:
		return "parse"
	case KindDuplicateUsername:
		return "duplicate_username"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is the classified error returned by application services.
// Msg is safe to show to the user; Err holds the underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// E builds an *Error.
func E(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Unauthorized is the uniform error for missing sessions, bad credentials
// and ownership mismatches.
func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized}
}
