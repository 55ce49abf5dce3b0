package auctionsvc

import "fmt"

// Kind is the error taxonomy from spec §7: NotFound, Validation,
// Forbidden, Conflict, Fatal. Transport layers map Kind to a status
// code; this package never imports net/http.
type Kind int

const (
	KindFatal Kind = iota
	KindNotFound
	KindValidation
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "fatal"
	}
}

// AppError carries a Kind and a human-readable message safe to surface
// to the actor verbatim (spec §7: "Bid rejections produce a message
// carrying the relevant limit").
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func newErr(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func wrapErr(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *AppError         { return newErr(KindNotFound, message) }
func Validation(message string) *AppError       { return newErr(KindValidation, message) }
func Forbidden(message string) *AppError        { return newErr(KindForbidden, message) }
func Conflict(message string) *AppError         { return newErr(KindConflict, message) }
func Fatal(message string, err error) *AppError { return wrapErr(KindFatal, message, err) }
