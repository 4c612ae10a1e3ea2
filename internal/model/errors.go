package model

import (
	"errors"
	"fmt"
)

// Code identifies the kind of failure an operation produced.  Codes travel
// over the wire unchanged in the "error" field of the JSON error envelope,
// so the server and the client agree on them byte for byte.
type Code string

const (
	CodeNotFound                Code = "not_found"
	CodeCapacityExceeded        Code = "capacity_exceeded"
	CodeCapacityBelowOccupation Code = "capacity_below_occupation"
	CodeAlreadyAssigned         Code = "already_assigned"
	CodeAlreadyRegistered       Code = "already_registered"
	CodeNotAssigned             Code = "not_assigned"
	CodeNotRegistered           Code = "not_registered"
	CodeNotAnOccupant           Code = "not_an_occupant"
	CodeConflict                Code = "conflict"
	CodeInvalid                 Code = "invalid"
	CodeUnauthorized            Code = "unauthorized"
	CodeForbidden               Code = "forbidden"
	CodeMalformedPayload        Code = "malformed_payload"
	CodeUnavailable             Code = "unavailable"
)

// Sentinels for errors.Is.  An *Error matches a sentinel when the codes are
// equal, whatever entity or id it carries.
var (
	ErrNotFound                = &Error{Code: CodeNotFound}
	ErrCapacityExceeded        = &Error{Code: CodeCapacityExceeded}
	ErrCapacityBelowOccupation = &Error{Code: CodeCapacityBelowOccupation}
	ErrAlreadyAssigned         = &Error{Code: CodeAlreadyAssigned}
	ErrAlreadyRegistered       = &Error{Code: CodeAlreadyRegistered}
	ErrNotAssigned             = &Error{Code: CodeNotAssigned}
	ErrNotRegistered           = &Error{Code: CodeNotRegistered}
	ErrNotAnOccupant           = &Error{Code: CodeNotAnOccupant}
	ErrConflict                = &Error{Code: CodeConflict}
	ErrInvalid                 = &Error{Code: CodeInvalid}
	ErrUnauthorized            = &Error{Code: CodeUnauthorized}
	ErrForbidden               = &Error{Code: CodeForbidden}
	ErrMalformedPayload        = &Error{Code: CodeMalformedPayload}
	ErrUnavailable             = &Error{Code: CodeUnavailable}
)

// Entity names used in Error.Entity.
const (
	EntityProfile   = "profile"
	EntityLodging   = "lodging"
	EntityLodgeType = "lodge_type"
	EntitySession   = "session"
	EntityUser      = "user"
)

// Error is the single failure type shared by the repository layer, the HTTP
// handlers and the API client.  Entity and ID name the record the failure is
// about so a caller can render "lodging 4 is full" instead of a generic
// message.  Err optionally carries the underlying cause.
type Error struct {
	Code    Code   `json:"error"`
	Entity  string `json:"entity,omitempty"`
	ID      uint64 `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Entity != "" {
		if e.ID != 0 {
			msg = fmt.Sprintf("%s: %s %d", msg, e.Entity, e.ID)
		} else {
			msg = fmt.Sprintf("%s: %s", msg, e.Entity)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error for the given entity with a formatted message.
func Errorf(code Code, entity string, id uint64, format string, args ...any) *Error {
	return &Error{Code: code, Entity: entity, ID: id, Message: fmt.Sprintf(format, args...)}
}

// Invalid is shorthand for a local validation failure.
func Invalid(entity string, id uint64, format string, args ...any) *Error {
	return Errorf(CodeInvalid, entity, id, format, args...)
}

// CodeOf extracts the code of the first *Error in err's chain, or "" when
// err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Conflict wraps an authority rejection of an operation the caller had
// already checked locally.  The returned error matches ErrConflict and,
// through Unwrap, the authority's own code as well.
func Conflict(cause error) error {
	var e *Error
	if errors.As(cause, &e) {
		return &Error{Code: CodeConflict, Entity: e.Entity, ID: e.ID, Message: "rejected by server after local check passed", Err: cause}
	}
	return &Error{Code: CodeConflict, Message: "rejected by server after local check passed", Err: cause}
}

// Rejected converts an authority failure into a Conflict when its code is
// one of the codes the caller had already ruled out locally.  Any other
// error is returned unchanged.
func Rejected(err error, checked ...Code) error {
	if err == nil {
		return nil
	}
	code := CodeOf(err)
	for _, c := range checked {
		if c == code {
			return Conflict(err)
		}
	}
	return err
}
