// vi: sw=4 ts=4:

/*

	Mnemonic:	errors
	Abstract:	Error type for the reservation engine that carries the temporary/permanent
				hint described for the wire protocol's error responses, the way Pledge's
				getter methods carried state out of the object without exposing fields.
	Date:		2026
	Author:		rsvpd
*/

package gizmos

import "fmt"

/*
	OpError is the error type this package's constructors and validation helpers return;
	the engine's operations turn it into an error Response via ErrorResponse.  temp is the
	two-valued retry hint the wire protocol needs (see §7); it is not a full taxonomy of
	error kinds -- callers needing more structure should match on the message text, same
	as the rest of this codebase does for policy/not-found distinctions.
*/
type OpError struct {
	msg  string
	temp bool
}

/*
	Build a permanent (non-retryable) error.
*/
func NewError(format string, args ...interface{}) *OpError {
	return &OpError{msg: fmt.Sprintf(format, args...)}
}

/*
	Build a temporary (retryable) error.
*/
func NewTempError(format string, args ...interface{}) *OpError {
	return &OpError{msg: fmt.Sprintf(format, args...), temp: true}
}

func (e *OpError) Error() string {
	if e == nil {
		return ""
	}
	return e.msg
}

/*
	Returns true if the client may retry the request that produced this error.
*/
func (e *OpError) Temporary() bool {
	if e == nil {
		return false
	}
	return e.temp
}

/*
	AsOpError unwraps err into an *OpError, synthesising a permanent one if the error
	didn't originate from this package (defensive only; this package's own errors are
	all *OpError).
*/
func AsOpError(err error) *OpError {
	if err == nil {
		return nil
	}
	if oe, ok := err.(*OpError); ok {
		return oe
	}
	return NewError("%s", err.Error())
}
