// vi: sw=4 ts=4:

/*

	Mnemonic:	response
	Abstract:	The Response object that every dispatched command produces exactly one of,
				per the wire protocol (§4.5): type success|ERROR, message, data, temporary.
	Date:		2026
	Author:		rsvpd
*/

package gizmos

import (
	"encoding/json"
	"fmt"
)

/*
	Response is what dispatch() produces for every request; the wire codec marshals it
	as-is into either the dumper or the JSON framing.  Temporary is a bool in Go but rides
	the wire as 0/1 (§6's example shows "temporary":0, not a JSON boolean) -- see
	MarshalJSON/UnmarshalJSON below.
*/
type Response struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Temporary bool        `json:"-"`
}

/*
	responseWire is Response's on-the-wire shape: identical except Temporary is an int,
	matching the legacy 0/1 convention rather than Go's native JSON boolean encoding.
*/
type responseWire struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Temporary int         `json:"temporary"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	w := responseWire{Type: r.Type, Message: r.Message, Data: r.Data}
	if r.Temporary {
		w.Temporary = 1
	}
	return json.Marshal(w)
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var w responseWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Type, r.Message, r.Data = w.Type, w.Message, w.Data
	r.Temporary = w.Temporary != 0
	return nil
}

const (
	RespSuccess = "success"
	RespError   = "ERROR"
)

/*
	Build a success response carrying the given message and data (data may be nil).
*/
func Success(data interface{}, format string, args ...interface{}) *Response {
	return &Response{Type: RespSuccess, Message: fmt.Sprintf(format, args...), Data: data}
}

/*
	Build an error response from an OpError (or a plain error, treated as permanent).
*/
func ErrorResponse(err error) *Response {
	oe := AsOpError(err)
	return &Response{Type: RespError, Message: oe.Error(), Temporary: oe.Temporary()}
}

/*
	Build an error response directly from a message, bypassing the OpError dance; used
	by the dispatcher and codec for malformed-request errors that never reach the engine.
*/
func Errorf(temporary bool, format string, args ...interface{}) *Response {
	return &Response{Type: RespError, Message: fmt.Sprintf(format, args...), Temporary: temporary}
}
