// vi: sw=4 ts=4:

/*

	Mnemonic:	codec
	Abstract:	The wire codec (§4.5): frames and parses the two interchangeable request
				encodings (legacy hex-serialised "dumper" lines and length-prefixed JSON)
				and emits matching responses.  Per-connection buffering follows the same
				shape jsontools.Jsoncache gives agent.go's agents -- accumulate bytes,
				hand back one complete record at a time -- but is written directly
				against the byte buffer here because dumper framing is newline-delimited
				text, not jsontools' length-prefixed JSON blobs.  jsontools is not
				imported: JSON-mode bodies are also cut straight out of recvBuf once
				pendingJsonBytes of them have arrived.
	Date:		2026
	Author:		rsvpd
*/

package gizmos

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var json_switch_re = regexp.MustCompile(`^json\s*(\d+)\s*$`)

/*
	ConnState is the per-connection state the codec needs: a byte buffer, the number of
	JSON-payload bytes still owed once a "json <n>" switch line has been consumed, and
	whether this connection has ever used JSON mode (sticky: once true, responses stay
	JSON framed for the life of the connection, per §4.5).
*/
type ConnState struct {
	recvBuf          []byte
	pendingJsonBytes int
	jsonMode         bool
}

func NewConnState() *ConnState {
	return &ConnState{}
}

func (cs *ConnState) AddBytes(b []byte) {
	cs.recvBuf = append(cs.recvBuf, b...)
}

func (cs *ConnState) JsonMode() bool {
	return cs.jsonMode
}

/*
	ParsedRequest is what one call to ParseRequest yields: either a (cmd, params) pair
	ready for the dispatcher, or a Response to send back immediately without dispatching
	(a malformed JSON-mode request, per §7's "unparseable JSON -> non-temporary error").
*/
type ParsedRequest struct {
	Cmd      string
	Params   map[string]interface{}
	Response *Response
}

/*
	ParseRequest consumes as much of cs.recvBuf as forms one complete request.  Returns
	(nil, false) when more bytes are needed.  Returns (nil, true) when a "json <n>" switch
	line was consumed (the body follows on the next call), or when a dumper-mode request
	was consumed but couldn't be decoded -- per §4.5 that request is dropped with a
	logged warning and no response at all.  Otherwise returns a
	*ParsedRequest with either Response set (send as-is) or Cmd/Params set (dispatch).
*/
func ParseRequest(cs *ConnState) (*ParsedRequest, bool) {
	if cs.pendingJsonBytes > 0 {
		if len(cs.recvBuf) < cs.pendingJsonBytes {
			return nil, false
		}
		body := cs.recvBuf[:cs.pendingJsonBytes]
		cs.recvBuf = cs.recvBuf[cs.pendingJsonBytes:]
		cs.pendingJsonBytes = 0

		return parseJsonBody(body), true
	}

	idx := bytes.IndexByte(cs.recvBuf, '\n')
	if idx < 0 {
		return nil, false
	}
	line := string(cs.recvBuf[:idx])
	cs.recvBuf = cs.recvBuf[idx+1:]

	if m := json_switch_re.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return &ParsedRequest{Cmd: "error", Response: Errorf(false, "malformed json mode switch: %s", line)}, true
		}
		cs.jsonMode = true
		cs.pendingJsonBytes = n
		return nil, true // caller should loop again; body may already be buffered
	}

	cmd, hexbody, found := strings.Cut(line, " ")
	if !found {
		obj_sheep.Baa(1, "WRN: codec: malformed dumper request line dropped: %s", line)
		return nil, true
	}

	raw, err := hex.DecodeString(strings.TrimSpace(hexbody))
	if err != nil {
		obj_sheep.Baa(1, "WRN: codec: non-hex dumper body for %s dropped", cmd)
		return nil, true
	}

	params, ok := decodeDumperParams(raw)
	if !ok {
		obj_sheep.Baa(1, "WRN: codec: could not decode dumper body for %s, dropped", cmd)
		return nil, true
	}

	return &ParsedRequest{Cmd: cmd, Params: params}, true
}

type jsonRequest struct {
	Cmd    string                 `json:"cmd"`
	Params map[string]interface{} `json:"params"`
}

func parseJsonBody(body []byte) *ParsedRequest {
	var jr jsonRequest
	if err := json.Unmarshal(body, &jr); err != nil {
		return &ParsedRequest{Cmd: "error", Response: Errorf(false, "unparseable json request: %s", err)}
	}
	if jr.Params == nil {
		jr.Params = map[string]interface{}{}
	}
	return &ParsedRequest{Cmd: jr.Cmd, Params: jr.Params}
}

/*
	decodeDumperParams is the read-only compatibility shim §4.5 asks for: it recognises
	one known simple shape -- a flat hash of string/number scalars, as Perl's
	Data::Dumper renders e.g. { 'host' => 'h1', 'expire' => 0 } -- and refuses (returns
	ok=false) anything with nested structure, since this daemon must never eval
	untrusted input to decode richer shapes (§9).
*/
func decodeDumperParams(raw []byte) (map[string]interface{}, bool) {
	s := string(raw)

	if strings.Count(s, "{") != 1 || strings.Count(s, "}") != 1 || strings.Contains(s, "[") {
		return nil, false
	}

	pairRe := regexp.MustCompile(`'([^']*)'\s*=>\s*('(?:[^']*)'|\d+)`)
	matches := pairRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil, false
	}

	params := make(map[string]interface{}, len(matches))
	for _, m := range matches {
		key, val := m[1], m[2]
		if strings.HasPrefix(val, "'") {
			params[key] = strings.Trim(val, "'")
		} else {
			params[key] = val // digits string; ParamInt64 etc. accept digit strings directly
		}
	}

	return params, true
}

/*
	EncodeResponse renders resp for cmd per cs's current mode: JSON framing
	"<cmd> <len>\n<json>" if the connection has ever switched to JSON mode, else dumper
	framing "<cmd> <hex>\n" followed by a literal "DONE\n".  The dumper body here is
	simply the hex encoding of the JSON response -- this daemon never needs to produce
	lossless legacy Data::Dumper output, only a self-describing, round-trippable one
	(§4.5's "the server never depends on lossless dumper round-trips").
*/
func EncodeResponse(cs *ConnState, cmd string, resp *Response) []byte {
	body, err := json.Marshal(resp)
	if err != nil {
		body = []byte(`{"type":"ERROR","message":"internal: could not encode response","data":null,"temporary":0}`)
	}

	if cs.jsonMode {
		var out bytes.Buffer
		out.WriteString(cmd)
		out.WriteByte(' ')
		out.WriteString(strconv.Itoa(len(body)))
		out.WriteByte('\n')
		out.Write(body)
		return out.Bytes()
	}

	var out bytes.Buffer
	out.WriteString(cmd)
	out.WriteByte(' ')
	out.WriteString(hex.EncodeToString(body))
	out.WriteByte('\n')
	out.WriteString("DONE\n")
	return out.Bytes()
}
