// vi: sw=4 ts=4:

/*

	Mnemonic:	conn_mgr
	Abstract:	The connection server (spec.md §4.6): one select loop over connman's
				session events, modeled directly on agent.go's Agent_mgr -- connman turns
				raw non-blocking socket I/O into a channel of ST_NEW/ST_DATA/ST_DISC events,
				and this loop is the only thing that ever calls into the wire codec.
	Date:		2026
	Author:		rsvpd
*/

package managers

import (
	"os"
	"time"

	"github.com/att/gopkgs/bleater"
	"github.com/att/gopkgs/connman"
	"github.com/att/gopkgs/ipc"

	"github.com/edaniels/rsvpd/gizmos"
)

var cm_sheep *bleater.Bleater

const (
	writeRetryAttempts = 50
	writeRetryDelay    = 100 * time.Millisecond
)

/*
	Conn_mgr listens on port and drives the wire protocol for every connected client,
	dispatching decoded commands to rm_ch and writing back the encoded response.
*/
func Conn_mgr(port string, rm_ch chan *ipc.Chmsg) {
	cm_sheep = bleater.Mk_bleater(0, os.Stderr)
	cm_sheep.Set_prefix("conn_mgr")
	if rsvpd_sheep != nil {
		rsvpd_sheep.Add_child(cm_sheep)
	}

	conns := make(map[string]*gizmos.ConnState)

	sess_chan := make(chan *connman.Sess_data, 1024)
	smgr := connman.NewManager(port, sess_chan)

	cm_sheep.Baa(1, "listening on port %s", port)

	for sreq := range sess_chan {
		switch sreq.State {
		case connman.ST_ACCEPTED:

		case connman.ST_NEW:
			conns[sreq.Id] = gizmos.NewConnState()
			cm_sheep.Baa(2, "new connection: %s", sreq.Id)

		case connman.ST_DISC:
			cm_sheep.Baa(2, "connection closed: %s", sreq.Id)
			delete(conns, sreq.Id)

		case connman.ST_DATA:
			cs, known := conns[sreq.Id]
			if !known {
				cm_sheep.Baa(1, "WRN: data from unregistered connection %s ignored", sreq.Id)
				continue
			}
			cs.AddBytes(sreq.Buf)
			drainRequests(smgr, rm_ch, sreq.Id, cs)
		}
	}
}

/*
	drainRequests consumes as many complete requests as cs currently buffers, dispatching
	each and sending its encoded response before moving to the next -- responses on one
	connection are emitted in arrival order, per spec.md §5.
*/
func drainRequests(smgr *connman.Cmgr, rm_ch chan *ipc.Chmsg, id string, cs *gizmos.ConnState) {
	for {
		parsed, ok := gizmos.ParseRequest(cs)
		if !ok {
			return
		}
		if parsed == nil {
			continue // json switch line consumed, or dumper-mode request dropped per spec.md §4.5; no response
		}

		if parsed.Response != nil {
			sendResponse(smgr, id, cs, parsed.Cmd, parsed.Response)
			continue
		}

		reply := make(chan *ipc.Chmsg)
		req := ipc.Mk_chmsg()
		req.Send_req(rm_ch, reply, REQ_DISPATCH, &dispatchReq{Cmd: parsed.Cmd, Params: parsed.Params}, nil)
		result := <-reply

		resp, ok := result.Response_data.(*gizmos.Response)
		if !ok || resp == nil {
			resp = gizmos.ErrorResponse(gizmos.NewError("internal: no response produced for %s", parsed.Cmd))
		}
		sendResponse(smgr, id, cs, parsed.Cmd, resp)
	}
}

func sendResponse(smgr *connman.Cmgr, id string, cs *gizmos.ConnState, cmd string, resp *gizmos.Response) {
	wire := gizmos.EncodeResponse(cs, cmd, resp)
	if !writeWithRetry(smgr, id, wire) {
		cm_sheep.Baa(1, "WRN: giving up writing response to %s for %s after %d attempts", id, cmd, writeRetryAttempts)
	}
}

/*
	writeWithRetry wraps connman's Write with the retry budget spec.md §4.6 asks the
	server to enforce itself (50 attempts, 100ms) regardless of how connman buffers
	internally. Gives up (and the caller drops the response) once the budget is spent.
*/
func writeWithRetry(smgr *connman.Cmgr, id string, data []byte) bool {
	for attempt := 0; attempt < writeRetryAttempts; attempt++ {
		if err := smgr.Write(id, data); err == nil {
			return true
		} else if attempt == writeRetryAttempts-1 {
			return false
		}
		time.Sleep(writeRetryDelay)
	}
	return false
}
