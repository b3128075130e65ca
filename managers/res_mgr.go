// vi: sw=4 ts=4:

/*

	Mnemonic:	res_mgr
	Abstract:	Owns the reservation registry. Executed as a goroutine; every command the
				wire codec decodes, every liveness-probe result, and every expiry-scan tick
				funnel through its one channel so no two goroutines ever touch the registry
				at once -- the single-writer actor spec.md §5 requires of a reimplementation
				that isn't literally one OS thread.
	Date:		2026
	Author:		rsvpd
*/

package managers

import (
	"fmt"
	"os"
	"time"

	"github.com/att/gopkgs/bleater"
	"github.com/att/gopkgs/ipc"

	"github.com/edaniels/rsvpd/gizmos"
)

const (
	REQ_NOOP = iota
	REQ_DISPATCH
	REQ_HOSTLIST
	REQ_PING_RESULT
	REQ_EXPIRE_SCAN
)

var rm_sheep *bleater.Bleater

/*
	dispatchReq carries a decoded client command into the res-mgr goroutine.
*/
type dispatchReq struct {
	Cmd    string
	Params map[string]interface{}
}

/*
	pingResult is what ping_mgr reports back after a liveness cycle: the wall-clock the
	cycle started at, and which of the names it was given answered within its window.
	Names it couldn't resolve never appear in Reachable.
*/
type pingResult struct {
	CycleStart int64
	Reachable  map[string]bool
}

/*
	Res_manager is the reservation manager's main goroutine. statePath is the durable
	state file; deadTime and notifyInterval are seconds (defaults 120 and 21600 per
	spec.md §4.7/§4.8); notifier delivers next-user handoff and expiry notifications.
*/
func Res_manager(my_chan chan *ipc.Chmsg, statePath string, deadTime int64, notifyInterval int64, notifier Notifier) {
	rm_sheep = bleater.Mk_bleater(0, os.Stderr)
	rm_sheep.Set_prefix("res_mgr")
	if rsvpd_sheep != nil {
		rsvpd_sheep.Add_child(rm_sheep)
	}

	reg, err := gizmos.LoadState(statePath)
	if err != nil {
		rm_sheep.Baa(0, "CRI: res_mgr: unable to load state file %s: %s", statePath, err)
		panic(fmt.Sprintf("res_mgr: unrecoverable state load failure: %s", err))
	}
	gizmos.EnsureDefaults(reg)

	eng := gizmos.NewEngine(reg)

	persist := func() {
		if err := gizmos.SaveState(statePath, eng.Reg); err != nil {
			rm_sheep.Baa(0, "CRI: res_mgr: state file write failed: %s", err)
			panic(fmt.Sprintf("res_mgr: unrecoverable state write failure: %s", err))
		}
	}

	rm_sheep.Baa(1, "res_mgr is running, state file %s", statePath)

	for {
		msg := <-my_chan
		msg.State = nil

		switch msg.Msg_type {
		case REQ_NOOP:

		case REQ_DISPATCH:
			req := msg.Req_data.(*dispatchReq)
			now := time.Now().Unix()

			notify := func(user string, h *gizmos.Host) {
				if err := notifier.Chat(user, "reservation handoff", fmt.Sprintf("%s is now reserved for you", h.Name())); err != nil {
					rm_sheep.Baa(1, "WRN: next-user notification failed for %s: %s", user, err)
				}
			}

			resp := Dispatch(eng, now, notify, nil, req.Cmd, req.Params)
			msg.Response_data = resp

			if resp.Type == gizmos.RespSuccess && !readOnlyCommands[req.Cmd] {
				persist()
			}

		case REQ_HOSTLIST:
			var names []string
			for _, h := range eng.Reg.Hosts() {
				if !h.IsResource() {
					names = append(names, h.Name())
				}
			}
			msg.Response_data = names

		case REQ_PING_RESULT:
			res := msg.Req_data.(*pingResult)
			changed := applyPingResult(eng, res, deadTime)
			if changed {
				persist()
			}

		case REQ_EXPIRE_SCAN:
			now := time.Now().Unix()
			changed := scanExpired(eng, now, notifyInterval, notifier)
			if changed {
				persist()
			}

		default:
			rm_sheep.Baa(0, "WRN: res_mgr: unknown message type: %d", msg.Msg_type)
		}

		if msg.Response_ch != nil {
			msg.Response_ch <- msg
		}
	}
}

/*
	applyPingResult implements the second half of spec.md §4.7: hosts that answered have
	their lastPingTime bumped (and are revived if they were dead); hosts that are
	non-resource, unreserved, not already dead, and silent for more than deadTime since
	their last successful ping are marked dead. Returns whether anything changed.
*/
func applyPingResult(eng *gizmos.Engine, res *pingResult, deadTime int64) bool {
	changed := false

	for name, ok := range res.Reachable {
		if !ok {
			continue
		}
		h := eng.Reg.Host(name)
		if h == nil || h.IsResource() {
			continue
		}
		h.SetLastPingTime(res.CycleStart)
		changed = true
		if h.Dead() {
			h.Revive()
			rm_sheep.Baa(1, "revived %s after successful ping", name)
		}
	}

	for _, h := range eng.Reg.Hosts() {
		if h.IsResource() || h.Reserved() || h.Dead() {
			continue
		}
		if h.LastPingTime() > 0 && res.CycleStart-h.LastPingTime() > deadTime {
			h.MarkDead(fmt.Sprintf("Lost contact at: %s", time.Unix(res.CycleStart, 0).Format(time.ANSIC)))
			rm_sheep.Baa(1, "marked %s dead, silent for %ds", h.Name(), res.CycleStart-h.LastPingTime())
			changed = true
		}
	}

	return changed
}

/*
	scanExpired implements spec.md §4.8: every reserved host past its expiry gets a
	rate-limited chat notification (and, on the very first notification, an email too),
	without ever touching user/expiry/the reservation itself.
*/
func scanExpired(eng *gizmos.Engine, now int64, notifyInterval int64, notifier Notifier) bool {
	changed := false

	for _, h := range eng.Reg.Hosts() {
		if !h.Reserved() || h.Expiry() == 0 || h.Expiry() > now {
			continue
		}
		if h.NextNotify() > now {
			continue
		}

		firstNotice := h.NextNotify() == 0
		h.SetNextNotify(now + notifyInterval)
		changed = true

		if h.Dead() {
			continue
		}

		body := fmt.Sprintf("reservation on %s for %s expired at %s", h.Name(), h.User(), time.Unix(h.Expiry(), 0).Format(time.ANSIC))
		if err := notifier.Chat(h.User(), "reservation expired", body); err != nil {
			rm_sheep.Baa(1, "WRN: expiry chat notification failed for %s: %s", h.Name(), err)
		}
		if firstNotice {
			if err := notifier.Mail("rsvpd", h.User(), "reservation expired", body); err != nil {
				rm_sheep.Baa(1, "WRN: expiry mail notification failed for %s: %s", h.Name(), err)
			}
		}
	}

	return changed
}
