// vi: sw=4 ts=4:

/*

	Mnemonic:	expiry_mgr
	Abstract:	Drives the expiry-notification loop (spec.md §4.8) on a 1-second ticker,
				matching the "if the wall clock has advanced by >=1s, run the expiry scan"
				cadence of the single-threaded event loop this splits out of. A no-op when
				notifyExpired is false.
	Date:		2026
	Author:		rsvpd
*/

package managers

import (
	"time"

	"github.com/att/gopkgs/ipc"
)

/*
	Expiry_mgr ticks every second and tickles res_mgr to run its expiry scan. It carries
	no state of its own -- res_mgr owns nextNotify on every host.
*/
func Expiry_mgr(rm_ch chan *ipc.Chmsg, notifyExpired bool) {
	if !notifyExpired {
		return
	}

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		msg := ipc.Mk_chmsg()
		msg.Send_req(rm_ch, nil, REQ_EXPIRE_SCAN, nil, nil)
	}
}
