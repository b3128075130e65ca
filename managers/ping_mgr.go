// vi: sw=4 ts=4:

/*

	Mnemonic:	ping_mgr
	Abstract:	Drives the liveness loop (spec.md §4.7) on its own ticker. Runs the
				(possibly slow) resolve/probe collaborator calls on this goroutine, never
				on res_mgr's, then hands just the result back over the channel so the
				registry is only ever touched by the single writer.
	Date:		2026
	Author:		rsvpd
*/

package managers

import (
	"os"
	"time"

	"github.com/att/gopkgs/bleater"
	"github.com/att/gopkgs/ipc"
)

var pm_sheep *bleater.Bleater

/*
	Ping_mgr ticks every pingDelay seconds (default 60, per spec.md §6), asks res_mgr for
	the current non-resource host list, resolves and probes it through prober, and reports
	the outcome back for res_mgr to apply.
*/
func Ping_mgr(rm_ch chan *ipc.Chmsg, prober Prober, pingDelay int64) {
	pm_sheep = bleater.Mk_bleater(0, os.Stderr)
	pm_sheep.Set_prefix("ping_mgr")
	if rsvpd_sheep != nil {
		rsvpd_sheep.Add_child(pm_sheep)
	}

	if pingDelay <= 0 {
		pingDelay = 60
	}
	ticker := time.NewTicker(time.Duration(pingDelay) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		runPingCycle(rm_ch, prober)
	}
}

func runPingCycle(rm_ch chan *ipc.Chmsg, prober Prober) {
	cycleStart := time.Now().Unix()

	reply := make(chan *ipc.Chmsg)
	req := ipc.Mk_chmsg()
	req.Send_req(rm_ch, reply, REQ_HOSTLIST, nil, nil)
	resp := <-reply

	names, _ := resp.Response_data.([]string)
	if len(names) == 0 {
		return
	}

	resolved := make([]string, 0, len(names))
	for _, n := range names {
		if prober.Resolve(n) {
			resolved = append(resolved, n)
		} else {
			pm_sheep.Baa(1, "WRN: could not resolve %s, skipped this cycle", n)
		}
	}
	if len(resolved) == 0 {
		return
	}

	reachable := prober.Probe(resolved)

	result := &pingResult{CycleStart: cycleStart, Reachable: reachable}
	tmsg := ipc.Mk_chmsg()
	tmsg.Send_req(rm_ch, nil, REQ_PING_RESULT, result, nil)
}
