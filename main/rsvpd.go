// vi: sw=4 ts=4:

/*

	Mnemonic:	rsvpd
	Abstract:	The reservation daemon. Arbitrates exclusive, time-bounded reservations of
				hosts and resources among free-form user identities over a framed TCP
				protocol.

				Command line flags:
					--config <path>		-- optional section/key=value config file
					--statefile <path>	-- durable state file (hosts.state)
					--port <int>		-- listen port (1752)
					--pingdelay <int>	-- liveness probe interval, seconds (60)
					--notifyExpired		-- toggle expiry notifications (default on)
					--help				-- show usage
					--version			-- show version

	Date:		2026
	Author:		rsvpd
*/

package main

import (
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/att/gopkgs/bleater"
	"github.com/att/gopkgs/clike"
	"github.com/att/gopkgs/ipc"

	"github.com/edaniels/rsvpd/gizmos"
	"github.com/edaniels/rsvpd/managers"
)

const version = "1.0.0"

var sheep *bleater.Bleater

func usage() {
	fmt.Fprintf(os.Stdout, "rsvpd %s\n", version)
	fmt.Fprintf(os.Stdout, "usage: rsvpd [--config path] [--statefile path] [--port n] [--pingdelay secs] [--notifyExpired] [--help] [--version]\n")
}

func main() {
	var (
		cfg_file       = flag.String("config", "/etc/rsvpd/log.conf", "configuration file")
		state_file     = flag.String("statefile", "hosts.state", "durable state file")
		port           = flag.Int("port", 1752, "listen port")
		ping_delay     = flag.Int64("pingdelay", 60, "liveness probe interval, seconds")
		notify_expired = flag.Bool("notifyExpired", true, "send expiry notifications")
		verbose        = flag.Bool("v", false, "verbose")
		needs_help     = flag.Bool("help", false, "show usage")
		show_version   = flag.Bool("version", false, "show version")

		wgroup sync.WaitGroup
	)

	flag.Parse()

	if *needs_help {
		usage()
		os.Exit(1)
	}
	if *show_version {
		fmt.Fprintf(os.Stdout, "rsvpd %s\n", version)
		os.Exit(1)
	}

	sheep = bleater.Mk_bleater(0, os.Stderr)
	sheep.Set_prefix("rsvpd")
	sheep.Add_child(gizmos.Get_sheep())

	if *verbose {
		sheep.Set_level(1)
	}

	if err := managers.Initialise(sheep, *cfg_file); err != nil {
		sheep.Baa(0, "ERR: unable to initialise: %s", err)
		os.Exit(1)
	}

	dead_time := int64(120)
	if v := managers.ConfigString("resmgr", "dead_time", ""); v != "" {
		dead_time = clike.Atoll(v)
	}
	notify_interval := int64(6 * 60 * 60)
	if v := managers.ConfigString("resmgr", "notify_interval", ""); v != "" {
		notify_interval = clike.Atoll(v)
	}

	// conn/ping_delay only overrides the flag's own default -- an explicit --pingdelay
	// on the command line always wins.
	pingdelay_set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "pingdelay" {
			pingdelay_set = true
		}
	})
	if !pingdelay_set {
		if v := managers.ConfigString("conn", "ping_delay", ""); v != "" {
			*ping_delay = clike.Atoll(v)
		}
	}

	sheep.Baa(1, "rsvpd %s started, state file %s, port %d", version, *state_file, *port)

	rm_ch := make(chan *ipc.Chmsg, 256)

	go managers.Res_manager(rm_ch, *state_file, dead_time, notify_interval, managers.LogNotifier{})
	go managers.Ping_mgr(rm_ch, managers.SynProber{}, *ping_delay)
	go managers.Expiry_mgr(rm_ch, *notify_expired)
	go managers.Conn_mgr(fmt.Sprintf("%d", *port), rm_ch)

	wgroup.Add(1) // nothing ever decrements this: the daemon runs until killed
	wgroup.Wait()
	os.Exit(0)
}
