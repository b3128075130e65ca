// vi: sw=4 ts=4:

/*

	Mnemonic:	init
	Abstract:	Package-wide state shared by every manager goroutine: the master bleater
				every subsystem's own sheep is added as a child of, and the config-file
				derived section/key table, exactly the cfg_data map[string]map[string]*string
				shape res_mgr.go/network.go/agent.go read their tunables from.
	Date:		2026
	Author:		rsvpd
*/

package managers

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/att/gopkgs/bleater"
)

var (
	rsvpd_sheep *bleater.Bleater
	cfg_data    map[string]map[string]*string
)

/*
	Initialise sets up the package environment: attaches to the caller's master sheep so a
	single verbosity bump cascades to every manager, and loads an optional config file of
	"section/key=value" lines (blank lines and lines starting with # ignored). A missing
	config file is not an error -- an empty table is used and every manager falls back to
	its own defaults.
*/
func Initialise(master *bleater.Bleater, cfg_file string) error {
	rsvpd_sheep = master
	cfg_data = make(map[string]map[string]*string)

	if cfg_file == "" {
		return nil
	}

	f, err := os.Open(cfg_file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("unable to open config file %s: %s", cfg_file, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		eq := strings.Index(line, "=")
		if eq < 0 {
			return fmt.Errorf("%s:%d: malformed config line (expected section/key=value): %s", cfg_file, lineno, line)
		}
		skey, val := strings.TrimSpace(line[:eq]), strings.TrimSpace(line[eq+1:])

		slash := strings.Index(skey, "/")
		if slash < 0 {
			return fmt.Errorf("%s:%d: malformed config key (expected section/key): %s", cfg_file, lineno, skey)
		}
		section, key := skey[:slash], skey[slash+1:]

		if cfg_data[section] == nil {
			cfg_data[section] = make(map[string]*string)
		}
		v := val
		cfg_data[section][key] = &v
	}

	return scanner.Err()
}

/*
	cfg_string returns the configured override for section/key, or def if unset.
*/
func cfg_string(section, key, def string) string {
	if cfg_data[section] == nil {
		return def
	}
	if p := cfg_data[section][key]; p != nil {
		return *p
	}
	return def
}

/*
	ConfigString exposes cfg_string to callers outside the package -- main reads
	resmgr/dead_time, resmgr/notify_interval and conn/ping_delay through it to let an
	operator override those tunables without a recompile.
*/
func ConfigString(section, key, def string) string {
	return cfg_string(section, key, def)
}
