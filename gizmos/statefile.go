// vi: sw=4 ts=4:

/*

	Mnemonic:	statefile
	Abstract:	Durable state: loads the registry from a file at startup and rewrites it
				atomically after every mutation, the same temp-file-then-rename mechanics
				chkpt.Create/Close used for the network reservation checkpoint, but over a
				single JSON snapshot of the whole model rather than an appendable per-pledge
				log, since §4.4 requires the *entire* model to round-trip, not a log of it.
	Date:		2026
	Author:		rsvpd
*/

package gizmos

import (
	"encoding/json"
	"os"
)

/*
	classSnapshot/hostSnapshot are the on-disk shapes; classes and hosts reference each
	other by name in the snapshot (never by embedding), which is how LoadState avoids the
	aliasing problem noted in §9 -- every Class and Host is resolved through the registry
	exactly once as it's reconstructed.
*/
type classSnapshot struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Resource    bool     `json:"resource"`
	Members     []string `json:"members,omitempty"`
}

type hostSnapshot struct {
	Name    string   `json:"name"`
	Classes []string `json:"classes"`

	User string `json:"user,omitempty"`
	Expiry int64 `json:"expiry,omitempty"`
	Msg    string `json:"msg,omitempty"`
	Key    *string `json:"key,omitempty"`

	NextUser   string `json:"nextUser,omitempty"`
	NextExpiry int64  `json:"nextExpiry,omitempty"`
	NextMsg    string `json:"nextMsg,omitempty"`

	OldUser   string `json:"oldUser,omitempty"`
	OldExpiry int64  `json:"oldExpiry,omitempty"`
	OldMsg    string `json:"oldMsg,omitempty"`

	LastPingTime int64 `json:"lastPingTime,omitempty"`
	NextNotify   int64 `json:"nextNotify,omitempty"`
}

type stateSnapshot struct {
	Classes []classSnapshot `json:"classes"`
	Hosts   []hostSnapshot  `json:"hosts"`
}

func snapshotRegistry(reg *Registry) *stateSnapshot {
	s := &stateSnapshot{}

	for _, c := range reg.Classes() {
		cs := classSnapshot{Name: c.Name(), Description: c.Description(), Resource: c.IsResource()}
		for _, m := range c.Members() {
			cs.Members = append(cs.Members, m.Name())
		}
		s.Classes = append(s.Classes, cs)
	}

	for _, h := range reg.Hosts() {
		hs := hostSnapshot{
			Name:         h.Name(),
			User:         h.User(),
			Expiry:       h.Expiry(),
			Msg:          h.Msg(),
			Key:          h.Key(),
			NextUser:     h.NextUser(),
			NextExpiry:   h.NextExpiry(),
			NextMsg:      h.NextMsg(),
			OldUser:      h.oldUser,
			OldExpiry:    h.oldExpiry,
			OldMsg:       h.oldMsg,
			LastPingTime: h.LastPingTime(),
			NextNotify:   h.NextNotify(),
		}
		for _, c := range h.Classes() {
			hs.Classes = append(hs.Classes, c.Name())
		}
		s.Hosts = append(s.Hosts, hs)
	}

	return s
}

/*
	restoreRegistry rebuilds a Registry from a snapshot.  Classes are created first (in
	two passes so composite-looking member references resolve, though in practice only
	atomic classes are ever persisted as host/member references); hosts are resolved
	against the freshly built class table.
*/
func restoreRegistry(s *stateSnapshot) (*Registry, error) {
	reg := NewRegistry()

	for _, cs := range s.Classes {
		if cs.Resource {
			c, err := NewResourceClass(cs.Name, cs.Description)
			if err != nil {
				return nil, err
			}
			reg.PutClass(c)
		} else {
			reg.PutClass(&Class{name: cs.Name, description: cs.Description})
		}
	}

	for _, cs := range s.Classes {
		if len(cs.Members) == 0 {
			continue
		}
		c := reg.Class(cs.Name)
		for _, mn := range cs.Members {
			m := reg.Class(mn)
			if m == nil {
				return nil, NewError("state file: class %s references missing member %s", cs.Name, mn)
			}
			c.members = append(c.members, m)
		}
	}

	for _, hs := range s.Hosts {
		classes := make([]*Class, 0, len(hs.Classes))
		for _, cn := range hs.Classes {
			c := reg.Class(cn)
			if c == nil {
				return nil, NewError("state file: host %s references missing class %s", hs.Name, cn)
			}
			classes = append(classes, c)
		}

		h := &Host{
			name:         hs.Name,
			classes:      classes,
			user:         hs.User,
			expiry:       hs.Expiry,
			msg:          hs.Msg,
			key:          hs.Key,
			nextUser:     hs.NextUser,
			nextExpiry:   hs.NextExpiry,
			nextMsg:      hs.NextMsg,
			oldUser:      hs.OldUser,
			oldExpiry:    hs.OldExpiry,
			oldMsg:       hs.OldMsg,
			lastPingTime: hs.LastPingTime,
			nextNotify:   hs.NextNotify,
		}
		reg.PutHost(h)
	}

	return reg, nil
}

/*
	SaveState writes the entire model to <path>.new then renames it over path, so a
	reader never observes a partial file (§4.4).
*/
func SaveState(path string, reg *Registry) error {
	snap := snapshotRegistry(reg)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".new"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err = f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

/*
	LoadState loads the model from path.  A missing file is not an error -- it yields an
	empty registry, per §4.4 ("otherwise create an empty model").
*/
func LoadState(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRegistry(), nil
		}
		return nil, err
	}

	var snap stateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}

	return restoreRegistry(&snap)
}
