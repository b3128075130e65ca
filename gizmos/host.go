// vi: sw=4 ts=4:

/*

	Mnemonic:	host
	Abstract:	"object" that manages a host or resource and its reservation record,
				the direct descendant of Pledge in this codebase's lineage, but modeling
				an entire reservable thing rather than a single bandwidth pledge.
	Date:		2026
	Author:		rsvpd
*/

package gizmos

import (
	"regexp"
	"strconv"
)

var host_name_re = regexp.MustCompile(`^[\w.]+$`)
var host_suffix_re = regexp.MustCompile(`^(.*)-(\d+)$`)

const DeathUser = "DEATH"

/*
	Host is a named, reservable thing -- a pingable machine or a non-pingable resource --
	together with its current, pending (next-user) and snapshotted (pre-death) reservation
	state, exactly the fields listed in spec §3.
*/
type Host struct {
	name    string
	classes []*Class // at most one resource class, or only non-resource classes; never mixed

	user string
	expiry int64
	msg    string
	key    *string

	nextUser   string
	nextExpiry int64
	nextMsg    string

	oldUser   string
	oldExpiry int64
	oldMsg    string

	lastPingTime int64
	nextNotify   int64
}

/*
	Constructor.  Rejects a name that doesn't match [\w.]+.  Class-flavour checking
	(all resource XOR all non-resource, at most one resource class, no composite member)
	is the caller's job (the registry, which can see whether a class is a resource class
	and whether it is composite) -- see Engine.addHostOrResource.
*/
func NewHost(name string, classes []*Class, now int64) (*Host, error) {
	if !host_name_re.MatchString(name) {
		return nil, NewError("invalid host name: %s", name)
	}

	cp := make([]*Class, len(classes))
	copy(cp, classes)

	return &Host{name: name, classes: cp, lastPingTime: now}, nil
}

func (h *Host) Name() string {
	if h == nil {
		return ""
	}
	return h.name
}

func (h *Host) Classes() []*Class {
	if h == nil {
		return nil
	}
	return h.classes
}

func (h *Host) SetClasses(classes []*Class) {
	cp := make([]*Class, len(classes))
	copy(cp, classes)
	h.classes = cp
}

/*
	IsResource is true iff some class assigned to the host is a resource class.
*/
func (h *Host) IsResource() bool {
	for _, c := range h.classes {
		if c.IsResource() {
			return true
		}
	}
	return false
}

func (h *Host) HasClass(name string) bool {
	for _, c := range h.classes {
		if c.Name() == name {
			return true
		}
	}
	return false
}

func (h *Host) Reserved() bool {
	return h.user != ""
}

func (h *Host) Dead() bool {
	return h.user == DeathUser
}

func (h *Host) HasNextUser() bool {
	return h.nextUser != ""
}

func (h *Host) User() string        { return h.user }
func (h *Host) Expiry() int64       { return h.expiry }
func (h *Host) Msg() string         { return h.msg }
func (h *Host) NextUser() string    { return h.nextUser }
func (h *Host) NextExpiry() int64   { return h.nextExpiry }
func (h *Host) NextMsg() string     { return h.nextMsg }
func (h *Host) LastPingTime() int64 { return h.lastPingTime }
func (h *Host) NextNotify() int64   { return h.nextNotify }

func (h *Host) SetLastPingTime(t int64) { h.lastPingTime = t }
func (h *Host) SetNextNotify(t int64)   { h.nextNotify = t }

/*
	Key returns the bearer token required to release the reservation, or nil if none
	was set (a host reserved without a key can be released by its owner without a key
	or force).
*/
func (h *Host) Key() *string {
	return h.key
}

/*
	Reserve sets the reservation fields, clearing anything left over from a prior holder.
*/
func (h *Host) Reserve(user string, expiry int64, msg string, key *string) {
	h.user = user
	h.expiry = expiry
	h.msg = msg
	h.key = key
	h.nextUser, h.nextExpiry, h.nextMsg = "", 0, ""
	h.nextNotify = 0
}

/*
	ClearReservation wipes the reservation record entirely (used when there is no next
	user queued to promote).
*/
func (h *Host) ClearReservation() {
	h.user, h.expiry, h.msg, h.key = "", 0, "", nil
	h.nextUser, h.nextExpiry, h.nextMsg = "", 0, ""
}

/*
	PromoteNextUser moves the queued next-user reservation into the current slot, clearing
	the key (a promoted reservation has no key until its new owner sets one again -- the
	protocol has no way to supply one at add_next_user time) and the next-user fields.
	nextExpiry was stored as a duration (0 meaning forever), same convention rsvp_host
	uses, so it is resolved against now at the moment of promotion rather than at the
	moment it was queued.
*/
func (h *Host) PromoteNextUser(now int64) {
	h.user = h.nextUser
	if h.nextExpiry == 0 {
		h.expiry = 0
	} else {
		h.expiry = now + h.nextExpiry
	}
	h.msg = h.nextMsg
	h.key = nil
	h.nextUser, h.nextExpiry, h.nextMsg = "", 0, ""
}

func (h *Host) SetNextUser(user string, expiry int64, msg string) {
	h.nextUser, h.nextExpiry, h.nextMsg = user, expiry, msg
}

func (h *Host) ClearNextUser() {
	h.nextUser, h.nextExpiry, h.nextMsg = "", 0, ""
}

func (h *Host) SetExpiry(e int64) { h.expiry = e }
func (h *Host) SetMsg(m string)   { h.msg = m }

/*
	MarkDead snapshots the current reservation into the old* fields then sets the
	DEATH sentinel, per §4.7.
*/
func (h *Host) MarkDead(msg string) {
	h.oldUser, h.oldExpiry, h.oldMsg = h.user, h.expiry, h.msg
	h.user = DeathUser
	h.expiry = 0
	h.msg = msg
	h.key = nil
}

/*
	Revive restores the reservation snapshotted at the most recent MarkDead.
*/
func (h *Host) Revive() {
	h.user, h.expiry, h.msg = h.oldUser, h.oldExpiry, h.oldMsg
	h.oldUser, h.oldExpiry, h.oldMsg = "", 0, ""
}

/*
	Less implements the host ordering from §3: hosts in the default reservation class
	sort after hosts not in it; within a tie, (prefix)-(number) names sort by numeric
	suffix; otherwise by name.
*/
func (h *Host) Less(other *Host, defaultClass string) bool {
	hi, oi := h.HasClass(defaultClass), other.HasClass(defaultClass)
	if hi != oi {
		return oi // h (not in default class) sorts before other (in default class)
	}

	hm := host_suffix_re.FindStringSubmatch(h.name)
	om := host_suffix_re.FindStringSubmatch(other.name)
	if hm != nil && om != nil && hm[1] == om[1] {
		hn, herr := strconv.Atoi(hm[2])
		on, oerr := strconv.Atoi(om[2])
		if herr == nil && oerr == nil {
			return hn < on
		}
	}

	return h.name < other.name
}
