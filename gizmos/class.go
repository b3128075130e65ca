// vi: sw=4 ts=4:

/*

	Mnemonic:	class
	Abstract:	"object" that manages a reservation class, atomic or composite, the way
				Pledge managed a bandwidth reservation in the network-reservation daemon
				this code started life in.
	Date:		2026
	Author:		rsvpd
*/

package gizmos

import (
	"regexp"
)

var class_name_re = regexp.MustCompile(`^\w+$`)

/*
	Class is a named group of hosts.  Atomic classes are tags hung directly on hosts;
	composite classes are sets whose extension is the intersection of their members'
	extensions (see ContainsHost).  A resource class is a disjoint flavour: it tags
	resources (non-pingable things) rather than hosts and may never have members.
*/
type Class struct {
	name        string
	description string
	resource    bool
	members     []*Class // ordered; only present for composite classes
}

/*
	Constructor for an atomic or composite non-resource class.  members may be empty.
	Rejects a name that doesn't match \w+, and any member that is itself composite or
	a resource class (§4.2's addClass rules).
*/
func NewClass(name string, description string, members []*Class) (*Class, error) {
	if !class_name_re.MatchString(name) {
		return nil, NewError("invalid class name: %s", name)
	}

	for _, m := range members {
		if m == nil {
			return nil, NewError("class %s: missing member class", name)
		}
		if m.IsComposite() {
			return nil, NewError("class %s: member %s is itself composite", name, m.name)
		}
		if m.resource {
			return nil, NewError("class %s: member %s is a resource class", name, m.name)
		}
	}

	cp := make([]*Class, len(members))
	copy(cp, members)

	return &Class{name: name, description: description, members: cp}, nil
}

/*
	Constructor for a resource class.  Resource classes may not have members -- the
	parenthesisation bug in the source that made that guard always truthy (see spec §9)
	is not reproduced; this constructor takes no members argument at all, so a resource
	class is always built with an empty member list.
*/
func NewResourceClass(name string, description string) (*Class, error) {
	if !class_name_re.MatchString(name) {
		return nil, NewError("invalid class name: %s", name)
	}
	return &Class{name: name, description: description, resource: true}, nil
}

/*
	ComposeClasses builds a transient composite class out of already-registered atomic
	classes for the duration of a single class-expression evaluation (§4.3).  It is never
	inserted into the registry -- it borrows its members' identity, it doesn't own them.
*/
func ComposeClasses(members []*Class) *Class {
	cp := make([]*Class, len(members))
	copy(cp, members)
	return &Class{name: "", members: cp}
}

func (c *Class) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

func (c *Class) Description() string {
	if c == nil {
		return ""
	}
	return c.description
}

func (c *Class) IsResource() bool {
	return c != nil && c.resource
}

func (c *Class) IsComposite() bool {
	return c != nil && len(c.members) > 0
}

func (c *Class) Members() []*Class {
	if c == nil {
		return nil
	}
	return c.members
}

/*
	Equality is by name, per §3.
*/
func (c *Class) Equal(other *Class) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.name == other.name
}

/*
	Ordering: by member count ascending, then name ascending (§3).
*/
func (c *Class) Less(other *Class) bool {
	if len(c.members) != len(other.members) {
		return len(c.members) < len(other.members)
	}
	return c.name < other.name
}

/*
	ContainsHost implements §4.3's containsHost: true if the class is one of the host's
	classes by name, else -- if composite -- true iff every member contains the host
	(intersection semantics), else false.  The "falls through without a return" open
	question from spec §9 is resolved here as an explicit false.
*/
func (c *Class) ContainsHost(h *Host) bool {
	if c == nil || h == nil {
		return false
	}

	for _, hc := range h.Classes() {
		if hc.Equal(c) {
			return true
		}
	}

	if c.IsComposite() {
		for _, m := range c.members {
			if !m.ContainsHost(h) {
				return false
			}
		}
		return true
	}

	return false
}
