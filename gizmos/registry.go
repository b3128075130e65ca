// vi: sw=4 ts=4:

/*

	Mnemonic:	registry
	Abstract:	The in-memory model: a mapping from class name to Class and a mapping
				from host name to Host (§3).  The registry owns all Class and Host
				values exclusively; a Host references its Classes by identity resolved
				through the registry, never by value copy, to avoid the aliasing
				problems implicit in the on-disk snapshot format the original daemon
				used (§9).
	Date:		2026
	Author:		rsvpd
*/

package gizmos

import "sort"

const (
	DefaultHostClass    = "ALL"  // default class; used when add_host supplies no classes
	DefaultReserveClass = "FARM" // default reserve class; used when rsvp_class is given no class
)

/*
	Registry holds every Class and Host known to the daemon.
*/
type Registry struct {
	classes map[string]*Class
	hosts   map[string]*Host
}

func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]*Class),
		hosts:   make(map[string]*Host),
	}
}

func (r *Registry) Class(name string) *Class {
	return r.classes[name]
}

func (r *Registry) Host(name string) *Host {
	return r.hosts[name]
}

func (r *Registry) HasClass(name string) bool {
	_, ok := r.classes[name]
	return ok
}

func (r *Registry) HasHost(name string) bool {
	_, ok := r.hosts[name]
	return ok
}

func (r *Registry) PutClass(c *Class) {
	r.classes[c.Name()] = c
}

func (r *Registry) PutHost(h *Host) {
	r.hosts[h.Name()] = h
}

func (r *Registry) DeleteHost(name string) {
	delete(r.hosts, name)
}

func (r *Registry) DeleteClass(name string) {
	delete(r.classes, name)
}

/*
	Classes returns all registered classes ordered per §3 (member count ascending,
	then name ascending).
*/
func (r *Registry) Classes() []*Class {
	out := make([]*Class, 0, len(r.classes))
	for _, c := range r.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

/*
	Hosts returns all registered hosts ordered per §3 (default-reserve-class membership,
	then numeric suffix, then name).
*/
func (r *Registry) Hosts() []*Host {
	out := make([]*Host, 0, len(r.hosts))
	for _, h := range r.hosts {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j], DefaultReserveClass) })
	return out
}

/*
	RemoveClassFromHosts strips a deleted class out of every host's class list (part of
	delClass's cascade, §4.2).
*/
func (r *Registry) RemoveClassFromHosts(name string) {
	for _, h := range r.hosts {
		kept := make([]*Class, 0, len(h.Classes()))
		for _, c := range h.Classes() {
			if c.Name() != name {
				kept = append(kept, c)
			}
		}
		h.SetClasses(kept)
	}
}

/*
	RemoveClassFromComposites strips a deleted class out of the member list of every
	composite class (the other half of delClass's cascade).
*/
func (r *Registry) RemoveClassFromComposites(name string) {
	for _, c := range r.classes {
		if !c.IsComposite() {
			continue
		}
		kept := make([]*Class, 0, len(c.members))
		for _, m := range c.members {
			if m.Name() != name {
				kept = append(kept, m)
			}
		}
		c.members = kept
	}
}

/*
	HostsInClass returns every host currently belonging to the named class.
*/
func (r *Registry) HostsInClass(name string) []*Host {
	var out []*Host
	for _, h := range r.hosts {
		if h.HasClass(name) {
			out = append(out, h)
		}
	}
	return out
}

/*
	EnsureDefaults creates ALL and FARM if either is missing, per §4.4/§5.9.  Called once
	after LoadState at startup.
*/
func EnsureDefaults(r *Registry) {
	if !r.HasClass(DefaultHostClass) {
		c, _ := NewClass(DefaultHostClass, "default host class", nil)
		r.PutClass(c)
	}
	if !r.HasClass(DefaultReserveClass) {
		c, _ := NewClass(DefaultReserveClass, "default reservation class", nil)
		r.PutClass(c)
	}
}
