// vi: sw=4 ts=4:

/*

	Mnemonic:	reservation
	Abstract:	The reservation engine: every operation that mutates class or host state,
				and the invariants spec §4.2 asks every reserving operation to enforce.
				This is the direct analogue of res_mgr.go's Inventory, generalised from
				a single bandwidth-pledge cache to the full class/host reservation model.
	Date:		2026
	Author:		rsvpd
*/

package gizmos

import (
	"math/rand"
	"regexp"
	"strings"
)

/*
	Engine wraps the registry with the mutating operations the dispatcher calls.  It
	holds no locks: spec §5 requires a single writer, enforced by callers (managers.Res_manager
	runs every Engine method from one goroutine).
*/
type Engine struct {
	Reg *Registry
}

func NewEngine(reg *Registry) *Engine {
	return &Engine{Reg: reg}
}

// ---- shared validation helpers --------------------------------------------------------

/*
	checkUser enforces §4.2's general rule: user must be non-empty and not "root".
*/
func checkUser(user string) *OpError {
	if user == "" {
		return NewError("user name is required")
	}
	if user == "root" {
		return NewError("user root may not reserve")
	}
	return nil
}

// ---- class operations ------------------------------------------------------------------

/*
	AddClass implements add_class: rejects duplicate names, bad name formats, and member
	lists naming a missing or resource class (members must already be registered atomic,
	non-resource classes) -- §4.2.
*/
func (e *Engine) AddClass(params map[string]interface{}) *Response {
	name, _ := ParamString(params, "class")
	desc, _ := ParamString(params, "description")
	memberNames, _ := ParamStringSlice(params, "members")

	if e.Reg.HasClass(name) {
		return ErrorResponse(NewError("class %s already exists", name))
	}

	members := make([]*Class, 0, len(memberNames))
	for _, mn := range memberNames {
		m := e.Reg.Class(mn)
		if m == nil {
			return ErrorResponse(NewError("no such class: %s", mn))
		}
		members = append(members, m)
	}

	c, err := NewClass(name, desc, members)
	if err != nil {
		return ErrorResponse(err)
	}

	e.Reg.PutClass(c)
	return Success(nil, "added class %s", name)
}

/*
	AddResourceClass implements add_resource_class.  Resource classes never have members
	(the source's always-truthy member-count guard is NOT reproduced -- see spec §9).
*/
func (e *Engine) AddResourceClass(params map[string]interface{}) *Response {
	name, _ := ParamString(params, "class")
	desc, _ := ParamString(params, "description")

	if e.Reg.HasClass(name) {
		return ErrorResponse(NewError("class %s already exists", name))
	}

	c, err := NewResourceClass(name, desc)
	if err != nil {
		return ErrorResponse(err)
	}

	e.Reg.PutClass(c)
	return Success(nil, "added resource class %s", name)
}

/*
	DelClass implements del_class: ALL may never be deleted; the class is stripped from
	every host and from every composite's member list; if it was a resource class, every
	host (resource) belonging to it is deleted too and named in the success message.
*/
func (e *Engine) DelClass(params map[string]interface{}) *Response {
	name, _ := ParamString(params, "class")

	if name == DefaultHostClass {
		return ErrorResponse(NewError("class %s may not be deleted", DefaultHostClass))
	}

	c := e.Reg.Class(name)
	if c == nil {
		return ErrorResponse(NewError("no such class: %s", name))
	}

	var deleted []string
	if c.IsResource() {
		for _, h := range e.Reg.HostsInClass(name) {
			deleted = append(deleted, h.Name())
			e.Reg.DeleteHost(h.Name())
		}
	}

	e.Reg.RemoveClassFromHosts(name)
	e.Reg.RemoveClassFromComposites(name)
	e.Reg.DeleteClass(name)

	if len(deleted) > 0 {
		return Success(deleted, "deleted class %s and its resources: %s", name, strings.Join(deleted, ", "))
	}
	return Success(nil, "deleted class %s", name)
}

/*
	ListClasses implements list_classes.  The optional "class" filter, when non-empty,
	restricts the listing to that single class.
*/
func (e *Engine) ListClasses(params map[string]interface{}) *Response {
	filter, _ := ParamString(params, "class")

	var classes []*Class
	if filter != "" {
		c := e.Reg.Class(filter)
		if c == nil {
			return ErrorResponse(NewError("no such class: %s", filter))
		}
		classes = []*Class{c}
	} else {
		classes = e.Reg.Classes()
	}

	data := make([]interface{}, 0, len(classes))
	for _, c := range classes {
		desc := c.Description()
		if desc == "" {
			desc = " "
		}
		row := []interface{}{c.Name(), desc, c.IsResource()}
		for _, m := range c.Members() {
			row = append(row, m.Name())
		}
		data = append(data, row)
	}

	return Success(data, "%d class(es)", len(data))
}

// ---- host/resource operations -----------------------------------------------------------

/*
	addHostOrResource is the shared implementation of add_host and add_resource (§4.2).
	isResourceCmd selects which command's semantics apply: add_resource requires the
	named class to be a resource class and creates exactly one class membership; add_host
	defaults to ALL when no classes are supplied and rejects resource classes.
*/
func (e *Engine) addHostOrResource(name string, classNames []string, isResourceCmd bool, now int64) *Response {
	if e.Reg.HasHost(name) {
		return ErrorResponse(NewError("%s already exists", name))
	}
	if !host_name_re.MatchString(name) {
		return ErrorResponse(NewError("invalid host name: %s", name))
	}

	if len(classNames) == 0 {
		if isResourceCmd {
			return ErrorResponse(NewError("class is required for a resource"))
		}
		classNames = []string{DefaultHostClass}
	}

	classes := make([]*Class, 0, len(classNames))
	for _, cn := range classNames {
		c := e.Reg.Class(cn)
		if c == nil {
			return ErrorResponse(NewError("no such class: %s", cn))
		}
		if c.IsComposite() {
			return ErrorResponse(NewError("class %s is composite and cannot be assigned to a host", cn))
		}
		if isResourceCmd != c.IsResource() {
			return ErrorResponse(NewError("class %s flavour mismatch for %s", cn, name))
		}
		classes = append(classes, c)
	}

	if isResourceCmd && len(classes) != 1 {
		return ErrorResponse(NewError("a resource may belong to exactly one resource class"))
	}

	h, err := NewHost(name, classes, now)
	if err != nil {
		return ErrorResponse(err)
	}

	e.Reg.PutHost(h)
	return Success(nil, "added %s", name)
}

func (e *Engine) AddHost(params map[string]interface{}, now int64) *Response {
	name, _ := ParamString(params, "host")
	classes, _ := ParamStringSlice(params, "classes")
	return e.addHostOrResource(name, classes, false, now)
}

func (e *Engine) AddResource(params map[string]interface{}, now int64) *Response {
	name, _ := ParamString(params, "resource")
	class, hasClass := ParamString(params, "class")
	var classes []string
	if hasClass {
		classes = []string{class}
	}
	return e.addHostOrResource(name, classes, true, now)
}

/*
	DelHost implements del_host.  The data model doesn't distinguish hosts from resources
	once stored, so this one handler deletes either; there is no separate del_resource
	command.
*/
func (e *Engine) DelHost(params map[string]interface{}) *Response {
	name, _ := ParamString(params, "host")
	if !e.Reg.HasHost(name) {
		return ErrorResponse(NewError("no such host: %s", name))
	}
	e.Reg.DeleteHost(name)
	return Success(nil, "deleted %s", name)
}

/*
	ModifyHost implements modify_host: validates that the resulting class set has at
	most one resource class and does not mix resource/non-resource, and that no composite
	class is being added, before applying the deletions and additions (§4.2).
*/
func (e *Engine) ModifyHost(params map[string]interface{}) *Response {
	name, _ := ParamString(params, "host")
	addNames, _ := ParamStringSlice(params, "addClasses")
	delNames, _ := ParamStringSlice(params, "delClasses")

	h := e.Reg.Host(name)
	if h == nil {
		return ErrorResponse(NewError("no such host: %s", name))
	}

	delSet := make(map[string]bool, len(delNames))
	for _, n := range delNames {
		delSet[n] = true
	}

	kept := make([]*Class, 0, len(h.Classes()))
	for _, c := range h.Classes() {
		if !delSet[c.Name()] {
			kept = append(kept, c)
		}
	}

	for _, n := range addNames {
		c := e.Reg.Class(n)
		if c == nil {
			return ErrorResponse(NewError("no such class: %s", n))
		}
		if c.IsComposite() {
			return ErrorResponse(NewError("composite class %s may not be added to a host", n))
		}
		kept = append(kept, c)
	}

	nresource := 0
	nplain := 0
	for _, c := range kept {
		if c.IsResource() {
			nresource++
		} else {
			nplain++
		}
	}
	if nresource > 1 {
		return ErrorResponse(NewError("a host may belong to at most one resource class"))
	}
	if nresource > 0 && nplain > 0 {
		return ErrorResponse(NewError("a host's classes may not mix resource and non-resource"))
	}

	h.SetClasses(kept)
	return Success(nil, "modified %s", name)
}

/*
	GetCurrentUser implements get_current_user.
*/
func (e *Engine) GetCurrentUser(params map[string]interface{}) *Response {
	name, _ := ParamString(params, "host")
	h := e.Reg.Host(name)
	if h == nil {
		return ErrorResponse(NewError("no such host: %s", name))
	}
	if !h.Reserved() {
		return Success(nil, "%s is not reserved", name)
	}
	return Success(h.User(), "%s is reserved by %s", name, h.User())
}

// ---- class expression evaluation (§4.3) --------------------------------------------------

/*
	EvalClassExpr splits a comma-separated class expression, resolving a single name
	directly and building a transient composite (intersection semantics) for multiple
	names.  Returns an error if any named class is missing.
*/
func EvalClassExpr(reg *Registry, expr string) (*Class, error) {
	var names []string
	for _, tok := range strings.Split(expr, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			names = append(names, tok)
		}
	}
	if len(names) == 0 {
		return nil, NewError("empty class expression")
	}

	if len(names) == 1 {
		c := reg.Class(names[0])
		if c == nil {
			return nil, NewError("no such class: %s", names[0])
		}
		return c, nil
	}

	members := make([]*Class, 0, len(names))
	for _, n := range names {
		c := reg.Class(n)
		if c == nil {
			return nil, NewError("no such class: %s", n)
		}
		members = append(members, c)
	}
	return ComposeClasses(members), nil
}

// ---- reservation operations (§4.2) -------------------------------------------------------

/*
	RsvpHost implements rsvp_host: reserving a single named host or (with resource:1) a
	named resource.  Rejects an already-reserved target with a temporary error so the
	client may retry, and rejects a resource/non-resource mismatch.
*/
func (e *Engine) RsvpHost(params map[string]interface{}, now int64) *Response {
	name, _ := ParamString(params, "host")
	user, _ := ParamString(params, "user")
	msg, _ := ParamString(params, "msg")
	expire, expireOK := ParamInt64(params, "expire")
	isResource := ParamBool(params, "resource")
	key, hasKey := ParamString(params, "key")

	if uerr := checkUser(user); uerr != nil {
		return ErrorResponse(uerr)
	}
	if !expireOK {
		return ErrorResponse(NewError("expire must be a non-negative integer"))
	}

	h := e.Reg.Host(name)
	if h == nil {
		return ErrorResponse(NewError("no such host: %s", name))
	}
	if h.IsResource() != isResource {
		if h.IsResource() {
			return ErrorResponse(NewError("%s is a resource and must be reserved with the resource flag set", name))
		}
		return ErrorResponse(NewError("%s is not a resource", name))
	}
	if h.Reserved() {
		return ErrorResponse(NewTempError("%s is already reserved by %s", name, h.User()))
	}

	var expiry int64
	if expire == 0 {
		expiry = 0
	} else {
		expiry = now + expire
	}

	var keyp *string
	if hasKey {
		keyp = &key
	}

	h.Reserve(user, expiry, msg, keyp)
	return Success(nil, "reserved %s", name)
}

/*
	RsvpClass implements rsvp_class: parses the class expression, collects free, matching
	hosts in ascending host order (so hosts NOT in the default reserve class, and
	lower-numbered ones, go first) or -- if randomize is set -- shuffles them, then
	reserves the first numhosts, returning their names in reverse of selection order
	(§4.2).  Never partial: either exactly numhosts names, or a temporary error.
*/
func (e *Engine) RsvpClass(params map[string]interface{}, now int64, perm func(int) []int) *Response {
	classExpr, hasClass := ParamString(params, "class")
	if !hasClass || classExpr == "" {
		classExpr = DefaultReserveClass
	}
	user, _ := ParamString(params, "user")
	msg, _ := ParamString(params, "msg")
	expire, expireOK := ParamInt64(params, "expire")
	key, hasKey := ParamString(params, "key")
	randomize := ParamBool(params, "randomize")
	numhosts, numhostsOK := ParamInt64(params, "numhosts")

	if uerr := checkUser(user); uerr != nil {
		return ErrorResponse(uerr)
	}
	if !expireOK {
		return ErrorResponse(NewError("expire must be a non-negative integer"))
	}
	if !numhostsOK || numhosts <= 0 {
		return ErrorResponse(NewError("numhosts must be a positive integer"))
	}

	class, err := EvalClassExpr(e.Reg, classExpr)
	if err != nil {
		return ErrorResponse(err)
	}

	var candidates []*Host
	for _, h := range e.Reg.Hosts() {
		if !h.Reserved() && !h.IsResource() && class.ContainsHost(h) {
			candidates = append(candidates, h)
		}
	}

	if int64(len(candidates)) < numhosts {
		return ErrorResponse(NewTempError("not enough free hosts to get %d, have %d free", numhosts, len(candidates)))
	}

	// Registry.Hosts() already returns ascending host order -- hosts not in the default
	// reserve class first, then lower-numbered ones -- which is the selection order §4.2
	// wants handed out first.
	if randomize {
		var order []int
		if perm != nil {
			order = perm(len(candidates))
		} else {
			order = rand.Perm(len(candidates))
		}
		shuffled := make([]*Host, len(candidates))
		for i, idx := range order {
			shuffled[i] = candidates[idx]
		}
		candidates = shuffled
	}

	var keyp *string
	if hasKey {
		keyp = &key
	}

	var expiry int64
	if expire != 0 {
		expiry = now + expire
	}

	chosen := candidates[:numhosts]
	names := make([]string, numhosts)
	for i, h := range chosen {
		h.Reserve(user, expiry, msg, keyp)
		names[numhosts-1-int64(i)] = h.Name() // returned in reverse of selection order
	}

	return Success(names, "reserved %d host(s)", numhosts)
}

/*
	checkRelease validates the key/force rule shared by release_rsvp and release_resource:
	when the reservation carries a key, either that key or force must be supplied; a
	missing or mismatched key (without force) is a non-temporary error that discloses the
	expected key (§4.2, scenario S6).  A reservation made without a key needs neither.
*/
func checkRelease(h *Host, suppliedKey string, hasKey bool, force bool) *OpError {
	if force {
		return nil
	}
	if h.Key() == nil {
		return nil
	}
	if !hasKey || suppliedKey != *h.Key() {
		return NewError("Wrong key provided to release host %s: expected '%s'", h.Name(), *h.Key())
	}
	return nil
}

/*
	releaseHost is the shared implementation of release_rsvp and release_resource: the
	caller must own the reservation (user must match); if a next user is queued it is
	promoted (key cleared, next-user fields cleared) and notified, otherwise the
	reservation is cleared entirely (§4.2).
*/
func (e *Engine) releaseHost(name string, params map[string]interface{}, now int64, notify func(user string, h *Host)) *Response {
	user, _ := ParamString(params, "user")
	key, hasKey := ParamString(params, "key")
	force := ParamBool(params, "force")

	h := e.Reg.Host(name)
	if h == nil {
		return ErrorResponse(NewError("no such host: %s", name))
	}
	if !h.Reserved() {
		return ErrorResponse(NewError("%s is not reserved", name))
	}
	if h.User() != user {
		return ErrorResponse(NewError("not reserved by %s", user))
	}

	if kerr := checkRelease(h, key, hasKey, force); kerr != nil {
		return ErrorResponse(kerr)
	}

	if h.HasNextUser() {
		next := h.NextUser()
		h.PromoteNextUser(now)
		if notify != nil {
			notify(next, h)
		}
		return Success(nil, "released %s and reserved it for %s", name, next)
	}

	h.ClearReservation()
	return Success(nil, "released %s", name)
}

func (e *Engine) ReleaseRsvp(params map[string]interface{}, now int64, notify func(user string, h *Host)) *Response {
	name, _ := ParamString(params, "host")
	return e.releaseHost(name, params, now, notify)
}

func (e *Engine) ReleaseResource(params map[string]interface{}, now int64, notify func(user string, h *Host)) *Response {
	name, _ := ParamString(params, "resource")
	return e.releaseHost(name, params, now, notify)
}

/*
	RenewReservation implements renew_rsvp: sets a new expiry; msg is only updated when a
	non-empty value is supplied.  Only the reserving user may renew.
*/
func (e *Engine) RenewReservation(params map[string]interface{}, now int64) *Response {
	name, _ := ParamString(params, "host")
	user, _ := ParamString(params, "user")
	msg, hasMsg := ParamString(params, "msg")
	expire, expireOK := ParamInt64(params, "expire")

	h := e.Reg.Host(name)
	if h == nil {
		return ErrorResponse(NewError("no such host: %s", name))
	}
	if !h.Reserved() {
		return ErrorResponse(NewError("%s is not reserved", name))
	}
	if h.User() != user {
		return ErrorResponse(NewError("not reserved by %s", user))
	}
	if !expireOK {
		return ErrorResponse(NewError("expire must be a non-negative integer"))
	}

	if expire == 0 {
		h.SetExpiry(0)
	} else {
		h.SetExpiry(now + expire)
	}
	if hasMsg && msg != "" {
		h.SetMsg(msg)
	}

	return Success(nil, "renewed %s", name)
}

/*
	VerifyReservation implements verify_rsvp: success iff the host exists and is reserved
	by the caller.
*/
func (e *Engine) VerifyReservation(params map[string]interface{}) *Response {
	name, _ := ParamString(params, "host")
	user, _ := ParamString(params, "user")

	h := e.Reg.Host(name)
	if h == nil || !h.Reserved() || h.User() != user {
		return ErrorResponse(NewError("%s is not reserved by %s", name, user))
	}
	return Success(nil, "%s is reserved by %s", name, user)
}

/*
	AddNextUser implements add_next_user: enforces the single-queued-next-user rule and
	rejects queuing the current user as their own successor (§4.2).
*/
func (e *Engine) AddNextUser(params map[string]interface{}) *Response {
	name, _ := ParamString(params, "host")
	user, _ := ParamString(params, "user")
	msg, _ := ParamString(params, "msg")
	expire, expireOK := ParamInt64(params, "expire")

	if uerr := checkUser(user); uerr != nil {
		return ErrorResponse(uerr)
	}
	if !expireOK {
		return ErrorResponse(NewError("expire must be a non-negative integer"))
	}

	h := e.Reg.Host(name)
	if h == nil {
		return ErrorResponse(NewError("no such host: %s", name))
	}
	if h.User() == user {
		return ErrorResponse(NewError("%s is already the current user of %s", user, name))
	}
	if h.HasNextUser() {
		return ErrorResponse(NewError("%s already has a next user queued: %s", name, h.NextUser()))
	}

	// expire is stored as a duration (0 = forever) and resolved against now at the
	// moment of promotion, not at the moment it is queued -- see Host.PromoteNextUser.
	h.SetNextUser(user, expire, msg)
	return Success(nil, "added next user %s for %s", user, name)
}

/*
	DelNextUser implements del_next_user: only the current reservation's owner may cancel
	the queued next user; the queued next user cannot remove themself.
*/
func (e *Engine) DelNextUser(params map[string]interface{}) *Response {
	name, _ := ParamString(params, "host")
	user, _ := ParamString(params, "user")

	h := e.Reg.Host(name)
	if h == nil {
		return ErrorResponse(NewError("no such host: %s", name))
	}
	if !h.HasNextUser() {
		return ErrorResponse(NewError("%s has no next user queued", name))
	}
	if h.User() != user {
		return ErrorResponse(NewError("not reserved by %s", user))
	}

	h.ClearNextUser()
	return Success(nil, "removed next user for %s", name)
}

/*
	ReviveHost implements revive_host: restores the pre-death snapshot for a single named
	host, or -- with all:1 -- for every dead host, silently skipping non-dead ones in the
	all case (§4.2).
*/
func (e *Engine) ReviveHost(params map[string]interface{}) *Response {
	all := ParamBool(params, "all")

	if all {
		var revived []string
		for _, h := range e.Reg.Hosts() {
			if h.Dead() {
				h.Revive()
				revived = append(revived, h.Name())
			}
		}
		return Success(revived, "revived %d host(s)", len(revived))
	}

	name, _ := ParamString(params, "host")
	h := e.Reg.Host(name)
	if h == nil {
		return ErrorResponse(NewError("no such host: %s", name))
	}
	if !h.Dead() {
		return ErrorResponse(NewError("%s is not dead", name))
	}
	h.Revive()
	return Success(nil, "revived %s", name)
}

// ---- list_hosts (§4.5) -------------------------------------------------------------------

/*
	ListHosts implements list_hosts, applying the class/user/hostRegexp filters before
	projecting rows per the verbose/next/default shape.  When neither class nor user is
	supplied, resources are excluded from the default listing.
*/
func (e *Engine) ListHosts(params map[string]interface{}) *Response {
	classExpr, hasClass := ParamString(params, "class")
	user, hasUser := ParamString(params, "user")
	verbose := ParamBool(params, "verbose")
	next := ParamBool(params, "next")
	hostRegexp, hasRe := ParamString(params, "hostRegexp")

	var class *Class
	if hasClass && classExpr != "" {
		c, err := EvalClassExpr(e.Reg, classExpr)
		if err != nil {
			return ErrorResponse(err)
		}
		class = c
	}

	var re *regexp.Regexp
	if hasRe && hostRegexp != "" {
		compiled, err := regexp.Compile(hostRegexp)
		if err != nil {
			return ErrorResponse(NewError("invalid hostRegexp: %s", err))
		}
		re = compiled
	}

	data := make([]interface{}, 0)
	for _, h := range e.Reg.Hosts() {
		if (!hasClass || classExpr == "") && (!hasUser || user == "") && h.IsResource() {
			continue
		}
		if class != nil && !class.ContainsHost(h) {
			continue
		}
		if hasUser && user != "" && h.User() != user {
			continue
		}
		if re != nil && !re.MatchString(h.Name()) {
			continue
		}

		switch {
		case verbose:
			names := make([]string, 0, len(h.Classes()))
			for _, c := range h.Classes() {
				names = append(names, c.Name())
			}
			data = append(data, []interface{}{h.Name(), h.User(), strings.Join(names, ", ")})
		case next:
			data = append(data, []interface{}{h.Name(), h.User(), h.NextUser(), h.NextExpiry(), h.NextMsg()})
		default:
			data = append(data, []interface{}{h.Name(), h.User(), h.Expiry(), h.Msg()})
		}
	}

	return Success(data, "%d host(s)", len(data))
}
