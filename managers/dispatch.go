// vi: sw=4 ts=4:

/*

	Mnemonic:	dispatch
	Abstract:	Command table and validation: maps a command name to its handler and its
				declared required/optional parameter keys, the same shape res_mgr.go's
				REQ_* switch gives integer message types, but keyed by the string command
				names the wire codec hands back.
	Date:		2026
	Author:		rsvpd
*/

package managers

import (
	"github.com/edaniels/rsvpd/gizmos"
)

/*
	cmdSpec names a command's required and optional parameter keys.  Validation requires
	every key in required to be present and non-nil, and rejects any supplied key that is
	in neither required nor optional.
*/
type cmdSpec struct {
	required []string
	optional []string
}

var commandTable = map[string]cmdSpec{
	"add_class":           {required: []string{"class", "members", "description"}},
	"add_host":            {required: []string{"host", "classes"}},
	"add_resource":        {required: []string{"resource", "class"}},
	"add_resource_class":  {required: []string{"class", "description"}},
	"add_next_user":       {required: []string{"host", "user", "expire", "msg"}},
	"del_class":           {required: []string{"class"}},
	"del_host":            {required: []string{"host"}},
	"del_next_user":       {required: []string{"host", "user"}},
	"get_current_user":    {required: []string{"host"}},
	"list_hosts":          {required: []string{"class", "user", "verbose"}, optional: []string{"next", "hostRegexp"}},
	"list_classes":        {required: []string{"class"}},
	"modify_host":         {required: []string{"host", "user", "addClasses", "delClasses"}},
	"release_resource":    {required: []string{"resource", "user", "msg"}, optional: []string{"key", "force"}},
	"release_rsvp":        {required: []string{"host", "user", "msg"}, optional: []string{"key", "force"}},
	"renew_rsvp":          {required: []string{"host", "user", "expire", "msg"}},
	"revive_host":         {required: []string{"host", "all"}},
	"rsvp_class":          {required: []string{"class", "numhosts", "user", "expire", "msg"}, optional: []string{"key", "randomize"}},
	"rsvp_host":           {required: []string{"host", "user", "expire", "msg"}, optional: []string{"key", "resource"}},
	"verify_rsvp":         {required: []string{"host", "user"}},
}

/*
	readOnlyCommands never mutate the registry, so the caller (res_mgr's goroutine) skips
	the persist-before-reply step for them.
*/
var readOnlyCommands = map[string]bool{
	"list_hosts":       true,
	"list_classes":     true,
	"get_current_user": true,
	"verify_rsvp":      true,
}

func validate(cmd string, params map[string]interface{}) (cmdSpec, *gizmos.Response) {
	spec, known := commandTable[cmd]
	if !known {
		return spec, gizmos.ErrorResponse(gizmos.NewError("unknown command: %s", cmd))
	}

	allowed := make(map[string]bool, len(spec.required)+len(spec.optional))
	for _, k := range spec.required {
		v, present := params[k]
		if !present || v == nil {
			return spec, gizmos.ErrorResponse(gizmos.NewError("missing required parameter: %s", k))
		}
		allowed[k] = true
	}
	for _, k := range spec.optional {
		allowed[k] = true
	}

	for k := range params {
		if !allowed[k] {
			return spec, gizmos.ErrorResponse(gizmos.NewError("unknown parameter: %s", k))
		}
	}

	return spec, nil
}

/*
	Dispatch validates params against the command table then invokes the matching engine
	operation.  now is the request's notion of "current time" (injected so tests can drive
	expiry math deterministically); notify delivers a next-user handoff notification;
	perm overrides random selection for rsvp_class's randomize flag (nil uses math/rand).
	An unknown command or a validation failure returns a non-temporary error response
	without ever calling into eng.
*/
func Dispatch(eng *gizmos.Engine, now int64, notify func(user string, h *gizmos.Host), perm func(int) []int, cmd string, params map[string]interface{}) *gizmos.Response {
	if _, errResp := validate(cmd, params); errResp != nil {
		return errResp
	}

	switch cmd {
	case "add_class":
		return eng.AddClass(params)
	case "add_resource_class":
		return eng.AddResourceClass(params)
	case "add_host":
		return eng.AddHost(params, now)
	case "add_resource":
		return eng.AddResource(params, now)
	case "del_class":
		return eng.DelClass(params)
	case "del_host":
		return eng.DelHost(params)
	case "modify_host":
		return eng.ModifyHost(params)
	case "get_current_user":
		return eng.GetCurrentUser(params)
	case "list_classes":
		return eng.ListClasses(params)
	case "list_hosts":
		return eng.ListHosts(params)
	case "rsvp_host":
		return eng.RsvpHost(params, now)
	case "rsvp_class":
		return eng.RsvpClass(params, now, perm)
	case "release_rsvp":
		return eng.ReleaseRsvp(params, now, notify)
	case "release_resource":
		return eng.ReleaseResource(params, now, notify)
	case "renew_rsvp":
		return eng.RenewReservation(params, now)
	case "verify_rsvp":
		return eng.VerifyReservation(params)
	case "add_next_user":
		return eng.AddNextUser(params)
	case "del_next_user":
		return eng.DelNextUser(params)
	case "revive_host":
		return eng.ReviveHost(params)
	default:
		return gizmos.ErrorResponse(gizmos.NewError("unknown command: %s", cmd))
	}
}
