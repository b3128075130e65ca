// vi: sw=4 ts=4:

/*

	Mnemonic:	params
	Abstract:	Helpers to pull typed values out of the untyped params map the dispatcher
				receives -- JSON numbers arrive as float64, dumper-decoded scalars arrive
				as strings, so every accessor is liberal about the concrete type, the way
				clike.Atoi tolerates whatever numeric-ish string a config file hands it.
	Date:		2026
	Author:		rsvpd
*/

package gizmos

import (
	"regexp"

	"github.com/att/gopkgs/clike"
)

var digits_re = regexp.MustCompile(`^\d+$`)

func ParamString(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	default:
		return "", false
	}
}

func ParamBool(params map[string]interface{}, key string) bool {
	v, ok := params[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != "" && t != "0"
	}
	return false
}

/*
	ParamInt64 parses an expire/numhosts style parameter: a JSON number, or a string of
	decimal digits (per §4.2, "string of decimal digits acceptable").  ok is false if the
	value is missing or not a non-negative integer in either form.
*/
func ParamInt64(params map[string]interface{}, key string) (int64, bool) {
	v, ok := params[key]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		if t < 0 || t != float64(int64(t)) {
			return 0, false
		}
		return int64(t), true
	case string:
		if !digits_re.MatchString(t) {
			return 0, false
		}
		return clike.Atoll(t), true
	}
	return 0, false
}

func ParamStringSlice(params map[string]interface{}, key string) ([]string, bool) {
	v, ok := params[key]
	if !ok || v == nil {
		return nil, false
	}
	switch t := v.(type) {
	case []string:
		return t, true
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
