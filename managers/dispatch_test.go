// vi: sw=4 ts=4:

package managers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edaniels/rsvpd/gizmos"
)

func newDispatchTestEngine() *gizmos.Engine {
	reg := gizmos.NewRegistry()
	gizmos.EnsureDefaults(reg)
	return gizmos.NewEngine(reg)
}

func TestDispatchUnknownCommand(t *testing.T) {
	eng := newDispatchTestEngine()
	resp := Dispatch(eng, 0, nil, nil, "frobnicate", map[string]interface{}{})
	require.Equal(t, gizmos.RespError, resp.Type)
	assert.Contains(t, resp.Message, "unknown command")
}

func TestDispatchMissingRequiredParameter(t *testing.T) {
	eng := newDispatchTestEngine()
	resp := Dispatch(eng, 0, nil, nil, "del_host", map[string]interface{}{})
	require.Equal(t, gizmos.RespError, resp.Type)
	assert.Contains(t, resp.Message, "missing required parameter")
}

func TestDispatchRejectsUnknownParameter(t *testing.T) {
	eng := newDispatchTestEngine()
	resp := Dispatch(eng, 0, nil, nil, "del_host", map[string]interface{}{
		"host":  "h1",
		"bogus": "nope",
	})
	require.Equal(t, gizmos.RespError, resp.Type)
	assert.Contains(t, resp.Message, "unknown parameter")
}

func TestDispatchAddHostRejectsNilRequiredClasses(t *testing.T) {
	eng := newDispatchTestEngine()

	add := Dispatch(eng, 0, nil, nil, "add_host", map[string]interface{}{
		"host":    "h1",
		"classes": nil,
	})
	require.Equal(t, gizmos.RespError, add.Type) // classes is required but nil, not "optional and absent"
}

func TestDispatchAddHostWithClassesSupplied(t *testing.T) {
	eng := newDispatchTestEngine()

	add := Dispatch(eng, 0, nil, nil, "add_host", map[string]interface{}{
		"host":    "h1",
		"classes": []interface{}{},
	})
	require.Equal(t, gizmos.RespSuccess, add.Type)

	del := Dispatch(eng, 0, nil, nil, "del_host", map[string]interface{}{"host": "h1"})
	require.Equal(t, gizmos.RespSuccess, del.Type)
}

func TestDispatchListHostsIsReadOnly(t *testing.T) {
	assert.True(t, readOnlyCommands["list_hosts"])
	assert.True(t, readOnlyCommands["verify_rsvp"])
	assert.False(t, readOnlyCommands["rsvp_host"])
}

func TestDispatchRsvpHostRoundTrip(t *testing.T) {
	eng := newDispatchTestEngine()
	Dispatch(eng, 0, nil, nil, "add_host", map[string]interface{}{"host": "h1", "classes": []interface{}{}})

	resp := Dispatch(eng, 1000, nil, nil, "rsvp_host", map[string]interface{}{
		"host": "h1", "user": "alice", "expire": float64(0), "msg": "",
	})
	require.Equal(t, gizmos.RespSuccess, resp.Type)
	assert.Equal(t, "alice", eng.Reg.Host("h1").User())
}
