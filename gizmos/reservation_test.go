// vi: sw=4 ts=4:

package gizmos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	reg := NewRegistry()
	EnsureDefaults(reg)
	return NewEngine(reg)
}

func TestAddClassRejectsDuplicateAndMissingMember(t *testing.T) {
	e := newTestEngine()
	resp := e.AddClass(map[string]interface{}{"class": "web"})
	require.Equal(t, RespSuccess, resp.Type)

	dup := e.AddClass(map[string]interface{}{"class": "web"})
	assert.Equal(t, RespError, dup.Type)

	missing := e.AddClass(map[string]interface{}{"class": "combo", "members": []interface{}{"nope"}})
	assert.Equal(t, RespError, missing.Type)
}

func TestAddResourceClassThenDelClassDeletesItsResources(t *testing.T) {
	e := newTestEngine()
	require.Equal(t, RespSuccess, e.AddResourceClass(map[string]interface{}{"class": "switches"}).Type)
	require.Equal(t, RespSuccess, e.AddResource(map[string]interface{}{"resource": "sw1", "class": "switches"}, 0).Type)

	resp := e.DelClass(map[string]interface{}{"class": "switches"})
	require.Equal(t, RespSuccess, resp.Type)
	assert.False(t, e.Reg.HasHost("sw1"))
}

func TestDelClassRefusesAllClass(t *testing.T) {
	e := newTestEngine()
	resp := e.DelClass(map[string]interface{}{"class": DefaultHostClass})
	assert.Equal(t, RespError, resp.Type)
}

func TestAddHostDefaultsToAllClass(t *testing.T) {
	e := newTestEngine()
	resp := e.AddHost(map[string]interface{}{"host": "h1"}, 0)
	require.Equal(t, RespSuccess, resp.Type)
	assert.True(t, e.Reg.Host("h1").HasClass(DefaultHostClass))
}

func TestAddResourceRequiresResourceClass(t *testing.T) {
	e := newTestEngine()
	resp := e.AddResource(map[string]interface{}{"resource": "r1"}, 0)
	assert.Equal(t, RespError, resp.Type)
}

func TestAddHostRejectsResourceClass(t *testing.T) {
	e := newTestEngine()
	e.AddResourceClass(map[string]interface{}{"class": "switches"})
	resp := e.AddHost(map[string]interface{}{"host": "h1", "classes": []interface{}{"switches"}}, 0)
	assert.Equal(t, RespError, resp.Type)
}

func TestModifyHostRejectsMixedResourceAndPlain(t *testing.T) {
	e := newTestEngine()
	e.AddResourceClass(map[string]interface{}{"class": "switches"})
	e.AddHost(map[string]interface{}{"host": "h1"}, 0)

	resp := e.ModifyHost(map[string]interface{}{"host": "h1", "addClasses": []interface{}{"switches"}})
	assert.Equal(t, RespError, resp.Type)
}

// S1: reserving a free host succeeds and records the reserving user.
func TestScenarioReserveFreeHostSucceeds(t *testing.T) {
	e := newTestEngine()
	e.AddHost(map[string]interface{}{"host": "h1"}, 0)

	resp := e.RsvpHost(map[string]interface{}{"host": "h1", "user": "alice", "expire": float64(0)}, 1000)
	require.Equal(t, RespSuccess, resp.Type)
	assert.Equal(t, "alice", e.Reg.Host("h1").User())
}

// S2: reserving an already-reserved host is rejected with a temporary error so the
// client knows to retry rather than give up.
func TestScenarioReserveAlreadyReservedHostIsTemporaryError(t *testing.T) {
	e := newTestEngine()
	e.AddHost(map[string]interface{}{"host": "h1"}, 0)
	e.RsvpHost(map[string]interface{}{"host": "h1", "user": "alice", "expire": float64(0)}, 1000)

	resp := e.RsvpHost(map[string]interface{}{"host": "h1", "user": "bob", "expire": float64(0)}, 1000)
	require.Equal(t, RespError, resp.Type)
	assert.True(t, resp.Temporary)
}

// S3: rsvp_class reserves exactly numhosts free hosts and refuses to partially satisfy
// a request it can't fill.
func TestScenarioRsvpClassAllOrNothing(t *testing.T) {
	e := newTestEngine()
	e.AddHost(map[string]interface{}{"host": "n1", "classes": []interface{}{DefaultReserveClass}}, 0)
	e.AddHost(map[string]interface{}{"host": "n2", "classes": []interface{}{DefaultReserveClass}}, 0)

	short := e.RsvpClass(map[string]interface{}{"user": "alice", "expire": float64(0), "numhosts": float64(3)}, 1000, nil)
	require.Equal(t, RespError, short.Type)
	assert.True(t, short.Temporary)
	assert.False(t, e.Reg.Host("n1").Reserved())
	assert.False(t, e.Reg.Host("n2").Reserved())

	ok := e.RsvpClass(map[string]interface{}{"user": "alice", "expire": float64(0), "numhosts": float64(2)}, 1000, nil)
	require.Equal(t, RespSuccess, ok.Type)
	assert.True(t, e.Reg.Host("n1").Reserved())
	assert.True(t, e.Reg.Host("n2").Reserved())
}

// S4: releasing a reservation with a queued next user promotes that user instead of
// clearing the reservation, and the promoted user's duration resolves against the
// release time.
func TestScenarioReleaseWithNextUserPromotes(t *testing.T) {
	e := newTestEngine()
	e.AddHost(map[string]interface{}{"host": "h1"}, 0)
	e.RsvpHost(map[string]interface{}{"host": "h1", "user": "alice", "expire": float64(0)}, 1000)
	e.AddNextUser(map[string]interface{}{"host": "h1", "user": "bob", "expire": float64(500)})

	var notified string
	notify := func(user string, h *Host) { notified = user }

	resp := e.ReleaseRsvp(map[string]interface{}{"host": "h1", "user": "alice", "force": true}, 2000, notify)
	require.Equal(t, RespSuccess, resp.Type)
	assert.Equal(t, "bob", e.Reg.Host("h1").User())
	assert.Equal(t, int64(2500), e.Reg.Host("h1").Expiry())
	assert.Equal(t, "bob", notified)
}

// S5: releasing without a queued next user clears the reservation entirely.
func TestScenarioReleaseWithoutNextUserClears(t *testing.T) {
	e := newTestEngine()
	e.AddHost(map[string]interface{}{"host": "h1"}, 0)
	e.RsvpHost(map[string]interface{}{"host": "h1", "user": "alice", "expire": float64(0)}, 1000)

	resp := e.ReleaseRsvp(map[string]interface{}{"host": "h1", "user": "alice", "force": true}, 2000, nil)
	require.Equal(t, RespSuccess, resp.Type)
	assert.False(t, e.Reg.Host("h1").Reserved())
}

// S6: releasing with the wrong key (and no force) is rejected and discloses the
// expected key in the error message.
func TestScenarioReleaseWrongKeyRejectedAndDisclosesKey(t *testing.T) {
	e := newTestEngine()
	e.AddHost(map[string]interface{}{"host": "h1"}, 0)
	e.RsvpHost(map[string]interface{}{"host": "h1", "user": "alice", "expire": float64(0), "key": "secret"}, 1000)

	resp := e.ReleaseRsvp(map[string]interface{}{"host": "h1", "user": "alice", "key": "wrong"}, 2000, nil)
	require.Equal(t, RespError, resp.Type)
	assert.Contains(t, resp.Message, "secret")
	assert.True(t, e.Reg.Host("h1").Reserved())

	ok := e.ReleaseRsvp(map[string]interface{}{"host": "h1", "user": "alice", "key": "secret"}, 2000, nil)
	assert.Equal(t, RespSuccess, ok.Type)
}

func TestAddNextUserRejectsCurrentUserAndDoubleQueue(t *testing.T) {
	e := newTestEngine()
	e.AddHost(map[string]interface{}{"host": "h1"}, 0)
	e.RsvpHost(map[string]interface{}{"host": "h1", "user": "alice", "expire": float64(0)}, 1000)

	self := e.AddNextUser(map[string]interface{}{"host": "h1", "user": "alice", "expire": float64(0)})
	assert.Equal(t, RespError, self.Type)

	first := e.AddNextUser(map[string]interface{}{"host": "h1", "user": "bob", "expire": float64(0)})
	require.Equal(t, RespSuccess, first.Type)

	second := e.AddNextUser(map[string]interface{}{"host": "h1", "user": "carol", "expire": float64(0)})
	assert.Equal(t, RespError, second.Type)
}

func TestDelNextUserRestrictedToCurrentOwner(t *testing.T) {
	e := newTestEngine()
	e.AddHost(map[string]interface{}{"host": "h1"}, 0)
	e.RsvpHost(map[string]interface{}{"host": "h1", "user": "alice", "expire": float64(0)}, 1000)
	e.AddNextUser(map[string]interface{}{"host": "h1", "user": "bob", "expire": float64(0)})

	wrong := e.DelNextUser(map[string]interface{}{"host": "h1", "user": "bob"})
	assert.Equal(t, RespError, wrong.Type)

	right := e.DelNextUser(map[string]interface{}{"host": "h1", "user": "alice"})
	require.Equal(t, RespSuccess, right.Type)
	assert.False(t, e.Reg.Host("h1").HasNextUser())
}

func TestRenewReservationOnlyOwner(t *testing.T) {
	e := newTestEngine()
	e.AddHost(map[string]interface{}{"host": "h1"}, 0)
	e.RsvpHost(map[string]interface{}{"host": "h1", "user": "alice", "expire": float64(100)}, 1000)

	wrong := e.RenewReservation(map[string]interface{}{"host": "h1", "user": "bob", "expire": float64(200)}, 2000)
	assert.Equal(t, RespError, wrong.Type)

	right := e.RenewReservation(map[string]interface{}{"host": "h1", "user": "alice", "expire": float64(200)}, 2000)
	require.Equal(t, RespSuccess, right.Type)
	assert.Equal(t, int64(2200), e.Reg.Host("h1").Expiry())
}

func TestVerifyReservation(t *testing.T) {
	e := newTestEngine()
	e.AddHost(map[string]interface{}{"host": "h1"}, 0)
	e.RsvpHost(map[string]interface{}{"host": "h1", "user": "alice", "expire": float64(0)}, 1000)

	ok := e.VerifyReservation(map[string]interface{}{"host": "h1", "user": "alice"})
	assert.Equal(t, RespSuccess, ok.Type)

	bad := e.VerifyReservation(map[string]interface{}{"host": "h1", "user": "bob"})
	assert.Equal(t, RespError, bad.Type)
}

func TestReviveHostAllSkipsNonDead(t *testing.T) {
	e := newTestEngine()
	e.AddHost(map[string]interface{}{"host": "h1"}, 0)
	e.AddHost(map[string]interface{}{"host": "h2"}, 0)
	e.Reg.Host("h1").Reserve("alice", 0, "", nil)
	e.Reg.Host("h1").MarkDead("lost contact")

	resp := e.ReviveHost(map[string]interface{}{"all": true})
	require.Equal(t, RespSuccess, resp.Type)
	assert.False(t, e.Reg.Host("h1").Dead())
	assert.Equal(t, "alice", e.Reg.Host("h1").User())
}

func TestListHostsExcludesResourcesByDefault(t *testing.T) {
	e := newTestEngine()
	e.AddHost(map[string]interface{}{"host": "h1"}, 0)
	e.AddResourceClass(map[string]interface{}{"class": "switches"})
	e.AddResource(map[string]interface{}{"resource": "sw1", "class": "switches"}, 0)

	resp := e.ListHosts(map[string]interface{}{})
	require.Equal(t, RespSuccess, resp.Type)
	rows, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, rows, 1)
}
