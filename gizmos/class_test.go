// vi: sw=4 ts=4:

package gizmos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClassRejectsBadName(t *testing.T) {
	_, err := NewClass("bad name", "", nil)
	require.Error(t, err)
}

func TestNewClassRejectsCompositeMember(t *testing.T) {
	leaf, err := NewClass("leaf", "", nil)
	require.NoError(t, err)
	composite, err := NewClass("composite", "", []*Class{leaf})
	require.NoError(t, err)

	_, err = NewClass("outer", "", []*Class{composite})
	require.Error(t, err)
}

func TestNewClassRejectsResourceMember(t *testing.T) {
	rc, err := NewResourceClass("switches", "")
	require.NoError(t, err)

	_, err = NewClass("outer", "", []*Class{rc})
	require.Error(t, err)
}

func TestNewResourceClassHasNoMembers(t *testing.T) {
	rc, err := NewResourceClass("switches", "")
	require.NoError(t, err)
	assert.False(t, rc.IsComposite())
	assert.True(t, rc.IsResource())
}

func TestClassLessOrdersByMemberCountThenName(t *testing.T) {
	a, _ := NewClass("a", "", nil)
	bMember, _ := NewClass("m", "", nil)
	b, _ := NewClass("b", "", []*Class{bMember})

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))

	c, _ := NewClass("c", "", nil)
	assert.True(t, a.Less(c))
}

func TestClassEqualByName(t *testing.T) {
	a1, _ := NewClass("web", "one", nil)
	a2, _ := NewClass("web", "two", nil)
	assert.True(t, a1.Equal(a2))
}

func TestContainsHostDirectMembership(t *testing.T) {
	web, _ := NewClass("web", "", nil)
	h, _ := NewHost("h1", []*Class{web}, 0)
	assert.True(t, web.ContainsHost(h))

	other, _ := NewClass("db", "", nil)
	assert.False(t, other.ContainsHost(h))
}

func TestContainsHostCompositeIsIntersection(t *testing.T) {
	web, _ := NewClass("web", "", nil)
	prod, _ := NewClass("prod", "", nil)
	composite := ComposeClasses([]*Class{web, prod})

	both, _ := NewHost("both", []*Class{web, prod}, 0)
	assert.True(t, composite.ContainsHost(both))

	onlyWeb, _ := NewHost("onlyweb", []*Class{web}, 0)
	assert.False(t, composite.ContainsHost(onlyWeb))
}
