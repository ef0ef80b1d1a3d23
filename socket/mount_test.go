package socket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleeedolinux/liveview/wire"
)

type fakeSocket struct {
	id   string
	sent []wire.Outgoing
}

func (f *fakeSocket) ID() string                   { return f.id }
func (f *fakeSocket) Mounted() []string            { return nil }
func (f *fakeSocket) Context() context.Context     { return context.Background() }
func (f *fakeSocket) Close() error                 { return nil }
func (f *fakeSocket) IsConnected() bool            { return true }
func (f *fakeSocket) Send(msg wire.Outgoing) error { f.sent = append(f.sent, msg); return nil }

func TestMountRegistryMountAndLookup(t *testing.T) {
	r := NewMountRegistry()
	a := &fakeSocket{id: "a"}

	assert.Nil(t, r.Mount("lv-1", a))
	assert.Nil(t, r.Mount("lv-2", a))

	owner, ok := r.Lookup("lv-1")
	require.True(t, ok)
	assert.Equal(t, "a", owner.ID())
	assert.Equal(t, []string{"lv-1", "lv-2"}, r.MountedOn("a"))
	assert.Equal(t, 2, r.Count())

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestMountRegistryRemountMovesOwner(t *testing.T) {
	r := NewMountRegistry()
	a := &fakeSocket{id: "a"}
	b := &fakeSocket{id: "b"}

	r.Mount("lv-1", a)
	previous := r.Mount("lv-1", b)
	require.NotNil(t, previous)
	assert.Equal(t, "a", previous.ID())

	owner, _ := r.Lookup("lv-1")
	assert.Equal(t, "b", owner.ID())
	assert.Empty(t, r.MountedOn("a"))
	assert.Equal(t, []string{"lv-1"}, r.MountedOn("b"))

	// The old socket going away must not take the moved liveview with it.
	assert.Empty(t, r.UnmountAll("a"))
	_, ok := r.Lookup("lv-1")
	assert.True(t, ok)
}

func TestMountRegistryUnmount(t *testing.T) {
	r := NewMountRegistry()
	a := &fakeSocket{id: "a"}
	r.Mount("lv-1", a)

	assert.False(t, r.Unmount("lv-1", "someone-else"))
	assert.True(t, r.Unmount("lv-1", "a"))
	assert.False(t, r.Unmount("lv-1", "a"))
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.MountedOn("a"))
}

func TestMountRegistryUnmountAll(t *testing.T) {
	r := NewMountRegistry()
	a := &fakeSocket{id: "a"}
	b := &fakeSocket{id: "b"}
	r.Mount("lv-2", a)
	r.Mount("lv-1", a)
	r.Mount("lv-3", b)

	assert.Equal(t, []string{"lv-1", "lv-2"}, r.UnmountAll("a"))
	assert.Equal(t, 1, r.Count())
	assert.Equal(t, []string{"lv-3"}, r.MountedOn("b"))
	assert.Empty(t, r.UnmountAll("a"))
}
