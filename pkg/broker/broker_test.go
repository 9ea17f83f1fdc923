package broker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-opendut/opendut-carl/pkg/broker"
	"github.com/eclipse-opendut/opendut-carl/pkg/entity"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource/storage/volatile"
	"github.com/eclipse-opendut/opendut-carl/pkg/types"
)

func newManager() *resource.Manager {
	return resource.NewManager(volatile.NewOpener(), volatile.NewOpener())
}

func TestConnectMarksStateOnline(t *testing.T) {
	mgr := newManager()
	h := broker.NewHub(mgr)
	peerID := types.NewPeerID()

	_, cancel, err := h.Connect(peerID, "10.0.0.5")
	require.NoError(t, err)
	defer cancel()

	assert.True(t, h.IsConnected(peerID))
	require.NoError(t, mgr.Resources(func(r *resource.Resources) error {
		state, ok, err := resource.Get[entity.PeerConnectionState](r, peerID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, entity.Online, state.Status)
		assert.Equal(t, "10.0.0.5", state.RemoteHost)
		return nil
	}))
}

func TestDisconnectMarksOfflineAndClosesOutbox(t *testing.T) {
	mgr := newManager()
	h := broker.NewHub(mgr)
	peerID := types.NewPeerID()

	outbox, _, err := h.Connect(peerID, "10.0.0.5")
	require.NoError(t, err)

	h.Disconnect(peerID)
	assert.False(t, h.IsConnected(peerID))

	_, open := <-outbox
	assert.False(t, open)

	require.NoError(t, mgr.Resources(func(r *resource.Resources) error {
		state, ok, err := resource.Get[entity.PeerConnectionState](r, peerID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, entity.Offline, state.Status)
		return nil
	}))
}

func TestReconnectReplacesStaleMappingAndDiscardsOldOutbox(t *testing.T) {
	mgr := newManager()
	h := broker.NewHub(mgr)
	peerID := types.NewPeerID()

	oldOutbox, oldCancel, err := h.Connect(peerID, "10.0.0.5")
	require.NoError(t, err)

	newOutbox, newCancel, err := h.Connect(peerID, "10.0.0.6")
	require.NoError(t, err)
	defer newCancel()

	_, open := <-oldOutbox
	assert.False(t, open, "reconnecting must close the prior session's outbox")
	assert.True(t, h.IsConnected(peerID))

	require.NoError(t, mgr.Resources(func(r *resource.Resources) error {
		state, ok, err := resource.Get[entity.PeerConnectionState](r, peerID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, entity.Online, state.Status)
		assert.Equal(t, "10.0.0.6", state.RemoteHost)
		return nil
	}))

	// The stale session's deferred cleanup must not tear down the
	// reconnected session it no longer owns.
	oldCancel()
	assert.True(t, h.IsConnected(peerID))
	require.NoError(t, mgr.Resources(func(r *resource.Resources) error {
		state, ok, err := resource.Get[entity.PeerConnectionState](r, peerID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, entity.Online, state.Status)
		return nil
	}))

	cfg := entity.PeerConfiguration{PeerID: peerID}
	assert.True(t, h.Push(peerID, cfg))
	assert.Equal(t, peerID, (<-newOutbox).PeerID)
}

func TestPushDeliversToConnectedPeer(t *testing.T) {
	mgr := newManager()
	h := broker.NewHub(mgr)
	peerID := types.NewPeerID()

	outbox, cancel, err := h.Connect(peerID, "10.0.0.5")
	require.NoError(t, err)
	defer cancel()

	cfg := entity.PeerConfiguration{PeerID: peerID}
	assert.True(t, h.Push(peerID, cfg))
	assert.Equal(t, peerID, (<-outbox).PeerID)
}

func TestPushToUnknownPeerReturnsFalse(t *testing.T) {
	mgr := newManager()
	h := broker.NewHub(mgr)
	assert.False(t, h.Push(types.NewPeerID(), entity.PeerConfiguration{}))
}
