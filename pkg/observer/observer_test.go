package observer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-opendut/opendut-carl/pkg/entity"
	"github.com/eclipse-opendut/opendut-carl/pkg/observer"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource/storage/volatile"
	"github.com/eclipse-opendut/opendut-carl/pkg/types"
)

func TestPeersStreamsSnapshotThenEvents(t *testing.T) {
	res := resource.NewManager(volatile.NewOpener(), volatile.NewOpener())
	existingID := types.NewPeerID()
	require.NoError(t, res.ResourcesMut(func(r *resource.Resources) error {
		return resource.Insert[entity.PeerDescriptor](r, existingID, entity.PeerDescriptor{ID: existingID, Name: "existing"})
	}))

	b := observer.NewBroker(res)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snap, events, stop, err := b.Peers(ctx)
	require.NoError(t, err)
	defer stop()
	assert.Len(t, snap.Peers, 1)

	newID := types.NewPeerID()
	require.NoError(t, res.ResourcesMut(func(r *resource.Resources) error {
		return resource.Insert[entity.PeerDescriptor](r, newID, entity.PeerDescriptor{ID: newID, Name: "new"})
	}))

	select {
	case ev := <-events:
		assert.Equal(t, resource.EventInserted, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected an insert event")
	}
}

func TestWaitForPeersOnlineRejectsEmptySet(t *testing.T) {
	res := resource.NewManager(volatile.NewOpener(), volatile.NewOpener())
	b := observer.NewBroker(res)
	_, err := b.WaitForPeersOnline(context.Background(), nil, time.Second, false)
	assert.ErrorIs(t, err, observer.ErrEmptyPeerSet)
}

func TestWaitForPeersOnlineRejectsUnknownPeer(t *testing.T) {
	res := resource.NewManager(volatile.NewOpener(), volatile.NewOpener())
	b := observer.NewBroker(res)
	_, err := b.WaitForPeersOnline(context.Background(), []types.PeerID{types.NewPeerID()}, time.Second, false)
	assert.Error(t, err)
}

func TestWaitForPeersOnlineSucceedsImmediatelyWhenAlreadyOnline(t *testing.T) {
	res := resource.NewManager(volatile.NewOpener(), volatile.NewOpener())
	id := types.NewPeerID()
	require.NoError(t, res.ResourcesMut(func(r *resource.Resources) error {
		if err := resource.Insert[entity.PeerDescriptor](r, id, entity.PeerDescriptor{ID: id, Name: "p"}); err != nil {
			return err
		}
		return resource.Insert[entity.PeerConnectionState](r, id, entity.PeerConnectionState{PeerID: id, Status: entity.Online})
	}))

	b := observer.NewBroker(res)
	updates, err := b.WaitForPeersOnline(context.Background(), []types.PeerID{id}, time.Second, false)
	require.NoError(t, err)
	resp, ok := <-updates
	require.True(t, ok)
	assert.Equal(t, observer.Success, resp.Kind)
	_, stillOpen := <-updates
	assert.False(t, stillOpen)
}

func TestWaitForPeersOnlineEmitsPendingThenSuccess(t *testing.T) {
	res := resource.NewManager(volatile.NewOpener(), volatile.NewOpener())
	id := types.NewPeerID()
	require.NoError(t, res.ResourcesMut(func(r *resource.Resources) error {
		return resource.Insert[entity.PeerDescriptor](r, id, entity.PeerDescriptor{ID: id, Name: "p"})
	}))

	b := observer.NewBroker(res)
	updates, err := b.WaitForPeersOnline(context.Background(), []types.PeerID{id}, 5*time.Second, false)
	require.NoError(t, err)

	first := <-updates
	assert.Equal(t, observer.Pending, first.Kind)

	require.NoError(t, res.ResourcesMut(func(r *resource.Resources) error {
		return resource.Insert[entity.PeerConnectionState](r, id, entity.PeerConnectionState{PeerID: id, Status: entity.Online})
	}))

	select {
	case resp := <-updates:
		assert.Equal(t, observer.Success, resp.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected a success response")
	}
}

func TestWaitForPeersOnlineFailsOnTimeout(t *testing.T) {
	res := resource.NewManager(volatile.NewOpener(), volatile.NewOpener())
	id := types.NewPeerID()
	require.NoError(t, res.ResourcesMut(func(r *resource.Resources) error {
		return resource.Insert[entity.PeerDescriptor](r, id, entity.PeerDescriptor{ID: id, Name: "p"})
	}))

	b := observer.NewBroker(res)
	updates, err := b.WaitForPeersOnline(context.Background(), []types.PeerID{id}, 20*time.Millisecond, false)
	require.NoError(t, err)

	<-updates // Pending
	select {
	case resp := <-updates:
		assert.Equal(t, observer.Failure, resp.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected a failure response on timeout")
	}
}
