package cluster_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-opendut/opendut-carl/pkg/broker"
	"github.com/eclipse-opendut/opendut-carl/pkg/cluster"
	"github.com/eclipse-opendut/opendut-carl/pkg/entity"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource/storage/volatile"
	"github.com/eclipse-opendut/opendut-carl/pkg/types"
)

// fakeVPN records cluster network lifecycle calls instead of hitting a real
// management API.
type fakeVPN struct {
	createdFor map[types.ClusterID][]types.PeerID
	deletedFor []types.ClusterID
}

func newFakeVPN() *fakeVPN {
	return &fakeVPN{createdFor: map[types.ClusterID][]types.PeerID{}}
}

func (f *fakeVPN) CreateSetupKey(context.Context, types.PeerID) (string, string, error) {
	return "", "", nil
}
func (f *fakeVPN) DeletePeer(context.Context, types.PeerID) error { return nil }

func (f *fakeVPN) CreateNetwork(_ context.Context, clusterID types.ClusterID, members []types.PeerID) error {
	f.createdFor[clusterID] = members
	return nil
}

func (f *fakeVPN) DeleteNetwork(_ context.Context, clusterID types.ClusterID) error {
	f.deletedFor = append(f.deletedFor, clusterID)
	return nil
}

func newResourceManager() *resource.Manager {
	return resource.NewManager(volatile.NewOpener(), volatile.NewOpener())
}

func setupTwoPeerTopology(t *testing.T, res *resource.Manager) (leaderID, memberID types.PeerID, deviceID types.DeviceID) {
	leaderID = types.NewPeerID()
	memberID = types.NewPeerID()
	deviceID = types.NewDeviceID()
	ifaceID := types.NewInterfaceID()

	require.NoError(t, res.ResourcesMut(func(r *resource.Resources) error {
		if err := resource.Insert[entity.PeerDescriptor](r, leaderID, entity.PeerDescriptor{ID: leaderID, Name: "leader"}); err != nil {
			return err
		}
		return resource.Insert[entity.PeerDescriptor](r, memberID, entity.PeerDescriptor{
			ID:   memberID,
			Name: "member",
			Topology: entity.Topology{Devices: []entity.Device{
				{ID: deviceID, Name: "can0", InterfaceID: ifaceID},
			}},
		})
	}))
	require.NoError(t, res.ResourcesMut(func(r *resource.Resources) error {
		if err := resource.Insert[entity.PeerConnectionState](r, leaderID, entity.PeerConnectionState{PeerID: leaderID, Status: entity.Online, RemoteHost: "10.0.0.1"}); err != nil {
			return err
		}
		return resource.Insert[entity.PeerConnectionState](r, memberID, entity.PeerConnectionState{PeerID: memberID, Status: entity.Online, RemoteHost: "10.0.0.2"})
	}))
	return leaderID, memberID, deviceID
}

func TestDeployResolvesMembersAndPushesConfiguration(t *testing.T) {
	res := newResourceManager()
	hub := broker.NewHub(res)
	mgr := cluster.NewManager(res, hub)

	leaderID, memberID, deviceID := setupTwoPeerTopology(t, res)
	memberOutbox, disconnect, err := hub.Connect(memberID, "10.0.0.2")
	require.NoError(t, err)
	defer disconnect()

	clusterID := types.NewClusterID()
	require.NoError(t, mgr.Store(entity.ClusterDescriptor{
		ID: clusterID, Name: "c1", Leader: leaderID,
		Devices: map[types.DeviceID]struct{}{deviceID: {}},
	}))

	require.NoError(t, mgr.Deploy(clusterID))

	require.NoError(t, res.Resources(func(r *resource.Resources) error {
		_, ok, err := resource.Get[entity.ClusterDeployment](r, clusterID)
		require.NoError(t, err)
		assert.True(t, ok)

		cfg, ok, err := resource.Get[entity.PeerConfiguration](r, memberID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.NotEmpty(t, cfg.Parameters)
		require.NotNil(t, cfg.Assignment)
		assert.Equal(t, "10.0.0.1", cfg.Assignment.LeaderIP)
		return nil
	}))

	require.Len(t, memberOutbox, 1)
	pushed := <-memberOutbox
	assert.Equal(t, memberID, pushed.PeerID)
	assert.NotEmpty(t, pushed.Parameters)
}

func TestDeployFailsWhenNoDeviceResolves(t *testing.T) {
	res := newResourceManager()
	hub := broker.NewHub(res)
	mgr := cluster.NewManager(res, hub)
	leaderID := types.NewPeerID()

	clusterID := types.NewClusterID()
	require.NoError(t, mgr.Store(entity.ClusterDescriptor{
		ID: clusterID, Name: "c1", Leader: leaderID,
		Devices: map[types.DeviceID]struct{}{types.NewDeviceID(): {}},
	}))

	err := mgr.Deploy(clusterID)
	assert.ErrorIs(t, err, cluster.ErrNoDevicesResolved)
}

func TestUndeployClearsDeploymentAndPushesWithdrawal(t *testing.T) {
	res := newResourceManager()
	hub := broker.NewHub(res)
	mgr := cluster.NewManager(res, hub)

	leaderID, memberID, deviceID := setupTwoPeerTopology(t, res)
	clusterID := types.NewClusterID()
	require.NoError(t, mgr.Store(entity.ClusterDescriptor{
		ID: clusterID, Name: "c1", Leader: leaderID,
		Devices: map[types.DeviceID]struct{}{deviceID: {}},
	}))
	require.NoError(t, mgr.Deploy(clusterID))
	memberOutbox, disconnect, err := hub.Connect(memberID, "10.0.0.2")
	require.NoError(t, err)
	defer disconnect()
	require.NoError(t, mgr.Undeploy(clusterID))

	require.NoError(t, res.Resources(func(r *resource.Resources) error {
		_, ok, err := resource.Get[entity.ClusterDeployment](r, clusterID)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	}))

	require.Len(t, memberOutbox, 1)
	withdrawal := <-memberOutbox
	require.NotEmpty(t, withdrawal.Parameters)
	for _, p := range withdrawal.Parameters {
		assert.Equal(t, entity.Absent, p.Target)
	}

	state, err := peerStateHelper(res, memberID)
	require.NoError(t, err)
	assert.Equal(t, entity.Available, state.Status)
}

func TestDeployCreatesVpnNetworkForMembers(t *testing.T) {
	res := newResourceManager()
	hub := broker.NewHub(res)
	vpnClient := newFakeVPN()
	mgr := cluster.NewManager(res, hub, cluster.WithVPN(vpnClient))

	leaderID, memberID, deviceID := setupTwoPeerTopology(t, res)
	clusterID := types.NewClusterID()
	require.NoError(t, mgr.Store(entity.ClusterDescriptor{
		ID: clusterID, Name: "c1", Leader: leaderID,
		Devices: map[types.DeviceID]struct{}{deviceID: {}},
	}))

	require.NoError(t, mgr.Deploy(clusterID))

	members, ok := vpnClient.createdFor[clusterID]
	require.True(t, ok)
	assert.ElementsMatch(t, []types.PeerID{leaderID, memberID}, members)
}

func TestUndeployDeletesVpnNetwork(t *testing.T) {
	res := newResourceManager()
	hub := broker.NewHub(res)
	vpnClient := newFakeVPN()
	mgr := cluster.NewManager(res, hub, cluster.WithVPN(vpnClient))

	leaderID, _, deviceID := setupTwoPeerTopology(t, res)
	clusterID := types.NewClusterID()
	require.NoError(t, mgr.Store(entity.ClusterDescriptor{
		ID: clusterID, Name: "c1", Leader: leaderID,
		Devices: map[types.DeviceID]struct{}{deviceID: {}},
	}))
	require.NoError(t, mgr.Deploy(clusterID))
	require.NoError(t, mgr.Undeploy(clusterID))

	assert.Equal(t, []types.ClusterID{clusterID}, vpnClient.deletedFor)
}

func peerStateHelper(res *resource.Manager, id types.PeerID) (entity.PeerMemberState, error) {
	state := entity.PeerMemberState{PeerID: id, Status: entity.Available}
	err := res.Resources(func(r *resource.Resources) error {
		deployments, err := resource.List[entity.ClusterDeployment](r)
		if err != nil {
			return err
		}
		for _, d := range deployments {
			for _, member := range d.Members {
				if member == id {
					state.Status = entity.Blocked
					state.BlockedBy = append(state.BlockedBy, d.ID)
				}
			}
		}
		return nil
	})
	return state, err
}
