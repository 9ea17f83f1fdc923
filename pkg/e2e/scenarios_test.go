package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-opendut/opendut-carl/pkg/carlpb"
	"github.com/eclipse-opendut/opendut-carl/pkg/entity"
	"github.com/eclipse-opendut/opendut-carl/pkg/observer"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
	"github.com/eclipse-opendut/opendut-carl/pkg/setup"
	"github.com/eclipse-opendut/opendut-carl/pkg/types"
)

func TestScenario1_CreatePeerThenConnectionTracksStreamLifecycle(t *testing.T) {
	h := NewHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	peerID := types.NewPeerID()
	ifaceID := types.NewInterfaceID()
	deviceID := types.NewDeviceID()
	descriptor := entity.PeerDescriptor{
		ID:   peerID,
		Name: "peer-a",
		Network: entity.Network{Interfaces: []entity.NetworkInterface{
			{ID: ifaceID, Name: "eth0", Kind: entity.Ethernet},
		}},
		Topology: entity.Topology{Devices: []entity.Device{
			{ID: deviceID, Name: "dev-1", InterfaceID: ifaceID},
		}},
	}
	_, err := h.Client.StorePeer(ctx, &carlpb.StorePeerRequest{Descriptor: descriptor})
	require.NoError(t, err)

	stream, err := h.Client.PeerStream(ctx)
	require.NoError(t, err)
	require.NoError(t, stream.Send(&carlpb.PeerStreamUp{Hello: &carlpb.PeerHello{PeerID: peerID}}))

	require.Eventually(t, func() bool {
		state, ok, err := getConnectionState(h, peerID)
		return err == nil && ok && state.Status == entity.Online
	}, time.Second, 10*time.Millisecond)

	state, _, err := getConnectionState(h, peerID)
	require.NoError(t, err)
	assert.NotEmpty(t, state.RemoteHost)

	stream.CloseSend()

	require.Eventually(t, func() bool {
		state, ok, err := getConnectionState(h, peerID)
		return err == nil && ok && state.Status == entity.Offline
	}, time.Second, 10*time.Millisecond)
}

func TestScenario2_UpdatingClusterDescriptorRemovesStaleDevices(t *testing.T) {
	h := NewHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	leaderID := types.NewPeerID()
	d1, d2, d3 := types.NewDeviceID(), types.NewDeviceID(), types.NewDeviceID()
	clusterID := types.NewClusterID()

	_, err := h.Client.StoreCluster(ctx, &carlpb.StoreClusterRequest{Descriptor: entity.ClusterDescriptor{
		ID: clusterID, Name: "c1", Leader: leaderID,
		Devices: map[types.DeviceID]struct{}{d1: {}, d2: {}, d3: {}},
	}})
	require.NoError(t, err)

	_, err = h.Client.StoreCluster(ctx, &carlpb.StoreClusterRequest{Descriptor: entity.ClusterDescriptor{
		ID: clusterID, Name: "c1", Leader: leaderID,
		Devices: map[types.DeviceID]struct{}{d1: {}},
	}})
	require.NoError(t, err)

	resp, err := h.Client.ListClusters(ctx, &carlpb.ListClustersRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Descriptors, 1)
	assert.Equal(t, map[types.DeviceID]struct{}{d1: {}}, resp.Descriptors[0].Devices)

	getResp, err := h.Client.GetCluster(ctx, &carlpb.GetClusterRequest{ClusterID: clusterID})
	require.NoError(t, err)
	assert.Equal(t, map[types.DeviceID]struct{}{d1: {}}, getResp.Descriptor.Devices)
}

func TestScenario3_DeploySmallClusterProducesGreToLeader(t *testing.T) {
	h := NewHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p1, p2 := types.NewPeerID(), types.NewPeerID()
	if1, if2 := types.NewInterfaceID(), types.NewInterfaceID()
	d1, d2 := types.NewDeviceID(), types.NewDeviceID()

	for _, descriptor := range []entity.PeerDescriptor{
		{ID: p1, Name: "peer-1",
			Network:  entity.Network{Interfaces: []entity.NetworkInterface{{ID: if1, Name: "eth0", Kind: entity.Ethernet}}},
			Topology: entity.Topology{Devices: []entity.Device{{ID: d1, Name: "dev-1", InterfaceID: if1}}},
		},
		{ID: p2, Name: "peer-2",
			Network:  entity.Network{Interfaces: []entity.NetworkInterface{{ID: if2, Name: "eth0", Kind: entity.Ethernet}}},
			Topology: entity.Topology{Devices: []entity.Device{{ID: d2, Name: "dev-1", InterfaceID: if2}}},
		},
	} {
		_, err := h.Client.StorePeer(ctx, &carlpb.StorePeerRequest{Descriptor: descriptor})
		require.NoError(t, err)
	}

	require.NoError(t, h.Res.ResourcesMut(func(r *resource.Resources) error {
		if err := resource.Insert[entity.PeerConnectionState](r, p1, entity.PeerConnectionState{PeerID: p1, Status: entity.Online, RemoteHost: "10.0.0.1"}); err != nil {
			return err
		}
		return resource.Insert[entity.PeerConnectionState](r, p2, entity.PeerConnectionState{PeerID: p2, Status: entity.Online, RemoteHost: "10.0.0.2"})
	}))

	clusterID := types.NewClusterID()
	_, err := h.Client.StoreCluster(ctx, &carlpb.StoreClusterRequest{Descriptor: entity.ClusterDescriptor{
		ID: clusterID, Name: "c1", Leader: p1,
		Devices: map[types.DeviceID]struct{}{d1: {}, d2: {}},
	}})
	require.NoError(t, err)

	_, err = h.Client.DeployCluster(ctx, &carlpb.DeployClusterRequest{ClusterID: clusterID})
	require.NoError(t, err)

	cfgP1, ok, err := getPeerConfiguration(h, p1)
	require.NoError(t, err)
	require.True(t, ok)
	cfgP2, ok, err := getPeerConfiguration(h, p2)
	require.NoError(t, err)
	require.True(t, ok)

	gre := findGreParameter(cfgP2.Parameters)
	require.NotNil(t, gre, "expected a GRE parameter in the follower's configuration")
	assert.Equal(t, "10.0.0.1", gre.RemoteIP)
	assert.Nil(t, findGreParameter(cfgP1.Parameters), "the leader itself should not get a GRE tunnel")

	_, err = h.Client.UndeployCluster(ctx, &carlpb.UndeployClusterRequest{ClusterID: clusterID})
	require.NoError(t, err)

	_, ok, err = getPeerConfiguration(h, p1)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = getPeerConfiguration(h, p2)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = getDeployment(h, clusterID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScenario4_ObserverWaitsThenSucceeds(t *testing.T) {
	h := NewHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p1, p2 := types.NewPeerID(), types.NewPeerID()
	for _, id := range []types.PeerID{p1, p2} {
		_, err := h.Client.StorePeer(ctx, &carlpb.StorePeerRequest{Descriptor: entity.PeerDescriptor{ID: id}})
		require.NoError(t, err)
	}

	stream, err := h.Client.WaitForPeersOnline(ctx, &carlpb.WaitForPeersOnlineRequest{
		PeerIDs: []types.PeerID{p1, p2}, MaxObservationDuration: 30 * time.Second,
	})
	require.NoError(t, err)

	first, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, observer.Pending, first.Kind)

	s1, err := h.Client.PeerStream(ctx)
	require.NoError(t, err)
	require.NoError(t, s1.Send(&carlpb.PeerStreamUp{Hello: &carlpb.PeerHello{PeerID: p1}}))
	require.Eventually(t, func() bool {
		state, ok, err := getConnectionState(h, p1)
		return err == nil && ok && state.Status == entity.Online
	}, time.Second, 10*time.Millisecond)

	second, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, observer.Pending, second.Kind)

	s2, err := h.Client.PeerStream(ctx)
	require.NoError(t, err)
	require.NoError(t, s2.Send(&carlpb.PeerStreamUp{Hello: &carlpb.PeerHello{PeerID: p2}}))

	third, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, observer.Success, third.Kind)

	_, err = stream.Recv()
	assert.Error(t, err, "stream should close once the wait is satisfied")
}

func TestScenario5_ObserverTimesOutWhenNotAllPeersComeOnline(t *testing.T) {
	h := NewHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p1, p2 := types.NewPeerID(), types.NewPeerID()
	for _, id := range []types.PeerID{p1, p2} {
		_, err := h.Client.StorePeer(ctx, &carlpb.StorePeerRequest{Descriptor: entity.PeerDescriptor{ID: id}})
		require.NoError(t, err)
	}

	stream, err := h.Client.WaitForPeersOnline(ctx, &carlpb.WaitForPeersOnlineRequest{
		PeerIDs: []types.PeerID{p1, p2}, MaxObservationDuration: 200 * time.Millisecond,
	})
	require.NoError(t, err)

	first, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, observer.Pending, first.Kind)

	s1, err := h.Client.PeerStream(ctx)
	require.NoError(t, err)
	require.NoError(t, s1.Send(&carlpb.PeerStreamUp{Hello: &carlpb.PeerHello{PeerID: p1}}))

	second, err := stream.Recv() // still Pending: p2 never comes online
	require.NoError(t, err)
	assert.Equal(t, observer.Pending, second.Kind)

	final, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, observer.Failure, final.Kind)

	_, err = stream.Recv()
	assert.Error(t, err)
}

func TestScenario6_SetupStringRoundTripsAndRejectsCorruption(t *testing.T) {
	original := setup.PeerSetup{
		PeerID:  types.NewPeerID(),
		CarlURL: "https://example:443",
		CaCert:  []byte("-----BEGIN CERTIFICATE-----\nMII...\n-----END CERTIFICATE-----\n"),
		Auth:    setup.AuthConfig{Kind: setup.AuthDisabled},
		Vpn:     setup.VpnPeerConfig{Kind: setup.VpnDisabled},
	}

	encoded, err := setup.Encode(original)
	require.NoError(t, err)

	var decoded setup.PeerSetup
	require.NoError(t, setup.Decode(encoded, &decoded))
	assert.Equal(t, original, decoded)

	corrupted := []byte(encoded)
	corrupted[len(corrupted)/2] = '!' // '!' is outside the base64url alphabet
	var garbage setup.PeerSetup
	assert.Error(t, setup.Decode(string(corrupted), &garbage))
}
