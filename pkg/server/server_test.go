package server_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/eclipse-opendut/opendut-carl/pkg/broker"
	"github.com/eclipse-opendut/opendut-carl/pkg/carlpb"
	"github.com/eclipse-opendut/opendut-carl/pkg/cluster"
	"github.com/eclipse-opendut/opendut-carl/pkg/entity"
	"github.com/eclipse-opendut/opendut-carl/pkg/observer"
	"github.com/eclipse-opendut/opendut-carl/pkg/peer"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource/storage/volatile"
	"github.com/eclipse-opendut/opendut-carl/pkg/server"
	"github.com/eclipse-opendut/opendut-carl/pkg/types"
)

func dialer(t *testing.T, srv carlpb.CarlServer) (carlpb.CarlClient, func()) {
	lis := bufconn.Listen(1024 * 1024)
	grpcServer := grpc.NewServer(grpc.CustomCodec(carlpb.GobCodec{}))
	carlpb.RegisterCarlServer(grpcServer, srv)
	go grpcServer.Serve(lis)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithInsecure(),
		grpc.WithCodec(carlpb.GobCodec{}),
	)
	require.NoError(t, err)

	cleanup := func() {
		conn.Close()
		grpcServer.Stop()
	}
	return carlpb.NewCarlClient(conn), cleanup
}

func newServer() carlpb.CarlServer {
	res := resource.NewManager(volatile.NewOpener(), volatile.NewOpener())
	hub := broker.NewHub(res)
	return server.New(peer.NewManager(res), cluster.NewManager(res, hub), hub, observer.NewBroker(res), "https://carl.test:44144", []byte("test-ca-cert"))
}

func newServerWithPeers() (carlpb.CarlServer, *peer.Manager) {
	res := resource.NewManager(volatile.NewOpener(), volatile.NewOpener())
	hub := broker.NewHub(res)
	peers := peer.NewManager(res)
	return server.New(peers, cluster.NewManager(res, hub), hub, observer.NewBroker(res), "https://carl.test:44144", []byte("test-ca-cert")), peers
}

func TestStoreAndGetPeerOverGRPC(t *testing.T) {
	client, cleanup := dialer(t, newServer())
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	peerID := types.NewPeerID()
	_, err := client.StorePeer(ctx, &carlpb.StorePeerRequest{Descriptor: entity.PeerDescriptor{ID: peerID, Name: "wire-peer"}})
	require.NoError(t, err)

	resp, err := client.GetPeer(ctx, &carlpb.GetPeerRequest{PeerID: peerID})
	require.NoError(t, err)
	assert.True(t, resp.Found)
	assert.Equal(t, "wire-peer", resp.Descriptor.Name)
}

func TestGeneratePeerSetupOverGRPC(t *testing.T) {
	srv, peers := newServerWithPeers()
	client, cleanup := dialer(t, srv)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	peerID := types.NewPeerID()
	require.NoError(t, peers.Store(entity.PeerDescriptor{ID: peerID, Name: "wire-peer"}))

	resp, err := client.GeneratePeerSetup(ctx, &carlpb.GeneratePeerSetupRequest{PeerID: peerID, UserID: types.NewUserID()})
	require.NoError(t, err)
	assert.Equal(t, peerID, resp.Setup.PeerID)
	assert.Equal(t, "https://carl.test:44144", resp.Setup.CarlURL)
	assert.Equal(t, []byte("test-ca-cert"), resp.Setup.CaCert)
}

func TestGeneratePeerSetupUnknownPeerOverGRPC(t *testing.T) {
	srv, _ := newServerWithPeers()
	client, cleanup := dialer(t, srv)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.GeneratePeerSetup(ctx, &carlpb.GeneratePeerSetupRequest{PeerID: types.NewPeerID(), UserID: types.NewUserID()})
	assert.Error(t, err)
}

func TestGenerateCleoSetupOverGRPC(t *testing.T) {
	srv, _ := newServerWithPeers()
	client, cleanup := dialer(t, srv)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.GenerateCleoSetup(ctx, &carlpb.GenerateCleoSetupRequest{CleoID: types.NewUserID(), UserID: types.NewUserID()})
	require.NoError(t, err)
	assert.Equal(t, "https://carl.test:44144", resp.Setup.CarlURL)
	assert.Equal(t, []byte("test-ca-cert"), resp.Setup.CaCert)
}

func TestPeerStreamDeliversConfiguration(t *testing.T) {
	res := resource.NewManager(volatile.NewOpener(), volatile.NewOpener())
	hub := broker.NewHub(res)
	srv := server.New(peer.NewManager(res), cluster.NewManager(res, hub), hub, observer.NewBroker(res), "https://carl.test:44144", []byte("test-ca-cert"))
	client, cleanup := dialer(t, srv)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.PeerStream(ctx)
	require.NoError(t, err)

	peerID := types.NewPeerID()
	require.NoError(t, stream.Send(&carlpb.PeerStreamUp{Hello: &carlpb.PeerHello{PeerID: peerID}}))

	require.Eventually(t, func() bool { return hub.IsConnected(peerID) }, time.Second, 10*time.Millisecond)

	hub.Push(peerID, entity.PeerConfiguration{PeerID: peerID})

	down, err := stream.Recv()
	require.NoError(t, err)
	require.NotNil(t, down.Configuration)
	assert.Equal(t, peerID, down.Configuration.PeerID)
}

func TestPeerStreamRepliesToPingWithPong(t *testing.T) {
	res := resource.NewManager(volatile.NewOpener(), volatile.NewOpener())
	hub := broker.NewHub(res)
	srv := server.New(peer.NewManager(res), cluster.NewManager(res, hub), hub, observer.NewBroker(res), "https://carl.test:44144", []byte("test-ca-cert"))
	client, cleanup := dialer(t, srv)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.PeerStream(ctx)
	require.NoError(t, err)

	peerID := types.NewPeerID()
	require.NoError(t, stream.Send(&carlpb.PeerStreamUp{Hello: &carlpb.PeerHello{PeerID: peerID}}))
	require.Eventually(t, func() bool { return hub.IsConnected(peerID) }, time.Second, 10*time.Millisecond)

	require.NoError(t, stream.Send(&carlpb.PeerStreamUp{Ping: &carlpb.PeerPing{}}))

	down, err := stream.Recv()
	require.NoError(t, err)
	assert.NotNil(t, down.Pong)
}
