// Package e2e wires every control-plane component together the way
// cmd/carl does and drives it over a real (if in-process) gRPC connection,
// exercising the scenarios a deployed CARL instance is expected to satisfy
// rather than any single package in isolation.
package e2e

import (
	"context"
	"net"
	"testing"

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

// Harness is one fully wired CARL instance, reachable over an in-process
// gRPC connection, plus the Resource Manager backing it for assertions a
// client RPC has no way to make directly.
type Harness struct {
	Client carlpb.CarlClient
	Res    *resource.Manager
	Hub    *broker.Hub
}

func NewHarness(t *testing.T) *Harness {
	res := resource.NewManager(volatile.NewOpener(), volatile.NewOpener())
	hub := broker.NewHub(res)
	srv := server.New(peer.NewManager(res), cluster.NewManager(res, hub), hub, observer.NewBroker(res), "https://carl.test:44144", []byte("test-ca-cert"))

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

	t.Cleanup(func() {
		conn.Close()
		grpcServer.Stop()
	})

	return &Harness{Client: carlpb.NewCarlClient(conn), Res: res, Hub: hub}
}

func getConnectionState(h *Harness, peerID types.PeerID) (entity.PeerConnectionState, bool, error) {
	var out entity.PeerConnectionState
	var found bool
	err := h.Res.Resources(func(r *resource.Resources) error {
		v, ok, gerr := resource.Get[entity.PeerConnectionState](r, peerID)
		out, found = v, ok
		return gerr
	})
	return out, found, err
}

func getPeerConfiguration(h *Harness, peerID types.PeerID) (entity.PeerConfiguration, bool, error) {
	var out entity.PeerConfiguration
	var found bool
	err := h.Res.Resources(func(r *resource.Resources) error {
		v, ok, gerr := resource.Get[entity.PeerConfiguration](r, peerID)
		out, found = v, ok
		return gerr
	})
	return out, found, err
}

func getDeployment(h *Harness, clusterID types.ClusterID) (entity.ClusterDeployment, bool, error) {
	var out entity.ClusterDeployment
	var found bool
	err := h.Res.Resources(func(r *resource.Resources) error {
		v, ok, gerr := resource.Get[entity.ClusterDeployment](r, clusterID)
		out, found = v, ok
		return gerr
	})
	return out, found, err
}

func findGreParameter(params []entity.Parameter) *entity.GreInterfaceParameter {
	for _, p := range params {
		if p.Kind == entity.ParamGreInterface {
			return p.GreInterface
		}
	}
	return nil
}
