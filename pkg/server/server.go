// Package server implements carlpb.CarlServer on top of the Peer Manager,
// Cluster Manager, Peer Messaging Broker, and Observer Broker, translating
// wire requests into calls against the component packages.
package server

import (
	"context"
	"io"
	"net"

	grpcpeer "google.golang.org/grpc/peer"

	"github.com/eclipse-opendut/opendut-carl/pkg/broker"
	"github.com/eclipse-opendut/opendut-carl/pkg/carlpb"
	"github.com/eclipse-opendut/opendut-carl/pkg/cluster"
	"github.com/eclipse-opendut/opendut-carl/pkg/entity"
	"github.com/eclipse-opendut/opendut-carl/pkg/observer"
	"github.com/eclipse-opendut/opendut-carl/pkg/peer"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
)

// Server is the CARL-side implementation of carlpb.CarlServer.
type Server struct {
	peers    *peer.Manager
	clusters *cluster.Manager
	hub      *broker.Hub
	observ   *observer.Broker
	carlURL  string
	caCert   []byte
}

// New wires the four core components into an RPC handler. carlURL and
// caCert are embedded verbatim into every setup string this server issues,
// so a freshly bootstrapped peer or Cleo instance knows where to dial back
// to and which certificate to trust.
func New(peers *peer.Manager, clusters *cluster.Manager, hub *broker.Hub, observ *observer.Broker, carlURL string, caCert []byte) *Server {
	return &Server{peers: peers, clusters: clusters, hub: hub, observ: observ, carlURL: carlURL, caCert: caCert}
}

func (s *Server) StorePeer(ctx context.Context, req *carlpb.StorePeerRequest) (*carlpb.StorePeerResponse, error) {
	if err := s.peers.Store(req.Descriptor); err != nil {
		return nil, err
	}
	return &carlpb.StorePeerResponse{}, nil
}

func (s *Server) GetPeer(ctx context.Context, req *carlpb.GetPeerRequest) (*carlpb.GetPeerResponse, error) {
	desc, ok, err := s.peers.Get(req.PeerID)
	if err != nil {
		return nil, err
	}
	return &carlpb.GetPeerResponse{Descriptor: desc, Found: ok}, nil
}

func (s *Server) ListPeers(ctx context.Context, req *carlpb.ListPeersRequest) (*carlpb.ListPeersResponse, error) {
	all, err := s.peers.List()
	if err != nil {
		return nil, err
	}
	resp := &carlpb.ListPeersResponse{Descriptors: make([]entity.PeerDescriptor, 0, len(all))}
	for _, d := range all {
		resp.Descriptors = append(resp.Descriptors, d)
	}
	return resp, nil
}

func (s *Server) DeletePeer(ctx context.Context, req *carlpb.DeletePeerRequest) (*carlpb.DeletePeerResponse, error) {
	if err := s.peers.Delete(req.PeerID); err != nil {
		return nil, err
	}
	return &carlpb.DeletePeerResponse{}, nil
}

func (s *Server) GeneratePeerSetup(ctx context.Context, req *carlpb.GeneratePeerSetupRequest) (*carlpb.GeneratePeerSetupResponse, error) {
	peerSetup, err := s.peers.GeneratePeerSetup(ctx, req.PeerID, req.UserID, s.carlURL, s.caCert)
	if err != nil {
		return nil, err
	}
	return &carlpb.GeneratePeerSetupResponse{Setup: peerSetup}, nil
}

func (s *Server) GenerateCleoSetup(ctx context.Context, req *carlpb.GenerateCleoSetupRequest) (*carlpb.GenerateCleoSetupResponse, error) {
	cleoSetup, err := s.peers.GenerateCleoSetup(ctx, req.CleoID, req.UserID, s.carlURL, s.caCert)
	if err != nil {
		return nil, err
	}
	return &carlpb.GenerateCleoSetupResponse{Setup: cleoSetup}, nil
}

func (s *Server) StoreCluster(ctx context.Context, req *carlpb.StoreClusterRequest) (*carlpb.StoreClusterResponse, error) {
	if err := s.clusters.Store(req.Descriptor); err != nil {
		return nil, err
	}
	return &carlpb.StoreClusterResponse{}, nil
}

func (s *Server) GetCluster(ctx context.Context, req *carlpb.GetClusterRequest) (*carlpb.GetClusterResponse, error) {
	desc, ok, err := s.clusters.Get(req.ClusterID)
	if err != nil {
		return nil, err
	}
	return &carlpb.GetClusterResponse{Descriptor: desc, Found: ok}, nil
}

func (s *Server) ListClusters(ctx context.Context, req *carlpb.ListClustersRequest) (*carlpb.ListClustersResponse, error) {
	all, err := s.clusters.List()
	if err != nil {
		return nil, err
	}
	resp := &carlpb.ListClustersResponse{Descriptors: make([]entity.ClusterDescriptor, 0, len(all))}
	for _, d := range all {
		resp.Descriptors = append(resp.Descriptors, d)
	}
	return resp, nil
}

func (s *Server) DeleteCluster(ctx context.Context, req *carlpb.DeleteClusterRequest) (*carlpb.DeleteClusterResponse, error) {
	if err := s.clusters.Delete(req.ClusterID); err != nil {
		return nil, err
	}
	return &carlpb.DeleteClusterResponse{}, nil
}

func (s *Server) DeployCluster(ctx context.Context, req *carlpb.DeployClusterRequest) (*carlpb.DeployClusterResponse, error) {
	if err := s.clusters.Deploy(req.ClusterID); err != nil {
		return nil, err
	}
	return &carlpb.DeployClusterResponse{}, nil
}

func (s *Server) UndeployCluster(ctx context.Context, req *carlpb.UndeployClusterRequest) (*carlpb.UndeployClusterResponse, error) {
	if err := s.clusters.Undeploy(req.ClusterID); err != nil {
		return nil, err
	}
	return &carlpb.UndeployClusterResponse{}, nil
}

// PeerStream handles one EDGAR instance's bidirectional configuration
// channel: it blocks on the first message (which must be a Hello), hooks
// the peer into the broker, then relays outbound configuration pushes
// while draining inbound heartbeats until the stream ends.
func (s *Server) PeerStream(stream carlpb.Carl_PeerStreamServer) error {
	first, err := stream.Recv()
	if err != nil {
		return err
	}
	if first.Hello == nil {
		return errPeerStreamProtocol
	}
	peerID := first.Hello.PeerID

	remoteHost := ""
	if p, ok := peerFromContext(stream.Context()); ok {
		remoteHost = p
	}

	outbox, cancel, err := s.hub.Connect(peerID, remoteHost)
	if err != nil {
		return err
	}
	defer cancel()

	errs := make(chan error, 2)
	pongs := make(chan struct{}, 1)
	go func() {
		for {
			up, err := stream.Recv()
			if err != nil {
				errs <- err
				return
			}
			if up.Ping != nil {
				select {
				case pongs <- struct{}{}:
				default:
				}
			}
		}
	}()
	go func() {
		for {
			select {
			case cfg, ok := <-outbox:
				if !ok {
					errs <- io.EOF
					return
				}
				cfgCopy := cfg
				if err := stream.Send(&carlpb.PeerStreamDown{Configuration: &cfgCopy}); err != nil {
					errs <- err
					return
				}
			case <-pongs:
				if err := stream.Send(&carlpb.PeerStreamDown{Pong: &carlpb.PeerPong{}}); err != nil {
					errs <- err
					return
				}
			}
		}
	}()

	err = <-errs
	if err == io.EOF {
		return nil
	}
	return err
}

func (s *Server) ObservePeers(req *carlpb.ObserveRequest, stream carlpb.Carl_ObserveEventsServer) error {
	snap, events, cancel, err := s.observ.Peers(stream.Context())
	if err != nil {
		return err
	}
	defer cancel()
	for _, p := range snap.Peers {
		pCopy := p
		if err := stream.Send(&carlpb.ObserveEvent{TypeName: pCopy.TypeName(), Kind: resource.EventInserted, Peer: &pCopy}); err != nil {
			return err
		}
	}
	for ev := range events {
		p, _ := resource.As[entity.PeerDescriptor](ev)
		out := &carlpb.ObserveEvent{TypeName: ev.TypeName, Kind: ev.Type}
		if ev.Type == resource.EventInserted {
			out.Peer = &p
		}
		if err := stream.Send(out); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) ObserveClusters(req *carlpb.ObserveRequest, stream carlpb.Carl_ObserveEventsServer) error {
	snap, descEvents, deployEvents, cancel, err := s.observ.Clusters(stream.Context())
	if err != nil {
		return err
	}
	defer cancel()
	for _, c := range snap.Clusters {
		cCopy := c
		if err := stream.Send(&carlpb.ObserveEvent{TypeName: cCopy.TypeName(), Kind: resource.EventInserted, Cluster: &cCopy}); err != nil {
			return err
		}
	}
	for _, d := range snap.Deployments {
		dCopy := d
		if err := stream.Send(&carlpb.ObserveEvent{TypeName: dCopy.TypeName(), Kind: resource.EventInserted, Deployment: &dCopy}); err != nil {
			return err
		}
	}
	merged := mergeEvents(descEvents, deployEvents)
	for ev := range merged {
		out := &carlpb.ObserveEvent{TypeName: ev.TypeName, Kind: ev.Type}
		if ev.Type == resource.EventInserted {
			if c, ok := resource.As[entity.ClusterDescriptor](ev); ok {
				out.Cluster = &c
			}
			if d, ok := resource.As[entity.ClusterDeployment](ev); ok {
				out.Deployment = &d
			}
		}
		if err := stream.Send(out); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) ObserveConnections(req *carlpb.ObserveRequest, stream carlpb.Carl_ObserveEventsServer) error {
	snap, events, cancel, err := s.observ.Connections(stream.Context())
	if err != nil {
		return err
	}
	defer cancel()
	for _, c := range snap.Connections {
		cCopy := c
		if err := stream.Send(&carlpb.ObserveEvent{TypeName: cCopy.TypeName(), Kind: resource.EventInserted, Connection: &cCopy}); err != nil {
			return err
		}
	}
	for ev := range events {
		out := &carlpb.ObserveEvent{TypeName: ev.TypeName, Kind: ev.Type}
		if ev.Type == resource.EventInserted {
			if c, ok := resource.As[entity.PeerConnectionState](ev); ok {
				out.Connection = &c
			}
		}
		if err := stream.Send(out); err != nil {
			return err
		}
	}
	return nil
}

// WaitForPeersOnline relays the Observer Broker's wait-until-online updates
// onto the stream until it reports a terminal Success/Failure or the caller
// disconnects.
func (s *Server) WaitForPeersOnline(req *carlpb.WaitForPeersOnlineRequest, stream carlpb.Carl_WaitForPeersOnlineServer) error {
	updates, err := s.observ.WaitForPeersOnline(stream.Context(), req.PeerIDs, req.MaxObservationDuration, req.PeersMayNotYetExist)
	if err != nil {
		return err
	}
	for resp := range updates {
		if err := stream.Send(&carlpb.WaitForPeersOnlineResponse{Kind: resp.Kind}); err != nil {
			return err
		}
	}
	return nil
}

func mergeEvents(a, b <-chan resource.Event) <-chan resource.Event {
	out := make(chan resource.Event)
	go func() {
		defer close(out)
		for a != nil || b != nil {
			select {
			case ev, ok := <-a:
				if !ok {
					a = nil
					continue
				}
				out <- ev
			case ev, ok := <-b:
				if !ok {
					b = nil
					continue
				}
				out <- ev
			}
		}
	}()
	return out
}

func peerFromContext(ctx context.Context) (string, bool) {
	p, ok := grpcpeer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "", false
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host, true
	}
	return addr, true
}

var errPeerStreamProtocol = errPeerStreamProtocolError{}

type errPeerStreamProtocolError struct{}

func (errPeerStreamProtocolError) Error() string { return "peer stream must open with a Hello message" }
