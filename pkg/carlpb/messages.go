package carlpb

import (
	"time"

	"github.com/eclipse-opendut/opendut-carl/pkg/entity"
	"github.com/eclipse-opendut/opendut-carl/pkg/observer"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
	"github.com/eclipse-opendut/opendut-carl/pkg/setup"
	"github.com/eclipse-opendut/opendut-carl/pkg/types"
)

// PeerStreamUp is sent by EDGAR over the bidirectional PeerStream: a Hello
// once to open the stream, then a Ping at a fixed interval as an
// application-level keepalive.
type PeerStreamUp struct {
	Hello *PeerHello
	Ping  *PeerPing
}

type PeerHello struct {
	PeerID types.PeerID
}

type PeerPing struct{}

// PeerStreamDown is sent by CARL: either the peer's current configuration
// whenever it changes, or a Pong reply to an inbound Ping.
type PeerStreamDown struct {
	Configuration *entity.PeerConfiguration
	Pong          *PeerPong
}

type PeerPong struct{}

type StorePeerRequest struct {
	Descriptor entity.PeerDescriptor
}
type StorePeerResponse struct{}

type GetPeerRequest struct {
	PeerID types.PeerID
}
type GetPeerResponse struct {
	Descriptor entity.PeerDescriptor
	Found      bool
}

type ListPeersRequest struct{}
type ListPeersResponse struct {
	Descriptors []entity.PeerDescriptor
}

type DeletePeerRequest struct {
	PeerID types.PeerID
}
type DeletePeerResponse struct{}

// GeneratePeerSetupRequest asks for a bootstrap payload for an existing
// peer descriptor, scoped to the requesting operator's user id.
type GeneratePeerSetupRequest struct {
	PeerID types.PeerID
	UserID types.UserID
}
type GeneratePeerSetupResponse struct {
	Setup setup.PeerSetup
}

// GenerateCleoSetupRequest asks for a bootstrap payload for a headless Cleo
// instance. CleoID scopes the OIDC client registered for it; it names no
// stored resource, since Cleo carries no descriptor.
type GenerateCleoSetupRequest struct {
	CleoID types.UserID
	UserID types.UserID
}
type GenerateCleoSetupResponse struct {
	Setup setup.CleoSetup
}

type StoreClusterRequest struct {
	Descriptor entity.ClusterDescriptor
}
type StoreClusterResponse struct{}

type GetClusterRequest struct {
	ClusterID types.ClusterID
}
type GetClusterResponse struct {
	Descriptor entity.ClusterDescriptor
	Found      bool
}

type ListClustersRequest struct{}
type ListClustersResponse struct {
	Descriptors []entity.ClusterDescriptor
}

type DeleteClusterRequest struct {
	ClusterID types.ClusterID
}
type DeleteClusterResponse struct{}

type DeployClusterRequest struct {
	ClusterID types.ClusterID
}
type DeployClusterResponse struct{}

type UndeployClusterRequest struct {
	ClusterID types.ClusterID
}
type UndeployClusterResponse struct{}

// WaitForPeersOnlineRequest asks the Observer Broker to stream status
// updates until every listed peer is online, the stream closes, or
// MaxObservationDuration elapses.
type WaitForPeersOnlineRequest struct {
	PeerIDs                []types.PeerID
	MaxObservationDuration time.Duration
	PeersMayNotYetExist    bool
}

// WaitForPeersOnlineResponse carries one Pending/Success/Failure update.
type WaitForPeersOnlineResponse struct {
	Kind observer.ResponseKind
}

type ObserveRequest struct{}

// ObserveEvent carries one resource manager commit event flattened for the
// wire: TypeName/Kind describe the change, the Peer/Cluster/Deployment/
// Connection field holds the value for an insert (nil for a removal).
type ObserveEvent struct {
	TypeName   string
	Kind       resource.EventType
	Peer       *entity.PeerDescriptor
	Cluster    *entity.ClusterDescriptor
	Deployment *entity.ClusterDeployment
	Connection *entity.PeerConnectionState
}
