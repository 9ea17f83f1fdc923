package entity

import (
	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
	"github.com/eclipse-opendut/opendut-carl/pkg/types"
)

// ConnectionStatus is whether a peer currently holds an open stream to the
// broker.
type ConnectionStatus int

const (
	Offline ConnectionStatus = iota
	Online
)

// PeerConnectionState is maintained by the Peer Messaging Broker: it flips
// to Online when a peer's stream is accepted and back to Offline when the
// stream ends, for any reason.
type PeerConnectionState struct {
	PeerID     types.PeerID
	Status     ConnectionStatus
	RemoteHost string // set only when Status == Online
}

func (PeerConnectionState) TypeName() string             { return "peer_connection_state" }
func (PeerConnectionState) Class() resource.StorageClass { return resource.Volatile }

// MemberStatus is whether a peer is currently free to be assigned to a new
// cluster.
type MemberStatus int

const (
	Available MemberStatus = iota
	Blocked
)

// PeerMemberState is derived on demand from cluster deployments and is never
// persisted: a peer is Blocked exactly when it appears in the Members list
// of one or more ClusterDeployments.
type PeerMemberState struct {
	PeerID    types.PeerID
	Status    MemberStatus
	BlockedBy []types.ClusterID
}

// PeerState composes a peer's connection and membership status into the
// single view returned to API callers and observers.
type PeerState struct {
	PeerID     types.PeerID
	Connection PeerConnectionState
	Member     PeerMemberState
}
