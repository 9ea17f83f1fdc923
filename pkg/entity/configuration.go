package entity

import (
	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
	"github.com/eclipse-opendut/opendut-carl/pkg/types"
)

// ParameterTarget is whether a configuration parameter should be applied or
// torn down on the peer.
type ParameterTarget int

const (
	Present ParameterTarget = iota
	Absent
)

// ParameterKind discriminates which of Parameter's payload fields is set.
// gob cannot round-trip an interface value without a package-level
// gob.Register call per concrete type, so the union is modeled as a tagged
// struct instead: exactly one of the pointer fields below is non-nil for a
// given Kind.
type ParameterKind int

const (
	ParamEthernetBridge ParameterKind = iota
	ParamInterfaceJoin
	ParamGreInterface
	ParamDeviceInterface
	ParamExecutor
	ParamLocalCanRouting
	ParamRemoteCanRouting
)

type EthernetBridgeParameter struct {
	BridgeName string
}

type InterfaceJoinParameter struct {
	InterfaceName string
	BridgeName    string
}

type GreInterfaceParameter struct {
	LocalIP    string
	RemoteIP   string
	BridgeName string
}

type DeviceInterfaceParameter struct {
	Device    Device
	Interface NetworkInterface
}

type ExecutorParameter struct {
	Executor Executor
}

// LocalCanRoutingParameter installs bidirectional CAN routes between the
// named virtual CAN bridge and every listed real local CAN interface,
// covering both standard and extended frame formats.
type LocalCanRoutingParameter struct {
	BridgeName     string
	RealInterfaces []string
}

// RemoteCanRoutingParameter launches one user-space relay process that
// tunnels CAN frames between BridgeName and a single remote cluster member
// over UDP. The leader gets one of these per follower; a follower gets
// exactly one, pointing at the leader.
type RemoteCanRoutingParameter struct {
	BridgeName string
	LocalIP    string
	RemoteIP   string
	IsLeader   bool
}

// Parameter is one entry of a PeerConfiguration's ordered parameter list:
// a value paired with the target state EDGAR should converge it to.
type Parameter struct {
	Kind   ParameterKind
	Target ParameterTarget

	EthernetBridge   *EthernetBridgeParameter
	InterfaceJoin    *InterfaceJoinParameter
	GreInterface     *GreInterfaceParameter
	DeviceInterface  *DeviceInterfaceParameter
	Executor         *ExecutorParameter
	LocalCanRouting  *LocalCanRoutingParameter
	RemoteCanRouting *RemoteCanRoutingParameter
}

// ClusterAssignment carries the addressing a peer needs to reach its
// cluster's leader and fellow members, computed by the Cluster Manager when
// it assigns configuration.
type ClusterAssignment struct {
	ClusterID     types.ClusterID
	LeaderIP      string
	RemotePeerIPs map[types.PeerID]string
}

// PeerConfiguration is the desired-state document the Cluster Manager
// computes and the broker pushes to a connected peer: the parameters it
// should converge to, and (if assigned)
// the cluster it belongs to. It is recomputed rather than edited in place,
// so it lives in the Volatile storage class.
type PeerConfiguration struct {
	PeerID     types.PeerID
	Parameters []Parameter
	Assignment *ClusterAssignment
}

func (PeerConfiguration) TypeName() string             { return "peer_configuration" }
func (PeerConfiguration) Class() resource.StorageClass { return resource.Volatile }

// OldPeerConfiguration holds the configuration a peer had stored before the
// Cluster Manager's Deploy replaced it. No diff is computed against it: the
// full freshly computed PeerConfiguration is always pushed.
type OldPeerConfiguration PeerConfiguration

func (OldPeerConfiguration) TypeName() string             { return "old_peer_configuration" }
func (OldPeerConfiguration) Class() resource.StorageClass { return resource.Volatile }
