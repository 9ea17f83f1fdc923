package entity

import (
	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
	"github.com/eclipse-opendut/opendut-carl/pkg/types"
)

// Topology is the set of devices a peer has reported reachable through its
// own interfaces.
type Topology struct {
	Devices []Device
}

// Network is a peer's reported interface inventory.
type Network struct {
	Interfaces []NetworkInterface
}

// PeerDescriptor is the operator-authored, persisted description of a peer:
// its identity, declared network topology, and the executors it can run.
// It is independent of whether the peer is currently connected.
type PeerDescriptor struct {
	ID        types.PeerID
	Name      string
	Location  string
	Network   Network
	Topology  Topology
	Executors []Executor
}

func (PeerDescriptor) TypeName() string           { return "peer_descriptor" }
func (PeerDescriptor) Class() resource.StorageClass { return resource.Persistent }
