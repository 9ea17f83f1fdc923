// Package types holds the identifier and small value types shared by every
// domain entity. Identifiers are 128-bit UUIDs, each given a distinct Go
// type so a PeerID and a ClusterID can never be swapped by accident at a
// call site.
package types

import (
	"github.com/google/uuid"
)

// PeerID identifies an EDGAR instance.
type PeerID uuid.UUID

func NewPeerID() PeerID              { return PeerID(uuid.New()) }
func ParsePeerID(s string) (PeerID, error) {
	u, err := uuid.Parse(s)
	return PeerID(u), err
}
func (id PeerID) String() string  { return uuid.UUID(id).String() }
func (id PeerID) Bytes() [16]byte { return uuid.UUID(id) }
func (id PeerID) IsNil() bool     { return id == PeerID{} }

// ClusterID identifies a cluster descriptor/deployment pair (a deployment
// shares its id with the descriptor it deploys).
type ClusterID uuid.UUID

func NewClusterID() ClusterID { return ClusterID(uuid.New()) }
func ParseClusterID(s string) (ClusterID, error) {
	u, err := uuid.Parse(s)
	return ClusterID(u), err
}
func (id ClusterID) String() string  { return uuid.UUID(id).String() }
func (id ClusterID) Bytes() [16]byte { return uuid.UUID(id) }
func (id ClusterID) IsNil() bool     { return id == ClusterID{} }

// DeviceID identifies a topology device on a peer.
type DeviceID uuid.UUID

func NewDeviceID() DeviceID { return DeviceID(uuid.New()) }
func ParseDeviceID(s string) (DeviceID, error) {
	u, err := uuid.Parse(s)
	return DeviceID(u), err
}
func (id DeviceID) String() string  { return uuid.UUID(id).String() }
func (id DeviceID) Bytes() [16]byte { return uuid.UUID(id) }

// InterfaceID identifies a network interface declared on a peer.
type InterfaceID uuid.UUID

func NewInterfaceID() InterfaceID { return InterfaceID(uuid.New()) }
func ParseInterfaceID(s string) (InterfaceID, error) {
	u, err := uuid.Parse(s)
	return InterfaceID(u), err
}
func (id InterfaceID) String() string  { return uuid.UUID(id).String() }
func (id InterfaceID) Bytes() [16]byte { return uuid.UUID(id) }

// ExecutorID identifies an executor (container or executable) on a peer.
type ExecutorID uuid.UUID

func NewExecutorID() ExecutorID { return ExecutorID(uuid.New()) }
func ParseExecutorID(s string) (ExecutorID, error) {
	u, err := uuid.Parse(s)
	return ExecutorID(u), err
}
func (id ExecutorID) String() string  { return uuid.UUID(id).String() }
func (id ExecutorID) Bytes() [16]byte { return uuid.UUID(id) }

// UserID identifies the operator requesting a setup string, used only to
// scope OIDC client registration.
type UserID uuid.UUID

func NewUserID() UserID { return UserID(uuid.New()) }
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	return UserID(u), err
}
func (id UserID) String() string { return uuid.UUID(id).String() }
