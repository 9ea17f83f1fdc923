package entity

import "github.com/eclipse-opendut/opendut-carl/pkg/types"

// InterfaceKind distinguishes the network interface shapes EDGAR knows how
// to configure on a peer.
type InterfaceKind int

const (
	Ethernet InterfaceKind = iota
	Can
	Vcan
)

func (k InterfaceKind) String() string {
	switch k {
	case Ethernet:
		return "ethernet"
	case Can:
		return "can"
	case Vcan:
		return "vcan"
	default:
		return "unknown"
	}
}

// CanParameters carries the bit-timing configuration for a Can interface.
// FdBitrate/FdSamplePoint are zero when CAN-FD is not enabled on the bus.
type CanParameters struct {
	Bitrate       int
	SamplePoint   float64
	FdBitrate     int
	FdSamplePoint float64
}

// NetworkInterface describes one physical or virtual interface available on
// a peer's host, as reported in its topology.
type NetworkInterface struct {
	ID            types.InterfaceID
	Name          string
	Kind          InterfaceKind
	CanParameters *CanParameters // set only when Kind == Can
}

// Device is a bus participant reachable through one of the peer's
// interfaces, tagged for cluster device-selection.
type Device struct {
	ID          types.DeviceID
	Name        string
	Description string
	InterfaceID types.InterfaceID
	Tags        []string
}
