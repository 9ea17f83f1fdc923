// Package cluster implements the Cluster Manager: CRUD over cluster
// descriptors, and the deploy/undeploy operations that turn a descriptor
// into per-peer configuration pushed out through the Peer Messaging
// Broker.
package cluster

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/eclipse-opendut/opendut-carl/pkg/broker"
	"github.com/eclipse-opendut/opendut-carl/pkg/colog"
	"github.com/eclipse-opendut/opendut-carl/pkg/entity"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
	"github.com/eclipse-opendut/opendut-carl/pkg/types"
	"github.com/eclipse-opendut/opendut-carl/pkg/vpn"
)

var (
	ErrClusterNotFound       = errors.New("cluster not found")
	ErrClusterAlreadyDeployed = errors.New("cluster is already deployed")
	ErrClusterNotDeployed    = errors.New("cluster is not deployed")
	ErrNoDevicesResolved     = errors.New("no peer provides any of the cluster's devices")
)

// ErrMemberAlreadyBlocked is returned by Deploy when a resolved member peer
// is already assigned to another cluster's deployment, naming both the peer
// and the cluster holding the conflicting assignment.
type ErrMemberAlreadyBlocked struct {
	PeerID            types.PeerID
	BlockingClusterID types.ClusterID
}

func (e ErrMemberAlreadyBlocked) Error() string {
	return fmt.Sprintf("peer %s is already assigned to cluster %s", e.PeerID, e.BlockingClusterID)
}

type Manager struct {
	res       *resource.Manager
	brokerHub *broker.Hub
	vpn       vpn.Client
}

// Option configures an optional external adaptor on a Manager.
type Option func(*Manager)

// WithVPN wires a VPN management client into deploy/undeploy, so each
// cluster gets a network group scoping its members' reachability alongside
// the GRE/CAN overlay EDGAR configures inside it.
func WithVPN(client vpn.Client) Option { return func(m *Manager) { m.vpn = client } }

func NewManager(res *resource.Manager, brokerHub *broker.Hub, opts ...Option) *Manager {
	m := &Manager{res: res, brokerHub: brokerHub}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Store(desc entity.ClusterDescriptor) error {
	return m.res.ResourcesMut(func(r *resource.Resources) error {
		return resource.Insert[entity.ClusterDescriptor](r, desc.ID, desc)
	})
}

func (m *Manager) Get(id types.ClusterID) (entity.ClusterDescriptor, bool, error) {
	var out entity.ClusterDescriptor
	var found bool
	err := m.res.Resources(func(r *resource.Resources) error {
		v, ok, gerr := resource.Get[entity.ClusterDescriptor](r, id)
		out, found = v, ok
		return gerr
	})
	return out, found, err
}

func (m *Manager) List() (map[types.ClusterID]entity.ClusterDescriptor, error) {
	var out map[types.ClusterID]entity.ClusterDescriptor
	err := m.res.Resources(func(r *resource.Resources) error {
		raw, lerr := resource.List[entity.ClusterDescriptor](r)
		if lerr != nil {
			return lerr
		}
		out = make(map[types.ClusterID]entity.ClusterDescriptor, len(raw))
		for id, v := range raw {
			out[types.ClusterID(id)] = v
		}
		return nil
	})
	return out, err
}

// Delete removes a cluster descriptor. A deployed cluster must be
// undeployed first.
func (m *Manager) Delete(id types.ClusterID) error {
	return m.res.ResourcesMut(func(r *resource.Resources) error {
		if _, ok, err := resource.Get[entity.ClusterDeployment](r, id); err != nil {
			return err
		} else if ok {
			return ErrClusterAlreadyDeployed
		}
		_, ok, err := resource.Remove[entity.ClusterDescriptor](r, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrClusterNotFound
		}
		return nil
	})
}

// resolveMembers maps each device named in the descriptor to the peer that
// reports it in its topology, returning the distinct set of peers involved
// (the leader is always included even if it contributes no device).
func resolveMembers(descriptor entity.ClusterDescriptor, peers map[types.PeerID]entity.PeerDescriptor) (map[types.PeerID][]entity.Device, error) {
	assigned := make(map[types.PeerID][]entity.Device)
	for peerID, p := range peers {
		for _, dev := range p.Topology.Devices {
			if _, wanted := descriptor.Devices[dev.ID]; wanted {
				assigned[peerID] = append(assigned[peerID], dev)
			}
		}
	}
	if len(assigned) == 0 {
		return nil, ErrNoDevicesResolved
	}
	if _, ok := assigned[descriptor.Leader]; !ok {
		assigned[descriptor.Leader] = nil
	}
	return assigned, nil
}

func bridgeName(id types.ClusterID) string {
	return fmt.Sprintf("dut-br-%s", id.String()[:8])
}

func canBridgeName(id types.ClusterID) string {
	return fmt.Sprintf("dut-can-%s", id.String()[:8])
}

// canDeviceInterfaces returns the subset of devices backed by a real (not
// virtual) CAN interface, alongside their interface names.
func canDeviceInterfaces(devices []entity.Device, interfaces []entity.NetworkInterface) []string {
	byID := make(map[types.InterfaceID]entity.NetworkInterface, len(interfaces))
	for _, iface := range interfaces {
		byID[iface.ID] = iface
	}
	var names []string
	for _, dev := range devices {
		iface, ok := byID[dev.InterfaceID]
		if !ok || iface.Kind != entity.Can {
			continue
		}
		names = append(names, iface.Name)
	}
	return names
}

// buildParameters produces the parameter list a single peer needs to join
// the cluster: an ethernet bridge, its own devices joined to it, a GRE
// tunnel to the leader (skipped on the leader itself), CAN routing if any of
// its devices are CAN interfaces, and its executors.
//
// canFollowerIPs maps every non-leader peer with at least one real CAN
// interface to its remote address; it is only consulted when peerID is the
// cluster leader, to emit one relay process per follower.
func buildParameters(descriptor entity.ClusterDescriptor, peerID types.PeerID, devices []entity.Device, interfaces []entity.NetworkInterface, leaderIP, selfIP string, executors []entity.Executor, canFollowerIPs map[types.PeerID]string, target entity.ParameterTarget) []entity.Parameter {
	bridge := bridgeName(descriptor.ID)
	var params []entity.Parameter

	params = append(params, entity.Parameter{
		Kind: entity.ParamEthernetBridge, Target: target,
		EthernetBridge: &entity.EthernetBridgeParameter{BridgeName: bridge},
	})

	ifaceByID := make(map[types.InterfaceID]entity.NetworkInterface, len(interfaces))
	for _, iface := range interfaces {
		ifaceByID[iface.ID] = iface
	}
	for _, dev := range devices {
		iface := ifaceByID[dev.InterfaceID]
		params = append(params, entity.Parameter{
			Kind: entity.ParamDeviceInterface, Target: target,
			DeviceInterface: &entity.DeviceInterfaceParameter{Device: dev, Interface: iface},
		})
		params = append(params, entity.Parameter{
			Kind: entity.ParamInterfaceJoin, Target: target,
			InterfaceJoin: &entity.InterfaceJoinParameter{InterfaceName: iface.Name, BridgeName: bridge},
		})
	}

	if peerID != descriptor.Leader && leaderIP != "" {
		params = append(params, entity.Parameter{
			Kind: entity.ParamGreInterface, Target: target,
			GreInterface: &entity.GreInterfaceParameter{LocalIP: selfIP, RemoteIP: leaderIP, BridgeName: bridge},
		})
	}

	canReals := canDeviceInterfaces(devices, interfaces)
	canBridge := canBridgeName(descriptor.ID)
	if len(canReals) > 0 {
		params = append(params, entity.Parameter{
			Kind: entity.ParamLocalCanRouting, Target: target,
			LocalCanRouting: &entity.LocalCanRoutingParameter{BridgeName: canBridge, RealInterfaces: canReals},
		})
	}
	if peerID == descriptor.Leader {
		for _, followerIP := range canFollowerIPs {
			if followerIP == "" {
				continue
			}
			params = append(params, entity.Parameter{
				Kind: entity.ParamRemoteCanRouting, Target: target,
				RemoteCanRouting: &entity.RemoteCanRoutingParameter{BridgeName: canBridge, LocalIP: selfIP, RemoteIP: followerIP, IsLeader: true},
			})
		}
	} else if len(canReals) > 0 && leaderIP != "" {
		params = append(params, entity.Parameter{
			Kind: entity.ParamRemoteCanRouting, Target: target,
			RemoteCanRouting: &entity.RemoteCanRoutingParameter{BridgeName: canBridge, LocalIP: selfIP, RemoteIP: leaderIP, IsLeader: false},
		})
	}

	for _, ex := range executors {
		params = append(params, entity.Parameter{
			Kind: entity.ParamExecutor, Target: target,
			Executor: &entity.ExecutorParameter{Executor: ex},
		})
	}

	return params
}

// Deploy resolves the descriptor's device set onto currently known peers,
// computes each involved peer's configuration in a hub-and-spoke topology
// around the cluster's leader, records a ClusterDeployment, and pushes the
// new configuration to every connected member.
func (m *Manager) Deploy(id types.ClusterID) error {
	pushed := make(map[types.PeerID]entity.PeerConfiguration)
	var deployedMembers []types.PeerID
	err := m.res.ResourcesMut(func(r *resource.Resources) error {
		descriptor, ok, err := resource.Get[entity.ClusterDescriptor](r, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrClusterNotFound
		}
		if _, already, err := resource.Get[entity.ClusterDeployment](r, id); err != nil {
			return err
		} else if already {
			return ErrClusterAlreadyDeployed
		}

		rawPeers, err := resource.List[entity.PeerDescriptor](r)
		if err != nil {
			return err
		}
		peers := make(map[types.PeerID]entity.PeerDescriptor, len(rawPeers))
		for rawID, p := range rawPeers {
			peers[types.PeerID(rawID)] = p
		}

		assigned, err := resolveMembers(descriptor, peers)
		if err != nil {
			return err
		}

		deployments, err := resource.List[entity.ClusterDeployment](r)
		if err != nil {
			return err
		}
		for peerID := range assigned {
			for _, d := range deployments {
				for _, member := range d.Members {
					if member == peerID {
						return ErrMemberAlreadyBlocked{PeerID: peerID, BlockingClusterID: d.ID}
					}
				}
			}
		}

		leaderIP := ""
		if state, ok, err := resource.Get[entity.PeerConnectionState](r, descriptor.Leader); err != nil {
			return err
		} else if ok {
			leaderIP = state.RemoteHost
		}

		remoteIPs := make(map[types.PeerID]string)
		members := make([]types.PeerID, 0, len(assigned))
		for peerID := range assigned {
			members = append(members, peerID)
			if state, ok, err := resource.Get[entity.PeerConnectionState](r, peerID); err != nil {
				return err
			} else if ok {
				remoteIPs[peerID] = state.RemoteHost
			}
		}

		canFollowerIPs := make(map[types.PeerID]string)
		for peerID, devices := range assigned {
			if peerID == descriptor.Leader {
				continue
			}
			if len(canDeviceInterfaces(devices, peers[peerID].Network.Interfaces)) > 0 {
				canFollowerIPs[peerID] = remoteIPs[peerID]
			}
		}

		for peerID, devices := range assigned {
			if old, ok, err := resource.Get[entity.PeerConfiguration](r, peerID); err != nil {
				return err
			} else if ok {
				if err := resource.Insert[entity.OldPeerConfiguration](r, peerID, entity.OldPeerConfiguration(old)); err != nil {
					return err
				}
			}

			params := buildParameters(descriptor, peerID, devices, peers[peerID].Network.Interfaces, leaderIP, remoteIPs[peerID], peers[peerID].Executors, canFollowerIPs, entity.Present)
			cfg := entity.PeerConfiguration{
				PeerID:     peerID,
				Parameters: params,
				Assignment: &entity.ClusterAssignment{ClusterID: id, LeaderIP: leaderIP, RemotePeerIPs: remoteIPs},
			}
			if err := resource.Insert[entity.PeerConfiguration](r, peerID, cfg); err != nil {
				return err
			}
			pushed[peerID] = cfg
		}

		deployedMembers = members
		return resource.Insert[entity.ClusterDeployment](r, id, entity.ClusterDeployment{ID: id, Members: members})
	})
	if err != nil {
		return err
	}
	if m.vpn != nil {
		if vpnErr := m.vpn.CreateNetwork(context.Background(), id, deployedMembers); vpnErr != nil {
			colog.Warnf("failed to create vpn network group for cluster %s: %v", id, vpnErr)
		}
	}
	for peerID, cfg := range pushed {
		if !m.brokerHub.Push(peerID, cfg) {
			colog.Infof("configuration not pushed to peer %s, it stays stored but is not resent on reconnect", peerID)
		}
	}
	return nil
}

// Undeploy removes the cluster's deployment record and pushes a withdrawal
// configuration (every parameter with Target Absent) to its members.
func (m *Manager) Undeploy(id types.ClusterID) error {
	var withdraw map[types.PeerID]entity.PeerConfiguration
	err := m.res.ResourcesMut(func(r *resource.Resources) error {
		descriptor, ok, err := resource.Get[entity.ClusterDescriptor](r, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrClusterNotFound
		}
		deployment, ok, err := resource.Remove[entity.ClusterDeployment](r, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrClusterNotDeployed
		}

		withdraw = make(map[types.PeerID]entity.PeerConfiguration, len(deployment.Members))
		for _, peerID := range deployment.Members {
			_, ok, err := resource.Remove[entity.PeerConfiguration](r, peerID)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			resource.Remove[entity.OldPeerConfiguration](r, peerID)
			withdraw[peerID] = entity.PeerConfiguration{
				PeerID:     peerID,
				Parameters: buildParameters(descriptor, peerID, nil, nil, "", "", nil, nil, entity.Absent),
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if m.vpn != nil {
		if vpnErr := m.vpn.DeleteNetwork(context.Background(), id); vpnErr != nil {
			colog.Warnf("failed to delete vpn network group for cluster %s: %v", id, vpnErr)
		}
	}
	for peerID, cfg := range withdraw {
		if !m.brokerHub.Push(peerID, cfg) {
			colog.Infof("withdrawal not pushed to peer %s and not stored for later delivery", peerID)
		}
	}
	return nil
}
