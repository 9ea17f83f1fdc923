// Package netif applies and reverts the network-shaped parameters of a
// entity.PeerConfiguration on the local host: ethernet bridges, interface
// bridge membership, GRE tunnels to a cluster leader, and bringing up the
// interfaces backing a cluster's selected devices.
package netif

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"github.com/vishvananda/netlink"

	"github.com/eclipse-opendut/opendut-carl/pkg/edgar/canroute"
	"github.com/eclipse-opendut/opendut-carl/pkg/entity"
)

// Converger applies or reverts a single configuration parameter on the
// local host's network stack.
type Converger struct {
	relays *canroute.RelayManager
}

func New() *Converger { return &Converger{relays: canroute.NewRelayManager()} }

// Apply brings p's underlying network object into existence (Target
// Present) or tears it down (Target Absent). ParamExecutor is ignored; the
// caller handles it separately.
func (c *Converger) Apply(ctx context.Context, p entity.Parameter) error {
	switch p.Kind {
	case entity.ParamEthernetBridge:
		return c.applyBridge(p)
	case entity.ParamInterfaceJoin:
		return c.applyJoin(p)
	case entity.ParamGreInterface:
		return c.applyGre(p)
	case entity.ParamDeviceInterface:
		return c.applyDeviceInterface(p)
	case entity.ParamLocalCanRouting:
		return c.applyLocalCanRouting(p)
	case entity.ParamRemoteCanRouting:
		return c.applyRemoteCanRouting(ctx, p)
	default:
		return nil
	}
}

func (c *Converger) applyBridge(p entity.Parameter) error {
	name := p.EthernetBridge.BridgeName
	if p.Target == entity.Absent {
		link, err := netlink.LinkByName(name)
		if err != nil {
			return nil // already gone
		}
		return errors.Wrapf(netlink.LinkDel(link), "delete bridge %s", name)
	}
	if _, err := netlink.LinkByName(name); err == nil {
		return nil // already present
	}
	bridge := &netlink.Bridge{LinkAttrs: netlink.LinkAttrs{Name: name}}
	if err := netlink.LinkAdd(bridge); err != nil {
		return errors.Wrapf(err, "create bridge %s", name)
	}
	return errors.Wrapf(netlink.LinkSetUp(bridge), "bring up bridge %s", name)
}

func (c *Converger) applyJoin(p entity.Parameter) error {
	join := p.InterfaceJoin
	link, err := netlink.LinkByName(join.InterfaceName)
	if err != nil {
		return errors.Wrapf(err, "lookup interface %s", join.InterfaceName)
	}
	if p.Target == entity.Absent {
		return errors.Wrapf(netlink.LinkSetNoMaster(link), "detach %s from bridge", join.InterfaceName)
	}
	bridge, err := netlink.LinkByName(join.BridgeName)
	if err != nil {
		return errors.Wrapf(err, "lookup bridge %s", join.BridgeName)
	}
	return errors.Wrapf(netlink.LinkSetMaster(link, bridge), "join %s to bridge %s", join.InterfaceName, join.BridgeName)
}

func greLinkName(local, remote string) string {
	return "gre-" + remote[len(remote)-4:]
}

func (c *Converger) applyGre(p entity.Parameter) error {
	gre := p.GreInterface
	name := greLinkName(gre.LocalIP, gre.RemoteIP)

	if p.Target == entity.Absent {
		link, err := netlink.LinkByName(name)
		if err != nil {
			return nil
		}
		return errors.Wrapf(netlink.LinkDel(link), "delete gre tunnel %s", name)
	}

	local := net.ParseIP(gre.LocalIP)
	remote := net.ParseIP(gre.RemoteIP)
	if remote == nil {
		return errors.Errorf("invalid gre remote address %q", gre.RemoteIP)
	}
	tunnel := &netlink.Gretun{
		LinkAttrs: netlink.LinkAttrs{Name: name},
		Local:     local,
		Remote:    remote,
	}
	if err := netlink.LinkAdd(tunnel); err != nil {
		return errors.Wrapf(err, "create gre tunnel %s", name)
	}
	if err := netlink.LinkSetUp(tunnel); err != nil {
		return errors.Wrapf(err, "bring up gre tunnel %s", name)
	}

	bridge, err := netlink.LinkByName(gre.BridgeName)
	if err != nil {
		return errors.Wrapf(err, "lookup bridge %s", gre.BridgeName)
	}
	return errors.Wrapf(netlink.LinkSetMaster(tunnel, bridge), "join gre tunnel %s to bridge %s", name, gre.BridgeName)
}

// applyDeviceInterface brings an assigned device's backing interface up or
// down, applying CAN bit-timing first for real (non-virtual) CAN
// interfaces.
func (c *Converger) applyDeviceInterface(p entity.Parameter) error {
	iface := p.DeviceInterface.Interface
	if p.Target == entity.Absent {
		link, err := netlink.LinkByName(iface.Name)
		if err != nil {
			return errors.Wrapf(err, "lookup interface %s", iface.Name)
		}
		return errors.Wrapf(netlink.LinkSetDown(link), "bring down interface %s", iface.Name)
	}
	if iface.Kind == entity.Can {
		if err := canroute.ConfigureBitTiming(iface); err != nil {
			return err
		}
	}
	link, err := netlink.LinkByName(iface.Name)
	if err != nil {
		return errors.Wrapf(err, "lookup interface %s", iface.Name)
	}
	return errors.Wrapf(netlink.LinkSetUp(link), "bring up interface %s", iface.Name)
}

// applyLocalCanRouting ensures the virtual CAN bridge exists (Present) or is
// torn down (Absent), and installs/removes the cangw routes to every real
// local CAN interface.
func (c *Converger) applyLocalCanRouting(p entity.Parameter) error {
	r := p.LocalCanRouting
	if p.Target == entity.Absent {
		for _, real := range r.RealInterfaces {
			_ = canroute.RemoveLocalRoute(r.BridgeName, real)
		}
		return canroute.RemoveVirtualBridge(r.BridgeName)
	}
	if err := canroute.EnsureVirtualBridge(r.BridgeName); err != nil {
		return err
	}
	for _, real := range r.RealInterfaces {
		if err := canroute.InstallLocalRoute(r.BridgeName, real); err != nil {
			return err
		}
	}
	return nil
}

// applyRemoteCanRouting starts or stops the CAN-over-UDP relay process to
// one remote cluster member.
func (c *Converger) applyRemoteCanRouting(ctx context.Context, p entity.Parameter) error {
	r := p.RemoteCanRouting
	if p.Target == entity.Absent {
		c.relays.Stop(r.BridgeName, r.RemoteIP)
		return nil
	}
	c.relays.Start(ctx, *r)
	return nil
}
