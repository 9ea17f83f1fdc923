// Package peer implements the Peer Manager: CRUD over peer descriptors and
// the membership half of a peer's derived state.
package peer

import (
	"context"

	"github.com/pkg/errors"

	"github.com/eclipse-opendut/opendut-carl/pkg/colog"
	"github.com/eclipse-opendut/opendut-carl/pkg/entity"
	"github.com/eclipse-opendut/opendut-carl/pkg/oidc"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
	"github.com/eclipse-opendut/opendut-carl/pkg/setup"
	"github.com/eclipse-opendut/opendut-carl/pkg/types"
	"github.com/eclipse-opendut/opendut-carl/pkg/vpn"
)

var (
	ErrPeerIsClusterLeader = errors.New("peer is the leader of a cluster and cannot be deleted")
	ErrPeerIsClusterMember = errors.New("peer is deployed as a cluster member and cannot be deleted")
	ErrPeerNotFound        = errors.New("peer not found")
)

type Manager struct {
	res     *resource.Manager
	vpn     vpn.Client
	oidcReg oidc.RegistrationClient
}

// Option configures optional external adaptors on a Manager. Neither is
// required: with both unset the manager only ever produces Disabled auth
// and VPN configurations.
type Option func(*Manager)

// WithVPN wires a VPN management client into peer deletion (revoking mesh
// membership) and setup generation (issuing enrollment keys).
func WithVPN(client vpn.Client) Option { return func(m *Manager) { m.vpn = client } }

// WithOIDCRegistration wires an OIDC dynamic client registration endpoint
// into setup generation, so issued setups carry real client credentials
// instead of AuthDisabled.
func WithOIDCRegistration(reg oidc.RegistrationClient) Option {
	return func(m *Manager) { m.oidcReg = reg }
}

func NewManager(res *resource.Manager, opts ...Option) *Manager {
	m := &Manager{res: res}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store creates or replaces a peer descriptor.
func (m *Manager) Store(desc entity.PeerDescriptor) error {
	return m.res.ResourcesMut(func(r *resource.Resources) error {
		return resource.Insert[entity.PeerDescriptor](r, desc.ID, desc)
	})
}

func (m *Manager) Get(id types.PeerID) (entity.PeerDescriptor, bool, error) {
	var out entity.PeerDescriptor
	var found bool
	err := m.res.Resources(func(r *resource.Resources) error {
		v, ok, gerr := resource.Get[entity.PeerDescriptor](r, id)
		out, found = v, ok
		return gerr
	})
	return out, found, err
}

func (m *Manager) List() (map[types.PeerID]entity.PeerDescriptor, error) {
	var out map[types.PeerID]entity.PeerDescriptor
	err := m.res.Resources(func(r *resource.Resources) error {
		raw, lerr := resource.List[entity.PeerDescriptor](r)
		if lerr != nil {
			return lerr
		}
		out = make(map[types.PeerID]entity.PeerDescriptor, len(raw))
		for id, v := range raw {
			out[types.PeerID(id)] = v
		}
		return nil
	})
	return out, err
}

// Delete removes a peer descriptor, rejecting the attempt if the peer is
// currently a cluster's leader or is counted among a deployment's members.
// Local removal always commits first; if a VPN adaptor or OIDC registration
// client is configured, their corresponding teardown calls run afterward on
// a best-effort basis and never roll back or block the descriptor removal.
func (m *Manager) Delete(id types.PeerID) error {
	err := m.res.ResourcesMut(func(r *resource.Resources) error {
		clusters, err := resource.List[entity.ClusterDescriptor](r)
		if err != nil {
			return err
		}
		for _, c := range clusters {
			if c.Leader == id {
				return ErrPeerIsClusterLeader
			}
		}
		deployments, err := resource.List[entity.ClusterDeployment](r)
		if err != nil {
			return err
		}
		for _, d := range deployments {
			for _, member := range d.Members {
				if member == id {
					return ErrPeerIsClusterMember
				}
			}
		}
		_, ok, err := resource.Remove[entity.PeerDescriptor](r, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrPeerNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	if m.oidcReg != nil {
		if regErr := m.oidcReg.Delete(context.Background(), id.String()); regErr != nil {
			colog.Warnf("failed to delete oidc client for peer %s: %v", id, regErr)
		}
	}
	if m.vpn != nil {
		if vpnErr := m.vpn.DeletePeer(context.Background(), id); vpnErr != nil {
			colog.Warnf("failed to delete vpn peer %s: %v", id, vpnErr)
		}
	}
	return nil
}

// GeneratePeerSetup builds the one-time bootstrap payload for a new EDGAR
// instance: CARL's address and CA certificate, plus a VPN enrollment key and
// OIDC client credentials scoped to userID from whichever adaptors are
// configured. Either adaptor being unset embeds Disabled for its section
// rather than failing.
func (m *Manager) GeneratePeerSetup(ctx context.Context, peerID types.PeerID, userID types.UserID, carlURL string, caCert []byte) (setup.PeerSetup, error) {
	if _, ok, err := m.Get(peerID); err != nil {
		return setup.PeerSetup{}, err
	} else if !ok {
		return setup.PeerSetup{}, ErrPeerNotFound
	}

	vpnCfg, err := m.generateVpnPeerConfig(ctx, peerID)
	if err != nil {
		return setup.PeerSetup{}, err
	}
	authCfg, err := m.generateAuthConfig(ctx, peerID.String(), userID)
	if err != nil {
		return setup.PeerSetup{}, err
	}

	return setup.PeerSetup{
		PeerID:  peerID,
		CarlURL: carlURL,
		CaCert:  caCert,
		Auth:    authCfg,
		Vpn:     vpnCfg,
	}, nil
}

// GenerateCleoSetup builds the bootstrap payload for a headless Cleo
// instance. cleoID scopes the OIDC client registered for it; Cleo never
// joins the VPN mesh, so the returned setup carries no VPN section.
func (m *Manager) GenerateCleoSetup(ctx context.Context, cleoID, userID types.UserID, carlURL string, caCert []byte) (setup.CleoSetup, error) {
	authCfg, err := m.generateAuthConfig(ctx, cleoID.String(), userID)
	if err != nil {
		return setup.CleoSetup{}, err
	}
	return setup.CleoSetup{CarlURL: carlURL, CaCert: caCert, Auth: authCfg}, nil
}

func (m *Manager) generateVpnPeerConfig(ctx context.Context, peerID types.PeerID) (setup.VpnPeerConfig, error) {
	if m.vpn == nil {
		colog.Warnf("vpn disabled, peer setup for %s will not contain any vpn information", peerID)
		return setup.VpnPeerConfig{Kind: setup.VpnDisabled}, nil
	}
	managementURL, setupKey, err := m.vpn.CreateSetupKey(ctx, peerID)
	if err != nil {
		return setup.VpnPeerConfig{}, errors.Wrapf(err, "create vpn setup key for peer %s", peerID)
	}
	return setup.VpnPeerConfig{
		Kind:    setup.VpnNetbird,
		Netbird: &setup.NetbirdPeerConfig{ManagementURL: managementURL, SetupKey: setupKey},
	}, nil
}

func (m *Manager) generateAuthConfig(ctx context.Context, resourceID string, userID types.UserID) (setup.AuthConfig, error) {
	if m.oidcReg == nil {
		return setup.AuthConfig{Kind: setup.AuthDisabled}, nil
	}
	creds, err := m.oidcReg.Register(ctx, resourceID, userID)
	if err != nil {
		return setup.AuthConfig{}, errors.Wrapf(err, "register oidc client for %s", resourceID)
	}
	return setup.AuthConfig{
		Kind: setup.AuthOidc,
		Oidc: &setup.OidcAuthConfig{
			IssuerURL:    m.oidcReg.IssuerURL(),
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
		},
	}, nil
}

// MemberState computes whether id is currently blocked from a new cluster
// assignment by an existing deployment.
func (m *Manager) MemberState(id types.PeerID) (entity.PeerMemberState, error) {
	state := entity.PeerMemberState{PeerID: id, Status: entity.Available}
	err := m.res.Resources(func(r *resource.Resources) error {
		deployments, lerr := resource.List[entity.ClusterDeployment](r)
		if lerr != nil {
			return lerr
		}
		for _, d := range deployments {
			for _, member := range d.Members {
				if member == id {
					state.Status = entity.Blocked
					state.BlockedBy = append(state.BlockedBy, d.ID)
				}
			}
		}
		return nil
	})
	return state, err
}

// State composes a peer's connection and membership status.
func (m *Manager) State(id types.PeerID) (entity.PeerState, error) {
	member, err := m.MemberState(id)
	if err != nil {
		return entity.PeerState{}, err
	}
	var conn entity.PeerConnectionState
	err = m.res.Resources(func(r *resource.Resources) error {
		v, ok, gerr := resource.Get[entity.PeerConnectionState](r, id)
		if gerr != nil {
			return gerr
		}
		if ok {
			conn = v
		} else {
			conn = entity.PeerConnectionState{PeerID: id, Status: entity.Offline}
		}
		return nil
	})
	if err != nil {
		return entity.PeerState{}, err
	}
	return entity.PeerState{PeerID: id, Connection: conn, Member: member}, nil
}
