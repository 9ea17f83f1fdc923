// Package setup builds and decodes the single opaque setup string an
// operator pastes into a new peer or Cleo instance to bootstrap it: CARL's
// address, its CA certificate, and the credentials the new instance needs
// for authentication and VPN enrollment.
package setup

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/gob"

	"github.com/pkg/errors"

	"github.com/eclipse-opendut/opendut-carl/pkg/types"
)

type AuthKind int

const (
	AuthDisabled AuthKind = iota
	AuthOidc
)

type OidcAuthConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

type AuthConfig struct {
	Kind AuthKind
	Oidc *OidcAuthConfig
}

type VpnKind int

const (
	VpnDisabled VpnKind = iota
	VpnNetbird
)

type NetbirdPeerConfig struct {
	ManagementURL string
	SetupKey      string
}

type VpnPeerConfig struct {
	Kind    VpnKind
	Netbird *NetbirdPeerConfig
}

// PeerSetup is the one-time bootstrap payload for a new EDGAR instance.
type PeerSetup struct {
	PeerID  types.PeerID
	CarlURL string
	CaCert  []byte
	Auth    AuthConfig
	Vpn     VpnPeerConfig
}

// CleoSetup is the bootstrap payload for a headless Cleo client: it never
// joins a VPN mesh, so it carries no VpnPeerConfig.
type CleoSetup struct {
	CarlURL string
	CaCert  []byte
	Auth    AuthConfig
}

// Encode produces the setup string: gob-encode, gzip-compress, then
// base64-URL-encode, so the result is safe to paste as a single CLI
// argument or QR code payload (see DESIGN.md for why gzip stands in for
// Brotli here).
func Encode(v interface{}) (string, error) {
	var gobBuf bytes.Buffer
	if err := gob.NewEncoder(&gobBuf).Encode(v); err != nil {
		return "", errors.Wrap(err, "encode setup payload")
	}

	var gzBuf bytes.Buffer
	gz := gzip.NewWriter(&gzBuf)
	if _, err := gz.Write(gobBuf.Bytes()); err != nil {
		return "", errors.Wrap(err, "compress setup payload")
	}
	if err := gz.Close(); err != nil {
		return "", errors.Wrap(err, "flush setup payload")
	}

	return base64.URLEncoding.EncodeToString(gzBuf.Bytes()), nil
}

// Decode reverses Encode into v, which must be a pointer to the same
// concrete type that was encoded.
func Decode(s string, v interface{}) error {
	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return errors.Wrap(err, "decode setup string")
	}
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return errors.Wrap(err, "decompress setup string")
	}
	defer gz.Close()
	if err := gob.NewDecoder(gz).Decode(v); err != nil {
		return errors.Wrap(err, "decode setup payload")
	}
	return nil
}
