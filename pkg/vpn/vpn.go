// Package vpn adapts CARL's cluster and peer lifecycle to an external VPN
// management plane: allocating per-peer setup keys and removing peers when
// they are deleted. No VPN management SDK fits this (see DESIGN.md), so the
// client is a thin net/http wrapper over the management API's REST surface.
package vpn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/eclipse-opendut/opendut-carl/pkg/types"
)

// Client issues VPN management operations for a single peer or cluster.
type Client interface {
	// CreateSetupKey provisions a new, single-use enrollment key for a peer
	// and returns the management URL and key a new EDGAR instance should
	// use to join the mesh.
	CreateSetupKey(ctx context.Context, peerID types.PeerID) (managementURL, setupKey string, err error)

	// DeletePeer revokes peerID's membership in the mesh.
	DeletePeer(ctx context.Context, peerID types.PeerID) error

	// CreateNetwork provisions the network group a cluster's members should
	// be placed in so only cluster peers can reach each other's GRE
	// endpoints.
	CreateNetwork(ctx context.Context, clusterID types.ClusterID, memberIDs []types.PeerID) error

	// DeleteNetwork tears down a cluster's network group.
	DeleteNetwork(ctx context.Context, clusterID types.ClusterID) error
}

// TokenSource supplies the bearer token used to authenticate against the
// management API, typically an OIDC client-credentials source.
type TokenSource interface {
	Token() (*oauth2.Token, error)
}

type httpClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

func NewHTTPClient(baseURL string, tokens TokenSource) Client {
	return &httpClient{baseURL: baseURL, httpClient: http.DefaultClient, tokens: tokens}
}

func (c *httpClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return errors.Wrap(err, "encode request body")
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.tokens.Token()
	if err != nil {
		return errors.Wrap(err, "fetch access token")
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "vpn management request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.Errorf("vpn management API returned %s for %s %s", resp.Status, method, path)
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "decode response")
}

type setupKeyResponse struct {
	ManagementURL string `json:"management_url"`
	Key           string `json:"key"`
}

func (c *httpClient) CreateSetupKey(ctx context.Context, peerID types.PeerID) (string, string, error) {
	var resp setupKeyResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/peers/%s/setup-keys", peerID), nil, &resp)
	if err != nil {
		return "", "", err
	}
	return resp.ManagementURL, resp.Key, nil
}

func (c *httpClient) DeletePeer(ctx context.Context, peerID types.PeerID) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/peers/%s", peerID), nil, nil)
}

type networkRequest struct {
	Name    string   `json:"name"`
	PeerIDs []string `json:"peer_ids"`
}

func (c *httpClient) CreateNetwork(ctx context.Context, clusterID types.ClusterID, memberIDs []types.PeerID) error {
	req := networkRequest{Name: clusterID.String()}
	for _, id := range memberIDs {
		req.PeerIDs = append(req.PeerIDs, id.String())
	}
	return c.do(ctx, http.MethodPost, "/api/networks", req, nil)
}

func (c *httpClient) DeleteNetwork(ctx context.Context, clusterID types.ClusterID) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/networks/%s", clusterID), nil, nil)
}
