// Package oidc adapts CARL's peer/user authentication to an external OIDC
// provider: verifying bearer tokens presented by peers and CLI clients, and
// minting the client-credentials token CARL itself uses when calling out to
// the VPN management API.
package oidc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/eclipse-opendut/opendut-carl/pkg/types"
)

// Config is the subset of provider metadata CARL needs.
type Config struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Verifier checks bearer tokens presented on the wire surface.
type Verifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// Provider wraps a discovered OIDC issuer and the client-credentials
// source CARL uses for its own outbound calls (e.g. to the VPN management
// API).
type Provider struct {
	cfg      Config
	verifier *oidc.IDTokenVerifier
	ccSource oauth2.TokenSource
}

// Connect performs OIDC discovery against cfg.IssuerURL and prepares both
// the token verifier and a client-credentials token source.
func Connect(ctx context.Context, cfg Config) (*Provider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "oidc discovery")
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})

	ccConfig := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     provider.Endpoint().TokenURL,
		Scopes:       cfg.Scopes,
	}

	return &Provider{cfg: cfg, verifier: verifier, ccSource: ccConfig.TokenSource(ctx)}, nil
}

func (p *Provider) Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error) {
	return p.verifier.Verify(ctx, rawIDToken)
}

// Token returns a valid client-credentials access token for server-to-server
// calls, refreshing it if the cached one has expired.
func (p *Provider) Token(ctx context.Context) (*oauth2.Token, error) {
	return p.ccSource.Token()
}

// TokenSource exposes the client-credentials token source with the
// no-context oauth2.TokenSource shape external adaptors (e.g. pkg/vpn's
// management API client) expect.
func (p *Provider) TokenSource() oauth2.TokenSource { return p.ccSource }

// ClientCredentials are the client id/secret pair issued for one registered
// OIDC client.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

// RegistrationClient manages per-resource OIDC clients, one per peer or Cleo
// instance, scoped to the user that requested the bootstrap setup.
type RegistrationClient interface {
	// Register creates (or replaces) the OIDC client for resourceID, scoped
	// to userID, and returns its credentials.
	Register(ctx context.Context, resourceID string, userID types.UserID) (ClientCredentials, error)

	// Delete removes resourceID's OIDC client, if any. Deleting a resource
	// id with no registered client is not an error.
	Delete(ctx context.Context, resourceID string) error

	// IssuerURL is embedded in every AuthConfig this client produces so a
	// bootstrapped peer or Cleo instance knows where to validate its token.
	IssuerURL() string
}

// tokenSource is the subset of Provider a registrationClient needs,
// narrowed to an interface so it can be exercised against a fake in tests
// without a live OIDC discovery round-trip.
type tokenSource interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

type registrationClient struct {
	issuerURL  string
	httpClient *http.Client
	tokens     tokenSource
}

// NewRegistrationClient wraps provider's dynamic client registration
// endpoint. No Go SDK in the ecosystem covers OIDC dynamic client
// registration, so — mirroring pkg/vpn's management-API client — this is a
// thin net/http wrapper, authenticated with the provider's own
// client-credentials token.
func NewRegistrationClient(issuerURL string, provider *Provider) RegistrationClient {
	return &registrationClient{issuerURL: issuerURL, httpClient: http.DefaultClient, tokens: provider}
}

func (c *registrationClient) IssuerURL() string { return c.issuerURL }

type registrationRequest struct {
	ClientID string `json:"client_id"`
	UserID   string `json:"attributes.owner"`
}

type registrationResponse struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

func (c *registrationClient) Register(ctx context.Context, resourceID string, userID types.UserID) (ClientCredentials, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return ClientCredentials{}, errors.Wrap(err, "fetch registration access token")
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(registrationRequest{ClientID: resourceID, UserID: userID.String()}); err != nil {
		return ClientCredentials{}, errors.Wrap(err, "encode registration request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.issuerURL+"/clients-registrations/openid-connect", &buf)
	if err != nil {
		return ClientCredentials{}, errors.Wrap(err, "build registration request")
	}
	req.Header.Set("Content-Type", "application/json")
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ClientCredentials{}, errors.Wrap(err, "register oidc client")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return ClientCredentials{}, errors.Errorf("oidc client registration returned %s", resp.Status)
	}
	var out registrationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ClientCredentials{}, errors.Wrap(err, "decode registration response")
	}
	return ClientCredentials{ClientID: out.ClientID, ClientSecret: out.ClientSecret}, nil
}

func (c *registrationClient) Delete(ctx context.Context, resourceID string) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch registration access token")
	}

	path := fmt.Sprintf("%s/clients-registrations/openid-connect/%s", c.issuerURL, resourceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return errors.Wrap(err, "build deregistration request")
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "delete oidc client")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return errors.Errorf("oidc client deregistration returned %s", resp.Status)
	}
	return nil
}
