// Command carl runs the control plane: the Resource Manager, Peer
// Messaging Broker, Peer Manager, Cluster Manager, and Observer Broker,
// served over gRPC.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"

	"github.com/cloudflare/cfssl/csr"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/eclipse-opendut/opendut-carl/pkg/broker"
	"github.com/eclipse-opendut/opendut-carl/pkg/buildinfo"
	"github.com/eclipse-opendut/opendut-carl/pkg/carlpb"
	"github.com/eclipse-opendut/opendut-carl/pkg/cluster"
	"github.com/eclipse-opendut/opendut-carl/pkg/colog"
	"github.com/eclipse-opendut/opendut-carl/pkg/observer"
	"github.com/eclipse-opendut/opendut-carl/pkg/oidc"
	"github.com/eclipse-opendut/opendut-carl/pkg/peer"
	"github.com/eclipse-opendut/opendut-carl/pkg/pki"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource/storage/persistent"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource/storage/volatile"
	"github.com/eclipse-opendut/opendut-carl/pkg/server"
	"github.com/eclipse-opendut/opendut-carl/pkg/vpn"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "carl",
		Short:   "openDuT control plane",
		Version: buildinfo.Version,
		RunE:    run,
	}
	flags := cmd.Flags()
	flags.String("listen", ":44144", "gRPC listen address")
	flags.String("public-url", "https://localhost:44144", "address advertised to peers in setup strings")
	flags.String("data-dir", "./carl-data", "directory for the persistent resource store")
	flags.String("ca-cert", "", "root CA certificate PEM (generates an ephemeral one if unset)")
	flags.String("ca-key", "", "root CA private key PEM, required alongside ca-cert")
	flags.String("vpn-management-url", "", "VPN management API base URL (VPN support disabled if unset)")
	flags.String("oidc-issuer-url", "", "OIDC issuer URL (OIDC support disabled if unset)")
	flags.String("oidc-client-id", "", "OIDC client id CARL uses for its own outbound calls")
	flags.String("oidc-client-secret", "", "OIDC client secret CARL uses for its own outbound calls")
	flags.Bool("debug", false, "enable debug logging")
	_ = viper.BindPFlags(flags)
	viper.SetEnvPrefix("CARL")
	viper.AutomaticEnv()
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	level := zap.InfoLevel
	if viper.GetBool("debug") {
		level = zap.DebugLevel
	}
	colog.SetLevel(level)

	store, err := persistent.Open(viper.GetString("data-dir") + "/resources.db")
	if err != nil {
		return errors.Wrap(err, "open persistent store")
	}
	defer store.Close()

	ca, err := loadOrGenerateCA()
	if err != nil {
		return errors.Wrap(err, "load root CA")
	}
	serverCert, err := ca.GenerateCertificates(pki.ServerSigningProfile, &csr.CertificateRequest{
		CN:         "carl",
		Hosts:      []string{"localhost", "127.0.0.1"},
		KeyRequest: &csr.BasicKeyRequest{A: "rsa", S: 2048},
	})
	if err != nil {
		return errors.Wrap(err, "issue server certificate")
	}
	serverKeyPair, err := tls.X509KeyPair(serverCert.CertPEM, serverCert.KeyPEM)
	if err != nil {
		return errors.Wrap(err, "load server certificate")
	}

	resMgr := resource.NewManager(store.Opener(), volatile.NewOpener())
	defer resMgr.Close()

	var peerOpts []peer.Option
	var clusterOpts []cluster.Option
	issuerURL := viper.GetString("oidc-issuer-url")
	var provider *oidc.Provider
	if issuerURL != "" {
		provider, err = oidc.Connect(context.Background(), oidc.Config{
			IssuerURL:    issuerURL,
			ClientID:     viper.GetString("oidc-client-id"),
			ClientSecret: viper.GetString("oidc-client-secret"),
		})
		if err != nil {
			return errors.Wrap(err, "connect to oidc provider")
		}
		peerOpts = append(peerOpts, peer.WithOIDCRegistration(oidc.NewRegistrationClient(issuerURL, provider)))
	}
	if mgmtURL := viper.GetString("vpn-management-url"); mgmtURL != "" {
		if provider == nil {
			return errors.New("--vpn-management-url requires --oidc-issuer-url for its client-credentials token source")
		}
		vpnClient := vpn.NewHTTPClient(mgmtURL, provider.TokenSource())
		peerOpts = append(peerOpts, peer.WithVPN(vpnClient))
		clusterOpts = append(clusterOpts, cluster.WithVPN(vpnClient))
	}

	hub := broker.NewHub(resMgr)
	peers := peer.NewManager(resMgr, peerOpts...)
	clusters := cluster.NewManager(resMgr, hub, clusterOpts...)
	observ := observer.NewBroker(resMgr)
	carlServer := server.New(peers, clusters, hub, observ, viper.GetString("public-url"), ca.CA.CertPEM)

	listenAddr := viper.GetString("listen")
	lis, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", listenAddr)
	}

	creds := credentials.NewTLS(&tls.Config{Certificates: []tls.Certificate{serverKeyPair}})
	grpcServer := grpc.NewServer(grpc.CustomCodec(carlpb.GobCodec{}), grpc.Creds(creds))
	carlpb.RegisterCarlServer(grpcServer, carlServer)

	colog.Info("carl listening", zap.String("address", listenAddr), zap.String("version", buildinfo.Version))
	return grpcServer.Serve(lis)
}

// loadOrGenerateCA loads the root CA named by --ca-cert/--ca-key, or mints a
// fresh one if neither is set. A CA given on one flag without the other is
// rejected rather than silently falling back to an ephemeral CA.
func loadOrGenerateCA() (*pki.RootCA, error) {
	certPath, keyPath := viper.GetString("ca-cert"), viper.GetString("ca-key")
	switch {
	case certPath != "" && keyPath != "":
		return pki.NewRootCAFromFile(certPath, keyPath)
	case certPath == "" && keyPath == "":
		colog.Warn("no --ca-cert/--ca-key given, generating an ephemeral root CA")
		return pki.NewDefaultRootCA()
	default:
		return nil, errors.New("--ca-cert and --ca-key must be given together")
	}
}
