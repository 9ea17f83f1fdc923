// Command edgar is the peer agent: it bootstraps from a setup string,
// connects back to CARL, and converges local network and executor state to
// whatever configuration CARL pushes.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/eclipse-opendut/opendut-carl/pkg/buildinfo"
	"github.com/eclipse-opendut/opendut-carl/pkg/carlpb"
	"github.com/eclipse-opendut/opendut-carl/pkg/colog"
	"github.com/eclipse-opendut/opendut-carl/pkg/edgar/accessory"
	"github.com/eclipse-opendut/opendut-carl/pkg/edgar/netif"
	"github.com/eclipse-opendut/opendut-carl/pkg/edgar/task"
	"github.com/eclipse-opendut/opendut-carl/pkg/setup"
	netutil "github.com/eclipse-opendut/opendut-carl/pkg/util/net"
)

func main() {
	cmd := &cobra.Command{
		Use:     "edgar <setup-string>",
		Short:   "openDuT peer agent",
		Version: buildinfo.Version,
		Args:    cobra.ExactArgs(1),
		RunE:    run,
	}
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	var bootstrap setup.PeerSetup
	if err := setup.Decode(args[0], &bootstrap); err != nil {
		return errors.Wrap(err, "decode setup string")
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(bootstrap.CaCert) {
		return errors.New("setup string carries an invalid CA certificate")
	}
	creds := credentials.NewTLS(&tls.Config{RootCAs: pool})

	carlAddr, err := netutil.FixUnspecifiedHostAddr(bootstrap.CarlURL)
	if err != nil {
		return errors.Wrap(err, "resolve carl address")
	}

	conn, err := grpc.Dial(carlAddr,
		grpc.WithTransportCredentials(creds),
		grpc.WithCodec(carlpb.GobCodec{}),
	)
	if err != nil {
		return errors.Wrap(err, "dial carl")
	}
	defer conn.Close()

	runner, err := accessory.NewRunner()
	if err != nil {
		return errors.Wrap(err, "connect to local docker daemon")
	}

	engine := task.New(bootstrap.PeerID, carlpb.NewCarlClient(conn), netif.New(), runner)
	colog.Info("edgar connecting", zap.String("carl", carlAddr), zap.String("peer", bootstrap.PeerID.String()))
	return engine.Run(context.Background())
}
