// Command cleo is the headless client used from CI: it bootstraps from a
// setup string, connects to CARL over TLS trusting the setup string's CA
// certificate, and lists current cluster state without joining the VPN mesh
// or running any executors itself. The setup string's auth configuration is
// not used.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/eclipse-opendut/opendut-carl/pkg/buildinfo"
	"github.com/eclipse-opendut/opendut-carl/pkg/carlpb"
	"github.com/eclipse-opendut/opendut-carl/pkg/setup"
	netutil "github.com/eclipse-opendut/opendut-carl/pkg/util/net"
)

func main() {
	cmd := &cobra.Command{
		Use:     "cleo <setup-string>",
		Short:   "openDuT CI client",
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
	var bootstrap setup.CleoSetup
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

	client := carlpb.NewCarlClient(conn)
	resp, err := client.ListClusters(context.Background(), &carlpb.ListClustersRequest{})
	if err != nil {
		return errors.Wrap(err, "list clusters")
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Leader"})
	for _, c := range resp.Descriptors {
		table.Append([]string{c.ID.String(), c.Name, c.Leader.String()})
	}
	table.Render()
	return nil
}
