// Package task implements EDGAR's convergence loop: it holds open the
// bidirectional stream to CARL, and on every configuration push it applies
// (or reverts) the network parameters via pkg/edgar/netif and starts/stops
// container executors via pkg/edgar/accessory.
package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eclipse-opendut/opendut-carl/pkg/carlpb"
	"github.com/eclipse-opendut/opendut-carl/pkg/colog"
	"github.com/eclipse-opendut/opendut-carl/pkg/edgar/accessory"
	"github.com/eclipse-opendut/opendut-carl/pkg/edgar/metrics"
	"github.com/eclipse-opendut/opendut-carl/pkg/edgar/netif"
	"github.com/eclipse-opendut/opendut-carl/pkg/entity"
	"github.com/eclipse-opendut/opendut-carl/pkg/types"
)

const pingInterval = 30 * time.Second

// Engine runs the convergence loop for one peer.
type Engine struct {
	peerID  types.PeerID
	client  carlpb.CarlClient
	netif   *netif.Converger
	runner  *accessory.Runner
	metrics *metrics.Supervisor
	running map[types.ExecutorID]entity.Executor
}

func New(peerID types.PeerID, client carlpb.CarlClient, conv *netif.Converger, runner *accessory.Runner) *Engine {
	return &Engine{
		peerID:  peerID,
		client:  client,
		netif:   conv,
		runner:  runner,
		metrics: metrics.NewSupervisor(),
		running: make(map[types.ExecutorID]entity.Executor),
	}
}

// Run opens the peer stream, sends the initial Hello, and converges on
// every configuration push until ctx is canceled or the stream fails.
func (e *Engine) Run(ctx context.Context) error {
	stream, err := e.client.PeerStream(ctx)
	if err != nil {
		return err
	}
	if err := stream.Send(&carlpb.PeerStreamUp{Hello: &carlpb.PeerHello{PeerID: e.peerID}}); err != nil {
		return err
	}

	go e.ping(ctx, stream)

	for {
		down, err := stream.Recv()
		if err != nil {
			return err
		}
		if down.Pong != nil {
			continue
		}
		if down.Configuration == nil {
			continue
		}
		if err := e.converge(ctx, *down.Configuration); err != nil {
			colog.Warn("failed to converge configuration", zap.String("peer", e.peerID.String()), zap.Error(err))
		}
	}
}

// ping sends a keepalive at a fixed interval; CARL replies with a Pong which
// Run discards without further processing.
func (e *Engine) ping(ctx context.Context, stream carlpb.Carl_PeerStreamClient) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := stream.Send(&carlpb.PeerStreamUp{Ping: &carlpb.PeerPing{}}); err != nil {
				return
			}
		}
	}
}

// converge applies every network and CAN-routing parameter, reconciles the
// running executor set against cfg's ParamExecutor entries, and hands the
// current cluster membership to the network-metrics supervisor.
func (e *Engine) converge(ctx context.Context, cfg entity.PeerConfiguration) error {
	if cfg.Assignment != nil {
		others := make(map[types.PeerID]string, len(cfg.Assignment.RemotePeerIPs))
		for id, ip := range cfg.Assignment.RemotePeerIPs {
			if id != e.peerID {
				others[id] = ip
			}
		}
		e.metrics.Reconcile(ctx, others)
	} else {
		e.metrics.Reconcile(ctx, nil)
	}

	wantExecutors := make(map[types.ExecutorID]entity.Executor)

	for _, p := range cfg.Parameters {
		if p.Kind == entity.ParamExecutor {
			if p.Target == entity.Present {
				wantExecutors[p.Executor.Executor.ID] = p.Executor.Executor
			}
			continue
		}
		if err := e.netif.Apply(ctx, p); err != nil {
			return err
		}
	}

	for id, ex := range wantExecutors {
		if _, running := e.running[id]; !running {
			if err := e.runner.Start(ex); err != nil {
				return err
			}
			e.running[id] = ex
		}
	}
	for id, ex := range e.running {
		if _, wanted := wantExecutors[id]; !wanted {
			if err := e.runner.Stop(ex); err != nil {
				return err
			}
			delete(e.running, id)
		}
	}
	return nil
}
