// Package metrics runs EDGAR's per-cluster network-metrics workers: a
// latency prober and a bandwidth probe for every other member peer, kept in
// sync with whatever cluster assignment is currently active.
//
// There is no ICMP or iperf-style library available for this, so probing is
// built on net.Dial/net.Listen: a TCP connect-and-close
// measures round-trip latency the way an ICMP echo would, and the bandwidth
// probe streams a fixed payload over its own TCP connection and times it.
package metrics

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/eclipse-opendut/opendut-carl/pkg/colog"
	"github.com/eclipse-opendut/opendut-carl/pkg/types"
)

const (
	pingInterval       = 5 * time.Second
	pingTimeout        = 2 * time.Second
	bandwidthPort      = "45100"
	bandwidthPayload   = 1 << 20 // 1 MiB
	defaultMaxElapsed  = 10 * time.Minute
)

// Supervisor owns the current set of per-peer workers for one peer's view of
// its cluster. Reconcile is the only entry point; it debounces against the
// previously seen member set.
type Supervisor struct {
	maxElapsedTime time.Duration

	mu         sync.Mutex
	cancel     context.CancelFunc
	members    map[types.PeerID]string
	generation int
}

// ActiveGeneration returns a counter incremented every time Reconcile
// actually restarts the worker set, so tests can assert a restart happened
// without reaching into goroutine internals. It is zero when no workers are
// running.
func (s *Supervisor) ActiveGeneration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func NewSupervisor() *Supervisor {
	return &Supervisor{maxElapsedTime: defaultMaxElapsed}
}

// SetMaxElapsedTime overrides the exponential-backoff ceiling used for the
// bandwidth client and server workers. Zero means retry indefinitely.
func (s *Supervisor) SetMaxElapsedTime(d time.Duration) {
	s.maxElapsedTime = d
}

// Reconcile compares members (peer id to remote IPv4 address, excluding the
// local peer) against the previously supervised set. If unchanged, it does
// nothing. Otherwise every previous worker is aborted and a fresh set is
// spawned for the new membership.
func (s *Supervisor) Reconcile(parent context.Context, members map[types.PeerID]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sameMembers(s.members, members) {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.members = members

	if len(members) == 0 {
		s.cancel = nil
		s.generation = 0
		return
	}

	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.generation++

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runBandwidthServer(ctx)
	}()
	for peerID, addr := range members {
		peerID, addr := peerID, addr
		go s.runPingProber(ctx, peerID, addr)
		go s.runBandwidthClient(ctx, peerID, addr)
	}
}

func sameMembers(a, b map[types.PeerID]string) bool {
	if len(a) != len(b) {
		return false
	}
	for id, addr := range a {
		if b[id] != addr {
			return false
		}
	}
	return true
}

// runPingProber measures TCP connect latency to addr at a fixed interval
// until ctx is done. A failed probe is logged and retried on the next tick;
// it is not restarted with backoff because the interval already bounds how
// often it runs.
func (s *Supervisor) runPingProber(ctx context.Context, peerID types.PeerID, addr string) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rtt, err := probeLatency(addr)
			if err != nil {
				colog.Debug("ping probe failed", zap.String("peer", peerID.String()), zap.Error(err))
				continue
			}
			colog.Debug("ping probe", zap.String("peer", peerID.String()), zap.Duration("rtt", rtt))
		}
	}
}

func probeLatency(addr string) (time.Duration, error) {
	start := time.Now()
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(addr, bandwidthPort), pingTimeout)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	return time.Since(start), nil
}

// runBandwidthClient holds one connection to addr's bandwidth server open
// for the lifetime of ctx, streaming a payload every pingInterval and
// reporting throughput. A dial or write failure ends that connection's
// Operation call, so backoff.Retry restarts it after an exponential delay;
// a clean ctx cancellation ends the whole worker.
func (s *Supervisor) runBandwidthClient(ctx context.Context, peerID types.PeerID, addr string) {
	_ = backoff.Retry(func() error {
		err := runBandwidthSession(ctx, addr, func(mbps float64) {
			colog.Debug("bandwidth probe", zap.String("peer", peerID.String()), zap.Float64("mbps", mbps))
		})
		if ctx.Err() != nil {
			return nil
		}
		return err
	}, s.newBackOff())
}

func runBandwidthSession(ctx context.Context, addr string, report func(mbps float64)) error {
	dialer := net.Dialer{Timeout: pingTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(addr, bandwidthPort))
	if err != nil {
		return err
	}
	defer conn.Close()

	payload := make([]byte, bandwidthPayload)
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			start := time.Now()
			if _, err := conn.Write(payload); err != nil {
				return err
			}
			elapsed := time.Since(start)
			if elapsed <= 0 {
				elapsed = time.Nanosecond
			}
			report(float64(bandwidthPayload*8) / elapsed.Seconds() / 1_000_000)
		}
	}
}

// runBandwidthServer accepts and drains bandwidth-probe connections until
// ctx is done, restarting the listener with exponential backoff if binding
// or accepting fails.
func (s *Supervisor) runBandwidthServer(ctx context.Context) {
	_ = backoff.Retry(func() error {
		lis, err := net.Listen("tcp", net.JoinHostPort("", bandwidthPort))
		if err != nil {
			return err
		}
		go func() {
			<-ctx.Done()
			lis.Close()
		}()
		for {
			conn, err := lis.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			go drainAndClose(conn)
		}
	}, s.newBackOff())
}

func drainAndClose(conn net.Conn) {
	defer conn.Close()
	_, _ = io.Copy(io.Discard, conn)
}

func (s *Supervisor) newBackOff() *backoff.ExponentialBackOff {
	eb := backoff.NewExponentialBackOff()
	eb.MaxElapsedTime = s.maxElapsedTime
	return eb
}
