// Package observer implements the Observer Broker: a read-only,
// server-streaming view over resource manager commits for external
// dashboards and CI runners, without exposing write access to the
// underlying store.
package observer

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/eclipse-opendut/opendut-carl/pkg/entity"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
	"github.com/eclipse-opendut/opendut-carl/pkg/types"
)

// Snapshot is the observer's view of every observed entity kind (peers,
// clusters, deployments, connections) at subscribe time,
// delivered before any live event so a newly attached observer does not
// have to infer prior state from a stream of deltas alone.
type Snapshot struct {
	Peers       map[[16]byte]entity.PeerDescriptor
	Clusters    map[[16]byte]entity.ClusterDescriptor
	Deployments map[[16]byte]entity.ClusterDeployment
	Connections map[[16]byte]entity.PeerConnectionState
}

const subscriptionBuffer = 256

// Broker serves observer subscriptions against a resource manager.
type Broker struct {
	res *resource.Manager
}

func NewBroker(res *resource.Manager) *Broker {
	return &Broker{res: res}
}

func (b *Broker) snapshot() (Snapshot, error) {
	var snap Snapshot
	err := b.res.Resources(func(r *resource.Resources) error {
		var err error
		if snap.Peers, err = resource.List[entity.PeerDescriptor](r); err != nil {
			return err
		}
		if snap.Clusters, err = resource.List[entity.ClusterDescriptor](r); err != nil {
			return err
		}
		if snap.Deployments, err = resource.List[entity.ClusterDeployment](r); err != nil {
			return err
		}
		if snap.Connections, err = resource.List[entity.PeerConnectionState](r); err != nil {
			return err
		}
		return nil
	})
	return snap, err
}

// Peers streams the current peer descriptors followed by every subsequent
// insert/remove event, until ctx is done.
func (b *Broker) Peers(ctx context.Context) (Snapshot, <-chan resource.Event, func(), error) {
	snap, err := b.snapshot()
	if err != nil {
		return Snapshot{}, nil, nil, err
	}
	events, cancel := resource.Subscribe[entity.PeerDescriptor](b.res, subscriptionBuffer)
	go stopOnDone(ctx, cancel)
	return snap, events, cancel, nil
}

// Clusters streams cluster descriptor and deployment events together with
// the current snapshot, since a cluster's deployment status is usually what
// an observer cares about.
func (b *Broker) Clusters(ctx context.Context) (Snapshot, <-chan resource.Event, <-chan resource.Event, func(), error) {
	snap, err := b.snapshot()
	if err != nil {
		return Snapshot{}, nil, nil, nil, err
	}
	descEvents, cancelDesc := resource.Subscribe[entity.ClusterDescriptor](b.res, subscriptionBuffer)
	deployEvents, cancelDeploy := resource.Subscribe[entity.ClusterDeployment](b.res, subscriptionBuffer)
	cancel := func() { cancelDesc(); cancelDeploy() }
	go stopOnDone(ctx, cancel)
	return snap, descEvents, deployEvents, cancel, nil
}

// Connections streams peer connection state events.
func (b *Broker) Connections(ctx context.Context) (Snapshot, <-chan resource.Event, func(), error) {
	snap, err := b.snapshot()
	if err != nil {
		return Snapshot{}, nil, nil, err
	}
	events, cancel := resource.Subscribe[entity.PeerConnectionState](b.res, subscriptionBuffer)
	go stopOnDone(ctx, cancel)
	return snap, events, cancel, nil
}

func stopOnDone(ctx context.Context, cancel func()) {
	<-ctx.Done()
	cancel()
}

// ErrEmptyPeerSet is returned by WaitForPeersOnline when called with no peer
// ids to wait on.
var ErrEmptyPeerSet = errors.New("peer id set must not be empty")

// ErrUnknownPeer is returned by WaitForPeersOnline when a requested peer id
// has no stored descriptor and the caller did not assert peersMayNotYetExist.
type ErrUnknownPeer struct{ PeerID types.PeerID }

func (e ErrUnknownPeer) Error() string { return "unknown peer id: " + e.PeerID.String() }

// ResponseKind is the status carried by a WaitForPeersOnline response.
type ResponseKind int

const (
	Pending ResponseKind = iota
	Success
	Failure
)

// Response is one update in a WaitForPeersOnline stream.
type Response struct {
	Kind ResponseKind
}

// WaitForPeersOnline subscribes to PeerConnectionState and reports the
// aggregate online/offline status of peerIDs as it changes: Pending while at
// least one is not yet Online, Success (terminal) once every one is, and a
// terminal Failure if maxObservationDuration elapses first. The returned
// channel is closed once a terminal response has been sent or ctx is done.
//
// An empty peerIDs set is rejected. Unless peersMayNotYetExist is set, every
// id must already have a stored PeerDescriptor.
func (b *Broker) WaitForPeersOnline(ctx context.Context, peerIDs []types.PeerID, maxObservationDuration time.Duration, peersMayNotYetExist bool) (<-chan Response, error) {
	if len(peerIDs) == 0 {
		return nil, ErrEmptyPeerSet
	}
	want := make(map[types.PeerID]struct{}, len(peerIDs))
	for _, id := range peerIDs {
		want[id] = struct{}{}
	}

	online := make(map[types.PeerID]bool, len(peerIDs))
	err := b.res.Resources(func(r *resource.Resources) error {
		if !peersMayNotYetExist {
			for _, id := range peerIDs {
				if _, ok, err := resource.Get[entity.PeerDescriptor](r, id); err != nil {
					return err
				} else if !ok {
					return ErrUnknownPeer{PeerID: id}
				}
			}
		}
		for id := range want {
			state, ok, err := resource.Get[entity.PeerConnectionState](r, id)
			if err != nil {
				return err
			}
			online[id] = ok && state.Status == entity.Online
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make(chan Response, 1)
	allOnline := func() bool {
		for _, v := range online {
			if !v {
				return false
			}
		}
		return true
	}

	if allOnline() {
		out <- Response{Kind: Success}
		close(out)
		return out, nil
	}

	events, cancel := resource.Subscribe[entity.PeerConnectionState](b.res, subscriptionBuffer)
	out <- Response{Kind: Pending}

	go func() {
		defer close(out)
		defer cancel()

		var timeout <-chan time.Time
		if maxObservationDuration > 0 {
			timer := time.NewTimer(maxObservationDuration)
			defer timer.Stop()
			timeout = timer.C
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-timeout:
				out <- Response{Kind: Failure}
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				id := types.PeerID(ev.ID)
				if _, tracked := want[id]; !tracked {
					continue
				}
				switch ev.Type {
				case resource.EventInserted:
					state, isState := resource.As[entity.PeerConnectionState](ev)
					online[id] = isState && state.Status == entity.Online
				case resource.EventRemoved:
					online[id] = false
				}
				if allOnline() {
					out <- Response{Kind: Success}
					return
				}
				out <- Response{Kind: Pending}
			}
		}
	}()

	return out, nil
}
