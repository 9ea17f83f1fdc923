// Package broker implements the Peer Messaging Broker: it tracks which
// peers currently hold an open stream, mirrors that into
// entity.PeerConnectionState, and fans outbound configuration pushes out to
// each peer's own bounded outbox.
package broker

import (
	"sync"

	"go.uber.org/zap"

	"github.com/eclipse-opendut/opendut-carl/pkg/colog"
	"github.com/eclipse-opendut/opendut-carl/pkg/entity"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
	"github.com/eclipse-opendut/opendut-carl/pkg/types"
)

const outboxBuffer = 64

// Hub owns the live peer-connection bookkeeping for one CARL instance.
type Hub struct {
	mgr *resource.Manager

	mu       sync.Mutex
	outboxes map[types.PeerID]chan entity.PeerConfiguration
}

func NewHub(mgr *resource.Manager) *Hub {
	return &Hub{
		mgr:      mgr,
		outboxes: make(map[types.PeerID]chan entity.PeerConfiguration),
	}
}

// Connect registers peerID as online from remoteHost and returns the
// channel its stream handler should forward to the wire, plus a cleanup
// func the caller must run (typically deferred) when the stream ends. A
// peer reconnecting while a previous mapping is still registered evicts and
// replaces it: the old outbox is closed and anything still queued on it is
// discarded, since the old stream's send loop will observe the close and
// exit rather than being told to explicitly.
func (h *Hub) Connect(peerID types.PeerID, remoteHost string) (<-chan entity.PeerConfiguration, func(), error) {
	outbox := make(chan entity.PeerConfiguration, outboxBuffer)

	h.mu.Lock()
	if old, already := h.outboxes[peerID]; already {
		close(old)
	}
	h.outboxes[peerID] = outbox
	h.mu.Unlock()

	err := h.mgr.ResourcesMut(func(r *resource.Resources) error {
		return resource.Insert[entity.PeerConnectionState](r, peerID, entity.PeerConnectionState{
			PeerID:     peerID,
			Status:     entity.Online,
			RemoteHost: remoteHost,
		})
	})
	if err != nil {
		h.mu.Lock()
		if cur, ok := h.outboxes[peerID]; ok && cur == outbox {
			delete(h.outboxes, peerID)
		}
		h.mu.Unlock()
		return nil, nil, err
	}

	return outbox, func() { h.disconnect(peerID, outbox) }, nil
}

// Disconnect marks peerID offline and closes its outbox. Safe to call more
// than once or on a peer that was never connected.
func (h *Hub) Disconnect(peerID types.PeerID) {
	h.mu.Lock()
	ob, ok := h.outboxes[peerID]
	h.mu.Unlock()
	if !ok {
		return
	}
	h.disconnect(peerID, ob)
}

// disconnect tears down peerID's mapping only if it still points at ob, the
// outbox the caller's own Connect installed. A reconnecting peer replaces
// the mapping before its old session's deferred cleanup runs; without this
// check that stale cleanup would evict the newer session it no longer owns.
func (h *Hub) disconnect(peerID types.PeerID, ob chan entity.PeerConfiguration) {
	h.mu.Lock()
	cur, ok := h.outboxes[peerID]
	if !ok || cur != ob {
		h.mu.Unlock()
		return
	}
	delete(h.outboxes, peerID)
	close(ob)
	h.mu.Unlock()

	err := h.mgr.ResourcesMut(func(r *resource.Resources) error {
		return resource.Insert[entity.PeerConnectionState](r, peerID, entity.PeerConnectionState{
			PeerID: peerID,
			Status: entity.Offline,
		})
	})
	if err != nil {
		colog.Warn("failed to mark connection offline", zap.String("peer", peerID.String()), zap.Error(err))
	}
}

// Push enqueues cfg for delivery to peerID's stream. It returns false
// without blocking if the peer is not connected or its outbox is full; a
// full outbox means the peer's stream handler is not draining fast enough
// and the push is dropped rather than stalling the caller.
func (h *Hub) Push(peerID types.PeerID, cfg entity.PeerConfiguration) bool {
	h.mu.Lock()
	ob, ok := h.outboxes[peerID]
	h.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ob <- cfg:
		return true
	default:
		colog.Warn("peer outbox full, dropping configuration push", zap.String("peer", peerID.String()))
		return false
	}
}

func (h *Hub) IsConnected(peerID types.PeerID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.outboxes[peerID]
	return ok
}

func (h *Hub) ConnectedPeers() []types.PeerID {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]types.PeerID, 0, len(h.outboxes))
	for id := range h.outboxes {
		out = append(out, id)
	}
	return out
}
