// Package resource implements a typed, transactional store over every
// domain entity, backed per-type by either the Persistent (bbolt) or
// Volatile (in-memory) storage class, with commit-ordered subscription
// fan-out.
//
// Every stored type implements the same small Resource interface, and
// dispatch onto its table happens through Go generics rather than
// reflection or struct tags: the store only ever needs id-keyed
// get/list/insert/remove, never secondary indexes or queries.
package resource

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/eclipse-opendut/opendut-carl/pkg/resource/storage"
)

// Manager owns every registered entity type's backing and the subscription
// hub that fans out commits.
type Manager struct {
	writeMu sync.Mutex // serializes resources_mut transactions (single writer)

	tableMu          sync.Mutex
	tables           map[string]storage.Backing
	persistentOpener storage.Opener
	volatileOpener   storage.Opener

	hub *hub
}

func NewManager(persistentOpener, volatileOpener storage.Opener) *Manager {
	return &Manager{
		tables:           make(map[string]storage.Backing),
		persistentOpener: persistentOpener,
		volatileOpener:   volatileOpener,
		hub:              newHub(),
	}
}

func (m *Manager) backingFor(typeName string, class StorageClass) (storage.Backing, error) {
	m.tableMu.Lock()
	defer m.tableMu.Unlock()
	if b, ok := m.tables[typeName]; ok {
		return b, nil
	}
	opener := m.volatileOpener
	if class == Persistent {
		opener = m.persistentOpener
	}
	b, err := opener(typeName)
	if err != nil {
		return nil, err
	}
	m.tables[typeName] = b
	return b, nil
}

func (m *Manager) Close() error {
	m.tableMu.Lock()
	defer m.tableMu.Unlock()
	var firstErr error
	for _, b := range m.tables {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Resources is the handle passed into a transaction's callback. It is not
// safe for use outside the callback it was created for.
type Resources struct {
	mgr      *Manager
	writable bool

	// overlay holds pending writes for a read-write transaction, keyed by
	// table then raw id. Nothing here is visible to other transactions, or
	// to the subscription hub, until Commit succeeds.
	overlay map[string]map[[16]byte]overlayEntry
	events  []Event
}

type overlayEntry struct {
	data    []byte
	deleted bool
}

func newResources(mgr *Manager, writable bool) *Resources {
	r := &Resources{mgr: mgr, writable: writable}
	if writable {
		r.overlay = make(map[string]map[[16]byte]overlayEntry)
	}
	return r
}

func (r *Resources) tableOverlay(typeName string) map[[16]byte]overlayEntry {
	t, ok := r.overlay[typeName]
	if !ok {
		t = make(map[[16]byte]overlayEntry)
		r.overlay[typeName] = t
	}
	return t
}

// Get returns the current value of id within this transaction, seeing any
// prior writes made earlier in the same read-write transaction.
func Get[R Resource](r *Resources, id Identifiable) (R, bool, error) {
	var zero R
	typeName := tableName[R]()
	raw := id.Bytes()

	if r.writable {
		if t, ok := r.overlay[typeName]; ok {
			if e, ok := t[raw]; ok {
				if e.deleted {
					return zero, false, nil
				}
				var v R
				if err := decode(e.data, &v); err != nil {
					return zero, false, persistenceErr(typeName, "get", raw, err)
				}
				return v, true, nil
			}
		}
	}

	b, err := r.mgr.backingFor(typeName, zero.Class())
	if err != nil {
		return zero, false, persistenceErr(typeName, "get", raw, err)
	}
	data, err := b.Get(raw)
	if err != nil {
		if errors.Cause(err) == storage.ErrNotFound {
			return zero, false, nil
		}
		return zero, false, persistenceErr(typeName, "get", raw, err)
	}
	var v R
	if err := decode(data, &v); err != nil {
		return zero, false, persistenceErr(typeName, "get", raw, err)
	}
	return v, true, nil
}

// Insert stores value under id, replacing any previous value. The write (and
// the resulting Inserted event) only becomes visible to other transactions
// and subscribers once the enclosing resources_mut transaction commits.
func Insert[R Resource](r *Resources, id Identifiable, value R) error {
	if !r.writable {
		return ErrReadOnlyTransaction
	}
	typeName := tableName[R]()
	raw := id.Bytes()
	data, err := encode(value)
	if err != nil {
		return persistenceErr(typeName, "insert", raw, err)
	}
	r.tableOverlay(typeName)[raw] = overlayEntry{data: data}
	r.events = append(r.events, Event{TypeName: typeName, Type: EventInserted, ID: raw, Value: value})
	return nil
}

// Remove deletes id and returns the value that was present beforehand.
func Remove[R Resource](r *Resources, id Identifiable) (R, bool, error) {
	if !r.writable {
		var zero R
		return zero, false, ErrReadOnlyTransaction
	}
	prior, ok, err := Get[R](r, id)
	if err != nil || !ok {
		return prior, ok, err
	}
	typeName := tableName[R]()
	raw := id.Bytes()
	r.tableOverlay(typeName)[raw] = overlayEntry{deleted: true}
	r.events = append(r.events, Event{TypeName: typeName, Type: EventRemoved, ID: raw})
	return prior, true, nil
}

// List returns every stored value of type R, including this transaction's
// own pending writes.
func List[R Resource](r *Resources) (map[[16]byte]R, error) {
	var zero R
	typeName := tableName[R]()
	b, err := r.mgr.backingFor(typeName, zero.Class())
	if err != nil {
		return nil, persistenceErr(typeName, "list", [16]byte{}, err)
	}
	raw, err := b.List()
	if err != nil {
		return nil, persistenceErr(typeName, "list", [16]byte{}, err)
	}
	out := make(map[[16]byte]R, len(raw))
	for id, data := range raw {
		var v R
		if err := decode(data, &v); err != nil {
			return nil, persistenceErr(typeName, "list", id, err)
		}
		out[id] = v
	}
	if r.writable {
		if t, ok := r.overlay[typeName]; ok {
			for id, e := range t {
				if e.deleted {
					delete(out, id)
					continue
				}
				var v R
				if err := decode(e.data, &v); err != nil {
					return nil, persistenceErr(typeName, "list", id, err)
				}
				out[id] = v
			}
		}
	}
	return out, nil
}

// Resources runs a read-only transaction. Mutation funcs (Insert/Remove)
// called from fn return ErrReadOnlyTransaction.
func (m *Manager) Resources(fn func(*Resources) error) error {
	r := newResources(m, false)
	return fn(r)
}

// ResourcesMut runs a read-write transaction. If fn returns an error, no
// write becomes visible and no subscription event is published. If fn
// succeeds, pending writes are flushed to their backings and queued events
// are published to subscribers in the order they were generated.
func (m *Manager) ResourcesMut(fn func(*Resources) error) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	r := newResources(m, true)
	if err := fn(r); err != nil {
		return err
	}
	return r.commit()
}

func (r *Resources) commit() error {
	for typeName, entries := range r.overlay {
		b, err := r.mgr.backingFor(typeName, classOf(r.events, typeName))
		if err != nil {
			return persistenceErr(typeName, "commit", [16]byte{}, err)
		}
		for id, e := range entries {
			if e.deleted {
				if _, err := b.Delete(id); err != nil && errors.Cause(err) != storage.ErrNotFound {
					return persistenceErr(typeName, "commit-delete", id, err)
				}
				continue
			}
			if err := b.Set(id, e.data); err != nil {
				return persistenceErr(typeName, "commit-set", id, err)
			}
		}
	}
	r.mgr.hub.publish(r.events)
	return nil
}

func classOf(events []Event, typeName string) StorageClass {
	for _, ev := range events {
		if ev.TypeName != typeName || ev.Value == nil {
			continue
		}
		if res, ok := ev.Value.(Resource); ok {
			return res.Class()
		}
	}
	return Volatile
}
