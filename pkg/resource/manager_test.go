package resource_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource/storage/volatile"
)

type widget struct {
	Name string
}

func (widget) TypeName() string          { return "widget" }
func (widget) Class() resource.StorageClass { return resource.Volatile }

type widgetID [16]byte

func (id widgetID) Bytes() [16]byte { return id }

func newManager() *resource.Manager {
	return resource.NewManager(volatile.NewOpener(), volatile.NewOpener())
}

func TestInsertGetList(t *testing.T) {
	m := newManager()
	id := widgetID{1}

	err := m.ResourcesMut(func(r *resource.Resources) error {
		return resource.Insert[widget](r, id, widget{Name: "a"})
	})
	require.NoError(t, err)

	err = m.Resources(func(r *resource.Resources) error {
		v, ok, err := resource.Get[widget](r, id)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "a", v.Name)

		all, err := resource.List[widget](r)
		require.NoError(t, err)
		assert.Len(t, all, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestInsertTwiceReplaces(t *testing.T) {
	m := newManager()
	id := widgetID{2}

	require.NoError(t, m.ResourcesMut(func(r *resource.Resources) error {
		return resource.Insert[widget](r, id, widget{Name: "first"})
	}))
	require.NoError(t, m.ResourcesMut(func(r *resource.Resources) error {
		return resource.Insert[widget](r, id, widget{Name: "second"})
	}))

	require.NoError(t, m.Resources(func(r *resource.Resources) error {
		v, ok, err := resource.Get[widget](r, id)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "second", v.Name)
		return nil
	}))
}

func TestRemoveReturnsPriorAndThenNotFound(t *testing.T) {
	m := newManager()
	id := widgetID{3}

	require.NoError(t, m.ResourcesMut(func(r *resource.Resources) error {
		return resource.Insert[widget](r, id, widget{Name: "gone-soon"})
	}))

	require.NoError(t, m.ResourcesMut(func(r *resource.Resources) error {
		prior, ok, err := resource.Remove[widget](r, id)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "gone-soon", prior.Name)
		return nil
	}))

	require.NoError(t, m.Resources(func(r *resource.Resources) error {
		_, ok, err := resource.Get[widget](r, id)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	}))
}

func TestFailedTransactionLeavesNoTraceAndEmitsNoEvent(t *testing.T) {
	m := newManager()
	id := widgetID{4}

	events, cancel := resource.Subscribe[widget](m, 8)
	defer cancel()

	boom := assert.AnError
	err := m.ResourcesMut(func(r *resource.Resources) error {
		if err := resource.Insert[widget](r, id, widget{Name: "never-committed"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, m.Resources(func(r *resource.Resources) error {
		_, ok, err := resource.Get[widget](r, id)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	}))

	select {
	case ev := <-events:
		t.Fatalf("expected no event, got %+v", ev)
	default:
	}
}

func TestCommitPublishesEventsInOrder(t *testing.T) {
	m := newManager()
	events, cancel := resource.Subscribe[widget](m, 8)
	defer cancel()

	idA, idB := widgetID{5}, widgetID{6}
	require.NoError(t, m.ResourcesMut(func(r *resource.Resources) error {
		if err := resource.Insert[widget](r, idA, widget{Name: "a"}); err != nil {
			return err
		}
		if err := resource.Insert[widget](r, idB, widget{Name: "b"}); err != nil {
			return err
		}
		_, _, err := resource.Remove[widget](r, idA)
		return err
	}))

	ev1 := <-events
	assert.Equal(t, resource.EventInserted, ev1.Type)
	ev2 := <-events
	assert.Equal(t, resource.EventInserted, ev2.Type)
	ev3 := <-events
	assert.Equal(t, resource.EventRemoved, ev3.Type)
	assert.Equal(t, idA.Bytes(), ev3.ID)
}

func TestReadOnlyTransactionCannotMutate(t *testing.T) {
	m := newManager()
	id := widgetID{7}
	err := m.Resources(func(r *resource.Resources) error {
		return resource.Insert[widget](r, id, widget{Name: "nope"})
	})
	assert.ErrorIs(t, err, resource.ErrReadOnlyTransaction)
}
