package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsfkit/signspace/model"
	"github.com/lsfkit/signspace/reference"
)

func newTestTracker() (*Tracker, *reference.Builder) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	t := New(func(o *Options) { o.Clock = clock })
	b := reference.NewBuilder(reference.WithClock(clock))
	return t, b
}

func TestTrack(t *testing.T) {
	t.Run("InsertAssignsTimestamps", func(t *testing.T) {
		tr, b := newTestTracker()
		ref := b.Person(model.SpatialVector{X: 0.5})

		id, err := tr.Track(ref)
		require.NoError(t, err)
		require.NotZero(t, id)

		got, ok := tr.Get(id)
		require.True(t, ok)
		assert.Equal(t, got.CreatedAt, got.UpdatedAt)
		assert.Equal(t, model.StateActive, got.ActivationState)
	})

	t.Run("ReplaceKeepsCreatedAt", func(t *testing.T) {
		tr, b := newTestTracker()
		ref := b.Object(model.SpatialVector{})
		id, err := tr.Track(ref)
		require.NoError(t, err)

		orig, _ := tr.Get(id)

		ref.Position = model.SpatialVector{X: 1}
		id2, err := tr.Track(ref)
		require.NoError(t, err)
		assert.Equal(t, id, id2)

		got, _ := tr.Get(id)
		assert.Equal(t, orig.CreatedAt, got.CreatedAt)
		assert.True(t, got.UpdatedAt.After(orig.UpdatedAt))
		assert.Equal(t, 1.0, got.Position.X)
	})

	t.Run("TypeChangeRejected", func(t *testing.T) {
		tr, b := newTestTracker()
		ref := b.Object(model.SpatialVector{})
		id, err := tr.Track(ref)
		require.NoError(t, err)

		changed := ref.Clone()
		changed.Type = model.TypePerson
		_, err = tr.Track(changed)
		var tc *ErrTypeChange
		require.ErrorAs(t, err, &tc)
		assert.Equal(t, id, tc.ID)

		// Store untouched by the failed replace.
		got, _ := tr.Get(id)
		assert.Equal(t, model.TypeObject, got.Type)
	})

	t.Run("InvalidInputs", func(t *testing.T) {
		tr, b := newTestTracker()

		_, err := tr.Track(nil)
		assert.ErrorIs(t, err, ErrNilReference)

		bad := b.Person(model.SpatialVector{})
		bad.Type = "planet"
		_, err = tr.Track(bad)
		var it *ErrInvalidReferenceType
		assert.ErrorAs(t, err, &it)

		badState := b.Person(model.SpatialVector{})
		badState.ActivationState = "dormant"
		_, err = tr.Track(badState)
		var is *ErrInvalidActivationState
		assert.ErrorAs(t, err, &is)

		badImp := b.Person(model.SpatialVector{})
		badImp.Importance = 1.5
		_, err = tr.Track(badImp)
		var iw *ErrInvalidWeight
		assert.ErrorAs(t, err, &iw)
	})

	t.Run("TrackerOwnsItsCopy", func(t *testing.T) {
		tr, b := newTestTracker()
		ref := b.Person(model.SpatialVector{X: 1})
		id, err := tr.Track(ref)
		require.NoError(t, err)

		// Mutating the caller's value must not reach the store.
		ref.Position.X = 99
		got, _ := tr.Get(id)
		assert.Equal(t, 1.0, got.Position.X)

		// Mutating a Get result must not reach the store either.
		got.Position.X = 77
		again, _ := tr.Get(id)
		assert.Equal(t, 1.0, again.Position.X)
	})
}

func TestActivation(t *testing.T) {
	tr, b := newTestTracker()
	id, err := tr.Track(b.Person(model.SpatialVector{}))
	require.NoError(t, err)

	// Already active: no transition.
	assert.False(t, tr.Activate(id))
	assert.True(t, tr.IsActive(id))

	assert.True(t, tr.Deactivate(id))
	assert.False(t, tr.IsActive(id))
	assert.False(t, tr.Deactivate(id))

	assert.True(t, tr.Activate(id))
	assert.True(t, tr.IsActive(id))

	// Absent ids: false, not an error.
	assert.False(t, tr.Activate(99999))
	assert.False(t, tr.Deactivate(99999))
	assert.False(t, tr.IsActive(99999))
}

func TestRemove(t *testing.T) {
	t.Run("CascadesTargetScrub", func(t *testing.T) {
		tr, b := newTestTracker()

		target, err := tr.Track(b.Object(model.SpatialVector{}))
		require.NoError(t, err)
		var sources []uint64
		for i := 0; i < 3; i++ {
			id, err := tr.Track(b.Person(model.SpatialVector{}))
			require.NoError(t, err)
			ok, err := tr.Link(id, target, model.RelationRefersTo)
			require.NoError(t, err)
			require.True(t, ok)
			sources = append(sources, id)
		}

		require.True(t, tr.Remove(target))

		for _, src := range sources {
			for _, e := range tr.Relationships(src) {
				assert.NotEqual(t, target, e.Target)
			}
		}
		assert.Empty(t, tr.Relationships(target))
		assert.False(t, tr.Remove(target)) // idempotent
	})

	t.Run("ClearsAllIndices", func(t *testing.T) {
		tr, b := newTestTracker()
		id, err := tr.Track(b.Concept(model.SpatialVector{X: 0.2}))
		require.NoError(t, err)

		require.True(t, tr.Remove(id))

		_, ok := tr.Get(id)
		assert.False(t, ok)
		assert.False(t, tr.IsActive(id))
		assert.Empty(t, tr.FindByType(model.TypeConcept))
		near, err := tr.FindNear(model.SpatialVector{}, 100)
		require.NoError(t, err)
		assert.Empty(t, near)
	})
}

func TestIndexConsistency(t *testing.T) {
	tr, b := newTestTracker()

	ids := make(map[uint64]bool)
	check := func() {
		t.Helper()
		all := tr.All()
		require.Len(t, all, len(ids))

		fromType := 0
		for _, rt := range []model.ReferenceType{model.TypePerson, model.TypeObject, model.TypeConcept} {
			for _, ref := range tr.FindByType(rt) {
				assert.True(t, ids[ref.ID])
				fromType++
			}
		}
		assert.Equal(t, len(ids), fromType)

		near, err := tr.FindNear(model.SpatialVector{}, 1e9)
		require.NoError(t, err)
		assert.Len(t, near, len(ids))
	}

	// Mixed operation sequence.
	p, _ := tr.Track(b.Person(model.SpatialVector{X: 1}))
	ids[p] = true
	check()
	o, _ := tr.Track(b.Object(model.SpatialVector{Y: 2}))
	ids[o] = true
	check()
	c, _ := tr.Track(b.Concept(model.SpatialVector{Z: 3}))
	ids[c] = true
	check()
	tr.UpdatePosition(o, model.SpatialVector{Y: 5})
	check()
	tr.Deactivate(p)
	check()
	tr.Remove(o)
	delete(ids, o)
	check()
	ref := b.Person(model.SpatialVector{X: 4})
	n, _ := tr.Track(ref)
	ids[n] = true
	check()
}

func TestSnapshotStability(t *testing.T) {
	tr, b := newTestTracker()
	id, err := tr.Track(b.Person(model.SpatialVector{X: 1}))
	require.NoError(t, err)

	snapshot := tr.All()
	require.Len(t, snapshot, 1)

	tr.UpdatePosition(id, model.SpatialVector{X: 9})
	tr.Track(b.Object(model.SpatialVector{}))

	assert.Len(t, snapshot, 1)
	assert.Equal(t, 1.0, snapshot[0].Position.X)
}

func TestFindNear(t *testing.T) {
	t.Run("BoundaryInclusive", func(t *testing.T) {
		tr, b := newTestTracker()
		onEdge, _ := tr.Track(b.Object(model.SpatialVector{X: 1}))
		_, err := tr.Track(b.Object(model.SpatialVector{X: 1.0001}))
		require.NoError(t, err)

		got, err := tr.FindNear(model.SpatialVector{}, 1.0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, onEdge, got[0].ID)
	})

	t.Run("ScatteredConcepts", func(t *testing.T) {
		// Five concepts scattered farther than 1.0 apart; a query centered
		// on one of them returns exactly that one.
		tr, b := newTestTracker()
		positions := []model.SpatialVector{
			{X: 0}, {X: 2}, {X: 4}, {Y: 2}, {Y: 4},
		}
		var first uint64
		for i, pos := range positions {
			id, err := tr.Track(b.Concept(pos))
			require.NoError(t, err)
			if i == 0 {
				first = id
			}
		}

		got, err := tr.FindNear(model.SpatialVector{}, 1.0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, first, got[0].ID)
	})

	t.Run("SortedByDistance", func(t *testing.T) {
		tr, b := newTestTracker()
		far, _ := tr.Track(b.Object(model.SpatialVector{X: 0.9}))
		near, _ := tr.Track(b.Object(model.SpatialVector{X: 0.1}))
		mid, _ := tr.Track(b.Object(model.SpatialVector{X: 0.5}))

		got, err := tr.FindNear(model.SpatialVector{}, 1, WithSorted())
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []uint64{near, mid, far}, []uint64{got[0].ID, got[1].ID, got[2].ID})
	})

	t.Run("TypeAndActiveFilters", func(t *testing.T) {
		tr, b := newTestTracker()
		p, _ := tr.Track(b.Person(model.SpatialVector{X: 0.1}))
		o, _ := tr.Track(b.Object(model.SpatialVector{X: 0.2}))
		tr.Deactivate(o)

		got, err := tr.FindNear(model.SpatialVector{}, 1, WithTypeFilter(model.TypePerson))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, p, got[0].ID)

		got, err = tr.FindNear(model.SpatialVector{}, 1, WithActiveOnly())
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, p, got[0].ID)
	})

	t.Run("NegativeThreshold", func(t *testing.T) {
		tr, _ := newTestTracker()
		_, err := tr.FindNear(model.SpatialVector{}, -1)
		var nt *ErrNegativeThreshold
		assert.ErrorAs(t, err, &nt)
	})
}

func TestRelationships(t *testing.T) {
	t.Run("IdempotentLink", func(t *testing.T) {
		tr, b := newTestTracker()
		a, _ := tr.Track(b.Person(model.SpatialVector{}))
		c, _ := tr.Track(b.Object(model.SpatialVector{}))

		ok, err := tr.Link(a, c, model.RelationPossesses)
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = tr.Link(a, c, model.RelationPossesses)
		require.NoError(t, err)
		require.True(t, ok)

		assert.Len(t, tr.Relationships(a), 1)
	})

	t.Run("MultipleKindsPerPair", func(t *testing.T) {
		tr, b := newTestTracker()
		a, _ := tr.Track(b.Person(model.SpatialVector{}))
		c, _ := tr.Track(b.Object(model.SpatialVector{}))

		_, err := tr.Link(a, c, model.RelationPossesses)
		require.NoError(t, err)
		_, err = tr.Link(a, c, model.RelationInteracts)
		require.NoError(t, err)
		assert.Len(t, tr.Relationships(a), 2)

		// Unlink keys by pair alone: both kinds go.
		assert.True(t, tr.Unlink(a, c))
		assert.Empty(t, tr.Relationships(a))
		assert.False(t, tr.Unlink(a, c))
	})

	t.Run("AbsentEndpoints", func(t *testing.T) {
		tr, b := newTestTracker()
		a, _ := tr.Track(b.Person(model.SpatialVector{}))

		ok, err := tr.Link(a, 99999, model.RelationRefersTo)
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = tr.Link(99999, a, model.RelationRefersTo)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("InvalidStrength", func(t *testing.T) {
		tr, b := newTestTracker()
		a, _ := tr.Track(b.Person(model.SpatialVector{}))
		c, _ := tr.Track(b.Object(model.SpatialVector{}))

		_, err := tr.Link(a, c, model.RelationRefersTo, WithStrength(1.2))
		var is *ErrInvalidStrength
		require.ErrorAs(t, err, &is)
		assert.Empty(t, tr.Relationships(a))
	})

	t.Run("BidirectionalKeptInSync", func(t *testing.T) {
		tr, b := newTestTracker()
		a, _ := tr.Track(b.Person(model.SpatialVector{}))
		c, _ := tr.Track(b.Person(model.SpatialVector{X: 1}))

		ok, err := tr.Link(a, c, model.RelationInteracts, WithBidirectional(), WithStrength(0.7))
		require.NoError(t, err)
		require.True(t, ok)

		require.Len(t, tr.Relationships(a), 1)
		require.Len(t, tr.Relationships(c), 1)
		assert.Equal(t, 0.7, tr.Relationships(c)[0].Strength)

		// Removing the forward edge takes the reverse twin with it.
		require.True(t, tr.Unlink(a, c))
		assert.Empty(t, tr.Relationships(a))
		assert.Empty(t, tr.Relationships(c))
	})

	t.Run("RelationshipsForAbsentID", func(t *testing.T) {
		tr, _ := newTestTracker()
		assert.Empty(t, tr.Relationships(424242))
	})
}

func TestReset(t *testing.T) {
	tr, b := newTestTracker()
	var events []Event
	tr.Subscribe(func(ev Event) { events = append(events, ev) })

	a, _ := tr.Track(b.Person(model.SpatialVector{}))
	c, _ := tr.Track(b.Object(model.SpatialVector{}))
	_, err := tr.Link(a, c, model.RelationPossesses)
	require.NoError(t, err)
	emitted := len(events)

	tr.Reset()

	assert.Empty(t, tr.All())
	assert.Empty(t, tr.Relationships(a))
	assert.Equal(t, 0, tr.Stats().References)
	// Reset emits no per-item events.
	assert.Len(t, events, emitted)

	// Subscriptions survive a reset.
	_, err = tr.Track(b.Person(model.SpatialVector{}))
	require.NoError(t, err)
	assert.Len(t, events, emitted+1)
}

func TestApplyConvenience(t *testing.T) {
	tr, b := newTestTracker()
	id, err := tr.Track(b.Object(model.SpatialVector{}, reference.WithProperties(model.Properties{"shape": model.String("box")})))
	require.NoError(t, err)

	ok, err := tr.SetImportance(id, 0.9)
	require.NoError(t, err)
	require.True(t, ok)
	got, _ := tr.Get(id)
	assert.Equal(t, 0.9, got.Importance)

	_, err = tr.SetImportance(id, 1.5)
	var iw *ErrInvalidWeight
	assert.ErrorAs(t, err, &iw)

	require.True(t, tr.MergeProperties(id, model.Properties{"shape": model.String("flat"), "open": model.Bool(true)}))
	got, _ = tr.Get(id)
	assert.Equal(t, model.String("flat"), got.Properties["shape"])
	assert.Equal(t, model.Bool(true), got.Properties["open"])

	assert.False(t, tr.MergeProperties(99999, model.Properties{"x": model.Int(1)}))
	ok, err = tr.SetImportance(99999, 0.5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	tr, b := newTestTracker()
	p, _ := tr.Track(b.Person(model.SpatialVector{}))
	o, _ := tr.Track(b.Object(model.SpatialVector{}))
	tr.Track(b.Object(model.SpatialVector{X: 1}))
	tr.Deactivate(o)
	_, err := tr.Link(p, o, model.RelationPossesses)
	require.NoError(t, err)

	s := tr.Stats()
	assert.Equal(t, 3, s.References)
	assert.Equal(t, 2, s.Active)
	assert.Equal(t, 1, s.Edges)
	assert.Equal(t, 1, s.ByType[model.TypePerson])
	assert.Equal(t, 2, s.ByType[model.TypeObject])
}
