// Package tracker is the authoritative, mutable store of spatial references
// and their relationships for one signing-space scope, plus fast lookup.
//
// The tracker maintains a primary store, a roaring-bitmap type index, a
// roaring-bitmap activation set, a position index for proximity scans, and a
// relationship adjacency list, all kept mutually consistent by every
// operation. Mutations emit one event each to subscribed observers after the
// change has been applied.
//
// A Tracker is single-writer: it takes no internal locks, so concurrent
// mutation requires external serialization (the manager layer does this).
// Read methods return deep copies; the tracker is the sole owner of its live
// references and never hands out a mutable alias.
package tracker

import (
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/lsfkit/signspace/model"
	"github.com/lsfkit/signspace/reference"
)

// Options configures a Tracker.
type Options struct {
	// Clock is the time source for createdAt/updatedAt and event timestamps.
	Clock func() time.Time
}

// DefaultOptions are the defaults used by New.
var DefaultOptions = Options{
	Clock: time.Now,
}

// Tracker owns the live set of references and relationships for one scope.
type Tracker struct {
	clock func() time.Time

	refs      map[uint64]*model.SpatialReference
	byType    map[model.ReferenceType]*roaring64.Bitmap
	active    *roaring64.Bitmap
	positions map[uint64]model.SpatialVector
	edges     map[uint64][]model.Relationship

	subs          []subscriber
	nextSubID     uint64
	handlerPanics uint64
}

// New creates an empty tracker. One tracker per map/session; never share a
// process-wide instance across sessions.
func New(optFns ...func(o *Options)) *Tracker {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	t := &Tracker{clock: opts.Clock}
	t.reset()
	return t
}

func (t *Tracker) reset() {
	t.refs = make(map[uint64]*model.SpatialReference)
	t.byType = make(map[model.ReferenceType]*roaring64.Bitmap)
	t.active = roaring64.New()
	t.positions = make(map[uint64]model.SpatialVector)
	t.edges = make(map[uint64][]model.Relationship)
}

// Reset clears all references, relationships, and indices. It emits no
// per-item events; callers needing teardown notifications must iterate first.
// Subscriptions survive a reset.
func (t *Tracker) Reset() {
	t.reset()
}

// Track inserts or replaces a reference by id and returns the id.
//
// On insert the tracker assigns createdAt = updatedAt = now, registers the
// reference in all indices, and emits an add event. On replace the original
// createdAt is kept, updatedAt is refreshed, indices are updated, and an
// update event is emitted. Changing a reference's type through the replace
// path is an error. A zero id gets a fresh one assigned.
//
// Validation happens before any state is touched, so a failed Track leaves
// the store and indices exactly as they were.
func (t *Tracker) Track(ref *model.SpatialReference) (uint64, error) {
	if ref == nil {
		return 0, ErrNilReference
	}
	if !ref.Type.Valid() {
		return 0, &ErrInvalidReferenceType{Type: ref.Type}
	}
	state := ref.ActivationState
	if state == "" {
		state = model.StateActive
	}
	if !state.Valid() {
		return 0, &ErrInvalidActivationState{State: ref.ActivationState}
	}
	if ref.Importance < 0 || ref.Importance > 1 {
		return 0, &ErrInvalidWeight{Field: "importance", Value: ref.Importance}
	}
	if ref.PersistenceScore < 0 || ref.PersistenceScore > 1 {
		return 0, &ErrInvalidWeight{Field: "persistenceScore", Value: ref.PersistenceScore}
	}

	id := ref.ID
	existing, replace := t.refs[id]
	if replace && existing.Type != ref.Type {
		return 0, &ErrTypeChange{ID: id, From: existing.Type, To: ref.Type}
	}
	if id == 0 {
		id = reference.NextID()
	}

	now := t.clock()
	stored := ref.Clone()
	stored.ID = id
	stored.ActivationState = state
	stored.UpdatedAt = now
	if replace {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}

	t.refs[id] = stored
	t.typeBitmap(stored.Type).Add(id)
	if state == model.StateActive {
		t.active.Add(id)
	} else {
		t.active.Remove(id)
	}
	t.positions[id] = stored.Position

	evType := EventAdd
	if replace {
		evType = EventUpdate
	}
	t.emit(Event{Type: evType, ID: id, Timestamp: now})
	return id, nil
}

// Get returns a copy of the reference, or false if the id is not tracked.
func (t *Tracker) Get(id uint64) (*model.SpatialReference, bool) {
	ref, ok := t.refs[id]
	if !ok {
		return nil, false
	}
	return ref.Clone(), true
}

// Contains reports whether the id is tracked.
func (t *Tracker) Contains(id uint64) bool {
	_, ok := t.refs[id]
	return ok
}

// IsActive reports whether the reference exists and is in the active state.
// Absent ids are not an error; they are simply not active.
func (t *Tracker) IsActive(id uint64) bool {
	return t.active.Contains(id)
}

// Activate moves the reference into the active state. It returns true only
// on an actual transition: false if the id is absent or already active.
func (t *Tracker) Activate(id uint64) bool {
	return t.setState(id, model.StateActive, EventActivate)
}

// Deactivate moves the reference into the inactive state. It returns true
// only on an actual transition: false if the id is absent or already inactive.
func (t *Tracker) Deactivate(id uint64) bool {
	return t.setState(id, model.StateInactive, EventDeactivate)
}

func (t *Tracker) setState(id uint64, state model.ActivationState, evType EventType) bool {
	ref, ok := t.refs[id]
	if !ok || ref.ActivationState == state {
		return false
	}
	now := t.clock()
	ref.ActivationState = state
	ref.UpdatedAt = now
	if state == model.StateActive {
		t.active.Add(id)
	} else {
		t.active.Remove(id)
	}
	t.emit(Event{Type: evType, ID: id, Timestamp: now})
	return true
}

// Remove deletes the reference from the primary store and every index and
// cascades relationship cleanup: all outgoing edges are dropped and the id is
// scrubbed as a target from every other source's edge list. Returns false if
// the id is absent. Only a remove event is emitted; the cascade is part of
// the same mutation.
func (t *Tracker) Remove(id uint64) bool {
	ref, ok := t.refs[id]
	if !ok {
		return false
	}

	delete(t.refs, id)
	t.typeBitmap(ref.Type).Remove(id)
	t.active.Remove(id)
	delete(t.positions, id)
	delete(t.edges, id)
	for src, list := range t.edges {
		kept := list[:0]
		for _, e := range list {
			if e.Target != id {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(t.edges, src)
		} else {
			t.edges[src] = kept
		}
	}

	t.emit(Event{Type: EventRemove, ID: id, Timestamp: t.clock()})
	return true
}

// All returns copies of every tracked reference. The returned slice is a
// stable snapshot: later tracker mutation does not change it.
func (t *Tracker) All() []*model.SpatialReference {
	out := make([]*model.SpatialReference, 0, len(t.refs))
	for _, ref := range t.refs {
		out = append(out, ref.Clone())
	}
	return out
}

// Active returns copies of every reference in the active state.
func (t *Tracker) Active() []*model.SpatialReference {
	out := make([]*model.SpatialReference, 0, t.active.GetCardinality())
	it := t.active.Iterator()
	for it.HasNext() {
		if ref, ok := t.refs[it.Next()]; ok {
			out = append(out, ref.Clone())
		}
	}
	return out
}

// FindByType returns copies of all references of the given type. The lookup
// is index-backed: cost is proportional to the matching set, not the store.
func (t *Tracker) FindByType(rt model.ReferenceType) []*model.SpatialReference {
	bm, ok := t.byType[rt]
	if !ok {
		return nil
	}
	out := make([]*model.SpatialReference, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		if ref, ok := t.refs[it.Next()]; ok {
			out = append(out, ref.Clone())
		}
	}
	return out
}

// FindOptions configures a proximity query.
type FindOptions struct {
	// SortByDistance orders results distance-ascending (ties by id).
	SortByDistance bool
	// Type restricts results to one reference type when non-empty.
	Type model.ReferenceType
	// ActiveOnly restricts results to active references.
	ActiveOnly bool
}

// WithSorted orders proximity results distance-ascending.
func WithSorted() func(o *FindOptions) {
	return func(o *FindOptions) { o.SortByDistance = true }
}

// WithTypeFilter restricts proximity results to one reference type.
func WithTypeFilter(rt model.ReferenceType) func(o *FindOptions) {
	return func(o *FindOptions) { o.Type = rt }
}

// WithActiveOnly restricts proximity results to active references.
func WithActiveOnly() func(o *FindOptions) {
	return func(o *FindOptions) { o.ActiveOnly = true }
}

// FindNear returns every reference whose Euclidean distance to pos is at most
// threshold, boundary included. Results are unordered unless WithSorted is
// given. A negative threshold is an error.
//
// The scan is linear over the position index; signing-space maps hold at most
// a few dozen references, so a spatial partition is not worth its upkeep.
func (t *Tracker) FindNear(pos model.SpatialVector, threshold float64, optFns ...func(o *FindOptions)) ([]*model.SpatialReference, error) {
	if threshold < 0 {
		return nil, &ErrNegativeThreshold{Threshold: threshold}
	}
	var opts FindOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	type hit struct {
		id   uint64
		dist float64
	}
	var hits []hit
	for id, p := range t.positions {
		d := p.Distance(pos)
		if d > threshold {
			continue
		}
		if opts.ActiveOnly && !t.active.Contains(id) {
			continue
		}
		if opts.Type != "" {
			if ref := t.refs[id]; ref == nil || ref.Type != opts.Type {
				continue
			}
		}
		hits = append(hits, hit{id: id, dist: d})
	}

	if opts.SortByDistance {
		sort.Slice(hits, func(i, j int) bool {
			if hits[i].dist != hits[j].dist {
				return hits[i].dist < hits[j].dist
			}
			return hits[i].id < hits[j].id
		})
	}

	out := make([]*model.SpatialReference, 0, len(hits))
	for _, h := range hits {
		out = append(out, t.refs[h.id].Clone())
	}
	return out, nil
}

// UpdatePosition moves the reference and keeps the position index in step.
// Returns false if the id is absent.
func (t *Tracker) UpdatePosition(id uint64, pos model.SpatialVector) bool {
	p := pos
	ok, _ := t.Apply(id, Update{Position: &p})
	return ok
}

// SetImportance replaces the importance weight. Returns false if the id is
// absent; a value outside [0,1] is an error.
func (t *Tracker) SetImportance(id uint64, importance float64) (bool, error) {
	v := importance
	return t.Apply(id, Update{Importance: &v})
}

// MergeProperties overlays the given properties onto the reference's bag,
// caller keys winning. Returns false if the id is absent.
func (t *Tracker) MergeProperties(id uint64, p model.Properties) bool {
	ok, _ := t.Apply(id, Update{Properties: p})
	return ok
}

// Update describes a partial mutation of a tracked reference. Nil fields are
// left unchanged; Properties are merged with caller keys winning.
type Update struct {
	Position         *model.SpatialVector
	Orientation      *model.Quaternion
	Size             *model.SpatialVector
	Importance       *float64
	PersistenceScore *float64
	Context          *model.ReferenceContext
	Properties       model.Properties
}

// Apply performs a partial update, bumps updatedAt, and emits one update
// event. Returns false if the id is absent; invalid weight values are
// errors and leave the reference untouched.
func (t *Tracker) Apply(id uint64, u Update) (bool, error) {
	ref, ok := t.refs[id]
	if !ok {
		return false, nil
	}
	if u.Importance != nil && (*u.Importance < 0 || *u.Importance > 1) {
		return false, &ErrInvalidWeight{Field: "importance", Value: *u.Importance}
	}
	if u.PersistenceScore != nil && (*u.PersistenceScore < 0 || *u.PersistenceScore > 1) {
		return false, &ErrInvalidWeight{Field: "persistenceScore", Value: *u.PersistenceScore}
	}

	if u.Position != nil {
		ref.Position = *u.Position
		t.positions[id] = *u.Position
	}
	if u.Orientation != nil {
		q := *u.Orientation
		ref.Orientation = &q
	}
	if u.Size != nil {
		s := *u.Size
		ref.Size = &s
	}
	if u.Importance != nil {
		ref.Importance = *u.Importance
	}
	if u.PersistenceScore != nil {
		ref.PersistenceScore = *u.PersistenceScore
	}
	if u.Context != nil {
		ref.Context = u.Context.Clone()
	}
	if u.Properties != nil {
		ref.Properties = ref.Properties.Merge(u.Properties)
	}

	now := t.clock()
	ref.UpdatedAt = now
	t.emit(Event{Type: EventUpdate, ID: id, Timestamp: now})
	return true, nil
}

// LinkOptions configures a relationship edge.
type LinkOptions struct {
	// Strength of the link in [0,1].
	Strength float64
	// Bidirectional maintains a matching reverse edge.
	Bidirectional bool
	// Properties is free-form edge data.
	Properties model.Properties
}

// WithStrength sets the edge strength.
func WithStrength(s float64) func(o *LinkOptions) {
	return func(o *LinkOptions) { o.Strength = s }
}

// WithBidirectional makes the tracker maintain the reverse edge too.
func WithBidirectional() func(o *LinkOptions) {
	return func(o *LinkOptions) { o.Bidirectional = true }
}

// WithEdgeProperties sets free-form edge data.
func WithEdgeProperties(p model.Properties) func(o *LinkOptions) {
	return func(o *LinkOptions) { o.Properties = p }
}

// Link creates a typed relationship edge from source to target.
//
// It returns false if either endpoint is absent. Re-linking an identical
// (target, kind) edge is idempotent: it returns true without duplicating and
// without emitting a second event. Multiple kinds may exist between one pair;
// Unlink removes them all at once; disambiguate at call sites if that
// matters. A strength outside [0,1] is an error.
func (t *Tracker) Link(source, target uint64, kind model.RelationKind, optFns ...func(o *LinkOptions)) (bool, error) {
	opts := LinkOptions{Strength: 1}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Strength < 0 || opts.Strength > 1 {
		return false, &ErrInvalidStrength{Strength: opts.Strength}
	}
	if _, ok := t.refs[source]; !ok {
		return false, nil
	}
	if _, ok := t.refs[target]; !ok {
		return false, nil
	}

	if t.hasEdge(source, target, kind) {
		return true, nil
	}

	edge := model.Relationship{
		Source:        source,
		Target:        target,
		Kind:          kind,
		Strength:      opts.Strength,
		Bidirectional: opts.Bidirectional,
		Properties:    opts.Properties.Clone(),
	}
	t.edges[source] = append(t.edges[source], edge)
	if opts.Bidirectional && !t.hasEdge(target, source, kind) {
		reverse := edge
		reverse.Source, reverse.Target = target, source
		reverse.Properties = opts.Properties.Clone()
		t.edges[target] = append(t.edges[target], reverse)
	}

	t.emit(Event{Type: EventRelationshipAdd, ID: source, RelatedID: target, Timestamp: t.clock()})
	return true, nil
}

func (t *Tracker) hasEdge(source, target uint64, kind model.RelationKind) bool {
	for _, e := range t.edges[source] {
		if e.Target == target && e.Kind == kind {
			return true
		}
	}
	return false
}

// Unlink removes every edge from source to target regardless of kind. Edges
// created bidirectionally take their reverse twin with them. It returns
// false, with no event, if no edge existed.
func (t *Tracker) Unlink(source, target uint64) bool {
	list, ok := t.edges[source]
	if !ok {
		return false
	}

	kept := list[:0]
	var removed []model.Relationship
	for _, e := range list {
		if e.Target == target {
			removed = append(removed, e)
		} else {
			kept = append(kept, e)
		}
	}
	if len(removed) == 0 {
		return false
	}
	if len(kept) == 0 {
		delete(t.edges, source)
	} else {
		t.edges[source] = kept
	}

	for _, e := range removed {
		if e.Bidirectional {
			t.removeEdge(target, source, e.Kind)
		}
	}

	t.emit(Event{Type: EventRelationshipRemove, ID: source, RelatedID: target, Timestamp: t.clock()})
	return true
}

func (t *Tracker) removeEdge(source, target uint64, kind model.RelationKind) {
	list := t.edges[source]
	kept := list[:0]
	for _, e := range list {
		if !(e.Target == target && e.Kind == kind) {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(t.edges, source)
	} else {
		t.edges[source] = kept
	}
}

// Relationships returns copies of the outgoing edges of id. It returns an
// empty slice both for an absent id and for a reference with no edges.
func (t *Tracker) Relationships(id uint64) []model.Relationship {
	list := t.edges[id]
	out := make([]model.Relationship, 0, len(list))
	for _, e := range list {
		out = append(out, e.Clone())
	}
	return out
}

// Stats summarizes the tracker's current state.
type Stats struct {
	References    int
	Active        int
	Edges         int
	ByType        map[model.ReferenceType]int
	HandlerPanics uint64
}

// Stats returns counts derived from the live indices.
func (t *Tracker) Stats() Stats {
	s := Stats{
		References:    len(t.refs),
		Active:        int(t.active.GetCardinality()),
		ByType:        make(map[model.ReferenceType]int, len(t.byType)),
		HandlerPanics: t.handlerPanics,
	}
	for rt, bm := range t.byType {
		if c := int(bm.GetCardinality()); c > 0 {
			s.ByType[rt] = c
		}
	}
	for _, list := range t.edges {
		s.Edges += len(list)
	}
	return s
}

func (t *Tracker) typeBitmap(rt model.ReferenceType) *roaring64.Bitmap {
	bm, ok := t.byType[rt]
	if !ok {
		bm = roaring64.New()
		t.byType[rt] = bm
	}
	return bm
}
