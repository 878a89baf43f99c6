// Package reference constructs well-formed SpatialReference values.
//
// The Builder is stateless apart from id allocation and safe to share across
// any number of trackers. It fills in kind-specific defaults the caller did
// not supply; it never validates geometry or coherence, that is the
// validator's job.
package reference

import (
	"sync/atomic"
	"time"

	"github.com/lsfkit/signspace/model"
)

// nextID allocates process-wide unique reference ids.
// Monotonic, never reused by the allocator.
var nextID atomic.Uint64

// NextID returns a fresh reference id. Exposed for callers that construct
// references without a Builder (tests, adapters).
func NextID() uint64 {
	return nextID.Add(1)
}

// Advance raises the id counter to at least id. Callers importing references
// allocated elsewhere use this so freshly built ids do not collide with
// imported ones.
func Advance(id uint64) {
	for {
		cur := nextID.Load()
		if cur >= id {
			return
		}
		if nextID.CompareAndSwap(cur, id) {
			return
		}
	}
}

// Defaults per kind. Sizes are full extents of the bounding footprint;
// importance is the relevance weight a kind starts with.
var kindDefaults = map[model.ReferenceType]struct {
	size       model.SpatialVector
	importance float64
}{
	model.TypePerson:   {size: model.SpatialVector{X: 0.3, Y: 0.6, Z: 0.3}, importance: 0.8},
	model.TypeObject:   {size: model.SpatialVector{X: 0.2, Y: 0.2, Z: 0.2}, importance: 0.6},
	model.TypeLocation: {size: model.SpatialVector{X: 0.5, Y: 0.1, Z: 0.5}, importance: 0.5},
	model.TypeConcept:  {size: model.SpatialVector{X: 0.15, Y: 0.15, Z: 0.15}, importance: 0.4},
	model.TypeTime:     {size: model.SpatialVector{X: 0.1, Y: 0.1, Z: 0.1}, importance: 0.5},
	model.TypeGroup:    {size: model.SpatialVector{X: 0.5, Y: 0.5, Z: 0.5}, importance: 0.7},
	model.TypeCustom:   {size: model.SpatialVector{X: 0.2, Y: 0.2, Z: 0.2}, importance: 0.5},
}

// Builder produces complete SpatialReference values for each semantic kind.
type Builder struct {
	clock func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the time source. Intended for tests.
func WithClock(clock func() time.Time) Option {
	return func(b *Builder) {
		b.clock = clock
	}
}

// NewBuilder returns a Builder ready for use.
func NewBuilder(optFns ...Option) *Builder {
	b := &Builder{clock: time.Now}
	for _, fn := range optFns {
		fn(b)
	}
	return b
}

// RefOption customizes a single reference under construction.
type RefOption func(*model.SpatialReference)

// WithLabel sets the context label.
func WithLabel(label string) RefOption {
	return func(r *model.SpatialReference) {
		r.Context.Label = label
	}
}

// WithTags sets the context tags.
func WithTags(tags ...string) RefOption {
	return func(r *model.SpatialReference) {
		r.Context.Tags = tags
	}
}

// WithGrammaticalRole sets the grammatical role read by the linguistic
// coherence pass.
func WithGrammaticalRole(role string) RefOption {
	return func(r *model.SpatialReference) {
		r.Context.GrammaticalRole = role
	}
}

// WithRelatedEntities sets the implicit linguistic anchors of the reference.
func WithRelatedEntities(ids ...uint64) RefOption {
	return func(r *model.SpatialReference) {
		r.Context.RelatedEntities = ids
	}
}

// WithProperties merges caller properties over the kind defaults.
// Caller values win on conflict.
func WithProperties(p model.Properties) RefOption {
	return func(r *model.SpatialReference) {
		r.Properties = r.Properties.Merge(p)
	}
}

// WithImportance overrides the kind's default importance.
func WithImportance(importance float64) RefOption {
	return func(r *model.SpatialReference) {
		r.Importance = importance
	}
}

// WithPersistenceScore sets the decay/longevity hint.
func WithPersistenceScore(score float64) RefOption {
	return func(r *model.SpatialReference) {
		r.PersistenceScore = score
	}
}

// WithSize overrides the kind's default bounding footprint.
func WithSize(size model.SpatialVector) RefOption {
	return func(r *model.SpatialReference) {
		s := size
		r.Size = &s
	}
}

// WithOrientation sets the orientation.
func WithOrientation(q model.Quaternion) RefOption {
	return func(r *model.SpatialReference) {
		o := q
		r.Orientation = &o
	}
}

// Person builds a person reference at the given position.
func (b *Builder) Person(pos model.SpatialVector, optFns ...RefOption) *model.SpatialReference {
	return b.build(model.TypePerson, pos, optFns)
}

// Object builds an object reference at the given position.
func (b *Builder) Object(pos model.SpatialVector, optFns ...RefOption) *model.SpatialReference {
	return b.build(model.TypeObject, pos, optFns)
}

// Location builds a location reference at the given position.
func (b *Builder) Location(pos model.SpatialVector, optFns ...RefOption) *model.SpatialReference {
	return b.build(model.TypeLocation, pos, optFns)
}

// Concept builds a concept reference at the given position.
func (b *Builder) Concept(pos model.SpatialVector, optFns ...RefOption) *model.SpatialReference {
	return b.build(model.TypeConcept, pos, optFns)
}

// TimePoint builds a time reference at the given position.
func (b *Builder) TimePoint(pos model.SpatialVector, optFns ...RefOption) *model.SpatialReference {
	return b.build(model.TypeTime, pos, optFns)
}

// Group builds a group reference at the given position.
func (b *Builder) Group(pos model.SpatialVector, optFns ...RefOption) *model.SpatialReference {
	return b.build(model.TypeGroup, pos, optFns)
}

// Custom builds a reference of kind TypeCustom, recording the caller's
// subtype under the "customType" property so downstream consumers can
// distinguish custom kinds without widening the closed type enumeration.
func (b *Builder) Custom(subtype string, pos model.SpatialVector, optFns ...RefOption) *model.SpatialReference {
	withSubtype := func(r *model.SpatialReference) {
		r.Properties = model.Properties{"customType": model.String(subtype)}.Merge(r.Properties)
	}
	return b.build(model.TypeCustom, pos, append([]RefOption{withSubtype}, optFns...))
}

// CloneOption customizes a cloned reference.
type CloneOption func(*cloneParams)

type cloneParams struct {
	offset          model.SpatialVector
	importanceScale float64
}

// WithOffset displaces the clone from the source position.
func WithOffset(offset model.SpatialVector) CloneOption {
	return func(p *cloneParams) {
		p.offset = offset
	}
}

// WithImportanceScale scales the clone's importance, clamped to [0,1].
func WithImportanceScale(scale float64) CloneOption {
	return func(p *cloneParams) {
		p.importanceScale = scale
	}
}

// Clone builds a new reference from an existing one: fresh id, fresh
// timestamps, ACTIVE state, optionally offset and with scaled importance.
func (b *Builder) Clone(src *model.SpatialReference, optFns ...CloneOption) *model.SpatialReference {
	p := cloneParams{importanceScale: 1}
	for _, fn := range optFns {
		fn(&p)
	}

	out := src.Clone()
	out.ID = NextID()
	out.Position = src.Position.Add(p.offset)
	out.Importance = clamp01(src.Importance * p.importanceScale)
	out.ActivationState = model.StateActive
	now := b.clock()
	out.CreatedAt = now
	out.UpdatedAt = now
	return out
}

func (b *Builder) build(t model.ReferenceType, pos model.SpatialVector, optFns []RefOption) *model.SpatialReference {
	d, ok := kindDefaults[t]
	if !ok {
		d = kindDefaults[model.TypeCustom]
	}

	size := d.size
	now := b.clock()
	ref := &model.SpatialReference{
		ID:               NextID(),
		Type:             t,
		Position:         pos,
		Size:             &size,
		Importance:       d.importance,
		PersistenceScore: 0.5,
		ActivationState:  model.StateActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, fn := range optFns {
		fn(ref)
	}
	return ref
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
