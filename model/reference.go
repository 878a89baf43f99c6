package model

import "time"

// ReferenceType is the closed enumeration of semantic reference kinds.
type ReferenceType string

const (
	// TypePerson anchors a human referent (signer, interlocutor, third person).
	TypePerson ReferenceType = "person"
	// TypeObject anchors a concrete object referent.
	TypeObject ReferenceType = "object"
	// TypeLocation anchors a place referent.
	TypeLocation ReferenceType = "location"
	// TypeConcept anchors an abstract concept referent.
	TypeConcept ReferenceType = "concept"
	// TypeTime anchors a point on a time line in the signing space.
	TypeTime ReferenceType = "time"
	// TypeGroup anchors a plurality treated as one referent.
	TypeGroup ReferenceType = "group"
	// TypeCustom is the escape hatch for caller-defined kinds.
	TypeCustom ReferenceType = "custom"
)

// Valid reports whether t is a member of the closed enumeration.
func (t ReferenceType) Valid() bool {
	switch t {
	case TypePerson, TypeObject, TypeLocation, TypeConcept, TypeTime, TypeGroup, TypeCustom:
		return true
	}
	return false
}

// ActivationState is the lifecycle state of a reference.
type ActivationState string

const (
	// StateActive marks a reference in scope for active-reference queries.
	StateActive ActivationState = "active"
	// StateInactive marks a reference out of scope but still tracked.
	StateInactive ActivationState = "inactive"
	// StatePending marks a reference established but not yet in discourse.
	StatePending ActivationState = "pending"
)

// Valid reports whether s is a member of the closed enumeration.
func (s ActivationState) Valid() bool {
	switch s {
	case StateActive, StateInactive, StatePending:
		return true
	}
	return false
}

// Grammatical roles read by the linguistic coherence pass.
// The set is open; these are the ones the engine knows about.
const (
	RoleAgent     = "agent"
	RolePatient   = "patient"
	RoleRecipient = "recipient"
	RoleTheme     = "theme"
)

// ReferenceContext is the linguistic annotation bag of a reference.
// The tracker treats it as opaque; the coherence validator reads
// GrammaticalRole and RelatedEntities for its linguistic pass.
type ReferenceContext struct {
	Label           string   `json:"label,omitempty" yaml:"label,omitempty"`
	Tags            []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	GrammaticalRole string   `json:"grammaticalRole,omitempty" yaml:"grammaticalRole,omitempty"`
	RelatedEntities []uint64 `json:"relatedEntities,omitempty" yaml:"relatedEntities,omitempty"`
}

// Clone returns a deep copy of the context.
func (c ReferenceContext) Clone() ReferenceContext {
	out := c
	if c.Tags != nil {
		out.Tags = append([]string(nil), c.Tags...)
	}
	if c.RelatedEntities != nil {
		out.RelatedEntities = append([]uint64(nil), c.RelatedEntities...)
	}
	return out
}

// SpatialReference is the core entity: an abstract referent anchored to a
// position in the signing space.
//
// ID and Type are immutable after creation. Position changes only through the
// tracker's update path so indices stay consistent. CreatedAt and UpdatedAt
// are owned by the tracker, never by callers.
type SpatialReference struct {
	ID          uint64         `json:"id" yaml:"id"`
	Type        ReferenceType  `json:"type" yaml:"type"`
	Position    SpatialVector  `json:"position" yaml:"position"`
	Orientation *Quaternion    `json:"orientation,omitempty" yaml:"orientation,omitempty"`

	// Size is the bounding footprint used for overlap checks.
	// Components are full extents along each axis, centered on Position.
	Size *SpatialVector `json:"size,omitempty" yaml:"size,omitempty"`

	// Importance is a relevance weight in [0,1] used by caller-side
	// eviction/prioritization policy; the tracker does not enforce it.
	Importance float64 `json:"importance" yaml:"importance"`

	// PersistenceScore is a decay/longevity hint in [0,1]; informational
	// only, the engine runs no decay scheduler.
	PersistenceScore float64 `json:"persistenceScore" yaml:"persistenceScore"`

	ActivationState ActivationState  `json:"activationState" yaml:"activationState"`
	CreatedAt       time.Time        `json:"createdAt" yaml:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt" yaml:"updatedAt"`
	Context         ReferenceContext `json:"context" yaml:"context"`
	Properties      Properties       `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Clone returns a deep copy of the reference.
func (r *SpatialReference) Clone() *SpatialReference {
	if r == nil {
		return nil
	}
	out := *r
	if r.Orientation != nil {
		q := *r.Orientation
		out.Orientation = &q
	}
	if r.Size != nil {
		s := *r.Size
		out.Size = &s
	}
	out.Context = r.Context.Clone()
	out.Properties = r.Properties.Clone()
	return &out
}
