package model

import "time"

// RelationKind is the typed label of a relationship edge.
// The set is open; these are the kinds the engine gives meaning to.
type RelationKind string

const (
	// RelationPartOf marks the source as a part of the target.
	// Overlap between related bounding volumes is expected, not reported.
	RelationPartOf RelationKind = "part_of"
	// RelationContains is the inverse of part_of seen from the container.
	RelationContains RelationKind = "contains"
	// RelationPossesses marks ownership between referents.
	RelationPossesses RelationKind = "possesses"
	// RelationInteracts marks a generic discourse interaction.
	RelationInteracts RelationKind = "interacts_with"
	// RelationRefersTo marks an anaphoric link back to an earlier referent.
	RelationRefersTo RelationKind = "refers_to"
	// RelationPrecedes orders two time references on the time line.
	RelationPrecedes RelationKind = "precedes"
)

// Relationship is one directed edge of the reference graph.
//
// Bidirectional relationships are represented as two directed edges kept in
// sync by the tracker; callers never maintain the reverse edge themselves.
type Relationship struct {
	Source        uint64       `json:"source" yaml:"source"`
	Target        uint64       `json:"target" yaml:"target"`
	Kind          RelationKind `json:"kind" yaml:"kind"`
	Strength      float64      `json:"strength" yaml:"strength"`
	Bidirectional bool         `json:"bidirectional,omitempty" yaml:"bidirectional,omitempty"`
	Properties    Properties   `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Clone returns a deep copy of the edge.
func (r Relationship) Clone() Relationship {
	out := r
	out.Properties = r.Properties.Clone()
	return out
}

// SpatialConnection is the manager-level record of a relationship, carrying
// a stable connection id so it can be removed without knowing the kind.
type SpatialConnection struct {
	ID            string       `json:"id" yaml:"id"`
	Source        uint64       `json:"source" yaml:"source"`
	Target        uint64       `json:"target" yaml:"target"`
	Kind          RelationKind `json:"kind" yaml:"kind"`
	Bidirectional bool         `json:"bidirectional,omitempty" yaml:"bidirectional,omitempty"`
	Strength      float64      `json:"strength" yaml:"strength"`
	Properties    Properties   `json:"properties,omitempty" yaml:"properties,omitempty"`
	CreatedAt     time.Time    `json:"createdAt" yaml:"createdAt"`
}

// Clone returns a deep copy of the connection.
func (c *SpatialConnection) Clone() *SpatialConnection {
	if c == nil {
		return nil
	}
	out := *c
	out.Properties = c.Properties.Clone()
	return &out
}
