package model

import "time"

// MapMetadata carries derived statistics about a SpatialMap snapshot.
//
// These are not invariants kept live by the tracker; they are computed on
// demand when the snapshot is assembled or validated.
type MapMetadata struct {
	ReferenceCount  int       `json:"referenceCount" yaml:"referenceCount"`
	ConnectionCount int       `json:"connectionCount" yaml:"connectionCount"`
	RegionCount     int       `json:"regionCount" yaml:"regionCount"`
	CoherenceScore  float64   `json:"coherenceScore" yaml:"coherenceScore"`
	GeneratedAt     time.Time `json:"generatedAt" yaml:"generatedAt"`
}

// SpatialMap is the aggregate snapshot of one signing-space scope: the unit
// the coherence validator operates on and the unit external collaborators
// consume for rendering or persistence.
type SpatialMap struct {
	ID              string                        `json:"id" yaml:"id"`
	Topic           string                        `json:"topic" yaml:"topic"`
	SessionID       string                        `json:"sessionId" yaml:"sessionId"`
	ComplexityLevel int                           `json:"complexityLevel" yaml:"complexityLevel"`
	References      map[uint64]*SpatialReference  `json:"references" yaml:"references"`
	Connections     map[string]*SpatialConnection `json:"connections" yaml:"connections"`
	Regions         map[string]*SpatialRegion     `json:"regions" yaml:"regions"`
	Context         map[string]string             `json:"context,omitempty" yaml:"context,omitempty"`
	Metadata        MapMetadata                   `json:"metadata" yaml:"metadata"`
}

// Clone returns a deep copy of the snapshot.
func (m *SpatialMap) Clone() *SpatialMap {
	if m == nil {
		return nil
	}
	out := *m
	out.References = make(map[uint64]*SpatialReference, len(m.References))
	for id, r := range m.References {
		out.References[id] = r.Clone()
	}
	out.Connections = make(map[string]*SpatialConnection, len(m.Connections))
	for id, c := range m.Connections {
		out.Connections[id] = c.Clone()
	}
	out.Regions = make(map[string]*SpatialRegion, len(m.Regions))
	for id, r := range m.Regions {
		out.Regions[id] = r.Clone()
	}
	if m.Context != nil {
		out.Context = make(map[string]string, len(m.Context))
		for k, v := range m.Context {
			out.Context[k] = v
		}
	}
	return &out
}

// Related reports whether a and b are linked by a connection of one of the
// given kinds, in either direction.
func (m *SpatialMap) Related(a, b uint64, kinds ...RelationKind) bool {
	for _, c := range m.Connections {
		if (c.Source != a || c.Target != b) && (c.Source != b || c.Target != a) {
			continue
		}
		for _, k := range kinds {
			if c.Kind == k {
				return true
			}
		}
	}
	return false
}
