package model

// SpatialRegion is a named sub-volume of the signing space.
//
// A region is either a sphere (Radius > 0) or a box (Dimensions set, full
// extents centered on Center). Regions group reference ids for coherence
// rules and higher-level callers; they are not required for basic tracking.
type SpatialRegion struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	Center     SpatialVector  `json:"center" yaml:"center"`
	Radius     float64        `json:"radius,omitempty" yaml:"radius,omitempty"`
	Dimensions *SpatialVector `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	References []uint64       `json:"references,omitempty" yaml:"references,omitempty"`
}

// Contains reports whether pos lies inside the region's volume.
// A region with neither radius nor dimensions contains nothing.
func (r *SpatialRegion) Contains(pos SpatialVector) bool {
	if r.Radius > 0 {
		return r.Center.Distance(pos) <= r.Radius
	}
	if r.Dimensions != nil {
		d := pos.Sub(r.Center)
		return abs(d.X) <= r.Dimensions.X/2 &&
			abs(d.Y) <= r.Dimensions.Y/2 &&
			abs(d.Z) <= r.Dimensions.Z/2
	}
	return false
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Clone returns a deep copy of the region.
func (r *SpatialRegion) Clone() *SpatialRegion {
	if r == nil {
		return nil
	}
	out := *r
	if r.Dimensions != nil {
		d := *r.Dimensions
		out.Dimensions = &d
	}
	if r.References != nil {
		out.References = append([]uint64(nil), r.References...)
	}
	return &out
}
