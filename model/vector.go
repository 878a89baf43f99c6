package model

import (
	"fmt"
	"math"
)

// SpatialVector is a point or extent in the signing space.
//
// Vectors are immutable once assigned to a reference: updates replace the
// value wholesale through the tracker, they never mutate in place.
type SpatialVector struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Add returns the component-wise sum v + o.
func (v SpatialVector) Add(o SpatialVector) SpatialVector {
	return SpatialVector{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns the component-wise difference v - o.
func (v SpatialVector) Sub(o SpatialVector) SpatialVector {
	return SpatialVector{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v scaled by f.
func (v SpatialVector) Scale(f float64) SpatialVector {
	return SpatialVector{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

// Length returns the Euclidean norm of v.
func (v SpatialVector) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Distance returns the Euclidean distance between v and o.
func (v SpatialVector) Distance(o SpatialVector) float64 {
	return v.Sub(o).Length()
}

// Normalize returns a unit vector in the direction of v.
// The zero vector normalizes to itself.
func (v SpatialVector) Normalize() SpatialVector {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// IsZero reports whether all components are exactly zero.
func (v SpatialVector) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// String returns a compact representation for logs and issue messages.
func (v SpatialVector) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

// Quaternion is an orientation in the signing space.
type Quaternion struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
	W float64 `json:"w" yaml:"w"`
}

// IdentityQuaternion returns the no-rotation orientation.
func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

// Normalize returns q scaled to unit length.
// A degenerate zero quaternion normalizes to the identity.
func (q Quaternion) Normalize() Quaternion {
	l := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if l == 0 {
		return IdentityQuaternion()
	}
	return Quaternion{X: q.X / l, Y: q.Y / l, Z: q.Z / l, W: q.W / l}
}
