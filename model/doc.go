// Package model defines the pure value types of the signing space:
// vectors and orientations, spatial references with their lifecycle fields,
// typed property bags, relationships, regions, connections, and the
// SpatialMap aggregate snapshot.
//
// Nothing in this package has behavior beyond value math and copying.
// Mutation of live references goes through the tracker, which owns them
// exclusively; everything handed out of the engine is a deep copy.
package model
