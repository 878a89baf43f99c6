// Package signspace provides an embedded spatial reference engine for sign
// language signing space.
//
// The engine tracks discourse referents as positioned entities in a
// 3-dimensional signing space, keeps typed and activation indices over them,
// maintains typed relationship edges, and validates the resulting spatial
// layout against structural and linguistic coherence rules:
//
//   - model: pure value types (vectors, references, connections, maps)
//   - reference: builder with per-kind defaults
//   - tracker: the authoritative per-map store with bitmap indices and an
//     observer protocol
//   - coherence: stateless validation passes with repositioning suggestions
//   - codec, snapshot: self-describing snapshot interchange
//
// The root Manager composes these behind a map-scoped API and is the layer
// that logs, records metrics, and serializes access.
//
// # Quick Start
//
// Create a manager and a map:
//
//	ctx := context.Background()
//	mgr := signspace.New(
//	    signspace.WithLogLevel(slog.LevelInfo),
//	)
//	sm, err := mgr.CreateMap(ctx, "weekend plans", "session-1")
//	if err != nil {
//	    panic(err)
//	}
//
// Add references and connect them:
//
//	paul, _ := mgr.AddReference(ctx, sm.ID, signspace.ReferenceParams{
//	    Type:     model.TypePerson,
//	    Position: model.SpatialVector{X: -0.4, Y: 0.2},
//	    Label:    "Paul",
//	})
//	cinema, _ := mgr.AddReference(ctx, sm.ID, signspace.ReferenceParams{
//	    Type:     model.TypeLocation,
//	    Position: model.SpatialVector{X: 0.5},
//	    Label:    "cinema",
//	})
//	_, _ = mgr.ConnectReferences(ctx, sm.ID, paul.ID, cinema.ID, model.RelationRefersTo)
//
// Query, validate, observe:
//
//	near, _ := mgr.FindReferencesNearPosition(ctx, sm.ID, model.SpatialVector{}, 0.5)
//	report, _ := mgr.ValidateSpatialCoherence(ctx, sm.ID)
//	unsubscribe, _ := mgr.SubscribeSpatialEvents(sm.ID, func(ev tracker.Event) {
//	    fmt.Println(ev.Type, ev.ID)
//	})
//	defer unsubscribe()
//
// # Concurrency
//
// The Manager serializes all access internally; the trackers underneath are
// single-writer and lock-free. Event handlers run synchronously on the
// mutating goroutine and must not call back into the same map.
package signspace
