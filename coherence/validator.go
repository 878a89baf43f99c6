// Package coherence validates SpatialMap snapshots for structural and
// linguistic consistency.
//
// The validator is a pure-function layer: it reads a snapshot, reports
// problems as data, and optionally proposes corrected positions. It never
// mutates the snapshot or the tracker behind it, and it never raises for
// malformed map content; describing problems is its whole purpose.
package coherence

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/lsfkit/signspace/model"
)

// Validator runs coherence rules against SpatialMap snapshots.
type Validator struct {
	cfg Config
}

// New creates a validator. Options mutate a copy of DefaultConfig.
func New(optFns ...func(c *Config)) *Validator {
	cfg := DefaultConfig()
	for _, fn := range optFns {
		fn(&cfg)
	}
	return &Validator{cfg: cfg}
}

// NewWithConfig creates a validator from a complete config, e.g. one loaded
// from YAML.
func NewWithConfig(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Config returns the validator's configuration.
func (v *Validator) Config() Config {
	return v.cfg
}

// ValidateReferences runs the structural per-reference checks: well-formed
// fields, in-bounds positions, and bounding-volume overlaps beyond tolerance.
// Overlap between references related by part_of or contains is expected and
// not reported.
func (v *Validator) ValidateReferences(m *model.SpatialMap) *Report {
	r := newReport()
	if m == nil {
		r.Score = v.score(r)
		return r
	}

	for _, ref := range sortedRefs(m) {
		v.checkReference(r, ref)
	}

	refs := sortedRefs(m)
	for i := 0; i < len(refs); i++ {
		for j := i + 1; j < len(refs); j++ {
			v.checkOverlap(r, m, refs[i], refs[j])
		}
	}

	r.Score = v.score(r)
	return r
}

func (v *Validator) checkReference(r *Report, ref *model.SpatialReference) {
	if ref == nil {
		return
	}
	if !ref.Type.Valid() {
		r.add(Issue{
			Code:       CodeMalformedReference,
			Severity:   SeverityError,
			Message:    fmt.Sprintf("reference %d has invalid type %q", ref.ID, string(ref.Type)),
			References: []uint64{ref.ID},
		})
	}
	if ref.ActivationState != "" && !ref.ActivationState.Valid() {
		r.add(Issue{
			Code:       CodeMalformedReference,
			Severity:   SeverityError,
			Message:    fmt.Sprintf("reference %d has invalid activation state %q", ref.ID, string(ref.ActivationState)),
			References: []uint64{ref.ID},
		})
	}
	if ref.Importance < 0 || ref.Importance > 1 || ref.PersistenceScore < 0 || ref.PersistenceScore > 1 {
		r.add(Issue{
			Code:       CodeMalformedReference,
			Severity:   SeverityError,
			Message:    fmt.Sprintf("reference %d has weight outside [0,1]", ref.ID),
			References: []uint64{ref.ID},
		})
	}
	if v.cfg.Bounds != nil && !v.cfg.Bounds.Contains(ref.Position) {
		r.add(Issue{
			Code:       CodeOutOfBounds,
			Severity:   SeverityWarning,
			Message:    fmt.Sprintf("reference %d at %s leaves the signing space", ref.ID, ref.Position),
			References: []uint64{ref.ID},
		})
	}
}

func (v *Validator) checkOverlap(r *Report, m *model.SpatialMap, a, b *model.SpatialReference) {
	depth, ok := overlapDepth(a, b, v.cfg.OverlapTolerance)
	if !ok {
		return
	}
	if m.Related(a.ID, b.ID, model.RelationPartOf, model.RelationContains) {
		return
	}
	r.add(Issue{
		Code:     CodeOverlap,
		Severity: SeverityWarning,
		Message: fmt.Sprintf("references %d and %d overlap by %.3f beyond tolerance",
			a.ID, b.ID, depth),
		References: []uint64{a.ID, b.ID},
	})
}

// overlapDepth returns the smallest axis intersection depth beyond tolerance
// of the two bounding volumes, and whether they overlap at all. References
// without a size have no volume and never overlap.
func overlapDepth(a, b *model.SpatialReference, tolerance float64) (float64, bool) {
	if a.Size == nil || b.Size == nil {
		return 0, false
	}
	d := a.Position.Sub(b.Position)
	dx := (a.Size.X+b.Size.X)/2 - abs(d.X)
	dy := (a.Size.Y+b.Size.Y)/2 - abs(d.Y)
	dz := (a.Size.Z+b.Size.Z)/2 - abs(d.Z)
	depth := min3(dx, dy, dz)
	if depth <= tolerance {
		return 0, false
	}
	return depth, true
}

// ValidateConnections checks every connection record: endpoints present,
// no self-loops, strength in range, duplicate records, and directed pairs
// whose bidirectional marking disagrees.
func (v *Validator) ValidateConnections(m *model.SpatialMap) *Report {
	r := newReport()
	if m == nil {
		r.Score = v.score(r)
		return r
	}

	type pairKind struct {
		source, target uint64
		kind           model.RelationKind
	}
	seen := make(map[pairKind]string)

	for _, c := range sortedConns(m) {
		if _, ok := m.References[c.Source]; !ok {
			r.add(Issue{
				Code:       CodeMissingEndpoint,
				Severity:   SeverityError,
				Message:    fmt.Sprintf("connection %s references missing source %d", c.ID, c.Source),
				References: []uint64{c.Source},
				Connection: c.ID,
			})
		}
		if _, ok := m.References[c.Target]; !ok {
			r.add(Issue{
				Code:       CodeMissingEndpoint,
				Severity:   SeverityError,
				Message:    fmt.Sprintf("connection %s references missing target %d", c.ID, c.Target),
				References: []uint64{c.Target},
				Connection: c.ID,
			})
		}
		if c.Source == c.Target {
			r.add(Issue{
				Code:       CodeSelfLoop,
				Severity:   SeverityError,
				Message:    fmt.Sprintf("connection %s links reference %d to itself", c.ID, c.Source),
				References: []uint64{c.Source},
				Connection: c.ID,
			})
		}
		if c.Strength < 0 || c.Strength > 1 {
			r.add(Issue{
				Code:       CodeStrengthRange,
				Severity:   SeverityError,
				Message:    fmt.Sprintf("connection %s has strength %g outside [0,1]", c.ID, c.Strength),
				Connection: c.ID,
			})
		}

		key := pairKind{source: c.Source, target: c.Target, kind: c.Kind}
		if prev, dup := seen[key]; dup {
			r.add(Issue{
				Code:       CodeDuplicateConnection,
				Severity:   SeverityWarning,
				Message:    fmt.Sprintf("connections %s and %s duplicate the same edge", prev, c.ID),
				References: []uint64{c.Source, c.Target},
				Connection: c.ID,
			})
		} else {
			seen[key] = c.ID
		}
	}

	// A directed pair where only one direction claims bidirectionality is
	// inconsistent: either one self-contained bidirectional record or two
	// plain directed records are fine, a mix is not.
	for _, c := range sortedConns(m) {
		if c.Bidirectional {
			continue
		}
		reverse := pairKind{source: c.Target, target: c.Source, kind: c.Kind}
		if revID, ok := seen[reverse]; ok {
			if rev := m.Connections[revID]; rev != nil && rev.Bidirectional {
				r.add(Issue{
					Code:       CodeAsymmetricBidirectional,
					Severity:   SeverityWarning,
					Message:    fmt.Sprintf("connection %s is bidirectional but its reverse %s is not", revID, c.ID),
					References: []uint64{c.Source, c.Target},
					Connection: c.ID,
				})
			}
		}
	}

	r.Score = v.score(r)
	return r
}

// ValidateLinguisticRules runs the domain checks: a recipient-role reference
// should sit within the configured anchor distance of the agent reference it
// is implicitly linked to through its related entities. Violations are
// warnings, since placement is a stylistic continuum rather than a hard
// constraint.
func (v *Validator) ValidateLinguisticRules(m *model.SpatialMap) *Report {
	r := newReport()
	if m == nil {
		r.Score = v.score(r)
		return r
	}

	for _, ref := range sortedRefs(m) {
		if ref.Context.GrammaticalRole != model.RoleRecipient {
			continue
		}
		for _, anchorID := range ref.Context.RelatedEntities {
			anchor, ok := m.References[anchorID]
			if !ok {
				r.add(Issue{
					Code:       CodeMissingAnchor,
					Severity:   SeverityWarning,
					Message:    fmt.Sprintf("recipient %d names missing anchor %d", ref.ID, anchorID),
					References: []uint64{ref.ID, anchorID},
				})
				continue
			}
			if d := ref.Position.Distance(anchor.Position); d > v.cfg.MaxAnchorDistance {
				r.add(Issue{
					Code:     CodeAnchorTooFar,
					Severity: SeverityWarning,
					Message: fmt.Sprintf("recipient %d sits %.3f from anchor %d, max %.3f",
						ref.ID, d, anchorID, v.cfg.MaxAnchorDistance),
					References: []uint64{ref.ID, anchorID},
				})
			}
		}
	}

	r.Score = v.score(r)
	return r
}

// ValidateAll runs the three passes concurrently over the same snapshot,
// unions their issues, and computes repositioning recommendations for
// overlap and anchor-distance problems. Recommendations are data only;
// nothing is applied.
//
// The only error condition is context cancellation.
func (v *Validator) ValidateAll(ctx context.Context, m *model.SpatialMap) (*Report, error) {
	var refs, conns, ling *Report

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { refs = v.ValidateReferences(m); return nil })
	g.Go(func() error { conns = v.ValidateConnections(m); return nil })
	g.Go(func() error { ling = v.ValidateLinguisticRules(m); return nil })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := newReport()
	seen := make(map[string]bool)
	for _, part := range []*Report{refs, conns, ling} {
		for _, is := range part.Issues {
			key := fmt.Sprintf("%s|%s|%v|%s", is.Code, is.Connection, is.References, is.Severity)
			if seen[key] {
				continue
			}
			seen[key] = true
			out.add(is)
		}
	}

	out.Recommendations = v.recommend(m, out.Issues)
	out.Score = v.score(out)
	return out, nil
}

// ValidateAddition is the pre-flight check run before tracking a candidate:
// it validates the candidate against the snapshot without touching either.
// Suggestions are corrections for the candidate's position.
func (v *Validator) ValidateAddition(m *model.SpatialMap, candidate *model.SpatialReference) *Report {
	r := newReport()
	if candidate == nil {
		r.Score = v.score(r)
		return r
	}

	v.checkReference(r, candidate)
	view := &model.SpatialMap{
		References: map[uint64]*model.SpatialReference{candidate.ID: candidate},
	}
	if m != nil {
		for _, other := range sortedRefs(m) {
			if other.ID == candidate.ID {
				continue
			}
			// Candidate last so corrections move it, not the settled map.
			v.checkOverlap(r, m, other, candidate)
			view.References[other.ID] = other
		}
	}

	r.Recommendations = v.recommend(view, r.Issues)
	// Only suggestions for the candidate itself are relevant pre-flight.
	kept := r.Recommendations[:0]
	for _, c := range r.Recommendations {
		if c.Reference == candidate.ID {
			kept = append(kept, c)
		}
	}
	r.Recommendations = kept
	r.Score = v.score(r)
	return r
}

// score derives the coherence score 1 - (errors*penaltyError +
// warnings*penaltyWarning), floored at zero.
func (v *Validator) score(r *Report) float64 {
	s := 1 - float64(r.Errors())*v.cfg.PenaltyError - float64(r.Warnings())*v.cfg.PenaltyWarning
	if s < 0 {
		return 0
	}
	return s
}

// Score exposes the report scoring for callers assembling map metadata.
func (v *Validator) Score(r *Report) float64 {
	return v.score(r)
}

func sortedRefs(m *model.SpatialMap) []*model.SpatialReference {
	out := make([]*model.SpatialReference, 0, len(m.References))
	for _, ref := range m.References {
		if ref != nil {
			out = append(out, ref)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedConns(m *model.SpatialMap) []*model.SpatialConnection {
	out := make([]*model.SpatialConnection, 0, len(m.Connections))
	for _, c := range m.Connections {
		if c != nil {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
