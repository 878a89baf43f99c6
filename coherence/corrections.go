package coherence

import "github.com/lsfkit/signspace/model"

// recommend turns overlap and anchor-distance issues into candidate
// positions. The heuristics are deliberately simple: push overlapping
// references apart along the vector between their centers until the volumes
// separate, and pull a too-distant recipient toward its anchor by the
// minimum amount that satisfies the distance rule.
func (v *Validator) recommend(m *model.SpatialMap, issues []Issue) []Correction {
	if m == nil {
		return nil
	}
	var out []Correction
	for _, is := range issues {
		switch is.Code {
		case CodeOverlap:
			if len(is.References) != 2 {
				continue
			}
			a := m.References[is.References[0]]
			b := m.References[is.References[1]]
			if a == nil || b == nil {
				continue
			}
			if c, ok := v.pushApart(a, b); ok {
				out = append(out, c)
			}
		case CodeAnchorTooFar:
			if len(is.References) != 2 {
				continue
			}
			ref := m.References[is.References[0]]
			anchor := m.References[is.References[1]]
			if ref == nil || anchor == nil {
				continue
			}
			out = append(out, v.pullToward(ref, anchor))
		}
	}
	return out
}

// pushApart proposes moving b away from a along the center-to-center vector
// by the smallest scalar that separates the bounding volumes on at least one
// axis, plus the configured padding. Coincident centers push along +X.
func (v *Validator) pushApart(a, b *model.SpatialReference) (Correction, bool) {
	if a.Size == nil || b.Size == nil {
		return Correction{}, false
	}

	dir := b.Position.Sub(a.Position).Normalize()
	if dir.IsZero() {
		dir = model.SpatialVector{X: 1}
	}

	d := b.Position.Sub(a.Position)
	halves := model.SpatialVector{
		X: (a.Size.X + b.Size.X) / 2,
		Y: (a.Size.Y + b.Size.Y) / 2,
		Z: (a.Size.Z + b.Size.Z) / 2,
	}

	// Smallest travel along dir that clears one axis past the tolerance.
	best := -1.0
	axes := []struct{ dist, half, dirc float64 }{
		{d.X, halves.X, dir.X},
		{d.Y, halves.Y, dir.Y},
		{d.Z, halves.Z, dir.Z},
	}
	for _, ax := range axes {
		if ax.dirc == 0 {
			continue
		}
		need := ax.half - v.cfg.OverlapTolerance + v.cfg.SeparationPadding - abs(ax.dist)
		if need <= 0 {
			// Already separated on this axis; nothing to do.
			return Correction{}, false
		}
		t := need / abs(ax.dirc)
		if best < 0 || t < best {
			best = t
		}
	}
	if best <= 0 {
		return Correction{}, false
	}

	to := b.Position.Add(dir.Scale(best))
	return Correction{
		Reference: b.ID,
		From:      b.Position,
		To:        to,
		Reason:    CodeOverlap,
	}, true
}

// pullToward proposes moving ref onto the sphere of radius MaxAnchorDistance
// around its anchor: the minimum displacement that satisfies the rule.
func (v *Validator) pullToward(ref, anchor *model.SpatialReference) Correction {
	dir := ref.Position.Sub(anchor.Position).Normalize()
	if dir.IsZero() {
		dir = model.SpatialVector{X: 1}
	}
	to := anchor.Position.Add(dir.Scale(v.cfg.MaxAnchorDistance))
	return Correction{
		Reference: ref.ID,
		From:      ref.Position,
		To:        to,
		Reason:    CodeAnchorTooFar,
	}
}
