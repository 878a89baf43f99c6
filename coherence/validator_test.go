package coherence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsfkit/signspace/model"
)

func ref(id uint64, t model.ReferenceType, pos model.SpatialVector, size model.SpatialVector) *model.SpatialReference {
	s := size
	return &model.SpatialReference{
		ID:              id,
		Type:            t,
		Position:        pos,
		Size:            &s,
		Importance:      0.5,
		ActivationState: model.StateActive,
	}
}

func testMap(refs ...*model.SpatialReference) *model.SpatialMap {
	m := &model.SpatialMap{
		ID:          "map-1",
		References:  make(map[uint64]*model.SpatialReference),
		Connections: make(map[string]*model.SpatialConnection),
		Regions:     make(map[string]*model.SpatialRegion),
	}
	for _, r := range refs {
		m.References[r.ID] = r
	}
	return m
}

func TestValidateReferences(t *testing.T) {
	v := New()

	t.Run("OverlapUnlessPartOf", func(t *testing.T) {
		// A person at the origin and an object 0.1 away with default-ish
		// sizes overlap; a part_of connection silences the issue.
		m := testMap(
			ref(1, model.TypePerson, model.SpatialVector{}, model.SpatialVector{X: 0.3, Y: 0.6, Z: 0.3}),
			ref(2, model.TypeObject, model.SpatialVector{X: 0.1}, model.SpatialVector{X: 0.2, Y: 0.2, Z: 0.2}),
		)

		r := v.ValidateReferences(m)
		require.Len(t, r.Issues, 1)
		assert.Equal(t, CodeOverlap, r.Issues[0].Code)
		assert.Equal(t, SeverityWarning, r.Issues[0].Severity)
		assert.True(t, r.Valid) // warnings do not invalidate

		m.Connections["c1"] = &model.SpatialConnection{
			ID: "c1", Source: 2, Target: 1, Kind: model.RelationPartOf, Strength: 1,
		}
		r = v.ValidateReferences(m)
		assert.Empty(t, r.Issues)
	})

	t.Run("SeparatedNoIssue", func(t *testing.T) {
		m := testMap(
			ref(1, model.TypePerson, model.SpatialVector{X: -0.5}, model.SpatialVector{X: 0.3, Y: 0.6, Z: 0.3}),
			ref(2, model.TypeObject, model.SpatialVector{X: 0.5}, model.SpatialVector{X: 0.2, Y: 0.2, Z: 0.2}),
		)
		r := v.ValidateReferences(m)
		assert.Empty(t, r.Issues)
		assert.Equal(t, 1.0, r.Score)
	})

	t.Run("MalformedReportedNotRaised", func(t *testing.T) {
		bad := ref(3, "planet", model.SpatialVector{}, model.SpatialVector{X: 0.1, Y: 0.1, Z: 0.1})
		bad.Importance = 2
		m := testMap(bad)

		r := v.ValidateReferences(m)
		assert.False(t, r.Valid)
		assert.Equal(t, 2, r.Errors())
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		m := testMap(ref(4, model.TypeObject, model.SpatialVector{X: 5}, model.SpatialVector{X: 0.1, Y: 0.1, Z: 0.1}))
		r := v.ValidateReferences(m)
		require.Len(t, r.Issues, 1)
		assert.Equal(t, CodeOutOfBounds, r.Issues[0].Code)
		assert.True(t, r.Valid)
	})

	t.Run("NilMap", func(t *testing.T) {
		r := v.ValidateReferences(nil)
		assert.True(t, r.Valid)
		assert.Empty(t, r.Issues)
	})
}

func TestValidateConnections(t *testing.T) {
	v := New()

	t.Run("MissingEndpoints", func(t *testing.T) {
		m := testMap(ref(1, model.TypePerson, model.SpatialVector{}, model.SpatialVector{X: 0.1, Y: 0.1, Z: 0.1}))
		m.Connections["c1"] = &model.SpatialConnection{ID: "c1", Source: 1, Target: 99, Kind: model.RelationRefersTo, Strength: 1}

		r := v.ValidateConnections(m)
		assert.False(t, r.Valid)
		require.Len(t, r.Issues, 1)
		assert.Equal(t, CodeMissingEndpoint, r.Issues[0].Code)
	})

	t.Run("StrengthAndSelfLoop", func(t *testing.T) {
		m := testMap(
			ref(1, model.TypePerson, model.SpatialVector{}, model.SpatialVector{X: 0.1, Y: 0.1, Z: 0.1}),
			ref(2, model.TypeObject, model.SpatialVector{X: 1}, model.SpatialVector{X: 0.1, Y: 0.1, Z: 0.1}),
		)
		m.Connections["c1"] = &model.SpatialConnection{ID: "c1", Source: 1, Target: 2, Kind: model.RelationRefersTo, Strength: 1.5}
		m.Connections["c2"] = &model.SpatialConnection{ID: "c2", Source: 1, Target: 1, Kind: model.RelationRefersTo, Strength: 0.5}

		r := v.ValidateConnections(m)
		assert.False(t, r.Valid)
		codes := map[IssueCode]bool{}
		for _, is := range r.Issues {
			codes[is.Code] = true
		}
		assert.True(t, codes[CodeStrengthRange])
		assert.True(t, codes[CodeSelfLoop])
	})

	t.Run("AsymmetricBidirectional", func(t *testing.T) {
		m := testMap(
			ref(1, model.TypePerson, model.SpatialVector{}, model.SpatialVector{X: 0.1, Y: 0.1, Z: 0.1}),
			ref(2, model.TypePerson, model.SpatialVector{X: 1}, model.SpatialVector{X: 0.1, Y: 0.1, Z: 0.1}),
		)
		m.Connections["c1"] = &model.SpatialConnection{ID: "c1", Source: 1, Target: 2, Kind: model.RelationInteracts, Strength: 1, Bidirectional: true}
		m.Connections["c2"] = &model.SpatialConnection{ID: "c2", Source: 2, Target: 1, Kind: model.RelationInteracts, Strength: 1}

		r := v.ValidateConnections(m)
		assert.True(t, r.Valid)
		require.Len(t, r.Issues, 1)
		assert.Equal(t, CodeAsymmetricBidirectional, r.Issues[0].Code)
	})

	t.Run("DuplicateRecords", func(t *testing.T) {
		m := testMap(
			ref(1, model.TypePerson, model.SpatialVector{}, model.SpatialVector{X: 0.1, Y: 0.1, Z: 0.1}),
			ref(2, model.TypeObject, model.SpatialVector{X: 1}, model.SpatialVector{X: 0.1, Y: 0.1, Z: 0.1}),
		)
		m.Connections["c1"] = &model.SpatialConnection{ID: "c1", Source: 1, Target: 2, Kind: model.RelationPossesses, Strength: 1}
		m.Connections["c2"] = &model.SpatialConnection{ID: "c2", Source: 1, Target: 2, Kind: model.RelationPossesses, Strength: 0.5}

		r := v.ValidateConnections(m)
		require.Len(t, r.Issues, 1)
		assert.Equal(t, CodeDuplicateConnection, r.Issues[0].Code)
	})
}

func TestValidateLinguisticRules(t *testing.T) {
	v := New(func(c *Config) { c.MaxAnchorDistance = 0.5 })

	agent := ref(1, model.TypePerson, model.SpatialVector{}, model.SpatialVector{X: 0.3, Y: 0.6, Z: 0.3})
	agent.Context.GrammaticalRole = model.RoleAgent

	recipient := ref(2, model.TypePerson, model.SpatialVector{X: 2}, model.SpatialVector{X: 0.3, Y: 0.6, Z: 0.3})
	recipient.Context.GrammaticalRole = model.RoleRecipient
	recipient.Context.RelatedEntities = []uint64{1}

	t.Run("TooFarIsWarning", func(t *testing.T) {
		m := testMap(agent, recipient)
		r := v.ValidateLinguisticRules(m)
		assert.True(t, r.Valid)
		require.Len(t, r.Issues, 1)
		assert.Equal(t, CodeAnchorTooFar, r.Issues[0].Code)
		assert.Equal(t, SeverityWarning, r.Issues[0].Severity)
	})

	t.Run("CloseEnough", func(t *testing.T) {
		near := recipient.Clone()
		near.Position = model.SpatialVector{X: 0.4}
		m := testMap(agent, near)
		r := v.ValidateLinguisticRules(m)
		assert.Empty(t, r.Issues)
	})

	t.Run("MissingAnchor", func(t *testing.T) {
		m := testMap(recipient)
		r := v.ValidateLinguisticRules(m)
		require.Len(t, r.Issues, 1)
		assert.Equal(t, CodeMissingAnchor, r.Issues[0].Code)
	})
}

func TestValidateAll(t *testing.T) {
	v := New(func(c *Config) { c.MaxAnchorDistance = 0.5 })

	t.Run("UnionsAndRecommends", func(t *testing.T) {
		a := ref(1, model.TypePerson, model.SpatialVector{}, model.SpatialVector{X: 0.3, Y: 0.6, Z: 0.3})
		b := ref(2, model.TypeObject, model.SpatialVector{X: 0.1}, model.SpatialVector{X: 0.2, Y: 0.2, Z: 0.2})
		m := testMap(a, b)

		r, err := v.ValidateAll(context.Background(), m)
		require.NoError(t, err)
		require.Len(t, r.Issues, 1)
		require.Len(t, r.Recommendations, 1)

		// Applying the recommendation resolves the overlap.
		fix := r.Recommendations[0]
		assert.Equal(t, b.ID, fix.Reference)
		moved := b.Clone()
		moved.Position = fix.To
		m2 := testMap(a, moved)
		r2 := v.ValidateReferences(m2)
		assert.Empty(t, r2.Issues)
	})

	t.Run("AnchorCorrection", func(t *testing.T) {
		agent := ref(1, model.TypePerson, model.SpatialVector{}, model.SpatialVector{X: 0.1, Y: 0.1, Z: 0.1})
		agent.Context.GrammaticalRole = model.RoleAgent
		rec := ref(2, model.TypePerson, model.SpatialVector{X: 0.9}, model.SpatialVector{X: 0.1, Y: 0.1, Z: 0.1})
		rec.Context.GrammaticalRole = model.RoleRecipient
		rec.Context.RelatedEntities = []uint64{1}
		m := testMap(agent, rec)

		r, err := v.ValidateAll(context.Background(), m)
		require.NoError(t, err)
		require.Len(t, r.Recommendations, 1)
		fix := r.Recommendations[0]
		assert.Equal(t, rec.ID, fix.Reference)
		assert.InDelta(t, 0.5, fix.To.Distance(agent.Position), 1e-9)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := v.ValidateAll(ctx, testMap())
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("PurityAndDeterminism", func(t *testing.T) {
		a := ref(1, model.TypePerson, model.SpatialVector{}, model.SpatialVector{X: 0.3, Y: 0.6, Z: 0.3})
		b := ref(2, model.TypeObject, model.SpatialVector{X: 0.1}, model.SpatialVector{X: 0.2, Y: 0.2, Z: 0.2})
		m := testMap(a, b)
		before := m.Clone()

		var first *Report
		for i := 0; i < 5; i++ {
			r, err := v.ValidateAll(context.Background(), m)
			require.NoError(t, err)
			if first == nil {
				first = r
			} else {
				assert.Equal(t, first.Issues, r.Issues)
				assert.Equal(t, first.Recommendations, r.Recommendations)
				assert.Equal(t, first.Score, r.Score)
			}
		}
		assert.Equal(t, before.References[2].Position, m.References[2].Position)
	})
}

func TestValidateAddition(t *testing.T) {
	v := New()

	existing := ref(1, model.TypePerson, model.SpatialVector{}, model.SpatialVector{X: 0.3, Y: 0.6, Z: 0.3})
	m := testMap(existing)

	t.Run("OverlappingCandidate", func(t *testing.T) {
		candidate := ref(2, model.TypeObject, model.SpatialVector{X: 0.05}, model.SpatialVector{X: 0.2, Y: 0.2, Z: 0.2})
		r := v.ValidateAddition(m, candidate)
		assert.True(t, r.Valid) // overlap is advisory
		require.Len(t, r.Issues, 1)
		assert.Equal(t, CodeOverlap, r.Issues[0].Code)
		require.Len(t, r.Recommendations, 1)
		assert.Equal(t, candidate.ID, r.Recommendations[0].Reference)

		// Pre-flight has no side effects on the snapshot.
		assert.Len(t, m.References, 1)
	})

	t.Run("CleanCandidate", func(t *testing.T) {
		candidate := ref(3, model.TypeObject, model.SpatialVector{X: 0.9}, model.SpatialVector{X: 0.2, Y: 0.2, Z: 0.2})
		r := v.ValidateAddition(m, candidate)
		assert.True(t, r.Valid)
		assert.Empty(t, r.Issues)
	})
}

func TestScore(t *testing.T) {
	v := New(func(c *Config) {
		c.PenaltyError = 0.3
		c.PenaltyWarning = 0.1
	})

	r := newReport()
	r.add(Issue{Code: CodeOverlap, Severity: SeverityWarning})
	r.add(Issue{Code: CodeMissingEndpoint, Severity: SeverityError})
	assert.InDelta(t, 0.6, v.Score(r), 1e-9)

	// Floors at zero.
	for i := 0; i < 10; i++ {
		r.add(Issue{Code: CodeMissingEndpoint, Severity: SeverityError})
	}
	assert.Equal(t, 0.0, v.Score(r))
}

func TestConfig(t *testing.T) {
	t.Run("ParseOverridesDefaults", func(t *testing.T) {
		cfg, err := ParseConfig([]byte("overlap_tolerance: 0.1\nmax_anchor_distance: 1.2\n"))
		require.NoError(t, err)
		assert.Equal(t, 0.1, cfg.OverlapTolerance)
		assert.Equal(t, 1.2, cfg.MaxAnchorDistance)
		// Untouched keys keep their defaults.
		assert.Equal(t, DefaultConfig().PenaltyError, cfg.PenaltyError)
	})

	t.Run("RejectsBadValues", func(t *testing.T) {
		_, err := ParseConfig([]byte("max_anchor_distance: -1\n"))
		assert.Error(t, err)

		_, err = ParseConfig([]byte("overlap_tolerance: [\n"))
		assert.Error(t, err)
	})

	t.Run("LoadMissingFile", func(t *testing.T) {
		_, err := LoadConfig("/nonexistent/coherence.yaml")
		assert.Error(t, err)
	})
}

// Validation passes finish promptly even for larger maps; this guards the
// pairwise overlap pass against accidental quadratic blowup in small-n use.
func TestValidateAllManyReferences(t *testing.T) {
	v := New(func(c *Config) { c.Bounds = nil })
	m := testMap()
	for i := uint64(1); i <= 60; i++ {
		m.References[i] = ref(i, model.TypeConcept,
			model.SpatialVector{X: float64(i) * 2}, model.SpatialVector{X: 0.1, Y: 0.1, Z: 0.1})
	}

	start := time.Now()
	r, err := v.ValidateAll(context.Background(), m)
	require.NoError(t, err)
	assert.True(t, r.Valid)
	assert.Less(t, time.Since(start), time.Second)
}
