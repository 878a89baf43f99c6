package signspace

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lsfkit/signspace/coherence"
	"github.com/lsfkit/signspace/model"
	"github.com/lsfkit/signspace/reference"
	"github.com/lsfkit/signspace/snapshot"
	"github.com/lsfkit/signspace/tracker"
)

// Manager is the map-scoped orchestration surface of the engine: it owns one
// tracker per map, composes the builder and the coherence validator behind a
// single API, and is the only layer that logs and records metrics.
//
// Methods serialize access with an internal mutex; the trackers underneath
// stay lock-free single-writer.
type Manager struct {
	mu        sync.Mutex
	maps      map[string]*mapState
	builder   *reference.Builder
	validator *coherence.Validator
	clock     func() time.Time
	metrics   MetricsCollector
	logger    *Logger
}

// mapState is the live state behind one SpatialMap snapshot. One tracker per
// map; maps never share mutable state.
type mapState struct {
	id          string
	topic       string
	sessionID   string
	complexity  int
	context     map[string]string
	tracker     *tracker.Tracker
	connections map[string]*model.SpatialConnection
	regions     map[string]*model.SpatialRegion
}

// New creates a Manager.
func New(optFns ...Option) *Manager {
	opts := applyOptions(optFns)

	var v *coherence.Validator
	if opts.coherenceConfig != nil {
		v = coherence.NewWithConfig(*opts.coherenceConfig)
	} else {
		v = coherence.New()
	}

	return &Manager{
		maps:      make(map[string]*mapState),
		builder:   reference.NewBuilder(reference.WithClock(opts.clock)),
		validator: v,
		clock:     opts.clock,
		metrics:   opts.metricsCollector,
		logger:    opts.logger,
	}
}

// MapOptions configure CreateMap.
type MapOptions struct {
	// ComplexityLevel is a caller-defined difficulty grade for the map.
	ComplexityLevel int
	// Context is free-form session context carried on the snapshot.
	Context map[string]string
}

// WithComplexityLevel sets the map's complexity grade.
func WithComplexityLevel(level int) func(o *MapOptions) {
	return func(o *MapOptions) { o.ComplexityLevel = level }
}

// WithMapContext sets free-form map context.
func WithMapContext(ctx map[string]string) func(o *MapOptions) {
	return func(o *MapOptions) { o.Context = ctx }
}

// CreateMap creates a new empty map scope and returns its snapshot.
func (m *Manager) CreateMap(ctx context.Context, topic, sessionID string, optFns ...func(o *MapOptions)) (*model.SpatialMap, error) {
	var opts MapOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ms := &mapState{
		id:          uuid.NewString(),
		topic:       topic,
		sessionID:   sessionID,
		complexity:  opts.ComplexityLevel,
		tracker:     tracker.New(func(o *tracker.Options) { o.Clock = m.clock }),
		connections: make(map[string]*model.SpatialConnection),
		regions:     make(map[string]*model.SpatialRegion),
	}
	if opts.Context != nil {
		ms.context = make(map[string]string, len(opts.Context))
		for k, v := range opts.Context {
			ms.context[k] = v
		}
	}
	m.maps[ms.id] = ms

	m.logger.InfoContext(ctx, "map created",
		"map_id", ms.id,
		"topic", topic,
		"session_id", sessionID,
	)
	return m.buildMap(ms), nil
}

// GetMap returns a deep snapshot of the map, with derived metadata computed.
func (m *Manager) GetMap(ctx context.Context, mapID string) (*model.SpatialMap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, err := m.mapState(mapID)
	if err != nil {
		return nil, err
	}
	return m.buildMap(ms), nil
}

// ReferenceParams describe a reference to be built and tracked. Zero-valued
// optional fields fall back to the kind's defaults.
type ReferenceParams struct {
	Type model.ReferenceType
	// Subtype names the concrete kind when Type is TypeCustom.
	Subtype  string
	Position model.SpatialVector

	Label           string
	Tags            []string
	GrammaticalRole string
	RelatedEntities []uint64

	Importance       *float64
	PersistenceScore *float64
	Size             *model.SpatialVector
	Orientation      *model.Quaternion
	Properties       model.Properties
}

// AddReference builds a reference from params and tracks it in the map.
func (m *Manager) AddReference(ctx context.Context, mapID string, params ReferenceParams) (*model.SpatialReference, error) {
	start := time.Now()
	ref, err := m.addReference(mapID, params)
	duration := time.Since(start)
	m.metrics.RecordAddReference(duration, err)
	var id uint64
	if ref != nil {
		id = ref.ID
	}
	m.logger.LogAddReference(ctx, mapID, id, err)
	return ref, err
}

func (m *Manager) addReference(mapID string, params ReferenceParams) (*model.SpatialReference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, err := m.mapState(mapID)
	if err != nil {
		return nil, err
	}

	ref, err := m.buildReference(params)
	if err != nil {
		return nil, err
	}
	id, err := ms.tracker.Track(ref)
	if err != nil {
		return nil, translateError(err)
	}
	tracked, _ := ms.tracker.Get(id)
	return tracked, nil
}

func (m *Manager) buildReference(p ReferenceParams) (*model.SpatialReference, error) {
	var optFns []reference.RefOption
	if p.Label != "" {
		optFns = append(optFns, reference.WithLabel(p.Label))
	}
	if len(p.Tags) > 0 {
		optFns = append(optFns, reference.WithTags(p.Tags...))
	}
	if p.GrammaticalRole != "" {
		optFns = append(optFns, reference.WithGrammaticalRole(p.GrammaticalRole))
	}
	if len(p.RelatedEntities) > 0 {
		optFns = append(optFns, reference.WithRelatedEntities(p.RelatedEntities...))
	}
	if p.Importance != nil {
		optFns = append(optFns, reference.WithImportance(*p.Importance))
	}
	if p.PersistenceScore != nil {
		optFns = append(optFns, reference.WithPersistenceScore(*p.PersistenceScore))
	}
	if p.Size != nil {
		optFns = append(optFns, reference.WithSize(*p.Size))
	}
	if p.Orientation != nil {
		optFns = append(optFns, reference.WithOrientation(*p.Orientation))
	}
	if p.Properties != nil {
		optFns = append(optFns, reference.WithProperties(p.Properties))
	}

	switch p.Type {
	case model.TypePerson:
		return m.builder.Person(p.Position, optFns...), nil
	case model.TypeObject:
		return m.builder.Object(p.Position, optFns...), nil
	case model.TypeLocation:
		return m.builder.Location(p.Position, optFns...), nil
	case model.TypeConcept:
		return m.builder.Concept(p.Position, optFns...), nil
	case model.TypeTime:
		return m.builder.TimePoint(p.Position, optFns...), nil
	case model.TypeGroup:
		return m.builder.Group(p.Position, optFns...), nil
	case model.TypeCustom:
		return m.builder.Custom(p.Subtype, p.Position, optFns...), nil
	default:
		return nil, translateError(&tracker.ErrInvalidReferenceType{Type: p.Type})
	}
}

// UpdateOptions configure UpdateReference.
type UpdateOptions struct {
	// CoherencePreflight validates the updated reference against the map
	// before applying; error-severity issues reject the update with a
	// CoherenceRejectionError.
	CoherencePreflight bool
}

// WithCoherencePreflight enables the pre-flight coherence check.
func WithCoherencePreflight() func(o *UpdateOptions) {
	return func(o *UpdateOptions) { o.CoherencePreflight = true }
}

// UpdateReference applies a partial update to a tracked reference and returns
// the updated copy.
func (m *Manager) UpdateReference(ctx context.Context, mapID string, refID uint64, u tracker.Update, optFns ...func(o *UpdateOptions)) (*model.SpatialReference, error) {
	start := time.Now()
	ref, err := m.updateReference(mapID, refID, u, optFns)
	duration := time.Since(start)
	m.metrics.RecordUpdateReference(duration, err)
	m.logger.LogUpdateReference(ctx, mapID, refID, err)
	return ref, err
}

func (m *Manager) updateReference(mapID string, refID uint64, u tracker.Update, optFns []func(o *UpdateOptions)) (*model.SpatialReference, error) {
	var opts UpdateOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ms, err := m.mapState(mapID)
	if err != nil {
		return nil, err
	}

	if opts.CoherencePreflight {
		candidate, ok := ms.tracker.Get(refID)
		if !ok {
			return nil, fmt.Errorf("%w: reference %d", ErrNotFound, refID)
		}
		applyUpdate(candidate, u)
		report := m.validator.ValidateAddition(m.buildSnapshot(ms), candidate)
		if !report.Valid {
			return nil, &CoherenceRejectionError{Report: report}
		}
	}

	ok, err := ms.tracker.Apply(refID, u)
	if err != nil {
		return nil, translateError(err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: reference %d", ErrNotFound, refID)
	}
	updated, _ := ms.tracker.Get(refID)
	return updated, nil
}

// applyUpdate mirrors the tracker's partial-update semantics onto a detached
// copy, for pre-flight validation.
func applyUpdate(ref *model.SpatialReference, u tracker.Update) {
	if u.Position != nil {
		ref.Position = *u.Position
	}
	if u.Orientation != nil {
		q := *u.Orientation
		ref.Orientation = &q
	}
	if u.Size != nil {
		s := *u.Size
		ref.Size = &s
	}
	if u.Importance != nil {
		ref.Importance = *u.Importance
	}
	if u.PersistenceScore != nil {
		ref.PersistenceScore = *u.PersistenceScore
	}
	if u.Context != nil {
		ref.Context = u.Context.Clone()
	}
	if u.Properties != nil {
		ref.Properties = ref.Properties.Merge(u.Properties)
	}
}

// RemoveReference removes a reference, cascading its relationships and
// connection records. Returns false if the reference was absent.
func (m *Manager) RemoveReference(ctx context.Context, mapID string, refID uint64) (bool, error) {
	start := time.Now()
	removed, err := m.removeReference(mapID, refID)
	duration := time.Since(start)
	m.metrics.RecordRemoveReference(duration, err)
	if err == nil {
		m.logger.LogRemoveReference(ctx, mapID, refID, removed)
	}
	return removed, err
}

func (m *Manager) removeReference(mapID string, refID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, err := m.mapState(mapID)
	if err != nil {
		return false, err
	}

	removed := ms.tracker.Remove(refID)
	if removed {
		for id, c := range ms.connections {
			if c.Source == refID || c.Target == refID {
				delete(ms.connections, id)
			}
		}
		for _, r := range ms.regions {
			r.References = withoutID(r.References, refID)
		}
	}
	return removed, nil
}

func withoutID(ids []uint64, id uint64) []uint64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// ConnectOptions configure ConnectReferences.
type ConnectOptions struct {
	// Strength of the connection in [0,1].
	Strength float64
	// Bidirectional maintains a matching reverse edge in the tracker.
	Bidirectional bool
	// Properties is free-form connection data.
	Properties model.Properties
}

// WithConnectionStrength sets the connection strength.
func WithConnectionStrength(s float64) func(o *ConnectOptions) {
	return func(o *ConnectOptions) { o.Strength = s }
}

// WithBidirectionalConnection makes the connection bidirectional.
func WithBidirectionalConnection() func(o *ConnectOptions) {
	return func(o *ConnectOptions) { o.Bidirectional = true }
}

// WithConnectionProperties sets free-form connection data.
func WithConnectionProperties(p model.Properties) func(o *ConnectOptions) {
	return func(o *ConnectOptions) { o.Properties = p }
}

// ConnectReferences creates a typed connection between two tracked
// references. Re-connecting an identical (source, target, kind) triple
// returns the existing connection record.
func (m *Manager) ConnectReferences(ctx context.Context, mapID string, source, target uint64, kind model.RelationKind, optFns ...func(o *ConnectOptions)) (*model.SpatialConnection, error) {
	start := time.Now()
	conn, err := m.connectReferences(mapID, source, target, kind, optFns)
	duration := time.Since(start)
	m.metrics.RecordConnect(duration, err)
	m.logger.LogConnect(ctx, mapID, source, target, err)
	return conn, err
}

func (m *Manager) connectReferences(mapID string, source, target uint64, kind model.RelationKind, optFns []func(o *ConnectOptions)) (*model.SpatialConnection, error) {
	opts := ConnectOptions{Strength: 1}
	for _, fn := range optFns {
		fn(&opts)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ms, err := m.mapState(mapID)
	if err != nil {
		return nil, err
	}

	for _, c := range ms.connections {
		if c.Source == source && c.Target == target && c.Kind == kind {
			return c.Clone(), nil
		}
	}

	linkOpts := []func(o *tracker.LinkOptions){tracker.WithStrength(opts.Strength)}
	if opts.Bidirectional {
		linkOpts = append(linkOpts, tracker.WithBidirectional())
	}
	if opts.Properties != nil {
		linkOpts = append(linkOpts, tracker.WithEdgeProperties(opts.Properties))
	}
	linked, err := ms.tracker.Link(source, target, kind, linkOpts...)
	if err != nil {
		return nil, translateError(err)
	}
	if !linked {
		return nil, fmt.Errorf("%w: references %d, %d", ErrNotFound, source, target)
	}

	conn := &model.SpatialConnection{
		ID:            uuid.NewString(),
		Source:        source,
		Target:        target,
		Kind:          kind,
		Bidirectional: opts.Bidirectional,
		Strength:      opts.Strength,
		Properties:    opts.Properties.Clone(),
		CreatedAt:     m.clock(),
	}
	ms.connections[conn.ID] = conn
	return conn.Clone(), nil
}

// DisconnectReferences removes the connection and every other connection
// between the same pair: tracker edges are keyed by (source, target) on
// removal, so all kinds between the pair go together. Returns false if the
// connection id was absent.
func (m *Manager) DisconnectReferences(ctx context.Context, mapID string, connectionID string) (bool, error) {
	start := time.Now()
	removed, err := m.disconnectReferences(mapID, connectionID)
	duration := time.Since(start)
	m.metrics.RecordConnect(duration, err)
	return removed, err
}

func (m *Manager) disconnectReferences(mapID string, connectionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, err := m.mapState(mapID)
	if err != nil {
		return false, err
	}

	c, ok := ms.connections[connectionID]
	if !ok {
		return false, nil
	}

	ms.tracker.Unlink(c.Source, c.Target)
	for id, rec := range ms.connections {
		if rec.Source == c.Source && rec.Target == c.Target {
			delete(ms.connections, id)
		}
		// Bidirectional reverse records lose their tracker twin too.
		if rec.Bidirectional && rec.Source == c.Target && rec.Target == c.Source {
			delete(ms.connections, id)
		}
	}
	return true, nil
}

// AddRegion registers a named sub-volume on the map. A missing id is
// assigned; reference membership is taken as given.
func (m *Manager) AddRegion(ctx context.Context, mapID string, region model.SpatialRegion) (*model.SpatialRegion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, err := m.mapState(mapID)
	if err != nil {
		return nil, err
	}

	r := region.Clone()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	ms.regions[r.ID] = r
	return r.Clone(), nil
}

// FindReferencesNearPosition returns every reference within radius of pos.
// Accepts the tracker's find options (sorting, type filter, active-only).
func (m *Manager) FindReferencesNearPosition(ctx context.Context, mapID string, pos model.SpatialVector, radius float64, optFns ...func(o *tracker.FindOptions)) ([]*model.SpatialReference, error) {
	start := time.Now()
	refs, err := m.findNear(mapID, pos, radius, optFns)
	duration := time.Since(start)
	m.metrics.RecordQuery(len(refs), duration, err)
	m.logger.LogQuery(ctx, mapID, radius, len(refs), err)
	return refs, err
}

func (m *Manager) findNear(mapID string, pos model.SpatialVector, radius float64, optFns []func(o *tracker.FindOptions)) ([]*model.SpatialReference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, err := m.mapState(mapID)
	if err != nil {
		return nil, err
	}
	refs, err := ms.tracker.FindNear(pos, radius, optFns...)
	return refs, translateError(err)
}

// GetConnectionsForReference returns every connection where the reference is
// an endpoint, optionally filtered to the given kinds. Ordered by connection
// id for determinism.
func (m *Manager) GetConnectionsForReference(ctx context.Context, mapID string, refID uint64, kinds ...model.RelationKind) ([]*model.SpatialConnection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, err := m.mapState(mapID)
	if err != nil {
		return nil, err
	}

	var out []*model.SpatialConnection
	for _, c := range ms.connections {
		if c.Source != refID && c.Target != refID {
			continue
		}
		if len(kinds) > 0 && !kindIn(c.Kind, kinds) {
			continue
		}
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func kindIn(k model.RelationKind, kinds []model.RelationKind) bool {
	for _, c := range kinds {
		if c == k {
			return true
		}
	}
	return false
}

// ValidateSpatialCoherence runs all coherence passes over the map's current
// snapshot. Issues are returned as data, never raised.
func (m *Manager) ValidateSpatialCoherence(ctx context.Context, mapID string) (*coherence.Report, error) {
	start := time.Now()
	report, err := m.validate(ctx, mapID)
	duration := time.Since(start)
	issues := 0
	score := 0.0
	if report != nil {
		issues = len(report.Issues)
		score = report.Score
	}
	m.metrics.RecordValidate(issues, duration, err)
	m.logger.LogValidate(ctx, mapID, issues, score, err)
	return report, err
}

func (m *Manager) validate(ctx context.Context, mapID string) (*coherence.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, err := m.mapState(mapID)
	if err != nil {
		return nil, err
	}
	return m.validator.ValidateAll(ctx, m.buildSnapshot(ms))
}

// OptimizeSpatialLayout applies the validator's repositioning
// recommendations through the tracker. Returns whether anything moved.
func (m *Manager) OptimizeSpatialLayout(ctx context.Context, mapID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, err := m.mapState(mapID)
	if err != nil {
		return false, err
	}

	report, err := m.validator.ValidateAll(ctx, m.buildSnapshot(ms))
	if err != nil {
		return false, err
	}

	moved := 0
	for _, c := range report.Recommendations {
		if ms.tracker.UpdatePosition(c.Reference, c.To) {
			moved++
		}
	}
	m.logger.LogOptimize(ctx, mapID, moved, nil)
	return moved > 0, nil
}

// SubscribeSpatialEvents registers an observer on the map's tracker and
// returns an unsubscribe func. Delivery follows the tracker's protocol:
// synchronous, subscription order, after commit.
func (m *Manager) SubscribeSpatialEvents(mapID string, fn tracker.Handler) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, err := m.mapState(mapID)
	if err != nil {
		return nil, err
	}
	return ms.tracker.Subscribe(fn), nil
}

// MapStats returns the tracker's live counters for the map.
func (m *Manager) MapStats(mapID string) (tracker.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, err := m.mapState(mapID)
	if err != nil {
		return tracker.Stats{}, err
	}
	return ms.tracker.Stats(), nil
}

// ExportMap writes the map's snapshot to w in the self-describing snapshot
// stream format. Where the bytes go is the caller's concern.
func (m *Manager) ExportMap(ctx context.Context, mapID string, w io.Writer, optFns ...func(o *snapshot.Options)) error {
	m.mu.Lock()
	sm, err := func() (*model.SpatialMap, error) {
		ms, err := m.mapState(mapID)
		if err != nil {
			return nil, err
		}
		return m.buildMap(ms), nil
	}()
	m.mu.Unlock()
	if err != nil {
		return err
	}

	err = snapshot.Write(w, sm, optFns...)
	m.logger.LogSnapshot(ctx, mapID, "export", err)
	return err
}

// ImportMap reads a snapshot stream and registers it as a live map under its
// recorded id. Reference ids are preserved (the builder's id counter is
// advanced past them); creation timestamps are refreshed on import.
func (m *Manager) ImportMap(ctx context.Context, r io.Reader) (*model.SpatialMap, error) {
	sm, err := snapshot.Read(r)
	if err != nil {
		m.logger.LogSnapshot(ctx, "", "import", err)
		return nil, err
	}
	if sm.ID == "" {
		sm.ID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.maps[sm.ID]; exists {
		return nil, fmt.Errorf("map %s already exists", sm.ID)
	}

	ms := &mapState{
		id:          sm.ID,
		topic:       sm.Topic,
		sessionID:   sm.SessionID,
		complexity:  sm.ComplexityLevel,
		context:     sm.Context,
		tracker:     tracker.New(func(o *tracker.Options) { o.Clock = m.clock }),
		connections: make(map[string]*model.SpatialConnection),
		regions:     make(map[string]*model.SpatialRegion),
	}

	ids := make([]uint64, 0, len(sm.References))
	for id := range sm.References {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		reference.Advance(id)
		if _, err := ms.tracker.Track(sm.References[id]); err != nil {
			return nil, translateError(err)
		}
	}

	for _, c := range sm.Connections {
		linkOpts := []func(o *tracker.LinkOptions){tracker.WithStrength(c.Strength)}
		if c.Bidirectional {
			linkOpts = append(linkOpts, tracker.WithBidirectional())
		}
		if c.Properties != nil {
			linkOpts = append(linkOpts, tracker.WithEdgeProperties(c.Properties))
		}
		linked, err := ms.tracker.Link(c.Source, c.Target, c.Kind, linkOpts...)
		if err != nil {
			return nil, translateError(err)
		}
		if !linked {
			// Dangling endpoints in the stream are dropped, not fatal;
			// the validator reports them if the caller cares.
			continue
		}
		ms.connections[c.ID] = c.Clone()
	}
	for _, reg := range sm.Regions {
		ms.regions[reg.ID] = reg.Clone()
	}

	m.maps[ms.id] = ms
	m.logger.LogSnapshot(ctx, ms.id, "import", nil)
	return m.buildMap(ms), nil
}

// mapState resolves a map id under the manager lock.
func (m *Manager) mapState(mapID string) (*mapState, error) {
	ms, ok := m.maps[mapID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMapNotFound, mapID)
	}
	return ms, nil
}

// buildSnapshot assembles the raw aggregate the validator consumes, without
// derived metadata. Everything is deep-copied.
func (m *Manager) buildSnapshot(ms *mapState) *model.SpatialMap {
	sm := &model.SpatialMap{
		ID:              ms.id,
		Topic:           ms.topic,
		SessionID:       ms.sessionID,
		ComplexityLevel: ms.complexity,
		References:      make(map[uint64]*model.SpatialReference),
		Connections:     make(map[string]*model.SpatialConnection, len(ms.connections)),
		Regions:         make(map[string]*model.SpatialRegion, len(ms.regions)),
	}
	for _, ref := range ms.tracker.All() {
		sm.References[ref.ID] = ref
	}
	for id, c := range ms.connections {
		sm.Connections[id] = c.Clone()
	}
	for id, r := range ms.regions {
		sm.Regions[id] = r.Clone()
	}
	if ms.context != nil {
		sm.Context = make(map[string]string, len(ms.context))
		for k, v := range ms.context {
			sm.Context[k] = v
		}
	}
	return sm
}

// buildMap is buildSnapshot plus on-demand derived metadata.
func (m *Manager) buildMap(ms *mapState) *model.SpatialMap {
	sm := m.buildSnapshot(ms)

	merged := &coherence.Report{Valid: true}
	for _, r := range []*coherence.Report{
		m.validator.ValidateReferences(sm),
		m.validator.ValidateConnections(sm),
		m.validator.ValidateLinguisticRules(sm),
	} {
		merged.Issues = append(merged.Issues, r.Issues...)
	}

	sm.Metadata = model.MapMetadata{
		ReferenceCount:  len(sm.References),
		ConnectionCount: len(sm.Connections),
		RegionCount:     len(sm.Regions),
		CoherenceScore:  m.validator.Score(merged),
		GeneratedAt:     m.clock(),
	}
	return sm
}
