package coherence

import "github.com/lsfkit/signspace/model"

// Severity grades an issue. Only errors make a snapshot invalid; warnings
// are advisory and never block the operation that triggered validation.
type Severity string

const (
	// SeverityWarning marks an advisory issue.
	SeverityWarning Severity = "warning"
	// SeverityError marks a structural inconsistency.
	SeverityError Severity = "error"
)

// IssueCode identifies the rule an issue came from.
type IssueCode string

const (
	// CodeMalformedReference flags a reference with an invalid type, state,
	// or out-of-range weight.
	CodeMalformedReference IssueCode = "malformed_reference"
	// CodeOverlap flags bounding volumes intersecting beyond tolerance.
	CodeOverlap IssueCode = "overlap"
	// CodeOutOfBounds flags a position outside the signing space.
	CodeOutOfBounds IssueCode = "out_of_bounds"
	// CodeMissingEndpoint flags a connection to an id not in the snapshot.
	CodeMissingEndpoint IssueCode = "missing_endpoint"
	// CodeSelfLoop flags a connection from a reference to itself.
	CodeSelfLoop IssueCode = "self_loop"
	// CodeStrengthRange flags a connection strength outside [0,1].
	CodeStrengthRange IssueCode = "strength_range"
	// CodeDuplicateConnection flags two connection records for the same
	// (source, target, kind) triple.
	CodeDuplicateConnection IssueCode = "duplicate_connection"
	// CodeAsymmetricBidirectional flags a directed pair where only one
	// direction is marked bidirectional.
	CodeAsymmetricBidirectional IssueCode = "asymmetric_bidirectional"
	// CodeMissingAnchor flags a role-bearing reference whose implicit
	// anchor id is absent from the snapshot.
	CodeMissingAnchor IssueCode = "missing_anchor"
	// CodeAnchorTooFar flags a recipient placed beyond the anchor distance.
	CodeAnchorTooFar IssueCode = "anchor_too_far"
)

// Issue is one detected problem, returned as data and never raised.
type Issue struct {
	Code       IssueCode `json:"code"`
	Severity   Severity  `json:"severity"`
	Message    string    `json:"message"`
	References []uint64  `json:"references,omitempty"`
	Connection string    `json:"connection,omitempty"`
}

// Correction is a proposed replacement position. Corrections are returned as
// data; the validator never applies them.
type Correction struct {
	Reference uint64              `json:"reference"`
	From      model.SpatialVector `json:"from"`
	To        model.SpatialVector `json:"to"`
	Reason    IssueCode           `json:"reason"`
}

// Report is the result of one validation pass or of ValidateAll.
type Report struct {
	Valid           bool         `json:"valid"`
	Issues          []Issue      `json:"issues"`
	Recommendations []Correction `json:"recommendations,omitempty"`

	// Score is the derived coherence score in [0,1]; reporting only,
	// it has no enforcement role.
	Score float64 `json:"score"`
}

// Errors returns the number of error-severity issues.
func (r *Report) Errors() int { return r.count(SeverityError) }

// Warnings returns the number of warning-severity issues.
func (r *Report) Warnings() int { return r.count(SeverityWarning) }

func (r *Report) count(s Severity) int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == s {
			n++
		}
	}
	return n
}

func (r *Report) add(is Issue) {
	r.Issues = append(r.Issues, is)
	if is.Severity == SeverityError {
		r.Valid = false
	}
}

func newReport() *Report {
	return &Report{Valid: true, Issues: []Issue{}, Score: 1}
}
