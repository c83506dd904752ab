package analysis

import (
	"encoding/json"
	"io"

	"interestingness/domain/core"
	"interestingness/domain/history"
	"interestingness/domain/scenario"
)

// Kind identifies an analysis variant. Every variant registers exactly one
// kind, and snapshots carry it so they can be decoded polymorphically.
type Kind string

func (k Kind) String() string {
	return string(k)
}

// Agent exposes the recorded interaction history an analysis inspects.
type Agent interface {
	ID() core.AgentID
	RecordedHistory() *history.InteractionHistory
}

// Binding carries the runtime collaborators of an analysis. Bindings are
// never persisted: a decoded analysis starts unbound and must be re-bound
// before it can analyze again.
type Binding struct {
	Helper *scenario.Helper
	Agent  Agent
}

// Ready reports whether both collaborators are present.
func (b Binding) Ready() bool {
	return b.Helper != nil && b.Agent != nil
}

// Analysis is the contract every interestingness analysis variant satisfies.
//
// A variant holds its extracted findings as derived state over the agent's
// recorded history. Analyze populates that state, EncodeState projects the
// persistent part of it into a versioned schema, and the variant's
// registered decode function rebuilds a full instance (derived structures
// included) from such a projection. Instances are not safe for concurrent
// use; callers wanting parallelism run distinct instances.
type Analysis interface {
	// Kind returns the variant identifier.
	Kind() Kind

	// Analyze extracts the variant's findings from the bound agent's
	// recorded history, replacing any previous findings. It fails with
	// core.ErrNoBinding when the instance is unbound.
	Analyze() error

	// DifferenceTo returns a new instance, bound like the receiver,
	// holding the findings present in this analysis and missing from
	// other. Both operands are left unchanged. It fails with
	// core.ErrKindMismatch when other is a different variant.
	DifferenceTo(other Analysis) (Analysis, error)

	// SampleAspects returns the names of the elements whose sample sets
	// contain the exact sample, in lexicographic order.
	SampleAspects(s history.Sample) []string

	// ElementNames returns the names of all currently held elements in
	// lexicographic order.
	ElementNames() []string

	// Elements returns a deep copy of the currently held elements.
	Elements() Elements

	// Stats returns the variant's summary statistics keyed by metric name.
	Stats() map[string]interface{}

	// WriteReport writes the human-readable findings report to w.
	WriteReport(w io.Writer) error

	// WriteVisualReport writes the variant's visual artifacts into dir,
	// which must already exist.
	WriteVisualReport(dir string) error

	// EncodeState projects the persistent findings into the variant's
	// versioned schema. The live instance is never modified.
	EncodeState() (json.RawMessage, error)

	// Bind attaches runtime collaborators, replacing any previous binding.
	Bind(b Binding)
}
