package analysis

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"interestingness/domain/core"
)

// BuildFunc constructs a fresh, empty variant instance with the given
// binding attached.
type BuildFunc func(b Binding) Analysis

// DecodeFunc rebuilds a variant instance, derived structures included, from
// a state document previously produced by EncodeState. The returned
// instance is unbound.
type DecodeFunc func(state json.RawMessage) (Analysis, error)

type registration struct {
	schema int
	build  BuildFunc
	decode DecodeFunc
}

var registry = struct {
	mu    sync.RWMutex
	kinds map[Kind]registration
}{kinds: make(map[Kind]registration)}

// RegisterKind makes an analysis variant decodable and constructible by
// kind. Variants call it from an init function. It panics when the kind is
// already registered or either function is nil, since both indicate a
// programming error.
func RegisterKind(kind Kind, schema int, build BuildFunc, decode DecodeFunc) {
	if build == nil || decode == nil {
		panic(fmt.Sprintf("analysis: RegisterKind %q with nil function", kind))
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, dup := registry.kinds[kind]; dup {
		panic(fmt.Sprintf("analysis: RegisterKind called twice for kind %q", kind))
	}
	registry.kinds[kind] = registration{schema: schema, build: build, decode: decode}
}

// RegisteredKinds returns every registered kind in lexicographic order.
func RegisteredKinds() []Kind {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	kinds := make([]Kind, 0, len(registry.kinds))
	for kind := range registry.kinds {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// SchemaVersion returns the registered schema version for a kind.
func SchemaVersion(kind Kind) (int, bool) {
	reg, ok := lookup(kind)
	return reg.schema, ok
}

// Build constructs a fresh instance of the given kind bound to b. It fails
// with core.ErrUnknownKind for unregistered kinds.
func Build(kind Kind, b Binding) (Analysis, error) {
	reg, ok := lookup(kind)
	if !ok {
		return nil, core.NewUnknownKindError(kind.String())
	}
	return reg.build(b), nil
}

// BuildAll constructs one fresh instance of every registered kind bound to
// b, ordered by kind.
func BuildAll(b Binding) []Analysis {
	kinds := RegisteredKinds()
	out := make([]Analysis, 0, len(kinds))
	for _, kind := range kinds {
		reg, _ := lookup(kind)
		out = append(out, reg.build(b))
	}
	return out
}

func lookup(kind Kind) (registration, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	reg, ok := registry.kinds[kind]
	return reg, ok
}
