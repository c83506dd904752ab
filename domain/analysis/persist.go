package analysis

import (
	"encoding/json"
	"fmt"
	"os"

	"interestingness/domain/core"
)

// envelope is the persistent form of an analysis: the variant kind, its
// schema version, and the variant-specific state document.
type envelope struct {
	Kind   Kind            `json:"kind"`
	Schema int             `json:"schema"`
	State  json.RawMessage `json:"state"`
}

// Encode serializes an analysis into its snapshot envelope: pretty-printed
// JSON with four-space indentation and keys sorted at every level. The live
// instance is never modified.
func Encode(a Analysis) ([]byte, error) {
	schema, ok := SchemaVersion(a.Kind())
	if !ok {
		return nil, core.NewUnknownKindError(a.Kind().String())
	}
	state, err := a.EncodeState()
	if err != nil {
		return nil, fmt.Errorf("encode %s state: %w", a.Kind(), err)
	}
	// Round-trip the state through generic maps so MarshalIndent emits
	// sorted keys at every nesting level.
	var generic interface{}
	if err := json.Unmarshal(state, &generic); err != nil {
		return nil, fmt.Errorf("encode %s state: %w", a.Kind(), err)
	}
	doc := map[string]interface{}{
		"kind":   a.Kind().String(),
		"schema": schema,
		"state":  generic,
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode rebuilds an analysis from a snapshot envelope. The returned
// instance holds fully reconstructed findings but no binding. Unregistered
// kinds fail with core.ErrUnknownKind; malformed envelopes, schema version
// mismatches and variant decode failures with core.ErrCorruptSnapshot.
func Decode(data []byte) (Analysis, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, core.NewCorruptSnapshotError("malformed envelope", err)
	}
	if env.Kind == "" {
		return nil, core.NewCorruptSnapshotError("envelope missing kind", nil)
	}
	reg, ok := lookup(env.Kind)
	if !ok {
		return nil, core.NewUnknownKindError(env.Kind.String())
	}
	if env.Schema != reg.schema {
		detail := fmt.Sprintf("kind %s schema %d, decoder expects %d", env.Kind, env.Schema, reg.schema)
		return nil, core.NewCorruptSnapshotError(detail, nil)
	}
	a, err := reg.decode(env.State)
	if err != nil {
		return nil, core.NewCorruptSnapshotError(fmt.Sprintf("decode %s state", env.Kind), err)
	}
	return a, nil
}

// SaveJSON writes the analysis snapshot to path, replacing any existing
// file. Encoding happens entirely before the file is touched: an encode
// failure leaves any existing file unchanged, and the live instance is
// never modified either way.
func SaveJSON(a Analysis, path string) error {
	data, err := Encode(a)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadJSON reads a snapshot file and rebuilds the analysis it holds. The
// returned instance is unbound.
func LoadJSON(path string) (Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Fingerprint returns the content hash of the analysis snapshot, usable to
// detect identical findings across runs.
func Fingerprint(a Analysis) (core.Hash, error) {
	data, err := Encode(a)
	if err != nil {
		return "", err
	}
	return core.NewHash(data), nil
}
