package domain

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"

	"go.trai.ch/zerr"
)

// RootManifest is the single package.json submitted to the external resolver.
type RootManifest struct {
	Name       string
	Version    string
	Private    bool
	Workspaces []string
	// Dependencies are root-level constraints. Module constraints stay in the member manifests.
	Dependencies map[string]string
	// Extensions are arbitrary extra top-level fields injected by mutators.
	Extensions map[string]any
}

// ManifestMutator modifies the root manifest before it is serialized.
type ManifestMutator func(m *RootManifest)

// NewRootManifest creates a private root manifest for the given identity.
func NewRootManifest(id RootIdentity) *RootManifest {
	return &RootManifest{
		Name:       id.Name,
		Version:    id.Version,
		Private:    true,
		Workspaces: []string{},
	}
}

// SetExtension sets an extra top-level field.
func (m *RootManifest) SetExtension(key string, value any) {
	if m.Extensions == nil {
		m.Extensions = make(map[string]any)
	}
	m.Extensions[key] = value
}

// AddDependency adds a root-level dependency constraint.
func (m *RootManifest) AddDependency(name, rng string) {
	if m.Dependencies == nil {
		m.Dependencies = make(map[string]string)
	}
	m.Dependencies[name] = rng
}

var reservedManifestFields = map[string]struct{}{
	"name":         {},
	"version":      {},
	"private":      {},
	"workspaces":   {},
	"dependencies": {},
}

// Encode serializes the manifest deterministically: known fields first in a fixed order,
// then extensions sorted by key, two-space indented with a trailing newline.
func (m *RootManifest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	n := 0
	write := func(key string, value any) error {
		encoded, err := encodeValue(value)
		if err != nil {
			return zerr.With(zerr.Wrap(err, ErrManifestWrite.Error()), "field", key)
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		k, _ := encodeValue(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(encoded)
		return nil
	}

	if err := write("name", m.Name); err != nil {
		return nil, err
	}
	if err := write("version", m.Version); err != nil {
		return nil, err
	}
	if err := write("private", m.Private); err != nil {
		return nil, err
	}
	workspaces := m.Workspaces
	if workspaces == nil {
		workspaces = []string{}
	}
	if err := write("workspaces", workspaces); err != nil {
		return nil, err
	}
	if len(m.Dependencies) > 0 {
		if err := write("dependencies", m.Dependencies); err != nil {
			return nil, err
		}
	}

	for _, key := range slices.Sorted(maps.Keys(m.Extensions)) {
		if _, reserved := reservedManifestFields[key]; reserved {
			return nil, zerr.With(ErrReservedManifestField, "field", key)
		}
		if err := write(key, m.Extensions[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, zerr.Wrap(err, ErrManifestWrite.Error())
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// encodeValue marshals without HTML escaping so ranges like ">=1.0" stay readable.
func encodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
