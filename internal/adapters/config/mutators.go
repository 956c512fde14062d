package config

import (
	"maps"
	"slices"

	"go.trai.ch/lockstep/internal/core/domain"
)

// buildMutators turns the root manifest fields of the workfile into ordered mutators.
func buildMutators(wf *Workfile) []domain.ManifestMutator {
	var mutators []domain.ManifestMutator

	if len(wf.Dependencies) > 0 {
		deps := maps.Clone(wf.Dependencies)
		mutators = append(mutators, func(m *domain.RootManifest) {
			for _, name := range slices.Sorted(maps.Keys(deps)) {
				m.AddDependency(name, deps[name])
			}
		})
	}
	if len(wf.Scripts) > 0 {
		mutators = append(mutators, SetField("scripts", maps.Clone(wf.Scripts)))
	}
	if len(wf.Resolutions) > 0 {
		mutators = append(mutators, SetField("resolutions", maps.Clone(wf.Resolutions)))
	}
	for _, key := range slices.Sorted(maps.Keys(wf.Extra)) {
		mutators = append(mutators, SetField(key, wf.Extra[key]))
	}

	return mutators
}

// SetField returns a mutator that sets an extra top-level manifest field.
func SetField(key string, value any) domain.ManifestMutator {
	return func(m *domain.RootManifest) {
		m.SetExtension(key, value)
	}
}
