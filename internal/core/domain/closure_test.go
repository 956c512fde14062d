package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockstep/internal/core/domain"
)

func TestDependencyClosure_Packages(t *testing.T) {
	c := &domain.DependencyClosure{
		Requested: domain.Dependency{Name: "lib-x", Range: "^1.0"},
		Resolved:  domain.NewResolvedPackage("lib-x", "1.2.0"),
		Transitive: []domain.ResolvedPackage{
			domain.NewResolvedPackage("lib-z", "0.1.0"),
			domain.NewResolvedPackage("lib-y", "2.0.3"),
		},
	}

	assert.Equal(t, []domain.ResolvedPackage{
		domain.NewResolvedPackage("lib-x", "1.2.0"),
		domain.NewResolvedPackage("lib-y", "2.0.3"),
		domain.NewResolvedPackage("lib-z", "0.1.0"),
	}, c.Packages())
}

func TestModuleClosure_Sorted(t *testing.T) {
	mc := &domain.ModuleClosure{
		Module: "app",
		Dependencies: map[string]*domain.DependencyClosure{
			"zod":   {Requested: domain.Dependency{Name: "zod"}},
			"axios": {Requested: domain.Dependency{Name: "axios"}},
		},
	}

	sorted := mc.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, "axios", sorted[0].Requested.Name)
	assert.Equal(t, "zod", sorted[1].Requested.Name)
}

func TestResolvedPackage_String(t *testing.T) {
	assert.Equal(t, "@types/node@20.1.0", domain.NewResolvedPackage("@types/node", "20.1.0").String())
}
