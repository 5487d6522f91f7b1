package plugin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/ir"
)

type stubPlugin struct {
	id       string
	supports []Kind
	wants    Wants
}

func (s stubPlugin) ID() string      { return s.id }
func (s stubPlugin) Supports() []Kind { return s.supports }
func (s stubPlugin) Wants() Wants     { return s.wants }
func (s stubPlugin) Build(ctx Context, input canonicaljson.Value) (*ir.Graph, error) {
	return ir.NewGraph(), nil
}

func TestRegistryForKindUniqueMatch(t *testing.T) {
	r := NewRegistry(Wants{})
	require.NoError(t, r.Register(stubPlugin{id: "b.repo", supports: []Kind{KindRepo}}))
	p, err := r.ForKind(KindRepo)
	require.NoError(t, err)
	require.Equal(t, "b.repo", p.ID())
}

func TestRegistryForKindUnhandled(t *testing.T) {
	r := NewRegistry(Wants{})
	_, err := r.ForKind(KindDataset)
	require.Error(t, err)
}

func TestRegistryForKindAmbiguous(t *testing.T) {
	r := NewRegistry(Wants{})
	require.NoError(t, r.Register(stubPlugin{id: "a.repo", supports: []Kind{KindRepo}}))
	require.NoError(t, r.Register(stubPlugin{id: "b.repo", supports: []Kind{KindRepo}}))
	_, err := r.ForKind(KindRepo)
	require.Error(t, err)
}

func TestRegistryRefusesExcessiveWants(t *testing.T) {
	r := NewRegistry(Wants{})
	err := r.Register(stubPlugin{id: "net.repo", supports: []Kind{KindRepo}, wants: Wants{Network: true}})
	require.Error(t, err)
}

func TestRegistryIdsSortedLexicographic(t *testing.T) {
	r := NewRegistry(Wants{})
	require.NoError(t, r.Register(stubPlugin{id: "zebra", supports: []Kind{KindRepo}}))
	require.NoError(t, r.Register(stubPlugin{id: "alpha", supports: []Kind{KindDataset}}))
	require.Equal(t, []string{"alpha", "zebra"}, r.Ids())
}
