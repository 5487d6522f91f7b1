package inference

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/ir"
)

func TestIdentityReturnsGraphUnchanged(t *testing.T) {
	g := ir.NewGraph()
	require.NoError(t, g.AddNode(ir.Node{ID: "n1", Key: "a", Type: "file"}))

	out, err := (Identity{}).Apply(g)
	require.NoError(t, err)
	require.Same(t, g, out)
}

func buildGraph(t *testing.T) *ir.Graph {
	t.Helper()
	g := ir.NewGraph()
	require.NoError(t, g.AddNode(ir.Node{
		ID: "n2", Key: "bbb", Type: "file",
		Attrs: ir.Attrs{{Key: "size", Value: canonicaljson.Int(10)}},
	}))
	require.NoError(t, g.AddNode(ir.Node{
		ID: "n1", Key: "aaa", Type: "file",
		Attrs: ir.Attrs{{Key: "size", Value: canonicaljson.Int(20)}},
	}))
	return g
}

func TestCELRuleSetDerivesAttributeFromTypeAndKey(t *testing.T) {
	rs, err := NewCELRuleSet(map[string]string{
		"label": `type + ":" + key`,
	})
	require.NoError(t, err)

	g := buildGraph(t)
	out, err := rs.Apply(g)
	require.NoError(t, err)

	nodes := out.Nodes()
	require.Len(t, nodes, 2)
	require.Equal(t, "aaa", nodes[0].Key)
	v, ok := nodes[0].Attrs.Get("label")
	require.True(t, ok)
	require.Equal(t, "file:aaa", v.String())

	v, ok = nodes[1].Attrs.Get("label")
	require.True(t, ok)
	require.Equal(t, "file:bbb", v.String())
}

func TestCELRuleSetCanReadExistingAttrs(t *testing.T) {
	rs, err := NewCELRuleSet(map[string]string{
		"doubled": `attrs["size"] * 2`,
	})
	require.NoError(t, err)

	g := buildGraph(t)
	out, err := rs.Apply(g)
	require.NoError(t, err)

	n, ok := out.Node("n1")
	require.True(t, ok)
	v, ok := n.Attrs.Get("doubled")
	require.True(t, ok)
	require.Equal(t, int64(40), v.Int())
}

func TestCELRuleSetEvaluationIsDeterministicAcrossInsertionOrder(t *testing.T) {
	rs, err := NewCELRuleSet(map[string]string{
		"label": `type + ":" + key`,
	})
	require.NoError(t, err)

	g1 := ir.NewGraph()
	require.NoError(t, g1.AddNode(ir.Node{ID: "n1", Key: "aaa", Type: "file"}))
	require.NoError(t, g1.AddNode(ir.Node{ID: "n2", Key: "bbb", Type: "file"}))

	g2 := ir.NewGraph()
	require.NoError(t, g2.AddNode(ir.Node{ID: "n2", Key: "bbb", Type: "file"}))
	require.NoError(t, g2.AddNode(ir.Node{ID: "n1", Key: "aaa", Type: "file"}))

	out1, err := rs.Apply(g1)
	require.NoError(t, err)
	out2, err := rs.Apply(g2)
	require.NoError(t, err)

	require.Equal(t, out1.Nodes(), out2.Nodes())
}

func TestNewCELRuleSetRejectsBadExpression(t *testing.T) {
	_, err := NewCELRuleSet(map[string]string{
		"broken": `type +`,
	})
	require.Error(t, err)
}
