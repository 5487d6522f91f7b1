package workflowplugin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/plugin"
)

func parse(t *testing.T, doc string) canonicaljson.Value {
	v, err := canonicaljson.Parse([]byte(doc), canonicaljson.DefaultMaxDepth)
	require.NoError(t, err)
	return v
}

// S4: two nodes a,b and edge a->b kind data succeeds.
func TestWorkflowValidationSucceeds(t *testing.T) {
	input := parse(t, `{"name":"wf","nodes":[{"id":"a","type":"t"},{"id":"b","type":"t"}],"edges":[{"from":"a","to":"b","kind":"data"}]}`)
	_, err := New().Build(plugin.Context{}, input)
	require.NoError(t, err)
}

// S4: duplicate node id => workflow.node.id.duplicate.
func TestWorkflowDuplicateNodeId(t *testing.T) {
	input := parse(t, `{"name":"wf","nodes":[{"id":"a","type":"t"},{"id":"a","type":"t"}],"edges":[]}`)
	_, err := New().Build(plugin.Context{}, input)
	require.Error(t, err)
	var sErr *errs.Error
	require.ErrorAs(t, err, &sErr)
	require.Equal(t, "workflow.node.id.duplicate", sErr.Code)
}

// S4: edge with kind:"x" => workflow.edge.kind.invalid.
func TestWorkflowInvalidEdgeKind(t *testing.T) {
	input := parse(t, `{"name":"wf","nodes":[{"id":"a","type":"t"},{"id":"b","type":"t"}],"edges":[{"from":"a","to":"b","kind":"x"}]}`)
	_, err := New().Build(plugin.Context{}, input)
	require.Error(t, err)
	var sErr *errs.Error
	require.ErrorAs(t, err, &sErr)
	require.Equal(t, "workflow.edge.kind.invalid", sErr.Code)
}

func TestWorkflowFingerprintStable(t *testing.T) {
	a := parse(t, `{"name":"wf","nodes":[{"id":"a","type":"t"},{"id":"b","type":"t"}],"edges":[{"from":"a","to":"b","kind":"data"}]}`)
	b := parse(t, `{"name":"wf","nodes":[{"id":"b","type":"t"},{"id":"a","type":"t"}],"edges":[{"from":"a","to":"b","kind":"data"}]}`)

	g1, err := New().Build(plugin.Context{}, a)
	require.NoError(t, err)
	g2, err := New().Build(plugin.Context{}, b)
	require.NoError(t, err)

	var d1, d2 []string
	for _, n := range g1.Nodes() {
		if n.Type == "workflow" {
			d1 = n.Digests
		}
	}
	for _, n := range g2.Nodes() {
		if n.Type == "workflow" {
			d2 = n.Digests
		}
	}
	require.Equal(t, d1, d2)
}
