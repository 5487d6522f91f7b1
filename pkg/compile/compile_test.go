package compile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/model"
	"github.com/signia-project/signia/pkg/plugin"
	"github.com/signia-project/signia/pkg/plugin/repoplugin"
	"github.com/signia-project/signia/pkg/plugin/workflowplugin"
)

func mustParse(t *testing.T, s string) canonicaljson.Value {
	t.Helper()
	v, err := canonicaljson.Parse([]byte(s), canonicaljson.DefaultMaxDepth)
	require.NoError(t, err)
	return v
}

// TestCompileEmptyRepo implements S1: an empty repo compiles to a single
// repo entity and a proof with the four fixed leaves in sorted key order,
// one of them committing to the fixed epoch timestamp.
func TestCompileEmptyRepo(t *testing.T) {
	input := mustParse(t, `{"name":"demo","files":[]}`)
	pctx := plugin.Context{NowISO8601: "1970-01-01T00:00:00Z"}
	g, err := repoplugin.New().Build(pctx, input)
	require.NoError(t, err)

	o := NewOrchestrator()
	req := Request{
		Kind:       "repo",
		Meta:       canonicaljson.Object(),
		CreatedAt:  "1970-01-01T00:00:00Z",
		Limits:     model.Limits{Network: "deny"},
		BuildProof: true,
	}
	report, err := o.Compile(g, req, "demo")
	require.NoError(t, err)

	require.Len(t, report.Schema.Entities, 1)
	require.Equal(t, "repo", report.Schema.Entities[0].Type)
	require.Equal(t, "demo", report.Schema.Entities[0].Name)
	require.Empty(t, report.Schema.Edges)

	require.NotNil(t, report.Proof)
	require.Len(t, report.Proof.Leaves, 4)
	wantOrder := []string{"digest:manifestHash", "digest:schemaHash", "meta:createdAt", "meta:kind"}
	for i, l := range report.Proof.Leaves {
		require.Equal(t, wantOrder[i], l.Key)
	}
	createdAtLeaf := report.Proof.Leaves[2]
	require.Equal(t, "meta:createdAt", createdAtLeaf.Key)
}

// TestCompileTwoFileRepoIsPathOrderIndependent implements S2: reversing the
// input files array produces byte-identical schema output, with entities
// emitted as repo, file(a.txt), file(b.txt).
func TestCompileTwoFileRepoIsPathOrderIndependent(t *testing.T) {
	inputA := mustParse(t, `{"name":"demo","files":[
		{"path":"b.txt","size":1,"sha256":"`+zeroHash()+`"},
		{"path":"a.txt","size":1,"sha256":"`+zeroHash()+`"}
	]}`)
	inputB := mustParse(t, `{"name":"demo","files":[
		{"path":"a.txt","size":1,"sha256":"`+zeroHash()+`"},
		{"path":"b.txt","size":1,"sha256":"`+zeroHash()+`"}
	]}`)

	pctx := plugin.Context{}
	gA, err := repoplugin.New().Build(pctx, inputA)
	require.NoError(t, err)
	gB, err := repoplugin.New().Build(pctx, inputB)
	require.NoError(t, err)

	req := Request{Kind: "repo", Meta: canonicaljson.Object(), CreatedAt: "1970-01-01T00:00:00Z"}
	o := NewOrchestrator()
	reportA, err := o.Compile(gA, req, "demo")
	require.NoError(t, err)
	reportB, err := o.Compile(gB, req, "demo")
	require.NoError(t, err)

	bytesA, err := reportA.Schema.CanonicalBytes()
	require.NoError(t, err)
	bytesB, err := reportB.Schema.CanonicalBytes()
	require.NoError(t, err)
	require.Equal(t, bytesA, bytesB)

	require.Equal(t, "repo", reportA.Schema.Entities[0].Type)
	require.Equal(t, "file", reportA.Schema.Entities[1].Type)
	require.Equal(t, "file:a.txt", reportA.Schema.Entities[1].Key)
	require.Equal(t, "file", reportA.Schema.Entities[2].Type)
	require.Equal(t, "file:b.txt", reportA.Schema.Entities[2].Key)
}

// TestCompileIsIdempotent exercises property 6: compiling the same input
// twice produces byte-identical schema, manifest, and proof.
func TestCompileIsIdempotent(t *testing.T) {
	input := mustParse(t, `{"name":"demo","files":[{"path":"a.txt","size":3,"sha256":"`+zeroHash()+`"}]}`)
	pctx := plugin.Context{}
	req := Request{Kind: "repo", Meta: canonicaljson.Object(), CreatedAt: "1970-01-01T00:00:00Z", BuildProof: true}

	g1, err := repoplugin.New().Build(pctx, input)
	require.NoError(t, err)
	g2, err := repoplugin.New().Build(pctx, input)
	require.NoError(t, err)

	o := NewOrchestrator()
	r1, err := o.Compile(g1, req, "demo")
	require.NoError(t, err)
	r2, err := o.Compile(g2, req, "demo")
	require.NoError(t, err)

	b1, err := r1.Schema.CanonicalBytes()
	require.NoError(t, err)
	b2, err := r2.Schema.CanonicalBytes()
	require.NoError(t, err)
	require.Equal(t, b1, b2)
	require.Equal(t, r1.Proof.Root, r2.Proof.Root)
}

// TestCompileWorkflowSucceeds is S4's first half: a two-node, single data
// edge workflow compiles cleanly.
func TestCompileWorkflowSucceeds(t *testing.T) {
	input := mustParse(t, `{"name":"wf","nodes":[{"id":"a","type":"task"},{"id":"b","type":"task"}],"edges":[{"from":"a","to":"b","kind":"data"}]}`)
	g, err := workflowplugin.New().Build(plugin.Context{}, input)
	require.NoError(t, err)

	o := NewOrchestrator()
	req := Request{Kind: "workflow", Meta: canonicaljson.Object(), CreatedAt: "1970-01-01T00:00:00Z"}
	report, err := o.Compile(g, req, "wf")
	require.NoError(t, err)
	require.Len(t, report.Schema.Entities, 2)
	require.Len(t, report.Schema.Edges, 1)
}

// TestCompileEnforcesMaxNodes exercises §4.H step 1's resource cap.
func TestCompileEnforcesMaxNodes(t *testing.T) {
	input := mustParse(t, `{"name":"demo","files":[{"path":"a.txt","size":1},{"path":"b.txt","size":1}]}`)
	g, err := repoplugin.New().Build(plugin.Context{}, input)
	require.NoError(t, err)

	o := NewOrchestrator()
	req := Request{
		Kind:      "repo",
		Meta:      canonicaljson.Object(),
		CreatedAt: "1970-01-01T00:00:00Z",
		Limits:    model.Limits{MaxNodes: 1},
	}
	_, err = o.Compile(g, req, "demo")
	require.Error(t, err)
	var sErr *errs.Error
	require.ErrorAs(t, err, &sErr)
	require.Equal(t, errs.KindResourceLimit, sErr.Kind)
	require.Equal(t, "compile.limits.max_nodes", sErr.Code)
}

func zeroHash() string {
	return strings.Repeat("0", 64)
}
