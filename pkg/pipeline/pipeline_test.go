package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/ir"
)

func buildGraph(t *testing.T) *ir.Graph {
	b := ir.NewBuilder()
	b.AddNode(ir.PendingNode{
		Key: "demo", Type: "repo",
		Attrs: ir.Attrs{{Key: "b", Value: canonicaljson.Str("2")}, {Key: "a", Value: canonicaljson.Str("1")}},
	})
	g, err := b.Build(ir.DefaultIDStrategy{})
	require.NoError(t, err)
	return g
}

func TestRunExecutesStagesSequentiallyAndRecordsDiagnostics(t *testing.T) {
	ctx := NewContext(Clock{NowISO8601: "1970-01-01T00:00:00Z"})
	ctx.Params["kind"] = "repo"
	ctx.JSONParams["meta"] = canonicaljson.Object(
		canonicaljson.Member{Key: "name", Value: canonicaljson.Str("demo")},
		canonicaljson.Member{Key: "createdAt", Value: canonicaljson.Str(ctx.Clock.NowISO8601)},
		canonicaljson.Member{Key: "source", Value: canonicaljson.Str("repo")},
		canonicaljson.Member{Key: "normalization", Value: canonicaljson.Str("none")},
	)

	out, err := Run(ctx, []Stage{ValidateIrStage, NormalizeIrStage, EmitSchemaV1Stage}, IRData(buildGraph(t)))
	require.NoError(t, err)

	schema, ok := out.AsSchema()
	require.True(t, ok)
	require.Equal(t, "repo", schema.Kind)
	require.Len(t, schema.Entities, 1)
	require.Equal(t, "a", schema.Entities[0].Attrs.Members()[0].Key)

	var starts, ends int
	for _, d := range ctx.Diagnostics {
		switch d.Code {
		case "pipeline.stage.start":
			starts++
		case "pipeline.stage.end":
			ends++
		}
	}
	require.Equal(t, 3, starts)
	require.Equal(t, 3, ends)
}

func TestRunAbortsOnFirstErrorButKeepsDiagnostics(t *testing.T) {
	ctx := NewContext(Clock{NowISO8601: "1970-01-01T00:00:00Z"})
	failing := StageFunc{StageName: "Boom", Fn: func(ctx *Context, in PipelineData) (PipelineData, error) {
		return in, errs.New(errs.KindInvalidArgument, "test.boom", "boom")
	}}
	_, err := Run(ctx, []Stage{ValidateIrStage, failing, NormalizeIrStage}, IRData(buildGraph(t)))
	require.Error(t, err)

	var sawBoomStart, sawNormalizeStart bool
	for _, d := range ctx.Diagnostics {
		if d.Code == "pipeline.stage.start" && d.Message == "Boom" {
			sawBoomStart = true
		}
		if d.Code == "pipeline.stage.start" && d.Message == "NormalizeIr" {
			sawNormalizeStart = true
		}
	}
	require.True(t, sawBoomStart)
	require.False(t, sawNormalizeStart)
}

func TestBuildProofV1StageProducesSortedLeaves(t *testing.T) {
	ctx := NewContext(Clock{NowISO8601: "1970-01-01T00:00:00Z"})
	ctx.Params["schema_hash"] = "s"
	ctx.Params["manifest_hash"] = "m"
	ctx.Params["created_at"] = "1970-01-01T00:00:00Z"
	ctx.Params["kind"] = "repo"

	out, err := BuildProofV1Stage.Run(ctx, NoneData())
	require.NoError(t, err)
	proof, ok := out.AsProof()
	require.True(t, ok)
	require.Len(t, proof.Leaves, 4)
	for i := 1; i < len(proof.Leaves); i++ {
		require.Less(t, proof.Leaves[i-1].Key, proof.Leaves[i].Key)
	}
}
