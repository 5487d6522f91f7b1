package pipeline

import (
	"sort"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/hashing"
	"github.com/signia-project/signia/pkg/ir"
	"github.com/signia-project/signia/pkg/merkle"
	"github.com/signia-project/signia/pkg/model"
)

func hashHexOf(s string) string { return hashing.HashHex([]byte(s)) }

// ValidateIrStage re-checks the structural invariants an IR graph's own
// insertion-time checks already enforce (§4.D), surfacing them as
// diagnostics rather than a hard stop, since a graph assembled outside this
// pipeline (e.g. by a sandboxed WASM plugin) may not have gone through
// ir.Builder at all.
var ValidateIrStage Stage = StageFunc{
	StageName: "ValidateIr",
	Fn: func(ctx *Context, in PipelineData) (PipelineData, error) {
		g, ok := in.AsIR()
		if !ok {
			return in, errs.New(errs.KindInvalidArgument, "pipeline.validate_ir.wrong_kind", "ValidateIr requires IR input")
		}
		seen := make(map[string]bool)
		for _, n := range g.Nodes() {
			if n.ID == "" {
				return in, errs.New(errs.KindInvariant, "ir.node.id.empty", "encountered node with empty id")
			}
			if seen[n.ID] {
				return in, errs.New(errs.KindInvariant, "ir.node.id.duplicate", "duplicate node id "+n.ID)
			}
			seen[n.ID] = true
		}
		for _, e := range g.Edges() {
			if !seen[e.From] || !seen[e.To] {
				return in, errs.New(errs.KindInvariant, "ir.edge.dangling", "edge "+e.ID+" references an unknown node")
			}
		}
		ctx.addDiagnostic(errs.Info("ir.validate.ok", "graph passed structural validation"))
		return in, nil
	},
}

// NormalizeIrStage rebuilds the graph with every node's and edge's Attrs
// sorted by key, so two graphs built from logically equal attribute sets in
// different insertion orders normalize to identical attribute orderings
// before schema emission.
var NormalizeIrStage Stage = StageFunc{
	StageName: "NormalizeIr",
	Fn: func(ctx *Context, in PipelineData) (PipelineData, error) {
		g, ok := in.AsIR()
		if !ok {
			return in, errs.New(errs.KindInvalidArgument, "pipeline.normalize_ir.wrong_kind", "NormalizeIr requires IR input")
		}
		normalized := ir.NewGraph()
		for _, n := range g.Nodes() {
			n.Attrs = sortAttrs(n.Attrs)
			if err := normalized.AddNode(n); err != nil {
				return in, err
			}
		}
		for _, e := range g.Edges() {
			e.Attrs = sortAttrs(e.Attrs)
			if err := normalized.AddEdge(e); err != nil {
				return in, err
			}
		}
		return IRData(normalized), nil
	},
}

func sortAttrs(a ir.Attrs) ir.Attrs {
	out := make(ir.Attrs, len(a))
	copy(out, a)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// EmitSchemaV1Stage emits a SchemaV1 from the IR graph, reading `kind` from
// ctx.Params and `meta` from ctx.JSONParams, per §4.D/§4.H.
var EmitSchemaV1Stage Stage = StageFunc{
	StageName: "EmitSchemaV1",
	Fn: func(ctx *Context, in PipelineData) (PipelineData, error) {
		g, ok := in.AsIR()
		if !ok {
			return in, errs.New(errs.KindInvalidArgument, "pipeline.emit_schema.wrong_kind", "EmitSchemaV1 requires IR input")
		}
		kind := ctx.Params["kind"]
		meta, ok := ctx.JSONParams["meta"]
		if !ok {
			meta = canonicaljson.Object()
		}
		schema := ir.EmitSchema(g, kind, meta)
		return SchemaData(schema), nil
	},
}

// BuildProofV1Stage assembles a ProofV1 from the fixed leaf set §4.H step 7
// names, reading the inputs from ctx.Params rather than from in (the
// incoming data is not itself a schema+manifest pair the tagged union can
// represent at once).
var BuildProofV1Stage Stage = StageFunc{
	StageName: "BuildProofV1",
	Fn: func(ctx *Context, in PipelineData) (PipelineData, error) {
		schemaHash := ctx.Params["schema_hash"]
		manifestHash := ctx.Params["manifest_hash"]
		createdAt := ctx.Params["created_at"]
		kind := ctx.Params["kind"]
		if schemaHash == "" || manifestHash == "" {
			return in, errs.New(errs.KindInvalidArgument, "pipeline.build_proof.missing_hash", "BuildProofV1 requires schema_hash and manifest_hash params")
		}

		leaves := merkle.SortLeaves([]merkle.Leaf{
			{Key: "digest:manifestHash", Value: manifestHash},
			{Key: "digest:schemaHash", Value: schemaHash},
			{Key: "meta:createdAt", Value: hashHexOf(createdAt)},
			{Key: "meta:kind", Value: hashHexOf(kind)},
		})
		tree, err := merkle.Build(leaves)
		if err != nil {
			return in, err
		}
		proofLeaves := make([]model.ProofLeaf, len(leaves))
		for i, l := range leaves {
			proofLeaves[i] = model.ProofLeaf{Key: l.Key, Value: l.Value}
		}
		proof := model.ProofV1{
			Version: "v1",
			HashAlg: "sha256",
			Root:    tree.RootHex(),
			Leaves:  proofLeaves,
		}
		return ProofData(proof), nil
	},
}

// SchemaSummary is a diagnostic-only stage producing a small JSON summary of
// an emitted schema (entity/edge counts, kind) for logging or inspection.
var SchemaSummary Stage = StageFunc{
	StageName: "SchemaSummary",
	Fn: func(ctx *Context, in PipelineData) (PipelineData, error) {
		s, ok := in.AsSchema()
		if !ok {
			return in, errs.New(errs.KindInvalidArgument, "pipeline.schema_summary.wrong_kind", "SchemaSummary requires Schema input")
		}
		summary := canonicaljson.Object(
			canonicaljson.Member{Key: "kind", Value: canonicaljson.Str(s.Kind)},
			canonicaljson.Member{Key: "entityCount", Value: canonicaljson.Int(int64(len(s.Entities)))},
			canonicaljson.Member{Key: "edgeCount", Value: canonicaljson.Int(int64(len(s.Edges)))},
		)
		return JSONData(summary), nil
	},
}
