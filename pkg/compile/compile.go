// Package compile implements the compile orchestrator described in §4.H:
// the single entry point that takes an already-built IR graph plus a
// CompileRequest and drives it through inference, the pipeline runtime, and
// manifest/proof assembly to produce a CompileReport.
//
// Grounded on the teacher's core/pkg/compliance/compiler/compiler.go: a
// struct holding the compiler's fixed collaborators (there, regex tables
// and a CEL entity map; here, an inference rule-set and an id strategy)
// exposing one Compile-shaped method that returns a fully assembled
// artifact plus its own hash. The staged internals are rewritten entirely
// around §4.H's eight-step algorithm, which has no counterpart in HELM's
// single-pass obligation compiler.
package compile

import (
	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/inference"
	"github.com/signia-project/signia/pkg/ir"
	"github.com/signia-project/signia/pkg/model"
	"github.com/signia-project/signia/pkg/pipeline"
	"github.com/signia-project/signia/pkg/telemetry"
)

// Request is CompileRequest from §4.H: the manifest-shaped inputs the
// orchestrator needs in addition to the IR graph a plugin already built.
type Request struct {
	Kind         string
	Meta         canonicaljson.Value
	CreatedAt    string
	Labels       map[string]string
	Inputs       []model.InputRef
	Outputs      []model.OutputRef
	Plugins      []model.PluginRef
	Limits       model.Limits
	RunInference bool
	BuildProof   bool
}

// Stats reports a handful of counters about the compiled graph, surfaced
// alongside the report for callers that want them without re-walking the
// schema.
type Stats struct {
	NodeCount int
	EdgeCount int
}

// Report is CompileReport from §4.H.
type Report struct {
	Schema      model.SchemaV1
	Manifest    model.ManifestV1
	Proof       *model.ProofV1
	Diagnostics []errs.Diagnostic
	Stats       Stats
}

// Orchestrator holds the collaborators a Compile call needs beyond the
// graph and request it is given per call: an inference rule-set (defaults
// to inference.Identity per §9's open-question resolution) and a telemetry
// recorder (defaults to telemetry.NopRecorder). It holds no id strategy:
// ids are already assigned in the graph it is given.
type Orchestrator struct {
	RuleSet  inference.RuleSet
	Recorder telemetry.Recorder
}

// NewOrchestrator returns an Orchestrator with the spec's documented
// defaults: identity inference, no telemetry.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{RuleSet: inference.Identity{}, Recorder: telemetry.NopRecorder{}}
}

// Compile runs §4.H's eight-step algorithm against an already-built IR
// graph. manifestName is the value stored as ManifestV1.Name; the spec
// leaves its source up to the caller (a plugin-provided name, a request
// field, etc.) so it is threaded through explicitly rather than guessed
// from the graph.
func (o *Orchestrator) Compile(g *ir.Graph, req Request, manifestName string) (Report, error) {
	ruleSet := o.RuleSet
	if ruleSet == nil {
		ruleSet = inference.Identity{}
	}
	recorder := o.Recorder
	if recorder == nil {
		recorder = telemetry.NopRecorder{}
	}

	ctx := pipeline.NewContext(pipeline.Clock{NowISO8601: req.CreatedAt})
	ctx.Recorder = recorder
	ctx.Params["kind"] = req.Kind
	ctx.JSONParams["meta"] = req.Meta

	// Step 1: basic IR validation plus the configured node/edge caps.
	if req.Limits.MaxNodes > 0 && int64(g.NodeCount()) > req.Limits.MaxNodes {
		return Report{Diagnostics: ctx.Diagnostics}, errs.New(errs.KindResourceLimit, "compile.limits.max_nodes", "graph exceeds configured max_nodes")
	}
	if req.Limits.MaxEdges > 0 && int64(g.EdgeCount()) > req.Limits.MaxEdges {
		return Report{Diagnostics: ctx.Diagnostics}, errs.New(errs.KindResourceLimit, "compile.limits.max_edges", "graph exceeds configured max_edges")
	}

	graph := g
	// Step 2: optional inference pass, a pure IR -> IR transform.
	if req.RunInference {
		inferred, err := ruleSet.Apply(graph)
		if err != nil {
			return Report{Diagnostics: ctx.Diagnostics}, err
		}
		graph = inferred
	}

	// Step 3: ValidateIr -> NormalizeIr -> EmitSchemaV1.
	stages := []pipeline.Stage{pipeline.ValidateIrStage, pipeline.NormalizeIrStage, pipeline.EmitSchemaV1Stage}
	out, err := pipeline.Run(ctx, stages, pipeline.IRData(graph))
	if err != nil {
		return Report{Diagnostics: ctx.Diagnostics}, err
	}
	schema, ok := out.AsSchema()
	if !ok {
		return Report{Diagnostics: ctx.Diagnostics}, errs.New(errs.KindInvariant, "compile.pipeline.no_schema", "pipeline did not produce a schema")
	}
	recorder.Counter("compile.schema.entities", int64(len(schema.Entities)), nil)
	recorder.Counter("compile.schema.edges", int64(len(schema.Edges)), nil)

	// Step 4: schema_hash.
	schemaHash, err := schema.HashHex()
	if err != nil {
		return Report{Diagnostics: ctx.Diagnostics}, err
	}

	// Step 5: assemble ManifestV1, inserting {name: kind, digest: schema_hash}.
	manifest := model.ManifestV1{
		Version: "v1",
		Name:    manifestName,
		Schemas: []model.SchemaRef{{Name: req.Kind, Digest: schemaHash}},
		Inputs:  req.Inputs,
		Outputs: req.Outputs,
		Plugins: req.Plugins,
		Limits:  req.Limits,
		Labels:  req.Labels,
	}

	// Step 6: manifest_hash.
	manifestHash, err := manifest.HashHex()
	if err != nil {
		return Report{Diagnostics: ctx.Diagnostics}, err
	}

	report := Report{
		Schema:      schema,
		Manifest:    manifest,
		Diagnostics: ctx.Diagnostics,
		Stats:       Stats{NodeCount: len(schema.Entities), EdgeCount: len(schema.Edges)},
	}

	// Step 7: optional proof assembly over the fixed leaf set.
	if req.BuildProof {
		ctx.Params["schema_hash"] = schemaHash
		ctx.Params["manifest_hash"] = manifestHash
		ctx.Params["created_at"] = req.CreatedAt
		proofOut, err := pipeline.Run(ctx, []pipeline.Stage{pipeline.BuildProofV1Stage}, pipeline.NoneData())
		if err != nil {
			report.Diagnostics = ctx.Diagnostics
			return report, err
		}
		proof, ok := proofOut.AsProof()
		if !ok {
			return report, errs.New(errs.KindInvariant, "compile.pipeline.no_proof", "pipeline did not produce a proof")
		}
		report.Proof = &proof
	}

	report.Diagnostics = ctx.Diagnostics
	return report, nil
}
