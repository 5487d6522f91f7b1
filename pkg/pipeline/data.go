// Package pipeline implements the staged transformation runtime described
// in §4.F: a strictly sequential sequence of named stages sharing a single
// no-I/O Context, each consuming and producing a PipelineData value from a
// fixed tagged-union vocabulary.
//
// Grounded on the teacher's pkg/kernel (evaluation_window.go / csnf.go): the
// "small struct threaded through an ordered sequence of pure transform
// steps, with a shared diagnostics sink" shape is the same one HELM's
// compliance kernel uses for its check pipeline. The stage catalog and data
// vocabulary are rewritten entirely around §4.F/§4.H's IR-to-proof pipeline.
package pipeline

import (
	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/ir"
	"github.com/signia-project/signia/pkg/model"
)

// DataKind discriminates the variant a PipelineData holds.
type DataKind int

const (
	KindNone DataKind = iota
	KindJSON
	KindBytes
	KindIR
	KindSchema
	KindManifest
	KindProof
)

// PipelineData is the tagged union §4.F specifies: None | Json | Bytes | Ir
// | SchemaV1 | ManifestV1 | ProofV1. Stages assert the variant they expect
// and return InvalidArgument if the wrong one arrives.
type PipelineData struct {
	kind     DataKind
	json     canonicaljson.Value
	bytes    []byte
	graph    *ir.Graph
	schema   model.SchemaV1
	manifest model.ManifestV1
	proof    model.ProofV1
}

func (d PipelineData) Kind() DataKind { return d.kind }

func NoneData() PipelineData                   { return PipelineData{kind: KindNone} }
func JSONData(v canonicaljson.Value) PipelineData { return PipelineData{kind: KindJSON, json: v} }
func BytesData(b []byte) PipelineData             { return PipelineData{kind: KindBytes, bytes: b} }
func IRData(g *ir.Graph) PipelineData              { return PipelineData{kind: KindIR, graph: g} }
func SchemaData(s model.SchemaV1) PipelineData     { return PipelineData{kind: KindSchema, schema: s} }
func ManifestData(m model.ManifestV1) PipelineData { return PipelineData{kind: KindManifest, manifest: m} }
func ProofData(p model.ProofV1) PipelineData       { return PipelineData{kind: KindProof, proof: p} }

func (d PipelineData) AsJSON() (canonicaljson.Value, bool) { return d.json, d.kind == KindJSON }
func (d PipelineData) AsBytes() ([]byte, bool)             { return d.bytes, d.kind == KindBytes }
func (d PipelineData) AsIR() (*ir.Graph, bool)             { return d.graph, d.kind == KindIR }
func (d PipelineData) AsSchema() (model.SchemaV1, bool)    { return d.schema, d.kind == KindSchema }
func (d PipelineData) AsManifest() (model.ManifestV1, bool) {
	return d.manifest, d.kind == KindManifest
}
func (d PipelineData) AsProof() (model.ProofV1, bool) { return d.proof, d.kind == KindProof }
