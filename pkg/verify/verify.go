// Package verify implements the verify orchestrator described in §4.I: the
// counterpart to pkg/compile that takes an already-assembled bundle and
// checks its internal consistency rather than building one from IR.
//
// Grounded on the teacher's core/pkg/compliance/enforcement/engine.go: a
// struct exposing one "check a bundle, accumulate findings, return a
// report with an overall ok flag" entry point. The finding vocabulary is
// rewritten entirely around §4.I/§7's digest/root/inclusion checks, which
// have no obligation-engine counterpart in HELM.
package verify

import (
	"time"

	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/merkle"
	"github.com/signia-project/signia/pkg/model"
	"github.com/signia-project/signia/pkg/telemetry"
)

// Bundle is VerifyBundle from §4.I: the triple a compile call produced
// (proof is optional, per §4.H step 7 being conditional on build_proof).
type Bundle struct {
	Schema   model.SchemaV1
	Manifest model.ManifestV1
	Proof    *model.ProofV1
}

// Options is VerifyOptions from §4.I.
type Options struct {
	RequireProof           bool
	ValidateInclusions     bool
	RequireManifestBinding bool
}

// Report is VerifyReport from §4.I. Ok is true iff Findings contains no
// Error-level diagnostic.
type Report struct {
	Ok              bool
	Findings        []errs.Diagnostic
	SchemaHashHex   string
	ManifestHashHex string
	ProofRootHex    string
}

// Orchestrator mirrors compile.Orchestrator: a thin holder for the one
// collaborator a Verify call can be given beyond the bundle and options it
// receives per call, so a verify run reports its wall-clock cost to the
// same telemetry.Recorder a compile run does.
type Orchestrator struct {
	Recorder telemetry.Recorder
}

// NewOrchestrator returns an Orchestrator with no telemetry, matching
// compile.NewOrchestrator's documented default.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{Recorder: telemetry.NopRecorder{}}
}

// Verify runs the free Verify function against bundle, recording the
// overall wall-clock duration under the "verify" stage name.
func (o *Orchestrator) Verify(bundle Bundle, opts Options) Report {
	recorder := o.Recorder
	if recorder == nil {
		recorder = telemetry.NopRecorder{}
	}
	start := time.Now()
	report := Verify(bundle, opts)
	recorder.StageDuration("verify", time.Since(start))
	recorder.Counter("verify.findings", int64(len(report.Findings)), nil)
	return report
}

// Verify runs §4.I's five-step algorithm against bundle.
func Verify(bundle Bundle, opts Options) Report {
	var findings []errs.Diagnostic

	// Step 1: structural validation of schema and manifest.
	findings = append(findings, model.ValidateSchema(bundle.Schema)...)
	findings = append(findings, model.ValidateManifest(bundle.Manifest)...)
	if bundle.Proof != nil {
		findings = append(findings, model.ValidateProof(*bundle.Proof)...)
	}

	// Step 2: recompute schema_hash and manifest_hash.
	schemaHash, err := bundle.Schema.HashHex()
	if err != nil {
		findings = append(findings, errs.Err("verify.schema.unhashable", err.Error()))
		return finish(findings, "", "", "")
	}
	manifestHash, err := bundle.Manifest.HashHex()
	if err != nil {
		findings = append(findings, errs.Err("verify.manifest.unhashable", err.Error()))
		return finish(findings, schemaHash, "", "")
	}

	// Step 3: optional manifest binding.
	if opts.RequireManifestBinding {
		bound := false
		for _, s := range bundle.Manifest.Schemas {
			if s.Digest == schemaHash {
				bound = true
				break
			}
		}
		if !bound {
			findings = append(findings, errs.Err("verify.manifest.binding.missing",
				"schema_hash is not referenced by any manifest.schemas entry").WithData("schema_hash", schemaHash))
		}
	}

	// Step 4: optional/required proof checks.
	rootHex := ""
	if bundle.Proof == nil {
		if opts.RequireProof {
			findings = append(findings, errs.Err("verify.proof.missing", "proof is required but was not supplied"))
		}
		return finish(findings, schemaHash, manifestHash, "")
	}

	proof := bundle.Proof
	leaves := make([]merkle.Leaf, len(proof.Leaves))
	var sawSchemaHash, sawManifestHash bool
	for i, l := range proof.Leaves {
		leaves[i] = merkle.Leaf{Key: l.Key, Value: l.Value}
		switch l.Key {
		case "digest:schemaHash":
			sawSchemaHash = true
			if l.Value != schemaHash {
				findings = append(findings, errs.Err("proof.leaf.schemaHash.mismatch",
					"proof leaf digest:schemaHash does not match the recomputed schema hash"))
			}
		case "digest:manifestHash":
			sawManifestHash = true
			if l.Value != manifestHash {
				findings = append(findings, errs.Err("proof.leaf.manifestHash.mismatch",
					"proof leaf digest:manifestHash does not match the recomputed manifest hash"))
			}
		}
	}
	if !sawSchemaHash {
		findings = append(findings, errs.Err("proof.leaf.schemaHash.absent", "proof does not carry a digest:schemaHash leaf"))
	}
	if !sawManifestHash {
		findings = append(findings, errs.Err("proof.leaf.manifestHash.absent", "proof does not carry a digest:manifestHash leaf"))
	}

	tree, buildErr := merkle.Build(merkle.SortLeaves(leaves))
	if buildErr != nil {
		findings = append(findings, errs.Err("proof.leaves.unbuildable", buildErr.Error()))
		return finish(findings, schemaHash, manifestHash, "")
	}
	rootHex = tree.RootHex()
	if rootHex != proof.Root {
		findings = append(findings, errs.Err("proof.root.mismatch", "recomputed root does not match proof.root"))
	}

	if opts.ValidateInclusions {
		for _, inc := range proof.Inclusions {
			payload := []byte(inc.Key + "=" + inc.Value)
			ok, err := merkle.VerifyHex(payload, inc.Siblings, proof.Root)
			if err != nil {
				findings = append(findings, errs.Err("proof.inclusion.invalid", err.Error()).WithData("key", inc.Key))
				continue
			}
			if !ok {
				findings = append(findings, errs.Err("proof.inclusion.failed", "inclusion proof does not verify against proof.root").WithData("key", inc.Key))
			}
		}
	}

	return finish(findings, schemaHash, manifestHash, rootHex)
}

func finish(findings []errs.Diagnostic, schemaHash, manifestHash, rootHex string) Report {
	return Report{
		Ok:              !errs.HasError(findings),
		Findings:        findings,
		SchemaHashHex:   schemaHash,
		ManifestHashHex: manifestHash,
		ProofRootHex:    rootHex,
	}
}
