// Package jsonschema validates the wire encoding of SchemaV1, ManifestV1,
// and ProofV1 documents against embedded JSON Schema documents, as a
// structural check that runs before (and independently of) the semantic
// validators in pkg/model.
//
// Grounded on the teacher's core/pkg/firewall/firewall.go: a
// *jsonschema.Compiler with AddResource+Compile building one compiled
// *jsonschema.Schema per named document, held in a map and looked up by
// name at validation time. firewall.go compiles one schema per tool name
// from caller-supplied strings; this package instead embeds its three
// schema documents at build time with go:embed, since SIGNIA's document
// kinds are fixed by pkg/model rather than configured per deployment.
package jsonschema

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/errs"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const baseURL = "https://signia.local/schemas/"

// Validator holds one compiled JSON Schema per SIGNIA wire document kind.
type Validator struct {
	schema   *jsonschema.Schema
	manifest *jsonschema.Schema
	proof    *jsonschema.Schema
}

// New compiles the embedded schema documents.
func New() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return nil, errs.Wrap(errs.KindInvariant, "jsonschema.embed.unreadable", "failed to read embedded schema directory", err)
	}
	for _, e := range entries {
		data, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, errs.Wrap(errs.KindInvariant, "jsonschema.embed.unreadable", fmt.Sprintf("failed to read embedded schema %s", e.Name()), err)
		}
		if err := c.AddResource(baseURL+e.Name(), bytes.NewReader(data)); err != nil {
			return nil, errs.Wrap(errs.KindInvariant, "jsonschema.compile.resource_failed", fmt.Sprintf("failed to register schema %s", e.Name()), err)
		}
	}

	v := &Validator{}
	for name, dst := range map[string]**jsonschema.Schema{
		"schema_v1.schema.json":   &v.schema,
		"manifest_v1.schema.json": &v.manifest,
		"proof_v1.schema.json":    &v.proof,
	} {
		compiled, err := c.Compile(baseURL + name)
		if err != nil {
			return nil, errs.Wrap(errs.KindInvariant, "jsonschema.compile.failed", fmt.Sprintf("failed to compile %s", name), err)
		}
		*dst = compiled
	}
	return v, nil
}

// ValidateSchema structurally validates a canonical SchemaV1 document. The
// returned diagnostics use the same Level/Code/Message shape as pkg/model's
// validators, so a caller can append them to a pkg/model finding set and
// treat both as one list. The error return is reserved for infrastructure
// failures (the document could not even be encoded or decoded), never for
// structural findings.
func (v *Validator) ValidateSchema(doc canonicaljson.Value) ([]errs.Diagnostic, error) {
	return validate(v.schema, "schema", doc)
}

// ValidateManifest structurally validates a canonical ManifestV1 document.
func (v *Validator) ValidateManifest(doc canonicaljson.Value) ([]errs.Diagnostic, error) {
	return validate(v.manifest, "manifest", doc)
}

// ValidateProof structurally validates a canonical ProofV1 document.
func (v *Validator) ValidateProof(doc canonicaljson.Value) ([]errs.Diagnostic, error) {
	return validate(v.proof, "proof", doc)
}

func validate(schema *jsonschema.Schema, kind string, doc canonicaljson.Value) ([]errs.Diagnostic, error) {
	b, err := canonicaljson.Marshal(doc, canonicaljson.DefaultMaxDepth)
	if err != nil {
		return nil, errs.Wrap(errs.KindSerialization, "jsonschema.encode.failed", fmt.Sprintf("failed to encode %s document for validation", kind), err)
	}

	decoded, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, errs.Wrap(errs.KindSerialization, "jsonschema.decode.failed", fmt.Sprintf("failed to decode %s document for validation", kind), err)
	}

	verr := schema.Validate(decoded)
	if verr == nil {
		return nil, nil
	}
	valErr, ok := verr.(*jsonschema.ValidationError)
	if !ok {
		return []errs.Diagnostic{errs.Err(fmt.Sprintf("jsonschema.%s.invalid", strings.ToLower(kind)), verr.Error())}, nil
	}
	return leafDiagnostics(kind, valErr, nil), nil
}

// leafDiagnostics flattens a jsonschema.ValidationError tree into one
// Diagnostic per leaf cause (a node with no Causes of its own) — the
// intermediate nodes only restate which sub-schema failed, which the leaf's
// InstanceLocation already pins down.
func leafDiagnostics(kind string, e *jsonschema.ValidationError, into []errs.Diagnostic) []errs.Diagnostic {
	if len(e.Causes) == 0 {
		code := fmt.Sprintf("jsonschema.%s.invalid", strings.ToLower(kind))
		loc := e.InstanceLocation
		msg := fmt.Sprintf("%s: %s", loc, e.Message)
		return append(into, errs.Err(code, msg))
	}
	for _, cause := range e.Causes {
		into = leafDiagnostics(kind, cause, into)
	}
	return into
}
