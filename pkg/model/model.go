// Package model defines the three wire-format value objects the compile
// orchestrator produces and the verify orchestrator consumes — SchemaV1,
// ManifestV1, ProofV1 — plus the validators that check their structural
// invariants (§3, §4.G).
//
// Grounded on the teacher's pkg/manifest/schema.go: the "versioned struct
// with a canonicalization method and a standalone Validate that returns a
// slice of findings instead of a single error" shape carries over directly.
// The fields themselves are rewritten to match §3/§6's wire formats, which
// bear no resemblance to HELM's compliance-manifest schema.
package model

import (
	"sort"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/hashing"
	"github.com/signia-project/signia/pkg/merkle"
)

// EntityV1 is one node of a compiled schema.
type EntityV1 struct {
	ID      string              `json:"id"`
	Key     string              `json:"key"`
	Type    string              `json:"type"`
	Name    string              `json:"name"`
	Attrs   canonicaljson.Value `json:"attrs"`
	Digests []string            `json:"digests,omitempty"`
}

// EdgeV1 is one edge of a compiled schema.
type EdgeV1 struct {
	ID    string              `json:"id"`
	Key   string              `json:"key"`
	Type  string              `json:"type"`
	From  string              `json:"from"`
	To    string              `json:"to"`
	Attrs canonicaljson.Value `json:"attrs"`
}

// SchemaV1 is the compiled, stable-id representation of an IR graph, per §3.
type SchemaV1 struct {
	Version  string              `json:"version"`
	Kind     string              `json:"kind"`
	Meta     canonicaljson.Value `json:"meta"`
	Entities []EntityV1          `json:"entities"`
	Edges    []EdgeV1            `json:"edges"`
}

// Canonical converts the schema into its canonicaljson.Value form, the input
// to schema_hash = hash_hex(canonical(schema)).
func (s SchemaV1) Canonical() canonicaljson.Value {
	entities := make([]canonicaljson.Value, len(s.Entities))
	for i, e := range s.Entities {
		digests := make([]canonicaljson.Value, len(e.Digests))
		for j, d := range e.Digests {
			digests[j] = canonicaljson.Str(d)
		}
		entities[i] = canonicaljson.Object(
			canonicaljson.Member{Key: "id", Value: canonicaljson.Str(e.ID)},
			canonicaljson.Member{Key: "key", Value: canonicaljson.Str(e.Key)},
			canonicaljson.Member{Key: "type", Value: canonicaljson.Str(e.Type)},
			canonicaljson.Member{Key: "name", Value: canonicaljson.Str(e.Name)},
			canonicaljson.Member{Key: "attrs", Value: e.Attrs},
			canonicaljson.Member{Key: "digests", Value: canonicaljson.ArraySlice(digests)},
		)
	}
	edges := make([]canonicaljson.Value, len(s.Edges))
	for i, e := range s.Edges {
		edges[i] = canonicaljson.Object(
			canonicaljson.Member{Key: "id", Value: canonicaljson.Str(e.ID)},
			canonicaljson.Member{Key: "key", Value: canonicaljson.Str(e.Key)},
			canonicaljson.Member{Key: "type", Value: canonicaljson.Str(e.Type)},
			canonicaljson.Member{Key: "from", Value: canonicaljson.Str(e.From)},
			canonicaljson.Member{Key: "to", Value: canonicaljson.Str(e.To)},
			canonicaljson.Member{Key: "attrs", Value: e.Attrs},
		)
	}
	return canonicaljson.Object(
		canonicaljson.Member{Key: "version", Value: canonicaljson.Str(s.Version)},
		canonicaljson.Member{Key: "kind", Value: canonicaljson.Str(s.Kind)},
		canonicaljson.Member{Key: "meta", Value: s.Meta},
		canonicaljson.Member{Key: "entities", Value: canonicaljson.ArraySlice(entities)},
		canonicaljson.Member{Key: "edges", Value: canonicaljson.ArraySlice(edges)},
	)
}

// CanonicalBytes returns the canonical encoding of the schema.
func (s SchemaV1) CanonicalBytes() ([]byte, error) {
	return canonicaljson.Marshal(s.Canonical(), canonicaljson.DefaultMaxDepth)
}

// HashHex returns hash_hex(canonical(schema)), the value §4.H step 4 calls
// schema_hash. §4.H's formula is plain hash_hex, not domain-separated —
// unlike the Merkle layer's leaf/node hashes, which are — so this does not
// route through hashing.LabelSchema.
func (s SchemaV1) HashHex() (string, error) {
	b, err := s.CanonicalBytes()
	if err != nil {
		return "", err
	}
	return hashing.HashHex(b), nil
}

// SchemaRef is one entry of ManifestV1.schemas.
type SchemaRef struct {
	Name   string `json:"name"`
	Digest string `json:"digest"`
}

// InputRef is one entry of ManifestV1.inputs.
type InputRef struct {
	Type    string  `json:"type"`
	Locator string  `json:"locator"`
	Digest  *string `json:"digest"`
}

// OutputRef is one entry of ManifestV1.outputs.
type OutputRef struct {
	Type           string  `json:"type"`
	Locator        string  `json:"locator"`
	ExpectedDigest *string `json:"expected_digest"`
}

// PluginRef is one entry of ManifestV1.plugins.
type PluginRef struct {
	Name    string              `json:"name"`
	Version string              `json:"version"`
	Config  canonicaljson.Value `json:"config"`
}

// Limits mirrors §6.3's limits object and §4.H/§5's resource caps.
type Limits struct {
	MaxFiles  int64  `json:"maxFiles"`
	MaxBytes  int64  `json:"maxBytes"`
	MaxNodes  int64  `json:"maxNodes"`
	MaxEdges  int64  `json:"maxEdges"`
	TimeoutMs int64  `json:"timeoutMs"`
	Network   string `json:"network"`
}

// ManifestV1 is the compiled manifest referencing a schema digest, per §3.
type ManifestV1 struct {
	Version string            `json:"version"`
	Name    string            `json:"name"`
	Schemas []SchemaRef       `json:"schemas"`
	Inputs  []InputRef        `json:"inputs"`
	Outputs []OutputRef       `json:"outputs"`
	Plugins []PluginRef       `json:"plugins"`
	Limits  Limits            `json:"limits"`
	Labels  map[string]string `json:"labels,omitempty"`
}

func strOrNull(s *string) canonicaljson.Value {
	if s == nil {
		return canonicaljson.Null()
	}
	return canonicaljson.Str(*s)
}

// Canonical converts the manifest into its canonicaljson.Value form.
func (m ManifestV1) Canonical() canonicaljson.Value {
	schemas := make([]canonicaljson.Value, len(m.Schemas))
	for i, s := range m.Schemas {
		schemas[i] = canonicaljson.Object(
			canonicaljson.Member{Key: "name", Value: canonicaljson.Str(s.Name)},
			canonicaljson.Member{Key: "digest", Value: canonicaljson.Str(s.Digest)},
		)
	}
	inputs := make([]canonicaljson.Value, len(m.Inputs))
	for i, in := range m.Inputs {
		inputs[i] = canonicaljson.Object(
			canonicaljson.Member{Key: "type", Value: canonicaljson.Str(in.Type)},
			canonicaljson.Member{Key: "locator", Value: canonicaljson.Str(in.Locator)},
			canonicaljson.Member{Key: "digest", Value: strOrNull(in.Digest)},
		)
	}
	outputs := make([]canonicaljson.Value, len(m.Outputs))
	for i, out := range m.Outputs {
		outputs[i] = canonicaljson.Object(
			canonicaljson.Member{Key: "type", Value: canonicaljson.Str(out.Type)},
			canonicaljson.Member{Key: "locator", Value: canonicaljson.Str(out.Locator)},
			canonicaljson.Member{Key: "expected_digest", Value: strOrNull(out.ExpectedDigest)},
		)
	}
	plugins := make([]canonicaljson.Value, len(m.Plugins))
	for i, p := range m.Plugins {
		plugins[i] = canonicaljson.Object(
			canonicaljson.Member{Key: "name", Value: canonicaljson.Str(p.Name)},
			canonicaljson.Member{Key: "version", Value: canonicaljson.Str(p.Version)},
			canonicaljson.Member{Key: "config", Value: p.Config},
		)
	}
	labelKeys := make([]string, 0, len(m.Labels))
	for k := range m.Labels {
		labelKeys = append(labelKeys, k)
	}
	sort.Strings(labelKeys)
	labelMembers := make([]canonicaljson.Member, len(labelKeys))
	for i, k := range labelKeys {
		labelMembers[i] = canonicaljson.Member{Key: k, Value: canonicaljson.Str(m.Labels[k])}
	}
	limits := canonicaljson.Object(
		canonicaljson.Member{Key: "maxFiles", Value: canonicaljson.Int(m.Limits.MaxFiles)},
		canonicaljson.Member{Key: "maxBytes", Value: canonicaljson.Int(m.Limits.MaxBytes)},
		canonicaljson.Member{Key: "maxNodes", Value: canonicaljson.Int(m.Limits.MaxNodes)},
		canonicaljson.Member{Key: "maxEdges", Value: canonicaljson.Int(m.Limits.MaxEdges)},
		canonicaljson.Member{Key: "timeoutMs", Value: canonicaljson.Int(m.Limits.TimeoutMs)},
		canonicaljson.Member{Key: "network", Value: canonicaljson.Str(m.Limits.Network)},
	)
	return canonicaljson.Object(
		canonicaljson.Member{Key: "version", Value: canonicaljson.Str(m.Version)},
		canonicaljson.Member{Key: "name", Value: canonicaljson.Str(m.Name)},
		canonicaljson.Member{Key: "schemas", Value: canonicaljson.ArraySlice(schemas)},
		canonicaljson.Member{Key: "inputs", Value: canonicaljson.ArraySlice(inputs)},
		canonicaljson.Member{Key: "outputs", Value: canonicaljson.ArraySlice(outputs)},
		canonicaljson.Member{Key: "plugins", Value: canonicaljson.ArraySlice(plugins)},
		canonicaljson.Member{Key: "limits", Value: limits},
		canonicaljson.Member{Key: "labels", Value: canonicaljson.Object(labelMembers...)},
	)
}

// CanonicalBytes returns the canonical encoding of the manifest.
func (m ManifestV1) CanonicalBytes() ([]byte, error) {
	return canonicaljson.Marshal(m.Canonical(), canonicaljson.DefaultMaxDepth)
}

// HashHex returns hash_hex(canonical(manifest)), the value §4.H step 6
// calls manifest_hash, per the same plain-hash_hex rule HashHex on
// SchemaV1 documents.
func (m ManifestV1) HashHex() (string, error) {
	b, err := m.CanonicalBytes()
	if err != nil {
		return "", err
	}
	return hashing.HashHex(b), nil
}

// ProofLeaf is one entry of ProofV1.leaves.
type ProofLeaf struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// InclusionProof is the wire form of a single leaf's Merkle witness, §3/§6.4.
type InclusionProof struct {
	Key      string           `json:"key"`
	Value    string           `json:"value"`
	Siblings []merkle.HexStep `json:"siblings"`
}

// ProofV1 is the compiled Merkle proof over a manifest+schema pair, §3.
type ProofV1 struct {
	Version    string           `json:"version"`
	HashAlg    string           `json:"hashAlg"`
	Root       string           `json:"root"`
	Leaves     []ProofLeaf      `json:"leaves"`
	Inclusions []InclusionProof `json:"inclusions,omitempty"`
}

// Canonical converts the proof into its canonicaljson.Value form. §4.J
// stores all three artifacts in the object store keyed by
// hash_hex(canonical bytes); this is what a caller hands to
// pkg/objectstore.Store.PutBytes for a proof, the same way SchemaV1 and
// ManifestV1's CanonicalBytes are.
func (p ProofV1) Canonical() canonicaljson.Value {
	leaves := make([]canonicaljson.Value, len(p.Leaves))
	for i, l := range p.Leaves {
		leaves[i] = canonicaljson.Object(
			canonicaljson.Member{Key: "key", Value: canonicaljson.Str(l.Key)},
			canonicaljson.Member{Key: "value", Value: canonicaljson.Str(l.Value)},
		)
	}
	members := []canonicaljson.Member{
		{Key: "version", Value: canonicaljson.Str(p.Version)},
		{Key: "hashAlg", Value: canonicaljson.Str(p.HashAlg)},
		{Key: "root", Value: canonicaljson.Str(p.Root)},
		{Key: "leaves", Value: canonicaljson.ArraySlice(leaves)},
	}
	if len(p.Inclusions) > 0 {
		inclusions := make([]canonicaljson.Value, len(p.Inclusions))
		for i, inc := range p.Inclusions {
			siblings := make([]canonicaljson.Value, len(inc.Siblings))
			for j, s := range inc.Siblings {
				siblings[j] = canonicaljson.Object(
					canonicaljson.Member{Key: "side", Value: canonicaljson.Str(string(s.Side))},
					canonicaljson.Member{Key: "hash", Value: canonicaljson.Str(s.Hash)},
				)
			}
			inclusions[i] = canonicaljson.Object(
				canonicaljson.Member{Key: "key", Value: canonicaljson.Str(inc.Key)},
				canonicaljson.Member{Key: "value", Value: canonicaljson.Str(inc.Value)},
				canonicaljson.Member{Key: "siblings", Value: canonicaljson.ArraySlice(siblings)},
			)
		}
		members = append(members, canonicaljson.Member{Key: "inclusions", Value: canonicaljson.ArraySlice(inclusions)})
	}
	return canonicaljson.Object(members...)
}

// CanonicalBytes returns the canonical encoding of the proof.
func (p ProofV1) CanonicalBytes() ([]byte, error) {
	return canonicaljson.Marshal(p.Canonical(), canonicaljson.DefaultMaxDepth)
}

// HashHex returns hash_hex(canonical(proof)), the object id §4.J/§6.5
// assigns a proof when it is stored.
func (p ProofV1) HashHex() (string, error) {
	b, err := p.CanonicalBytes()
	if err != nil {
		return "", err
	}
	return hashing.HashHex(b), nil
}
