package model

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/signia-project/signia/pkg/errs"
)

// ValidateSchema checks SchemaV1's structural invariants from §3: version
// tag, required meta keys, unique entity ids, and edge endpoints that
// resolve to known entity ids. It accumulates findings rather than
// returning on the first failure, per §4.G/§7's policy.
func ValidateSchema(s SchemaV1) []errs.Diagnostic {
	var diags []errs.Diagnostic

	if s.Version != "v1" {
		diags = append(diags, errs.Err("schema.version.mismatch", fmt.Sprintf("expected version v1, got %q", s.Version)))
	}
	for _, key := range []string{"name", "createdAt", "source", "normalization"} {
		if _, ok := s.Meta.Get(key); !ok {
			diags = append(diags, errs.Err("schema.meta.missing_key", fmt.Sprintf("meta is missing required key %q", key)))
		}
	}

	entityIDs := make(map[string]bool, len(s.Entities))
	for _, e := range s.Entities {
		if entityIDs[e.ID] {
			diags = append(diags, errs.Err("schema.entity.id.duplicate", fmt.Sprintf("duplicate entity id %q", e.ID)))
			continue
		}
		entityIDs[e.ID] = true
	}
	for _, e := range s.Edges {
		if !entityIDs[e.From] {
			diags = append(diags, errs.Err("schema.edge.from.unresolved", fmt.Sprintf("edge %q references unknown entity %q", e.ID, e.From)))
		}
		if !entityIDs[e.To] {
			diags = append(diags, errs.Err("schema.edge.to.unresolved", fmt.Sprintf("edge %q references unknown entity %q", e.ID, e.To)))
		}
	}
	return diags
}

// ValidateManifest checks ManifestV1's structural invariants from §3/§6.3:
// version tag, and that every schema digest looks like 64-char lowercase
// hex. Plugin versions that fail semver parsing are recorded as warnings,
// not errors (§9's supplemented-feature note: plugin version strings are
// informational, a malformed one should not block a compile).
func ValidateManifest(m ManifestV1) []errs.Diagnostic {
	var diags []errs.Diagnostic

	if m.Version != "v1" {
		diags = append(diags, errs.Err("manifest.version.mismatch", fmt.Sprintf("expected version v1, got %q", m.Version)))
	}
	for _, s := range m.Schemas {
		if !isHex64(s.Digest) {
			diags = append(diags, errs.Err("manifest.schema.digest.malformed", fmt.Sprintf("schema %q digest is not 64-char hex", s.Name)))
		}
	}
	for _, p := range m.Plugins {
		if p.Version == "" {
			continue
		}
		if _, err := semver.NewVersion(p.Version); err != nil {
			diags = append(diags, errs.Warn("manifest.plugin.version.invalid_semver", fmt.Sprintf("plugin %q version %q is not valid semver", p.Name, p.Version)))
		}
	}
	return diags
}

// ValidateProof checks ProofV1's structural invariants: hash algorithm tag,
// a well-formed root, leaves sorted by key, and that every inclusion's
// siblings decode as valid hex.
func ValidateProof(p ProofV1) []errs.Diagnostic {
	var diags []errs.Diagnostic

	if p.Version != "v1" {
		diags = append(diags, errs.Err("proof.version.mismatch", fmt.Sprintf("expected version v1, got %q", p.Version)))
	}
	if p.HashAlg != "sha256" {
		diags = append(diags, errs.Err("proof.hashalg.unsupported", fmt.Sprintf("unsupported hash algorithm %q", p.HashAlg)))
	}
	if !isHex64(p.Root) {
		diags = append(diags, errs.Err("proof.root.malformed", "root is not 64-char hex"))
	}
	for i := 1; i < len(p.Leaves); i++ {
		if p.Leaves[i-1].Key >= p.Leaves[i].Key {
			diags = append(diags, errs.Err("proof.leaves.order", "leaves are not strictly sorted by key"))
			break
		}
	}
	for _, inc := range p.Inclusions {
		for _, sib := range inc.Siblings {
			if sib.Side != "left" && sib.Side != "right" {
				diags = append(diags, errs.Err("proof.inclusion.side.invalid", fmt.Sprintf("inclusion %q has sibling with invalid side %q", inc.Key, sib.Side)))
			}
			if !isHex64(sib.Hash) {
				diags = append(diags, errs.Err("proof.inclusion.hash.malformed", fmt.Sprintf("inclusion %q has a malformed sibling hash", inc.Key)))
			}
		}
	}
	return diags
}

func isHex64(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
