package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/errs"
)

func fullMeta() canonicaljson.Value {
	return canonicaljson.Object(
		canonicaljson.Member{Key: "name", Value: canonicaljson.Str("demo")},
		canonicaljson.Member{Key: "createdAt", Value: canonicaljson.Str("1970-01-01T00:00:00Z")},
		canonicaljson.Member{Key: "source", Value: canonicaljson.Str("repo")},
		canonicaljson.Member{Key: "normalization", Value: canonicaljson.Str("none")},
	)
}

func TestValidateSchemaMissingMetaKey(t *testing.T) {
	s := SchemaV1{Version: "v1", Kind: "repo", Meta: canonicaljson.Object()}
	diags := ValidateSchema(s)
	require.True(t, errs.HasError(diags))
}

func TestValidateSchemaDuplicateEntityId(t *testing.T) {
	s := SchemaV1{
		Version: "v1", Kind: "repo", Meta: fullMeta(),
		Entities: []EntityV1{
			{ID: "n0", Key: "a", Type: "file", Attrs: canonicaljson.Object()},
			{ID: "n0", Key: "b", Type: "file", Attrs: canonicaljson.Object()},
		},
	}
	diags := ValidateSchema(s)
	require.True(t, errs.HasError(diags))
}

func TestValidateSchemaUnresolvedEdgeEndpoint(t *testing.T) {
	s := SchemaV1{
		Version: "v1", Kind: "repo", Meta: fullMeta(),
		Entities: []EntityV1{{ID: "n0", Key: "a", Type: "repo", Attrs: canonicaljson.Object()}},
		Edges:    []EdgeV1{{ID: "e0", Key: "a->b", Type: "contains", From: "n0", To: "n99", Attrs: canonicaljson.Object()}},
	}
	diags := ValidateSchema(s)
	require.True(t, errs.HasError(diags))
}

func TestValidateSchemaClean(t *testing.T) {
	s := SchemaV1{
		Version: "v1", Kind: "repo", Meta: fullMeta(),
		Entities: []EntityV1{{ID: "n0", Key: "a", Type: "repo", Attrs: canonicaljson.Object()}},
	}
	diags := ValidateSchema(s)
	require.False(t, errs.HasError(diags))
}

func TestValidateManifestMalformedDigest(t *testing.T) {
	m := ManifestV1{Version: "v1", Name: "demo", Schemas: []SchemaRef{{Name: "repo", Digest: "not-hex"}}}
	diags := ValidateManifest(m)
	require.True(t, errs.HasError(diags))
}

func TestValidateManifestInvalidPluginSemverIsWarningNotError(t *testing.T) {
	m := ManifestV1{
		Version: "v1", Name: "demo",
		Schemas: []SchemaRef{{Name: "repo", Digest: "0000000000000000000000000000000000000000000000000000000000000000"[:64]}},
		Plugins: []PluginRef{{Name: "repo", Version: "not-a-version"}},
	}
	diags := ValidateManifest(m)
	require.False(t, errs.HasError(diags))
	found := false
	for _, d := range diags {
		if d.Code == "manifest.plugin.version.invalid_semver" {
			found = true
		}
	}
	require.True(t, found)
}

func TestValidateProofLeavesOrder(t *testing.T) {
	root := "0000000000000000000000000000000000000000000000000000000000000000"[:64]
	p := ProofV1{
		Version: "v1", HashAlg: "sha256", Root: root,
		Leaves: []ProofLeaf{{Key: "b", Value: "1"}, {Key: "a", Value: "2"}},
	}
	diags := ValidateProof(p)
	require.True(t, errs.HasError(diags))
}
