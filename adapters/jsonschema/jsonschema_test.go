package jsonschema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/signia-project/signia/adapters/jsonschema"
	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/model"
)

func fullMeta() canonicaljson.Value {
	return canonicaljson.Object(
		canonicaljson.Member{Key: "name", Value: canonicaljson.Str("demo")},
		canonicaljson.Member{Key: "createdAt", Value: canonicaljson.Str("1970-01-01T00:00:00Z")},
		canonicaljson.Member{Key: "source", Value: canonicaljson.Str("repo")},
		canonicaljson.Member{Key: "normalization", Value: canonicaljson.Str("none")},
	)
}

func TestValidateSchemaAcceptsWellFormedDocument(t *testing.T) {
	v, err := jsonschema.New()
	require.NoError(t, err)

	s := model.SchemaV1{
		Version: "v1", Kind: "repo", Meta: fullMeta(),
		Entities: []model.EntityV1{{ID: "n0", Key: "a", Type: "repo", Name: "demo", Attrs: canonicaljson.Object()}},
	}
	diags, err := v.ValidateSchema(s.Canonical())
	require.NoError(t, err)
	require.Empty(t, diags)
}

func TestValidateSchemaRejectsMissingEntityKey(t *testing.T) {
	v, err := jsonschema.New()
	require.NoError(t, err)

	doc := canonicaljson.Object(
		canonicaljson.Member{Key: "version", Value: canonicaljson.Str("v1")},
		canonicaljson.Member{Key: "kind", Value: canonicaljson.Str("repo")},
		canonicaljson.Member{Key: "meta", Value: fullMeta()},
		canonicaljson.Member{Key: "entities", Value: canonicaljson.ArraySlice([]canonicaljson.Value{
			canonicaljson.Object(
				canonicaljson.Member{Key: "id", Value: canonicaljson.Str("n0")},
				canonicaljson.Member{Key: "type", Value: canonicaljson.Str("repo")},
				canonicaljson.Member{Key: "name", Value: canonicaljson.Str("demo")},
				canonicaljson.Member{Key: "attrs", Value: canonicaljson.Object()},
			),
		})},
		canonicaljson.Member{Key: "edges", Value: canonicaljson.ArraySlice(nil)},
	)
	diags, err := v.ValidateSchema(doc)
	require.NoError(t, err)
	require.True(t, errs.HasError(diags))
	require.Equal(t, "jsonschema.schema.invalid", diags[0].Code)
}

func TestValidateManifestAcceptsWellFormedDocument(t *testing.T) {
	v, err := jsonschema.New()
	require.NoError(t, err)

	m := model.ManifestV1{
		Version: "v1", Name: "demo",
		Schemas: []model.SchemaRef{{Name: "repo", Digest: strings.Repeat("a", 64)}},
		Limits:  model.Limits{Network: "none"},
	}
	diags, err := v.ValidateManifest(m.Canonical())
	require.NoError(t, err)
	require.Empty(t, diags)
}

func TestValidateProofRejectsMalformedRoot(t *testing.T) {
	v, err := jsonschema.New()
	require.NoError(t, err)

	doc := canonicaljson.Object(
		canonicaljson.Member{Key: "version", Value: canonicaljson.Str("v1")},
		canonicaljson.Member{Key: "hashAlg", Value: canonicaljson.Str("sha256")},
		canonicaljson.Member{Key: "root", Value: canonicaljson.Str("not-hex")},
		canonicaljson.Member{Key: "leaves", Value: canonicaljson.ArraySlice([]canonicaljson.Value{
			canonicaljson.Object(
				canonicaljson.Member{Key: "key", Value: canonicaljson.Str("digest:schemaHash")},
				canonicaljson.Member{Key: "value", Value: canonicaljson.Str(strings.Repeat("a", 64))},
			),
		})},
	)
	diags, err := v.ValidateProof(doc)
	require.NoError(t, err)
	require.True(t, errs.HasError(diags))
}
