package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/signia-project/signia/pkg/canonicaljson"
)

func TestSchemaHashHexIsDeterministic(t *testing.T) {
	s := SchemaV1{Version: "v1", Kind: "repo", Meta: fullMeta()}
	h1, err := s.HashHex()
	require.NoError(t, err)
	h2, err := s.HashHex()
	require.NoError(t, err)
	require.Equal(t, h1, h2)
	require.Len(t, h1, 64)
}

func TestManifestHashHexChangesWithSchemaDigest(t *testing.T) {
	base := ManifestV1{Version: "v1", Name: "demo", Schemas: []SchemaRef{{Name: "repo", Digest: "aa"}}}
	other := base
	other.Schemas = []SchemaRef{{Name: "repo", Digest: "bb"}}

	h1, err := base.HashHex()
	require.NoError(t, err)
	h2, err := other.HashHex()
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestManifestCanonicalSortsLabelKeys(t *testing.T) {
	m1 := ManifestV1{Version: "v1", Name: "demo", Labels: map[string]string{"b": "2", "a": "1"}}
	m2 := ManifestV1{Version: "v1", Name: "demo", Labels: map[string]string{"a": "1", "b": "2"}}
	b1, err := m1.CanonicalBytes()
	require.NoError(t, err)
	b2, err := m2.CanonicalBytes()
	require.NoError(t, err)
	require.Equal(t, b1, b2)
}

func TestProofHashHexIsDeterministicAndChangesWithRoot(t *testing.T) {
	p1 := ProofV1{Version: "v1", HashAlg: "sha256", Root: strHash("aa"), Leaves: []ProofLeaf{{Key: "k", Value: "v"}}}
	h1, err := p1.HashHex()
	require.NoError(t, err)
	h2, err := p1.HashHex()
	require.NoError(t, err)
	require.Equal(t, h1, h2)
	require.Len(t, h1, 64)

	p2 := p1
	p2.Root = strHash("bb")
	h3, err := p2.HashHex()
	require.NoError(t, err)
	require.NotEqual(t, h1, h3)
}

func strHash(s string) string {
	b := make([]byte, 64)
	for i := range b {
		b[i] = '0'
	}
	copy(b, s)
	return string(b)
}

func TestEntityAttrsRoundTripThroughCanonical(t *testing.T) {
	s := SchemaV1{
		Version: "v1", Kind: "repo", Meta: fullMeta(),
		Entities: []EntityV1{{
			ID: "n0", Key: "a", Type: "file",
			Attrs: canonicaljson.Object(canonicaljson.Member{Key: "size", Value: canonicaljson.Int(3)}),
		}},
	}
	b, err := s.CanonicalBytes()
	require.NoError(t, err)
	require.Contains(t, string(b), `"size":3`)
}
