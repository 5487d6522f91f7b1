package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/signia-project/signia/pkg/canonicaljson"
)

func TestEmitSchemaPathOrderIndependence(t *testing.T) {
	meta := canonicaljson.Object(
		canonicaljson.Member{Key: "name", Value: canonicaljson.Str("demo")},
		canonicaljson.Member{Key: "createdAt", Value: canonicaljson.Str("1970-01-01T00:00:00Z")},
		canonicaljson.Member{Key: "source", Value: canonicaljson.Str("repo")},
		canonicaljson.Member{Key: "normalization", Value: canonicaljson.Str("none")},
	)

	build := func(order []string) []byte {
		b := NewBuilder()
		b.AddNode(PendingNode{Key: "demo", Type: "repo"})
		for _, path := range order {
			b.AddNode(PendingNode{Key: path, Type: "file"})
			b.AddEdge(PendingEdge{Key: "demo->" + path, Type: "contains", FromKey: "demo", ToKey: path})
		}
		g, err := b.Build(DefaultIDStrategy{})
		require.NoError(t, err)
		s := EmitSchema(g, "repo", meta)
		bz, err := s.CanonicalBytes()
		require.NoError(t, err)
		return bz
	}

	forward := build([]string{"a.txt", "b.txt"})
	reversed := build([]string{"b.txt", "a.txt"})
	require.Equal(t, forward, reversed)
}
