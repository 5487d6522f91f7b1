package plugin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/signia-project/signia/pkg/canonicaljson"
)

func mustParse(t *testing.T, doc string) canonicaljson.Value {
	v, err := canonicaljson.Parse([]byte(doc), canonicaljson.DefaultMaxDepth)
	require.NoError(t, err)
	return v
}

func TestDetectKindRepo(t *testing.T) {
	v := mustParse(t, `{"name":"demo","files":[]}`)
	require.Equal(t, KindRepo, DetectKind(v))
}

func TestDetectKindDataset(t *testing.T) {
	v := mustParse(t, `{"name":"d","files":[{"path":"x","size":1}]}`)
	require.Equal(t, KindDataset, DetectKind(v))
}

func TestDetectKindWorkflow(t *testing.T) {
	v := mustParse(t, `{"nodes":[{"id":"a","type":"t"}],"edges":[{"from":"a","to":"a","kind":"control"}]}`)
	require.Equal(t, KindWorkflow, DetectKind(v))
}

func TestDetectKindOpenAPI(t *testing.T) {
	v := mustParse(t, `{"openapi":"3.0.0","paths":{}}`)
	require.Equal(t, KindOpenAPI, DetectKind(v))
}

func TestDetectKindUnknown(t *testing.T) {
	v := mustParse(t, `{"foo":"bar"}`)
	require.Equal(t, KindUnknown, DetectKind(v))
}

func TestDetectKindRepoWinsOverDataset(t *testing.T) {
	// A document satisfying both repo (name+files) and dataset (files[*].size)
	// shapes is classified repo because that rule is checked first.
	v := mustParse(t, `{"name":"demo","files":[{"path":"a","size":1}]}`)
	require.Equal(t, KindRepo, DetectKind(v))
}
