package repoplugin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/plugin"
)

func parse(t *testing.T, doc string) canonicaljson.Value {
	v, err := canonicaljson.Parse([]byte(doc), canonicaljson.DefaultMaxDepth)
	require.NoError(t, err)
	return v
}

// S1: empty repo produces one entity, zero edges.
func TestEmptyRepo(t *testing.T) {
	g, err := New().Build(plugin.Context{}, parse(t, `{"name":"demo","files":[]}`))
	require.NoError(t, err)
	require.Equal(t, 1, g.NodeCount())
	require.Equal(t, 0, g.EdgeCount())
	nodes := g.Nodes()
	require.Equal(t, "demo", nodes[0].Name)
	require.Equal(t, "repo", nodes[0].Type)
}

// S2: two-file repo, path order independence.
func TestTwoFileRepoPathOrderIndependent(t *testing.T) {
	forward := parse(t, `{"name":"demo","files":[{"path":"b.txt","size":1,"sha256":"h1"},{"path":"a.txt","size":1,"sha256":"h2"}]}`)
	reversed := parse(t, `{"name":"demo","files":[{"path":"a.txt","size":1,"sha256":"h2"},{"path":"b.txt","size":1,"sha256":"h1"}]}`)

	g1, err := New().Build(plugin.Context{}, forward)
	require.NoError(t, err)
	g2, err := New().Build(plugin.Context{}, reversed)
	require.NoError(t, err)

	n1 := g1.Nodes()
	n2 := g2.Nodes()
	require.Equal(t, len(n1), len(n2))
	require.Equal(t, "repo", n1[0].Type)
	require.Equal(t, "demo", n1[0].Name)
	require.Equal(t, "a.txt", n1[1].Name)
	require.Equal(t, "b.txt", n1[2].Name)
	require.Equal(t, n1[1].Name, n2[1].Name)
	require.Equal(t, n1[2].Name, n2[2].Name)
}

func TestNormalizePathRejectsTraversal(t *testing.T) {
	_, err := normalizePath("../etc/passwd")
	require.Error(t, err)
}

func TestNormalizePathCollapsesAndStripsPrefix(t *testing.T) {
	got, err := normalizePath("./a\\\\b//c")
	require.NoError(t, err)
	require.Equal(t, "a/b/c", got)
}

func TestNormalizePathNFCNormalizes(t *testing.T) {
	// "e" + combining acute accent U+0301 (NFD, as HFS+ stores it) must
	// normalize to the same bytes as the precomposed U+00E9 "é" (NFC), so
	// the same logical path hashes identically regardless of which form the
	// source filesystem handed it in as.
	nfd := "café.txt"
	nfc := "café.txt"
	require.NotEqual(t, nfd, nfc)

	gotNFD, err := normalizePath(nfd)
	require.NoError(t, err)
	gotNFC, err := normalizePath(nfc)
	require.NoError(t, err)
	require.Equal(t, gotNFC, gotNFD)
}

func TestGlobMatchStarAndDoubleStar(t *testing.T) {
	require.True(t, globMatch("*.txt", "a.txt"))
	require.False(t, globMatch("*.txt", "a/b.txt"))
	require.True(t, globMatch("**/*.txt", "a/b/c.txt"))
	require.True(t, globMatch("**", "a/b/c.txt"))
}

func TestIncludeExcludeFilters(t *testing.T) {
	p := &Plugin{Include: []string{"**/*.go"}, Exclude: []string{"**/*_test.go"}}
	input := parse(t, `{"name":"demo","files":[{"path":"a.go","size":1},{"path":"a_test.go","size":1},{"path":"a.txt","size":1}]}`)
	g, err := p.Build(plugin.Context{}, input)
	require.NoError(t, err)
	require.Equal(t, 2, g.NodeCount()) // repo root + a.go only
}
