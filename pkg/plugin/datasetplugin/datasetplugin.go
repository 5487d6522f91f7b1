// Package datasetplugin implements the built-in dataset IR producer
// described in §4.E.1: file normalization, an inline-bytes digest path, a
// dataset fingerprint over the sorted (path, size, sha256) tuples, and an
// optional Merkle root over the same tuples.
package datasetplugin

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/hashing"
	"github.com/signia-project/signia/pkg/ir"
	"github.com/signia-project/signia/pkg/merkle"
	"github.com/signia-project/signia/pkg/plugin"
)

const ID = "signia.dataset"

// Plugin is the built-in dataset IR producer. EmitMerkleRoot controls the
// optional per-file Merkle commitment §4.E.1 mentions as "optionally";
// compile requests that do not need file-level inclusion proofs can skip it.
type Plugin struct {
	EmitMerkleRoot bool
}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) ID() string              { return ID }
func (p *Plugin) Supports() []plugin.Kind { return []plugin.Kind{plugin.KindDataset} }
func (p *Plugin) Wants() plugin.Wants     { return plugin.Wants{} }

type fileEntry struct {
	path   string
	size   int64
	sha256 string
}

// Build implements plugin.Plugin.
func (p *Plugin) Build(ctx plugin.Context, input canonicaljson.Value) (*ir.Graph, error) {
	nameVal, ok := input.Get("name")
	if !ok || nameVal.Kind() != canonicaljson.KindString {
		return nil, errs.New(errs.KindInvalidArgument, "dataset.name.missing", "dataset input requires a string `name`")
	}
	name := nameVal.String()

	filesVal, ok := input.Get("files")
	if !ok || filesVal.Kind() != canonicaljson.KindArray {
		return nil, errs.New(errs.KindInvalidArgument, "dataset.files.missing", "dataset input requires a `files` array")
	}

	entries := make([]fileEntry, 0, len(filesVal.Array()))
	for _, fv := range filesVal.Array() {
		if fv.Kind() != canonicaljson.KindObject {
			return nil, errs.New(errs.KindInvalidArgument, "dataset.file.malformed", "each file entry must be an object")
		}
		pathVal, ok := fv.Get("path")
		if !ok || pathVal.Kind() != canonicaljson.KindString {
			return nil, errs.New(errs.KindInvalidArgument, "dataset.file.path.missing", "file entry missing string `path`")
		}
		// NFC-normalize the path before it becomes a business key or a leaf
		// payload: HFS+ stores filenames in NFD, so the same logical path
		// read back from two different filesystems can arrive as two
		// different byte sequences. Leaving that difference in would make
		// the fingerprint host-dependent, which §5's determinism guarantee
		// forbids.
		path := norm.NFC.String(pathVal.String())

		entry := fileEntry{path: path}
		if bytesVal, ok := fv.Get("bytes"); ok && bytesVal.Kind() == canonicaljson.KindString {
			raw, err := base64.StdEncoding.DecodeString(bytesVal.String())
			if err != nil {
				return nil, errs.Wrap(errs.KindInvalidArgument, "dataset.file.bytes.invalid_base64", "file `bytes` is not valid base64", err)
			}
			entry.size = int64(len(raw))
			entry.sha256 = hashing.HashHex(raw)
		} else {
			if sizeVal, ok := fv.Get("size"); ok && sizeVal.Kind() == canonicaljson.KindInt {
				entry.size = sizeVal.Int()
			}
			if shaVal, ok := fv.Get("sha256"); ok && shaVal.Kind() == canonicaljson.KindString {
				entry.sha256 = shaVal.String()
			}
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })

	var fp strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&fp, "%s\t%d\t%s\n", e.path, e.size, e.sha256)
	}
	fingerprint := hashing.HashHex([]byte(fp.String()))

	b := ir.NewBuilder()
	rootDigests := []string{fingerprint}
	if p.EmitMerkleRoot {
		// Entries are already sorted by path above; §4.E.1's per-file Merkle
		// root uses the literal payload `path\nsha256\nsize`, not ProofV1's
		// `key=value` leaf convention, so it is built from raw payloads.
		payloads := make([][]byte, len(entries))
		for i, e := range entries {
			payloads[i] = []byte(fmt.Sprintf("%s\n%s\n%d", e.path, e.sha256, e.size))
		}
		tree, err := merkle.BuildFromPayloads(payloads)
		if err != nil {
			return nil, err
		}
		rootDigests = append(rootDigests, tree.RootHex())
	}

	b.AddNode(ir.PendingNode{
		Key:     name,
		Type:    "dataset",
		Name:    name,
		Digests: rootDigests,
	})
	for _, e := range entries {
		b.AddNode(ir.PendingNode{
			Key:  "file:" + e.path,
			Type: "file",
			Name: e.path,
			Attrs: ir.Attrs{
				{Key: "size", Value: canonicaljson.Int(e.size)},
			},
			Digests: []string{e.sha256},
		})
		b.AddEdge(ir.PendingEdge{
			Key:     "contains:" + name + ":" + e.path,
			Type:    "contains",
			FromKey: name,
			ToKey:   "file:" + e.path,
		})
	}

	return b.Build(ir.DefaultIDStrategy{})
}
