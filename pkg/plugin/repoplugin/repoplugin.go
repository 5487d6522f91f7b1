// Package repoplugin implements the built-in repo IR producer described in
// §4.E.1: a root node for the repository, one file node per path connected
// by `contains` edges, paths normalized and filtered by glob, file digests
// attached to their nodes.
package repoplugin

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/ir"
	"github.com/signia-project/signia/pkg/plugin"
)

const ID = "signia.repo"

// Plugin is the built-in repo IR producer.
type Plugin struct {
	// Include/Exclude are optional glob filters applied to normalized paths
	// before a file node is emitted. `*` matches within a path segment,
	// `**` matches across segments, per §4.E.1.
	Include []string
	Exclude []string
}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) ID() string              { return ID }
func (p *Plugin) Supports() []plugin.Kind { return []plugin.Kind{plugin.KindRepo} }
func (p *Plugin) Wants() plugin.Wants     { return plugin.Wants{} }

type fileEntry struct {
	path   string
	size   int64
	sha256 string
	mode   string
}

// Build implements plugin.Plugin.
func (p *Plugin) Build(ctx plugin.Context, input canonicaljson.Value) (*ir.Graph, error) {
	nameVal, ok := input.Get("name")
	if !ok || nameVal.Kind() != canonicaljson.KindString {
		return nil, errs.New(errs.KindInvalidArgument, "repo.name.missing", "repo input requires a string `name`")
	}
	name := nameVal.String()

	filesVal, ok := input.Get("files")
	if !ok || filesVal.Kind() != canonicaljson.KindArray {
		return nil, errs.New(errs.KindInvalidArgument, "repo.files.missing", "repo input requires a `files` array")
	}

	entries := make([]fileEntry, 0, len(filesVal.Array()))
	for _, fv := range filesVal.Array() {
		if fv.Kind() != canonicaljson.KindObject {
			return nil, errs.New(errs.KindInvalidArgument, "repo.file.malformed", "each file entry must be an object")
		}
		pathVal, ok := fv.Get("path")
		if !ok || pathVal.Kind() != canonicaljson.KindString {
			return nil, errs.New(errs.KindInvalidArgument, "repo.file.path.missing", "file entry missing string `path`")
		}
		normalized, err := normalizePath(pathVal.String())
		if err != nil {
			return nil, err
		}
		if !matchesFilters(normalized, p.Include, p.Exclude) {
			continue
		}

		entry := fileEntry{path: normalized}
		if sizeVal, ok := fv.Get("size"); ok && sizeVal.Kind() == canonicaljson.KindInt {
			entry.size = sizeVal.Int()
		}
		if shaVal, ok := fv.Get("sha256"); ok && shaVal.Kind() == canonicaljson.KindString {
			entry.sha256 = shaVal.String()
		}
		if modeVal, ok := fv.Get("mode"); ok && modeVal.Kind() == canonicaljson.KindString {
			entry.mode = modeVal.String()
		}
		if int64(len(entries))+1 > int64(ctx.Limits.MaxNodes) && ctx.Limits.MaxNodes > 0 {
			return nil, errs.New(errs.KindResourceLimit, "repo.max_nodes.exceeded", "file count exceeds max_nodes")
		}
		entries = append(entries, entry)
	}

	b := ir.NewBuilder()
	b.AddNode(ir.PendingNode{
		Key:  name,
		Type: "repo",
		Name: name,
	})
	for _, e := range entries {
		attrs := ir.Attrs{{Key: "size", Value: canonicaljson.Int(e.size)}}
		if e.mode != "" {
			attrs = append(attrs, ir.Attr{Key: "mode", Value: canonicaljson.Str(e.mode)})
		}
		var digests []string
		if e.sha256 != "" {
			digests = []string{e.sha256}
		}
		b.AddNode(ir.PendingNode{
			Key:     "file:" + e.path,
			Type:    "file",
			Name:    e.path,
			Attrs:   attrs,
			Digests: digests,
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

// normalizePath converts backslashes to `/`, collapses repeated `/`, strips
// a leading `./`, rejects any path containing a `..` segment, and
// NFC-normalizes the result so the same logical path materialized on an
// NFD-native filesystem (e.g. HFS+) hashes identically to its NFC form.
func normalizePath(path string) (string, error) {
	p := norm.NFC.String(strings.ReplaceAll(path, "\\", "/"))
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	p = strings.TrimPrefix(p, "./")
	segments := strings.Split(p, "/")
	for _, seg := range segments {
		if seg == ".." {
			return "", errs.New(errs.KindInvalidArgument, "repo.path.traversal", "path must not contain a `..` segment: "+path)
		}
	}
	return p, nil
}

// matchesFilters reports whether path is accepted by include/exclude globs.
// An empty include list accepts everything; exclude is checked after
// include and always wins.
func matchesFilters(path string, include, exclude []string) bool {
	if len(include) > 0 {
		matched := false
		for _, g := range include {
			if globMatch(g, path) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, g := range exclude {
		if globMatch(g, path) {
			return false
		}
	}
	return true
}

// globMatch implements `*` (within a segment) and `**` (across segments)
// glob matching over `/`-separated paths.
func globMatch(pattern, path string) bool {
	return globMatchSegments(strings.Split(pattern, "/"), strings.Split(path, "/"))
}

func globMatchSegments(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}
	head := pattern[0]
	if head == "**" {
		if len(pattern) == 1 {
			return true
		}
		for i := 0; i <= len(path); i++ {
			if globMatchSegments(pattern[1:], path[i:]) {
				return true
			}
		}
		return false
	}
	if len(path) == 0 {
		return false
	}
	if !segmentMatch(head, path[0]) {
		return false
	}
	return globMatchSegments(pattern[1:], path[1:])
}

func segmentMatch(pattern, segment string) bool {
	if pattern == "*" {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return pattern == segment
	}
	parts := strings.Split(pattern, "*")
	idx := 0
	for i, part := range parts {
		if part == "" {
			continue
		}
		pos := strings.Index(segment[idx:], part)
		if pos < 0 {
			return false
		}
		if i == 0 && pos != 0 {
			return false
		}
		idx += pos + len(part)
	}
	if last := parts[len(parts)-1]; last != "" {
		return strings.HasSuffix(segment, last)
	}
	return true
}
