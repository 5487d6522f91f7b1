// Package openapiplugin implements the built-in OpenAPI IR producer
// described in §4.E.1: a service root, one node per path, one child
// operation node per HTTP method, schema nodes lifted from
// `components.schemas`, and `references` edges from operations to the
// schemas their request/response bodies name.
package openapiplugin

import (
	"sort"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/ir"
	"github.com/signia-project/signia/pkg/plugin"
)

const ID = "signia.openapi"

var httpMethods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// Plugin is the built-in OpenAPI IR producer.
type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) ID() string              { return ID }
func (p *Plugin) Supports() []plugin.Kind { return []plugin.Kind{plugin.KindOpenAPI} }
func (p *Plugin) Wants() plugin.Wants     { return plugin.Wants{} }

// Build implements plugin.Plugin.
func (p *Plugin) Build(ctx plugin.Context, input canonicaljson.Value) (*ir.Graph, error) {
	version, err := specVersion(input)
	if err != nil {
		return nil, err
	}

	title := version
	if info, ok := input.Get("info"); ok && info.Kind() == canonicaljson.KindObject {
		if t, ok := info.Get("title"); ok && t.Kind() == canonicaljson.KindString {
			title = t.String()
		}
	}

	pathsVal, ok := input.Get("paths")
	if !ok || pathsVal.Kind() != canonicaljson.KindObject {
		return nil, errs.New(errs.KindInvalidArgument, "openapi.paths.missing", "openapi input requires a `paths` object")
	}

	b := ir.NewBuilder()
	b.AddNode(ir.PendingNode{Key: "service", Type: "service", Name: title})

	pathKeys := sortedMemberKeys(pathsVal)
	for _, pathKey := range pathKeys {
		pathVal, _ := pathsVal.Get(pathKey)
		b.AddNode(ir.PendingNode{Key: "path:" + pathKey, Type: "path", Name: pathKey})
		b.AddEdge(ir.PendingEdge{Key: "has_path:" + pathKey, Type: "has_path", FromKey: "service", ToKey: "path:" + pathKey})

		if pathVal.Kind() != canonicaljson.KindObject {
			continue
		}
		for _, method := range httpMethods {
			opVal, ok := pathVal.Get(method)
			if !ok || opVal.Kind() != canonicaljson.KindObject {
				continue
			}
			opKey := "operation:" + pathKey + ":" + method
			b.AddNode(ir.PendingNode{Key: opKey, Type: "operation", Name: method + " " + pathKey})
			b.AddEdge(ir.PendingEdge{Key: "has_operation:" + opKey, Type: "has_operation", FromKey: "path:" + pathKey, ToKey: opKey})

			for _, ref := range collectSchemaRefs(opVal) {
				b.AddEdge(ir.PendingEdge{
					Key:     "references:" + opKey + ":" + ref,
					Type:    "references",
					FromKey: opKey,
					ToKey:   "schema:" + ref,
				})
			}
		}
	}

	if components, ok := input.Get("components"); ok && components.Kind() == canonicaljson.KindObject {
		if schemas, ok := components.Get("schemas"); ok && schemas.Kind() == canonicaljson.KindObject {
			for _, name := range sortedMemberKeys(schemas) {
				b.AddNode(ir.PendingNode{Key: "schema:" + name, Type: "schema", Name: name})
				b.AddEdge(ir.PendingEdge{Key: "defines:" + name, Type: "defines", FromKey: "service", ToKey: "schema:" + name})
			}
		}
	}

	return b.Build(ir.DefaultIDStrategy{})
}

func specVersion(input canonicaljson.Value) (string, error) {
	if v, ok := input.Get("openapi"); ok && v.Kind() == canonicaljson.KindString {
		return v.String(), nil
	}
	if v, ok := input.Get("swagger"); ok && v.Kind() == canonicaljson.KindString {
		return v.String(), nil
	}
	return "", errs.New(errs.KindInvalidArgument, "openapi.version.missing", "openapi input requires `openapi` or `swagger` string")
}

func sortedMemberKeys(v canonicaljson.Value) []string {
	members := v.Members()
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = m.Key
	}
	sort.Strings(keys)
	return keys
}

// collectSchemaRefs walks an operation's requestBody and responses for
// `$ref: "#/components/schemas/<Name>"` strings.
func collectSchemaRefs(op canonicaljson.Value) []string {
	var refs []string
	var walk func(v canonicaljson.Value)
	walk = func(v canonicaljson.Value) {
		switch v.Kind() {
		case canonicaljson.KindString:
			const prefix = "#/components/schemas/"
			s := v.String()
			if len(s) > len(prefix) && s[:len(prefix)] == prefix {
				refs = append(refs, s[len(prefix):])
			}
		case canonicaljson.KindArray:
			for _, e := range v.Array() {
				walk(e)
			}
		case canonicaljson.KindObject:
			for _, m := range v.Members() {
				walk(m.Value)
			}
		}
	}
	walk(op)
	sort.Strings(refs)
	return dedupe(refs)
}

func dedupe(ss []string) []string {
	if len(ss) == 0 {
		return ss
	}
	out := ss[:1]
	for _, s := range ss[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
