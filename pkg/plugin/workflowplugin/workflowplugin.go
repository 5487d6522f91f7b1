// Package workflowplugin implements the built-in workflow IR producer
// described in §4.E.1: node/edge validation, stable sort of nodes by id and
// edges by (from, to, kind, label), a workflow fingerprint over a tabular
// text form. This package also owns scenario S4's literal error codes.
package workflowplugin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/hashing"
	"github.com/signia-project/signia/pkg/ir"
	"github.com/signia-project/signia/pkg/plugin"
)

const ID = "signia.workflow"

// Plugin is the built-in workflow IR producer.
type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) ID() string              { return ID }
func (p *Plugin) Supports() []plugin.Kind { return []plugin.Kind{plugin.KindWorkflow} }
func (p *Plugin) Wants() plugin.Wants     { return plugin.Wants{} }

type wfNode struct {
	id   string
	typ  string
	meta canonicaljson.Value
}

type wfEdge struct {
	from, to, kind, label string
}

var validEdgeKinds = map[string]bool{"data": true, "control": true, "event": true}

// Build implements plugin.Plugin.
func (p *Plugin) Build(ctx plugin.Context, input canonicaljson.Value) (*ir.Graph, error) {
	nameVal, ok := input.Get("name")
	if !ok || nameVal.Kind() != canonicaljson.KindString {
		return nil, errs.New(errs.KindInvalidArgument, "workflow.name.missing", "workflow input requires a string `name`")
	}
	name := nameVal.String()

	nodesVal, ok := input.Get("nodes")
	if !ok || nodesVal.Kind() != canonicaljson.KindArray {
		return nil, errs.New(errs.KindInvalidArgument, "workflow.nodes.missing", "workflow input requires a `nodes` array")
	}
	edgesVal, ok := input.Get("edges")
	if !ok || edgesVal.Kind() != canonicaljson.KindArray {
		return nil, errs.New(errs.KindInvalidArgument, "workflow.edges.missing", "workflow input requires an `edges` array")
	}

	nodes := make([]wfNode, 0, len(nodesVal.Array()))
	seenIDs := make(map[string]bool)
	for _, nv := range nodesVal.Array() {
		idVal, ok := nv.Get("id")
		if !ok || idVal.Kind() != canonicaljson.KindString {
			return nil, errs.New(errs.KindInvalidArgument, "workflow.node.id.missing", "workflow node missing string `id`")
		}
		id := idVal.String()
		if seenIDs[id] {
			return nil, errs.New(errs.KindInvalidArgument, "workflow.node.id.duplicate", fmt.Sprintf("duplicate workflow node id %q", id))
		}
		seenIDs[id] = true

		typeVal, ok := nv.Get("type")
		if !ok || typeVal.Kind() != canonicaljson.KindString {
			return nil, errs.New(errs.KindInvalidArgument, "workflow.node.type.missing", fmt.Sprintf("workflow node %q missing string `type`", id))
		}
		meta, _ := nv.Get("meta")
		nodes = append(nodes, wfNode{id: id, typ: typeVal.String(), meta: meta})
	}

	edges := make([]wfEdge, 0, len(edgesVal.Array()))
	for _, ev := range edgesVal.Array() {
		fromVal, ok := ev.Get("from")
		if !ok || fromVal.Kind() != canonicaljson.KindString {
			return nil, errs.New(errs.KindInvalidArgument, "workflow.edge.from.missing", "workflow edge missing string `from`")
		}
		toVal, ok := ev.Get("to")
		if !ok || toVal.Kind() != canonicaljson.KindString {
			return nil, errs.New(errs.KindInvalidArgument, "workflow.edge.to.missing", "workflow edge missing string `to`")
		}
		kindVal, ok := ev.Get("kind")
		if !ok || kindVal.Kind() != canonicaljson.KindString || !validEdgeKinds[kindVal.String()] {
			return nil, errs.New(errs.KindInvalidArgument, "workflow.edge.kind.invalid", "workflow edge `kind` must be one of data, control, event")
		}
		label := ""
		if labelVal, ok := ev.Get("label"); ok && labelVal.Kind() == canonicaljson.KindString {
			label = labelVal.String()
		}
		from, to := fromVal.String(), toVal.String()
		if !seenIDs[from] {
			return nil, errs.New(errs.KindInvalidArgument, "workflow.edge.from.unresolved", fmt.Sprintf("edge references unknown node %q", from))
		}
		if !seenIDs[to] {
			return nil, errs.New(errs.KindInvalidArgument, "workflow.edge.to.unresolved", fmt.Sprintf("edge references unknown node %q", to))
		}
		edges = append(edges, wfEdge{from: from, to: to, kind: kindVal.String(), label: label})
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].id < nodes[j].id })
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.from != b.from {
			return a.from < b.from
		}
		if a.to != b.to {
			return a.to < b.to
		}
		if a.kind != b.kind {
			return a.kind < b.kind
		}
		return a.label < b.label
	})

	var fp strings.Builder
	for _, n := range nodes {
		fmt.Fprintf(&fp, "node\t%s\t%s\n", n.id, n.typ)
	}
	for _, e := range edges {
		fmt.Fprintf(&fp, "edge\t%s\t%s\t%s\t%s\n", e.from, e.to, e.kind, e.label)
	}
	fingerprint := hashing.HashHex([]byte(fp.String()))

	b := ir.NewBuilder("control")
	b.AddNode(ir.PendingNode{Key: name, Type: "workflow", Name: name, Digests: []string{fingerprint}})
	for _, n := range nodes {
		var attrs ir.Attrs
		if n.meta.Kind() == canonicaljson.KindObject {
			for _, m := range n.meta.Members() {
				attrs = append(attrs, ir.Attr{Key: m.Key, Value: m.Value})
			}
		}
		b.AddNode(ir.PendingNode{Key: "node:" + n.id, Type: n.typ, Name: n.id, Attrs: attrs})
		b.AddEdge(ir.PendingEdge{
			Key:     "member:" + name + ":" + n.id,
			Type:    "member",
			FromKey: name,
			ToKey:   "node:" + n.id,
		})
	}
	for _, e := range edges {
		b.AddEdge(ir.PendingEdge{
			Key:     fmt.Sprintf("%s:%s->%s:%s", e.kind, e.from, e.to, e.label),
			Type:    e.kind,
			FromKey: "node:" + e.from,
			ToKey:   "node:" + e.to,
		})
	}

	return b.Build(ir.DefaultIDStrategy{})
}
