package ir

import (
	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/model"
)

// EmitSchema traverses the graph in the fixed order §4.D specifies — nodes
// sorted by (type, key), edges sorted by (type, from_key, to_key, key) —
// and produces a SchemaV1 with stable entity/edge ids. Graph.Nodes and
// Graph.Edges already return their slices in this order; EmitSchema's job
// is purely the IR-to-wire-model conversion.
func EmitSchema(g *Graph, kind string, meta canonicaljson.Value) model.SchemaV1 {
	nodes := g.Nodes()
	entities := make([]model.EntityV1, len(nodes))
	for i, n := range nodes {
		entities[i] = model.EntityV1{
			ID:      n.ID,
			Key:     n.Key,
			Type:    n.Type,
			Name:    n.Name,
			Attrs:   attrsToValue(n.Attrs),
			Digests: n.Digests,
		}
	}

	edges := g.Edges()
	edgeModels := make([]model.EdgeV1, len(edges))
	for i, e := range edges {
		edgeModels[i] = model.EdgeV1{
			ID:    e.ID,
			Key:   e.Key,
			Type:  e.Type,
			From:  e.From,
			To:    e.To,
			Attrs: attrsToValue(e.Attrs),
		}
	}

	return model.SchemaV1{
		Version:  "v1",
		Kind:     kind,
		Meta:     meta,
		Entities: entities,
		Edges:    edgeModels,
	}
}

func attrsToValue(a Attrs) canonicaljson.Value {
	members := make([]canonicaljson.Member, len(a))
	for i, e := range a {
		members[i] = canonicaljson.Member{Key: e.Key, Value: e.Value}
	}
	return canonicaljson.Object(members...)
}
