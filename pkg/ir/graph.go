// Package ir implements the typed intermediate representation graph
// described in §3/§4.D: a pair (Nodes, Edges) with stable identity
// assignment, produced by plugins and consumed by schema emission.
//
// Grounded on the teacher's pkg/proofgraph (graph.go/node.go): the
// map-backed, mutex-guarded store keyed by a content hash is the same shape
// HELM's ProofGraph uses for its DAG of evidence nodes. SIGNIA's IR is a
// different structure — a general node/edge graph rather than a hash-linked
// append-only chain — so the id scheme, invariants, and traversal order are
// rewritten from spec.md rather than carried over, but the "small struct +
// map + RWMutex" shape of the store is the same idiom.
package ir

import (
	"fmt"
	"sort"
	"sync"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/errs"
)

// Attr is one ordered (string -> canonical JSON) attribute entry. Using a
// slice rather than a map keeps "ordered attribute mapping" (§3) explicit
// instead of relying on incidental map iteration order.
type Attr struct {
	Key   string
	Value canonicaljson.Value
}

type Attrs []Attr

// Get returns the first attribute matching key.
func (a Attrs) Get(key string) (canonicaljson.Value, bool) {
	for _, e := range a {
		if e.Key == key {
			return e.Value, true
		}
	}
	return canonicaljson.Value{}, false
}

// Provenance records where a node or edge came from. All fields are
// optional; the zero value means "no provenance recorded".
type Provenance struct {
	Source  string
	Locator string
}

// Node is a single vertex: a stable identity (ID), a stable business Key,
// a Type tag, a display Name, attributes, zero-or-more content digests
// (hex SHA-256), optional Provenance, and accumulated Diagnostics.
type Node struct {
	ID          string
	Key         string
	Type        string
	Name        string
	Attrs       Attrs
	Digests     []string
	Provenance  *Provenance
	Diagnostics []errs.Diagnostic
}

// Edge is a single directed connection between two node ids.
type Edge struct {
	ID          string
	Key         string
	Type        string
	From        string
	To          string
	Attrs       Attrs
	Provenance  *Provenance
	Diagnostics []errs.Diagnostic
}

// Graph is an in-memory IR graph. It owns its node and edge collections
// exclusively (§9's ownership note): callers get copies from Nodes/Edges,
// never the live internal slices.
type Graph struct {
	mu            sync.RWMutex
	nodes         map[string]*Node
	edges         map[string]*Edge
	selfEdgeTypes map[string]bool
}

// NewGraph creates an empty graph. selfEdgeTypes names the edge Types for
// which an edge referencing the same node as both From and To is permitted
// (§3's invariant: "no edge references itself unless the edge type
// permits").
func NewGraph(selfEdgeTypes ...string) *Graph {
	allowed := make(map[string]bool, len(selfEdgeTypes))
	for _, t := range selfEdgeTypes {
		allowed[t] = true
	}
	return &Graph{
		nodes:         make(map[string]*Node),
		edges:         make(map[string]*Edge),
		selfEdgeTypes: allowed,
	}
}

// AddNode inserts a node with an already-assigned ID, failing with
// DuplicateId on collision.
func (g *Graph) AddNode(n Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n.ID == "" {
		return errs.New(errs.KindInvalidArgument, "ir.node.id.empty", "node id must not be empty")
	}
	if _, exists := g.nodes[n.ID]; exists {
		return errs.New(errs.KindInvariant, "ir.node.id.duplicate", fmt.Sprintf("duplicate node id %q", n.ID))
	}
	cp := n
	g.nodes[n.ID] = &cp
	return nil
}

// AddEdge inserts an edge with an already-assigned ID, failing with
// DuplicateId on collision or DanglingEdge when an endpoint is unknown.
func (g *Graph) AddEdge(e Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e.ID == "" {
		return errs.New(errs.KindInvalidArgument, "ir.edge.id.empty", "edge id must not be empty")
	}
	if _, exists := g.edges[e.ID]; exists {
		return errs.New(errs.KindInvariant, "ir.edge.id.duplicate", fmt.Sprintf("duplicate edge id %q", e.ID))
	}
	if _, ok := g.nodes[e.From]; !ok {
		return errs.New(errs.KindInvariant, "ir.edge.dangling", fmt.Sprintf("edge %q references unknown from-node %q", e.ID, e.From))
	}
	if _, ok := g.nodes[e.To]; !ok {
		return errs.New(errs.KindInvariant, "ir.edge.dangling", fmt.Sprintf("edge %q references unknown to-node %q", e.ID, e.To))
	}
	if e.From == e.To && !g.selfEdgeTypes[e.Type] {
		return errs.New(errs.KindInvariant, "ir.edge.self_reference", fmt.Sprintf("edge %q of type %q may not reference itself", e.ID, e.Type))
	}
	cp := e
	g.edges[e.ID] = &cp
	return nil
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// NodeCount and EdgeCount support §4.H's max_nodes/max_edges limit checks
// without requiring the caller to materialize the full slice.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Nodes returns all nodes sorted by (Type, Key, ID) — the traversal order
// §4.D specifies for schema emission.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		return a.ID < b.ID
	})
	return out
}

// Edges returns all edges sorted by (Type, fromKey, toKey, Key) per §4.D,
// where fromKey/toKey are the business keys of the endpoint nodes.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, *e)
	}
	fromKey := func(e Edge) string { return g.nodes[e.From].Key }
	toKey := func(e Edge) string { return g.nodes[e.To].Key }
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if fk1, fk2 := fromKey(a), fromKey(b); fk1 != fk2 {
			return fk1 < fk2
		}
		if tk1, tk2 := toKey(a), toKey(b); tk1 != tk2 {
			return tk1 < tk2
		}
		return a.Key < b.Key
	})
	return out
}
