package ir

import (
	"sort"
	"strconv"

	"github.com/signia-project/signia/pkg/errs"
)

// IDStrategy assigns stable ids to pending nodes and edges, given their
// position (ordinal) in a deterministic traversal order.
type IDStrategy interface {
	NodeID(ordinal int, n PendingNode) string
	EdgeID(ordinal int, e PendingEdge) string
}

// DefaultIDStrategy implements §4.D's rule: assign ids `n<ordinal>` and
// `e<ordinal>` where ordinal is the index in the sorted-by-key traversal.
// Because the traversal order is a pure function of the supplied keys, the
// resulting ids are a pure function of the input graph, not of the order
// nodes and edges happened to be appended in (§8 property 8).
type DefaultIDStrategy struct{}

func (DefaultIDStrategy) NodeID(ordinal int, _ PendingNode) string {
	return "n" + strconv.Itoa(ordinal)
}

func (DefaultIDStrategy) EdgeID(ordinal int, _ PendingEdge) string {
	return "e" + strconv.Itoa(ordinal)
}

// PendingNode is a node keyed only by its business key, not yet assigned an
// identity. Builder resolves identities at Build time.
type PendingNode struct {
	Key        string
	Type       string
	Name       string
	Attrs      Attrs
	Digests    []string
	Provenance *Provenance
}

// PendingEdge references its endpoints by the business keys of the nodes
// they connect, since at build time those nodes may not yet have ids.
type PendingEdge struct {
	Key        string
	Type       string
	FromKey    string
	ToKey      string
	Attrs      Attrs
	Provenance *Provenance
}

// Builder accumulates PendingNodes/PendingEdges from a plugin and resolves
// them into a concrete Graph with assigned ids in a single Build call.
type Builder struct {
	nodes         []PendingNode
	edges         []PendingEdge
	selfEdgeTypes map[string]bool
}

// NewBuilder creates an empty builder. selfEdgeTypes is forwarded to the
// resulting Graph's self-reference check.
func NewBuilder(selfEdgeTypes ...string) *Builder {
	return &Builder{selfEdgeTypes: stringSet(selfEdgeTypes)}
}

func stringSet(ss []string) map[string]bool {
	out := make(map[string]bool, len(ss))
	for _, s := range ss {
		out[s] = true
	}
	return out
}

func (b *Builder) AddNode(n PendingNode) { b.nodes = append(b.nodes, n) }
func (b *Builder) AddEdge(e PendingEdge) { b.edges = append(b.edges, e) }

// Build assigns ids via strategy and materializes a Graph, failing with
// DuplicateId if two pending nodes share a (type, key) pair (the strategy
// would otherwise silently alias them) or DanglingEdge if an edge names an
// unknown node key.
func (b *Builder) Build(strategy IDStrategy) (*Graph, error) {
	if strategy == nil {
		strategy = DefaultIDStrategy{}
	}

	sortedNodes := make([]PendingNode, len(b.nodes))
	copy(sortedNodes, b.nodes)
	sort.SliceStable(sortedNodes, func(i, j int) bool {
		if sortedNodes[i].Key != sortedNodes[j].Key {
			return sortedNodes[i].Key < sortedNodes[j].Key
		}
		return sortedNodes[i].Type < sortedNodes[j].Type
	})

	identities := make(map[string]bool, len(sortedNodes))
	keyToID := make(map[string]string, len(sortedNodes))
	g := NewGraph(keysOf(b.selfEdgeTypes)...)
	for ordinal, pn := range sortedNodes {
		id := strategy.NodeID(ordinal, pn)
		identity := nodeIdentity(pn.Type, pn.Key)
		if identities[identity] {
			return nil, errs.New(errs.KindInvariant, "ir.node.key.duplicate", "duplicate (type, key) pair: "+pn.Type+"/"+pn.Key)
		}
		identities[identity] = true
		// Edges reference a node by its business key alone, not (type, key);
		// the last-assigned id for a repeated key wins, which matches the
		// ordinary case of keys being unique across the nodes a given
		// plugin's edges actually target.
		keyToID[pn.Key] = id
		if err := g.AddNode(Node{
			ID:          id,
			Key:         pn.Key,
			Type:        pn.Type,
			Name:        pn.Name,
			Attrs:       pn.Attrs,
			Digests:     pn.Digests,
			Provenance:  pn.Provenance,
		}); err != nil {
			return nil, err
		}
	}

	sortedEdges := make([]PendingEdge, len(b.edges))
	copy(sortedEdges, b.edges)
	sort.SliceStable(sortedEdges, func(i, j int) bool {
		if sortedEdges[i].Key != sortedEdges[j].Key {
			return sortedEdges[i].Key < sortedEdges[j].Key
		}
		return sortedEdges[i].Type < sortedEdges[j].Type
	})

	for ordinal, pe := range sortedEdges {
		fromID, ok := keyToID[pe.FromKey]
		if !ok {
			return nil, errs.New(errs.KindInvariant, "ir.edge.dangling", "edge references unknown node key "+pe.FromKey)
		}
		toID, ok := keyToID[pe.ToKey]
		if !ok {
			return nil, errs.New(errs.KindInvariant, "ir.edge.dangling", "edge references unknown node key "+pe.ToKey)
		}
		id := strategy.EdgeID(ordinal, pe)
		if err := g.AddEdge(Edge{
			ID:          id,
			Key:         pe.Key,
			Type:        pe.Type,
			From:        fromID,
			To:          toID,
			Attrs:       pe.Attrs,
			Provenance:  pe.Provenance,
		}); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func nodeIdentity(typ, key string) string { return typ + "\x00" + key }

func keysOf(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
