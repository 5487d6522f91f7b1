// Package merkle implements the commitment layer described in §4.C: leaf and
// node hashing with domain separation, bottom-up tree construction with
// odd-level duplication, and inclusion proof generation/verification.
//
// Grounded on the teacher's pkg/merkle (tree.go/proof.go): the bottom-up
// pairwise reduction with last-element duplication, and the side-tagged
// proof-step representation, both carry over directly. What changes is the
// domain-separation mechanism (routed through pkg/hashing's fixed labels
// instead of ad hoc string prefixes) and the empty-tree and all-leaves proof
// behavior the specification adds.
package merkle

import (
	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/hashing"
)

// Tree is a built Merkle tree over an ordered sequence of leaves.
type Tree struct {
	leaves [][32]byte   // leaf hashes, in the order supplied
	levels [][][32]byte // levels[0] == leaves; each subsequent level is half the size (rounded up)
	root   [32]byte
}

// LeafHash computes H_leaf(payload) = sha256("signia.v1.merkle.leaf" || payload).
func LeafHash(payload []byte) [32]byte {
	return hashing.DomainSep(hashing.LabelMerkleLeaf, payload)
}

// NodeHash computes H_node(L,R) = sha256("signia.v1.merkle.node" || L || R).
func NodeHash(left, right [32]byte) [32]byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return hashing.DomainSep(hashing.LabelMerkleNode, buf)
}

// EmptyRoot is the deterministic sentinel root of a tree with no leaves:
// sha256("signia.v1.merkle.leaf") over the empty payload, per §4.C.
func EmptyRoot() [32]byte {
	return LeafHash(nil)
}

// Build constructs a tree from leaves in the order given. The tree does not
// re-sort — callers (the compile orchestrator, via ProofV1's ordering rule)
// are responsible for supplying leaves in the order they want committed.
func Build(leaves []Leaf) (*Tree, error) {
	if len(leaves) == 0 {
		return &Tree{root: EmptyRoot()}, nil
	}

	leafHashes := make([][32]byte, len(leaves))
	for i, l := range leaves {
		payload, err := l.Payload()
		if err != nil {
			return nil, err
		}
		leafHashes[i] = LeafHash(payload)
	}

	t := &Tree{leaves: leafHashes, levels: [][][32]byte{leafHashes}}
	current := leafHashes
	for len(current) > 1 {
		current = nextLevel(current)
		t.levels = append(t.levels, current)
	}
	t.root = current[0]
	return t, nil
}

// BuildFromPayloads constructs a tree directly from raw leaf payloads, in
// the order given, bypassing the `<key>=<value>` convention Leaf.Payload
// applies. Plugin-internal commitments whose payload format the
// specification fixes independently of ProofV1's leaf encoding (§4.E.1's
// dataset per-file Merkle root, whose payload is the literal
// `path\nsha256\nsize`) use this instead of Build.
func BuildFromPayloads(payloads [][]byte) (*Tree, error) {
	if len(payloads) == 0 {
		return &Tree{root: EmptyRoot()}, nil
	}
	leafHashes := make([][32]byte, len(payloads))
	for i, p := range payloads {
		leafHashes[i] = LeafHash(p)
	}
	t := &Tree{leaves: leafHashes, levels: [][][32]byte{leafHashes}}
	current := leafHashes
	for len(current) > 1 {
		current = nextLevel(current)
		t.levels = append(t.levels, current)
	}
	t.root = current[0]
	return t, nil
}

func nextLevel(level [][32]byte) [][32]byte {
	n := len(level)
	if n%2 != 0 {
		level = append(level, level[n-1])
		n++
	}
	next := make([][32]byte, n/2)
	for i := 0; i < n; i += 2 {
		next[i/2] = NodeHash(level[i], level[i+1])
	}
	return next
}

// Root returns the tree's root hash, raw bytes.
func (t *Tree) Root() [32]byte { return t.root }

// RootHex returns the tree's root hash, hex-encoded.
func (t *Tree) RootHex() string { return hashing.EncodeHex(t.root[:]) }

// Len returns the number of leaves the tree was built from.
func (t *Tree) Len() int { return len(t.leaves) }

// Step is one level of an inclusion proof: the sibling hash and which side
// of the current node it sits on.
type Step struct {
	Side    Side
	Sibling [32]byte
}

// Side is "left" or "right", per §4.C.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Prove returns the inclusion proof for leaf index i: the sequence of
// sibling hashes from the leaf level up to the root, tagged with the side
// each sibling sits on. Length equals the tree's height.
func (t *Tree) Prove(i int) ([]Step, error) {
	if i < 0 || i >= len(t.leaves) {
		return nil, errs.New(errs.KindInvalidArgument, "merkle.proof.index.range", "leaf index out of range")
	}
	var steps []Step
	idx := i
	for level := 0; level < len(t.levels)-1; level++ {
		cur := t.levels[level]
		var siblingIdx int
		var side Side
		if idx%2 == 0 {
			siblingIdx = idx + 1
			side = SideRight
		} else {
			siblingIdx = idx - 1
			side = SideLeft
		}
		if siblingIdx >= len(cur) {
			siblingIdx = idx // duplicated-last-element level: sibling is itself
		}
		steps = append(steps, Step{Side: side, Sibling: cur[siblingIdx]})
		idx /= 2
	}
	return steps, nil
}

// ProveAll returns the inclusion proof of every leaf, in leaf order. It calls
// Prove once per leaf against the tree's stored level arrays, so the tree is
// never rebuilt; each proof costs O(height).
func (t *Tree) ProveAll() ([][]Step, error) {
	out := make([][]Step, len(t.leaves))
	for i := range t.leaves {
		steps, err := t.Prove(i)
		if err != nil {
			return nil, err
		}
		out[i] = steps
	}
	return out, nil
}

// Verify folds siblings starting from leafHash and checks the result equals
// root, per §4.C's verification rule.
func Verify(leafHash [32]byte, steps []Step, root [32]byte) bool {
	current := leafHash
	for _, s := range steps {
		switch s.Side {
		case SideLeft:
			current = NodeHash(s.Sibling, current)
		case SideRight:
			current = NodeHash(current, s.Sibling)
		default:
			return false
		}
	}
	return current == root
}
