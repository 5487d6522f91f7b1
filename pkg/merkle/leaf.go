package merkle

import (
	"sort"
	"strings"

	"github.com/signia-project/signia/pkg/errs"
)

// Leaf is a single committed (key, value) pair. Key must not contain '='
// per the specification's design notes §9: the wire payload is the literal
// `<key>=<value>` byte string, and a key containing '=' would make that
// payload ambiguous to parse back apart. SIGNIA resolves the spec's open
// question by rejecting such keys outright rather than guessing an escaping
// scheme the source material never defined.
type Leaf struct {
	Key   string
	Value string
}

// Payload returns the literal UTF-8 byte string `<key>=<value>` that is
// hashed to produce the leaf's commitment, per §3/§4.C.
func (l Leaf) Payload() ([]byte, error) {
	if strings.Contains(l.Key, "=") {
		return nil, errs.New(errs.KindInvalidArgument, "merkle.leaf.key.equals", "leaf key must not contain '='")
	}
	return []byte(l.Key + "=" + l.Value), nil
}

// SortLeaves returns a copy of leaves sorted by key, byte-lexicographic
// ascending, per §3's ProofV1.leaves ordering rule.
func SortLeaves(leaves []Leaf) []Leaf {
	out := make([]Leaf, len(leaves))
	copy(out, leaves)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
