// Package inference implements the optional `run_inference` pass §4.H step
// 2 references: a pure IR -> IR transform. SIGNIA ships an identity
// rule-set by default (matching spec.md's stated fallback, §9's design
// note) and an optional CEL-backed RuleSet for hosts that want deterministic
// attribute derivation.
package inference

import "github.com/signia-project/signia/pkg/ir"

// RuleSet is a pure transform over an IR graph, applied node-by-node in the
// graph's canonical (type, key) traversal order so the result is a
// deterministic function of the graph alone.
type RuleSet interface {
	Apply(g *ir.Graph) (*ir.Graph, error)
}

// Identity is the default rule-set: it returns the graph unchanged. This is
// the rule-set `compile.Orchestrator` uses when a caller sets
// `run_inference` but supplies no RuleSet, per §9's open-question
// resolution.
type Identity struct{}

func (Identity) Apply(g *ir.Graph) (*ir.Graph, error) { return g, nil }
