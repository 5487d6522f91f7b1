// Package plugin implements §4.E's kind detection and plugin dispatch
// surface: a deterministic classifier over a canonical JSON input, and a
// registry that routes a detected kind to the unique plugin declaring
// support for it.
//
// Grounded on the teacher's pkg/registry/registry.go: a mutex-guarded map
// keyed by name, with Register/Get/List — the same shape this package uses
// for its plugin Registry, rewritten around the specification's "ordered by
// plugin id, refuse on capability mismatch" dispatch rule instead of HELM's
// canary-rollout bundle registry.
package plugin

import (
	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/ir"
)

// Kind is a source archetype, per the glossary.
type Kind string

const (
	KindRepo     Kind = "repo"
	KindDataset  Kind = "dataset"
	KindWorkflow Kind = "workflow"
	KindOpenAPI  Kind = "openapi"
	KindUnknown  Kind = "UnknownKind"
)

// Wants declares the ambient capabilities a plugin needs from its host, per
// §4.E. The core's built-in plugins want nothing; DetectKind and the
// registry still carry the field so a WASM-sandboxed third-party plugin
// (adapters/wasmplugin) can declare and be checked against it.
type Wants struct {
	Network    bool
	Filesystem bool
	Clock      bool
	Spawn      bool
}

// Satisfies reports whether host capabilities cover w.
func (w Wants) Satisfies(host Wants) bool {
	if w.Network && !host.Network {
		return false
	}
	if w.Filesystem && !host.Filesystem {
		return false
	}
	if w.Clock && !host.Clock {
		return false
	}
	if w.Spawn && !host.Spawn {
		return false
	}
	return true
}

// Limits bounds what a plugin may allocate while building IR, per §5.
type Limits struct {
	MaxNodes int
	MaxEdges int
	MaxBytes int64
}

// Context is the ambient, no-I/O environment passed to a plugin, per §4.F's
// pipeline context shape restated for plugin construction: a clock value
// already resolved by the caller (never read live), string and JSON
// parameters, and the limits the host will enforce.
type Context struct {
	NowISO8601 string
	Params     map[string]string
	JSONParams map[string]canonicaljson.Value
	Limits     Limits
}

// Plugin builds an IR graph from an already-materialized canonical JSON
// input. Implementations must be pure: no I/O, no time, no randomness
// beyond what Context supplies, per §4.E.
type Plugin interface {
	ID() string
	Supports() []Kind
	Wants() Wants
	Build(ctx Context, input canonicaljson.Value) (*ir.Graph, error)
}
