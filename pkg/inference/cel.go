package inference

import (
	"sort"

	"github.com/google/cel-go/cel"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/ir"
)

// Rule is one compiled CEL program that derives a single attribute from a
// node's existing `attrs`, `type`, and `key`.
type Rule struct {
	// Attr is the attribute key the rule's result is stored under.
	Attr    string
	program cel.Program
}

// CELRuleSet evaluates a fixed, compiled-once set of Rules against every
// node in a graph, in (type, key) order — the same order §4.D already
// mandates for schema emission, so the result does not depend on host or
// insertion order.
type CELRuleSet struct {
	rules []Rule
}

// NewCELRuleSet compiles each (attr, expression) pair once. Expressions see
// three read-only CEL variables: `type` (string), `key` (string), and
// `attrs` (a map of the node's existing attribute values, JSON-shaped).
// Compilation failures are returned immediately; nothing is compiled lazily
// at Apply time.
func NewCELRuleSet(rules map[string]string) (*CELRuleSet, error) {
	env, err := cel.NewEnv(
		cel.Variable("type", cel.StringType),
		cel.Variable("key", cel.StringType),
		cel.Variable("attrs", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidArgument, "inference.cel.env", "failed to construct CEL environment", err)
	}

	compiled := make([]Rule, 0, len(rules))
	for attr, expr := range rules {
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, errs.Wrap(errs.KindInvalidArgument, "inference.cel.compile", "failed to compile rule for attr "+attr, issues.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, errs.Wrap(errs.KindInvalidArgument, "inference.cel.program", "failed to build program for attr "+attr, err)
		}
		compiled = append(compiled, Rule{Attr: attr, program: prg})
	}
	// Rules are stored sorted by attr name so that Go's randomized map
	// iteration over the caller's `rules` argument never leaks into which
	// derived attribute is appended first.
	sort.Slice(compiled, func(i, j int) bool { return compiled[i].Attr < compiled[j].Attr })

	return &CELRuleSet{rules: compiled}, nil
}

// Apply runs every compiled rule against every node, in the graph's
// canonical traversal order, appending each rule's result as a new
// attribute (overwriting an existing attribute of the same key).
func (rs *CELRuleSet) Apply(g *ir.Graph) (*ir.Graph, error) {
	result := ir.NewGraph()
	for _, n := range g.Nodes() {
		attrsMap := make(map[string]any, len(n.Attrs))
		for _, a := range n.Attrs {
			attrsMap[a.Key] = valueToCEL(a.Value)
		}

		newAttrs := make(ir.Attrs, len(n.Attrs))
		copy(newAttrs, n.Attrs)
		for _, rule := range rs.rules {
			val, _, err := rule.program.Eval(map[string]any{
				"type":  n.Type,
				"key":   n.Key,
				"attrs": attrsMap,
			})
			if err != nil {
				return nil, errs.Wrap(errs.KindInvariant, "inference.cel.eval", "rule evaluation failed for attr "+rule.Attr, err)
			}
			cv, err := canonicaljson.FromAny(val.Value())
			if err != nil {
				return nil, errs.Wrap(errs.KindSerialization, "inference.cel.result", "rule result for attr "+rule.Attr+" is not canonically representable", err)
			}
			newAttrs = setAttr(newAttrs, rule.Attr, cv)
		}
		n.Attrs = newAttrs
		if err := result.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, e := range g.Edges() {
		if err := result.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func setAttr(attrs ir.Attrs, key string, value canonicaljson.Value) ir.Attrs {
	for i, a := range attrs {
		if a.Key == key {
			attrs[i].Value = value
			return attrs
		}
	}
	return append(attrs, ir.Attr{Key: key, Value: value})
}

func valueToCEL(v canonicaljson.Value) any {
	switch v.Kind() {
	case canonicaljson.KindNull:
		return nil
	case canonicaljson.KindBool:
		return v.Bool()
	case canonicaljson.KindInt:
		return v.Int()
	case canonicaljson.KindString:
		return v.String()
	case canonicaljson.KindArray:
		out := make([]any, 0, len(v.Array()))
		for _, e := range v.Array() {
			out = append(out, valueToCEL(e))
		}
		return out
	case canonicaljson.KindObject:
		out := make(map[string]any, len(v.Members()))
		for _, m := range v.Members() {
			out[m.Key] = valueToCEL(m.Value)
		}
		return out
	default:
		return nil
	}
}
