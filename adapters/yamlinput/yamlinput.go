// Package yamlinput lowers a YAML document into a canonicaljson.Value, so
// that plugins written against canonicaljson.Value can accept YAML input
// wherever a caller prefers it to JSON. This is the only place in the
// repository that imports gopkg.in/yaml.v3 — the core never does.
//
// Grounded on the teacher's core/pkg/config/profile_loader.go for how the
// codebase uses gopkg.in/yaml.v3 (Unmarshal into a Go value, errors wrapped
// with the field that failed). profile_loader.go decodes into a fixed
// struct; this package decodes into interface{} instead, since a kind
// detector working over canonicaljson.Value needs the shape of whatever
// document it is given, not a schema fixed at compile time. normalize walks
// the decoded tree twice over: it rewrites map[interface{}]interface{}
// nodes into map[string]interface{} (rejecting non-string keys, since
// canonical JSON objects key on strings only) and rewrites the two scalar
// shapes canonicaljson.FromAny does not know about — time.Time for YAML
// timestamps and []byte for !!binary scalars — into strings, before handing
// the result to FromAny.
package yamlinput

import (
	"encoding/base64"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/errs"
)

// ToCanonicalJSON parses a YAML document and converts it into a
// canonicaljson.Value.
func ToCanonicalJSON(doc []byte) (canonicaljson.Value, error) {
	var generic any
	if err := yaml.Unmarshal(doc, &generic); err != nil {
		return canonicaljson.Value{}, errs.Wrap(errs.KindSerialization, "yamlinput.parse.malformed", "malformed YAML", err)
	}

	normalized, err := normalize(generic)
	if err != nil {
		return canonicaljson.Value{}, err
	}

	cv, err := canonicaljson.FromAny(normalized)
	if err != nil {
		return canonicaljson.Value{}, errs.Wrap(errs.KindSerialization, "yamlinput.lower.failed", "failed to lower YAML document", err)
	}
	return cv, nil
}

// normalize rewrites a yaml.v3-decoded tree into the shapes
// canonicaljson.FromAny understands: map[interface{}]interface{} with
// string keys become map[string]interface{}, and the two scalar shapes
// FromAny has no case for — time.Time and []byte — become strings.
// Recursion follows maps and slices wherever either shape is nested.
func normalize(v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), nil
	case []byte:
		return base64.StdEncoding.EncodeToString(t), nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			nv, err := normalize(e)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			key, ok := k.(string)
			if !ok {
				return nil, errs.New(errs.KindInvalidArgument, "yamlinput.key.non_string", fmt.Sprintf("YAML mapping key %v is not a string", k))
			}
			nv, err := normalize(e)
			if err != nil {
				return nil, err
			}
			out[key] = nv
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			nv, err := normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	default:
		return v, nil
	}
}
