package canonicaljson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/signia-project/signia/pkg/errs"
)

// Parse decodes raw JSON bytes (canonical or not — this accepts any valid
// JSON document, not just already-canonical ones) into a Value, enforcing
// the same integer-only number rule Marshal enforces on the way out. It uses
// json.Decoder's token stream rather than decoding into interface{} so that
// duplicate object keys are detected during parsing instead of silently
// collapsing, which a map-based decode would do.
func Parse(data []byte, maxDepth int) (Value, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseValue(dec, 0, maxDepth)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, errs.New(errs.KindSerialization, "canonical.parse.trailing_data", "trailing data after JSON value")
	}
	return v, nil
}

func parseValue(dec *json.Decoder, depth, maxDepth int) (Value, error) {
	if depth > maxDepth {
		return Value{}, errs.New(errs.KindResourceLimit, "canonical.recursion.limit", fmt.Sprintf("recursion depth exceeds %d", maxDepth))
	}
	tok, err := dec.Token()
	if err != nil {
		return Value{}, errs.Wrap(errs.KindSerialization, "canonical.parse.malformed", "malformed JSON", err)
	}
	return parseToken(dec, tok, depth, maxDepth)
}

func parseToken(dec *json.Decoder, tok json.Token, depth, maxDepth int) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return Str(t), nil
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return Value{}, errs.New(errs.KindSerialization, "canonical.number.noninteger", fmt.Sprintf("number %s is not representable as an integer", t.String()))
		}
		return Int(i), nil
	case json.Delim:
		switch t {
		case '[':
			var arr []Value
			for dec.More() {
				ev, err := parseValue(dec, depth+1, maxDepth)
				if err != nil {
					return Value{}, err
				}
				arr = append(arr, ev)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, errs.Wrap(errs.KindSerialization, "canonical.parse.malformed", "unterminated array", err)
			}
			return ArraySlice(arr), nil
		case '{':
			var members []Member
			seen := map[string]bool{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, errs.Wrap(errs.KindSerialization, "canonical.parse.malformed", "malformed object key", err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, errs.New(errs.KindSerialization, "canonical.parse.malformed", "object key is not a string")
				}
				if seen[key] {
					return Value{}, errs.New(errs.KindSerialization, "canonical.object.duplicate_key", fmt.Sprintf("duplicate object key %q", key))
				}
				seen[key] = true
				val, err := parseValue(dec, depth+1, maxDepth)
				if err != nil {
					return Value{}, err
				}
				members = append(members, Member{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, errs.Wrap(errs.KindSerialization, "canonical.parse.malformed", "unterminated object", err)
			}
			return Object(members...), nil
		}
	}
	return Value{}, errs.New(errs.KindSerialization, "canonical.parse.malformed", "unexpected JSON token")
}
