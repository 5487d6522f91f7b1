package canonicaljson

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON lets a Value participate in ordinary encoding/json trees (the
// "file-exchange form" of §6.2-6.4, which is pretty-printable standard JSON;
// only the hash path goes through Marshal/canonical bytes). Object member
// order is preserved as stored, not sorted — callers that need the
// hashable form must call Marshal, not json.Marshal.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			eb, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(eb)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, m := range v.obj {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(m.Key)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := m.Value.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON builds a Value from an arbitrary encoding/json document,
// preserving object member order and rejecting non-integer floats the same
// way Parse does. It delegates to the same token-stream walk Parse uses, so
// a Value round-tripped through encoding/json still enforces the integer-only
// and no-duplicate-key rules.
func (v *Value) UnmarshalJSON(data []byte) error {
	val, err := Parse(data, DefaultMaxDepth)
	if err != nil {
		return err
	}
	*v = val
	return nil
}
