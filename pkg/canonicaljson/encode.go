package canonicaljson

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/signia-project/signia/pkg/errs"
)

// DefaultMaxDepth bounds recursion when the caller does not configure one
// explicitly. It exists purely as a backstop against pathological input;
// ordinary schemas and manifests nest nowhere near this deep.
const DefaultMaxDepth = 64

// escapeTable per §4.A: the fixed set of short escapes, everything else
// control goes through \u00XX, everything non-ASCII is emitted literally as
// valid UTF-8.
var escapeTable = map[byte]string{
	'"':  `\"`,
	'\\': `\\`,
	'\b': `\b`,
	'\f': `\f`,
	'\n': `\n`,
	'\r': `\r`,
	'\t': `\t`,
}

// Marshal produces the canonical byte encoding of v per §4.A/§6.1: sorted
// object keys, no whitespace, integer-only numbers, and the fixed string
// escape table. MaxDepth <= 0 uses DefaultMaxDepth.
func Marshal(v Value, maxDepth int) ([]byte, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	var buf bytes.Buffer
	if err := encode(&buf, v, 0, maxDepth); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustMarshal panics on error. Reserved for call sites (tests, constant
// leaf payloads) where the input is statically known to be encodable.
func MustMarshal(v Value) []byte {
	b, err := Marshal(v, DefaultMaxDepth)
	if err != nil {
		panic(err)
	}
	return b
}

func encode(buf *bytes.Buffer, v Value, depth, maxDepth int) error {
	if depth > maxDepth {
		return errs.New(errs.KindResourceLimit, "canonical.recursion.limit", fmt.Sprintf("recursion depth exceeds %d", maxDepth))
	}
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
		return nil
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
		return nil
	case KindString:
		return encodeString(buf, v.s)
	case KindArray:
		buf.WriteByte('[')
		for i, elem := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, elem, depth+1, maxDepth); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case KindObject:
		return encodeObject(buf, v.obj, depth, maxDepth)
	default:
		return errs.New(errs.KindSerialization, "canonical.value.invalid", "value has no valid kind")
	}
}

func encodeObject(buf *bytes.Buffer, members []Member, depth, maxDepth int) error {
	sorted := make([]Member, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Key == sorted[i-1].Key {
			return errs.New(errs.KindSerialization, "canonical.object.duplicate_key", fmt.Sprintf("duplicate object key %q", sorted[i].Key))
		}
	}

	buf.WriteByte('{')
	for i, m := range sorted {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, m.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encode(buf, m.Value, depth+1, maxDepth); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if esc, ok := escapeTable[c]; ok {
			buf.WriteString(esc)
			continue
		}
		if c < 0x20 {
			fmt.Fprintf(buf, `\u%04x`, c)
			continue
		}
		buf.WriteByte(c)
	}
	buf.WriteByte('"')
	return nil
}
