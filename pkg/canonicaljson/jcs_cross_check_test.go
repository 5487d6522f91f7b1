package canonicaljson

import (
	"testing"

	"github.com/gowebpki/jcs"
	"github.com/stretchr/testify/require"
)

// TestCrossCheckAgainstRFC8785 cross-validates our encoder's key-ordering and
// string-escaping rules against github.com/gowebpki/jcs, an independent
// RFC 8785 implementation. We only compare on the string/bool/null/array/
// object subset where RFC 8785 and §4.A agree; RFC 8785's IEEE-754 number
// formatting is exactly what §4.A rejects, so numbers are deliberately out of
// scope for this comparison (see Marshal's integer-only rule).
func TestCrossCheckAgainstRFC8785(t *testing.T) {
	raw := []byte(`{"zeta":"z","alpha":["x","y",null,true,false],"nested":{"b":"2","a":"1"}}`)

	want, err := jcs.Transform(raw)
	require.NoError(t, err)

	v, err := Parse(raw, 0)
	require.NoError(t, err)
	got, err := Marshal(v, 0)
	require.NoError(t, err)

	require.Equal(t, string(want), string(got))
}
