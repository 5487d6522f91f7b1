package pipeline

import (
	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/telemetry"
)

// Clock is the caller-resolved notion of "now" §4.F requires: the core
// never reads a live clock, so Context carries an already-formatted
// timestamp rather than a time.Time the core could be tempted to call
// time.Now() through.
type Clock struct {
	NowISO8601 string
}

// Context is the ambient, no-I/O environment threaded through a pipeline
// run, per §4.F. Diagnostics accumulates across every stage in the run; a
// Runner appends to it directly rather than merging per-stage slices, so a
// caller inspecting ctx after a failed run sees every diagnostic recorded up
// to the point of failure.
type Context struct {
	Clock       Clock
	Params      map[string]string
	JSONParams  map[string]canonicaljson.Value
	Diagnostics []errs.Diagnostic
	Recorder    telemetry.Recorder
}

// NewContext creates a Context with initialized parameter maps and a
// NopRecorder; callers that want stage timing observed set ctx.Recorder
// after construction.
func NewContext(clock Clock) *Context {
	return &Context{
		Clock:      clock,
		Params:     make(map[string]string),
		JSONParams: make(map[string]canonicaljson.Value),
		Recorder:   telemetry.NopRecorder{},
	}
}

func (c *Context) addDiagnostic(d errs.Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}
