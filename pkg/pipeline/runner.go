package pipeline

import (
	"time"

	"github.com/signia-project/signia/pkg/errs"
)

// Run executes stages strictly sequentially against in, threading the
// output of each stage into the next. Per §4.F: the runtime records
// `pipeline.stage.start`/`pipeline.stage.end` info diagnostics around each
// stage, and the first error aborts the run — the caller still receives
// ctx.Diagnostics accumulated up to that point (§7's "pipeline never
// unwinds" policy), since Context is shared by reference. Each stage's
// wall-clock duration, success or failure, is reported to ctx.Recorder so a
// wired-in telemetry backend sees per-stage timing without the stages
// themselves knowing a Recorder exists.
func Run(ctx *Context, stages []Stage, in PipelineData) (PipelineData, error) {
	data := in
	for _, stage := range stages {
		ctx.addDiagnostic(errs.Info("pipeline.stage.start", stage.Name()))
		start := time.Now()
		out, err := stage.Run(ctx, data)
		ctx.Recorder.StageDuration(stage.Name(), time.Since(start))
		if err != nil {
			ctx.addDiagnostic(errs.Err("pipeline.stage.error", stage.Name()+": "+err.Error()))
			return data, err
		}
		ctx.addDiagnostic(errs.Info("pipeline.stage.end", stage.Name()))
		data = out
	}
	return data, nil
}
