// Package telemetry defines the observability port the compile and verify
// orchestrators call through. The core never imports a metrics SDK
// directly — doing so would mean importing something that, transitively,
// knows how to open a network socket, which §1's non-goals forbid the core
// from doing even indirectly. A concrete OpenTelemetry-backed Recorder
// lives in adapters/otelmetrics and is wired in only at the host's
// composition root.
//
// Grounded on the teacher's pkg/observability/observability.go: the
// "narrow interface the core depends on, concrete SDK wiring lives one
// layer up" shape is the same one HELM uses to keep its kernel package free
// of a hard otel dependency.
package telemetry

import "time"

// Recorder receives timing and counter observations from a compile or
// verify run. Implementations must not block the caller meaningfully long;
// the orchestrators call Recorder synchronously between pipeline stages.
type Recorder interface {
	StageDuration(stage string, d time.Duration)
	Counter(name string, delta int64, labels map[string]string)
}

// NopRecorder discards every observation. It is the default Recorder for
// any orchestrator call that does not explicitly wire one in, keeping the
// core's "no ambient side effects" guarantee intact even when a caller
// forgets to supply telemetry.
type NopRecorder struct{}

func (NopRecorder) StageDuration(string, time.Duration)        {}
func (NopRecorder) Counter(string, int64, map[string]string) {}
