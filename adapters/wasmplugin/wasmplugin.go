// Package wasmplugin runs a third-party IR producer as a sandboxed
// WebAssembly module, implementing plugin.Plugin so a WASM-compiled plugin
// dispatches through the same registry as the four built-in plugins.
//
// Grounded on the teacher's core/pkg/runtime/sandbox/sandbox.go and
// wasi_sandbox.go for the overall shape (a wazero runtime built with
// WithMemoryLimitPages, a CPU-time ceiling enforced via context deadline,
// an output-size ceiling checked after the call returns) but narrowed to a
// stricter sandbox than either: no WASI instantiation at all, so a guest
// has no filesystem, clock, environment, or random-number syscalls to
// reach for even in principle, and no stdin/stdout to write to. A guest
// module exchanges data with the host purely through its own exported
// linear memory and three exported functions:
//
//	signia_manifest() -> i64        packed (ptr:32|len:32) of a JSON
//	                                 {"id":"...","kinds":["workflow"]}
//	                                 document describing the plugin, read
//	                                 once at Load time.
//	signia_alloc(size i32) -> i32    reserves size bytes in the guest's
//	                                 memory and returns a pointer the host
//	                                 writes the canonical JSON input into.
//	signia_build(ptr i32, len i32) -> i64   packed (ptr:32|len:32) of a
//	                                 canonical JSON {"nodes":[...],
//	                                 "edges":[...]} document; 0 signals
//	                                 failure.
//
// The only import a guest may use is the host function signia_log(ptr,
// len), which lets it emit a diagnostic string read out of its own memory
// and nothing else — no ambient authority crosses the boundary in either
// direction.
package wasmplugin

import (
	"context"
	"fmt"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/signia-project/signia/pkg/canonicaljson"
	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/ir"
	"github.com/signia-project/signia/pkg/plugin"
)

// OutputMaxBytes bounds the size of the canonical JSON document a guest may
// return from signia_build.
const OutputMaxBytes = 4 * 1024 * 1024

// Config bounds the resources a guest module may consume.
type Config struct {
	MemoryLimitBytes int64
	CPUTimeLimit     time.Duration
}

// LogFunc receives a log line emitted by a guest module through the
// signia_log host import. A nil LogFunc discards guest log output.
type LogFunc func(line string)

// Plugin adapts a single compiled WASM module into a plugin.Plugin. Wants
// always reports no ambient capabilities: a wasm guest has no WASI
// instantiated and no imports beyond signia_log, so the host has nothing to
// grant beyond what the sandbox already withholds.
type Plugin struct {
	id     string
	kinds  []plugin.Kind
	config Config
	log    LogFunc

	runtime wazero.Runtime
	module  wazero.CompiledModule
}

// Load compiles binary and reads its self-described id/kinds via
// signia_manifest, using default resource limits and discarding guest log
// output. Use LoadWithOptions to bound memory/CPU time or capture logs.
func Load(binary []byte) (plugin.Plugin, error) {
	return LoadWithOptions(context.Background(), binary, Config{}, nil)
}

// LoadWithOptions is Load with explicit resource limits and a log sink.
func LoadWithOptions(ctx context.Context, binary []byte, cfg Config, log LogFunc) (*Plugin, error) {
	rCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.MemoryLimitBytes > 0 {
		pages := uint32(cfg.MemoryLimitBytes / 65536)
		if pages == 0 {
			pages = 1
		}
		rCfg = rCfg.WithMemoryLimitPages(pages)
	}
	r := wazero.NewRuntimeWithConfig(ctx, rCfg)

	if _, err := r.NewHostModuleBuilder("signia").
		NewFunctionBuilder().
		WithFunc(hostLog(log)).
		Export("signia_log").
		Instantiate(ctx); err != nil {
		_ = r.Close(ctx)
		return nil, errs.Wrap(errs.KindInvariant, "wasmplugin.host.instantiate_failed", "failed to instantiate host module", err)
	}

	compiled, err := r.CompileModule(ctx, binary)
	if err != nil {
		_ = r.Close(ctx)
		return nil, errs.Wrap(errs.KindInvariant, "wasmplugin.compile_failed", "failed to compile WASM module", err)
	}

	p := &Plugin{config: cfg, log: log, runtime: r, module: compiled}

	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		_ = compiled.Close(ctx)
		_ = r.Close(ctx)
		return nil, errs.Wrap(errs.KindInvariant, "wasmplugin.instantiate_failed", "failed to instantiate guest module", err)
	}
	defer func() { _ = mod.Close(ctx) }()

	id, kinds, err := readManifest(ctx, mod)
	if err != nil {
		_ = compiled.Close(ctx)
		_ = r.Close(ctx)
		return nil, err
	}
	p.id, p.kinds = id, kinds

	return p, nil
}

// hostLog builds the signia_log host function: the guest passes a pointer
// and length into its own linear memory, and the host reads the bytes out
// and forwards them to log, never granting the guest anything beyond a
// read of its own memory.
func hostLog(log LogFunc) func(ctx context.Context, m api.Module, ptr, length uint32) {
	return func(_ context.Context, m api.Module, ptr, length uint32) {
		if log == nil {
			return
		}
		buf, ok := m.Memory().Read(ptr, length)
		if !ok {
			return
		}
		line := make([]byte, len(buf))
		copy(line, buf)
		log(string(line))
	}
}

func pack(ptr, length uint32) uint64 { return uint64(ptr)<<32 | uint64(length) }
func unpack(v uint64) (ptr, length uint32) {
	return uint32(v >> 32), uint32(v)
}

// readManifest calls the guest's signia_manifest export and parses the
// {"id":"...","kinds":["..."]} document it describes itself with.
func readManifest(ctx context.Context, mod api.Module) (string, []plugin.Kind, error) {
	fn := mod.ExportedFunction("signia_manifest")
	if fn == nil {
		return "", nil, errs.New(errs.KindInvalidArgument, "wasmplugin.manifest.missing_export", "guest module does not export signia_manifest")
	}
	results, err := fn.Call(ctx)
	if err != nil || len(results) != 1 {
		return "", nil, errs.Wrap(errs.KindInvariant, "wasmplugin.manifest.call_failed", "signia_manifest call failed", err)
	}
	ptr, length := unpack(results[0])
	buf, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return "", nil, errs.New(errs.KindInvariant, "wasmplugin.manifest.memory_out_of_range", "signia_manifest returned an out-of-range memory region")
	}

	doc, err := canonicaljson.Parse(buf, canonicaljson.DefaultMaxDepth)
	if err != nil {
		return "", nil, errs.Wrap(errs.KindSerialization, "wasmplugin.manifest.malformed", "signia_manifest output is not valid canonical JSON", err)
	}
	id, err := requireString(doc, "id", "wasmplugin.manifest.id.missing")
	if err != nil {
		return "", nil, err
	}
	kindsVal, ok := doc.Get("kinds")
	if !ok || kindsVal.Kind() != canonicaljson.KindArray {
		return "", nil, errs.New(errs.KindInvalidArgument, "wasmplugin.manifest.kinds.missing", "signia_manifest output requires a `kinds` array")
	}
	kinds := make([]plugin.Kind, 0, len(kindsVal.Array()))
	for _, kv := range kindsVal.Array() {
		if kv.Kind() != canonicaljson.KindString {
			return "", nil, errs.New(errs.KindInvalidArgument, "wasmplugin.manifest.kinds.malformed", "signia_manifest `kinds` entries must be strings")
		}
		kinds = append(kinds, plugin.Kind(kv.String()))
	}
	return id, kinds, nil
}

func (p *Plugin) ID() string              { return p.id }
func (p *Plugin) Supports() []plugin.Kind { return p.kinds }
func (p *Plugin) Wants() plugin.Wants     { return plugin.Wants{} }

// Build implements plugin.Plugin by instantiating a fresh module instance
// per call (wazero modules are not safe to reuse across concurrent
// invocations), writing input's canonical JSON encoding into memory the
// guest allocates via signia_alloc, calling signia_build, and parsing the
// {"nodes":[...],"edges":[...]} document it returns.
func (p *Plugin) Build(ctx plugin.Context, input canonicaljson.Value) (*ir.Graph, error) {
	payload, err := canonicaljson.Marshal(input, canonicaljson.DefaultMaxDepth)
	if err != nil {
		return nil, errs.Wrap(errs.KindSerialization, "wasmplugin.input.encode_failed", "failed to encode plugin input", err)
	}

	runCtx := context.Background()
	if p.config.CPUTimeLimit > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, p.config.CPUTimeLimit)
		defer cancel()
	}

	mod, err := p.runtime.InstantiateModule(runCtx, p.module, wazero.NewModuleConfig())
	if err != nil {
		if runCtx.Err() != nil {
			return nil, errs.New(errs.KindResourceLimit, "wasmplugin.timeout", fmt.Sprintf("guest module exceeded time limit (%s)", p.config.CPUTimeLimit))
		}
		return nil, errs.Wrap(errs.KindInvariant, "wasmplugin.instantiate_failed", "guest module instantiation failed", err)
	}
	defer func() { _ = mod.Close(runCtx) }()

	out, err := p.callBuild(runCtx, mod, payload)
	if err != nil {
		if runCtx.Err() != nil {
			return nil, errs.New(errs.KindResourceLimit, "wasmplugin.timeout", fmt.Sprintf("guest module exceeded time limit (%s)", p.config.CPUTimeLimit))
		}
		return nil, err
	}
	return graphFromOutput(ctx, out)
}

func (p *Plugin) callBuild(ctx context.Context, mod api.Module, payload []byte) (canonicaljson.Value, error) {
	alloc := mod.ExportedFunction("signia_alloc")
	build := mod.ExportedFunction("signia_build")
	if alloc == nil || build == nil {
		return canonicaljson.Value{}, errs.New(errs.KindInvalidArgument, "wasmplugin.build.missing_export", "guest module must export signia_alloc and signia_build")
	}

	allocResult, err := alloc.Call(ctx, uint64(len(payload)))
	if err != nil || len(allocResult) != 1 {
		return canonicaljson.Value{}, errs.Wrap(errs.KindInvariant, "wasmplugin.alloc_failed", "signia_alloc call failed", err)
	}
	inPtr := uint32(allocResult[0])
	if !mod.Memory().Write(inPtr, payload) {
		return canonicaljson.Value{}, errs.New(errs.KindInvariant, "wasmplugin.input.memory_out_of_range", "signia_alloc returned a region too small for the input")
	}

	buildResult, err := build.Call(ctx, uint64(inPtr), uint64(len(payload)))
	if err != nil || len(buildResult) != 1 {
		return canonicaljson.Value{}, errs.Wrap(errs.KindInvariant, "wasmplugin.build_failed", "signia_build call failed", err)
	}
	outPtr, outLen := unpack(buildResult[0])
	if outPtr == 0 && outLen == 0 {
		return canonicaljson.Value{}, errs.New(errs.KindInvalidArgument, "wasmplugin.build.refused", "guest module signaled build failure")
	}
	if outLen > OutputMaxBytes {
		return canonicaljson.Value{}, errs.New(errs.KindResourceLimit, "wasmplugin.output.exceeded", "guest module output exceeds the output size ceiling")
	}
	buf, ok := mod.Memory().Read(outPtr, outLen)
	if !ok {
		return canonicaljson.Value{}, errs.New(errs.KindInvariant, "wasmplugin.output.memory_out_of_range", "signia_build returned an out-of-range memory region")
	}

	out, err := canonicaljson.Parse(buf, canonicaljson.DefaultMaxDepth)
	if err != nil {
		return canonicaljson.Value{}, errs.Wrap(errs.KindSerialization, "wasmplugin.output.malformed", "guest module output is not valid canonical JSON", err)
	}
	return out, nil
}

func graphFromOutput(ctx plugin.Context, out canonicaljson.Value) (*ir.Graph, error) {
	b := ir.NewBuilder()

	nodesVal, ok := out.Get("nodes")
	if !ok || nodesVal.Kind() != canonicaljson.KindArray {
		return nil, errs.New(errs.KindInvalidArgument, "wasmplugin.output.nodes.missing", "guest output requires a `nodes` array")
	}
	for i, nv := range nodesVal.Array() {
		pn, err := pendingNodeFromValue(nv)
		if err != nil {
			return nil, err
		}
		if ctx.Limits.MaxNodes > 0 && i+1 > ctx.Limits.MaxNodes {
			return nil, errs.New(errs.KindResourceLimit, "wasmplugin.max_nodes.exceeded", "guest node count exceeds max_nodes")
		}
		b.AddNode(pn)
	}

	edgesVal, ok := out.Get("edges")
	if ok {
		if edgesVal.Kind() != canonicaljson.KindArray {
			return nil, errs.New(errs.KindInvalidArgument, "wasmplugin.output.edges.malformed", "guest output `edges` must be an array")
		}
		for i, ev := range edgesVal.Array() {
			pe, err := pendingEdgeFromValue(ev)
			if err != nil {
				return nil, err
			}
			if ctx.Limits.MaxEdges > 0 && i+1 > ctx.Limits.MaxEdges {
				return nil, errs.New(errs.KindResourceLimit, "wasmplugin.max_edges.exceeded", "guest edge count exceeds max_edges")
			}
			b.AddEdge(pe)
		}
	}

	return b.Build(ir.DefaultIDStrategy{})
}

func pendingNodeFromValue(v canonicaljson.Value) (ir.PendingNode, error) {
	if v.Kind() != canonicaljson.KindObject {
		return ir.PendingNode{}, errs.New(errs.KindInvalidArgument, "wasmplugin.node.malformed", "each node must be an object")
	}
	key, err := requireString(v, "key", "wasmplugin.node.key.missing")
	if err != nil {
		return ir.PendingNode{}, err
	}
	typ, err := requireString(v, "type", "wasmplugin.node.type.missing")
	if err != nil {
		return ir.PendingNode{}, err
	}
	name, _ := optionalString(v, "name")
	return ir.PendingNode{
		Key:     key,
		Type:    typ,
		Name:    name,
		Attrs:   attrsFromValue(v),
		Digests: stringsFromArray(v, "digests"),
	}, nil
}

func pendingEdgeFromValue(v canonicaljson.Value) (ir.PendingEdge, error) {
	if v.Kind() != canonicaljson.KindObject {
		return ir.PendingEdge{}, errs.New(errs.KindInvalidArgument, "wasmplugin.edge.malformed", "each edge must be an object")
	}
	key, err := requireString(v, "key", "wasmplugin.edge.key.missing")
	if err != nil {
		return ir.PendingEdge{}, err
	}
	typ, err := requireString(v, "type", "wasmplugin.edge.type.missing")
	if err != nil {
		return ir.PendingEdge{}, err
	}
	from, err := requireString(v, "from", "wasmplugin.edge.from.missing")
	if err != nil {
		return ir.PendingEdge{}, err
	}
	to, err := requireString(v, "to", "wasmplugin.edge.to.missing")
	if err != nil {
		return ir.PendingEdge{}, err
	}
	return ir.PendingEdge{
		Key: key, Type: typ, FromKey: from, ToKey: to,
		Attrs: attrsFromValue(v),
	}, nil
}

func requireString(v canonicaljson.Value, key, code string) (string, error) {
	fv, ok := v.Get(key)
	if !ok || fv.Kind() != canonicaljson.KindString {
		return "", errs.New(errs.KindInvalidArgument, code, fmt.Sprintf("guest output entry missing string `%s`", key))
	}
	return fv.String(), nil
}

func optionalString(v canonicaljson.Value, key string) (string, bool) {
	fv, ok := v.Get(key)
	if !ok || fv.Kind() != canonicaljson.KindString {
		return "", false
	}
	return fv.String(), true
}

func attrsFromValue(v canonicaljson.Value) ir.Attrs {
	attrsVal, ok := v.Get("attrs")
	if !ok || attrsVal.Kind() != canonicaljson.KindObject {
		return nil
	}
	members := attrsVal.Members()
	out := make(ir.Attrs, len(members))
	for i, m := range members {
		out[i] = ir.Attr{Key: m.Key, Value: m.Value}
	}
	return out
}

func stringsFromArray(v canonicaljson.Value, key string) []string {
	arrVal, ok := v.Get(key)
	if !ok || arrVal.Kind() != canonicaljson.KindArray {
		return nil
	}
	out := make([]string, 0, len(arrVal.Array()))
	for _, e := range arrVal.Array() {
		if e.Kind() == canonicaljson.KindString {
			out = append(out, e.String())
		}
	}
	return out
}

// Close releases the wazero runtime and its compiled module.
func (p *Plugin) Close(ctx context.Context) error {
	if err := p.module.Close(ctx); err != nil {
		return errs.Wrap(errs.KindInvariant, "wasmplugin.module.close_failed", "failed to close compiled module", err)
	}
	return p.runtime.Close(ctx)
}
