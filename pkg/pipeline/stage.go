package pipeline

// Stage is a named transformer over PipelineData, run within a shared
// Context, per §4.F.
type Stage interface {
	Name() string
	Run(ctx *Context, in PipelineData) (PipelineData, error)
}

// StageFunc adapts a plain function to the Stage interface.
type StageFunc struct {
	StageName string
	Fn        func(ctx *Context, in PipelineData) (PipelineData, error)
}

func (f StageFunc) Name() string { return f.StageName }
func (f StageFunc) Run(ctx *Context, in PipelineData) (PipelineData, error) {
	return f.Fn(ctx, in)
}
