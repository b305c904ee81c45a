package tools

// Tool describes a frontend-declared tool. The declaration is surfaced
// to the backend in the outgoing request's tools field; execution
// happens inside the backend agent.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any // JSON Schema for the tool's inputs
}

// Registry manages the set of declared tools. Registration order is
// preserved: the backend contract is an ordered tool sequence.
type Registry struct {
	order []string
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

func (r *Registry) Get(name string) Tool {
	return r.tools[name]
}

// List returns the declared tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Declaration is a plain data implementation of Tool, for tools
// declared in configuration rather than code.
type Declaration struct {
	ToolName        string
	ToolDescription string
	ToolParameters  map[string]any
}

func (d Declaration) Name() string        { return d.ToolName }
func (d Declaration) Description() string { return d.ToolDescription }

func (d Declaration) Parameters() map[string]any {
	if d.ToolParameters == nil {
		return map[string]any{}
	}
	return d.ToolParameters
}
