package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
)

// Definition is one registered tool: its catalogue entry plus the validated
// execution path.
type Definition struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema

	resolved *jsonschema.Resolved
	run      func(ctx context.Context, tc *Context, raw json.RawMessage) (Result, error)
}

// Execute validates raw against the tool's schema and runs it. A validation
// failure returns ErrInvalidInput without any store access.
func (d *Definition) Execute(ctx context.Context, tc *Context, raw json.RawMessage) (Result, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := d.resolved.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return d.run(ctx, tc, raw)
}

// define wires a typed handler behind schema validation.
func define[In any](name, desc string, schema *jsonschema.Schema, fn func(ctx context.Context, tc *Context, in In) (Result, error)) (*Definition, error) {
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve schema for %s: %w", name, err)
	}
	return &Definition{
		Name:        name,
		Description: desc,
		Schema:      schema,
		resolved:    resolved,
		run: func(ctx context.Context, tc *Context, raw json.RawMessage) (Result, error) {
			var in In
			if err := json.Unmarshal(raw, &in); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			return fn(ctx, tc, in)
		},
	}, nil
}

// Config holds the stores the registry's tools operate on.
type Config struct {
	CRM    CRMStore
	Docs   DocSearcher
	Logger *slog.Logger
}

// Registry holds the fixed tool catalogue in a stable order.
type Registry struct {
	defs   map[string]*Definition
	order  []string
	logger *slog.Logger
}

// NewRegistry builds the full catalogue. It fails only if a schema does not
// resolve, which indicates a programming error.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.CRM == nil {
		return nil, fmt.Errorf("tools: CRM store is required")
	}
	if cfg.Docs == nil {
		return nil, fmt.Errorf("tools: doc searcher is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{defs: make(map[string]*Definition), logger: logger}
	builders := []func(Config) (*Definition, error){
		verifyPasscodeTool,
		createLeadTool,
		recordNoteTool,
		listNotesTool,
		deleteNoteTool,
		listLeadsTool,
		scheduleFollowupTool,
		listFollowupsTool,
		completeFollowupTool,
		searchDocsTool,
	}
	for _, build := range builders {
		def, err := build(cfg)
		if err != nil {
			return nil, err
		}
		r.defs[def.Name] = def
		r.order = append(r.order, def.Name)
	}
	return r, nil
}

// Get returns the named tool definition.
func (r *Registry) Get(name string) (*Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Has reports whether name is a registered tool.
func (r *Registry) Has(name string) bool {
	_, ok := r.defs[name]
	return ok
}

// Catalogue returns all definitions in registration order.
func (r *Registry) Catalogue() []*Definition {
	out := make([]*Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

// Execute runs the named tool against raw input.
func (r *Registry) Execute(ctx context.Context, tc *Context, name string, raw json.RawMessage) (Result, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	res, err := def.Execute(ctx, tc, raw)
	if err != nil {
		r.logger.Debug("tool execution failed", "tool", name, "error", err)
		return nil, err
	}
	return res, nil
}

// Schema literal helpers.

func objectSchema(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

func stringSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func limitSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "integer",
		Description: fmt.Sprintf("maximum number of rows to return, between 1 and %d", MaxListLimit),
		Minimum:     ptr(1.0),
		Maximum:     ptr(float64(MaxListLimit)),
	}
}

func idSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: desc, Minimum: ptr(1.0)}
}

func ptr[T any](v T) *T { return &v }
