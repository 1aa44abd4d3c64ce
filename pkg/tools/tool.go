package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"
)

// Call is one function call requested by the model.
type Call struct {
	ID   string
	Name string
	Args map[string]any
}

// Response is the payload returned to the model for one call.
type Response map[string]any

// Tool is an entry of the catalog.
type Tool interface {
	Name() string
	Description() string
	Schema() *jsonschema.Schema
	Declaration() *genai.FunctionDeclaration
	Invoke(ctx context.Context, env Environment, call *Call) (Response, error)
}

// Handler runs a tool with its decoded arguments.
type Handler[A any] func(ctx context.Context, env Environment, call *Call, args A) (Response, error)

var _ Tool = (*FuncTool[struct{}])(nil)

// FuncTool is a Tool whose arguments decode into A. The argument schema is
// inferred from A: fields without omitempty are required and the
// jsonschema tag is the description.
type FuncTool[A any] struct {
	name        string
	description string
	schema      *jsonschema.Schema
	resolved    *jsonschema.Resolved
	handle      Handler[A]
}

// NewTool creates a FuncTool.
func NewTool[A any](name, description string, handle Handler[A]) (*FuncTool[A], error) {
	schema, err := jsonschema.For[A](&jsonschema.ForOptions{})
	if err != nil {
		return nil, fmt.Errorf("tools: %s: %w", name, err)
	}
	allowAdditional(schema)
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("tools: %s: resolve schema: %w", name, err)
	}
	return &FuncTool[A]{
		name:        name,
		description: description,
		schema:      schema,
		resolved:    resolved,
		handle:      handle,
	}, nil
}

// MustNewTool is NewTool that panics on error.
func MustNewTool[A any](name, description string, handle Handler[A]) *FuncTool[A] {
	tool, err := NewTool(name, description, handle)
	if err != nil {
		panic(err)
	}
	return tool
}

func (t *FuncTool[A]) Name() string               { return t.name }
func (t *FuncTool[A]) Description() string        { return t.description }
func (t *FuncTool[A]) Schema() *jsonschema.Schema { return t.schema }

// Declaration returns the function declaration sent in the session setup.
func (t *FuncTool[A]) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.name,
		Description: t.description,
		Parameters:  geminiConvSchema(t.schema),
	}
}

// Invoke validates the argument bag against the schema, decodes it into A
// and runs the handler. A schema violation is returned as an
// *ArgumentError without calling the handler.
func (t *FuncTool[A]) Invoke(ctx context.Context, env Environment, call *Call) (Response, error) {
	args := call.Args
	if args == nil {
		args = map[string]any{}
	}
	if err := t.resolved.Validate(args); err != nil {
		return nil, &ArgumentError{Tool: t.name, Err: err}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, &ArgumentError{Tool: t.name, Err: err}
	}
	var v A
	if err := unmarshalJSON(raw, &v); err != nil {
		return nil, &ArgumentError{Tool: t.name, Err: err}
	}
	return t.handle(ctx, env, call, v)
}

// ArgumentError reports arguments that do not match a tool's schema.
type ArgumentError struct {
	Tool string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments: %v", e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}
