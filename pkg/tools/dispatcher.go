package tools

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/haivivi/execlive/pkg/canvas"
)

const errorHint = "Inform the user that an error occurred while trying to perform the action."

// Dispatcher runs tool call batches against an Environment.
type Dispatcher struct {
	env   Environment
	tools []Tool
	index map[string]Tool
}

// NewDispatcher creates a Dispatcher over tools, or over Catalog() when
// none are given.
func NewDispatcher(env Environment, tools ...Tool) *Dispatcher {
	if len(tools) == 0 {
		tools = Catalog()
	}
	d := &Dispatcher{
		env:   env,
		tools: tools,
		index: make(map[string]Tool, len(tools)),
	}
	for _, t := range tools {
		d.index[t.Name()] = t
	}
	return d
}

// Tools returns the registered tools in declaration order.
func (d *Dispatcher) Tools() []Tool {
	return d.tools
}

// Declarations returns the function declarations for the session setup.
func (d *Dispatcher) Declarations() []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, len(d.tools))
	for i, t := range d.tools {
		decls[i] = t.Declaration()
	}
	return decls
}

// Dispatch runs calls one after another in order and returns one response
// per call. A failing call never stops the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []*genai.FunctionCall) []*genai.FunctionResponse {
	responses := make([]*genai.FunctionResponse, 0, len(calls))
	for _, fc := range calls {
		call := &Call{ID: fc.ID, Name: fc.Name, Args: fc.Args}
		responses = append(responses, &genai.FunctionResponse{
			ID:       fc.ID,
			Name:     fc.Name,
			Response: d.Call(ctx, call),
		})
	}
	return responses
}

// Call runs a single call. Unknown names get a fallback success. A handler
// error becomes an error payload and a system notification card.
func (d *Dispatcher) Call(ctx context.Context, call *Call) Response {
	tool, ok := d.index[call.Name]
	if !ok {
		slog.Warn("tools: unknown tool called", "name", call.Name)
		return result("Tool executed (fallback response).")
	}

	start := time.Now()
	slog.Debug("tools: start", "name", call.Name, "id", call.ID, "args", call.Args)
	resp, err := tool.Invoke(ctx, d.env, call)
	if err != nil {
		slog.Error("tools: failed", "name", call.Name, "id", call.ID, "error", err)
		d.env.Canvas().Push(canvas.Item{
			ID:      call.ID,
			Variant: canvas.VariantSystemNotification,
			Title:   "System Alert",
			Content: canvas.Notification{
				Level:   canvas.LevelError,
				Message: "Failed to execute " + strings.Replace(call.Name, "_", " ", 1),
				Details: err.Error(),
			},
		})
		return Response{
			"error":   true,
			"message": fmt.Sprintf("Error executing tool %s: %v", call.Name, err),
			"hint":    errorHint,
		}
	}
	slog.Info("tools: done", "name", call.Name, "id", call.ID, "took", time.Since(start))
	if resp == nil {
		resp = result("Done")
	}
	return resp
}

// zoneName returns the IANA name of t's location when known, otherwise the
// zone abbreviation.
func zoneName(t time.Time) string {
	if name := t.Location().String(); name != "Local" && name != "" {
		return name
	}
	if tz := os.Getenv("TZ"); tz != "" {
		return tz
	}
	abbr, _ := t.Zone()
	return abbr
}
