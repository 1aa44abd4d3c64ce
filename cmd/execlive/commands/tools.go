package commands

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/haivivi/execlive/pkg/canvas"
	"github.com/haivivi/execlive/pkg/cli"
	"github.com/haivivi/execlive/pkg/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect and invoke the tool catalog",
	Long: `Inspect the tools declared to the model and run them locally.

A local call runs the handler against an empty canvas, without a session.
The screenshot tool reports the camera as inactive.`,
}

// toolInfo is the printable form of a catalog entry.
type toolInfo struct {
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description" yaml:"description"`
	Parameters  *jsonschema.Schema `json:"parameters" yaml:"parameters"`
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the tool catalog as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := tools.Catalog()
		infos := make([]toolInfo, len(catalog))
		for i, t := range catalog {
			infos[i] = toolInfo{Name: t.Name(), Description: t.Description(), Parameters: t.Schema()}
		}
		return cli.Output(cmd.OutOrStdout(), infos, cli.FormatJSON)
	},
}

// callResult is what a local tool call prints.
type callResult struct {
	Response tools.Response `json:"response" yaml:"response"`
	Items    []canvas.Item  `json:"items" yaml:"items"`
	Notes    []canvas.Note  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

var toolsCallCmd = &cobra.Command{
	Use:   "call <name> [args-json]",
	Short: "Run a tool locally and print its response and canvas cards",
	Long: `Run a tool locally and print its response and canvas cards.

Arguments are a JSON object; malformed JSON is repaired when possible.

Examples:
  execlive tools call display_calendar
  execlive tools call get_market_data '{"ticker":"TSLA"}' --json
  execlive tools call create_note "{title:'Idea', content:'Ship it', tags:['ideas']}"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := ""
		if len(args) == 2 {
			raw = args[1]
		}
		callArgs, err := tools.ParseArgs(raw)
		if err != nil {
			return err
		}

		envOpts := []tools.EnvOption{}
		if ctx, err := getContext(); err == nil {
			loc, err := ctx.Location()
			if err != nil {
				return err
			}
			envOpts = append(envOpts, tools.WithLocation(loc))
		}

		store := canvas.NewStore()
		d := tools.NewDispatcher(tools.NewEnv(store, nil, envOpts...))
		resp := d.Call(context.Background(), &tools.Call{
			ID:   uuid.NewString(),
			Name: args[0],
			Args: callArgs,
		})
		if isUnknownTool(args[0]) {
			cli.PrintWarning("%q is not in the catalog; the model would get a fallback response", args[0])
		}
		return outputResult(cmd, callResult{
			Response: resp,
			Items:    store.Items(),
			Notes:    store.Notes(),
		})
	},
}

func isUnknownTool(name string) bool {
	for _, t := range tools.Catalog() {
		if t.Name() == name {
			return false
		}
	}
	return true
}

func init() {
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsCallCmd)
}

