package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/execlive/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage execlive configuration.

Configuration is stored in ~/.execlive/execlive/config.yaml. Multiple
contexts can be defined for different keys, personas or models. Persona
overrides are read from personas.yaml in the same directory.`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add or replace a context",
	Long: `Add or replace a context.

Examples:
  execlive config add-context work --api-key AIza...
  execlive config add-context demo --persona zorra --feed 127.0.0.1:8765 --time-zone Europe/Paris`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		ctx := &cli.Context{}
		ctx.APIKey, _ = flags.GetString("api-key")
		ctx.BaseURL, _ = flags.GetString("base-url")
		ctx.Model, _ = flags.GetString("model")
		ctx.Persona, _ = flags.GetString("persona")
		ctx.Voice, _ = flags.GetString("voice")
		ctx.FeedAddr, _ = flags.GetString("feed")
		ctx.TimeZone, _ = flags.GetString("time-zone")
		ctx.MaxRetries, _ = flags.GetInt("max-retries")

		if ctx.Persona != "" {
			catalog, err := loadPersonas()
			if err != nil {
				return err
			}
			if _, err := catalog.Get(ctx.Persona); err != nil {
				return err
			}
		}
		if _, err := ctx.Location(); err != nil {
			return err
		}
		if ctx.APIKey == "" {
			cli.PrintWarning("no API key stored; GEMINI_API_KEY must be set at run time")
		}

		if err := cfg.AddContext(args[0], ctx); err != nil {
			return err
		}
		cli.PrintSuccess("Context '%s' added successfully", args[0])
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Context '%s' deleted", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the default context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context '%s'", args[0])
		return nil
	},
}

var configGetContextCmd = &cobra.Command{
	Use:   "get-context",
	Short: "Show the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if cfg.CurrentContext == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No current context set")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), cfg.CurrentContext)
		}
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:   "list-contexts",
	Short: "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		names := cfg.ListContexts()
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No contexts configured")
			return nil
		}
		for _, name := range names {
			marker := "  "
			if name == cfg.CurrentContext {
				marker = "* "
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", marker, name)
		}
		return nil
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View full configuration with keys masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		view := cli.Config{
			CurrentContext: cfg.CurrentContext,
			Contexts:       make(map[string]*cli.Context, len(cfg.Contexts)),
		}
		for name, ctx := range cfg.Contexts {
			masked := *ctx
			masked.APIKey = cli.MaskAPIKey(ctx.APIKey)
			view.Contexts[name] = &masked
		}
		return outputResult(cmd, view)
	},
}

func init() {
	flags := configAddContextCmd.Flags()
	flags.StringP("api-key", "k", "", "Gemini API key")
	flags.StringP("base-url", "u", "", "API endpoint override")
	flags.String("model", "", "Live model (default: native audio preview)")
	flags.StringP("persona", "p", "", "initial persona id")
	flags.String("voice", "", "voice override (Puck, Fenrir, Kore, Zephyr...)")
	flags.String("feed", "", "canvas feed listen address")
	flags.String("time-zone", "", "IANA time zone reported to the model")
	flags.Int("max-retries", 0, "extra connect attempts")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configGetContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configViewCmd)
}
