package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/execlive/pkg/cli"
	"github.com/haivivi/execlive/pkg/persona"
)

const appName = "execlive"

var (
	// Global flags
	cfgFile     string
	contextName string
	outputJSON  bool
	verbose     bool

	// Global configuration
	globalConfig *cli.Config
)

var rootCmd = &cobra.Command{
	Use:   "execlive",
	Short: "Voice-driven executive assistant on the Gemini Live API",
	Long: `execlive - talk to a realtime executive assistant.

The assistant listens on the default microphone, answers with the selected
persona's voice and drives a canvas of cards (emails, calendar, notes,
charts, dossiers) that browsers can render through the canvas feed.

Configuration is stored in ~/.execlive/execlive/ and supports multiple
contexts. GEMINI_API_KEY (or GOOGLE_API_KEY) overrides the stored key.

Examples:
  # Set up a context
  execlive config add-context work --api-key YOUR_API_KEY --persona atlas
  execlive config use-context work

  # Start a conversation with the canvas feed on :8765
  execlive run --feed 127.0.0.1:8765

  # Try a tool without a session
  execlive tools call create_note '{"title":"Idea","content":"Ship it"}'
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Command returns the root cobra command for mounting into a parent CLI.
func Command() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.execlive/execlive/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(personasCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	var err error
	globalConfig, err = cli.LoadConfigWithPath(appName, cfgFile)
	if err != nil {
		// Commands that need no config still run.
		fmt.Fprintf(os.Stderr, "Warning: %s config: %v\n", appName, err)
	}
}

func getConfig() (*cli.Config, error) {
	if globalConfig == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return globalConfig, nil
}

// getContext returns the resolved context: the -c context, else the current
// one, else an empty context filled from the environment.
func getContext() (*cli.Context, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	return cfg.ResolveContext(contextName)
}

// loadPersonas returns the built-in personas merged with the override file
// next to the config.
func loadPersonas() (*persona.Catalog, error) {
	catalog := persona.Builtin()
	cfg, err := getConfig()
	if err != nil {
		return catalog, nil
	}
	overrides, err := persona.LoadOverrides(cfg.PersonasFile())
	if err != nil {
		return nil, err
	}
	if err := catalog.Merge(overrides); err != nil {
		return nil, err
	}
	return catalog, nil
}

func outputFormat() cli.OutputFormat {
	if outputJSON {
		return cli.FormatJSON
	}
	return cli.FormatYAML
}

func outputResult(cmd *cobra.Command, result any) error {
	return cli.Output(cmd.OutOrStdout(), result, outputFormat())
}
