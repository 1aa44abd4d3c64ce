package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haivivi/execlive/pkg/persona"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List assistant personas",
	Long: `List the built-in personas merged with personas.yaml overrides.

Use --json or 'personas show <id>' for the full definition.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadPersonas()
		if err != nil {
			return err
		}
		if outputJSON {
			return outputResult(cmd, catalog.List())
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tVOICE\tDESCRIPTION")
		for _, p := range catalog.List() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Voice, p.Description)
		}
		return w.Flush()
	},
}

var personasShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a persona and its rendered instruction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadPersonas()
		if err != nil {
			return err
		}
		p, err := catalog.Get(args[0])
		if err != nil {
			return err
		}
		instruction, err := persona.Instruction(p)
		if err != nil {
			return err
		}
		return outputResult(cmd, struct {
			persona.Persona `yaml:",inline"`
			Instruction     string `json:"instruction" yaml:"instruction"`
		}{p, instruction})
	},
}

func init() {
	personasCmd.AddCommand(personasShowCmd)
}
