package commands

import (
	"github.com/spf13/cobra"

	"github.com/haivivi/execlive/pkg/audio/portaudio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List host audio devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := portaudio.ListDevices()
		if err != nil {
			return err
		}
		if outputJSON {
			return outputResult(cmd, devices)
		}
		portaudio.WriteDevices(cmd.OutOrStdout(), devices)
		return nil
	},
}
