package config

import (
	"nathanbeddoewebdev/vultrcli/internal/config"

	"github.com/spf13/cobra"
)

// NewCommand returns the "config" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vultrcli configuration",
		Long: "View and modify persistent vultrcli settings.\n\n" +
			"Configuration is stored at ~/.config/vultrcli/config.json. Any key can\n" +
			"be overridden for one run with a VULTRCLI_* environment variable, e.g.\n" +
			"VULTRCLI_PREFERRED_CITY=Tokyo.\n\n" +
			config.KeysHelp(),
	}

	cmd.AddCommand(SetCommand())
	cmd.AddCommand(GetCommand())

	return cmd
}
