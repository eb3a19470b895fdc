package cmd

import (
	"os"

	"nathanbeddoewebdev/vultrcli/cmd/commands/audit"
	"nathanbeddoewebdev/vultrcli/cmd/commands/auth"
	"nathanbeddoewebdev/vultrcli/cmd/commands/catalog"
	cfgcmd "nathanbeddoewebdev/vultrcli/cmd/commands/config"
	"nathanbeddoewebdev/vultrcli/cmd/commands/instance"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "vultrcli",
		Short: "A CLI tool for provisioning and managing Vultr instances",
		Long: `vultrcli provisions and manages Vultr cloud instances. Regions are
chosen first and only plans the region can deploy are offered; instances
can then be started, stopped, rebooted and deleted.

Quick start:
  vultrcli auth login              # Validate and store your API key
  vultrcli catalog regions         # Where you can deploy
  vultrcli instance create         # Interactive instance creation
  vultrcli instance list           # List instances and pending charges
  vultrcli instance browse         # Full-screen instance browser`,
		SilenceUsage: true,
	}

	cmd.AddCommand(auth.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())
	cmd.AddCommand(catalog.NewCommand())
	cmd.AddCommand(instance.NewCommand())
	cmd.AddCommand(audit.NewCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	var root = rootCmd()
	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}
