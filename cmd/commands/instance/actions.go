package instance

import (
	"context"
	"fmt"
	"strings"

	"nathanbeddoewebdev/vultrcli/cmd/commands/cmdutil"
	"nathanbeddoewebdev/vultrcli/internal/domain"
	"nathanbeddoewebdev/vultrcli/internal/lifecycle"

	"github.com/spf13/cobra"
)

// action describes one of the power or delete commands.
type action struct {
	op      lifecycle.Operation
	short   string
	long    string
	verb    string // progress verb, e.g. "Stopping"
	allow   func(domain.Instance) bool
	run     func(*lifecycle.Manager, context.Context, string) error
	target  domain.InstanceStatus // status --wait polls for; empty means removal
	confirm bool
	noWait  bool
}

func isActive(inst domain.Instance) bool { return inst.Status == domain.StatusActive }
func isNotActive(inst domain.Instance) bool { return inst.Status != domain.StatusActive }
func anyStatus(domain.Instance) bool { return true }

func StartCommand() *cobra.Command {
	return newActionCommand(action{
		op:     lifecycle.OpStart,
		short:  "Start a stopped instance",
		verb:   "Starting",
		allow:  isNotActive,
		run:    (*lifecycle.Manager).Start,
		target: domain.StatusActive,
	})
}

func StopCommand() *cobra.Command {
	return newActionCommand(action{
		op:     lifecycle.OpStop,
		short:  "Stop a running instance",
		verb:   "Stopping",
		allow:  isActive,
		run:    (*lifecycle.Manager).Stop,
		target: domain.StatusStopped,
	})
}

func RebootCommand() *cobra.Command {
	return newActionCommand(action{
		op:    lifecycle.OpReboot,
		short: "Reboot a running instance",
		long: `Reboot a running instance.

The instance is listed as active before and after a reboot, so there is
no status change to wait for and --wait is not offered.`,
		verb:   "Rebooting",
		allow:  isActive,
		run:    (*lifecycle.Manager).Reboot,
		noWait: true,
	})
}

func DeleteCommand() *cobra.Command {
	return newActionCommand(action{
		op:    lifecycle.OpDelete,
		short: "Delete an instance",
		long: `Permanently destroy an instance and all of its data.

A confirmation is required: answer the prompt, or pass --yes when
scripting.`,
		verb:    "Deleting",
		allow:   anyStatus,
		run:     (*lifecycle.Manager).Delete,
		confirm: true,
	})
}

func newActionCommand(a action) *cobra.Command {
	name := string(a.op)
	long := a.long
	if long == "" {
		long = a.short + "."
	}
	long += `

If --id is not provided and a terminal is attached, you can pick the
instance from a list.`
	if !a.noWait {
		long += " With --wait the command polls until the change is\nvisible in the instance listing."
	}
	long += fmt.Sprintf(`

Examples:
  vultrcli instance %[1]s
  vultrcli instance %[1]s --id <instance-id>`, name)
	if !a.noWait {
		long += " --wait"
	}

	cmd := &cobra.Command{
		Use:   name,
		Short: a.short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, args, a)
		},
		SilenceUsage: true,
	}

	cmd.Flags().String("id", "", "Instance ID (skips interactive selection)")
	if !a.noWait {
		cmd.Flags().Bool("wait", false, "Wait until the change is visible")
	}
	if a.confirm {
		cmdutil.AddYesFlag(cmd)
	}

	return cmd
}

func runAction(cmd *cobra.Command, args []string, a action) error {
	s, err := openSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.close()

	title := fmt.Sprintf("Select an instance to %s", a.op)
	inst, err := s.resolveInstance(cmd, title, a.allow)
	if err != nil {
		return err
	}
	name := displayName(inst)

	if a.confirm {
		ok, err := cmdutil.Confirm(cmd,
			fmt.Sprintf("%s instance %s?", capitalize(string(a.op)), name),
			"This permanently destroys the instance and its data.")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "Instance %s cancelled.\n", a.op)
			return nil
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s instance %s...\n", a.verb, name)
	if err := a.run(s.mgr, s.ctx, inst.ID); err != nil {
		return fmt.Errorf("failed to %s instance: %w", a.op, err)
	}

	if wait, _ := cmd.Flags().GetBool("wait"); a.noWait || !wait {
		fmt.Fprintf(cmd.OutOrStdout(), "%s request accepted for instance %s.\n", capitalize(string(a.op)), name)
		return nil
	}

	if a.target == "" {
		if err := s.mgr.WaitForRemoval(s.ctx, inst.ID, cmd.ErrOrStderr()); err != nil {
			return fmt.Errorf("failed waiting for instance to be removed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Instance %s deleted.\n", name)
		return nil
	}

	if err := s.mgr.WaitForStatus(s.ctx, inst.ID, a.target, cmd.ErrOrStderr()); err != nil {
		return fmt.Errorf("failed waiting for instance to %s: %w", a.op, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Instance %s is %s.\n", name, a.target)
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
