// Package instance implements the "instance" commands.
package instance

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"nathanbeddoewebdev/vultrcli/cmd/commands/cmdutil"
	"nathanbeddoewebdev/vultrcli/internal/domain"
	"nathanbeddoewebdev/vultrcli/internal/lifecycle"
	"nathanbeddoewebdev/vultrcli/internal/tui"

	"github.com/spf13/cobra"
)

// NewCommand returns the "instance" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "instance",
		Aliases: []string{"instances"},
		Short:   "Manage Vultr instances",
		Long: `Create, list and control Vultr instances.

Mutations are checked against the latest listing before anything is sent:
an instance must exist, be in a status that allows the operation, and have
no other operation in flight.`,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(ShowCommand())
	cmd.AddCommand(CreateCommand())
	cmd.AddCommand(StartCommand())
	cmd.AddCommand(StopCommand())
	cmd.AddCommand(RebootCommand())
	cmd.AddCommand(DeleteCommand())
	cmd.AddCommand(BrowseCommand())

	return cmd
}

// session is a loaded manager plus what is needed to release it.
type session struct {
	env      *cmdutil.Env
	provider domain.Provider
	mgr      *lifecycle.Manager
	ctx      context.Context
	close    func()
}

// openSession builds the manager for one invocation. The context is
// cancelled on interrupt.
func openSession(cmd *cobra.Command, args []string) (*session, error) {
	env, err := cmdutil.Load(cmd)
	if err != nil {
		return nil, err
	}
	provider, err := env.Provider()
	if err != nil {
		return nil, err
	}
	mgr, closeAudit := env.Manager(provider)

	ctx, cancel := signal.NotifyContext(cmdutil.Context(cmd, args), os.Interrupt)
	return &session{
		env:      env,
		provider: provider,
		mgr:      mgr,
		ctx:      ctx,
		close: func() {
			cancel()
			closeAudit()
		},
	}, nil
}

// resolveInstance lists instances, then returns the one named by --id or,
// in a terminal, the one the user picks among those allow accepts.
func (s *session) resolveInstance(cmd *cobra.Command, title string, allow func(domain.Instance) bool) (domain.Instance, error) {
	instances, err := s.mgr.List(s.ctx)
	if err != nil {
		return domain.Instance{}, fmt.Errorf("failed to list instances: %w", err)
	}

	id, _ := cmd.Flags().GetString("id")
	id = strings.TrimSpace(id)
	if id == "" {
		if !cmdutil.IsInteractive() {
			return domain.Instance{}, fmt.Errorf("--id is required in a non-interactive session")
		}
		if len(instances) == 0 {
			return domain.Instance{}, fmt.Errorf("no instances found")
		}
		id, err = tui.SelectInstance(title, instances, allow)
		if err != nil {
			return domain.Instance{}, err
		}
	}

	inst, ok := s.mgr.Lookup(id)
	if !ok {
		// The manager rejects unknown ids itself; keep the id so the
		// operation reports it.
		return domain.Instance{ID: id}, nil
	}
	return inst, nil
}

func displayName(inst domain.Instance) string {
	if inst.Label != "" {
		return fmt.Sprintf("%q (ID: %s)", inst.Label, inst.ID)
	}
	return inst.ID
}
