package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"nathanbeddoewebdev/vultrcli/internal/domain"
)

// PollInterval is the delay between successive list requests while waiting.
// Exported as a variable so tests can override it for speed.
var PollInterval = 3 * time.Second

// MaxPollAttempts caps how many times we poll before giving up. At 3 s
// intervals this gives about 5 minutes.
var MaxPollAttempts = 100

// MaxTransientErrors is the number of consecutive non-rate-limit errors
// allowed before the poll loop gives up.
var MaxTransientErrors = 3

// WaitForStatus re-lists until instance id reports target. Each poll
// replaces the view. Progress is written to w.
func (m *Manager) WaitForStatus(ctx context.Context, id string, target domain.InstanceStatus, w io.Writer) error {
	return m.poll(ctx, id, w, func(inst *domain.Instance) (bool, error) {
		if inst == nil {
			return false, fmt.Errorf("instance %q disappeared while polling", id)
		}
		if inst.Status == target {
			return true, nil
		}
		fmt.Fprintf(w, "  Status: %s\n", inst.Status)
		return false, nil
	}, fmt.Sprintf("timed out waiting for instance to reach %q status", target))
}

// WaitForRemoval re-lists until instance id no longer appears.
func (m *Manager) WaitForRemoval(ctx context.Context, id string, w io.Writer) error {
	return m.poll(ctx, id, w, func(inst *domain.Instance) (bool, error) {
		if inst == nil {
			return true, nil
		}
		fmt.Fprintf(w, "  Status: %s\n", inst.Status)
		return false, nil
	}, "timed out waiting for instance to be removed")
}

func (m *Manager) poll(
	ctx context.Context,
	id string,
	w io.Writer,
	done func(*domain.Instance) (bool, error),
	timeoutMsg string,
) error {
	var consecutiveErrors int

	for i := 0; i < MaxPollAttempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(PollInterval):
		}

		instances, err := m.List(ctx)
		if err != nil {
			// Rate-limit errors abort immediately to avoid compounding
			// the problem.
			if errors.Is(err, domain.ErrRateLimited) {
				return fmt.Errorf("polling stopped: %w", err)
			}
			consecutiveErrors++
			if consecutiveErrors >= MaxTransientErrors {
				return fmt.Errorf("error polling instance status (after %d consecutive failures): %w", consecutiveErrors, err)
			}
			fmt.Fprintf(w, "  Transient error, retrying... (%d/%d)\n", consecutiveErrors, MaxTransientErrors)
			continue
		}
		consecutiveErrors = 0

		var found *domain.Instance
		for j := range instances {
			if instances[j].ID == id {
				found = &instances[j]
				break
			}
		}

		ok, err := done(found)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}

	return fmt.Errorf("%s (%d polls)", timeoutMsg, MaxPollAttempts)
}
