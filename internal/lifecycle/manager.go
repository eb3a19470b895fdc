// Package lifecycle manages instances after creation: listing, power
// operations and deletion. The provider is the only source of truth; the
// manager keeps the last listed view and never fabricates transitions.
package lifecycle

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"nathanbeddoewebdev/vultrcli/internal/domain"

	"github.com/sirupsen/logrus"
)

// Operation names a mutating lifecycle call.
type Operation string

const (
	OpCreate Operation = "create"
	OpStart  Operation = "start"
	OpStop   Operation = "stop"
	OpReboot Operation = "reboot"
	OpDelete Operation = "delete"
)

// Recorder receives one event per mutating call. *auditlog.Recorder
// satisfies it.
type Recorder interface {
	RecordOperation(ctx context.Context, op, instanceID, label string, started time.Time, err error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l.WithField("component", "lifecycle")
		}
	}
}

// WithRecorder records every mutating call.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// Manager is safe for concurrent use. Mutations are serialized per instance
// id; reads and mutations on different ids run concurrently.
type Manager struct {
	provider domain.InstanceProvider
	log      logrus.FieldLogger
	recorder Recorder

	mu      sync.RWMutex
	view    []domain.Instance
	fetched bool

	busyMu sync.Mutex
	busy   map[string]Operation
}

// NewManager creates a Manager with an empty view. Call List before any
// per-instance operation.
func NewManager(provider domain.InstanceProvider, opts ...Option) *Manager {
	l := logrus.New()
	l.SetOutput(io.Discard)
	m := &Manager{
		provider: provider,
		log:      l,
		busy:     make(map[string]Operation),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// List fetches all instances and replaces the local view. On failure it
// returns an empty slice and the classified error; the previous view is
// kept.
func (m *Manager) List(ctx context.Context) ([]domain.Instance, error) {
	instances, err := m.provider.ListInstances(ctx)
	if err != nil {
		return []domain.Instance{}, err
	}

	m.mu.Lock()
	m.view = slices.Clone(instances)
	m.fetched = true
	m.mu.Unlock()

	return slices.Clone(instances), nil
}

// Instances returns a copy of the current view.
func (m *Manager) Instances() []domain.Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.view)
}

// Lookup returns the instance with id from the current view.
func (m *Manager) Lookup(id string) (domain.Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, inst := range m.view {
		if inst.ID == id {
			return inst, true
		}
	}
	return domain.Instance{}, false
}

// Get fetches one instance from the provider without touching the view.
func (m *Manager) Get(ctx context.Context, id string) (*domain.Instance, error) {
	return m.provider.GetInstance(ctx, id)
}

// Create validates and submits req. On success the instance is added to
// the view as pending until the next List.
func (m *Manager) Create(ctx context.Context, req domain.CreateInstanceRequest) (*domain.Instance, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	inst, err := m.provider.CreateInstance(ctx, req)
	if err != nil {
		m.record(ctx, OpCreate, "", req.Label, started, err)
		return nil, err
	}

	placeholder := *inst
	placeholder.Status = domain.StatusPending
	if placeholder.Label == "" {
		placeholder.Label = req.Label
	}

	m.mu.Lock()
	if i := slices.IndexFunc(m.view, func(x domain.Instance) bool { return x.ID == placeholder.ID }); i >= 0 {
		m.view[i] = placeholder
	} else {
		m.view = append(m.view, placeholder)
	}
	m.mu.Unlock()

	m.record(ctx, OpCreate, placeholder.ID, placeholder.Label, started, nil)
	return &placeholder, nil
}

// Start powers on an instance that is not already active.
func (m *Manager) Start(ctx context.Context, id string) error {
	return m.mutate(ctx, OpStart, id, func(inst domain.Instance) bool {
		return inst.Status != domain.StatusActive
	}, m.provider.StartInstance)
}

// Stop powers off an active instance.
func (m *Manager) Stop(ctx context.Context, id string) error {
	return m.mutate(ctx, OpStop, id, requireActive, m.provider.StopInstance)
}

// Reboot reboots an active instance.
func (m *Manager) Reboot(ctx context.Context, id string) error {
	return m.mutate(ctx, OpReboot, id, requireActive, m.provider.RebootInstance)
}

// Delete destroys an instance. The view is not changed; call List to
// observe the removal.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.mutate(ctx, OpDelete, id, func(domain.Instance) bool { return true }, m.provider.DeleteInstance)
}

func requireActive(inst domain.Instance) bool {
	return inst.Status == domain.StatusActive
}

// mutate checks that id is known and allows op, holds the per-instance slot
// for the duration of call, and records the outcome. The call is never
// retried.
func (m *Manager) mutate(
	ctx context.Context,
	op Operation,
	id string,
	allowed func(domain.Instance) bool,
	call func(context.Context, string) error,
) error {
	name := string(op) + " instance"

	inst, ok := m.Lookup(id)
	if !ok {
		return domain.NewValidationError(name, domain.ErrUnknownInstance, "instance %q is not in the last listing", id)
	}
	if !allowed(inst) {
		return domain.NewValidationError(name, domain.ErrInvalidState, "cannot %s instance %q while it is %s", op, id, inst.Status)
	}

	if !m.acquire(id, op) {
		return domain.NewValidationError(name, domain.ErrInstanceBusy, "instance %q already has an operation in flight", id)
	}
	defer m.release(id)

	started := time.Now()
	err := call(ctx, id)
	m.record(ctx, op, id, inst.Label, started, err)

	entry := m.log.WithFields(logrus.Fields{"op": op, "instance": id})
	if err != nil {
		entry.WithError(err).Warn("instance operation failed")
		return err
	}
	entry.Info("instance operation accepted")
	return nil
}

func (m *Manager) acquire(id string, op Operation) bool {
	m.busyMu.Lock()
	defer m.busyMu.Unlock()
	if _, taken := m.busy[id]; taken {
		return false
	}
	m.busy[id] = op
	return true
}

func (m *Manager) release(id string) {
	m.busyMu.Lock()
	delete(m.busy, id)
	m.busyMu.Unlock()
}

// InFlight reports the operation currently running for id, if any.
func (m *Manager) InFlight(id string) (Operation, bool) {
	m.busyMu.Lock()
	defer m.busyMu.Unlock()
	op, ok := m.busy[id]
	return op, ok
}

func (m *Manager) record(ctx context.Context, op Operation, id, label string, started time.Time, err error) {
	if m.recorder == nil {
		return
	}
	m.recorder.RecordOperation(ctx, string(op), id, label, started, err)
}
