package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"nathanbeddoewebdev/vultrcli/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is an in-memory domain.InstanceProvider that counts calls.
type fakeProvider struct {
	mu sync.Mutex

	lists   [][]domain.Instance
	listErr []error
	listIdx int

	createResp *domain.Instance
	createErr  error
	actionErr  error
	// block, when non-nil, holds mutating calls until closed.
	block   chan struct{}
	entered chan struct{}

	calls []string
}

func (f *fakeProvider) ListInstances(context.Context) ([]domain.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "list")
	i := f.listIdx
	if i < len(f.lists)-1 {
		f.listIdx++
	}
	if i < len(f.listErr) && f.listErr[i] != nil {
		return []domain.Instance{}, f.listErr[i]
	}
	if len(f.lists) == 0 {
		return []domain.Instance{}, nil
	}
	return f.lists[i], nil
}

func (f *fakeProvider) GetInstance(_ context.Context, id string) (*domain.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "get "+id)
	return &domain.Instance{ID: id, Status: domain.StatusActive}, nil
}

func (f *fakeProvider) CreateInstance(_ context.Context, req domain.CreateInstanceRequest) (*domain.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResp, nil
}

func (f *fakeProvider) action(name string) func(context.Context, string) error {
	return func(_ context.Context, id string) error {
		f.mu.Lock()
		f.calls = append(f.calls, name+" "+id)
		block, entered := f.block, f.entered
		err := f.actionErr
		f.mu.Unlock()
		if block != nil {
			entered <- struct{}{}
			<-block
		}
		return err
	}
}

func (f *fakeProvider) StartInstance(ctx context.Context, id string) error {
	return f.action("start")(ctx, id)
}
func (f *fakeProvider) StopInstance(ctx context.Context, id string) error {
	return f.action("stop")(ctx, id)
}
func (f *fakeProvider) RebootInstance(ctx context.Context, id string) error {
	return f.action("reboot")(ctx, id)
}
func (f *fakeProvider) DeleteInstance(ctx context.Context, id string) error {
	return f.action("delete")(ctx, id)
}

func (f *fakeProvider) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeRecorder captures recorded operations.
type fakeRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *fakeRecorder) RecordOperation(_ context.Context, op, id, _ string, _ time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.events = append(r.events, op+" "+id+" "+outcome)
}

func withFastPolling(t *testing.T) {
	t.Helper()
	oldInterval, oldAttempts, oldErrors := PollInterval, MaxPollAttempts, MaxTransientErrors
	PollInterval = time.Millisecond
	MaxPollAttempts = 10
	MaxTransientErrors = 3
	t.Cleanup(func() {
		PollInterval, MaxPollAttempts, MaxTransientErrors = oldInterval, oldAttempts, oldErrors
	})
}

func instances(pairs ...string) []domain.Instance {
	out := make([]domain.Instance, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.Instance{ID: pairs[i], Label: "vm-" + pairs[i], Status: domain.InstanceStatus(pairs[i+1])})
	}
	return out
}

func listed(t *testing.T, p *fakeProvider, opts ...Option) *Manager {
	t.Helper()
	m := NewManager(p, opts...)
	_, err := m.List(context.Background())
	require.NoError(t, err)
	return m
}

func TestList_ReplacesView(t *testing.T) {
	p := &fakeProvider{lists: [][]domain.Instance{
		instances("a", "active", "b", "stopped"),
		instances("b", "active"),
	}}
	m := listed(t, p)
	assert.Len(t, m.Instances(), 2)

	got, err := m.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, instances("b", "active"), got)
	assert.Equal(t, instances("b", "active"), m.Instances())
}

func TestList_FailureKeepsPreviousView(t *testing.T) {
	p := &fakeProvider{
		lists:   [][]domain.Instance{instances("a", "active"), nil},
		listErr: []error{nil, &domain.Error{Kind: domain.KindServer, StatusCode: 502}},
	}
	m := listed(t, p)

	got, err := m.List(context.Background())
	require.Error(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, instances("a", "active"), m.Instances())
}

func TestStop_OnStoppedInstanceRejectedLocally(t *testing.T) {
	p := &fakeProvider{lists: [][]domain.Instance{instances("i-123", "stopped")}}
	m := listed(t, p)

	err := m.Stop(context.Background(), "i-123")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, []string{"list"}, p.callLog())
}

func TestStart_OnActiveInstanceRejectedLocally(t *testing.T) {
	p := &fakeProvider{lists: [][]domain.Instance{instances("i-1", "active")}}
	m := listed(t, p)

	err := m.Start(context.Background(), "i-1")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, []string{"list"}, p.callLog())
}

func TestReboot_RequiresActive(t *testing.T) {
	p := &fakeProvider{lists: [][]domain.Instance{instances("i-1", "pending", "i-2", "active")}}
	m := listed(t, p)

	assert.ErrorIs(t, m.Reboot(context.Background(), "i-1"), domain.ErrInvalidState)
	require.NoError(t, m.Reboot(context.Background(), "i-2"))
	assert.Equal(t, []string{"list", "reboot i-2"}, p.callLog())
}

func TestOperations_UnknownIDRejected(t *testing.T) {
	p := &fakeProvider{lists: [][]domain.Instance{instances("i-1", "active")}}
	m := listed(t, p)

	for name, fn := range map[string]func(context.Context, string) error{
		"start":  m.Start,
		"stop":   m.Stop,
		"reboot": m.Reboot,
		"delete": m.Delete,
	} {
		err := fn(context.Background(), "ghost")
		assert.ErrorIs(t, err, domain.ErrUnknownInstance, name)
		assert.True(t, domain.IsValidation(err), name)
	}
	assert.Equal(t, []string{"list"}, p.callLog())
}

func TestOperations_BeforeFirstListRejected(t *testing.T) {
	p := &fakeProvider{}
	m := NewManager(p)

	assert.ErrorIs(t, m.Start(context.Background(), "i-1"), domain.ErrUnknownInstance)
	assert.Empty(t, p.callLog())
}

func TestDelete_ServerErrorSurfacedNotRetriedNotRemoved(t *testing.T) {
	p := &fakeProvider{
		lists:     [][]domain.Instance{instances("i-123", "active")},
		actionErr: &domain.Error{Kind: domain.KindServer, StatusCode: 500},
	}
	rec := &fakeRecorder{}
	m := listed(t, p, WithRecorder(rec))

	err := m.Delete(context.Background(), "i-123")
	var derr *domain.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, domain.KindServer, derr.Kind)
	assert.Equal(t, 500, derr.StatusCode)

	assert.Equal(t, []string{"list", "delete i-123"}, p.callLog())
	_, still := m.Lookup("i-123")
	assert.True(t, still)
	assert.Equal(t, []string{"delete i-123 error"}, rec.events)
}

func TestDelete_SuccessDoesNotRemoveUntilList(t *testing.T) {
	p := &fakeProvider{lists: [][]domain.Instance{instances("i-1", "active"), instances()}}
	m := listed(t, p)

	require.NoError(t, m.Delete(context.Background(), "i-1"))
	_, ok := m.Lookup("i-1")
	assert.True(t, ok)

	_, err := m.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, m.Instances())
}

func TestMutations_SerializedPerInstance(t *testing.T) {
	p := &fakeProvider{
		lists:   [][]domain.Instance{instances("i-1", "active", "i-2", "active")},
		block:   make(chan struct{}),
		entered: make(chan struct{}, 2),
	}
	m := listed(t, p)

	done := make(chan error, 1)
	go func() { done <- m.Stop(context.Background(), "i-1") }()
	<-p.entered

	op, busy := m.InFlight("i-1")
	assert.True(t, busy)
	assert.Equal(t, OpStop, op)

	err := m.Delete(context.Background(), "i-1")
	assert.ErrorIs(t, err, domain.ErrInstanceBusy)
	assert.True(t, domain.IsValidation(err))

	// A different instance is not blocked.
	other := make(chan error, 1)
	go func() { other <- m.Reboot(context.Background(), "i-2") }()
	<-p.entered

	close(p.block)
	require.NoError(t, <-done)
	require.NoError(t, <-other)

	_, busy = m.InFlight("i-1")
	assert.False(t, busy)
}

func TestCreate_AddsPendingPlaceholder(t *testing.T) {
	p := &fakeProvider{
		lists:      [][]domain.Instance{instances("i-1", "active")},
		createResp: &domain.Instance{ID: "new-1", Status: domain.StatusActive},
	}
	rec := &fakeRecorder{}
	m := listed(t, p, WithRecorder(rec))

	inst, err := m.Create(context.Background(), domain.CreateInstanceRequest{
		Region: "nrt", Plan: "vc2-1c-1gb", Image: domain.ImageSource{SnapshotID: "snap-1"}, Label: "web",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, inst.Status)
	assert.Equal(t, "web", inst.Label)

	got, ok := m.Lookup("new-1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Len(t, m.Instances(), 2)
	assert.Equal(t, []string{"create new-1 ok"}, rec.events)
}

func TestCreate_InvalidRequestNeverSent(t *testing.T) {
	p := &fakeProvider{}
	m := NewManager(p)

	_, err := m.Create(context.Background(), domain.CreateInstanceRequest{Plan: "vc2-1c-1gb"})
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, p.callLog())
}

func TestCreate_BlankLabelNeverSent(t *testing.T) {
	p := &fakeProvider{}
	m := NewManager(p)

	_, err := m.Create(context.Background(), domain.CreateInstanceRequest{
		Region: "nrt", Plan: "vc2-1c-1gb", Image: domain.ImageSource{OSID: 1743},
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "label is required")
	assert.Empty(t, p.callLog())
}

func TestCreate_FailureSurfaced(t *testing.T) {
	p := &fakeProvider{createErr: &domain.Error{Kind: domain.KindClient, StatusCode: 400, Message: "Invalid plan"}}
	m := NewManager(p)

	_, err := m.Create(context.Background(), domain.CreateInstanceRequest{Region: "nrt", Plan: "x", Image: domain.ImageSource{OSID: 1}, Label: "web"})
	assert.Equal(t, domain.KindClient, domain.KindOf(err))
	assert.Empty(t, m.Instances())
}

func TestWaitForStatus(t *testing.T) {
	withFastPolling(t)
	p := &fakeProvider{lists: [][]domain.Instance{
		instances("i-1", "active"),
		instances("i-1", "active"),
		instances("i-1", "stopped"),
	}}
	m := listed(t, p)

	var out bytes.Buffer
	require.NoError(t, m.WaitForStatus(context.Background(), "i-1", domain.StatusStopped, &out))
	assert.Contains(t, out.String(), "Status: active")
	got, _ := m.Lookup("i-1")
	assert.Equal(t, domain.StatusStopped, got.Status)
}

func TestWaitForStatus_ToleratesTransientErrors(t *testing.T) {
	withFastPolling(t)
	transient := &domain.Error{Kind: domain.KindNetwork, Err: errors.New("reset")}
	p := &fakeProvider{
		lists:   [][]domain.Instance{instances("i-1", "active"), nil, nil, instances("i-1", "stopped")},
		listErr: []error{nil, transient, transient, nil},
	}
	m := listed(t, p)

	var out bytes.Buffer
	require.NoError(t, m.WaitForStatus(context.Background(), "i-1", domain.StatusStopped, &out))
	assert.Contains(t, out.String(), "Transient error, retrying... (2/3)")
}

func TestWaitForStatus_RateLimitAborts(t *testing.T) {
	withFastPolling(t)
	p := &fakeProvider{
		lists:   [][]domain.Instance{instances("i-1", "active"), nil},
		listErr: []error{nil, &domain.Error{Kind: domain.KindClient, StatusCode: 429, Message: "slow down"}},
	}
	m := listed(t, p)

	err := m.WaitForStatus(context.Background(), "i-1", domain.StatusStopped, &bytes.Buffer{})
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestWaitForRemoval(t *testing.T) {
	withFastPolling(t)
	p := &fakeProvider{lists: [][]domain.Instance{instances("i-1", "active"), instances("i-1", "active"), instances()}}
	m := listed(t, p)

	require.NoError(t, m.WaitForRemoval(context.Background(), "i-1", &bytes.Buffer{}))
}

func TestWaitForStatus_TimesOut(t *testing.T) {
	withFastPolling(t)
	MaxPollAttempts = 2
	p := &fakeProvider{lists: [][]domain.Instance{instances("i-1", "active")}}
	m := listed(t, p)

	err := m.WaitForStatus(context.Background(), "i-1", domain.StatusStopped, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}
