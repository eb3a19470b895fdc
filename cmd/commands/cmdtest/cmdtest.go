// Package cmdtest provides a fake provider and environment setup for
// command tests.
package cmdtest

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"nathanbeddoewebdev/vultrcli/cmd/commands/cmdutil"
	"nathanbeddoewebdev/vultrcli/internal/config"
	"nathanbeddoewebdev/vultrcli/internal/database"
	"nathanbeddoewebdev/vultrcli/internal/domain"
	"nathanbeddoewebdev/vultrcli/internal/lifecycle"
	"nathanbeddoewebdev/vultrcli/internal/providers"
	"nathanbeddoewebdev/vultrcli/internal/services/auth"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Token is the API key stored by Setup.
const Token = "test-token-1234"

// Provider is an in-memory domain.Provider. Errs maps a method name
// (e.g. "StopInstance") to the error it returns.
type Provider struct {
	mu sync.Mutex

	Regions   []domain.Region
	Plans     []domain.Plan
	Available map[string]domain.PlanSet
	Images    []domain.OSImage
	Snapshots []domain.Snapshot
	Instances []domain.Instance

	// AfterMutation, if set, runs after each successful mutation so tests
	// can move instances to their next status.
	AfterMutation func(p *Provider, op, id string)

	Errs    map[string]error
	Calls   []string
	Created []domain.CreateInstanceRequest
	Token   string
}

func (p *Provider) call(name, arg string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if arg != "" {
		p.Calls = append(p.Calls, name+" "+arg)
	} else {
		p.Calls = append(p.Calls, name)
	}
	return p.Errs[name]
}

// CallLog returns a copy of the recorded calls.
func (p *Provider) CallLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Calls...)
}

func (p *Provider) ListRegions(context.Context) ([]domain.Region, error) {
	if err := p.call("ListRegions", ""); err != nil {
		return []domain.Region{}, err
	}
	return append([]domain.Region{}, p.Regions...), nil
}

func (p *Provider) ListPlans(_ context.Context, planType string) ([]domain.Plan, error) {
	if err := p.call("ListPlans", planType); err != nil {
		return []domain.Plan{}, err
	}
	return append([]domain.Plan{}, p.Plans...), nil
}

func (p *Provider) ListAvailablePlanIDs(_ context.Context, regionID string) (domain.PlanSet, error) {
	if err := p.call("ListAvailablePlanIDs", regionID); err != nil {
		return domain.PlanSet{}, err
	}
	set := domain.PlanSet{}
	for id := range p.Available[regionID] {
		set[id] = struct{}{}
	}
	return set, nil
}

func (p *Provider) ListOSImages(context.Context) ([]domain.OSImage, error) {
	if err := p.call("ListOSImages", ""); err != nil {
		return []domain.OSImage{}, err
	}
	return append([]domain.OSImage{}, p.Images...), nil
}

func (p *Provider) ListSnapshots(context.Context) ([]domain.Snapshot, error) {
	if err := p.call("ListSnapshots", ""); err != nil {
		return []domain.Snapshot{}, err
	}
	return append([]domain.Snapshot{}, p.Snapshots...), nil
}

func (p *Provider) ListInstances(context.Context) ([]domain.Instance, error) {
	if err := p.call("ListInstances", ""); err != nil {
		return []domain.Instance{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Instance{}, p.Instances...), nil
}

func (p *Provider) GetInstance(_ context.Context, id string) (*domain.Instance, error) {
	if err := p.call("GetInstance", id); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, inst := range p.Instances {
		if inst.ID == id {
			return &inst, nil
		}
	}
	return nil, &domain.Error{Kind: domain.KindClient, Op: "get instance", StatusCode: 404, Message: "instance not found"}
}

func (p *Provider) CreateInstance(_ context.Context, req domain.CreateInstanceRequest) (*domain.Instance, error) {
	if err := p.call("CreateInstance", req.Label); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Created = append(p.Created, req)
	inst := domain.Instance{
		ID:          fmt.Sprintf("i-new-%d", len(p.Created)),
		Label:       req.Label,
		Plan:        req.Plan,
		Region:      req.Region,
		Status:      domain.StatusPending,
		DateCreated: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	p.Instances = append(p.Instances, inst)
	return &inst, nil
}

func (p *Provider) mutate(name, op, id string) error {
	if err := p.call(name, id); err != nil {
		return err
	}
	if p.AfterMutation != nil {
		p.mu.Lock()
		p.AfterMutation(p, op, id)
		p.mu.Unlock()
	}
	return nil
}

func (p *Provider) StartInstance(_ context.Context, id string) error {
	return p.mutate("StartInstance", "start", id)
}

func (p *Provider) StopInstance(_ context.Context, id string) error {
	return p.mutate("StopInstance", "stop", id)
}

func (p *Provider) RebootInstance(_ context.Context, id string) error {
	return p.mutate("RebootInstance", "reboot", id)
}

func (p *Provider) DeleteInstance(_ context.Context, id string) error {
	return p.mutate("DeleteInstance", "delete", id)
}

// SetStatus changes an instance's status. Callers must hold no lock; use it
// from tests, not from AfterMutation.
func (p *Provider) SetStatus(id string, status domain.InstanceStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	setStatusLocked(p, id, status)
}

// SetStatusLocked is SetStatus for use inside AfterMutation.
func SetStatusLocked(p *Provider, id string, status domain.InstanceStatus) {
	setStatusLocked(p, id, status)
}

func setStatusLocked(p *Provider, id string, status domain.InstanceStatus) {
	for i := range p.Instances {
		if p.Instances[i].ID == id {
			p.Instances[i].Status = status
		}
	}
}

// RemoveLocked drops an instance; for use inside AfterMutation.
func RemoveLocked(p *Provider, id string) {
	kept := p.Instances[:0]
	for _, inst := range p.Instances {
		if inst.ID != id {
			kept = append(kept, inst)
		}
	}
	p.Instances = kept
}

// Setup isolates config, database and credentials in temp files, stores
// Token, forces the non-interactive paths and routes providers to fake.
// Pass a nil fake to leave the provider factory alone.
func Setup(t *testing.T, fake *Provider) *auth.MockStore {
	t.Helper()
	dir := t.TempDir()

	config.SetPath(filepath.Join(dir, "config.json"))
	t.Cleanup(config.ResetPath)
	database.SetPath(filepath.Join(dir, "vultrcli.db"))
	t.Cleanup(database.ResetPath)

	store := auth.NewMockStore()
	if err := store.SetToken(auth.Account, Token); err != nil {
		t.Fatalf("store token: %v", err)
	}
	cmdutil.SetStore(store)
	t.Cleanup(cmdutil.ResetStore)

	interactive := cmdutil.IsInteractive
	cmdutil.IsInteractive = func() bool { return false }
	t.Cleanup(func() { cmdutil.IsInteractive = interactive })

	interval := lifecycle.PollInterval
	lifecycle.PollInterval = time.Millisecond
	t.Cleanup(func() { lifecycle.PollInterval = interval })

	if fake != nil {
		providers.Set(func(token string, _ *config.Config, _ logrus.FieldLogger) (domain.Provider, error) {
			fake.mu.Lock()
			fake.Token = token
			fake.mu.Unlock()
			return fake, nil
		})
		t.Cleanup(providers.Reset)
	}
	return store
}

// Exec runs cmd with args and returns what it wrote to stdout and stderr.
func Exec(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}
