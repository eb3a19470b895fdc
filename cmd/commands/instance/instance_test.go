package instance

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"nathanbeddoewebdev/vultrcli/cmd/commands/cmdtest"
	"nathanbeddoewebdev/vultrcli/internal/auditlog"
	"nathanbeddoewebdev/vultrcli/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func charges(v float64) *float64 { return &v }

func newFake() *cmdtest.Provider {
	return &cmdtest.Provider{
		Regions: []domain.Region{
			{ID: "itm", City: "Osaka", Country: "JP"},
			{ID: "nrt", City: "Tokyo", Country: "JP"},
		},
		Plans: []domain.Plan{
			{ID: "vc2-1c-1gb", VCPUCount: 1, RAM: 1024, Disk: 25},
			{ID: "vc2-2c-4gb", VCPUCount: 2, RAM: 4096, Disk: 80},
		},
		Available: map[string]domain.PlanSet{
			"itm": {"vc2-1c-1gb": {}},
			"nrt": {"vc2-1c-1gb": {}, "vc2-2c-4gb": {}},
		},
		Images: []domain.OSImage{{ID: 2284, Name: "Ubuntu 24.04 LTS x64"}},
		Instances: []domain.Instance{
			{ID: "i-1", Label: "web", Status: domain.StatusActive, Plan: "vc2-1c-1gb", Region: "itm", MainIP: "192.0.2.10", PendingCharges: charges(1.25)},
			{ID: "i-2", Label: "db", Status: domain.StatusStopped, Plan: "vc2-2c-4gb", Region: "nrt"},
		},
	}
}

func countCalls(calls []string, prefix string) int {
	n := 0
	for _, c := range calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func TestList_ShowsPendingCharges(t *testing.T) {
	cmdtest.Setup(t, newFake())

	stdout, _, err := cmdtest.Exec(t, NewCommand(), "list")
	require.NoError(t, err)

	for _, want := range []string{"PENDING CHARGES", "web", "active", "192.0.2.10", "$1.25", "db", "stopped"} {
		assert.Contains(t, stdout, want)
	}
}

func TestList_JSON(t *testing.T) {
	cmdtest.Setup(t, newFake())

	stdout, _, err := cmdtest.Exec(t, NewCommand(), "list", "-o", "json")
	require.NoError(t, err)

	var got []domain.Instance
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "web", got[0].Label)
	require.NotNil(t, got[0].PendingCharges)
	assert.InDelta(t, 1.25, *got[0].PendingCharges, 0.001)
}

func TestList_Empty(t *testing.T) {
	fake := newFake()
	fake.Instances = nil
	cmdtest.Setup(t, fake)

	stdout, _, err := cmdtest.Exec(t, NewCommand(), "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No instances found.")
}

func TestShow(t *testing.T) {
	cmdtest.Setup(t, newFake())

	stdout, _, err := cmdtest.Exec(t, NewCommand(), "show", "--id", "i-1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Label:")
	assert.Contains(t, stdout, "web")
	assert.Contains(t, stdout, "$1.25")

	_, _, err = cmdtest.Exec(t, NewCommand(), "show", "--id", "i-404")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
}

func TestStop_ActiveInstance(t *testing.T) {
	fake := newFake()
	cmdtest.Setup(t, fake)

	stdout, stderr, err := cmdtest.Exec(t, NewCommand(), "stop", "--id", "i-1")
	require.NoError(t, err)
	assert.Contains(t, stderr, `Stopping instance "web" (ID: i-1)...`)
	assert.Contains(t, stdout, `Stop request accepted for instance "web" (ID: i-1).`)
	assert.Equal(t, []string{"ListInstances", "StopInstance i-1"}, fake.CallLog())
}

func TestStop_AlreadyStoppedIsRejectedLocally(t *testing.T) {
	fake := newFake()
	cmdtest.Setup(t, fake)

	_, _, err := cmdtest.Exec(t, NewCommand(), "stop", "--id", "i-2")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
	assert.Zero(t, countCalls(fake.CallLog(), "StopInstance"), "stop must not reach the provider")
}

func TestStop_WaitPollsUntilStopped(t *testing.T) {
	fake := newFake()
	fake.AfterMutation = func(p *cmdtest.Provider, op, id string) {
		cmdtest.SetStatusLocked(p, id, domain.StatusStopped)
	}
	cmdtest.Setup(t, fake)

	stdout, _, err := cmdtest.Exec(t, NewCommand(), "stop", "--id", "i-1", "--wait")
	require.NoError(t, err)
	assert.Contains(t, stdout, `Instance "web" (ID: i-1) is stopped.`)
	assert.GreaterOrEqual(t, countCalls(fake.CallLog(), "ListInstances"), 2)
}

func TestStart_UnknownInstance(t *testing.T) {
	fake := newFake()
	cmdtest.Setup(t, fake)

	_, _, err := cmdtest.Exec(t, NewCommand(), "start", "--id", "i-missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownInstance))
	assert.Zero(t, countCalls(fake.CallLog(), "StartInstance"))
}

func TestReboot_RequiresIDWhenNotInteractive(t *testing.T) {
	cmdtest.Setup(t, newFake())

	_, _, err := cmdtest.Exec(t, NewCommand(), "reboot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--id is required")
}

func TestReboot_RejectsWait(t *testing.T) {
	fake := newFake()
	cmdtest.Setup(t, fake)

	_, _, err := cmdtest.Exec(t, NewCommand(), "reboot", "--id", "i-1", "--wait")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag: --wait")
	assert.Zero(t, countCalls(fake.CallLog(), "RebootInstance"))
}

func TestReboot_ReportsAcceptance(t *testing.T) {
	fake := newFake()
	cmdtest.Setup(t, fake)

	stdout, _, err := cmdtest.Exec(t, NewCommand(), "reboot", "--id", "i-1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Reboot request accepted")
	assert.Equal(t, 1, countCalls(fake.CallLog(), "RebootInstance"))
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	fake := newFake()
	cmdtest.Setup(t, fake)

	_, _, err := cmdtest.Exec(t, NewCommand(), "delete", "--id", "i-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
	assert.Zero(t, countCalls(fake.CallLog(), "DeleteInstance"))
}

func TestDelete_WaitForRemoval(t *testing.T) {
	fake := newFake()
	fake.AfterMutation = func(p *cmdtest.Provider, op, id string) {
		if op == "delete" {
			cmdtest.RemoveLocked(p, id)
		}
	}
	cmdtest.Setup(t, fake)

	stdout, _, err := cmdtest.Exec(t, NewCommand(), "delete", "--id", "i-2", "--yes", "--wait")
	require.NoError(t, err)
	assert.Contains(t, stdout, `Instance "db" (ID: i-2) deleted.`)
}

func TestDelete_ServerErrorIsSurfacedAndNotRetried(t *testing.T) {
	fake := newFake()
	fake.Errs = map[string]error{
		"DeleteInstance": &domain.Error{Kind: domain.KindServer, Op: "delete instance", StatusCode: 500},
	}
	cmdtest.Setup(t, fake)

	_, _, err := cmdtest.Exec(t, NewCommand(), "delete", "--id", "i-1", "--yes")
	require.Error(t, err)
	assert.Equal(t, domain.KindServer, domain.KindOf(err))
	assert.Equal(t, 1, countCalls(fake.CallLog(), "DeleteInstance"))
}

func TestMutationsAreAudited(t *testing.T) {
	fake := newFake()
	fake.Errs = map[string]error{
		"RebootInstance": &domain.Error{Kind: domain.KindClient, StatusCode: 409, Message: "busy"},
	}
	cmdtest.Setup(t, fake)

	_, _, err := cmdtest.Exec(t, NewCommand(), "stop", "--id", "i-1")
	require.NoError(t, err)
	_, _, err = cmdtest.Exec(t, NewCommand(), "reboot", "--id", "i-1")
	require.Error(t, err)

	repo, err := auditlog.Open()
	require.NoError(t, err)
	defer repo.Close()

	entries, err := repo.List(context.Background(), auditlog.Filter{ResourceID: "i-1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byOp := map[string]auditlog.AuditEntry{}
	for _, e := range entries {
		byOp[e.Operation] = e
	}
	assert.Equal(t, auditlog.OutcomeSuccess, byOp["stop"].Outcome)
	assert.Equal(t, "instance stop", byOp["stop"].Command)
	assert.Contains(t, byOp["stop"].Args, "--id=i-1")
	assert.Equal(t, "web", byOp["stop"].ResourceName)

	assert.Equal(t, auditlog.OutcomeError, byOp["reboot"].Outcome)
	assert.Equal(t, "client", byOp["reboot"].ErrorKind)
	assert.Equal(t, 409, byOp["reboot"].StatusCode)
}
