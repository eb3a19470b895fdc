package instance

import (
	"encoding/json"
	"strings"
	"testing"

	"nathanbeddoewebdev/vultrcli/cmd/commands/cmdtest"
	"nathanbeddoewebdev/vultrcli/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_FromFlags(t *testing.T) {
	fake := newFake()
	cmdtest.Setup(t, fake)

	stdout, stderr, err := cmdtest.Exec(t, NewCommand(),
		"create", "--city", "Tokyo", "--plan", "vc2-2c-4gb", "--os", "2284", "--label", "api", "--yes")
	require.NoError(t, err)

	want := []domain.CreateInstanceRequest{{
		Region:   "nrt",
		Plan:     "vc2-2c-4gb",
		Image:    domain.ImageSource{OSID: 2284},
		Label:    "api",
		Hostname: "api",
	}}
	if diff := cmp.Diff(want, fake.Created); diff != "" {
		t.Errorf("create request mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, stderr, `Instance "api" (ID: i-new-1) created.`)

	// The listing is shown afterwards, new instance included.
	for _, want := range []string{"web", "db", "api", "pending"} {
		assert.Contains(t, stdout, want)
	}
}

func TestCreate_DefaultsToPreferredCityAndGeneratedLabel(t *testing.T) {
	fake := newFake()
	cmdtest.Setup(t, fake)

	stdout, _, err := cmdtest.Exec(t, NewCommand(),
		"create", "--plan", "vc2-1c-1gb", "--os", "2284", "--yes", "-o", "json")
	require.NoError(t, err)

	require.Len(t, fake.Created, 1)
	req := fake.Created[0]
	assert.Equal(t, "itm", req.Region, "Osaka is the default preferred city")
	assert.True(t, strings.HasPrefix(req.Label, "vultrcli-"), "label = %q", req.Label)
	assert.Equal(t, req.Label, req.Hostname)

	var inst domain.Instance
	require.NoError(t, json.Unmarshal([]byte(stdout), &inst))
	assert.Equal(t, "i-new-1", inst.ID)
	assert.Equal(t, domain.StatusPending, inst.Status)
}

func TestCreate_PlanNotAvailableInRegion(t *testing.T) {
	fake := newFake()
	cmdtest.Setup(t, fake)

	_, _, err := cmdtest.Exec(t, NewCommand(),
		"create", "--region", "itm", "--plan", "vc2-2c-4gb", "--os", "2284", "--yes")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Zero(t, countCalls(fake.CallLog(), "CreateInstance"))
}

func TestCreate_RegionWithNoPlans(t *testing.T) {
	fake := newFake()
	fake.Regions = append(fake.Regions, domain.Region{ID: "sea", City: "Seattle"})
	cmdtest.Setup(t, fake)

	_, _, err := cmdtest.Exec(t, NewCommand(),
		"create", "--region", "sea", "--plan", "vc2-1c-1gb", "--os", "2284", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no plans are available in region sea")
	assert.Zero(t, countCalls(fake.CallLog(), "CreateInstance"))
}

func TestCreate_AvailabilityFailure(t *testing.T) {
	fake := newFake()
	fake.Errs = map[string]error{
		"ListAvailablePlanIDs": &domain.Error{Kind: domain.KindNetwork, Op: "list availability"},
	}
	cmdtest.Setup(t, fake)

	_, _, err := cmdtest.Exec(t, NewCommand(),
		"create", "--region", "nrt", "--plan", "vc2-1c-1gb", "--os", "2284", "--yes")
	require.Error(t, err)
	assert.Equal(t, domain.KindNetwork, domain.KindOf(err))
	assert.Zero(t, countCalls(fake.CallLog(), "CreateInstance"))
}

func TestCreate_RequiresConfirmation(t *testing.T) {
	fake := newFake()
	cmdtest.Setup(t, fake)

	_, _, err := cmdtest.Exec(t, NewCommand(),
		"create", "--city", "Osaka", "--plan", "vc2-1c-1gb", "--os", "2284")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
	assert.Empty(t, fake.Created)
}

func TestCreate_RequiresPlanWhenNotInteractive(t *testing.T) {
	fake := newFake()
	cmdtest.Setup(t, fake)

	_, _, err := cmdtest.Exec(t, NewCommand(), "create", "--city", "Osaka")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--plan is required")
	assert.Empty(t, fake.CallLog())
}

func TestCreate_RejectsConflictingImageFlags(t *testing.T) {
	cmdtest.Setup(t, newFake())

	_, _, err := cmdtest.Exec(t, NewCommand(),
		"create", "--plan", "vc2-1c-1gb", "--os", "2284", "--snapshot", "snap-1", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}
