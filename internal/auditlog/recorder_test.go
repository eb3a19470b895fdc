package auditlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"nathanbeddoewebdev/vultrcli/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type memRepo struct {
	saved   []AuditEntry
	saveErr error
}

func (m *memRepo) Save(_ context.Context, e *AuditEntry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, *e)
	return nil
}
func (m *memRepo) List(context.Context, Filter) ([]AuditEntry, error) { return m.saved, nil }
func (m *memRepo) Prune(context.Context, PruneOptions) (int64, error) { return 0, nil }
func (m *memRepo) Close() error { return nil }

func TestRecorder_Success(t *testing.T) {
	repo := &memRepo{}
	rec := NewRecorder(repo, nil)

	ctx := WithInvocation(context.Background(), Invocation{
		Command: "vultrcli instance stop",
		Args:    []string{"--id", "i-1", "--token", "secret"},
	})
	rec.RecordOperation(ctx, "stop", "i-1", "web", time.Now(), nil)

	want := []AuditEntry{{
		Command:      "vultrcli instance stop",
		Args:         "--id i-1 --token <redacted>",
		Operation:    "stop",
		ResourceType: ResourceInstance,
		ResourceID:   "i-1",
		ResourceName: "web",
		Outcome:      OutcomeSuccess,
	}}
	opts := cmpopts.IgnoreFields(AuditEntry{}, "Timestamp", "DurationMs")
	if diff := cmp.Diff(want, repo.saved, opts); diff != "" {
		t.Errorf("saved entries mismatch (-want +got):\n%s", diff)
	}
}

func TestRecorder_ClassifiedError(t *testing.T) {
	repo := &memRepo{}
	rec := NewRecorder(repo, nil)

	err := &domain.Error{Kind: domain.KindServer, Op: "delete instance", StatusCode: 500}
	rec.RecordOperation(context.Background(), "delete", "i-9", "", time.Now(), err)

	if len(repo.saved) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.saved))
	}
	got := repo.saved[0]
	if got.Outcome != OutcomeError {
		t.Errorf("Outcome = %q, want error", got.Outcome)
	}
	if got.ErrorKind != "server" || got.StatusCode != 500 {
		t.Errorf("kind=%q status=%d, want server/500", got.ErrorKind, got.StatusCode)
	}
	if got.Detail != err.Error() {
		t.Errorf("Detail = %q", got.Detail)
	}
}

func TestRecorder_SaveFailureIsSwallowed(t *testing.T) {
	repo := &memRepo{saveErr: errors.New("disk full")}
	rec := NewRecorder(repo, nil)
	rec.RecordOperation(context.Background(), "start", "i-1", "", time.Now(), nil)
}

func TestSanitizeArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"no secrets", []string{"--id", "i-1"}, []string{"--id", "i-1"}},
		{"separate value", []string{"--token", "abc", "--wait"}, []string{"--token", "<redacted>", "--wait"}},
		{"inline value", []string{"--api-key=abc"}, []string{"--api-key=<redacted>"}},
		{"trailing flag", []string{"--token"}, []string{"--token"}},
		{"empty", []string{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, SanitizeArgs(tt.in)); diff != "" {
				t.Errorf("SanitizeArgs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInvocationFromContext_Empty(t *testing.T) {
	if got := InvocationFromContext(context.Background()); got.Command != "" || got.Args != nil {
		t.Errorf("expected zero invocation, got %+v", got)
	}
}
