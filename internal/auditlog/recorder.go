package auditlog

import (
	"context"
	"errors"
	"time"

	"nathanbeddoewebdev/vultrcli/internal/domain"

	"github.com/sirupsen/logrus"
)

// ResourceInstance is the resource type recorded for instance operations.
const ResourceInstance = "instance"

// Recorder writes one entry per lifecycle operation. Failures to persist
// are logged and never returned; auditing must not fail a command.
type Recorder struct {
	repo Repository
	log  logrus.FieldLogger
}

// NewRecorder wraps repo. A nil logger discards warnings.
func NewRecorder(repo Repository, log logrus.FieldLogger) *Recorder {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Recorder{repo: repo, log: log.WithField("component", "auditlog")}
}

// RecordOperation persists the outcome of op. The command and args come
// from the invocation attached to ctx.
func (r *Recorder) RecordOperation(ctx context.Context, op, instanceID, label string, started time.Time, err error) {
	inv := InvocationFromContext(ctx)
	entry := &AuditEntry{
		Timestamp:    started.UTC(),
		Command:      inv.Command,
		Args:         inv.joinedArgs(),
		Operation:    op,
		ResourceType: ResourceInstance,
		ResourceID:   instanceID,
		ResourceName: label,
		Outcome:      OutcomeSuccess,
		DurationMs:   time.Since(started).Milliseconds(),
	}
	if err != nil {
		entry.Outcome = OutcomeError
		entry.Detail = err.Error()
		var derr *domain.Error
		if errors.As(err, &derr) {
			entry.ErrorKind = derr.Kind.String()
			entry.StatusCode = derr.StatusCode
		}
	}

	// The operation's own context may already be cancelled.
	if saveErr := r.repo.Save(context.WithoutCancel(ctx), entry); saveErr != nil {
		r.log.WithError(saveErr).Warn("failed to write audit entry")
	}
}
