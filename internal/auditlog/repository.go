package auditlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"nathanbeddoewebdev/vultrcli/internal/database"
)

// DefaultLimit bounds List when the filter leaves Limit unset.
const DefaultLimit = 25

// Repository defines the persistence interface for audit entries.
type Repository interface {
	Save(ctx context.Context, entry *AuditEntry) error
	List(ctx context.Context, filter Filter) ([]AuditEntry, error)
	Prune(ctx context.Context, opts PruneOptions) (int64, error)
	Close() error
}

// PruneOptions selects the entries Prune removes.
type PruneOptions struct {
	// OlderThan is measured back from now.
	OlderThan time.Duration

	// KeepFailures spares entries whose outcome is OutcomeError.
	KeepFailures bool

	// DryRun counts the matching entries without deleting them.
	DryRun bool
}

// migrations is append-only; database.Migrate tracks how many have run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS operation_log (
        id            INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp     TEXT    NOT NULL,
        command       TEXT    NOT NULL DEFAULT '',
        args          TEXT    NOT NULL DEFAULT '',
        operation     TEXT    NOT NULL,
        resource_type TEXT    NOT NULL DEFAULT '',
        resource_id   TEXT    NOT NULL DEFAULT '',
        resource_name TEXT    NOT NULL DEFAULT '',
        outcome       TEXT    NOT NULL,
        error_kind    TEXT    NOT NULL DEFAULT '',
        status_code   INTEGER NOT NULL DEFAULT 0,
        detail        TEXT    NOT NULL DEFAULT '',
        duration_ms   INTEGER NOT NULL DEFAULT 0
    );
    CREATE INDEX IF NOT EXISTS idx_operation_log_timestamp ON operation_log(timestamp);
    CREATE INDEX IF NOT EXISTS idx_operation_log_command ON operation_log(command);
    CREATE INDEX IF NOT EXISTS idx_operation_log_resource ON operation_log(resource_type, resource_id);`,
	`CREATE INDEX IF NOT EXISTS idx_operation_log_outcome ON operation_log(outcome, timestamp);`,
}

// SQLiteRepository implements Repository backed by a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// Open creates or opens the audit repository at the default path.
func Open() (*SQLiteRepository, error) {
	path, err := database.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("auditlog: %w", err)
	}
	return OpenAt(path)
}

// OpenAt creates or opens a SQLite database at the given path.
func OpenAt(path string) (*SQLiteRepository, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("auditlog: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	if err := database.Migrate(context.Background(), r.db, migrations); err != nil {
		return fmt.Errorf("auditlog: %w", err)
	}
	return nil
}

// Save inserts a new audit entry.
func (r *SQLiteRepository) Save(ctx context.Context, entry *AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, `
        INSERT INTO operation_log (timestamp, command, args, operation, resource_type, resource_id,
                                   resource_name, outcome, error_kind, status_code, detail, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Timestamp.UTC().Format(time.RFC3339Nano), entry.Command, entry.Args, entry.Operation,
		entry.ResourceType, entry.ResourceID, entry.ResourceName, entry.Outcome,
		entry.ErrorKind, entry.StatusCode, entry.Detail, entry.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("auditlog: insert failed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("auditlog: failed to get last insert ID: %w", err)
	}
	entry.ID = id
	return nil
}

// List returns the most recent entries matching filter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) ([]AuditEntry, error) {
	var (
		where []string
		args  []any
	)
	if filter.Command != "" {
		where = append(where, "command = ?")
		args = append(args, filter.Command)
	}
	if filter.ResourceID != "" {
		where = append(where, "resource_id = ?")
		args = append(args, filter.ResourceID)
	}
	if filter.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, filter.Outcome)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `
        SELECT id, timestamp, command, args, operation, resource_type, resource_id, resource_name,
               outcome, error_kind, status_code, detail, duration_ms
        FROM operation_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("auditlog: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Prune deletes the entries opts selects and reports how many there were.
func (r *SQLiteRepository) Prune(ctx context.Context, opts PruneOptions) (int64, error) {
	where := "timestamp < ?"
	args := []any{time.Now().UTC().Add(-opts.OlderThan).Format(time.RFC3339Nano)}
	if opts.KeepFailures {
		where += " AND outcome <> ?"
		args = append(args, OutcomeError)
	}

	if opts.DryRun {
		var n int64
		if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM operation_log WHERE "+where, args...).Scan(&n); err != nil {
			return 0, fmt.Errorf("auditlog: count failed: %w", err)
		}
		return n, nil
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM operation_log WHERE "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("auditlog: delete failed: %w", err)
	}
	return result.RowsAffected()
}

// Close releases database resources.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func scanRows(rows *sql.Rows) ([]AuditEntry, error) {
	entries := []AuditEntry{}
	for rows.Next() {
		var entry AuditEntry
		var timestampStr string
		err := rows.Scan(
			&entry.ID, &timestampStr, &entry.Command, &entry.Args, &entry.Operation,
			&entry.ResourceType, &entry.ResourceID, &entry.ResourceName,
			&entry.Outcome, &entry.ErrorKind, &entry.StatusCode, &entry.Detail, &entry.DurationMs,
		)
		if err != nil {
			return nil, fmt.Errorf("auditlog: scan failed: %w", err)
		}
		entry.Timestamp, _ = time.Parse(time.RFC3339Nano, timestampStr)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
