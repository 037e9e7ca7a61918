// CLAUDE:SUMMARY Async SQLite audit trail for tool calls: buffered writes, filtered queries, retention cleanup.
// Package audit persists one record per tool invocation. Writes are buffered
// through a goroutine so a slow disk never blocks the tool path; a full
// buffer falls back to a synchronous insert rather than dropping the entry.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/plume/idgen"
)

// Schema is the DDL for the audit table. Pass to dbopen.WithSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_log (
    entry_id TEXT PRIMARY KEY,
    timestamp INTEGER NOT NULL,
    tool_name TEXT NOT NULL,
    session_handle TEXT,
    request_id TEXT,
    parameters TEXT NOT NULL DEFAULT '{}',
    result TEXT,
    error_message TEXT,
    duration_ms INTEGER,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_audit_tool ON audit_log(tool_name);
CREATE INDEX IF NOT EXISTS idx_audit_session ON audit_log(session_handle);
CREATE INDEX IF NOT EXISTS idx_audit_status ON audit_log(status);
`

// Entry is a single tool invocation record.
type Entry struct {
	EntryID       string
	Timestamp     time.Time
	ToolName      string
	SessionHandle string
	RequestID     string

	Parameters   string // JSON
	Result       string // JSON
	ErrorMessage string
	DurationMs   int64

	Status string // "success", "error"
}

// Filter controls query results from the audit log.
type Filter struct {
	StartTime *time.Time
	EndTime   *time.Time
	ToolName  *string
	Session   *string
	Status    *string
	Limit     int // default 100
	Offset    int
}

// Logger persists entries asynchronously.
type Logger struct {
	db    *sql.DB
	newID idgen.Generator
	ch    chan *Entry
	stop  chan struct{}
	done  chan struct{}
}

// Option configures a Logger.
type Option func(*Logger)

// WithIDGenerator sets a custom generator for entry ids.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(a *Logger) { a.newID = gen }
}

// NewLogger creates an async audit logger. Recommended bufferSize: 1000.
func NewLogger(db *sql.DB, bufferSize int, opts ...Option) *Logger {
	a := &Logger{
		db:    db,
		newID: idgen.Prefixed("aud_", idgen.Default),
		ch:    make(chan *Entry, bufferSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, o := range opts {
		o(a)
	}
	go a.flushLoop()
	return a
}

// Log inserts an entry synchronously.
func (a *Logger) Log(ctx context.Context, e *Entry) error {
	a.fillDefaults(e)
	return a.insert(ctx, e)
}

// LogAsync queues an entry for async persistence. Falls back to a
// synchronous insert when the buffer is full.
func (a *Logger) LogAsync(e *Entry) {
	a.fillDefaults(e)
	select {
	case a.ch <- e:
	default:
		slog.Warn("audit buffer full, sync fallback", "tool", e.ToolName)
		if err := a.insert(context.Background(), e); err != nil {
			slog.Error("audit sync fallback failed", "error", err)
		}
	}
}

// NewEntry builds an Entry from a tool call's parameters, result and error.
// Params and result are marshalled to JSON.
func (a *Logger) NewEntry(tool string, params, result any, err error, duration time.Duration) *Entry {
	e := &Entry{
		EntryID:    a.newID(),
		Timestamp:  time.Now(),
		ToolName:   tool,
		DurationMs: duration.Milliseconds(),
	}

	if params != nil {
		if b, merr := json.Marshal(params); merr == nil {
			e.Parameters = string(b)
		}
	}
	if err != nil {
		e.Status = "error"
		e.ErrorMessage = err.Error()
	} else {
		e.Status = "success"
		if result != nil {
			if b, merr := json.Marshal(result); merr == nil {
				e.Result = string(b)
			}
		}
	}
	return e
}

// Query retrieves entries matching the filter, newest first.
func (a *Logger) Query(ctx context.Context, f *Filter) ([]*Entry, error) {
	q := `SELECT entry_id, timestamp, tool_name, session_handle, request_id,
		parameters, result, error_message, duration_ms, status
		FROM audit_log WHERE 1=1`
	var args []any

	if f.StartTime != nil {
		q += " AND timestamp >= ?"
		args = append(args, f.StartTime.Unix())
	}
	if f.EndTime != nil {
		q += " AND timestamp <= ?"
		args = append(args, f.EndTime.Unix())
	}
	if f.ToolName != nil {
		q += " AND tool_name = ?"
		args = append(args, *f.ToolName)
	}
	if f.Session != nil {
		q += " AND session_handle = ?"
		args = append(args, *f.Session)
	}
	if f.Status != nil {
		q += " AND status = ?"
		args = append(args, *f.Status)
	}

	q += " ORDER BY timestamp DESC"

	limit := 100
	if f.Limit > 0 {
		limit = f.Limit
	}
	q += " LIMIT ?"
	args = append(args, limit)
	if f.Offset > 0 {
		q += " OFFSET ?"
		args = append(args, f.Offset)
	}

	rows, err := a.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var ts int64
		var session, requestID, result, errMsg sql.NullString
		var durationMs sql.NullInt64

		if err := rows.Scan(
			&e.EntryID, &ts, &e.ToolName, &session, &requestID,
			&e.Parameters, &result, &errMsg, &durationMs, &e.Status,
		); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}

		e.Timestamp = time.Unix(ts, 0)
		e.SessionHandle = session.String
		e.RequestID = requestID.String
		e.Result = result.String
		e.ErrorMessage = errMsg.String
		e.DurationMs = durationMs.Int64
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Cleanup deletes entries older than retentionDays.
func (a *Logger) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	threshold := time.Now().AddDate(0, 0, -retentionDays).Unix()
	res, err := a.db.ExecContext(ctx, "DELETE FROM audit_log WHERE timestamp < ?", threshold)
	if err != nil {
		return 0, fmt.Errorf("audit: cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close drains the buffer and stops the flush goroutine.
func (a *Logger) Close() error {
	close(a.stop)
	<-a.done
	return nil
}

func (a *Logger) fillDefaults(e *Entry) {
	if e.EntryID == "" {
		e.EntryID = a.newID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.Status == "" {
		e.Status = "success"
	}
	if e.Parameters == "" {
		e.Parameters = "{}"
	}
}

func (a *Logger) flushLoop() {
	defer close(a.done)
	for {
		select {
		case e := <-a.ch:
			if err := a.insert(context.Background(), e); err != nil {
				slog.Error("audit insert failed", "tool", e.ToolName, "error", err)
			}
		case <-a.stop:
			// Drain what is already queued before exiting.
			for {
				select {
				case e := <-a.ch:
					if err := a.insert(context.Background(), e); err != nil {
						slog.Error("audit drain insert failed", "tool", e.ToolName, "error", err)
					}
				default:
					return
				}
			}
		}
	}
}

func (a *Logger) insert(ctx context.Context, e *Entry) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO audit_log (
			entry_id, timestamp, tool_name, session_handle, request_id,
			parameters, result, error_message, duration_ms, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EntryID, e.Timestamp.Unix(), e.ToolName,
		nullable(e.SessionHandle), nullable(e.RequestID),
		e.Parameters, nullable(e.Result), nullable(e.ErrorMessage),
		e.DurationMs, e.Status,
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
