package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/plume/audit"
	"github.com/hazyhaar/plume/dbopen"
	"github.com/hazyhaar/plume/kit"
)

func newLogger(t *testing.T) *audit.Logger {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(audit.Schema))
	a := audit.NewLogger(db, 16)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestLog_AndQuery(t *testing.T) {
	a := newLogger(t)
	ctx := context.Background()

	e := a.NewEntry("plume_edit_block", map[string]any{"block_id": "blk_1"}, map[string]any{"ok": true}, nil, 12*time.Millisecond)
	e.SessionHandle = "ses_abc"
	if err := a.Log(ctx, e); err != nil {
		t.Fatal(err)
	}

	got, err := a.Query(ctx, &audit.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("entries = %d, want 1", len(got))
	}
	if got[0].ToolName != "plume_edit_block" || got[0].Status != "success" {
		t.Fatalf("entry = %+v", got[0])
	}
	if got[0].SessionHandle != "ses_abc" {
		t.Fatalf("session = %q", got[0].SessionHandle)
	}
}

func TestNewEntry_Error(t *testing.T) {
	a := newLogger(t)

	e := a.NewEntry("plume_sync", nil, nil, errors.New("platform unreachable"), time.Second)
	if e.Status != "error" {
		t.Fatalf("status = %q", e.Status)
	}
	if e.ErrorMessage != "platform unreachable" {
		t.Fatalf("error = %q", e.ErrorMessage)
	}
	if e.DurationMs != 1000 {
		t.Fatalf("duration = %d", e.DurationMs)
	}
}

func TestQuery_Filters(t *testing.T) {
	a := newLogger(t)
	ctx := context.Background()

	for _, tool := range []string{"plume_read_block", "plume_read_block", "plume_sync"} {
		if err := a.Log(ctx, a.NewEntry(tool, nil, nil, nil, 0)); err != nil {
			t.Fatal(err)
		}
	}

	tool := "plume_read_block"
	got, err := a.Query(ctx, &audit.Filter{ToolName: &tool})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("filtered entries = %d, want 2", len(got))
	}

	got, err = a.Query(ctx, &audit.Filter{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("limited entries = %d, want 1", len(got))
	}
}

func TestLogAsync_FlushedOnClose(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(audit.Schema))
	a := audit.NewLogger(db, 16)

	a.LogAsync(a.NewEntry("plume_list_blocks", nil, nil, nil, 0))
	a.LogAsync(a.NewEntry("plume_list_blocks", nil, nil, nil, 0))
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	// Close drains the buffer; inserts may still be racing the flush loop's
	// final pass, so poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for {
		var n int
		if err := db.QueryRow(`SELECT COUNT(*) FROM audit_log`).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n == 2 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("entries = %d, want 2", n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCleanup(t *testing.T) {
	a := newLogger(t)
	ctx := context.Background()

	old := a.NewEntry("plume_validate", nil, nil, nil, 0)
	old.Timestamp = time.Now().AddDate(0, 0, -40)
	if err := a.Log(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := a.Log(ctx, a.NewEntry("plume_validate", nil, nil, nil, 0)); err != nil {
		t.Fatal(err)
	}

	deleted, err := a.Cleanup(ctx, 30)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
}

func TestMiddleware_RecordsCall(t *testing.T) {
	a := newLogger(t)

	base := func(_ context.Context, _ any) (any, error) {
		return map[string]any{"ok": true}, nil
	}
	wrapped := audit.Middleware(a, "plume_get_changes")(base)

	ctx := kit.WithSession(context.Background(), "ses_xyz")
	if _, err := wrapped(ctx, map[string]any{"session": "ses_xyz"}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := a.Query(context.Background(), &audit.Filter{})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) == 1 {
			if got[0].ToolName != "plume_get_changes" || got[0].SessionHandle != "ses_xyz" {
				t.Fatalf("entry = %+v", got[0])
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("entries = %d, want 1", len(got))
		}
		time.Sleep(10 * time.Millisecond)
	}
}
