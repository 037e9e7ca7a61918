package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hazyhaar/plume/block"
	"github.com/hazyhaar/plume/platform"
)

func TestStore_CreateFromMarkup(t *testing.T) {
	st := NewStore(Config{})
	t.Cleanup(st.Shutdown)

	s, err := st.Create("post-9", ContentPost, "# Title\n\nBody text")
	if err != nil {
		t.Fatal(err)
	}

	blocks := s.List(BlockFilter{})
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(blocks))
	}
	if blocks[0].Type != "core/heading" || blocks[0].Attributes["level"] != float64(1) {
		t.Fatalf("heading = %+v", blocks[0])
	}
	if blocks[0].Content != "<h1>Title</h1>" {
		t.Fatalf("heading content = %q", blocks[0].Content)
	}
	if blocks[1].Type != "core/paragraph" || blocks[1].Content != "<p>Body text</p>" {
		t.Fatalf("paragraph = %+v", blocks[1])
	}
}

func TestStore_CreateParseFailure(t *testing.T) {
	st := NewStore(Config{})
	t.Cleanup(st.Shutdown)

	_, err := st.Create("post-bad", ContentPost, "<!-- core/paragraph {not json} -->\nx\n<!-- /core/paragraph -->")
	if !errors.Is(err, block.ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestStore_CreateRequiresContentID(t *testing.T) {
	st := NewStore(Config{})
	t.Cleanup(st.Shutdown)

	if _, err := st.Create("", ContentPost, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
}

func TestStore_CreateSanitizesContent(t *testing.T) {
	st := NewStore(Config{})
	t.Cleanup(st.Shutdown)

	s, err := st.Create("post-x", ContentPost,
		"<!-- core/paragraph -->\n<p onclick=\"steal()\">hi<script>alert(1)</script></p>\n<!-- /core/paragraph -->")
	if err != nil {
		t.Fatal(err)
	}
	got := s.List(BlockFilter{})[0].Content
	if got != "<p>hi</p>" {
		t.Fatalf("sanitized content = %q", got)
	}
}

func TestStore_GetAndClose(t *testing.T) {
	st := NewStore(Config{})
	t.Cleanup(st.Shutdown)

	s, err := st.Create("post-1", ContentPage, testDoc)
	if err != nil {
		t.Fatal(err)
	}

	got, err := st.Get(s.Handle)
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Fatal("Get returned a different session")
	}

	if err := st.Close(s.Handle); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Get(s.Handle); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
	if err := st.Close(s.Handle); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("double close err = %v", err)
	}
}

func TestStore_GetUnknownHandle(t *testing.T) {
	st := NewStore(Config{})
	t.Cleanup(st.Shutdown)

	if _, err := st.Get("ses_ghost"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestStore_CapEvictsLRU(t *testing.T) {
	st := NewStore(Config{MaxSessions: 2})
	t.Cleanup(st.Shutdown)

	s1, _ := st.Create("post-1", ContentPost, testDoc)
	time.Sleep(5 * time.Millisecond)
	s2, _ := st.Create("post-2", ContentPost, testDoc)
	time.Sleep(5 * time.Millisecond)
	s3, _ := st.Create("post-3", ContentPost, testDoc)

	if st.Len() != 2 {
		t.Fatalf("len = %d, want 2", st.Len())
	}
	if _, err := st.Get(s1.Handle); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("oldest session survived the cap")
	}
	for _, s := range []*Session{s2, s3} {
		if _, err := st.Get(s.Handle); err != nil {
			t.Fatalf("recent session evicted: %v", err)
		}
	}
}

func TestStore_IdleReaper(t *testing.T) {
	st := NewStore(Config{MaxIdle: 20 * time.Millisecond, SweepEvery: 10 * time.Millisecond})
	t.Cleanup(st.Shutdown)

	s, err := st.Create("post-1", ContentPost, testDoc)
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for st.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("idle session never reaped")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := st.Get(s.Handle); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestStore_List(t *testing.T) {
	st := NewStore(Config{})
	t.Cleanup(st.Shutdown)

	s, _ := st.Create("post-7", ContentPage, testDoc)
	infos := st.List()
	if len(infos) != 1 {
		t.Fatalf("infos = %d", len(infos))
	}
	if infos[0].Handle != s.Handle || infos[0].ContentID != "post-7" || infos[0].Blocks != 3 {
		t.Fatalf("info = %+v", infos[0])
	}
	if infos[0].ContentType != ContentPage {
		t.Fatalf("content type = %q", infos[0].ContentType)
	}
}

func TestStore_CreateFromPlatform(t *testing.T) {
	st := NewStore(Config{})
	t.Cleanup(st.Shutdown)

	fp := newFakePlatform()
	fp.fetch = &platform.Content{Title: "T", Content: testDoc, Status: "draft"}

	s, err := st.CreateFromPlatform(context.Background(), fp, "post-5", ContentPost)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.List(BlockFilter{})) != 3 {
		t.Fatal("fetched content not parsed")
	}
}

func TestStore_CreateFromPlatformFetchError(t *testing.T) {
	st := NewStore(Config{})
	t.Cleanup(st.Shutdown)

	fp := newFakePlatform()
	if _, err := st.CreateFromPlatform(context.Background(), fp, "gone", ContentPost); !errors.Is(err, platform.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}
