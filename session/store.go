// CLAUDE:SUMMARY Handle-keyed session store: RWMutex registry, LRU cap eviction, idle reaper goroutine.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/plume/block"
	"github.com/hazyhaar/plume/idgen"
	"github.com/hazyhaar/plume/markup"
	"github.com/hazyhaar/plume/platform"
	"github.com/hazyhaar/plume/repair"
	"github.com/hazyhaar/plume/schema"
	"github.com/hazyhaar/plume/validate"
)

// Config tunes a Store. Zero value is usable; defaults fill in the rest.
type Config struct {
	// MaxSessions caps live sessions; at the cap the least recently used
	// session is evicted to make room.
	MaxSessions int
	// MaxIdle is how long an untouched session survives before the reaper
	// evicts it. Abandoned sessions must not leak for the process lifetime.
	MaxIdle time.Duration
	// SweepEvery is the reaper interval. Zero disables the reaper.
	SweepEvery time.Duration

	Registry  *schema.Registry
	Sanitizer *bluemonday.Policy
	Logger    *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxSessions <= 0 {
		c.MaxSessions = 64
	}
	if c.MaxIdle <= 0 {
		c.MaxIdle = 30 * time.Minute
	}
	if c.Registry == nil {
		c.Registry = schema.DefaultRegistry()
	}
	if c.Sanitizer == nil {
		c.Sanitizer = Policy()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Policy returns the sanitizer admitting the block HTML vocabulary: the
// structural containers blocks serialize to plus the inline format tags.
// Event handlers, scripts and unknown elements are stripped.
func Policy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "blockquote", "pre", "code",
		"strong", "b", "em", "i", "a", "del", "s", "sub", "sup",
		"hr", "br", "img", "figure", "figcaption", "cite",
		"table", "thead", "tbody", "tr", "th", "td",
		"div", "span",
	)
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	p.AllowAttrs("start").OnElements("ol")
	p.AllowAttrs("class").OnElements("div", "span", "code", "pre", "figure")
	p.AllowStandardURLs()
	return p
}

// Store is the process-wide handle→session registry. It is an explicit
// object handed to callers, never a package singleton, so lifetime and test
// isolation stay controllable.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg       Config
	newHandle idgen.Generator
	newBlock  idgen.Generator
	validator *validate.Validator
	fixer     *repair.Fixer

	done      chan struct{}
	closeOnce sync.Once
}

// NewStore creates a Store and starts the idle reaper when configured.
func NewStore(cfg Config) *Store {
	cfg.defaults()
	st := &Store{
		sessions:  make(map[string]*Session),
		cfg:       cfg,
		newHandle: idgen.Prefixed("ses_", idgen.NanoID(16)),
		newBlock:  idgen.Prefixed("blk_", idgen.NanoID(10)),
		validator: validate.New(cfg.Registry),
		fixer:     repair.New(cfg.Registry),
		done:      make(chan struct{}),
	}
	if cfg.SweepEvery > 0 {
		go st.reap()
	}
	return st
}

// Create builds a session from raw content. Content already in block form is
// parsed directly; anything else goes through the markup converter first.
// The baseline snapshot is captured here, once, before any mutation.
func (st *Store) Create(contentID string, contentType ContentType, content string) (*Session, error) {
	if contentID == "" {
		return nil, fmt.Errorf("%w: content id required", ErrInvalidInput)
	}
	if contentType == "" {
		contentType = ContentPost
	}

	text := content
	if text != "" && !block.IsBlockText(text) {
		text = markup.ToBlocks(text)
	}

	parser := block.NewParser(block.WithIDGenerator(st.newBlock))
	blocks, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("session: create %s: %w", contentID, err)
	}
	for _, b := range blocks {
		b.Content = st.cfg.Sanitizer.Sanitize(b.Content)
		b.Rehash()
		b.OriginalHash = b.ContentHash
	}

	now := time.Now()
	handle := st.newHandle()
	s := &Session{
		Handle:      handle,
		ContentID:   contentID,
		ContentType: contentType,
		blocks:      blocks,
		index:       blocks.Index(),
		baseline:    blocks.Clone(),
		valCache:    make(map[string]cachedResult),
		createdAt:   now,
		lastUsed:    now,
		validator:   st.validator,
		fixer:       st.fixer,
		sanitizer:   st.cfg.Sanitizer,
		newID:       st.newBlock,
		logger:      st.cfg.Logger.With("session", handle),
	}

	st.mu.Lock()
	st.evictOverCap()
	st.sessions[s.Handle] = s
	st.mu.Unlock()

	st.cfg.Logger.Info("session created",
		"session", s.Handle, "content_id", contentID, "blocks", len(blocks))
	return s, nil
}

// CreateFromPlatform fetches the content and opens a session over it.
func (st *Store) CreateFromPlatform(ctx context.Context, client platform.Client, contentID string, contentType ContentType) (*Session, error) {
	c, err := client.Fetch(ctx, contentID)
	if err != nil {
		return nil, fmt.Errorf("session: create %s: %w", contentID, err)
	}
	return st.Create(contentID, contentType, c.Content)
}

// Get resolves a handle. Unknown handles are a distinct error kind from any
// validation failure; callers should not retry them.
func (st *Store) Get(handle string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[handle]
	st.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, handle)
	}
	s.mu.Lock()
	s.touch()
	s.mu.Unlock()
	return s, nil
}

// Close destroys the session. Unsynced changes are discarded.
func (st *Store) Close(handle string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[handle]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, handle)
	}
	delete(st.sessions, handle)
	st.cfg.Logger.Info("session closed", "session", handle)
	return nil
}

// Info is a read-only session summary for admin surfaces.
type Info struct {
	Handle      string      `json:"handle"`
	ContentID   string      `json:"content_id"`
	ContentType ContentType `json:"content_type"`
	Blocks      int         `json:"blocks"`
	CreatedAt   time.Time   `json:"created_at"`
	LastUsed    time.Time   `json:"last_used"`
}

// List summarizes every live session.
func (st *Store) List() []Info {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]Info, 0, len(st.sessions))
	for _, s := range st.sessions {
		s.mu.Lock()
		out = append(out, Info{
			Handle:      s.Handle,
			ContentID:   s.ContentID,
			ContentType: s.ContentType,
			Blocks:      len(s.blocks),
			CreatedAt:   s.createdAt,
			LastUsed:    s.lastUsed,
		})
		s.mu.Unlock()
	}
	return out
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Shutdown stops the reaper and drops every session.
func (st *Store) Shutdown() {
	st.closeOnce.Do(func() { close(st.done) })
	st.mu.Lock()
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()
}

// evictOverCap must be called with st.mu held. It drops least recently used
// sessions until one slot is free.
func (st *Store) evictOverCap() {
	for len(st.sessions) >= st.cfg.MaxSessions {
		var lru *Session
		var lruUsed time.Time
		for _, s := range st.sessions {
			s.mu.Lock()
			used := s.lastUsed
			s.mu.Unlock()
			if lru == nil || used.Before(lruUsed) {
				lru, lruUsed = s, used
			}
		}
		if lru == nil {
			return
		}
		delete(st.sessions, lru.Handle)
		st.cfg.Logger.Warn("session evicted at capacity",
			"session", lru.Handle, "content_id", lru.ContentID, "idle", time.Since(lruUsed).String())
	}
}

func (st *Store) reap() {
	t := time.NewTicker(st.cfg.SweepEvery)
	defer t.Stop()
	for {
		select {
		case <-st.done:
			return
		case <-t.C:
			st.sweep()
		}
	}
}

func (st *Store) sweep() {
	cutoff := time.Now().Add(-st.cfg.MaxIdle)
	st.mu.Lock()
	defer st.mu.Unlock()
	for handle, s := range st.sessions {
		s.mu.Lock()
		idle := s.lastUsed.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(st.sessions, handle)
			st.cfg.Logger.Warn("idle session evicted",
				"session", handle, "content_id", s.ContentID)
		}
	}
}
