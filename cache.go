package folio

import (
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/eringen/folio/content"
)

// ErrNotFound is returned when requested content does not exist.
var ErrNotFound = sql.ErrNoRows

// ContentCache is an in-memory snapshot of the content index with TTL.
// The snapshot holds drafts too; visibility is decided per read so one
// cache serves both the public site and draft preview.
type ContentCache struct {
	mu       sync.RWMutex
	posts    []content.Post
	public   []content.Post
	projects []content.Project
	live     []content.Project
	jobs     []content.Job
	tags     []string
	fetched  time.Time
	ttl      time.Duration
	store    *Store
}

// NewContentCache creates a ContentCache backed by the given Store.
func NewContentCache(s *Store, ttl time.Duration) *ContentCache {
	return &ContentCache{store: s, ttl: ttl}
}

func (c *ContentCache) valid() bool {
	return !c.fetched.IsZero() && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *ContentCache) Invalidate() {
	c.mu.Lock()
	c.fetched = time.Time{}
	c.mu.Unlock()
}

func (c *ContentCache) load() error {
	if c.valid() {
		return nil
	}
	posts, err := c.store.ListPosts("", true)
	if err != nil {
		return err
	}
	projects, err := c.store.ListProjects(true)
	if err != nil {
		return err
	}
	jobs, err := c.store.ListJobs()
	if err != nil {
		return err
	}
	tags, err := c.store.ListTags()
	if err != nil {
		return err
	}
	c.posts = posts
	c.public = withoutDraftPosts(posts)
	c.projects = projects
	c.live = withoutDraftProjects(projects)
	c.jobs = jobs
	c.tags = tags
	c.fetched = time.Now()
	return nil
}

type snapshot struct {
	posts    []content.Post
	public   []content.Post
	projects []content.Project
	live     []content.Project
	jobs     []content.Job
	tags     []string
}

// ensureLoaded returns the cached snapshot after ensuring it is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *ContentCache) ensureLoaded() (snapshot, error) {
	c.mu.RLock()
	if c.valid() {
		snap := snapshot{c.posts, c.public, c.projects, c.live, c.jobs, c.tags}
		c.mu.RUnlock()
		return snap, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return snapshot{}, err
	}
	return snapshot{c.posts, c.public, c.projects, c.live, c.jobs, c.tags}, nil
}

// ListPosts returns posts ordered by date descending, optionally
// filtered by tag. Drafts are excluded unless drafts is true.
func (c *ContentCache) ListPosts(tag string, drafts bool) ([]content.Post, error) {
	snap, err := c.ensureLoaded()
	if err != nil {
		return nil, err
	}
	posts := snap.public
	if drafts {
		posts = snap.posts
	}
	if tag == "" {
		return posts, nil
	}
	normalized := normalizeTag(tag)
	var filtered []content.Post
	for _, p := range posts {
		for _, t := range p.Tags {
			if normalizeTag(t) == normalized {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered, nil
}

// GetPost returns a single post by slug. Drafts are invisible unless
// drafts is true.
func (c *ContentCache) GetPost(slug string, drafts bool) (content.Post, error) {
	snap, err := c.ensureLoaded()
	if err != nil {
		return content.Post{}, err
	}
	for _, p := range snap.posts {
		if p.Slug == slug {
			if p.Draft && !drafts {
				return content.Post{}, ErrNotFound
			}
			return p, nil
		}
	}
	return content.Post{}, ErrNotFound
}

// ListTags returns all unique tags on non-draft posts.
func (c *ContentCache) ListTags() ([]string, error) {
	snap, err := c.ensureLoaded()
	return snap.tags, err
}

// ListProjects returns projects ordered by weight. Drafts are excluded
// unless drafts is true.
func (c *ContentCache) ListProjects(drafts bool) ([]content.Project, error) {
	snap, err := c.ensureLoaded()
	if err != nil {
		return nil, err
	}
	if drafts {
		return snap.projects, nil
	}
	return snap.live, nil
}

// ListJobs returns jobs ordered by start date descending.
func (c *ContentCache) ListJobs() ([]content.Job, error) {
	snap, err := c.ensureLoaded()
	return snap.jobs, err
}

func withoutDraftPosts(posts []content.Post) []content.Post {
	public := make([]content.Post, 0, len(posts))
	for _, p := range posts {
		if !p.Draft {
			public = append(public, p)
		}
	}
	return public
}

func withoutDraftProjects(projects []content.Project) []content.Project {
	live := make([]content.Project, 0, len(projects))
	for _, p := range projects {
		if !p.Draft {
			live = append(live, p)
		}
	}
	return live
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
