package folio

import (
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/eringen/folio/content"
)

// Store is the SQLite index over the content directory. The markdown
// files are the source of truth; ReplaceAll rebuilds the index from a
// freshly loaded bundle, so rows never outlive the files they came from.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite index at path, ensures the
// data directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent read/write access, set a busy timeout
	// so writers wait instead of returning SQLITE_BUSY immediately, and tune
	// performance: synchronous=NORMAL is safe with WAL and avoids an fsync
	// per transaction; larger cache and mmap reduce disk I/O.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    tags TEXT NOT NULL,
    summary TEXT NOT NULL,
    html TEXT NOT NULL,
    draft INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS projects (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    weight INTEGER NOT NULL,
    repo TEXT NOT NULL,
    demo TEXT NOT NULL,
    tech TEXT NOT NULL,
    summary TEXT NOT NULL,
    image TEXT NOT NULL,
    html TEXT NOT NULL,
    draft INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS jobs (
    slug TEXT PRIMARY KEY,
    company TEXT NOT NULL,
    role TEXT NOT NULL,
    location TEXT NOT NULL,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    summary TEXT NOT NULL,
    html TEXT NOT NULL
);
`)
	return err
}

// ReplaceAll swaps the entire index for the given bundle in a single
// transaction. Readers either see the old content or the new, never a
// partially loaded mix.
func (s *Store) ReplaceAll(b content.Bundle) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"posts", "projects", "jobs"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return err
		}
	}
	for _, p := range b.Posts {
		draft := 0
		if p.Draft {
			draft = 1
		}
		if _, err := tx.Exec(`INSERT INTO posts (slug, title, date, tags, summary, html, draft) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.Slug, p.Title, p.Date, JoinTags(p.Tags), p.Summary, p.HTML, draft); err != nil {
			return err
		}
	}
	for _, p := range b.Projects {
		draft := 0
		if p.Draft {
			draft = 1
		}
		if _, err := tx.Exec(`INSERT INTO projects (slug, title, weight, repo, demo, tech, summary, image, html, draft) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Slug, p.Title, p.Weight, p.Repo, p.Demo, JoinTags(p.Tech), p.Summary, p.Image, p.HTML, draft); err != nil {
			return err
		}
	}
	for _, j := range b.Jobs {
		if _, err := tx.Exec(`INSERT INTO jobs (slug, company, role, location, start_date, end_date, summary, html) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			j.Slug, j.Company, j.Role, j.Location, j.Start, j.End, j.Summary, j.HTML); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListPosts returns posts ordered by date descending. If tag is
// non-empty, results are filtered to posts carrying that tag. Drafts
// are excluded unless drafts is true.
func (s *Store) ListPosts(tag string, drafts bool) ([]content.Post, error) {
	q := `SELECT slug, title, date, tags, summary, html, draft FROM posts`
	var conds []string
	var args []any
	if !drafts {
		conds = append(conds, `draft = 0`)
	}
	if tag != "" {
		conds = append(conds, `instr(lower(tags), ',' || ? || ',') > 0`)
		args = append(args, strings.ToLower(strings.TrimSpace(tag)))
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	q += ` ORDER BY date DESC, slug ASC`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

// GetPost returns a single post by slug. Drafts are invisible unless
// drafts is true.
func (s *Store) GetPost(slug string, drafts bool) (content.Post, error) {
	q := `SELECT slug, title, date, tags, summary, html, draft FROM posts WHERE slug = ?`
	if !drafts {
		q += ` AND draft = 0`
	}
	var p content.Post
	var tags string
	var draft int
	err := s.db.QueryRow(q, slug).Scan(&p.Slug, &p.Title, &p.Date, &tags, &p.Summary, &p.HTML, &draft)
	if err != nil {
		return content.Post{}, err
	}
	p.Tags = ParseTags(tags)
	p.Draft = draft == 1
	p.Link = "/blog/" + p.Slug + "/"
	return p, nil
}

// ListTags returns a sorted, deduplicated slice of all tags on
// non-draft posts.
func (s *Store) ListTags() ([]string, error) {
	rows, err := s.db.Query(`SELECT tags FROM posts WHERE draft = 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		for _, t := range ParseTags(tags) {
			set[strings.ToLower(t)] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var result []string
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// ListProjects returns projects ordered by weight ascending, title as
// tie-break. Drafts are excluded unless drafts is true.
func (s *Store) ListProjects(drafts bool) ([]content.Project, error) {
	q := `SELECT slug, title, weight, repo, demo, tech, summary, image, html, draft FROM projects`
	if !drafts {
		q += ` WHERE draft = 0`
	}
	q += ` ORDER BY weight ASC, title ASC`

	rows, err := s.db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []content.Project
	for rows.Next() {
		var p content.Project
		var tech string
		var draft int
		if err := rows.Scan(&p.Slug, &p.Title, &p.Weight, &p.Repo, &p.Demo, &tech, &p.Summary, &p.Image, &p.HTML, &draft); err != nil {
			return nil, err
		}
		p.Tech = ParseTags(tech)
		p.Draft = draft == 1
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}

// ListJobs returns jobs ordered by start date descending.
func (s *Store) ListJobs() ([]content.Job, error) {
	rows, err := s.db.Query(`SELECT slug, company, role, location, start_date, end_date, summary, html FROM jobs ORDER BY start_date DESC, slug ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []content.Job
	for rows.Next() {
		var j content.Job
		if err := rows.Scan(&j.Slug, &j.Company, &j.Role, &j.Location, &j.Start, &j.End, &j.Summary, &j.HTML); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

func scanPosts(rows *sql.Rows) ([]content.Post, error) {
	var posts []content.Post
	for rows.Next() {
		var p content.Post
		var tags string
		var draft int
		if err := rows.Scan(&p.Slug, &p.Title, &p.Date, &tags, &p.Summary, &p.HTML, &draft); err != nil {
			return nil, err
		}
		p.Tags = ParseTags(tags)
		p.Draft = draft == 1
		p.Link = "/blog/" + p.Slug + "/"
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// JoinTags encodes tags in sentinel-comma form (",go,web,") so a single
// instr() can match whole tags without a join table.
func JoinTags(tags []string) string {
	if len(tags) == 0 {
		return ",,"
	}
	normalized := make([]string, len(tags))
	for i, t := range tags {
		normalized[i] = strings.ToLower(strings.TrimSpace(t))
	}
	return "," + strings.Join(normalized, ",") + ","
}

// ParseTags splits a sentinel-comma tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
