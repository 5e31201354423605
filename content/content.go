// Package content loads the markdown files that make up a folio site:
// blog posts, portfolio projects, and job history entries. Each file is
// a YAML frontmatter block followed by a markdown body; the body is
// rendered to sanitized HTML exactly once here, so templates downstream
// only ever inject pre-parsed data.
package content

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eringen/folio/markdown"
)

// Post is a blog entry.
type Post struct {
	Slug    string
	Title   string
	Date    string // YYYY-MM-DD
	Tags    []string
	Summary string
	Draft   bool
	Content string // raw markdown body
	HTML    string // sanitized HTML, rendered at load time
	Link    string
}

// Project is a portfolio entry shown on the projects page.
type Project struct {
	Slug    string
	Title   string
	Weight  int // listing order, lower first
	Repo    string
	Demo    string
	Tech    []string
	Summary string
	Image   string // source image path relative to the static dir
	Draft   bool
	Content string
	HTML    string
}

// Job is one entry of the work history shown on the resume page.
type Job struct {
	Slug     string
	Company  string
	Role     string
	Location string
	Start    string // YYYY-MM
	End      string // YYYY-MM, empty while ongoing
	Summary  string
	Content  string
	HTML     string
}

// Bundle holds everything a content directory yields in one load.
type Bundle struct {
	Posts    []Post
	Projects []Project
	Jobs     []Job
}

type postMeta struct {
	Title   string   `yaml:"title"`
	Date    string   `yaml:"date"`
	Tags    []string `yaml:"tags"`
	Summary string   `yaml:"summary"`
	Slug    string   `yaml:"slug"`
	Draft   bool     `yaml:"draft"`
}

type projectMeta struct {
	Title   string   `yaml:"title"`
	Weight  int      `yaml:"weight"`
	Repo    string   `yaml:"repo"`
	Demo    string   `yaml:"demo"`
	Tech    []string `yaml:"tech"`
	Summary string   `yaml:"summary"`
	Image   string   `yaml:"image"`
	Slug    string   `yaml:"slug"`
	Draft   bool     `yaml:"draft"`
}

type jobMeta struct {
	Company  string `yaml:"company"`
	Role     string `yaml:"role"`
	Location string `yaml:"location"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	Summary  string `yaml:"summary"`
	Slug     string `yaml:"slug"`
}

// LoadPost parses one post file. The slug defaults to the slugified
// filename; frontmatter may override it.
func LoadPost(path string, data []byte) (Post, error) {
	fm, body, err := ParseFrontmatter(data)
	if err != nil {
		return Post{}, fmt.Errorf("%s: %w", path, err)
	}
	var meta postMeta
	if err := yaml.Unmarshal(fm, &meta); err != nil {
		return Post{}, fmt.Errorf("%s: parse frontmatter: %w", path, err)
	}
	if meta.Title == "" {
		return Post{}, fmt.Errorf("%s: title is required", path)
	}
	if meta.Date == "" {
		return Post{}, fmt.Errorf("%s: date is required", path)
	}
	if _, err := time.Parse("2006-01-02", meta.Date); err != nil {
		return Post{}, fmt.Errorf("%s: invalid date %q, want YYYY-MM-DD", path, meta.Date)
	}
	slug, err := slugFor(path, meta.Slug)
	if err != nil {
		return Post{}, err
	}
	return Post{
		Slug:    slug,
		Title:   meta.Title,
		Date:    meta.Date,
		Tags:    normalizeTags(meta.Tags),
		Summary: meta.Summary,
		Draft:   meta.Draft,
		Content: string(body),
		HTML:    renderHTML(body),
		Link:    "/blog/" + slug + "/",
	}, nil
}

// LoadProject parses one project file.
func LoadProject(path string, data []byte) (Project, error) {
	fm, body, err := ParseFrontmatter(data)
	if err != nil {
		return Project{}, fmt.Errorf("%s: %w", path, err)
	}
	var meta projectMeta
	if err := yaml.Unmarshal(fm, &meta); err != nil {
		return Project{}, fmt.Errorf("%s: parse frontmatter: %w", path, err)
	}
	if meta.Title == "" {
		return Project{}, fmt.Errorf("%s: title is required", path)
	}
	slug, err := slugFor(path, meta.Slug)
	if err != nil {
		return Project{}, err
	}
	return Project{
		Slug:    slug,
		Title:   meta.Title,
		Weight:  meta.Weight,
		Repo:    meta.Repo,
		Demo:    meta.Demo,
		Tech:    normalizeTags(meta.Tech),
		Summary: meta.Summary,
		Image:   meta.Image,
		Draft:   meta.Draft,
		Content: string(body),
		HTML:    renderHTML(body),
	}, nil
}

// LoadJob parses one job history file.
func LoadJob(path string, data []byte) (Job, error) {
	fm, body, err := ParseFrontmatter(data)
	if err != nil {
		return Job{}, fmt.Errorf("%s: %w", path, err)
	}
	var meta jobMeta
	if err := yaml.Unmarshal(fm, &meta); err != nil {
		return Job{}, fmt.Errorf("%s: parse frontmatter: %w", path, err)
	}
	if meta.Company == "" {
		return Job{}, fmt.Errorf("%s: company is required", path)
	}
	if meta.Role == "" {
		return Job{}, fmt.Errorf("%s: role is required", path)
	}
	if meta.Start == "" {
		return Job{}, fmt.Errorf("%s: start is required", path)
	}
	if _, err := time.Parse("2006-01", meta.Start); err != nil {
		return Job{}, fmt.Errorf("%s: invalid start %q, want YYYY-MM", path, meta.Start)
	}
	if meta.End != "" {
		if _, err := time.Parse("2006-01", meta.End); err != nil {
			return Job{}, fmt.Errorf("%s: invalid end %q, want YYYY-MM", path, meta.End)
		}
	}
	slug, err := slugFor(path, meta.Slug)
	if err != nil {
		return Job{}, err
	}
	return Job{
		Slug:     slug,
		Company:  meta.Company,
		Role:     meta.Role,
		Location: meta.Location,
		Start:    meta.Start,
		End:      meta.End,
		Summary:  meta.Summary,
		Content:  string(body),
		HTML:     renderHTML(body),
	}, nil
}

// LoadDir reads the posts, projects, and jobs subdirectories of dir.
// A malformed file fails the whole load with its path in the error; a
// silently dropped page is worse than a failed build. Missing
// subdirectories and non-markdown files are skipped.
func LoadDir(dir string) (Bundle, error) {
	var b Bundle

	err := eachMarkdownFile(filepath.Join(dir, "posts"), func(path string, data []byte) error {
		p, err := LoadPost(path, data)
		if err != nil {
			return err
		}
		b.Posts = append(b.Posts, p)
		return nil
	})
	if err != nil {
		return Bundle{}, err
	}

	err = eachMarkdownFile(filepath.Join(dir, "projects"), func(path string, data []byte) error {
		p, err := LoadProject(path, data)
		if err != nil {
			return err
		}
		b.Projects = append(b.Projects, p)
		return nil
	})
	if err != nil {
		return Bundle{}, err
	}

	err = eachMarkdownFile(filepath.Join(dir, "jobs"), func(path string, data []byte) error {
		j, err := LoadJob(path, data)
		if err != nil {
			return err
		}
		b.Jobs = append(b.Jobs, j)
		return nil
	})
	if err != nil {
		return Bundle{}, err
	}

	if err := checkSlugs(&b); err != nil {
		return Bundle{}, err
	}

	sort.Slice(b.Posts, func(i, j int) bool {
		if b.Posts[i].Date != b.Posts[j].Date {
			return b.Posts[i].Date > b.Posts[j].Date
		}
		return b.Posts[i].Slug < b.Posts[j].Slug
	})
	sort.Slice(b.Projects, func(i, j int) bool {
		if b.Projects[i].Weight != b.Projects[j].Weight {
			return b.Projects[i].Weight < b.Projects[j].Weight
		}
		return b.Projects[i].Title < b.Projects[j].Title
	})
	sort.Slice(b.Jobs, func(i, j int) bool {
		if b.Jobs[i].Start != b.Jobs[j].Start {
			return b.Jobs[i].Start > b.Jobs[j].Start
		}
		return b.Jobs[i].Slug < b.Jobs[j].Slug
	})
	return b, nil
}

func eachMarkdownFile(dir string, fn func(path string, data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := fn(path, data); err != nil {
			return err
		}
	}
	return nil
}

func checkSlugs(b *Bundle) error {
	posts := make(map[string]struct{}, len(b.Posts))
	for _, p := range b.Posts {
		if _, ok := posts[p.Slug]; ok {
			return fmt.Errorf("duplicate post slug %q", p.Slug)
		}
		posts[p.Slug] = struct{}{}
	}
	projects := make(map[string]struct{}, len(b.Projects))
	for _, p := range b.Projects {
		if _, ok := projects[p.Slug]; ok {
			return fmt.Errorf("duplicate project slug %q", p.Slug)
		}
		projects[p.Slug] = struct{}{}
	}
	jobs := make(map[string]struct{}, len(b.Jobs))
	for _, j := range b.Jobs {
		if _, ok := jobs[j.Slug]; ok {
			return fmt.Errorf("duplicate job slug %q", j.Slug)
		}
		jobs[j.Slug] = struct{}{}
	}
	return nil
}

func slugFor(path, override string) (string, error) {
	slug := override
	if slug == "" {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		slug = Slugify(base)
	}
	if slug == "" {
		return "", fmt.Errorf("%s: cannot derive a slug", path)
	}
	return slug, nil
}

func renderHTML(body []byte) string {
	var buf bytes.Buffer
	markdown.RenderMarkdown(&buf, string(body))
	return buf.String()
}

// normalizeTags lowercases, trims, and deduplicates while keeping the
// author's order. Comparison elsewhere is case-insensitive, so storing
// one case keeps queries simple.
func normalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Slugify converts a title or filename to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
