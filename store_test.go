package folio

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/eringen/folio/content"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testBundle() content.Bundle {
	return content.Bundle{
		Posts: []content.Post{
			{Slug: "oldest", Title: "Oldest", Date: "2024-01-01", Tags: []string{"go"}, Summary: "s1", HTML: "<p>one</p>"},
			{Slug: "middle", Title: "Middle", Date: "2024-02-01", Tags: []string{"go", "web"}, Summary: "s2", HTML: "<p>two</p>"},
			{Slug: "newest", Title: "Newest", Date: "2024-03-01", Tags: []string{"rust"}, Summary: "s3", HTML: "<p>three</p>"},
			{Slug: "hidden", Title: "Hidden", Date: "2024-04-01", Tags: []string{"go"}, Summary: "s4", HTML: "<p>four</p>", Draft: true},
		},
		Projects: []content.Project{
			{Slug: "beta", Title: "Beta", Weight: 20, Repo: "https://example.com/beta", Tech: []string{"go"}, Summary: "b", HTML: "<p>b</p>"},
			{Slug: "alpha", Title: "Alpha", Weight: 10, Demo: "https://alpha.example.com", Tech: []string{"go", "sqlite"}, Summary: "a", HTML: "<p>a</p>"},
			{Slug: "wip", Title: "WIP", Weight: 5, Summary: "w", HTML: "<p>w</p>", Draft: true},
		},
		Jobs: []content.Job{
			{Slug: "older-job", Company: "First Corp", Role: "Engineer", Start: "2019-06", End: "2020-08", Summary: "j1", HTML: "<p>j1</p>"},
			{Slug: "current-job", Company: "Now Inc", Role: "Senior Engineer", Location: "Remote", Start: "2021-04", Summary: "j2", HTML: "<p>j2</p>"},
		},
	}
}

func seedStore(t *testing.T) *Store {
	t.Helper()
	s := setupTestStore(t)
	if err := s.ReplaceAll(testBundle()); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	return s
}

func TestListPostsExcludesDrafts(t *testing.T) {
	s := seedStore(t)

	got, err := s.ListPosts("", false)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListPosts count = %d, want 3", len(got))
	}
	// Ordered by date descending.
	if got[0].Slug != "newest" || got[2].Slug != "oldest" {
		t.Errorf("unexpected order: %s .. %s", got[0].Slug, got[2].Slug)
	}
	for _, p := range got {
		if p.Draft {
			t.Errorf("draft %s leaked into public listing", p.Slug)
		}
	}
}

func TestListPostsWithDrafts(t *testing.T) {
	s := seedStore(t)

	got, err := s.ListPosts("", true)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("ListPosts count = %d, want 4", len(got))
	}
	if got[0].Slug != "hidden" {
		t.Errorf("first post = %s, want hidden (latest date)", got[0].Slug)
	}
	if !got[0].Draft {
		t.Errorf("draft flag lost on %s", got[0].Slug)
	}
}

func TestListPostsByTag(t *testing.T) {
	s := seedStore(t)

	got, err := s.ListPosts("go", false)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListPosts(go) count = %d, want 2", len(got))
	}

	got, err = s.ListPosts("go", true)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListPosts(go, drafts) count = %d, want 3", len(got))
	}

	got, err = s.ListPosts("nonexistent", false)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListPosts(nonexistent) count = %d, want 0", len(got))
	}
}

func TestListPostsTagCaseInsensitive(t *testing.T) {
	s := seedStore(t)

	got, err := s.ListPosts("GO", false)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListPosts(GO) count = %d, want 2", len(got))
	}

	// A tag that is a substring of another must not match.
	got, err = s.ListPosts("rus", false)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListPosts(rus) count = %d, want 0", len(got))
	}
}

func TestGetPost(t *testing.T) {
	s := seedStore(t)

	got, err := s.GetPost("middle", false)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "Middle" {
		t.Errorf("Title = %q, want %q", got.Title, "Middle")
	}
	if got.HTML != "<p>two</p>" {
		t.Errorf("HTML = %q, want %q", got.HTML, "<p>two</p>")
	}
	if got.Link != "/blog/middle/" {
		t.Errorf("Link = %q, want %q", got.Link, "/blog/middle/")
	}
	if len(got.Tags) != 2 || got.Tags[0] != "go" || got.Tags[1] != "web" {
		t.Errorf("Tags = %v, want [go web]", got.Tags)
	}
}

func TestGetPostNotFound(t *testing.T) {
	s := seedStore(t)

	_, err := s.GetPost("nonexistent", false)
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestGetPostDraftVisibility(t *testing.T) {
	s := seedStore(t)

	_, err := s.GetPost("hidden", false)
	if err != sql.ErrNoRows {
		t.Errorf("draft should be invisible publicly, got %v", err)
	}

	got, err := s.GetPost("hidden", true)
	if err != nil {
		t.Fatalf("GetPost with drafts failed: %v", err)
	}
	if !got.Draft {
		t.Error("Draft flag should be set")
	}
}

func TestReplaceAllSwapsContent(t *testing.T) {
	s := seedStore(t)

	next := content.Bundle{
		Posts: []content.Post{
			{Slug: "only", Title: "Only", Date: "2025-01-01", Summary: "s", HTML: "<p>x</p>"},
		},
	}
	if err := s.ReplaceAll(next); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	posts, err := s.ListPosts("", true)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Slug != "only" {
		t.Fatalf("posts after swap = %v, want just %q", posts, "only")
	}

	projects, err := s.ListProjects(true)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("projects after swap = %d, want 0", len(projects))
	}

	jobs, err := s.ListJobs()
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("jobs after swap = %d, want 0", len(jobs))
	}
}

func TestListTags(t *testing.T) {
	s := seedStore(t)

	got, err := s.ListTags()
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}

	// Tags from the draft post do not count; "go" appears on a draft
	// and two public posts and shows up once.
	want := []string{"go", "rust", "web"}
	if len(got) != len(want) {
		t.Fatalf("ListTags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListTags[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestListProjectsOrderAndDrafts(t *testing.T) {
	s := seedStore(t)

	got, err := s.ListProjects(false)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListProjects count = %d, want 2", len(got))
	}
	// Ordered by weight ascending.
	if got[0].Slug != "alpha" || got[1].Slug != "beta" {
		t.Errorf("order = [%s %s], want [alpha beta]", got[0].Slug, got[1].Slug)
	}
	if len(got[0].Tech) != 2 || got[0].Tech[1] != "sqlite" {
		t.Errorf("Tech = %v, want [go sqlite]", got[0].Tech)
	}

	all, err := s.ListProjects(true)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListProjects(drafts) count = %d, want 3", len(all))
	}
	if all[0].Slug != "wip" {
		t.Errorf("first project = %s, want wip (lowest weight)", all[0].Slug)
	}
}

func TestListJobsOrder(t *testing.T) {
	s := seedStore(t)

	got, err := s.ListJobs()
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListJobs count = %d, want 2", len(got))
	}
	// Most recent start first.
	if got[0].Slug != "current-job" {
		t.Errorf("first job = %s, want current-job", got[0].Slug)
	}
	if got[0].End != "" {
		t.Errorf("End = %q, want empty for ongoing job", got[0].End)
	}
	if got[1].End != "2020-08" {
		t.Errorf("End = %q, want 2020-08", got[1].End)
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{",", nil},
		{",,", nil},
		{",go,", []string{"go"}},
		{",go,web,", []string{"go", "web"}},
		{",go, web ,rust,", []string{"go", "web", "rust"}},
	}

	for _, tt := range tests {
		got := ParseTags(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("ParseTags(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseTags(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestJoinTags(t *testing.T) {
	tests := []struct {
		input []string
		want  string
	}{
		{nil, ",,"},
		{[]string{"go"}, ",go,"},
		{[]string{"Go", " Web "}, ",go,web,"},
	}

	for _, tt := range tests {
		if got := JoinTags(tt.input); got != tt.want {
			t.Errorf("JoinTags(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
