// Package views renders the site's pages as templ components. Every
// dynamic string is escaped on the way in; the only raw injection is
// the HTML column from the content index, which the markdown renderer
// already sanitized.
package views

import (
	"bytes"
	"context"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/folio/content"
)

// Site holds the site-wide values every page needs.
type Site struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page head metadata: the document title, the
// meta description, and the canonical URL.
type PageMeta struct {
	Title       string
	Description string
	URL         string
}

// page wraps a body writer in the shared document shell and returns it
// as a component. active is the nav path to mark as current.
func page(site Site, meta PageMeta, active string, body func(b *bytes.Buffer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b bytes.Buffer
		b.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
		b.WriteString(`<meta charset="utf-8"/>`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1"/>`)
		b.WriteString(`<title>`)
		b.WriteString(html.EscapeString(meta.Title))
		b.WriteString(`</title>`)
		if meta.Description != "" {
			b.WriteString(`<meta name="description" content="` + html.EscapeString(meta.Description) + `"/>`)
		}
		if meta.URL != "" {
			b.WriteString(`<link rel="canonical" href="` + html.EscapeString(meta.URL) + `"/>`)
		}
		b.WriteString(`<link rel="icon" href="/favicon.svg" type="image/svg+xml"/>`)
		b.WriteString(`<link rel="alternate" type="application/rss+xml" title="` + html.EscapeString(site.Name) + `" href="/feed.xml"/>`)
		b.WriteString(`<link rel="stylesheet" href="/public/styles.css"/>`)
		b.WriteString(`</head><body>`)
		writeHeader(&b, site, active)
		b.WriteString(`<main>`)
		body(&b)
		b.WriteString(`</main>`)
		writeFooter(&b, site)
		b.WriteString(`</body></html>`)
		_, err := w.Write(b.Bytes())
		return err
	})
}

func writeHeader(b *bytes.Buffer, site Site, active string) {
	b.WriteString(`<header class="site-header"><a class="site-name" href="/">`)
	b.WriteString(html.EscapeString(site.Name))
	b.WriteString(`</a><nav>`)
	links := []struct{ href, label string }{
		{"/blog/", "Blog"},
		{"/projects/", "Projects"},
		{"/resume/", "Resume"},
	}
	for _, l := range links {
		if l.href == active {
			b.WriteString(`<a href="` + l.href + `" aria-current="page">` + l.label + `</a>`)
		} else {
			b.WriteString(`<a href="` + l.href + `">` + l.label + `</a>`)
		}
	}
	b.WriteString(`</nav></header>`)
}

func writeFooter(b *bytes.Buffer, site Site) {
	b.WriteString(`<footer class="site-footer"><p>`)
	b.WriteString(html.EscapeString(site.Name))
	if site.Author != "" && site.Author != site.Name {
		b.WriteString(` by ` + html.EscapeString(site.Author))
	}
	b.WriteString(` · <a href="/feed.xml">RSS</a></p></footer>`)
}

func writeDraftBadge(b *bytes.Buffer, draft bool) {
	if draft {
		b.WriteString(` <span class="draft-badge">draft</span>`)
	}
}

func writeTagList(b *bytes.Buffer, tags []string, active string) {
	if len(tags) == 0 {
		return
	}
	b.WriteString(`<ul class="tags">`)
	for _, t := range tags {
		b.WriteString(`<li>`)
		if t == active {
			b.WriteString(`<a href="` + TagLink(t) + `" aria-current="page">` + html.EscapeString(t) + `</a>`)
		} else {
			b.WriteString(`<a href="` + TagLink(t) + `">` + html.EscapeString(t) + `</a>`)
		}
		b.WriteString(`</li>`)
	}
	b.WriteString(`</ul>`)
}

func writePostList(b *bytes.Buffer, posts []content.Post, limit int) {
	if len(posts) == 0 {
		b.WriteString(`<p class="empty">No posts yet.</p>`)
		return
	}
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	b.WriteString(`<ul class="post-list">`)
	for _, p := range posts {
		b.WriteString(`<li><article>`)
		b.WriteString(`<h3><a href="` + p.Link + `">` + html.EscapeString(p.Title) + `</a></h3>`)
		writeDraftBadge(b, p.Draft)
		b.WriteString(`<p class="post-meta"><time datetime="` + html.EscapeString(p.Date) + `">` + DisplayDate(p.Date) + `</time></p>`)
		if p.Summary != "" {
			b.WriteString(`<p>` + html.EscapeString(p.Summary) + `</p>`)
		}
		b.WriteString(`</article></li>`)
	}
	b.WriteString(`</ul>`)
}

// Home renders the landing page: site intro, recent posts, and the
// top projects.
func Home(site Site, meta PageMeta, posts []content.Post, projects []content.Project) templ.Component {
	return page(site, meta, "/", func(b *bytes.Buffer) {
		b.WriteString(`<section class="intro"><h1>` + html.EscapeString(site.Name) + `</h1>`)
		if site.Description != "" {
			b.WriteString(`<p>` + html.EscapeString(site.Description) + `</p>`)
		}
		b.WriteString(`</section>`)

		b.WriteString(`<section class="recent-posts"><h2>Recent posts</h2>`)
		writePostList(b, posts, 5)
		b.WriteString(`<p><a href="/blog/">All posts</a></p></section>`)

		if len(projects) > 0 {
			b.WriteString(`<section class="featured-projects"><h2>Projects</h2><ul class="project-list">`)
			shown := projects
			if len(shown) > 3 {
				shown = shown[:3]
			}
			for _, p := range shown {
				b.WriteString(`<li><h3>` + html.EscapeString(p.Title) + `</h3>`)
				if p.Summary != "" {
					b.WriteString(`<p>` + html.EscapeString(p.Summary) + `</p>`)
				}
				b.WriteString(`</li>`)
			}
			b.WriteString(`</ul><p><a href="/projects/">All projects</a></p></section>`)
		}
	})
}

// Blog renders the post index, optionally narrowed to one tag.
func Blog(site Site, meta PageMeta, posts []content.Post, tags []string, activeTag string) templ.Component {
	active := "/blog/"
	return page(site, meta, active, func(b *bytes.Buffer) {
		if activeTag != "" {
			b.WriteString(`<h1>Posts tagged ` + html.EscapeString(activeTag) + `</h1>`)
			b.WriteString(`<p><a href="/blog/">All posts</a></p>`)
		} else {
			b.WriteString(`<h1>Blog</h1>`)
		}
		writeTagList(b, tags, activeTag)
		writePostList(b, posts, 0)
	})
}

// Post renders a single post page. all should be the full post list;
// posts sharing a tag with this one are linked at the bottom.
func Post(site Site, meta PageMeta, post content.Post, all []content.Post) templ.Component {
	return page(site, meta, "/blog/", func(b *bytes.Buffer) {
		b.WriteString(`<article class="post">`)
		b.WriteString(`<header><h1>` + html.EscapeString(post.Title) + `</h1>`)
		writeDraftBadge(b, post.Draft)
		b.WriteString(`<p class="post-meta"><time datetime="` + html.EscapeString(post.Date) + `">` + DisplayDate(post.Date) + `</time></p>`)
		writeTagList(b, post.Tags, "")
		b.WriteString(`</header>`)
		b.WriteString(`<div class="post-body">`)
		b.WriteString(post.HTML)
		b.WriteString(`</div></article>`)

		related := FilterRelatedPosts(post, all)
		if len(related) > 0 {
			if len(related) > 3 {
				related = related[:3]
			}
			b.WriteString(`<aside class="related"><h2>Related posts</h2><ul>`)
			for _, p := range related {
				b.WriteString(`<li><a href="` + p.Link + `">` + html.EscapeString(p.Title) + `</a></li>`)
			}
			b.WriteString(`</ul></aside>`)
		}
	})
}

// Projects renders the project listing.
func Projects(site Site, meta PageMeta, projects []content.Project) templ.Component {
	return page(site, meta, "/projects/", func(b *bytes.Buffer) {
		b.WriteString(`<h1>Projects</h1>`)
		if len(projects) == 0 {
			b.WriteString(`<p class="empty">No projects yet.</p>`)
			return
		}
		b.WriteString(`<ul class="project-list">`)
		for _, p := range projects {
			b.WriteString(`<li class="project">`)
			if p.Image != "" {
				b.WriteString(`<img src="/thumbs/` + html.EscapeString(p.Slug) + `.jpg" alt="` + html.EscapeString(p.Title) + `" width="800" loading="lazy"/>`)
			}
			b.WriteString(`<h2>` + html.EscapeString(p.Title) + `</h2>`)
			writeDraftBadge(b, p.Draft)
			if p.Summary != "" {
				b.WriteString(`<p>` + html.EscapeString(p.Summary) + `</p>`)
			}
			if len(p.Tech) > 0 {
				b.WriteString(`<ul class="tech">`)
				for _, t := range p.Tech {
					b.WriteString(`<li>` + html.EscapeString(t) + `</li>`)
				}
				b.WriteString(`</ul>`)
			}
			if p.Repo != "" || p.Demo != "" {
				b.WriteString(`<p class="project-links">`)
				if p.Repo != "" {
					b.WriteString(`<a href="` + html.EscapeString(p.Repo) + `" target="_blank" rel="noopener noreferrer">Source</a> `)
				}
				if p.Demo != "" {
					b.WriteString(`<a href="` + html.EscapeString(p.Demo) + `" target="_blank" rel="noopener noreferrer">Demo</a>`)
				}
				b.WriteString(`</p>`)
			}
			if p.HTML != "" {
				b.WriteString(`<div class="project-body">` + p.HTML + `</div>`)
			}
			b.WriteString(`</li>`)
		}
		b.WriteString(`</ul>`)
	})
}

// Resume renders the job history, newest first.
func Resume(site Site, meta PageMeta, jobs []content.Job) templ.Component {
	return page(site, meta, "/resume/", func(b *bytes.Buffer) {
		b.WriteString(`<h1>Resume</h1>`)
		if len(jobs) == 0 {
			b.WriteString(`<p class="empty">Nothing here yet.</p>`)
			return
		}
		b.WriteString(`<ul class="jobs">`)
		for _, j := range jobs {
			b.WriteString(`<li class="job">`)
			b.WriteString(`<h2>` + html.EscapeString(j.Role) + `</h2>`)
			b.WriteString(`<p class="job-meta">` + html.EscapeString(j.Company))
			if j.Location != "" {
				b.WriteString(` · ` + html.EscapeString(j.Location))
			}
			b.WriteString(` · <span class="job-dates">` + DateRange(j.Start, j.End) + `</span></p>`)
			if j.Summary != "" {
				b.WriteString(`<p>` + html.EscapeString(j.Summary) + `</p>`)
			}
			if j.HTML != "" {
				b.WriteString(`<div class="job-body">` + j.HTML + `</div>`)
			}
			b.WriteString(`</li>`)
		}
		b.WriteString(`</ul>`)
	})
}

// Preview renders the draft preview page: a login form when logged
// out, a status panel with a logout button when logged in.
func Preview(site Site, csrf string, authed bool, errMsg string) templ.Component {
	meta := PageMeta{Title: "Preview · " + site.Name}
	return page(site, meta, "", func(b *bytes.Buffer) {
		b.WriteString(`<h1>Draft preview</h1>`)
		if authed {
			b.WriteString(`<p>Preview mode is on. Drafts are visible in listings and feeds stay public-only.</p>`)
			b.WriteString(`<form method="post" action="/preview/logout/">`)
			b.WriteString(`<input type="hidden" name="_csrf" value="` + html.EscapeString(csrf) + `"/>`)
			b.WriteString(`<button type="submit">Log out</button></form>`)
			return
		}
		if errMsg != "" {
			b.WriteString(`<p class="error">` + html.EscapeString(errMsg) + `</p>`)
		}
		b.WriteString(`<form method="post" action="/preview/login/">`)
		b.WriteString(`<input type="hidden" name="_csrf" value="` + html.EscapeString(csrf) + `"/>`)
		b.WriteString(`<label>Password <input type="password" name="password" autocomplete="current-password" required/></label>`)
		b.WriteString(`<button type="submit">Log in</button></form>`)
	})
}

// NotFound renders the 404 page.
func NotFound(site Site) templ.Component {
	meta := PageMeta{Title: "Not found · " + site.Name}
	return page(site, meta, "", func(b *bytes.Buffer) {
		b.WriteString(`<h1>404</h1>`)
		b.WriteString(`<p>That page does not exist.</p>`)
		b.WriteString(`<p><a href="/">Back home</a></p>`)
	})
}

// ServerError renders the 500 page.
func ServerError(site Site) templ.Component {
	meta := PageMeta{Title: "Something went wrong · " + site.Name}
	return page(site, meta, "", func(b *bytes.Buffer) {
		b.WriteString(`<h1>500</h1>`)
		b.WriteString(`<p>Something went wrong. Try again in a moment.</p>`)
	})
}
