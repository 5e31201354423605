package views

import (
	"net/url"
	"strings"
	"time"

	"github.com/eringen/folio/content"
)

// DisplayDate formats an ISO date (2006-01-02) for humans. Unparseable
// input comes back unchanged.
func DisplayDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("January 2, 2006")
}

// DateRange formats a job's start and end months. An empty end means
// the job is current.
func DateRange(start, end string) string {
	out := monthYear(start) + " – "
	if end == "" {
		return out + "Present"
	}
	return out + monthYear(end)
}

func monthYear(s string) string {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2006")
}

// TagLink returns the canonical path of a tag's listing page.
func TagLink(tag string) string {
	return "/blog/tags/" + url.PathEscape(tag) + "/"
}

// FilterRelatedPosts returns posts that share at least one tag with
// the current post, preserving their date order.
func FilterRelatedPosts(current content.Post, posts []content.Post) []content.Post {
	tagSet := make(map[string]struct{})
	for _, t := range current.Tags {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag != "" {
			tagSet[tag] = struct{}{}
		}
	}
	var related []content.Post
	for _, p := range posts {
		if p.Slug == current.Slug {
			continue
		}
		for _, t := range p.Tags {
			tag := strings.ToLower(strings.TrimSpace(t))
			if _, ok := tagSet[tag]; ok {
				related = append(related, p)
				break
			}
		}
	}
	return related
}
