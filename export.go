package folio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/a-h/templ"
	"golang.org/x/sync/errgroup"
)

// Export renders the public site into cfg.OutputDir: every page, the
// feeds, robots.txt, the static assets, and the project thumbnails.
// Drafts never appear in the output. Existing files are overwritten
// but nothing is deleted.
func (a *App) Export(ctx context.Context) error {
	if err := a.setup(); err != nil {
		return err
	}

	out := a.Config.OutputDir
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("folio: create output dir: %w", err)
	}

	posts, err := a.Cache.ListPosts("", false)
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags()
	if err != nil {
		return err
	}

	type page struct {
		path  string
		build func() (templ.Component, error)
	}
	pages := []page{
		{"index.html", func() (templ.Component, error) { return a.homePage(false) }},
		{"blog/index.html", func() (templ.Component, error) { return a.blogPage(false) }},
		{"projects/index.html", func() (templ.Component, error) { return a.projectsPage(false) }},
		{"resume/index.html", func() (templ.Component, error) { return a.resumePage() }},
	}
	for _, p := range posts {
		slug := p.Slug
		pages = append(pages, page{
			path:  filepath.Join("blog", slug, "index.html"),
			build: func() (templ.Component, error) { return a.postPage(slug, false) },
		})
	}
	for _, t := range tags {
		tag := t
		pages = append(pages, page{
			path:  filepath.Join("blog", "tags", tag, "index.html"),
			build: func() (templ.Component, error) { return a.tagPage(tag, false) },
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, p := range pages {
		g.Go(func() error {
			cmp, err := p.build()
			if err != nil {
				return fmt.Errorf("build %s: %w", p.path, err)
			}
			return renderToFile(gctx, cmp, filepath.Join(out, p.path))
		})
	}

	g.Go(func() error {
		var buf bytes.Buffer
		if err := writeXML(&buf, a.buildRSS(posts)); err != nil {
			return err
		}
		return writeFile(filepath.Join(out, "feed.xml"), buf.Bytes())
	})
	g.Go(func() error {
		var buf bytes.Buffer
		if err := writeXML(&buf, a.buildSitemap(posts, tags)); err != nil {
			return err
		}
		return writeFile(filepath.Join(out, "sitemap.xml"), buf.Bytes())
	})
	g.Go(func() error {
		return writeFile(filepath.Join(out, "robots.txt"), []byte(a.buildRobots()))
	})
	g.Go(func() error {
		var buf bytes.Buffer
		if err := a.notFoundPage().Render(gctx, &buf); err != nil {
			return err
		}
		return writeFile(filepath.Join(out, "404.html"), buf.Bytes())
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if err := copyDir(a.Config.StaticDir, filepath.Join(out, "public")); err != nil {
		return fmt.Errorf("folio: copy static assets: %w", err)
	}
	if err := copyDir(a.thumbsDir(), filepath.Join(out, "thumbs")); err != nil {
		return fmt.Errorf("folio: copy thumbnails: %w", err)
	}
	if err := a.exportDefaults(out); err != nil {
		return err
	}
	return nil
}

// exportDefaults writes the favicon and stylesheet, preferring the
// user's files over the embedded defaults, matching what the server
// serves.
func (a *App) exportDefaults(out string) error {
	userFavicon := filepath.Join(a.Config.StaticDir, "favicon.svg")
	favicon, err := os.ReadFile(userFavicon)
	if err != nil {
		favicon, err = EmbeddedAssets.ReadFile("embedded/favicon.svg")
		if err != nil {
			return err
		}
	}
	if err := writeFile(filepath.Join(out, "favicon.svg"), favicon); err != nil {
		return err
	}

	userStyles := filepath.Join(a.Config.StaticDir, "styles.css")
	if _, err := os.Stat(userStyles); err == nil {
		// Already present via the static copy.
		return nil
	}
	styles, err := EmbeddedAssets.ReadFile("embedded/styles.css")
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(out, "public", "styles.css"), styles)
}

func renderToFile(ctx context.Context, cmp templ.Component, path string) error {
	var buf bytes.Buffer
	if err := cmp.Render(ctx, &buf); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// copyDir copies src into dst recursively. A missing src is not an
// error; sites without static assets or thumbnails are fine.
func copyDir(src, dst string) error {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
