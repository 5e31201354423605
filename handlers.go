package folio

import (
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/views"
)

// The page builders below are shared by the HTTP handlers and the
// static exporter, so a built site is byte-identical to what the
// server renders for an unauthenticated request.

func (a *App) homePage(drafts bool) (templ.Component, error) {
	posts, err := a.Cache.ListPosts("", drafts)
	if err != nil {
		return nil, err
	}
	projects, err := a.Cache.ListProjects(drafts)
	if err != nil {
		return nil, err
	}
	meta := views.PageMeta{
		Title:       a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL),
	}
	return views.Home(a.site, meta, posts, projects), nil
}

func (a *App) blogPage(drafts bool) (templ.Component, error) {
	posts, err := a.Cache.ListPosts("", drafts)
	if err != nil {
		return nil, err
	}
	tags, err := a.Cache.ListTags()
	if err != nil {
		return nil, err
	}
	meta := views.PageMeta{
		Title:       "Blog · " + a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL, "blog"),
	}
	return views.Blog(a.site, meta, posts, tags, ""), nil
}

// tagPage returns ErrNotFound for tags no visible post carries.
func (a *App) tagPage(tag string, drafts bool) (templ.Component, error) {
	posts, err := a.Cache.ListPosts(tag, drafts)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrNotFound
	}
	tags, err := a.Cache.ListTags()
	if err != nil {
		return nil, err
	}
	meta := views.PageMeta{
		Title:       "Posts tagged " + tag + " · " + a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL, "blog", "tags", tag),
	}
	return views.Blog(a.site, meta, posts, tags, tag), nil
}

func (a *App) postPage(slug string, drafts bool) (templ.Component, error) {
	post, err := a.Cache.GetPost(slug, drafts)
	if err != nil {
		return nil, err
	}
	posts, err := a.Cache.ListPosts("", drafts)
	if err != nil {
		return nil, err
	}
	meta := views.PageMeta{
		Title:       post.Title + " · " + a.Config.Name,
		Description: post.Summary,
		URL:         BuildURL(a.Config.URL, "blog", post.Slug),
	}
	return views.Post(a.site, meta, post, posts), nil
}

func (a *App) projectsPage(drafts bool) (templ.Component, error) {
	projects, err := a.Cache.ListProjects(drafts)
	if err != nil {
		return nil, err
	}
	meta := views.PageMeta{
		Title:       "Projects · " + a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL, "projects"),
	}
	return views.Projects(a.site, meta, projects), nil
}

func (a *App) resumePage() (templ.Component, error) {
	jobs, err := a.Cache.ListJobs()
	if err != nil {
		return nil, err
	}
	meta := views.PageMeta{
		Title:       "Resume · " + a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL, "resume"),
	}
	return views.Resume(a.site, meta, jobs), nil
}

func (a *App) notFoundPage() templ.Component {
	return views.NotFound(a.site)
}

func (a *App) handleHome(c echo.Context) error {
	cmp, err := a.homePage(a.previewActive(c))
	if err != nil {
		return err
	}
	return Render(c, cmp)
}

func (a *App) handleBlog(c echo.Context) error {
	cmp, err := a.blogPage(a.previewActive(c))
	if err != nil {
		return err
	}
	return Render(c, cmp)
}

func (a *App) handleTag(c echo.Context) error {
	// Multi-word tags arrive percent-encoded in the path.
	tag, err := url.PathUnescape(c.Param("tag"))
	if err != nil {
		tag = c.Param("tag")
	}
	cmp, err := a.tagPage(tag, a.previewActive(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.notFoundPage())
		}
		return err
	}
	return Render(c, cmp)
}

func (a *App) handlePost(c echo.Context) error {
	cmp, err := a.postPage(c.Param("slug"), a.previewActive(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.notFoundPage())
		}
		return err
	}
	return Render(c, cmp)
}

func (a *App) handleProjects(c echo.Context) error {
	cmp, err := a.projectsPage(a.previewActive(c))
	if err != nil {
		return err
	}
	return Render(c, cmp)
}

func (a *App) handleResume(c echo.Context) error {
	cmp, err := a.resumePage()
	if err != nil {
		return err
	}
	return Render(c, cmp)
}

// handleFeed serves the RSS feed. Feeds are always public-only; an
// authenticated preview session changes nothing here.
func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts("", false)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return writeXML(c.Response(), a.buildRSS(posts))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts("", false)
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags()
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return writeXML(c.Response(), a.buildSitemap(posts, tags))
}

func (a *App) handleRobots(c echo.Context) error {
	return c.String(http.StatusOK, a.buildRobots())
}

// handleFavicon serves the user's favicon when present, falling back
// to the embedded default.
func (a *App) handleFavicon(c echo.Context) error {
	p := filepath.Join(a.Config.StaticDir, "favicon.svg")
	if _, err := os.Stat(p); err == nil {
		return c.File(p)
	}
	data, err := EmbeddedAssets.ReadFile("embedded/favicon.svg")
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	return c.Blob(http.StatusOK, "image/svg+xml", data)
}

// handleStyles serves the user's stylesheet when present, falling back
// to the embedded default.
func (a *App) handleStyles(c echo.Context) error {
	p := filepath.Join(a.Config.StaticDir, "styles.css")
	if _, err := os.Stat(p); err == nil {
		return c.File(p)
	}
	data, err := EmbeddedAssets.ReadFile("embedded/styles.css")
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", data)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.notFoundPage())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, views.ServerError(a.site))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
