// Package folio builds a personal site from a directory of markdown
// files. Posts, projects, and jobs are parsed into a SQLite index and
// served with Echo, or exported as a static tree that matches what the
// server renders byte for byte.
//
// Setting PREVIEW_PASSWORD enables a password-protected preview mode
// that makes drafts visible; without it the site sets no cookies at all.
package folio

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/views"
)

// App wires together the content index, cache, handlers, and middleware.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *ContentCache

	site         views.Site
	loginLimiter *LoginLimiter
	watcher      *contentWatcher
	customRoutes []func(*App)
}

// New creates an App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.site = views.Site{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Author:      a.Config.Author,
	}

	return a
}

// setup loads the content tree, rebuilds the index, and prepares the
// cache. Both Start and Export go through here so they always agree on
// what the site contains. Calling it twice is a no-op.
func (a *App) setup() error {
	if a.Cache != nil {
		return nil
	}
	if a.Config.PreviewPassword != "" && a.Config.SessionSecret == "" {
		return fmt.Errorf("folio: SESSION_SECRET is required when PREVIEW_PASSWORD is set")
	}

	bundle, err := content.LoadDir(a.Config.ContentDir)
	if err != nil {
		return fmt.Errorf("folio: load content: %w", err)
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("folio: init store: %w", err)
	}
	a.Store = store

	if err := a.Store.ReplaceAll(bundle); err != nil {
		return fmt.Errorf("folio: index content: %w", err)
	}
	if err := a.generateThumbs(bundle.Projects); err != nil {
		return fmt.Errorf("folio: thumbnails: %w", err)
	}

	a.Cache = NewContentCache(a.Store, a.Config.CacheTTL)
	return nil
}

// Start indexes the content, wires middleware and routes, begins
// watching the content directory, and starts the server.
func (a *App) Start() error {
	if err := a.setup(); err != nil {
		return err
	}

	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	w, err := watchContent(a.Config.ContentDir, a.reloadContent, func(err error) {
		a.Echo.Logger.Errorf("content watcher: %v", err)
	})
	if err != nil {
		a.Echo.Logger.Warnf("content watcher disabled: %v", err)
	} else {
		a.watcher = w
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// reloadContent re-reads the content tree after a file change. Errors
// leave the previous index serving; a broken draft should not take the
// site down.
func (a *App) reloadContent() {
	bundle, err := content.LoadDir(a.Config.ContentDir)
	if err != nil {
		a.Echo.Logger.Errorf("content reload: %v", err)
		return
	}
	if err := a.Store.ReplaceAll(bundle); err != nil {
		a.Echo.Logger.Errorf("content reload: reindex: %v", err)
		return
	}
	if err := a.generateThumbs(bundle.Projects); err != nil {
		a.Echo.Logger.Errorf("content reload: thumbnails: %v", err)
	}
	a.Cache.Invalidate()
	a.Echo.Logger.Infof("content reloaded: %d posts, %d projects, %d jobs",
		len(bundle.Posts), len(bundle.Projects), len(bundle.Jobs))
}

func (a *App) setupRoutes() {
	e := a.Echo

	// The embedded stylesheet and favicon are fallbacks; files in the
	// user's static dir win.
	e.GET("/public/styles.css", a.handleStyles)
	e.Static("/public", a.Config.StaticDir)
	e.Static("/thumbs", a.thumbsDir())
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/blog/", a.handleBlog)
	e.GET("/blog/:slug/", a.handlePost)
	e.GET("/blog/tags/:tag/", a.handleTag)
	e.GET("/projects/", a.handleProjects)
	e.GET("/resume/", a.handleResume)

	if a.previewEnabled() {
		e.GET("/preview/", a.handlePreview)
		e.POST("/preview/login/", a.handlePreviewLogin)
		e.POST("/preview/logout/", a.handlePreviewLogout)
	}
}

// thumbsDir is where generated project thumbnails live, next to the
// database rather than in the user's static dir.
func (a *App) thumbsDir() string {
	return filepath.Join(filepath.Dir(a.Config.DatabasePath), "thumbs")
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.Store != nil {
		a.Store.Close()
	}
	return nil
}
