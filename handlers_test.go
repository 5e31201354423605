package folio

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

const testPreviewPassword = "hunter2"

// newTestApp builds an App over a small content tree and wires it the
// way Start does, minus the listener and the file watcher.
func newTestApp(t *testing.T, previewPassword string, opts ...Option) *App {
	t.Helper()
	dir := t.TempDir()

	write := func(name, data string) {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	write("content/posts/first-post.md",
		"---\ntitle: First Post\ndate: \"2024-01-01\"\ntags: [go]\nsummary: \"The first one.\"\n---\nHello **world**.\n")
	write("content/posts/second-post.md",
		"---\ntitle: Second Post\ndate: \"2024-02-01\"\ntags: [go, web]\nsummary: \"The second one.\"\n---\nMore words.\n")
	write("content/posts/secret-draft.md",
		"---\ntitle: Secret Draft\ndate: \"2024-03-01\"\ntags: [go]\nsummary: \"Not yet.\"\ndraft: true\n---\nShh.\n")
	write("content/projects/alpha.md",
		"---\ntitle: Alpha\nweight: 10\nrepo: \"https://example.com/alpha\"\ntech: [go]\nsummary: \"A thing.\"\n---\nAbout alpha.\n")
	write("content/projects/wip.md",
		"---\ntitle: Unfinished\nweight: 20\nsummary: \"Hidden.\"\ndraft: true\n---\nSoon.\n")
	write("content/jobs/now-inc.md",
		"---\ncompany: Now Inc\nrole: Senior Engineer\nlocation: Remote\nstart: \"2021-04\"\nsummary: \"Work.\"\n---\n- Built the site\n")

	cfg := SiteConfig{
		Name:            "Test Site",
		URL:             "https://test.example.com",
		Description:     "A site for tests",
		Author:          "Tester",
		ContentDir:      filepath.Join(dir, "content"),
		StaticDir:       filepath.Join(dir, "public"),
		OutputDir:       filepath.Join(dir, "dist"),
		DatabasePath:    filepath.Join(dir, "data", "index.db"),
		PreviewPassword: previewPassword,
	}
	if previewPassword != "" {
		cfg.SessionSecret = "0123456789abcdef0123456789abcdef"
	}

	a := New(cfg, opts...)
	if err := a.setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	a.loginLimiter = NewLoginLimiter(5, time.Minute)
	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func get(a *App, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func postForm(a *App, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

// csrfFor fetches the preview page and returns the CSRF token with its
// cookie, the way a browser would before posting the login form.
func csrfFor(t *testing.T, a *App) (string, *http.Cookie) {
	t.Helper()
	rec := get(a, "/preview/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /preview/ = %d", rec.Code)
	}
	ck := cookieNamed(rec, "_csrf")
	if ck == nil {
		t.Fatal("no _csrf cookie issued")
	}
	if !strings.Contains(rec.Body.String(), `name="_csrf" value="`+ck.Value+`"`) {
		t.Fatal("login form does not carry the csrf token")
	}
	return ck.Value, ck
}

func loginPreview(t *testing.T, a *App) *http.Cookie {
	t.Helper()
	token, csrfCookie := csrfFor(t, a)
	form := url.Values{"password": {testPreviewPassword}, "_csrf": {token}}
	rec := postForm(a, "/preview/login/", form, csrfCookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login = %d, body: %s", rec.Code, rec.Body.String())
	}
	sess := cookieNamed(rec, sessionName)
	if sess == nil {
		t.Fatal("no session cookie after login")
	}
	return sess
}

func TestHomePage(t *testing.T) {
	a := newTestApp(t, "")

	rec := get(a, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Test Site", "First Post", "Second Post", "Alpha"} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}
	for _, leak := range []string{"Secret Draft", "Unfinished"} {
		if strings.Contains(body, leak) {
			t.Errorf("home page leaks draft %q", leak)
		}
	}
	if !strings.Contains(body, `<link rel="canonical" href="https://test.example.com/"/>`) {
		t.Error("home page missing canonical link")
	}
}

func TestBlogAndPostPages(t *testing.T) {
	a := newTestApp(t, "")

	rec := get(a, "/blog/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /blog/ = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "First Post") {
		t.Error("blog page missing post listing")
	}

	rec = get(a, "/blog/first-post/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /blog/first-post/ = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<strong>world</strong>") {
		t.Error("post body markdown not rendered")
	}
	if !strings.Contains(rec.Body.String(), "First Post · Test Site") {
		t.Error("post page missing title tag")
	}
}

func TestTrailingSlashRedirect(t *testing.T) {
	a := newTestApp(t, "")

	rec := get(a, "/blog")
	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("GET /blog = %d, want 301", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/blog/" {
		t.Errorf("Location = %q, want /blog/", loc)
	}
}

func TestTagPages(t *testing.T) {
	a := newTestApp(t, "")

	rec := get(a, "/blog/tags/go/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /blog/tags/go/ = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "First Post") || !strings.Contains(body, "Second Post") {
		t.Error("tag page missing tagged posts")
	}

	rec = get(a, "/blog/tags/web/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /blog/tags/web/ = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "First Post") {
		t.Error("tag page shows post without the tag")
	}

	// A tag carried only by a draft has no public page.
	rec = get(a, "/blog/tags/nope/")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /blog/tags/nope/ = %d, want 404", rec.Code)
	}
}

func TestProjectsPage(t *testing.T) {
	a := newTestApp(t, "")

	rec := get(a, "/projects/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /projects/ = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Alpha") {
		t.Error("projects page missing project")
	}
	if strings.Contains(body, "Unfinished") {
		t.Error("projects page leaks draft project")
	}
}

func TestResumePage(t *testing.T) {
	a := newTestApp(t, "")

	rec := get(a, "/resume/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /resume/ = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Now Inc") || !strings.Contains(body, "Senior Engineer") {
		t.Error("resume page missing job")
	}
	if !strings.Contains(body, "Present") {
		t.Error("ongoing job should show Present")
	}
}

func TestNotFoundPage(t *testing.T) {
	a := newTestApp(t, "")

	rec := get(a, "/blog/does-not-exist/")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET missing post = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "404") {
		t.Error("missing post should render the 404 page")
	}

	rec = get(a, "/no-such-route/")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET unknown route = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "404") {
		t.Error("unknown route should render the 404 page")
	}
}

func TestFeed(t *testing.T) {
	a := newTestApp(t, "")

	rec := get(a, "/feed.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /feed.xml = %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.Contains(ct, "application/rss+xml") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<rss") || !strings.Contains(body, "First Post") {
		t.Error("feed missing posts")
	}
	if !strings.Contains(body, "https://test.example.com/blog/first-post/") {
		t.Error("feed missing absolute post URL")
	}
	if strings.Contains(body, "Secret Draft") {
		t.Error("feed leaks draft")
	}
}

func TestSitemap(t *testing.T) {
	a := newTestApp(t, "")

	rec := get(a, "/sitemap.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /sitemap.xml = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<urlset",
		"https://test.example.com/",
		"https://test.example.com/blog/first-post/",
		"https://test.example.com/blog/tags/go/",
		"https://test.example.com/resume/",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("sitemap missing %q", want)
		}
	}
	if strings.Contains(body, "secret-draft") {
		t.Error("sitemap leaks draft URL")
	}
}

func TestRobots(t *testing.T) {
	a := newTestApp(t, "")

	rec := get(a, "/robots.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /robots.txt = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Sitemap: https://test.example.com/sitemap.xml") {
		t.Errorf("robots.txt missing sitemap line: %q", body)
	}
	if strings.Contains(body, "Disallow: /preview/") {
		t.Error("robots.txt should not mention preview when disabled")
	}

	withPreview := newTestApp(t, testPreviewPassword)
	rec = get(withPreview, "/robots.txt")
	if !strings.Contains(rec.Body.String(), "Disallow: /preview/") {
		t.Error("robots.txt should disallow preview when enabled")
	}
}

func TestEmbeddedAssetFallbacks(t *testing.T) {
	a := newTestApp(t, "")

	rec := get(a, "/public/styles.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /public/styles.css = %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.Contains(ct, "text/css") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "immutable") {
		t.Errorf("Cache-Control = %q, want immutable for static assets", cc)
	}

	rec = get(a, "/favicon.svg")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /favicon.svg = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Error("favicon is not svg")
	}
}

func TestUserStylesWinOverEmbedded(t *testing.T) {
	a := newTestApp(t, "")
	css := "body { color: red }"
	if err := os.MkdirAll(a.Config.StaticDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(a.Config.StaticDir, "styles.css"), []byte(css), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := get(a, "/public/styles.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /public/styles.css = %d", rec.Code)
	}
	if got := rec.Body.String(); got != css {
		t.Errorf("body = %q, want user stylesheet", got)
	}
}

func TestSecurityAndCacheHeaders(t *testing.T) {
	a := newTestApp(t, "")

	rec := get(a, "/")
	if h := rec.Header().Get("Content-Security-Policy"); !strings.Contains(h, "default-src 'self'") {
		t.Errorf("CSP = %q", h)
	}
	if h := rec.Header().Get("X-Frame-Options"); h != "DENY" {
		t.Errorf("X-Frame-Options = %q", h)
	}
	if h := rec.Header().Get("Cache-Control"); h != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", h)
	}
}

func TestPublicSiteSetsNoCookies(t *testing.T) {
	a := newTestApp(t, "")

	for _, target := range []string{"/", "/blog/", "/blog/first-post/", "/feed.xml"} {
		rec := get(a, target)
		if cookies := rec.Result().Cookies(); len(cookies) != 0 {
			t.Errorf("GET %s set cookies %v, want none", target, cookies)
		}
	}

	// The preview routes do not exist without a password.
	rec := get(a, "/preview/")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /preview/ = %d, want 404 when preview disabled", rec.Code)
	}
}

func TestPreviewLoginFlow(t *testing.T) {
	a := newTestApp(t, testPreviewPassword)

	// Drafts hidden before login.
	rec := get(a, "/blog/secret-draft/")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("draft before login = %d, want 404", rec.Code)
	}

	sess := loginPreview(t, a)

	rec = get(a, "/blog/secret-draft/", sess)
	if rec.Code != http.StatusOK {
		t.Fatalf("draft after login = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Secret Draft") {
		t.Error("draft post not rendered in preview")
	}

	// Listings show the draft with its badge.
	rec = get(a, "/blog/", sess)
	body := rec.Body.String()
	if !strings.Contains(body, "Secret Draft") || !strings.Contains(body, "draft-badge") {
		t.Error("preview listing missing draft badge")
	}

	// Feeds stay public even in preview.
	rec = get(a, "/feed.xml", sess)
	if strings.Contains(rec.Body.String(), "Secret Draft") {
		t.Error("feed leaks draft to authenticated session")
	}
}

func TestPreviewWrongPassword(t *testing.T) {
	a := newTestApp(t, testPreviewPassword)

	token, csrfCookie := csrfFor(t, a)
	form := url.Values{"password": {"wrong"}, "_csrf": {token}}
	rec := postForm(a, "/preview/login/", form, csrfCookie)

	if rec.Code != http.StatusOK {
		t.Fatalf("wrong password = %d, want 200 with error message", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Wrong password.") {
		t.Error("missing error message")
	}
	if cookieNamed(rec, sessionName) != nil {
		t.Error("session cookie issued for wrong password")
	}
}

func TestPreviewLoginRateLimited(t *testing.T) {
	a := newTestApp(t, testPreviewPassword)

	token, csrfCookie := csrfFor(t, a)
	form := url.Values{"password": {"wrong"}, "_csrf": {token}}

	for i := 0; i < 5; i++ {
		rec := postForm(a, "/preview/login/", form, csrfCookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d = %d, want 200", i, rec.Code)
		}
	}

	rec := postForm(a, "/preview/login/", form, csrfCookie)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("attempt after limit = %d, want 429", rec.Code)
	}
}

func TestPreviewLoginRequiresCSRF(t *testing.T) {
	a := newTestApp(t, testPreviewPassword)

	form := url.Values{"password": {testPreviewPassword}}
	rec := postForm(a, "/preview/login/", form)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("login without csrf = %d, want 403", rec.Code)
	}
}

func TestPreviewLogout(t *testing.T) {
	a := newTestApp(t, testPreviewPassword)

	sess := loginPreview(t, a)
	token, csrfCookie := csrfFor(t, a)

	rec := postForm(a, "/preview/logout/", url.Values{"_csrf": {token}}, sess, csrfCookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("logout = %d, want 303", rec.Code)
	}
	cleared := cookieNamed(rec, sessionName)
	if cleared == nil || cleared.MaxAge >= 0 {
		t.Error("logout should expire the session cookie")
	}
}

func TestPreviewPagesNotCached(t *testing.T) {
	a := newTestApp(t, testPreviewPassword)

	rec := get(a, "/preview/")
	if h := rec.Header().Get("Cache-Control"); h != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", h)
	}
}

func TestCustomRoutes(t *testing.T) {
	a := newTestApp(t, "", WithCustomRoutes(func(app *App) {
		app.Echo.GET("/now/", func(c echo.Context) error {
			return c.String(http.StatusOK, "now page")
		})
	}))

	rec := get(a, "/now/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /now/ = %d", rec.Code)
	}
	if rec.Body.String() != "now page" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestServerErrorPage(t *testing.T) {
	a := newTestApp(t, "")

	// Break the store underneath the cache and force a reload.
	a.Store.Close()
	a.Cache.Invalidate()

	rec := get(a, "/")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("GET / with broken store = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "500") {
		t.Error("expected the 500 page body")
	}
}
