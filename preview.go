package folio

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/views"
)

// previewEnabled reports whether draft preview is configured at all.
// Without a password there is no login, no session, and no CSRF cookie.
func (a *App) previewEnabled() bool {
	return a.Config.PreviewPassword != ""
}

// previewActive reports whether this request should see drafts.
func (a *App) previewActive(c echo.Context) bool {
	return a.previewEnabled() && IsPreview(c)
}

func (a *App) handlePreview(c echo.Context) error {
	return Render(c, views.Preview(a.site, CsrfToken(c), IsPreview(c), ""))
}

func (a *App) handlePreviewLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.PreviewPassword)) == 1 {
		if err := setPreviewSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/preview/")
	}
	a.loginLimiter.Record(ip)
	return Render(c, views.Preview(a.site, CsrfToken(c), false, "Wrong password."))
}

func (a *App) handlePreviewLogout(c echo.Context) error {
	if err := clearPreviewSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}
