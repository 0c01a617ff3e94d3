package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/db"
	"github.com/Zachkp/folio/internal/mail"
	"github.com/Zachkp/folio/internal/section"
	"github.com/Zachkp/folio/internal/visits"
)

type fetchFunc func(ctx context.Context, query string, dst any) error

func (f fetchFunc) Fetch(ctx context.Context, query string, dst any) error { return f(ctx, query, dst) }

type recordingSender struct {
	calls []mail.Params
	err   error
}

func (r *recordingSender) Configured(serviceID, templateID string) bool {
	return serviceID != "" && templateID != ""
}

func (r *recordingSender) Send(_ context.Context, _, _ string, p mail.Params) error {
	r.calls = append(r.calls, p)
	return r.err
}

type fixture struct {
	srv    *Server
	sender *recordingSender
}

func newFixture(t *testing.T, fetcher content.Fetcher) *fixture {
	t.Helper()
	logger := log.New(io.Discard)
	sender := &recordingSender{}

	d, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	srv := New(Config{Mode: "test", AdminUsername: "root", AdminPassword: "hunter2"}, Deps{
		Navigator:  section.NewNavigator(section.ContainerScroller{ElementID: "scroll-root"}),
		Projects:   content.NewLoader[content.Project](fetcher, content.ProjectsQuery, logger),
		Skills:     content.NewLoader[content.SkillGroup](fetcher, content.SkillsQuery, logger),
		Dispatcher: mail.NewDispatcher("svc", "tpl", sender, nil, logger),
		Recorder:   visits.NewRecorder(d, logger),
		Logger:     logger,
	})
	return &fixture{srv: srv, sender: sender}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.srv.Router().ServeHTTP(w, req)
	return w
}

func cookieFrom(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func noContent() content.Fetcher {
	return fetchFunc(func(context.Context, string, any) error { return errors.New("cms offline") })
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, noContent())
	w := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestIndexRendersTheme(t *testing.T) {
	f := newFixture(t, noContent())

	w := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-theme="light"`)
	assert.Contains(t, w.Body.String(), `id="floating-nav"`)
	assert.Contains(t, w.Body.String(), "Loading projects...")
	assert.NotNil(t, cookieFrom(w, viewCookie))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	w = f.do(req)
	assert.Contains(t, w.Body.String(), `data-theme="dark"`)
}

func TestThemeToggle(t *testing.T) {
	f := newFixture(t, noContent())

	w := f.do(httptest.NewRequest(http.MethodPost, "/theme/toggle", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"theme":"dark"}`, w.Body.String())
	assert.Equal(t, "click", w.Header().Get("X-Folio-Sound"))
	c := cookieFrom(w, "theme")
	require.NotNil(t, c)
	assert.Equal(t, "dark", c.Value)

	req := httptest.NewRequest(http.MethodPost, "/theme/toggle", nil)
	req.AddCookie(c)
	w = f.do(req)
	assert.JSONEq(t, `{"theme":"light"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/theme/toggle", nil)
	req.AddCookie(&http.Cookie{Name: "theme", Value: "garbage"})
	w = f.do(req)
	assert.JSONEq(t, `{"theme":"dark"}`, w.Body.String())
}

func TestIntersectDrivesNavVisibility(t *testing.T) {
	f := newFixture(t, noContent())

	w := f.do(formRequest("/sections/theme-toggle/intersect", url.Values{"ratio": {"0.9"}}))
	require.Equal(t, http.StatusOK, w.Code)
	var st section.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.True(t, st.Suppressed)
	assert.False(t, st.NavVisible)

	view := cookieFrom(w, viewCookie)
	require.NotNil(t, view)

	req := formRequest("/sections/footer/intersect", url.Values{"ratio": {"0.75"}})
	req.AddCookie(view)
	f.do(req)

	req = formRequest("/sections/theme-toggle/intersect", url.Values{"ratio": {"0.1"}})
	req.AddCookie(view)
	w = f.do(req)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.True(t, st.Suppressed, "footer keeps the nav hidden")

	req = formRequest("/sections/footer/release", nil)
	req.AddCookie(view)
	w = f.do(req)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.True(t, st.NavVisible)
}

func TestIntersectFragment(t *testing.T) {
	f := newFixture(t, noContent())
	req := formRequest("/sections/footer/intersect", url.Values{"ratio": {"1"}})
	req.Header.Set("HX-Request", "true")
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `class="floating-nav hidden"`)
}

func TestIntersectRejectsBadInput(t *testing.T) {
	f := newFixture(t, noContent())

	w := f.do(formRequest("/sections/footer/intersect", url.Values{"ratio": {"1.5"}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(formRequest("/sections/footer/intersect", url.Values{"ratio": {"NaN"}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(formRequest("/sections/sidebar/intersect", url.Values{"ratio": {"0.5"}}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNavigate(t *testing.T) {
	f := newFixture(t, noContent())

	body := `{"offsets":{"who-am-i":1864,"home":64},"scroll_top":400,"container_top":64}`
	req := httptest.NewRequest(http.MethodPost, "/navigate/who-am-i", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var sc section.Scroll
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sc))
	assert.True(t, sc.Found)
	assert.Equal(t, 1800.0, sc.Top)
	assert.Equal(t, "scroll-root", sc.Container)

	req = httptest.NewRequest(http.MethodPost, "/navigate/nowhere", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sc))
	assert.False(t, sc.Found)
	assert.Equal(t, 400.0, sc.Top)
}

func TestContactValidation(t *testing.T) {
	f := newFixture(t, noContent())

	w := f.do(formRequest("/contact", url.Values{"name": {""}, "email": {""}, "message": {""}}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Please fill all fields!")
	assert.Empty(t, f.sender.calls)
}

func TestContactSend(t *testing.T) {
	f := newFixture(t, noContent())

	w := f.do(formRequest("/contact", url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"message": {"Loved the site"},
	}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Message sent successfully!")
	assert.Contains(t, w.Body.String(), `name="name" placeholder="Your name" value=""`)

	require.Len(t, f.sender.calls, 1)
	assert.Equal(t, mail.Params{FromName: "Ada", ReplyTo: "ada@example.com", Message: "Loved the site"}, f.sender.calls[0])
}

func TestContactJSON(t *testing.T) {
	f := newFixture(t, noContent())
	f.sender.err = errors.New("smtp down")

	req := formRequest("/contact", url.Values{"name": {"Ada"}, "email": {"a@b.c"}, "message": {"hi"}})
	req.Header.Set("Accept", "application/json")
	w := f.do(req)

	var res mail.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, mail.MsgFailed, res.Notice.Text)
	assert.Equal(t, mail.Form{}, res.Form)
}

func TestProjectsFetchFailure(t *testing.T) {
	f := newFixture(t, noContent())

	f.srv.Projects.Load(context.Background())
	w := f.do(httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	assert.JSONEq(t, `{"items":[],"loading":false}`, w.Body.String())

	w = f.do(httptest.NewRequest(http.MethodGet, "/fragments/projects", nil))
	assert.Contains(t, w.Body.String(), "No projects yet.")
}

func TestProjectsFragmentRendersMarkdown(t *testing.T) {
	f := newFixture(t, fetchFunc(func(_ context.Context, query string, dst any) error {
		if query != content.ProjectsQuery {
			return errors.New("unexpected")
		}
		*(dst.(*[]content.Project)) = []content.Project{{Title: "folio", Description: "Built with **gin**", Tags: []string{"go"}}}
		return nil
	}))
	f.srv.Projects.Load(context.Background())

	w := f.do(httptest.NewRequest(http.MethodGet, "/fragments/projects", nil))
	assert.Contains(t, w.Body.String(), "<strong>gin</strong>")
	assert.Contains(t, w.Body.String(), "<li>go</li>")
}

func TestHeroMotion(t *testing.T) {
	f := newFixture(t, noContent())

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/motion/hero?progress=1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Complete   bool `json:"complete"`
		Transforms map[string]struct {
			Opacity float64 `json:"opacity"`
		} `json:"transforms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Complete)
	assert.InDelta(t, 1, body.Transforms["theme-section"].Opacity, 1e-9)

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/motion/hero?frames=0", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(httptest.NewRequest(http.MethodGet, "/api/motion/hero?progress=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminLogin(t *testing.T) {
	f := newFixture(t, noContent())

	w := f.do(httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil))
	assert.Equal(t, http.StatusFound, w.Code)

	w = f.do(formRequest("/admin/login", url.Values{"username": {"root"}, "password": {"wrong"}}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(formRequest("/admin/login", url.Values{"username": {"root"}, "password": {"hunter2"}}))
	require.Equal(t, http.StatusFound, w.Code)
	token := cookieFrom(w, adminCookie)
	require.NotNil(t, token)

	req := httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil)
	req.AddCookie(token)
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "total_visitors")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, noContent())
	f.do(httptest.NewRequest(http.MethodPost, "/theme/toggle", nil))

	w := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `folio_theme_toggles_total{theme="dark"} 1`)
}

func TestLoadingFragmentPollsUntilSettled(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	f := newFixture(t, fetchFunc(func(_ context.Context, query string, dst any) error {
		if query == content.ProjectsQuery {
			close(started)
			<-release
			*(dst.(*[]content.Project)) = []content.Project{{Title: "folio"}}
		}
		return nil
	}))

	done := make(chan struct{})
	go func() {
		f.srv.Projects.Load(context.Background())
		close(done)
	}()
	<-started

	w := f.do(httptest.NewRequest(http.MethodGet, "/fragments/projects", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Loading projects...")
	assert.Contains(t, w.Body.String(), `hx-get="/fragments/projects"`)
	assert.Contains(t, w.Body.String(), `hx-trigger="load delay:1s"`)

	close(release)
	<-done

	w = f.do(httptest.NewRequest(http.MethodGet, "/fragments/projects", nil))
	assert.Contains(t, w.Body.String(), "<h3>folio</h3>")
	assert.NotContains(t, w.Body.String(), "hx-get")
}

func TestSkillsLoadingFragmentPolls(t *testing.T) {
	f := newFixture(t, noContent())
	w := f.do(httptest.NewRequest(http.MethodGet, "/fragments/skills", nil))
	assert.Contains(t, w.Body.String(), `hx-get="/fragments/skills"`)
}

func TestIntersectDropsOvertakenReport(t *testing.T) {
	f := newFixture(t, noContent())

	// footer left the view (seq 2) before its earlier arrival (seq 1) landed
	w := f.do(formRequest("/sections/footer/intersect", url.Values{"ratio": {"0.1"}, "seq": {"2"}}))
	require.Equal(t, http.StatusOK, w.Code)
	view := cookieFrom(w, viewCookie)
	require.NotNil(t, view)

	req := formRequest("/sections/footer/intersect", url.Values{"ratio": {"0.8"}, "seq": {"1"}})
	req.AddCookie(view)
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var st section.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.True(t, st.NavVisible)
	assert.False(t, st.Suppressed)

	w = f.do(formRequest("/sections/footer/intersect", url.Values{"ratio": {"0.8"}, "seq": {"-1"}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestThemeToggleFragmentCarriesTheme(t *testing.T) {
	f := newFixture(t, noContent())

	req := httptest.NewRequest(http.MethodPost, "/theme/toggle", nil)
	req.Header.Set("HX-Request", "true")
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="floating-nav"`)
	assert.Contains(t, w.Body.String(), `data-theme="dark"`)
	assert.Contains(t, w.Body.String(), "&#9728;&#65039;", "sun icon offered in dark mode")

	w = f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, w.Body.String(), `data-theme-text-dark="Wanna turn on the light?"`)
	assert.Contains(t, w.Body.String(), `data-theme-text-light="Wanna turn down the light?"`)
}

func TestAdminDefaultsOnlyInDebug(t *testing.T) {
	defaults := url.Values{"username": {"admin"}, "password": {"admin123"}}

	release := New(Config{Mode: "release"}, Deps{Logger: log.New(io.Discard)})
	w := httptest.NewRecorder()
	release.Router().ServeHTTP(w, formRequest("/admin/login", defaults))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	debug := New(Config{Mode: "debug"}, Deps{Logger: log.New(io.Discard)})
	w = httptest.NewRecorder()
	debug.Router().ServeHTTP(w, formRequest("/admin/login", defaults))
	assert.Equal(t, http.StatusFound, w.Code)

	t.Cleanup(func() { gin.SetMode(gin.TestMode) })
}
