package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(username, password string) *mux.Router {
	r := mux.NewRouter()
	New(username, password).RegisterRoutes(r)
	return r
}

func TestLoginFlow(t *testing.T) {
	r := newRouter("admin", "secret")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/web/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sign in")

	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/web/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=")

	form.Set("password", "secret")
	req = httptest.NewRequest(http.MethodPost, "/web/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/web/dashboard", rec.Header().Get("Location"))

	var authCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "auth" {
			authCookie = c
		}
	}
	require.NotNil(t, authCookie)
	assert.Equal(t, "1", authCookie.Value)
}

func TestDashboardRequiresAuth(t *testing.T) {
	r := newRouter("admin", "secret")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/web/dashboard", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/web/login", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/web/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "auth", Value: "1"})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin")
	assert.Contains(t, rec.Body.String(), "Split plan")
}

func TestAuthDisabledWithoutCredentials(t *testing.T) {
	r := newRouter("", "")

	req := httptest.NewRequest(http.MethodGet, "/web/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "auth", Value: "1"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	r := newRouter("admin", "secret")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/web/logout", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	var authCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "auth" {
			authCookie = c
		}
	}
	require.NotNil(t, authCookie)
	assert.Equal(t, -1, authCookie.MaxAge)
	assert.Empty(t, authCookie.Value)
}
