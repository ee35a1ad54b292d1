// Package web serves the browser workbench: a login gate and a dashboard
// page whose scripts drive the JSON API.
package web

import (
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
)

type Web struct {
	tpl      *template.Template
	username string
	password string
}

func New(username, password string) *Web {
	tpl := template.New("web")
	template.Must(tpl.New("login").Parse(loginHTML))
	template.Must(tpl.New("dashboard").Parse(dashboardHTML))
	return &Web{
		tpl:      tpl,
		username: username,
		password: password,
	}
}

func (w *Web) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/web/login", w.handleLogin).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/web/logout", w.handleLogout).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/web", w.requireAuth(w.handleDashboard)).Methods(http.MethodGet)
	r.HandleFunc("/web/", w.requireAuth(w.handleDashboard)).Methods(http.MethodGet)
	r.HandleFunc("/web/dashboard", w.requireAuth(w.handleDashboard)).Methods(http.MethodGet)
}

func (w *Web) render(wr http.ResponseWriter, name string, data any) {
	wr.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = w.tpl.ExecuteTemplate(wr, name, data)
}

func (w *Web) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(wr http.ResponseWriter, r *http.Request) {
		if w.username == "" || w.password == "" {
			http.Error(wr, "WEB_USERNAME/WEB_PASSWORD not set", http.StatusForbidden)
			return
		}
		c, err := r.Cookie("auth")
		if err != nil || c.Value != "1" {
			http.Redirect(wr, r, "/web/login", http.StatusSeeOther)
			return
		}
		next(wr, r)
	}
}

func (w *Web) handleLogin(wr http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.render(wr, "login", map[string]any{"Error": r.URL.Query().Get("error")})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Redirect(wr, r, "/web/login?error=invalid+form", http.StatusSeeOther)
			return
		}
		if r.Form.Get("username") == w.username && r.Form.Get("password") == w.password {
			http.SetCookie(wr, &http.Cookie{Name: "auth", Value: "1", Path: "/", HttpOnly: true})
			http.Redirect(wr, r, "/web/dashboard", http.StatusSeeOther)
			return
		}
		http.Redirect(wr, r, "/web/login?error=invalid+credentials", http.StatusSeeOther)
	default:
		wr.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (w *Web) handleLogout(wr http.ResponseWriter, r *http.Request) {
	http.SetCookie(wr, &http.Cookie{Name: "auth", Value: "", Path: "/", MaxAge: -1})
	http.Redirect(wr, r, "/web/login", http.StatusSeeOther)
}

func (w *Web) handleDashboard(wr http.ResponseWriter, r *http.Request) {
	w.render(wr, "dashboard", map[string]any{
		"Username": w.username,
	})
}
