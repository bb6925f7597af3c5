package handlers

import (
	"context"
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/JAZtrades/zarcaro-pay/internal/auth"
	"github.com/JAZtrades/zarcaro-pay/internal/config"
	"github.com/JAZtrades/zarcaro-pay/internal/gateway"
	"github.com/JAZtrades/zarcaro-pay/internal/identity"
	"github.com/JAZtrades/zarcaro-pay/internal/models"
	"github.com/JAZtrades/zarcaro-pay/internal/storage"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// SessionContextKey is the context key for the authenticated session.
	SessionContextKey contextKey = "session"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// SessionDuration is how long portal sessions last (7 days).
	SessionDuration = 7 * 24 * time.Hour
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db           *storage.DB
	gw           *gateway.Client
	idp          *identity.Client
	templateDir  string
	secureCookie bool
	stripeKey    string
	plaidEnv     string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, gw *gateway.Client, idp *identity.Client, cfg config.Config) *Handlers {
	return &Handlers{
		db:           db,
		gw:           gw,
		idp:          idp,
		templateDir:  cfg.Server.TemplateDir,
		secureCookie: cfg.Server.SecureCookie,
		stripeKey:    cfg.Stripe.PublishableKey,
		plaidEnv:     cfg.Plaid.Env,
	}
}

// GetSessionFromContext retrieves the authenticated session from request
// context. Panels receive the session this way rather than reading any
// ambient global; only the middleware owns its lookup.
func GetSessionFromContext(r *http.Request) *models.Session {
	if s, ok := r.Context().Value(SessionContextKey).(*models.Session); ok {
		return s
	}
	return nil
}

// AuthMiddleware gates every dashboard route on session presence: no valid
// session means a redirect to the login form, nothing else short-circuits
// the decision. It also implements rolling sessions: a session past the
// halfway point of its lifetime is renewed in place.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		sess, err := h.db.GetSession(cookie.Value)
		if err != nil {
			// Invalid or expired session, clear the cookie
			h.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		now := time.Now()
		if sess.ExpiresAt.Sub(now) < SessionDuration/2 {
			newExpiresAt := now.Add(SessionDuration)
			if err := h.db.RenewSession(cookie.Value, newExpiresAt); err == nil {
				h.setSessionCookie(w, cookie.Value)
			}
			// If renewal fails, just continue with the current session
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// mintToken exchanges the session's refresh credential for a fresh bearer
// token. Called once per authenticated gateway request; minted tokens are
// never cached, so expiry is the provider's problem, not ours.
func (h *Handlers) mintToken(r *http.Request) (string, error) {
	sess := GetSessionFromContext(r)
	return h.idp.MintToken(r.Context(), sess.RefreshToken)
}

// LoginViewModel holds data for the login page.
type LoginViewModel struct {
	Email string
	Error string
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	// If already logged in, redirect to the dashboard
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if _, err := h.db.GetSession(cookie.Value); err == nil {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
	}
	h.render(w, r, "login.html", LoginViewModel{})
}

// Login handles the combined sign-in / registration submission. Sign-in is
// attempted first; an account-not-found result falls through to registration
// with the same credentials, so a new customer's first login creates their
// account in one step. Every other failure is surfaced verbatim.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "login.html", LoginViewModel{Error: "Invalid form submission"})
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" {
		h.render(w, r, "login.html", LoginViewModel{Error: "Email is required"})
		return
	}
	if len(password) < 6 {
		h.render(w, r, "login.html", LoginViewModel{Email: email, Error: "Password must be at least 6 characters"})
		return
	}

	creds, err := h.idp.SignInOrRegister(r.Context(), email, password)
	if err != nil {
		h.render(w, r, "login.html", LoginViewModel{Email: email, Error: err.Error()})
		return
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		log.Printf("Failed to generate session token: %v", err)
		h.render(w, r, "login.html", LoginViewModel{Email: email, Error: "An error occurred. Please try again."})
		return
	}

	sess := &models.Session{
		Token:        token,
		UID:          creds.UID,
		Email:        creds.Email,
		RefreshToken: creds.RefreshToken,
		ExpiresAt:    time.Now().Add(SessionDuration),
	}
	if err := h.db.CreateSession(sess); err != nil {
		log.Printf("Failed to create session: %v", err)
		h.render(w, r, "login.html", LoginViewModel{Email: email, Error: "An error occurred. Please try again."})
		return
	}

	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// Logout destroys the session and reroutes to the login form.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.db.DeleteSession(cookie.Value); err != nil {
			log.Printf("Failed to delete session: %v", err)
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// DashboardViewModel holds data for the dashboard shell.
type DashboardViewModel struct {
	Email string
}

// Dashboard renders the tabbed dashboard shell. The payments panel is loaded
// as the default tab on every fresh mount; switching tabs swaps the panel
// target, discarding any unsubmitted panel state.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r)
	h.render(w, r, "dashboard.html", DashboardViewModel{Email: sess.Email})
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// errText maps a failed gateway call to the inline message for the
// originating panel: the gateway-supplied text when there is one, the
// panel's generic fallback otherwise. Used uniformly by every panel.
func errText(err error, fallback string) string {
	if gateway.IsGatewayError(err) {
		return err.Error()
	}
	return fallback
}

// currentPageURL reconstructs the dashboard URL the browser is on, used as
// both the success and cancel redirect target for checkout.
func currentPageURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + "/dashboard"
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, viewName string, data any) {
	tmpl, err := template.ParseFiles(filepath.Join(h.templateDir, "base.html"), filepath.Join(h.templateDir, viewName))
	if err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	target := "base.html"
	if r.Header.Get("HX-Request") == "true" {
		target = "content"
	}
	if err := tmpl.ExecuteTemplate(w, target, data); err != nil {
		log.Printf("Template execution error: %v", err)
	}
}

// renderPanel renders a panel fragment with no page chrome. Panels are
// mounted into the dashboard's panel target by htmx swaps.
func (h *Handlers) renderPanel(w http.ResponseWriter, viewName string, data any) {
	tmpl, err := template.ParseFiles(filepath.Join(h.templateDir, viewName))
	if err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.Execute(w, data); err != nil {
		log.Printf("Template execution error: %v", err)
	}
}
