package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/JAZtrades/zarcaro-pay/internal/config"
	"github.com/JAZtrades/zarcaro-pay/internal/gateway"
	"github.com/JAZtrades/zarcaro-pay/internal/handlers"
	"github.com/JAZtrades/zarcaro-pay/internal/identity"
	"github.com/JAZtrades/zarcaro-pay/internal/storage"
)

func main() {
	// A .env file is optional; deployed environments provide real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	db, err := storage.NewDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to open session store: %v", err)
	}
	defer db.Close()

	if err := db.CleanExpiredSessions(); err != nil {
		log.Printf("failed to clean expired sessions: %v", err)
	}

	gw := gateway.NewClient(cfg.Backend.URL)
	idp := identity.NewClient(cfg.Identity.AuthURL, cfg.Identity.TokenURL, cfg.Identity.APIKey)
	h := handlers.NewHandlers(db, gw, idp, cfg)

	mux := setupRouter(h, cfg.Server.StaticDir)

	log.Printf("portal listening on %s (gateway %s, plaid env %s)", cfg.Server.Addr, cfg.Backend.URL, cfg.Plaid.Env)
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, mux))
}

// setupRouter wires all routes. Everything under the dashboard sits behind
// the session gate; login, health, and static assets do not.
func setupRouter(h *handlers.Handlers, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.Handle("GET /{$}", http.RedirectHandler("/dashboard", http.StatusFound))

	protected := http.NewServeMux()
	protected.HandleFunc("GET /dashboard", h.Dashboard)
	protected.HandleFunc("GET /panel/payments", h.PaymentsPanel)
	protected.HandleFunc("POST /pay", h.SubmitPayment)
	protected.HandleFunc("GET /panel/bank", h.BankPanel)
	protected.HandleFunc("POST /bank/link-token", h.BankLinkToken)
	protected.HandleFunc("POST /bank/exchange", h.BankExchange)
	protected.HandleFunc("GET /panel/history", h.HistoryPanel)
	protected.HandleFunc("GET /panel/contact", h.ContactPanel)
	protected.HandleFunc("POST /contact", h.SubmitContact)
	mux.Handle("/", h.AuthMiddleware(protected))

	return mux
}
