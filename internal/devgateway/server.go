// Package devgateway is a local stand-in for the production backend gateway
// and the hosted identity provider, so the portal can run and be tested
// without Stripe, Plaid, or the real identity project. It implements the
// same wire contract the portal consumes: bearer-token-gated JSON endpoints
// with {"error": string} failure envelopes.
package devgateway

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JAZtrades/zarcaro-pay/internal/auth"
)

const idTokenTTL = time.Hour

// Server serves the dev identity and gateway endpoints.
type Server struct {
	store *Store
	plaid *PlaidBridge
	// publicURL is this server's own base URL, used to build checkout links.
	publicURL string
}

// NewServer creates a dev gateway over the given store. plaid may be nil, in
// which case canned sandbox tokens are issued instead of real ones.
func NewServer(store *Store, plaid *PlaidBridge, publicURL string) *Server {
	return &Server{store: store, plaid: plaid, publicURL: strings.TrimRight(publicURL, "/")}
}

// Router returns the full route table.
func (s *Server) Router() *http.ServeMux {
	mux := http.NewServeMux()

	// Identity provider surface.
	mux.HandleFunc("POST /v1/accounts:signInWithPassword", s.signIn)
	mux.HandleFunc("POST /v1/accounts:signUp", s.signUp)
	mux.HandleFunc("POST /v1/token", s.refreshToken)

	// Gateway surface.
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("POST /create-checkout-session", s.createCheckoutSession)
	mux.HandleFunc("POST /plaid/create_link_token", s.createLinkToken)
	mux.HandleFunc("POST /plaid/exchange_public_token", s.exchangePublicToken)
	mux.HandleFunc("GET /transactions", s.transactions)
	mux.HandleFunc("POST /contact", s.contact)

	// Stand-in for the hosted checkout page a real processor would serve.
	mux.HandleFunc("GET /checkout/{id}", s.checkoutPage)

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// gatewayError writes the gateway's flat error envelope.
func gatewayError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// identityError writes the identity provider's nested error envelope.
func identityError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"message": code}})
}

type authPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) writeCredentials(w http.ResponseWriter, u *User) {
	refresh, err := s.store.IssueRefreshToken(u.UID)
	if err != nil {
		identityError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
		return
	}
	idToken, err := s.store.IssueIDToken(u.UID, idTokenTTL)
	if err != nil {
		identityError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"localId":      u.UID,
		"email":        u.Email,
		"idToken":      idToken,
		"refreshToken": refresh,
	})
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var req authPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		identityError(w, http.StatusBadRequest, "INVALID_PAYLOAD")
		return
	}
	u, err := s.store.GetUserByEmail(req.Email)
	if err != nil {
		identityError(w, http.StatusBadRequest, "EMAIL_NOT_FOUND")
		return
	}
	if !auth.CheckPassword(req.Password, u.PasswordHash) {
		identityError(w, http.StatusBadRequest, "INVALID_PASSWORD")
		return
	}
	s.writeCredentials(w, u)
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req authPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		identityError(w, http.StatusBadRequest, "INVALID_PAYLOAD")
		return
	}
	if len(req.Password) < 6 {
		identityError(w, http.StatusBadRequest, "WEAK_PASSWORD")
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		identityError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
		return
	}
	u, err := s.store.CreateUser(req.Email, hash)
	if err != nil {
		identityError(w, http.StatusBadRequest, "EMAIL_EXISTS")
		return
	}
	s.writeCredentials(w, u)
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		identityError(w, http.StatusBadRequest, "INVALID_PAYLOAD")
		return
	}
	if r.Form.Get("grant_type") != "refresh_token" {
		identityError(w, http.StatusBadRequest, "INVALID_GRANT_TYPE")
		return
	}
	uid, err := s.store.ResolveRefreshToken(r.Form.Get("refresh_token"))
	if err != nil {
		identityError(w, http.StatusBadRequest, "INVALID_REFRESH_TOKEN")
		return
	}
	idToken, err := s.store.IssueIDToken(uid, idTokenTTL)
	if err != nil {
		identityError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id_token":      idToken,
		"refresh_token": r.Form.Get("refresh_token"),
		"user_id":       uid,
	})
}

// verifyBearer resolves the Authorization header to a uid, mirroring the
// production gateway's token check.
func (s *Server) verifyBearer(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", fmt.Errorf("Missing Authorization header")
	}
	uid, err := s.store.ResolveIDToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return "", fmt.Errorf("invalid or expired token")
	}
	return uid, nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	uid, err := s.verifyBearer(r)
	if err != nil {
		gatewayError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req struct {
		Amount      int64  `json:"amount"`
		Description string `json:"description"`
		SuccessURL  string `json:"success_url"`
		CancelURL   string `json:"cancel_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		gatewayError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Amount <= 0 || req.SuccessURL == "" || req.CancelURL == "" {
		gatewayError(w, http.StatusBadRequest, "amount, success_url and cancel_url are required")
		return
	}

	// The production gateway records the transaction when the processor's
	// webhook confirms payment; the dev stand-in records it up front so the
	// history panel has data immediately.
	id := uuid.NewString()
	if err := s.store.RecordTransaction(Transaction{
		ID:       id,
		UID:      uid,
		Amount:   req.Amount,
		Currency: "usd",
		Status:   "paid",
		Time:     time.Now(),
	}); err != nil {
		gatewayError(w, http.StatusInternalServerError, "failed to record transaction")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"url": s.publicURL + "/checkout/" + id,
	})
}

func (s *Server) checkoutPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html><html><body class="dev-checkout"><h1>Payment received</h1><p>Dev checkout session %s is complete. You can close this page.</p></body></html>`, r.PathValue("id"))
}

func (s *Server) createLinkToken(w http.ResponseWriter, r *http.Request) {
	uid, err := s.verifyBearer(r)
	if err != nil {
		gatewayError(w, http.StatusUnauthorized, err.Error())
		return
	}

	if s.plaid != nil {
		token, err := s.plaid.createLinkToken(r.Context(), uid)
		if err != nil {
			gatewayError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"link_token": token})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"link_token": "link-sandbox-" + uuid.NewString(),
	})
}

func (s *Server) exchangePublicToken(w http.ResponseWriter, r *http.Request) {
	uid, err := s.verifyBearer(r)
	if err != nil {
		gatewayError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req struct {
		PublicToken string `json:"public_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PublicToken == "" {
		gatewayError(w, http.StatusBadRequest, "public_token is required")
		return
	}

	accessToken := "access-sandbox-" + uuid.NewString()
	if s.plaid != nil {
		accessToken, err = s.plaid.exchangePublicToken(r.Context(), req.PublicToken)
		if err != nil {
			gatewayError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := s.store.SaveLinkedAccount(uid, accessToken); err != nil {
		gatewayError(w, http.StatusInternalServerError, "failed to store linked account")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bank account linked"})
}

func (s *Server) transactions(w http.ResponseWriter, r *http.Request) {
	uid, err := s.verifyBearer(r)
	if err != nil {
		gatewayError(w, http.StatusUnauthorized, err.Error())
		return
	}

	txs, err := s.store.ListTransactions(uid)
	if err != nil {
		gatewayError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	// Always an array on success, even when empty; the portal treats any
	// other shape as failure.
	out := make([]map[string]any, 0, len(txs))
	for _, t := range txs {
		out = append(out, map[string]any{
			"id":        t.ID,
			"amount":    t.Amount,
			"currency":  t.Currency,
			"status":    t.Status,
			"timestamp": map[string]int64{"seconds": t.Time.Unix()},
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) contact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		gatewayError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" || req.Email == "" || req.Message == "" {
		gatewayError(w, http.StatusBadRequest, "name, email and message are required")
		return
	}
	if err := s.store.SaveContactMessage(req.Name, req.Email, req.Message); err != nil {
		gatewayError(w, http.StatusInternalServerError, "failed to store message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Contact form submitted"})
}
