package handlers

import (
	"net/http"
)

// linkState is where a bank-link attempt currently stands. Widget success
// (followed by a server-side exchange) and widget exit land in distinct
// states so each is handled explicitly rather than implied by callback
// nesting.
type linkState string

const (
	linkIdle          linkState = "idle"
	linkTokenAcquired linkState = "token"
	linkExchanged     linkState = "linked"
	linkFailed        linkState = "failed"
)

// BankViewModel holds data for the bank-link panel.
type BankViewModel struct {
	State     linkState
	LinkToken string
	PlaidEnv  string
	Error     string
}

// BankPanel renders the bank-link panel in its idle state.
func (h *Handlers) BankPanel(w http.ResponseWriter, r *http.Request) {
	h.renderPanel(w, "bank.html", BankViewModel{State: linkIdle, PlaidEnv: h.plaidEnv})
}

// BankLinkToken is phase one of the link flow: acquire a single-use link
// token from the gateway. Failure aborts here with a status message and the
// widget never opens. On success the returned fragment boots the aggregator
// widget in the browser; the in-flight gate on the trigger control covers
// only this phase, not the widget's own lifecycle.
func (h *Handlers) BankLinkToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.mintToken(r)
	if err != nil {
		h.renderPanel(w, "bank.html", BankViewModel{
			State:    linkFailed,
			PlaidEnv: h.plaidEnv,
			Error:    "Your session could not be verified. Please sign in again.",
		})
		return
	}

	linkToken, err := h.gw.CreateLinkToken(r.Context(), token)
	if err != nil {
		h.renderPanel(w, "bank.html", BankViewModel{
			State:    linkFailed,
			PlaidEnv: h.plaidEnv,
			Error:    errText(err, "Unable to start bank linking. Please try again."),
		})
		return
	}

	h.renderPanel(w, "bank.html", BankViewModel{
		State:     linkTokenAcquired,
		LinkToken: linkToken,
		PlaidEnv:  h.plaidEnv,
	})
}

// BankExchange is phase two: the widget succeeded and handed back a
// short-lived public token, which is exchanged immediately for a durable
// linked-account credential held server-side. Exchange failure is reported
// distinctly from link-token failure.
func (h *Handlers) BankExchange(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderPanel(w, "bank.html", BankViewModel{State: linkFailed, PlaidEnv: h.plaidEnv, Error: "Invalid form submission"})
		return
	}
	publicToken := r.FormValue("public_token")
	if publicToken == "" {
		h.renderPanel(w, "bank.html", BankViewModel{
			State:    linkFailed,
			PlaidEnv: h.plaidEnv,
			Error:    "The bank widget did not return a token. Please try again.",
		})
		return
	}

	token, err := h.mintToken(r)
	if err != nil {
		h.renderPanel(w, "bank.html", BankViewModel{
			State:    linkFailed,
			PlaidEnv: h.plaidEnv,
			Error:    "Your session could not be verified. Please sign in again.",
		})
		return
	}

	if err := h.gw.ExchangePublicToken(r.Context(), token, publicToken); err != nil {
		h.renderPanel(w, "bank.html", BankViewModel{
			State:    linkFailed,
			PlaidEnv: h.plaidEnv,
			Error:    errText(err, "Bank account could not be linked. Please try again."),
		})
		return
	}

	h.renderPanel(w, "bank.html", BankViewModel{State: linkExchanged, PlaidEnv: h.plaidEnv})
}
