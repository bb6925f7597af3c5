package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JAZtrades/zarcaro-pay/internal/models"
	"github.com/JAZtrades/zarcaro-pay/internal/money"
)

// PayViewModel holds data for the payments panel. StripeKey is the payment
// processor's browser-side key, exposed on the form for the hosted checkout
// handoff.
type PayViewModel struct {
	Amount    string
	Error     string
	StripeKey string
}

// PaymentsPanel renders the invoice payment form.
func (h *Handlers) PaymentsPanel(w http.ResponseWriter, r *http.Request) {
	h.renderPanel(w, "pay.html", PayViewModel{StripeKey: h.stripeKey})
}

// SubmitPayment validates the entered amount and asks the gateway for a
// hosted checkout session. Amounts that do not parse to a positive number of
// cents are rejected inline before any network call. On success the browser
// is navigated to the checkout URL; card data never touches the portal.
func (h *Handlers) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderPanel(w, "pay.html", PayViewModel{Error: "Invalid form submission", StripeKey: h.stripeKey})
		return
	}

	amountText := strings.TrimSpace(r.FormValue("amount"))
	cents, err := money.ParseDollarsToCents(amountText)
	if err != nil || cents <= 0 {
		h.renderPanel(w, "pay.html", PayViewModel{
			Amount:    amountText,
			StripeKey: h.stripeKey,
			Error:     "Enter a valid amount greater than zero.",
		})
		return
	}

	token, err := h.mintToken(r)
	if err != nil {
		h.renderPanel(w, "pay.html", PayViewModel{
			Amount:    amountText,
			StripeKey: h.stripeKey,
			Error:     "Your session could not be verified. Please sign in again.",
		})
		return
	}

	pageURL := currentPageURL(r)
	checkoutURL, err := h.gw.CreateCheckoutSession(r.Context(), token, models.CheckoutRequest{
		Amount:      cents,
		Description: fmt.Sprintf("Legal services payment of $%s", strings.TrimPrefix(amountText, "$")),
		SuccessURL:  pageURL,
		CancelURL:   pageURL,
	})
	if err != nil {
		h.renderPanel(w, "pay.html", PayViewModel{
			Amount:    amountText,
			StripeKey: h.stripeKey,
			Error:     errText(err, "Unable to start checkout. Please try again."),
		})
		return
	}

	// Full-page navigation to the hosted checkout, not an embedded swap.
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", checkoutURL)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, checkoutURL, http.StatusSeeOther)
}
