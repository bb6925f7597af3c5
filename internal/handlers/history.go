package handlers

import (
	"net/http"

	"github.com/JAZtrades/zarcaro-pay/internal/money"
)

// HistoryRow is one transaction formatted for display.
type HistoryRow struct {
	ID     string
	Amount string
	Status string
	Date   string
}

// HistoryViewModel holds data for the history panel.
type HistoryViewModel struct {
	Rows  []HistoryRow
	Error string
}

// HistoryPanel fetches and renders past transactions. Rows appear in the
// order the gateway returned them; the gateway, not this panel, bounds and
// sorts the list. The panel's Refresh control repeats this same fetch.
func (h *Handlers) HistoryPanel(w http.ResponseWriter, r *http.Request) {
	token, err := h.mintToken(r)
	if err != nil {
		h.renderPanel(w, "history.html", HistoryViewModel{
			Error: "Your session could not be verified. Please sign in again.",
		})
		return
	}

	txs, err := h.gw.Transactions(r.Context(), token)
	if err != nil {
		h.renderPanel(w, "history.html", HistoryViewModel{
			Error: errText(err, "Unable to load payment history."),
		})
		return
	}

	rows := make([]HistoryRow, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, HistoryRow{
			ID:     t.ID,
			Amount: money.DisplayAmount(t.Amount, t.Currency),
			Status: money.DisplayStatus(t.Status),
			Date:   money.DisplayTimestamp(t.Timestamp),
		})
	}
	h.renderPanel(w, "history.html", HistoryViewModel{Rows: rows})
}
