package handlers

import (
	"net/http"
	"strings"

	"github.com/JAZtrades/zarcaro-pay/internal/models"
)

// ContactViewModel holds data for the contact panel.
type ContactViewModel struct {
	Name    string
	Email   string
	Message string
	Error   string
	Success bool
}

// ContactPanel renders the contact form.
func (h *Handlers) ContactPanel(w http.ResponseWriter, r *http.Request) {
	h.renderPanel(w, "contact.html", ContactViewModel{})
}

// SubmitContact posts the message to the gateway without a bearer token.
// Success clears the form and shows a confirmation; failure preserves all
// three fields verbatim so the user can retry without retyping.
func (h *Handlers) SubmitContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderPanel(w, "contact.html", ContactViewModel{Error: "Invalid form submission"})
		return
	}

	// Field values are kept verbatim so a failed submission redisplays
	// exactly what was typed.
	msg := models.ContactMessage{
		Name:    r.FormValue("name"),
		Email:   r.FormValue("email"),
		Message: r.FormValue("message"),
	}

	if strings.TrimSpace(msg.Name) == "" || strings.TrimSpace(msg.Email) == "" || strings.TrimSpace(msg.Message) == "" {
		h.renderPanel(w, "contact.html", ContactViewModel{
			Name: msg.Name, Email: msg.Email, Message: msg.Message,
			Error: "Name, email and message are all required.",
		})
		return
	}

	if err := h.gw.SubmitContact(r.Context(), msg); err != nil {
		h.renderPanel(w, "contact.html", ContactViewModel{
			Name: msg.Name, Email: msg.Email, Message: msg.Message,
			Error: errText(err, "Unable to send your message. Please try again."),
		})
		return
	}

	h.renderPanel(w, "contact.html", ContactViewModel{Success: true})
}
