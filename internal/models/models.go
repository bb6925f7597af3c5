package models

import "time"

// Timestamp carries an epoch-seconds field as serialized by the gateway.
type Timestamp struct {
	Seconds int64 `json:"seconds"`
}

// Transaction is a read-only payment record returned by the gateway.
// Amount is in integer minor units (cents).
type Transaction struct {
	ID        string     `json:"id"`
	Amount    int64      `json:"amount"`
	Currency  string     `json:"currency,omitempty"`
	Status    string     `json:"status"`
	Timestamp *Timestamp `json:"timestamp,omitempty"`
}

// CheckoutRequest is the payload for creating a hosted checkout session.
type CheckoutRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	SuccessURL  string `json:"success_url"`
	CancelURL   string `json:"cancel_url"`
}

// ContactMessage is a contact form submission.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// User is the authenticated identity as seen by the portal.
type User struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Session is a portal login session. RefreshToken is the identity-provider
// credential used to mint a fresh bearer token for each gateway call.
type Session struct {
	Token        string    `json:"token"`
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
}
