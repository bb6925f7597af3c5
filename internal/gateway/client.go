// Package gateway is the client for the backend gateway, which owns every
// stateful operation: checkout-session creation, bank-link token issuance
// and exchange, transaction history, and contact-message ingestion.
//
// Error contract: failures arrive as {"error": "..."} bodies, and a 2xx
// response that lacks the operation's success field is still a failure.
// Nothing is retried and no client-side timeout is imposed; the transport's
// own limits govern.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JAZtrades/zarcaro-pay/internal/models"
)

// Error is a failure reported by the gateway in its error envelope. Its text
// is safe to show inline on the originating panel.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Client talks to the backend gateway. Authenticated calls take a bearer
// token minted fresh by the caller for that one request.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a gateway client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// CreateCheckoutSession asks the gateway for a hosted checkout page and
// returns the redirect URL the browser must navigate to.
func (c *Client) CreateCheckoutSession(ctx context.Context, token string, req models.CheckoutRequest) (string, error) {
	body, err := c.post(ctx, "/create-checkout-session", token, req)
	if err != nil {
		return "", err
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("gateway: %w", err)
	}
	if out.URL == "" {
		return "", &Error{Message: "the payment service did not return a checkout link"}
	}
	return out.URL, nil
}

// CreateLinkToken requests a single-use, time-limited token that authorizes
// one bank-link widget session.
func (c *Client) CreateLinkToken(ctx context.Context, token string) (string, error) {
	body, err := c.post(ctx, "/plaid/create_link_token", token, nil)
	if err != nil {
		return "", err
	}
	var out struct {
		LinkToken string `json:"link_token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("gateway: %w", err)
	}
	if out.LinkToken == "" {
		return "", &Error{Message: "the bank service did not return a link token"}
	}
	return out.LinkToken, nil
}

// ExchangePublicToken trades the widget's short-lived public token for a
// durable linked-account credential held server-side.
func (c *Client) ExchangePublicToken(ctx context.Context, token, publicToken string) error {
	_, err := c.post(ctx, "/plaid/exchange_public_token", token, map[string]string{
		"public_token": publicToken,
	})
	return err
}

// Transactions fetches the caller's payment history, most recent first. The
// gateway bounds the list; the client renders whatever it receives in order.
// Any non-array body is a failure.
func (c *Client) Transactions(ctx context.Context, token string) ([]models.Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transactions", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, envelopeError(trimmed, resp.StatusCode)
	}

	var txs []models.Transaction
	if err := json.Unmarshal(trimmed, &txs); err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	return txs, nil
}

// SubmitContact posts a contact message. This is the one unauthenticated
// gateway call; no bearer token is attached.
func (c *Client) SubmitContact(ctx context.Context, msg models.ContactMessage) error {
	_, err := c.post(ctx, "/contact", "", msg)
	return err
}

// post issues a JSON POST, attaching the bearer token when one is given, and
// returns the body after envelope checking.
func (c *Client) post(ctx context.Context, path, token string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	if msg := envelopeMessage(body); msg != "" {
		return nil, &Error{Message: msg}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Message: fmt.Sprintf("the server returned status %d", resp.StatusCode)}
	}
	return body, nil
}

// envelopeMessage extracts the error text from an {"error": "..."} body, or
// "" when the body carries no recognizable error.
func envelopeMessage(body []byte) string {
	var env struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Error
}

func envelopeError(body []byte, status int) error {
	if msg := envelopeMessage(body); msg != "" {
		return &Error{Message: msg}
	}
	if status < 200 || status > 299 {
		return &Error{Message: fmt.Sprintf("the server returned status %d", status)}
	}
	return &Error{Message: "the server returned an unexpected response"}
}

// IsGatewayError reports whether err is a gateway-reported failure, as
// opposed to a transport or decoding problem.
func IsGatewayError(err error) bool {
	var ge *Error
	return errors.As(err, &ge)
}
