// Package identity is a client for the identity provider's REST surface:
// password sign-in, account creation, and bearer-token minting from a
// refresh credential. The portal never caches minted tokens; every
// authenticated gateway call mints a fresh one.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Sign-in failures are classified at this boundary so callers can branch on
// typed results instead of matching provider error strings.
var (
	// ErrNotFound means no account exists for the email.
	ErrNotFound = errors.New("account not found")
	// ErrBadCredentials means the account exists but the password is wrong.
	ErrBadCredentials = errors.New("wrong email or password")
)

// Credentials is the result of a successful sign-in or registration.
type Credentials struct {
	UID          string
	Email        string
	IDToken      string
	RefreshToken string
}

// Client talks to the identity provider.
type Client struct {
	authURL  string
	tokenURL string
	apiKey   string
	http     *http.Client
}

// NewClient creates an identity client. authURL and tokenURL are the
// provider's account and secure-token endpoints; apiKey is the project's
// browser API key.
func NewClient(authURL, tokenURL, apiKey string) *Client {
	return &Client{
		authURL:  strings.TrimRight(authURL, "/"),
		tokenURL: strings.TrimRight(tokenURL, "/"),
		apiKey:   apiKey,
		http:     &http.Client{},
	}
}

type authRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type authResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn authenticates an existing account. A missing account is reported as
// ErrNotFound and a bad password as ErrBadCredentials; anything else comes
// back with the provider's own message.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Credentials, error) {
	return c.authCall(ctx, "accounts:signInWithPassword", email, password)
}

// SignUp registers a new account with the given credentials.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Credentials, error) {
	return c.authCall(ctx, "accounts:signUp", email, password)
}

// SignInOrRegister attempts sign-in and, only when the account does not
// exist, falls through to registration with the same credentials. Any other
// sign-in failure is returned as-is.
func (c *Client) SignInOrRegister(ctx context.Context, email, password string) (*Credentials, error) {
	creds, err := c.SignIn(ctx, email, password)
	if errors.Is(err, ErrNotFound) {
		return c.SignUp(ctx, email, password)
	}
	return creds, err
}

func (c *Client) authCall(ctx context.Context, endpoint, email, password string) (*Credentials, error) {
	body, err := json.Marshal(authRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/v1/%s?key=%s", c.authURL, endpoint, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var ar authResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&ar); err != nil {
		return nil, fmt.Errorf("identity provider: %w", err)
	}

	if ar.Error != nil {
		return nil, classify(ar.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || ar.IDToken == "" {
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	return &Credentials{
		UID:          ar.LocalID,
		Email:        ar.Email,
		IDToken:      ar.IDToken,
		RefreshToken: ar.RefreshToken,
	}, nil
}

// classify maps provider error codes onto the typed sentinels once, here,
// so nothing downstream string-matches.
func classify(code string) error {
	switch code {
	case "EMAIL_NOT_FOUND", "USER_NOT_FOUND":
		return ErrNotFound
	case "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return ErrBadCredentials
	case "":
		return errors.New("sign-in failed")
	default:
		return errors.New(humanize(code))
	}
}

// humanize turns SCREAMING_SNAKE provider codes into readable text, e.g.
// "USER_DISABLED" -> "user disabled".
func humanize(code string) string {
	return strings.ToLower(strings.ReplaceAll(code, "_", " "))
}

type tokenResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// MintToken exchanges a refresh credential for a fresh short-lived bearer
// token. Called once per authenticated gateway request.
func (c *Client) MintToken(ctx context.Context, refreshToken string) (string, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	u := fmt.Sprintf("%s/v1/token?key=%s", c.tokenURL, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&tr); err != nil {
		return "", fmt.Errorf("identity provider: %w", err)
	}
	if tr.Error != nil {
		return "", errors.New(humanize(tr.Error.Message))
	}
	if resp.StatusCode != http.StatusOK || tr.IDToken == "" {
		return "", fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}
	return tr.IDToken, nil
}
