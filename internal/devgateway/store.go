package devgateway

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email exists")

// User is a dev identity account.
type User struct {
	UID          string
	Email        string
	PasswordHash string
}

// Transaction mirrors the wire shape the real gateway serves.
type Transaction struct {
	ID       string
	UID      string
	Amount   int64
	Currency string
	Status   string
	Time     time.Time
}

// Store is the dev gateway's sqlite persistence: identity accounts, issued
// tokens, recorded transactions, linked accounts, and contact messages.
type Store struct {
	conn *sql.DB
}

// NewStore opens a database connection and runs migrations.
func NewStore(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		return nil, err
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			uid TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			token TEXT PRIMARY KEY,
			uid TEXT NOT NULL REFERENCES users(uid)
		)`,
		`CREATE TABLE IF NOT EXISTS id_tokens (
			token TEXT PRIMARY KEY,
			uid TEXT NOT NULL REFERENCES users(uid),
			expires_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			uid TEXT NOT NULL,
			amount INTEGER NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			ts DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS linked_accounts (
			uid TEXT PRIMARY KEY,
			access_token TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS contact_messages (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			message TEXT NOT NULL,
			ts DATETIME NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// CreateUser registers a dev identity account.
func (s *Store) CreateUser(email, passwordHash string) (*User, error) {
	u := &User{UID: uuid.NewString(), Email: email, PasswordHash: passwordHash}
	_, err := s.conn.Exec(
		"INSERT INTO users (uid, email, password_hash) VALUES (?, ?, ?)",
		u.UID, u.Email, u.PasswordHash,
	)
	if err != nil {
		if existing, lookupErr := s.GetUserByEmail(email); lookupErr == nil && existing != nil {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email.
func (s *Store) GetUserByEmail(email string) (*User, error) {
	row := s.conn.QueryRow("SELECT uid, email, password_hash FROM users WHERE email = ?", email)
	var u User
	if err := row.Scan(&u.UID, &u.Email, &u.PasswordHash); err != nil {
		return nil, err
	}
	return &u, nil
}

// IssueRefreshToken mints and stores a refresh token for a user.
func (s *Store) IssueRefreshToken(uid string) (string, error) {
	token := "refresh-" + uuid.NewString()
	_, err := s.conn.Exec("INSERT INTO refresh_tokens (token, uid) VALUES (?, ?)", token, uid)
	return token, err
}

// ResolveRefreshToken returns the uid a refresh token was issued to.
func (s *Store) ResolveRefreshToken(token string) (string, error) {
	var uid string
	err := s.conn.QueryRow("SELECT uid FROM refresh_tokens WHERE token = ?", token).Scan(&uid)
	return uid, err
}

// IssueIDToken mints a short-lived bearer token for a user.
func (s *Store) IssueIDToken(uid string, ttl time.Duration) (string, error) {
	token := "id-" + uuid.NewString()
	_, err := s.conn.Exec(
		"INSERT INTO id_tokens (token, uid, expires_at) VALUES (?, ?, ?)",
		token, uid, time.Now().UTC().Add(ttl),
	)
	return token, err
}

// ResolveIDToken returns the uid behind an unexpired bearer token.
func (s *Store) ResolveIDToken(token string) (string, error) {
	var uid string
	err := s.conn.QueryRow(
		"SELECT uid FROM id_tokens WHERE token = ? AND expires_at > CURRENT_TIMESTAMP",
		token,
	).Scan(&uid)
	return uid, err
}

// RecordTransaction stores a payment record, as the real gateway's webhook
// handler would on checkout completion.
func (s *Store) RecordTransaction(t Transaction) error {
	_, err := s.conn.Exec(
		"INSERT INTO transactions (id, uid, amount, currency, status, ts) VALUES (?, ?, ?, ?, ?, ?)",
		t.ID, t.UID, t.Amount, t.Currency, t.Status, t.Time.UTC(),
	)
	return err
}

// ListTransactions returns a user's transactions, newest first, capped at 20
// like the production gateway's history endpoint.
func (s *Store) ListTransactions(uid string) ([]Transaction, error) {
	rows, err := s.conn.Query(
		"SELECT id, uid, amount, currency, status, ts FROM transactions WHERE uid = ? ORDER BY ts DESC LIMIT 20",
		uid,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UID, &t.Amount, &t.Currency, &t.Status, &t.Time); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// SaveLinkedAccount stores the durable bank credential for a user.
func (s *Store) SaveLinkedAccount(uid, accessToken string) error {
	_, err := s.conn.Exec(
		"INSERT INTO linked_accounts (uid, access_token) VALUES (?, ?) ON CONFLICT(uid) DO UPDATE SET access_token = excluded.access_token",
		uid, accessToken,
	)
	return err
}

// SaveContactMessage stores a contact form submission.
func (s *Store) SaveContactMessage(name, email, message string) error {
	_, err := s.conn.Exec(
		"INSERT INTO contact_messages (id, name, email, message, ts) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), name, email, message, time.Now().UTC(),
	)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
