package storage

import (
	"database/sql"
	"time"

	"github.com/JAZtrades/zarcaro-pay/internal/models"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection holding portal login sessions. Accounts
// themselves live with the identity provider; a session row only carries the
// subject, email, and the refresh credential used to mint bearer tokens.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			uid TEXT NOT NULL,
			email TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			last_activity DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

// CreateSession stores a new login session.
func (db *DB) CreateSession(s *models.Session) error {
	_, err := db.conn.Exec(
		"INSERT INTO sessions (token, uid, email, refresh_token, expires_at, last_activity) VALUES (?, ?, ?, ?, ?, ?)",
		s.Token, s.UID, s.Email, s.RefreshToken, s.ExpiresAt, time.Now(),
	)
	return err
}

// GetSession returns an unexpired session by token, or an error when the
// token is unknown or expired.
func (db *DB) GetSession(token string) (*models.Session, error) {
	row := db.conn.QueryRow(`
		SELECT token, uid, email, refresh_token, expires_at
		FROM sessions
		WHERE token = ? AND expires_at > CURRENT_TIMESTAMP
	`, token)

	var s models.Session
	if err := row.Scan(&s.Token, &s.UID, &s.Email, &s.RefreshToken, &s.ExpiresAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(token string, newExpiresAt time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		time.Now(), newExpiresAt, token,
	)
	return err
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(token string) error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// CleanExpiredSessions removes all expired sessions.
func (db *DB) CleanExpiredSessions() error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE expires_at <= CURRENT_TIMESTAMP")
	return err
}

// SessionCount returns the number of stored sessions.
func (db *DB) SessionCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
