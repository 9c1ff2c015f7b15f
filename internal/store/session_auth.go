package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/etiennegwiavander/linguaflow/internal/model"
)

const (
	authSessionTTL   = 24 * time.Hour
	passwordResetTTL = time.Hour
)

// CreateAuthSession creates a new auth session token for a tutor.
func (s *Store) CreateAuthSession(tutorID int64) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	now := time.Now()
	_, err = s.db.Exec(
		`INSERT INTO auth_sessions (id, tutor_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token, tutorID, now, now.Add(authSessionTTL),
	)
	if err != nil {
		return "", err
	}
	return token, nil
}

// GetAuthSession returns the auth session for the given token, or nil if not found/expired.
func (s *Store) GetAuthSession(token string) (*model.AuthSession, error) {
	var sess model.AuthSession
	err := s.db.QueryRow(
		`SELECT id, tutor_id, created_at, expires_at FROM auth_sessions WHERE id = ?`, token,
	).Scan(&sess.ID, &sess.TutorID, &sess.CreatedAt, &sess.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = s.DeleteAuthSession(token)
		return nil, nil
	}
	return &sess, nil
}

// DeleteAuthSession removes a session token.
func (s *Store) DeleteAuthSession(token string) error {
	_, err := s.db.Exec(`DELETE FROM auth_sessions WHERE id = ?`, token)
	return err
}

// CleanupExpiredSessions removes all expired auth sessions.
func (s *Store) CleanupExpiredSessions() error {
	_, err := s.db.Exec(`DELETE FROM auth_sessions WHERE expires_at < ?`, time.Now())
	return err
}

// CreatePasswordReset issues a single-use reset token for a tutor.
func (s *Store) CreatePasswordReset(tutorID int64) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	now := time.Now()
	_, err = s.db.Exec(
		`INSERT INTO password_resets (token, tutor_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token, tutorID, now, now.Add(passwordResetTTL),
	)
	if err != nil {
		return "", err
	}
	return token, nil
}

// GetPasswordReset returns the reset row for a token, or nil when the token
// is unknown, expired, or already used.
func (s *Store) GetPasswordReset(token string) (*model.PasswordReset, error) {
	var pr model.PasswordReset
	err := s.db.QueryRow(
		`SELECT token, tutor_id, created_at, expires_at, used_at FROM password_resets WHERE token = ?`, token,
	).Scan(&pr.Token, &pr.TutorID, &pr.CreatedAt, &pr.ExpiresAt, &pr.UsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if pr.UsedAt != nil || time.Now().After(pr.ExpiresAt) {
		return nil, nil
	}
	return &pr, nil
}

// MarkPasswordResetUsed consumes a reset token.
func (s *Store) MarkPasswordResetUsed(token string) error {
	_, err := s.db.Exec(`UPDATE password_resets SET used_at = ? WHERE token = ?`, time.Now(), token)
	return err
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
