package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/etiennegwiavander/linguaflow/internal/model"
)

// CreateTutor inserts a new tutor account.
func (s *Store) CreateTutor(t model.Tutor) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO tutors (email, display_name, password_hash, role, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.Email, t.DisplayName, t.PasswordHash, t.Role, t.Active, time.Now(),
	)
	if err != nil {
		slog.Error("failed to create tutor", "email", t.Email, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created tutor", "id", id, "email", t.Email, "role", t.Role)
	return id, nil
}

// GetTutorByEmail returns a tutor by email, or nil if not found.
func (s *Store) GetTutorByEmail(email string) (*model.Tutor, error) {
	var t model.Tutor
	err := s.db.QueryRow(
		`SELECT id, email, display_name, password_hash, role, active, created_at
		 FROM tutors WHERE email = ?`, email,
	).Scan(&t.ID, &t.Email, &t.DisplayName, &t.PasswordHash, &t.Role, &t.Active, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTutorByID returns a tutor by ID, or nil if not found.
func (s *Store) GetTutorByID(id int64) (*model.Tutor, error) {
	var t model.Tutor
	err := s.db.QueryRow(
		`SELECT id, email, display_name, password_hash, role, active, created_at
		 FROM tutors WHERE id = ?`, id,
	).Scan(&t.ID, &t.Email, &t.DisplayName, &t.PasswordHash, &t.Role, &t.Active, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTutors returns all tutor accounts.
func (s *Store) ListTutors() ([]model.Tutor, error) {
	rows, err := s.db.Query(
		`SELECT id, email, display_name, password_hash, role, active, created_at
		 FROM tutors ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tutors []model.Tutor
	for rows.Next() {
		var t model.Tutor
		if err := rows.Scan(&t.ID, &t.Email, &t.DisplayName, &t.PasswordHash, &t.Role, &t.Active, &t.CreatedAt); err != nil {
			return nil, err
		}
		tutors = append(tutors, t)
	}
	return tutors, rows.Err()
}

// ToggleTutorActive flips the active flag on a tutor account.
func (s *Store) ToggleTutorActive(id int64) error {
	_, err := s.db.Exec(`UPDATE tutors SET active = NOT active WHERE id = ?`, id)
	return err
}

// UpdateTutorPassword replaces a tutor's password hash.
func (s *Store) UpdateTutorPassword(id int64, passwordHash string) error {
	_, err := s.db.Exec(`UPDATE tutors SET password_hash = ? WHERE id = ?`, passwordHash, id)
	return err
}

// TutorCount returns the total number of tutor accounts.
func (s *Store) TutorCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tutors`).Scan(&count)
	return count, err
}
