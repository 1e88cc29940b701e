package postgres

import (
	"context"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
)

var _ ports.ContactRepository = (*ContactRepo)(nil)

// ContactRepo implements ports.ContactRepository with pgx.
type ContactRepo struct {
	db *DB
}

// NewContactRepo creates a new ContactRepo.
func NewContactRepo(db *DB) *ContactRepo {
	return &ContactRepo{db: db}
}

// Create inserts a contact. The caller assigns the ID.
func (r *ContactRepo) Create(ctx context.Context, c *domain.EmergencyContact) error {
	_, err := r.db.q.Exec(ctx, `
		INSERT INTO emergency_contacts (id, user_id, name, phone, email, relationship, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)
	`, c.ID, c.UserID, c.Name, c.Phone, c.Email, c.Relationship, c.CreatedAt)
	return err
}

// ListByUser returns the user's contacts in the order they were added.
func (r *ContactRepo) ListByUser(ctx context.Context, userID string) ([]domain.EmergencyContact, error) {
	rows, err := r.db.q.Query(ctx, `
		SELECT id, user_id, name, COALESCE(phone, ''), COALESCE(email, ''), relationship, created_at
		FROM emergency_contacts
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EmergencyContact
	for rows.Next() {
		var c domain.EmergencyContact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.Email, &c.Relationship, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a contact owned by userID.
func (r *ContactRepo) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.q.Exec(ctx, `DELETE FROM emergency_contacts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
