package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
)

var _ ports.SOSRepository = (*SOSRepo)(nil)

// SOSRepo implements ports.SOSRepository with pgx.
type SOSRepo struct {
	db *DB
}

// NewSOSRepo creates a new SOSRepo.
func NewSOSRepo(db *DB) *SOSRepo {
	return &SOSRepo{db: db}
}

const sosColumns = `
	id, user_id, ST_Y(location::geometry) AS lat, ST_X(location::geometry) AS lon,
	COALESCE(message, ''), status, contacted_authorities, created_at, notified_at, resolved_at`

// Create inserts a new alert. The caller assigns the ID.
func (r *SOSRepo) Create(ctx context.Context, a *domain.SOSAlert) error {
	_, err := r.db.q.Exec(ctx, `
		INSERT INTO sos_alerts (id, user_id, location, message, status, created_at)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, NULLIF($5, ''), $6, $7)
	`, a.ID, a.UserID, a.Location.Lon, a.Location.Lat, a.Message, string(a.Status), a.CreatedAt)
	return err
}

// GetByID returns an alert or domain.ErrNotFound.
func (r *SOSRepo) GetByID(ctx context.Context, id string) (*domain.SOSAlert, error) {
	row := r.db.q.QueryRow(ctx, `SELECT `+sosColumns+` FROM sos_alerts WHERE id = $1`, id)
	a, err := scanAlert(row)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// ListByUser returns the user's alerts, newest first.
func (r *SOSRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.SOSAlert, error) {
	rows, err := r.db.q.Query(ctx, `
		SELECT `+sosColumns+`
		FROM sos_alerts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SOSAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// MarkNotified records when contacts were notified. Repeated calls keep
// the first timestamp.
func (r *SOSRepo) MarkNotified(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE sos_alerts SET notified_at = COALESCE(notified_at, now()) WHERE id = $1`, id)
}

// MarkAuthoritiesContacted flags that the alert was escalated.
func (r *SOSRepo) MarkAuthoritiesContacted(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE sos_alerts SET contacted_authorities = TRUE WHERE id = $1`, id)
}

// Resolve closes an alert.
func (r *SOSRepo) Resolve(ctx context.Context, id string) error {
	return r.exec(ctx, `
		UPDATE sos_alerts
		SET status = 'resolved', resolved_at = COALESCE(resolved_at, now())
		WHERE id = $1
	`, id)
}

func (r *SOSRepo) exec(ctx context.Context, sql string, id string) error {
	tag, err := r.db.q.Exec(ctx, sql, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanAlert(row pgx.Row) (*domain.SOSAlert, error) {
	var a domain.SOSAlert
	var status string
	if err := row.Scan(
		&a.ID, &a.UserID, &a.Location.Lat, &a.Location.Lon,
		&a.Message, &status, &a.ContactedAuthorities, &a.CreatedAt, &a.NotifiedAt, &a.ResolvedAt,
	); err != nil {
		return nil, err
	}
	a.Status = domain.SOSStatus(status)
	return &a, nil
}
