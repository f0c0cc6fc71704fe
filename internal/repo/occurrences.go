package repo

import (
	"context"
	"database/sql"

	"zelador/internal/domain"
)

const occurrenceColumns = `activity_id,reference_date,status,completed_at,notes,created_at,updated_at`

func scanOccurrence(scan func(dest ...any) error) (domain.Occurrence, error) {
	var o domain.Occurrence
	err := scan(&o.ActivityID, &o.ReferenceDate, &o.Status, &o.CompletedAt, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return o, ErrNotFound
	}
	return o, err
}

func (r Repo) GetOccurrence(ctx context.Context, activityID, referenceDate string) (domain.Occurrence, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+occurrenceColumns+` FROM occurrences WHERE activity_id=? AND reference_date=?`, activityID, referenceDate)
	return scanOccurrence(row.Scan)
}

// ListOccurrences returns an activity's history ordered by reference date.
func (r Repo) ListOccurrences(ctx context.Context, activityID string) ([]domain.Occurrence, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+occurrenceColumns+` FROM occurrences WHERE activity_id=? ORDER BY reference_date ASC`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Occurrence
	for rows.Next() {
		o, err := scanOccurrence(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}

// ListOccurrencesForCondo loads the full history for every activity of a
// condominium in one query, keyed by activity id. The notification and
// board paths use this to avoid one round-trip per activity.
func (r Repo) ListOccurrencesForCondo(ctx context.Context, condoID string) (map[string][]domain.Occurrence, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT o.activity_id,o.reference_date,o.status,o.completed_at,o.notes,o.created_at,o.updated_at
FROM occurrences o JOIN activities a ON a.id=o.activity_id
WHERE a.condo_id=? ORDER BY o.activity_id, o.reference_date ASC`, condoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string][]domain.Occurrence{}
	for rows.Next() {
		o, err := scanOccurrence(rows.Scan)
		if err != nil {
			return nil, err
		}
		res[o.ActivityID] = append(res[o.ActivityID], o)
	}
	return res, rows.Err()
}

func (r Repo) InsertOccurrence(ctx context.Context, tx *sql.Tx, o domain.Occurrence) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO occurrences(activity_id,reference_date,status,completed_at,notes,created_at,updated_at) VALUES (?,?,?,?,?,?,?)`,
		o.ActivityID, o.ReferenceDate, o.Status, nullablePtr(o.CompletedAt), nullablePtr(o.Notes), o.CreatedAt, o.UpdatedAt)
	return err
}

// SchedulePendingOccurrence inserts a PENDENTE record for the key, leaving
// any existing record untouched. Replayed completions therefore never
// clobber manual edits to an already-scheduled next occurrence; the second
// write degrades to a no-op on the unique key. The bool reports whether a
// row was actually inserted.
func (r Repo) SchedulePendingOccurrence(ctx context.Context, tx *sql.Tx, activityID, referenceDate, now string) (bool, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO occurrences(activity_id,reference_date,status,created_at,updated_at) VALUES (?,?,?,?,?)
ON CONFLICT(activity_id,reference_date) DO NOTHING`,
		activityID, referenceDate, domain.OccurrencePendente, now, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r Repo) UpdateOccurrence(ctx context.Context, tx *sql.Tx, o domain.Occurrence) error {
	res, err := tx.ExecContext(ctx, `UPDATE occurrences SET status=?,completed_at=?,notes=?,updated_at=? WHERE activity_id=? AND reference_date=?`,
		o.Status, nullablePtr(o.CompletedAt), nullablePtr(o.Notes), o.UpdatedAt, o.ActivityID, o.ReferenceDate)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
