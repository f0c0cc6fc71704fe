package repo

import (
	"context"
	"database/sql"
	"strings"

	"zelador/internal/domain"
)

const activityColumns = `id,condo_id,name,COALESCE(description,'') AS description,COALESCE(location,'') AS location,responsible,frequency,expected_date,start_at,completion_date,active,created_at,updated_at`

func scanActivity(scan func(dest ...any) error) (domain.Activity, error) {
	var a domain.Activity
	var active int
	err := scan(&a.ID, &a.CondoID, &a.Name, &a.Description, &a.Location,
		&a.Responsible, &a.Frequency, &a.ExpectedDate, &a.StartAt, &a.CompletionDate,
		&active, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	a.Active = active != 0
	return a, err
}

func (r Repo) InsertActivity(ctx context.Context, tx *sql.Tx, a domain.Activity) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO activities(id,condo_id,name,description,location,responsible,frequency,expected_date,start_at,completion_date,active,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.CondoID, a.Name, nullable(a.Description), nullable(a.Location), nullablePtr(a.Responsible),
		a.Frequency, nullablePtr(a.ExpectedDate), nullablePtr(a.StartAt), nullablePtr(a.CompletionDate),
		boolInt(a.Active), a.CreatedAt, a.UpdatedAt)
	return err
}

func (r Repo) GetActivity(ctx context.Context, id string) (domain.Activity, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id=?`, id)
	return scanActivity(row.Scan)
}

// ListActivities returns a condominium's activities, newest first. With
// activeOnly set, paused activities are excluded.
func (r Repo) ListActivities(ctx context.Context, condoID string, activeOnly bool) ([]domain.Activity, error) {
	clauses := []string{"condo_id=?"}
	args := []any{condoID}
	if activeOnly {
		clauses = append(clauses, "active=1")
	}
	query := `SELECT ` + activityColumns + ` FROM activities WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r Repo) UpdateActivity(ctx context.Context, tx *sql.Tx, a domain.Activity) error {
	res, err := tx.ExecContext(ctx, `UPDATE activities SET name=?,description=?,location=?,responsible=?,frequency=?,expected_date=?,start_at=?,completion_date=?,active=?,updated_at=? WHERE id=?`,
		a.Name, nullable(a.Description), nullable(a.Location), nullablePtr(a.Responsible),
		a.Frequency, nullablePtr(a.ExpectedDate), nullablePtr(a.StartAt), nullablePtr(a.CompletionDate),
		boolInt(a.Active), a.UpdatedAt, a.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteActivity(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM activities WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) CountActivities(ctx context.Context, condoID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities WHERE condo_id=?`, condoID).Scan(&n)
	return n, err
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
