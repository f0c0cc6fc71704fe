package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"zelador/internal/config"
	"zelador/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func scanCondo(row *sql.Row) (domain.Condominium, error) {
	var c domain.Condominium
	var address sql.NullString
	err := row.Scan(&c.ID, &c.Name, &address, &c.Status, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if address.Valid {
		c.Address = address.String
	}
	return c, err
}

func (r Repo) InsertCondominium(ctx context.Context, c domain.Condominium) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO condominiums(id,name,address,status,created_at) VALUES (?,?,?,?,?)`,
		c.ID, c.Name, nullable(c.Address), c.Status, c.CreatedAt)
	return err
}

func (r Repo) GetCondominium(ctx context.Context, id string) (domain.Condominium, error) {
	return scanCondo(r.DB.QueryRowContext(ctx, `SELECT id,name,COALESCE(address,'') AS address,status,created_at FROM condominiums WHERE id=?`, id))
}

// SingleCondominium returns the only condominium in the workspace, erroring
// when zero or several exist.
func (r Repo) SingleCondominium(ctx context.Context) (domain.Condominium, error) {
	items, err := r.ListCondominiums(ctx)
	if err != nil {
		return domain.Condominium{}, err
	}
	if len(items) == 0 {
		return domain.Condominium{}, ErrNotFound
	}
	if len(items) > 1 {
		return domain.Condominium{}, fmt.Errorf("multiple condominiums exist; specify --condo")
	}
	return items[0], nil
}

func (r Repo) ListCondominiums(ctx context.Context) ([]domain.Condominium, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,COALESCE(address,'') AS address,status,created_at FROM condominiums ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Condominium
	for rows.Next() {
		var c domain.Condominium
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) UpdateCondominium(ctx context.Context, id string, name, address, status *string) error {
	var (
		fields []string
		args   []any
	)
	if name != nil {
		fields = append(fields, "name=?")
		args = append(args, *name)
	}
	if address != nil {
		fields = append(fields, "address=?")
		args = append(args, nullable(*address))
	}
	if status != nil {
		fields = append(fields, "status=?")
		args = append(args, *status)
	}
	if len(fields) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE condominiums SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteCondominium(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM condominiums WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) UpsertCondoConfig(ctx context.Context, condoID string, cfg *config.Config) error {
	return upsertCondoConfig(ctx, r.DB, nil, condoID, cfg)
}

func (r Repo) UpsertCondoConfigTx(ctx context.Context, tx *sql.Tx, condoID string, cfg *config.Config) error {
	return upsertCondoConfig(ctx, nil, tx, condoID, cfg)
}

func upsertCondoConfig(ctx context.Context, db *sql.DB, tx *sql.Tx, condoID string, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config nil")
	}
	cfg.Condo.ID = condoID
	if err := cfg.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	exec := func(query string, args ...any) (sql.Result, error) {
		if tx != nil {
			return tx.ExecContext(ctx, query, args...)
		}
		return db.ExecContext(ctx, query, args...)
	}
	_, err = exec(`INSERT INTO condo_configs(condo_id,config_json,created_at,updated_at) VALUES (?,?,?,?)
ON CONFLICT(condo_id) DO UPDATE SET config_json=excluded.config_json, updated_at=excluded.updated_at`, condoID, string(payload), now, now)
	return err
}

func (r Repo) GetCondoConfig(ctx context.Context, condoID string) (*config.Config, error) {
	var payload string
	err := r.DB.QueryRowContext(ctx, `SELECT config_json FROM condo_configs WHERE condo_id=?`, condoID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		return nil, err
	}
	if cfg.Condo.ID == "" {
		cfg.Condo.ID = condoID
	}
	return &cfg, cfg.Validate()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullablePtr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}
