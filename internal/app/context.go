package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zelador/internal/config"
	"zelador/internal/repo"
)

// ResolveCondoAndConfig picks the active condominium and ensures a condo +
// config row exist, seeding defaults when missing. It prefers the explicit
// override, then a single-condo database. A missing condominium is created
// on the fly.
func ResolveCondoAndConfig(ctx context.Context, workspace, condoOverride, actorID string, r repo.Repo) (string, *config.Config, error) {
	condoID := condoOverride
	if condoID == "" {
		if c, err := r.SingleCondominium(ctx); err == nil {
			condoID = c.ID
		} else {
			return "", nil, fmt.Errorf("condominium not specified; use --condo")
		}
	}
	seedCfg := config.Default(condoID)

	if _, err := r.GetCondominium(ctx, condoID); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return "", nil, err
		}
		if err := createCondominium(ctx, r, condoID, seedCfg); err != nil {
			return "", nil, err
		}
	}
	cfg, err := r.GetCondoConfig(ctx, condoID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			if err := r.UpsertCondoConfig(ctx, condoID, seedCfg); err != nil {
				return "", nil, fmt.Errorf("seed condo config: %w", err)
			}
			cfg = seedCfg
		} else {
			return "", nil, err
		}
	}
	cfg.Condo.ID = condoID
	return condoID, cfg, nil
}

func createCondominium(ctx context.Context, r repo.Repo, condoID string, seedCfg *config.Config) error {
	if seedCfg == nil {
		seedCfg = config.Default(condoID)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO condominiums(id,name,address,status,created_at) VALUES (?,?,NULL,?,?)`,
		condoID, condoID, "active", now); err != nil {
		return fmt.Errorf("insert condominium: %w", err)
	}
	if err := r.UpsertCondoConfigTx(ctx, tx, condoID, seedCfg); err != nil {
		return fmt.Errorf("insert condo config: %w", err)
	}
	return tx.Commit()
}
