package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zelador/internal/config"
	"zelador/internal/domain"
	"zelador/internal/events"
	"zelador/internal/repo"
	"zelador/internal/schedule"
)

type Engine struct {
	DB       *sql.DB
	Repo     repo.Repo
	Events   events.Writer
	Config   *config.Config
	Location *time.Location
	Now      func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	loc := time.UTC
	if cfg != nil {
		if l, err := cfg.Location(); err == nil {
			loc = l
		}
	}
	return Engine{
		DB:       db,
		Repo:     repo.Repo{DB: db},
		Events:   events.Writer{DB: db},
		Config:   cfg,
		Location: loc,
		Now:      time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) loc() *time.Location {
	if e.Location != nil {
		return e.Location
	}
	return time.UTC
}

// today returns the current calendar day at midnight in the canonical
// timezone.
func (e Engine) today() time.Time {
	return schedule.StartOfDay(e.now(), e.loc())
}

// InitCondominium creates a condominium with migrations already run.
func (e Engine) InitCondominium(ctx context.Context, condoID, name, address, actorID string) (domain.Condominium, error) {
	if name == "" {
		name = condoID
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Condominium{}, err
	}
	defer tx.Rollback()

	c := domain.Condominium{
		ID:        condoID,
		Name:      name,
		Address:   address,
		Status:    "active",
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO condominiums(id,name,address,status,created_at) VALUES (?,?,?,?,?)`,
		c.ID, c.Name, nullable(c.Address), c.Status, c.CreatedAt); err != nil {
		return domain.Condominium{}, fmt.Errorf("insert condominium: %w", err)
	}
	if err := e.Repo.UpsertCondoConfigTx(ctx, tx, c.ID, config.Default(c.ID)); err != nil {
		return domain.Condominium{}, fmt.Errorf("insert condo config: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "condo.created", c.ID, "condo", c.ID, actorID, events.EventPayload{"name": c.Name}); err != nil {
		return domain.Condominium{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Condominium{}, err
	}
	return c, nil
}

// ActivityCreateOptions are parameters for creating a maintenance activity.
type ActivityCreateOptions struct {
	ID             string
	CondoID        string
	Name           string
	Description    string
	Location       string
	Responsible    string
	Frequency      string
	ExpectedDate   string
	StartAt        string
	CompletionDate string
	ActorID        string
}

func (e Engine) CreateActivity(ctx context.Context, opts ActivityCreateOptions) (domain.Activity, error) {
	if opts.Name == "" {
		return domain.Activity{}, errors.New("name is required")
	}
	if opts.CondoID == "" {
		return domain.Activity{}, errors.New("condo is required")
	}
	if opts.Frequency == "" {
		return domain.Activity{}, errors.New("frequency is required")
	}
	if _, err := e.Repo.GetCondominium(ctx, opts.CondoID); err != nil {
		return domain.Activity{}, err
	}
	if opts.ExpectedDate != "" {
		if _, err := schedule.ParseDay(opts.ExpectedDate, e.loc()); err != nil {
			return domain.Activity{}, fmt.Errorf("expected_date: %w", err)
		}
	}
	if opts.CompletionDate != "" {
		if _, err := schedule.ParseDay(opts.CompletionDate, e.loc()); err != nil {
			return domain.Activity{}, fmt.Errorf("completion_date: %w", err)
		}
	}
	if opts.StartAt != "" {
		if _, err := time.Parse(time.RFC3339, opts.StartAt); err != nil {
			return domain.Activity{}, fmt.Errorf("start_at: invalid RFC3339 timestamp: %w", err)
		}
	}
	rule, known := schedule.ParseFrequency(opts.Frequency)

	id := opts.ID
	now := e.now().UTC().Format(time.RFC3339)
	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(opts.CondoID+"|"+opts.Name+"|"+now)).String()
	}
	a := domain.Activity{
		ID:             id,
		CondoID:        opts.CondoID,
		Name:           opts.Name,
		Description:    opts.Description,
		Location:       opts.Location,
		Responsible:    optionalString(opts.Responsible),
		Frequency:      opts.Frequency,
		ExpectedDate:   optionalString(opts.ExpectedDate),
		StartAt:        optionalString(opts.StartAt),
		CompletionDate: optionalString(opts.CompletionDate),
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	anchor, err := e.anchorDate(a)
	if err != nil {
		return domain.Activity{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Activity{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertActivity(ctx, tx, a); err != nil {
		return domain.Activity{}, err
	}
	// Seed the first occurrence on the anchor day; its status depends on
	// where that day sits relative to today.
	first := domain.Occurrence{
		ActivityID:    a.ID,
		ReferenceDate: schedule.FormatDay(anchor),
		Status:        schedule.CreationStatus(anchor, e.today()),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.Repo.InsertOccurrence(ctx, tx, first); err != nil {
		return domain.Activity{}, fmt.Errorf("seed occurrence: %w", err)
	}
	if !known {
		if err := e.Events.Append(ctx, tx, "activity.frequency.unknown", a.CondoID, "activity", a.ID, opts.ActorID, events.EventPayload{
			"frequency": opts.Frequency,
		}); err != nil {
			return domain.Activity{}, err
		}
	}
	if err := e.Events.Append(ctx, tx, "activity.created", a.CondoID, "activity", a.ID, opts.ActorID, events.EventPayload{
		"name":      a.Name,
		"frequency": a.Frequency,
		"recurring": rule.Recurs(),
	}); err != nil {
		return domain.Activity{}, err
	}
	if err := e.Events.Append(ctx, tx, "occurrence.scheduled", a.CondoID, "occurrence", a.ID, opts.ActorID, events.EventPayload{
		"reference_date": first.ReferenceDate,
		"status":         first.Status,
	}); err != nil {
		return domain.Activity{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Activity{}, err
	}
	return a, nil
}

// ActivityUpdateOptions encapsulates allowed updates. Nil fields are left
// untouched.
type ActivityUpdateOptions struct {
	ID             string
	Name           *string
	Description    *string
	Location       *string
	Responsible    *string
	Frequency      *string
	ExpectedDate   *string
	CompletionDate *string
	Active         *bool
	ActorID        string
}

func (e Engine) UpdateActivity(ctx context.Context, opts ActivityUpdateOptions) (domain.Activity, error) {
	a, err := e.Repo.GetActivity(ctx, opts.ID)
	if err != nil {
		return a, err
	}
	frequencyChanged := false
	if opts.Name != nil {
		if *opts.Name == "" {
			return a, errors.New("name is required")
		}
		a.Name = *opts.Name
	}
	if opts.Description != nil {
		a.Description = *opts.Description
	}
	if opts.Location != nil {
		a.Location = *opts.Location
	}
	if opts.Responsible != nil {
		a.Responsible = optionalString(*opts.Responsible)
	}
	if opts.Frequency != nil {
		if *opts.Frequency == "" {
			return a, errors.New("frequency is required")
		}
		frequencyChanged = a.Frequency != *opts.Frequency
		a.Frequency = *opts.Frequency
	}
	if opts.ExpectedDate != nil {
		if *opts.ExpectedDate != "" {
			if _, err := schedule.ParseDay(*opts.ExpectedDate, e.loc()); err != nil {
				return a, fmt.Errorf("expected_date: %w", err)
			}
		}
		a.ExpectedDate = optionalString(*opts.ExpectedDate)
	}
	if opts.CompletionDate != nil {
		if *opts.CompletionDate != "" {
			if _, err := schedule.ParseDay(*opts.CompletionDate, e.loc()); err != nil {
				return a, fmt.Errorf("completion_date: %w", err)
			}
		}
		a.CompletionDate = optionalString(*opts.CompletionDate)
	}
	if opts.Active != nil {
		a.Active = *opts.Active
	}
	a.UpdatedAt = e.now().UTC().Format(time.RFC3339)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return a, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateActivity(ctx, tx, a); err != nil {
		return a, err
	}
	payload := events.EventPayload{"name": a.Name}
	if frequencyChanged {
		payload["frequency"] = a.Frequency
		if _, known := schedule.ParseFrequency(a.Frequency); !known {
			if err := e.Events.Append(ctx, tx, "activity.frequency.unknown", a.CondoID, "activity", a.ID, opts.ActorID, events.EventPayload{
				"frequency": a.Frequency,
			}); err != nil {
				return a, err
			}
		}
	}
	if err := e.Events.Append(ctx, tx, "activity.updated", a.CondoID, "activity", a.ID, opts.ActorID, payload); err != nil {
		return a, err
	}
	if err := tx.Commit(); err != nil {
		return a, err
	}
	return a, nil
}

func (e Engine) DeleteActivity(ctx context.Context, id, actorID string) error {
	a, err := e.Repo.GetActivity(ctx, id)
	if err != nil {
		return err
	}
	if err := e.Repo.DeleteActivity(ctx, id); err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Events.Append(ctx, tx, "activity.deleted", a.CondoID, "activity", a.ID, actorID, events.EventPayload{"name": a.Name}); err != nil {
		return err
	}
	return tx.Commit()
}

// anchorDate resolves the scheduling anchor with fixed precedence: explicit
// expected date, then explicit start timestamp, then record creation.
func (e Engine) anchorDate(a domain.Activity) (time.Time, error) {
	if a.ExpectedDate != nil && *a.ExpectedDate != "" {
		return schedule.ParseDay(*a.ExpectedDate, e.loc())
	}
	if a.StartAt != nil && *a.StartAt != "" {
		t, err := time.Parse(time.RFC3339, *a.StartAt)
		if err != nil {
			return time.Time{}, fmt.Errorf("start_at: %w", err)
		}
		return schedule.StartOfDay(t, e.loc()), nil
	}
	if a.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339, a.CreatedAt)
		if err != nil {
			return time.Time{}, fmt.Errorf("created_at: %w", err)
		}
		return schedule.StartOfDay(t, e.loc()), nil
	}
	return time.Time{}, errors.New("activity has no resolvable anchor date")
}

// --- helpers ---

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
