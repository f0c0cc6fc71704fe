package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zelador/internal/domain"
	"zelador/internal/events"
	"zelador/internal/repo"
	"zelador/internal/schedule"
)

// Statuses a user may set on an occurrence. The derived day-level statuses
// never land in the history table.
var settableStatuses = map[string]bool{
	domain.OccurrencePendente:    true,
	domain.OccurrenceEmAndamento: true,
	domain.OccurrenceFeito:       true,
	domain.OccurrencePulado:      true,
}

// SetOccurrenceStatus records a user action on an activity's occurrence for
// a calendar day, creating the record when the day has none yet. Marking an
// occurrence FEITO additionally advances the history: the next occurrence is
// scheduled as a separate best-effort step, so the completion itself stands
// even when advancement fails.
func (e Engine) SetOccurrenceStatus(ctx context.Context, activityID, referenceDate, status, notes, actorID string) (domain.Occurrence, error) {
	if !settableStatuses[status] {
		return domain.Occurrence{}, fmt.Errorf("invalid occurrence status %q", status)
	}
	if _, err := schedule.ParseDay(referenceDate, e.loc()); err != nil {
		return domain.Occurrence{}, err
	}
	a, err := e.Repo.GetActivity(ctx, activityID)
	if err != nil {
		return domain.Occurrence{}, err
	}

	now := e.now().UTC().Format(time.RFC3339)
	occ, err := e.Repo.GetOccurrence(ctx, activityID, referenceDate)
	creating := false
	if errors.Is(err, repo.ErrNotFound) {
		creating = true
		occ = domain.Occurrence{
			ActivityID:    activityID,
			ReferenceDate: referenceDate,
			CreatedAt:     now,
		}
	} else if err != nil {
		return domain.Occurrence{}, err
	}

	occ.Status = status
	occ.UpdatedAt = now
	if notes != "" {
		occ.Notes = &notes
	}
	if status == domain.OccurrenceFeito {
		occ.CompletedAt = &now
	} else {
		occ.CompletedAt = nil
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return occ, err
	}
	defer tx.Rollback()
	if creating {
		if err := e.Repo.InsertOccurrence(ctx, tx, occ); err != nil {
			return occ, err
		}
	} else {
		if err := e.Repo.UpdateOccurrence(ctx, tx, occ); err != nil {
			return occ, err
		}
	}
	if err := e.Events.Append(ctx, tx, "occurrence.status", a.CondoID, "occurrence", activityID, actorID, events.EventPayload{
		"reference_date": referenceDate,
		"status":         status,
	}); err != nil {
		return occ, err
	}
	if err := tx.Commit(); err != nil {
		return occ, err
	}

	if status == domain.OccurrenceFeito {
		if err := e.advanceHistory(ctx, activityID, referenceDate, actorID); err != nil {
			return occ, fmt.Errorf("completion recorded, scheduling next occurrence: %w", err)
		}
	}
	return occ, nil
}

// advanceHistory creates the next pending occurrence after a completion.
// It aborts silently when the activity has vanished (completion remains
// valid); persistence failures on the upsert surface to the caller.
func (e Engine) advanceHistory(ctx context.Context, activityID, referenceDate, actorID string) error {
	a, err := e.Repo.GetActivity(ctx, activityID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return err
	}
	rule, _ := schedule.ParseFrequency(a.Frequency)
	anchor, err := e.anchorDate(a)
	if err != nil {
		return err
	}
	base, err := schedule.ParseDay(referenceDate, e.loc())
	if err != nil {
		return err
	}
	// Walk the anchor's sequence, not forward from the completed day: the
	// scheduled occurrence must be a day IsDueOn agrees is due, even when
	// the completed one sat on an end-of-month clamp.
	next, ok := schedule.NextAfter(rule, anchor, base)
	if !ok {
		return nil
	}
	if a.CompletionDate != nil && *a.CompletionDate != "" {
		end, err := schedule.ParseDay(*a.CompletionDate, e.loc())
		if err != nil {
			return fmt.Errorf("completion_date: %w", err)
		}
		if next.After(end) {
			// The recurring cycle has ended; no further occurrences.
			return nil
		}
	}

	now := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	scheduled, err := e.Repo.SchedulePendingOccurrence(ctx, tx, activityID, schedule.FormatDay(next), now)
	if err != nil {
		return err
	}
	if !scheduled {
		// Replayed completion: the next occurrence already exists, so there
		// is nothing to audit.
		return tx.Commit()
	}
	if err := e.Events.Append(ctx, tx, "occurrence.scheduled", a.CondoID, "occurrence", activityID, actorID, events.EventPayload{
		"reference_date": schedule.FormatDay(next),
		"status":         domain.OccurrencePendente,
	}); err != nil {
		return err
	}
	return tx.Commit()
}
