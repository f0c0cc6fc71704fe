package engine

import (
	"context"
	"sort"
	"time"

	"zelador/internal/domain"
	"zelador/internal/schedule"
)

// ActivityStatus pairs an activity with its derived day-level status for
// today. Computed fresh on every read, never cached.
type ActivityStatus struct {
	Activity domain.Activity `json:"activity"`
	Status   string          `json:"status" enum:"PROXIMAS,EM_ANDAMENTO,PENDENTE,HISTORICO"`
	NextDue  *string         `json:"next_due,omitempty" format:"date"`
}

// AgendaEntry is one row of the calendar view.
type AgendaEntry struct {
	Activity domain.Activity `json:"activity"`
	DueToday bool            `json:"due_today"`
	NextDue  *string         `json:"next_due,omitempty" format:"date"`
}

// Today is the current calendar day in the canonical timezone.
func (e Engine) Today() time.Time {
	return e.today()
}

// Board partitions a condominium's active activities into the four day-level
// status columns for today. Activities without a resolvable anchor date are
// excluded: they cannot be scheduled.
func (e Engine) Board(ctx context.Context, condoID string) (map[string][]ActivityStatus, error) {
	statuses, err := e.activityStatuses(ctx, condoID)
	if err != nil {
		return nil, err
	}
	board := map[string][]ActivityStatus{
		domain.DayProximas:    {},
		domain.DayEmAndamento: {},
		domain.DayPendente:    {},
		domain.DayHistorico:   {},
	}
	for _, s := range statuses {
		board[s.Status] = append(board[s.Status], s)
	}
	return board, nil
}

// CountByDayStatus summarizes today's board for the status endpoint.
func (e Engine) CountByDayStatus(ctx context.Context, condoID string) (map[string]int, error) {
	statuses, err := e.activityStatuses(ctx, condoID)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{
		domain.DayProximas:    0,
		domain.DayEmAndamento: 0,
		domain.DayPendente:    0,
		domain.DayHistorico:   0,
	}
	for _, s := range statuses {
		counts[s.Status]++
	}
	return counts, nil
}

// Agenda lists active activities with their next due date on or after
// today, soonest first; entries that never come due again sort last.
func (e Engine) Agenda(ctx context.Context, condoID string) ([]AgendaEntry, error) {
	activities, _, err := e.loadScope(ctx, condoID)
	if err != nil {
		return nil, err
	}
	today := e.today()
	var out []AgendaEntry
	for _, a := range activities {
		anchor, err := e.anchorDate(a)
		if err != nil {
			continue
		}
		rule, _ := schedule.ParseFrequency(a.Frequency)
		entry := AgendaEntry{Activity: a, DueToday: schedule.IsDueOn(rule, anchor, today)}
		if next, ok := schedule.NextDue(rule, anchor, today); ok {
			s := schedule.FormatDay(next)
			entry.NextDue = &s
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		switch {
		case out[i].NextDue == nil && out[j].NextDue == nil:
			return out[i].Activity.Name < out[j].Activity.Name
		case out[i].NextDue == nil:
			return false
		case out[j].NextDue == nil:
			return true
		default:
			return *out[i].NextDue < *out[j].NextDue
		}
	})
	return out, nil
}

// Notifications projects the due/pre-alert/overdue feed for a condominium.
// leadDays below zero falls back to the configured window.
func (e Engine) Notifications(ctx context.Context, condoID string, leadDays int) ([]domain.Notification, error) {
	if leadDays < 0 {
		leadDays = 0
		if e.Config != nil {
			leadDays = e.Config.Notifications.LeadDays
		}
	}
	activities, histories, err := e.loadScope(ctx, condoID)
	if err != nil {
		return nil, err
	}
	var items []schedule.NotifyInput
	for _, a := range activities {
		anchor, err := e.anchorDate(a)
		if err != nil {
			continue
		}
		rule, _ := schedule.ParseFrequency(a.Frequency)
		items = append(items, schedule.NotifyInput{
			ActivityID: a.ID,
			Name:       a.Name,
			Location:   a.Location,
			Rule:       rule,
			Anchor:     anchor,
			History:    histories[a.ID],
		})
	}
	return schedule.Project(items, leadDays, e.today()), nil
}

// ActivityDayStatus classifies a single activity for today.
func (e Engine) ActivityDayStatus(ctx context.Context, activityID string) (ActivityStatus, error) {
	a, err := e.Repo.GetActivity(ctx, activityID)
	if err != nil {
		return ActivityStatus{}, err
	}
	history, err := e.Repo.ListOccurrences(ctx, activityID)
	if err != nil {
		return ActivityStatus{}, err
	}
	return e.dayStatus(a, history)
}

func (e Engine) activityStatuses(ctx context.Context, condoID string) ([]ActivityStatus, error) {
	activities, histories, err := e.loadScope(ctx, condoID)
	if err != nil {
		return nil, err
	}
	var out []ActivityStatus
	for _, a := range activities {
		s, err := e.dayStatus(a, histories[a.ID])
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (e Engine) dayStatus(a domain.Activity, history []domain.Occurrence) (ActivityStatus, error) {
	anchor, err := e.anchorDate(a)
	if err != nil {
		return ActivityStatus{}, err
	}
	rule, _ := schedule.ParseFrequency(a.Frequency)
	today := e.today()
	s := ActivityStatus{
		Activity: a,
		Status:   schedule.StatusForDay(rule, anchor, history, today),
	}
	if next, ok := schedule.NextDue(rule, anchor, today); ok {
		v := schedule.FormatDay(next)
		s.NextDue = &v
	}
	return s, nil
}

func (e Engine) loadScope(ctx context.Context, condoID string) ([]domain.Activity, map[string][]domain.Occurrence, error) {
	if _, err := e.Repo.GetCondominium(ctx, condoID); err != nil {
		return nil, nil, err
	}
	activities, err := e.Repo.ListActivities(ctx, condoID, true)
	if err != nil {
		return nil, nil, err
	}
	histories, err := e.Repo.ListOccurrencesForCondo(ctx, condoID)
	if err != nil {
		return nil, nil, err
	}
	return activities, histories, nil
}
