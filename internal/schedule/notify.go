package schedule

import (
	"fmt"
	"sort"
	"time"

	"zelador/internal/domain"
)

// NotifyInput is one activity as seen by the notification projector.
type NotifyInput struct {
	ActivityID string
	Name       string
	Location   string
	Rule       Rule
	Anchor     time.Time
	History    []domain.Occurrence
}

var whenRank = map[string]int{
	domain.NoticeOverdue: 0,
	domain.NoticeDue:     1,
	domain.NoticePre:     2,
}

// Project scans the given activities and emits the deduplicated, ordered
// due/pre-alert/overdue feed for today. leadDays is the look-ahead window
// for pre-alerts. Activities already HISTORICO for today are skipped.
func Project(items []NotifyInput, leadDays int, today time.Time) []domain.Notification {
	day := AddDays(today, 0)
	var out []domain.Notification
	seen := map[string]bool{}

	emit := func(n domain.Notification) {
		key := n.ActivityID + "|" + n.When + "|" + n.DueDate
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, n)
	}

	for _, it := range items {
		if StatusForDay(it.Rule, it.Anchor, it.History, day) == domain.DayHistorico {
			continue
		}
		if IsDueOn(it.Rule, it.Anchor, day) {
			emit(notice(it, domain.NoticeDue, day, "vence hoje"))
			continue
		}
		if next, ok := NextDue(it.Rule, it.Anchor, day); ok {
			diff := dayNumber(next) - dayNumber(day)
			if diff >= 0 && diff <= leadDays {
				when := domain.NoticePre
				details := fmt.Sprintf("vence em %d dia(s)", diff)
				if diff == 0 {
					when = domain.NoticeDue
					details = "vence hoje"
				}
				emit(notice(it, when, next, details))
				continue
			}
		}
		// A one-shot activity whose anchor has passed without completion is
		// overdue; recurring activities surface through due/pre instead.
		if it.Rule.Kind == KindNone && dayNumber(it.Anchor) < dayNumber(day) && !hasCompletion(it.History) {
			emit(notice(it, domain.NoticeOverdue, it.Anchor, "prazo vencido"))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if whenRank[out[i].When] != whenRank[out[j].When] {
			return whenRank[out[i].When] < whenRank[out[j].When]
		}
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].DueDate < out[j].DueDate
	})
	return out
}

func notice(it NotifyInput, when string, dueDate time.Time, details string) domain.Notification {
	return domain.Notification{
		ActivityID: it.ActivityID,
		When:       when,
		DueDate:    FormatDay(dueDate),
		Title:      it.Name,
		Details:    details,
		Location:   it.Location,
	}
}

func hasCompletion(history []domain.Occurrence) bool {
	for _, occ := range history {
		if occ.Status == domain.OccurrenceFeito {
			return true
		}
	}
	return false
}
