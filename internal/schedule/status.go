package schedule

import (
	"time"

	"zelador/internal/domain"
)

// StatusForDay classifies an activity for the ref calendar day given its
// occurrence history. This is the canonical mapping behind every list,
// board, and calendar surface, evaluated in strict precedence order:
//
//  1. not due on ref and never completed -> PROXIMAS
//  2. not due on ref but a FEITO record exists -> HISTORICO
//  3. due on ref: the occurrence for ref decides
//     (FEITO -> HISTORICO, EM_ANDAMENTO -> EM_ANDAMENTO, else PENDENTE)
//
// It is a pure classifier; no transition is triggered here.
func StatusForDay(r Rule, anchor time.Time, history []domain.Occurrence, ref time.Time) string {
	due := IsDueOn(r, anchor, ref)
	if !due {
		for _, occ := range history {
			if occ.Status == domain.OccurrenceFeito {
				return domain.DayHistorico
			}
		}
		return domain.DayProximas
	}
	refDay := FormatDay(AddDays(ref, 0))
	for _, occ := range history {
		if occ.ReferenceDate != refDay {
			continue
		}
		switch occ.Status {
		case domain.OccurrenceFeito:
			return domain.DayHistorico
		case domain.OccurrenceEmAndamento:
			return domain.DayEmAndamento
		}
		break
	}
	return domain.DayPendente
}

// CreationStatus picks the status for a newly scheduled occurrence from
// where its reference day sits relative to today.
func CreationStatus(refDay, today time.Time) string {
	switch {
	case dayNumber(refDay) > dayNumber(today):
		return domain.OccurrenceProximas
	case dayNumber(refDay) < dayNumber(today):
		return domain.OccurrenceAtrasado
	default:
		return domain.OccurrencePendente
	}
}
