package schedule

import "strings"

// RuleKind classifies how a frequency label recurs.
type RuleKind int

const (
	// KindNone never recurs: a single occurrence on the anchor date.
	KindNone RuleKind = iota
	// KindDays recurs every Interval calendar days.
	KindDays
	// KindBusinessDays recurs every weekday (optionally including Saturday).
	KindBusinessDays
	// KindMonths recurs every Interval calendar months.
	KindMonths
	// KindYears recurs every Interval calendar years.
	KindYears
	// KindSpecial marks labels that cannot be resolved to a calendar rule
	// (vendor-defined or usage-driven schedules).
	KindSpecial
)

// Rule is a frequency label decoded once at the boundary. All recurrence
// logic dispatches on the decoded rule, never on the raw label.
type Rule struct {
	Kind            RuleKind
	Interval        int
	IncludeSaturday bool
}

// The closed label catalog. Labels outside this set resolve to a
// non-recurring rule rather than erroring, so an unrecognized frequency in
// stored data degrades to a one-shot activity instead of breaking the
// scheduler.
var frequencyLabels = map[string]Rule{
	"Não se repete":                     {Kind: KindNone},
	"Todos os dias":                     {Kind: KindDays, Interval: 1},
	"A cada semana":                     {Kind: KindDays, Interval: 7},
	"A cada 15 dias":                    {Kind: KindDays, Interval: 15},
	"Segunda a sexta":                   {Kind: KindBusinessDays},
	"Segunda a sábado":                  {Kind: KindBusinessDays, IncludeSaturday: true},
	"A cada mês":                        {Kind: KindMonths, Interval: 1},
	"A cada 2 meses":                    {Kind: KindMonths, Interval: 2},
	"A cada 3 meses":                    {Kind: KindMonths, Interval: 3},
	"A cada 6 meses":                    {Kind: KindMonths, Interval: 6},
	"A cada ano":                        {Kind: KindYears, Interval: 1},
	"Conforme indicação do fornecedor":  {Kind: KindSpecial},
	"Conforme uso":                      {Kind: KindSpecial},
}

// ParseFrequency decodes a label from the closed catalog. The second return
// reports whether the label was recognized; unknown labels come back as
// KindNone so callers can log a data-quality warning and keep going.
func ParseFrequency(label string) (Rule, bool) {
	r, ok := frequencyLabels[strings.TrimSpace(label)]
	if !ok {
		return Rule{Kind: KindNone}, false
	}
	return r, true
}

// Labels returns the catalog labels, for config validation and API docs.
func Labels() []string {
	out := make([]string, 0, len(frequencyLabels))
	for l := range frequencyLabels {
		out = append(out, l)
	}
	return out
}

// Recurs reports whether the rule ever produces a follow-up occurrence.
func (r Rule) Recurs() bool {
	return r.Kind != KindNone && r.Kind != KindSpecial
}

func (r Rule) interval() int {
	if r.Interval <= 0 {
		return 1
	}
	return r.Interval
}
